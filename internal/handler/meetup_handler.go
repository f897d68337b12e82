package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"playmatch/meetups/internal/meetup"
	"playmatch/meetups/internal/models"
)

// region --- DTOs ---

type MeetupInput struct {
	Title           string `json:"title" binding:"required" example:"Sunday doubles"`
	Description     string `json:"description"`
	Sport           string `json:"sport" binding:"required" example:"Tennis"`
	SportIcon       string `json:"sportIcon"`
	SportColor      string `json:"sportColor"`
	Location        string `json:"location" binding:"required" example:"Riverside courts"`
	City            string `json:"city"`
	State           string `json:"state"`
	Date            string `json:"date" binding:"required" example:"2026-11-01"`
	Time            string `json:"time" binding:"required" example:"09:30"`
	DurationMinutes int    `json:"durationMinutes" binding:"min=0"`
	MaxParticipants int    `json:"maxParticipants" binding:"required,min=2" example:"4"`
	SkillLevel      string `json:"skillLevel" binding:"omitempty,oneof=beginner intermediate advanced all" example:"all"`
}

// MeetupUpdateInput carries a host update. Omitted fields stay as they are;
// {"status": "cancelled"} cancels the meetup.
type MeetupUpdateInput struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	Sport           *string `json:"sport"`
	SportIcon       *string `json:"sportIcon"`
	SportColor      *string `json:"sportColor"`
	Location        *string `json:"location"`
	City            *string `json:"city"`
	State           *string `json:"state"`
	Date            *string `json:"date"`
	Time            *string `json:"time"`
	DurationMinutes *int    `json:"durationMinutes"`
	MaxParticipants *int    `json:"maxParticipants"`
	SkillLevel      *string `json:"skillLevel"`
	Status          *string `json:"status" example:"cancelled"`
}

type SportRefResponse struct {
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

type ParticipantResponse struct {
	UserID   uint      `json:"userId"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}

type MeetupResponse struct {
	ID                  string                `json:"id"`
	Title               string                `json:"title"`
	Description         string                `json:"description"`
	Sport               SportRefResponse      `json:"sport"`
	HostID              uint                  `json:"hostId"`
	HostName            string                `json:"hostName"`
	Location            string                `json:"location"`
	City                string                `json:"city,omitempty"`
	State               string                `json:"state,omitempty"`
	Date                string                `json:"date"`
	Time                string                `json:"time"`
	StartsAt            time.Time             `json:"startsAt"`
	EndsAt              time.Time             `json:"endsAt"`
	MaxParticipants     int                   `json:"maxParticipants"`
	CurrentParticipants int                   `json:"currentParticipants"`
	IsFull              bool                  `json:"isFull"`
	SkillLevel          models.SkillLevel     `json:"skillLevel"`
	Status              models.MeetupStatus   `json:"status"`
	Participants        []ParticipantResponse `json:"participants"`
	CreatedAt           time.Time             `json:"createdAt"`
	UpdatedAt           time.Time             `json:"updatedAt"`
}

// UserMeetupsResponse lists a user's meetups by role, and again by effective status.
type UserMeetupsResponse struct {
	Hosting   []MeetupResponse `json:"hosting"`
	Joined    []MeetupResponse `json:"joined"`
	Upcoming  []MeetupResponse `json:"upcoming"`
	Past      []MeetupResponse `json:"past"`
	Cancelled []MeetupResponse `json:"cancelled"`
}

func (in MeetupInput) draft() meetup.Draft {
	return meetup.Draft{
		Title:           in.Title,
		Description:     in.Description,
		Sport:           in.Sport,
		SportIcon:       in.SportIcon,
		SportColor:      in.SportColor,
		Location:        in.Location,
		City:            in.City,
		State:           in.State,
		Date:            in.Date,
		Time:            in.Time,
		DurationMinutes: in.DurationMinutes,
		MaxParticipants: in.MaxParticipants,
		SkillLevel:      models.SkillLevel(in.SkillLevel),
	}
}

func (in MeetupUpdateInput) patch() meetup.Patch {
	p := meetup.Patch{
		Title:           in.Title,
		Description:     in.Description,
		Sport:           in.Sport,
		SportIcon:       in.SportIcon,
		SportColor:      in.SportColor,
		Location:        in.Location,
		City:            in.City,
		State:           in.State,
		Date:            in.Date,
		Time:            in.Time,
		DurationMinutes: in.DurationMinutes,
		MaxParticipants: in.MaxParticipants,
	}
	if in.SkillLevel != nil {
		level := models.SkillLevel(*in.SkillLevel)
		p.SkillLevel = &level
	}
	if in.Status != nil {
		status := models.MeetupStatus(*in.Status)
		p.Status = &status
	}
	return p
}

func (h *Handler) newMeetupResponse(m models.Meetup) MeetupResponse {
	lifecycle := h.meetups.Lifecycle()

	participants := make([]ParticipantResponse, 0, len(m.Participants))
	var hostName string
	for _, p := range m.Participants {
		if p.UserID == m.HostID {
			hostName = p.DisplayName
		}
		participants = append(participants, ParticipantResponse{
			UserID:   p.UserID,
			Name:     p.DisplayName,
			JoinedAt: p.JoinedAt,
		})
	}

	return MeetupResponse{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Sport: SportRefResponse{
			Name:  m.SportName,
			Icon:  m.SportIcon,
			Color: m.SportColor,
		},
		HostID:              m.HostID,
		HostName:            hostName,
		Location:            m.Location,
		City:                m.City,
		State:               m.State,
		Date:                m.Date,
		Time:                m.Time,
		StartsAt:            m.StartsAt,
		EndsAt:              lifecycle.End(&m),
		MaxParticipants:     m.MaxParticipants,
		CurrentParticipants: m.CurrentParticipants,
		IsFull:              m.CurrentParticipants >= m.MaxParticipants,
		SkillLevel:          m.SkillLevel,
		Status:              lifecycle.Effective(&m),
		Participants:        participants,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func (h *Handler) newMeetupResponses(meetups []models.Meetup) []MeetupResponse {
	out := make([]MeetupResponse, 0, len(meetups))
	for _, m := range meetups {
		out = append(out, h.newMeetupResponse(m))
	}
	return out
}

// endregion

// CreateMeetup godoc
// @Summary      Create a new meetup
// @Description  Creates a new meetup, making the creator the host and first participant.
// @Tags         meetups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body MeetupInput true "Meetup Info"
// @Success      201  {object}  MeetupResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /meetups [post]
func (h *Handler) CreateMeetup(c *gin.Context) {
	var input MeetupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, ok := h.actor(c)
	if !ok {
		return
	}

	m, err := h.meetups.Create(c.Request.Context(), actor, input.draft())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.newMeetupResponse(*m))
}

// ListMeetups godoc
// @Summary      Search for meetups
// @Description  Gets a paginated list of meetups. Completed and cancelled meetups are left out unless includePast is set.
// @Tags         meetups
// @Produce      json
// @Param        search      query string false "Matches title, sport or location"
// @Param        location    query string false "Part of the location"
// @Param        sport       query string false "Sport name"
// @Param        skillLevel  query string false "beginner, intermediate, advanced or all"
// @Param        city        query string false "City"
// @Param        state       query string false "State"
// @Param        date        query string false "Date (YYYY-MM-DD)"
// @Param        includePast query bool   false "Include completed and cancelled meetups"
// @Param        page        query int    false "Page number" default(1)
// @Param        limit       query int    false "Items per page" default(10)
// @Success      200 {object} PaginatedResponse[MeetupResponse]
// @Router       /meetups [get]
func (h *Handler) ListMeetups(c *gin.Context) {
	page, limit := pageParams(c)
	includePast, _ := strconv.ParseBool(c.DefaultQuery("includePast", "false"))

	filter := meetup.Filter{
		Search:     c.Query("search"),
		Location:   c.Query("location"),
		Sport:      c.Query("sport"),
		SkillLevel: models.SkillLevel(c.Query("skillLevel")),
		City:       c.Query("city"),
		State:      c.Query("state"),
		Date:       c.Query("date"),
	}

	meetups, err := h.meetups.Search(c.Request.Context(), filter, includePast)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Paginate(h.newMeetupResponses(meetups), page, limit))
}

// GetMeetupByID godoc
// @Summary      Get a meetup by ID
// @Description  Gets full details for a single meetup, including its roster and effective status.
// @Tags         meetups
// @Produce      json
// @Param        id path string true "Meetup ID"
// @Success      200 {object} MeetupResponse
// @Failure      404 {object} ErrorResponse "Meetup not found"
// @Router       /meetups/{id} [get]
func (h *Handler) GetMeetupByID(c *gin.Context) {
	m, err := h.meetups.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.newMeetupResponse(*m))
}

// UpdateMeetup godoc
// @Summary      Update or cancel a meetup (Host only)
// @Description  Updates the given fields. A body of only {"status": "cancelled"} cancels the meetup.
// @Tags         meetups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Meetup ID"
// @Param        input body      MeetupUpdateInput true  "Fields to change"
// @Success      200   {object}  MeetupResponse
// @Failure      400   {object}  ErrorResponse "Invalid fields, or a cancellation combined with edits"
// @Failure      403   {object}  ErrorResponse "Only the host can update the meetup"
// @Failure      404   {object}  ErrorResponse "Meetup not found"
// @Failure      409   {object}  ErrorResponse "Meetup is cancelled"
// @Router       /meetups/{id} [put]
func (h *Handler) UpdateMeetup(c *gin.Context) {
	var input MeetupUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, ok := h.actor(c)
	if !ok {
		return
	}

	m, err := h.meetups.Update(c.Request.Context(), c.Param("id"), actor, input.patch())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.newMeetupResponse(*m))
}

// DeleteMeetup godoc
// @Summary      Delete a meetup (Host only)
// @Tags         meetups
// @Security     BearerAuth
// @Param        id path string true "Meetup ID"
// @Success      204
// @Failure      403 {object} ErrorResponse "Only the host can delete the meetup"
// @Failure      404 {object} ErrorResponse "Meetup not found"
// @Router       /meetups/{id} [delete]
func (h *Handler) DeleteMeetup(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	if err := h.meetups.Delete(c.Request.Context(), c.Param("id"), actor); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// JoinMeetup godoc
// @Summary      Join a meetup
// @Description  Joins a meetup if it has not started, is not cancelled and has a free slot.
// @Tags         meetups
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Meetup ID"
// @Success      200 {object} MeetupResponse
// @Failure      404 {object} ErrorResponse "Meetup not found"
// @Failure      409 {object} ErrorResponse "Meetup is full, already joined, started or cancelled"
// @Router       /meetups/{id}/join [post]
func (h *Handler) JoinMeetup(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	m, err := h.meetups.Join(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.newMeetupResponse(*m))
}

// LeaveMeetup godoc
// @Summary      Leave a meetup
// @Description  Leaves a meetup before it starts. The host cannot leave and must cancel instead.
// @Tags         meetups
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Meetup ID"
// @Success      200 {object} MeetupResponse
// @Failure      404 {object} ErrorResponse "Meetup not found"
// @Failure      409 {object} ErrorResponse "Not a participant, host, started or cancelled"
// @Router       /meetups/{id}/leave [post]
func (h *Handler) LeaveMeetup(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	m, err := h.meetups.Leave(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.newMeetupResponse(*m))
}
