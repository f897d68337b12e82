package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"playmatch/meetups/internal/models"
	"playmatch/meetups/internal/storage/gormstore"
)

// region --- DTOs ---

type SportInput struct {
	Name        string `json:"name" binding:"required" example:"Tennis"`
	Description string `json:"description"`
	Icon        string `json:"icon" example:"🎾"`
	Color       string `json:"color" example:"#c6e03a"`
	Category    string `json:"category" example:"Racket"`
	IsActive    *bool  `json:"isActive"`
}

type SportResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Color       string    `json:"color"`
	Category    string    `json:"category"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newSportResponse(sport models.Sport) SportResponse {
	return SportResponse{
		ID:          sport.ID,
		Name:        sport.Name,
		Slug:        sport.Slug,
		Description: sport.Description,
		Icon:        sport.Icon,
		Color:       sport.Color,
		Category:    sport.Category,
		IsActive:    sport.IsActive,
		CreatedAt:   sport.CreatedAt,
		UpdatedAt:   sport.UpdatedAt,
	}
}

func (in SportInput) apply(sport *models.Sport) {
	sport.Name = in.Name
	sport.Description = in.Description
	sport.Icon = in.Icon
	sport.Color = in.Color
	sport.Category = in.Category
	if in.IsActive != nil {
		sport.IsActive = *in.IsActive
	}
}

// endregion

// GetSports godoc
// @Summary      List sports
// @Description  Lists the sport catalog. Inactive sports are hidden unless all=true.
// @Tags         sports
// @Produce      json
// @Param        all query bool false "Include inactive sports"
// @Success      200 {array} SportResponse
// @Router       /sports [get]
func (h *Handler) GetSports(c *gin.Context) {
	all, _ := strconv.ParseBool(c.DefaultQuery("all", "false"))

	sports, err := h.sports.List(c.Request.Context(), !all)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sports"})
		return
	}

	response := make([]SportResponse, 0, len(sports))
	for _, sport := range sports {
		response = append(response, newSportResponse(sport))
	}
	c.JSON(http.StatusOK, response)
}

// GetSportBySlug godoc
// @Summary      Get a sport
// @Tags         sports
// @Produce      json
// @Param        slug path string true "Sport slug"
// @Success      200 {object} SportResponse
// @Failure      404 {object} ErrorResponse "Sport not found"
// @Router       /sports/{slug} [get]
func (h *Handler) GetSportBySlug(c *gin.Context) {
	sport, err := h.sports.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondSportError(c, err)
		return
	}

	c.JSON(http.StatusOK, newSportResponse(*sport))
}

// CreateSport godoc
// @Summary      Create a new sport
// @Description  Adds a sport to the catalog. The slug is derived from the name.
// @Tags         admin-sports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body SportInput true "Sport Info"
// @Success      201  {object}  SportResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Failure      409  {object}  ErrorResponse "Sport already exists"
// @Router       /admin/sports [post]
func (h *Handler) CreateSport(c *gin.Context) {
	var input SportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sport := models.Sport{IsActive: true}
	input.apply(&sport)
	if err := h.sports.Create(c.Request.Context(), &sport); err != nil {
		respondSportError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newSportResponse(sport))
}

// UpdateSport godoc
// @Summary      Update a sport
// @Tags         admin-sports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int        true  "Sport ID"
// @Param        input body      SportInput true  "New Sport Info"
// @Success      200   {object}  SportResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse "Admin access required"
// @Failure      404   {object}  ErrorResponse "Sport not found"
// @Router       /admin/sports/{id} [put]
func (h *Handler) UpdateSport(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sport ID"})
		return
	}

	var input SportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sport, err := h.sports.Update(c.Request.Context(), uint(id), input.apply)
	if err != nil {
		respondSportError(c, err)
		return
	}

	c.JSON(http.StatusOK, newSportResponse(*sport))
}

// DeleteSport godoc
// @Summary      Delete a sport
// @Tags         admin-sports
// @Security     BearerAuth
// @Param        id path int true "Sport ID"
// @Success      204
// @Failure      403 {object} ErrorResponse "Admin access required"
// @Failure      404 {object} ErrorResponse "Sport not found"
// @Router       /admin/sports/{id} [delete]
func (h *Handler) DeleteSport(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sport ID"})
		return
	}

	if err := h.sports.Delete(c.Request.Context(), uint(id)); err != nil {
		respondSportError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func respondSportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gormstore.ErrSportNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Sport not found"})
	case errors.Is(err, gormstore.ErrSportExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Sport already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save sport"})
	}
}
