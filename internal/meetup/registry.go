package meetup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"playmatch/meetups/internal/models"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	MinParticipants = 2
)

// Registry owns persisted meetup state. Implementations must make
// AdjustParticipant and Update indivisible per meetup.
type Registry interface {
	Create(ctx context.Context, m *models.Meetup) error
	Get(ctx context.Context, id string) (*models.Meetup, error)
	Update(ctx context.Context, id string, actorID uint, patch Patch) (*models.Meetup, error)
	Delete(ctx context.Context, id string, actorID uint) error
	List(ctx context.Context, q ListQuery) ([]models.Meetup, error)

	// AdjustParticipant adds (delta=+1) or removes (delta=-1) p in one step that
	// reads membership, capacity and the start time and writes the change.
	// A change at or after StartsAt is rejected; a zero at skips that check.
	AdjustParticipant(ctx context.Context, id string, p models.Participant, delta int, capacityCheck bool, at time.Time) (*models.Meetup, error)
}

// ListQuery narrows a List call on the storage side.
type ListQuery struct {
	HostID        uint // meetups hosted by this user
	ParticipantID uint // meetups this user is on the roster of
}

// Draft is the input for creating a meetup.
type Draft struct {
	Title           string
	Description     string
	Sport           string
	SportIcon       string
	SportColor      string
	Location        string
	City            string
	State           string
	Date            string
	Time            string
	DurationMinutes int
	MaxParticipants int
	SkillLevel      models.SkillLevel
}

// Validate checks the required fields.
func (s Draft) Validate() error {
	switch {
	case strings.TrimSpace(s.Title) == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case strings.TrimSpace(s.Sport) == "":
		return fmt.Errorf("%w: sport is required", ErrValidation)
	case strings.TrimSpace(s.Location) == "":
		return fmt.Errorf("%w: location is required", ErrValidation)
	case strings.TrimSpace(s.Date) == "":
		return fmt.Errorf("%w: date is required", ErrValidation)
	case strings.TrimSpace(s.Time) == "":
		return fmt.Errorf("%w: time is required", ErrValidation)
	case s.MaxParticipants < MinParticipants:
		return fmt.Errorf("%w: maxParticipants must be at least %d", ErrValidation, MinParticipants)
	case s.DurationMinutes < 0:
		return fmt.Errorf("%w: duration cannot be negative", ErrValidation)
	case s.SkillLevel != "" && !s.SkillLevel.Valid():
		return fmt.Errorf("%w: unknown skill level %q", ErrValidation, s.SkillLevel)
	}
	return nil
}

// Build turns s into a new meetup hosted by host. The host is the first participant.
func (s Draft) Build(id string, host Actor, zone *time.Location, now time.Time) (*models.Meetup, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	startsAt, err := ScheduleAt(s.Date, s.Time, zone)
	if err != nil {
		return nil, err
	}
	if !startsAt.After(now) {
		return nil, fmt.Errorf("%w: meetup must start in the future", ErrValidation)
	}
	level := s.SkillLevel
	if level == "" {
		level = models.SkillAll
	}

	return &models.Meetup{
		ID:                  id,
		Title:               strings.TrimSpace(s.Title),
		Description:         s.Description,
		SportName:           strings.TrimSpace(s.Sport),
		SportIcon:           s.SportIcon,
		SportColor:          s.SportColor,
		HostID:              host.ID,
		Location:            strings.TrimSpace(s.Location),
		City:                s.City,
		State:               s.State,
		Date:                s.Date,
		Time:                s.Time,
		StartsAt:            startsAt,
		DurationMinutes:     s.DurationMinutes,
		MaxParticipants:     s.MaxParticipants,
		CurrentParticipants: 1,
		SkillLevel:          level,
		Status:              models.StatusUpcoming,
		Participants: []models.Participant{{
			MeetupID:    id,
			UserID:      host.ID,
			DisplayName: host.Name,
			JoinedAt:    now,
		}},
	}, nil
}

// ScheduleAt resolves a date and a time of day in zone, returned in UTC so
// stores compare instants and not zone-formatted strings.
func ScheduleAt(date, clock string, zone *time.Location) (time.Time, error) {
	if zone == nil {
		zone = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD and time HH:MM", ErrValidation)
	}
	return t.UTC(), nil
}

// CheckNew validates a meetup handed to Registry.Create.
func CheckNew(m *models.Meetup) error {
	switch {
	case m.ID == "":
		return fmt.Errorf("%w: id is required", ErrValidation)
	case m.HostID == 0:
		return fmt.Errorf("%w: host is required", ErrValidation)
	case m.MaxParticipants < MinParticipants:
		return fmt.Errorf("%w: maxParticipants must be at least %d", ErrValidation, MinParticipants)
	case !m.HasParticipant(m.HostID):
		return fmt.Errorf("%w: host must be a participant", ErrValidation)
	case m.CurrentParticipants != len(m.Participants):
		return fmt.Errorf("%w: participant count mismatch", ErrValidation)
	case m.CurrentParticipants > m.MaxParticipants:
		return fmt.Errorf("%w: more participants than capacity", ErrValidation)
	}
	return nil
}

// Patch is a host field update. Nil fields are left unchanged.
type Patch struct {
	Title           *string
	Description     *string
	Sport           *string
	SportIcon       *string
	SportColor      *string
	Location        *string
	City            *string
	State           *string
	Date            *string
	Time            *string
	DurationMinutes *int
	MaxParticipants *int
	SkillLevel      *models.SkillLevel
	Status          *models.MeetupStatus

	// Zone resolves Date and Time. Nil means UTC.
	Zone *time.Location
}

// Cancelling reports whether the patch requests cancellation.
func (p Patch) Cancelling() bool {
	return p.Status != nil && *p.Status == models.StatusCancelled
}

// EditsFields reports whether the patch changes anything besides the status.
func (p Patch) EditsFields() bool {
	return p.Title != nil || p.Description != nil || p.Sport != nil ||
		p.SportIcon != nil || p.SportColor != nil || p.Location != nil ||
		p.City != nil || p.State != nil || p.Date != nil || p.Time != nil ||
		p.DurationMinutes != nil || p.MaxParticipants != nil || p.SkillLevel != nil
}

// Apply applies p to m on behalf of actorID. Registries call it inside their
// critical section so the host and terminal checks see the current row.
// m is left untouched when an error is returned.
func (p Patch) Apply(m *models.Meetup, actorID uint) error {
	if m.HostID != actorID {
		return fmt.Errorf("%w: only the host can update this meetup", ErrAuthorization)
	}
	if m.Status == models.StatusCancelled {
		return ErrAlreadyTerminal
	}
	if p.Status != nil && p.EditsFields() {
		return fmt.Errorf("%w: a status change cannot be combined with field edits", ErrValidation)
	}

	next := *m
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		next.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Sport != nil {
		if strings.TrimSpace(*p.Sport) == "" {
			return fmt.Errorf("%w: sport cannot be empty", ErrValidation)
		}
		next.SportName = strings.TrimSpace(*p.Sport)
	}
	if p.SportIcon != nil {
		next.SportIcon = *p.SportIcon
	}
	if p.SportColor != nil {
		next.SportColor = *p.SportColor
	}
	if p.Location != nil {
		if strings.TrimSpace(*p.Location) == "" {
			return fmt.Errorf("%w: location cannot be empty", ErrValidation)
		}
		next.Location = strings.TrimSpace(*p.Location)
	}
	if p.City != nil {
		next.City = *p.City
	}
	if p.State != nil {
		next.State = *p.State
	}
	if p.Date != nil || p.Time != nil {
		if p.Date != nil {
			next.Date = *p.Date
		}
		if p.Time != nil {
			next.Time = *p.Time
		}
		startsAt, err := ScheduleAt(next.Date, next.Time, p.Zone)
		if err != nil {
			return err
		}
		next.StartsAt = startsAt
	}
	if p.DurationMinutes != nil {
		if *p.DurationMinutes < 0 {
			return fmt.Errorf("%w: duration cannot be negative", ErrValidation)
		}
		next.DurationMinutes = *p.DurationMinutes
	}
	if p.MaxParticipants != nil {
		if *p.MaxParticipants < MinParticipants {
			return fmt.Errorf("%w: maxParticipants must be at least %d", ErrValidation, MinParticipants)
		}
		if *p.MaxParticipants < m.CurrentParticipants {
			return fmt.Errorf("%w: maxParticipants cannot be below the %d current participants", ErrValidation, m.CurrentParticipants)
		}
		next.MaxParticipants = *p.MaxParticipants
	}
	if p.SkillLevel != nil {
		if !p.SkillLevel.Valid() {
			return fmt.Errorf("%w: unknown skill level %q", ErrValidation, *p.SkillLevel)
		}
		next.SkillLevel = *p.SkillLevel
	}
	if p.Status != nil {
		if *p.Status != models.StatusCancelled {
			return fmt.Errorf("%w: status can only be set to %q", ErrValidation, models.StatusCancelled)
		}
		next.Status = models.StatusCancelled
	}

	*m = next
	return nil
}

// AdjustRoster applies a roster change to an in-memory meetup at time at,
// enforcing the same rules the SQL backend enforces with its conditional update.
// m is left untouched when an error is returned.
func AdjustRoster(m *models.Meetup, p models.Participant, delta int, capacityCheck bool, at time.Time) error {
	switch delta {
	case 1:
		if m.HasParticipant(p.UserID) {
			return ErrAlreadyJoined
		}
		if err := rosterOpen(m, at); err != nil {
			return err
		}
		if capacityCheck && m.CurrentParticipants >= m.MaxParticipants {
			return ErrCapacityExceeded
		}
		p.MeetupID = m.ID
		roster := make([]models.Participant, 0, len(m.Participants)+1)
		roster = append(roster, m.Participants...)
		m.Participants = append(roster, p)
	case -1:
		if p.UserID == m.HostID {
			return ErrHostCannotLeave
		}
		if err := rosterOpen(m, at); err != nil {
			return err
		}
		idx := -1
		for i := range m.Participants {
			if m.Participants[i].UserID == p.UserID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrNotParticipant
		}
		roster := make([]models.Participant, 0, len(m.Participants)-1)
		roster = append(roster, m.Participants[:idx]...)
		m.Participants = append(roster, m.Participants[idx+1:]...)
	default:
		return fmt.Errorf("%w: delta must be +1 or -1, got %d", ErrValidation, delta)
	}
	m.CurrentParticipants = len(m.Participants)
	return nil
}

// rosterOpen rejects roster changes on cancelled or started meetups.
func rosterOpen(m *models.Meetup, at time.Time) error {
	if m.Status == models.StatusCancelled {
		return fmt.Errorf("%w: meetup was cancelled", ErrEventNotJoinable)
	}
	if !at.IsZero() && !m.StartsAt.After(at) {
		return fmt.Errorf("%w: meetup has already started", ErrEventNotJoinable)
	}
	return nil
}
