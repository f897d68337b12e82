package meetup

import (
	"fmt"
	"time"

	"playmatch/meetups/internal/models"
)

// DefaultDuration is used when neither the meetup nor the config carries one.
const DefaultDuration = 2 * time.Hour

// Lifecycle reconciles a meetup's stored status with the clock.
// Every time-sensitive decision goes through it; callers never compare dates themselves.
type Lifecycle struct {
	Now      func() time.Time
	Duration time.Duration // nominal meetup length
}

// NewLifecycle returns a Lifecycle over the wall clock.
func NewLifecycle(duration time.Duration) Lifecycle {
	return Lifecycle{Now: time.Now, Duration: duration}
}

func (l Lifecycle) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

// End returns the scheduled end of m.
func (l Lifecycle) End(m *models.Meetup) time.Time {
	d := l.Duration
	if m.DurationMinutes > 0 {
		d = time.Duration(m.DurationMinutes) * time.Minute
	}
	if d <= 0 {
		d = DefaultDuration
	}
	return m.StartsAt.Add(d)
}

// Effective returns the status m is treated as having right now.
// A stored cancelled status always wins over the clock.
func (l Lifecycle) Effective(m *models.Meetup) models.MeetupStatus {
	if m.Status == models.StatusCancelled {
		return models.StatusCancelled
	}
	now := l.now()
	if now.Before(m.StartsAt) {
		return models.StatusUpcoming
	}
	if !now.After(l.End(m)) {
		return models.StatusOngoing
	}
	return models.StatusCompleted
}

// Joinable fails with ErrEventNotJoinable once m is cancelled or has started.
// The same rule freezes the roster for leave.
func (l Lifecycle) Joinable(m *models.Meetup) error {
	if m.Status == models.StatusCancelled {
		return fmt.Errorf("%w: meetup was cancelled", ErrEventNotJoinable)
	}
	if !l.now().Before(m.StartsAt) {
		return fmt.Errorf("%w: meetup started at %s", ErrEventNotJoinable, m.StartsAt.Format(time.RFC3339))
	}
	return nil
}

// CanTransition checks a persisted status change. Only cancellation is ever written.
func (l Lifecycle) CanTransition(m *models.Meetup, to models.MeetupStatus) error {
	if m.Status == models.StatusCancelled {
		return ErrAlreadyTerminal
	}
	if to != models.StatusCancelled {
		return fmt.Errorf("%w: status can only be set to %q", ErrValidation, models.StatusCancelled)
	}
	return nil
}

// Partition splits meetups the way a "my meetups" page shows them.
func (l Lifecycle) Partition(meetups []models.Meetup) (upcoming, past, cancelled []models.Meetup) {
	for i := range meetups {
		switch l.Effective(&meetups[i]) {
		case models.StatusCancelled:
			cancelled = append(cancelled, meetups[i])
		case models.StatusUpcoming:
			upcoming = append(upcoming, meetups[i])
		default:
			past = append(past, meetups[i])
		}
	}
	return upcoming, past, cancelled
}
