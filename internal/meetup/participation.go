package meetup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"playmatch/meetups/internal/models"
)

// DefaultTimeout bounds a single store call.
const DefaultTimeout = 5 * time.Second

// Participation orchestrates join and leave. The capacity and membership
// checks that matter are repeated inside Registry.AdjustParticipant; the ones
// done here only pick the right error early.
type Participation struct {
	Registry  Registry
	Guard     Guard
	Lifecycle Lifecycle
	Timeout   time.Duration
}

// Join adds actor to the meetup's roster.
func (p *Participation) Join(ctx context.Context, id string, actor Actor) (*models.Meetup, error) {
	ctx = context.WithoutCancel(ctx)

	m, err := p.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Anonymous() {
		return nil, fmt.Errorf("%w: sign in to join meetups", ErrAuthorization)
	}
	if err := p.Lifecycle.Joinable(m); err != nil {
		return nil, err
	}
	if err := p.Guard.Authorize(actor, ActionJoin, m); err != nil {
		return nil, err
	}

	return p.adjust(ctx, id, models.Participant{
		UserID:      actor.ID,
		DisplayName: actor.Name,
		JoinedAt:    p.Lifecycle.now(),
	}, 1)
}

// Leave removes actor from the meetup's roster. The host can never leave.
func (p *Participation) Leave(ctx context.Context, id string, actor Actor) (*models.Meetup, error) {
	ctx = context.WithoutCancel(ctx)

	m, err := p.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Anonymous() {
		return nil, fmt.Errorf("%w: sign in to leave meetups", ErrAuthorization)
	}
	if err := p.Guard.Authorize(actor, ActionLeave, m); err != nil {
		return nil, err
	}
	if err := p.Lifecycle.Joinable(m); err != nil {
		return nil, err
	}

	return p.adjust(ctx, id, models.Participant{UserID: actor.ID}, -1)
}

func (p *Participation) get(ctx context.Context, id string) (*models.Meetup, error) {
	ctx, cancel := withTimeout(ctx, p.Timeout)
	defer cancel()

	m, err := p.Registry.Get(ctx, id)
	return m, transient(err)
}

func (p *Participation) adjust(ctx context.Context, id string, participant models.Participant, delta int) (*models.Meetup, error) {
	ctx, cancel := withTimeout(ctx, p.Timeout)
	defer cancel()

	m, err := p.Registry.AdjustParticipant(ctx, id, participant, delta, true, p.Lifecycle.now())
	return m, transient(err)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}

// transient marks deadline errors so callers can tell them from domain failures.
func transient(err error) error {
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return err
}
