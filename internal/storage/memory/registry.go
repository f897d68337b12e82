// Package memory keeps meetups in process memory. Each meetup has its own
// mutex; the map lock is only held to find, add or remove entries.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"playmatch/meetups/internal/meetup"
	"playmatch/meetups/internal/models"
)

type entry struct {
	mu      sync.Mutex
	meetup  models.Meetup
	deleted bool
}

// Registry is a meetup.Registry backed by a map.
type Registry struct {
	mu      sync.RWMutex
	meetups map[string]*entry
	now     func() time.Time
}

var _ meetup.Registry = (*Registry)(nil)

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		meetups: make(map[string]*entry),
		now:     time.Now,
	}
}

func (r *Registry) Create(ctx context.Context, m *models.Meetup) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := meetup.CheckNew(m); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.meetups[m.ID]; ok {
		return fmt.Errorf("%w: meetup %s already exists", meetup.ErrValidation, m.ID)
	}
	now := r.now()
	m.CreatedAt, m.UpdatedAt = now, now
	r.meetups[m.ID] = &entry{meetup: clone(*m)}
	return nil
}

func (r *Registry) Get(ctx context.Context, id string) (*models.Meetup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, meetup.ErrNotFound
	}
	m := clone(e.meetup)
	return &m, nil
}

func (r *Registry) Update(ctx context.Context, id string, actorID uint, patch meetup.Patch) (*models.Meetup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, meetup.ErrNotFound
	}

	next := clone(e.meetup)
	if err := patch.Apply(&next, actorID); err != nil {
		return nil, err
	}
	next.UpdatedAt = r.now()
	e.meetup = next

	m := clone(next)
	return &m, nil
}

func (r *Registry) Delete(ctx context.Context, id string, actorID uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.meetups[id]
	if !ok {
		return meetup.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.meetup.HostID != actorID {
		return fmt.Errorf("%w: only the host can delete this meetup", meetup.ErrAuthorization)
	}
	e.deleted = true
	delete(r.meetups, id)
	return nil
}

func (r *Registry) List(ctx context.Context, q meetup.ListQuery) ([]models.Meetup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	entries := make([]*entry, 0, len(r.meetups))
	for _, e := range r.meetups {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]models.Meetup, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		m := clone(e.meetup)
		deleted := e.deleted
		e.mu.Unlock()

		if deleted {
			continue
		}
		if q.HostID != 0 && m.HostID != q.HostID {
			continue
		}
		if q.ParticipantID != 0 && !m.HasParticipant(q.ParticipantID) {
			continue
		}
		out = append(out, m)
	}

	slices.SortFunc(out, func(a, b models.Meetup) int {
		if c := a.StartsAt.Compare(b.StartsAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out, nil
}

func (r *Registry) AdjustParticipant(ctx context.Context, id string, p models.Participant, delta int, capacityCheck bool, at time.Time) (*models.Meetup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, meetup.ErrNotFound
	}

	next := clone(e.meetup)
	if err := meetup.AdjustRoster(&next, p, delta, capacityCheck, at); err != nil {
		return nil, err
	}
	next.UpdatedAt = r.now()
	e.meetup = next

	m := clone(next)
	return &m, nil
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.meetups[id]
	if !ok {
		return nil, meetup.ErrNotFound
	}
	return e, nil
}

// clone copies m so callers never share the roster slice with the registry.
func clone(m models.Meetup) models.Meetup {
	m.Participants = slices.Clone(m.Participants)
	return m
}
