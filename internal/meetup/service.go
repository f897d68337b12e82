package meetup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"playmatch/meetups/internal/models"
)

// SportCatalog resolves a sport name against the catalog.
type SportCatalog interface {
	FindSport(ctx context.Context, name string) (*models.Sport, error)
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Duration time.Duration
	Timeout  time.Duration
	Zone     *time.Location
	Now      func() time.Time
	NewID    func() string
	Sports   SportCatalog
	Logger   *slog.Logger
}

// Service is the entry point for everything the HTTP layer does with meetups.
type Service struct {
	registry      Registry
	guard         Guard
	lifecycle     Lifecycle
	participation *Participation

	zone    *time.Location
	timeout time.Duration
	newID   func() string
	sports  SportCatalog
	logger  *slog.Logger
}

// UserMeetups is what a member hosts and what they joined as a guest. Upcoming,
// Past and Cancelled group every meetup on their roster by effective status.
type UserMeetups struct {
	Hosting []models.Meetup
	Joined  []models.Meetup

	Upcoming  []models.Meetup
	Past      []models.Meetup
	Cancelled []models.Meetup
}

// NewService wires the domain components over registry.
func NewService(registry Registry, opts Options) *Service {
	lifecycle := NewLifecycle(opts.Duration)
	if opts.Now != nil {
		lifecycle.Now = opts.Now
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Zone == nil {
		opts.Zone = time.UTC
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Service{
		registry:  registry,
		lifecycle: lifecycle,
		participation: &Participation{
			Registry:  registry,
			Lifecycle: lifecycle,
			Timeout:   opts.Timeout,
		},
		zone:    opts.Zone,
		timeout: opts.Timeout,
		newID:   opts.NewID,
		sports:  opts.Sports,
		logger:  opts.Logger,
	}
}

// Lifecycle exposes the status rules so responses can show the effective status.
func (s *Service) Lifecycle() Lifecycle {
	return s.lifecycle
}

// Create stores a new meetup hosted by actor.
func (s *Service) Create(ctx context.Context, actor Actor, draft Draft) (*models.Meetup, error) {
	if err := s.guard.Authorize(actor, ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := s.fillSport(ctx, &draft); err != nil {
		return nil, err
	}

	m, err := draft.Build(s.newID(), actor, s.zone, s.lifecycle.now())
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.registry.Create(ctx, m); err != nil {
		return nil, transient(err)
	}

	s.logger.InfoContext(ctx, "meetup created", slog.String("meetup_id", m.ID), slog.Uint64("host_id", uint64(m.HostID)))
	return m, nil
}

// Get returns a single meetup with its roster.
func (s *Service) Get(ctx context.Context, id string) (*models.Meetup, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	m, err := s.registry.Get(ctx, id)
	return m, transient(err)
}

// Update applies a host field update. A patch setting status to cancelled is a
// cancellation and must not carry field edits.
func (s *Service) Update(ctx context.Context, id string, actor Actor, patch Patch) (*models.Meetup, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	action := ActionUpdate
	if patch.Cancelling() {
		action = ActionCancel
	}
	if err := s.guard.Authorize(actor, action, m); err != nil {
		return nil, err
	}
	if patch.Status != nil {
		if err := s.lifecycle.CanTransition(m, *patch.Status); err != nil {
			return nil, err
		}
		if patch.EditsFields() {
			return nil, fmt.Errorf("%w: a status change cannot be combined with field edits", ErrValidation)
		}
	}
	patch.Zone = s.zone

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	updated, err := s.registry.Update(ctx, id, actor.ID, patch)
	if err != nil {
		return nil, transient(err)
	}
	if action == ActionCancel {
		s.logger.InfoContext(ctx, "meetup cancelled", slog.String("meetup_id", id))
	}
	return updated, nil
}

// Cancel moves the meetup to its terminal status.
func (s *Service) Cancel(ctx context.Context, id string, actor Actor) (*models.Meetup, error) {
	status := models.StatusCancelled
	return s.Update(ctx, id, actor, Patch{Status: &status})
}

// Delete removes the meetup and its roster.
func (s *Service) Delete(ctx context.Context, id string, actor Actor) error {
	m, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.guard.Authorize(actor, ActionDelete, m); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.registry.Delete(ctx, id, actor.ID); err != nil {
		return transient(err)
	}

	s.logger.InfoContext(ctx, "meetup deleted", slog.String("meetup_id", id))
	return nil
}

// Join adds actor to the roster.
func (s *Service) Join(ctx context.Context, id string, actor Actor) (*models.Meetup, error) {
	return s.participation.Join(ctx, id, actor)
}

// Leave removes actor from the roster.
func (s *Service) Leave(ctx context.Context, id string, actor Actor) (*models.Meetup, error) {
	return s.participation.Leave(ctx, id, actor)
}

// Discover lists meetups still open for joining or in progress, filtered by f.
func (s *Service) Discover(ctx context.Context, f Filter) ([]models.Meetup, error) {
	return s.Search(ctx, f, false)
}

// Search filters every meetup. Unless includePast is set, meetups whose
// effective status is completed or cancelled are left out.
func (s *Service) Search(ctx context.Context, f Filter, includePast bool) ([]models.Meetup, error) {
	all, err := s.list(ctx, ListQuery{})
	if err != nil {
		return nil, err
	}
	if !includePast {
		all = slices.DeleteFunc(all, func(m models.Meetup) bool {
			switch s.lifecycle.Effective(&m) {
			case models.StatusCompleted, models.StatusCancelled:
				return true
			}
			return false
		})
	}
	return f.Apply(all), nil
}

// UserMeetups lists what userID hosts and what they joined, fetched concurrently.
func (s *Service) UserMeetups(ctx context.Context, userID uint) (*UserMeetups, error) {
	var out UserMeetups
	var participating []models.Meetup

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		out.Hosting, err = s.list(egCtx, ListQuery{HostID: userID})
		return err
	})
	eg.Go(func() error {
		var err error
		participating, err = s.list(egCtx, ListQuery{ParticipantID: userID})
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out.Upcoming, out.Past, out.Cancelled = s.lifecycle.Partition(participating)
	out.Joined = slices.DeleteFunc(participating, func(m models.Meetup) bool {
		return m.HostID == userID
	})
	return &out, nil
}

// list is the read path: a store timeout degrades to an empty result and is logged.
func (s *Service) list(ctx context.Context, q ListQuery) ([]models.Meetup, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	meetups, err := s.registry.List(ctx, q)
	if err = transient(err); err != nil {
		if errors.Is(err, ErrTransient) {
			s.logger.WarnContext(ctx, "listing meetups failed, returning empty result", slog.Any("err", err))
			return []models.Meetup{}, nil
		}
		return nil, fmt.Errorf("failed to list meetups: %w", err)
	}
	return meetups, nil
}

func (s *Service) fillSport(ctx context.Context, draft *Draft) error {
	if s.sports == nil || strings.TrimSpace(draft.Sport) == "" {
		return nil
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	sport, err := s.sports.FindSport(ctx, strings.TrimSpace(draft.Sport))
	if err != nil {
		return transient(err)
	}
	if sport == nil {
		return nil
	}
	draft.Sport = sport.Name
	if draft.SportIcon == "" {
		draft.SportIcon = sport.Icon
	}
	if draft.SportColor == "" {
		draft.SportColor = sport.Color
	}
	return nil
}
