package meetup_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playmatch/meetups/internal/meetup"
	"playmatch/meetups/internal/models"
	"playmatch/meetups/internal/storage/memory"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type catalog map[string]models.Sport

func (c catalog) FindSport(_ context.Context, name string) (*models.Sport, error) {
	for k, s := range c {
		if k == name || s.Name == name {
			return &s, nil
		}
	}
	return nil, nil
}

var (
	host  = meetup.Actor{ID: 1, Name: "Hana Host"}
	alice = meetup.Actor{ID: 2, Name: "Alice"}
	bob   = meetup.Actor{ID: 3, Name: "Bob"}
	carol = meetup.Actor{ID: 4, Name: "Carol"}
)

func newService(t *testing.T) (*meetup.Service, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	var seq int
	var mu sync.Mutex
	svc := meetup.NewService(memory.NewRegistry(), meetup.Options{
		Now: c.Now,
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("m-%d", seq)
		},
		Sports: catalog{"tennis": {Name: "Tennis", Icon: "🎾", Color: "#22c55e"}},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return svc, c
}

func draft(max int) meetup.Draft {
	return meetup.Draft{
		Title:           "Morning rally",
		Sport:           "tennis",
		Location:        "Riverside Courts",
		City:            "Austin",
		Date:            "2026-03-10",
		Time:            "09:30",
		MaxParticipants: max,
	}
}

func TestService_Create(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	m, err := svc.Create(ctx, host, draft(4))
	require.NoError(t, err)

	assert.Equal(t, "m-1", m.ID)
	assert.Equal(t, "Tennis", m.SportName)
	assert.Equal(t, "🎾", m.SportIcon)
	assert.Equal(t, "#22c55e", m.SportColor)
	assert.Equal(t, 1, m.CurrentParticipants)
	assert.True(t, m.HasParticipant(host.ID))

	_, err = svc.Create(ctx, meetup.Actor{}, draft(4))
	assert.ErrorIs(t, err, meetup.ErrAuthorization)

	_, err = svc.Create(ctx, host, draft(1))
	assert.ErrorIs(t, err, meetup.ErrValidation)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, meetup.ErrNotFound)
}

func TestService_ConcurrentJoinForLastSlot(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	// Host plus one free slot.
	m, err := svc.Create(ctx, host, draft(2))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, actor := range []meetup.Actor{alice, bob} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Join(ctx, m.ID, actor)
		}()
	}
	wg.Wait()

	var ok, full int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, meetup.ErrCapacityExceeded):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, full)

	got, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentParticipants)
	assert.Len(t, got.Participants, 2)
}

func TestService_ManyConcurrentJoins(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	m, err := svc.Create(ctx, host, draft(5))
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	joined := 0
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Join(ctx, m.ID, meetup.Actor{ID: uint(100 + i)})
			if err == nil {
				mu.Lock()
				joined++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, meetup.ErrCapacityExceeded)
		}()
	}
	wg.Wait()

	got, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, joined)
	assert.Equal(t, 5, got.CurrentParticipants)
	assert.Len(t, got.Participants, 5)
}

func TestService_JoinLeaveRoundTrip(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	m, err := svc.Create(ctx, host, draft(4))
	require.NoError(t, err)

	for _, a := range []meetup.Actor{alice, bob, carol} {
		_, err := svc.Join(ctx, m.ID, a)
		require.NoError(t, err)
	}

	got, err := svc.Leave(ctx, m.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentParticipants)
	assert.Len(t, got.Participants, 3)
	assert.False(t, got.HasParticipant(bob.ID))

	// Retries are idempotent in effect.
	_, err = svc.Join(ctx, m.ID, alice)
	assert.ErrorIs(t, err, meetup.ErrAlreadyJoined)
	_, err = svc.Leave(ctx, m.ID, bob)
	assert.ErrorIs(t, err, meetup.ErrNotParticipant)

	got, err = svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentParticipants)
}

func TestService_JoinFullByRetryPrefersAlreadyJoined(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	m, err := svc.Create(ctx, host, draft(2))
	require.NoError(t, err)
	_, err = svc.Join(ctx, m.ID, alice)
	require.NoError(t, err)

	_, err = svc.Join(ctx, m.ID, alice)
	assert.ErrorIs(t, err, meetup.ErrAlreadyJoined)
	_, err = svc.Join(ctx, m.ID, bob)
	assert.ErrorIs(t, err, meetup.ErrCapacityExceeded)
}

func TestService_HostCannotLeave(t *testing.T) {
	svc, c := newService(t)
	ctx := context.Background()

	m, err := svc.Create(ctx, host, draft(4))
	require.NoError(t, err)

	_, err = svc.Leave(ctx, m.ID, host)
	assert.ErrorIs(t, err, meetup.ErrHostCannotLeave)

	c.Set(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	_, err = svc.Leave(ctx, m.ID, host)
	assert.ErrorIs(t, err, meetup.ErrHostCannotLeave)

	_, err = svc.Join(ctx, m.ID, host)
	assert.ErrorIs(t, err, meetup.ErrEventNotJoinable)
}

func TestService_JoinAfterStart(t *testing.T) {
	svc, c := newService(t)
	ctx := context.Background()

	m, err := svc.Create(ctx, host, draft(4))
	require.NoError(t, err)
	_, err = svc.Join(ctx, m.ID, alice)
	require.NoError(t, err)

	c.Set(m.StartsAt)
	_, err = svc.Join(ctx, m.ID, bob)
	assert.ErrorIs(t, err, meetup.ErrEventNotJoinable)
	_, err = svc.Leave(ctx, m.ID, alice)
	assert.ErrorIs(t, err, meetup.ErrEventNotJoinable)
	assert.Equal(t, models.StatusOngoing, svc.Lifecycle().Effective(m))

	c.Set(m.StartsAt.Add(24 * time.Hour))
	_, err = svc.Join(ctx, m.ID, bob)
	assert.ErrorIs(t, err, meetup.ErrEventNotJoinable)
	assert.Equal(t, models.StatusCompleted, svc.Lifecycle().Effective(m))
}

func TestService_Cancel(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	m, err := svc.Create(ctx, host, draft(4))
	require.NoError(t, err)
	_, err = svc.Join(ctx, m.ID, alice)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, m.ID, alice)
	assert.ErrorIs(t, err, meetup.ErrAuthorization)

	got, err := svc.Cancel(ctx, m.ID, host)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Equal(t, models.StatusCancelled, svc.Lifecycle().Effective(got))

	_, err = svc.Cancel(ctx, m.ID, host)
	assert.ErrorIs(t, err, meetup.ErrAlreadyTerminal)

	_, err = svc.Update(ctx, m.ID, host, meetup.Patch{Title: ptr("Renamed")})
	assert.ErrorIs(t, err, meetup.ErrAlreadyTerminal)

	_, err = svc.Join(ctx, m.ID, bob)
	assert.ErrorIs(t, err, meetup.ErrEventNotJoinable)
	_, err = svc.Leave(ctx, m.ID, alice)
	assert.ErrorIs(t, err, meetup.ErrEventNotJoinable)
}

func TestService_Update(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	m, err := svc.Create(ctx, host, draft(4))
	require.NoError(t, err)
	_, err = svc.Join(ctx, m.ID, alice)
	require.NoError(t, err)

	got, err := svc.Update(ctx, m.ID, host, meetup.Patch{
		Title:           ptr("Evening rally"),
		Time:            ptr("18:00"),
		MaxParticipants: ptr(6),
	})
	require.NoError(t, err)
	assert.Equal(t, "Evening rally", got.Title)
	assert.Equal(t, 6, got.MaxParticipants)
	assert.Equal(t, 2, got.CurrentParticipants)
	assert.Equal(t, 18, got.StartsAt.Hour())

	_, err = svc.Update(ctx, m.ID, alice, meetup.Patch{Title: ptr("Mine now")})
	assert.ErrorIs(t, err, meetup.ErrAuthorization)

	_, err = svc.Update(ctx, m.ID, host, meetup.Patch{Status: ptr(models.StatusCompleted)})
	assert.ErrorIs(t, err, meetup.ErrValidation)

	_, err = svc.Update(ctx, "missing", host, meetup.Patch{Title: ptr("x")})
	assert.ErrorIs(t, err, meetup.ErrNotFound)
}

func TestService_UpdateRejectsCancelWithEdits(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	m, err := svc.Create(ctx, host, draft(4))
	require.NoError(t, err)

	_, err = svc.Update(ctx, m.ID, host, meetup.Patch{
		Status: ptr(models.StatusCancelled),
		Title:  ptr("Renamed on the way out"),
	})
	assert.ErrorIs(t, err, meetup.ErrValidation)

	got, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Morning rally", got.Title)
	assert.Equal(t, models.StatusUpcoming, got.Status)

	got, err = svc.Update(ctx, m.ID, host, meetup.Patch{Status: ptr(models.StatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, "Morning rally", got.Title)
	assert.Equal(t, models.StatusCancelled, got.Status)
}

func TestService_Delete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	m, err := svc.Create(ctx, host, draft(4))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, m.ID, alice), meetup.ErrAuthorization)
	require.NoError(t, svc.Delete(ctx, m.ID, host))

	_, err = svc.Get(ctx, m.ID)
	assert.ErrorIs(t, err, meetup.ErrNotFound)
	_, err = svc.Join(ctx, m.ID, alice)
	assert.ErrorIs(t, err, meetup.ErrNotFound)
}

func TestService_Discover(t *testing.T) {
	svc, c := newService(t)
	ctx := context.Background()

	tennis, err := svc.Create(ctx, host, draft(4))
	require.NoError(t, err)

	soccer := draft(10)
	soccer.Title = "Sunday league"
	soccer.Sport = "Soccer"
	soccer.Location = "Zilker Park"
	soccer.Date = "2026-03-02"
	soccerMeetup, err := svc.Create(ctx, alice, soccer)
	require.NoError(t, err)

	cancelled, err := svc.Create(ctx, bob, draft(4))
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, cancelled.ID, bob)
	require.NoError(t, err)

	got, err := svc.Discover(ctx, meetup.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{soccerMeetup.ID, tennis.ID}, meetupIDs(got))

	got, err = svc.Discover(ctx, meetup.Filter{Sport: "Tennis", SkillLevel: models.SkillAll})
	require.NoError(t, err)
	assert.Equal(t, []string{tennis.ID}, meetupIDs(got))

	got, err = svc.Search(ctx, meetup.Filter{}, true)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	// Soccer is over a day later.
	c.Set(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC))
	got, err = svc.Discover(ctx, meetup.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{tennis.ID}, meetupIDs(got))
}

func TestService_UserMeetups(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	hosted, err := svc.Create(ctx, alice, draft(4))
	require.NoError(t, err)
	other, err := svc.Create(ctx, host, draft(4))
	require.NoError(t, err)
	_, err = svc.Join(ctx, other.ID, alice)
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob, draft(4))
	require.NoError(t, err)

	got, err := svc.UserMeetups(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{hosted.ID}, meetupIDs(got.Hosting))
	assert.Equal(t, []string{other.ID}, meetupIDs(got.Joined))

	got, err = svc.UserMeetups(ctx, carol.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Hosting)
	assert.Empty(t, got.Joined)
}

func TestService_UserMeetupsGroupedByStatus(t *testing.T) {
	svc, c := newService(t)
	ctx := context.Background()

	early := draft(4)
	early.Date = "2026-03-02"
	past, err := svc.Create(ctx, alice, early)
	require.NoError(t, err)

	upcoming, err := svc.Create(ctx, host, draft(4))
	require.NoError(t, err)
	_, err = svc.Join(ctx, upcoming.ID, alice)
	require.NoError(t, err)

	called, err := svc.Create(ctx, alice, draft(4))
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, called.ID, alice)
	require.NoError(t, err)

	c.Set(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC))

	got, err := svc.UserMeetups(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{upcoming.ID}, meetupIDs(got.Upcoming))
	assert.Equal(t, []string{past.ID}, meetupIDs(got.Past))
	assert.Equal(t, []string{called.ID}, meetupIDs(got.Cancelled))
	assert.Equal(t, []string{past.ID, called.ID}, meetupIDs(got.Hosting))
	assert.Equal(t, []string{upcoming.ID}, meetupIDs(got.Joined))
}

// slowRegistry times out list and roster calls.
type slowRegistry struct {
	meetup.Registry
}

func (slowRegistry) List(context.Context, meetup.ListQuery) ([]models.Meetup, error) {
	return nil, context.DeadlineExceeded
}

func (slowRegistry) AdjustParticipant(context.Context, string, models.Participant, int, bool, time.Time) (*models.Meetup, error) {
	return nil, fmt.Errorf("adjust: %w", context.DeadlineExceeded)
}

func TestService_TransientStore(t *testing.T) {
	store := memory.NewRegistry()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	opts := meetup.Options{
		Now:    func() time.Time { return now },
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	m, err := meetup.NewService(store, opts).Create(context.Background(), host, draft(4))
	require.NoError(t, err)

	svc := meetup.NewService(slowRegistry{Registry: store}, opts)

	got, err := svc.Discover(context.Background(), meetup.Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)

	mine, err := svc.UserMeetups(context.Background(), host.ID)
	require.NoError(t, err)
	assert.Empty(t, mine.Hosting)

	_, err = svc.Join(context.Background(), m.ID, alice)
	assert.ErrorIs(t, err, meetup.ErrTransient)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_JoinSurvivesCallerCancel(t *testing.T) {
	svc, _ := newService(t)

	m, err := svc.Create(context.Background(), host, draft(4))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := svc.Join(ctx, m.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentParticipants)
}

func meetupIDs(meetups []models.Meetup) []string {
	out := make([]string, 0, len(meetups))
	for _, m := range meetups {
		out = append(out, m.ID)
	}
	return out
}

func ptr[T any](v T) *T { return &v }
