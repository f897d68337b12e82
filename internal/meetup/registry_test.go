package meetup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playmatch/meetups/internal/models"
)

func validDraft() Draft {
	return Draft{
		Title:           "Morning rally",
		Sport:           "Tennis",
		Location:        "Riverside Courts",
		Date:            "2026-03-10",
		Time:            "09:30",
		MaxParticipants: 4,
	}
}

func TestDraft_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Draft)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Draft) {}},
		{name: "missing title", mutate: func(s *Draft) { s.Title = "  " }, wantErr: true},
		{name: "missing sport", mutate: func(s *Draft) { s.Sport = "" }, wantErr: true},
		{name: "missing location", mutate: func(s *Draft) { s.Location = "" }, wantErr: true},
		{name: "missing date", mutate: func(s *Draft) { s.Date = "" }, wantErr: true},
		{name: "missing time", mutate: func(s *Draft) { s.Time = "" }, wantErr: true},
		{name: "capacity of one", mutate: func(s *Draft) { s.MaxParticipants = 1 }, wantErr: true},
		{name: "capacity of two", mutate: func(s *Draft) { s.MaxParticipants = 2 }},
		{name: "negative duration", mutate: func(s *Draft) { s.DurationMinutes = -5 }, wantErr: true},
		{name: "unknown skill", mutate: func(s *Draft) { s.SkillLevel = "pro" }, wantErr: true},
		{name: "known skill", mutate: func(s *Draft) { s.SkillLevel = models.SkillAdvanced }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validDraft()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDraft_Build(t *testing.T) {
	zone := time.FixedZone("CST", -6*60*60)

	m, err := validDraft().Build("m-1", Actor{ID: 7, Name: "Ada Host"}, zone, fixedTime)
	require.NoError(t, err)

	assert.Equal(t, "m-1", m.ID)
	assert.Equal(t, uint(7), m.HostID)
	assert.Equal(t, 1, m.CurrentParticipants)
	assert.Equal(t, models.StatusUpcoming, m.Status)
	assert.Equal(t, models.SkillAll, m.SkillLevel)
	assert.True(t, m.StartsAt.Equal(time.Date(2026, 3, 10, 9, 30, 0, 0, zone)))
	assert.Equal(t, time.UTC, m.StartsAt.Location())
	require.Len(t, m.Participants, 1)
	assert.Equal(t, models.Participant{MeetupID: "m-1", UserID: 7, DisplayName: "Ada Host", JoinedAt: fixedTime}, m.Participants[0])
	assert.NoError(t, CheckNew(m))
}

func TestDraft_Build_Rejects(t *testing.T) {
	past := validDraft()
	past.Date = "2026-02-01"
	_, err := past.Build("m-1", Actor{ID: 1}, time.UTC, fixedTime)
	assert.ErrorIs(t, err, ErrValidation)

	badDate := validDraft()
	badDate.Date = "10/03/2026"
	_, err = badDate.Build("m-1", Actor{ID: 1}, time.UTC, fixedTime)
	assert.ErrorIs(t, err, ErrValidation)

	badTime := validDraft()
	badTime.Time = "9.30am"
	_, err = badTime.Build("m-1", Actor{ID: 1}, time.UTC, fixedTime)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCheckNew(t *testing.T) {
	base := func() *models.Meetup {
		m, err := validDraft().Build("m-1", Actor{ID: 1}, time.UTC, fixedTime)
		require.NoError(t, err)
		return m
	}

	m := base()
	m.ID = ""
	assert.ErrorIs(t, CheckNew(m), ErrValidation)

	m = base()
	m.Participants = nil
	assert.ErrorIs(t, CheckNew(m), ErrValidation)

	m = base()
	m.CurrentParticipants = 2
	assert.ErrorIs(t, CheckNew(m), ErrValidation)

	m = base()
	m.MaxParticipants = 1
	assert.ErrorIs(t, CheckNew(m), ErrValidation)
}

func ptr[T any](v T) *T { return &v }

func hostedMeetup() models.Meetup {
	return models.Meetup{
		ID:                  "m-1",
		Title:               "Morning rally",
		SportName:           "Tennis",
		Location:            "Riverside Courts",
		HostID:              1,
		Date:                "2026-03-10",
		Time:                "09:30",
		StartsAt:            time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		MaxParticipants:     4,
		CurrentParticipants: 3,
		SkillLevel:          models.SkillAll,
		Status:              models.StatusUpcoming,
		Participants: []models.Participant{
			{MeetupID: "m-1", UserID: 1},
			{MeetupID: "m-1", UserID: 2},
			{MeetupID: "m-1", UserID: 3},
		},
	}
}

func TestPatch_Apply(t *testing.T) {
	m := hostedMeetup()

	err := Patch{
		Title:      ptr("  Evening rally "),
		Time:       ptr("18:00"),
		SkillLevel: ptr(models.SkillIntermediate),
	}.Apply(&m, 1)
	require.NoError(t, err)

	assert.Equal(t, "Evening rally", m.Title)
	assert.Equal(t, "18:00", m.Time)
	assert.Equal(t, time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC), m.StartsAt)
	assert.Equal(t, models.SkillIntermediate, m.SkillLevel)
	assert.Equal(t, 3, m.CurrentParticipants)
}

func TestPatch_Apply_Errors(t *testing.T) {
	tests := []struct {
		name    string
		patch   Patch
		actorID uint
		status  models.MeetupStatus
		wantErr error
	}{
		{name: "non-host", patch: Patch{Title: ptr("x")}, actorID: 2, wantErr: ErrAuthorization},
		{name: "cancelled", patch: Patch{Title: ptr("x")}, actorID: 1, status: models.StatusCancelled, wantErr: ErrAlreadyTerminal},
		{name: "empty title", patch: Patch{Title: ptr(" ")}, actorID: 1, wantErr: ErrValidation},
		{name: "empty location", patch: Patch{Location: ptr("")}, actorID: 1, wantErr: ErrValidation},
		{name: "capacity below roster", patch: Patch{MaxParticipants: ptr(2)}, actorID: 1, wantErr: ErrValidation},
		{name: "capacity below minimum", patch: Patch{MaxParticipants: ptr(1)}, actorID: 1, wantErr: ErrValidation},
		{name: "bad date", patch: Patch{Date: ptr("tomorrow")}, actorID: 1, wantErr: ErrValidation},
		{name: "unknown skill", patch: Patch{SkillLevel: ptr(models.SkillLevel("pro"))}, actorID: 1, wantErr: ErrValidation},
		{name: "derived status", patch: Patch{Status: ptr(models.StatusCompleted)}, actorID: 1, wantErr: ErrValidation},
		{name: "cancel with field edits", patch: Patch{Status: ptr(models.StatusCancelled), Title: ptr("Renamed")}, actorID: 1, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := hostedMeetup()
			if tt.status != "" {
				m.Status = tt.status
			}
			before := hostedMeetup()
			before.Status = m.Status

			err := tt.patch.Apply(&m, tt.actorID)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, m)
		})
	}
}

func TestPatch_Apply_Cancel(t *testing.T) {
	m := hostedMeetup()
	p := Patch{Status: ptr(models.StatusCancelled)}
	assert.True(t, p.Cancelling())
	assert.False(t, p.EditsFields())
	assert.True(t, Patch{MaxParticipants: ptr(5)}.EditsFields())

	require.NoError(t, p.Apply(&m, 1))
	assert.Equal(t, models.StatusCancelled, m.Status)
	assert.ErrorIs(t, p.Apply(&m, 1), ErrAlreadyTerminal)
}

func TestAdjustRoster(t *testing.T) {
	tests := []struct {
		name          string
		userID        uint
		delta         int
		max           int
		status        models.MeetupStatus
		capacityCheck bool
		wantErr       error
		wantCount     int
	}{
		{name: "join", userID: 9, delta: 1, max: 4, capacityCheck: true, wantCount: 4},
		{name: "join full", userID: 9, delta: 1, max: 3, capacityCheck: true, wantErr: ErrCapacityExceeded},
		{name: "join full without check", userID: 9, delta: 1, max: 3, wantCount: 4},
		{name: "join twice", userID: 2, delta: 1, max: 4, capacityCheck: true, wantErr: ErrAlreadyJoined},
		{name: "join twice when full", userID: 2, delta: 1, max: 3, capacityCheck: true, wantErr: ErrAlreadyJoined},
		{name: "join cancelled", userID: 9, delta: 1, max: 4, status: models.StatusCancelled, capacityCheck: true, wantErr: ErrEventNotJoinable},
		{name: "leave", userID: 3, delta: -1, max: 4, wantCount: 2},
		{name: "leave twice", userID: 9, delta: -1, max: 4, wantErr: ErrNotParticipant},
		{name: "host leaves", userID: 1, delta: -1, max: 4, wantErr: ErrHostCannotLeave},
		{name: "leave cancelled", userID: 3, delta: -1, max: 4, status: models.StatusCancelled, wantErr: ErrEventNotJoinable},
		{name: "bad delta", userID: 9, delta: 2, max: 4, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := hostedMeetup()
			m.MaxParticipants = tt.max
			if tt.status != "" {
				m.Status = tt.status
			}
			roster := m.Participants

			err := AdjustRoster(&m, models.Participant{UserID: tt.userID}, tt.delta, tt.capacityCheck, time.Time{})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 3, m.CurrentParticipants)
				assert.Len(t, m.Participants, 3)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, m.CurrentParticipants)
			assert.Len(t, m.Participants, tt.wantCount)
			assert.Len(t, roster, 3, "original roster slice must not change")
		})
	}
}

func TestAdjustRoster_AfterStart(t *testing.T) {
	m := hostedMeetup()

	for _, at := range []time.Time{m.StartsAt, m.StartsAt.Add(time.Second)} {
		err := AdjustRoster(&m, models.Participant{UserID: 9}, 1, true, at)
		assert.ErrorIs(t, err, ErrEventNotJoinable)

		err = AdjustRoster(&m, models.Participant{UserID: 3}, -1, true, at)
		assert.ErrorIs(t, err, ErrEventNotJoinable)
	}
	assert.Equal(t, 3, m.CurrentParticipants)

	// A retry after start still reports the membership first.
	err := AdjustRoster(&m, models.Participant{UserID: 2}, 1, true, m.StartsAt)
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	require.NoError(t, AdjustRoster(&m, models.Participant{UserID: 9}, 1, true, m.StartsAt.Add(-time.Second)))
	assert.Equal(t, 4, m.CurrentParticipants)
}
