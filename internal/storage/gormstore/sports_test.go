package gormstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playmatch/meetups/internal/models"
)

func TestSportStore(t *testing.T) {
	s := NewSportStore(newTestDB(t))
	ctx := context.Background()

	tennis := &models.Sport{Name: "Table Tennis", Icon: "🏓", Color: "#f97316", Category: "Racket", IsActive: true}
	require.NoError(t, s.Create(ctx, tennis))
	assert.Equal(t, "table-tennis", tennis.Slug)

	require.NoError(t, s.Create(ctx, &models.Sport{Name: "Archery", IsActive: false}))

	assert.ErrorIs(t, s.Create(ctx, &models.Sport{Name: "table tennis"}), ErrSportExists)

	found, err := s.FindSport(ctx, "TABLE TENNIS")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Table Tennis", found.Name)

	missing, err := s.FindSport(ctx, "Curling")
	require.NoError(t, err)
	assert.Nil(t, missing)

	active, err := s.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Table Tennis", active[0].Name)

	all, err := s.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Archery", all[0].Name)

	bySlug, err := s.BySlug(ctx, "table-tennis")
	require.NoError(t, err)
	assert.Equal(t, tennis.ID, bySlug.ID)

	_, err = s.BySlug(ctx, "curling")
	assert.ErrorIs(t, err, ErrSportNotFound)
}

func TestSportStore_UpdateDelete(t *testing.T) {
	s := NewSportStore(newTestDB(t))
	ctx := context.Background()

	padel := &models.Sport{Name: "Padel", IsActive: true}
	require.NoError(t, s.Create(ctx, padel))
	squash := &models.Sport{Name: "Squash", IsActive: true}
	require.NoError(t, s.Create(ctx, squash))

	updated, err := s.Update(ctx, padel.ID, func(sp *models.Sport) {
		sp.Name = "Padel Tennis"
		sp.IsActive = false
	})
	require.NoError(t, err)
	assert.Equal(t, "padel-tennis", updated.Slug)
	assert.False(t, updated.IsActive)

	_, err = s.Update(ctx, padel.ID, func(sp *models.Sport) { sp.Name = "Squash" })
	assert.ErrorIs(t, err, ErrSportExists)

	_, err = s.Update(ctx, 999, func(*models.Sport) {})
	assert.ErrorIs(t, err, ErrSportNotFound)

	require.NoError(t, s.Delete(ctx, squash.ID))
	assert.ErrorIs(t, s.Delete(ctx, squash.ID), ErrSportNotFound)

	_, err = s.BySlug(ctx, "squash")
	assert.ErrorIs(t, err, ErrSportNotFound)
}
