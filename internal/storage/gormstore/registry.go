// Package gormstore implements meetup storage on top of gorm.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"playmatch/meetups/internal/meetup"
	"playmatch/meetups/internal/models"
)

// Registry is a meetup.Registry over a SQL database.
type Registry struct {
	db *gorm.DB
}

var _ meetup.Registry = (*Registry)(nil)

// NewRegistry returns a Registry using db.
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

func (r *Registry) Create(ctx context.Context, m *models.Meetup) error {
	if err := meetup.CheckNew(m); err != nil {
		return err
	}
	// The host row goes in with the meetup through the Participants association.
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: meetup %s already exists", meetup.ErrValidation, m.ID)
		}
		return fmt.Errorf("failed to create meetup: %w", err)
	}
	return nil
}

func (r *Registry) Get(ctx context.Context, id string) (*models.Meetup, error) {
	return r.load(r.db.WithContext(ctx), id)
}

func (r *Registry) Update(ctx context.Context, id string, actorID uint, patch meetup.Patch) (*models.Meetup, error) {
	var updated *models.Meetup
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Meetup
		// Row lock so concurrent cancels see each other.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if err := patch.Apply(&m, actorID); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(&m).Error; err != nil {
			return fmt.Errorf("failed to update meetup: %w", err)
		}

		var err error
		updated, err = r.load(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Registry) Delete(ctx context.Context, id string, actorID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Meetup
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if m.HostID != actorID {
			return fmt.Errorf("%w: only the host can delete this meetup", meetup.ErrAuthorization)
		}
		if err := tx.Where("meetup_id = ?", id).Delete(&models.Participant{}).Error; err != nil {
			return fmt.Errorf("failed to delete participants: %w", err)
		}
		if err := tx.Delete(&m).Error; err != nil {
			return fmt.Errorf("failed to delete meetup: %w", err)
		}
		return nil
	})
}

func (r *Registry) List(ctx context.Context, q meetup.ListQuery) ([]models.Meetup, error) {
	query := r.db.WithContext(ctx).Model(&models.Meetup{}).
		Preload("Participants", orderRoster).
		Order("starts_at ASC, id ASC")

	if q.HostID != 0 {
		query = query.Where("host_id = ?", q.HostID)
	}
	if q.ParticipantID != 0 {
		query = query.Where("EXISTS (SELECT 1 FROM meetup_participants mp WHERE mp.meetup_id = meetups.id AND mp.user_id = ?)", q.ParticipantID)
	}

	var meetups []models.Meetup
	if err := query.Find(&meetups).Error; err != nil {
		return nil, fmt.Errorf("failed to list meetups: %w", err)
	}
	return meetups, nil
}

// AdjustParticipant changes the roster and the counter in one transaction.
// The counter moves through a conditional UPDATE, so two joins racing for the
// last slot serialize on the meetup row and only one matches the WHERE clause.
// The same WHERE clause refuses meetups that started before at.
func (r *Registry) AdjustParticipant(ctx context.Context, id string, p models.Participant, delta int, capacityCheck bool, at time.Time) (*models.Meetup, error) {
	var updated *models.Meetup
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		switch delta {
		case 1:
			err = r.join(tx, id, p, capacityCheck, at)
		case -1:
			err = r.leave(tx, id, p, at)
		default:
			err = fmt.Errorf("%w: delta must be +1 or -1, got %d", meetup.ErrValidation, delta)
		}
		if err != nil {
			return err
		}

		updated, err = r.load(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Registry) join(tx *gorm.DB, id string, p models.Participant, capacityCheck bool, at time.Time) error {
	var m models.Meetup
	if err := tx.First(&m, "id = ?", id).Error; err != nil {
		return notFound(err)
	}

	var members int64
	if err := tx.Model(&models.Participant{}).Where("meetup_id = ? AND user_id = ?", id, p.UserID).Count(&members).Error; err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if members > 0 {
		return meetup.ErrAlreadyJoined
	}

	query := tx.Model(&models.Meetup{}).Where("id = ? AND status <> ?", id, models.StatusCancelled)
	if capacityCheck {
		query = query.Where("current_participants < max_participants")
	}
	if !at.IsZero() {
		query = query.Where("starts_at > ?", at.UTC())
	}
	res := query.Updates(map[string]any{
		"current_participants": gorm.Expr("current_participants + 1"),
		"updated_at":           time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to reserve a slot: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.rejection(tx, id, at, meetup.ErrCapacityExceeded)
	}

	p.MeetupID = id
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now()
	}
	if err := tx.Create(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return meetup.ErrAlreadyJoined
		}
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

func (r *Registry) leave(tx *gorm.DB, id string, p models.Participant, at time.Time) error {
	var m models.Meetup
	if err := tx.First(&m, "id = ?", id).Error; err != nil {
		return notFound(err)
	}
	if m.HostID == p.UserID {
		return meetup.ErrHostCannotLeave
	}
	if err := closed(&m, at); err != nil {
		return err
	}

	res := tx.Where("meetup_id = ? AND user_id = ?", id, p.UserID).Delete(&models.Participant{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove participant: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return meetup.ErrNotParticipant
	}

	query := tx.Model(&models.Meetup{}).
		Where("id = ? AND status <> ? AND current_participants > 1", id, models.StatusCancelled)
	if !at.IsZero() {
		query = query.Where("starts_at > ?", at.UTC())
	}
	res = query.Updates(map[string]any{
			"current_participants": gorm.Expr("current_participants - 1"),
			"updated_at":           time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to release a slot: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.rejection(tx, id, at, fmt.Errorf("meetup %s roster is out of sync", id))
	}
	return nil
}

// rejection explains why a conditional update matched no row.
func (r *Registry) rejection(tx *gorm.DB, id string, at time.Time, fallback error) error {
	var m models.Meetup
	if err := tx.First(&m, "id = ?", id).Error; err != nil {
		return notFound(err)
	}
	if err := closed(&m, at); err != nil {
		return err
	}
	return fallback
}

// closed rejects roster changes on cancelled or started meetups.
func closed(m *models.Meetup, at time.Time) error {
	if m.Status == models.StatusCancelled {
		return fmt.Errorf("%w: meetup was cancelled", meetup.ErrEventNotJoinable)
	}
	if !at.IsZero() && !m.StartsAt.After(at) {
		return fmt.Errorf("%w: meetup has already started", meetup.ErrEventNotJoinable)
	}
	return nil
}

func (r *Registry) load(db *gorm.DB, id string) (*models.Meetup, error) {
	var m models.Meetup
	if err := db.Preload("Participants", orderRoster).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func orderRoster(db *gorm.DB) *gorm.DB {
	return db.Order("joined_at ASC, user_id ASC")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return meetup.ErrNotFound
	}
	return fmt.Errorf("failed to load meetup: %w", err)
}
