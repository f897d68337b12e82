package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"playmatch/meetups/internal/models"
)

// ErrSportNotFound is returned when no sport matches.
var ErrSportNotFound = errors.New("sport not found")

// ErrSportExists is returned when a sport name or slug is taken.
var ErrSportExists = errors.New("sport already exists")

// SportStore is the sport catalog.
type SportStore struct {
	db *gorm.DB
}

// NewSportStore returns a SportStore using db.
func NewSportStore(db *gorm.DB) *SportStore {
	return &SportStore{db: db}
}

// FindSport looks a sport up by name, ignoring case. A miss is not an error:
// meetups may name sports the catalog does not list.
func (s *SportStore) FindSport(ctx context.Context, name string) (*models.Sport, error) {
	var sport models.Sport
	err := s.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&sport).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find sport: %w", err)
	}
	return &sport, nil
}

// List returns the catalog ordered by name.
func (s *SportStore) List(ctx context.Context, activeOnly bool) ([]models.Sport, error) {
	query := s.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var sports []models.Sport
	if err := query.Find(&sports).Error; err != nil {
		return nil, fmt.Errorf("failed to list sports: %w", err)
	}
	return sports, nil
}

// BySlug returns the sport with the given slug.
func (s *SportStore) BySlug(ctx context.Context, sportSlug string) (*models.Sport, error) {
	var sport models.Sport
	if err := s.db.WithContext(ctx).Where("slug = ?", sportSlug).First(&sport).Error; err != nil {
		return nil, sportErr(err)
	}
	return &sport, nil
}

// Create adds sport to the catalog, deriving its slug from the name.
func (s *SportStore) Create(ctx context.Context, sport *models.Sport) error {
	sport.Slug = slug.Make(sport.Name)
	if err := s.checkUnique(ctx, sport); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(sport).Error; err != nil {
		return sportErr(err)
	}
	return nil
}

// Update saves changed catalog fields for the sport with id.
func (s *SportStore) Update(ctx context.Context, id uint, fn func(*models.Sport)) (*models.Sport, error) {
	var sport models.Sport
	if err := s.db.WithContext(ctx).First(&sport, id).Error; err != nil {
		return nil, sportErr(err)
	}

	fn(&sport)
	sport.Slug = slug.Make(sport.Name)
	if err := s.checkUnique(ctx, &sport); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(&sport).Error; err != nil {
		return nil, sportErr(err)
	}
	return &sport, nil
}

// Delete soft-deletes the sport. Existing meetups keep their sport name.
func (s *SportStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Sport{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete sport: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSportNotFound
	}
	return nil
}

func (s *SportStore) checkUnique(ctx context.Context, sport *models.Sport) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Sport{}).
		Where("(LOWER(name) = LOWER(?) OR slug = ?) AND id <> ?", sport.Name, sport.Slug, sport.ID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check sport name: %w", err)
	}
	if count > 0 {
		return ErrSportExists
	}
	return nil
}

func sportErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrSportNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrSportExists
	}
	return fmt.Errorf("sport query failed: %w", err)
}
