package repository

import (
	"context"
	"strings"

	"github.com/gpexpress/backend/internal/model"
	"gorm.io/gorm"
)

type AnnonceRepository interface {
	Create(ctx context.Context, a *model.Annonce) error
	FindByID(ctx context.Context, id uint64) (*model.Annonce, error)
	// FindMatching filters by case-insensitive substring on both cities and
	// exact departure date. Arrival order from the store, no ranking.
	FindMatching(ctx context.Context, originCity, destinationCity, departureDate string) ([]model.Annonce, error)
	SetDB(db *gorm.DB)
}

type annonceRepository struct {
	db *gorm.DB
}

func NewAnnonceRepository(db *gorm.DB) AnnonceRepository {
	return &annonceRepository{db: db}
}

func (r *annonceRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *annonceRepository) Create(ctx context.Context, a *model.Annonce) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *annonceRepository) FindByID(ctx context.Context, id uint64) (*model.Annonce, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var a model.Annonce
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *annonceRepository) FindMatching(ctx context.Context, originCity, destinationCity, departureDate string) ([]model.Annonce, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Annonce
	origin := "%" + strings.ToLower(strings.TrimSpace(originCity)) + "%"
	destination := "%" + strings.ToLower(strings.TrimSpace(destinationCity)) + "%"
	if err := r.db.WithContext(ctx).
		Where("LOWER(ville_depart) LIKE ?", origin).
		Where("LOWER(ville_arrivee) LIKE ?", destination).
		Where("date_depart = ?", departureDate).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
