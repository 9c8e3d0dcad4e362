package repository

import (
	"context"
	"errors"

	"github.com/gpexpress/backend/internal/model"
	"gorm.io/gorm"
)

var ErrDBNotReady = errors.New("database not initialized")

type RequestRepository interface {
	Create(ctx context.Context, req *model.DeliveryRequest) error
	FindByID(ctx context.Context, id uint64) (*model.DeliveryRequest, error)
	FindByTrackingNumber(ctx context.Context, number string) (*model.DeliveryRequest, error)
	ListByClient(ctx context.Context, clientUID string) ([]model.DeliveryRequest, error)
	SetAnnonce(ctx context.Context, id uint64, annonceID *uint64) error
	UpdateStatus(ctx context.Context, id uint64, status model.RequestStatus) error
	SetDB(db *gorm.DB)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *requestRepository) Create(ctx context.Context, req *model.DeliveryRequest) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uint64) (*model.DeliveryRequest, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var req model.DeliveryRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindByTrackingNumber(ctx context.Context, number string) (*model.DeliveryRequest, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var req model.DeliveryRequest
	if err := r.db.WithContext(ctx).
		Where("numero_suivi = ?", number).
		First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) ListByClient(ctx context.Context, clientUID string) ([]model.DeliveryRequest, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.DeliveryRequest
	if err := r.db.WithContext(ctx).
		Where("client_auth_id = ?", clientUID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *requestRepository) SetAnnonce(ctx context.Context, id uint64, annonceID *uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.DeliveryRequest{}).
		Where("id = ?", id).
		Update("annonce_id", annonceID).Error
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id uint64, status model.RequestStatus) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.DeliveryRequest{}).
		Where("id = ?", id).
		Update("status", status).Error
}
