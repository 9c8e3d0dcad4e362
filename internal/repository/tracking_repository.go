package repository

import (
	"context"

	"github.com/gpexpress/backend/internal/model"
	"gorm.io/gorm"
)

type TrackingRepository interface {
	CreateStep(ctx context.Context, step *model.LivraisonEtape) error
	ListSteps(ctx context.Context, requestID uint64) ([]model.LivraisonEtape, error)
	FindDeliveredStep(ctx context.Context, requestID uint64) (*model.LivraisonEtape, error)
	// AttachFeedback sets comment and rating on the delivered step, guarded
	// so an already-submitted row is never overwritten. Returns the number
	// of rows actually updated.
	AttachFeedback(ctx context.Context, requestID uint64, comment string, rating int) (int64, error)
	SetDB(db *gorm.DB)
}

type trackingRepository struct {
	db *gorm.DB
}

func NewTrackingRepository(db *gorm.DB) TrackingRepository {
	return &trackingRepository{db: db}
}

func (r *trackingRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *trackingRepository) CreateStep(ctx context.Context, step *model.LivraisonEtape) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(step).Error
}

func (r *trackingRepository) ListSteps(ctx context.Context, requestID uint64) ([]model.LivraisonEtape, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var steps []model.LivraisonEtape
	if err := r.db.WithContext(ctx).
		Where("delivery_request_id = ?", requestID).
		Order("create_at ASC, id ASC").
		Find(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}

func (r *trackingRepository) FindDeliveredStep(ctx context.Context, requestID uint64) (*model.LivraisonEtape, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var step model.LivraisonEtape
	if err := r.db.WithContext(ctx).
		Where("delivery_request_id = ? AND etape = ?", requestID, model.StepDelivered).
		First(&step).Error; err != nil {
		return nil, err
	}
	return &step, nil
}

func (r *trackingRepository) AttachFeedback(ctx context.Context, requestID uint64, comment string, rating int) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.LivraisonEtape{}).
		Where("delivery_request_id = ? AND etape = ?", requestID, model.StepDelivered).
		Where("rating IS NULL AND commentaire IS NULL").
		Updates(map[string]interface{}{"commentaire": comment, "rating": rating})
	return res.RowsAffected, res.Error
}
