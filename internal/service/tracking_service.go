package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gpexpress/backend/internal/model"
	"github.com/gpexpress/backend/internal/repository"
	"gorm.io/gorm"
)

var ErrFeedbackSubmitted = errors.New("feedback already submitted")
var ErrNotDelivered = errors.New("delivery not completed")

// Milestone is one labeled line of the tracking display. Done is pure set
// membership on the recorded step codes: a later milestone can be done while
// an earlier one is not, and the display trusts that.
type Milestone struct {
	Code  model.StepCode `json:"code"`
	Label string         `json:"label"`
	Done  bool           `json:"done"`
}

// milestoneLabels is the fixed display order. Several labels can share a
// step code ("Départ" and "Arrivée" are both in_transit), so one recorded
// step may tick more than one line.
var milestoneLabels = []struct {
	code  model.StepCode
	label string
}{
	{model.StepPickedUp, "Récupération du colis"},
	{model.StepPackageVerified, "Vérification du colis"},
	{model.StepPaymentConfirmed, "Paiement effectué"},
	{model.StepInTransit, "Départ du colis"},
	{model.StepInTransit, "Arrivée du colis"},
	{model.StepDelivered, "Livraison effectuée"},
}

// PublicTracking is what a tracking-number lookup exposes without
// authentication.
type PublicTracking struct {
	TrackingNumber  string              `json:"trackingNumber"`
	PackageName     string              `json:"packageName"`
	RequesterName   string              `json:"requesterName"`
	DeliveryAddress string              `json:"deliveryAddress"`
	Status          model.RequestStatus `json:"status"`
	Milestones      []Milestone         `json:"milestones"`
	DeliveredAt     *time.Time          `json:"deliveredAt,omitempty"`
}

type TrackingService interface {
	RecordStep(ctx context.Context, requestID uint64, gpUID string, code model.StepCode) (*model.LivraisonEtape, error)
	Progress(ctx context.Context, requestID uint64) ([]Milestone, error)
	SubmitFeedback(ctx context.Context, requestID uint64, clientUID, comment string, rating int) error
	TrackByNumber(ctx context.Context, number string) (*PublicTracking, error)
}

type trackingService struct {
	trackingRepo repository.TrackingRepository
	requestRepo  repository.RequestRepository
	annonceRepo  repository.AnnonceRepository
}

func NewTrackingService(trackingRepo repository.TrackingRepository, requestRepo repository.RequestRepository, annonceRepo repository.AnnonceRepository) TrackingService {
	return &trackingService{
		trackingRepo: trackingRepo,
		requestRepo:  requestRepo,
		annonceRepo:  annonceRepo,
	}
}

func (s *trackingService) RecordStep(ctx context.Context, requestID uint64, gpUID string, code model.StepCode) (*model.LivraisonEtape, error) {
	if !code.Valid() {
		return nil, fmt.Errorf("%w: unknown step code %q", ErrValidation, code)
	}
	req, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.AnnonceID == nil {
		return nil, fmt.Errorf("%w: request is not matched to an annonce", ErrValidation)
	}
	annonce, err := s.annonceRepo.FindByID(ctx, *req.AnnonceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if annonce.UserID != gpUID {
		return nil, ErrForbidden
	}

	status := "en_cours"
	if code == model.StepDelivered {
		status = "livree"
	}
	step := &model.LivraisonEtape{
		DeliveryRequestID: requestID,
		Etape:             code,
		Status:            status,
	}
	if err := s.trackingRepo.CreateStep(ctx, step); err != nil {
		return nil, err
	}
	if code == model.StepDelivered {
		if err := s.requestRepo.UpdateStatus(ctx, requestID, model.RequestStatusDelivered); err != nil {
			return nil, err
		}
	}
	return step, nil
}

func buildMilestones(steps []model.LivraisonEtape) []Milestone {
	recorded := make(map[model.StepCode]bool, len(steps))
	for _, st := range steps {
		recorded[st.Etape] = true
	}
	out := make([]Milestone, 0, len(milestoneLabels))
	for _, m := range milestoneLabels {
		out = append(out, Milestone{Code: m.code, Label: m.label, Done: recorded[m.code]})
	}
	return out
}

func (s *trackingService) Progress(ctx context.Context, requestID uint64) ([]Milestone, error) {
	if _, err := s.requestRepo.FindByID(ctx, requestID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	steps, err := s.trackingRepo.ListSteps(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return buildMilestones(steps), nil
}

func (s *trackingService) SubmitFeedback(ctx context.Context, requestID uint64, clientUID, comment string, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	req, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if req.ClientAuthID != clientUID {
		return ErrForbidden
	}
	if _, err := s.trackingRepo.FindDeliveredStep(ctx, requestID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotDelivered
		}
		return err
	}
	affected, err := s.trackingRepo.AttachFeedback(ctx, requestID, comment, rating)
	if err != nil {
		return err
	}
	// Write-once: the conditional update touches nothing when feedback is
	// already present.
	if affected == 0 {
		return ErrFeedbackSubmitted
	}
	return nil
}

func (s *trackingService) TrackByNumber(ctx context.Context, number string) (*PublicTracking, error) {
	req, err := s.requestRepo.FindByTrackingNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	steps, err := s.trackingRepo.ListSteps(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	out := &PublicTracking{
		TrackingNumber:  req.TrackingNumber,
		PackageName:     req.PackageName,
		RequesterName:   req.RequesterName,
		DeliveryAddress: req.DeliveryAddress,
		Status:          req.Status,
		Milestones:      buildMilestones(steps),
	}
	for _, st := range steps {
		if st.Etape == model.StepDelivered {
			t := st.CreatedAt
			out.DeliveredAt = &t
			break
		}
	}
	return out, nil
}
