package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gpexpress/backend/internal/model"
	"github.com/gpexpress/backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")
var ErrValidation = errors.New("validation failed")
var ErrForbidden = errors.New("forbidden")

// MessagePublisher pushes a freshly persisted message to live chat
// subscribers. Publishing is best-effort everywhere it is used.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, msg *model.ChatMessage) error
}

const trackingCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const trackingAttempts = 3

type CreateRequestInput struct {
	PackageName     string
	RequesterName   string
	DepartureDate   string
	OriginCity      string
	DestinationCity string
	DeliveryAddress string
}

type RequestService interface {
	Create(ctx context.Context, clientUID string, in CreateRequestInput) (*model.DeliveryRequest, error)
	GetByID(ctx context.Context, id uint64) (*model.DeliveryRequest, error)
	ListByClient(ctx context.Context, clientUID string) ([]model.DeliveryRequest, error)
	Accept(ctx context.Context, requestID uint64, gpUID string) (*model.DeliveryRequest, error)
	Refuse(ctx context.Context, requestID uint64, gpUID string) (*model.DeliveryRequest, error)
}

type requestService struct {
	requestRepo repository.RequestRepository
	annonceRepo repository.AnnonceRepository
	chatRepo    repository.ChatRepository
	publisher   MessagePublisher
	log         *zap.Logger
}

func NewRequestService(requestRepo repository.RequestRepository, annonceRepo repository.AnnonceRepository, chatRepo repository.ChatRepository, publisher MessagePublisher, log *zap.Logger) RequestService {
	return &requestService{
		requestRepo: requestRepo,
		annonceRepo: annonceRepo,
		chatRepo:    chatRepo,
		publisher:   publisher,
		log:         log,
	}
}

func generateTrackingNumber() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, 8)
	for i, b := range buf {
		out[i] = trackingCharset[int(b)%len(trackingCharset)]
	}
	return "GP-" + string(out), nil
}

func (s *requestService) Create(ctx context.Context, clientUID string, in CreateRequestInput) (*model.DeliveryRequest, error) {
	if clientUID == "" {
		return nil, fmt.Errorf("%w: client is required", ErrValidation)
	}
	fields := []struct {
		name  string
		value string
	}{
		{"packageName", in.PackageName},
		{"requesterName", in.RequesterName},
		{"departureDate", in.DepartureDate},
		{"originCity", in.OriginCity},
		{"destinationCity", in.DestinationCity},
		{"deliveryAddress", in.DeliveryAddress},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return nil, fmt.Errorf("%w: %s is required", ErrValidation, f.name)
		}
	}

	req := &model.DeliveryRequest{
		ClientAuthID:    clientUID,
		Status:          model.RequestStatusPending,
		PackageName:     strings.TrimSpace(in.PackageName),
		RequesterName:   strings.TrimSpace(in.RequesterName),
		DepartureDate:   strings.TrimSpace(in.DepartureDate),
		OriginCity:      strings.TrimSpace(in.OriginCity),
		DestinationCity: strings.TrimSpace(in.DestinationCity),
		DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
	}

	// The tracking number carries a unique index; an improbable collision
	// shows up as a duplicate-key error and we draw again.
	var lastErr error
	for i := 0; i < trackingAttempts; i++ {
		number, err := generateTrackingNumber()
		if err != nil {
			return nil, err
		}
		req.TrackingNumber = number
		if err := s.requestRepo.Create(ctx, req); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return req, nil
	}
	return nil, lastErr
}

func (s *requestService) GetByID(ctx context.Context, id uint64) (*model.DeliveryRequest, error) {
	req, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (s *requestService) ListByClient(ctx context.Context, clientUID string) ([]model.DeliveryRequest, error) {
	return s.requestRepo.ListByClient(ctx, clientUID)
}

func (s *requestService) Accept(ctx context.Context, requestID uint64, gpUID string) (*model.DeliveryRequest, error) {
	return s.decide(ctx, requestID, gpUID, model.RequestStatusAccepted,
		"Votre demande de livraison a été acceptée. Le GP vous contactera pour organiser la remise du colis.")
}

func (s *requestService) Refuse(ctx context.Context, requestID uint64, gpUID string) (*model.DeliveryRequest, error) {
	return s.decide(ctx, requestID, gpUID, model.RequestStatusRefused,
		"Votre demande de livraison a été refusée par le GP.")
}

// decide is the courier's accept/refuse action. Only the owner of the
// matched annonce may act, and only while the request is still pending.
func (s *requestService) decide(ctx context.Context, requestID uint64, gpUID string, status model.RequestStatus, notice string) (*model.DeliveryRequest, error) {
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
	if req.Status == status {
		return req, nil
	}
	if req.Status != model.RequestStatusPending {
		return nil, fmt.Errorf("%w: request already %s", ErrValidation, req.Status)
	}
	if err := s.requestRepo.UpdateStatus(ctx, req.ID, status); err != nil {
		return nil, err
	}
	req.Status = status

	s.postConfirmation(ctx, req, gpUID, notice)
	return req, nil
}

// postConfirmation drops a structured confirmation message into the chat for
// this request and courier. Best-effort: a failure here never fails the
// decision itself.
func (s *requestService) postConfirmation(ctx context.Context, req *model.DeliveryRequest, gpUID, notice string) {
	chat, err := s.chatRepo.FindByTriple(ctx, req.ClientAuthID, gpUID, req.ID)
	if err != nil {
		s.log.Warn("confirmation message skipped: chat lookup failed",
			zap.Uint64("requestId", req.ID), zap.Error(err))
		return
	}
	msg := &model.ChatMessage{
		ChatID:                chat.ID,
		SenderAuthID:          gpUID,
		DeliveryRequestID:     req.ID,
		ConfirmationLivraison: &notice,
		ClientKey:             uuid.NewString(),
	}
	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		s.log.Warn("confirmation message not persisted",
			zap.Uint64("chatId", chat.ID), zap.Error(err))
		return
	}
	if s.publisher != nil {
		if err := s.publisher.PublishMessage(ctx, msg); err != nil {
			s.log.Warn("confirmation message not published",
				zap.Uint64("chatId", chat.ID), zap.Error(err))
		}
	}
}
