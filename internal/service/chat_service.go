package service

import (
	"context"
	"errors"

	"github.com/gpexpress/backend/internal/model"
	"github.com/gpexpress/backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrDuplicateChat signals that a chat for this (client, courier, request)
// triple already exists. It is an informational outcome, not a failure.
var ErrDuplicateChat = errors.New("chat already pending")

type ChatService interface {
	Contact(ctx context.Context, clientUID string, annonceID, requestID uint64) (*model.Chat, error)
	Get(ctx context.Context, chatID uint64, uid string) (*model.Chat, error)
	ListByUser(ctx context.Context, uid string) ([]model.Chat, error)
	Delete(ctx context.Context, chatID uint64, uid string) error
}

type chatService struct {
	chatRepo    repository.ChatRepository
	requestRepo repository.RequestRepository
	annonceRepo repository.AnnonceRepository
	log         *zap.Logger
}

func NewChatService(chatRepo repository.ChatRepository, requestRepo repository.RequestRepository, annonceRepo repository.AnnonceRepository, log *zap.Logger) ChatService {
	return &chatService{
		chatRepo:    chatRepo,
		requestRepo: requestRepo,
		annonceRepo: annonceRepo,
		log:         log,
	}
}

// Contact associates the delivery request with the chosen annonce, then
// opens the chat with that annonce's courier unless one already exists.
// If chat creation fails after the association was written, the previous
// association is restored so the two writes act as one.
func (s *chatService) Contact(ctx context.Context, clientUID string, annonceID, requestID uint64) (*model.Chat, error) {
	req, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.ClientAuthID != clientUID {
		return nil, ErrForbidden
	}
	annonce, err := s.annonceRepo.FindByID(ctx, annonceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if annonce.UserID == clientUID {
		return nil, errors.New("cannot contact your own annonce")
	}

	prior := req.AnnonceID
	if err := s.requestRepo.SetAnnonce(ctx, req.ID, &annonce.ID); err != nil {
		return nil, err
	}

	existing, err := s.chatRepo.FindByTriple(ctx, clientUID, annonce.UserID, req.ID)
	if err == nil && existing != nil {
		return existing, ErrDuplicateChat
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	chat := &model.Chat{
		ClientAuthID:      clientUID,
		GpAuthID:          annonce.UserID,
		DeliveryRequestID: req.ID,
		Status:            model.ChatStatusPending,
	}
	if err := s.chatRepo.Create(ctx, chat); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race against a concurrent Contact on the same triple.
			if existing, lerr := s.chatRepo.FindByTriple(ctx, clientUID, annonce.UserID, req.ID); lerr == nil {
				return existing, ErrDuplicateChat
			}
			return nil, ErrDuplicateChat
		}
		if rerr := s.requestRepo.SetAnnonce(ctx, req.ID, prior); rerr != nil {
			s.log.Warn("annonce association not reverted after chat failure",
				zap.Uint64("requestId", req.ID), zap.Error(rerr))
		}
		return nil, err
	}
	return chat, nil
}

func (s *chatService) Get(ctx context.Context, chatID uint64, uid string) (*model.Chat, error) {
	chat, err := s.chatRepo.FindByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if chat.ClientAuthID != uid && chat.GpAuthID != uid {
		return nil, ErrForbidden
	}
	return chat, nil
}

func (s *chatService) ListByUser(ctx context.Context, uid string) ([]model.Chat, error) {
	return s.chatRepo.FindByUser(ctx, uid)
}

func (s *chatService) Delete(ctx context.Context, chatID uint64, uid string) error {
	chat, err := s.chatRepo.FindByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if chat.ClientAuthID != uid && chat.GpAuthID != uid {
		return ErrForbidden
	}
	return s.chatRepo.Delete(ctx, chatID)
}
