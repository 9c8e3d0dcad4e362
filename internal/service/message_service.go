package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/gpexpress/backend/internal/model"
	"github.com/gpexpress/backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrRequestNotAccepted gates the composer: free-form messages are only
// allowed once the courier has accepted the request.
var ErrRequestNotAccepted = errors.New("request not accepted")

type MessageService interface {
	History(ctx context.Context, chatID uint64, uid string) ([]model.ChatMessage, error)
	// Send appends a message to the chat. clientKey is the sender-generated
	// idempotency token; resending the same key returns the original row
	// instead of appending a duplicate. Empty key: the server assigns one.
	Send(ctx context.Context, chatID uint64, uid, content, clientKey string) (*model.ChatMessage, error)
	// Authorize reports whether uid may attach to the chat's stream.
	Authorize(ctx context.Context, chatID uint64, uid string) error
}

type messageService struct {
	chatRepo    repository.ChatRepository
	requestRepo repository.RequestRepository
	publisher   MessagePublisher
	log         *zap.Logger
}

func NewMessageService(chatRepo repository.ChatRepository, requestRepo repository.RequestRepository, publisher MessagePublisher, log *zap.Logger) MessageService {
	return &messageService{
		chatRepo:    chatRepo,
		requestRepo: requestRepo,
		publisher:   publisher,
		log:         log,
	}
}

func (s *messageService) participant(ctx context.Context, chatID uint64, uid string) (*model.Chat, error) {
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

func (s *messageService) History(ctx context.Context, chatID uint64, uid string) ([]model.ChatMessage, error) {
	if _, err := s.participant(ctx, chatID, uid); err != nil {
		return nil, err
	}
	return s.chatRepo.ListMessages(ctx, chatID)
}

func (s *messageService) Authorize(ctx context.Context, chatID uint64, uid string) error {
	_, err := s.participant(ctx, chatID, uid)
	return err
}

func (s *messageService) Send(ctx context.Context, chatID uint64, uid, content, clientKey string) (*model.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("content is required")
	}
	chat, err := s.participant(ctx, chatID, uid)
	if err != nil {
		return nil, err
	}
	req, err := s.requestRepo.FindByID(ctx, chat.DeliveryRequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.Status != model.RequestStatusAccepted {
		return nil, ErrRequestNotAccepted
	}

	if clientKey == "" {
		clientKey = uuid.NewString()
	}
	msg := &model.ChatMessage{
		ChatID:            chatID,
		SenderAuthID:      uid,
		DeliveryRequestID: chat.DeliveryRequestID,
		Content:           &content,
		ClientKey:         clientKey,
	}
	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Same key already landed, either from a retried send or the
			// optimistic/realtime race. Hand back the authoritative row.
			return s.chatRepo.FindMessageByClientKey(ctx, chatID, clientKey)
		}
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishMessage(ctx, msg); err != nil {
			// Subscribers miss the push but the message is durable; the
			// next history fetch catches them up.
			s.log.Warn("message publish failed",
				zap.Uint64("chatId", chatID), zap.Error(err))
		}
	}
	return msg, nil
}
