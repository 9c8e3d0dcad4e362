package repository

import (
	"context"

	"github.com/gpexpress/backend/internal/model"
	"gorm.io/gorm"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *model.Chat) error
	FindByID(ctx context.Context, id uint64) (*model.Chat, error)
	// FindByTriple looks up the single chat for a (client, courier, request)
	// triple. A miss returns gorm.ErrRecordNotFound; callers distinguish it
	// from structural failures.
	FindByTriple(ctx context.Context, clientUID, gpUID string, requestID uint64) (*model.Chat, error)
	FindByUser(ctx context.Context, uid string) ([]model.Chat, error)
	// Delete removes the chat and its messages in one transaction.
	Delete(ctx context.Context, id uint64) error
	CreateMessage(ctx context.Context, msg *model.ChatMessage) error
	FindMessageByClientKey(ctx context.Context, chatID uint64, clientKey string) (*model.ChatMessage, error)
	ListMessages(ctx context.Context, chatID uint64) ([]model.ChatMessage, error)
	SetDB(db *gorm.DB)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *chatRepository) Create(ctx context.Context, chat *model.Chat) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(chat).Error
}

func (r *chatRepository) FindByID(ctx context.Context, id uint64) (*model.Chat, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var chat model.Chat
	if err := r.db.WithContext(ctx).First(&chat, id).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *chatRepository) FindByTriple(ctx context.Context, clientUID, gpUID string, requestID uint64) (*model.Chat, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var chat model.Chat
	if err := r.db.WithContext(ctx).
		Where("client_auth_id = ? AND gp_auth_id = ? AND delivery_request_id = ?", clientUID, gpUID, requestID).
		First(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *chatRepository) FindByUser(ctx context.Context, uid string) ([]model.Chat, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Chat
	if err := r.db.WithContext(ctx).
		Where("client_auth_id = ? OR gp_auth_id = ?", uid, uid).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *chatRepository) Delete(ctx context.Context, id uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", id).Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Chat{}, id).Error
	})
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *model.ChatMessage) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *chatRepository) FindMessageByClientKey(ctx context.Context, chatID uint64, clientKey string) (*model.ChatMessage, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msg model.ChatMessage
	if err := r.db.WithContext(ctx).
		Where("chat_id = ? AND client_key = ?", chatID, clientKey).
		First(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *chatRepository) ListMessages(ctx context.Context, chatID uint64) ([]model.ChatMessage, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msgs []model.ChatMessage
	if err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("create_at ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}
