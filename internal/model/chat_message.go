package model

import "time"

// ChatMessage is one entry in a chat's append-only log. Content is nil for
// structured confirmation messages, which carry ConfirmationLivraison
// instead. ClientKey is a sender-generated idempotency token: the unique
// (chat_id, client_key) index lets a resend or an optimistic/realtime race
// collapse onto the original row.
type ChatMessage struct {
	ID                    uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID                uint64    `gorm:"column:chat_id;index;index:idx_chat_client_key,unique" json:"chatId"`
	SenderAuthID          string    `gorm:"column:sender_auth_id;size:128;index" json:"senderAuthId"`
	DeliveryRequestID     uint64    `gorm:"column:delivery_request_id;index" json:"deliveryRequestId"`
	Content               *string   `gorm:"column:content;type:text" json:"content"`
	ConfirmationLivraison *string   `gorm:"column:confirmation_livraison;type:text" json:"confirmationLivraison"`
	ClientKey             string    `gorm:"column:client_key;size:64;index:idx_chat_client_key,unique" json:"clientKey"`
	CreatedAt             time.Time `gorm:"column:create_at;autoCreateTime" json:"createdAt"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
