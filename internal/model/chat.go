package model

import "time"

type ChatStatus string

const (
	ChatStatusPending ChatStatus = "en_attente"
)

type Chat struct {
	ID                uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ClientAuthID      string     `gorm:"column:client_auth_id;size:128;index:idx_client_gp_request,unique" json:"clientAuthId"`
	GpAuthID          string     `gorm:"column:gp_auth_id;size:128;index:idx_client_gp_request,unique" json:"gpAuthId"`
	DeliveryRequestID uint64     `gorm:"column:delivery_request_id;index:idx_client_gp_request,unique" json:"deliveryRequestId"`
	Status            ChatStatus `gorm:"column:status;size:32;not null" json:"status"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Chat) TableName() string {
	return "chats"
}
