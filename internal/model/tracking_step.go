package model

import "time"

type StepCode string

const (
	StepPackageVerified  StepCode = "package_verified"
	StepPaymentConfirmed StepCode = "payment_confirmed"
	StepPickedUp         StepCode = "picked_up"
	StepInTransit        StepCode = "in_transit"
	StepDelivered        StepCode = "delivered"
)

// StepCodes lists the recordable codes in lifecycle order.
var StepCodes = []StepCode{
	StepPackageVerified,
	StepPaymentConfirmed,
	StepPickedUp,
	StepInTransit,
	StepDelivered,
}

func (c StepCode) Valid() bool {
	for _, v := range StepCodes {
		if v == c {
			return true
		}
	}
	return false
}

// LivraisonEtape is one recorded milestone of a delivery. The delivered row
// additionally carries the client's feedback once submitted.
type LivraisonEtape struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	DeliveryRequestID uint64    `gorm:"column:delivery_request_id;index;not null" json:"deliveryRequestId"`
	Etape             StepCode  `gorm:"column:etape;size:32;not null" json:"etape"`
	Status            string    `gorm:"column:status;size:32" json:"status"`
	Commentaire       *string   `gorm:"column:commentaire;type:text" json:"commentaire"`
	Rating            *int      `gorm:"column:rating" json:"rating"`
	CreatedAt         time.Time `gorm:"column:create_at;autoCreateTime" json:"createdAt"`
}

func (LivraisonEtape) TableName() string {
	return "livraison_etapes"
}
