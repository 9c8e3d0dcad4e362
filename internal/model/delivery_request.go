package model

import "time"

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "en_attente"
	RequestStatusAccepted  RequestStatus = "acceptee"
	RequestStatusRefused   RequestStatus = "refusee"
	RequestStatusDelivered RequestStatus = "livree"
)

type DeliveryRequest struct {
	ID               uint64        `gorm:"primaryKey;autoIncrement" json:"id"`
	ClientAuthID     string        `gorm:"column:client_auth_id;size:128;index;not null" json:"clientAuthId"`
	AnnonceID        *uint64       `gorm:"column:annonce_id;index" json:"annonceId"`
	TrackingNumber   string        `gorm:"column:numero_suivi;size:16;uniqueIndex;not null" json:"trackingNumber"`
	Status           RequestStatus `gorm:"column:status;size:32;not null" json:"status"`
	PackageName      string        `gorm:"column:colis_name;size:120;not null" json:"packageName"`
	RequesterName    string        `gorm:"column:nom_prenom;size:120;not null" json:"requesterName"`
	DepartureDate    string        `gorm:"column:date_depart;size:10;index;not null" json:"departureDate"`
	OriginCity       string        `gorm:"column:ville_depart;size:120;not null" json:"originCity"`
	DestinationCity  string        `gorm:"column:ville_arrivee;size:120;not null" json:"destinationCity"`
	DeliveryAddress  string        `gorm:"column:adresse_livraison;size:255;not null" json:"deliveryAddress"`
	CreatedAt        time.Time     `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time     `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (DeliveryRequest) TableName() string {
	return "delivery_requests"
}
