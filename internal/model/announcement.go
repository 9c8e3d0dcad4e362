package model

import "time"

// Annonce is a courier's posted travel plan. The core only reads these;
// they are produced elsewhere (GP-side app, seed tooling).
type Annonce struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          string    `gorm:"column:user_id;size:128;index;not null" json:"userId"`
	FullName        string    `gorm:"column:nom_prenom;size:120;not null" json:"fullName"`
	OriginCity      string    `gorm:"column:ville_depart;size:120;not null" json:"originCity"`
	DestinationCity string    `gorm:"column:ville_arrivee;size:120;not null" json:"destinationCity"`
	DepartureDate   string    `gorm:"column:date_depart;size:10;index;not null" json:"departureDate"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Annonce) TableName() string {
	return "annonces"
}
