package types

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Asset struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"not null;column:name" json:"name"`
	SerialNumber string    `gorm:"column:serial_number" json:"serial_number"`
	Status       string    `gorm:"column:status" json:"status"`
	Type         string    `gorm:"column:type" json:"type"`
	Description  string    `gorm:"type:text;column:description" json:"description"`
	Location     string    `gorm:"column:location" json:"location"`
	OwnerID      uuid.UUID `gorm:"type:uuid;not null;index;column:owner_id" json:"owner_id"`
	Owner        *User     `gorm:"foreignKey:OwnerID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Asset) TableName() string {
	return "assets"
}

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
