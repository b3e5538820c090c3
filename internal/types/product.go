package types

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SKU            string    `gorm:"not null;column:sku" json:"sku"`
	Description    string    `gorm:"type:text;column:description" json:"description"`
	Quantity       int       `gorm:"not null;column:quantity" json:"quantity"`
	Image          string    `gorm:"column:image" json:"image"`
	ManufacturerID uuid.UUID `gorm:"type:uuid;not null;index;column:manufacturer_id" json:"manufacturer_id"`
	Manufacturer   *User     `gorm:"foreignKey:ManufacturerID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
