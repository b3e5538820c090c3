package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OrderStatusPending  = "Pending"
	OrderStatusAccepted = "Accepted"
)

type Order struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;index;column:product_id" json:"product_id"`
	Product        *Product  `gorm:"foreignKey:ProductID;references:ID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Quantity       int       `gorm:"not null;column:quantity" json:"quantity"`
	Origin         string    `gorm:"not null;column:origin" json:"origin"`
	CurrentOwnerID uuid.UUID `gorm:"type:uuid;not null;index;column:current_owner_id" json:"current_owner_id"`
	CurrentOwner   *User     `gorm:"foreignKey:CurrentOwnerID;references:ID;constraint:OnDelete:CASCADE" json:"current_owner,omitempty"`
	Status         string    `gorm:"not null;column:status" json:"status"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	User           *User     `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	return nil
}
