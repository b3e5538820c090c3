package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderHistory rows are append-only: created once per successful lifecycle
// transition, never mutated or deleted individually.
type OrderHistory struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index;column:order_id" json:"order_id"`
	Order       *Order    `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Description string    `gorm:"not null;column:description" json:"description"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (OrderHistory) TableName() string {
	return "order_history"
}

func (h *OrderHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
