package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleManufacturer = "manufacturer"
	RoleSupplier     = "supplier"
	RoleLogistics    = "logistics"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	PasswordHash string    `gorm:"not null;column:password_hash" json:"-"`
	Role         string    `gorm:"not null;column:role" json:"role"`
	Name         string    `gorm:"column:name" json:"name"`
	Address      string    `gorm:"column:address" json:"address"`
	EthAddress   string    `gorm:"column:eth_address" json:"eth_address"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
