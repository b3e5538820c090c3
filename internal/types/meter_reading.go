package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MeterReading captures one telemetry sample for an asset. The prediction
// label is set once at creation time, after inference; readings are otherwise
// immutable.
type MeterReading struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID            uuid.UUID `gorm:"type:uuid;not null;index;column:asset_id" json:"asset_id"`
	Asset              *Asset    `gorm:"foreignKey:AssetID;references:ID;constraint:OnDelete:CASCADE" json:"asset,omitempty"`
	TypeL              string    `gorm:"not null;column:type_l" json:"type_l"`
	TypeM              string    `gorm:"not null;column:type_m" json:"type_m"`
	AirTemperature     float64   `gorm:"not null;column:air_temperature" json:"air_temperature"`
	ProcessTemperature float64   `gorm:"not null;column:process_temperature" json:"process_temperature"`
	RotationalSpeed    float64   `gorm:"not null;column:rotational_speed" json:"rotational_speed"`
	Torque             float64   `gorm:"not null;column:torque" json:"torque"`
	ToolWear           float64   `gorm:"not null;column:tool_wear" json:"tool_wear"`
	Prediction         *int      `gorm:"column:prediction" json:"prediction"`
	CreatedAt          time.Time `gorm:"not null" json:"created_at"`
}

func (MeterReading) TableName() string {
	return "meter_readings"
}

func (m *MeterReading) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
