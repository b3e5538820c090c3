package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	LedgerJobKindCreateOrder       = "create_order"
	LedgerJobKindTransferOwnership = "transfer_ownership"

	LedgerJobStatePending = "pending"
	LedgerJobStateRunning = "running"
	LedgerJobStateDone    = "done"
	LedgerJobStateFailed  = "failed"
)

// LedgerJob is a durable record of a contract submission that has not yet been
// confirmed on the ledger. Failed submissions are retried by the outbox worker
// until done or the attempt budget is exhausted.
type LedgerJob struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID      `gorm:"type:uuid;not null;index;column:order_id" json:"order_id"`
	Order     *Order         `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Kind      string         `gorm:"not null;column:kind" json:"kind"`
	Payload   datatypes.JSON `gorm:"type:jsonb;column:payload" json:"payload"`
	State     string         `gorm:"not null;index;column:state" json:"state"`
	Attempts  int            `gorm:"not null;column:attempts" json:"attempts"`
	LastError string         `gorm:"type:text;column:last_error" json:"last_error"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (LedgerJob) TableName() string {
	return "ledger_jobs"
}

func (j *LedgerJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.State == "" {
		j.State = LedgerJobStatePending
	}
	return nil
}
