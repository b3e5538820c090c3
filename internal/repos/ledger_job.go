package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/types"
)

type LedgerJobRepo interface {
	Create(ctx context.Context, tx *gorm.DB, jobs []*types.LedgerJob) ([]*types.LedgerJob, error)
	ClaimPending(ctx context.Context, tx *gorm.DB, limit int) ([]*types.LedgerJob, error)
	MarkDone(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) error
	MarkFailedAttempt(ctx context.Context, tx *gorm.DB, jobID uuid.UUID, attempts int, lastError string, exhausted bool) error
	ReclaimStale(ctx context.Context, tx *gorm.DB, olderThan time.Time) (int64, error)
	GetByOrderID(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]*types.LedgerJob, error)
}

type ledgerJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLedgerJobRepo(db *gorm.DB, baseLog *logger.Logger) LedgerJobRepo {
	repoLog := baseLog.With("repo", "LedgerJobRepo")
	return &ledgerJobRepo{db: db, log: repoLog}
}

func (r *ledgerJobRepo) Create(ctx context.Context, tx *gorm.DB, jobs []*types.LedgerJob) ([]*types.LedgerJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(jobs) == 0 {
		return []*types.LedgerJob{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// ClaimPending flips up to limit pending jobs to running and returns them.
// Run inside a transaction so two workers cannot claim the same job.
func (r *ledgerJobRepo) ClaimPending(ctx context.Context, tx *gorm.DB, limit int) ([]*types.LedgerJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var claimed []*types.LedgerJob
	err := transaction.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		var jobs []*types.LedgerJob
		if err := inner.
			Where("state = ?", types.LedgerJobStatePending).
			Order("created_at ASC").
			Limit(limit).
			Find(&jobs).Error; err != nil {
			return err
		}
		for _, job := range jobs {
			res := inner.
				Model(&types.LedgerJob{}).
				Where("id = ? AND state = ?", job.ID, types.LedgerJobStatePending).
				Updates(map[string]interface{}{"state": types.LedgerJobStateRunning, "updated_at": time.Now()})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Another claimant won this job between the read and the flip.
				continue
			}
			job.State = types.LedgerJobStateRunning
			claimed = append(claimed, job)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *ledgerJobRepo) MarkDone(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.LedgerJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{"state": types.LedgerJobStateDone, "last_error": "", "updated_at": time.Now()}).Error
}

func (r *ledgerJobRepo) MarkFailedAttempt(ctx context.Context, tx *gorm.DB, jobID uuid.UUID, attempts int, lastError string, exhausted bool) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	state := types.LedgerJobStatePending
	if exhausted {
		state = types.LedgerJobStateFailed
	}
	return transaction.WithContext(ctx).
		Model(&types.LedgerJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"state":      state,
			"attempts":   attempts,
			"last_error": lastError,
			"updated_at": time.Now(),
		}).Error
}

// ReclaimStale returns jobs stuck in running (a worker died mid-flight) to
// pending so the pool can pick them up again.
func (r *ledgerJobRepo) ReclaimStale(ctx context.Context, tx *gorm.DB, olderThan time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.LedgerJob{}).
		Where("state = ? AND updated_at < ?", types.LedgerJobStateRunning, olderThan).
		Updates(map[string]interface{}{"state": types.LedgerJobStatePending, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}

func (r *ledgerJobRepo) GetByOrderID(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]*types.LedgerJob, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.LedgerJob
	if err := transaction.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
