package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/types"
)

type OrderHistoryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entries []*types.OrderHistory) ([]*types.OrderHistory, error)
	GetByOrderID(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]*types.OrderHistory, error)
}

type orderHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderHistoryRepo(db *gorm.DB, baseLog *logger.Logger) OrderHistoryRepo {
	repoLog := baseLog.With("repo", "OrderHistoryRepo")
	return &orderHistoryRepo{db: db, log: repoLog}
}

func (r *orderHistoryRepo) Create(ctx context.Context, tx *gorm.DB, entries []*types.OrderHistory) ([]*types.OrderHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(entries) == 0 {
		return []*types.OrderHistory{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *orderHistoryRepo) GetByOrderID(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]*types.OrderHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.OrderHistory
	if err := transaction.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
