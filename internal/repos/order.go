package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/types"
)

type OrderRepo interface {
	Create(ctx context.Context, tx *gorm.DB, orders []*types.Order) ([]*types.Order, error)
	GetByID(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*types.Order, error)
	GetMadeByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Order, error)
	GetReceived(ctx context.Context, tx *gorm.DB, userID uuid.UUID, userName string) ([]*types.Order, error)
	UpdateStatusAndOwner(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status string, currentOwnerID uuid.UUID) error
}

type orderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	repoLog := baseLog.With("repo", "OrderRepo")
	return &orderRepo{db: db, log: repoLog}
}

func (r *orderRepo) Create(ctx context.Context, tx *gorm.DB, orders []*types.Order) ([]*types.Order, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(orders) == 0 {
		return []*types.Order{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepo) GetByID(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*types.Order, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Order
	if err := transaction.WithContext(ctx).
		Preload("Product").
		Preload("User").
		Preload("CurrentOwner").
		Where("id = ?", orderID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *orderRepo) GetMadeByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Order, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Order
	if err := transaction.WithContext(ctx).
		Preload("Product").
		Preload("User").
		Preload("CurrentOwner").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetReceived returns orders the user currently holds plus orders whose
// snapshotted origin matches the user's name, mirroring how the received
// inbox is assembled for origin parties.
func (r *orderRepo) GetReceived(ctx context.Context, tx *gorm.DB, userID uuid.UUID, userName string) ([]*types.Order, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Order
	if err := transaction.WithContext(ctx).
		Preload("Product").
		Preload("User").
		Preload("CurrentOwner").
		Where("current_owner_id = ? OR origin = ?", userID, userName).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *orderRepo) UpdateStatusAndOwner(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status string, currentOwnerID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	updates := map[string]interface{}{"status": status}
	if currentOwnerID != uuid.Nil {
		updates["current_owner_id"] = currentOwnerID
	}

	return transaction.WithContext(ctx).
		Model(&types.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}
