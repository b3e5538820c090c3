package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/types"
)

type ProductRepo interface {
	Create(ctx context.Context, tx *gorm.DB, products []*types.Product) ([]*types.Product, error)
	GetByID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*types.Product, error)
	GetByManufacturerID(ctx context.Context, tx *gorm.DB, manufacturerID uuid.UUID) ([]*types.Product, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Product, error)
	DecrementQuantity(ctx context.Context, tx *gorm.DB, productID uuid.UUID, by int) error
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	repoLog := baseLog.With("repo", "ProductRepo")
	return &productRepo{db: db, log: repoLog}
}

func (r *productRepo) Create(ctx context.Context, tx *gorm.DB, products []*types.Product) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(products) == 0 {
		return []*types.Product{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepo) GetByID(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Product
	if err := transaction.WithContext(ctx).
		Where("id = ?", productID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *productRepo) GetByManufacturerID(ctx context.Context, tx *gorm.DB, manufacturerID uuid.UUID) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Product
	if err := transaction.WithContext(ctx).
		Where("manufacturer_id = ?", manufacturerID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *productRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Product
	if err := transaction.WithContext(ctx).
		Order("sku ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// DecrementQuantity applies the stock decrement in place. There is no floor
// check: repeated "Accepted" transitions can drive quantity negative (see
// OrderService.UpdateStatus, which logs when that happens).
func (r *productRepo) DecrementQuantity(ctx context.Context, tx *gorm.DB, productID uuid.UUID, by int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Product{}).
		Where("id = ?", productID).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", by)).Error
}
