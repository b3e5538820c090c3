package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/types"
)

type AssetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, assets []*types.Asset) ([]*types.Asset, error)
	GetByID(ctx context.Context, tx *gorm.DB, assetID uuid.UUID) (*types.Asset, error)
	GetByOwnerID(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Asset, error)
}

type assetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetRepo(db *gorm.DB, baseLog *logger.Logger) AssetRepo {
	repoLog := baseLog.With("repo", "AssetRepo")
	return &assetRepo{db: db, log: repoLog}
}

func (r *assetRepo) Create(ctx context.Context, tx *gorm.DB, assets []*types.Asset) ([]*types.Asset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(assets) == 0 {
		return []*types.Asset{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *assetRepo) GetByID(ctx context.Context, tx *gorm.DB, assetID uuid.UUID) (*types.Asset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Asset
	if err := transaction.WithContext(ctx).
		Where("id = ?", assetID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *assetRepo) GetByOwnerID(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Asset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Asset
	if err := transaction.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
