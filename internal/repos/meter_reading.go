package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/types"
)

type MeterReadingRepo interface {
	Create(ctx context.Context, tx *gorm.DB, readings []*types.MeterReading) ([]*types.MeterReading, error)
	GetByAssetID(ctx context.Context, tx *gorm.DB, assetID uuid.UUID) ([]*types.MeterReading, error)
}

type meterReadingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMeterReadingRepo(db *gorm.DB, baseLog *logger.Logger) MeterReadingRepo {
	repoLog := baseLog.With("repo", "MeterReadingRepo")
	return &meterReadingRepo{db: db, log: repoLog}
}

func (r *meterReadingRepo) Create(ctx context.Context, tx *gorm.DB, readings []*types.MeterReading) ([]*types.MeterReading, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(readings) == 0 {
		return []*types.MeterReading{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&readings).Error; err != nil {
		return nil, err
	}
	return readings, nil
}

func (r *meterReadingRepo) GetByAssetID(ctx context.Context, tx *gorm.DB, assetID uuid.UUID) ([]*types.MeterReading, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.MeterReading
	if err := transaction.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
