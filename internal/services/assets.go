package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/repos"
	"github.com/duinokary/supplychain-backend/internal/types"
)

type CreateAssetInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Serial      string `json:"serial"`
}

type AssetService interface {
	CreateAsset(ctx context.Context, ownerID uuid.UUID, input CreateAssetInput) (*types.Asset, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*types.Asset, error)
}

type assetService struct {
	db  *gorm.DB
	log *logger.Logger

	assetRepo repos.AssetRepo
	userRepo  repos.UserRepo
}

func NewAssetService(db *gorm.DB, log *logger.Logger, assetRepo repos.AssetRepo, userRepo repos.UserRepo) AssetService {
	serviceLog := log.With("service", "AssetService")
	return &assetService{
		db:        db,
		log:       serviceLog,
		assetRepo: assetRepo,
		userRepo:  userRepo,
	}
}

func (as *assetService) CreateAsset(ctx context.Context, ownerID uuid.UUID, input CreateAssetInput) (*types.Asset, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name", ErrValidation)
	}

	owner, err := as.userRepo.GetByID(ctx, nil, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error fetching owner: %w", err)
	}
	if owner == nil {
		return nil, ErrUserNotFound
	}

	asset := &types.Asset{
		Name:         name,
		SerialNumber: strings.TrimSpace(input.Serial),
		Status:       input.Status,
		Type:         input.Type,
		Description:  input.Description,
		Location:     input.Location,
		OwnerID:      owner.ID,
	}
	if _, err := as.assetRepo.Create(ctx, nil, []*types.Asset{asset}); err != nil {
		return nil, fmt.Errorf("error creating asset: %w", err)
	}

	as.log.Info("Asset created", "assetID", asset.ID, "ownerID", owner.ID)
	return asset, nil
}

func (as *assetService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*types.Asset, error) {
	return as.assetRepo.GetByOwnerID(ctx, nil, ownerID)
}
