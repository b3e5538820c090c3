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

type CreateProductInput struct {
	SKU         string `json:"sku"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Image       string `json:"image"`
}

type ProductService interface {
	CreateProduct(ctx context.Context, manufacturerID uuid.UUID, input CreateProductInput) (*types.Product, error)
	ListByManufacturer(ctx context.Context, manufacturerID uuid.UUID) ([]*types.Product, error)
	ListAll(ctx context.Context) ([]*types.Product, error)
}

type productService struct {
	db  *gorm.DB
	log *logger.Logger

	productRepo repos.ProductRepo
	userRepo    repos.UserRepo
}

func NewProductService(db *gorm.DB, log *logger.Logger, productRepo repos.ProductRepo, userRepo repos.UserRepo) ProductService {
	serviceLog := log.With("service", "ProductService")
	return &productService{
		db:          db,
		log:         serviceLog,
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

func (ps *productService) CreateProduct(ctx context.Context, manufacturerID uuid.UUID, input CreateProductInput) (*types.Product, error) {
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		return nil, fmt.Errorf("%w: sku", ErrValidation)
	}

	manufacturer, err := ps.userRepo.GetByID(ctx, nil, manufacturerID)
	if err != nil {
		return nil, fmt.Errorf("error fetching manufacturer: %w", err)
	}
	if manufacturer == nil {
		return nil, ErrUserNotFound
	}

	product := &types.Product{
		SKU:            sku,
		Description:    input.Description,
		Quantity:       input.Quantity,
		Image:          input.Image,
		ManufacturerID: manufacturer.ID,
	}
	if _, err := ps.productRepo.Create(ctx, nil, []*types.Product{product}); err != nil {
		return nil, fmt.Errorf("error creating product: %w", err)
	}

	ps.log.Info("Product created", "productID", product.ID, "manufacturerID", manufacturer.ID)
	return product, nil
}

func (ps *productService) ListByManufacturer(ctx context.Context, manufacturerID uuid.UUID) ([]*types.Product, error) {
	manufacturer, err := ps.userRepo.GetByID(ctx, nil, manufacturerID)
	if err != nil {
		return nil, fmt.Errorf("error fetching manufacturer: %w", err)
	}
	if manufacturer == nil {
		return nil, ErrUserNotFound
	}
	return ps.productRepo.GetByManufacturerID(ctx, nil, manufacturerID)
}

func (ps *productService) ListAll(ctx context.Context) ([]*types.Product, error) {
	return ps.productRepo.GetAll(ctx, nil)
}
