package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/repos"
	"github.com/duinokary/supplychain-backend/internal/types"
)

type UserService interface {
	GetByRole(ctx context.Context, role string) ([]*types.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type userService struct {
	db  *gorm.DB
	log *logger.Logger

	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{
		db:       db,
		log:      serviceLog,
		userRepo: userRepo,
	}
}

func (us *userService) GetByRole(ctx context.Context, role string) ([]*types.User, error) {
	return us.userRepo.GetByRole(ctx, nil, role)
}

func (us *userService) GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	user, err := us.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// DeleteUser removes the account. Products, orders, tokens, assets and their
// readings go with it through the cascade foreign keys.
func (us *userService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	user, err := us.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return fmt.Errorf("error fetching user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return us.userRepo.FullDeleteByID(ctx, tx, userID)
	}); err != nil {
		us.log.Error("DeleteUser transaction error", "userID", userID, "error", err)
		return err
	}

	us.log.Info("User deleted", "userID", userID)
	return nil
}
