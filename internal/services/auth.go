package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/repos"
	"github.com/duinokary/supplychain-backend/internal/requestdata"
	"github.com/duinokary/supplychain-backend/internal/types"
	"github.com/duinokary/supplychain-backend/internal/utils"
)

type RegisterInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	EthAddress string `json:"eth_address"`
}

type LoginResult struct {
	AccessToken string      `json:"access_token"`
	User        *types.User `json:"user"`
}

type tokenClaims struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Name       string `json:"name"`
	EthAddress string `json:"eth_address"`
	jwt.RegisteredClaims
}

type AuthService interface {
	RegisterUser(ctx context.Context, input RegisterInput) (*types.User, error)
	LoginUser(ctx context.Context, email string, password string) (*LoginResult, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	LogoutUser(ctx context.Context, userID uuid.UUID) error
}

type authService struct {
	db  *gorm.DB
	log *logger.Logger

	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo

	jwtSecret       []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

var validRoles = map[string]struct{}{
	types.RoleManufacturer: {},
	types.RoleSupplier:     {},
	types.RoleLogistics:    {},
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, userTokenRepo repos.UserTokenRepo) AuthService {
	serviceLog := log.With("service", "AuthService")

	secret := utils.GetEnv("JWT_SECRET", "", serviceLog)
	if secret == "" {
		serviceLog.Warn("JWT_SECRET not set, using insecure development secret")
		secret = "dev-secret-change-me"
	}
	accessHours := utils.GetEnvAsInt("JWT_ACCESS_TTL_HOURS", 24, serviceLog)
	refreshHours := utils.GetEnvAsInt("JWT_REFRESH_TTL_HOURS", 168, serviceLog)

	return &authService{
		db:              db,
		log:             serviceLog,
		userRepo:        userRepo,
		userTokenRepo:   userTokenRepo,
		jwtSecret:       []byte(secret),
		accessTokenTTL:  time.Duration(accessHours) * time.Hour,
		refreshTokenTTL: time.Duration(refreshHours) * time.Hour,
	}
}

func (as *authService) RegisterUser(ctx context.Context, input RegisterInput) (*types.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	role := strings.ToLower(strings.TrimSpace(input.Role))

	if email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: email and password", ErrValidation)
	}
	if _, ok := validRoles[role]; !ok {
		return nil, fmt.Errorf("%w: role", ErrValidation)
	}

	exists, err := as.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &types.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Name:         strings.TrimSpace(input.Name),
		Address:      strings.TrimSpace(input.Address),
		EthAddress:   strings.TrimSpace(input.EthAddress),
	}
	if _, err := as.userRepo.Create(ctx, nil, []*types.User{user}); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	as.log.Info("User registered", "userID", user.ID, "role", user.Role)
	return user, nil
}

func (as *authService) LoginUser(ctx context.Context, email string, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	if user == nil || !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	accessToken, err := as.signToken(user, now, now.Add(as.accessTokenTTL))
	if err != nil {
		return nil, fmt.Errorf("error signing access token: %w", err)
	}
	refreshToken, err := as.signToken(user, now, now.Add(as.refreshTokenTTL))
	if err != nil {
		return nil, fmt.Errorf("error signing refresh token: %w", err)
	}

	// One active session per user. A new login invalidates previous tokens.
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := as.userTokenRepo.FullDeleteByUserID(ctx, tx, user.ID); err != nil {
			return fmt.Errorf("error clearing previous tokens: %w", err)
		}
		token := &types.UserToken{
			UserID:       user.ID,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    now.Add(as.accessTokenTTL),
		}
		if _, err := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{token}); err != nil {
			return fmt.Errorf("error storing token: %w", err)
		}
		return nil
	}); err != nil {
		as.log.Error("LoginUser transaction error", "userID", user.ID, "error", err)
		return nil, err
	}

	as.log.Info("User logged in", "userID", user.ID)
	return &LoginResult{AccessToken: accessToken, User: user}, nil
}

// SetContextFromToken validates the bearer token, checks it is still an active
// session, and attaches the caller's identity to the context.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return as.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return ctx, ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return ctx, ErrUnauthorized
	}

	stored, err := as.userTokenRepo.GetByAccessToken(ctx, nil, tokenString)
	if err != nil {
		return ctx, fmt.Errorf("error fetching token: %w", err)
	}
	if stored == nil || stored.UserID != userID {
		return ctx, ErrUnauthorized
	}
	if time.Now().After(stored.ExpiresAt) {
		return ctx, ErrUnauthorized
	}

	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Email:       claims.Email,
		Role:        claims.Role,
		Name:        claims.Name,
		EthAddress:  claims.EthAddress,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) LogoutUser(ctx context.Context, userID uuid.UUID) error {
	if err := as.userTokenRepo.FullDeleteByUserID(ctx, nil, userID); err != nil {
		return fmt.Errorf("error deleting tokens: %w", err)
	}
	as.log.Info("User logged out", "userID", userID)
	return nil
}

func (as *authService) signToken(user *types.User, issuedAt time.Time, expiresAt time.Time) (string, error) {
	claims := tokenClaims{
		UserID:     user.ID.String(),
		Email:      user.Email,
		Role:       user.Role,
		Name:       user.Name,
		EthAddress: user.EthAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(as.jwtSecret)
	if err != nil {
		return "", err
	}
	return signed, nil
}
