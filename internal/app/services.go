package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/duinokary/supplychain-backend/internal/ledger"
	"github.com/duinokary/supplychain-backend/internal/ledgerjobs"
	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/prediction"
	"github.com/duinokary/supplychain-backend/internal/services"
)

type Services struct {
	Auth      services.AuthService
	Order     services.OrderService
	Product   services.ProductService
	Asset     services.AssetService
	Telemetry services.TelemetryService
	User      services.UserService
	Shipment  services.ShipmentService

	LedgerClient     *ledger.Client
	LedgerNameCache  *ledger.NameCache
	PredictionClient *prediction.Client
	LedgerJobWorker  *ledgerjobs.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, reposet Repos) (Services, error) {
	ledgerClient, err := ledger.NewFromEnv(log)
	if err != nil {
		return Services{}, fmt.Errorf("init ledger client: %w", err)
	}

	// The name cache is optional. Without redis, every lookup hits the node.
	nameCache, err := ledger.NewNameCache(log)
	if err != nil {
		log.Warn("Ledger name cache unavailable, falling back to direct lookups", "error", err)
		nameCache = nil
	}

	predictionClient, err := prediction.NewFromEnv(log)
	if err != nil {
		return Services{}, fmt.Errorf("init prediction client: %w", err)
	}

	authService := services.NewAuthService(db, log, reposet.User, reposet.UserToken)
	orderService := services.NewOrderService(
		db, log,
		reposet.Order, reposet.OrderHistory, reposet.Product, reposet.User, reposet.LedgerJob,
		ledgerClient, nameCache,
	)
	productService := services.NewProductService(db, log, reposet.Product, reposet.User)
	assetService := services.NewAssetService(db, log, reposet.Asset, reposet.User)
	telemetryService := services.NewTelemetryService(db, log, reposet.Asset, reposet.MeterReading, predictionClient)
	userService := services.NewUserService(db, log, reposet.User)
	shipmentService := services.NewShipmentService(log, ledgerClient)

	worker := ledgerjobs.NewWorker(db, log, reposet.LedgerJob, ledgerClient)

	return Services{
		Auth:             authService,
		Order:            orderService,
		Product:          productService,
		Asset:            assetService,
		Telemetry:        telemetryService,
		User:             userService,
		Shipment:         shipmentService,
		LedgerClient:     ledgerClient,
		LedgerNameCache:  nameCache,
		PredictionClient: predictionClient,
		LedgerJobWorker:  worker,
	}, nil
}
