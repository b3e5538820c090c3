package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/duinokary/supplychain-backend/internal/ledger"
	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/prediction"
	"github.com/duinokary/supplychain-backend/internal/repos"
	"github.com/duinokary/supplychain-backend/internal/types"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

// newTestDB opens a per-test in-memory database with foreign keys enforced,
// so cascade behavior is exercised the same way it is in production.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Product{},
		&types.Order{},
		&types.OrderHistory{},
		&types.Asset{},
		&types.MeterReading{},
		&types.LedgerJob{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type testRepos struct {
	user         repos.UserRepo
	userToken    repos.UserTokenRepo
	product      repos.ProductRepo
	order        repos.OrderRepo
	orderHistory repos.OrderHistoryRepo
	asset        repos.AssetRepo
	meterReading repos.MeterReadingRepo
	ledgerJob    repos.LedgerJobRepo
}

func newTestRepos(db *gorm.DB, log *logger.Logger) testRepos {
	return testRepos{
		user:         repos.NewUserRepo(db, log),
		userToken:    repos.NewUserTokenRepo(db, log),
		product:      repos.NewProductRepo(db, log),
		order:        repos.NewOrderRepo(db, log),
		orderHistory: repos.NewOrderHistoryRepo(db, log),
		asset:        repos.NewAssetRepo(db, log),
		meterReading: repos.NewMeterReadingRepo(db, log),
		ledgerJob:    repos.NewLedgerJobRepo(db, log),
	}
}

func mustCreateUser(t *testing.T, db *gorm.DB, name, role, ethAddress string) *types.User {
	t.Helper()
	user := &types.User{
		Email:        strings.ToLower(name) + "@example.com",
		PasswordHash: "x",
		Role:         role,
		Name:         name,
		EthAddress:   ethAddress,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func mustCreateProduct(t *testing.T, db *gorm.DB, manufacturer *types.User, sku string, quantity int) *types.Product {
	t.Helper()
	product := &types.Product{
		SKU:            sku,
		Quantity:       quantity,
		ManufacturerID: manufacturer.ID,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product %s: %v", sku, err)
	}
	return product
}

// stubLedger is an in-memory services.Ledger. Failure modes are switchable
// per test: submitErr fails submissions in flight, receiptStatus 0 simulates
// a mined-but-reverted transaction.
type stubLedger struct {
	mu sync.Mutex

	submitErr     error
	receiptErr    error
	receiptStatus int

	createCalls   int
	transferCalls int

	history []ledger.OwnershipRecord
	names   map[string]string
	nameErr map[string]error

	shipmentHistory []ledger.ShipmentRecord
	shipmentStatus  string
}

func newStubLedger() *stubLedger {
	return &stubLedger{
		receiptStatus: 1,
		names:         map[string]string{},
		nameErr:       map[string]error{},
	}
}

func (s *stubLedger) CreateOrder(ctx context.Context, orderID string, fromAddress string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitErr != nil {
		return "", s.submitErr
	}
	s.createCalls++
	return "0xcreate", nil
}

func (s *stubLedger) TransferOwnership(ctx context.Context, orderID string, newOwnerAddress string, status string, fromAddress string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitErr != nil {
		return "", s.submitErr
	}
	s.transferCalls++
	return "0xtransfer", nil
}

func (s *stubLedger) WaitForReceipt(ctx context.Context, txHash string) (*ledger.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.receiptErr != nil {
		return nil, s.receiptErr
	}
	return &ledger.Receipt{TxHash: txHash, Status: s.receiptStatus, BlockNumber: 1}, nil
}

func (s *stubLedger) GetOrderHistory(ctx context.Context, orderID string) ([]ledger.OwnershipRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history, nil
}

func (s *stubLedger) GetName(ctx context.Context, address string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.nameErr[address]; ok {
		return "", err
	}
	return s.names[address], nil
}

func (s *stubLedger) CreateShipment(ctx context.Context, description string, fromAddress string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitErr != nil {
		return "", s.submitErr
	}
	return "0xshipment", nil
}

func (s *stubLedger) TransferShipment(ctx context.Context, shipmentID string, toAddress string, status int, fromAddress string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitErr != nil {
		return "", s.submitErr
	}
	return "0xshipmenttransfer", nil
}

func (s *stubLedger) GetShipmentHistory(ctx context.Context, shipmentID string) ([]ledger.ShipmentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shipmentHistory, nil
}

func (s *stubLedger) GetShipmentStatus(ctx context.Context, shipmentID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shipmentStatus, nil
}

type stubPredictor struct {
	label int
	err   error

	lastFeatures prediction.FeatureVector
}

func (s *stubPredictor) Predict(ctx context.Context, features prediction.FeatureVector) (int, error) {
	s.lastFeatures = features
	if s.err != nil {
		return 0, s.err
	}
	return s.label, nil
}
