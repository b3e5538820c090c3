package ledgerjobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/duinokary/supplychain-backend/internal/ledger"
	"github.com/duinokary/supplychain-backend/internal/logger"
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
		&types.Product{},
		&types.Order{},
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

type stubLedger struct {
	submitErr     error
	receiptStatus int

	createCalls   int
	transferCalls int
}

func (s *stubLedger) CreateOrder(ctx context.Context, orderID string, fromAddress string) (string, error) {
	if s.submitErr != nil {
		return "", s.submitErr
	}
	s.createCalls++
	return "0xcreate", nil
}

func (s *stubLedger) TransferOwnership(ctx context.Context, orderID string, newOwnerAddress string, status string, fromAddress string) (string, error) {
	if s.submitErr != nil {
		return "", s.submitErr
	}
	s.transferCalls++
	return "0xtransfer", nil
}

func (s *stubLedger) WaitForReceipt(ctx context.Context, txHash string) (*ledger.Receipt, error) {
	status := s.receiptStatus
	return &ledger.Receipt{TxHash: txHash, Status: status, BlockNumber: 1}, nil
}

func (s *stubLedger) GetOrderHistory(ctx context.Context, orderID string) ([]ledger.OwnershipRecord, error) {
	return nil, nil
}

func (s *stubLedger) GetName(ctx context.Context, address string) (string, error) {
	return "", nil
}

func (s *stubLedger) CreateShipment(ctx context.Context, description string, fromAddress string) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubLedger) TransferShipment(ctx context.Context, shipmentID string, toAddress string, status int, fromAddress string) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubLedger) GetShipmentHistory(ctx context.Context, shipmentID string) ([]ledger.ShipmentRecord, error) {
	return nil, nil
}

func (s *stubLedger) GetShipmentStatus(ctx context.Context, shipmentID string) (string, error) {
	return "", nil
}

func seedOrderWithJob(t *testing.T, db *gorm.DB, kind string, payload string, attempts int) *types.LedgerJob {
	t.Helper()

	user := &types.User{Email: "acme@example.com", PasswordHash: "x", Role: types.RoleManufacturer, Name: "Acme"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	product := &types.Product{SKU: "SKU-1", Quantity: 5, ManufacturerID: user.ID}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	order := &types.Order{ProductID: product.ID, Quantity: 1, Origin: "Acme", CurrentOwnerID: user.ID, UserID: user.ID}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}

	job := &types.LedgerJob{
		OrderID:  order.ID,
		Kind:     kind,
		Payload:  []byte(payload),
		Attempts: attempts,
	}
	if err := db.Create(job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job
}

func TestWorkerConfirmsPendingJob(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	repo := repos.NewLedgerJobRepo(db, log)
	led := &stubLedger{receiptStatus: 1}
	w := NewWorker(db, log, repo, led)

	job := seedOrderWithJob(t, db, types.LedgerJobKindCreateOrder, `{"from_address":"0xacme"}`, 0)

	w.tick(context.Background())

	var stored types.LedgerJob
	if err := db.First(&stored, "id = ?", job.ID).Error; err != nil {
		t.Fatalf("fetch job: %v", err)
	}
	if stored.State != types.LedgerJobStateDone {
		t.Errorf("state = %q, want done", stored.State)
	}
	if led.createCalls != 1 {
		t.Errorf("createOrder calls = %d, want 1", led.createCalls)
	}
}

func TestWorkerReplaysTransferJob(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	repo := repos.NewLedgerJobRepo(db, log)
	led := &stubLedger{receiptStatus: 1}
	w := NewWorker(db, log, repo, led)

	payload := `{"from_address":"0xacme","new_owner_address":"0xnext","status":"Accepted"}`
	job := seedOrderWithJob(t, db, types.LedgerJobKindTransferOwnership, payload, 0)

	w.tick(context.Background())

	var stored types.LedgerJob
	if err := db.First(&stored, "id = ?", job.ID).Error; err != nil {
		t.Fatalf("fetch job: %v", err)
	}
	if stored.State != types.LedgerJobStateDone {
		t.Errorf("state = %q, want done", stored.State)
	}
	if led.transferCalls != 1 {
		t.Errorf("transferOwnership calls = %d, want 1", led.transferCalls)
	}
}

func TestWorkerRetriesThenExhausts(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	repo := repos.NewLedgerJobRepo(db, log)
	led := &stubLedger{submitErr: errors.New("node unreachable")}
	w := NewWorker(db, log, repo, led)

	job := seedOrderWithJob(t, db, types.LedgerJobKindCreateOrder, `{"from_address":"0xacme"}`, 0)

	w.tick(context.Background())

	var stored types.LedgerJob
	if err := db.First(&stored, "id = ?", job.ID).Error; err != nil {
		t.Fatalf("fetch job: %v", err)
	}
	if stored.State != types.LedgerJobStatePending {
		t.Errorf("state = %q, want pending for retry", stored.State)
	}
	if stored.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", stored.Attempts)
	}
	if stored.LastError == "" {
		t.Error("last error not recorded")
	}

	// Burn through the remaining budget.
	for i := 0; i < w.maxAttempts-1; i++ {
		w.tick(context.Background())
	}
	if err := db.First(&stored, "id = ?", job.ID).Error; err != nil {
		t.Fatalf("fetch job: %v", err)
	}
	if stored.State != types.LedgerJobStateFailed {
		t.Errorf("state = %q, want failed after %d attempts", stored.State, w.maxAttempts)
	}
	if stored.Attempts != w.maxAttempts {
		t.Errorf("attempts = %d, want %d", stored.Attempts, w.maxAttempts)
	}
}

func TestWorkerReclaimsStaleRunningJobs(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	repo := repos.NewLedgerJobRepo(db, log)
	led := &stubLedger{receiptStatus: 1}
	w := NewWorker(db, log, repo, led)

	job := seedOrderWithJob(t, db, types.LedgerJobKindCreateOrder, `{"from_address":"0xacme"}`, 0)
	staleAt := time.Now().Add(-2 * w.staleThreshold)
	if err := db.Model(&types.LedgerJob{}).Where("id = ?", job.ID).
		Updates(map[string]interface{}{"state": types.LedgerJobStateRunning, "updated_at": staleAt}).Error; err != nil {
		t.Fatalf("mark running: %v", err)
	}

	w.tick(context.Background())

	var stored types.LedgerJob
	if err := db.First(&stored, "id = ?", job.ID).Error; err != nil {
		t.Fatalf("fetch job: %v", err)
	}
	if stored.State != types.LedgerJobStateDone {
		t.Errorf("state = %q, want done after reclaim and replay", stored.State)
	}
}

func TestWorkerRevertedReplayConsumesAttempt(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	repo := repos.NewLedgerJobRepo(db, log)
	led := &stubLedger{receiptStatus: 0}
	w := NewWorker(db, log, repo, led)

	job := seedOrderWithJob(t, db, types.LedgerJobKindCreateOrder, `{"from_address":"0xacme"}`, 0)

	w.tick(context.Background())

	var stored types.LedgerJob
	if err := db.First(&stored, "id = ?", job.ID).Error; err != nil {
		t.Fatalf("fetch job: %v", err)
	}
	if stored.State != types.LedgerJobStatePending {
		t.Errorf("state = %q, want pending", stored.State)
	}
	if stored.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", stored.Attempts)
	}
}
