package repos

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/duinokary/supplychain-backend/internal/logger"
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

func seedPendingJobs(t *testing.T, db *gorm.DB, count int) []*types.LedgerJob {
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

	jobs := make([]*types.LedgerJob, 0, count)
	for i := 0; i < count; i++ {
		job := &types.LedgerJob{
			OrderID: order.ID,
			Kind:    types.LedgerJobKindCreateOrder,
			Payload: []byte(`{"from_address":"0xacme"}`),
		}
		if err := db.Create(job).Error; err != nil {
			t.Fatalf("create job: %v", err)
		}
		jobs = append(jobs, job)
	}
	return jobs
}

func TestClaimPendingIsExclusive(t *testing.T) {
	db := newTestDB(t)
	repo := NewLedgerJobRepo(db, newTestLogger(t))
	seedPendingJobs(t, db, 2)

	first, err := repo.ClaimPending(context.Background(), nil, 5)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("first claim = %d jobs, want 2", len(first))
	}
	for _, job := range first {
		if job.State != types.LedgerJobStateRunning {
			t.Errorf("claimed job state = %q, want running", job.State)
		}
	}

	second, err := repo.ClaimPending(context.Background(), nil, 5)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("second claim = %d jobs, want 0", len(second))
	}
}

func TestClaimPendingSkipsJobsClaimedElsewhere(t *testing.T) {
	db := newTestDB(t)
	repo := NewLedgerJobRepo(db, newTestLogger(t))
	jobs := seedPendingJobs(t, db, 2)

	// Another process flips one job after it would have been read.
	if err := db.Model(&types.LedgerJob{}).Where("id = ?", jobs[0].ID).
		Update("state", types.LedgerJobStateRunning).Error; err != nil {
		t.Fatalf("mark running: %v", err)
	}

	claimed, err := repo.ClaimPending(context.Background(), nil, 5)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(claimed) != 1 {
		t.Fatalf("claimed = %d jobs, want 1", len(claimed))
	}
	if claimed[0].ID != jobs[1].ID {
		t.Errorf("claimed job %s, want %s", claimed[0].ID, jobs[1].ID)
	}
}
