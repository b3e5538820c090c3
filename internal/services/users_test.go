package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/duinokary/supplychain-backend/internal/types"
)

func TestDeleteUserCascades(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	r := newTestRepos(db, log)
	svc := NewUserService(db, log, r.user)
	ctx := context.Background()

	manufacturer := mustCreateUser(t, db, "Acme", types.RoleManufacturer, "0xacme")
	product := mustCreateProduct(t, db, manufacturer, "SKU-1", 5)

	order := &types.Order{
		ProductID:      product.ID,
		Quantity:       2,
		Origin:         manufacturer.Name,
		CurrentOwnerID: manufacturer.ID,
		UserID:         manufacturer.ID,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	entry := &types.OrderHistory{OrderID: order.ID, Description: "Order created by Acme"}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("create history: %v", err)
	}

	if err := svc.DeleteUser(ctx, manufacturer.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	var productCount, orderCount, historyCount int64
	db.Model(&types.Product{}).Count(&productCount)
	db.Model(&types.Order{}).Count(&orderCount)
	db.Model(&types.OrderHistory{}).Count(&historyCount)

	if productCount != 0 {
		t.Errorf("products remaining = %d, want 0", productCount)
	}
	if orderCount != 0 {
		t.Errorf("orders remaining = %d, want 0", orderCount)
	}
	if historyCount != 0 {
		t.Errorf("order history remaining = %d, want 0", historyCount)
	}
}

func TestDeleteUserNotFound(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	r := newTestRepos(db, log)
	svc := NewUserService(db, log, r.user)

	if err := svc.DeleteUser(context.Background(), uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestGetByRole(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	r := newTestRepos(db, log)
	svc := NewUserService(db, log, r.user)
	ctx := context.Background()

	mustCreateUser(t, db, "Acme", types.RoleManufacturer, "0xa")
	mustCreateUser(t, db, "Globex", types.RoleManufacturer, "0xb")
	mustCreateUser(t, db, "Haulers", types.RoleLogistics, "0xc")

	manufacturers, err := svc.GetByRole(ctx, types.RoleManufacturer)
	if err != nil {
		t.Fatalf("GetByRole: %v", err)
	}
	if len(manufacturers) != 2 {
		t.Errorf("manufacturers = %d, want 2", len(manufacturers))
	}

	suppliers, err := svc.GetByRole(ctx, types.RoleSupplier)
	if err != nil {
		t.Fatalf("GetByRole: %v", err)
	}
	if len(suppliers) != 0 {
		t.Errorf("suppliers = %d, want 0", len(suppliers))
	}
}
