package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/duinokary/supplychain-backend/internal/ledger"
	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/repos"
	"github.com/duinokary/supplychain-backend/internal/types"
)

// ChainHistoryEntry is one hop of the on-ledger ownership trail with the owner
// address resolved to a registered participant name where possible.
type ChainHistoryEntry struct {
	Owner     string `json:"owner"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// OrderHistoryResult carries the relational audit trail and the ledger trail
// side by side. The two are intentionally not merged.
type OrderHistoryResult struct {
	History      []*types.OrderHistory `json:"history"`
	ChainHistory []ChainHistoryEntry   `json:"chain_history"`
}

type OrderService interface {
	CreateOrder(ctx context.Context, creatorID uuid.UUID, productID uuid.UUID, quantity int, originUserID uuid.UUID) (*types.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, actorID uuid.UUID, newStatus string) (*types.Order, error)
	UpdateOwnerStatus(ctx context.Context, orderID uuid.UUID, actorID uuid.UUID, nextOwnerID uuid.UUID, newStatus string) (*types.Order, error)
	GetOrderHistory(ctx context.Context, orderID uuid.UUID) (*OrderHistoryResult, error)
	ListMade(ctx context.Context, userID uuid.UUID) ([]*types.Order, error)
	ListReceived(ctx context.Context, userID uuid.UUID) ([]*types.Order, error)
}

type orderService struct {
	db  *gorm.DB
	log *logger.Logger

	orderRepo        repos.OrderRepo
	orderHistoryRepo repos.OrderHistoryRepo
	productRepo      repos.ProductRepo
	userRepo         repos.UserRepo
	ledgerJobRepo    repos.LedgerJobRepo

	ledger    Ledger
	nameCache *ledger.NameCache

	locks *keyedMutex
}

func NewOrderService(
	db *gorm.DB,
	log *logger.Logger,
	orderRepo repos.OrderRepo,
	orderHistoryRepo repos.OrderHistoryRepo,
	productRepo repos.ProductRepo,
	userRepo repos.UserRepo,
	ledgerJobRepo repos.LedgerJobRepo,
	ledgerClient Ledger,
	nameCache *ledger.NameCache,
) OrderService {
	serviceLog := log.With("service", "OrderService")
	return &orderService{
		db:               db,
		log:              serviceLog,
		orderRepo:        orderRepo,
		orderHistoryRepo: orderHistoryRepo,
		productRepo:      productRepo,
		userRepo:         userRepo,
		ledgerJobRepo:    ledgerJobRepo,
		ledger:           ledgerClient,
		nameCache:        nameCache,
		locks:            newKeyedMutex(),
	}
}

// CreateOrder inserts the order and its first history entry, then mirrors the
// creation onto the ledger contract. The relational rows are committed before
// the ledger submission and are never rolled back by a ledger failure; a
// failed submission is enqueued for the outbox worker instead.
func (os *orderService) CreateOrder(ctx context.Context, creatorID uuid.UUID, productID uuid.UUID, quantity int, originUserID uuid.UUID) (*types.Order, error) {
	creator, err := os.userRepo.GetByID(ctx, nil, creatorID)
	if err != nil {
		return nil, fmt.Errorf("error fetching creator: %w", err)
	}
	if creator == nil {
		return nil, ErrUserNotFound
	}

	origin, err := os.userRepo.GetByID(ctx, nil, originUserID)
	if err != nil {
		return nil, fmt.Errorf("error fetching origin: %w", err)
	}
	if origin == nil {
		return nil, ErrOriginNotFound
	}

	product, err := os.productRepo.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, fmt.Errorf("error fetching product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	order := &types.Order{
		ProductID:      product.ID,
		Quantity:       quantity,
		Origin:         origin.Name,
		CurrentOwnerID: creator.ID,
		Status:         types.OrderStatusPending,
		UserID:         creator.ID,
	}

	if err := os.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := os.orderRepo.Create(ctx, tx, []*types.Order{order}); err != nil {
			return fmt.Errorf("error creating order: %w", err)
		}
		entry := &types.OrderHistory{
			OrderID:     order.ID,
			Description: fmt.Sprintf("Order created by %s", creator.Name),
		}
		if _, err := os.orderHistoryRepo.Create(ctx, tx, []*types.OrderHistory{entry}); err != nil {
			return fmt.Errorf("error creating order history: %w", err)
		}
		return nil
	}); err != nil {
		os.log.Error("CreateOrder transaction error", "error", err)
		return nil, err
	}

	if err := os.submitCreate(ctx, order.ID, creator.EthAddress); err != nil {
		return order, err
	}

	os.log.Info("Order created", "orderID", order.ID, "creatorID", creator.ID)
	return order, nil
}

// UpdateStatus sets the order's status. An "Accepted" status additionally
// makes the actor the current owner and draws the ordered quantity down from
// the product's stock.
func (os *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, actorID uuid.UUID, newStatus string) (*types.Order, error) {
	unlock := os.locks.Lock(orderID.String())
	defer unlock()

	order, err := os.orderRepo.GetByID(ctx, nil, orderID)
	if err != nil {
		return nil, fmt.Errorf("error fetching order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	actor, err := os.userRepo.GetByID(ctx, nil, actorID)
	if err != nil {
		return nil, fmt.Errorf("error fetching actor: %w", err)
	}
	if actor == nil {
		return nil, ErrUserNotFound
	}

	if err := os.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		newOwnerID := uuid.Nil
		if newStatus == types.OrderStatusAccepted {
			newOwnerID = actor.ID

			product, err := os.productRepo.GetByID(ctx, tx, order.ProductID)
			if err != nil {
				return fmt.Errorf("error fetching product: %w", err)
			}
			if product != nil {
				if product.Quantity < order.Quantity {
					os.log.Warn("Product stock going negative on acceptance",
						"productID", product.ID, "stock", product.Quantity, "ordered", order.Quantity)
				}
				if err := os.productRepo.DecrementQuantity(ctx, tx, product.ID, order.Quantity); err != nil {
					return fmt.Errorf("error decrementing product quantity: %w", err)
				}
			}
		}

		if err := os.orderRepo.UpdateStatusAndOwner(ctx, tx, order.ID, newStatus, newOwnerID); err != nil {
			return fmt.Errorf("error updating order: %w", err)
		}
		entry := &types.OrderHistory{
			OrderID:     order.ID,
			Description: fmt.Sprintf("Order status updated to %s by %s", newStatus, actor.Name),
		}
		if _, err := os.orderHistoryRepo.Create(ctx, tx, []*types.OrderHistory{entry}); err != nil {
			return fmt.Errorf("error creating order history: %w", err)
		}
		return nil
	}); err != nil {
		os.log.Error("UpdateStatus transaction error", "orderID", orderID, "error", err)
		return nil, err
	}

	if err := os.submitTransfer(ctx, order.ID, actor.EthAddress, newStatus, actor.EthAddress); err != nil {
		return order, err
	}

	os.log.Info("Order status updated", "orderID", order.ID, "status", newStatus, "actorID", actor.ID)
	return order, nil
}

// UpdateOwnerStatus sets the order's status and hands ownership to nextOwner.
// Only the current owner may transfer; an unauthorized caller mutates nothing.
func (os *orderService) UpdateOwnerStatus(ctx context.Context, orderID uuid.UUID, actorID uuid.UUID, nextOwnerID uuid.UUID, newStatus string) (*types.Order, error) {
	unlock := os.locks.Lock(orderID.String())
	defer unlock()

	order, err := os.orderRepo.GetByID(ctx, nil, orderID)
	if err != nil {
		return nil, fmt.Errorf("error fetching order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.CurrentOwnerID != actorID {
		return nil, ErrUnauthorized
	}

	actor, err := os.userRepo.GetByID(ctx, nil, actorID)
	if err != nil {
		return nil, fmt.Errorf("error fetching actor: %w", err)
	}
	if actor == nil {
		return nil, ErrUserNotFound
	}

	nextOwner, err := os.userRepo.GetByID(ctx, nil, nextOwnerID)
	if err != nil {
		return nil, fmt.Errorf("error fetching next owner: %w", err)
	}
	if nextOwner == nil {
		return nil, ErrNextOwnerNotFound
	}

	if err := os.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := os.orderRepo.UpdateStatusAndOwner(ctx, tx, order.ID, newStatus, nextOwner.ID); err != nil {
			return fmt.Errorf("error updating order: %w", err)
		}
		entry := &types.OrderHistory{
			OrderID: order.ID,
			Description: fmt.Sprintf("Order status updated to %s and transferred to %s by %s",
				newStatus, nextOwner.Name, actor.Name),
		}
		if _, err := os.orderHistoryRepo.Create(ctx, tx, []*types.OrderHistory{entry}); err != nil {
			return fmt.Errorf("error creating order history: %w", err)
		}
		return nil
	}); err != nil {
		os.log.Error("UpdateOwnerStatus transaction error", "orderID", orderID, "error", err)
		return nil, err
	}

	if err := os.submitTransfer(ctx, order.ID, nextOwner.EthAddress, newStatus, actor.EthAddress); err != nil {
		return order, err
	}

	os.log.Info("Order ownership transferred",
		"orderID", order.ID, "status", newStatus, "actorID", actor.ID, "nextOwnerID", nextOwner.ID)
	return order, nil
}

// GetOrderHistory returns the relational audit trail alongside the contract's
// ownership trail. Owner addresses are resolved to names through the cache;
// a failed lookup falls back to the raw address rather than failing the call.
func (os *orderService) GetOrderHistory(ctx context.Context, orderID uuid.UUID) (*OrderHistoryResult, error) {
	order, err := os.orderRepo.GetByID(ctx, nil, orderID)
	if err != nil {
		return nil, fmt.Errorf("error fetching order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	entries, err := os.orderHistoryRepo.GetByOrderID(ctx, nil, orderID)
	if err != nil {
		return nil, fmt.Errorf("error fetching order history: %w", err)
	}

	records, err := os.ledger.GetOrderHistory(ctx, orderID.String())
	if err != nil {
		return nil, fmt.Errorf("error fetching ledger history: %w", err)
	}

	names := os.resolveNames(ctx, records)

	chain := make([]ChainHistoryEntry, 0, len(records))
	for _, rec := range records {
		chain = append(chain, ChainHistoryEntry{
			Owner:     names[rec.Owner],
			Status:    rec.Status,
			Timestamp: rec.Timestamp,
		})
	}

	return &OrderHistoryResult{History: entries, ChainHistory: chain}, nil
}

// resolveNames maps every distinct owner address in records to a display name.
// Lookups fan out concurrently; the value for an address that cannot be
// resolved is the address itself.
func (os *orderService) resolveNames(ctx context.Context, records []ledger.OwnershipRecord) map[string]string {
	names := make(map[string]string, len(records))
	for _, rec := range records {
		names[rec.Owner] = rec.Owner
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for address := range names {
		address := address
		g.Go(func() error {
			if cached, ok := os.nameCache.Get(gctx, address); ok {
				mu.Lock()
				names[address] = cached
				mu.Unlock()
				return nil
			}
			name, err := os.ledger.GetName(gctx, address)
			if err != nil {
				os.log.Warn("Name resolution failed, using raw address", "address", address, "error", err)
				return nil
			}
			if name == "" {
				return nil
			}
			os.nameCache.Set(gctx, address, name)
			mu.Lock()
			names[address] = name
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return names
}

func (os *orderService) ListMade(ctx context.Context, userID uuid.UUID) ([]*types.Order, error) {
	user, err := os.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return os.orderRepo.GetMadeByUserID(ctx, nil, userID)
}

func (os *orderService) ListReceived(ctx context.Context, userID uuid.UUID) ([]*types.Order, error) {
	user, err := os.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return os.orderRepo.GetReceived(ctx, nil, userID, user.Name)
}

// submitCreate mirrors a freshly inserted order onto the contract. A transport
// failure enqueues a retry job; a mined-but-reverted receipt does not, since
// resubmitting a deterministic revert cannot succeed.
func (os *orderService) submitCreate(ctx context.Context, orderID uuid.UUID, fromAddress string) error {
	txHash, err := os.ledger.CreateOrder(ctx, orderID.String(), fromAddress)
	if err != nil {
		os.log.Error("Ledger createOrder submission failed", "orderID", orderID, "error", err)
		os.enqueueJob(ctx, orderID, types.LedgerJobKindCreateOrder, ledgerJobPayload{FromAddress: fromAddress}, err)
		return ErrLedgerUpdateFailed
	}

	receipt, err := os.ledger.WaitForReceipt(ctx, txHash)
	if err != nil {
		os.log.Error("Ledger createOrder receipt wait failed", "orderID", orderID, "txHash", txHash, "error", err)
		os.enqueueJob(ctx, orderID, types.LedgerJobKindCreateOrder, ledgerJobPayload{FromAddress: fromAddress}, err)
		return ErrLedgerUpdateFailed
	}
	if receipt.Status != 1 {
		os.log.Error("Ledger createOrder transaction reverted", "orderID", orderID, "txHash", txHash)
		return ErrLedgerUpdateFailed
	}
	return nil
}

func (os *orderService) submitTransfer(ctx context.Context, orderID uuid.UUID, newOwnerAddress string, status string, fromAddress string) error {
	payload := ledgerJobPayload{
		FromAddress:     fromAddress,
		NewOwnerAddress: newOwnerAddress,
		Status:          status,
	}

	txHash, err := os.ledger.TransferOwnership(ctx, orderID.String(), newOwnerAddress, status, fromAddress)
	if err != nil {
		os.log.Error("Ledger transferOwnership submission failed", "orderID", orderID, "error", err)
		os.enqueueJob(ctx, orderID, types.LedgerJobKindTransferOwnership, payload, err)
		return ErrLedgerUpdateFailed
	}

	receipt, err := os.ledger.WaitForReceipt(ctx, txHash)
	if err != nil {
		os.log.Error("Ledger transferOwnership receipt wait failed", "orderID", orderID, "txHash", txHash, "error", err)
		os.enqueueJob(ctx, orderID, types.LedgerJobKindTransferOwnership, payload, err)
		return ErrLedgerUpdateFailed
	}
	if receipt.Status != 1 {
		os.log.Error("Ledger transferOwnership transaction reverted", "orderID", orderID, "txHash", txHash)
		return ErrLedgerUpdateFailed
	}
	return nil
}

type ledgerJobPayload struct {
	FromAddress     string `json:"from_address"`
	NewOwnerAddress string `json:"new_owner_address,omitempty"`
	Status          string `json:"status,omitempty"`
}

// enqueueJob persists a retry job for a ledger submission that failed in
// flight. Enqueue errors are logged, not returned; the caller already reports
// the ledger failure.
func (os *orderService) enqueueJob(ctx context.Context, orderID uuid.UUID, kind string, payload ledgerJobPayload, cause error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		os.log.Error("Failed to marshal ledger job payload", "orderID", orderID, "kind", kind, "error", err)
		return
	}
	job := &types.LedgerJob{
		OrderID:   orderID,
		Kind:      kind,
		Payload:   raw,
		LastError: cause.Error(),
	}
	if _, err := os.ledgerJobRepo.Create(ctx, nil, []*types.LedgerJob{job}); err != nil {
		os.log.Error("Failed to enqueue ledger job", "orderID", orderID, "kind", kind, "error", err)
		return
	}
	os.log.Info("Ledger job enqueued for retry", "orderID", orderID, "kind", kind, "jobID", job.ID)
}
