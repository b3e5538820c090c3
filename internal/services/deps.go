package services

import (
	"context"

	"github.com/duinokary/supplychain-backend/internal/ledger"
	"github.com/duinokary/supplychain-backend/internal/prediction"
)

// Ledger is the slice of the contract gateway the services consume. The real
// implementation is ledger.Client; tests substitute stubs.
type Ledger interface {
	CreateOrder(ctx context.Context, orderID string, fromAddress string) (string, error)
	TransferOwnership(ctx context.Context, orderID string, newOwnerAddress string, status string, fromAddress string) (string, error)
	WaitForReceipt(ctx context.Context, txHash string) (*ledger.Receipt, error)
	GetOrderHistory(ctx context.Context, orderID string) ([]ledger.OwnershipRecord, error)
	GetName(ctx context.Context, address string) (string, error)
	CreateShipment(ctx context.Context, description string, fromAddress string) (string, error)
	TransferShipment(ctx context.Context, shipmentID string, toAddress string, status int, fromAddress string) (string, error)
	GetShipmentHistory(ctx context.Context, shipmentID string) ([]ledger.ShipmentRecord, error)
	GetShipmentStatus(ctx context.Context, shipmentID string) (string, error)
}

// Predictor maps a fixed feature vector to a class label.
type Predictor interface {
	Predict(ctx context.Context, features prediction.FeatureVector) (int, error)
}
