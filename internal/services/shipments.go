package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/duinokary/supplychain-backend/internal/ledger"
	"github.com/duinokary/supplychain-backend/internal/logger"
)

// shipmentStatusCodes maps the transfer statuses to the contract's enum.
var shipmentStatusCodes = map[string]int{
	"Created":   0,
	"InTransit": 1,
	"Delivered": 2,
}

type ShipmentService interface {
	CreateShipment(ctx context.Context, description string, fromAddress string) (string, error)
	TransferShipment(ctx context.Context, shipmentID string, toAddress string, status string, fromAddress string) (string, error)
	GetShipmentHistory(ctx context.Context, shipmentID string) ([]ledger.ShipmentRecord, error)
	GetShipmentStatus(ctx context.Context, shipmentID string) (string, error)
}

// shipmentService is a thin pass-through: shipment tracking lives entirely on
// the contract, with no relational mirror.
type shipmentService struct {
	log    *logger.Logger
	ledger Ledger
}

func NewShipmentService(log *logger.Logger, ledgerClient Ledger) ShipmentService {
	serviceLog := log.With("service", "ShipmentService")
	return &shipmentService{log: serviceLog, ledger: ledgerClient}
}

func (ss *shipmentService) CreateShipment(ctx context.Context, description string, fromAddress string) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", fmt.Errorf("%w: description", ErrValidation)
	}

	txHash, err := ss.ledger.CreateShipment(ctx, description, fromAddress)
	if err != nil {
		ss.log.Error("Ledger createShipment failed", "error", err)
		return "", ErrLedgerUpdateFailed
	}
	receipt, err := ss.ledger.WaitForReceipt(ctx, txHash)
	if err != nil || receipt.Status != 1 {
		ss.log.Error("Ledger createShipment not confirmed", "txHash", txHash, "error", err)
		return "", ErrLedgerUpdateFailed
	}

	ss.log.Info("Shipment created", "txHash", txHash)
	return txHash, nil
}

func (ss *shipmentService) TransferShipment(ctx context.Context, shipmentID string, toAddress string, status string, fromAddress string) (string, error) {
	code, ok := shipmentStatusCodes[status]
	if !ok {
		return "", fmt.Errorf("%w: status", ErrValidation)
	}

	txHash, err := ss.ledger.TransferShipment(ctx, shipmentID, toAddress, code, fromAddress)
	if err != nil {
		ss.log.Error("Ledger transferShipment failed", "shipmentID", shipmentID, "error", err)
		return "", ErrLedgerUpdateFailed
	}
	receipt, err := ss.ledger.WaitForReceipt(ctx, txHash)
	if err != nil || receipt.Status != 1 {
		ss.log.Error("Ledger transferShipment not confirmed", "shipmentID", shipmentID, "txHash", txHash, "error", err)
		return "", ErrLedgerUpdateFailed
	}

	ss.log.Info("Shipment transferred", "shipmentID", shipmentID, "status", status, "txHash", txHash)
	return txHash, nil
}

func (ss *shipmentService) GetShipmentHistory(ctx context.Context, shipmentID string) ([]ledger.ShipmentRecord, error) {
	return ss.ledger.GetShipmentHistory(ctx, shipmentID)
}

func (ss *shipmentService) GetShipmentStatus(ctx context.Context, shipmentID string) (string, error) {
	return ss.ledger.GetShipmentStatus(ctx, shipmentID)
}
