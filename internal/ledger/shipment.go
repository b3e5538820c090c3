package ledger

import (
	"context"
	"encoding/json"
	"fmt"
)

// ShipmentRecord is one hop of a shipment's transfer trail on the contract.
type ShipmentRecord struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Status    int    `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

func (c *Client) CreateShipment(ctx context.Context, description string, fromAddress string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	result, err := c.call(ctx, "createShipment", []interface{}{c.contractAddress, description, fromAddress})
	if err != nil {
		return "", err
	}
	var txHash string
	if err := json.Unmarshal(result, &txHash); err != nil {
		return "", fmt.Errorf("unmarshal tx hash: %w", err)
	}
	return txHash, nil
}

func (c *Client) TransferShipment(ctx context.Context, shipmentID string, toAddress string, status int, fromAddress string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	result, err := c.call(ctx, "transferShipment", []interface{}{c.contractAddress, shipmentID, toAddress, status, fromAddress})
	if err != nil {
		return "", err
	}
	var txHash string
	if err := json.Unmarshal(result, &txHash); err != nil {
		return "", fmt.Errorf("unmarshal tx hash: %w", err)
	}
	return txHash, nil
}

func (c *Client) GetShipmentHistory(ctx context.Context, shipmentID string) ([]ShipmentRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	result, err := c.call(ctx, "getShipmentHistory", []interface{}{c.contractAddress, shipmentID})
	if err != nil {
		return nil, err
	}
	var records []ShipmentRecord
	if err := json.Unmarshal(result, &records); err != nil {
		return nil, fmt.Errorf("unmarshal shipment history: %w", err)
	}
	return records, nil
}

func (c *Client) GetShipmentStatus(ctx context.Context, shipmentID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	result, err := c.call(ctx, "getShipmentStatus", []interface{}{c.contractAddress, shipmentID})
	if err != nil {
		return "", err
	}
	var status string
	if err := json.Unmarshal(result, &status); err != nil {
		return "", fmt.Errorf("unmarshal shipment status: %w", err)
	}
	return status, nil
}
