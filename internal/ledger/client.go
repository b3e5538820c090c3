package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/utils"
)

// Client talks JSON-RPC to the node fronting the deployed order-tracking
// contract. All transaction submissions are address-authenticated by the
// caller's externally-owned account; the node holds the keys.
type Client struct {
	nodeURL         string
	contractAddress string

	submitTimeout  time.Duration
	receiptTimeout time.Duration
	pollInterval   time.Duration

	httpClient *http.Client
	log        *logger.Logger
}

type Options struct {
	NodeURL         string
	ContractAddress string

	SubmitTimeout  time.Duration
	ReceiptTimeout time.Duration
	PollInterval   time.Duration

	HTTPClient *http.Client
}

func New(opts Options, log *logger.Logger) (*Client, error) {
	nodeURL := strings.TrimRight(strings.TrimSpace(opts.NodeURL), "/")
	if nodeURL == "" {
		return nil, errors.New("ledger node URL required")
	}
	contractAddress := strings.TrimSpace(opts.ContractAddress)
	if contractAddress == "" {
		return nil, errors.New("ledger contract address required")
	}

	submitTimeout := opts.SubmitTimeout
	if submitTimeout <= 0 {
		submitTimeout = 30 * time.Second
	}
	receiptTimeout := opts.ReceiptTimeout
	if receiptTimeout <= 0 {
		receiptTimeout = 90 * time.Second
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	return &Client{
		nodeURL:         nodeURL,
		contractAddress: contractAddress,
		submitTimeout:   submitTimeout,
		receiptTimeout:  receiptTimeout,
		pollInterval:    pollInterval,
		httpClient:      hc,
		log:             log.With("client", "LedgerClient"),
	}, nil
}

func NewFromEnv(log *logger.Logger) (*Client, error) {
	submitTimeoutSeconds := utils.GetEnvAsInt("LEDGER_SUBMIT_TIMEOUT_SECONDS", 30, log)
	receiptTimeoutSeconds := utils.GetEnvAsInt("LEDGER_RECEIPT_TIMEOUT_SECONDS", 90, log)
	pollIntervalMillis := utils.GetEnvAsInt("LEDGER_POLL_INTERVAL_MS", 2000, log)

	return New(Options{
		NodeURL:         utils.GetEnv("LEDGER_NODE_URL", "http://127.0.0.1:7545", log),
		ContractAddress: utils.GetEnv("LEDGER_CONTRACT_ADDRESS", "", log),
		SubmitTimeout:   time.Duration(submitTimeoutSeconds) * time.Second,
		ReceiptTimeout:  time.Duration(receiptTimeoutSeconds) * time.Second,
		PollInterval:    time.Duration(pollIntervalMillis) * time.Millisecond,
	}, log)
}

// call performs one JSON-RPC round trip against the contract node.
func (c *Client) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.nodeURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ledger node returned status %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}

// CreateOrder submits the contract's createOrder transaction from the
// creator's address and returns the transaction hash.
func (c *Client) CreateOrder(ctx context.Context, orderID string, fromAddress string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	result, err := c.call(ctx, "createOrder", []interface{}{c.contractAddress, orderID, fromAddress})
	if err != nil {
		return "", err
	}
	var txHash string
	if err := json.Unmarshal(result, &txHash); err != nil {
		return "", fmt.Errorf("unmarshal tx hash: %w", err)
	}
	return txHash, nil
}

// TransferOwnership submits the contract's transferOwnership transaction,
// signed by fromAddress, recording (orderID, newOwnerAddress, status).
func (c *Client) TransferOwnership(ctx context.Context, orderID string, newOwnerAddress string, status string, fromAddress string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	result, err := c.call(ctx, "transferOwnership", []interface{}{c.contractAddress, orderID, newOwnerAddress, status, fromAddress})
	if err != nil {
		return "", err
	}
	var txHash string
	if err := json.Unmarshal(result, &txHash); err != nil {
		return "", fmt.Errorf("unmarshal tx hash: %w", err)
	}
	return txHash, nil
}

// WaitForReceipt polls the node until the transaction is mined or the receipt
// budget runs out. The ledger has no push channel for receipts, so polling is
// the only option.
func (c *Client) WaitForReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		result, err := c.call(ctx, "getTransactionReceipt", []interface{}{txHash})
		if err == nil && len(result) > 0 && string(result) != "null" {
			var receipt Receipt
			if uErr := json.Unmarshal(result, &receipt); uErr != nil {
				return nil, fmt.Errorf("unmarshal receipt: %w", uErr)
			}
			return &receipt, nil
		}
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("wait for receipt %s: %w", txHash, err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for receipt %s: %w", txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}

// GetOrderHistory reads the contract's full ownership trail for an order.
func (c *Client) GetOrderHistory(ctx context.Context, orderID string) ([]OwnershipRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	result, err := c.call(ctx, "getOrderHistory", []interface{}{c.contractAddress, orderID})
	if err != nil {
		return nil, err
	}
	var records []OwnershipRecord
	if err := json.Unmarshal(result, &records); err != nil {
		return nil, fmt.Errorf("unmarshal order history: %w", err)
	}
	return records, nil
}

// GetName resolves an on-ledger address to the registered participant name.
// An empty string means the contract has no name for the address.
func (c *Client) GetName(ctx context.Context, address string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	result, err := c.call(ctx, "getName", []interface{}{c.contractAddress, address})
	if err != nil {
		return "", err
	}
	if len(result) == 0 || string(result) == "null" {
		return "", nil
	}
	var name string
	if err := json.Unmarshal(result, &name); err != nil {
		return "", fmt.Errorf("unmarshal name: %w", err)
	}
	return name, nil
}
