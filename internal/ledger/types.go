package ledger

import (
	"encoding/json"
	"fmt"
)

// Receipt is the confirmation returned once a submitted transaction has been
// included in the ledger. Status 1 means success, 0 means the transaction was
// mined but reverted.
type Receipt struct {
	TxHash      string `json:"tx_hash"`
	Status      int    `json:"status"`
	BlockNumber uint64 `json:"block_number"`
}

// OwnershipRecord is one entry of the contract's per-order ownership trail.
type OwnershipRecord struct {
	Owner     string `json:"owner"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
	ID      int             `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("ledger rpc error %d: %s", e.Code, e.Message)
}
