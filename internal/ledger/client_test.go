package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/duinokary/supplychain-backend/internal/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

// rpcStub answers JSON-RPC calls by method name.
func rpcStub(t *testing.T, handlers map[string]func(params []interface{}) interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode rpc request: %v", err)
			return
		}
		h, ok := handlers[req.Method]
		if !ok {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"jsonrpc": "2.0", "id": req.ID,
				"error": map[string]interface{}{"code": -32601, "message": "method not found"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0", "id": req.ID, "result": h(req.Params),
		})
	}))
}

func newTestClient(t *testing.T, nodeURL string) *Client {
	t.Helper()
	c, err := New(Options{
		NodeURL:         nodeURL,
		ContractAddress: "0xcontract",
		SubmitTimeout:   5 * time.Second,
		ReceiptTimeout:  5 * time.Second,
		PollInterval:    10 * time.Millisecond,
	}, newTestLogger(t))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewRequiresConfiguration(t *testing.T) {
	log := newTestLogger(t)
	if _, err := New(Options{ContractAddress: "0xc"}, log); err == nil {
		t.Error("expected error for missing node URL")
	}
	if _, err := New(Options{NodeURL: "http://localhost:7545"}, log); err == nil {
		t.Error("expected error for missing contract address")
	}
}

func TestCreateOrderSubmits(t *testing.T) {
	srv := rpcStub(t, map[string]func([]interface{}) interface{}{
		"createOrder": func(params []interface{}) interface{} {
			if len(params) != 3 || params[0] != "0xcontract" || params[1] != "order-1" || params[2] != "0xcreator" {
				t.Errorf("unexpected params: %v", params)
			}
			return "0xhash"
		},
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	txHash, err := c.CreateOrder(context.Background(), "order-1", "0xcreator")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if txHash != "0xhash" {
		t.Errorf("txHash = %q, want 0xhash", txHash)
	}
}

func TestWaitForReceiptPollsUntilMined(t *testing.T) {
	var calls int32
	srv := rpcStub(t, map[string]func([]interface{}) interface{}{
		"getTransactionReceipt": func(params []interface{}) interface{} {
			if atomic.AddInt32(&calls, 1) < 3 {
				return nil
			}
			return map[string]interface{}{"tx_hash": "0xhash", "status": 1, "block_number": 7}
		},
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	receipt, err := c.WaitForReceipt(context.Background(), "0xhash")
	if err != nil {
		t.Fatalf("WaitForReceipt: %v", err)
	}
	if receipt.Status != 1 || receipt.BlockNumber != 7 {
		t.Errorf("receipt = %+v, want status 1 block 7", receipt)
	}
	if atomic.LoadInt32(&calls) < 3 {
		t.Errorf("poll calls = %d, want at least 3", calls)
	}
}

func TestWaitForReceiptTimesOut(t *testing.T) {
	srv := rpcStub(t, map[string]func([]interface{}) interface{}{
		"getTransactionReceipt": func(params []interface{}) interface{} { return nil },
	})
	defer srv.Close()

	c, err := New(Options{
		NodeURL:         srv.URL,
		ContractAddress: "0xcontract",
		ReceiptTimeout:  50 * time.Millisecond,
		PollInterval:    10 * time.Millisecond,
	}, newTestLogger(t))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := c.WaitForReceipt(context.Background(), "0xnever"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestGetNameEmptyForUnregistered(t *testing.T) {
	srv := rpcStub(t, map[string]func([]interface{}) interface{}{
		"getName": func(params []interface{}) interface{} {
			if params[1] == "0xknown" {
				return "Acme"
			}
			return nil
		},
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	name, err := c.GetName(context.Background(), "0xknown")
	if err != nil {
		t.Fatalf("GetName: %v", err)
	}
	if name != "Acme" {
		t.Errorf("name = %q, want Acme", name)
	}

	name, err = c.GetName(context.Background(), "0xunknown")
	if err != nil {
		t.Fatalf("GetName: %v", err)
	}
	if name != "" {
		t.Errorf("name = %q, want empty for unregistered address", name)
	}
}

func TestGetOrderHistory(t *testing.T) {
	srv := rpcStub(t, map[string]func([]interface{}) interface{}{
		"getOrderHistory": func(params []interface{}) interface{} {
			return []map[string]interface{}{
				{"owner": "0xa", "status": "Pending", "timestamp": 100},
				{"owner": "0xb", "status": "Accepted", "timestamp": 200},
			}
		},
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	records, err := c.GetOrderHistory(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("GetOrderHistory: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[1].Owner != "0xb" || records[1].Status != "Accepted" || records[1].Timestamp != 200 {
		t.Errorf("record = %+v", records[1])
	}
}

func TestCallSurfacesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0", "id": 1,
			"error": map[string]interface{}{"code": -32000, "message": "revert"},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, err := c.CreateOrder(context.Background(), "order-1", "0xcreator"); err == nil {
		t.Fatal("expected rpc error")
	}
}
