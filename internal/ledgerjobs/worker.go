package ledgerjobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/repos"
	"github.com/duinokary/supplychain-backend/internal/services"
	"github.com/duinokary/supplychain-backend/internal/types"
	"github.com/duinokary/supplychain-backend/internal/utils"
)

// Worker drains the ledger_jobs outbox: submissions that failed in-flight are
// replayed against the contract until confirmed or the attempt budget runs out.
type Worker struct {
	db     *gorm.DB
	log    *logger.Logger
	repo   repos.LedgerJobRepo
	ledger services.Ledger

	concurrency    int
	pollInterval   time.Duration
	maxAttempts    int
	staleThreshold time.Duration

	wg sync.WaitGroup
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo repos.LedgerJobRepo, ledgerClient services.Ledger) *Worker {
	log := baseLog.With("component", "LedgerJobWorker")

	concurrency := utils.GetEnvAsInt("WORKER_CONCURRENCY", 2, log)
	if concurrency < 1 {
		concurrency = 1
	}
	pollSeconds := utils.GetEnvAsInt("WORKER_POLL_INTERVAL_SECONDS", 15, log)
	maxAttempts := utils.GetEnvAsInt("WORKER_MAX_ATTEMPTS", 5, log)
	staleMinutes := utils.GetEnvAsInt("WORKER_STALE_MINUTES", 10, log)

	return &Worker{
		db:             db,
		log:            log,
		repo:           repo,
		ledger:         ledgerClient,
		concurrency:    concurrency,
		pollInterval:   time.Duration(pollSeconds) * time.Second,
		maxAttempts:    maxAttempts,
		staleThreshold: time.Duration(staleMinutes) * time.Minute,
	}
}

// Start launches the polling loop. It returns immediately; the loop stops when
// ctx is cancelled and Wait blocks until in-flight jobs finish.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.tick(ctx)
			}
		}
	}()
}

func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) tick(ctx context.Context) {
	reclaimed, err := w.repo.ReclaimStale(ctx, nil, time.Now().Add(-w.staleThreshold))
	if err != nil {
		w.log.Warn("ReclaimStale failed", "error", err)
	} else if reclaimed > 0 {
		w.log.Info("Reclaimed stale ledger jobs", "count", reclaimed)
	}

	jobs, err := w.repo.ClaimPending(ctx, nil, w.concurrency)
	if err != nil {
		w.log.Warn("ClaimPending failed", "error", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	var jobWG sync.WaitGroup
	for _, job := range jobs {
		job := job
		jobWG.Add(1)
		go func() {
			defer jobWG.Done()
			w.process(ctx, job)
		}()
	}
	jobWG.Wait()
}

func (w *Worker) process(ctx context.Context, job *types.LedgerJob) {
	err := w.submit(ctx, job)
	if err == nil {
		if mErr := w.repo.MarkDone(ctx, nil, job.ID); mErr != nil {
			w.log.Error("MarkDone failed", "jobID", job.ID, "error", mErr)
			return
		}
		w.log.Info("Ledger job confirmed", "jobID", job.ID, "orderID", job.OrderID, "kind", job.Kind)
		return
	}

	attempts := job.Attempts + 1
	exhausted := attempts >= w.maxAttempts
	if mErr := w.repo.MarkFailedAttempt(ctx, nil, job.ID, attempts, err.Error(), exhausted); mErr != nil {
		w.log.Error("MarkFailedAttempt failed", "jobID", job.ID, "error", mErr)
		return
	}
	if exhausted {
		w.log.Error("Ledger job exhausted retry budget",
			"jobID", job.ID, "orderID", job.OrderID, "kind", job.Kind, "attempts", attempts, "error", err)
		return
	}
	w.log.Warn("Ledger job attempt failed, will retry",
		"jobID", job.ID, "orderID", job.OrderID, "kind", job.Kind, "attempts", attempts, "error", err)
}

type jobPayload struct {
	FromAddress     string `json:"from_address"`
	NewOwnerAddress string `json:"new_owner_address"`
	Status          string `json:"status"`
}

func (w *Worker) submit(ctx context.Context, job *types.LedgerJob) error {
	var payload jobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	var (
		txHash string
		err    error
	)
	switch job.Kind {
	case types.LedgerJobKindCreateOrder:
		txHash, err = w.ledger.CreateOrder(ctx, job.OrderID.String(), payload.FromAddress)
	case types.LedgerJobKindTransferOwnership:
		txHash, err = w.ledger.TransferOwnership(ctx, job.OrderID.String(), payload.NewOwnerAddress, payload.Status, payload.FromAddress)
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
	if err != nil {
		return fmt.Errorf("submit %s: %w", job.Kind, err)
	}

	receipt, err := w.ledger.WaitForReceipt(ctx, txHash)
	if err != nil {
		return fmt.Errorf("wait for receipt: %w", err)
	}
	if receipt.Status != 1 {
		return fmt.Errorf("transaction %s reverted", txHash)
	}
	return nil
}
