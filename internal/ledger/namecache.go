package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/utils"
)

// NameCache is a cache-aside layer in front of the contract's getName lookup.
// Address-to-name bindings change rarely, so a short TTL keeps history
// formatting from hammering the node. A nil *NameCache is valid and means
// every lookup goes to the ledger.
type NameCache struct {
	rdb *goredis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewNameCache(log *logger.Logger) (*NameCache, error) {
	addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttlSeconds := utils.GetEnvAsInt("LEDGER_NAME_CACHE_TTL_SECONDS", 300, log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &NameCache{
		rdb: rdb,
		ttl: time.Duration(ttlSeconds) * time.Second,
		log: log.With("service", "LedgerNameCache"),
	}, nil
}

func (nc *NameCache) key(address string) string {
	return "ledger:name:" + address
}

// Get returns the cached name for an address. Cache misses and redis errors
// both report !ok so the caller falls through to the ledger lookup.
func (nc *NameCache) Get(ctx context.Context, address string) (string, bool) {
	if nc == nil || nc.rdb == nil {
		return "", false
	}
	val, err := nc.rdb.Get(ctx, nc.key(address)).Result()
	if err != nil {
		if err != goredis.Nil {
			nc.log.Debug("Name cache read failed", "address", address, "error", err)
		}
		return "", false
	}
	return val, true
}

func (nc *NameCache) Set(ctx context.Context, address, name string) {
	if nc == nil || nc.rdb == nil {
		return
	}
	if err := nc.rdb.Set(ctx, nc.key(address), name, nc.ttl).Err(); err != nil {
		nc.log.Debug("Name cache write failed", "address", address, "error", err)
	}
}

func (nc *NameCache) Close() error {
	if nc == nil || nc.rdb == nil {
		return nil
	}
	return nc.rdb.Close()
}
