package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/packlabs/packvault-backend/internal/logger"
)

// RecordBus publishes emitted ledger records for external indexing and
// analytics. Publishing is best-effort after commit; the transactional
// record tables remain the source of truth.
type RecordBus interface {
	Publish(ctx context.Context, kind string, payload interface{}) error
	Close() error
}

type recordBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

type envelope struct {
	Kind      string      `json:"kind"`
	EmittedAt time.Time   `json:"emitted_at"`
	Payload   interface{} `json:"payload"`
}

func NewRecordBus(log *logger.Logger) (RecordBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
	if ch == "" {
		ch = "vault-records"
	}

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

	return &recordBus{
		log:     log.With("client", "RedisRecordBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *recordBus) Publish(ctx context.Context, kind string, payload interface{}) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("record bus not initialized")
	}
	raw, err := json.Marshal(envelope{
		Kind:      kind,
		EmittedAt: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *recordBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
