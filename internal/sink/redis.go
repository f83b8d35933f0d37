// Package sink holds the downstream consumers of quotes and aggregates:
// the Redis NBBO publisher, the Postgres tick store and the in-memory
// latest-quote cache.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GoTickGate/tickgate/internal/config"
	"github.com/GoTickGate/tickgate/internal/nbbo"
	"github.com/GoTickGate/tickgate/internal/pkg/logger"
)

// NBBOPublisher pushes every aggregate to a per-symbol Redis channel and
// keeps the latest one in a TTL'd key for cold readers.
type NBBOPublisher struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewNBBOPublisher(cfg config.RedisConfig) (*NBBOPublisher, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &NBBOPublisher{
		client: rdb,
		prefix: cfg.ChannelPrefix,
		ttl:    cfg.LatestTTL(),
	}, nil
}

// nbboDTO keeps prices as strings on the wire so subscribers never see
// float rounding.
type nbboDTO struct {
	Symbol    string    `json:"symbol"`
	BidPrice  string    `json:"bid_price"`
	BidSize   string    `json:"bid_size"`
	BidSource string    `json:"bid_source"`
	AskPrice  string    `json:"ask_price"`
	AskSize   string    `json:"ask_size"`
	AskSource string    `json:"ask_source"`
	Timestamp time.Time `json:"timestamp"`
}

// Publish sends the aggregate to <prefix>:nbbo:<symbol> and refreshes the
// latest-value key. Failures are logged, not returned: publishing is
// best-effort fan-out off the hot path.
func (p *NBBOPublisher) Publish(q nbbo.Quote) {
	payload, err := json.Marshal(nbboDTO{
		Symbol:    q.Symbol,
		BidPrice:  q.BidPrice.String(),
		BidSize:   q.BidSize.String(),
		BidSource: q.BidSource,
		AskPrice:  q.AskPrice.String(),
		AskSize:   q.AskSize.String(),
		AskSource: q.AskSource,
		Timestamp: q.Timestamp,
	})
	if err != nil {
		logger.Error("nbbo marshal failed", "symbol", q.Symbol, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	channel := fmt.Sprintf("%s:nbbo:%s", p.prefix, q.Symbol)
	pipe := p.client.Pipeline()
	pipe.Publish(ctx, channel, payload)
	pipe.Set(ctx, channel+":latest", payload, p.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("nbbo publish failed", "symbol", q.Symbol, "error", err)
	}
}

func (p *NBBOPublisher) Close() error {
	return p.client.Close()
}
