package sink

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/GoTickGate/tickgate/internal/config"
	"github.com/GoTickGate/tickgate/internal/feed"
	"github.com/GoTickGate/tickgate/internal/model"
	"github.com/GoTickGate/tickgate/internal/pkg/logger"
)

// TickStore batches quotes into Postgres. Producers hand quotes to a
// buffered channel and never block: when the buffer is full the quote is
// dropped with a warning, because a slow database must not stall a feed's
// read loop. Close drains the buffer and flushes the final batch, which is
// why the store is registered as a supervisor closer and finalized only
// after every feed task has resolved.
type TickStore struct {
	db            *gorm.DB
	buf           chan feed.Quote
	batchSize     int
	flushInterval time.Duration

	done      chan struct{}
	closeOnce sync.Once
	dropped   uint64
	mu        sync.Mutex
}

func NewTickStore(cfg config.DatabaseConfig) (*TickStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is empty")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&model.Tick{}); err != nil {
		return nil, fmt.Errorf("failed to migrate ticks table: %w", err)
	}

	s := &TickStore{
		db:            db,
		buf:           make(chan feed.Quote, cfg.BufferSize),
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval(),
		done:          make(chan struct{}),
	}
	go s.consume()
	return s, nil
}

// Sink returns the non-blocking producer side.
func (s *TickStore) Sink() feed.SinkFunc {
	return func(q feed.Quote) {
		select {
		case s.buf <- q:
		default:
			s.mu.Lock()
			s.dropped++
			n := s.dropped
			s.mu.Unlock()
			if n%1000 == 1 {
				logger.Warn("tick buffer full, dropping", "symbol", q.Symbol, "dropped_total", n)
			}
		}
	}
}

func (s *TickStore) consume() {
	defer close(s.done)

	batch := make([]model.Tick, 0, s.batchSize)
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case q, ok := <-s.buf:
			if !ok {
				s.flush(batch)
				return
			}
			batch = append(batch, toTick(q))
			if len(batch) >= s.batchSize {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *TickStore) flush(batch []model.Tick) {
	if len(batch) == 0 {
		return
	}
	if err := s.db.CreateInBatches(batch, s.batchSize).Error; err != nil {
		logger.Error("tick batch insert failed", "count", len(batch), "error", err)
	}
}

// Close stops accepting quotes, drains what is buffered and flushes the
// final batch.
func (s *TickStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.buf)
	})
	<-s.done

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toTick(q feed.Quote) model.Tick {
	return model.Tick{
		Symbol:    q.Symbol,
		Source:    q.Source,
		BidPrice:  q.BidPrice,
		BidSize:   q.BidSize,
		AskPrice:  q.AskPrice,
		AskSize:   q.AskSize,
		Timestamp: q.Timestamp,
	}
}
