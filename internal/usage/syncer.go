package usage

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// PublishFunc sends a batch of records to an external system (e.g., Redis).
// It should return an error if the publish fails.
type PublishFunc func(ctx context.Context, records []UnitRecord) error

// SyncerConfig holds configuration for the syncer.
type SyncerConfig struct {
	// Store is the local record database
	Store *Store

	// PublishFn sends records to the external system
	PublishFn PublishFunc

	// Interval between sync cycles (default: 60s)
	Interval time.Duration

	// BatchSize is the max records per sync cycle (default: 50)
	BatchSize int

	// Limiter paces batches during Drain (optional)
	Limiter *rate.Limiter

	// LogFn is called for log messages (optional)
	LogFn func(level, msg string)
}

// Syncer ships unsynced records to an external system.
type Syncer struct {
	store     *Store
	publishFn PublishFunc
	interval  time.Duration
	batchSize int
	limiter   *rate.Limiter
	logFn     func(level, msg string)
}

// NewSyncer creates a new record syncer.
func NewSyncer(cfg SyncerConfig) *Syncer {
	interval := cfg.Interval
	if interval == 0 {
		interval = 60 * time.Second
	}
	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = 50
	}
	return &Syncer{
		store:     cfg.Store,
		publishFn: cfg.PublishFn,
		interval:  interval,
		batchSize: batchSize,
		limiter:   cfg.Limiter,
		logFn:     cfg.LogFn,
	}
}

// Start drains the backlog every interval until the context is cancelled.
func (s *Syncer) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Drain(ctx); err != nil && ctx.Err() == nil {
			s.log("warning", fmt.Sprintf("record sync: %v", err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SyncOnce publishes a single batch and marks it synced. It returns the number
// of records published.
func (s *Syncer) SyncOnce(ctx context.Context) (int, error) {
	records, err := s.store.QueryUnsynced(s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("query failed: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	if err := s.publishFn(ctx, records); err != nil {
		return 0, fmt.Errorf("publish failed (%d records): %w", len(records), err)
	}

	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	if err := s.store.MarkSynced(ids); err != nil {
		return 0, fmt.Errorf("mark synced failed: %w", err)
	}

	s.log("info", fmt.Sprintf("record sync: published %d records", len(records)))
	return len(records), nil
}

// Drain runs SyncOnce until the backlog is empty, waiting on the limiter
// between batches. It returns the total number of records published.
func (s *Syncer) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return total, err
			}
		}
		n, err := s.SyncOnce(ctx)
		total += n
		if err != nil {
			return total, err
		}
		if n < s.batchSize {
			return total, nil
		}
	}
}

func (s *Syncer) log(level, msg string) {
	if s.logFn != nil {
		s.logFn(level, msg)
	}
}
