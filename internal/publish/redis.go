// Package publish ships completed work units and board summaries to Redis.
//
// Architecture:
//
//	wuscore                                        Redis
//	┌─────────────┐  XADD wuscore:records          ┌─────────────┐
//	│   Redis     │ ─────────────────────────────▶ │  Streams    │ → control plane
//	│  Publisher  │                                └─────────────┘
//	│             │  PUBLISH wuscore:summary:<id>  ┌─────────────┐
//	│             │ ─────────────────────────────▶ │  Pub/Sub    │ → dashboards
//	└─────────────┘                                └─────────────┘
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/aceteam-ai/wuscore/internal/platform"
	"github.com/aceteam-ai/wuscore/internal/score"
	"github.com/aceteam-ai/wuscore/internal/usage"
	"github.com/redis/go-redis/v9"
)

// MessageVersion is the schema version stamped on every message.
const MessageVersion = "1.0"

// DefaultStream is the stream records and summaries are appended to.
const DefaultStream = "wuscore:records"

// nodeIDPattern validates node IDs since they end up in key names.
var nodeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// RecordMessage is the payload of one completed work unit.
type RecordMessage struct {
	Version     string  `json:"version"`
	Timestamp   string  `json:"timestamp"`
	NodeID      string  `json:"nodeId"`
	RunID       string  `json:"runId"`
	Slot        string  `json:"slot"`
	SlotType    string  `json:"slotType"`
	Project     string  `json:"project"`
	Unit        string  `json:"unit"`
	StartedAt   string  `json:"startedAt"`
	CompletedAt string  `json:"completedAt"`
	DurationMs  int64   `json:"durationMs"`
	Points      float64 `json:"points"`
}

// SummaryMessage is the payload of a board summary.
type SummaryMessage struct {
	Version   string             `json:"version"`
	Timestamp string             `json:"timestamp"`
	NodeID    string             `json:"nodeId"`
	RunID     string             `json:"runId,omitempty"`
	Host      *platform.HostInfo `json:"host,omitempty"`
	Summary   score.Summary      `json:"summary"`
}

// RedisPublisherConfig holds configuration for the Redis publisher.
type RedisPublisherConfig struct {
	// RedisURL is the Redis connection URL
	RedisURL string

	// RedisPassword is the Redis password (optional)
	RedisPassword string

	// NodeID identifies the machine the logs came from
	NodeID string

	// StreamName overrides the stream (default: wuscore:records)
	StreamName string

	// ChannelOverride overrides the pub/sub channel.
	// If empty, uses "wuscore:summary:{NodeID}"
	ChannelOverride string

	// MaxLen caps the stream length, approximately (default: 10000)
	MaxLen int64

	// Host is attached to summary messages when set
	Host *platform.HostInfo

	// DebugFunc is an optional callback for debug logging
	DebugFunc func(format string, args ...any)
}

// RedisPublisher publishes records and summaries to Redis.
type RedisPublisher struct {
	client    *redis.Client
	redisURL  string
	nodeID    string
	channel   string
	stream    string
	maxLen    int64
	host      *platform.HostInfo
	debugFunc func(format string, args ...any)
	now       func() time.Time
}

// NewRedisPublisher creates a new Redis publisher. It does not connect until
// the first command.
func NewRedisPublisher(cfg RedisPublisherConfig) (*RedisPublisher, error) {
	if !nodeIDPattern.MatchString(cfg.NodeID) {
		return nil, fmt.Errorf("invalid node ID %q: must be 1-64 alphanumeric characters, hyphens, underscores, or dots", cfg.NodeID)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}

	channel := cfg.ChannelOverride
	if channel == "" {
		channel = fmt.Sprintf("wuscore:summary:%s", cfg.NodeID)
	}
	stream := cfg.StreamName
	if stream == "" {
		stream = DefaultStream
	}
	maxLen := cfg.MaxLen
	if maxLen == 0 {
		maxLen = 10000
	}

	return &RedisPublisher{
		client:    redis.NewClient(opts),
		redisURL:  cfg.RedisURL,
		nodeID:    cfg.NodeID,
		channel:   channel,
		stream:    stream,
		maxLen:    maxLen,
		host:      cfg.Host,
		debugFunc: cfg.DebugFunc,
		now:       time.Now,
	}, nil
}

func (p *RedisPublisher) debug(format string, args ...any) {
	if p.debugFunc != nil {
		p.debugFunc(format, args...)
	}
}

// Ping verifies the connection.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	p.debug("pinging Redis at %s", p.redisURL)
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

// PublishRecords appends one stream entry per record in a single pipeline.
// It has the usage.PublishFunc signature so it can drive a syncer.
func (p *RedisPublisher) PublishRecords(ctx context.Context, records []usage.UnitRecord) error {
	if len(records) == 0 {
		return nil
	}
	ts := p.timestamp()

	_, err := p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, r := range records {
			payload, err := json.Marshal(RecordMessage{
				Version:     MessageVersion,
				Timestamp:   ts,
				NodeID:      p.nodeID,
				RunID:       r.RunID,
				Slot:        r.Slot,
				SlotType:    r.SlotType,
				Project:     r.Project,
				Unit:        r.Unit,
				StartedAt:   r.StartedAt.UTC().Format(time.RFC3339),
				CompletedAt: r.CompletedAt.UTC().Format(time.RFC3339),
				DurationMs:  r.DurationMs,
				Points:      r.Points,
			})
			if err != nil {
				return fmt.Errorf("failed to marshal record %s/%s: %w", r.Slot, r.Unit, err)
			}
			pipe.XAdd(ctx, p.xaddArgs("record", ts, payload))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add records to stream: %w", err)
	}
	p.debug("publish: %d records added to %s", len(records), p.stream)
	return nil
}

// PublishSummary sends a board summary to the pub/sub channel and the stream.
func (p *RedisPublisher) PublishSummary(ctx context.Context, runID string, s score.Summary) error {
	ts := p.timestamp()
	payload, err := json.Marshal(SummaryMessage{
		Version:   MessageVersion,
		Timestamp: ts,
		NodeID:    p.nodeID,
		RunID:     runID,
		Host:      p.host,
		Summary:   s,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	p.debug("publish: summary (%d bytes) to channel %s", len(payload), p.channel)
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to Pub/Sub: %w", err)
	}

	if err := p.client.XAdd(ctx, p.xaddArgs("summary", ts, payload)).Err(); err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}
	return nil
}

func (p *RedisPublisher) xaddArgs(kind, ts string, payload []byte) *redis.XAddArgs {
	return &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type":      kind,
			"nodeId":    p.nodeID,
			"timestamp": ts,
			"payload":   string(payload),
		},
		MaxLen: p.maxLen,
		Approx: true,
	}
}

func (p *RedisPublisher) timestamp() string {
	return p.now().UTC().Format(time.RFC3339)
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

// NodeID returns the configured node ID.
func (p *RedisPublisher) NodeID() string {
	return p.nodeID
}

// Channel returns the Pub/Sub channel name.
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// StreamName returns the stream name.
func (p *RedisPublisher) StreamName() string {
	return p.stream
}
