package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/formcheck/internal/exercise"
	"github.com/2beens/formcheck/internal/session"
	"github.com/2beens/formcheck/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	"github.com/go-redis/redis/v8"
)

const summaryKeyPrefix = "formcheck:summary:"

var ErrSummaryNotFound = errors.New("summary not found")

// SummaryRecord is the summary handed off to the client once its session
// stream closes.
type SummaryRecord struct {
	SessionID string          `json:"sessionId"`
	Exercise  exercise.Kind   `json:"exercise"`
	Complete  bool            `json:"complete"`
	Summary   session.Summary `json:"summary"`
	SavedAt   time.Time       `json:"savedAt"`
}

type SummaryStore interface {
	Save(ctx context.Context, rec *SummaryRecord) error
	Get(ctx context.Context, sessionID string) (*SummaryRecord, error)
}

var (
	_ SummaryStore = (*RedisSummaryStore)(nil)
	_ SummaryStore = (*MemorySummaryStore)(nil)
)

type RedisSummaryStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSummaryStore(rdb *redis.Client, ttl time.Duration) *RedisSummaryStore {
	return &RedisSummaryStore{
		rdb: rdb,
		ttl: ttl,
	}
}

func summaryKey(sessionID string) string {
	return summaryKeyPrefix + sessionID
}

func (s *RedisSummaryStore) Save(ctx context.Context, rec *SummaryRecord) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redis.summary.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	if err := s.rdb.Set(ctx, summaryKey(rec.SessionID), string(data), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisSummaryStore) Get(ctx context.Context, sessionID string) (_ *SummaryRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redis.summary.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	data, err := s.rdb.Get(ctx, summaryKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSummaryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var rec SummaryRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	return &rec, nil
}

// MemorySummaryStore is used when no redis is configured. Records are
// lost on restart.
type MemorySummaryStore struct {
	cache      *freecache.Cache
	ttlSeconds int
}

func NewMemorySummaryStore(sizeMB int, ttl time.Duration) *MemorySummaryStore {
	ttlSeconds := int(ttl.Seconds())
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}
	return &MemorySummaryStore{
		cache:      freecache.NewCache(sizeMB * 1024 * 1024),
		ttlSeconds: ttlSeconds,
	}
}

func (s *MemorySummaryStore) Save(_ context.Context, rec *SummaryRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := s.cache.Set([]byte(summaryKey(rec.SessionID)), data, s.ttlSeconds); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (s *MemorySummaryStore) Get(_ context.Context, sessionID string) (*SummaryRecord, error) {
	data, err := s.cache.Get([]byte(summaryKey(sessionID)))
	if errors.Is(err, freecache.ErrNotFound) {
		return nil, ErrSummaryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var rec SummaryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	return &rec, nil
}
