package records

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fieldline/callpilot/pkg/logging"
)

const (
	recordKeyPrefix = "call:record:"
	recentListKey   = "calls:recent"
)

// Store persists call records in Redis. Persistence is advisory: every
// failure is logged and reported as "not stored", never propagated, so a
// store outage can never fail the webhook that produced the record.
type Store struct {
	rdb    *redis.Client
	ttl    time.Duration
	limit  int64
	logger *logging.Logger
}

// NewStore creates a record store retaining up to limit recent records, each
// expiring after ttl.
func NewStore(rdb *redis.Client, ttl time.Duration, limit int, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	if limit <= 0 {
		limit = 200
	}
	return &Store{rdb: rdb, ttl: ttl, limit: int64(limit), logger: logger}
}

func recordKey(id string) string {
	return recordKeyPrefix + id
}

// Persist writes the record, pushes its key onto the recent list, and trims
// the list. Returns whether the record was stored.
func (s *Store) Persist(ctx context.Context, rec CallRecord) bool {
	if s == nil || s.rdb == nil {
		return false
	}
	data, err := json.Marshal(rec)
	if err != nil {
		s.logger.Error("records: marshal failed", "error", err, "id", rec.ID)
		return false
	}

	if err := s.rdb.Set(ctx, recordKey(rec.ID), data, s.ttl).Err(); err != nil {
		s.logger.Error("records: set failed", "error", err, "id", rec.ID)
		return false
	}
	if err := s.rdb.LPush(ctx, recentListKey, rec.ID).Err(); err != nil {
		s.logger.Error("records: lpush failed", "error", err, "id", rec.ID)
		return false
	}
	// Trim failures lose only list hygiene, not the record itself. The trim
	// is eventually consistent under concurrent writers.
	if err := s.rdb.LTrim(ctx, recentListKey, 0, s.limit-1).Err(); err != nil {
		s.logger.Warn("records: ltrim failed", "error", err)
	}

	s.logger.Info("records: stored", "id", rec.ID, "type", rec.Type)
	return true
}

// Recent returns up to limit records in recency order. Records whose keys
// have expired are skipped.
func (s *Store) Recent(ctx context.Context, limit int) ([]CallRecord, error) {
	if s == nil || s.rdb == nil {
		return nil, nil
	}
	if limit <= 0 || int64(limit) > s.limit {
		limit = int(s.limit)
	}
	ids, err := s.rdb.LRange(ctx, recentListKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]CallRecord, 0, len(ids))
	for _, id := range ids {
		data, err := s.rdb.Get(ctx, recordKey(id)).Bytes()
		if err != nil {
			if err != redis.Nil {
				s.logger.Warn("records: get failed", "error", err, "id", id)
			}
			continue
		}
		var rec CallRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			s.logger.Warn("records: unmarshal failed", "error", err, "id", id)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
