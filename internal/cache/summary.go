// Package cache holds the Redis-backed cache of student summaries. Reports
// are a point-in-time snapshot, so a short TTL plus invalidation on marking
// is enough.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"classattend/internal/attendance"
)

// ErrMiss is returned when the summary is not cached.
var ErrMiss = errors.New("cache miss")

const summaryPrefix = "classattend:summary:"

// SummaryCache caches StudentSummary values per student.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache creates a cache with the given TTL.
func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SummaryCache{client: client, ttl: ttl}
}

// Get returns the cached summary for a student, or ErrMiss.
func (c *SummaryCache) Get(ctx context.Context, studentID string) (attendance.StudentSummary, error) {
	raw, err := c.client.Get(ctx, summaryPrefix+studentID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return attendance.StudentSummary{}, ErrMiss
		}
		return attendance.StudentSummary{}, err
	}
	var s attendance.StudentSummary
	if err := json.Unmarshal(raw, &s); err != nil {
		return attendance.StudentSummary{}, err
	}
	return s, nil
}

// Set stores a summary under the configured TTL.
func (c *SummaryCache) Set(ctx context.Context, s attendance.StudentSummary) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryPrefix+s.StudentID, raw, c.ttl).Err()
}

// Delete drops the cached summaries of the given students.
func (c *SummaryCache) Delete(ctx context.Context, studentIDs ...string) error {
	if len(studentIDs) == 0 {
		return nil
	}
	keys := make([]string, len(studentIDs))
	for i, id := range studentIDs {
		keys[i] = summaryPrefix + id
	}
	return c.client.Del(ctx, keys...).Err()
}
