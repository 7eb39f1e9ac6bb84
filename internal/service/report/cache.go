package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Cache хранит готовые сводки в Redis с коротким TTL. Ошибки кэша не
// мешают отчётам: промах и недоступный Redis неразличимы для вызывающего.
// Nil-кэш безопасен и означает "без кэширования".
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Entry
}

// NewCache создаёт кэш отчётов поверх Redis.
func NewCache(client *redis.Client, ttl time.Duration, logger *log.Entry) *Cache {
	if logger == nil {
		logger = log.New().WithField("component", "report-cache")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func summaryKey(from, to time.Time) string {
	return fmt.Sprintf("report:summary:%d:%d", from.Unix(), to.Unix())
}

// GetSummary возвращает закэшированную сводку окна, если она есть.
func (c *Cache) GetSummary(from, to time.Time) (Summary, bool) {
	if c == nil || c.client == nil {
		return Summary{}, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := c.client.Get(ctx, summaryKey(from, to)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Warn("redis get failed")
		}
		return Summary{}, false
	}

	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		c.logger.WithError(err).Warn("cached summary corrupted")
		return Summary{}, false
	}
	return summary, true
}

// PutSummary кладёт сводку окна в кэш.
func (c *Cache) PutSummary(from, to time.Time, summary Summary) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.client.Set(ctx, summaryKey(from, to), data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("redis set failed")
	}
}
