package notifier

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	apperr "cabf05/lotworker/pkg/errors"
)

// RedisNotifier implements Notifier on a Redis stream
type RedisNotifier struct {
	client    *redis.Client
	ctx       context.Context
	stream    string
	maxLength int
}

var _ Notifier = (*RedisNotifier)(nil)

// completionMessage is the payload appended to the stream
type completionMessage struct {
	TotalRecords int    `json:"total_records"`
	CollectedAt  string `json:"collected_at"`
}

// NewRedisNotifier creates a new Redis stream notifier
func NewRedisNotifier(ctx context.Context, addr string, db int, stream string, maxLength int) *RedisNotifier {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisNotifier{
		client:    client,
		ctx:       ctx,
		stream:    stream,
		maxLength: maxLength,
	}
}

// Notify appends a completion message to the stream and trims the stream to
// its configured maximum length
func (n *RedisNotifier) Notify(totalRecords int) error {
	payload, err := json.Marshal(completionMessage{
		TotalRecords: totalRecords,
		CollectedAt:  time.Now().Format("2006-01-02"),
	})
	if err != nil {
		return apperr.NewNotify("marshal completion message", err)
	}

	err = n.client.XAdd(n.ctx, &redis.XAddArgs{
		Stream: n.stream,
		Values: map[string]interface{}{
			"collection": string(payload),
			"total":      strconv.Itoa(totalRecords),
		},
	}).Err()
	if err != nil {
		return apperr.NewNotify("append to stream", err)
	}

	if err := n.client.XTrimMaxLen(n.ctx, n.stream, int64(n.maxLength)).Err(); err != nil {
		return apperr.NewNotify("trim stream", err)
	}
	return nil
}

// Close closes the Redis connection
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
