package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DLQEntry wraps a failed job with enough context to replay it by hand.
type DLQEntry struct {
	Queue    string    `json:"cola"`
	Payload  string    `json:"payload"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"fallo_en"`
}

func pushDLQ(ctx context.Context, rdb *redis.Client, queue, payload string, cause error) {
	entry := DLQEntry{
		Queue:    queue,
		Payload:  payload,
		Error:    cause.Error(),
		FailedAt: time.Now(),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := rdb.LPush(ctx, QueueDLQ, raw).Err(); err != nil {
		log.Error().Err(err).Str("cola", queue).Msg("no se pudo escribir al DLQ")
	}
}

// DLQSize returns how many failed jobs await manual inspection — surfaced by
// the health endpoint.
func DLQSize(ctx context.Context, rdb *redis.Client) (int64, error) {
	return rdb.LLen(ctx, QueueDLQ).Result()
}
