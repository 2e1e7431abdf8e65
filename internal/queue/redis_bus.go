package queue

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const AnalysisStream = "analysis:stream"

func StatusChannel(sessionID string) string {
	return "session:" + sessionID + ":status"
}

// RedisBus carries both the analysis work stream and the per-session status
// pub/sub channels.
type RedisBus struct {
	rdb *redis.Client
}

func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb}
}

func (b *RedisBus) Notify(ctx context.Context, sessionID string) error {
	return b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: AnalysisStream,
		Values: map[string]any{
			"session_id": sessionID,
			"ts_unix":    strconv.FormatInt(time.Now().UTC().Unix(), 10),
		},
	}).Err()
}

func (b *RedisBus) PublishStatus(ctx context.Context, sessionID string, ev StatusEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_ = b.rdb.Publish(ctx, StatusChannel(sessionID), payload).Err()
}
