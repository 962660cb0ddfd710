package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"Sentinels/internal/model"
)

// RedisSink mirrors the latest snapshot into Redis and announces it on a channel.
type RedisSink struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisSink wraps an existing client. Keys are "<prefix>snapshot" and "<prefix>updates".
func NewRedisSink(client redis.Cmdable, prefix string, ttl time.Duration) *RedisSink {
	if prefix == "" {
		prefix = "sentinels:"
	}
	return &RedisSink{client: client, prefix: prefix, ttl: ttl}
}

// DialRedis connects and pings, like any other startup dependency.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (r *RedisSink) Name() string { return "redis" }

func (r *RedisSink) SnapshotKey() string   { return r.prefix + "snapshot" }
func (r *RedisSink) UpdatesChannel() string { return r.prefix + "updates" }

func (r *RedisSink) Publish(ctx context.Context, snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.SnapshotKey(), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	if err := r.client.Publish(ctx, r.UpdatesChannel(), snap.ID).Err(); err != nil {
		return fmt.Errorf("publish update: %w", err)
	}
	return nil
}

// Latest reads back the mirrored snapshot. It returns nil without error when none is stored.
func (r *RedisSink) Latest(ctx context.Context) (*model.Snapshot, error) {
	data, err := r.client.Get(ctx, r.SnapshotKey()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
