package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"melodex/model"

	"github.com/go-redis/redis/v8"
)

// Track lookups sit on the streaming hot path, so resolved tracks are kept
// in Redis for a short while to spare the database one query per request.
const trackCacheTTL = 10 * time.Minute

// GetTrackKey builds the Redis key for a cached track.
func GetTrackKey(trackID int64) string {
	return fmt.Sprintf("track:%d", trackID)
}

// GetTrack returns a cached track, or nil on a cache miss.
func GetTrack(ctx context.Context, trackID int64) (*model.Track, error) {
	if RedisClient == nil {
		return nil, nil
	}

	data, err := RedisClient.Get(ctx, GetTrackKey(trackID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track from cache: %w", err)
	}

	track := &model.Track{}
	if err := json.Unmarshal([]byte(data), track); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached track: %w", err)
	}
	return track, nil
}

// SetTrack stores a track in the cache.
func SetTrack(ctx context.Context, track *model.Track) error {
	if RedisClient == nil || track == nil {
		return nil
	}

	data, err := json.Marshal(track)
	if err != nil {
		return fmt.Errorf("failed to marshal track for cache: %w", err)
	}

	if err := RedisClient.Set(ctx, GetTrackKey(track.ID), data, trackCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache track: %w", err)
	}
	return nil
}

// InvalidateTracks drops cached tracks after catalog writes (e.g. a scan).
func InvalidateTracks(ctx context.Context, trackIDs ...int64) error {
	if RedisClient == nil || len(trackIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(trackIDs))
	for _, id := range trackIDs {
		keys = append(keys, GetTrackKey(id))
	}
	return RedisClient.Del(ctx, keys...).Err()
}
