package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/mediakit/convert/pkg/models"
)

// Cache provides caching functionality using Redis
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks the Redis connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Job Cache Operations

// SetJob caches job metadata
func (c *Cache) SetJob(ctx context.Context, job *models.ConversionJob, ttl time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	key := fmt.Sprintf("job:%s", job.ID)
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetJob retrieves job metadata from cache. A cache miss returns nil, nil.
func (c *Cache) GetJob(ctx context.Context, jobID string) (*models.ConversionJob, error) {
	key := fmt.Sprintf("job:%s", jobID)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job from cache: %w", err)
	}

	var job models.ConversionJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// DeleteJob removes job from cache
func (c *Cache) DeleteJob(ctx context.Context, jobID string) error {
	key := fmt.Sprintf("job:%s", jobID)
	return c.client.Del(ctx, key).Err()
}

// SetJobProgress caches job progress for quick retrieval
func (c *Cache) SetJobProgress(ctx context.Context, jobID string, progress int, ttl time.Duration) error {
	key := fmt.Sprintf("job:progress:%s", jobID)
	return c.client.Set(ctx, key, progress, ttl).Err()
}

// GetJobProgress retrieves job progress from cache. A miss returns -1, nil.
func (c *Cache) GetJobProgress(ctx context.Context, jobID string) (int, error) {
	key := fmt.Sprintf("job:progress:%s", jobID)
	progress, err := c.client.Get(ctx, key).Int()
	if err != nil {
		if err == redis.Nil {
			return -1, nil
		}
		return 0, fmt.Errorf("failed to get progress from cache: %w", err)
	}
	return progress, nil
}

// Conversion Cache Operations

// SetConversion caches a conversion result
func (c *Cache) SetConversion(ctx context.Context, conv *models.Conversion, ttl time.Duration) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to marshal conversion: %w", err)
	}

	key := fmt.Sprintf("conversion:job:%s", conv.JobID)
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetConversion retrieves a conversion result from cache. A miss returns
// nil, nil.
func (c *Cache) GetConversion(ctx context.Context, jobID string) (*models.Conversion, error) {
	key := fmt.Sprintf("conversion:job:%s", jobID)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversion from cache: %w", err)
	}

	var conv models.Conversion
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversion: %w", err)
	}

	return &conv, nil
}
