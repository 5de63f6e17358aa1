package repository

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"courtbook/pkg/config"
	"courtbook/pkg/model"

	"github.com/redis/go-redis/v9"
)

type redisRepository struct {
	cfg    *config.Config
	client redis.UniversalClient
	key    string
}

// NewRedisRepository keeps bookings in one hash, field = booking id and
// value = the booking as JSON. Save swaps the hash in a MULTI/EXEC block.
func NewRedisRepository(cfg *config.Config) Repository {
	return newRedisRepository(cfg, cfg.Client.Redis, cfg.RedisKey)
}

func newRedisRepository(cfg *config.Config, client redis.UniversalClient, key string) *redisRepository {
	return &redisRepository{cfg: cfg, client: client, key: key}
}

func (r *redisRepository) Load(ctx context.Context) ([]*model.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read bookings hash: %w", err)
	}

	bookings := make([]*model.Booking, 0, len(fields))
	for field, raw := range fields {
		var b model.Booking
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			return nil, fmt.Errorf("failed to decode booking %s: %w", field, err)
		}
		b.InLocation(r.cfg.Location)
		bookings = append(bookings, &b)
	}

	slices.SortFunc(bookings, func(a, b *model.Booking) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return bookings, nil
}

func (r *redisRepository) Save(ctx context.Context, bookings []*model.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	values := make([]any, 0, len(bookings)*2)
	for _, b := range bookings {
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("failed to encode booking %d: %w", b.ID, err)
		}
		values = append(values, strconv.FormatInt(b.ID, 10), data)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(values) > 0 {
			pipe.HSet(ctx, r.key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write bookings hash: %w", err)
	}
	return nil
}

func (r *redisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
