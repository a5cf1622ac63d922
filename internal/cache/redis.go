package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"
)

// RedisOptions configures the Redis-backed store.
type RedisOptions struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Prefix     string
	DefaultTTL time.Duration
}

// Redis is a Cache backed by a Redis-compatible server.
type Redis struct {
	client     valkey.Client
	prefix     string
	defaultTTL time.Duration
}

// NewRedis dials the server; an unreachable host is reported as an error.
func NewRedis(opts RedisOptions) (*Redis, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))},
		Username:    opts.Username,
		Password:    opts.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis %s:%d: %w", opts.Host, opts.Port, err)
	}

	return &Redis{
		client:     client,
		prefix:     opts.Prefix,
		defaultTTL: opts.DefaultTTL,
	}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Do(ctx, r.client.B().Get().Key(r.prefix+key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}

	var cmd valkey.Completed
	if ms := ttl.Milliseconds(); ms > 0 {
		cmd = r.client.B().Set().Key(r.prefix + key).Value(valkey.BinaryString(value)).PxMilliseconds(ms).Build()
	} else {
		cmd = r.client.B().Set().Key(r.prefix + key).Value(valkey.BinaryString(value)).Build()
	}
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = r.prefix + key
	}
	if err := r.client.Do(ctx, r.client.B().Del().Key(prefixed...).Build()).Error(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Do(ctx, r.client.B().Ping().Build()).Error()
}

func (r *Redis) Close() error {
	r.client.Close()
	return nil
}
