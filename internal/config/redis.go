package config

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a Redis client from REDIS_* environment
// variables and verifies connectivity with a short ping.  Returns nil
// when Redis is unreachable so callers can fall back to the in-memory
// cache; the app must keep working on a device with no services around.
func NewRedisClient() *redis.Client {
	addr := getenv("REDIS_ADDR", "")
	if addr == "" {
		host := getenv("REDIS_HOST", "localhost")
		port := getenv("REDIS_PORT", "6379")
		addr = host + ":" + port
	}

	opts := &redis.Options{
		Addr:     addr,
		Password: getenv("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
	}
	if envBool("REDIS_TLS", false) {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable at %s: %v (falling back to in-memory cache)", addr, err)
		_ = client.Close()
		return nil
	}
	return client
}
