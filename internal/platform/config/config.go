package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration for the reconciler. Values come
// from the environment so main stays lean; domain thresholds live with the
// packages that own them.
type Config struct {
	Addr            string
	DatabaseURL     string
	RedisURL        string
	KafkaBrokers    []string
	RejectTopic     string
	SourcePath      string
	LockTTL         time.Duration
	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from environment variables with development
// defaults. Production deployments are expected to override all of them.
func FromEnv() Config {
	cfg := Config{
		Addr:            envOr("SHELFSYNC_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("SHELFSYNC_DATABASE_URL"),
		RedisURL:        os.Getenv("SHELFSYNC_REDIS_URL"),
		RejectTopic:     envOr("SHELFSYNC_REJECT_TOPIC", "shelfsync.rejections"),
		SourcePath:      os.Getenv("SHELFSYNC_SOURCE_PATH"),
		LockTTL:         envDuration("SHELFSYNC_LOCK_TTL", 10*time.Minute),
		ShutdownTimeout: envDuration("SHELFSYNC_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if brokers := os.Getenv("SHELFSYNC_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
