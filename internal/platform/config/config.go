package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration for the analytics server.
type Config struct {
	Addr string

	// Redis is the remote cache tier. An empty URL disables the remote tier
	// and the cache runs on its local fallback only.
	Redis RedisConfig

	// DataDir holds the flat-file enrolment corpus.
	DataDir string

	// SnapshotTTL bounds how long a loaded record snapshot is served from
	// cache before the next request triggers a reload from source.
	SnapshotTTL time.Duration
	// MemoTTL bounds the in-process memo that avoids re-parsing files when
	// the cache tiers are unavailable.
	MemoTTL time.Duration
	// ResultTTL bounds cached aggregation results and derived views.
	ResultTTL time.Duration

	// KafkaBrokers, when non-empty, enables publishing triggered alerts.
	KafkaBrokers []string
	AlertTopic   string
}

// RedisConfig holds connection settings for the remote cache tier.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:        envString("ENROLYTICS_ADDR", ":8080"),
		DataDir:     envString("ENROLYTICS_DATA_DIR", "./data"),
		SnapshotTTL: envDuration("ENROLYTICS_SNAPSHOT_TTL", 10*time.Minute),
		MemoTTL:     envDuration("ENROLYTICS_MEMO_TTL", time.Minute),
		ResultTTL:   envDuration("ENROLYTICS_RESULT_TTL", 5*time.Minute),
		AlertTopic:  envString("ENROLYTICS_ALERT_TOPIC", "enrolytics.alerts"),
		Redis: RedisConfig{
			URL:          os.Getenv("ENROLYTICS_REDIS_URL"),
			PoolSize:     envInt("ENROLYTICS_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("ENROLYTICS_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("ENROLYTICS_REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  envDuration("ENROLYTICS_REDIS_READ_TIMEOUT", time.Second),
			WriteTimeout: envDuration("ENROLYTICS_REDIS_WRITE_TIMEOUT", time.Second),
		},
	}

	if brokers := os.Getenv("ENROLYTICS_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
