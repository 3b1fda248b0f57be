package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr          string
	MetricsAddr       string
	KafkaBrokers      []string
	RedisAddr         string
	SessionTimeout    time.Duration
	HeartbeatInterval time.Duration
	LogLevel          string
}

func Load() Config {
	return Config{
		HTTPAddr:          String("HTTP_ADDR", ":3000"),
		MetricsAddr:       String("METRICS_ADDR", ":9090"),
		KafkaBrokers:      splitCSV(String("KAFKA_BROKERS", "localhost:9092")),
		RedisAddr:         String("REDIS_ADDR", ""), // empty disables redis
		SessionTimeout:    Duration("SESSION_TIMEOUT", 30*time.Second),
		HeartbeatInterval: Duration("HEARTBEAT_INTERVAL", 3*time.Second),
		LogLevel:          String("LOG_LEVEL", "info"),
	}
}

func String(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func Duration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
