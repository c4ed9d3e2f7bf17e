package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultStationPort is the TCP port the Weather Mate 3000 listens on unless
// reconfigured.
const DefaultStationPort = "10001"

// Config holds all service settings, populated from environment variables.
type Config struct {
	StationAddr    string
	StationID      string
	PollInterval   time.Duration
	StationTimeout time.Duration
	StationRetries int

	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where
// unset. The station address is the only setting with no usable default.
func Load() (*Config, error) {
	pollInterval, err := parseDuration("POLL_INTERVAL", "20s")
	if err != nil {
		return nil, err
	}
	stationTimeout, err := parseDuration("STATION_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	retries, err := parseRetries()
	if err != nil {
		return nil, err
	}

	addr, err := NormalizeStationAddr(os.Getenv("STATION_ADDR"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		StationAddr:    addr,
		StationID:      envOrDefault("STATION_ID", "wm3000"),
		PollInterval:   pollInterval,
		StationTimeout: stationTimeout,
		StationRetries: retries,

		KafkaBrokers:   parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "weather-observations"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

// NormalizeStationAddr validates a station address and appends the default
// station port when only a host was given.
func NormalizeStationAddr(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", errors.New("STATION_ADDR is required")
	}
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr, nil
	}
	return net.JoinHostPort(addr, DefaultStationPort), nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseRetries() (int, error) {
	s := envOrDefault("STATION_RETRIES", "3")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 10 {
		return 0, errors.New("invalid STATION_RETRIES (want 1-10)")
	}
	return n, nil
}
