package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultFeedURL = "https://www.tendance-sensuelle.com/download/stocks_fr_2.csv"

type Config struct {
	DatabaseURL  string
	RedisURL     string
	Port         string
	MetricsPort  string
	FeedURL      string
	CSVPath      string
	SnapshotPath string
	FeedCharset  string
	FeedTimeout  time.Duration
	LockTTL      time.Duration
}

func Load() *Config {
	// .env na raiz do projeto, depois no diretório atual
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()
	return &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		Port:         getEnv("PORT", "7001"),
		MetricsPort:  getEnv("METRICS_PORT", "9090"),
		FeedURL:      getEnv("FEED_URL", DefaultFeedURL),
		CSVPath:      getEnv("FEED_CSV_PATH", "stocks_fr_2.csv"),
		SnapshotPath: getEnv("FEED_SNAPSHOT_PATH", "products/stocks_fr_2.json"),
		FeedCharset:  strings.ToLower(getEnv("FEED_CHARSET", "iso-8859-1")),
		FeedTimeout:  getDuration("FEED_TIMEOUT", 10*time.Minute),
		LockTTL:      getDuration("INGEST_LOCK_TTL", 15*time.Minute),
	}
}

func getEnv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

// getDuration falls back to d when the value is missing, unparsable or not positive.
func getDuration(k string, d time.Duration) time.Duration {
	v := getEnv(k, "")
	if v == "" {
		return d
	}
	parsed, err := time.ParseDuration(v)
	if err != nil || parsed <= 0 {
		return d
	}
	return parsed
}
