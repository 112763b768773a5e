package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	Store       string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration
	AMQPURL     string
	AMQPQueue   string
	// HousekeepingTurnover sends rooms to CLEANING instead of AVAILABLE on checkout.
	HousekeepingTurnover bool
	RateLimitRPS         float64
	SeedWorkers          int
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Real environment variables win over .env.
func Load() Config {
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-numeric setting")
		}
		return def
	}
	c := Config{
		AppEnv:               env("APP_ENV", "prod"),
		HTTPAddr:             env("HTTP_ADDR", ":8080"),
		MetricsAddr:          env("METRICS_ADDR", ":9100"),
		Store:                strings.ToLower(env("STORE", StoreMySQL)),
		MySQLDSN:             env("MYSQL_DSN", "root:root@tcp(localhost:3306)/overlook?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:            env("REDIS_ADDR", "localhost:6379"),
		RedisPass:            env("REDIS_PASSWORD", ""),
		RedisDB:              atoi("REDIS_DB", 0),
		CacheTTL:             time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		AMQPURL:              env("AMQP_URL", ""),
		AMQPQueue:            env("AMQP_QUEUE", "overlook.reservations"),
		HousekeepingTurnover: envBool("HOUSEKEEPING_TURNOVER", false),
		RateLimitRPS:         envFloat("RATE_LIMIT_RPS", 0),
		SeedWorkers:          atoi("SEED_WORKERS", 4),
	}
	if c.Store != StoreMySQL && c.Store != StoreMemory {
		log.Warn().Str("store", c.Store).Msg("unknown STORE, using mysql")
		c.Store = StoreMySQL
	}
	if c.SeedWorkers < 1 {
		c.SeedWorkers = 1
	}
	if c.AMQPURL == "" {
		log.Info().Msg("AMQP_URL is empty; reservation events go to the log")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
