package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address     string `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	Swagger     bool   `yaml:"swagger" env:"HTTP_SWAGGER"`
	AllowOrigin string `yaml:"allow_origin" env:"HTTP_ALLOW_ORIGIN"`
}

type GRPCConfig struct {
	Address string `yaml:"address" env:"GRPC_ADDRESS" env-default:":9090"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD"`
	Name     string `yaml:"name" env:"POSTGRES_DB" env-default:"flightseats"`
	SSLMode  string `yaml:"ssl_mode" env:"POSTGRES_SSL_MODE" env-default:"disable"`
	MaxConns int32  `yaml:"max_conns" env:"POSTGRES_MAX_CONNS" env-default:"20"`
	// SeedFile lists flights inserted on startup when the flights table is empty.
	SeedFile string `yaml:"seed_file" env:"POSTGRES_SEED_FILE"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	BookingEventsTopic string   `yaml:"booking_events_topic" env:"KAFKA_BOOKING_EVENTS_TOPIC" env-default:"booking-events"`
	GroupID            string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"flightseats-notifications"`
}

type BookingConfig struct {
	LockTimeoutMs          int `yaml:"lock_timeout_ms" env:"BOOKING_LOCK_TIMEOUT_MS" env-default:"5000"`
	FlightsCacheTTL        int `yaml:"flights_cache_ttl_seconds" env:"BOOKING_FLIGHTS_CACHE_TTL_SECONDS" env-default:"30"`
	IdempotencyTTLMinutes  int `yaml:"idempotency_ttl_minutes" env:"BOOKING_IDEMPOTENCY_TTL_MINUTES" env-default:"1440"`
	IdempotencyLockSeconds int `yaml:"idempotency_lock_seconds" env:"BOOKING_IDEMPOTENCY_LOCK_SECONDS" env-default:"10"`
}

func (b BookingConfig) LockTimeout() time.Duration {
	return time.Duration(b.LockTimeoutMs) * time.Millisecond
}

func (b BookingConfig) FlightsCacheDuration() time.Duration {
	return time.Duration(b.FlightsCacheTTL) * time.Second
}

type WorkerConfig struct {
	OpsAddress            string `yaml:"ops_address" env:"WORKER_OPS_ADDRESS" env-default:":9091"`
	OutboxPollSeconds     int    `yaml:"outbox_poll_seconds" env:"WORKER_OUTBOX_POLL_SECONDS" env-default:"2"`
	OutboxBatchSize       int    `yaml:"outbox_batch_size" env:"WORKER_OUTBOX_BATCH_SIZE" env-default:"50"`
	OutboxStaleSeconds    int    `yaml:"outbox_stale_seconds" env:"WORKER_OUTBOX_STALE_SECONDS" env-default:"60"`
	AuditIntervalMinutes  int    `yaml:"audit_interval_minutes" env:"WORKER_AUDIT_INTERVAL_MINUTES" env-default:"5"`
	NotificationsDisabled bool   `yaml:"notifications_disabled" env:"WORKER_NOTIFICATIONS_DISABLED"`
}

type LogConfig struct {
	Level       string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Development bool   `yaml:"development" env:"LOG_DEVELOPMENT"`
}

// LoadConfig reads the YAML file at path, then applies environment
// overrides and defaults for anything the file left empty.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
		// env only
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config env: %w", err)
	}

	return &cfg, nil
}
