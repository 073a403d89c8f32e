package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Gateway      GatewayConfig
	Calendar     CalendarConfig
	Sendgrid     SendgridConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Booking      BookingConfig
	Eventing     EventingConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if strings.TrimSpace(cfg.DB.DSN) == "" {
		return nil, fmt.Errorf("%s is required", EnvDBDSN)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TELECARE_APP_ENV" required:"true"`
	Port         string `envconfig:"TELECARE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TELECARE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TELECARE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TELECARE_DB_DSN"`
	Driver string `envconfig:"TELECARE_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"TELECARE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TELECARE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TELECARE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TELECARE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TELECARE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TELECARE_REDIS_ADDR"`
	Password     string        `envconfig:"TELECARE_REDIS_PASSWORD"`
	DB           int           `envconfig:"TELECARE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TELECARE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TELECARE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TELECARE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TELECARE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TELECARE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TELECARE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TELECARE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TELECARE_JWT_EXPIRATION_MINUTES" default:"60"`
}

// GatewayConfig carries the card-payment processor credentials. The signing
// secret authenticates both the checkout params handed to the booking UI and
// the asynchronous callbacks the gateway posts back.
type GatewayConfig struct {
	APIKey        string `envconfig:"TELECARE_GATEWAY_API_KEY"`
	SigningSecret string `envconfig:"TELECARE_GATEWAY_SIGNING_SECRET"`
	Env           string `envconfig:"TELECARE_GATEWAY_ENV" default:"test"`
}

// Environment returns the normalized gateway environment (test/live).
func (g GatewayConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(g.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CalendarConfig struct {
	CredentialsJSON string `envconfig:"TELECARE_GOOGLE_CREDENTIALS_JSON"`
	CalendarID      string `envconfig:"TELECARE_GOOGLE_CALENDAR_ID" default:"primary"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"TELECARE_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"TELECARE_SENDGRID_FROM_EMAIL"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"TELECARE_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"TELECARE_PUBSUB_DOMAIN_TOPIC" default:"telecare-domain-events"`
	DomainSubscription string `envconfig:"TELECARE_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TELECARE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TELECARE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TELECARE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type BookingConfig struct {
	MeetingDuration     time.Duration `envconfig:"TELECARE_BOOKING_MEETING_DURATION" default:"30m"`
	OperatorFanoutLimit int           `envconfig:"TELECARE_BOOKING_OPERATOR_FANOUT_LIMIT" default:"20"`
}

type EventingConfig struct {
	CallbackIdempotencyTTL time.Duration `envconfig:"TELECARE_EVENTING_CALLBACK_IDEMPOTENCY_TTL" default:"168h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TELECARE_AUTO_MIGRATE" default:"false"`
}
