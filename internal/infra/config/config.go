package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App      AppSettings      `mapstructure:"app"`
	Postgres PostgresSettings `mapstructure:"postgres"`
	Redis    RedisSettings    `mapstructure:"redis"`
	Kafka    KafkaSettings    `mapstructure:"kafka"`
	SMTP     SMTPSettings     `mapstructure:"smtp"`
	Telegram TelegramSettings `mapstructure:"telegram"`
	Session  SessionSettings  `mapstructure:"session"`
	Pin      PinSettings      `mapstructure:"pin"`
	Reminder ReminderSettings `mapstructure:"reminder"`
	CORS     CORSSettings     `mapstructure:"cors"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures Redis connection and key prefixes.
type RedisSettings struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	DB              int    `mapstructure:"db"`
	Password        string `mapstructure:"password"`
	TLSEnabled      bool   `mapstructure:"tls_enabled"`
	ResetCodePrefix string `mapstructure:"reset_code_prefix"`
	RateLimitPrefix string `mapstructure:"rate_limit_prefix"`
}

// KafkaSettings configures the Kafka producer.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Async       bool     `mapstructure:"async"`
}

// SMTPSettings configures outbound mail delivery.
type SMTPSettings struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// TelegramSettings configures the telegram reminder channel.
type TelegramSettings struct {
	BotToken string `mapstructure:"bot_token"`
}

// SessionSettings configures session token issuance.
type SessionSettings struct {
	Secret      string        `mapstructure:"secret"`
	Issuer      string        `mapstructure:"issuer"`
	TTL         time.Duration `mapstructure:"ttl"`
	RememberTTL time.Duration `mapstructure:"remember_ttl"`
}

// PinSettings configures PIN issuance and the send rate limit.
type PinSettings struct {
	TTL             time.Duration `mapstructure:"ttl"`
	SendMaxAttempts int           `mapstructure:"send_max_attempts"`
	SendWindow      time.Duration `mapstructure:"send_window"`
	ResetCodeTTL    time.Duration `mapstructure:"reset_code_ttl"`
}

// ReminderSettings configures snooze and the due-reminder dispatcher.
type ReminderSettings struct {
	DefaultSnooze    time.Duration `mapstructure:"default_snooze"`
	DispatchInterval time.Duration `mapstructure:"dispatch_interval"`
	DispatchBatch    int           `mapstructure:"dispatch_batch"`
}

// CORSSettings configures allowed browser origins.
type CORSSettings struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("MEMORA")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.reset_code_prefix",
		"redis.rate_limit_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.async",
		"smtp.host",
		"smtp.port",
		"smtp.user",
		"smtp.password",
		"smtp.from",
		"telegram.bot_token",
		"session.secret",
		"session.issuer",
		"session.ttl",
		"session.remember_ttl",
		"pin.ttl",
		"pin.send_max_attempts",
		"pin.send_window",
		"pin.reset_code_ttl",
		"reminder.default_snooze",
		"reminder.dispatch_interval",
		"reminder.dispatch_batch",
		"cors.allowed_origins",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "memory-coach")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "memora")
	v.SetDefault("postgres.password", "memora_password")
	v.SetDefault("postgres.database", "memora")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.reset_code_prefix", "memora:pin_reset")
	v.SetDefault("redis.rate_limit_prefix", "memora:rate-limit")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "memora")
	v.SetDefault("kafka.async", true)

	v.SetDefault("smtp.host", "localhost")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "no-reply@memora.local")

	v.SetDefault("telegram.bot_token", "")

	v.SetDefault("session.secret", "dev-session-secret")
	v.SetDefault("session.issuer", "memory-coach")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.remember_ttl", "4320h") // 180 days

	v.SetDefault("pin.ttl", "10m")
	v.SetDefault("pin.send_max_attempts", 5)
	v.SetDefault("pin.send_window", "1h")
	v.SetDefault("pin.reset_code_ttl", "10m")

	v.SetDefault("reminder.default_snooze", "10m")
	v.SetDefault("reminder.dispatch_interval", "30s")
	v.SetDefault("reminder.dispatch_batch", 50)

	v.SetDefault("cors.allowed_origins", []string{"*"})
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "MEMORA_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
