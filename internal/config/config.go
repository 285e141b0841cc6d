package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Site     SiteConfig
	Email    EmailConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Database DatabaseConfig
	Stripe   StripeConfig
	Admin    AdminConfig
	Locks    LockConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SiteConfig holds the public base URL used for checkout redirects and QR verify links.
type SiteConfig struct {
	BaseURL   string
	EventName string
}

type RedisConfig struct {
	Addr           string
	Enabled        bool
	RosterCacheTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Enabled bool
	Topics  TopicConfig
}

type TopicConfig struct {
	OrderFulfilled string
	TicketVerified string
	FactionScored  string
}

type DatabaseConfig struct {
	DSN          string
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	MaxRetries   int
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type EmailConfig struct {
	Enabled      bool
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromAddress  string
	FromName     string
}

type AdminConfig struct {
	Password   string
	JWTSecret  string
	SessionTTL time.Duration
}

type LockConfig struct {
	FulfillmentTTL time.Duration
	RedemptionTTL  time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Site: SiteConfig{
			BaseURL:   strings.TrimRight(getEnv("SITE_BASE_URL", "http://localhost:3000"), "/"),
			EventName: getEnv("EVENT_NAME", "Dreamstate"),
		},
		Email: EmailConfig{
			Enabled:      getEnvBool("EMAIL_ENABLED", false),
			SMTPHost:     getEnv("SMTP_HOST", "localhost"),
			SMTPPort:     getEnvInt("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromAddress:  getEnv("EMAIL_FROM", "tickets@localhost"),
			FromName:     getEnv("EMAIL_FROM_NAME", "Dreamstate Tickets"),
		},
		Redis: RedisConfig{
			Addr:           getEnv("REDIS_ADDR", "localhost:6379"),
			Enabled:        getEnvBool("REDIS_ENABLED", true),
			RosterCacheTTL: time.Duration(getEnvInt("FACTION_CACHE_TTL_MINUTES", 60)) * time.Minute,
		},
		Database: DatabaseConfig{
			DSN:          getEnv("POSTGRES_DSN", ""),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "dreamstate"),
			Password:     getEnv("DB_PASSWORD", "dreamstate"),
			Database:     getEnv("DB_NAME", "dreamstate"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			MaxRetries:   getEnvInt("DB_CONNECT_RETRIES", 5),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Topics: TopicConfig{
				OrderFulfilled: getEnv("KAFKA_TOPIC_ORDER_FULFILLED", "dreamstate.orders.fulfilled"),
				TicketVerified: getEnv("KAFKA_TOPIC_TICKET_VERIFIED", "dreamstate.tickets.verified"),
				FactionScored:  getEnv("KAFKA_TOPIC_FACTION_SCORED", "dreamstate.factions.scored"),
			},
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
		Admin: AdminConfig{
			Password:   getEnv("ADMIN_PASSWORD", ""),
			JWTSecret:  getEnv("ADMIN_JWT_SECRET", ""),
			SessionTTL: time.Duration(getEnvInt("ADMIN_SESSION_TTL_MINUTES", 720)) * time.Minute,
		},
		Locks: LockConfig{
			FulfillmentTTL: time.Duration(getEnvInt("FULFILLMENT_LOCK_TTL_SECONDS", 30)) * time.Second,
			RedemptionTTL:  time.Duration(getEnvInt("REDEMPTION_LOCK_TTL_SECONDS", 15)) * time.Second,
		},
	}
}

// PostgresDSN returns POSTGRES_DSN when set, otherwise a DSN built from the DB_* variables.
func (c DatabaseConfig) PostgresDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

func (t TopicConfig) All() []string {
	return []string{t.OrderFulfilled, t.TicketVerified, t.FactionScored}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
