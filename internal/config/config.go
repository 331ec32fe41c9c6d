package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Firebase FirebaseConfig `yaml:"firebase"`
	Square   SquareConfig   `yaml:"square"`
	Mail     MailConfig     `yaml:"mail"`
	Backfill BackfillConfig `yaml:"backfill"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // pgx or postgres
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// RedisConfig is optional; an empty Addr disables the entitlement cache.
type RedisConfig struct {
	Addr           string        `yaml:"addr"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	EntitlementTTL time.Duration `yaml:"entitlement_ttl"`
}

// RabbitMQConfig is optional; an empty URL disables domain events.
type RabbitMQConfig struct {
	URL string `yaml:"url"`
}

type FirebaseConfig struct {
	ProjectID     string `yaml:"project_id"`
	CertsURL      string `yaml:"certs_url"`
	SessionCookie string `yaml:"session_cookie"`
}

type SquareConfig struct {
	APIVersion string        `yaml:"api_version"`
	Timeout    time.Duration `yaml:"timeout"`
}

type MailConfig struct {
	Transport     string  `yaml:"transport"` // postmark or smtp
	From          string  `yaml:"from"`
	PostmarkToken string  `yaml:"postmark_token"`
	PostmarkURL   string  `yaml:"postmark_url"`
	MessageStream string  `yaml:"message_stream"`
	SMTPHost      string  `yaml:"smtp_host"`
	SMTPPort      int     `yaml:"smtp_port"`
	SMTPUser      string  `yaml:"smtp_user"`
	SMTPPass      string  `yaml:"smtp_pass"`
	RatePerSecond float64 `yaml:"rate_per_second"`
}

// BackfillConfig drives the stale-job reaper. A zero ReapInterval disables it.
type BackfillConfig struct {
	StaleAfter   time.Duration `yaml:"stale_after"`
	ReapInterval time.Duration `yaml:"reap_interval"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or text
}

const (
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"

	TransportPostmark = "postmark"
	TransportSMTP     = "smtp"

	DefaultFirebaseCertsURL = "https://www.googleapis.com/identitytoolkit/v3/relyingparty/publicKeys"
)

// Load reads an optional .env file, then the environment, then the YAML file at
// path (or CONFIG_FILE) on top of it.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Addr:           getEnv("ADDR", ":8080"),
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DATABASE_DRIVER", DriverPgx),
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: getEnvInt("DATABASE_MAX_OPEN_CONNS", 10),
		},
		Redis: RedisConfig{
			Addr:           os.Getenv("REDIS_ADDR"),
			Password:       os.Getenv("REDIS_PASSWORD"),
			DB:             getEnvInt("REDIS_DB", 0),
			EntitlementTTL: getEnvDuration("ENTITLEMENT_CACHE_TTL", time.Minute),
		},
		RabbitMQ: RabbitMQConfig{
			URL: os.Getenv("RABBITMQ_URL"),
		},
		Firebase: FirebaseConfig{
			ProjectID:     os.Getenv("FIREBASE_PROJECT_ID"),
			CertsURL:      getEnv("FIREBASE_CERTS_URL", DefaultFirebaseCertsURL),
			SessionCookie: getEnv("SESSION_COOKIE_NAME", "session"),
		},
		Square: SquareConfig{
			APIVersion: getEnv("SQUARE_API_VERSION", "2025-01-23"),
			Timeout:    getEnvDuration("SQUARE_TIMEOUT", 15*time.Second),
		},
		Mail: MailConfig{
			Transport:     getEnv("MAIL_TRANSPORT", TransportPostmark),
			From:          os.Getenv("MAIL_FROM"),
			PostmarkToken: os.Getenv("POSTMARK_SERVER_TOKEN"),
			PostmarkURL:   getEnv("POSTMARK_URL", "https://api.postmarkapp.com"),
			MessageStream: getEnv("POSTMARK_MESSAGE_STREAM", "outbound"),
			SMTPHost:      getEnv("MAIL_HOST", "smtp.postmarkapp.com"),
			SMTPPort:      getEnvInt("MAIL_PORT", 587),
			SMTPUser:      os.Getenv("MAIL_USER"),
			SMTPPass:      os.Getenv("MAIL_PASS"),
			RatePerSecond: getEnvFloat("MAIL_RATE_PER_SECOND", 10),
		},
		Backfill: BackfillConfig{
			StaleAfter:   getEnvDuration("BACKFILL_STALE_AFTER", 30*time.Minute),
			ReapInterval: getEnvDuration("BACKFILL_REAP_INTERVAL", time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config file: %w", err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config file: %w", err)
		}
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	switch c.Database.Driver {
	case DriverPgx, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}

	switch c.Mail.Transport {
	case TransportPostmark:
		if c.Mail.PostmarkToken == "" {
			errs = append(errs, errors.New("mail.postmark_token is required for postmark transport"))
		}
	case TransportSMTP:
		if c.Mail.SMTPHost == "" {
			errs = append(errs, errors.New("mail.smtp_host is required for smtp transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mail transport %q", c.Mail.Transport))
	}

	if c.Backfill.ReapInterval > 0 && c.Backfill.StaleAfter <= 0 {
		errs = append(errs, errors.New("backfill.stale_after must be positive"))
	}

	if c.Firebase.ProjectID == "" {
		errs = append(errs, errors.New("firebase.project_id is required"))
	}

	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
