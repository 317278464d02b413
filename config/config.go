package config

import (
	"errors"
	"fmt"
	"os"
	"society_tickets/constants"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings is the typed application configuration.
type Settings struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Stripe     StripeConfig
	Mail       MailConfig
	Auth       AuthConfig
	Cloudinary CloudinaryConfig
	Checkout   CheckoutConfig
	Poller     PollerConfig
	RateLimit  RateLimitConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, production
	Port        int
	URL         string
	WebOrigins  []string
	LogLevel    string
}

func (a AppConfig) IsDevelopment() bool {
	return a.Environment != "production"
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

// Mode reports whether the configured key is a test or live key.
func (s StripeConfig) Mode() string {
	switch {
	case strings.HasPrefix(s.SecretKey, "sk_test_"), strings.HasPrefix(s.SecretKey, "rk_test_"):
		return "test"
	case strings.HasPrefix(s.SecretKey, "sk_live_"), strings.HasPrefix(s.SecretKey, "rk_live_"):
		return "live"
	default:
		return "unknown"
	}
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (m MailConfig) Enabled() bool {
	return m.Host != ""
}

type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AdminPassword string
	SeedEmail     string
	SeedPassword  string
	SeedName      string
	ResetTokenTTL time.Duration
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

type CheckoutConfig struct {
	DefaultCapacity int
	MaxQuantity     int
	SessionTTL      time.Duration
}

type PollerConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Factor       float64
	Attempts     int
}

type RateLimitConfig struct {
	GeneralMax     int
	GeneralWindow  time.Duration
	LoginMax       int
	LoginWindow    time.Duration
	CheckoutMax    int
	CheckoutWindow time.Duration
	AdminMax       int
	AdminWindow    time.Duration
}

var (
	loadOnce sync.Once
	current  *Settings
	loadErr  error
)

// Load reads .env (when present) and the process environment into Settings.
func Load() (*Settings, error) {
	loadOnce.Do(func() {
		_ = godotenv.Load()
		current, loadErr = load()
	})
	return current, loadErr
}

// MustLoad is Load for main; it panics on invalid configuration.
func MustLoad() *Settings {
	s, err := Load()
	if err != nil {
		panic(err)
	}
	return s
}

// Config returns the raw value of a single environment key.
func Config(key string) string {
	_ = godotenv.Load()
	return os.Getenv(key)
}

func load() (*Settings, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	s := &Settings{}
	bind(v, s)
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "society-tickets")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", 8002)
	v.SetDefault("APP_URL", "http://localhost:5173")
	v.SetDefault("WEB_ORIGIN", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "society_tickets")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("STRIPE_CURRENCY", "gbp")

	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "tickets@localhost")

	v.SetDefault("JWT_TTL", "168h")
	v.SetDefault("RESET_TOKEN_TTL", "1h")
	v.SetDefault("SEED_ADMIN_NAME", "Administrator")

	v.SetDefault("CAPACITY", 100)
	v.SetDefault("CHECKOUT_MAX_QUANTITY", constants.MAX_TICKET_QUANTITY)
	v.SetDefault("CHECKOUT_SESSION_TTL", "30m")

	v.SetDefault("POLL_INITIAL_DELAY", "400ms")
	v.SetDefault("POLL_MAX_DELAY", "1500ms")
	v.SetDefault("POLL_FACTOR", 1.35)
	v.SetDefault("POLL_ATTEMPTS", 10)

	v.SetDefault("RATE_GENERAL_MAX", 100)
	v.SetDefault("RATE_GENERAL_WINDOW", "15m")
	v.SetDefault("RATE_LOGIN_MAX", 5)
	v.SetDefault("RATE_LOGIN_WINDOW", "15m")
	v.SetDefault("RATE_CHECKOUT_MAX", 10)
	v.SetDefault("RATE_CHECKOUT_WINDOW", "1h")
	v.SetDefault("RATE_ADMIN_MAX", 50)
	v.SetDefault("RATE_ADMIN_WINDOW", "15m")
}

func bind(v *viper.Viper, s *Settings) {
	s.App.Name = v.GetString("APP_NAME")
	s.App.Environment = v.GetString("APP_ENV")
	s.App.Port = v.GetInt("PORT")
	s.App.URL = strings.TrimRight(v.GetString("APP_URL"), "/")
	s.App.WebOrigins = splitList(v.GetString("WEB_ORIGIN"))
	s.App.LogLevel = v.GetString("LOG_LEVEL")

	s.Database.Host = v.GetString("DB_HOST")
	s.Database.Port = v.GetInt("DB_PORT")
	s.Database.User = v.GetString("DB_USER")
	s.Database.Password = v.GetString("DB_PASSWORD")
	s.Database.Name = v.GetString("DB_NAME")
	s.Database.SSLMode = v.GetString("DB_SSLMODE")
	s.Database.MaxOpenConns = v.GetInt("DB_MAX_OPEN_CONNS")
	s.Database.MaxIdleConns = v.GetInt("DB_MAX_IDLE_CONNS")

	s.Redis.Addr = v.GetString("REDIS_ADDR")
	s.Redis.Password = v.GetString("REDIS_PASSWORD")
	s.Redis.DB = v.GetInt("REDIS_DB")

	s.Stripe.SecretKey = v.GetString("STRIPE_SECRET_KEY")
	s.Stripe.WebhookSecret = v.GetString("STRIPE_WEBHOOK_SECRET")
	s.Stripe.Currency = strings.ToLower(v.GetString("STRIPE_CURRENCY"))

	s.Mail.Host = v.GetString("SMTP_HOST")
	s.Mail.Port = v.GetInt("SMTP_PORT")
	s.Mail.Username = v.GetString("SMTP_USERNAME")
	s.Mail.Password = v.GetString("SMTP_PASSWORD")
	s.Mail.From = v.GetString("SMTP_FROM")

	s.Auth.JWTSecret = v.GetString("JWT_SECRET")
	s.Auth.TokenTTL = v.GetDuration("JWT_TTL")
	s.Auth.AdminPassword = v.GetString("ADMIN_PASSWORD")
	s.Auth.SeedEmail = v.GetString("SEED_ADMIN_EMAIL")
	s.Auth.SeedPassword = v.GetString("SEED_ADMIN_PASSWORD")
	s.Auth.SeedName = v.GetString("SEED_ADMIN_NAME")
	s.Auth.ResetTokenTTL = v.GetDuration("RESET_TOKEN_TTL")

	s.Cloudinary.CloudName = v.GetString("CLOUDINARY_CLOUD_NAME")
	s.Cloudinary.APIKey = v.GetString("CLOUDINARY_API_KEY")
	s.Cloudinary.APISecret = v.GetString("CLOUDINARY_API_SECRET")

	s.Checkout.DefaultCapacity = v.GetInt("CAPACITY")
	s.Checkout.MaxQuantity = v.GetInt("CHECKOUT_MAX_QUANTITY")
	s.Checkout.SessionTTL = v.GetDuration("CHECKOUT_SESSION_TTL")

	s.Poller.InitialDelay = v.GetDuration("POLL_INITIAL_DELAY")
	s.Poller.MaxDelay = v.GetDuration("POLL_MAX_DELAY")
	s.Poller.Factor = v.GetFloat64("POLL_FACTOR")
	s.Poller.Attempts = v.GetInt("POLL_ATTEMPTS")

	s.RateLimit.GeneralMax = v.GetInt("RATE_GENERAL_MAX")
	s.RateLimit.GeneralWindow = v.GetDuration("RATE_GENERAL_WINDOW")
	s.RateLimit.LoginMax = v.GetInt("RATE_LOGIN_MAX")
	s.RateLimit.LoginWindow = v.GetDuration("RATE_LOGIN_WINDOW")
	s.RateLimit.CheckoutMax = v.GetInt("RATE_CHECKOUT_MAX")
	s.RateLimit.CheckoutWindow = v.GetDuration("RATE_CHECKOUT_WINDOW")
	s.RateLimit.AdminMax = v.GetInt("RATE_ADMIN_MAX")
	s.RateLimit.AdminWindow = v.GetDuration("RATE_ADMIN_WINDOW")
}

// Validate rejects settings the server cannot run with.
func (s *Settings) Validate() error {
	var errs []error
	if s.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if s.App.Port <= 0 || s.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", s.App.Port))
	}
	if s.Checkout.DefaultCapacity < 0 {
		errs = append(errs, errors.New("CAPACITY must not be negative"))
	}
	// Purchase metadata and the checkout form both cap quantity at MAX_TICKET_QUANTITY.
	if s.Checkout.MaxQuantity < constants.MIN_TICKET_QUANTITY || s.Checkout.MaxQuantity > constants.MAX_TICKET_QUANTITY {
		errs = append(errs, fmt.Errorf("CHECKOUT_MAX_QUANTITY must be between %d and %d",
			constants.MIN_TICKET_QUANTITY, constants.MAX_TICKET_QUANTITY))
	}
	if s.Poller.Attempts < 1 {
		errs = append(errs, errors.New("POLL_ATTEMPTS must be at least 1"))
	}
	if s.Poller.Factor < 1 {
		errs = append(errs, errors.New("POLL_FACTOR must be >= 1"))
	}
	return errors.Join(errs...)
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
