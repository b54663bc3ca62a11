package config

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	adminapp "github.com/usampac/admin-web/internal/admin/application"
)

// SupabaseConfig locates the backend project. URL and AnonKey may be empty; sign-in then reports
// the missing configuration instead of the process refusing to start.
type SupabaseConfig struct {
	URL       string
	AnonKey   string
	JWTSecret string
	Timeout   time.Duration
}

// MessengerConfig enables review-decision notifications when Endpoint is set.
type MessengerConfig struct {
	Endpoint    string
	Destination string
	Timeout     time.Duration
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr     string
	Timezone string
	Logger   *logrus.Logger

	Supabase      SupabaseConfig
	DataSchema    string
	RoleSchema    string
	RoleCheckMode adminapp.RoleCheckMode
	DatabaseURL   string

	RedisURL     string
	PageCacheTTL time.Duration

	MongoURI                     string
	MongoDatabase                string
	AuditCollection              string
	FailedNotificationCollection string

	Messenger MessengerConfig

	LoginRatePerMinute  int
	SessionSecret       []byte
	SessionCookieSecure bool
	// TrustProxyHeaders takes the client address from X-Forwarded-For/X-Real-IP. Enable only
	// behind a proxy that overwrites them; the login limiter keys on this address.
	TrustProxyHeaders bool
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (Config, error) {
	logger, err := newLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	if err != nil {
		return Config{}, err
	}

	mode, err := adminapp.ParseRoleCheckMode(os.Getenv("ROLE_CHECK_MODE"))
	if err != nil {
		return Config{}, err
	}

	pageCacheTTL, err := durationOrDefault("PAGE_CACHE_TTL", 0)
	if err != nil {
		return Config{}, err
	}
	supabaseTimeout, err := durationOrDefault("SUPABASE_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	messengerTimeout, err := durationOrDefault("MESSENGER_GATEWAY_TIMEOUT", 3*time.Second)
	if err != nil {
		return Config{}, err
	}
	loginRate, err := intOrDefault("LOGIN_RATE_PER_MINUTE", 10)
	if err != nil {
		return Config{}, err
	}

	secret := []byte(strings.TrimSpace(os.Getenv("SESSION_SECRET")))
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return Config{}, fmt.Errorf("generate session secret: %w", err)
		}
		logger.Warn("SESSION_SECRET is not set; sessions will not survive a restart")
	}

	cfg := Config{
		Addr:     envOrDefault("HTTP_ADDR", ":8080"),
		Timezone: envOrDefault("TIMEZONE", "America/New_York"),
		Logger:   logger,
		Supabase: SupabaseConfig{
			URL:       firstEnv("SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL"),
			AnonKey:   firstEnv("SUPABASE_ANON_KEY", "NEXT_PUBLIC_SUPABASE_ANON_KEY"),
			JWTSecret: strings.TrimSpace(os.Getenv("SUPABASE_JWT_SECRET")),
			Timeout:   supabaseTimeout,
		},
		DataSchema:                   envOrDefault("DATA_SCHEMA", "api"),
		RoleSchema:                   envOrDefault("ROLE_SCHEMA", "public"),
		RoleCheckMode:                mode,
		DatabaseURL:                  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:                     strings.TrimSpace(os.Getenv("REDIS_URL")),
		PageCacheTTL:                 pageCacheTTL,
		MongoURI:                     strings.TrimSpace(os.Getenv("MONGO_URI")),
		MongoDatabase:                envOrDefault("MONGO_DB", "usampac-admin"),
		AuditCollection:              envOrDefault("AUDIT_COLLECTION", "admin_audit"),
		FailedNotificationCollection: envOrDefault("FAILED_NOTIFICATION_COLLECTION", "failed_notifications"),
		Messenger: MessengerConfig{
			Endpoint:    strings.TrimRight(strings.TrimSpace(os.Getenv("MESSENGER_GATEWAY_URL")), "/"),
			Destination: envOrDefault("MESSENGER_DISCORD_DESTINATION", "discord"),
			Timeout:     messengerTimeout,
		},
		LoginRatePerMinute:  loginRate,
		SessionSecret:       secret,
		SessionCookieSecure: strings.EqualFold(strings.TrimSpace(os.Getenv("SESSION_COOKIE_SECURE")), "true"),
		TrustProxyHeaders:   strings.EqualFold(strings.TrimSpace(os.Getenv("TRUST_PROXY_HEADERS")), "true"),
	}

	logger.WithFields(logrus.Fields{
		"addr":            cfg.Addr,
		"supabase":        cfg.Supabase.URL != "",
		"postgres":        cfg.DatabaseURL != "",
		"role_check_mode": string(cfg.RoleCheckMode),
		"page_cache_ttl":  cfg.PageCacheTTL.String(),
		"messenger":       cfg.Messenger.Endpoint != "",
		"trust_proxy":     cfg.TrustProxyHeaders,
	}).Info("loaded config")

	return cfg, nil
}

func newLogger(level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown LOG_FORMAT %q", format)
	}

	if level = strings.TrimSpace(level); level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		logger.SetLevel(parsed)
	}
	return logger, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	if raw == "0" {
		return 0, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func intOrDefault(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}
