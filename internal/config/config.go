package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	CORSAllowedOrigins []string

	// Pricing knobs. Base prices are in the shop currency; multipliers and
	// rates are plain fractions (0.10 == 10%).
	PriceMainMeal   float64
	PriceBreakfast  float64
	PriceSnack      float64
	PlanMultipliers map[string]float64
	PromoRates      map[string]float64

	// Delivery scheduling.
	DeliveryDays []string

	// Pause policy.
	PauseMinNotice  time.Duration
	ResumeMinNotice time.Duration
	PauseMaxDays    int
	PauseLimit      int

	// Infrastructure knobs.
	LockTTL           time.Duration
	LockRetryBackoff  time.Duration
	IdempotencyTTL    time.Duration
	QuoteRateWindow   time.Duration
	QuoteRateMax      int
	WorkerConcurrency int
	ReminderCron      string
	ReminderLeadDays  int
	NotifyEmailFrom   string
	NotifyEmailOn     bool
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		JWTIssuer:          valueOrDefault(k.String("JWT_ISSUER"), "mealbox"),
		JWTAudience:        strings.TrimSpace(k.String("JWT_AUDIENCE")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		PriceMainMeal:   parseFloat(k.String("PRICING_MAIN_MEAL"), 40),
		PriceBreakfast:  parseFloat(k.String("PRICING_BREAKFAST"), 30),
		PriceSnack:      parseFloat(k.String("PRICING_SNACK"), 15),
		PlanMultipliers: parseRateMap(k.String("PRICING_PLAN_MULTIPLIERS"), defaultPlanMultipliers()),
		PromoRates:      parseRateMap(k.String("PRICING_PROMO_RATES"), nil),

		DeliveryDays: splitAndTrim(valueOrDefault(k.String("DELIVERY_DAYS"), "Monday,Tuesday,Wednesday,Thursday,Friday")),

		PauseMinNotice:  parseDuration(k.String("PAUSE_MIN_NOTICE"), "72h"),
		ResumeMinNotice: parseDuration(k.String("RESUME_MIN_NOTICE"), "48h"),
		PauseMaxDays:    parseInt(k.String("PAUSE_MAX_DAYS"), 21),
		PauseLimit:      parseInt(k.String("PAUSE_LIMIT"), 1),

		LockTTL:           parseDuration(k.String("LOCK_TTL"), "30s"),
		LockRetryBackoff:  parseDuration(k.String("LOCK_RETRY_BACKOFF"), "50ms"),
		IdempotencyTTL:    parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		QuoteRateWindow:   parseDuration(k.String("QUOTE_RATE_WINDOW"), "1m"),
		QuoteRateMax:      parseInt(k.String("QUOTE_RATE_MAX"), 60),
		WorkerConcurrency: parseInt(k.String("WORKER_CONCURRENCY"), 5),
		ReminderCron:      valueOrDefault(k.String("REMINDER_CRON"), "0 9 * * *"),
		ReminderLeadDays:  parseInt(k.String("REMINDER_LEAD_DAYS"), 1),
		NotifyEmailFrom:   valueOrDefault(k.String("NOTIFY_EMAIL_FROM"), "no-reply@mealbox.local"),
		NotifyEmailOn:     parseBool(k.String("NOTIFY_EMAIL_ENABLED")),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.PauseMaxDays <= 0 {
		return nil, errors.New("PAUSE_MAX_DAYS must be positive")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func defaultPlanMultipliers() map[string]float64 {
	return map[string]float64{
		"weight-loss": 1.0,
		"balanced":    1.05,
		"muscle-gain": 1.15,
		"keto":        1.2,
	}
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// parseRateMap parses "key:value,key:value" pairs, e.g. plan multipliers or
// promo code rates. Malformed entries are skipped rather than failing startup.
func parseRateMap(value string, fallback map[string]float64) map[string]float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	out := make(map[string]float64)
	for _, pair := range strings.Split(trimmed, ",") {
		key, raw, found := strings.Cut(pair, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		rate, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || key == "" {
			continue
		}
		out[key] = rate
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
