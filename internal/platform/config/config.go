package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "praman/pkg/platform/strings"
)

// Defaults for the OTP lifecycle. These are product constants, not tunables;
// env overrides exist for tests.
const (
	DefaultOTPTTL         = 10 * time.Minute
	DefaultMaxOTPAttempts = 3
	DefaultResendCooldown = 60 * time.Second
)

// Cashfree holds upstream provider credentials and mode.
type Cashfree struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Sandbox      bool
	Timeout      time.Duration
}

// Features gates the optional verification surfaces.
type Features struct {
	PAN       bool
	Bank      bool
	FaceMatch bool
	Liveness  bool
}

// Config captures everything main needs to wire the service.
type Config struct {
	Addr        string
	Environment string // "production", "development", "test"

	// ServiceSecret is the shared secret callers must present.
	ServiceSecret string

	// BadgeSigningKey signs verification badge assertions.
	BadgeSigningKey string

	PostgresDSN string
	RedisURL    string

	KafkaBrokers []string
	AuditTopic   string

	Cashfree Cashfree
	Features Features

	OTPTTL         time.Duration
	MaxOTPAttempts int
	ResendCooldown time.Duration

	// SweepInterval enables the stale-OTP sweeper when > 0.
	SweepInterval time.Duration
}

// IsTest reports whether the service runs in test mode, which disables
// rate limiting.
func (c Config) IsTest() bool { return c.Environment == "test" }

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:            envOr("PRAMAN_ADDR", ":8080"),
		Environment:     envOr("PRAMAN_ENV", "development"),
		ServiceSecret:   os.Getenv("SERVICE_AUTH_SECRET"),
		BadgeSigningKey: envOr("BADGE_SIGNING_KEY", "dev-badge-key-change-in-production"),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		RedisURL:        os.Getenv("REDIS_URL"),
		AuditTopic:      envOr("AUDIT_TOPIC", "praman.audit.events"),
		Cashfree: Cashfree{
			BaseURL:      envOr("CASHFREE_BASE_URL", "https://sandbox.cashfree.com"),
			ClientID:     os.Getenv("CASHFREE_CLIENT_ID"),
			ClientSecret: os.Getenv("CASHFREE_CLIENT_SECRET"),
			Sandbox:      envOr("CASHFREE_ENV", "sandbox") != "production",
			Timeout:      envDurationOr("CASHFREE_TIMEOUT", 30*time.Second),
		},
		Features: Features{
			PAN:       envBool("FEATURE_PAN"),
			Bank:      envBool("FEATURE_BANK"),
			FaceMatch: envBool("FEATURE_FACE_MATCH"),
			Liveness:  envBool("FEATURE_LIVENESS"),
		},
		OTPTTL:         envDurationOr("OTP_TTL", DefaultOTPTTL),
		MaxOTPAttempts: envIntOr("MAX_OTP_ATTEMPTS", DefaultMaxOTPAttempts),
		ResendCooldown: envDurationOr("RESEND_COOLDOWN", DefaultResendCooldown),
		SweepInterval:  envDurationOr("OTP_SWEEP_INTERVAL", 0),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = pstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	return os.Getenv(key) == "true"
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
