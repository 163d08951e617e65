package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"review_hero/internal/domain"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	AppURL      string

	HTTPRequestTimeout time.Duration
	ShutdownTimeout    time.Duration

	MySQLDSN  string
	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	SessionSecret  string
	AuthRequired   bool
	RateLimitStore string // memory|redis

	WhopClientID      string
	WhopClientSecret  string
	WhopRedirectURI   string
	WhopWebhookSecret string
	WhopAPIBase       string
	// WhopPlans maps provider plan ids to plans (WHOP_PLAN_STARTER=plan_x ...).
	WhopPlans map[string]domain.Plan

	GooglePlacesKey string

	ResendAPIKey string
	EmailFrom    string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPass     string
	SMTPTLS      bool

	S3Bucket string
	S3Region string

	NudgeWorkers  int
	NudgeBatch    int
	NudgeInterval time.Duration // 0 disables the in-process loop
	OutboundRPS   int
}

func (c Config) Production() bool { return c.AppEnv == "prod" || c.AppEnv == "production" }

// Load reads the environment, after loading .env files when present.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		AppURL:      env("APP_URL", "http://localhost:3000"),

		HTTPRequestTimeout: duration("HTTP_REQUEST_TIMEOUT", 15*time.Second),
		ShutdownTimeout:    duration("SHUTDOWN_TIMEOUT", 15*time.Second),

		MySQLDSN:  env("MYSQL_DSN", "root:root@tcp(localhost:3306)/review_hero?parseTime=true&charset=utf8mb4&loc=UTC"),
		RedisAddr: env("REDIS_ADDR", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		RedisPass: env("REDIS_PASSWORD", ""),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 60)) * time.Second,

		SessionSecret:  env("SESSION_SECRET", ""),
		AuthRequired:   boolean("AUTH_REQUIRED", true),
		RateLimitStore: strings.ToLower(env("RATE_LIMIT_STORE", "memory")),

		WhopClientID:      env("WHOP_CLIENT_ID", ""),
		WhopClientSecret:  env("WHOP_CLIENT_SECRET", ""),
		WhopRedirectURI:   env("WHOP_REDIRECT_URI", ""),
		WhopWebhookSecret: env("WHOP_WEBHOOK_SECRET", ""),
		WhopAPIBase:       env("WHOP_API_BASE", ""),
		WhopPlans:         planMapping(),

		GooglePlacesKey: env("GOOGLE_PLACES_API_KEY", ""),

		ResendAPIKey: env("RESEND_API_KEY", ""),
		EmailFrom:    env("EMAIL_FROM", "Review Hero <hello@reviewhero.app>"),
		SMTPHost:     env("SMTP_HOST", ""),
		SMTPPort:     atoi("SMTP_PORT", 587),
		SMTPUser:     env("SMTP_USER", ""),
		SMTPPass:     env("SMTP_PASSWORD", ""),
		SMTPTLS:      boolean("SMTP_TLS", true),

		S3Bucket: env("S3_BUCKET_NAME", ""),
		S3Region: env("S3_REGION", "us-east-1"),

		NudgeWorkers:  atoi("NUDGE_WORKERS", 4),
		NudgeBatch:    atoi("NUDGE_BATCH", 500),
		NudgeInterval: duration("NUDGE_INTERVAL", 0),
		OutboundRPS:   atoi("OUTBOUND_RPS", 5),
	}

	if c.SessionSecret == "" {
		log.Warn().Msg("SESSION_SECRET is empty, logins are disabled")
	}
	if c.WhopWebhookSecret == "" {
		log.Warn().Msg("WHOP_WEBHOOK_SECRET is empty, webhooks will be rejected")
	}
	if c.ResendAPIKey == "" && c.SMTPHost == "" {
		log.Warn().Msg("no mail transport configured, review requests will not be emailed")
	}
	return c
}

var planEnv = map[string]domain.Plan{
	"WHOP_PLAN_STARTER":        domain.PlanStarter,
	"WHOP_PLAN_GROWTH":         domain.PlanGrowth,
	"WHOP_PLAN_SCALE":          domain.PlanScale,
	"WHOP_PLAN_PAY_PER_RESULT": domain.PlanPayPerResult,
}

// planMapping accepts a comma-separated list of plan ids per tier.
func planMapping() map[string]domain.Plan {
	out := map[string]domain.Plan{}
	for k, plan := range planEnv {
		for _, id := range strings.Split(os.Getenv(k), ",") {
			if id = strings.TrimSpace(id); id != "" {
				out[id] = plan
			}
		}
	}
	return out
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("invalid integer, using default")
	}
	return def
}

func boolean(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Warn().Str("key", k).Str("value", v).Msg("invalid boolean, using default")
	}
	return def
}

func duration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Warn().Str("key", k).Str("value", v).Msg("invalid duration, using default")
	}
	return def
}
