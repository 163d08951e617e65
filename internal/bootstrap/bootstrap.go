// Package bootstrap opens the shared infrastructure used by the api server
// and the reviewctl commands.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"review_hero/internal/adapters/email"
	redisad "review_hero/internal/adapters/redis"
	"review_hero/internal/domain"
	"review_hero/internal/shared"
	mysqlrepo "review_hero/internal/storage/mysql"
)

type Deps struct {
	DB    *sqlx.DB
	Store *mysqlrepo.Repo
	// Redis and Cache are nil when REDIS_ADDR is unset.
	Redis *redis.Client
	Cache domain.Cache
	// Mailer is nil when no transport is configured.
	Mailer domain.Mailer
}

func Open(ctx context.Context, cfg shared.Config) (*Deps, error) {
	db, err := sqlx.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	log.Info().Msg("database connection ok")

	d := &Deps{DB: db, Store: mysqlrepo.New(db)}

	if cfg.RedisAddr != "" {
		rc, err := redisad.NewClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			// the cache is optional; requests fall through to MySQL
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, caching disabled")
		} else {
			d.Redis = rc
			d.Cache = redisad.NewCache(rc)
		}
	}

	m, err := Mailer(cfg)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.Mailer = m
	return d, nil
}

// Mailer picks Resend when an API key is set, then SMTP, else none.
func Mailer(cfg shared.Config) (domain.Mailer, error) {
	switch {
	case cfg.ResendAPIKey != "":
		r, err := email.NewResend(email.DefaultResendBase, cfg.ResendAPIKey, cfg.EmailFrom, cfg.OutboundRPS)
		if err != nil {
			return nil, fmt.Errorf("resend: %w", err)
		}
		log.Info().Str("transport", "resend").Msg("mailer configured")
		return email.Metered(r, "resend"), nil
	case cfg.SMTPHost != "":
		s, err := email.NewSMTP(email.SMTPConfig{
			Host: cfg.SMTPHost, Port: cfg.SMTPPort, User: cfg.SMTPUser, Password: cfg.SMTPPass,
			From: cfg.EmailFrom, TLS: cfg.SMTPTLS,
		})
		if err != nil {
			return nil, fmt.Errorf("smtp: %w", err)
		}
		log.Info().Str("transport", "smtp").Str("host", cfg.SMTPHost).Msg("mailer configured")
		return email.Metered(s, "smtp"), nil
	}
	return nil, nil
}

func (d *Deps) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close failed")
		}
	}
	if err := d.DB.Close(); err != nil {
		log.Warn().Err(err).Msg("db close failed")
	}
}
