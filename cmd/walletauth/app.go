package main

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/layer-3/walletauth/adapters/events"
	"github.com/layer-3/walletauth/adapters/store"
	"github.com/layer-3/walletauth/adapters/tokenizer"
	"github.com/layer-3/walletauth/internal/clock"
	"github.com/layer-3/walletauth/internal/config"
	"github.com/layer-3/walletauth/internal/metrics"
	"github.com/layer-3/walletauth/internal/ratelimit"
	"github.com/layer-3/walletauth/ports"
	"github.com/layer-3/walletauth/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// app is the assembled dependency graph of a running service
type app struct {
	cfg      *config.Config
	log      *logrus.Entry
	clock    ports.Clock
	nonces   ports.NonceStore
	service  *service.AuthService
	limiter  *ratelimit.Limiter
	registry *prometheus.Registry

	redis   *redis.Client
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) redisClient() (*redis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	opts, err := redis.ParseURL(a.cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	a.redis = redis.NewClient(opts)
	a.closers = append(a.closers, func() { _ = a.redis.Close() })
	return a.redis, nil
}

// openNonceStore builds the nonce backend selected by nonce.backend
func (a *app) openNonceStore(ctx context.Context) (ports.NonceStore, error) {
	switch a.cfg.Nonce.Backend {
	case config.BackendRedis:
		client, err := a.redisClient()
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return store.NewRedisNonceStore(client, a.clock), nil

	case config.BackendPostgres:
		pool, err := pgxpool.Connect(ctx, a.cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		s := store.NewPostgresNonceStore(pool, a.clock)
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
		return s, nil

	default:
		return store.NewMemoryNonceStore(a.clock), nil
	}
}

func (a *app) openIdentityStore() (ports.IdentityStore, error) {
	if a.cfg.Identity.Backend == config.BackendMemory {
		return store.NewMemoryIdentityStore(), nil
	}

	db, err := store.OpenIdentityDB(a.cfg.Identity.Backend, a.cfg.IdentityDSN(), a.log.WithField("component", "gorm"))
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, func() { _ = sqlDB.Close() })
	}

	s := store.NewGormIdentityStore(db)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *app) signingKey() (*ecdsa.PrivateKey, error) {
	if a.cfg.Session.KeyFile != "" {
		return tokenizer.LoadSigningKey(a.cfg.Session.KeyFile)
	}
	a.log.Warn("session.key_file not set, using an ephemeral signing key; sessions will not survive a restart")
	return tokenizer.GenerateSigningKey()
}

func (a *app) eventPublisher() (ports.EventPublisher, error) {
	if !a.cfg.Events.Enabled {
		return events.NopPublisher{}, nil
	}

	client, err := a.redisClient()
	if err != nil {
		return nil, err
	}
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: client},
		events.NewLogrusAdapter(a.log.WithField("component", "watermill")),
	)
	if err != nil {
		return nil, fmt.Errorf("create redis stream publisher: %w", err)
	}
	a.closers = append(a.closers, func() { _ = publisher.Close() })
	return events.NewWatermillPublisher(publisher), nil
}

// buildApp wires stores, tokenizer, events and the auth service from cfg.
// The caller owns the returned app and must Close it.
func buildApp(ctx context.Context, cfg *config.Config, log *logrus.Entry) (_ *app, err error) {
	a := &app{cfg: cfg, log: log, clock: clock.System{}}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if a.nonces, err = a.openNonceStore(ctx); err != nil {
		return nil, err
	}
	identities, err := a.openIdentityStore()
	if err != nil {
		return nil, err
	}
	key, err := a.signingKey()
	if err != nil {
		return nil, err
	}
	eventPub, err := a.eventPublisher()
	if err != nil {
		return nil, err
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	template := cfg.MessageTemplate()
	sessions := tokenizer.NewJWTTokenizer(key, tokenizer.Config{Issuer: cfg.Session.Issuer, TTL: cfg.Session.TTL}, a.clock)
	a.service = service.NewAuthService(
		service.NewChallengeIssuer(a.nonces, a.clock, nil, template, cfg.Auth.ChallengeTTL),
		service.NewSignatureVerifier(a.nonces, template),
		service.NewIdentityResolver(identities, a.clock),
		sessions,
		eventPub,
		log.WithField("component", "auth"),
		metrics.New(a.registry),
	)

	a.limiter = ratelimit.New(ratelimit.Config{
		Enabled:           cfg.RateLimit.Enabled,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
	})
	a.closers = append(a.closers, a.limiter.Stop)

	log.WithFields(logrus.Fields{
		"nonce_backend":    cfg.Nonce.Backend,
		"identity_backend": cfg.Identity.Backend,
		"events":           cfg.Events.Enabled,
	}).Info("service assembled")

	return a, nil
}
