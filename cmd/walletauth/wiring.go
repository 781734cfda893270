package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/layer-3/walletauth/adapters/events"
	"github.com/layer-3/walletauth/adapters/ratelimit"
	"github.com/layer-3/walletauth/adapters/signature"
	"github.com/layer-3/walletauth/adapters/store"
	"github.com/layer-3/walletauth/adapters/tokenizer"
	"github.com/layer-3/walletauth/config"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/logging"
	"github.com/layer-3/walletauth/ports"
	"github.com/layer-3/walletauth/service"
	"github.com/redis/go-redis/v9"
)

// node holds the wired service and everything that has to be closed with it
type node struct {
	service  *service.AuthService
	limiter  ports.RateLimiter
	sqlStore *store.SQLStore
	closers  []func() error
}

func (n *node) Close() {
	for i := len(n.closers) - 1; i >= 0; i-- {
		if err := n.closers[i](); err != nil {
			log.Warnw("failed to close resource", "error", err)
		}
	}
}

func openRedis(ctx context.Context, url string) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return client, nil
}

func newNode(ctx context.Context, cfg *config.Config) (*node, error) {
	n := &node{}
	ok := false
	defer func() {
		if !ok {
			n.Close()
		}
	}()

	key, err := tokenizer.LoadKey(cfg.Auth.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key, run `walletauth init` first: %w", err)
	}

	deps := service.Deps{
		Tokenizer: tokenizer.NewJWTTokenizer(key),
		Verifier:  signature.NewVerifier(),
		Events:    events.NopPublisher{},
		Logger:    logging.Logger("service"),
	}

	if cfg.Redis.URL != "" {
		client, err := openRedis(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		n.closers = append(n.closers, client.Close)

		deps.Store = store.NewRedisStore(client)
		deps.Challenges = store.NewRedisChallengeStore(client)
		if cfg.HTTP.ChallengeRateLimit > 0 {
			n.limiter = ratelimit.NewRedisLimiter(client, cfg.HTTP.ChallengeRateLimit)
		}

		if cfg.Events.Enabled {
			publisher, err := redisstream.NewPublisher(
				redisstream.PublisherConfig{Client: client},
				logging.NewWatermillAdapter(logging.Logger("events")),
			)
			if err != nil {
				return nil, fmt.Errorf("failed to create redis publisher: %w", err)
			}
			n.closers = append(n.closers, publisher.Close)
			deps.Events = events.NewWatermillPublisher(publisher)
		}
	} else {
		log.Warn("no redis configured, challenges and revoked tokens are kept in memory")
		deps.Store = store.NewMemoryStore()
		deps.Challenges = store.NewMemoryChallengeStore(nil)
		if cfg.HTTP.ChallengeRateLimit > 0 {
			n.limiter = ratelimit.NewMemoryLimiter(cfg.HTTP.ChallengeRateLimit)
		}
	}

	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		n.sqlStore = store.NewSQLStore(store.OpenPostgres(cfg.Storage.PostgresDSN))
		n.closers = append(n.closers, n.sqlStore.Close)
		deps.Accounts = n.sqlStore
	default:
		log.Warn("accounts are kept in memory and lost on restart")
		deps.Accounts = store.NewMemoryAccountStore()
	}

	opts := service.Options{
		ChallengeTTL:   cfg.Auth.ChallengeTTL.Std(),
		AccessTTL:      cfg.Auth.AccessTTL.Std(),
		RefreshTTL:     cfg.Auth.RefreshTTL.Std(),
		StorageTimeout: cfg.Storage.Timeout.Std(),
		AdminWallets:   cfg.Auth.AdminWalletList(),
	}
	for _, raw := range cfg.Auth.LoginNetworks {
		network, err := core.ParseNetwork(raw)
		if err != nil {
			return nil, fmt.Errorf("auth.LoginNetworks: %w", err)
		}
		opts.LoginNetworks = append(opts.LoginNetworks, network)
	}

	n.service = service.NewAuthService(deps, opts)
	ok = true
	return n, nil
}
