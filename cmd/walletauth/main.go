package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/layer-3/walletauth/config"
	"github.com/layer-3/walletauth/logging"
	"github.com/urfave/cli/v2"
)

var log = logging.Logger("main")

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load()
}

func main() {
	app := &cli.App{
		Name:  "walletauth",
		Usage: "wallet challenge-response authentication server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path of the TOML config file",
				Value:   config.ConfigFile,
				EnvVars: []string{"WALLETAUTH_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			runCmd, initCmd, migrateCmd, adminCmd, keygenCmd, signCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// overrideFlags are shared by the commands that build the service
var overrideFlags = []cli.Flag{
	&cli.StringFlag{Name: "listen", Usage: "http listen address", EnvVars: []string{"WALLETAUTH_LISTEN"}},
	&cli.StringFlag{Name: "redis-url", Usage: "redis url for challenges, revoked tokens and rate limits", EnvVars: []string{"WALLETAUTH_REDIS_URL"}},
	&cli.StringFlag{Name: "storage", Usage: "account storage driver: memory or postgres", EnvVars: []string{"WALLETAUTH_STORAGE"}},
	&cli.StringFlag{Name: "postgres-dsn", Usage: "postgres connection string", EnvVars: []string{"WALLETAUTH_POSTGRES_DSN"}},
	&cli.StringFlag{Name: "admin-wallets", Usage: "comma separated administrator addresses", EnvVars: []string{"WALLETAUTH_ADMIN_WALLETS"}},
	&cli.StringFlag{Name: "key-file", Usage: "session signing key", EnvVars: []string{"WALLETAUTH_KEY_FILE"}},
	&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error", EnvVars: []string{"WALLETAUTH_LOG_LEVEL"}},
	&cli.BoolFlag{Name: "events", Usage: "publish auth events to redis streams", EnvVars: []string{"WALLETAUTH_EVENTS"}},
}

// loadConfig reads the config file when it exists and applies flag and environment overrides
func loadConfig(cctx *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()
	path := cctx.String("config")
	if _, err := os.Stat(path); err == nil {
		if cfg, err = config.ReadConfig(path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if cctx.IsSet("listen") {
		cfg.HTTP.ListenAddress = cctx.String("listen")
	}
	if cctx.IsSet("redis-url") {
		cfg.Redis.URL = cctx.String("redis-url")
	}
	if cctx.IsSet("storage") {
		cfg.Storage.Driver = cctx.String("storage")
	}
	if cctx.IsSet("postgres-dsn") {
		cfg.Storage.PostgresDSN = cctx.String("postgres-dsn")
	}
	if cctx.IsSet("admin-wallets") {
		cfg.Auth.AdminWallets = cctx.String("admin-wallets")
	}
	if cctx.IsSet("key-file") {
		cfg.Auth.KeyFile = cctx.String("key-file")
	}
	if cctx.IsSet("log-level") {
		cfg.Log.Level = cctx.String("log-level")
	}
	if cctx.IsSet("events") {
		cfg.Events.Enabled = cctx.Bool("events")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}
