package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/layer-3/walletauth/adapters/store"
	"github.com/layer-3/walletauth/adapters/tokenizer"
	"github.com/layer-3/walletauth/config"
	"github.com/urfave/cli/v2"
)

var initCmd = &cli.Command{
	Name:  "init",
	Usage: "write the default config and generate the session signing key",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "force", Usage: "overwrite existing files"},
	},
	Action: func(cctx *cli.Context) error {
		force := cctx.Bool("force")
		path := cctx.String("config")

		cfg := config.DefaultConfig()
		if exists(path) && !force {
			var err error
			if cfg, err = config.ReadConfig(path); err != nil {
				return err
			}
			log.Infow("config already exists", "path", path)
		} else {
			if err := config.WriteConfig(path, cfg); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			log.Infow("config written", "path", path)
		}

		if exists(cfg.Auth.KeyFile) && !force {
			log.Infow("signing key already exists", "path", cfg.Auth.KeyFile)
			return nil
		}
		key, err := tokenizer.GenerateKey()
		if err != nil {
			return err
		}
		if err := tokenizer.WriteKey(cfg.Auth.KeyFile, key); err != nil {
			return fmt.Errorf("failed to write signing key: %w", err)
		}
		log.Infow("signing key written", "path", cfg.Auth.KeyFile)
		return nil
	},
}

var migrateCmd = &cli.Command{
	Name:  "migrate",
	Usage: "create the account tables",
	Flags: overrideFlags,
	Action: func(cctx *cli.Context) error {
		cfg, err := loadConfig(cctx)
		if err != nil {
			return err
		}
		if cfg.Storage.Driver != config.StoragePostgres {
			return errors.New("migrate needs the postgres storage driver")
		}

		db := store.NewSQLStore(store.OpenPostgres(cfg.Storage.PostgresDSN))
		defer db.Close()

		if err := db.CreateTables(cctx.Context); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
		log.Info("tables created")
		return nil
	},
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
