package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	transport "github.com/layer-3/walletauth/transport/http"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "start the http server",
	Flags: overrideFlags,
	Action: func(cctx *cli.Context) error {
		cfg, err := loadConfig(cctx)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		n, err := newNode(ctx, cfg)
		if err != nil {
			return err
		}
		defer n.Close()

		gin.SetMode(gin.ReleaseMode)
		srv := &http.Server{
			Addr:              cfg.HTTP.ListenAddress,
			Handler:           transport.SetupRouter(n.service, n.limiter),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errWg, errCtx := errgroup.WithContext(ctx)

		errWg.Go(func() error {
			log.Infow("listening", "address", cfg.HTTP.ListenAddress, "storage", cfg.Storage.Driver, "redis", cfg.Redis.URL != "")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		errWg.Go(func() error {
			<-errCtx.Done()
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Std())
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return errWg.Wait()
	},
}
