package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/l1fee/auth"
	"github.com/jonwraymond/l1fee/config"
	"github.com/jonwraymond/l1fee/ethrpc"
	"github.com/jonwraymond/l1fee/fee"
	"github.com/jonwraymond/l1fee/health"
	"github.com/jonwraymond/l1fee/observe"
	"github.com/jonwraymond/l1fee/server"
)

func (c *CLI) newServeCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve fee estimates over HTTP and websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), path)
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "l1feed.yaml", "Path to configuration file")
	return cmd
}

func serve(ctx context.Context, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Resolve(ctx, cfg.NewResolver()); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Observe.Version == "" {
		cfg.Observe.Version = Version
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return err
	}
	logger := obs.Logger()
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := obs.Shutdown(sctx); err != nil {
			logger.Warn(sctx, "telemetry shutdown failed", observe.F("error", err))
		}
	}()

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return err
	}

	endpoints, err := cfg.ChainEndpoints()
	if err != nil {
		return err
	}
	clients, err := ethrpc.Dial(ctx, endpoints,
		ethrpc.WithResilience(cfg.Provider),
		ethrpc.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer clients.Close()

	oracle, err := cfg.OracleAddress()
	if err != nil {
		return err
	}
	provider, calc := newPricing(clients, oracle)

	opts, err := cfg.EstimatorOptions()
	if err != nil {
		return err
	}
	est, err := fee.NewEstimator(provider, calc, append(opts, fee.WithMiddleware(mw))...)
	if err != nil {
		return err
	}

	agg := health.NewAggregator(cfg.Health)
	agg.Register(health.NewProviderChecker(provider, clients.Chains()))
	agg.Register(health.NewCacheChecker(est.Cache(), health.CacheCheckerConfig{}))

	srvOpts := []server.Option{
		server.WithLogger(logger),
		server.WithHealth(agg),
		server.WithMetricsHandler(promhttp.Handler()),
		server.WithCORSOrigins(cfg.Server.CORSOrigins...),
		server.WithWatchConfig(cfg.Server.Watch),
	}
	if cfg.Server.Auth.Enabled {
		srvOpts = append(srvOpts, server.WithAuthenticator(auth.NewJWTAuthenticator(cfg.Server.Auth.JWT, nil)))
	}
	srv, err := server.New(est, srvOpts...)
	if err != nil {
		return err
	}

	logger.Info(ctx, "l1feed starting",
		observe.F("version", cfg.Observe.Version),
		observe.F("chains", fmt.Sprint(clients.Chains())),
		observe.F("auth", cfg.Server.Auth.Enabled),
	)
	start := time.Now()
	err = srv.ListenAndServe(ctx, cfg.HTTP())
	logger.Info(context.WithoutCancel(ctx), "l1feed stopped", observe.F("uptime", time.Since(start).String()))
	return err
}
