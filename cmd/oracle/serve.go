package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/4chain-ag/go-feed-oracle/pkg/config"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/alerts"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/ledger"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/oracle"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/pool"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/storage"
	"github.com/4chain-ag/go-feed-oracle/pkg/logging"
	"github.com/4chain-ag/go-feed-oracle/pkg/server"
	"github.com/bsv-blockchain/go-sdk/transaction/broadcaster"
	"github.com/gookit/slog"
	"github.com/spf13/cobra"
	"k8s.io/utils/ptr"
)

const shutdownTimeout = 10 * time.Second

// ErrAddressMismatch is returned when the configured address is not controlled by the private key.
var ErrAddressMismatch = errors.New("configured address does not match the private key")

// NewServeCommand creates the serve command running the oracle and its HTTP API.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the oracle and its HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := logging.Setup(cfg.Logger); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

// components are the long-lived parts of a running oracle.
type components struct {
	storage *storage.SQLiteStorage
	oracle  *oracle.Oracle
	server  *server.ServerHTTP
}

func (c *components) Close() {
	c.oracle.Close()
	if err := c.storage.Close(); err != nil {
		slog.Errorf("[Oracle] failed to close storage: %v", err)
	}
}

// build wires the oracle around the single address derived from the configured key.
func build(cfg config.Config, arc ledger.TxBroadcaster) (*components, error) {
	key, err := ledger.KeyFromWIF(cfg.Oracle.PrivateKeyWIF)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return nil, err
	}

	wallet, err := ledger.NewWallet(key, cfg.Oracle.Mainnet(), store, arc, ledger.WithFeePerKB(cfg.Ledger.FeePerKB))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if cfg.Oracle.Address != "" && cfg.Oracle.Address != wallet.Address() {
		_ = store.Close()
		return nil, fmt.Errorf("%w: %s is not %s", ErrAddressMismatch, cfg.Oracle.Address, wallet.Address())
	}

	operator := alerts.NewOperatorAlerter(cfg.Server.AppName, cfg.Alerts)
	poolCfg := cfg.Pool
	poolCfg.Address = wallet.Address()

	o := oracle.New(oracle.QueueConfig{
		Address:       wallet.Address(),
		RetryDelay:    cfg.Oracle.RetryDelay,
		RetryJitter:   cfg.Oracle.RetryJitter,
		PostTimestamp: cfg.Oracle.PostTimestamp,
	}, oracle.Dependencies{
		Ledger:  wallet,
		Pool:    pool.NewManager(poolCfg, store, operator),
		Storage: store,
		Alerter: operator,
		Devices: alerts.NewDeviceNotifier(cfg.Alerts),
	})

	srv := server.New(
		server.WithConfig(cfg.Server),
		server.WithARCAPIKey(cfg.Ledger.ARCAPIKey),
		server.WithOracle(o),
	)

	slog.WithFields(slog.M{
		"address": wallet.Address(),
		"network": cfg.Oracle.Network,
	}).Info("[Oracle] ready")

	return &components{storage: store, oracle: o, server: srv}, nil
}

// newARCBroadcaster returns the ARC client whose merkle proof callbacks reach the
// arc-ingest endpoint of the server.
func newARCBroadcaster(cfg config.Config) *broadcaster.Arc {
	arc := &broadcaster.Arc{
		ApiUrl: cfg.Ledger.ARCURL,
		ApiKey: cfg.Ledger.ARCAPIKey,
	}
	if cfg.Ledger.CallbackURL != "" {
		arc.CallbackUrl = ptr.To(cfg.Ledger.CallbackURL)
		arc.CallbackToken = ptr.To(cfg.Server.ARCCallbackToken)
	}
	return arc
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := build(cfg, newARCBroadcaster(cfg))
	if err != nil {
		return err
	}
	defer c.Close()

	errCh := make(chan error, 1)
	go func() {
		slog.Infof("[HTTP] listening on %s", c.server.SocketAddr())
		errCh <- c.server.ListenAndServe(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("[Oracle] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := c.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}
