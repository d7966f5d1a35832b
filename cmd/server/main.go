package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Bhoomirana25/Student-Institute-smart-card/configs"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/assistant"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/gateway"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/handlers"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/ledger"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/logger"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/routes"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/seed"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/session"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/store"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/vault"
)

// @title        Campus Smart Card API
// @version      1.0
// @description  Student wallet, document vault and EduSmart assistant.
// @BasePath     /
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, addr string

	cmd := &cobra.Command{
		Use:           "campus-server",
		Short:         "Student smart card backend: wallet, document vault and EduSmart assistant",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional
			_ = godotenv.Load()

			cfg, err := configs.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default ./configs/config.yaml)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}

type repositories struct {
	ledger ledger.Repository
	vault  vault.Repository
	db     *gorm.DB
}

func openRepositories(cfg configs.Config) (repositories, error) {
	if cfg.Store.Driver != "sqlite" {
		return repositories{ledger: ledger.NewMemoryRepository(), vault: vault.NewMemoryRepository()}, nil
	}
	db, err := store.Open(cfg.Store.DSN, logger.Log)
	if err != nil {
		return repositories{}, err
	}
	if err := store.Migrate(db); err != nil {
		_ = store.Close(db)
		return repositories{}, err
	}
	logger.Log.Info("migrations loaded")
	return repositories{ledger: store.NewLedgerRepository(db), vault: store.NewDocumentRepository(db), db: db}, nil
}

func newGateway(cfg configs.GatewayConfig) interface {
	gateway.DocumentAnalyzer
	gateway.ChatResponder
} {
	if cfg.Offline {
		logger.Log.Warn("gateway offline, using canned answers")
		return &gateway.Stub{
			Summary: vault.FallbackSummary,
			Answer:  assistant.EmptyReply,
		}
	}
	if cfg.APIKey == "" {
		logger.Log.Warn("no gateway API key configured, AI features will fall back")
	}
	return gateway.NewGemini(gateway.Config{
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		Model:         cfg.Model,
		Timeout:       cfg.Timeout,
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.Burst,
	}, &http.Client{}, logger.Log)
}

func run(ctx context.Context, cfg configs.Config) error {
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return err
	}
	defer logger.Log.Sync()

	if ctx == nil {
		ctx = context.Background()
	}

	repos, err := openRepositories(cfg)
	if err != nil {
		return err
	}

	maxAmount, err := cfg.Ledger.Max()
	if err != nil {
		return err
	}
	ai := newGateway(cfg.Gateway)

	sess := session.New(
		ledger.New(repos.ledger, ledger.Config{AllowOverdraft: cfg.Ledger.AllowOverdraft, MaxAmount: maxAmount}, logger.Log),
		vault.New(repos.vault, ai, vault.Config{
			FailurePolicy:  vault.FailurePolicy(cfg.Vault.FailurePolicy),
			MaxUploadBytes: cfg.Vault.MaxUploadBytes,
		}, logger.Log),
		cfg.Card.ValidThru,
	)

	if cfg.Seed.Enabled {
		fx, err := seed.Load(cfg.Seed.Fixture)
		if err != nil {
			return err
		}
		if err := seed.Run(ctx, sess, fx, logger.Log); err != nil {
			return err
		}
	}

	chat := assistant.New(ai, sess, nil, logger.Log)
	if err := chat.Start(ctx); err != nil {
		return fmt.Errorf("start assistant: %w", err)
	}

	router := routes.NewRoutes(handlers.New(sess, chat, cfg.Vault.MaxUploadBytes, logger.Log), logger.Log)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
	case err := <-serveErr:
		if err != nil {
			logger.Log.Error("server error", zap.Error(err))
			return err
		}
	}
	logger.Log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("graceful shutdown failed", zap.Error(err))
	}

	if repos.db != nil {
		if err := store.Close(repos.db); err != nil {
			logger.Log.Error("db close failed", zap.Error(err))
		} else {
			logger.Log.Info("db closed")
		}
	}

	logger.Log.Info("server stopped")
	return nil
}
