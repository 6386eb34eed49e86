package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	statusadapter "github.com/velmik/intake/internal/adapters/render/status"
	"github.com/velmik/intake/internal/adapters/repo/sqlite"
	tomlroles "github.com/velmik/intake/internal/adapters/roles/toml"
	"github.com/velmik/intake/internal/application"
	"github.com/velmik/intake/internal/ports"
)

type app struct {
	ledger         *application.LedgerService
	directory      ports.RoleDirectory
	store          *sqlite.Store
	statusRenderer func(application.Report, statusadapter.RenderOptions) (string, error)
	logger         *zap.Logger
	clock          ports.Clock
	pendingTTL     time.Duration
}

func wireApp() (*app, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	directory, err := tomlroles.NewDirectory(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire role directory: %w", err)
	}

	store, err := sqlite.Open(cfg.GetString("db.path"))
	if err != nil {
		return nil, fmt.Errorf("wire ledger store: %w", err)
	}

	clock := ports.SystemClock{}
	ledger := application.NewLedgerService(store.Transactions(), store.Sessions(), clock, logger)
	if err := ledger.Restore(context.Background()); err != nil {
		return nil, fmt.Errorf("restore ledger: %w", err)
	}

	return &app{
		ledger:         ledger,
		directory:      directory,
		store:          store,
		statusRenderer: statusadapter.Render,
		logger:         logger,
		clock:          clock,
		pendingTTL:     cfg.GetDuration("pending.ttl"),
	}, nil
}

func loadConfig() (*viper.Viper, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg := viper.New()
	cfg.SetConfigName("config")
	cfg.SetConfigType("toml")
	cfg.AddConfigPath(filepath.Join(homeDir, ".intake"))
	cfg.SetDefault("db.path", filepath.Join(homeDir, ".intake", "intake.db"))
	cfg.SetDefault("pending.ttl", application.DefaultPendingTTL)

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("INTAKE_DEBUG") != "" {
		return zap.NewDevelopment()
	}

	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)

	return config.Build()
}
