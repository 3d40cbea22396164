package commands

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jakechorley/theatre-rota/internal/config"
	"github.com/jakechorley/theatre-rota/pkg/artifacts"
	"github.com/jakechorley/theatre-rota/pkg/clients/driveclient"
	"github.com/jakechorley/theatre-rota/pkg/core/services"
	"github.com/jakechorley/theatre-rota/pkg/metrics"
	"github.com/jakechorley/theatre-rota/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands.
// The database and artifact store are connected on first use so that offline
// commands such as solveFile need neither.
type AppContext struct {
	Env      string
	Cfg      *config.Config
	Logger   *zap.Logger
	Ctx      context.Context
	Registry *prometheus.Registry
	Metrics  *metrics.PromRecorder

	database  *postgres.DB
	artifacts services.ArtifactStore
}

// Database returns the PostgreSQL connection, connecting on first use
func (a *AppContext) Database() (*postgres.DB, error) {
	if a.database != nil {
		return a.database, nil
	}

	a.Logger.Info("Connecting to database")
	database, err := postgres.NewDB(a.Ctx, a.Cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.Logger.Debug("Database connected")

	a.database = database
	return database, nil
}

// Artifacts returns the configured artifact store, creating it on first use
func (a *AppContext) Artifacts() (services.ArtifactStore, error) {
	if a.artifacts != nil {
		return a.artifacts, nil
	}

	switch a.Cfg.Artifacts.Store {
	case "drive":
		a.Logger.Info("Loading OAuth client configuration")
		oauthCfg, err := config.LoadOAuthClientWithEnv(a.Env)
		if err != nil {
			return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
		}

		a.Logger.Info("Initializing drive client")
		client, err := driveclient.NewClient(a.Ctx, oauthCfg, a.Env, a.Cfg.Artifacts.DriveFolderID, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create drive client: %w", err)
		}
		a.artifacts = client
	default:
		store, err := artifacts.NewLocalStore(a.Cfg.Artifacts.LocalDir)
		if err != nil {
			return nil, err
		}
		a.artifacts = store
	}

	return a.artifacts, nil
}

// FlushMetrics writes the solve metrics to the configured node exporter textfile
func (a *AppContext) FlushMetrics() {
	if a.Registry == nil || a.Cfg == nil || a.Cfg.Metrics.TextfilePath == "" {
		return
	}
	if err := metrics.WriteTextfile(a.Cfg.Metrics.TextfilePath, a.Registry); err != nil {
		a.Logger.Warn("Failed to write metrics textfile", zap.Error(err))
		return
	}
	a.Logger.Debug("Metrics written", zap.String("path", a.Cfg.Metrics.TextfilePath))
}

// Close releases the database connection
func (a *AppContext) Close() {
	if a.database != nil {
		a.database.Close()
		a.database = nil
	}
}
