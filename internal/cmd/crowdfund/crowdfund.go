// Package crowdfund parses crowdfund service configuration and launches the
// service.
package crowdfund

import (
	"context"
	"flag"
	"fmt"
	"strings"

	entrypoint "github.com/Yochiyuu/stellar-crowdFunding/internal/platform/cmd"
	server "github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/app"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/auth"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/services/crowdfund/domain/identity"
)

// Config holds crowdfund command configuration.
type Config struct {
	Port           int    `env:"CROWDFUND_PORT" envDefault:"8095"`
	DBPath         string `env:"CROWDFUND_DB_PATH" envDefault:"data/crowdfund.db"`
	EngineIdentity string `env:"CROWDFUND_ENGINE_IDENTITY" envDefault:"crowdfund-engine"`
	LogMode        string `env:"CROWDFUND_LOG_MODE" envDefault:"dev"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The crowdfund gRPC server port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the crowdfund sqlite database")
	fs.StringVar(&cfg.EngineIdentity, "engine-identity", cfg.EngineIdentity, "Identity that escrows donations")
	fs.StringVar(&cfg.LogMode, "log-mode", cfg.LogMode, "Log output mode: dev or prod")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("port %d is out of range", cfg.Port)
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return Config{}, fmt.Errorf("db path is required")
	}
	if _, err := identity.Parse(cfg.EngineIdentity); err != nil {
		return Config{}, fmt.Errorf("engine identity %q: %w", cfg.EngineIdentity, err)
	}
	return cfg, nil
}

// Run starts the crowdfund gRPC API service.
func Run(ctx context.Context, cfg Config) error {
	grant, err := auth.LoadGrantConfigFromEnv(nil)
	if err != nil {
		return fmt.Errorf("load grant config: %w", err)
	}
	log, err := entrypoint.NewLogger(entrypoint.ServiceCrowdfund, cfg.LogMode)
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceCrowdfund, func(ctx context.Context) error {
		return server.Run(ctx, cfg.Port, server.Options{
			DBPath:         cfg.DBPath,
			EngineIdentity: identity.ID(strings.TrimSpace(cfg.EngineIdentity)),
			Grant:          grant,
			Logger:         log,
		})
	})
}
