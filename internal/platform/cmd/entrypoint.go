// Package cmd holds the startup plumbing shared by crowdfund commands.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/Yochiyuu/stellar-crowdFunding/internal/platform/config"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/platform/logger"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/platform/otel"
	"github.com/Yochiyuu/stellar-crowdFunding/internal/platform/timeouts"
)

// Service names used for telemetry resources and log fields.
const (
	ServiceCrowdfund     = "crowdfund"
	ServiceIdentityGrant = "identity-grant"
)

// ParseConfig loads environment defaults into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags; flags override env defaults bound to
// the same fields.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// NewLogger builds the structured logger for service in mode ("prod" or
// "dev").
func NewLogger(service, mode string) (*logger.Logger, error) {
	base, err := logger.New(mode)
	if err != nil {
		return nil, err
	}
	return base.With("service", service), nil
}

// RunWithTelemetry installs tracing for service, executes run and flushes
// spans before returning run's error.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.TelemetryShutdown)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()
	return run(ctx)
}
