package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	service "github.com/okian/skillmatch/internal/app"
	"github.com/okian/skillmatch/internal/config"
	"github.com/okian/skillmatch/pkg/logger"
	"github.com/okian/skillmatch/pkg/metrics"
	"github.com/spf13/cobra"
)

const (
	appName         = "skillmatch"
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// cli carries the persistent flags shared by every subcommand.
type cli struct {
	configPath  string
	logLevel    string
	trace       bool
	dumpMetrics bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:          appName,
		Short:        "Mutual skill-exchange matching",
		Long:         "skillmatch ranks people who can teach what you want to learn and want to learn what you teach.",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "path to a YAML config file (overrides "+config.EnvFile+")")
	pf.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&c.trace, "trace", false, "print matching spans to stderr")
	pf.BoolVar(&c.dumpMetrics, "dump-metrics", false, "write Prometheus metrics to stderr on exit")

	root.AddCommand(
		c.matchesCmd(),
		c.detailsCmd(),
		c.swipeCmd(),
		c.createUserCmd(),
		c.profileCmd(),
		c.skillsCmd(),
		c.migrateCmd(),
		c.seedCmd(),
	)
	return root
}

// loadConfig layers the --config file over defaults and env.
func (c *cli) loadConfig(ctx context.Context) (*config.Config, error) {
	if c.configPath != "" {
		if err := os.Setenv(config.EnvFile, c.configPath); err != nil {
			return nil, fmt.Errorf("set %s: %w", config.EnvFile, err)
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	return cfg, nil
}

// withService loads config, starts the service, runs fn and tears it all
// down again. Shutdown errors are logged; fn's error wins.
func (c *cli) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.Service) error) error {
	ctx := cmd.Context()
	errOut := cmd.ErrOrStderr()

	cfg, err := c.loadConfig(ctx)
	if err != nil {
		return err
	}

	if err := logger.InitWithWriter(errOut, cfg.LogJSON); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	log := logger.Get()
	defer func() {
		if serr := logger.Sync(); serr != nil {
			log.Error(ctx, "log sync failed", logger.Error(serr))
		}
	}()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts := []service.Option{
		service.WithConfig(cfg),
		service.WithLogger(log),
	}
	if c.trace {
		tp, err := newTracerProvider(errOut)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if serr := tp.Shutdown(sctx); serr != nil {
				log.Error(ctx, "tracer shutdown failed", logger.Error(serr))
			}
		}()
		opts = append(opts, service.WithTracerProvider(tp))
	}
	if c.dumpMetrics {
		defer func() {
			if merr := metrics.WriteText(errOut); merr != nil {
				log.Error(ctx, "metrics dump failed", logger.Error(merr))
			}
		}()
	}

	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if serr := svc.Stop(sctx); serr != nil {
			log.Error(ctx, "service shutdown failed", logger.Error(serr))
		}
	}()

	// The sqlite schema is cheap to ensure on every run; postgres is
	// migrated explicitly because it needs extension privileges.
	if strings.EqualFold(cfg.StoreDriver, config.DriverSQLite) {
		if err := svc.Store().Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return fn(ctx, svc)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
