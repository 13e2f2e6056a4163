package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/aretw0/souvenir"
	"github.com/aretw0/souvenir/internal/config"
	"github.com/aretw0/souvenir/internal/demo"
	"github.com/aretw0/souvenir/internal/logging"
	"github.com/aretw0/souvenir/pkg/catalog"
	"github.com/aretw0/souvenir/pkg/domain"
)

// app is what every command needs once flags and config are resolved.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	seed   uint64
	rand   *rand.Rand
}

// setup loads the config and lets explicitly set flags override it.
func setup(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("catalog") {
		cfg.Catalog, _ = flags.GetString("catalog")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Lookup("json") != nil && flags.Changed("json") {
		cfg.JSON, _ = flags.GetBool("json")
	}
	if flags.Lookup("addr") != nil && flags.Changed("addr") {
		cfg.HTTP.Addr, _ = flags.GetString("addr")
	}
	if flags.Lookup("redis-addr") != nil && flags.Changed("redis-addr") {
		cfg.Redis.Addr, _ = flags.GetString("redis-addr")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	a := &app{
		cfg:    cfg,
		logger: logging.NewWithWriter(cmd.ErrOrStderr(), level, cfg.LogFormat),
		seed:   cfg.Seed,
	}
	if a.seed == 0 {
		a.seed = rand.Uint64()
	}
	a.rand = rand.New(rand.NewPCG(a.seed, a.seed^0x9e3779b97f4a7c15))
	a.logger.Debug("Configuration loaded", "config", path, "seed", a.seed)
	return a, nil
}

// catalog returns the configured catalog, or the demo one, validated.
func (a *app) catalog() (*catalog.Catalog, error) {
	var (
		cat *catalog.Catalog
		err error
	)
	if a.cfg.Catalog != "" {
		cat, err = catalog.LoadFile(a.cfg.Catalog)
	} else {
		cat, err = demo.Catalog()
	}
	if err != nil {
		return nil, err
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return cat, nil
}

// options returns the engine options every command shares.
func (a *app) options(cat *catalog.Catalog) []souvenir.Option {
	return []souvenir.Option{
		souvenir.WithLogger(a.logger),
		souvenir.WithRand(a.rand),
		souvenir.WithTick(a.cfg.Tick),
		souvenir.WithCatalog(cat),
		souvenir.WithRegistry(demo.Registry()),
		souvenir.WithIgnored(a.cfg.Ignored...),
		souvenir.WithMinEligible(a.cfg.MinEligible),
		souvenir.WithDrainTimeout(a.cfg.DrainTimeout),
	}
}

// striker counts wrong answers as strikes on the bomb. Reveals do not strike.
type striker interface {
	Strike() int
}

func strikeHooks(b striker, logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAnswer: func(_ context.Context, e *domain.AnswerEvent) {
			if e.Index >= 0 && !e.Correct {
				logger.Info("Strike", "strikes", b.Strike())
			}
		},
	}
}
