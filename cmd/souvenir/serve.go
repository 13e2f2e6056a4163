package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/souvenir"
	"github.com/aretw0/souvenir/api"
	"github.com/aretw0/souvenir/internal/demo"
	httpAdapter "github.com/aretw0/souvenir/pkg/adapters/http"
	"github.com/aretw0/souvenir/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/souvenir/pkg/adapters/redis"
	"github.com/aretw0/souvenir/pkg/domain"
	"github.com/aretw0/souvenir/pkg/observability"
	"github.com/aretw0/souvenir/pkg/runner"
)

// claimTTL bounds how long a crashed presenter keeps a shared bomb claimed.
const claimTTL = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve questions over HTTP",
	Long: `Generates a bomb of demo modules, solves them in the background and serves
the current question, answers, status, metrics and a live event stream over HTTP.
With a Redis address the bomb state is shared through Redis.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().String("redis-addr", "", "Redis address for shared bomb state")
	serveCmd.Flags().IntP("modules", "n", 6, "Number of modules on the bomb")
	serveCmd.Flags().Duration("pace", demo.DefaultPace, "Time between two simulated solves")
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	cat, err := a.catalog()
	if err != nil {
		return err
	}
	n, _ := cmd.Flags().GetInt("modules")
	pace, _ := cmd.Flags().GetDuration("pace")

	sm := runner.NewSignalManager(cmd.Context())
	defer sm.Stop()
	ctx, cancel := context.WithCancel(sm.Context())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)
	streams := httpAdapter.NewStreamManager()
	streams.SetLogger(a.logger)

	mods := demo.Generate(a.rand, n)
	opts := append(a.options(cat),
		souvenir.WithLifecycleHooks(metrics.Hooks()),
		souvenir.WithLifecycleHooks(streams.Hooks()),
	)

	if a.cfg.Redis.Addr == "" {
		bomb := memory.NewBomb(demo.Names(mods)...)
		opts = append(opts,
			souvenir.WithBombState(bomb),
			souvenir.WithExclusions(memory.NewExclusions(a.cfg.Excluded...)),
			souvenir.WithLifecycleHooks(strikeHooks(bomb, a.logger)),
			souvenir.WithTask("defuser", demo.Defuser(mods, pace, a.rand, func(m domain.Module) {
				bomb.Solve(m.DisplayName)
			})),
		)
	} else {
		shared, err := sharedBomb(gctx, g, a, mods)
		if err != nil {
			return err
		}
		solves := make(chan string, len(mods))
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case name := <-solves:
					if err := shared.Solve(gctx, name); err != nil {
						a.logger.Warn("Failed to record solve", "module", name, "err", err)
					}
				}
			}
		})
		opts = append(opts,
			souvenir.WithBombState(shared),
			souvenir.WithExclusions(shared),
			souvenir.WithTask("defuser", demo.Defuser(mods, pace, a.rand, func(m domain.Module) {
				solves <- m.DisplayName
			})),
		)
	}

	engine, err := souvenir.New(opts...)
	if err != nil {
		return err
	}

	doc, err := api.Load(ctx)
	if err != nil {
		return err
	}
	handler := httpAdapter.NewHandler(engine,
		httpAdapter.WithLogger(a.logger),
		httpAdapter.WithMetrics(reg),
		httpAdapter.WithStreams(streams),
		httpAdapter.WithValidation(doc),
	)
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		a.logger.Info("Starting Souvenir server", "addr", srv.Addr, "modules", len(mods))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		// Asking listener to shut down and shed load.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("Graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		report, err := engine.Run(gctx, mods)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		a.logger.Info("Session summary",
			"presented", report.Presented,
			"correct", report.Correct,
			"strikes", report.Strikes,
			"exploded", report.Exploded,
			"elapsed", report.Elapsed,
		)
		return nil
	})

	err = g.Wait()
	if sm.Interrupted() {
		a.logger.Info("Souvenir server stopped on signal")
	}
	return err
}

// sharedBomb claims the Redis bomb for this process, publishes the demo
// modules on it and keeps both the claim and the local snapshot fresh.
func sharedBomb(ctx context.Context, g *errgroup.Group, a *app, mods []domain.Module) (*redisAdapter.Bomb, error) {
	rc := a.cfg.Redis
	bomb := redisAdapter.New(rc.Addr, rc.Password, rc.DB,
		redisAdapter.WithPrefix(rc.Prefix),
		redisAdapter.WithPollInterval(rc.PollInterval),
		redisAdapter.WithLogger(a.logger),
	)
	owner := uuid.NewString()
	release, err := bomb.Claim(ctx, owner, claimTTL)
	if err != nil {
		return nil, err
	}
	logger := a.logger.With("redis", rc.Addr, "owner", owner)

	setupErr := func() error {
		if err := bomb.Reset(ctx); err != nil {
			return err
		}
		if err := bomb.AddSolvable(ctx, demo.Names(mods)...); err != nil {
			return err
		}
		if len(a.cfg.Excluded) > 0 {
			if err := bomb.Exclude(ctx, a.cfg.Excluded...); err != nil {
				return err
			}
		}
		return bomb.Refresh(ctx)
	}()
	if setupErr != nil {
		_ = release(context.Background())
		return nil, fmt.Errorf("failed to publish bomb: %w", setupErr)
	}

	g.Go(func() error {
		if err := bomb.Poll(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer releaseClaim(release, logger)
		ticker := time.NewTicker(claimTTL / 3)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := bomb.Renew(ctx, owner, claimTTL); err != nil && ctx.Err() == nil {
					return fmt.Errorf("lost bomb claim: %w", err)
				}
			}
		}
	})
	logger.Info("Claimed shared bomb", "modules", len(mods))
	return bomb, nil
}

func releaseClaim(release redisAdapter.ReleaseFunc, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := release(ctx); err != nil {
		logger.Warn("Failed to release bomb claim", "err", err)
	}
}
