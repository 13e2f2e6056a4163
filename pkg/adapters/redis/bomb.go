package redis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/souvenir/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPollInterval is how often Poll refreshes the snapshot.
const DefaultPollInterval = 250 * time.Millisecond

// Bomb implements scheduler.BombState and questions.Exclusions over Redis.
//
// The engine loop must never block on the network, so reads are served from a
// snapshot that Refresh (or a background Poll) replaces atomically. Keys:
//
//	<prefix>solvable  list of solvable module names, one entry per instance
//	<prefix>solved    list of solved module names, in solve order
//	<prefix>excluded  set of excluded module names and type tags
type Bomb struct {
	client   *backend.Client
	prefix   string
	interval time.Duration
	logger   *slog.Logger

	snap atomic.Pointer[snapshot]
}

type snapshot struct {
	solvable []string
	solved   []string
	excluded map[string]bool
}

type Option func(*Bomb)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(b *Bomb) {
		b.prefix = prefix
	}
}

// WithPollInterval sets how often Poll refreshes.
func WithPollInterval(d time.Duration) Option {
	return func(b *Bomb) {
		if d > 0 {
			b.interval = d
		}
	}
}

// WithLogger sets the logger for refresh failures.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bomb) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a Redis-backed bomb with its own client.
func New(address, password string, db int, opts ...Option) *Bomb {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis-backed bomb from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Bomb {
	b := &Bomb{
		client:   client,
		prefix:   "souvenir:bomb:",
		interval: DefaultPollInterval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.snap.Store(&snapshot{excluded: map[string]bool{}})
	return b
}

// Client returns the underlying client.
func (b *Bomb) Client() *backend.Client { return b.client }

// Prefix returns the key prefix.
func (b *Bomb) Prefix() string { return b.prefix }

func (b *Bomb) key(name string) string {
	return b.prefix + name
}

// Refresh reads every key in one transaction and replaces the snapshot.
func (b *Bomb) Refresh(ctx context.Context) error {
	var solvable, solved *backend.StringSliceCmd
	var excluded *backend.StringSliceCmd
	_, err := b.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		solvable = pipe.LRange(ctx, b.key("solvable"), 0, -1)
		solved = pipe.LRange(ctx, b.key("solved"), 0, -1)
		excluded = pipe.SMembers(ctx, b.key("excluded"))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read bomb state: %w", err)
	}
	s := &snapshot{
		solvable: solvable.Val(),
		solved:   solved.Val(),
		excluded: make(map[string]bool, len(excluded.Val())),
	}
	for _, n := range excluded.Val() {
		s.excluded[n] = true
	}
	b.snap.Store(s)
	return nil
}

// Poll refreshes the snapshot until ctx is done. Failed refreshes keep the
// previous snapshot and are logged.
func (b *Bomb) Poll(ctx context.Context) error {
	if err := b.Refresh(ctx); err != nil && ctx.Err() == nil {
		b.logger.Warn("Bomb state refresh failed", "err", err)
	}
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := b.Refresh(ctx); err != nil && ctx.Err() == nil {
				b.logger.Warn("Bomb state refresh failed", "err", err)
			}
		}
	}
}

// SolvableModuleNames returns the solvable names of the last snapshot.
func (b *Bomb) SolvableModuleNames() []string {
	return b.snap.Load().solvable
}

// SolvedModuleNames returns the solved names of the last snapshot.
func (b *Bomb) SolvedModuleNames() []string {
	return b.snap.Load().solved
}

// Excluded reports whether m's type or display name is in the excluded set.
func (b *Bomb) Excluded(m domain.Module) bool {
	s := b.snap.Load()
	return s.excluded[m.Type] || m.DisplayName != "" && s.excluded[m.DisplayName]
}

// AddSolvable appends module names to the solvable list.
func (b *Bomb) AddSolvable(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	if err := b.client.RPush(ctx, b.key("solvable"), toAny(names)...).Err(); err != nil {
		return fmt.Errorf("failed to add solvable modules: %w", err)
	}
	return nil
}

// Solve appends a module name to the solved list.
func (b *Bomb) Solve(ctx context.Context, name string) error {
	if err := b.client.RPush(ctx, b.key("solved"), name).Err(); err != nil {
		return fmt.Errorf("failed to record solve of %s: %w", name, err)
	}
	return nil
}

// Exclude adds names to the excluded set.
func (b *Bomb) Exclude(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	if err := b.client.SAdd(ctx, b.key("excluded"), toAny(names)...).Err(); err != nil {
		return fmt.Errorf("failed to exclude modules: %w", err)
	}
	return nil
}

// Reset deletes every key of the bomb.
func (b *Bomb) Reset(ctx context.Context) error {
	return b.client.Del(ctx, b.key("solvable"), b.key("solved"), b.key("excluded")).Err()
}

func toAny(names []string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}
