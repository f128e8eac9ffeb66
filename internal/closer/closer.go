// Package closer distributes prizes for seasons whose end time has passed.
package closer

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"signal-arena/internal/domain"
	"signal-arena/internal/engine"
	"signal-arena/internal/observability"
)

// Settler is the slice of the engine the closer drives.
type Settler interface {
	DueSeasons(ctx context.Context) ([]*domain.Season, error)
	TopWinners(ctx context.Context, seasonID uint64) ([3]domain.Address, error)
	DistributePrizes(ctx context.Context, seasonID uint64, authority domain.Address, winners [3]domain.Address) (*engine.Distribution, error)
}

type Options struct {
	Settler   Settler
	Authority domain.Address
	Schedule  string // six-field cron expression with seconds
	Logger    *zap.Logger
	BaseCtx   context.Context

	// OnClosed runs after each successful distribution.
	OnClosed func(ctx context.Context, d *engine.Distribution)
}

// Closer runs RunOnce on a cron schedule.
type Closer struct {
	cron     *cron.Cron
	settler  Settler
	auth     domain.Address
	logger   *zap.Logger
	baseCtx  context.Context
	onClosed func(ctx context.Context, d *engine.Distribution)
}

func New(opts Options) (*Closer, error) {
	if opts.Settler == nil {
		return nil, errors.New("closer: settler is required")
	}
	if opts.Authority.IsZero() {
		return nil, errors.New("closer: authority is required")
	}
	c := &Closer{
		cron:     cron.New(cron.WithSeconds()),
		settler:  opts.Settler,
		auth:     opts.Authority,
		logger:   opts.Logger,
		baseCtx:  opts.BaseCtx,
		onClosed: opts.OnClosed,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.baseCtx == nil {
		c.baseCtx = context.Background()
	}
	if _, err := c.cron.AddFunc(opts.Schedule, c.tick); err != nil {
		return nil, fmt.Errorf("closer: schedule %q: %w", opts.Schedule, err)
	}
	return c, nil
}

func (c *Closer) Start() {
	c.logger.Info("closer started")
	c.cron.Start()
}

// Stop waits for a running tick to finish.
func (c *Closer) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
	c.logger.Info("closer stopped")
}

func (c *Closer) tick() {
	closed, err := c.RunOnce(c.baseCtx)
	status := observability.StatusOK
	if err != nil {
		status = observability.StatusFailed
		c.logger.Warn("closer tick incomplete", zap.Int("closed", closed), zap.Error(err))
	}
	observability.RecordCloserRun(status, closed)
}

// RunOnce distributes every due season to its top three players. A season
// that fails is logged and left for the next tick; the first such error is
// returned after all seasons have been tried.
func (c *Closer) RunOnce(ctx context.Context) (int, error) {
	due, err := c.settler.DueSeasons(ctx)
	if err != nil {
		return 0, fmt.Errorf("list due seasons: %w", err)
	}

	var (
		closed   int
		firstErr error
	)
	for _, s := range due {
		if err := c.close(ctx, s.ID); err != nil {
			c.logger.Warn("close season failed", zap.Uint64("season_id", s.ID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		closed++
	}
	return closed, firstErr
}

func (c *Closer) close(ctx context.Context, seasonID uint64) error {
	winners, err := c.settler.TopWinners(ctx, seasonID)
	if err != nil {
		return fmt.Errorf("season %d winners: %w", seasonID, err)
	}
	d, err := c.settler.DistributePrizes(ctx, seasonID, c.auth, winners)
	if err != nil {
		return fmt.Errorf("season %d distribute: %w", seasonID, err)
	}
	c.logger.Info("season closed",
		zap.Uint64("season_id", seasonID),
		zap.Uint64("paid", d.Paid),
		zap.Uint64("dust", d.Dust),
	)
	if c.onClosed != nil {
		c.onClosed(ctx, d)
	}
	return nil
}
