// Package engine implements the arena's settlement operations on top of a
// storage.Ledger. Every mutating operation runs in one Ledger.Atomic call, so
// a failure at any step leaves records and balances untouched.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"signal-arena/internal/clock"
	"signal-arena/internal/domain"
	"signal-arena/internal/events"
	"signal-arena/internal/idhash"
	"signal-arena/internal/observability"
	"signal-arena/internal/storage"
)

// Options configures an Engine.
type Options struct {
	Ledger    storage.Ledger
	Clock     clock.Clock      // defaults to clock.System
	Publisher events.Publisher // defaults to events.Discard
	Policy    Policy           // required
	ProgramID domain.Address   // defaults to idhash.DefaultProgramID
	Logger    *zap.Logger
}

// Engine executes arena operations.
type Engine struct {
	ledger storage.Ledger
	clock  clock.Clock
	pub    events.Publisher
	policy Policy
	ids    *idhash.Deriver
	logger *zap.Logger
}

// New creates an Engine. It fails if the ledger is missing or the policy is invalid.
func New(opts Options) (*Engine, error) {
	if opts.Ledger == nil {
		return nil, errors.New("engine: ledger is required")
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e := &Engine{
		ledger: opts.Ledger,
		clock:  opts.Clock,
		pub:    opts.Publisher,
		policy: opts.Policy,
		logger: opts.Logger,
	}
	if e.clock == nil {
		e.clock = clock.System{}
	}
	if e.pub == nil {
		e.pub = events.Discard{}
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	programID := opts.ProgramID
	if programID.IsZero() {
		programID = idhash.DefaultProgramID
	}
	e.ids = idhash.NewDeriver(programID)
	return e, nil
}

// Policy returns the settlement policy the engine was built with.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Addresses returns the deriver bound to the engine's program id.
func (e *Engine) Addresses() *idhash.Deriver {
	return e.ids
}

// op collects the side effects of one operation until its Atomic call commits.
type op struct {
	now     int64
	pending []events.Event
	after   []func()
}

func (o *op) emit(kind events.Kind, payload any) {
	o.pending = append(o.pending, events.New(kind, o.now, payload))
}

// onCommit registers f to run only if the operation commits.
func (o *op) onCommit(f func()) {
	o.after = append(o.after, f)
}

// atomic runs fn in one ledger transaction, then publishes its events and
// records its metrics. Events of a failed operation are never published.
func (e *Engine) atomic(ctx context.Context, name string, fn func(ctx context.Context, tx storage.Tx, o *op) error) error {
	start := time.Now()
	o := &op{now: e.clock.Now()}
	err := e.ledger.Atomic(ctx, func(ctx context.Context, tx storage.Tx) error {
		o.pending = o.pending[:0]
		o.after = o.after[:0]
		return fn(ctx, tx, o)
	})
	elapsed := time.Since(start)

	switch {
	case err == nil:
		observability.RecordOperation(name, observability.StatusOK, elapsed)
	case IsRejection(err):
		observability.RecordOperation(name, observability.StatusRejected, elapsed)
		e.logger.Debug("operation rejected", zap.String("op", name), zap.Error(err))
		return err
	default:
		observability.RecordOperation(name, observability.StatusFailed, elapsed)
		e.logger.Error("operation failed", zap.String("op", name), zap.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}

	for _, f := range o.after {
		f()
	}
	for _, ev := range o.pending {
		e.pub.Publish(ctx, ev)
	}
	e.logger.Debug("operation committed",
		zap.String("op", name),
		zap.Int("events", len(o.pending)),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}

// view runs fn against a read-only snapshot.
func (e *Engine) view(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	return e.ledger.View(ctx, fn)
}

func (e *Engine) loadArena(ctx context.Context, tx storage.Tx) (*domain.Arena, error) {
	a, err := tx.GetArena(ctx, e.ids.Arena())
	if err != nil {
		return nil, notFound(err, ErrNotInitialized)
	}
	return a, nil
}

// authorize loads the arena and checks signer is its authority.
func (e *Engine) authorize(ctx context.Context, tx storage.Tx, signer domain.Address) (*domain.Arena, error) {
	a, err := e.loadArena(ctx, tx)
	if err != nil {
		return nil, err
	}
	if signer != a.Authority {
		return nil, ErrUnauthorized
	}
	return a, nil
}

func (e *Engine) loadAgent(ctx context.Context, tx storage.Tx, addr domain.Address) (*domain.Agent, error) {
	a, err := tx.GetAgent(ctx, addr)
	if err != nil {
		return nil, notFound(err, ErrAgentNotFound)
	}
	return a, nil
}

func (e *Engine) loadSeason(ctx context.Context, tx storage.Tx, id uint64) (*domain.Season, error) {
	s, err := tx.GetSeason(ctx, e.ids.Season(id))
	if err != nil {
		return nil, notFound(err, ErrSeasonNotFound)
	}
	return s, nil
}

func (e *Engine) loadPrediction(ctx context.Context, tx storage.Tx, addr domain.Address) (*domain.Prediction, error) {
	p, err := tx.GetPrediction(ctx, addr)
	if err != nil {
		return nil, notFound(err, ErrPredictionNotFound)
	}
	return p, nil
}

// staleStatus maps a lost compare-and-set race to the caller-facing status error.
func staleStatus(err, sentinel error) error {
	if errors.Is(err, storage.ErrStaleStatus) {
		return sentinel
	}
	return err
}
