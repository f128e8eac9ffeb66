package storage

import (
	"context"

	"signal-arena/internal/domain"
)

// Ledger is the transactional substrate holding every arena record and balance.
type Ledger interface {
	// Atomic runs fn in a single all-or-nothing unit. If fn returns an error,
	// every record write and balance movement made through tx is discarded.
	// Calls must not be nested.
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// View runs fn against a consistent read-only snapshot.
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Fund credits amount to addr out of thin air. Development airdrop only.
	Fund(ctx context.Context, addr domain.Address, amount uint64) error
}

// Tx is the record and balance surface available inside a Ledger call.
type Tx interface {
	ArenaTx
	AgentTx
	SeasonTx
	PredictionTx
	AchievementTx
	BalanceTx
}

// ArenaTx accesses the arena registry record.
type ArenaTx interface {
	// GetArena returns ErrNotFound if the arena is not initialized.
	GetArena(ctx context.Context, addr domain.Address) (*domain.Arena, error)

	// InsertArena returns ErrDuplicateKey if the arena exists.
	InsertArena(ctx context.Context, a *domain.Arena) error

	// UpdateArena returns ErrNotFound if the arena does not exist.
	UpdateArena(ctx context.Context, a *domain.Arena) error
}

// AgentTx accesses agent profiles.
type AgentTx interface {
	GetAgent(ctx context.Context, addr domain.Address) (*domain.Agent, error)
	InsertAgent(ctx context.Context, a *domain.Agent) error
	UpdateAgent(ctx context.Context, a *domain.Agent) error

	// ListAgents returns all agents ordered by joined_at ASC, address ASC.
	ListAgents(ctx context.Context) ([]*domain.Agent, error)
}

// SeasonTx accesses seasons and their entries.
type SeasonTx interface {
	GetSeason(ctx context.Context, addr domain.Address) (*domain.Season, error)
	InsertSeason(ctx context.Context, s *domain.Season) error

	// UpdateSeason writes s only if the stored status equals from.
	// Returns ErrStaleStatus otherwise.
	UpdateSeason(ctx context.Context, s *domain.Season, from domain.SeasonStatus) error

	// ListSeasons returns all seasons ordered by id ASC.
	ListSeasons(ctx context.Context) ([]*domain.Season, error)

	GetEntry(ctx context.Context, addr domain.Address) (*domain.SeasonEntry, error)
	InsertEntry(ctx context.Context, e *domain.SeasonEntry) error
	UpdateEntry(ctx context.Context, e *domain.SeasonEntry) error

	// ListEntries returns the entries of a season ordered by entered_at ASC, address ASC.
	ListEntries(ctx context.Context, season domain.Address) ([]*domain.SeasonEntry, error)
}

// PredictionTx accesses predictions.
type PredictionTx interface {
	GetPrediction(ctx context.Context, addr domain.Address) (*domain.Prediction, error)
	InsertPrediction(ctx context.Context, p *domain.Prediction) error

	// UpdatePrediction writes p only if the stored status equals from.
	// Returns ErrStaleStatus otherwise.
	UpdatePrediction(ctx context.Context, p *domain.Prediction, from domain.PredictionStatus) error

	// ListPredictions returns an agent's predictions ordered by sequence ASC.
	ListPredictions(ctx context.Context, agent domain.Address) ([]*domain.Prediction, error)
}

// AchievementTx accesses the append-only badge log.
type AchievementTx interface {
	// InsertAchievement returns ErrDuplicateKey if the address exists.
	InsertAchievement(ctx context.Context, a *domain.Achievement) error

	// ListAchievements returns an agent's badges ordered by awarded_at ASC, address ASC.
	ListAchievements(ctx context.Context, agent domain.Address) ([]*domain.Achievement, error)
}

// BalanceTx moves value between accounts.
type BalanceTx interface {
	// Balance returns 0 for accounts that do not exist.
	Balance(ctx context.Context, addr domain.Address) (uint64, error)

	// AccountExists reports whether addr has ever been opened or credited.
	AccountExists(ctx context.Context, addr domain.Address) (bool, error)

	// OpenAccount creates addr with a zero balance. No-op if it exists.
	OpenAccount(ctx context.Context, addr domain.Address) error

	// Transfer moves amount from one account to another. Returns
	// ErrInsufficientBalance if from holds less than amount. Crediting an
	// unknown address opens it. A zero amount is a no-op.
	Transfer(ctx context.Context, from, to domain.Address, amount uint64) error
}

// EventStore persists published notifications.
type EventStore interface {
	// Append adds a record. Returns ErrDuplicateKey if event_id exists.
	Append(ctx context.Context, e *domain.EventRecord) error

	// GetByTimeRange returns records with occurred_at in [start, end], oldest first.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.EventRecord, error)

	// GetByKind returns all records of a kind, oldest first.
	GetByKind(ctx context.Context, kind string) ([]*domain.EventRecord, error)
}
