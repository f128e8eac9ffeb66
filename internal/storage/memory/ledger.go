package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"signal-arena/internal/domain"
	"signal-arena/internal/storage"
)

// Ledger implements storage.Ledger in memory.
// Atomic calls are serialized; a failed call is rolled back from its journal.
type Ledger struct {
	mu sync.RWMutex

	arenas       map[domain.Address]*domain.Arena
	agents       map[domain.Address]*domain.Agent
	seasons      map[domain.Address]*domain.Season
	entries      map[domain.Address]*domain.SeasonEntry
	predictions  map[domain.Address]*domain.Prediction
	achievements map[domain.Address]*domain.Achievement
	balances     map[domain.Address]uint64
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{
		arenas:       make(map[domain.Address]*domain.Arena),
		agents:       make(map[domain.Address]*domain.Agent),
		seasons:      make(map[domain.Address]*domain.Season),
		entries:      make(map[domain.Address]*domain.SeasonEntry),
		predictions:  make(map[domain.Address]*domain.Prediction),
		achievements: make(map[domain.Address]*domain.Achievement),
		balances:     make(map[domain.Address]uint64),
	}
}

// Compile-time interface checks.
var (
	_ storage.Ledger = (*Ledger)(nil)
	_ storage.Tx     = (*tx)(nil)
)

// Atomic runs fn under the writer lock and reverts all of its writes if it fails.
func (l *Ledger) Atomic(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	t := &tx{l: l, journal: &journal{}}
	defer func() {
		if r := recover(); r != nil {
			t.journal.revert()
			panic(r)
		}
		if err != nil {
			t.journal.revert()
		}
	}()

	return fn(ctx, t)
}

// View runs fn under the reader lock. Writes fail with ErrReadOnly.
func (l *Ledger) View(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	return fn(ctx, &tx{l: l, readOnly: true})
}

// Fund credits amount to addr.
func (l *Ledger) Fund(ctx context.Context, addr domain.Address, amount uint64) error {
	return l.Atomic(ctx, func(ctx context.Context, t storage.Tx) error {
		return t.(*tx).credit(addr, amount)
	})
}

// tx is the storage.Tx handed to Atomic and View callbacks.
type tx struct {
	l        *Ledger
	journal  *journal
	readOnly bool
}

func (t *tx) writable() error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	return nil
}

// GetArena returns a copy of the arena record.
func (t *tx) GetArena(_ context.Context, addr domain.Address) (*domain.Arena, error) {
	a, ok := t.l.arenas[addr]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// InsertArena stores the arena. Returns ErrDuplicateKey if it exists.
func (t *tx) InsertArena(_ context.Context, a *domain.Arena) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, exists := t.l.arenas[a.Address]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *a
	put(t.journal, t.l.arenas, a.Address, &cp)
	return nil
}

// UpdateArena replaces the arena. Returns ErrNotFound if it does not exist.
func (t *tx) UpdateArena(_ context.Context, a *domain.Arena) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, exists := t.l.arenas[a.Address]; !exists {
		return storage.ErrNotFound
	}
	cp := *a
	put(t.journal, t.l.arenas, a.Address, &cp)
	return nil
}

// GetAgent returns a copy of the agent.
func (t *tx) GetAgent(_ context.Context, addr domain.Address) (*domain.Agent, error) {
	a, ok := t.l.agents[addr]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// InsertAgent stores a new agent.
func (t *tx) InsertAgent(_ context.Context, a *domain.Agent) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, exists := t.l.agents[a.Address]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *a
	put(t.journal, t.l.agents, a.Address, &cp)
	return nil
}

// UpdateAgent replaces an existing agent.
func (t *tx) UpdateAgent(_ context.Context, a *domain.Agent) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, exists := t.l.agents[a.Address]; !exists {
		return storage.ErrNotFound
	}
	cp := *a
	put(t.journal, t.l.agents, a.Address, &cp)
	return nil
}

// ListAgents returns copies of all agents ordered by joined_at, then address.
func (t *tx) ListAgents(_ context.Context) ([]*domain.Agent, error) {
	result := make([]*domain.Agent, 0, len(t.l.agents))
	for _, a := range t.l.agents {
		cp := *a
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].JoinedAt != result[j].JoinedAt {
			return result[i].JoinedAt < result[j].JoinedAt
		}
		return lessAddress(result[i].Address, result[j].Address)
	})
	return result, nil
}

// GetSeason returns a copy of the season.
func (t *tx) GetSeason(_ context.Context, addr domain.Address) (*domain.Season, error) {
	s, ok := t.l.seasons[addr]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

// InsertSeason stores a new season.
func (t *tx) InsertSeason(_ context.Context, s *domain.Season) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, exists := t.l.seasons[s.Address]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *s
	put(t.journal, t.l.seasons, s.Address, &cp)
	return nil
}

// UpdateSeason replaces a season whose stored status equals from.
func (t *tx) UpdateSeason(_ context.Context, s *domain.Season, from domain.SeasonStatus) error {
	if err := t.writable(); err != nil {
		return err
	}
	stored, exists := t.l.seasons[s.Address]
	if !exists {
		return storage.ErrNotFound
	}
	if stored.Status != from {
		return fmt.Errorf("%w: season %s is %s, expected %s", storage.ErrStaleStatus, s.Address, stored.Status, from)
	}
	cp := *s
	put(t.journal, t.l.seasons, s.Address, &cp)
	return nil
}

// ListSeasons returns copies of all seasons ordered by id.
func (t *tx) ListSeasons(_ context.Context) ([]*domain.Season, error) {
	result := make([]*domain.Season, 0, len(t.l.seasons))
	for _, s := range t.l.seasons {
		cp := *s
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// GetEntry returns a copy of the season entry.
func (t *tx) GetEntry(_ context.Context, addr domain.Address) (*domain.SeasonEntry, error) {
	e, ok := t.l.entries[addr]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// InsertEntry stores a new season entry.
func (t *tx) InsertEntry(_ context.Context, e *domain.SeasonEntry) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, exists := t.l.entries[e.Address]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *e
	put(t.journal, t.l.entries, e.Address, &cp)
	return nil
}

// UpdateEntry replaces an existing season entry.
func (t *tx) UpdateEntry(_ context.Context, e *domain.SeasonEntry) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, exists := t.l.entries[e.Address]; !exists {
		return storage.ErrNotFound
	}
	cp := *e
	put(t.journal, t.l.entries, e.Address, &cp)
	return nil
}

// ListEntries returns copies of a season's entries ordered by entered_at, then address.
func (t *tx) ListEntries(_ context.Context, season domain.Address) ([]*domain.SeasonEntry, error) {
	var result []*domain.SeasonEntry
	for _, e := range t.l.entries {
		if e.Season == season {
			cp := *e
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].EnteredAt != result[j].EnteredAt {
			return result[i].EnteredAt < result[j].EnteredAt
		}
		return lessAddress(result[i].Address, result[j].Address)
	})
	return result, nil
}

// GetPrediction returns a copy of the prediction.
func (t *tx) GetPrediction(_ context.Context, addr domain.Address) (*domain.Prediction, error) {
	p, ok := t.l.predictions[addr]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// InsertPrediction stores a new prediction.
func (t *tx) InsertPrediction(_ context.Context, p *domain.Prediction) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, exists := t.l.predictions[p.Address]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *p
	put(t.journal, t.l.predictions, p.Address, &cp)
	return nil
}

// UpdatePrediction replaces a prediction whose stored status equals from.
func (t *tx) UpdatePrediction(_ context.Context, p *domain.Prediction, from domain.PredictionStatus) error {
	if err := t.writable(); err != nil {
		return err
	}
	stored, exists := t.l.predictions[p.Address]
	if !exists {
		return storage.ErrNotFound
	}
	if stored.Status != from {
		return fmt.Errorf("%w: prediction %s is %s, expected %s", storage.ErrStaleStatus, p.Address, stored.Status, from)
	}
	cp := *p
	put(t.journal, t.l.predictions, p.Address, &cp)
	return nil
}

// ListPredictions returns copies of an agent's predictions ordered by sequence.
func (t *tx) ListPredictions(_ context.Context, agent domain.Address) ([]*domain.Prediction, error) {
	var result []*domain.Prediction
	for _, p := range t.l.predictions {
		if p.Agent == agent {
			cp := *p
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Sequence < result[j].Sequence
	})
	return result, nil
}

// InsertAchievement appends a badge record.
func (t *tx) InsertAchievement(_ context.Context, a *domain.Achievement) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, exists := t.l.achievements[a.Address]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *a
	put(t.journal, t.l.achievements, a.Address, &cp)
	return nil
}

// ListAchievements returns copies of an agent's badges ordered by awarded_at, then address.
func (t *tx) ListAchievements(_ context.Context, agent domain.Address) ([]*domain.Achievement, error) {
	var result []*domain.Achievement
	for _, a := range t.l.achievements {
		if a.Agent == agent {
			cp := *a
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].AwardedAt != result[j].AwardedAt {
			return result[i].AwardedAt < result[j].AwardedAt
		}
		return lessAddress(result[i].Address, result[j].Address)
	})
	return result, nil
}

// Balance returns the balance of addr, zero if the account does not exist.
func (t *tx) Balance(_ context.Context, addr domain.Address) (uint64, error) {
	return t.l.balances[addr], nil
}

// AccountExists reports whether addr has an account.
func (t *tx) AccountExists(_ context.Context, addr domain.Address) (bool, error) {
	_, ok := t.l.balances[addr]
	return ok, nil
}

// OpenAccount creates addr with a zero balance if it does not exist.
func (t *tx) OpenAccount(_ context.Context, addr domain.Address) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.l.balances[addr]; ok {
		return nil
	}
	put(t.journal, t.l.balances, addr, 0)
	return nil
}

// Transfer moves amount from one account to another.
func (t *tx) Transfer(_ context.Context, from, to domain.Address, amount uint64) error {
	if err := t.writable(); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	if from == to {
		if t.l.balances[from] < amount {
			return fmt.Errorf("%w: %s holds %d, need %d", storage.ErrInsufficientBalance, from, t.l.balances[from], amount)
		}
		return nil
	}

	have := t.l.balances[from]
	if have < amount {
		return fmt.Errorf("%w: %s holds %d, need %d", storage.ErrInsufficientBalance, from, have, amount)
	}
	if t.l.balances[to] > ^uint64(0)-amount {
		return fmt.Errorf("%w: credit to %s overflows", storage.ErrInvalidInput, to)
	}

	put(t.journal, t.l.balances, from, have-amount)
	put(t.journal, t.l.balances, to, t.l.balances[to]+amount)
	return nil
}

// credit mints amount into addr.
func (t *tx) credit(addr domain.Address, amount uint64) error {
	if err := t.writable(); err != nil {
		return err
	}
	if t.l.balances[addr] > ^uint64(0)-amount {
		return fmt.Errorf("%w: credit to %s overflows", storage.ErrInvalidInput, addr)
	}
	put(t.journal, t.l.balances, addr, t.l.balances[addr]+amount)
	return nil
}

func lessAddress(a, b domain.Address) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
