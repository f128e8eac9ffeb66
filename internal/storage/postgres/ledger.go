package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"signal-arena/internal/domain"
	"signal-arena/internal/storage"
)

// Ledger implements storage.Ledger on PostgreSQL. Each Atomic call is one
// database transaction; rows read inside it are locked with FOR UPDATE.
type Ledger struct {
	pool *Pool
}

// NewLedger creates a new Ledger.
func NewLedger(pool *Pool) *Ledger {
	return &Ledger{pool: pool}
}

// Compile-time interface checks.
var (
	_ storage.Ledger = (*Ledger)(nil)
	_ storage.Tx     = (*tx)(nil)
)

// Atomic runs fn in a read-committed transaction, committed only if fn succeeds.
func (l *Ledger) Atomic(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	return pgx.BeginTxFunc(ctx, l.pool, opts, func(pgTx pgx.Tx) error {
		return fn(ctx, &tx{q: pgTx, lock: true})
	})
}

// View runs fn in a read-only repeatable-read transaction.
func (l *Ledger) View(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	return pgx.BeginTxFunc(ctx, l.pool, opts, func(pgTx pgx.Tx) error {
		return fn(ctx, &tx{q: pgTx, readOnly: true})
	})
}

// Fund credits amount to addr.
func (l *Ledger) Fund(ctx context.Context, addr domain.Address, amount uint64) error {
	return l.Atomic(ctx, func(ctx context.Context, t storage.Tx) error {
		return t.(*tx).credit(ctx, addr, amount)
	})
}

// tx is the storage.Tx bound to one pgx transaction.
type tx struct {
	q        pgx.Tx
	lock     bool
	readOnly bool
}

func (t *tx) writable() error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	return nil
}

// forUpdate appends a row lock to single-row reads inside Atomic.
func (t *tx) forUpdate(query string) string {
	if t.lock {
		return query + " FOR UPDATE"
	}
	return query
}

// exec runs a write and maps constraint violations to storage errors.
func (t *tx) exec(ctx context.Context, what, query string, args ...any) (int64, error) {
	tag, err := t.q.Exec(ctx, query, args...)
	if err != nil {
		switch {
		case isDuplicateKeyError(err):
			return 0, storage.ErrDuplicateKey
		case isRangeError(err):
			return 0, fmt.Errorf("%w: %s: %v", storage.ErrInvalidInput, what, err)
		}
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	return tag.RowsAffected(), nil
}

const arenaColumns = `address, authority, treasury, total_seasons, total_agents, total_fees_collected, total_rewards_paid`

// GetArena returns the arena record. Returns ErrNotFound if not initialized.
func (t *tx) GetArena(ctx context.Context, addr domain.Address) (*domain.Arena, error) {
	query := t.forUpdate(`SELECT ` + arenaColumns + ` FROM arena WHERE address = $1`)

	var c codec
	var a domain.Arena
	var address, authority, treasury string
	var seasons, agents, fees, rewards int64
	err := t.q.QueryRow(ctx, query, addr.String()).Scan(&address, &authority, &treasury, &seasons, &agents, &fees, &rewards)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get arena: %w", err)
	}

	a.Address = c.addr(address)
	a.Authority = c.addr(authority)
	a.Treasury = c.addr(treasury)
	a.TotalSeasons = c.u64(seasons)
	a.TotalAgents = c.u64(agents)
	a.TotalFeesCollected = c.u64(fees)
	a.TotalRewardsPaid = c.u64(rewards)
	if c.err != nil {
		return nil, fmt.Errorf("decode arena: %w", c.err)
	}
	return &a, nil
}

// InsertArena stores the arena. Returns ErrDuplicateKey if it exists.
func (t *tx) InsertArena(ctx context.Context, a *domain.Arena) error {
	if err := t.writable(); err != nil {
		return err
	}
	args, err := arenaArgs(a)
	if err != nil {
		return err
	}
	_, err = t.exec(ctx, "insert arena", `INSERT INTO arena (`+arenaColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`, args...)
	return err
}

// UpdateArena replaces the arena counters. Returns ErrNotFound if it does not exist.
func (t *tx) UpdateArena(ctx context.Context, a *domain.Arena) error {
	if err := t.writable(); err != nil {
		return err
	}
	args, err := arenaArgs(a)
	if err != nil {
		return err
	}
	n, err := t.exec(ctx, "update arena", `
		UPDATE arena SET authority = $2, treasury = $3, total_seasons = $4, total_agents = $5,
			total_fees_collected = $6, total_rewards_paid = $7
		WHERE address = $1
	`, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func arenaArgs(a *domain.Arena) ([]any, error) {
	var c codec
	args := []any{
		a.Address.String(), a.Authority.String(), a.Treasury.String(),
		c.bigint(a.TotalSeasons), c.bigint(a.TotalAgents),
		c.bigint(a.TotalFeesCollected), c.bigint(a.TotalRewardsPaid),
	}
	return args, c.err
}

const agentColumns = `address, owner, name, endpoint, submitted_predictions, total_predictions,
	correct_predictions, streak, best_streak, rank, reputation_score, joined_at`

// GetAgent returns an agent. Returns ErrNotFound if not exists.
func (t *tx) GetAgent(ctx context.Context, addr domain.Address) (*domain.Agent, error) {
	query := t.forUpdate(`SELECT ` + agentColumns + ` FROM agents WHERE address = $1`)

	a, err := scanAgent(t.q.QueryRow(ctx, query, addr.String()))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get agent: %w", err)
	}
	return a, nil
}

// InsertAgent stores a new agent. Returns ErrDuplicateKey if the address or owner exists.
func (t *tx) InsertAgent(ctx context.Context, a *domain.Agent) error {
	if err := t.writable(); err != nil {
		return err
	}
	args, err := agentArgs(a)
	if err != nil {
		return err
	}
	_, err = t.exec(ctx, "insert agent", `
		INSERT INTO agents (`+agentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, args...)
	return err
}

// UpdateAgent replaces an existing agent.
func (t *tx) UpdateAgent(ctx context.Context, a *domain.Agent) error {
	if err := t.writable(); err != nil {
		return err
	}
	args, err := agentArgs(a)
	if err != nil {
		return err
	}
	n, err := t.exec(ctx, "update agent", `
		UPDATE agents SET owner = $2, name = $3, endpoint = $4, submitted_predictions = $5,
			total_predictions = $6, correct_predictions = $7, streak = $8, best_streak = $9,
			rank = $10, reputation_score = $11, joined_at = $12
		WHERE address = $1
	`, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListAgents returns all agents ordered by joined_at, then address.
func (t *tx) ListAgents(ctx context.Context) ([]*domain.Agent, error) {
	rows, err := t.q.Query(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY joined_at ASC, address ASC`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var agents []*domain.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent row: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agent rows: %w", err)
	}
	return agents, nil
}

func agentArgs(a *domain.Agent) ([]any, error) {
	var c codec
	args := []any{
		a.Address.String(), a.Owner.String(), a.Name, a.Endpoint,
		c.bigint(a.SubmittedPredictions), c.bigint(a.TotalPredictions), c.bigint(a.CorrectPredictions),
		int64(a.Streak), int64(a.BestStreak), string(a.Rank),
		c.bigint(a.ReputationScore), a.JoinedAt,
	}
	return args, c.err
}

func scanAgent(row pgx.Row) (*domain.Agent, error) {
	var c codec
	var a domain.Agent
	var address, owner, rank string
	var submitted, total, correct, streak, best, reputation int64

	err := row.Scan(&address, &owner, &a.Name, &a.Endpoint, &submitted, &total,
		&correct, &streak, &best, &rank, &reputation, &a.JoinedAt)
	if err != nil {
		return nil, err
	}

	a.Address = c.addr(address)
	a.Owner = c.addr(owner)
	a.SubmittedPredictions = c.u64(submitted)
	a.TotalPredictions = c.u64(total)
	a.CorrectPredictions = c.u64(correct)
	a.Streak = c.u32(streak)
	a.BestStreak = c.u32(best)
	a.Rank = enum[domain.Rank](&c, rank)
	a.ReputationScore = c.u64(reputation)
	if c.err != nil {
		return nil, c.err
	}
	return &a, nil
}

const seasonColumns = `address, id, authority, entry_fee, start_time, end_time, prize_pool_bps,
	total_entries, total_pool, status`

// GetSeason returns a season. Returns ErrNotFound if not exists.
func (t *tx) GetSeason(ctx context.Context, addr domain.Address) (*domain.Season, error) {
	query := t.forUpdate(`SELECT ` + seasonColumns + ` FROM seasons WHERE address = $1`)

	s, err := scanSeason(t.q.QueryRow(ctx, query, addr.String()))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get season: %w", err)
	}
	return s, nil
}

// InsertSeason stores a new season.
func (t *tx) InsertSeason(ctx context.Context, s *domain.Season) error {
	if err := t.writable(); err != nil {
		return err
	}
	args, err := seasonArgs(s)
	if err != nil {
		return err
	}
	_, err = t.exec(ctx, "insert season", `
		INSERT INTO seasons (`+seasonColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, args...)
	return err
}

// UpdateSeason replaces a season whose stored status equals from.
func (t *tx) UpdateSeason(ctx context.Context, s *domain.Season, from domain.SeasonStatus) error {
	if err := t.writable(); err != nil {
		return err
	}
	args, err := seasonArgs(s)
	if err != nil {
		return err
	}
	n, err := t.exec(ctx, "update season", `
		UPDATE seasons SET id = $2, authority = $3, entry_fee = $4, start_time = $5, end_time = $6,
			prize_pool_bps = $7, total_entries = $8, total_pool = $9, status = $10
		WHERE address = $1 AND status = $11
	`, append(args, string(from))...)
	if err != nil {
		return err
	}
	if n == 0 {
		return t.staleOrMissing(ctx, "seasons", s.Address, string(from))
	}
	return nil
}

// ListSeasons returns all seasons ordered by id.
func (t *tx) ListSeasons(ctx context.Context) ([]*domain.Season, error) {
	rows, err := t.q.Query(ctx, `SELECT `+seasonColumns+` FROM seasons ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	defer rows.Close()

	var seasons []*domain.Season
	for rows.Next() {
		s, err := scanSeason(rows)
		if err != nil {
			return nil, fmt.Errorf("scan season row: %w", err)
		}
		seasons = append(seasons, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate season rows: %w", err)
	}
	return seasons, nil
}

func seasonArgs(s *domain.Season) ([]any, error) {
	var c codec
	args := []any{
		s.Address.String(), c.bigint(s.ID), s.Authority.String(), c.bigint(s.EntryFee),
		s.StartTime, s.EndTime, int16(s.PrizePoolBps),
		c.bigint(s.TotalEntries), c.bigint(s.TotalPool), string(s.Status),
	}
	if s.PrizePoolBps > domain.MaxBps {
		c.fail(fmt.Errorf("%w: prize_pool_bps %d", storage.ErrInvalidInput, s.PrizePoolBps))
	}
	return args, c.err
}

func scanSeason(row pgx.Row) (*domain.Season, error) {
	var c codec
	var s domain.Season
	var address, authority, status string
	var id, fee, entries, pool int64
	var bps int16

	err := row.Scan(&address, &id, &authority, &fee, &s.StartTime, &s.EndTime, &bps, &entries, &pool, &status)
	if err != nil {
		return nil, err
	}

	s.Address = c.addr(address)
	s.ID = c.u64(id)
	s.Authority = c.addr(authority)
	s.EntryFee = c.u64(fee)
	s.PrizePoolBps = uint16(bps)
	s.TotalEntries = c.u64(entries)
	s.TotalPool = c.u64(pool)
	s.Status = enum[domain.SeasonStatus](&c, status)
	if c.err != nil {
		return nil, c.err
	}
	return &s, nil
}

const entryColumns = `address, season, season_id, agent, player, score, predictions_made,
	predictions_correct, entered_at`

// GetEntry returns a season entry. Returns ErrNotFound if not exists.
func (t *tx) GetEntry(ctx context.Context, addr domain.Address) (*domain.SeasonEntry, error) {
	query := t.forUpdate(`SELECT ` + entryColumns + ` FROM season_entries WHERE address = $1`)

	e, err := scanEntry(t.q.QueryRow(ctx, query, addr.String()))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get season entry: %w", err)
	}
	return e, nil
}

// InsertEntry stores a new season entry.
func (t *tx) InsertEntry(ctx context.Context, e *domain.SeasonEntry) error {
	if err := t.writable(); err != nil {
		return err
	}
	args, err := entryArgs(e)
	if err != nil {
		return err
	}
	_, err = t.exec(ctx, "insert season entry", `
		INSERT INTO season_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, args...)
	return err
}

// UpdateEntry replaces an existing season entry.
func (t *tx) UpdateEntry(ctx context.Context, e *domain.SeasonEntry) error {
	if err := t.writable(); err != nil {
		return err
	}
	args, err := entryArgs(e)
	if err != nil {
		return err
	}
	n, err := t.exec(ctx, "update season entry", `
		UPDATE season_entries SET season = $2, season_id = $3, agent = $4, player = $5, score = $6,
			predictions_made = $7, predictions_correct = $8, entered_at = $9
		WHERE address = $1
	`, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListEntries returns a season's entries ordered by entered_at, then address.
func (t *tx) ListEntries(ctx context.Context, season domain.Address) ([]*domain.SeasonEntry, error) {
	rows, err := t.q.Query(ctx, `
		SELECT `+entryColumns+` FROM season_entries
		WHERE season = $1
		ORDER BY entered_at ASC, address ASC
	`, season.String())
	if err != nil {
		return nil, fmt.Errorf("list season entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.SeasonEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan season entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate season entry rows: %w", err)
	}
	return entries, nil
}

func entryArgs(e *domain.SeasonEntry) ([]any, error) {
	var c codec
	args := []any{
		e.Address.String(), e.Season.String(), c.bigint(e.SeasonID), e.Agent.String(), e.Player.String(),
		c.bigint(e.Score), c.bigint(e.PredictionsMade), c.bigint(e.PredictionsCorrect), e.EnteredAt,
	}
	return args, c.err
}

func scanEntry(row pgx.Row) (*domain.SeasonEntry, error) {
	var c codec
	var e domain.SeasonEntry
	var address, season, agent, player string
	var seasonID, score, made, correct int64

	err := row.Scan(&address, &season, &seasonID, &agent, &player, &score, &made, &correct, &e.EnteredAt)
	if err != nil {
		return nil, err
	}

	e.Address = c.addr(address)
	e.Season = c.addr(season)
	e.SeasonID = c.u64(seasonID)
	e.Agent = c.addr(agent)
	e.Player = c.addr(player)
	e.Score = c.u64(score)
	e.PredictionsMade = c.u64(made)
	e.PredictionsCorrect = c.u64(correct)
	if c.err != nil {
		return nil, c.err
	}
	return &e, nil
}

const predictionColumns = `address, agent, player, season_id, sequence, prediction_hash, prediction_data,
	stake_amount, submitted_at, revealed_at, resolved_at, was_correct, status`

// GetPrediction returns a prediction. Returns ErrNotFound if not exists.
func (t *tx) GetPrediction(ctx context.Context, addr domain.Address) (*domain.Prediction, error) {
	query := t.forUpdate(`SELECT ` + predictionColumns + ` FROM predictions WHERE address = $1`)

	p, err := scanPrediction(t.q.QueryRow(ctx, query, addr.String()))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get prediction: %w", err)
	}
	return p, nil
}

// InsertPrediction stores a new prediction.
func (t *tx) InsertPrediction(ctx context.Context, p *domain.Prediction) error {
	if err := t.writable(); err != nil {
		return err
	}
	args, err := predictionArgs(p)
	if err != nil {
		return err
	}
	_, err = t.exec(ctx, "insert prediction", `
		INSERT INTO predictions (`+predictionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, args...)
	return err
}

// UpdatePrediction replaces a prediction whose stored status equals from.
func (t *tx) UpdatePrediction(ctx context.Context, p *domain.Prediction, from domain.PredictionStatus) error {
	if err := t.writable(); err != nil {
		return err
	}
	args, err := predictionArgs(p)
	if err != nil {
		return err
	}
	n, err := t.exec(ctx, "update prediction", `
		UPDATE predictions SET agent = $2, player = $3, season_id = $4, sequence = $5,
			prediction_hash = $6, prediction_data = $7, stake_amount = $8, submitted_at = $9,
			revealed_at = $10, resolved_at = $11, was_correct = $12, status = $13
		WHERE address = $1 AND status = $14
	`, append(args, string(from))...)
	if err != nil {
		return err
	}
	if n == 0 {
		return t.staleOrMissing(ctx, "predictions", p.Address, string(from))
	}
	return nil
}

// ListPredictions returns an agent's predictions ordered by sequence.
func (t *tx) ListPredictions(ctx context.Context, agent domain.Address) ([]*domain.Prediction, error) {
	rows, err := t.q.Query(ctx, `
		SELECT `+predictionColumns+` FROM predictions
		WHERE agent = $1
		ORDER BY sequence ASC
	`, agent.String())
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	var predictions []*domain.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prediction row: %w", err)
		}
		predictions = append(predictions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prediction rows: %w", err)
	}
	return predictions, nil
}

func predictionArgs(p *domain.Prediction) ([]any, error) {
	var c codec
	args := []any{
		p.Address.String(), p.Agent.String(), p.Player.String(), c.bigint(p.SeasonID), c.bigint(p.Sequence),
		p.PredictionHash[:], p.PredictionData, c.bigint(p.StakeAmount),
		p.SubmittedAt, p.RevealedAt, p.ResolvedAt, p.WasCorrect, string(p.Status),
	}
	return args, c.err
}

func scanPrediction(row pgx.Row) (*domain.Prediction, error) {
	var c codec
	var p domain.Prediction
	var address, agent, player, status string
	var seasonID, sequence, stake int64
	var hash []byte

	err := row.Scan(&address, &agent, &player, &seasonID, &sequence, &hash, &p.PredictionData,
		&stake, &p.SubmittedAt, &p.RevealedAt, &p.ResolvedAt, &p.WasCorrect, &status)
	if err != nil {
		return nil, err
	}

	p.Address = c.addr(address)
	p.Agent = c.addr(agent)
	p.Player = c.addr(player)
	p.SeasonID = c.u64(seasonID)
	p.Sequence = c.u64(sequence)
	p.PredictionHash = c.hash(hash)
	p.StakeAmount = c.u64(stake)
	p.Status = enum[domain.PredictionStatus](&c, status)
	if c.err != nil {
		return nil, c.err
	}
	return &p, nil
}

// InsertAchievement appends a badge record.
func (t *tx) InsertAchievement(ctx context.Context, a *domain.Achievement) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.exec(ctx, "insert achievement", `
		INSERT INTO achievements (address, agent, achievement_type, awarded_at)
		VALUES ($1, $2, $3, $4)
	`, a.Address.String(), a.Agent.String(), string(a.AchievementType), a.AwardedAt)
	return err
}

// ListAchievements returns an agent's badges ordered by awarded_at, then address.
func (t *tx) ListAchievements(ctx context.Context, agent domain.Address) ([]*domain.Achievement, error) {
	rows, err := t.q.Query(ctx, `
		SELECT address, agent, achievement_type, awarded_at FROM achievements
		WHERE agent = $1
		ORDER BY awarded_at ASC, address ASC
	`, agent.String())
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	var achievements []*domain.Achievement
	for rows.Next() {
		var c codec
		var a domain.Achievement
		var address, owner, kind string
		if err := rows.Scan(&address, &owner, &kind, &a.AwardedAt); err != nil {
			return nil, fmt.Errorf("scan achievement row: %w", err)
		}
		a.Address = c.addr(address)
		a.Agent = c.addr(owner)
		a.AchievementType = enum[domain.AchievementType](&c, kind)
		if c.err != nil {
			return nil, fmt.Errorf("decode achievement: %w", c.err)
		}
		achievements = append(achievements, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate achievement rows: %w", err)
	}
	return achievements, nil
}

// Balance returns the balance of addr, zero if the account does not exist.
func (t *tx) Balance(ctx context.Context, addr domain.Address) (uint64, error) {
	query := t.forUpdate(`SELECT amount FROM balances WHERE address = $1`)

	var amount int64
	err := t.q.QueryRow(ctx, query, addr.String()).Scan(&amount)
	if err != nil {
		if isNotFoundError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}

	var c codec
	v := c.u64(amount)
	return v, c.err
}

// AccountExists reports whether addr has an account.
func (t *tx) AccountExists(ctx context.Context, addr domain.Address) (bool, error) {
	var exists bool
	err := t.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM balances WHERE address = $1)`, addr.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check account: %w", err)
	}
	return exists, nil
}

// OpenAccount creates addr with a zero balance if it does not exist.
func (t *tx) OpenAccount(ctx context.Context, addr domain.Address) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.exec(ctx, "open account", `
		INSERT INTO balances (address, amount) VALUES ($1, 0)
		ON CONFLICT (address) DO NOTHING
	`, addr.String())
	return err
}

// Transfer moves amount from one account to another. The debit is guarded
// in SQL so a concurrent writer can never drive a balance negative.
func (t *tx) Transfer(ctx context.Context, from, to domain.Address, amount uint64) error {
	if err := t.writable(); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}

	var c codec
	n := c.bigint(amount)
	if c.err != nil {
		return c.err
	}

	if from == to {
		have, err := t.Balance(ctx, from)
		if err != nil {
			return err
		}
		if have < amount {
			return fmt.Errorf("%w: %s holds %d, need %d", storage.ErrInsufficientBalance, from, have, amount)
		}
		return nil
	}

	debited, err := t.exec(ctx, "debit", `
		UPDATE balances SET amount = amount - $2
		WHERE address = $1 AND amount >= $2
	`, from.String(), n)
	if err != nil {
		return err
	}
	if debited == 0 {
		return fmt.Errorf("%w: %s cannot cover %d", storage.ErrInsufficientBalance, from, amount)
	}

	return t.credit(ctx, to, amount)
}

// credit adds amount to addr, opening the account if needed.
func (t *tx) credit(ctx context.Context, addr domain.Address, amount uint64) error {
	if err := t.writable(); err != nil {
		return err
	}
	var c codec
	n := c.bigint(amount)
	if c.err != nil {
		return c.err
	}
	_, err := t.exec(ctx, "credit", `
		INSERT INTO balances (address, amount) VALUES ($1, $2)
		ON CONFLICT (address) DO UPDATE SET amount = balances.amount + EXCLUDED.amount
	`, addr.String(), n)
	return err
}

// staleOrMissing classifies a compare-and-set that matched no row.
func (t *tx) staleOrMissing(ctx context.Context, table string, addr domain.Address, expected string) error {
	var status string
	err := t.q.QueryRow(ctx, `SELECT status FROM `+table+` WHERE address = $1`, addr.String()).Scan(&status)
	if err != nil {
		if isNotFoundError(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("read %s status: %w", table, err)
	}
	return fmt.Errorf("%w: %s is %s, expected %s", storage.ErrStaleStatus, addr, status, expected)
}
