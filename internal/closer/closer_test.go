package closer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-arena/internal/clock"
	"signal-arena/internal/domain"
	"signal-arena/internal/engine"
	"signal-arena/internal/storage/memory"
)

var (
	authority = domain.Address{1}
	treasury  = domain.Address{2}
	alice     = domain.Address{10}
	bob       = domain.Address{11}
)

func newEngine(t *testing.T, clk clock.Clock) (*engine.Engine, *memory.Ledger) {
	t.Helper()
	ledger := memory.NewLedger()
	eng, err := engine.New(engine.Options{
		Ledger: ledger,
		Clock:  clk,
		Policy: engine.Policy{StakeReturn: engine.StakeReturnPrincipal, Forfeit: engine.ForfeitTreasury},
	})
	require.NoError(t, err)
	_, err = eng.Initialize(context.Background(), authority, treasury)
	require.NoError(t, err)
	return eng, ledger
}

func TestNew_Validation(t *testing.T) {
	eng, _ := newEngine(t, clock.NewManual(0))

	_, err := New(Options{Authority: authority, Schedule: "@every 1s"})
	assert.Error(t, err)
	_, err = New(Options{Settler: eng, Schedule: "@every 1s"})
	assert.Error(t, err)
	_, err = New(Options{Settler: eng, Authority: authority, Schedule: "not a schedule"})
	assert.Error(t, err)

	c, err := New(Options{Settler: eng, Authority: authority, Schedule: "0 */5 * * * *"})
	require.NoError(t, err)
	c.Start()
	c.Stop()
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(1_700_000_000)
	eng, ledger := newEngine(t, clk)

	for _, owner := range []domain.Address{alice, bob} {
		_, err := eng.RegisterAgent(ctx, owner, "agent", "")
		require.NoError(t, err)
		require.NoError(t, ledger.Fund(ctx, owner, 1000))
	}
	short, err := eng.CreateSeason(ctx, authority, 1000, 1, domain.MaxBps)
	require.NoError(t, err)
	long, err := eng.CreateSeason(ctx, authority, 0, 30, domain.MaxBps)
	require.NoError(t, err)
	for _, owner := range []domain.Address{alice, bob} {
		_, err := eng.EnterSeason(ctx, short.ID, eng.Addresses().Agent(owner), owner)
		require.NoError(t, err)
	}

	var closedIDs []uint64
	c, err := New(Options{
		Settler:   eng,
		Authority: authority,
		Schedule:  "@every 1m",
		OnClosed:  func(_ context.Context, d *engine.Distribution) { closedIDs = append(closedIDs, d.Season.ID) },
	})
	require.NoError(t, err)

	closed, err := c.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, closed)

	clk.Set(short.EndTime)
	closed, err = c.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)
	assert.Equal(t, []uint64{short.ID}, closedIDs)

	s, err := eng.Season(ctx, short.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SeasonCompleted, s.Status)
	s, err = eng.Season(ctx, long.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SeasonActive, s.Status)

	// Equal scores fall back to entry address order; pool 2000 pays 1000 and 600.
	aliceBal, err := eng.Balance(ctx, alice)
	require.NoError(t, err)
	bobBal, err := eng.Balance(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(1600), aliceBal+bobBal)

	closed, err = c.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, closed)
}

type stubSettler struct {
	due       []*domain.Season
	failID    uint64
	attempted []uint64
}

func (s *stubSettler) DueSeasons(context.Context) ([]*domain.Season, error) {
	return s.due, nil
}

func (s *stubSettler) TopWinners(context.Context, uint64) ([3]domain.Address, error) {
	return [3]domain.Address{}, nil
}

func (s *stubSettler) DistributePrizes(_ context.Context, id uint64, _ domain.Address, w [3]domain.Address) (*engine.Distribution, error) {
	s.attempted = append(s.attempted, id)
	if id == s.failID {
		return nil, engine.ErrInvalidSeasonStatus
	}
	return &engine.Distribution{Season: &domain.Season{ID: id}, Winners: w}, nil
}

func TestRunOnce_ContinuesPastFailure(t *testing.T) {
	stub := &stubSettler{
		due:    []*domain.Season{{ID: 1}, {ID: 2}, {ID: 3}},
		failID: 2,
	}
	c, err := New(Options{Settler: stub, Authority: authority, Schedule: "@every 1m"})
	require.NoError(t, err)

	closed, err := c.RunOnce(context.Background())
	assert.Equal(t, 2, closed)
	assert.True(t, errors.Is(err, engine.ErrInvalidSeasonStatus))
	assert.Equal(t, []uint64{1, 2, 3}, stub.attempted)
}
