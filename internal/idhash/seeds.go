package idhash

import (
	"encoding/binary"

	"signal-arena/internal/domain"
)

// Seed prefixes for every derived record and vault.
const (
	SeedArena           = "arena"
	SeedAgent           = "agent"
	SeedSeason          = "season"
	SeedEntry           = "entry"
	SeedSeasonVault     = "vault"
	SeedPrediction      = "prediction"
	SeedPredictionVault = "prediction_vault"
	SeedAchievement     = "achievement"
)

// DefaultProgramID is the devnet deployment of the arena program.
var DefaultProgramID = domain.MustParseAddress("Gck8TTMDXoqhcXDUYDRzYbBu4shvbAUUrHTBafuGQCSz")

// Deriver derives stable record addresses for one program id.
type Deriver struct {
	programID domain.Address
}

// NewDeriver creates a Deriver bound to programID.
func NewDeriver(programID domain.Address) *Deriver {
	return &Deriver{programID: programID}
}

// ProgramID returns the bound program id.
func (d *Deriver) ProgramID() domain.Address {
	return d.programID
}

// Arena derives the singleton arena address.
func (d *Deriver) Arena() domain.Address {
	return d.must([]byte(SeedArena))
}

// Agent derives the agent address for an owner.
func (d *Deriver) Agent(owner domain.Address) domain.Address {
	return d.must([]byte(SeedAgent), owner[:])
}

// Season derives the season address for a sequential id.
func (d *Deriver) Season(id uint64) domain.Address {
	return d.must([]byte(SeedSeason), le64(id))
}

// Entry derives the (season, agent) entry address.
func (d *Deriver) Entry(season, agent domain.Address) domain.Address {
	return d.must([]byte(SeedEntry), season[:], agent[:])
}

// SeasonVault derives the prize pool escrow of a season.
func (d *Deriver) SeasonVault(season domain.Address) domain.Address {
	return d.must([]byte(SeedSeasonVault), season[:])
}

// Prediction derives the address of the sequence-th submission of agent in season.
func (d *Deriver) Prediction(agent, season domain.Address, sequence uint64) domain.Address {
	return d.must([]byte(SeedPrediction), agent[:], season[:], le64(sequence))
}

// PredictionVault derives the stake escrow of a prediction.
func (d *Deriver) PredictionVault(prediction domain.Address) domain.Address {
	return d.must([]byte(SeedPredictionVault), prediction[:])
}

// Achievement derives a badge address from the agent's reputation snapshot.
func (d *Deriver) Achievement(agent domain.Address, reputation uint64) domain.Address {
	return d.must([]byte(SeedAchievement), agent[:], le64(reputation))
}

// must derives an address from seeds that are statically within limits.
// FindProgramAddress only fails on oversized seeds, which no caller here produces.
func (d *Deriver) must(seeds ...[]byte) domain.Address {
	addr, _, err := FindProgramAddress(seeds, d.programID)
	if err != nil {
		panic(err)
	}
	return addr
}

func le64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}
