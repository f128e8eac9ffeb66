package idhash

import (
	"testing"

	"signal-arena/internal/domain"
)

func TestDeriver_DistinctAddresses(t *testing.T) {
	d := NewDeriver(DefaultProgramID)
	owner := domain.Address{7}
	agent := d.Agent(owner)
	season := d.Season(0)
	prediction := d.Prediction(agent, season, 0)

	addrs := map[string]domain.Address{
		"arena":            d.Arena(),
		"agent":            agent,
		"season0":          season,
		"season1":          d.Season(1),
		"entry":            d.Entry(season, agent),
		"vault":            d.SeasonVault(season),
		"prediction0":      prediction,
		"prediction1":      d.Prediction(agent, season, 1),
		"prediction_vault": d.PredictionVault(prediction),
		"achievement0":     d.Achievement(agent, 0),
		"achievement10":    d.Achievement(agent, 10),
	}

	seen := make(map[domain.Address]string)
	for name, addr := range addrs {
		if addr.IsZero() {
			t.Errorf("%s derived the zero address", name)
		}
		if prev, dup := seen[addr]; dup {
			t.Errorf("%s collides with %s", name, prev)
		}
		seen[addr] = name
	}
}

func TestDeriver_Stable(t *testing.T) {
	a := NewDeriver(DefaultProgramID)
	b := NewDeriver(DefaultProgramID)

	if a.Season(42) != b.Season(42) {
		t.Error("season address should not depend on the Deriver instance")
	}
	if a.ProgramID() != DefaultProgramID {
		t.Errorf("ProgramID() = %s", a.ProgramID())
	}
}
