package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "system program", input: "11111111111111111111111111111111"},
		{name: "program id", input: "Gck8TTMDXoqhcXDUYDRzYbBu4shvbAUUrHTBafuGQCSz"},
		{name: "too short", input: "abc", wantErr: true},
		{name: "bad alphabet", input: "0OIl", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAddress) {
					t.Fatalf("ParseAddress(%q) error = %v, want ErrInvalidAddress", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddress(%q) failed: %v", tt.input, err)
			}
			if got.String() != tt.input {
				t.Errorf("String() = %s, want %s", got.String(), tt.input)
			}
		})
	}
}

func TestAddress_ZeroIsSystemProgram(t *testing.T) {
	a := MustParseAddress("11111111111111111111111111111111")
	if !a.IsZero() {
		t.Error("all-ones base58 string should decode to the zero address")
	}
}

func TestAddress_JSON(t *testing.T) {
	type wrapper struct {
		Owner Address `json:"owner"`
	}
	in := wrapper{Owner: MustParseAddress("Gck8TTMDXoqhcXDUYDRzYbBu4shvbAUUrHTBafuGQCSz")}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"owner":"Gck8TTMDXoqhcXDUYDRzYbBu4shvbAUUrHTBafuGQCSz"}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var out wrapper
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out.Owner != in.Owner {
		t.Errorf("Owner mismatch: got %s, want %s", out.Owner, in.Owner)
	}
}

func TestRank_Level(t *testing.T) {
	ranks := []Rank{RankBronze, RankSilver, RankGold, RankDiamond, RankLegend}
	for i, r := range ranks {
		if r.Level() != i {
			t.Errorf("%s.Level() = %d, want %d", r, r.Level(), i)
		}
		if !r.IsValid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if Rank("PLATINUM").IsValid() {
		t.Error("unknown rank should be invalid")
	}
}

func TestPredictionStatus_Next(t *testing.T) {
	next, ok := PredictionCommitted.Next()
	if !ok || next != PredictionRevealed {
		t.Errorf("COMMITTED.Next() = %s, %v", next, ok)
	}
	next, ok = PredictionRevealed.Next()
	if !ok || next != PredictionResolved {
		t.Errorf("REVEALED.Next() = %s, %v", next, ok)
	}
	if _, ok := PredictionResolved.Next(); ok {
		t.Error("RESOLVED should be terminal")
	}
}

func TestAchievementType_Reputation(t *testing.T) {
	want := map[AchievementType]uint64{
		AchievementFirstWin:    10,
		AchievementStreak3:     25,
		AchievementStreak5:     50,
		AchievementStreak10:    100,
		AchievementRankSilver:  15,
		AchievementRankGold:    30,
		AchievementRankDiamond: 60,
		AchievementRankLegend:  100,
	}
	for typ, delta := range want {
		got, ok := typ.Reputation()
		if !ok || got != delta {
			t.Errorf("%s.Reputation() = %d, %v; want %d", typ, got, ok, delta)
		}
	}
	if AchievementType("PARTICIPATION").IsValid() {
		t.Error("unknown achievement should be invalid")
	}
}
