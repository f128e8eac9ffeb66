package clock

import (
	"testing"
	"time"
)

func TestManual(t *testing.T) {
	c := NewManual(1_700_000_000)
	if got := c.Now(); got != 1_700_000_000 {
		t.Fatalf("Now = %d", got)
	}

	c.Advance(36 * time.Hour)
	if got := c.Now(); got != 1_700_000_000+36*3600 {
		t.Errorf("after Advance: %d", got)
	}

	c.Set(5)
	if got := c.Now(); got != 5 {
		t.Errorf("after Set: %d", got)
	}
}

func TestSystem(t *testing.T) {
	before := time.Now().Unix()
	got := System{}.Now()
	if got < before || got > before+1 {
		t.Errorf("System.Now = %d, want near %d", got, before)
	}
}
