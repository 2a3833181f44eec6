package domain

import "testing"

func TestRequiredXPIncreasing(t *testing.T) {
	prev := int64(0)
	for level := 1; level <= 50; level++ {
		need := RequiredXP(level)
		if need <= prev {
			t.Fatalf("RequiredXP(%d)=%d not strictly increasing (prev %d)", level, need, prev)
		}
		prev = need
	}
}

func TestApplyExperience(t *testing.T) {
	cases := []struct {
		name      string
		level     int
		xp        int64
		amount    int64
		wantLevel int
		wantXP    int64
		wantUp    bool
	}{
		{"no level up", 1, 0, 100, 1, 100, false},
		{"exact threshold", 1, 0, 250, 2, 0, true},
		{"remainder carries", 1, 200, 100, 2, 50, true},
		{"one level per call even with huge award", 1, 0, 10000, 2, 9750, true},
		{"higher level threshold", 3, 500, 100, 4, 50, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			level, xp, up := ApplyExperience(tc.level, tc.xp, tc.amount)
			if level != tc.wantLevel || xp != tc.wantXP || up != tc.wantUp {
				t.Fatalf("ApplyExperience(%d,%d,%d) = (%d,%d,%v), want (%d,%d,%v)",
					tc.level, tc.xp, tc.amount, level, xp, up, tc.wantLevel, tc.wantXP, tc.wantUp)
			}
		})
	}
}

func TestPrestigeCost(t *testing.T) {
	const base = 10_000_000
	if got := PrestigeCost(1, base); got != 10_000_000 {
		t.Fatalf("first prestige cost = %d", got)
	}
	if got := PrestigeCost(2, base); got != 40_000_000 {
		t.Fatalf("second prestige cost = %d", got)
	}
	// monotonic
	prev := int64(0)
	for p := int64(1); p < 20; p++ {
		c := PrestigeCost(p, base)
		if c <= prev {
			t.Fatalf("PrestigeCost(%d)=%d not increasing", p, c)
		}
		prev = c
	}
}

func TestPrestigeResetCurrency(t *testing.T) {
	if got := PrestigeResetCurrency(3); got != 3000 {
		t.Fatalf("reset currency = %d, want 3000", got)
	}
}

func TestTickIncome(t *testing.T) {
	if got := TickIncome(4, 25, 2); got != 200 {
		t.Fatalf("TickIncome = %d, want 200", got)
	}
	// prestige 0 earns nothing
	if got := TickIncome(10, 100, 0); got != 0 {
		t.Fatalf("TickIncome at prestige 0 = %d, want 0", got)
	}
}
