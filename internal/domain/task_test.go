package domain

import "testing"

func TestEvaluateTaskStartPriority(t *testing.T) {
	task := &Task{ID: 7, Cost: 5000, RequiredLevel: 3}
	active := int64(2)

	cases := []struct {
		name string
		user User
		want TaskStartStatus
	}{
		{"all good", User{Currency: 10000, Level: 5}, StartOK},
		{"active task wins over everything", User{Currency: 0, Level: 1, ActiveTaskID: &active}, StartAlreadyExecuting},
		{"active task wins even when affordable", User{Currency: 10000, Level: 5, ActiveTaskID: &active}, StartAlreadyExecuting},
		{"funds checked before level", User{Currency: 100, Level: 1}, StartInsufficientFunds},
		{"level checked last", User{Currency: 10000, Level: 1}, StartInsufficientLevel},
		{"exact cost is affordable", User{Currency: 5000, Level: 3}, StartOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EvaluateTaskStart(&tc.user, task); got != tc.want {
				t.Fatalf("EvaluateTaskStart = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTaskViewScalesRewardOnly(t *testing.T) {
	task := Task{ID: 1, Reward: 8000, ExpReward: 50}
	v := task.View(3, false)
	if v.Reward != 24000 {
		t.Fatalf("reward = %d, want 24000", v.Reward)
	}
	if v.ExpReward != 50 {
		t.Fatalf("exp reward = %d, want 50 (never scaled)", v.ExpReward)
	}
}

func TestBuildingViewScalesIncome(t *testing.T) {
	b := Building{ID: 1, Cost: 100, Income: 10}
	if v := b.View(1, 2); v.Income != 10 {
		t.Fatalf("income at prestige 1 = %d, want 10", v.Income)
	}
	if v := b.View(2, 2); v.Income != 20 {
		t.Fatalf("income at prestige 2 = %d, want 20", v.Income)
	}
	if v := b.View(1, 3); v.Owned != 3 {
		t.Fatalf("owned = %d, want 3", v.Owned)
	}
}

func TestLevelReward(t *testing.T) {
	r := LevelReward(5)
	cr, ok := r.(CurrencyReward)
	if !ok {
		t.Fatalf("expected CurrencyReward, got %T", r)
	}
	if cr.Amount != 10000 {
		t.Fatalf("amount = %d, want 10000", cr.Amount)
	}
	if cr.Describe() != "10000$" {
		t.Fatalf("describe = %q", cr.Describe())
	}
}
