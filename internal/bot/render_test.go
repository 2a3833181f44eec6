package bot

import (
	"strings"
	"testing"

	"tycoon_bot/internal/domain"
	"tycoon_bot/internal/service"
)

func TestRenderStatusShowsActiveTask(t *testing.T) {
	u := &domain.User{Currency: 95000, Prestige: 1, Level: 4, XP: 120}

	got := renderStatus(u, 350, "Доставка груза")
	if !strings.Contains(got, "95,000") {
		t.Fatalf("balance not formatted: %s", got)
	}
	if !strings.Contains(got, "Доставка груза") {
		t.Fatalf("active task missing: %s", got)
	}

	idle := renderStatus(u, 350, "")
	if strings.Contains(idle, "Выполняется") {
		t.Fatalf("idle status must not mention a task: %s", idle)
	}
}

func TestRenderStartResult(t *testing.T) {
	task := domain.Task{Name: "Рейс", Cost: 5000, RequiredLevel: 3}

	cases := []struct {
		name   string
		result service.StartResult
		want   string
	}{
		{"ok", service.StartResult{Status: domain.StartOK, Task: task, NewBalance: 95000}, "начато"},
		{"busy", service.StartResult{Status: domain.StartAlreadyExecuting, Task: task, ActiveTask: &domain.Task{Name: "Стройка"}}, "Стройка"},
		{"broke", service.StartResult{Status: domain.StartInsufficientFunds, Task: task, NewBalance: 100}, "Недостаточно средств"},
		{"level", service.StartResult{Status: domain.StartInsufficientLevel, Task: task}, "уровень 3"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := renderStartResult(&tc.result)
			if !strings.Contains(got, tc.want) {
				t.Fatalf("renderStartResult(%s) = %q, want substring %q", tc.name, got, tc.want)
			}
		})
	}
}

func TestBuildingsKeyboardCarriesIDs(t *testing.T) {
	views := []domain.BuildingView{
		{Building: domain.Building{ID: 1, Name: "Киоск", Cost: 500}},
		{Building: domain.Building{ID: 7, Name: "Завод", Cost: 100000}},
	}

	kb := buildingsKeyboard(views)
	if len(kb.InlineKeyboard) != 2 {
		t.Fatalf("got %d rows, want 2", len(kb.InlineKeyboard))
	}
	if got := *kb.InlineKeyboard[1][0].CallbackData; got != "buy:7" {
		t.Fatalf("callback data = %q, want buy:7", got)
	}
}

func TestRenderOutcomeLevelUp(t *testing.T) {
	o := domain.TaskOutcome{
		Task:       domain.Task{Name: "Рейс"},
		RewardPaid: 8000,
		XPAwarded:  50,
		LeveledUp:  true,
		NewLevel:   5,
	}
	got := renderOutcome(o)
	if !strings.Contains(got, "8,000") || !strings.Contains(got, "Новый уровень") {
		t.Fatalf("unexpected outcome render: %s", got)
	}
}
