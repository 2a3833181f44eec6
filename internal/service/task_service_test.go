package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tycoon_bot/internal/domain"
	"tycoon_bot/internal/scheduler"
)

func TestDispatchOutcomeNotifiesHandler(t *testing.T) {
	svc := NewTaskService(nil, nil, nil, time.Minute)

	var got []domain.TaskOutcome
	svc.SetCompletionHandler(func(outcome domain.TaskOutcome) {
		got = append(got, outcome)
	})

	outcome := domain.TaskOutcome{
		UserID:     7,
		TgID:       100500,
		Task:       domain.Task{ID: 3, Name: "haul cargo", Reward: 8000},
		RewardPaid: 8000,
		XPAwarded:  50,
		LeveledUp:  true,
		NewLevel:   5,
	}
	payload, err := json.Marshal(outcome)
	if err != nil {
		t.Fatal(err)
	}

	svc.dispatchOutcome(scheduler.Result{
		Job:     scheduler.Job{ID: "j1", Kind: "task_completion", UserID: 7, TaskID: 3},
		Payload: string(payload),
	})

	if len(got) != 1 {
		t.Fatalf("handler called %d times, want 1", len(got))
	}
	if got[0].RewardPaid != 8000 || got[0].NewLevel != 5 || !got[0].LeveledUp {
		t.Fatalf("unexpected outcome: %+v", got[0])
	}
}

func TestDispatchOutcomeSkipsEmptyPayload(t *testing.T) {
	svc := NewTaskService(nil, nil, nil, time.Minute)

	called := false
	svc.SetCompletionHandler(func(domain.TaskOutcome) { called = true })

	// empty payload means the completion found nothing to apply
	svc.dispatchOutcome(scheduler.Result{Job: scheduler.Job{ID: "j2"}})
	if called {
		t.Fatal("handler must not run for a skipped completion")
	}
}

func TestDispatchOutcomeSwallowsFailedJobs(t *testing.T) {
	svc := NewTaskService(nil, nil, nil, time.Minute)

	called := false
	svc.SetCompletionHandler(func(domain.TaskOutcome) { called = true })

	svc.dispatchOutcome(scheduler.Result{
		Job: scheduler.Job{ID: "j3"},
		Err: errors.New("deadline exceeded"),
	})
	if called {
		t.Fatal("handler must not run for a failed completion")
	}
}
