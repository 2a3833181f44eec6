package domain

// Task is an immutable catalog entry for a timed task. Length is measured
// in tick units; the wall-clock duration is length * tick interval.
type Task struct {
	ID            int64  `db:"id"`
	Name          string `db:"name"`
	Reward        int64  `db:"reward"`
	ExpReward     int64  `db:"exp_reward"`
	RequiredLevel int    `db:"lvl_required"`
	Cost          int64  `db:"cost"`
	Length        int64  `db:"length"`
}

// TaskView is a task as shown to a user: the currency reward is
// pre-multiplied by prestige, matching what completion will actually pay.
type TaskView struct {
	Task
	Active bool `json:"active"`
}

// View returns the task with the reward scaled by prestige. Experience is
// never scaled.
func (t Task) View(prestige int64, active bool) TaskView {
	v := TaskView{Task: t, Active: active}
	v.Reward = t.Reward * prestige
	return v
}

// TaskStartStatus is the typed outcome of a start attempt. Declines are
// expected business results, not errors.
type TaskStartStatus int

const (
	StartOK TaskStartStatus = iota
	StartAlreadyExecuting
	StartInsufficientFunds
	StartInsufficientLevel
)

func (s TaskStartStatus) String() string {
	switch s {
	case StartOK:
		return "ok"
	case StartAlreadyExecuting:
		return "already_executing"
	case StartInsufficientFunds:
		return "insufficient_funds"
	case StartInsufficientLevel:
		return "insufficient_level"
	}
	return "unknown"
}

// EvaluateTaskStart decides whether a user may start a task. Checks run in
// strict priority order: an active task wins over affordability, which wins
// over the level requirement.
func EvaluateTaskStart(u *User, t *Task) TaskStartStatus {
	if u.ActiveTaskID != nil {
		return StartAlreadyExecuting
	}
	if u.Currency < t.Cost {
		return StartInsufficientFunds
	}
	if u.Level < t.RequiredLevel {
		return StartInsufficientLevel
	}
	return StartOK
}

// TaskOutcome is delivered to the completion handler exactly once per
// finished task.
type TaskOutcome struct {
	UserID     int64
	TgID       int64
	Task       Task
	RewardPaid int64
	XPAwarded  int64
	LeveledUp  bool
	NewLevel   int
}
