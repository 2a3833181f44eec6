package ws

const (
	// server -> client
	EventTaskCompleted = "task_completed"
	EventLevelUp       = "level_up"
	EventBalance       = "balance"
)

// Envelope wraps every server-to-client message.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type TaskCompletedPayload struct {
	TaskID     int64  `json:"task_id"`
	TaskName   string `json:"task_name"`
	RewardPaid int64  `json:"reward_paid"`
	XPAwarded  int64  `json:"xp_awarded"`
	LeveledUp  bool   `json:"leveled_up"`
	NewLevel   int    `json:"new_level"`
}

type LevelUpPayload struct {
	Level  int   `json:"level"`
	Reward int64 `json:"reward"`
}

type BalancePayload struct {
	Currency int64 `json:"currency"`
}
