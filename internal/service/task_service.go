package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"tycoon_bot/internal/domain"
	"tycoon_bot/internal/logger"
	"tycoon_bot/internal/metrics"
	"tycoon_bot/internal/repository"
	"tycoon_bot/internal/scheduler"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrTaskNotFound = errors.New("task not found")

const jobKindTaskCompletion = "task_completion"

// CompletionHandler receives the outcome of a finished task exactly once.
// The reward itself is already durable by the time the handler runs; a
// failing handler loses only the notification, never the reward.
type CompletionHandler func(outcome domain.TaskOutcome)

// TaskService coordinates timed tasks: at most one active task per user,
// immediate cost debit on start, and a delayed completion that credits the
// reward, clears the assignment and awards experience.
type TaskService struct {
	db              *pgxpool.Pool
	taskRepo        *repository.TaskRepository
	transactionRepo *repository.TransactionRepository
	progression     *ProgressionService
	sched           *scheduler.Scheduler
	tickInterval    time.Duration
	onComplete      CompletionHandler
	log             *slog.Logger
}

func NewTaskService(db *pgxpool.Pool, progression *ProgressionService, sched *scheduler.Scheduler, tickInterval time.Duration) *TaskService {
	return &TaskService{
		db:              db,
		taskRepo:        repository.NewTaskRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		progression:     progression,
		sched:           sched,
		tickInterval:    tickInterval,
		log:             logger.Component("tasks"),
	}
}

// SetCompletionHandler installs the notification hook. Call before any task
// can complete.
func (s *TaskService) SetCompletionHandler(h CompletionHandler) {
	s.onComplete = h
}

// ListTasks returns the catalog as the user sees it, rewards multiplied by
// prestige, with the active task flagged.
func (s *TaskService) ListTasks(ctx context.Context, userID int64) ([]domain.TaskView, error) {
	var (
		prestige int64
		activeID *int64
	)
	err := s.db.QueryRow(ctx,
		`SELECT prestige, active_task_id FROM users WHERE id = $1`, userID).Scan(&prestige, &activeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]domain.TaskView, 0, len(tasks))
	for _, t := range tasks {
		active := activeID != nil && *activeID == t.ID
		views = append(views, t.View(prestige, active))
	}
	return views, nil
}

// ActiveTask returns the user's in-flight task, or nil when idle.
func (s *TaskService) ActiveTask(ctx context.Context, userID int64) (*domain.Task, error) {
	activeID, err := s.taskRepo.GetActiveTask(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if activeID == nil {
		return nil, nil
	}
	return s.taskRepo.GetByID(ctx, *activeID)
}

// StartResult is the typed outcome of a start attempt.
type StartResult struct {
	Status     domain.TaskStartStatus
	Task       domain.Task
	ActiveTask *domain.Task // set when Status is StartAlreadyExecuting
	NewBalance int64
	JobID      string
}

// StartTask validates in strict priority order (active task, funds, level),
// then atomically debits the cost and records the assignment, and finally
// schedules the completion after length * tick interval. The validation and
// debit happen under a row lock so duplicate taps cannot double-start.
func (s *TaskService) StartTask(ctx context.Context, userID, taskID int64) (*StartResult, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var u domain.User
	u.ID = userID
	err = tx.QueryRow(ctx,
		`SELECT currency, level, active_task_id FROM users WHERE id = $1 FOR UPDATE`,
		userID,
	).Scan(&u.Currency, &u.Level, &u.ActiveTaskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	status := domain.EvaluateTaskStart(&u, task)
	metrics.TasksStarted.WithLabelValues(status.String()).Inc()

	if status != domain.StartOK {
		res := &StartResult{Status: status, Task: *task, NewBalance: u.Currency}
		if status == domain.StartAlreadyExecuting && u.ActiveTaskID != nil {
			if active, aerr := s.taskRepo.GetByID(ctx, *u.ActiveTaskID); aerr == nil {
				res.ActiveTask = active
			}
		}
		return res, nil
	}

	var newBalance int64
	err = tx.QueryRow(ctx,
		`UPDATE users SET currency = currency - $1, active_task_id = $2
		 WHERE id = $3
		 RETURNING currency`,
		task.Cost, taskID, userID,
	).Scan(&newBalance)
	if err != nil {
		return nil, err
	}

	record := &domain.Transaction{
		UserID: userID,
		Type:   "task_start",
		Amount: -task.Cost,
		Meta:   map[string]interface{}{"task_id": taskID},
	}
	if err := s.transactionRepo.CreateWithTx(ctx, tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	// The debit is already committed; a client disconnect must not cancel
	// the job-row insert.
	delay := time.Duration(task.Length) * s.tickInterval
	jobID, err := s.sched.ScheduleAfter(context.WithoutCancel(ctx), delay,
		scheduler.Job{Kind: jobKindTaskCompletion, UserID: userID, TaskID: taskID},
		s.completionWork(userID, taskID),
		s.dispatchOutcome,
	)
	if err != nil {
		// The debit and assignment are committed; the job row could not be
		// written. Surface the error so the caller can report a generic
		// failure; Restore cannot help here, the operator has to intervene.
		s.log.Error("failed to schedule completion", "user_id", userID, "task_id", taskID, "error", err)
		return nil, err
	}

	s.log.Info("task started", "user_id", userID, "task_id", taskID, "delay", delay, "job_id", jobID)
	return &StartResult{Status: domain.StartOK, Task: *task, NewBalance: newBalance, JobID: jobID}, nil
}

// completionWork builds the deferred unit that applies the task's effects.
// It is safe under at-least-once execution: the assignment clear is
// conditional, so a second run (or an externally cleared assignment) applies
// nothing.
func (s *TaskService) completionWork(userID, taskID int64) scheduler.Work {
	return func(ctx context.Context) (string, error) {
		outcome, err := s.completeTask(ctx, userID, taskID)
		if err != nil {
			return "", err
		}
		if outcome == nil {
			// assignment no longer matches; nothing was applied
			return "", nil
		}
		payload, err := json.Marshal(outcome)
		if err != nil {
			return "", err
		}
		return string(payload), nil
	}
}

func (s *TaskService) completeTask(ctx context.Context, userID, taskID int64) (*domain.TaskOutcome, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		tgID     int64
		prestige int64
	)
	err = tx.QueryRow(ctx,
		`SELECT tg_id, prestige FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&tgID, &prestige)
	if err != nil {
		return nil, err
	}

	// Only complete the assignment we started. If it was cleared or replaced
	// in the interim, apply nothing.
	tag, err := tx.Exec(ctx,
		`UPDATE users SET active_task_id = NULL
		 WHERE id = $1 AND active_task_id = $2`,
		userID, taskID,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		s.log.Warn("completion skipped, assignment no longer matches",
			"user_id", userID, "task_id", taskID)
		return nil, nil
	}

	// Reward rule: currency scales with prestige at grant time, experience
	// never does.
	rewardPaid := task.Reward * prestige
	if _, err := tx.Exec(ctx,
		`UPDATE users SET currency = currency + $1 WHERE id = $2`,
		rewardPaid, userID,
	); err != nil {
		return nil, err
	}

	record := &domain.Transaction{
		UserID: userID,
		Type:   "task_reward",
		Amount: rewardPaid,
		Meta:   map[string]interface{}{"task_id": taskID},
	}
	if err := s.transactionRepo.CreateWithTx(ctx, tx, record); err != nil {
		return nil, err
	}

	award, err := s.progression.AwardExperienceWithTx(ctx, tx, userID, task.ExpReward)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.TasksCompleted.Inc()
	s.log.Info("task completed", "user_id", userID, "task_id", taskID, "reward", rewardPaid)

	return &domain.TaskOutcome{
		UserID:     userID,
		TgID:       tgID,
		Task:       *task,
		RewardPaid: rewardPaid,
		XPAwarded:  task.ExpReward,
		LeveledUp:  award.LeveledUp,
		NewLevel:   award.Level,
	}, nil
}

// dispatchOutcome is the scheduler completion callback. The scheduler
// guarantees it runs exactly once per job.
func (s *TaskService) dispatchOutcome(res scheduler.Result) {
	if res.Err != nil {
		s.log.Error("task completion job failed",
			"job_id", res.Job.ID, "user_id", res.Job.UserID, "task_id", res.Job.TaskID, "error", res.Err)
		return
	}
	if res.Payload == "" {
		return
	}

	var outcome domain.TaskOutcome
	if err := json.Unmarshal([]byte(res.Payload), &outcome); err != nil {
		s.log.Error("bad completion payload", "job_id", res.Job.ID, "error", err)
		return
	}
	if s.onComplete != nil {
		s.onComplete(outcome)
	}
}

// RestoreJobs re-arms task completions persisted by a previous process.
func (s *TaskService) RestoreJobs(ctx context.Context) error {
	return s.sched.Restore(ctx, func(job *scheduler.Job) (scheduler.Work, scheduler.Completion, bool) {
		if job.Kind != jobKindTaskCompletion {
			return nil, nil, false
		}
		return s.completionWork(job.UserID, job.TaskID), s.dispatchOutcome, true
	})
}
