package repository

import (
	"context"

	"tycoon_bot/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	var t domain.Task
	err := r.db.QueryRow(ctx,
		`SELECT id, name, reward, exp_reward, lvl_required, cost, length
		 FROM user_tasks WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Reward, &t.ExpReward, &t.RequiredLevel, &t.Cost, &t.Length)
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (r *TaskRepository) List(ctx context.Context) ([]*domain.Task, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, reward, exp_reward, lvl_required, cost, length
		 FROM user_tasks ORDER BY lvl_required, cost`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.Name, &t.Reward, &t.ExpReward, &t.RequiredLevel, &t.Cost, &t.Length); err != nil {
			return nil, err
		}
		res = append(res, &t)
	}
	return res, rows.Err()
}

// GetActiveTask returns the user's active task id, or nil when idle.
func (r *TaskRepository) GetActiveTask(ctx context.Context, userID int64) (*int64, error) {
	var taskID *int64
	err := r.db.QueryRow(ctx,
		`SELECT active_task_id FROM users WHERE id = $1`, userID).Scan(&taskID)
	return taskID, mapErr(err)
}
