package service

import (
	"context"
	"errors"
	"time"

	"tycoon_bot/internal/domain"
	"tycoon_bot/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminService provides admin statistics and operations
type AdminService struct {
	db              *pgxpool.Pool
	transactionRepo *repository.TransactionRepository
}

// NewAdminService creates a new admin service
func NewAdminService(db *pgxpool.Pool) *AdminService {
	return &AdminService{
		db:              db,
		transactionRepo: repository.NewTransactionRepository(db),
	}
}

// Stats represents game-wide statistics
type Stats struct {
	TotalUsers       int64 `json:"total_users"`
	ActiveUsersToday int64 `json:"active_users_today"`
	ActiveUsersWeek  int64 `json:"active_users_week"`
	TotalCurrency    int64 `json:"total_currency"`
	BuildingsOwned   int64 `json:"buildings_owned"`
	TasksRunning     int64 `json:"tasks_running"`
	TasksCompleted   int64 `json:"tasks_completed"`
	PrestigeUsers    int64 `json:"prestige_users"`
	MaxLevel         int64 `json:"max_level"`
}

// GetStats returns game-wide statistics
func (s *AdminService) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	today := time.Now().Truncate(24 * time.Hour)
	weekAgo := today.Add(-7 * 24 * time.Hour)

	// Total users
	_ = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers)

	// Active users today (at least one transaction)
	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(DISTINCT user_id) FROM transactions WHERE created_at >= $1
	`, today).Scan(&stats.ActiveUsersToday)

	// Active users this week
	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(DISTINCT user_id) FROM transactions WHERE created_at >= $1
	`, weekAgo).Scan(&stats.ActiveUsersWeek)

	// Currency in circulation
	_ = s.db.QueryRow(ctx, `SELECT COALESCE(SUM(currency), 0) FROM users`).Scan(&stats.TotalCurrency)

	// Buildings owned across all players
	_ = s.db.QueryRow(ctx, `SELECT COALESCE(SUM(count), 0) FROM users_buildings`).Scan(&stats.BuildingsOwned)

	// Tasks currently executing
	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM users WHERE active_task_id IS NOT NULL
	`).Scan(&stats.TasksRunning)

	// Tasks completed all time
	_ = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM scheduled_jobs WHERE kind = 'task_completion' AND status = 'succeeded'
	`).Scan(&stats.TasksCompleted)

	// Users who bought at least one prestige
	_ = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE prestige > 1`).Scan(&stats.PrestigeUsers)

	// Highest level reached
	_ = s.db.QueryRow(ctx, `SELECT COALESCE(MAX(level), 0) FROM users`).Scan(&stats.MaxLevel)

	return stats, nil
}

// GetUserByTgID returns one user by telegram id
func (s *AdminService) GetUserByTgID(ctx context.Context, tgID int64) (*domain.User, error) {
	return repository.NewUserRepository(s.db).GetByTgID(ctx, tgID)
}

// GetTopUsers returns the richest users
func (s *AdminService) GetTopUsers(ctx context.Context, limit int) ([]*domain.User, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, tg_id, COALESCE(username, ''), COALESCE(first_name, ''), currency, prestige, level
		FROM users ORDER BY currency DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.Currency, &u.Prestige, &u.Level); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// AddUserCurrency credits (or debits, with a negative amount) a user's
// balance by telegram id and records the adjustment.
func (s *AdminService) AddUserCurrency(ctx context.Context, tgID int64, amount int64) (int64, error) {
	dbTx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = dbTx.Rollback(ctx) }()

	var (
		userID     int64
		newBalance int64
	)
	err = dbTx.QueryRow(ctx, `
		UPDATE users SET currency = GREATEST(currency + $1, 0)
		WHERE tg_id = $2
		RETURNING id, currency
	`, amount, tgID).Scan(&userID, &newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}

	record := &domain.Transaction{
		UserID: userID,
		Type:   "admin_adjustment",
		Amount: amount,
		Meta:   map[string]interface{}{"tg_id": tgID},
	}
	if err := s.transactionRepo.CreateWithTx(ctx, dbTx, record); err != nil {
		return 0, err
	}

	return newBalance, dbTx.Commit(ctx)
}

// GetAllUsers returns a page of users plus the total count
func (s *AdminService) GetAllUsers(ctx context.Context, limit, offset int) ([]*domain.User, int, error) {
	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, tg_id, COALESCE(username, ''), COALESCE(first_name, ''), currency, prestige, level
		FROM users ORDER BY id LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.Currency, &u.Prestige, &u.Level); err != nil {
			return nil, 0, err
		}
		users = append(users, &u)
	}
	return users, total, rows.Err()
}

// GetAllUserTgIDs returns every registered telegram id, for broadcast.
func (s *AdminService) GetAllUserTgIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.Query(ctx, `SELECT tg_id FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
