package repository

import (
	"context"

	"tycoon_bot/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, tg_id, COALESCE(username, ''), COALESCE(first_name, ''),
	currency, prestige, level, exp, active_task_id, created_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.TgID,
		&u.Username,
		&u.FirstName,
		&u.Currency,
		&u.Prestige,
		&u.Level,
		&u.XP,
		&u.ActiveTaskID,
		&u.CreatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *UserRepository) GetByTgID(ctx context.Context, tgID int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE tg_id = $1`, tgID)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// Create registers a new user. Fails with ErrConflict when the tg id is
// already taken.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (tg_id, username, first_name, currency)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, prestige, level, exp, created_at`,
		u.TgID, u.Username, u.FirstName, u.Currency,
	).Scan(&u.ID, &u.Prestige, &u.Level, &u.XP, &u.CreatedAt)
	return mapErr(err)
}

func (r *UserRepository) Exists(ctx context.Context, tgID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE tg_id = $1)`, tgID).Scan(&exists)
	return exists, err
}

// UpdateCurrency applies a delta to the user's balance. The balance is never
// allowed below zero; a debit past zero returns ErrInsufficientFunds.
func (r *UserRepository) UpdateCurrency(ctx context.Context, userID int64, delta int64) (int64, error) {
	var newBalance int64
	err := r.db.QueryRow(ctx,
		`UPDATE users SET currency = currency + $1
		 WHERE id = $2 AND currency + $1 >= 0
		 RETURNING currency`,
		delta, userID,
	).Scan(&newBalance)
	if err != nil {
		if mapErr(err) == ErrNotFound {
			var exists bool
			_ = r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
			if exists {
				return 0, ErrInsufficientFunds
			}
			return 0, ErrNotFound
		}
		return 0, err
	}
	return newBalance, nil
}

// IncomePerTick returns the passive income one tick currently pays the user:
// sum over owned building types of count * income * prestige.
func (r *UserRepository) IncomePerTick(ctx context.Context, userID int64) (int64, error) {
	var income int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(ub.count * b.income), 0) * u.prestige
		 FROM users u
		 LEFT JOIN users_buildings ub ON ub.user_id = u.id
		 LEFT JOIN buildings b ON b.id = ub.building_id
		 WHERE u.id = $1
		 GROUP BY u.prestige`,
		userID,
	).Scan(&income)
	return income, mapErr(err)
}
