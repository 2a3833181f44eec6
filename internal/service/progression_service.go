package service

import (
	"context"
	"errors"
	"log/slog"

	"tycoon_bot/internal/domain"
	"tycoon_bot/internal/logger"
	"tycoon_bot/internal/metrics"
	"tycoon_bot/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// ProgressionService owns experience, levels and prestige.
type ProgressionService struct {
	db               *pgxpool.Pool
	transactionRepo  *repository.TransactionRepository
	prestigeBaseCost int64
	log              *slog.Logger
}

func NewProgressionService(db *pgxpool.Pool, prestigeBaseCost int64) *ProgressionService {
	return &ProgressionService{
		db:               db,
		transactionRepo:  repository.NewTransactionRepository(db),
		prestigeBaseCost: prestigeBaseCost,
		log:              logger.Component("progression"),
	}
}

// AwardResult reports what an experience award did.
type AwardResult struct {
	Level     int
	XP        int64
	LeveledUp bool
	Reward    domain.Reward // nil unless a level-up occurred
}

// AwardExperience adds xp and resolves at most one level-up per call. The
// level-up reward is applied in the same transaction as the level change.
func (s *ProgressionService) AwardExperience(ctx context.Context, userID int64, amount int64) (*AwardResult, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res, err := s.awardExperienceTx(ctx, tx, userID, amount)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

// AwardExperienceWithTx is AwardExperience inside an existing transaction,
// used by the task coordinator to commit reward and xp atomically.
func (s *ProgressionService) AwardExperienceWithTx(ctx context.Context, tx pgx.Tx, userID int64, amount int64) (*AwardResult, error) {
	return s.awardExperienceTx(ctx, tx, userID, amount)
}

func (s *ProgressionService) awardExperienceTx(ctx context.Context, tx pgx.Tx, userID int64, amount int64) (*AwardResult, error) {
	var (
		level int
		xp    int64
	)
	err := tx.QueryRow(ctx,
		`SELECT level, exp FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&level, &xp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	newLevel, newXP, leveledUp := domain.ApplyExperience(level, xp, amount)

	if _, err := tx.Exec(ctx,
		`UPDATE users SET level = $1, exp = $2 WHERE id = $3`,
		newLevel, newXP, userID,
	); err != nil {
		return nil, err
	}

	res := &AwardResult{Level: newLevel, XP: newXP, LeveledUp: leveledUp}
	if !leveledUp {
		return res, nil
	}

	reward := domain.LevelReward(newLevel)
	if err := reward.Apply(ctx, tx, userID); err != nil {
		return nil, err
	}
	res.Reward = reward

	if cr, ok := reward.(domain.CurrencyReward); ok {
		record := &domain.Transaction{
			UserID: userID,
			Type:   "level_reward",
			Amount: cr.Amount,
			Meta:   map[string]interface{}{"level": newLevel},
		}
		if err := s.transactionRepo.CreateWithTx(ctx, tx, record); err != nil {
			return nil, err
		}
	}

	metrics.LevelUps.Inc()
	s.log.Info("level up", "user_id", userID, "level", newLevel, "reward", reward.Describe())
	return res, nil
}

// PrestigeStatus describes the user's prestige and the price of the next
// one.
type PrestigeStatus struct {
	Prestige int64
	NextCost int64
	Currency int64
}

func (s *ProgressionService) PrestigeStatus(ctx context.Context, userID int64) (*PrestigeStatus, error) {
	var (
		prestige int64
		currency int64
	)
	err := s.db.QueryRow(ctx, `SELECT prestige, currency FROM users WHERE id = $1`, userID).Scan(&prestige, &currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &PrestigeStatus{
		Prestige: prestige,
		NextCost: domain.PrestigeCost(prestige, s.prestigeBaseCost),
		Currency: currency,
	}, nil
}

// PrestigeUp performs the full soft reset: requires the current prestige
// price, then increments prestige, resets level and xp, sets the balance to
// 1000 * new prestige and clears all ownership. Everything commits or
// nothing does.
func (s *ProgressionService) PrestigeUp(ctx context.Context, userID int64) (*PrestigeStatus, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		balance  int64
		prestige int64
	)
	err = tx.QueryRow(ctx,
		`SELECT currency, prestige FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance, &prestige)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	cost := domain.PrestigeCost(prestige, s.prestigeBaseCost)
	if balance < cost {
		return nil, ErrInsufficientFunds
	}

	newPrestige := prestige + 1
	newBalance := domain.PrestigeResetCurrency(newPrestige)

	if _, err := tx.Exec(ctx,
		`UPDATE users SET prestige = $1, level = 1, exp = 0, currency = $2 WHERE id = $3`,
		newPrestige, newBalance, userID,
	); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM users_buildings WHERE user_id = $1`, userID,
	); err != nil {
		return nil, err
	}

	record := &domain.Transaction{
		UserID: userID,
		Type:   "prestige",
		Amount: newBalance - balance,
		Meta:   map[string]interface{}{"prestige": newPrestige, "cost": cost},
	}
	if err := s.transactionRepo.CreateWithTx(ctx, tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.Prestiges.Inc()
	s.log.Info("prestige up", "user_id", userID, "prestige", newPrestige)

	return &PrestigeStatus{
		Prestige: newPrestige,
		NextCost: domain.PrestigeCost(newPrestige, s.prestigeBaseCost),
		Currency: newBalance,
	}, nil
}
