package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tycoon_bot/internal/domain"
	"tycoon_bot/internal/logger"
	"tycoon_bot/internal/metrics"
	"tycoon_bot/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrBuildingNotFound = errors.New("building not found")
)

// EconomyService owns passive income and the building ledger: the periodic
// currency tick, catalog views and atomic purchases.
type EconomyService struct {
	db              *pgxpool.Pool
	buildingRepo    *repository.BuildingRepository
	transactionRepo *repository.TransactionRepository
	tickInterval    time.Duration
	log             *slog.Logger
}

func NewEconomyService(db *pgxpool.Pool, tickInterval time.Duration) *EconomyService {
	return &EconomyService{
		db:              db,
		buildingRepo:    repository.NewBuildingRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		tickInterval:    tickInterval,
		log:             logger.Component("economy"),
	}
}

// ListBuildings returns the catalog as the user sees it: income multiplied
// by their prestige, with current ownership counts.
func (s *EconomyService) ListBuildings(ctx context.Context, userID int64) ([]domain.BuildingView, error) {
	var prestige int64
	err := s.db.QueryRow(ctx, `SELECT prestige FROM users WHERE id = $1`, userID).Scan(&prestige)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	buildings, err := s.buildingRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	owned, err := s.buildingRepo.ListOwned(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]domain.BuildingView, 0, len(buildings))
	for _, b := range buildings {
		views = append(views, b.View(prestige, owned[b.ID]))
	}
	return views, nil
}

// PurchaseResult is the typed outcome of a purchase attempt. A decline is
// not an error; the caller decides the user-facing message.
type PurchaseResult struct {
	Purchased  bool
	Building   domain.Building
	NewBalance int64
	Owned      int64
}

// PurchaseBuilding atomically checks affordability, debits the cost and
// increments ownership. The user row is locked for the whole sequence so a
// concurrent tick or duplicate tap can neither double-charge nor interleave
// a torn update.
func (s *EconomyService) PurchaseBuilding(ctx context.Context, userID, buildingID int64) (*PurchaseResult, error) {
	building, err := s.buildingRepo.GetByID(ctx, buildingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBuildingNotFound
		}
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var balance int64
	err = tx.QueryRow(ctx, `SELECT currency FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if balance < building.Cost {
		metrics.PurchasesTotal.WithLabelValues("declined").Inc()
		return &PurchaseResult{Purchased: false, Building: *building, NewBalance: balance}, nil
	}

	var newBalance int64
	err = tx.QueryRow(ctx,
		`UPDATE users SET currency = currency - $1 WHERE id = $2 RETURNING currency`,
		building.Cost, userID,
	).Scan(&newBalance)
	if err != nil {
		return nil, err
	}

	var owned int64
	err = tx.QueryRow(ctx,
		`INSERT INTO users_buildings (user_id, building_id, count)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (user_id, building_id) DO UPDATE SET count = users_buildings.count + 1
		 RETURNING count`,
		userID, buildingID,
	).Scan(&owned)
	if err != nil {
		return nil, err
	}

	record := &domain.Transaction{
		UserID: userID,
		Type:   "building_purchase",
		Amount: -building.Cost,
		Meta:   map[string]interface{}{"building_id": buildingID, "owned": owned},
	}
	if err := s.transactionRepo.CreateWithTx(ctx, tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.PurchasesTotal.WithLabelValues("purchased").Inc()
	s.log.Info("building purchased", "user_id", userID, "building_id", buildingID, "owned", owned)

	return &PurchaseResult{
		Purchased:  true,
		Building:   *building,
		NewBalance: newBalance,
		Owned:      owned,
	}, nil
}

// Tick applies exactly one tick's worth of passive income to every user
// owning at least one building: sum(count * income) * prestige, in a single
// batched statement. Row-level locking inside the UPDATE serializes against
// concurrent purchases, so either the tick's delta or the purchase's delta
// lands completely, never a torn mix.
func (s *EconomyService) Tick(ctx context.Context) error {
	start := time.Now()

	tag, err := s.db.Exec(ctx,
		`UPDATE users u
		 SET currency = currency + earned.total * u.prestige
		 FROM (
			SELECT ub.user_id, SUM(ub.count * b.income) AS total
			FROM users_buildings ub
			JOIN buildings b ON b.id = ub.building_id
			GROUP BY ub.user_id
		 ) earned
		 WHERE earned.user_id = u.id`,
	)
	if err != nil {
		metrics.TicksTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.TicksTotal.WithLabelValues("ok").Inc()
	metrics.TickDuration.Observe(time.Since(start).Seconds())
	s.log.Debug("currency ticked", "users", tag.RowsAffected())
	return nil
}

// RunTicker fires Tick on the configured interval for the lifetime of the
// process. A failed tick is logged and skipped; the next interval retries.
func (s *EconomyService) RunTicker(ctx context.Context) {
	s.log.Info("currency ticker started", "interval", s.tickInterval)
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("currency ticker stopped")
			return
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				s.log.Error("tick failed, will retry next interval", "error", err)
			}
		}
	}
}

// CurrencyStatus returns the user's balance and income per tick.
func (s *EconomyService) CurrencyStatus(ctx context.Context, userID int64) (balance, income int64, err error) {
	err = s.db.QueryRow(ctx,
		`SELECT u.currency,
		        COALESCE((SELECT SUM(ub.count * b.income)
		                  FROM users_buildings ub
		                  JOIN buildings b ON b.id = ub.building_id
		                  WHERE ub.user_id = u.id), 0) * u.prestige
		 FROM users u WHERE u.id = $1`,
		userID,
	).Scan(&balance, &income)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrUserNotFound
		}
		return 0, 0, err
	}
	return balance, income, nil
}
