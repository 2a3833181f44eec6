package repository

import (
	"context"
	"errors"
	"log/slog"

	"tycoon_bot/internal/domain"
	"tycoon_bot/internal/logger"
)

// UserStore is the ledger surface the frontends consume. Implemented by
// UserRepository and by LoggingUserStore, which decorates every call with
// uniform logging instead of per-method wrappers.
type UserStore interface {
	GetByTgID(ctx context.Context, tgID int64) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Exists(ctx context.Context, tgID int64) (bool, error)
	UpdateCurrency(ctx context.Context, userID int64, delta int64) (int64, error)
	IncomePerTick(ctx context.Context, userID int64) (int64, error)
}

type LoggingUserStore struct {
	next UserStore
	log  *slog.Logger
}

func WithLogging(next UserStore) *LoggingUserStore {
	return &LoggingUserStore{next: next, log: logger.Component("user_store")}
}

// observe logs failures once, at the store boundary. Business declines
// (ErrNotFound, ErrInsufficientFunds) are debug noise, real store errors are
// errors.
func (s *LoggingUserStore) observe(op string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrConflict) {
		s.log.Debug("store decline", "op", op, "reason", err)
		return
	}
	s.log.Error("store error", "op", op, "error", err)
}

func (s *LoggingUserStore) GetByTgID(ctx context.Context, tgID int64) (*domain.User, error) {
	u, err := s.next.GetByTgID(ctx, tgID)
	s.observe("GetByTgID", err)
	return u, err
}

func (s *LoggingUserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.next.GetByID(ctx, id)
	s.observe("GetByID", err)
	return u, err
}

func (s *LoggingUserStore) Create(ctx context.Context, u *domain.User) error {
	err := s.next.Create(ctx, u)
	s.observe("Create", err)
	if err == nil {
		s.log.Info("user registered", "tg_id", u.TgID, "id", u.ID)
	}
	return err
}

func (s *LoggingUserStore) Exists(ctx context.Context, tgID int64) (bool, error) {
	ok, err := s.next.Exists(ctx, tgID)
	s.observe("Exists", err)
	return ok, err
}

func (s *LoggingUserStore) UpdateCurrency(ctx context.Context, userID int64, delta int64) (int64, error) {
	balance, err := s.next.UpdateCurrency(ctx, userID, delta)
	s.observe("UpdateCurrency", err)
	return balance, err
}

func (s *LoggingUserStore) IncomePerTick(ctx context.Context, userID int64) (int64, error) {
	income, err := s.next.IncomePerTick(ctx, userID)
	s.observe("IncomePerTick", err)
	return income, err
}
