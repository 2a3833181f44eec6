package domain

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// Reward is something granted to a user on level-up. Variants implement
// their own description and state mutation; the dispatcher never needs to
// know the concrete kind.
type Reward interface {
	Describe() string
	Apply(ctx context.Context, tx pgx.Tx, userID int64) error
}

// CurrencyReward grants a flat amount of currency.
type CurrencyReward struct {
	Amount int64
}

func (r CurrencyReward) Describe() string {
	return strconv.FormatInt(r.Amount, 10) + "$"
}

func (r CurrencyReward) Apply(ctx context.Context, tx pgx.Tx, userID int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE users SET currency = currency + $1 WHERE id = $2`,
		r.Amount, userID,
	)
	return err
}

// LevelReward looks up the reward granted for reaching a level.
// Currently every level pays level*2000 currency.
func LevelReward(level int) Reward {
	return CurrencyReward{Amount: int64(level) * 2000}
}
