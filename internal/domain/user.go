package domain

import "time"

type User struct {
	ID           int64     `db:"id"`
	TgID         int64     `db:"tg_id"`
	Username     string    `db:"username"`
	FirstName    string    `db:"first_name"`
	Currency     int64     `db:"currency"`
	Prestige     int64     `db:"prestige"`
	Level        int       `db:"level"`
	XP           int64     `db:"exp"`
	ActiveTaskID *int64    `db:"active_task_id"`
	CreatedAt    time.Time `db:"created_at"`
}
