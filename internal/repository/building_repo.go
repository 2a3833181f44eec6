package repository

import (
	"context"

	"tycoon_bot/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type BuildingRepository struct {
	db *pgxpool.Pool
}

func NewBuildingRepository(db *pgxpool.Pool) *BuildingRepository {
	return &BuildingRepository{db: db}
}

func (r *BuildingRepository) GetByID(ctx context.Context, id int64) (*domain.Building, error) {
	var b domain.Building
	err := r.db.QueryRow(ctx,
		`SELECT id, name, cost, income FROM buildings WHERE id = $1`, id,
	).Scan(&b.ID, &b.Name, &b.Cost, &b.Income)
	if err != nil {
		return nil, mapErr(err)
	}
	return &b, nil
}

func (r *BuildingRepository) List(ctx context.Context) ([]*domain.Building, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, cost, income FROM buildings ORDER BY cost`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Building
	for rows.Next() {
		var b domain.Building
		if err := rows.Scan(&b.ID, &b.Name, &b.Cost, &b.Income); err != nil {
			return nil, err
		}
		res = append(res, &b)
	}
	return res, rows.Err()
}

// GetOwnership returns how many of a building type the user owns. A missing
// relation means zero.
func (r *BuildingRepository) GetOwnership(ctx context.Context, userID, buildingID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(
			(SELECT count FROM users_buildings WHERE user_id = $1 AND building_id = $2), 0)`,
		userID, buildingID,
	).Scan(&count)
	return count, err
}

// ListOwned returns the user's ownership counts keyed by building id.
func (r *BuildingRepository) ListOwned(ctx context.Context, userID int64) (map[int64]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT building_id, count FROM users_buildings WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owned := make(map[int64]int64)
	for rows.Next() {
		var id, count int64
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		owned[id] = count
	}
	return owned, rows.Err()
}
