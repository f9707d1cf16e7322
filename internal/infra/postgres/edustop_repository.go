package postgres

import (
	"context"
	"errors"

	"edustop-service/internal/domain"
	"edustop-service/internal/geo"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// EduStopRepository reads EduStops from Postgres.
type EduStopRepository struct {
	pool *pgxpool.Pool
}

func NewEduStopRepository(pool *pgxpool.Pool) *EduStopRepository {
	return &EduStopRepository{pool: pool}
}

func (r *EduStopRepository) GetEduStop(ctx context.Context, id string) (domain.EduStop, error) {
	var stop domain.EduStop
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, latitude, longitude FROM edustops WHERE id = $1`, id,
	).Scan(&stop.ID, &stop.Name, &stop.Latitude, &stop.Longitude)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.EduStop{}, domain.ErrTargetNotFound
	}
	if err != nil {
		return domain.EduStop{}, storageErr("load edustop", err)
	}
	return stop, nil
}

// searchSQL uses the same equirectangular approximation as geo.Distance.
const searchSQL = `
SELECT id, name, latitude, longitude FROM (
	SELECT id, name, latitude, longitude,
		sqrt(
			power((latitude - $1) * $4, 2) +
			power((longitude - $2) * $4 * cos(radians((latitude + $1) / 2)), 2)
		) AS distance_km
	FROM edustops
) AS s
WHERE distance_km <= $3
ORDER BY distance_km ASC, id ASC`

func (r *EduStopRepository) SearchEduStops(ctx context.Context, center domain.Coordinate, radiusKm float64) ([]domain.EduStop, error) {
	kmPerDegree := geo.MetersPerDegree / 1000
	rows, err := r.pool.Query(ctx, searchSQL, center.Latitude, center.Longitude, radiusKm, kmPerDegree)
	if err != nil {
		return nil, storageErr("search edustops", err)
	}
	defer rows.Close()

	stops := []domain.EduStop{}
	for rows.Next() {
		var stop domain.EduStop
		if err := rows.Scan(&stop.ID, &stop.Name, &stop.Latitude, &stop.Longitude); err != nil {
			return nil, storageErr("scan edustop", err)
		}
		stops = append(stops, stop)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("search edustops", err)
	}
	return stops, nil
}
