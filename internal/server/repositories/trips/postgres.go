package trips

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ananddevocation/tripdesk/internal/common"
	"github.com/ananddevocation/tripdesk/internal/dbx"
	"github.com/ananddevocation/tripdesk/internal/server/models"
)

const selectColumns = `SELECT id, title, description, location_id, agent_id, start_date, end_date,
		        price, capacity, status, is_active, created_at
		 FROM trips`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a trip. An unknown location or agent yields
// common.ErrorNotFound.
func (r *PostgresRepository) Create(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	query :=
		`INSERT INTO trips (title, description, location_id, agent_id, start_date, end_date, price, capacity, status, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		trip.Title, trip.Description, trip.LocationID, nullable(trip.AgentID),
		trip.StartDate, trip.EndDate, trip.Price, trip.Capacity, string(trip.Status), trip.IsActive).
		Scan(&trip.ID, &trip.CreatedAt)

	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return trip, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Trip, error) {
	query := selectColumns + `
		 WHERE id = $1
		 `

	trip, err := scanTrip(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return trip, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Trip, error) {
	query := selectColumns + `
		 ORDER BY start_date, created_at
		 `
	return r.list(ctx, query)
}

func (r *PostgresRepository) ListByAgent(ctx context.Context, agentID string) ([]*models.Trip, error) {
	query := selectColumns + `
		 WHERE agent_id = $1 AND is_active = true
		 ORDER BY start_date, created_at
		 `
	return r.list(ctx, query, agentID)
}

// Update persists the mutable fields of trip.
func (r *PostgresRepository) Update(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	query :=
		`UPDATE trips
		 SET title = $2, description = $3, price = $4, capacity = $5, status = $6, agent_id = $7
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		trip.ID, trip.Title, trip.Description, trip.Price, trip.Capacity, string(trip.Status), nullable(trip.AgentID))
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := expectOne(res); err != nil {
		return nil, err
	}
	return trip, nil
}

func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	query :=
		`UPDATE trips SET is_active = $2
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Trip, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrip(s scanner) (*models.Trip, error) {
	t := &models.Trip{}
	var agentID sql.NullString
	var status string

	err := s.Scan(&t.ID, &t.Title, &t.Description, &t.LocationID, &agentID, &t.StartDate, &t.EndDate,
		&t.Price, &t.Capacity, &status, &t.IsActive, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	t.AgentID = agentID.String
	t.Status = models.TripStatus(status)
	return t, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
