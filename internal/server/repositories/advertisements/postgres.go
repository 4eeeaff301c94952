package advertisements

import (
	"context"
	"fmt"

	"github.com/ananddevocation/tripdesk/internal/common"
	"github.com/ananddevocation/tripdesk/internal/dbx"
	"github.com/ananddevocation/tripdesk/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an advertisement. An unknown trip yields
// common.ErrorNotFound.
func (r *PostgresRepository) Create(ctx context.Context, ad *models.Advertisement) (*models.Advertisement, error) {
	query :=
		`INSERT INTO advertisements (title, image_url, trip_id, is_active)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, ad.Title, ad.ImageURL, ad.TripID, ad.IsActive).
		Scan(&ad.ID, &ad.CreatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return ad, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Advertisement, error) {
	query :=
		`SELECT id, title, image_url, trip_id, is_active, created_at
		 FROM advertisements
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Advertisement
	for rows.Next() {
		ad := &models.Advertisement{}
		if err := rows.Scan(&ad.ID, &ad.Title, &ad.ImageURL, &ad.TripID, &ad.IsActive, &ad.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, ad)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	query :=
		`UPDATE advertisements SET is_active = $2
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
