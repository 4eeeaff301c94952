package locations

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

// Create inserts a location. Names are unique; a duplicate yields
// common.ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, name string) (*models.Location, error) {
	query :=
		`INSERT INTO locations (name)
		 VALUES ($1)
		 RETURNING id
		 `

	loc := &models.Location{Name: name}
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&loc.ID); err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return loc, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Location, error) {
	query :=
		`SELECT id, name FROM locations
		 ORDER BY name
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Location
	for rows.Next() {
		loc := &models.Location{}
		if err := rows.Scan(&loc.ID, &loc.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// Delete removes a location. A location still referenced by trips yields
// common.ErrConflict.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query :=
		`DELETE FROM locations
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return common.ErrConflict
		}
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
