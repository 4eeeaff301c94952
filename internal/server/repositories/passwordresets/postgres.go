package passwordresets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ananddevocation/tripdesk/internal/common"
	"github.com/ananddevocation/tripdesk/internal/dbx"
	"github.com/ananddevocation/tripdesk/internal/server/models"
)

const latestUnused = `SELECT id, account_id, otp_hash, expires_at, is_used, created_at
		 FROM password_reset_requests
		 WHERE account_id = $1 AND is_used = false
		 ORDER BY expires_at DESC, created_at DESC
		 LIMIT 1`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, req *models.PasswordResetRequest) (*models.PasswordResetRequest, error) {

	query :=
		`INSERT INTO password_reset_requests (account_id, otp_hash, expires_at, is_used)
		 VALUES ($1, $2, $3, false)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, req.AccountID, req.OTPHash, req.ExpiresAt).
		Scan(&req.ID, &req.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	req.IsUsed = false
	return req, nil
}

func (r *PostgresRepository) FindLatestUnused(ctx context.Context, accountID string) (*models.PasswordResetRequest, error) {
	return r.scanOne(ctx, latestUnused, accountID)
}

func (r *PostgresRepository) FindLatestUnusedForUpdate(ctx context.Context, accountID string) (*models.PasswordResetRequest, error) {
	return r.scanOne(ctx, latestUnused+`
		 FOR UPDATE`, accountID)
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, id string) error {
	query :=
		`UPDATE password_reset_requests SET is_used = true
		 WHERE id = $1 AND is_used = false
		 `

	res, err := r.db.ExecContext(ctx, query, id)
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

func (r *PostgresRepository) scanOne(ctx context.Context, query string, accountID string) (*models.PasswordResetRequest, error) {
	req := &models.PasswordResetRequest{}

	err := r.db.QueryRowContext(ctx, query, accountID).
		Scan(&req.ID, &req.AccountID, &req.OTPHash, &req.ExpiresAt, &req.IsUsed, &req.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return req, nil
}
