package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ananddevocation/tripdesk/internal/common"
	"github.com/ananddevocation/tripdesk/internal/dbx"
	"github.com/ananddevocation/tripdesk/internal/server/models"
)

const selectColumns = `SELECT id, name, email, phone, password_hash, role, is_active, created_at, updated_at
		 FROM accounts`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {

	query :=
		`INSERT INTO accounts (name, email, phone, password_hash, role, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.Name, account.Email, account.Phone, account.PasswordHash, string(account.Role), account.IsActive).
		Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := selectColumns + `
		 WHERE email = $1
		 `
	return r.scanOne(ctx, query, email)
}

func (r *PostgresRepository) FindByEmailForUpdate(ctx context.Context, email string) (*models.Account, error) {
	query := selectColumns + `
		 WHERE email = $1
		 FOR UPDATE
		 `
	return r.scanOne(ctx, query, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := selectColumns + `
		 WHERE id = $1
		 `
	return r.scanOne(ctx, query, id)
}

// Update persists the profile fields (name, phone) of account.
func (r *PostgresRepository) Update(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`UPDATE accounts SET name = $2, phone = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, account.ID, account.Name, account.Phone).Scan(&account.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	query :=
		`UPDATE accounts SET password_hash = $2, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, passwordHash)
}

func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	query :=
		`UPDATE accounts SET is_active = $2, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, active)
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*models.Account, error) {
	a := &models.Account{}
	var role string

	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.PasswordHash, &role, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	a.Role = models.Role(role)
	return a, nil
}

// execOne runs an update that must touch exactly one row.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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
