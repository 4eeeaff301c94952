package passwordresets

import (
	"context"

	"github.com/ananddevocation/tripdesk/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, req *models.PasswordResetRequest) (*models.PasswordResetRequest, error)
	// FindLatestUnused returns the newest unused request for the account,
	// ordered by expiry and then creation time. Expired requests are
	// returned too; callers decide.
	FindLatestUnused(ctx context.Context, accountID string) (*models.PasswordResetRequest, error)
	// FindLatestUnusedForUpdate is FindLatestUnused holding a row lock until
	// the surrounding transaction ends.
	FindLatestUnusedForUpdate(ctx context.Context, accountID string) (*models.PasswordResetRequest, error)
	// MarkUsed flips is_used to true. It returns common.ErrorNotFound when
	// the request does not exist or was already used.
	MarkUsed(ctx context.Context, id string) error
}
