package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ananddevocation/tripdesk/internal/common"
	"github.com/ananddevocation/tripdesk/internal/logging"
	"github.com/ananddevocation/tripdesk/internal/server/auth"
	"github.com/ananddevocation/tripdesk/internal/server/models"
	"github.com/ananddevocation/tripdesk/internal/server/repositories/repomanager"
)

// Gate resolves session tokens to active accounts and enforces roles.
type Gate struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	issuer      *auth.Issuer
	logger      logging.Logger
}

func NewGate(db *sql.DB, m repomanager.RepositoryManager, issuer *auth.Issuer, logger logging.Logger) *Gate {
	return &Gate{
		db:          db,
		repomanager: m,
		issuer:      issuer,
		logger:      logger.With("module", "gate"),
	}
}

// Authenticate returns the active account the token was issued to. Invalid
// or expired tokens, unknown subjects and deactivated accounts all yield
// common.ErrUnauthenticated.
func (g *Gate) Authenticate(ctx context.Context, token string) (*models.Account, error) {
	claims, err := g.issuer.Verify(token)
	if err != nil {
		g.logger.Debug(ctx, "token rejected", "error", err)
		return nil, common.ErrUnauthenticated
	}

	account, err := g.repomanager.Accounts(g.db).GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		g.logger.Error(ctx, "account lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !account.IsActive {
		return nil, common.ErrUnauthenticated
	}

	return account, nil
}

// RequireRole passes the account through when it holds role and fails with
// common.ErrForbidden otherwise.
func (g *Gate) RequireRole(account *models.Account, role models.Role) (*models.Account, error) {
	if account == nil || !role.Valid() || account.Role != role {
		return nil, common.ErrForbidden
	}
	return account, nil
}
