// Package services contains server-side business logic. Services hold a
// *sql.DB and a RepositoryManager and bind repositories either to the pool
// or to a transaction as each operation requires.
package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ananddevocation/tripdesk/internal/common"
	"github.com/ananddevocation/tripdesk/internal/logging"
	"github.com/ananddevocation/tripdesk/internal/server/auth"
	"github.com/ananddevocation/tripdesk/internal/server/config"
	"github.com/ananddevocation/tripdesk/internal/server/repositories/repomanager"
)

// TokenResponse is the result of a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthService exchanges email and password for a session token.
type AuthService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	hasher        *auth.Hasher
	issuer        *auth.Issuer
	requireActive bool
	logger        logging.Logger
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.Hasher, issuer *auth.Issuer,
	cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		db:            db,
		repomanager:   m,
		hasher:        hasher,
		issuer:        issuer,
		requireActive: cfg.LoginRequireActive,
		logger:        logger.With("module", "auth"),
	}
}

// Login verifies the credentials and issues a token carrying the account id
// and its current role. Unknown email and wrong password both return
// common.ErrInvalidCredentials, and both pay for one hash comparison.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	account, err := s.repomanager.Accounts(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.VerifyDummy(password)
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "account lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	if s.requireActive && !account.IsActive {
		return nil, common.ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(account.ID, account.Role)
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "login succeeded", "account_id", account.ID, "role", account.Role)

	return &TokenResponse{AccessToken: token, TokenType: common.TokenType}, nil
}
