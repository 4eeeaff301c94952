package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ananddevocation/tripdesk/internal/common"
	"github.com/ananddevocation/tripdesk/internal/logging"
	"github.com/ananddevocation/tripdesk/internal/server/auth"
	"github.com/ananddevocation/tripdesk/internal/server/models"
	"github.com/ananddevocation/tripdesk/internal/server/repositories/repomanager"
)

// NewAccount is the input for self registration and agent provisioning.
type NewAccount struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// ProfileUpdate carries the profile fields an account holder may change.
// Nil fields are left as they are.
type ProfileUpdate struct {
	Name  *string
	Phone *string
}

// AccountService manages account lifecycle: registration, profile edits,
// soft deletion, agent provisioning and the bootstrap admin.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.Hasher
	logger      logging.Logger
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.Hasher, logger logging.Logger) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		logger:      logger.With("module", "accounts"),
	}
}

// Register creates an active USER account. A taken email yields
// common.ErrConflict.
func (s *AccountService) Register(ctx context.Context, in NewAccount) (*models.Account, error) {
	return s.create(ctx, in, models.RoleUser)
}

// CreateAgent provisions an active AGENT account.
func (s *AccountService) CreateAgent(ctx context.Context, in NewAccount) (*models.Account, error) {
	return s.create(ctx, in, models.RoleAgent)
}

func (s *AccountService) UpdateProfile(ctx context.Context, account *models.Account, upd ProfileUpdate) (*models.Account, error) {
	changed := *account
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", common.ErrValidation)
		}
		changed.Name = name
	}
	if upd.Phone != nil {
		changed.Phone = strings.TrimSpace(*upd.Phone)
	}

	updated, err := s.repomanager.Accounts(s.db).Update(ctx, &changed)
	if err != nil {
		return nil, s.internal(ctx, "profile update failed", err)
	}
	return updated, nil
}

// Deactivate soft-deletes the account. Tokens already issued to it stop
// being honored on the next request.
func (s *AccountService) Deactivate(ctx context.Context, account *models.Account) error {
	if err := s.repomanager.Accounts(s.db).SetActive(ctx, account.ID, false); err != nil {
		return s.internal(ctx, "deactivate failed", err)
	}
	s.logger.Info(ctx, "account deactivated", "account_id", account.ID)
	return nil
}

// DeactivateAgent soft-deletes an agent. Ids that do not belong to an agent
// yield common.ErrorNotFound.
func (s *AccountService) DeactivateAgent(ctx context.Context, id string) error {
	repo := s.repomanager.Accounts(s.db)

	agent, err := repo.GetByID(ctx, id)
	if err != nil {
		return s.internal(ctx, "agent lookup failed", err)
	}
	if agent.Role != models.RoleAgent {
		return common.ErrorNotFound
	}

	if err := repo.SetActive(ctx, id, false); err != nil {
		return s.internal(ctx, "deactivate agent failed", err)
	}
	s.logger.Info(ctx, "agent deactivated", "account_id", id)
	return nil
}

// SeedAdmin creates the bootstrap ADMIN account unless an account with the
// same email already exists. Running it repeatedly is harmless.
func (s *AccountService) SeedAdmin(ctx context.Context, email, password, name string) error {
	_, err := s.repomanager.Accounts(s.db).FindByEmail(ctx, email)
	if err == nil {
		s.logger.Debug(ctx, "default admin already present", "email", email)
		return nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("seed admin: %w", err)
	}

	_, err = s.create(ctx, NewAccount{Name: name, Email: email, Password: password}, models.RoleAdmin)
	if errors.Is(err, common.ErrConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	s.logger.Info(ctx, "default admin created", "email", email)
	return nil
}

func (s *AccountService) create(ctx context.Context, in NewAccount, role models.Role) (*models.Account, error) {
	if strings.TrimSpace(in.Name) == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", common.ErrValidation)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	account := &models.Account{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}

	created, err := s.repomanager.Accounts(s.db).Create(ctx, account)
	if err != nil {
		return nil, s.internal(ctx, "account create failed", err)
	}

	s.logger.Info(ctx, "account created", "account_id", created.ID, "role", role)
	return created, nil
}

// internal passes domain sentinels through and hides everything else
// behind common.ErrorInternal.
func (s *AccountService) internal(ctx context.Context, msg string, err error) error {
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrConflict) {
		return err
	}
	s.logger.Error(ctx, msg, "error", err)
	return common.ErrorInternal
}
