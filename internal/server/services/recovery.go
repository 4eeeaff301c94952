package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ananddevocation/tripdesk/internal/common"
	"github.com/ananddevocation/tripdesk/internal/dbx"
	"github.com/ananddevocation/tripdesk/internal/logging"
	"github.com/ananddevocation/tripdesk/internal/server/auth"
	"github.com/ananddevocation/tripdesk/internal/server/config"
	"github.com/ananddevocation/tripdesk/internal/server/models"
	"github.com/ananddevocation/tripdesk/internal/server/repositories/repomanager"
)

// ForgotPasswordAck is returned for every forgot-password request, whether
// or not the email belongs to an account.
const ForgotPasswordAck = "If the account exists, an OTP has been sent"

// generateOTP is a seam for tests that need to know the issued code.
var generateOTP = auth.GenerateOTP

// RecoveryService implements password reset by one-time code:
// ForgotPassword issues a code, VerifyOTP checks it without consuming it
// and ResetPassword checks and consumes it while setting the new password.
type RecoveryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.Hasher
	notifier    Notifier
	otpTTL      time.Duration
	now         func() time.Time
	logger      logging.Logger
}

func NewRecoveryService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.Hasher, notifier Notifier,
	cfg *config.Config, logger logging.Logger) *RecoveryService {
	return &RecoveryService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		notifier:    notifier,
		otpTTL:      cfg.OTPTTL,
		now:         time.Now,
		logger:      logger.With("module", "recovery"),
	}
}

// ForgotPassword issues a new code for a known email. Unknown emails get the
// same acknowledgment and leave no record. Older unused codes stay in place;
// only the newest one is ever accepted.
func (s *RecoveryService) ForgotPassword(ctx context.Context, email string) (string, error) {
	account, err := s.repomanager.Accounts(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ForgotPasswordAck, nil
		}
		s.logger.Error(ctx, "account lookup failed", "error", err)
		return "", common.ErrorInternal
	}

	code, err := generateOTP()
	if err != nil {
		s.logger.Error(ctx, "otp generation failed", "error", err)
		return "", common.ErrorInternal
	}

	hash, err := s.hasher.Hash(code)
	if err != nil {
		s.logger.Error(ctx, "otp hashing failed", "error", err)
		return "", common.ErrorInternal
	}

	req := &models.PasswordResetRequest{
		AccountID: account.ID,
		OTPHash:   hash,
		ExpiresAt: auth.OTPExpiry(s.now(), s.otpTTL),
	}
	if _, err := s.repomanager.PasswordResets(s.db).Create(ctx, req); err != nil {
		s.logger.Error(ctx, "saving reset request failed", "error", err)
		return "", common.ErrorInternal
	}

	if err := s.notifier.SendResetCode(ctx, account, code, req.ExpiresAt); err != nil {
		s.logger.Error(ctx, "reset code delivery failed", "account_id", account.ID, "error", err)
	}

	return ForgotPasswordAck, nil
}

// VerifyOTP checks code against the newest unused request for email without
// consuming it. Every failure is common.ErrInvalidOtp.
func (s *RecoveryService) VerifyOTP(ctx context.Context, email, code string) error {
	account, err := s.repomanager.Accounts(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.VerifyDummy(code)
			return common.ErrInvalidOtp
		}
		s.logger.Error(ctx, "account lookup failed", "error", err)
		return common.ErrorInternal
	}

	req, err := s.repomanager.PasswordResets(s.db).FindLatestUnused(ctx, account.ID)
	if err != nil {
		return s.mapLookupErr(ctx, err)
	}

	return s.checkCode(req, code)
}

// ResetPassword re-validates code and, in one transaction, replaces the
// password hash and marks the request used. The account row and the request
// row are locked for the duration, so two concurrent resets with the same
// code cannot both succeed.
func (s *RecoveryService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if newPassword == "" {
		return common.ErrValidation
	}

	var accountID string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		account, err := s.repomanager.Accounts(tx).FindByEmailForUpdate(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidOtp
			}
			return err
		}

		accountID = account.ID
		resets := s.repomanager.PasswordResets(tx)

		req, err := resets.FindLatestUnusedForUpdate(ctx, account.ID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidOtp
			}
			return err
		}

		if err := s.checkCode(req, code); err != nil {
			return err
		}

		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrValidation, err)
		}

		if err := s.repomanager.Accounts(tx).UpdatePassword(ctx, account.ID, hash); err != nil {
			return err
		}

		if err := resets.MarkUsed(ctx, req.ID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidOtp
			}
			return err
		}

		return nil
	})

	switch {
	case err == nil:
		s.logger.Info(ctx, "password reset completed", "account_id", accountID)
		return nil
	case errors.Is(err, common.ErrInvalidOtp):
		return common.ErrInvalidOtp
	case errors.Is(err, common.ErrValidation):
		return err
	default:
		s.logger.Error(ctx, "password reset failed", "error", err)
		return common.ErrorInternal
	}
}

func (s *RecoveryService) checkCode(req *models.PasswordResetRequest, code string) error {
	if req.IsUsed || req.Expired(s.now()) {
		return common.ErrInvalidOtp
	}
	if !s.hasher.Verify(code, req.OTPHash) {
		return common.ErrInvalidOtp
	}
	return nil
}

func (s *RecoveryService) mapLookupErr(ctx context.Context, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrInvalidOtp
	}
	s.logger.Error(ctx, "reset request lookup failed", "error", err)
	return common.ErrorInternal
}
