package services

import (
	"context"
	"time"

	"github.com/ananddevocation/tripdesk/internal/logging"
	"github.com/ananddevocation/tripdesk/internal/server/models"
)

// Notifier delivers a freshly issued recovery code to the account holder.
type Notifier interface {
	SendResetCode(ctx context.Context, account *models.Account, code string, expiresAt time.Time) error
}

// LogNotifier records that a code was issued. It never writes the code
// itself; it stands in until a mail or SMS gateway is configured.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "notifier")}
}

func (n *LogNotifier) SendResetCode(ctx context.Context, account *models.Account, _ string, expiresAt time.Time) error {
	n.logger.Info(ctx, "password reset code issued", "account_id", account.ID, "email", account.Email, "expires_at", expiresAt)
	return nil
}
