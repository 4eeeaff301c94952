package advertisements

import (
	"context"

	"github.com/ananddevocation/tripdesk/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, ad *models.Advertisement) (*models.Advertisement, error)
	List(ctx context.Context) ([]*models.Advertisement, error)
	SetActive(ctx context.Context, id string, active bool) error
}
