package locations

import (
	"context"

	"github.com/ananddevocation/tripdesk/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, name string) (*models.Location, error)
	List(ctx context.Context) ([]*models.Location, error)
	Delete(ctx context.Context, id string) error
}
