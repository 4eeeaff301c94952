package trips

import (
	"context"

	"github.com/ananddevocation/tripdesk/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, trip *models.Trip) (*models.Trip, error)
	GetByID(ctx context.Context, id string) (*models.Trip, error)
	List(ctx context.Context) ([]*models.Trip, error)
	// ListByAgent returns the active trips assigned to an agent.
	ListByAgent(ctx context.Context, agentID string) ([]*models.Trip, error)
	Update(ctx context.Context, trip *models.Trip) (*models.Trip, error)
	SetActive(ctx context.Context, id string, active bool) error
}
