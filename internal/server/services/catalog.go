package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ananddevocation/tripdesk/internal/common"
	"github.com/ananddevocation/tripdesk/internal/logging"
	"github.com/ananddevocation/tripdesk/internal/server/models"
	"github.com/ananddevocation/tripdesk/internal/server/repositories/repomanager"
)

type NewTrip struct {
	Title       string
	Description string
	LocationID  string
	AgentID     string
	StartDate   time.Time
	EndDate     time.Time
	Price       int64
	Capacity    int
}

// TripUpdate carries optional trip changes. Nil fields are left as they are.
type TripUpdate struct {
	Title       *string
	Description *string
	Price       *int64
	Capacity    *int
	Status      *models.TripStatus
	AgentID     *string
}

type NewAdvertisement struct {
	Title    string
	ImageURL string
	TripID   string
}

// CatalogService manages locations, trips and advertisements.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *CatalogService {
	return &CatalogService{db: db, repomanager: m, logger: logger.With("module", "catalog")}
}

func (s *CatalogService) CreateLocation(ctx context.Context, name string) (*models.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	loc, err := s.repomanager.Locations(s.db).Create(ctx, name)
	if err != nil {
		return nil, s.internal(ctx, "create location failed", err)
	}
	return loc, nil
}

func (s *CatalogService) ListLocations(ctx context.Context) ([]*models.Location, error) {
	locs, err := s.repomanager.Locations(s.db).List(ctx)
	if err != nil {
		return nil, s.internal(ctx, "list locations failed", err)
	}
	return locs, nil
}

// DeleteLocation removes a location that no trip refers to.
func (s *CatalogService) DeleteLocation(ctx context.Context, id string) error {
	if err := s.repomanager.Locations(s.db).Delete(ctx, id); err != nil {
		return s.internal(ctx, "delete location failed", err)
	}
	return nil
}

// CreateTrip stores a new active trip in DRAFT status.
func (s *CatalogService) CreateTrip(ctx context.Context, in NewTrip) (*models.Trip, error) {
	if strings.TrimSpace(in.Title) == "" || in.LocationID == "" {
		return nil, fmt.Errorf("%w: title and location are required", common.ErrValidation)
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, fmt.Errorf("%w: end date before start date", common.ErrValidation)
	}
	if in.Price < 0 || in.Capacity < 0 {
		return nil, fmt.Errorf("%w: price and capacity must not be negative", common.ErrValidation)
	}

	trip := &models.Trip{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		LocationID:  in.LocationID,
		AgentID:     in.AgentID,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Price:       in.Price,
		Capacity:    in.Capacity,
		Status:      models.TripDraft,
		IsActive:    true,
	}

	created, err := s.repomanager.Trips(s.db).Create(ctx, trip)
	if err != nil {
		return nil, s.internal(ctx, "create trip failed", err)
	}
	return created, nil
}

func (s *CatalogService) UpdateTrip(ctx context.Context, id string, upd TripUpdate) (*models.Trip, error) {
	repo := s.repomanager.Trips(s.db)

	trip, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.internal(ctx, "trip lookup failed", err)
	}

	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return nil, fmt.Errorf("%w: title must not be empty", common.ErrValidation)
		}
		trip.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		trip.Description = *upd.Description
	}
	if upd.Price != nil {
		if *upd.Price < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", common.ErrValidation)
		}
		trip.Price = *upd.Price
	}
	if upd.Capacity != nil {
		if *upd.Capacity < 0 {
			return nil, fmt.Errorf("%w: capacity must not be negative", common.ErrValidation)
		}
		trip.Capacity = *upd.Capacity
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", common.ErrValidation, *upd.Status)
		}
		trip.Status = *upd.Status
	}
	if upd.AgentID != nil {
		trip.AgentID = *upd.AgentID
	}

	updated, err := repo.Update(ctx, trip)
	if err != nil {
		return nil, s.internal(ctx, "update trip failed", err)
	}
	return updated, nil
}

func (s *CatalogService) DeactivateTrip(ctx context.Context, id string) error {
	if err := s.repomanager.Trips(s.db).SetActive(ctx, id, false); err != nil {
		return s.internal(ctx, "deactivate trip failed", err)
	}
	return nil
}

func (s *CatalogService) ListTrips(ctx context.Context) ([]*models.Trip, error) {
	trips, err := s.repomanager.Trips(s.db).List(ctx)
	if err != nil {
		return nil, s.internal(ctx, "list trips failed", err)
	}
	return trips, nil
}

// AssignedTrips lists the active trips an agent is responsible for.
func (s *CatalogService) AssignedTrips(ctx context.Context, agentID string) ([]*models.Trip, error) {
	trips, err := s.repomanager.Trips(s.db).ListByAgent(ctx, agentID)
	if err != nil {
		return nil, s.internal(ctx, "list assigned trips failed", err)
	}
	return trips, nil
}

// CreateAdvertisement attaches an active advertisement to an existing trip.
func (s *CatalogService) CreateAdvertisement(ctx context.Context, in NewAdvertisement) (*models.Advertisement, error) {
	if strings.TrimSpace(in.Title) == "" || in.ImageURL == "" || in.TripID == "" {
		return nil, fmt.Errorf("%w: title, image url and trip are required", common.ErrValidation)
	}

	if _, err := s.repomanager.Trips(s.db).GetByID(ctx, in.TripID); err != nil {
		return nil, s.internal(ctx, "trip lookup failed", err)
	}

	ad, err := s.repomanager.Advertisements(s.db).Create(ctx, &models.Advertisement{
		Title:    strings.TrimSpace(in.Title),
		ImageURL: in.ImageURL,
		TripID:   in.TripID,
		IsActive: true,
	})
	if err != nil {
		return nil, s.internal(ctx, "create advertisement failed", err)
	}
	return ad, nil
}

func (s *CatalogService) DeactivateAdvertisement(ctx context.Context, id string) error {
	if err := s.repomanager.Advertisements(s.db).SetActive(ctx, id, false); err != nil {
		return s.internal(ctx, "deactivate advertisement failed", err)
	}
	return nil
}

func (s *CatalogService) ListAdvertisements(ctx context.Context) ([]*models.Advertisement, error) {
	ads, err := s.repomanager.Advertisements(s.db).List(ctx)
	if err != nil {
		return nil, s.internal(ctx, "list advertisements failed", err)
	}
	return ads, nil
}

func (s *CatalogService) internal(ctx context.Context, msg string, err error) error {
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrConflict) {
		return err
	}
	s.logger.Error(ctx, msg, "error", err)
	return common.ErrorInternal
}
