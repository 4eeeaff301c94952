package httpapi

import (
	"net/http"
	"time"

	"github.com/ananddevocation/tripdesk/internal/server/models"
	"github.com/ananddevocation/tripdesk/internal/server/services"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type locationRequest struct {
	Name string `json:"name"`
}

type agentRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type tripRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	LocationID  string `json:"location_id"`
	AgentID     string `json:"agent_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Price       int64  `json:"price"`
	Capacity    int    `json:"capacity"`
}

type tripUpdateRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Price       *int64             `json:"price"`
	Capacity    *int               `json:"capacity"`
	Status      *models.TripStatus `json:"status"`
	AgentID     *string            `json:"agent_id"`
}

type advertisementRequest struct {
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	TripID   string `json:"trip_id"`
}

type uploadURLRequest struct {
	ContentType string `json:"content_type"`
}

func (s *Server) createLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	loc, err := s.deps.Catalog.CreateLocation(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loc)
}

func (s *Server) listLocations(c *gin.Context) {
	locs, err := s.deps.Catalog.ListLocations(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, locs)
}

func (s *Server) deleteLocation(c *gin.Context) {
	if err := s.deps.Catalog.DeleteLocation(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Location deleted"})
}

func (s *Server) createAgent(c *gin.Context) {
	var req agentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	agent, err := s.deps.Accounts.CreateAgent(c.Request.Context(), services.NewAccount{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Agent created successfully",
		"agent_id": agent.ID,
		"email":    agent.Email,
	})
}

func (s *Server) deactivateAgent(c *gin.Context) {
	id := c.Param("id")
	if err := s.deps.Accounts.DeactivateAgent(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Agent deactivated successfully", "agent_id": id})
}

func (s *Server) createTrip(c *gin.Context) {
	var req tripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		badRequest(c)
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		badRequest(c)
		return
	}

	trip, err := s.deps.Catalog.CreateTrip(c.Request.Context(), services.NewTrip{
		Title:       req.Title,
		Description: req.Description,
		LocationID:  req.LocationID,
		AgentID:     req.AgentID,
		StartDate:   start,
		EndDate:     end,
		Price:       req.Price,
		Capacity:    req.Capacity,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

func (s *Server) listTrips(c *gin.Context) {
	trips, err := s.deps.Catalog.ListTrips(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, trips)
}

func (s *Server) updateTrip(c *gin.Context) {
	var req tripUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	trip, err := s.deps.Catalog.UpdateTrip(c.Request.Context(), c.Param("id"), services.TripUpdate{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Capacity:    req.Capacity,
		Status:      req.Status,
		AgentID:     req.AgentID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (s *Server) deactivateTrip(c *gin.Context) {
	if err := s.deps.Catalog.DeactivateTrip(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Trip deactivated"})
}

func (s *Server) createAdvertisement(c *gin.Context) {
	var req advertisementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	ad, err := s.deps.Catalog.CreateAdvertisement(c.Request.Context(), services.NewAdvertisement{
		Title:    req.Title,
		ImageURL: req.ImageURL,
		TripID:   req.TripID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ad)
}

func (s *Server) listAdvertisements(c *gin.Context) {
	ads, err := s.deps.Catalog.ListAdvertisements(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ads)
}

func (s *Server) deactivateAdvertisement(c *gin.Context) {
	if err := s.deps.Catalog.DeactivateAdvertisement(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Advertisement deactivated"})
}

// advertisementUploadURL hands out a presigned PUT; the client uploads the
// image directly and then creates the advertisement with the public URL.
func (s *Server) advertisementUploadURL(c *gin.Context) {
	var req uploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	task, err := s.deps.Media.AdvertisementUploadURL(c.Request.Context(), req.ContentType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}
