package httpapi

import (
	"net/http"

	"github.com/ananddevocation/tripdesk/internal/server/services"
	"github.com/gin-gonic/gin"
)

type profileRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

func (s *Server) getMe(c *gin.Context) {
	c.JSON(http.StatusOK, currentAccount(c))
}

func (s *Server) updateMe(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	account, err := s.deps.Accounts.UpdateProfile(c.Request.Context(), currentAccount(c),
		services.ProfileUpdate{Name: req.Name, Phone: req.Phone})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

func (s *Server) deleteMe(c *gin.Context) {
	if err := s.deps.Accounts.Deactivate(c.Request.Context(), currentAccount(c)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deactivated successfully"})
}

func (s *Server) assignedTrips(c *gin.Context) {
	trips, err := s.deps.Catalog.AssignedTrips(c.Request.Context(), currentAccount(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, trips)
}
