package httpapi

import (
	"errors"
	"net/http"

	"github.com/ananddevocation/tripdesk/internal/common"
	"github.com/gin-gonic/gin"
)

// errorStatus maps a service error to a status code and the message shown
// to the client. Anything unrecognised becomes a bare 500.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized, "Not authenticated"
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, common.ErrInvalidOtp):
		return http.StatusBadRequest, "Invalid or expired OTP"
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict, "Already exists"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "Not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeError(c *gin.Context, err error) {
	status, msg := errorStatus(err)
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.JSON(status, gin.H{"detail": msg})
}

func abortWithError(c *gin.Context, err error) {
	writeError(c, err)
	c.Abort()
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
}
