package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/ananddevocation/tripdesk/internal/common"
	"github.com/ananddevocation/tripdesk/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-Id"

	requestIDKey = "request_id"
	accountKey   = "account"
)

// requestID propagates the caller's X-Request-Id or mints a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		}
		if status >= http.StatusInternalServerError {
			s.logger.Error(c.Request.Context(), "request", args...)
			return
		}
		s.logger.Info(c.Request.Context(), "request", args...)
	}
}

// authenticate resolves the bearer token to an active account and stores it
// on the gin context.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		if len(header) < len(common.BearerScheme) || !strings.EqualFold(header[:len(common.BearerScheme)], common.BearerScheme) {
			abortWithError(c, common.ErrUnauthenticated)
			return
		}

		token := strings.TrimSpace(header[len(common.BearerScheme):])
		account, err := s.deps.Gate.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(accountKey, account)
		c.Next()
	}
}

func (s *Server) requireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := s.deps.Gate.RequireRole(currentAccount(c), role); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

func currentAccount(c *gin.Context) *models.Account {
	v, ok := c.Get(accountKey)
	if !ok {
		return nil
	}
	a, _ := v.(*models.Account)
	return a
}
