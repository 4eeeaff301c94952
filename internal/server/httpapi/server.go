// Package httpapi exposes the booking backend over HTTP using gin.
//
// Routes are grouped the way clients use them: /auth for login, /user for
// self-service and password recovery, /admin for back-office management and
// /agent for agent views. Role checks run as middleware after the bearer
// token has been resolved to an active account.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/ananddevocation/tripdesk/internal/logging"
	"github.com/ananddevocation/tripdesk/internal/server/config"
	"github.com/ananddevocation/tripdesk/internal/server/models"
	"github.com/ananddevocation/tripdesk/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*services.TokenResponse, error)
}

type Gatekeeper interface {
	Authenticate(ctx context.Context, token string) (*models.Account, error)
	RequireRole(account *models.Account, role models.Role) (*models.Account, error)
}

type Recovery interface {
	ForgotPassword(ctx context.Context, email string) (string, error)
	VerifyOTP(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

type Accounts interface {
	Register(ctx context.Context, in services.NewAccount) (*models.Account, error)
	CreateAgent(ctx context.Context, in services.NewAccount) (*models.Account, error)
	UpdateProfile(ctx context.Context, account *models.Account, upd services.ProfileUpdate) (*models.Account, error)
	Deactivate(ctx context.Context, account *models.Account) error
	DeactivateAgent(ctx context.Context, id string) error
}

type Catalog interface {
	CreateLocation(ctx context.Context, name string) (*models.Location, error)
	ListLocations(ctx context.Context) ([]*models.Location, error)
	DeleteLocation(ctx context.Context, id string) error
	CreateTrip(ctx context.Context, in services.NewTrip) (*models.Trip, error)
	UpdateTrip(ctx context.Context, id string, upd services.TripUpdate) (*models.Trip, error)
	DeactivateTrip(ctx context.Context, id string) error
	ListTrips(ctx context.Context) ([]*models.Trip, error)
	AssignedTrips(ctx context.Context, agentID string) ([]*models.Trip, error)
	CreateAdvertisement(ctx context.Context, in services.NewAdvertisement) (*models.Advertisement, error)
	DeactivateAdvertisement(ctx context.Context, id string) error
	ListAdvertisements(ctx context.Context) ([]*models.Advertisement, error)
}

type Media interface {
	AdvertisementUploadURL(ctx context.Context, contentType string) (*models.UploadTask, error)
}

// Deps are the services the handlers delegate to.
type Deps struct {
	Auth     Authenticator
	Gate     Gatekeeper
	Recovery Recovery
	Accounts Accounts
	Catalog  Catalog
	Media    Media
}

type Server struct {
	address         string
	allowedOrigins  []string
	shutdownTimeout time.Duration
	deps            Deps
	logger          logging.Logger
}

func NewServer(cfg *config.Config, l logging.Logger, deps Deps) *Server {
	return &Server{
		address:         cfg.HTTPAddr,
		allowedOrigins:  cfg.AllowedOrigins,
		shutdownTimeout: cfg.ShutdownTimeout,
		deps:            deps,
		logger:          l.With("module", "http_server"),
	}
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()

	allowed := make(map[string]bool, len(s.allowedOrigins))
	for _, o := range s.allowedOrigins {
		allowed[o] = true
	}
	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(origin string) bool { return allowed[origin] },
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(requestID(), s.accessLog(), gin.Recovery())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.POST("/auth/login", s.login)

	user := r.Group("/user")
	{
		user.POST("/register", s.register)
		user.POST("/forgot-password", s.forgotPassword)
		user.POST("/verify-otp", s.verifyOTP)
		user.POST("/reset-password", s.resetPassword)

		me := user.Group("/me", s.authenticate())
		me.GET("", s.getMe)
		me.PUT("", s.updateMe)
		me.DELETE("", s.deleteMe)
	}

	admin := r.Group("/admin", s.authenticate(), s.requireRole(models.RoleAdmin))
	{
		admin.POST("/locations", s.createLocation)
		admin.GET("/locations", s.listLocations)
		admin.DELETE("/locations/:id", s.deleteLocation)

		admin.POST("/agents", s.createAgent)
		admin.DELETE("/agents/:id", s.deactivateAgent)

		admin.POST("/trips", s.createTrip)
		admin.GET("/trips", s.listTrips)
		admin.PUT("/trips/:id", s.updateTrip)
		admin.DELETE("/trips/:id", s.deactivateTrip)

		admin.POST("/advertisements", s.createAdvertisement)
		admin.GET("/advertisements", s.listAdvertisements)
		admin.DELETE("/advertisements/:id", s.deactivateAdvertisement)
		admin.POST("/advertisements/upload-url", s.advertisementUploadURL)
	}

	agent := r.Group("/agent", s.authenticate(), s.requireRole(models.RoleAgent))
	agent.GET("/assigned-trips", s.assignedTrips)

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-stopped
}
