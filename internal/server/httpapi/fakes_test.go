package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ananddevocation/tripdesk/internal/common"
	"github.com/ananddevocation/tripdesk/internal/logging"
	"github.com/ananddevocation/tripdesk/internal/server/config"
	"github.com/ananddevocation/tripdesk/internal/server/models"
	"github.com/ananddevocation/tripdesk/internal/server/services"
	"github.com/gin-gonic/gin"
)

func init() { gin.SetMode(gin.TestMode) }

var (
	adminAcc = &models.Account{ID: "adm-1", Email: "admin@example.com", Role: models.RoleAdmin, IsActive: true}
	agentAcc = &models.Account{ID: "ag-1", Email: "agent@example.com", Role: models.RoleAgent, IsActive: true}
	userAcc  = &models.Account{ID: "u-1", Email: "u@example.com", Role: models.RoleUser, IsActive: true}
)

type fakeAuth struct {
	resp *services.TokenResponse
	err  error

	email, password string
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*services.TokenResponse, error) {
	f.email, f.password = email, password
	return f.resp, f.err
}

// fakeGate knows one token per role.
type fakeGate struct{}

func (fakeGate) Authenticate(_ context.Context, token string) (*models.Account, error) {
	switch token {
	case "admin-token":
		return adminAcc, nil
	case "agent-token":
		return agentAcc, nil
	case "user-token":
		return userAcc, nil
	}
	return nil, common.ErrUnauthenticated
}

func (fakeGate) RequireRole(a *models.Account, role models.Role) (*models.Account, error) {
	if a == nil || a.Role != role {
		return nil, common.ErrForbidden
	}
	return a, nil
}

type fakeRecovery struct {
	verifyErr error
	resetErr  error
	forgotErr error

	resetArgs []string
}

func (f *fakeRecovery) ForgotPassword(context.Context, string) (string, error) {
	if f.forgotErr != nil {
		return "", f.forgotErr
	}
	return services.ForgotPasswordAck, nil
}

func (f *fakeRecovery) VerifyOTP(context.Context, string, string) error { return f.verifyErr }

func (f *fakeRecovery) ResetPassword(_ context.Context, email, code, pw string) error {
	f.resetArgs = []string{email, code, pw}
	return f.resetErr
}

type fakeAccounts struct {
	err         error
	deactivated string
	lastUpdate  services.ProfileUpdate
}

func (f *fakeAccounts) Register(_ context.Context, in services.NewAccount) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Account{ID: "new-1", Name: in.Name, Email: in.Email, PasswordHash: "secret-hash", Role: models.RoleUser, IsActive: true}, nil
}

func (f *fakeAccounts) CreateAgent(_ context.Context, in services.NewAccount) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Account{ID: "ag-2", Email: in.Email, Role: models.RoleAgent, IsActive: true}, nil
}

func (f *fakeAccounts) UpdateProfile(_ context.Context, a *models.Account, upd services.ProfileUpdate) (*models.Account, error) {
	f.lastUpdate = upd
	cp := *a
	if upd.Name != nil {
		cp.Name = *upd.Name
	}
	return &cp, f.err
}

func (f *fakeAccounts) Deactivate(_ context.Context, a *models.Account) error {
	f.deactivated = a.ID
	return f.err
}

func (f *fakeAccounts) DeactivateAgent(_ context.Context, id string) error {
	if id != agentAcc.ID {
		return common.ErrorNotFound
	}
	return f.err
}

type fakeCatalog struct {
	err     error
	newTrip services.NewTrip
	update  services.TripUpdate
}

func (f *fakeCatalog) CreateLocation(_ context.Context, name string) (*models.Location, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Location{ID: "loc-1", Name: name}, nil
}

func (f *fakeCatalog) ListLocations(context.Context) ([]*models.Location, error) {
	return []*models.Location{{ID: "loc-1", Name: "Goa"}}, f.err
}

func (f *fakeCatalog) DeleteLocation(context.Context, string) error { return f.err }

func (f *fakeCatalog) CreateTrip(_ context.Context, in services.NewTrip) (*models.Trip, error) {
	f.newTrip = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Trip{ID: "trip-1", Title: in.Title, Status: models.TripDraft, IsActive: true}, nil
}

func (f *fakeCatalog) UpdateTrip(_ context.Context, id string, upd services.TripUpdate) (*models.Trip, error) {
	f.update = upd
	if f.err != nil {
		return nil, f.err
	}
	return &models.Trip{ID: id}, nil
}

func (f *fakeCatalog) DeactivateTrip(context.Context, string) error { return f.err }

func (f *fakeCatalog) ListTrips(context.Context) ([]*models.Trip, error) {
	return []*models.Trip{{ID: "trip-1"}}, f.err
}

func (f *fakeCatalog) AssignedTrips(_ context.Context, agentID string) ([]*models.Trip, error) {
	return []*models.Trip{{ID: "trip-1", AgentID: agentID}}, f.err
}

func (f *fakeCatalog) CreateAdvertisement(_ context.Context, in services.NewAdvertisement) (*models.Advertisement, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Advertisement{ID: "ad-1", Title: in.Title, TripID: in.TripID, IsActive: true}, nil
}

func (f *fakeCatalog) DeactivateAdvertisement(context.Context, string) error { return f.err }

func (f *fakeCatalog) ListAdvertisements(context.Context) ([]*models.Advertisement, error) {
	return []*models.Advertisement{{ID: "ad-1"}}, f.err
}

type fakeMedia struct{ err error }

func (f fakeMedia) AdvertisementUploadURL(_ context.Context, contentType string) (*models.UploadTask, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.UploadTask{Key: "advertisements/k.png", URL: "https://signed", PublicURL: "https://public/k.png", ExpiresAt: time.Unix(0, 0)}, nil
}

type testServer struct {
	srv      *Server
	handler  http.Handler
	auth     *fakeAuth
	recovery *fakeRecovery
	accounts *fakeAccounts
	catalog  *fakeCatalog
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.HTTPAddr = "127.0.0.1:0"

	ts := &testServer{
		auth:     &fakeAuth{resp: &services.TokenResponse{AccessToken: "tok", TokenType: common.TokenType}},
		recovery: &fakeRecovery{},
		accounts: &fakeAccounts{},
		catalog:  &fakeCatalog{},
	}
	ts.srv = NewServer(cfg, logging.Nop{}, Deps{
		Auth:     ts.auth,
		Gate:     fakeGate{},
		Recovery: ts.recovery,
		Accounts: ts.accounts,
		Catalog:  ts.catalog,
		Media:    fakeMedia{},
	})
	ts.handler = ts.srv.Handler()
	return ts
}

func (ts *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}
