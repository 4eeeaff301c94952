package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ananddevocation/tripdesk/internal/common"
	"github.com/ananddevocation/tripdesk/internal/dbx"
	"github.com/ananddevocation/tripdesk/internal/logging"
	"github.com/ananddevocation/tripdesk/internal/server/auth"
	"github.com/ananddevocation/tripdesk/internal/server/config"
	"github.com/ananddevocation/tripdesk/internal/server/models"
	"github.com/ananddevocation/tripdesk/internal/server/repositories/accounts"
	"github.com/ananddevocation/tripdesk/internal/server/repositories/advertisements"
	"github.com/ananddevocation/tripdesk/internal/server/repositories/locations"
	"github.com/ananddevocation/tripdesk/internal/server/repositories/passwordresets"
	"github.com/ananddevocation/tripdesk/internal/server/repositories/trips"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// memStore backs the fake repositories. It ignores the handle it is bound
// to, so transactions are only visible through the sqlmock expectations.
type memStore struct {
	mu        sync.Mutex
	seq       int
	accounts  map[string]*models.Account
	resets    []*models.PasswordResetRequest
	locations map[string]*models.Location
	trips     map[string]*models.Trip
	ads       map[string]*models.Advertisement

	// injected failures
	accountsErr error
	resetsErr   error
	markUsedErr error
	tripsErr    error
}

func newMemStore() *memStore {
	return &memStore{
		accounts:  map[string]*models.Account{},
		locations: map[string]*models.Location{},
		trips:     map[string]*models.Trip{},
		ads:       map[string]*models.Advertisement{},
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository        { return (*fakeAccounts)(m.s) }
func (m *fakeRepoManager) PasswordResets(dbx.DBTX) passwordresets.Repository {
	return (*fakeResets)(m.s)
}
func (m *fakeRepoManager) Locations(dbx.DBTX) locations.Repository { return (*fakeLocations)(m.s) }
func (m *fakeRepoManager) Trips(dbx.DBTX) trips.Repository         { return (*fakeTrips)(m.s) }
func (m *fakeRepoManager) Advertisements(dbx.DBTX) advertisements.Repository {
	return (*fakeAds)(m.s)
}

type fakeAccounts memStore

func (f *fakeAccounts) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountsErr != nil {
		return nil, s.accountsErr
	}
	for _, existing := range s.accounts {
		if existing.Email == a.Email {
			return nil, common.ErrConflict
		}
	}
	a.ID = s.nextID("acc")
	cp := *a
	s.accounts[a.ID] = &cp
	return a, nil
}

func (f *fakeAccounts) find(email string) (*models.Account, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountsErr != nil {
		return nil, s.accountsErr
	}
	for _, a := range s.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccounts) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	return f.find(email)
}

func (f *fakeAccounts) FindByEmailForUpdate(_ context.Context, email string) (*models.Account, error) {
	return f.find(email)
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*models.Account, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountsErr != nil {
		return nil, s.accountsErr
	}
	a, ok := s.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) Update(_ context.Context, a *models.Account) (*models.Account, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.accounts[a.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	stored.Name, stored.Phone = a.Name, a.Phone
	cp := *stored
	return &cp, nil
}

func (f *fakeAccounts) UpdatePassword(_ context.Context, id, hash string) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	stored.PasswordHash = hash
	return nil
}

func (f *fakeAccounts) SetActive(_ context.Context, id string, active bool) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	stored.IsActive = active
	return nil
}

type fakeResets memStore

func (f *fakeResets) Create(_ context.Context, r *models.PasswordResetRequest) (*models.PasswordResetRequest, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetsErr != nil {
		return nil, s.resetsErr
	}
	r.ID = s.nextID("otp")
	r.IsUsed = false
	r.CreatedAt = time.Unix(int64(s.seq), 0)
	cp := *r
	s.resets = append(s.resets, &cp)
	return r, nil
}

func (f *fakeResets) latest(accountID string) (*models.PasswordResetRequest, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetsErr != nil {
		return nil, s.resetsErr
	}
	var unused []*models.PasswordResetRequest
	for _, r := range s.resets {
		if r.AccountID == accountID && !r.IsUsed {
			unused = append(unused, r)
		}
	}
	if len(unused) == 0 {
		return nil, common.ErrorNotFound
	}
	sort.Slice(unused, func(i, j int) bool {
		if !unused[i].ExpiresAt.Equal(unused[j].ExpiresAt) {
			return unused[i].ExpiresAt.After(unused[j].ExpiresAt)
		}
		return unused[i].CreatedAt.After(unused[j].CreatedAt)
	})
	cp := *unused[0]
	return &cp, nil
}

func (f *fakeResets) FindLatestUnused(_ context.Context, accountID string) (*models.PasswordResetRequest, error) {
	return f.latest(accountID)
}

func (f *fakeResets) FindLatestUnusedForUpdate(_ context.Context, accountID string) (*models.PasswordResetRequest, error) {
	return f.latest(accountID)
}

func (f *fakeResets) MarkUsed(_ context.Context, id string) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markUsedErr != nil {
		return s.markUsedErr
	}
	for _, r := range s.resets {
		if r.ID == id && !r.IsUsed {
			r.IsUsed = true
			return nil
		}
	}
	return common.ErrorNotFound
}

func (s *memStore) resetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resets)
}

type fakeLocations memStore

func (f *fakeLocations) Create(_ context.Context, name string) (*models.Location, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.locations {
		if l.Name == name {
			return nil, common.ErrConflict
		}
	}
	l := &models.Location{ID: s.nextID("loc"), Name: name}
	s.locations[l.ID] = l
	return l, nil
}

func (f *fakeLocations) List(context.Context) ([]*models.Location, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Location
	for _, l := range s.locations {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeLocations) Delete(_ context.Context, id string) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locations[id]; !ok {
		return common.ErrorNotFound
	}
	for _, t := range s.trips {
		if t.LocationID == id {
			return common.ErrConflict
		}
	}
	delete(s.locations, id)
	return nil
}

type fakeTrips memStore

func (f *fakeTrips) Create(_ context.Context, t *models.Trip) (*models.Trip, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tripsErr != nil {
		return nil, s.tripsErr
	}
	if _, ok := s.locations[t.LocationID]; !ok {
		return nil, common.ErrorNotFound
	}
	t.ID = s.nextID("trip")
	cp := *t
	s.trips[t.ID] = &cp
	return t, nil
}

func (f *fakeTrips) GetByID(_ context.Context, id string) (*models.Trip, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tripsErr != nil {
		return nil, s.tripsErr
	}
	t, ok := s.trips[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTrips) List(context.Context) ([]*models.Trip, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tripsErr != nil {
		return nil, s.tripsErr
	}
	var out []*models.Trip
	for _, t := range s.trips {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTrips) ListByAgent(_ context.Context, agentID string) ([]*models.Trip, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Trip
	for _, t := range s.trips {
		if t.AgentID == agentID && t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTrips) Update(_ context.Context, t *models.Trip) (*models.Trip, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trips[t.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	s.trips[t.ID] = &cp
	return t, nil
}

func (f *fakeTrips) SetActive(_ context.Context, id string, active bool) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[id]
	if !ok {
		return common.ErrorNotFound
	}
	t.IsActive = active
	return nil
}

type fakeAds memStore

func (f *fakeAds) Create(_ context.Context, ad *models.Advertisement) (*models.Advertisement, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	ad.ID = s.nextID("ad")
	cp := *ad
	s.ads[ad.ID] = &cp
	return ad, nil
}

func (f *fakeAds) List(context.Context) ([]*models.Advertisement, error) {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Advertisement
	for _, a := range s.ads {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAds) SetActive(_ context.Context, id string, active bool) error {
	s := (*memStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.ads[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.IsActive = active
	return nil
}

// captureNotifier remembers the last code handed to it.
type captureNotifier struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (n *captureNotifier) SendResetCode(_ context.Context, _ *models.Account, code string, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes = append(n.codes, code)
	return n.err
}

func (n *captureNotifier) last(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.codes, "no code delivered")
	return n.codes[len(n.codes)-1]
}

// env wires every service against one memStore, one clock and one sqlmock.
type env struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	store    *memStore
	clock    *fakeClock
	cfg      *config.Config
	hasher   *auth.Hasher
	issuer   *auth.Issuer
	notifier *captureNotifier

	auth     *AuthService
	gate     *Gate
	recovery *RecoveryService
	accounts *AccountService
	catalog  *CatalogService
}

func newEnv(t *testing.T, mutate ...func(*config.Config)) *env {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	cfg.BcryptCost = bcrypt.MinCost
	for _, m := range mutate {
		m(cfg)
	}

	hasher, err := auth.NewHasher(cfg.BcryptCost)
	require.NoError(t, err)

	clock := newFakeClock()
	issuer, err := auth.NewIssuer([]byte(cfg.SecretKey), cfg.Algorithm, cfg.AccessTokenTTL, auth.WithClock(clock.Now))
	require.NoError(t, err)

	store := newMemStore()
	rm := &fakeRepoManager{s: store}
	notifier := &captureNotifier{}
	log := logging.Nop{}

	recovery := NewRecoveryService(db, rm, hasher, notifier, cfg, log)
	recovery.now = clock.Now

	return &env{
		db:       db,
		mock:     mock,
		store:    store,
		clock:    clock,
		cfg:      cfg,
		hasher:   hasher,
		issuer:   issuer,
		notifier: notifier,
		auth:     NewAuthService(db, rm, hasher, issuer, cfg, log),
		gate:     NewGate(db, rm, issuer, log),
		recovery: recovery,
		accounts: NewAccountService(db, rm, hasher, log),
		catalog:  NewCatalogService(db, rm, log),
	}
}

func (e *env) register(t *testing.T, email, password string) *models.Account {
	t.Helper()
	a, err := e.accounts.Register(context.Background(), NewAccount{Name: "Test User", Email: email, Password: password})
	require.NoError(t, err)
	return a
}

// expectTx queues one BEGIN followed by COMMIT or ROLLBACK.
func (e *env) expectTx(commit bool) {
	e.mock.ExpectBegin()
	if commit {
		e.mock.ExpectCommit()
	} else {
		e.mock.ExpectRollback()
	}
}
