package repomanager

import (
	"context"
	"database/sql"

	"github.com/ananddevocation/tripdesk/internal/dbx"
	"github.com/ananddevocation/tripdesk/internal/server/repositories/accounts"
	"github.com/ananddevocation/tripdesk/internal/server/repositories/advertisements"
	"github.com/ananddevocation/tripdesk/internal/server/repositories/locations"
	"github.com/ananddevocation/tripdesk/internal/server/repositories/passwordresets"
	"github.com/ananddevocation/tripdesk/internal/server/repositories/trips"
)

// RepositoryManager vends repositories bound to a handle, so services can
// run the same repository code against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	PasswordResets(db dbx.DBTX) passwordresets.Repository
	Locations(db dbx.DBTX) locations.Repository
	Trips(db dbx.DBTX) trips.Repository
	Advertisements(db dbx.DBTX) advertisements.Repository
}
