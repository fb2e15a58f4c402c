package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/access"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/blobparts"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/collections"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/entries"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/values"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code can
// run against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Collections(db dbx.DBTX) collections.Repository
	Values(db dbx.DBTX) values.Repository
	BlobParts(db dbx.DBTX) blobparts.Repository
	Entries(db dbx.DBTX) entries.Repository
	Access(db dbx.DBTX) access.Repository
}
