package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/refreshtokens"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// path serves both plain connections and transactions.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Credentials(db dbx.DBTX) credentials.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
