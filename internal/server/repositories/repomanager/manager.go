// Package repomanager wires database repositories to one shared connection
// and runs schema migrations at startup.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/vikinglab/contentvault/internal/server/repositories/uploads"
	"github.com/vikinglab/contentvault/internal/server/repositories/users"
)

type RepositoryManager interface {
	Conn() *sql.DB
	Uploads() uploads.Repository
	Users() users.Repository
	RunMigrations(ctx context.Context) error
}
