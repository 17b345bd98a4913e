// Package sqlite provides the public API for the SQLite registry backend.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"go.uber.org/zap"

	"github.com/cartronic/clientdb/internal/sqlite"
	"github.com/cartronic/clientdb/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
// A nil logger discards log output.
//
// Example:
//
//	registry := sqlite.NewBackend(nil)
//	err := registry.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".clientdb-db",
//	})
//	defer registry.Detach()
func NewBackend(log *zap.SugaredLogger) types.Registry {
	return sqlite.NewBackend(sqlite.WithLogger(log))
}
