// Package sqlite implements the SQLite storage backend for the client registry.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/cartronic/clientdb/pkg/types"
)

var _ types.Registry = (*Backend)(nil)

// Backend implements the Registry interface on top of a single SQLite file.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	dbPath   string
	log      *zap.SugaredLogger

	categories *categoriesTable
	clients    *clientsTable
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for lifecycle and mutation events.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(b *Backend) {
		if log != nil {
			b.log = log
		}
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, opens the database file, brings the
// schema up to date and seeds the default category.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, config.GetDBFile())
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return fmt.Errorf("open %s: %w", dbPath, err)
	}
	// One user, one connection: pragmas and transactions never straddle
	// pooled connections.
	db.SetMaxOpenConns(1)

	if err := initSchema(db, b.log); err != nil {
		db.Close()
		return fmt.Errorf("init schema: %w", err)
	}

	b.db = db
	b.dbPath = dbPath
	b.config = config
	b.categories = &categoriesTable{backend: b}
	b.clients = &clientsTable{backend: b}
	b.attached = true

	b.log.Debugw("registry attached", "path", dbPath)
	return nil
}

// Detach releases all resources held by the backend.
// Closes the SQLite connection. After Detach, all operations return
// ErrRegistryDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	b.categories = nil
	b.clients = nil

	b.log.Debugw("registry detached", "path", b.dbPath)
	return nil
}

// Path returns the database file path of an attached backend.
func (b *Backend) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dbPath
}

// dsn builds the modernc.org/sqlite data source name for path.
func dsn(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// ListCategories returns every category ordered by id.
func (b *Backend) ListCategories() ([]types.Category, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrRegistryDetached
	}
	return b.categories.list()
}

// DefaultCategory returns the protected category that clients fall back to.
func (b *Backend) DefaultCategory() (types.Category, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.Category{}, types.ErrRegistryDetached
	}
	return b.categories.defaultCategory()
}

// AddCategory creates a category and returns its id.
// Returns ErrValidation for an empty name and ErrDuplicateName if taken.
func (b *Backend) AddCategory(name string) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0, types.ErrRegistryDetached
	}
	return b.categories.add(name)
}

// DeleteCategory reassigns the category's clients to the default category
// and deletes it in one transaction.
// Returns ErrProtectedEntity for the default category and ErrNotFound if no
// category has that name.
func (b *Backend) DeleteCategory(name string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrRegistryDetached
	}
	return b.categories.delete(name)
}

// AddClient creates a client and returns its id.
func (b *Backend) AddClient(in types.ClientInput) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0, types.ErrRegistryDetached
	}
	return b.clients.add(in)
}

// UpdateClient replaces every field of the client with the given id.
func (b *Backend) UpdateClient(id int64, in types.ClientInput) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrRegistryDetached
	}
	return b.clients.update(id, in)
}

// GetClient returns the client with the given id or ErrNotFound.
func (b *Backend) GetClient(id int64) (types.Client, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.Client{}, types.ErrRegistryDetached
	}
	return b.clients.get(id)
}

// SearchClients returns the clients matching both queries, ordered by id.
func (b *Backend) SearchClients(nameQuery, categoryQuery string) ([]types.ClientView, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrRegistryDetached
	}
	return b.clients.search(nameQuery, categoryQuery)
}

// FindClientIDByEmail resolves a client id from its email or returns
// ErrNotFound.
func (b *Backend) FindClientIDByEmail(email string) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0, types.ErrRegistryDetached
	}
	return b.clients.idByEmail(email)
}

// CategoryEmails returns the emails of the clients in the named category.
func (b *Backend) CategoryEmails(categoryName string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrRegistryDetached
	}
	return b.clients.emailsInCategory(categoryName)
}
