// Tests for the SQLite backend lifecycle and schema initialisation.
package sqlite

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartronic/clientdb/pkg/types"
)

// newTestBackend attaches a backend to a fresh temp directory and detaches it
// when the test ends.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}))
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: tmpDir,
	}

	require.NoError(t, b.Attach(config))
	defer b.Detach()

	_, err := os.Stat(filepath.Join(tmpDir, types.DefaultDBFile))
	assert.NoError(t, err, "database file should be created")
	assert.Equal(t, filepath.Join(tmpDir, types.DefaultDBFile), b.Path())

	assert.ErrorIs(t, b.Attach(config), types.ErrAlreadyAttached)
}

func TestBackend_AttachCreatesDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested", "data")

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dataDir, DBFile: "custom.db"}))
	defer b.Detach()

	_, err := os.Stat(filepath.Join(dataDir, "custom.db"))
	assert.NoError(t, err)
}

func TestBackend_AttachRejectsInvalidConfig(t *testing.T) {
	b := NewBackend()
	assert.ErrorIs(t, b.Attach(types.Config{DataDir: t.TempDir()}), types.ErrBackendEmpty)
	assert.ErrorIs(t, b.Attach(types.Config{Backend: "postgres"}), types.ErrBackendUnknown)
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))

	require.NoError(t, b.Detach())
	assert.NoError(t, b.Detach(), "second Detach should be a no-op")

	_, err := b.ListCategories()
	assert.ErrorIs(t, err, types.ErrRegistryDetached)
	_, err = b.AddClient(types.ClientInput{})
	assert.ErrorIs(t, err, types.ErrRegistryDetached)
	_, err = b.SearchClients("", "")
	assert.ErrorIs(t, err, types.ErrRegistryDetached)
	assert.ErrorIs(t, b.DeleteCategory("VIP"), types.ErrRegistryDetached)
	_, err = b.DefaultCategory()
	assert.ErrorIs(t, err, types.ErrRegistryDetached)
}

func TestBackend_DefaultCategorySeeded(t *testing.T) {
	b := newTestBackend(t)

	cats, err := b.ListCategories()
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, types.Category{ID: types.DefaultCategoryID, Name: types.DefaultCategoryName}, cats[0])
	assert.True(t, cats[0].IsDefault())
}

func TestBackend_ReattachPreservesData(t *testing.T) {
	tmpDir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}

	b := NewBackend()
	require.NoError(t, b.Attach(config))
	vipID, err := b.AddCategory("VIP")
	require.NoError(t, err)
	_, err = b.AddClient(types.ClientInput{
		Name: "Acme", Email: "a@x.com", Phone: "1", ContactPerson: "Ann", CategoryName: "VIP",
	})
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	b2 := NewBackend()
	require.NoError(t, b2.Attach(config))
	defer b2.Detach()

	cats, err := b2.ListCategories()
	require.NoError(t, err)
	assert.Equal(t, []types.Category{
		{ID: types.DefaultCategoryID, Name: types.DefaultCategoryName},
		{ID: vipID, Name: "VIP"},
	}, cats, "seeding again must not duplicate or renumber the default category")

	rows, err := b2.SearchClients("", "VIP")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a@x.com", rows[0].Email)
}

func TestBackend_UpgradesLegacyClientsTable(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, types.DefaultDBFile)

	legacy, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = legacy.Exec(`CREATE TABLE clients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL
	)`)
	require.NoError(t, err)
	_, err = legacy.Exec("INSERT INTO clients (name, email, phone) VALUES ('Old Co', 'old@x.com', '42')")
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}))
	defer b.Detach()

	tx, err := b.db.Begin()
	require.NoError(t, err)
	cols, err := tableColumns(tx, "clients")
	require.NoError(t, tx.Rollback())
	require.NoError(t, err)
	assert.True(t, cols["contact_person"])
	assert.True(t, cols["category_id"])

	id, err := b.FindClientIDByEmail("old@x.com")
	require.NoError(t, err)
	c, err := b.GetClient(id)
	require.NoError(t, err)
	assert.Equal(t, "", c.ContactPerson)
	assert.Equal(t, types.DefaultCategoryID, c.CategoryID)

	rows, err := b.SearchClients("old", types.DefaultCategoryName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, types.DefaultCategoryName, rows[0].CategoryName)

	// A second attach finds nothing left to upgrade.
	require.NoError(t, b.Detach())
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}))
}

func TestDSNEnablesForeignKeys(t *testing.T) {
	b := newTestBackend(t)

	var on int
	require.NoError(t, b.db.QueryRow("PRAGMA foreign_keys").Scan(&on))
	assert.Equal(t, 1, on)
}
