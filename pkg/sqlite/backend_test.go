package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartronic/clientdb/pkg/types"
)

func TestNewBackend(t *testing.T) {
	registry := NewBackend(nil)
	require.NoError(t, registry.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}))
	defer registry.Detach()

	cats, err := registry.ListCategories()
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, types.DefaultCategoryName, cats[0].Name)
}
