// Unit tests for categories table operations.
package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartronic/clientdb/pkg/types"
)

func clientIn(name, email, category string) types.ClientInput {
	return types.ClientInput{
		Name:          name,
		Email:         email,
		Phone:         "555-0100",
		ContactPerson: name + " contact",
		CategoryName:  category,
	}
}

func TestAddCategory(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend)
	}{
		{
			name: "add category returns a new id and lists it",
			check: func(t *testing.T, b *Backend) {
				id, err := b.AddCategory("VIP")
				require.NoError(t, err)
				assert.NotEqual(t, types.DefaultCategoryID, id)

				cats, err := b.ListCategories()
				require.NoError(t, err)
				assert.Equal(t, []types.Category{
					{ID: types.DefaultCategoryID, Name: types.DefaultCategoryName},
					{ID: id, Name: "VIP"},
				}, cats)
			},
		},
		{
			name: "add category trims surrounding whitespace",
			check: func(t *testing.T, b *Backend) {
				_, err := b.AddCategory("  Partners ")
				require.NoError(t, err)

				cats, err := b.ListCategories()
				require.NoError(t, err)
				assert.Equal(t, "Partners", cats[len(cats)-1].Name)
			},
		},
		{
			name: "empty name returns ErrValidation",
			check: func(t *testing.T, b *Backend) {
				_, err := b.AddCategory("   ")
				assert.ErrorIs(t, err, types.ErrValidation)
			},
		},
		{
			name: "duplicate name returns ErrDuplicateName",
			check: func(t *testing.T, b *Backend) {
				_, err := b.AddCategory("VIP")
				require.NoError(t, err)

				_, err = b.AddCategory("VIP")
				assert.ErrorIs(t, err, types.ErrDuplicateName)
			},
		},
		{
			name: "default category name is already taken",
			check: func(t *testing.T, b *Backend) {
				_, err := b.AddCategory(types.DefaultCategoryName)
				assert.ErrorIs(t, err, types.ErrDuplicateName)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, newTestBackend(t))
		})
	}
}

func TestDeleteCategory(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend)
	}{
		{
			name: "default category is protected",
			check: func(t *testing.T, b *Backend) {
				err := b.DeleteCategory(types.DefaultCategoryName)
				assert.ErrorIs(t, err, types.ErrProtectedEntity)

				cats, err := b.ListCategories()
				require.NoError(t, err)
				assert.Len(t, cats, 1)
			},
		},
		{
			name: "unknown category returns ErrNotFound",
			check: func(t *testing.T, b *Backend) {
				assert.ErrorIs(t, b.DeleteCategory("Nope"), types.ErrNotFound)
			},
		},
		{
			name: "empty name returns ErrValidation",
			check: func(t *testing.T, b *Backend) {
				assert.ErrorIs(t, b.DeleteCategory(""), types.ErrValidation)
			},
		},
		{
			name: "members move to the default category",
			check: func(t *testing.T, b *Backend) {
				vipID, err := b.AddCategory("VIP")
				require.NoError(t, err)
				aID, err := b.AddClient(clientIn("A", "a@x.com", "VIP"))
				require.NoError(t, err)
				_, err = b.AddClient(clientIn("B", "b@x.com", types.DefaultCategoryName))
				require.NoError(t, err)

				require.NoError(t, b.DeleteCategory("VIP"))

				a, err := b.GetClient(aID)
				require.NoError(t, err)
				assert.Equal(t, types.DefaultCategoryID, a.CategoryID)

				var refs int
				require.NoError(t, b.db.QueryRow("SELECT COUNT(*) FROM clients WHERE category_id = ?", vipID).Scan(&refs))
				assert.Zero(t, refs, "no client may reference the deleted category")

				cats, err := b.ListCategories()
				require.NoError(t, err)
				assert.Len(t, cats, 1)

				rows, err := b.SearchClients("", types.DefaultCategoryName)
				require.NoError(t, err)
				assert.Equal(t, []string{"a@x.com", "b@x.com"}, emailsOf(rows))
			},
		},
		{
			name: "failed delete rolls back the reassignment",
			check: func(t *testing.T, b *Backend) {
				lockedID, err := b.AddCategory("Locked")
				require.NoError(t, err)
				cID, err := b.AddClient(clientIn("C", "c@x.com", "Locked"))
				require.NoError(t, err)

				_, err = b.db.Exec(`CREATE TRIGGER block_locked BEFORE DELETE ON categories
					WHEN OLD.name = 'Locked'
					BEGIN SELECT RAISE(ABORT, 'locked'); END`)
				require.NoError(t, err)

				err = b.DeleteCategory("Locked")
				require.Error(t, err)
				assert.ErrorIs(t, err, types.ErrStorage)

				c, err := b.GetClient(cID)
				require.NoError(t, err)
				assert.Equal(t, lockedID, c.CategoryID, "reassignment must be rolled back")

				cats, err := b.ListCategories()
				require.NoError(t, err)
				assert.Len(t, cats, 2)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, newTestBackend(t))
		})
	}
}

func emailsOf(rows []types.ClientView) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Email)
	}
	return out
}
