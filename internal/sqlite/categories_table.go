// This file implements the categories table accessor for the SQLite backend.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/cartronic/clientdb/pkg/types"
)

type categoriesTable struct {
	backend *Backend
}

// list returns every category ordered by id.
func (ct *categoriesTable) list() ([]types.Category, error) {
	rows, err := ct.backend.db.Query("SELECT id, name FROM categories ORDER BY id ASC")
	if err != nil {
		return nil, storageErr("listing categories", err)
	}
	defer rows.Close()

	categories := []types.Category{}
	for rows.Next() {
		var c types.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, storageErr("scanning category", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating categories", err)
	}
	return categories, nil
}

// add validates and inserts a category.
func (ct *categoriesTable) add(name string) (int64, error) {
	name, err := types.NormalizeCategoryName(name)
	if err != nil {
		return 0, err
	}

	if _, err := ct.idByName(name); err == nil {
		return 0, fmt.Errorf("adding category %q: %w", name, types.ErrDuplicateName)
	} else if !errors.Is(err, types.ErrNotFound) {
		return 0, err
	}

	res, err := ct.backend.db.Exec("INSERT INTO categories (name) VALUES (?)", name)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("adding category %q: %w", name, types.ErrDuplicateName)
		}
		return 0, storageErr("inserting category", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("reading category id", err)
	}

	ct.backend.log.Infow("category added", "id", id, "name", name)
	return id, nil
}

// delete moves every client of the category to the default category, then
// removes the category row. Both statements commit together or not at all.
func (ct *categoriesTable) delete(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: category name is required", types.ErrValidation)
	}

	tx, err := ct.backend.db.Begin()
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow("SELECT id FROM categories WHERE name = ?", name).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("category %q: %w", name, types.ErrNotFound)
		}
		return storageErr("looking up category", err)
	}
	if id == types.DefaultCategoryID {
		return fmt.Errorf("deleting category %q: %w", name, types.ErrProtectedEntity)
	}

	res, err := tx.Exec(
		"UPDATE clients SET category_id = ? WHERE category_id = ?",
		types.DefaultCategoryID, id,
	)
	if err != nil {
		return storageErr("reassigning clients", err)
	}
	moved, _ := res.RowsAffected()

	if _, err := tx.Exec("DELETE FROM categories WHERE id = ?", id); err != nil {
		return storageErr("deleting category", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing category deletion", err)
	}

	ct.backend.log.Infow("category deleted", "id", id, "name", name, "clients_moved", moved)
	return nil
}

// defaultCategory returns the protected category by id. Its name is whatever
// the database holds, which may predate DefaultCategoryName.
func (ct *categoriesTable) defaultCategory() (types.Category, error) {
	c := types.Category{ID: types.DefaultCategoryID}
	err := ct.backend.db.QueryRow("SELECT name FROM categories WHERE id = ?", c.ID).Scan(&c.Name)
	if err != nil {
		return types.Category{}, storageErr("looking up default category", err)
	}
	return c, nil
}

// idByName resolves a category name to its id. Returns ErrNotFound on a miss.
func (ct *categoriesTable) idByName(name string) (int64, error) {
	var id int64
	err := ct.backend.db.QueryRow("SELECT id FROM categories WHERE name = ?", name).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, types.ErrNotFound
		}
		return 0, storageErr("looking up category", err)
	}
	return id, nil
}
