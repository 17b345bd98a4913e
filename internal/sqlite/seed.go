package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cartronic/clientdb/pkg/types"
)

// seedDefaultCategory inserts the default category with its fixed id.
// Seeding is idempotent: an existing row is left untouched.
func seedDefaultCategory(tx *sql.Tx, log *zap.SugaredLogger) error {
	res, err := tx.Exec(
		"INSERT OR IGNORE INTO categories (id, name) VALUES (?, ?)",
		types.DefaultCategoryID, types.DefaultCategoryName,
	)
	if err != nil {
		return fmt.Errorf("seeding default category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		log.Infow("default category seeded", "id", types.DefaultCategoryID, "name", types.DefaultCategoryName)
		return nil
	}

	// The insert was ignored: either the row exists, or the name is held by
	// another id and the default id is free.
	var name string
	err = tx.QueryRow("SELECT name FROM categories WHERE id = ?", types.DefaultCategoryID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("seeding default category: name %q is used by a category other than id %d",
			types.DefaultCategoryName, types.DefaultCategoryID)
	}
	if err != nil {
		return fmt.Errorf("reading default category: %w", err)
	}
	if name != types.DefaultCategoryName {
		log.Warnw("default category has a different name", "id", types.DefaultCategoryID, "name", name)
	}
	return nil
}
