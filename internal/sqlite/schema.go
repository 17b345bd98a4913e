package sqlite

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Schema DDL. Both statements are safe to run against an existing database.
const (
	createCategories = `CREATE TABLE IF NOT EXISTS categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);`

	createClients = `CREATE TABLE IF NOT EXISTS clients (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    phone TEXT NOT NULL,
    contact_person TEXT NOT NULL,
    category_id INTEGER DEFAULT 1,
    FOREIGN KEY (category_id) REFERENCES categories(id)
);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createCategories,
	createClients,
}

// column is a column that older databases may lack, with the ALTER statement
// that adds it. Upgrades only ever add columns.
type column struct {
	name string
	ddl  string
}

// clientColumnUpgrades are applied in order when PRAGMA table_info(clients)
// does not list the column. The category_id upgrade carries no REFERENCES
// clause: SQLite refuses to add a foreign key column with a non-NULL default
// while foreign_keys is on.
var clientColumnUpgrades = []column{
	{name: "contact_person", ddl: "ALTER TABLE clients ADD COLUMN contact_person TEXT NOT NULL DEFAULT ''"},
	{name: "category_id", ddl: "ALTER TABLE clients ADD COLUMN category_id INTEGER DEFAULT 1"},
}

// initSchema creates missing tables, adds missing client columns and seeds
// the default category, all in one transaction.
func initSchema(db *sql.DB, log *zap.SugaredLogger) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ddl := range schemaDDL {
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
	}

	existing, err := tableColumns(tx, "clients")
	if err != nil {
		return err
	}
	for _, col := range clientColumnUpgrades {
		if existing[col.name] {
			continue
		}
		if _, err := tx.Exec(col.ddl); err != nil {
			return fmt.Errorf("adding clients.%s: %w", col.name, err)
		}
		log.Infow("schema upgraded", "table", "clients", "column", col.name)
	}

	if err := seedDefaultCategory(tx, log); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}
	return nil
}

// tableColumns returns the set of column names of table.
func tableColumns(tx *sql.Tx, table string) (map[string]bool, error) {
	// PRAGMA arguments cannot be bound; table is always a package constant.
	rows, err := tx.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("reading %s columns: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scanning %s column: %w", table, err)
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s columns: %w", table, err)
	}
	return cols, nil
}
