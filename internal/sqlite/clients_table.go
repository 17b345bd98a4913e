// This file implements the clients table accessor for the SQLite backend.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/cartronic/clientdb/pkg/types"
)

// searchQuery joins each client with its category and filters with
// contains_fold. A client whose category_id points nowhere, possible in
// databases created without the foreign key, is reported under the default
// category. Ordering by id keeps repeated searches stable.
const searchQuery = `SELECT c.name, c.contact_person, c.phone, c.email, COALESCE(cat.name, def.name, '')
FROM clients c
LEFT JOIN categories cat ON c.category_id = cat.id
LEFT JOIN categories def ON def.id = ?
WHERE (` + containsFoldFunc + `(c.name, ?) OR ` + containsFoldFunc + `(c.contact_person, ?))
  AND ` + containsFoldFunc + `(COALESCE(cat.name, def.name, ''), ?)
ORDER BY c.id ASC`

type clientsTable struct {
	backend *Backend
}

// add validates in, resolves its category and inserts the client.
func (ct *clientsTable) add(in types.ClientInput) (int64, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return 0, err
	}

	categoryID, err := ct.resolveCategory(in.CategoryName)
	if err != nil {
		return 0, err
	}

	if err := ct.checkEmailFree(in.Email, 0); err != nil {
		return 0, err
	}

	res, err := ct.backend.db.Exec(
		`INSERT INTO clients (name, email, phone, contact_person, category_id)
		 VALUES (?, ?, ?, ?, ?)`,
		in.Name, in.Email, in.Phone, in.ContactPerson, categoryID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("adding client %q: %w", in.Email, types.ErrDuplicateEmail)
		}
		return 0, storageErr("inserting client", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("reading client id", err)
	}

	ct.backend.log.Infow("client added", "id", id, "email", in.Email, "category", in.CategoryName)
	return id, nil
}

// update overwrites the client with the given id. The email uniqueness check
// skips the record itself so unchanged emails are accepted.
func (ct *clientsTable) update(id int64, in types.ClientInput) error {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}

	if _, err := ct.get(id); err != nil {
		return err
	}

	categoryID, err := ct.resolveCategory(in.CategoryName)
	if err != nil {
		return err
	}

	if err := ct.checkEmailFree(in.Email, id); err != nil {
		return err
	}

	_, err = ct.backend.db.Exec(
		`UPDATE clients
		 SET name = ?, email = ?, phone = ?, contact_person = ?, category_id = ?
		 WHERE id = ?`,
		in.Name, in.Email, in.Phone, in.ContactPerson, categoryID, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("updating client %d: %w", id, types.ErrDuplicateEmail)
		}
		return storageErr("updating client", err)
	}

	ct.backend.log.Infow("client updated", "id", id, "email", in.Email, "category", in.CategoryName)
	return nil
}

// get returns the client with the given id.
func (ct *clientsTable) get(id int64) (types.Client, error) {
	var c types.Client
	err := ct.backend.db.QueryRow(
		"SELECT id, name, email, phone, contact_person, category_id FROM clients WHERE id = ?",
		id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.ContactPerson, &c.CategoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Client{}, fmt.Errorf("client %d: %w", id, types.ErrNotFound)
		}
		return types.Client{}, storageErr("getting client", err)
	}
	return c, nil
}

// search returns the clients whose name or contact person contains
// nameQuery and whose category name contains categoryQuery, ignoring case.
func (ct *clientsTable) search(nameQuery, categoryQuery string) ([]types.ClientView, error) {
	nameQuery = strings.TrimSpace(nameQuery)
	categoryQuery = strings.TrimSpace(categoryQuery)

	rows, err := ct.backend.db.Query(searchQuery, types.DefaultCategoryID, nameQuery, nameQuery, categoryQuery)
	if err != nil {
		return nil, storageErr("searching clients", err)
	}
	defer rows.Close()

	results := []types.ClientView{}
	for rows.Next() {
		v, err := hydrateClientView(rows)
		if err != nil {
			return nil, storageErr("hydrating client", err)
		}
		results = append(results, v)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating clients", err)
	}
	return results, nil
}

// idByEmail resolves a client id from an exact email match.
func (ct *clientsTable) idByEmail(email string) (int64, error) {
	email = strings.TrimSpace(email)
	var id int64
	err := ct.backend.db.QueryRow("SELECT id FROM clients WHERE email = ?", email).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("client with email %q: %w", email, types.ErrNotFound)
		}
		return 0, storageErr("looking up client", err)
	}
	return id, nil
}

// emailsInCategory returns the emails of the clients whose category name
// equals categoryName exactly, ordered by client id.
func (ct *clientsTable) emailsInCategory(categoryName string) ([]string, error) {
	categoryID, err := ct.resolveCategory(categoryName)
	if err != nil {
		return nil, err
	}

	rows, err := ct.backend.db.Query(
		"SELECT email FROM clients WHERE category_id = ? ORDER BY id ASC",
		categoryID,
	)
	if err != nil {
		return nil, storageErr("listing category emails", err)
	}
	defer rows.Close()

	emails := []string{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, storageErr("scanning email", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating emails", err)
	}
	return emails, nil
}

// resolveCategory maps a category name to its id, translating a miss into
// ErrUnknownCategory.
func (ct *clientsTable) resolveCategory(name string) (int64, error) {
	id, err := ct.backend.categories.idByName(name)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return 0, fmt.Errorf("category %q: %w", name, types.ErrUnknownCategory)
		}
		return 0, err
	}
	return id, nil
}

// checkEmailFree fails with ErrDuplicateEmail if a client other than selfID
// already uses email. Pass selfID 0 on insert.
func (ct *clientsTable) checkEmailFree(email string, selfID int64) error {
	var dupID int64
	err := ct.backend.db.QueryRow(
		"SELECT id FROM clients WHERE email = ? AND id != ?",
		email, selfID,
	).Scan(&dupID)
	if err == nil {
		return fmt.Errorf("email %q used by client %d: %w", email, dupID, types.ErrDuplicateEmail)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return storageErr("checking email uniqueness", err)
	}
	return nil
}

// hydrateClientView converts a search row into a types.ClientView.
func hydrateClientView(rows *sql.Rows) (types.ClientView, error) {
	var v types.ClientView
	err := rows.Scan(&v.Name, &v.ContactPerson, &v.Phone, &v.Email, &v.CategoryName)
	return v, err
}
