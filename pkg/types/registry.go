package types

import (
	"errors"
	"io"
)

// Registry defines the backend-agnostic client registry.
// Callers attach to a backend, issue operations, and detach when done.
type Registry interface {
	// Attach connects the Registry to the backend described by config.
	// Creates the DataDir if it does not exist and brings the schema up to
	// date. Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations return ErrRegistryDetached.
	Detach() error

	// ListCategories returns every category ordered by id.
	ListCategories() ([]Category, error)

	// DefaultCategory returns the protected category, identified by
	// DefaultCategoryID whatever its stored name.
	DefaultCategory() (Category, error)

	// AddCategory creates a category and returns its id.
	AddCategory(name string) (int64, error)

	// DeleteCategory moves the category's clients to the default category
	// and removes it, atomically. The default category is protected.
	DeleteCategory(name string) error

	// AddClient creates a client and returns its id.
	AddClient(in ClientInput) (int64, error)

	// UpdateClient replaces every field of the client with the given id.
	UpdateClient(id int64, in ClientInput) error

	// GetClient returns the stored client with the given id.
	GetClient(id int64) (Client, error)

	// SearchClients returns clients whose name or contact person contains
	// nameQuery and whose category name contains categoryQuery. Empty queries
	// match everything.
	SearchClients(nameQuery, categoryQuery string) ([]ClientView, error)

	// FindClientIDByEmail resolves a client id from its email.
	FindClientIDByEmail(email string) (int64, error)

	// CategoryEmails returns the emails of every client in the named category.
	CategoryEmails(categoryName string) ([]string, error)

	// ExportClients writes every client as one JSON object per line.
	ExportClients(w io.Writer) (int, error)

	// ImportClients reads JSON lines written by ExportClients and adds them.
	ImportClients(r io.Reader) (ImportReport, error)
}

// ImportReport summarises an ImportClients run.
type ImportReport struct {
	Added             int      `json:"added"`
	Skipped           int      `json:"skipped"`
	CategoriesCreated int      `json:"categories_created"`
	Errors            []string `json:"errors,omitempty"`
}

// Registry lifecycle errors.
var (
	ErrRegistryDetached = errors.New("registry is detached")
	ErrAlreadyAttached  = errors.New("registry is already attached")
)

// Operation errors. Backends wrap these with context; test with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrDuplicateName   = errors.New("category name already exists")
	ErrDuplicateEmail  = errors.New("client email already exists")
	ErrUnknownCategory = errors.New("unknown category")
	ErrNotFound        = errors.New("entity not found")
	ErrProtectedEntity = errors.New("entity is protected")
	ErrStorage         = errors.New("storage failure")
)

// IsUserError reports whether err is caused by caller input rather than by
// the storage engine.
func IsUserError(err error) bool {
	for _, target := range []error{
		ErrValidation,
		ErrDuplicateName,
		ErrDuplicateEmail,
		ErrUnknownCategory,
		ErrNotFound,
		ErrProtectedEntity,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
