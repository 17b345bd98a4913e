package types

import (
	"fmt"
	"strings"
)

// The default category always exists, keeps its id across restarts, and
// cannot be deleted. Clients of a deleted category fall back to it.
const (
	DefaultCategoryID   int64 = 1
	DefaultCategoryName       = "Clients"
)

// Category is a named grouping applied to clients.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// IsDefault reports whether c is the protected default category.
func (c Category) IsDefault() bool {
	return c.ID == DefaultCategoryID
}

// categoryInput is the validation shape for category names.
type categoryInput struct {
	Name string `validate:"required"`
}

// NormalizeCategoryName trims the name and checks that something remains.
// Returns the trimmed name or an error wrapping ErrValidation.
func NormalizeCategoryName(name string) (string, error) {
	in := categoryInput{Name: strings.TrimSpace(name)}
	if err := validate.Struct(in); err != nil {
		return "", fmt.Errorf("%w: category %s", ErrValidation, describeValidation(err))
	}
	return in.Name, nil
}
