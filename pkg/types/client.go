package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared by every input type; validator caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Client is a registered contact record.
type Client struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	ContactPerson string `json:"contact_person"`
	CategoryID    int64  `json:"category_id"`
}

// ClientInput carries the user-supplied fields for creating or updating a
// client. The category is referenced by name.
type ClientInput struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required"`
	Phone         string `json:"phone" validate:"required"`
	ContactPerson string `json:"contact_person" validate:"required"`
	CategoryName  string `json:"category" validate:"required"`
}

// ClientView is one search result row: a client with its category resolved.
type ClientView struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	CategoryName  string `json:"category"`
}

// Input converts a search row back into the fields accepted by AddClient.
func (v ClientView) Input() ClientInput {
	return ClientInput{
		Name:          v.Name,
		Email:         v.Email,
		Phone:         v.Phone,
		ContactPerson: v.ContactPerson,
		CategoryName:  v.CategoryName,
	}
}

// Normalize returns a copy of in with surrounding whitespace removed from
// every field.
func (in ClientInput) Normalize() ClientInput {
	return ClientInput{
		Name:          strings.TrimSpace(in.Name),
		Email:         strings.TrimSpace(in.Email),
		Phone:         strings.TrimSpace(in.Phone),
		ContactPerson: strings.TrimSpace(in.ContactPerson),
		CategoryName:  strings.TrimSpace(in.CategoryName),
	}
}

// Validate checks that every required field is non-empty after trimming.
// The returned error wraps ErrValidation and names the missing fields.
func (in ClientInput) Validate() error {
	if err := validate.Struct(in.Normalize()); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, describeValidation(err))
	}
	return nil
}

// describeValidation turns validator field errors into "name, email is
// required" style text.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldLabel(fe.Field()))
	}
	verb := "is"
	if len(fields) > 1 {
		verb = "are"
	}
	return fmt.Sprintf("%s %s required", strings.Join(fields, ", "), verb)
}

func fieldLabel(field string) string {
	switch field {
	case "ContactPerson":
		return "contact person"
	case "CategoryName":
		return "category"
	default:
		return strings.ToLower(field)
	}
}
