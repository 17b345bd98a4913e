// Package types defines the Registry interface, the category and client
// entity types, input validation, and the standard errors returned by every
// registry backend.
package types
