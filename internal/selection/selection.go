// Package selection bridges live search results with a sticky, user-curated
// set of client emails that survives across searches.
package selection

import (
	"sort"
	"strings"

	"github.com/cartronic/clientdb/pkg/types"
)

// Separator joins emails in clipboard text.
const Separator = ", "

// Store is the part of types.Registry the coordinator reads from.
type Store interface {
	SearchClients(nameQuery, categoryQuery string) ([]types.ClientView, error)
	CategoryEmails(categoryName string) ([]string, error)
}

// Row is a search result with a display hint telling whether its email is in
// the sticky selection.
type Row struct {
	types.ClientView
	Selected bool `json:"selected"`
}

// Coordinator owns the sticky selection for one session. It is not safe for
// concurrent use.
type Coordinator struct {
	store  Store
	sticky map[string]struct{}
}

// NewCoordinator returns a coordinator with an empty sticky selection.
func NewCoordinator(store Store) *Coordinator {
	return &Coordinator{
		store:  store,
		sticky: make(map[string]struct{}),
	}
}

// RunSearch searches the store and flags rows whose email is sticky.
// The sticky selection is not modified.
func (c *Coordinator) RunSearch(nameQuery, categoryQuery string) ([]Row, error) {
	views, err := c.store.SearchClients(nameQuery, categoryQuery)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(views))
	for i, v := range views {
		_, selected := c.sticky[v.Email]
		rows[i] = Row{ClientView: v, Selected: selected}
	}
	return rows, nil
}

// AddToSticky unions emails into the sticky selection and returns how many
// were not already present. Empty strings are ignored.
func (c *Coordinator) AddToSticky(emails ...string) int {
	added := 0
	for _, e := range emails {
		if e == "" {
			continue
		}
		if _, ok := c.sticky[e]; ok {
			continue
		}
		c.sticky[e] = struct{}{}
		added++
	}
	return added
}

// ClearSticky empties the sticky selection.
func (c *Coordinator) ClearSticky() {
	clear(c.sticky)
}

// Len returns the size of the sticky selection.
func (c *Coordinator) Len() int {
	return len(c.sticky)
}

// Sticky returns the sticky emails sorted ascending.
func (c *Coordinator) Sticky() []string {
	out := make([]string, 0, len(c.sticky))
	for e := range c.sticky {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// StickyText joins the sticky emails with Separator. An empty selection
// yields "".
func (c *Coordinator) StickyText() string {
	return strings.Join(c.Sticky(), Separator)
}

// CategoryEmailsText joins the emails of every client in the named category.
// It ignores the sticky selection.
func (c *Coordinator) CategoryEmailsText(categoryName string) (string, error) {
	emails, err := c.store.CategoryEmails(categoryName)
	if err != nil {
		return "", err
	}
	return strings.Join(emails, Separator), nil
}
