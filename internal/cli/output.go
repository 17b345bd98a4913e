package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/cartronic/clientdb/internal/selection"
	"github.com/cartronic/clientdb/pkg/types"
)

// stickyMark flags rows whose email is in the sticky selection.
const stickyMark = "*"

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	selectedStyle = cellStyle.Foreground(lipgloss.Color("10"))
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...)
}

// renderRows prints search results numbered from 1, the numbers that pick
// accepts.
func renderRows(w io.Writer, rows []selection.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No clients found.")
		return
	}
	t := newTable("#", stickyMark, "Name", "Contact", "Phone", "Email", "Category").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(rows) && rows[row].Selected:
				return selectedStyle
			default:
				return cellStyle
			}
		})
	selected := 0
	for i, r := range rows {
		mark := ""
		if r.Selected {
			mark = stickyMark
			selected++
		}
		t.Row(strconv.Itoa(i+1), mark, r.Name, r.ContactPerson, r.Phone, r.Email, r.CategoryName)
	}
	fmt.Fprintln(w, t.String())
	fmt.Fprintf(w, "%d client(s), %d in selection\n", len(rows), selected)
}

func renderCategories(w io.Writer, cats []types.Category) {
	t := newTable("ID", "Name", "").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, c := range cats {
		note := ""
		if c.IsDefault() {
			note = "default"
		}
		t.Row(strconv.FormatInt(c.ID, 10), c.Name, note)
	}
	fmt.Fprintln(w, t.String())
}

func renderClient(w io.Writer, id int64, v types.ClientView) {
	fmt.Fprintf(w, "ID:       %d\n", id)
	fmt.Fprintf(w, "Name:     %s\n", v.Name)
	fmt.Fprintf(w, "Contact:  %s\n", v.ContactPerson)
	fmt.Fprintf(w, "Phone:    %s\n", v.Phone)
	fmt.Fprintf(w, "Email:    %s\n", v.Email)
	fmt.Fprintf(w, "Category: %s\n", v.CategoryName)
}
