// This file provides JSON Lines export and import of clients, with atomic
// file persistence for exports.
package sqlite

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cartronic/clientdb/pkg/types"
)

// maxLineBytes bounds a single JSONL record.
const maxLineBytes = 1 << 20

// ExportClients writes every client as a types.ClientView JSON object, one per
// line, in id order. Returns the number of records written.
func (b *Backend) ExportClients(w io.Writer) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0, types.ErrRegistryDetached
	}

	views, err := b.clients.search("", "")
	if err != nil {
		return 0, err
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i, v := range views {
		if err := enc.Encode(v); err != nil {
			return i, fmt.Errorf("writing record: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return len(views), fmt.Errorf("flushing export: %w", err)
	}
	return len(views), nil
}

// ExportClientsFile exports to path using the temp-file, fsync, rename
// pattern so a crash never leaves a truncated backup behind.
func (b *Backend) ExportClientsFile(path string) (int, error) {
	var n int
	err := writeAtomic(path, func(w io.Writer) error {
		var err error
		n, err = b.ExportClients(w)
		return err
	})
	if err != nil {
		return 0, err
	}
	b.log.Infow("clients exported", "path", path, "count", n)
	return n, nil
}

// ImportClients reads JSON lines produced by ExportClients and adds each
// client. Blank lines are ignored; malformed lines, invalid records and
// duplicate emails are skipped and reported. Missing categories are created.
// Only storage failures abort the import.
func (b *Backend) ImportClients(r io.Reader) (types.ImportReport, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var report types.ImportReport
	if !b.attached {
		return report, types.ErrRegistryDetached
	}

	def, err := b.categories.defaultCategory()
	if err != nil {
		return report, err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var v types.ClientView
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: malformed record", lineNo))
			continue
		}
		in := v.Input().Normalize()
		if in.CategoryName == "" {
			in.CategoryName = def.Name
		}

		created, err := b.ensureCategory(in.CategoryName)
		if err != nil {
			if types.IsUserError(err) {
				report.Skipped++
				report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", lineNo, err))
				continue
			}
			return report, err
		}
		if created {
			report.CategoriesCreated++
		}

		if _, err := b.clients.add(in); err != nil {
			if types.IsUserError(err) {
				report.Skipped++
				report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", lineNo, err))
				continue
			}
			return report, err
		}
		report.Added++
	}
	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("reading import: %w", err)
	}

	b.log.Infow("clients imported",
		"added", report.Added,
		"skipped", report.Skipped,
		"categories_created", report.CategoriesCreated,
	)
	return report, nil
}

// ImportClientsFile imports from the JSONL file at path.
func (b *Backend) ImportClientsFile(path string) (types.ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.ImportReport{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return b.ImportClients(f)
}

// ensureCategory creates the named category when it does not exist and
// reports whether it did. The caller must hold b.mu.
func (b *Backend) ensureCategory(name string) (bool, error) {
	_, err := b.categories.idByName(name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return false, err
	}
	if _, err := b.categories.add(name); err != nil {
		return false, err
	}
	return true, nil
}

// writeAtomic writes path via a temp file in the same directory, fsyncs it
// and renames it into place. The temp file is removed on any failure.
func writeAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
