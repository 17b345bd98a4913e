package sqlite

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/cartronic/clientdb/pkg/types"
)

// containsFoldFunc is the SQL name of the case-insensitive substring test
// used by search. SQLite's LIKE folds ASCII only and treats % and _ as
// wildcards; contains_fold folds full Unicode and matches literally.
const containsFoldFunc = "contains_fold"

func init() {
	sqlitedrv.MustRegisterDeterministicScalarFunction(containsFoldFunc, 2, containsFold)
}

// containsFold reports 1 when the first argument contains the second after
// Unicode case folding. An empty or NULL needle always matches.
func containsFold(_ *sqlitedrv.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%s: want 2 arguments, got %d", containsFoldFunc, len(args))
	}
	if matchFold(valueText(args[0]), valueText(args[1])) {
		return int64(1), nil
	}
	return int64(0), nil
}

func matchFold(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	fold := cases.Fold()
	return strings.Contains(fold.String(haystack), fold.String(needle))
}

func valueText(v driver.Value) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// storageErr wraps an engine failure so callers can match ErrStorage while
// the driver error stays reachable.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, types.ErrStorage, err)
}
