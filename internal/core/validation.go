package core

// validation.go checks a decoded table's header against a required column set.
//
// Validation is column presence only: an empty table with the right header
// is valid. Names match exactly, so "issues" does not satisfy "Issues".

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/moderation/internal/sheet"
)

// ValidationResult is the outcome of validating one table.
type ValidationResult struct {
	Table   string   `json:"table"`
	Missing []string `json:"missing,omitempty"` // In the order they were required
}

// OK reports whether every required column was present.
func (r ValidationResult) OK() bool {
	return len(r.Missing) == 0
}

// Err returns a *SchemaError for a failed result, nil otherwise.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	return &SchemaError{Failures: []ValidationResult{r}}
}

// Validate reports which of required are absent from t's header.
func Validate(t *sheet.Table, required []string) ValidationResult {
	result := ValidationResult{Table: t.Name}
	for _, col := range required {
		if !t.HasColumn(col) {
			result.Missing = append(result.Missing, col)
		}
	}
	return result
}

// SchemaError reports required columns missing from one or more tables.
type SchemaError struct {
	Failures []ValidationResult
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + e.Detail()
}

// Detail lists the missing columns per table, "a.csv: X, Y; b.csv: Z".
// A failure without a table name lists its columns alone.
func (e *SchemaError) Detail() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Table != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Table, strings.Join(f.Missing, ", ")))
		} else {
			parts = append(parts, strings.Join(f.Missing, ", "))
		}
	}
	return strings.Join(parts, "; ")
}

// Missing returns every missing column across all failing tables, in order.
func (e *SchemaError) Missing() []string {
	var out []string
	for _, f := range e.Failures {
		out = append(out, f.Missing...)
	}
	return out
}

// ByTable returns the missing columns keyed by table name.
func (e *SchemaError) ByTable() map[string][]string {
	out := make(map[string][]string, len(e.Failures))
	for _, f := range e.Failures {
		out[f.Table] = append(out[f.Table], f.Missing...)
	}
	return out
}

// validateAll validates each table against required and combines failures.
func validateAll(required []string, tables ...*sheet.Table) error {
	var failures []ValidationResult
	for _, t := range tables {
		if r := Validate(t, required); !r.OK() {
			failures = append(failures, r)
		}
	}
	if len(failures) > 0 {
		return &SchemaError{Failures: failures}
	}
	return nil
}
