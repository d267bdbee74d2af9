package core

import (
	"encoding/json"

	"github.com/JonMunkholm/moderation/internal/sheet"
)

// Column vocabulary recognised by the metrics engine. Names are matched
// exactly (case-sensitive).
const (
	ColModule        = "Module"
	ColIssues        = "Issues"
	ColOutcomes      = "Outcomes"
	ColBorderline    = "Borderline Students"
	ColFailed        = "Failed Students"
	ColIssueCategory = "Issue Category"
)

// NoIssueCategory is the category assigned to records without an issue.
// The classifier is never consulted for them.
const NoIssueCategory = "No Issue"

// DefaultJoinKey is the column two tables are joined on when none is given.
const DefaultJoinKey = ColModule

// IssueStatus is the two-valued classification of a record's Issues cell.
type IssueStatus string

const (
	NoIssue  IssueStatus = "NoIssue"
	HasIssue IssueStatus = "HasIssue"
)

// Capabilities is the set of recognised columns present on a table.
type Capabilities uint8

const (
	CapModule Capabilities = 1 << iota
	CapIssues
	CapOutcomes
	CapBorderline
	CapFailed
)

var capabilityColumns = []struct {
	cap    Capabilities
	column string
}{
	{CapModule, ColModule},
	{CapIssues, ColIssues},
	{CapOutcomes, ColOutcomes},
	{CapBorderline, ColBorderline},
	{CapFailed, ColFailed},
}

// DetectCapabilities returns the recognised columns present on t.
func DetectCapabilities(t *sheet.Table) Capabilities {
	var c Capabilities
	for _, cc := range capabilityColumns {
		if t.HasColumn(cc.column) {
			c |= cc.cap
		}
	}
	return c
}

// Has reports whether every capability in want is present.
func (c Capabilities) Has(want Capabilities) bool {
	return c&want == want
}

// Columns lists the recognised column names in the set, in vocabulary order.
func (c Capabilities) Columns() []string {
	out := make([]string, 0, len(capabilityColumns))
	for _, cc := range capabilityColumns {
		if c.Has(cc.cap) {
			out = append(out, cc.column)
		}
	}
	return out
}

// MarshalJSON encodes the set as its column names.
func (c Capabilities) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Columns())
}

// NumericTotal is the aggregate of one student-count column.
type NumericTotal struct {
	Column  string  `json:"column"`
	Sum     float64 `json:"sum"`
	Total   int64   `json:"total"`   // Sum truncated toward zero for display
	Coerced int     `json:"coerced"` // Non-empty cells that failed to parse and counted as zero
}

// OutcomeTotals counts records whose Outcomes text mentions each keyword.
// A record may count toward both totals, or neither.
type OutcomeTotals struct {
	Failed     int `json:"failed"`
	Borderline int `json:"borderline"`
}

// CategoryCount is one bar of the issue-category histogram.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// CategorizedRow is one record's issue note and the category it was given.
type CategorizedRow struct {
	Module   string `json:"module,omitempty"`
	Issues   string `json:"issues"`
	Category string `json:"category"`
}

// Summary is the result of analysing one table.
type Summary struct {
	Table         string       `json:"table"`
	TotalRows     int          `json:"totalRows"`
	Capabilities  Capabilities `json:"capabilities"`
	NoIssueCount  int          `json:"noIssueCount"`
	HasIssueCount int          `json:"hasIssueCount"`

	Borderline *NumericTotal  `json:"borderline,omitempty"`
	Failed     *NumericTotal  `json:"failed,omitempty"`
	Outcomes   *OutcomeTotals `json:"outcomes,omitempty"`

	// CriticalCases is set only when requested and the table has Outcomes.
	CriticalCases []sheet.Record `json:"criticalCases,omitempty"`

	// Categories and Categorized are set only when a classifier was supplied.
	Categories  []CategoryCount  `json:"categories,omitempty"`
	Categorized []CategorizedRow `json:"categorized,omitempty"`
}

// CoercedCells returns the number of numeric cells treated as zero.
func (s *Summary) CoercedCells() int {
	n := 0
	if s.Borderline != nil {
		n += s.Borderline.Coerced
	}
	if s.Failed != nil {
		n += s.Failed.Coerced
	}
	return n
}

// CompareField selects what is compared between two tables.
type CompareField string

const (
	FieldIssueStatus   CompareField = "status"
	FieldIssueCategory CompareField = "category"
)

// ParseCompareField converts user input to a CompareField.
// Empty input selects FieldIssueStatus.
func ParseCompareField(s string) (CompareField, error) {
	switch CompareField(s) {
	case "", FieldIssueStatus:
		return FieldIssueStatus, nil
	case FieldIssueCategory:
		return FieldIssueCategory, nil
	default:
		return "", &FieldError{Value: s}
	}
}

// Outcome classifies one joined comparison row.
type Outcome string

const (
	Match    Outcome = "Match"
	Mismatch Outcome = "Mismatch"
)

// Side is one table's derived value for a joined key.
// Present is false when the key does not occur in that table.
type Side struct {
	Value   string `json:"value,omitempty"`
	Present bool   `json:"present"`
}

// ComparisonRow is one row of the outer join.
type ComparisonRow struct {
	Key     string  `json:"key"`
	Left    Side    `json:"left"`
	Right   Side    `json:"right"`
	Outcome Outcome `json:"outcome"`
}

// ComparisonResult is the module-keyed comparison of two tables.
type ComparisonResult struct {
	LeftTable     string          `json:"leftTable"`
	RightTable    string          `json:"rightTable"`
	JoinKey       string          `json:"joinKey"`
	Field         CompareField    `json:"field"`
	Rows          []ComparisonRow `json:"rows"`
	MatchCount    int             `json:"matchCount"`
	MismatchCount int             `json:"mismatchCount"`

	// DuplicateKeys lists join-key values that occur more than once in
	// either table. Their rows fan out as a cross product.
	DuplicateKeys []string `json:"duplicateKeys,omitempty"`
}

// MetricRow is one line of a side-by-side metric comparison.
type MetricRow struct {
	Metric string `json:"metric"`
	Left   int64  `json:"left"`
	Right  int64  `json:"right"`
}
