package core

import (
	"context"
	"math"
	"strings"

	"github.com/JonMunkholm/moderation/internal/sheet"
)

// Outcome keywords, matched case-insensitively as substrings.
const (
	outcomeFailed     = "failed"
	outcomeBorderline = "borderline"
)

// SummaryOptions controls which optional parts of Summarize run.
type SummaryOptions struct {
	// Required columns; a table missing any of them is rejected before
	// anything is aggregated.
	Required []string

	// CriticalCases selects records with a failed/borderline outcome and an issue.
	CriticalCases bool

	// Classifier, when non-nil, buckets issue notes into categories.
	Classifier Classifier
}

// Summarize computes the single-table metrics for t.
//
// Issue counts always cover every record (a table without an Issues column
// counts every record as NoIssue). Student totals, outcome totals and the
// critical-case filter only run when the table has the columns they read.
func Summarize(ctx context.Context, t *sheet.Table, opts SummaryOptions) (*Summary, error) {
	if r := Validate(t, opts.Required); !r.OK() {
		return nil, r.Err()
	}

	caps := DetectCapabilities(t)
	s := &Summary{
		Table:        t.Name,
		TotalRows:    t.Len(),
		Capabilities: caps,
	}

	for _, rec := range t.Records {
		if IssueStatusOf(rec[ColIssues]) == HasIssue {
			s.HasIssueCount++
		} else {
			s.NoIssueCount++
		}
	}

	if caps.Has(CapBorderline) {
		s.Borderline = sumColumn(t, ColBorderline)
	}
	if caps.Has(CapFailed) {
		s.Failed = sumColumn(t, ColFailed)
	}

	if caps.Has(CapOutcomes) {
		s.Outcomes = countOutcomes(t)
		if opts.CriticalCases {
			s.CriticalCases = CriticalCases(t)
		}
	}

	if opts.Classifier != nil {
		labels, err := categorize(ctx, t, opts.Classifier)
		if err != nil {
			return nil, err
		}
		s.Categories = histogram(labels)
		s.Categorized = make([]CategorizedRow, len(labels))
		for i, rec := range t.Records {
			s.Categorized[i] = CategorizedRow{
				Module:   rec[ColModule],
				Issues:   rec[ColIssues],
				Category: labels[i],
			}
		}
	}

	return s, nil
}

// sumColumn totals a student-count column. Empty cells count as zero;
// unparsable cells, and cells that would push the sum past float64 range,
// also count as zero and are tallied in Coerced.
func sumColumn(t *sheet.Table, column string) *NumericTotal {
	total := &NumericTotal{Column: column}
	for _, rec := range t.Records {
		raw := rec[column]
		if sheet.IsBlank(raw) {
			continue
		}
		v, ok := sheet.ParseNumber(raw)
		if !ok || math.IsInf(total.Sum+v, 0) {
			total.Coerced++
			continue
		}
		total.Sum += v
	}
	total.Total = truncInt64(total.Sum)
	return total
}

// truncInt64 truncates f toward zero, saturating at the int64 limits.
func truncInt64(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(math.Trunc(f))
}

func countOutcomes(t *sheet.Table) *OutcomeTotals {
	totals := &OutcomeTotals{}
	for _, rec := range t.Records {
		failed, borderline := outcomeFlags(rec[ColOutcomes])
		if failed {
			totals.Failed++
		}
		if borderline {
			totals.Borderline++
		}
	}
	return totals
}

func outcomeFlags(raw string) (failed, borderline bool) {
	v := strings.ToLower(raw)
	return strings.Contains(v, outcomeFailed), strings.Contains(v, outcomeBorderline)
}

// CriticalCases returns the records whose Outcomes mention "failed" or
// "borderline" and whose Issues cell is HasIssue, unchanged and in order.
// Returns nil when t has no Outcomes column.
func CriticalCases(t *sheet.Table) []sheet.Record {
	if !t.HasColumn(ColOutcomes) {
		return nil
	}
	var out []sheet.Record
	for _, rec := range t.Records {
		failed, borderline := outcomeFlags(rec[ColOutcomes])
		if (failed || borderline) && IssueStatusOf(rec[ColIssues]) == HasIssue {
			out = append(out, rec)
		}
	}
	return out
}

// CompareMetrics lines up the headline counts of two summaries.
// Student totals are included when either side has the column.
func CompareMetrics(left, right *Summary) []MetricRow {
	rows := []MetricRow{
		{Metric: "No issues", Left: int64(left.NoIssueCount), Right: int64(right.NoIssueCount)},
		{Metric: "Issues", Left: int64(left.HasIssueCount), Right: int64(right.HasIssueCount)},
	}
	if left.Borderline != nil || right.Borderline != nil {
		rows = append(rows, MetricRow{
			Metric: "Total " + ColBorderline,
			Left:   totalOf(left.Borderline),
			Right:  totalOf(right.Borderline),
		})
	}
	if left.Failed != nil || right.Failed != nil {
		rows = append(rows, MetricRow{
			Metric: "Total " + ColFailed,
			Left:   totalOf(left.Failed),
			Right:  totalOf(right.Failed),
		})
	}
	return rows
}

func totalOf(n *NumericTotal) int64 {
	if n == nil {
		return 0
	}
	return n.Total
}
