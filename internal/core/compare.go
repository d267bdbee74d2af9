package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/JonMunkholm/moderation/internal/sheet"
)

// CompareOptions controls Compare.
type CompareOptions struct {
	// Required columns, checked on both tables. The join key is always
	// required in addition.
	Required []string

	// JoinKey defaults to DefaultJoinKey.
	JoinKey string

	// Field defaults to FieldIssueStatus.
	Field CompareField

	// Classifier is required when Field is FieldIssueCategory.
	Classifier Classifier
}

// FieldError reports an unknown comparison field.
type FieldError struct {
	Value string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid comparison field %q (expected %q or %q)", e.Value, FieldIssueStatus, FieldIssueCategory)
}

// Compare full-outer-joins left and right on the join key and classifies each
// joined row.
//
// Every key value found in either table yields output. A key missing from one
// side yields a row whose Side for that table is not Present, and such rows
// are always Mismatch. A key repeated within a table is not deduplicated: its
// rows pair up as a cross product with the other side's rows for that key, and
// the key is reported in DuplicateKeys. Rows are ordered by key.
func Compare(ctx context.Context, left, right *sheet.Table, opts CompareOptions) (*ComparisonResult, error) {
	joinKey := opts.JoinKey
	if joinKey == "" {
		joinKey = DefaultJoinKey
	}
	field := opts.Field
	if field == "" {
		field = FieldIssueStatus
	}
	if field != FieldIssueStatus && field != FieldIssueCategory {
		return nil, &FieldError{Value: string(field)}
	}

	if err := validateAll(withColumn(opts.Required, joinKey), left, right); err != nil {
		return nil, err
	}
	if field == FieldIssueCategory && opts.Classifier == nil {
		return nil, ErrNoClassifier
	}

	leftVals, err := deriveField(ctx, left, field, opts.Classifier)
	if err != nil {
		return nil, err
	}
	rightVals, err := deriveField(ctx, right, field, opts.Classifier)
	if err != nil {
		return nil, err
	}

	leftByKey, leftDup := groupByKey(left, joinKey, leftVals)
	rightByKey, rightDup := groupByKey(right, joinKey, rightVals)

	keys := make([]string, 0, len(leftByKey)+len(rightByKey))
	for k := range leftByKey {
		keys = append(keys, k)
	}
	for k := range rightByKey {
		if _, seen := leftByKey[k]; !seen {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	result := &ComparisonResult{
		LeftTable:     left.Name,
		RightTable:    right.Name,
		JoinKey:       joinKey,
		Field:         field,
		Rows:          make([]ComparisonRow, 0, len(keys)),
		DuplicateKeys: mergeDuplicates(leftDup, rightDup),
	}

	for _, k := range keys {
		for _, l := range sides(leftByKey[k]) {
			for _, r := range sides(rightByKey[k]) {
				row := ComparisonRow{Key: k, Left: l, Right: r, Outcome: outcomeOf(l, r)}
				if row.Outcome == Match {
					result.MatchCount++
				} else {
					result.MismatchCount++
				}
				result.Rows = append(result.Rows, row)
			}
		}
	}

	return result, nil
}

func outcomeOf(l, r Side) Outcome {
	if l.Present && r.Present && l.Value == r.Value {
		return Match
	}
	return Mismatch
}

// deriveField computes the compared value for every record of t.
func deriveField(ctx context.Context, t *sheet.Table, field CompareField, c Classifier) ([]string, error) {
	if field == FieldIssueCategory {
		return categorize(ctx, t, c)
	}
	out := make([]string, len(t.Records))
	for i, rec := range t.Records {
		out[i] = string(IssueStatusOf(rec[ColIssues]))
	}
	return out, nil
}

// groupByKey buckets derived values by join-key cell, preserving row order
// within each key, and reports keys seen more than once.
func groupByKey(t *sheet.Table, joinKey string, values []string) (map[string][]string, []string) {
	groups := make(map[string][]string)
	var dups []string
	for i, rec := range t.Records {
		k := rec[joinKey]
		groups[k] = append(groups[k], values[i])
		if len(groups[k]) == 2 {
			dups = append(dups, k)
		}
	}
	return groups, dups
}

// sides turns one table's values for a key into join sides. A key absent
// from the table contributes a single non-present side.
func sides(values []string) []Side {
	if len(values) == 0 {
		return []Side{{}}
	}
	out := make([]Side, len(values))
	for i, v := range values {
		out[i] = Side{Value: v, Present: true}
	}
	return out
}

func mergeDuplicates(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, k := range append(append([]string{}, a...), b...) {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func withColumn(required []string, column string) []string {
	for _, c := range required {
		if c == column {
			return required
		}
	}
	out := make([]string, 0, len(required)+1)
	out = append(out, required...)
	return append(out, column)
}
