package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/JonMunkholm/moderation/internal/sheet"
)

// Classifier maps free-text issue notes to a category label.
// Implementations must be deterministic for a given text within one run.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, text string) (string, error)

// Classify calls f(ctx, text).
func (f ClassifierFunc) Classify(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// ErrBlankLabel is wrapped by a ClassifierError when the classifier answered
// with an empty label.
var ErrBlankLabel = errors.New("classifier returned a blank label")

// ErrNoClassifier is returned when categories are requested without a classifier.
var ErrNoClassifier = errors.New("no classifier configured")

// ClassifierError reports a classification failure on one record.
type ClassifierError struct {
	Table string
	Row   int // 1-based data row
	Text  string
	Err   error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("classifier failed on %s row %d: %v", e.Table, e.Row, e.Err)
}

func (e *ClassifierError) Unwrap() error {
	return e.Err
}

// categorize assigns an Issue Category to every record of t. Records without
// an issue get NoIssueCategory; the classifier is called once per record with
// an issue, in row order, and the first failure aborts the whole pass.
func categorize(ctx context.Context, t *sheet.Table, c Classifier) ([]string, error) {
	if c == nil {
		return nil, ErrNoClassifier
	}

	out := make([]string, len(t.Records))
	for i, rec := range t.Records {
		raw := rec[ColIssues]
		if IssueStatusOf(raw) == NoIssue {
			out[i] = NoIssueCategory
			continue
		}

		label, err := c.Classify(ctx, raw)
		if err == nil && strings.TrimSpace(label) == "" {
			err = ErrBlankLabel
		}
		if err != nil {
			return nil, &ClassifierError{Table: t.Name, Row: i + 1, Text: raw, Err: err}
		}
		out[i] = label
	}
	return out, nil
}

// histogram counts labels, ordered by count descending then label.
func histogram(labels []string) []CategoryCount {
	counts := make(map[string]int)
	for _, l := range labels {
		counts[l]++
	}

	out := make([]CategoryCount, 0, len(counts))
	for l, n := range counts {
		out = append(out, CategoryCount{Category: l, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}
