package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var moduleIssues = []string{ColModule, ColIssues}

func present(v string) Side { return Side{Value: v, Present: true} }

func TestCompare_Example(t *testing.T) {
	a := newTable("a.csv", moduleIssues,
		[]string{"M1", "None"},
		[]string{"M2", "Late"},
	)
	b := newTable("b.csv", moduleIssues,
		[]string{"M2", "Missing rubric"},
		[]string{"M3", ""},
	)

	res, err := Compare(context.Background(), a, b, CompareOptions{Required: []string{ColIssues}})
	require.NoError(t, err)

	want := []ComparisonRow{
		{Key: "M1", Left: present("NoIssue"), Right: Side{}, Outcome: Mismatch},
		{Key: "M2", Left: present("HasIssue"), Right: present("HasIssue"), Outcome: Match},
		{Key: "M3", Left: Side{}, Right: present("NoIssue"), Outcome: Mismatch},
	}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Errorf("Compare() rows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, res.MatchCount)
	assert.Equal(t, 2, res.MismatchCount)
	assert.Equal(t, ColModule, res.JoinKey)
	assert.Equal(t, FieldIssueStatus, res.Field)
	assert.Empty(t, res.DuplicateKeys)
}

func TestCompare_Symmetric(t *testing.T) {
	a := newTable("a.csv", moduleIssues,
		[]string{"M1", "None"},
		[]string{"M2", "Late"},
		[]string{"M4", "x"},
	)
	b := newTable("b.csv", moduleIssues,
		[]string{"M2", "Late"},
		[]string{"M3", "None"},
		[]string{"M4", "none"},
	)

	ab, err := Compare(context.Background(), a, b, CompareOptions{})
	require.NoError(t, err)
	ba, err := Compare(context.Background(), b, a, CompareOptions{})
	require.NoError(t, err)

	assert.Equal(t, ab.MatchCount, ba.MatchCount)
	assert.Equal(t, ab.MismatchCount, ba.MismatchCount)
	require.Len(t, ba.Rows, len(ab.Rows))
	for i := range ab.Rows {
		assert.Equal(t, ab.Rows[i].Key, ba.Rows[i].Key)
		assert.Equal(t, ab.Rows[i].Left, ba.Rows[i].Right)
		assert.Equal(t, ab.Rows[i].Right, ba.Rows[i].Left)
		assert.Equal(t, ab.Rows[i].Outcome, ba.Rows[i].Outcome)
	}
}

func TestCompare_JoinIsTotal(t *testing.T) {
	a := newTable("a.csv", moduleIssues,
		[]string{"M1", ""}, []string{"M2", ""}, []string{"M5", ""},
	)
	b := newTable("b.csv", moduleIssues,
		[]string{"M2", ""}, []string{"M3", ""}, []string{"M4", ""}, []string{"M5", "x"},
	)

	res, err := Compare(context.Background(), a, b, CompareOptions{})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 5)
	assert.Equal(t, len(res.Rows), res.MatchCount+res.MismatchCount)
}

func TestCompare_DuplicateKeysFanOut(t *testing.T) {
	a := newTable("a.csv", moduleIssues,
		[]string{"M1", "Late"},
		[]string{"M1", "None"},
	)
	b := newTable("b.csv", moduleIssues,
		[]string{"M1", "Rubric"},
	)

	res, err := Compare(context.Background(), a, b, CompareOptions{})
	require.NoError(t, err)

	want := []ComparisonRow{
		{Key: "M1", Left: present("HasIssue"), Right: present("HasIssue"), Outcome: Match},
		{Key: "M1", Left: present("NoIssue"), Right: present("HasIssue"), Outcome: Mismatch},
	}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Errorf("Compare() rows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"M1"}, res.DuplicateKeys)
}

func TestCompare_CustomJoinKey(t *testing.T) {
	header := []string{"Code", ColIssues}
	a := newTable("a.csv", header, []string{"X1", "None"})
	b := newTable("b.csv", header, []string{"X1", ""})

	res, err := Compare(context.Background(), a, b, CompareOptions{JoinKey: "Code"})
	require.NoError(t, err)
	assert.Equal(t, "Code", res.JoinKey)
	assert.Equal(t, 1, res.MatchCount)
}

func TestCompare_ValidatesBothTables(t *testing.T) {
	a := newTable("a.csv", []string{ColIssues})
	b := newTable("b.csv", []string{ColModule})

	_, err := Compare(context.Background(), a, b, CompareOptions{Required: []string{ColIssues}})
	require.Error(t, err)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	require.Len(t, schemaErr.Failures, 2)
	assert.Equal(t, ValidationResult{Table: "a.csv", Missing: []string{ColModule}}, schemaErr.Failures[0])
	assert.Equal(t, ValidationResult{Table: "b.csv", Missing: []string{ColIssues}}, schemaErr.Failures[1])
}

func TestCompare_InvalidField(t *testing.T) {
	a := newTable("a.csv", moduleIssues)

	_, err := Compare(context.Background(), a, a, CompareOptions{Field: "grade"})
	var fieldErr *FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "grade", fieldErr.Value)
}

func TestCompare_ByCategory(t *testing.T) {
	a := newTable("a.csv", moduleIssues,
		[]string{"M1", "Late submission"},
		[]string{"M2", "None"},
		[]string{"M3", "Rubric"},
	)
	b := newTable("b.csv", moduleIssues,
		[]string{"M1", "Submitted late"},
		[]string{"M2", "Late again"},
		[]string{"M3", "Marking"},
	)

	var calls []string
	res, err := Compare(context.Background(), a, b, CompareOptions{
		Field:      FieldIssueCategory,
		Classifier: keywordClassifier(&calls),
	})
	require.NoError(t, err)

	want := []ComparisonRow{
		{Key: "M1", Left: present("Deadlines"), Right: present("Deadlines"), Outcome: Match},
		{Key: "M2", Left: present(NoIssueCategory), Right: present("Deadlines"), Outcome: Mismatch},
		{Key: "M3", Left: present("Other"), Right: present("Other"), Outcome: Match},
	}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Errorf("Compare() rows mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, calls, 5)
}

func TestCompare_CategoryNeedsClassifier(t *testing.T) {
	a := newTable("a.csv", moduleIssues)

	_, err := Compare(context.Background(), a, a, CompareOptions{Field: FieldIssueCategory})
	assert.ErrorIs(t, err, ErrNoClassifier)
}

func TestParseCompareField(t *testing.T) {
	tests := []struct {
		in      string
		want    CompareField
		wantErr bool
	}{
		{"", FieldIssueStatus, false},
		{"status", FieldIssueStatus, false},
		{"category", FieldIssueCategory, false},
		{"Category", "", true},
		{"grade", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCompareField(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
