package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/JonMunkholm/moderation/internal/core"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = cellStyle.Foreground(lipgloss.Color("10"))
	warnStyle   = cellStyle.Foreground(lipgloss.Color("9"))
)

// newTable builds a bordered table. outcomeCol, when not negative, colours
// that column by Match/Mismatch.
func newTable(headers []string, rows [][]string, outcomeCol int) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == outcomeCol && row >= 0 && row < len(rows) {
				if rows[row][col] == string(core.Mismatch) {
					return warnStyle
				}
				return okStyle
			}
			return cellStyle
		})
}

func itoa(n int) string { return strconv.Itoa(n) }

func renderProfiles(w io.Writer, profiles []core.Profile) error {
	rows := make([][]string, len(profiles))
	for i, p := range profiles {
		rows[i] = []string{p.Key, p.Label, strings.Join(p.Required, ", ")}
	}
	_, err := fmt.Fprintln(w, newTable([]string{"Key", "Label", "Required columns"}, rows, -1))
	return err
}

func renderSummary(w io.Writer, p core.Profile, s *core.Summary) error {
	var b strings.Builder
	fmt.Fprintln(&b, titleStyle.Render(fmt.Sprintf("%s (%s)", s.Table, p.Label)))

	rows := [][]string{
		{"Rows", itoa(s.TotalRows)},
		{"No issues", itoa(s.NoIssueCount)},
		{"Issues", itoa(s.HasIssueCount)},
	}
	if s.Borderline != nil {
		rows = append(rows, []string{"Borderline students", strconv.FormatInt(s.Borderline.Total, 10)})
	}
	if s.Failed != nil {
		rows = append(rows, []string{"Failed students", strconv.FormatInt(s.Failed.Total, 10)})
	}
	if s.Outcomes != nil {
		rows = append(rows,
			[]string{"Outcomes mentioning failed", itoa(s.Outcomes.Failed)},
			[]string{"Outcomes mentioning borderline", itoa(s.Outcomes.Borderline)},
		)
	}
	fmt.Fprintln(&b, newTable([]string{"Metric", "Value"}, rows, -1))

	if n := s.CoercedCells(); n > 0 {
		fmt.Fprintln(&b, noteStyle.Render(fmt.Sprintf("%d student-count cells were not numbers and were counted as zero.", n)))
	}

	if len(s.Categories) > 0 {
		cats := make([][]string, len(s.Categories))
		for i, c := range s.Categories {
			cats[i] = []string{c.Category, itoa(c.Count)}
		}
		fmt.Fprintln(&b, titleStyle.Render("Issue categories"))
		fmt.Fprintln(&b, newTable([]string{"Category", "Records"}, cats, -1))
	}

	if s.CriticalCases != nil {
		fmt.Fprintln(&b, titleStyle.Render("Critical cases"))
		if len(s.CriticalCases) == 0 {
			fmt.Fprintln(&b, "none")
		} else {
			cases := make([][]string, len(s.CriticalCases))
			for i, rec := range s.CriticalCases {
				cases[i] = []string{rec[core.ColModule], rec[core.ColIssues], rec[core.ColOutcomes]}
			}
			fmt.Fprintln(&b, newTable([]string{core.ColModule, core.ColIssues, core.ColOutcomes}, cases, -1))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderComparison(w io.Writer, c comparison) error {
	res := c.Result
	var b strings.Builder
	fmt.Fprintln(&b, titleStyle.Render(fmt.Sprintf("%s vs %s, joined on %s, comparing issue %s",
		res.LeftTable, res.RightTable, res.JoinKey, res.Field)))

	metrics := make([][]string, len(c.Metrics))
	for i, m := range c.Metrics {
		metrics[i] = []string{m.Metric, strconv.FormatInt(m.Left, 10), strconv.FormatInt(m.Right, 10)}
	}
	fmt.Fprintln(&b, newTable([]string{"Metric", res.LeftTable, res.RightTable}, metrics, -1))

	rows := make([][]string, len(res.Rows))
	for i, r := range res.Rows {
		rows[i] = []string{r.Key, sideText(r.Left), sideText(r.Right), string(r.Outcome)}
	}
	fmt.Fprintln(&b, newTable([]string{res.JoinKey, res.LeftTable, res.RightTable, "Outcome"}, rows, 3))
	fmt.Fprintf(&b, "%d match, %d mismatch\n", res.MatchCount, res.MismatchCount)

	if len(res.DuplicateKeys) > 0 {
		fmt.Fprintln(&b, noteStyle.Render("Repeated keys paired every way: "+strings.Join(res.DuplicateKeys, ", ")))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func sideText(s core.Side) string {
	if !s.Present {
		return "(absent)"
	}
	return s.Value
}
