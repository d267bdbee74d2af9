package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/moderation/internal/core"
)

// AnalysisView is the data behind a single-report result page.
type AnalysisView struct {
	RunID   string
	Profile core.Profile
	Summary *core.Summary
}

// criticalColumns are shown for each critical case, when present.
var criticalColumns = []string{core.ColModule, core.ColIssues, core.ColOutcomes}

// Analysis renders a summary with its charts and tables.
func Analysis(v AnalysisView) templ.Component {
	s := v.Summary
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)

		h.raw(`<section><h2>`)
		h.text(s.Table)
		h.raw(`</h2><p class="muted">Profile `)
		h.text(v.Profile.Label)
		h.raw(` · run `)
		h.text(v.RunID)
		h.raw(`</p><div class="stats">`)
		stat(h, "Rows", int64(s.TotalRows))
		stat(h, "No issues", int64(s.NoIssueCount))
		stat(h, "Issues", int64(s.HasIssueCount))
		if s.Borderline != nil {
			stat(h, "Borderline students", s.Borderline.Total)
		}
		if s.Failed != nil {
			stat(h, "Failed students", s.Failed.Total)
		}
		h.raw(`</div>`)
		if n := s.CoercedCells(); n > 0 {
			h.rawf(`<p class="notice">%d student-count cells were not numbers and were counted as zero.</p>`, n)
		}
		h.raw(`</section>`)

		h.raw(`<section><h2>Overview</h2>`)
		h.render(BarChart("Issue status", []Bar{
			{Label: "No issues", Value: int64(s.NoIssueCount), Class: "ok"},
			{Label: "Issues", Value: int64(s.HasIssueCount), Class: "warn"},
		}))
		if bars := studentBars(s); len(bars) > 0 {
			h.render(BarChart("Students", bars))
		}
		if s.Outcomes != nil {
			h.render(BarChart("Outcomes mentioned", []Bar{
				{Label: "Failed", Value: int64(s.Outcomes.Failed), Class: "bad"},
				{Label: "Borderline", Value: int64(s.Outcomes.Borderline), Class: "warn"},
			}))
		}
		h.raw(`</section>`)

		if len(s.Categories) > 0 {
			bars := make([]Bar, len(s.Categories))
			for i, c := range s.Categories {
				bars[i] = Bar{Label: c.Category, Value: int64(c.Count)}
			}
			h.raw(`<section><h2>Issue categories</h2>`)
			h.render(BarChart("", bars))
			h.raw(`<table><thead><tr><th>Module</th><th>Issues</th><th>Category</th></tr></thead><tbody>`)
			for _, row := range s.Categorized {
				h.raw(`<tr>`)
				h.tag("td", "", row.Module)
				h.tag("td", "", row.Issues)
				h.tag("td", "", row.Category)
				h.raw(`</tr>`)
			}
			h.raw(`</tbody></table></section>`)
		}

		if s.CriticalCases != nil {
			h.raw(`<section><h2>Critical cases</h2>`)
			if len(s.CriticalCases) == 0 {
				h.raw(`<p class="muted">No module with a failed or borderline outcome reported an issue.</p>`)
			} else {
				h.raw(`<table><thead><tr>`)
				for _, col := range criticalColumns {
					h.tag("th", "", col)
				}
				h.raw(`</tr></thead><tbody>`)
				for _, rec := range s.CriticalCases {
					h.raw(`<tr>`)
					for _, col := range criticalColumns {
						h.tag("td", "", rec[col])
					}
					h.raw(`</tr>`)
				}
				h.raw(`</tbody></table>`)
			}
			h.raw(`</section>`)
		}
		return h.err
	})
	return page("Analysis", body)
}

func studentBars(s *core.Summary) []Bar {
	var bars []Bar
	if s.Borderline != nil {
		bars = append(bars, Bar{Label: "Borderline students", Value: s.Borderline.Total, Class: "warn"})
	}
	if s.Failed != nil {
		bars = append(bars, Bar{Label: "Failed students", Value: s.Failed.Total, Class: "bad"})
	}
	return bars
}

func stat(h *html, label string, value int64) {
	h.raw(`<div class="stat"><b>`)
	h.int(value)
	h.raw(`</b>`)
	h.text(label)
	h.raw(`</div>`)
}

// ComparisonView is the data behind a comparison result page.
type ComparisonView struct {
	RunID   string
	Profile core.Profile
	Result  *core.ComparisonResult
	Metrics []core.MetricRow
}

// Comparison renders the metric table, the match split and the joined rows.
func Comparison(v ComparisonView) templ.Component {
	res := v.Result
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)

		h.raw(`<section><h2>`)
		h.text(res.LeftTable)
		h.raw(` vs `)
		h.text(res.RightTable)
		h.raw(`</h2><p class="muted">Joined on `)
		h.text(res.JoinKey)
		h.raw(` · comparing issue `)
		h.text(string(res.Field))
		h.raw(` · run `)
		h.text(v.RunID)
		h.raw(`</p>`)

		if len(v.Metrics) > 0 {
			h.raw(`<table><thead><tr><th>Metric</th>`)
			h.tag("th", "", res.LeftTable)
			h.tag("th", "", res.RightTable)
			h.raw(`</tr></thead><tbody>`)
			for _, m := range v.Metrics {
				h.raw(`<tr>`)
				h.tag("td", "", m.Metric)
				h.tag("td", "", strconv.FormatInt(m.Left, 10))
				h.tag("td", "", strconv.FormatInt(m.Right, 10))
				h.raw(`</tr>`)
			}
			h.raw(`</tbody></table>`)
		}
		h.render(BarChart("Outcome", []Bar{
			{Label: string(core.Match), Value: int64(res.MatchCount), Class: "ok"},
			{Label: string(core.Mismatch), Value: int64(res.MismatchCount), Class: "warn"},
		}))
		h.raw(`</section>`)

		h.raw(`<section><h2>Rows</h2>`)
		if len(res.DuplicateKeys) > 0 {
			h.raw(`<p class="notice">These keys occur more than once, so their rows are paired every way: `)
			for i, k := range res.DuplicateKeys {
				if i > 0 {
					h.raw(", ")
				}
				h.text(k)
			}
			h.raw(`</p>`)
		}
		h.raw(`<table><thead><tr>`)
		h.tag("th", "", res.JoinKey)
		h.tag("th", "", res.LeftTable)
		h.tag("th", "", res.RightTable)
		h.raw(`<th>Outcome</th></tr></thead><tbody>`)
		for _, row := range res.Rows {
			class := "ok"
			if row.Outcome == core.Mismatch {
				class = "warn"
			}
			h.rawf(`<tr class="%s">`, class)
			h.tag("td", "", row.Key)
			side(h, row.Left)
			side(h, row.Right)
			h.tag("td", "", string(row.Outcome))
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table></section>`)
		return h.err
	})
	return page("Comparison", body)
}

func side(h *html, s core.Side) {
	if !s.Present {
		h.tag("td", "muted", "absent")
		return
	}
	h.tag("td", "", s.Value)
}
