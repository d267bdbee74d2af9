package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Bar is one row of a horizontal bar chart.
type Bar struct {
	Label string
	Value int64
	Class string // ok, warn or bad; empty for the default colour
}

// barWidth scales value against largest as a percentage.
// A non-zero value always gets at least 1% so it stays visible.
func barWidth(value, largest int64) int64 {
	if largest <= 0 || value <= 0 {
		return 0
	}
	pct := value * 100 / largest
	if pct == 0 {
		return 1
	}
	return pct
}

// BarChart renders bars scaled to the largest value.
func BarChart(title string, bars []Bar) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var largest int64
		for _, b := range bars {
			if b.Value > largest {
				largest = b.Value
			}
		}

		h := newHTML(ctx, w)
		h.raw(`<div class="chart">`)
		if title != "" {
			h.tag("h3", "", title)
		}
		for _, b := range bars {
			h.raw(`<div class="row">`)
			h.tag("span", "label", b.Label)
			h.rawf(`<span class="track"><span class="bar %s" style="display:block;width:%d%%"></span></span>`,
				templ.EscapeString(b.Class), barWidth(b.Value, largest))
			h.raw(`<span class="value">`)
			h.int(b.Value)
			h.raw(`</span></div>`)
		}
		h.raw(`</div>`)
		return h.err
	})
}
