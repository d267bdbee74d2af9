package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const stylesheet = `
body{font-family:system-ui,sans-serif;margin:0;background:#f5f6f8;color:#1f2933}
header{background:#243b53;color:#fff;padding:1rem 2rem}
header a{color:#fff;text-decoration:none}
main{max-width:72rem;margin:0 auto;padding:1.5rem 2rem}
section{background:#fff;border-radius:6px;padding:1rem 1.5rem;margin-bottom:1.5rem;box-shadow:0 1px 2px rgba(0,0,0,.08)}
h2{margin-top:0;font-size:1.2rem}
table{border-collapse:collapse;width:100%}
th,td{text-align:left;padding:.35rem .6rem;border-bottom:1px solid #e4e7eb;vertical-align:top}
th{background:#f0f4f8}
label{display:block;margin:.5rem 0 .2rem;font-weight:600}
.stats{display:flex;gap:1rem;flex-wrap:wrap}
.stat{flex:1;min-width:9rem;background:#f0f4f8;border-radius:6px;padding:.75rem}
.stat b{display:block;font-size:1.6rem}
.chart .row{display:flex;align-items:center;margin:.25rem 0}
.chart .label{width:14rem;flex:none}
.chart .track{flex:1;background:#e4e7eb;border-radius:3px;height:1.1rem}
.chart .bar{height:100%;border-radius:3px;background:#486581}
.chart .value{width:4rem;text-align:right;flex:none}
.bar.ok,tr.ok td:last-child{background:#8eedc7}
.bar.warn,tr.warn td:last-child{background:#ffd0b5}
.bar.bad{background:#f29b9b}
.notice{background:#fffbea;border-left:4px solid #f0b429;padding:.5rem 1rem}
.error{background:#ffeeee;border-left:4px solid #e12d39;padding:.75rem 1rem}
.muted{color:#7b8794}
button{background:#243b53;color:#fff;border:0;border-radius:4px;padding:.5rem 1.2rem;margin-top:.8rem;cursor:pointer}
`

// page wraps body in the site chrome.
func page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.tag("title", "", title+" · Moderation Analyser")
		h.rawf("<style>%s</style></head><body>", stylesheet)
		h.raw(`<header><a href="/"><strong>Moderation Analyser</strong></a></header><main>`)
		h.render(body)
		h.raw("</main></body></html>")
		return h.err
	})
}
