package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/moderation/internal/core"
)

// IndexView is the data behind the upload page.
type IndexView struct {
	Profiles       []core.Profile
	DefaultProfile string

	// Categories is false when no classifier is configured.
	Categories bool

	// MaxFileSize is the per-file upload limit in bytes.
	MaxFileSize int64
}

// Index renders the upload forms.
func Index(v IndexView) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)

		h.raw(`<section><h2>Analyse a moderation report</h2>`)
		h.raw(`<form method="post" action="/analyze" enctype="multipart/form-data">`)
		h.raw(`<label for="file">Report (.csv or .xlsx)</label><input id="file" type="file" name="file" accept=".csv,.xlsx" required>`)
		profileSelect(h, "profile", v)
		h.raw(`<label><input type="checkbox" name="critical" value="true"> List critical cases</label>`)
		if v.Categories {
			h.raw(`<label><input type="checkbox" name="categorize" value="true"> Categorise issue notes</label>`)
		}
		h.raw(`<button type="submit">Analyse</button></form></section>`)

		h.raw(`<section><h2>Compare two reports</h2>`)
		h.raw(`<form method="post" action="/compare" enctype="multipart/form-data">`)
		h.raw(`<label for="file1">First report</label><input id="file1" type="file" name="file1" accept=".csv,.xlsx" required>`)
		h.raw(`<label for="file2">Second report</label><input id="file2" type="file" name="file2" accept=".csv,.xlsx" required>`)
		profileSelect(h, "compare-profile", v)
		h.raw(`<label for="field">Compare</label><select id="field" name="field">`)
		h.raw(`<option value="status">Issue status</option>`)
		if v.Categories {
			h.raw(`<option value="category">Issue category</option>`)
		}
		h.raw(`</select>`)
		h.rawf(`<label for="join_key">Join on column</label><input id="join_key" name="join_key" value="%s">`,
			templ.EscapeString(core.DefaultJoinKey))
		h.raw(`<button type="submit">Compare</button></form></section>`)

		if v.MaxFileSize > 0 {
			h.raw(`<p class="muted">Files up to `)
			h.int(v.MaxFileSize >> 20)
			h.raw(` MB each.</p>`)
		}
		return h.err
	})
	return page("Upload", body)
}

func profileSelect(h *html, id string, v IndexView) {
	id = templ.EscapeString(id)
	h.rawf(`<label for="%s">Profile</label><select id="%s" name="profile">`, id, id)
	for _, p := range v.Profiles {
		selected := ""
		if p.Key == v.DefaultProfile {
			selected = " selected"
		}
		h.rawf(`<option value="%s"%s>`, templ.EscapeString(p.Key), selected)
		h.text(p.Label)
		h.raw(`</option>`)
	}
	h.raw(`</select>`)
}
