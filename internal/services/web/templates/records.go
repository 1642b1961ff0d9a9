package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// ValueView is a single displayed field value, optionally linked.
type ValueView struct {
	Text string
	URL  string
}

// FieldView is a labelled group of values on a record page.
type FieldView struct {
	Label  string
	Values []ValueView
	// HTML carries sanitized rich text rendered verbatim instead of Values.
	HTML string
}

// VersionView is one displayed version of a scheme.
type VersionView struct {
	Number string
	Status string
	Date   string
	Note   string
}

// RelationView groups related records shown under one role.
type RelationView struct {
	Label    string
	Entities []Link
}

// RecordPage is the view model for a record display page.
type RecordPage struct {
	Title       string
	SeriesLabel string
	MSCID       string
	Fields      []FieldView
	Versions    []VersionView
	Relations   []RelationView
	// GroupSummary holds "funds, maintains, and uses"-style sentences for
	// organization pages.
	GroupSummary []string
	CanEdit      bool
	EditPath     string
}

// Record renders a record display fragment.
func Record(page RecordPage) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<article class=\"record\">\n")
		b.WriteString("<p class=\"record-series\">" + esc(page.SeriesLabel) + " <span class=\"mscid\">" + esc(page.MSCID) + "</span></p>\n")
		b.WriteString("<h1>" + esc(page.Title) + "</h1>\n")

		for _, sentence := range page.GroupSummary {
			b.WriteString("<p class=\"group-summary\">" + esc(sentence) + "</p>\n")
		}

		if len(page.Fields) > 0 {
			b.WriteString("<dl class=\"record-fields\">\n")
			for _, field := range page.Fields {
				b.WriteString("<dt>" + esc(field.Label) + "</dt>\n")
				if field.HTML != "" {
					b.WriteString("<dd class=\"rich-text\">" + field.HTML + "</dd>\n")
					continue
				}
				for _, value := range field.Values {
					b.WriteString("<dd>")
					if value.URL != "" {
						b.WriteString("<a href=\"" + esc(value.URL) + "\">" + esc(value.Text) + "</a>")
					} else {
						b.WriteString(esc(value.Text))
					}
					b.WriteString("</dd>\n")
				}
			}
			b.WriteString("</dl>\n")
		}

		if len(page.Versions) > 0 {
			b.WriteString("<h2>Versions</h2>\n<ul class=\"versions\">\n")
			for _, version := range page.Versions {
				b.WriteString("<li class=\"version-" + esc(version.Status) + "\">")
				b.WriteString("<strong>" + esc(version.Number) + "</strong>")
				if version.Status != "" {
					b.WriteString(" <span class=\"version-status\">(" + esc(version.Status) + ")</span>")
				}
				if version.Date != "" {
					b.WriteString(" " + esc(version.Date))
				}
				if version.Note != "" {
					b.WriteString(" <span class=\"version-note\">" + esc(version.Note) + "</span>")
				}
				b.WriteString("</li>\n")
			}
			b.WriteString("</ul>\n")
		}

		for _, relation := range page.Relations {
			if len(relation.Entities) == 0 {
				continue
			}
			b.WriteString("<h2>" + esc(titleCase(relation.Label)) + "</h2>\n<ul class=\"related\">\n")
			for _, entity := range relation.Entities {
				b.WriteString("<li><a href=\"" + esc(entity.Path) + "\">" + esc(entity.Name) + "</a></li>\n")
			}
			b.WriteString("</ul>\n")
		}

		if page.CanEdit {
			b.WriteString("<p class=\"record-actions\"><a class=\"button\" href=\"" + esc(page.EditPath) + "\">Edit this record</a></p>\n")
		}
		b.WriteString("</article>\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
