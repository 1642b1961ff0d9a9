package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Form field kinds understood by EditForm.
const (
	KindText        = "text"
	KindTextarea    = "textarea"
	KindDate        = "date"
	KindSelect      = "select"
	KindMultiText   = "multitext"
	KindMultiSelect = "multiselect"
)

// Option is a selectable form choice.
type Option struct {
	Value string
	Label string
}

// FormField is one rendered input on an edit form.
type FormField struct {
	Name     string
	Label    string
	Kind     string
	Hint     string
	Value    string
	Values   []string
	Options  []Option
	Selected []string
	Error    string
}

// EditPage is the view model for a record edit form.
type EditPage struct {
	Heading     string
	Action      string
	Fields      []FormField
	Conformance string
	Problems    []string
}

// EditForm renders a schema-driven edit form fragment.
func EditForm(page EditPage) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<h1>" + esc(page.Heading) + "</h1>\n")
		if page.Conformance != "" {
			b.WriteString("<p class=\"conformance conformance-" + esc(page.Conformance) + "\">This record is currently rated <strong>" + esc(page.Conformance) + "</strong>.</p>\n")
		}
		for _, problem := range page.Problems {
			b.WriteString("<p class=\"form-error\">" + esc(problem) + "</p>\n")
		}
		b.WriteString("<form method=\"post\" action=\"" + esc(page.Action) + "\" class=\"edit-form\">\n")
		for _, field := range page.Fields {
			writeField(&b, field)
		}
		b.WriteString("<button type=\"submit\">Save changes</button>\n</form>\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeField(b *strings.Builder, field FormField) {
	id := "field-" + field.Name
	b.WriteString("<div class=\"form-group")
	if field.Error != "" {
		b.WriteString(" has-error")
	}
	b.WriteString("\">\n")
	b.WriteString("<label for=\"" + esc(id) + "\">" + esc(field.Label) + "</label>\n")
	if field.Error != "" {
		b.WriteString("<p class=\"field-error\">" + esc(field.Error) + "</p>\n")
	}
	switch field.Kind {
	case KindTextarea:
		b.WriteString("<textarea id=\"" + esc(id) + "\" name=\"" + esc(field.Name) + "\" rows=\"6\">" + esc(field.Value) + "</textarea>\n")
	case KindDate:
		b.WriteString("<input id=\"" + esc(id) + "\" name=\"" + esc(field.Name) + "\" type=\"text\" placeholder=\"YYYY-MM-DD\" value=\"" + esc(field.Value) + "\">\n")
	case KindSelect:
		b.WriteString("<select id=\"" + esc(id) + "\" name=\"" + esc(field.Name) + "\">\n<option value=\"\"></option>\n")
		for _, option := range field.Options {
			b.WriteString("<option value=\"" + esc(option.Value) + "\"")
			if option.Value == field.Value {
				b.WriteString(" selected")
			}
			b.WriteString(">" + esc(option.Label) + "</option>\n")
		}
		b.WriteString("</select>\n")
	case KindMultiText:
		values := field.Values
		if len(values) == 0 {
			values = []string{""}
		}
		for _, value := range values {
			b.WriteString("<input name=\"" + esc(field.Name) + "\" type=\"text\" value=\"" + esc(value) + "\">\n")
		}
		b.WriteString("<input name=\"" + esc(field.Name) + "\" type=\"text\" value=\"\">\n")
	case KindMultiSelect:
		selected := make(map[string]bool, len(field.Selected))
		for _, value := range field.Selected {
			selected[value] = true
		}
		b.WriteString("<select id=\"" + esc(id) + "\" name=\"" + esc(field.Name) + "\" multiple size=\"6\">\n")
		for _, option := range field.Options {
			b.WriteString("<option value=\"" + esc(option.Value) + "\"")
			if selected[option.Value] {
				b.WriteString(" selected")
			}
			b.WriteString(">" + esc(option.Label) + "</option>\n")
		}
		b.WriteString("</select>\n")
	default:
		b.WriteString("<input id=\"" + esc(id) + "\" name=\"" + esc(field.Name) + "\" type=\"text\" value=\"" + esc(field.Value) + "\">\n")
	}
	if field.Hint != "" {
		b.WriteString("<p class=\"hint\">" + esc(field.Hint) + "</p>\n")
	}
	b.WriteString("</div>\n")
}
