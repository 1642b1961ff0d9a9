package templates

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// Home renders the landing page with per-series record counts.
func Home(schemes, tools, mappings, organizations, endorsements int) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<section class=\"home\">\n<h1>Metadata Standards Catalog</h1>\n")
		b.WriteString("<p>The Metadata Standards Catalog is a collaborative, open directory of metadata standards applicable to research data, along with the tools that implement them, crosswalks between them, and the organizations that maintain, fund, and endorse them.</p>\n")
		b.WriteString("<ul class=\"home-counts\">\n")
		writeCount(&b, schemes, "metadata standard", "/scheme-index")
		writeCount(&b, tools, "tool", "/tool-index")
		writeCount(&b, mappings, "crosswalk", "/mapping-index")
		writeCount(&b, organizations, "organization", "/organization-index")
		writeCount(&b, endorsements, "endorsement", "/endorsement-index")
		b.WriteString("</ul>\n")
		b.WriteString("<p>Browse the catalog by <a href=\"/subject-index\">subject area</a> or <a href=\"/search\">search</a> for standards directly.</p>\n")
		b.WriteString("</section>\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeCount(b *strings.Builder, count int, noun, path string) {
	label := noun + "s"
	if count == 1 {
		label = noun
	}
	b.WriteString("<li><a href=\"" + esc(path) + "\">")
	b.WriteString(strconv.Itoa(count) + " " + esc(label))
	b.WriteString("</a></li>\n")
}

// StaticPage renders a fixed prose page. The body is trusted in-module HTML.
func StaticPage(heading, body string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<article class=\"prose\">\n<h1>" + esc(heading) + "</h1>\n")
		b.WriteString(body)
		b.WriteString("\n</article>\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// IndexPage renders a flat list of record links.
func IndexPage(heading string, items []Link) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<h1>" + esc(heading) + "</h1>\n")
		if len(items) == 0 {
			b.WriteString("<p>No records yet.</p>\n")
		} else {
			b.WriteString("<ul class=\"record-index\">\n")
			for _, item := range items {
				b.WriteString("<li><a href=\"" + esc(item.Path) + "\">" + esc(item.Name) + "</a></li>\n")
			}
			b.WriteString("</ul>\n")
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// TreeNode is one entry in a nested browse tree.
type TreeNode struct {
	Name     string
	Path     string
	Children []TreeNode
}

// TreePage renders a nested tree of links, such as the scheme hierarchy.
func TreePage(heading string, nodes []TreeNode) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<h1>" + esc(heading) + "</h1>\n")
		if len(nodes) == 0 {
			b.WriteString("<p>No records yet.</p>\n")
		} else {
			writeTree(&b, nodes)
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeTree(b *strings.Builder, nodes []TreeNode) {
	b.WriteString("<ul class=\"record-tree\">\n")
	for _, node := range nodes {
		b.WriteString("<li>")
		if node.Path != "" {
			b.WriteString("<a href=\"" + esc(node.Path) + "\">" + esc(node.Name) + "</a>")
		} else {
			b.WriteString(esc(node.Name))
		}
		if len(node.Children) > 0 {
			b.WriteString("\n")
			writeTree(b, node.Children)
		}
		b.WriteString("</li>\n")
	}
	b.WriteString("</ul>\n")
}

// SearchPage renders the scheme search form plus any results.
type SearchPage struct {
	Title      string
	Keyword    string
	Keywords   []string
	Identifier string
	Funder     string
	Funders    []Link
	DataType   string
	DataTypes  []Link
	Searched   bool
	Results    []Link
	Problem    string
}

// SearchForm renders the search page fragment.
func SearchForm(page SearchPage) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<h1>Search metadata standards</h1>\n")
		if page.Problem != "" {
			b.WriteString("<p class=\"form-error\">" + esc(page.Problem) + "</p>\n")
		}
		b.WriteString("<form method=\"post\" action=\"/search\" class=\"search-form\">\n")
		b.WriteString("<label for=\"search-title\">Name of standard</label>\n")
		b.WriteString("<input id=\"search-title\" name=\"title\" type=\"text\" value=\"" + esc(page.Title) + "\">\n")
		b.WriteString("<p class=\"hint\">Use * to match a run of characters and ? to match a single one.</p>\n")

		b.WriteString("<label for=\"search-keyword\">Subject area</label>\n")
		b.WriteString("<select id=\"search-keyword\" name=\"keyword\">\n<option value=\"\"></option>\n")
		for _, keyword := range page.Keywords {
			b.WriteString("<option")
			if keyword == page.Keyword {
				b.WriteString(" selected")
			}
			b.WriteString(">" + esc(keyword) + "</option>\n")
		}
		b.WriteString("</select>\n")

		b.WriteString("<label for=\"search-identifier\">Identifier</label>\n")
		b.WriteString("<input id=\"search-identifier\" name=\"identifier\" type=\"text\" value=\"" + esc(page.Identifier) + "\">\n")

		b.WriteString("<label for=\"search-funder\">Funder</label>\n")
		b.WriteString("<select id=\"search-funder\" name=\"funder\">\n<option value=\"\"></option>\n")
		for _, funder := range page.Funders {
			b.WriteString("<option value=\"" + esc(funder.Path) + "\"")
			if funder.Path == page.Funder {
				b.WriteString(" selected")
			}
			b.WriteString(">" + esc(funder.Name) + "</option>\n")
		}
		b.WriteString("</select>\n")

		b.WriteString("<label for=\"search-datatype\">Data type</label>\n")
		b.WriteString("<select id=\"search-datatype\" name=\"dataType\">\n<option value=\"\"></option>\n")
		for _, dataType := range page.DataTypes {
			b.WriteString("<option value=\"" + esc(dataType.Path) + "\"")
			if dataType.Path == page.DataType {
				b.WriteString(" selected")
			}
			b.WriteString(">" + esc(dataType.Name) + "</option>\n")
		}
		b.WriteString("</select>\n")

		b.WriteString("<button type=\"submit\">Search</button>\n</form>\n")

		if page.Searched {
			if len(page.Results) == 0 {
				b.WriteString("<p class=\"search-empty\">No standards matched your search.</p>\n")
			} else {
				b.WriteString("<h2>Results</h2>\n<ul class=\"search-results\">\n")
				for _, result := range page.Results {
					b.WriteString("<li><a href=\"" + esc(result.Path) + "\">" + esc(result.Name) + "</a></li>\n")
				}
				b.WriteString("</ul>\n")
			}
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}
