// Package templates holds the shared page components for the catalog site.
package templates

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

// Viewer describes the signed-in state shown in the page chrome.
type Viewer struct {
	SignedIn bool
	Name     string
}

// Link pairs a display name with a site path.
type Link struct {
	Name string
	Path string
}

func esc(s string) string { return templ.EscapeString(s) }

// navLinks is the fixed site navigation.
var navLinks = []Link{
	{Name: "Standards", Path: "/scheme-index"},
	{Name: "Tools", Path: "/tool-index"},
	{Name: "Crosswalks", Path: "/mapping-index"},
	{Name: "Organizations", Path: "/organization-index"},
	{Name: "Endorsements", Path: "/endorsement-index"},
	{Name: "Subjects", Path: "/subject-index"},
	{Name: "Search", Path: "/search"},
}

// Layout renders the site shell around the child fragment.
func Layout(title string, viewer Viewer) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		children := templ.GetChildren(ctx)
		var b strings.Builder
		b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
		b.WriteString("<meta charset=\"utf-8\">\n")
		b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
		b.WriteString("<title>" + esc(title) + " | Metadata Standards Catalog</title>\n")
		b.WriteString("<link rel=\"stylesheet\" href=\"/static/catalog.css\">\n")
		b.WriteString("</head>\n<body>\n<header class=\"site-header\">\n")
		b.WriteString("<a class=\"site-title\" href=\"/\">Metadata Standards Catalog</a>\n<nav>\n<ul>\n")
		for _, link := range navLinks {
			b.WriteString("<li><a href=\"" + esc(link.Path) + "\">" + esc(link.Name) + "</a></li>\n")
		}
		if viewer.SignedIn {
			name := viewer.Name
			if name == "" {
				name = "Profile"
			}
			b.WriteString("<li><a href=\"/user/profile\">" + esc(name) + "</a></li>\n")
			b.WriteString("<li><a href=\"/user/logout\">Sign out</a></li>\n")
		} else {
			b.WriteString("<li><a href=\"/user/login\">Sign in</a></li>\n")
		}
		b.WriteString("</ul>\n</nav>\n</header>\n<main>\n")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if children != nil {
			if err := children.Render(ctx, w); err != nil {
				return err
			}
		}
		footer := "</main>\n<footer class=\"site-footer\">\n" +
			"<ul>\n<li><a href=\"/about\">About</a></li>\n" +
			"<li><a href=\"/terms-of-use\">Terms of use</a></li>\n" +
			"<li><a href=\"/accessibility\">Accessibility</a></li>\n" +
			"<li><a href=\"/contribute\">Contributing</a></li>\n</ul>\n" +
			"</footer>\n</body>\n</html>\n"
		_, err := io.WriteString(w, footer)
		return err
	})
}

// ErrorPage renders the shared error fragment for a status code.
func ErrorPage(status int) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		text := http.StatusText(status)
		if text == "" {
			text = http.StatusText(http.StatusInternalServerError)
		}
		var b strings.Builder
		b.WriteString("<section class=\"error-page\">\n")
		b.WriteString(fmt.Sprintf("<h1>%d %s</h1>\n", status, esc(text)))
		switch status {
		case http.StatusNotFound:
			b.WriteString("<p>The page you requested is not in the catalog. It may have been removed, or the address may be mistyped.</p>\n")
		case http.StatusForbidden, http.StatusUnauthorized:
			b.WriteString("<p>You need to <a href=\"/user/login\">sign in</a> before making changes to the catalog.</p>\n")
		default:
			b.WriteString("<p>Something went wrong while handling your request. Please try again.</p>\n")
		}
		b.WriteString("</section>\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// Fragment wraps a pre-rendered trusted HTML string as a component.
func Fragment(html string) templ.Component {
	return templ.Raw(html)
}
