package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// LoginPage renders the provider chooser for signing in.
func LoginPage(providers []Link, next string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<section class=\"login\">\n<h1>Sign in</h1>\n")
		b.WriteString("<p>Sign in with one of the services below to contribute to the catalog. An account is created automatically the first time you sign in.</p>\n")
		if len(providers) == 0 {
			b.WriteString("<p class=\"form-error\">No sign-in services are configured. Contact the catalog administrators.</p>\n")
		} else {
			b.WriteString("<ul class=\"login-providers\">\n")
			for _, provider := range providers {
				path := provider.Path
				if next != "" {
					path += "?next=" + esc(next)
				}
				b.WriteString("<li><a class=\"button\" href=\"" + esc(path) + "\">Sign in with " + esc(provider.Name) + "</a></li>\n")
			}
			b.WriteString("</ul>\n")
		}
		b.WriteString("</section>\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ProfilePage renders the signed-in user's editable profile.
type ProfilePage struct {
	Name   string
	Email  string
	UserID string
	Saved  bool
	Errors map[string]string
}

// Profile renders the profile fragment.
func Profile(page ProfilePage) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<section class=\"profile\">\n<h1>Your profile</h1>\n")
		if page.Saved {
			b.WriteString("<p class=\"flash\">Profile saved.</p>\n")
		}
		b.WriteString("<form method=\"post\" action=\"/user/profile\" class=\"edit-form\">\n")
		writeProfileInput(&b, "name", "Display name", page.Name, page.Errors["name"])
		writeProfileInput(&b, "email", "Email address", page.Email, page.Errors["email"])
		b.WriteString("<button type=\"submit\">Save profile</button>\n</form>\n")
		b.WriteString("<form method=\"post\" action=\"/user/profile/delete\" class=\"danger-form\">\n")
		b.WriteString("<p>Deleting your account removes your profile. Catalog records you edited are kept.</p>\n")
		b.WriteString("<button type=\"submit\">Delete account</button>\n</form>\n")
		b.WriteString("</section>\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeProfileInput(b *strings.Builder, name, label, value, problem string) {
	b.WriteString("<div class=\"form-group")
	if problem != "" {
		b.WriteString(" has-error")
	}
	b.WriteString("\">\n<label for=\"profile-" + name + "\">" + esc(label) + "</label>\n")
	if problem != "" {
		b.WriteString("<p class=\"field-error\">" + esc(problem) + "</p>\n")
	}
	b.WriteString("<input id=\"profile-" + name + "\" name=\"" + name + "\" type=\"text\" value=\"" + esc(value) + "\">\n</div>\n")
}
