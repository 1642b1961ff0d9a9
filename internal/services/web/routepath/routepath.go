// Package routepath centralizes route constants for the web service.
package routepath

// Public pages.
const (
	Home          = "/"
	About         = "/about"
	TermsOfUse    = "/terms-of-use"
	Accessibility = "/accessibility"
	Contribute    = "/contribute"
)

// Record display and index pages.
const (
	RecordPattern     = "/msc/{mscid}"
	SchemeIndex       = "/scheme-index"
	ToolIndex         = "/tool-index"
	MappingIndex      = "/mapping-index"
	OrganizationIndex = "/organization-index"
	OrganizationRole  = "/organization-index/{role}"
	EndorsementIndex  = "/endorsement-index"
	SchemeTree        = "/scheme-tree"
	SubjectIndex      = "/subject-index"
	SubjectPattern    = "/subject/{label}"
	DatatypeIndex     = "/datatype-index"
	DatatypePattern   = "/datatype/{number}"
	Search            = "/search"
)

// Sign-in and profile pages.
const (
	Login            = "/user/login"
	LoginProvider    = "/user/login/{provider}"
	CallbackProvider = "/user/callback/{provider}"
	Logout           = "/user/logout"
	Profile          = "/user/profile"
	ProfileDelete    = "/user/profile/delete"
)

// Edit pages. The id suffix 0 creates a new record, as in /edit/m0.
const (
	EditPrefix  = "/edit/"
	EditPattern = "/edit/{sid}"
)
