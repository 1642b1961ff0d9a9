package records

import (
	"net/http"

	"github.com/mscwg/catalog/internal/services/web/routepath"
)

func registerRoutes(mux *http.ServeMux, h handlers) {
	if mux == nil {
		return
	}
	mux.HandleFunc(http.MethodGet+" "+routepath.RecordPattern, h.handleRecord)
	mux.HandleFunc(http.MethodGet+" "+routepath.SchemeIndex, h.seriesIndex("scheme", "Metadata standards"))
	mux.HandleFunc(http.MethodGet+" "+routepath.ToolIndex, h.seriesIndex("tool", "Tools"))
	mux.HandleFunc(http.MethodGet+" "+routepath.MappingIndex, h.seriesIndex("mapping", "Crosswalks"))
	mux.HandleFunc(http.MethodGet+" "+routepath.OrganizationIndex, h.seriesIndex("organization", "Organizations"))
	mux.HandleFunc(http.MethodGet+" "+routepath.OrganizationRole, h.handleOrganizationRole)
	mux.HandleFunc(http.MethodGet+" "+routepath.EndorsementIndex, h.seriesIndex("endorsement", "Endorsements"))
	mux.HandleFunc(http.MethodGet+" "+routepath.SchemeTree, h.handleSchemeTree)
	mux.HandleFunc(http.MethodGet+" "+routepath.SubjectIndex, h.handleSubjectIndex)
	mux.HandleFunc(http.MethodGet+" "+routepath.SubjectPattern, h.handleSubject)
	mux.HandleFunc(http.MethodGet+" "+routepath.DatatypeIndex, h.handleDatatypeIndex)
	mux.HandleFunc(http.MethodGet+" "+routepath.DatatypePattern, h.handleDatatype)
}
