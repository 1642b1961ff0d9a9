package api

import (
	"net/http"

	"github.com/mscwg/catalog/internal/catalog/vocab"
)

func (h handlers) handleThesaurusScheme(w http.ResponseWriter, _ *http.Request) {
	th := h.catalog.Thesaurus()
	tops := make([]any, 0)
	for _, node := range th.Tree() {
		tops = append(tops, map[string]any{"@id": node.URI})
	}
	writeData(w, http.StatusOK, map[string]any{
		"@context": map[string]any{
			"skos": "http://www.w3.org/2004/02/skos/core#",
		},
		"@id":   vocab.SchemeURI,
		"@type": "skos:ConceptScheme",
		"skos:prefLabel": []any{
			map[string]any{"@value": vocab.SchemeLabel, "@language": "en"},
		},
		"skos:hasTopConcept": tops,
	})
}

func (h handlers) handleThesaurusTerm(w http.ResponseWriter, r *http.Request) {
	uri := vocab.SchemeURI + "/" + r.PathValue("term")
	concept, err := h.catalog.Thesaurus().Concept(uri)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, concept)
}
