package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mscwg/catalog/internal/catalog/relations"
	"github.com/mscwg/catalog/internal/services/web/platform/httpx"
)

func (h handlers) handleRelations(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.RequestContext(r)
	rels, err := h.catalog.Relations(ctx, r.PathValue("mscid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, relationsPayload(r.PathValue("mscid"), rels))
}

func (h handlers) handleInverseRelations(w http.ResponseWriter, r *http.Request) {
	ctx := httpx.RequestContext(r)
	rels, err := h.catalog.InverseRelations(ctx, r.PathValue("mscid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, relationsPayload(r.PathValue("mscid"), rels))
}

func (h handlers) handlePatchRelations(w http.ResponseWriter, r *http.Request) {
	h.patchRelations(w, r, h.catalog.PatchRelations)
}

func (h handlers) handlePatchInverseRelations(w http.ResponseWriter, r *http.Request) {
	h.patchRelations(w, r, h.catalog.PatchInverseRelations)
}

type patchFunc func(ctx context.Context, idStr string, ops []relations.PatchOp) ([]relations.FieldError, error)

func (h handlers) patchRelations(w http.ResponseWriter, r *http.Request, patch patchFunc) {
	var ops []relations.PatchOp
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&ops); err != nil {
		writeStatusError(w, http.StatusBadRequest, "invalid_request", "the request body must be a JSON array of patch operations")
		return
	}
	ctx := httpx.RequestContext(r)
	fieldErrs, err := patch(ctx, r.PathValue("mscid"), ops)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(fieldErrs) > 0 {
		writeFieldErrors(w, http.StatusUnprocessableEntity, "the patch failed validation", fieldErrs)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"mscid": r.PathValue("mscid"), "updated": true})
}

func relationsPayload(idStr string, rels map[string][]string) map[string]any {
	out := make(map[string]any, len(rels)+1)
	out["mscid"] = idStr
	for role, targets := range rels {
		out[role] = targets
	}
	return out
}
