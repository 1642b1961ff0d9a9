package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mscwg/catalog/internal/catalog/mscid"
	"github.com/mscwg/catalog/internal/catalog/records"
	"github.com/mscwg/catalog/internal/services/web/platform/httpx"
)

// maxBodyBytes bounds write request bodies.
const maxBodyBytes = 1 << 20

func (h handlers) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item := r.PathValue("item")
	if table := mscid.Table(item); table.IsMain() {
		h.listRecords(w, r, table)
		return
	}
	h.getRecord(w, r, item)
}

func (h handlers) listRecords(w http.ResponseWriter, r *http.Request, table mscid.Table) {
	ctx := httpx.RequestContext(r)
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var recs []records.Record
	var err error
	if query != "" {
		recs, err = h.catalog.Search(ctx, query)
	} else {
		recs, err = h.catalog.List(ctx, table.Series())
	}
	if err != nil {
		writeError(w, err)
		return
	}

	var live []records.Record
	for _, rec := range recs {
		if rec.ID.Table != table || rec.Annulled() {
			continue
		}
		live = append(live, rec)
	}

	page, err := parsePage(r.URL.Query())
	if err != nil {
		writeStatusError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	window := page.slice(len(live))
	items := make([]map[string]any, 0, window.count)
	for _, rec := range live[window.from:window.to] {
		payload, payloadErr := h.recordPayload(ctx, rec)
		if payloadErr != nil {
			writeError(w, payloadErr)
			return
		}
		items = append(items, payload)
	}

	data := map[string]any{
		"itemsPerPage":     page.size,
		"currentItemCount": len(items),
		"startIndex":       page.start,
		"totalItems":       len(live),
		"pageIndex":        page.index(),
		"totalPages":       page.totalPages(len(live)),
		"items":            items,
	}
	listPath := h.baseURL + "/api2/" + string(table)
	if next, ok := page.nextStart(len(live)); ok {
		data["nextLink"] = pageLink(listPath, query, next, page.size)
	}
	if prev, ok := page.previousStart(); ok {
		data["previousLink"] = pageLink(listPath, query, prev, page.size)
	}
	writeData(w, http.StatusOK, data)
}

func (h handlers) getRecord(w http.ResponseWriter, r *http.Request, item string) {
	ctx := httpx.RequestContext(r)
	rec, err := h.catalog.Get(ctx, mscid.Prefix+item)
	if err != nil {
		writeError(w, err)
		return
	}
	if rec.Annulled() {
		writeStatusError(w, http.StatusNotFound, "not_found", "record "+rec.ID.String()+" has been annulled")
		return
	}
	payload, err := h.recordPayload(ctx, rec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, payload)
}

func (h handlers) handleCreate(w http.ResponseWriter, r *http.Request) {
	item := r.PathValue("item")
	table := mscid.Table(item)
	if !table.IsMain() {
		writeStatusError(w, http.StatusNotFound, "not_found", "no such record series: "+item)
		return
	}
	input, ok := decodeRecordBody(w, r)
	if !ok {
		return
	}
	ctx := httpx.RequestContext(r)
	id, fieldErrs, err := h.catalog.Save(ctx, "", table.Series(), input, requestUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if len(fieldErrs) > 0 {
		writeFieldErrors(w, http.StatusUnprocessableEntity, "the record failed validation", fieldErrs)
		return
	}
	h.writeRecord(w, r, id, http.StatusCreated)
}

func (h handlers) handleReplace(w http.ResponseWriter, r *http.Request) {
	item := r.PathValue("item")
	idStr := mscid.Prefix + item
	id, err := mscid.Parse(idStr)
	if err != nil || !id.Table.IsMain() {
		writeStatusError(w, http.StatusNotFound, "not_found", "no such record: "+item)
		return
	}
	input, ok := decodeRecordBody(w, r)
	if !ok {
		return
	}
	ctx := httpx.RequestContext(r)
	_, fieldErrs, err := h.catalog.Save(ctx, idStr, id.Table.Series(), input, requestUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if len(fieldErrs) > 0 {
		writeFieldErrors(w, http.StatusUnprocessableEntity, "the record failed validation", fieldErrs)
		return
	}
	h.writeRecord(w, r, id, http.StatusOK)
}

func (h handlers) handleAnnul(w http.ResponseWriter, r *http.Request) {
	item := r.PathValue("item")
	idStr := mscid.Prefix + item
	ctx := httpx.RequestContext(r)
	if err := h.catalog.Annul(ctx, idStr, requestUserID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"mscid": idStr, "annulled": true})
}

func (h handlers) writeRecord(w http.ResponseWriter, r *http.Request, id mscid.ID, status int) {
	ctx := httpx.RequestContext(r)
	rec, err := h.catalog.Get(ctx, id.String())
	if err != nil {
		writeError(w, err)
		return
	}
	payload, err := h.recordPayload(ctx, rec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, status, payload)
}

func decodeRecordBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var input map[string]any
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&input); err != nil {
		writeStatusError(w, http.StatusBadRequest, "invalid_request", "the request body must be a JSON object")
		return nil, false
	}
	return input, true
}

// recordPayload renders a record document for the API, adding the
// identifier fields and derived relations.
func (h handlers) recordPayload(ctx context.Context, rec records.Record) (map[string]any, error) {
	out := make(map[string]any, len(rec.Data)+4)
	for key, value := range rec.Data {
		out[key] = value
	}
	idStr := rec.ID.String()
	out["mscid"] = idStr
	out["uri"] = h.baseURL + "/api2/" + strings.TrimPrefix(idStr, mscid.Prefix)
	if slug, err := h.catalog.Slug(ctx, idStr); err == nil && slug != "" {
		out["slug"] = slug
	}
	if rec.ID.Table.IsMain() {
		view, err := h.catalog.View(ctx, idStr)
		if err != nil {
			return nil, err
		}
		if len(view.Entities) > 0 {
			out["relatedEntities"] = view.Entities
		}
	}
	return out, nil
}
