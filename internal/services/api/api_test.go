package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mscwg/catalog/internal/catalog"
	"github.com/mscwg/catalog/internal/catalog/mscid"
	"github.com/mscwg/catalog/internal/catalog/storage/sqlite"
	"github.com/mscwg/catalog/internal/catalog/users"
	"github.com/mscwg/catalog/internal/catalog/vocab"
)

func newFixture(t *testing.T) (*catalog.Catalog, *sqlite.Store, http.Handler, *users.TokenIssuer) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	thesaurus, err := vocab.Load()
	if err != nil {
		t.Fatalf("vocab.Load() error: %v", err)
	}
	ctx := context.Background()
	seed := []struct {
		table mscid.Table
		doc   map[string]any
	}{
		{mscid.TableLocation, map[string]any{"id": "website", "label": "website"}},
		{mscid.TableType, map[string]any{"id": "standards-body", "label": "standards body", "applies": []any{"organization"}}},
		{mscid.TableIDScheme, map[string]any{"id": "doi", "label": "DOI"}},
		{mscid.TableDatatype, map[string]any{"label": "Dataset"}},
	}
	for _, s := range seed {
		if _, err := store.CreateRecord(ctx, s.table, s.doc, "", "seed"); err != nil {
			t.Fatalf("seed %s: %v", s.table, err)
		}
	}
	cat := catalog.New(store, thesaurus)
	tokens := users.NewTokenIssuer([]byte("test-secret-key"))
	handler, err := NewHandler(Config{Catalog: cat, Tokens: tokens, BaseURL: "http://msc.test"})
	if err != nil {
		t.Fatalf("NewHandler error: %v", err)
	}
	return cat, store, handler, tokens
}

func saveRecord(t *testing.T, cat *catalog.Catalog, series string, input map[string]any) mscid.ID {
	t.Helper()
	id, fieldErrs, err := cat.Save(context.Background(), "", series, input, "test$editor")
	if err != nil {
		t.Fatalf("Save(%s) error: %v", series, err)
	}
	if len(fieldErrs) > 0 {
		t.Fatalf("Save(%s) field errors: %v", series, fieldErrs)
	}
	return id
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, resp.Body.String())
	}
	if body["apiVersion"] != Version {
		t.Errorf("apiVersion = %v, want %s", body["apiVersion"], Version)
	}
	return body
}

func TestGetRecord(t *testing.T) {
	cat, _, handler, _ := newFixture(t)
	saveRecord(t, cat, "organization", map[string]any{
		"name":  "Dublin Core Metadata Initiative",
		"types": []any{"standards body"},
	})
	saveRecord(t, cat, "scheme", map[string]any{
		"title":       "Dublin Core",
		"description": "<p>A simple element set.</p>",
		"relatedEntities": []any{
			map[string]any{"id": "msc:g1", "role": "maintainer"},
		},
	})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api2/m1", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.Code, resp.Body.String())
	}
	body := decodeEnvelope(t, resp)
	data, _ := body["data"].(map[string]any)
	if data["mscid"] != "msc:m1" {
		t.Errorf("mscid = %v, want msc:m1", data["mscid"])
	}
	if data["uri"] != "http://msc.test/api2/m1" {
		t.Errorf("uri = %v", data["uri"])
	}
	if data["slug"] != "dublin-core" {
		t.Errorf("slug = %v, want dublin-core", data["slug"])
	}
	related, _ := data["relatedEntities"].([]any)
	if len(related) != 1 {
		t.Fatalf("relatedEntities = %v, want one entry", data["relatedEntities"])
	}
	entity, _ := related[0].(map[string]any)
	if entity["id"] != "msc:g1" || entity["role"] != "maintainer" {
		t.Errorf("related entity = %v", entity)
	}
}

func TestGetRecordNotFound(t *testing.T) {
	_, _, handler, _ := newFixture(t)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api2/m99", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
	body := decodeEnvelope(t, resp)
	if body["error"] == nil {
		t.Error("expected error object")
	}
}

func TestListPaging(t *testing.T) {
	cat, _, handler, _ := newFixture(t)
	for _, title := range []string{"Scheme One", "Scheme Two", "Scheme Three"} {
		saveRecord(t, cat, "scheme", map[string]any{"title": title})
	}

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api2/m?pageSize=2", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.Code, resp.Body.String())
	}
	data, _ := decodeEnvelope(t, resp)["data"].(map[string]any)
	if data["totalItems"] != float64(3) {
		t.Errorf("totalItems = %v, want 3", data["totalItems"])
	}
	if data["currentItemCount"] != float64(2) {
		t.Errorf("currentItemCount = %v, want 2", data["currentItemCount"])
	}
	if data["totalPages"] != float64(2) {
		t.Errorf("totalPages = %v, want 2", data["totalPages"])
	}
	next, _ := data["nextLink"].(string)
	if !strings.Contains(next, "start=3") {
		t.Errorf("nextLink = %q, want start=3", next)
	}
	if data["previousLink"] != nil {
		t.Errorf("previousLink = %v, want absent on first page", data["previousLink"])
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api2/m?pageSize=2&pageIndex=2", nil))
	data, _ = decodeEnvelope(t, resp)["data"].(map[string]any)
	if data["currentItemCount"] != float64(1) {
		t.Errorf("second page currentItemCount = %v, want 1", data["currentItemCount"])
	}
	if data["pageIndex"] != float64(2) {
		t.Errorf("pageIndex = %v, want 2", data["pageIndex"])
	}
}

func TestListQueryFilter(t *testing.T) {
	cat, _, handler, _ := newFixture(t)
	saveRecord(t, cat, "scheme", map[string]any{"title": "Dublin Core"})
	saveRecord(t, cat, "scheme", map[string]any{"title": "Darwin Core"})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api2/m?q=title:dublin", nil))
	data, _ := decodeEnvelope(t, resp)["data"].(map[string]any)
	if data["totalItems"] != float64(1) {
		t.Fatalf("totalItems = %v, want 1 (body %v)", data["totalItems"], data)
	}
}

func TestWriteRequiresToken(t *testing.T) {
	_, _, handler, _ := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api2/m", strings.NewReader(`{"title":"X"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
	if resp.Header().Get("WWW-Authenticate") == "" {
		t.Error("expected WWW-Authenticate header")
	}
}

func TestTokenFlowAndCreate(t *testing.T) {
	_, store, handler, _ := newFixture(t)
	hash, err := users.HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	apiUser := users.APIUser{UserID: "api$harvester", Name: "harvester", PasswordHash: hash}
	if err := store.SaveAPIUser(context.Background(), apiUser); err != nil {
		t.Fatalf("SaveAPIUser error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api2/user/token", nil)
	req.SetBasicAuth("api$harvester", "correct horse battery")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("token status = %d, body %s", resp.Code, resp.Body.String())
	}
	data, _ := decodeEnvelope(t, resp)["data"].(map[string]any)
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatal("expected a token")
	}

	req = httptest.NewRequest(http.MethodPost, "/api2/m", strings.NewReader(`{"title":"New Scheme"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", resp.Code, resp.Body.String())
	}
	created, _ := decodeEnvelope(t, resp)["data"].(map[string]any)
	if created["mscid"] != "msc:m1" {
		t.Errorf("created mscid = %v, want msc:m1", created["mscid"])
	}
}

func TestTokenWrongPassword(t *testing.T) {
	_, store, handler, _ := newFixture(t)
	hash, _ := users.HashPassword("correct horse battery")
	_ = store.SaveAPIUser(context.Background(), users.APIUser{UserID: "api$harvester", PasswordHash: hash})

	req := httptest.NewRequest(http.MethodPost, "/api2/user/token", nil)
	req.SetBasicAuth("api$harvester", "wrong password")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}

func TestResetPassword(t *testing.T) {
	_, store, handler, _ := newFixture(t)
	hash, _ := users.HashPassword("correct horse battery")
	_ = store.SaveAPIUser(context.Background(), users.APIUser{UserID: "api$harvester", PasswordHash: hash})

	req := httptest.NewRequest(http.MethodPost, "/api2/user/reset-password",
		strings.NewReader(`{"new_password":"a whole new phrase"}`))
	req.SetBasicAuth("api$harvester", "correct horse battery")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.Code, resp.Body.String())
	}

	account, err := store.GetAPIUser(context.Background(), "api$harvester")
	if err != nil {
		t.Fatalf("GetAPIUser error: %v", err)
	}
	if ok, _ := users.VerifyPassword(account.PasswordHash, "a whole new phrase"); !ok {
		t.Error("new password does not verify")
	}
}

func TestResetPasswordTooWeak(t *testing.T) {
	_, store, handler, _ := newFixture(t)
	hash, _ := users.HashPassword("correct horse battery")
	_ = store.SaveAPIUser(context.Background(), users.APIUser{UserID: "api$harvester", PasswordHash: hash})

	req := httptest.NewRequest(http.MethodPost, "/api2/user/reset-password",
		strings.NewReader(`{"new_password":"short"}`))
	req.SetBasicAuth("api$harvester", "correct horse battery")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code == http.StatusOK {
		t.Fatal("expected a policy error")
	}
}

func TestRelationsEndpoints(t *testing.T) {
	cat, _, handler, tokens := newFixture(t)
	saveRecord(t, cat, "organization", map[string]any{"name": "DCMI"})
	saveRecord(t, cat, "scheme", map[string]any{
		"title": "Dublin Core",
		"relatedEntities": []any{
			map[string]any{"id": "msc:g1", "role": "maintainer"},
		},
	})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api2/rel/msc:m1", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("rel status = %d, body %s", resp.Code, resp.Body.String())
	}
	data, _ := decodeEnvelope(t, resp)["data"].(map[string]any)
	maintainers, _ := data["maintainers"].([]any)
	if len(maintainers) != 1 || maintainers[0] != "msc:g1" {
		t.Errorf("maintainers = %v, want [msc:g1]", data["maintainers"])
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api2/invrel/msc:g1", nil))
	data, _ = decodeEnvelope(t, resp)["data"].(map[string]any)
	maintained, _ := data["maintained schemes"].([]any)
	if len(maintained) != 1 || maintained[0] != "msc:m1" {
		t.Errorf("maintained schemes = %v, want [msc:m1]", data["maintained schemes"])
	}

	token, err := tokens.Issue("api$harvester")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	patch := `[{"op":"remove","path":"/maintainers/0"}]`
	req := httptest.NewRequest(http.MethodPatch, "/api2/rel/msc:m1", strings.NewReader(patch))
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", resp.Code, resp.Body.String())
	}

	rels, err := cat.Relations(context.Background(), "msc:m1")
	if err != nil {
		t.Fatalf("Relations error: %v", err)
	}
	if len(rels["maintainers"]) != 0 {
		t.Errorf("maintainers after patch = %v, want none", rels["maintainers"])
	}
}

func TestAnnulRecord(t *testing.T) {
	cat, _, handler, tokens := newFixture(t)
	saveRecord(t, cat, "scheme", map[string]any{"title": "Short Lived"})

	token, _ := tokens.Issue("api$harvester")
	req := httptest.NewRequest(http.MethodDelete, "/api2/m1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api2/m1", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("get after annul status = %d, want 404", resp.Code)
	}
}

func TestThesaurus(t *testing.T) {
	_, _, handler, _ := newFixture(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api2/thesaurus", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("scheme status = %d", resp.Code)
	}
	data, _ := decodeEnvelope(t, resp)["data"].(map[string]any)
	if data["@type"] != "skos:ConceptScheme" {
		t.Errorf("@type = %v", data["@type"])
	}
	tops, _ := data["skos:hasTopConcept"].([]any)
	if len(tops) == 0 {
		t.Error("expected top concepts")
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api2/thesaurus/subdomain235", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("term status = %d, body %s", resp.Code, resp.Body.String())
	}
	data, _ = decodeEnvelope(t, resp)["data"].(map[string]any)
	if data["@id"] != vocab.SchemeURI+"/subdomain235" {
		t.Errorf("@id = %v", data["@id"])
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api2/thesaurus/nope999", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("unknown term status = %d, want 404", resp.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	_, _, handler, _ := newFixture(t)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api2/no/such/route", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
	body := decodeEnvelope(t, resp)
	if body["error"] == nil {
		t.Error("expected a JSON error body")
	}
}
