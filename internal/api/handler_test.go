package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eugenenazirov/realestate-crm/internal/crud"
	"github.com/eugenenazirov/realestate-crm/internal/store"
)

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestAgentLifecycle(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimit(0, 0))

	rec := do(t, router, http.MethodPost, "/api/agents", `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[map[string]any](t, rec)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("expected generated id, got %v", created)
	}
	if created["createdAt"] == nil || created["updatedAt"] == nil {
		t.Fatalf("expected timestamps, got %v", created)
	}

	rec = do(t, router, http.MethodGet, "/api/agents/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPatch, "/api/agents/"+id, `{"phone":"555-0100"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[map[string]any](t, rec)
	if updated["phone"] != "555-0100" || updated["firstName"] != "Ada" {
		t.Fatalf("unexpected update result %v", updated)
	}

	rec = do(t, router, http.MethodGet, "/api/agents", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on list, got %d", rec.Code)
	}
	if got := rec.Header().Get(TotalCountHeader); got != "1" {
		t.Fatalf("expected total count 1, got %q", got)
	}

	rec = do(t, router, http.MethodDelete, "/api/agents/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/api/agents/"+id, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
	resp := decodeBody[errorResponse](t, rec)
	if want := `No resource was found for {"id":"` + id + `"}`; resp.Details != want {
		t.Fatalf("expected details %q, got %q", want, resp.Details)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimit(0, 0))

	cases := map[string]string{
		"malformed json": `{"firstName":`,
		"missing email":  `{"firstName":"Ada","lastName":"Lovelace"}`,
		"invalid email":  `{"firstName":"Ada","lastName":"Lovelace","email":"nope"}`,
	}
	for name, body := range cases {
		rec := do(t, router, http.MethodPost, "/api/agents", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", name, rec.Code, rec.Body.String())
		}
	}
}

func TestCreateRejectsDanglingReference(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimit(0, 0))

	rec := do(t, router, http.MethodPost, "/api/clients",
		`{"firstName":"Grace","lastName":"Hopper","agentId":"00000000-0000-4000-8000-0000000000ff"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeBody[errorResponse](t, rec); !strings.Contains(resp.Details, "agentId") {
		t.Fatalf("expected details to name agentId, got %q", resp.Details)
	}
}

func TestUpdateAndDeleteMissingRecord(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimit(0, 0))
	const missing = "00000000-0000-4000-8000-0000000000aa"

	if rec := do(t, router, http.MethodPatch, "/api/properties/"+missing, `{"city":"Paris"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on update, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodDelete, "/api/appointments/"+missing, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on delete, got %d", rec.Code)
	}
}

func TestListPaging(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimit(0, 0))

	for _, name := range []string{"One", "Two", "Three"} {
		body := `{"address":"` + name + ` Street","city":"Lisbon","price":100000}`
		if rec := do(t, router, http.MethodPost, "/api/properties", body); rec.Code != http.StatusCreated {
			t.Fatalf("create %s: %d %s", name, rec.Code, rec.Body.String())
		}
	}

	rec := do(t, router, http.MethodGet, "/api/properties?take=1&skip=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	page := decodeBody[[]map[string]any](t, rec)
	if len(page) != 1 || page[0]["address"] != "Two Street" {
		t.Fatalf("unexpected page %v", page)
	}
	if page[0]["status"] != "Available" {
		t.Fatalf("expected default status, got %v", page[0]["status"])
	}
	if got := rec.Header().Get(TotalCountHeader); got != "3" {
		t.Fatalf("expected total count 3, got %q", got)
	}

	for _, query := range []string{"take=-1", "skip=abc"} {
		if rec := do(t, router, http.MethodGet, "/api/properties?"+query, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", query, rec.Code)
		}
	}
}

func TestAgentRelations(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimit(0, 0))

	rec := do(t, router, http.MethodPost, "/api/agents", `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com"}`)
	agentID := decodeBody[map[string]any](t, rec)["id"].(string)

	rec = do(t, router, http.MethodPost, "/api/clients", `{"firstName":"Grace","lastName":"Hopper","agentId":"`+agentID+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create client: %d %s", rec.Code, rec.Body.String())
	}
	do(t, router, http.MethodPost, "/api/clients", `{"firstName":"Alan","lastName":"Turing"}`)

	rec = do(t, router, http.MethodGet, "/api/agents/"+agentID+"/clients", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	related := decodeBody[[]map[string]any](t, rec)
	if len(related) != 1 || related[0]["firstName"] != "Grace" {
		t.Fatalf("unexpected related clients %v", related)
	}

	rec = do(t, router, http.MethodGet, "/api/agents/"+agentID+"/appointments", "")
	if got := decodeBody[[]map[string]any](t, rec); len(got) != 0 {
		t.Fatalf("expected no appointments, got %v", got)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&crud.NotFoundError{ID: "x"}, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", store.ErrNotFound), http.StatusNotFound},
		{&crud.ValidationError{Err: errors.New("bad")}, http.StatusBadRequest},
		{store.ErrInvalidQuery, http.StatusBadRequest},
		{store.ErrDuplicateID, http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got, _ := statusFor(tc.err); got != tc.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
