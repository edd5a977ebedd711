package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"classifieds-service/internal/database"
	"classifieds-service/internal/service"
	"classifieds-service/migrations"
)

func newTestServer(t *testing.T) (*echo.Echo, *database.DB) {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.SQLite, ":memory:", database.Options{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := migrations.AutoMigrate(ctx, 0, db); err != nil {
		t.Fatalf("schema: %v", err)
	}

	e := NewRouter(Services{
		DB:    db,
		Users: service.NewUserService(nil),
		Ads:   service.NewAdService(nil, nil),
	})
	return e, db
}

func do(t *testing.T, e *echo.Echo, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func createUser(t *testing.T, e *echo.Echo, name string) int64 {
	t.Helper()
	code, body := do(t, e, http.MethodPost, "/user/", fmt.Sprintf(`{"name":%q,"password":"pw"}`, name))
	if code != 200 {
		t.Fatalf("create user: status %d, body %v", code, body)
	}
	return int64(body["id"].(float64))
}

func createAd(t *testing.T, e *echo.Echo, payload string) int64 {
	t.Helper()
	code, body := do(t, e, http.MethodPost, "/ad/", payload)
	if code != 200 {
		t.Fatalf("create ad: status %d, body %v", code, body)
	}
	return int64(body["id"].(float64))
}

func TestCreateUser_DuplicateName(t *testing.T) {
	e, db := newTestServer(t)

	createUser(t, e, "alice")

	code, body := do(t, e, http.MethodPost, "/user/", `{"name":"alice","password":"other"}`)
	if code != 409 {
		t.Fatalf("expected 409, got %d", code)
	}
	if body["error"] != "User already exists" {
		t.Errorf("unexpected body: %v", body)
	}

	var n int
	if err := db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM "user"`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 user row, got %d", n)
	}
}

func TestCreateUser_InvalidPayload(t *testing.T) {
	e, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":`},
		{"missing password", `{"name":"bob"}`},
		{"unknown field", `{"name":"bob","password":"pw","email":"b@x"}`},
		{"wrong type", `{"name":1,"password":"pw"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, e, http.MethodPost, "/user/", tt.body)
			if code != 400 || body["error"] != "Invalid request payload" {
				t.Errorf("got %d %v, want 400", code, body)
			}
		})
	}
}

func TestUserStubs(t *testing.T) {
	e, _ := newTestServer(t)
	id := createUser(t, e, "carol")

	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		code, body := do(t, e, method, fmt.Sprintf("/user/%d", id), "")
		if code != 501 || body["error"] != "Not implemented" {
			t.Errorf("%s /user/%d: got %d %v, want 501", method, id, code, body)
		}
	}
}

func TestAd_CreateThenGet(t *testing.T) {
	e, _ := newTestServer(t)
	owner := createUser(t, e, "dave")

	id := createAd(t, e, fmt.Sprintf(`{"title":"Bike","description":"Red bike","owner_id":%d,"registration_time":1700000000}`, owner))

	code, body := do(t, e, http.MethodGet, fmt.Sprintf("/ad/%d", id), "")
	if code != 200 {
		t.Fatalf("expected 200, got %d %v", code, body)
	}
	if body["id"] != float64(id) || body["title"] != "Bike" || body["description"] != "Red bike" {
		t.Errorf("unexpected ad: %v", body)
	}
	if body["owner_id"] != float64(owner) {
		t.Errorf("owner_id = %v, want %d", body["owner_id"], owner)
	}
	if body["registration_time"] != float64(1700000000) {
		t.Errorf("registration_time = %v, want 1700000000", body["registration_time"])
	}
}

func TestAd_CreateWithoutOwner(t *testing.T) {
	e, _ := newTestServer(t)
	id := createAd(t, e, `{"title":"Lamp","description":"Desk lamp"}`)

	code, body := do(t, e, http.MethodGet, fmt.Sprintf("/ad/%d", id), "")
	if code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
	if v, ok := body["owner_id"]; !ok || v != nil {
		t.Errorf("owner_id = %v (present %v), want null", v, ok)
	}
	if ts, _ := body["registration_time"].(float64); ts <= 0 {
		t.Errorf("registration_time should be stamped by storage, got %v", body["registration_time"])
	}
}

func TestAd_NotFound(t *testing.T) {
	e, _ := newTestServer(t)

	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		payload := ""
		if method == http.MethodPatch {
			payload = `{"title":"x"}`
		}
		code, body := do(t, e, method, "/ad/42", payload)
		if code != 404 {
			t.Errorf("%s: expected 404, got %d", method, code)
		}
		if body["error"] != "User with id 42 not found" {
			t.Errorf("%s: unexpected body %v", method, body)
		}
	}
}

func TestAd_PatchChangesOnlyGivenFields(t *testing.T) {
	e, _ := newTestServer(t)
	id := createAd(t, e, `{"title":"old","description":"keep me"}`)
	path := fmt.Sprintf("/ad/%d", id)

	code, body := do(t, e, http.MethodPatch, path, `{"title":"new"}`)
	if code != 200 {
		t.Fatalf("expected 200, got %d %v", code, body)
	}
	if body["title"] != "new" || body["description"] != "keep me" {
		t.Errorf("unexpected patch response: %v", body)
	}
	if _, ok := body["owner_id"]; ok {
		t.Errorf("patch response should not include owner_id: %v", body)
	}

	_, body = do(t, e, http.MethodGet, path, "")
	if body["title"] != "new" || body["description"] != "keep me" {
		t.Errorf("unexpected ad after patch: %v", body)
	}
}

func TestAd_PatchWrongType(t *testing.T) {
	e, _ := newTestServer(t)
	id := createAd(t, e, `{"title":"t","description":"d"}`)

	code, body := do(t, e, http.MethodPatch, fmt.Sprintf("/ad/%d", id), `{"title":5}`)
	if code != 400 || body["error"] != "Invalid request payload" {
		t.Errorf("got %d %v, want 400", code, body)
	}
}

func TestAd_Delete(t *testing.T) {
	e, _ := newTestServer(t)
	id := createAd(t, e, `{"title":"t","description":"d"}`)
	path := fmt.Sprintf("/ad/%d", id)

	code, body := do(t, e, http.MethodDelete, path, "")
	if code != 200 || body["deleted id"] != float64(id) {
		t.Fatalf("got %d %v", code, body)
	}

	code, _ = do(t, e, http.MethodGet, path, "")
	if code != 404 {
		t.Errorf("expected 404 after delete, got %d", code)
	}
}

func TestNonNumericID(t *testing.T) {
	e, _ := newTestServer(t)

	for _, path := range []string{"/ad/abc", "/ad/-1", "/user/1x"} {
		code, _ := do(t, e, http.MethodGet, path, "")
		if code != 404 {
			t.Errorf("GET %s: expected 404, got %d", path, code)
		}
	}
}

func TestAd_ConcurrentPatches(t *testing.T) {
	e, _ := newTestServer(t)
	id := createAd(t, e, `{"title":"t0","description":"d0"}`)
	path := fmt.Sprintf("/ad/%d", id)

	var wg sync.WaitGroup
	for _, payload := range []string{`{"title":"t1"}`, `{"description":"d1"}`} {
		wg.Add(1)
		go func(payload string) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(payload))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != 200 {
				t.Errorf("PATCH %s: status %d", payload, rec.Code)
			}
		}(payload)
	}
	wg.Wait()

	_, body := do(t, e, http.MethodGet, path, "")
	if body["title"] != "t1" || body["description"] != "d1" {
		t.Errorf("each patch should keep its own fields: %v", body)
	}
}

func TestHealth(t *testing.T) {
	e, db := newTestServer(t)

	code, body := do(t, e, http.MethodGet, "/health", "")
	if code != 200 || body["status"] != "ok" {
		t.Fatalf("got %d %v", code, body)
	}

	_ = db.Close()
	code, body = do(t, e, http.MethodGet, "/health", "")
	if code != 503 || body["status"] != "unavailable" {
		t.Errorf("got %d %v after close, want 503", code, body)
	}
}
