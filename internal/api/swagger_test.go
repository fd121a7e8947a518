package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAPISpecHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	w := httptest.NewRecorder()

	OpenAPISpecHandler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var doc struct {
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatalf("Failed to decode document: %v", err)
	}

	for _, path := range []string{"/convert", "/rates/update", "/rates/{update_id}", "/rates/latest", "/healthz", "/readyz"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("Expected path %s in document", path)
		}
	}
}
