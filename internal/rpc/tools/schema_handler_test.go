package tools

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/4ug-aug/presentor/internal/tools"
)

func TestSchemaHandler(t *testing.T) {
	reg := tools.NewRegistry(nil, nil)
	h := SchemaHandler{Registry: reg}
	req := httptest.NewRequest(http.MethodGet, "/tools/schemas", nil)
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var schemas []tools.Schema
	if err := json.Unmarshal(rr.Body.Bytes(), &schemas); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(schemas) != 5 {
		t.Fatalf("expected 5 tools, got %d", len(schemas))
	}
	sensitive := 0
	for _, s := range schemas {
		if s.Sensitive {
			sensitive++
		}
	}
	if sensitive != 1 {
		t.Fatalf("expected exactly one sensitive tool, got %d", sensitive)
	}
}

func TestSchemaHandlerRejectsPost(t *testing.T) {
	h := SchemaHandler{Registry: tools.NewRegistry(nil, nil)}
	req := httptest.NewRequest(http.MethodPost, "/tools/schemas", nil)
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
