package testutil

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestRequestBuilder(t *testing.T) {
	req, w := NewRequest().
		GET("/Traits/Decompose").
		WithQuery("type", "int (*)(int&&)").
		WithHeader("X-Test", "1").
		Build()

	if req.Method != http.MethodGet {
		t.Errorf("method = %s", req.Method)
	}
	if got := req.URL.Query().Get("type"); got != "int (*)(int&&)" {
		t.Errorf("query type = %q", got)
	}
	if req.Header.Get("X-Test") != "1" {
		t.Error("header not set")
	}
	if w == nil {
		t.Fatal("nil recorder")
	}
}

func TestAssertHelpers(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": "invalid_argument", "message": "bad", "details": map[string]any{"field": "type"}},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"n": 2}})
	})

	w := NewRequest().GET("/").Do(h)
	AssertStatus(t, w, http.StatusOK)
	AssertJSONResponse(t, w, map[string]int{"n": 2})

	var res struct{ N int }
	DecodeResult(t, w, &res)
	if res.N != 2 {
		t.Errorf("DecodeResult: got %d", res.N)
	}

	w = NewRequest().POST("/").WithJSON(map[string]string{}).Do(h)
	AssertStatus(t, w, http.StatusBadRequest)
	e := AssertJSONError(t, w, "invalid_argument")
	if e.Details["field"] != "type" {
		t.Errorf("details = %v", e.Details)
	}
}
