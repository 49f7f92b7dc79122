package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newKeyRouter(key string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/ingest", APIKeyRequired(key), func(ctx *gin.Context) {
		ctx.Status(http.StatusNoContent)
	})
	return r
}

func doPost(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAPIKeyOpenWhenUnconfigured(t *testing.T) {
	r := newKeyRouter("")
	if w := doPost(r, nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected open endpoint, got %d", w.Code)
	}
}

func TestAPIKeyMissing(t *testing.T) {
	r := newKeyRouter("sekrit")
	if w := doPost(r, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing key, got %d", w.Code)
	}
}

func TestAPIKeyWrong(t *testing.T) {
	r := newKeyRouter("sekrit")
	if w := doPost(r, map[string]string{APIKeyHeader: "nope"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong key, got %d", w.Code)
	}
}

func TestAPIKeyCorrect(t *testing.T) {
	r := newKeyRouter("sekrit")
	if w := doPost(r, map[string]string{APIKeyHeader: "sekrit"}); w.Code != http.StatusNoContent {
		t.Fatalf("expected pass-through with valid key, got %d", w.Code)
	}
}
