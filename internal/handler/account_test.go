package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fundedlabs/propgate/internal/config"
	"github.com/fundedlabs/propgate/internal/middleware"
	"github.com/gin-gonic/gin"
)

func adminRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAccountHandler(nil)

	router := gin.New()
	router.Use(middleware.ErrorHandler())
	admin := router.Group("/v1")
	admin.Use(middleware.AdminMiddleware(cfg))
	admin.PATCH("/accounts/:id/status", h.UpdateStatus)
	return router
}

func TestUpdateStatusRequiresAdminKey(t *testing.T) {
	cfg := &config.Config{}
	cfg.Auth.AdminKey = "admin-secret"
	router := adminRouter(cfg)

	body := []byte(`{"status":"funded"}`)

	// no key
	req := httptest.NewRequest(http.MethodPatch, "/v1/accounts/acct-1/status", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without admin key, got %d", w.Code)
	}

	// wrong key
	req = httptest.NewRequest(http.MethodPatch, "/v1/accounts/acct-1/status", bytes.NewReader(body))
	req.Header.Set(middleware.HeaderAdminKey, "nope")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong admin key, got %d", w.Code)
	}
}

func TestUpdateStatusRejectsWhenAdminKeyUnset(t *testing.T) {
	router := adminRouter(&config.Config{})

	req := httptest.NewRequest(http.MethodPatch, "/v1/accounts/acct-1/status", bytes.NewReader([]byte(`{"status":"funded"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without configured admin key, got %d", w.Code)
	}
}

func TestUpdateStatusRejectsBadBody(t *testing.T) {
	cfg := &config.Config{}
	cfg.Auth.AdminKey = "admin-secret"
	router := adminRouter(cfg)

	req := httptest.NewRequest(http.MethodPatch, "/v1/accounts/acct-1/status", bytes.NewReader([]byte(`{}`)))
	req.Header.Set(middleware.HeaderAdminKey, "admin-secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty body, got %d", w.Code)
	}
}
