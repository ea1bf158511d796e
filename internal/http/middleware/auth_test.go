// README: Tests for ID-token auth middleware.
package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"atlas/internal/http/middleware"
	"atlas/internal/infra"
)

// stubVerifier is a test double for infra.TokenVerifier.
type stubVerifier struct {
	caller *infra.Caller
	err    error
	got    string
}

func (s *stubVerifier) VerifyIDToken(_ context.Context, token string) (*infra.Caller, error) {
	s.got = token
	return s.caller, s.err
}

func newAuthRouter(verifier infra.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth(verifier))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": middleware.CallerUID(c)})
	})
	return r
}

func TestAuth_MissingHeader(t *testing.T) {
	r := newAuthRouter(&stubVerifier{caller: &infra.Caller{UID: "user1"}})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_InvalidBearerPrefix(t *testing.T) {
	r := newAuthRouter(&stubVerifier{caller: &infra.Caller{UID: "user1"}})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Token sometoken")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_VerifierError(t *testing.T) {
	r := newAuthRouter(&stubVerifier{err: errors.New("bad token")})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer invalidtoken")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_ValidToken_UIDPopulated(t *testing.T) {
	r := newAuthRouter(&stubVerifier{caller: &infra.Caller{UID: "traveler123"}})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer validtoken")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "traveler123") {
		t.Errorf("expected uid traveler123 in body, got %s", w.Body.String())
	}
}

// TestAuth_QueryToken covers websocket clients that cannot set headers.
func TestAuth_QueryToken(t *testing.T) {
	v := &stubVerifier{caller: &infra.Caller{UID: "ws-user"}}
	r := newAuthRouter(v)
	req := httptest.NewRequest(http.MethodGet, "/test?token=querytoken", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if v.got != "querytoken" {
		t.Errorf("expected verifier to see querytoken, got %q", v.got)
	}
}

func TestCallerUID_NoAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if uid := middleware.CallerUID(c); uid != "" {
		t.Errorf("expected empty uid, got %q", uid)
	}
}
