package job

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func newTestServer(secret string) *echo.Echo {
	e := echo.New()
	g := e.Group("/export", JWTMiddleware(secret))
	g.GET("/video/jobs", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	g.GET("/video/:id/stream", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return e
}

func signToken(t *testing.T, secret string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestJWTMiddlewareRejectsMissingToken(t *testing.T) {
	e := newTestServer("shh")
	req := httptest.NewRequest(http.MethodGet, "/export/video/jobs", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest && rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected request without a token to be rejected, got %d", rec.Code)
	}
}

func TestJWTMiddlewareAcceptsValidToken(t *testing.T) {
	e := newTestServer("shh")
	req := httptest.NewRequest(http.MethodGet, "/export/video/jobs", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "shh"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected valid token to be accepted, got %d", rec.Code)
	}
}

func TestJWTMiddlewareRejectsWrongSecret(t *testing.T) {
	e := newTestServer("shh")
	req := httptest.NewRequest(http.MethodGet, "/export/video/jobs", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "wrong"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code == http.StatusOK {
		t.Fatal("expected token signed with wrong secret to be rejected")
	}
}

func TestJWTMiddlewareSkipsStreamEndpoint(t *testing.T) {
	e := newTestServer("shh")
	req := httptest.NewRequest(http.MethodGet, "/export/video/abc/stream", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected stream endpoint to skip JWT auth, got %d", rec.Code)
	}
}
