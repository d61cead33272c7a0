package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/parkease/parkease/internal/utils"
)

const testSecret = "test-secret"

func run(t *testing.T, mw echo.MiddlewareFunc, authz string, setup func(echo.Context)) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}

	reached := false
	h := mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec, reached
}

func TestJWTAuth(t *testing.T) {
	access, err := utils.NewAccessToken(testSecret, "u_42", "user", 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	t.Run("valid token passes and sets claims", func(t *testing.T) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+access.Token)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		h := JWTAuth(testSecret)(func(c echo.Context) error {
			if uid, _ := c.Get("user_id").(string); uid != "u_42" {
				t.Errorf("user_id = %v, want u_42", c.Get("user_id"))
			}
			if role, _ := c.Get("role").(string); role != "user" {
				t.Errorf("role = %v, want user", c.Get("role"))
			}
			return c.NoContent(http.StatusOK)
		})
		if err := h(c); err != nil {
			t.Fatalf("handler: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("missing header rejected", func(t *testing.T) {
		rec, reached := run(t, JWTAuth(testSecret), "", nil)
		if reached || rec.Code != http.StatusUnauthorized {
			t.Errorf("reached=%v status=%d, want blocked 401", reached, rec.Code)
		}
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		rec, reached := run(t, JWTAuth("other-secret"), "Bearer "+access.Token, nil)
		if reached || rec.Code != http.StatusUnauthorized {
			t.Errorf("reached=%v status=%d, want blocked 401", reached, rec.Code)
		}
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		rec, reached := run(t, JWTAuth(testSecret), "Bearer not.a.jwt", nil)
		if reached || rec.Code != http.StatusUnauthorized {
			t.Errorf("reached=%v status=%d, want blocked 401", reached, rec.Code)
		}
	})
}

func TestRequireRole(t *testing.T) {
	withRole := func(role any) func(echo.Context) {
		return func(c echo.Context) { c.Set("role", role) }
	}

	t.Run("allowed role passes", func(t *testing.T) {
		rec, reached := run(t, RequireRole("user", "admin"), "", withRole("user"))
		if !reached || rec.Code != http.StatusOK {
			t.Errorf("reached=%v status=%d, want pass", reached, rec.Code)
		}
	})

	t.Run("other role blocked", func(t *testing.T) {
		rec, reached := run(t, RequireRole("admin"), "", withRole("user"))
		if reached || rec.Code != http.StatusForbidden {
			t.Errorf("reached=%v status=%d, want blocked 403", reached, rec.Code)
		}
	})

	t.Run("missing role blocked", func(t *testing.T) {
		rec, reached := run(t, RequireRole("user"), "", nil)
		if reached || rec.Code != http.StatusForbidden {
			t.Errorf("reached=%v status=%d, want blocked 403", reached, rec.Code)
		}
	})

	t.Run("non-string role blocked", func(t *testing.T) {
		rec, reached := run(t, RequireRole("user"), "", withRole(42))
		if reached || rec.Code != http.StatusForbidden {
			t.Errorf("reached=%v status=%d, want blocked 403", reached, rec.Code)
		}
	})
}
