package middleware

import (
	"net/http/httptest"
	"testing"

	"nexogeo-platform/utils"

	"github.com/gofiber/fiber/v2"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	secured := app.Group("/", UserContextMiddleware())
	secured.Get("/dashboard", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"role": ResolveRole(c)})
	})
	admin := secured.Group("/admin", RequireRole(utils.RoleAdmin))
	admin.Get("/draw", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app
}

func TestUserContextRequired(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest("GET", "/dashboard", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("missing X-User-ID should be 401, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/dashboard", nil)
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("X-User-Roles", "viewer")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("authenticated request should be 200, got %d", resp.StatusCode)
	}
}

func TestRequireRoleAdmin(t *testing.T) {
	app := newTestApp()

	tests := []struct {
		name       string
		roles      string
		wantStatus int
	}{
		{"admin allowed", "admin", fiber.StatusOK},
		{"moderator denied", "moderator", fiber.StatusForbidden},
		{"editor denied", "editor", fiber.StatusForbidden},
		{"viewer denied", "viewer", fiber.StatusForbidden},
		{"no roles denied", "", fiber.StatusForbidden},
		{"admin among several roles allowed", "viewer, admin", fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin/draw", nil)
			req.Header.Set("X-User-ID", "u1")
			if tt.roles != "" {
				req.Header.Set("X-User-Roles", tt.roles)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("roles=%q: got %d, want %d", tt.roles, resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestResolveRolePrecedence(t *testing.T) {
	app := fiber.New()
	app.Get("/role", UserContextMiddleware(), func(c *fiber.Ctx) error {
		return c.SendString(ResolveRole(c))
	})

	tests := []struct {
		roles string
		want  string
	}{
		{"admin", utils.RoleAdmin},
		{"moderator,editor", utils.RoleModerator},
		{"editor,admin", utils.RoleAdmin}, // order on the wire is irrelevant
		{"user", utils.RoleViewer},        // user is an alias of viewer
		{"unknown-role", utils.RoleViewer},
		{"", utils.RoleViewer},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/role", nil)
		req.Header.Set("X-User-ID", "u1")
		if tt.roles != "" {
			req.Header.Set("X-User-Roles", tt.roles)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		buf := make([]byte, 32)
		n, _ := resp.Body.Read(buf)
		if got := string(buf[:n]); got != tt.want {
			t.Errorf("roles=%q: resolved %q, want %q", tt.roles, got, tt.want)
		}
	}
}
