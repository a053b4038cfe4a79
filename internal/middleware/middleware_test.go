package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aliyusifov99/inventory-management/internal/service"
	"github.com/aliyusifov99/inventory-management/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newSigner(t *testing.T) *jwt.Signer {
	t.Helper()
	s, err := jwt.NewSigner("test-secret", time.Hour)
	require.NoError(t, err)
	return s
}

func guardedApp(signer *jwt.Signer) *fiber.App {
	app := fiber.New()
	app.Post("/stock", RequireAuth(signer), RequirePrivilege(jwt.PrivStockMove), func(c *fiber.Ctx) error {
		return c.SendString(service.ActorFrom(c.UserContext()))
	})
	return app
}

func TestRequireAuth(t *testing.T) {
	signer := newSigner(t)
	app := guardedApp(signer)

	mover, err := signer.GenerateToken("op-7", "Oper", []string{jwt.PrivStockMove})
	require.NoError(t, err)
	viewer, err := signer.GenerateToken("op-8", "Viewer", []string{jwt.PrivTransactionView})
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"bad format", "Token " + mover, fiber.StatusUnauthorized},
		{"bad token", "Bearer nope", fiber.StatusUnauthorized},
		{"no privilege", "Bearer " + viewer, fiber.StatusForbidden},
		{"ok", "Bearer " + mover, fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/stock", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireAuthSetsActor(t *testing.T) {
	signer := newSigner(t)
	token, err := signer.GenerateToken("op-7", "Oper", []string{jwt.PrivStockMove})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/stock", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := guardedApp(signer).Test(req)
	require.NoError(t, err)

	body := make([]byte, 16)
	n, _ := resp.Body.Read(body)
	assert.Equal(t, "op-7", string(body[:n]))
}

func TestRequireAuthDisabled(t *testing.T) {
	resp, err := guardedApp(nil).Test(httptest.NewRequest("POST", "/stock", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequirePrivilegeReadsClaims(t *testing.T) {
	app := fiber.New()
	app.Get("/none", RequirePrivilege(jwt.PrivStockMove), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/claims", func(c *fiber.Ctx) error {
		c.Locals(LocalClaims, &jwt.Claims{Privileges: []string{jwt.PrivStockMove}})
		return c.Next()
	}, RequirePrivilege(jwt.PrivStockMove), func(c *fiber.Ctx) error {
		claims := c.Locals(LocalClaims).(*jwt.Claims)
		return c.SendString(claims.Privileges[0])
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/none", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/claims", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 2)
	defer rl.Stop()

	app := fiber.New()
	app.Use(rl.Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	var codes []int
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{fiber.StatusNoContent, fiber.StatusNoContent, fiber.StatusTooManyRequests}, codes)

	rl.evictIdle(time.Now().Add(2 * visitorIdle))
	rl.mtx.Lock()
	assert.Empty(t, rl.visitors)
	rl.mtx.Unlock()
}

func TestRequestLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	app := fiber.New()
	app.Use(RequestLogger(logger))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/down", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusServiceUnavailable) })

	_, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest("GET", "/down", nil))
	require.NoError(t, err)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, logrus.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok", entries[0].Data["path"])
	assert.Equal(t, "GET", entries[0].Data["method"])
	assert.Equal(t, logrus.WarnLevel, entries[1].Level)
	assert.Equal(t, "/down", entries[1].Data["path"])
	assert.Equal(t, fiber.StatusServiceUnavailable, entries[1].Data["status"])
}
