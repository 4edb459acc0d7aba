package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backcheck-service/internal/guard"
	"backcheck-service/internal/profile"
	"backcheck-service/pkg/models"
)

type staticVerifier map[string]string

func (v staticVerifier) VerifyToken(_ context.Context, token string) (string, error) {
	if uid, ok := v[token]; ok {
		return uid, nil
	}
	return "", errors.New("bad token")
}

type mapLoader map[string]*models.Profile

func (m mapLoader) Get(_ context.Context, uid string) (*models.Profile, error) {
	if p, ok := m[uid]; ok {
		return p, nil
	}
	return nil, profile.ErrNotFound
}

func testApp() *fiber.App {
	verifier := staticVerifier{"talent-token": "t1", "employer-token": "e1", "ghost-token": "g1"}
	loader := mapLoader{
		"t1": {Talent: &models.TalentProfile{Principal: models.Principal{UID: "t1", Role: models.RoleTalent}}},
		"e1": {Employer: &models.EmployerProfile{Principal: models.Principal{UID: "e1", Role: models.RoleEmployer}}},
	}
	app := fiber.New()
	app.Use(Authenticate(verifier, loader, time.Second))
	app.Get("/employer", RequireRole(models.RoleEmployer), func(c *fiber.Ctx) error {
		uid, _ := GetUserIDFromContext(c)
		return c.SendString(uid)
	})
	return app
}

func call(t *testing.T, app *fiber.App, target, token string) (int, map[string]string) {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := map[string]string{}
	if resp.StatusCode != fiber.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func TestRequireRoleAllowsOwner(t *testing.T) {
	status, _ := call(t, testApp(), "/employer", "employer-token")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestRequireRoleAcceptsQueryToken(t *testing.T) {
	status, _ := call(t, testApp(), "/employer?token=employer-token", "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestRequireRoleRejectsGuest(t *testing.T) {
	for _, token := range []string{"", "forged"} {
		status, body := call(t, testApp(), "/employer", token)
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, guard.SignInRoute, body["redirect"])
	}
}

func TestRequireRoleRedirectsOtherRoleHome(t *testing.T) {
	status, body := call(t, testApp(), "/employer", "talent-token")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, guard.TalentHome, body["redirect"])
}

func TestRequireRoleProfileMissing(t *testing.T) {
	status, body := call(t, testApp(), "/employer", "ghost-token")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body["error"], "not completed")
}
