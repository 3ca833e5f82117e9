package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/economato-api/internal/domain/entity"
	apphttp "github.com/jhoicas/economato-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/economato-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testOrgID     = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "economato-test"
)

// tokenForRole genera un "Bearer <jwt>" válido con el rol indicado.
func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, pkgjwt.Identity{UserID: testUserID, OrganizationID: testOrgID, Role: role}, testIssuer, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

// protectedApp ruta GET /protected con AuthMiddleware + RequireRole(roles...).
func protectedApp(issuer string, roles ...string) *fiber.App {
	app := fiber.New()
	app.Get("/protected",
		apphttp.AuthMiddleware(testJWTSecret, issuer),
		apphttp.RequireRole(roles...),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"user_id":         apphttp.GetUserID(c),
				"organization_id": apphttp.GetOrganizationID(c),
				"role":            apphttp.GetRole(c),
			})
		},
	)
	return app
}

func get(t *testing.T, app *fiber.App, authHeader string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestRequireRole(t *testing.T) {
	managers := []string{entity.RoleAdmin, entity.RoleBodeguero}
	cases := []struct {
		name     string
		allowed  []string
		header   func(t *testing.T) string
		status   int
		wantCode string
	}{
		{"admin en ruta de gestores", managers, func(t *testing.T) string { return tokenForRole(t, entity.RoleAdmin) }, http.StatusOK, ""},
		{"bodeguero en ruta de gestores", managers, func(t *testing.T) string { return tokenForRole(t, entity.RoleBodeguero) }, http.StatusOK, ""},
		{"encargado en ruta de gestores", managers, func(t *testing.T) string { return tokenForRole(t, entity.RoleEncargado) }, http.StatusForbidden, "FORBIDDEN"},
		{"bodeguero en ruta de encargado", []string{entity.RoleEncargado}, func(t *testing.T) string { return tokenForRole(t, entity.RoleBodeguero) }, http.StatusForbidden, "FORBIDDEN"},
		{"token sin rol", managers, func(t *testing.T) string { return tokenForRole(t, "") }, http.StatusUnauthorized, "MISSING_ROLE"},
		{"sin header", managers, func(*testing.T) string { return "" }, http.StatusUnauthorized, "MISSING_TOKEN"},
		{"esquema distinto de Bearer", managers, func(*testing.T) string { return "Basic abc" }, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"token malformado", managers, func(*testing.T) string { return "Bearer token.invalido.aqui" }, http.StatusUnauthorized, "INVALID_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := get(t, protectedApp(testIssuer, tc.allowed...), tc.header(t))
			assert.Equal(t, tc.status, status, body)
			if tc.wantCode != "" {
				assert.Contains(t, body, tc.wantCode)
			}
		})
	}
}

func TestAuthMiddleware_CargaIdentidad(t *testing.T) {
	status, body := get(t, protectedApp(testIssuer, entity.RoleBodeguero), tokenForRole(t, entity.RoleBodeguero))
	require.Equal(t, http.StatusOK, status)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, testUserID, got["user_id"])
	assert.Equal(t, testOrgID, got["organization_id"])
	assert.Equal(t, entity.RoleBodeguero, got["role"])
}

func TestAuthMiddleware_ValidaEmisor(t *testing.T) {
	status, _ := get(t, protectedApp("otro-emisor", entity.RoleAdmin), tokenForRole(t, entity.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = get(t, protectedApp("", entity.RoleAdmin), tokenForRole(t, entity.RoleAdmin))
	assert.Equal(t, http.StatusOK, status, "sin emisor configurado no se valida")
}

func TestAuthMiddleware_TokenExpirado(t *testing.T) {
	tok, err := pkgjwt.Generate(testJWTSecret, pkgjwt.Identity{UserID: testUserID, OrganizationID: testOrgID, Role: entity.RoleAdmin}, testIssuer, -time.Minute)
	require.NoError(t, err)
	status, body := get(t, protectedApp(testIssuer, entity.RoleAdmin), "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "INVALID_TOKEN")
}
