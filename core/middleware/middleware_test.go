package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"fieldsync/core/config"
	"fieldsync/core/constants"
	"fieldsync/core/utils"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestConfig(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "middleware-test-secret")
	_, err := config.Load()
	require.NoError(t, err)
}

func runAuth(t *testing.T, authorization string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	handler := NewMiddleware().AuthMiddleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return c, handler(c)
}

func TestAuthMiddleware_AcceptsIssuedToken(t *testing.T) {
	loadTestConfig(t)

	token, err := utils.GenerateToken("tenant-1", constants.ScopeTokenAccess)
	require.NoError(t, err)

	c, handlerErr := runAuth(t, "Bearer "+token)
	require.NoError(t, handlerErr)

	claims, ok := c.Get(constants.ContextTokenData).(*utils.TokenClaims)
	require.True(t, ok)
	assert.Equal(t, "tenant-1", claims.TenantID)
	assert.Equal(t, constants.ScopeTokenAccess, claims.Scope)

	tenantID, appErr := utils.TenantFromContext(c)
	require.Nil(t, appErr)
	assert.Equal(t, "tenant-1", tenantID)
}

func TestAuthMiddleware_RejectsBadRequests(t *testing.T) {
	loadTestConfig(t)

	cases := map[string]string{
		"missing header":   "",
		"malformed scheme": "Token abc",
		"garbage token":    "Bearer not-a-jwt",
	}
	for name, authorization := range cases {
		t.Run(name, func(t *testing.T) {
			_, handlerErr := runAuth(t, authorization)
			require.Error(t, handlerErr)

			httpErr, ok := handlerErr.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
		})
	}
}
