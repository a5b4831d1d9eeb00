package utils

import (
	"fieldsync/core/constants"
	"fieldsync/core/errors"

	"github.com/labstack/echo/v4"
)

// TenantFromContext extracts the authenticated tenant id stored by the auth
// middleware.
func TenantFromContext(c echo.Context) (string, *errors.AppError) {
	claims, ok := c.Get(constants.ContextTokenData).(*TokenClaims)
	if !ok || claims == nil || claims.TenantID == "" {
		return "", errors.NewAppError(errors.ErrUnauthorized, "missing tenant identity", nil)
	}
	return claims.TenantID, nil
}
