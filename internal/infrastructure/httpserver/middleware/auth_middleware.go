package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// AdminJWTMiddleware gates the administrative endpoints behind an HS256
// bearer token. When no secret is configured the admin surface is closed
// entirely rather than left open.
type AdminJWTMiddleware struct {
	secret []byte
	logger *logrus.Logger
}

func NewAdminJWTMiddleware(secret string, logger *logrus.Logger) *AdminJWTMiddleware {
	return &AdminJWTMiddleware{secret: []byte(secret), logger: logger}
}

// RequireAdmin validates the Authorization bearer token and requires a
// "role":"admin" claim.
func (m *AdminJWTMiddleware) RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(m.secret) == 0 {
				return echo.NewHTTPError(http.StatusForbidden, "admin endpoints disabled: no secret configured")
			}
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return m.secret, nil
			})
			if err != nil || !token.Valid {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"ip": c.RealIP(), "path": c.Request().URL.Path}).WithError(err).Warn("admin token validation failed")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if role, _ := claims["role"].(string); role != "admin" {
				return echo.NewHTTPError(http.StatusForbidden, "admin role required")
			}
			c.Set("admin_subject", claims["sub"])
			return next(c)
		}
	}
}
