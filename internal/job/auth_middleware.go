package job

import (
	"fmt"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// JWTMiddleware gates every /export/* route behind a bearer HS256 token
// signed with secret, grounded on the teacher's RegisterRoutes JWT config
// (internal/api/handler.go). Callers only install this when a secret is
// configured (§6 "optional bearer auth"); an empty secret means the
// service runs open, matching the teacher's own conditional wiring.
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	cfg := echojwt.Config{
		TokenLookup: "header:Authorization",
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
				auth = auth[7:]
			}
			return jwt.Parse(auth, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
		},
		Skipper: func(c echo.Context) bool {
			if c.Request().Method == "OPTIONS" {
				return true
			}
			// The live-preview stream authenticates via a one-time ticket
			// (internal/auth), not a bearer token.
			return strings.HasSuffix(c.Path(), "/stream")
		},
	}
	return echojwt.WithConfig(cfg)
}
