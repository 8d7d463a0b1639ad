package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-booking-ledger/internal/api"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/user"
)

const principalKey = "principal"

// TokenParser はBearerトークンを検証してPrincipalを返す
type TokenParser interface {
	Parse(token string) (user.Principal, error)
}

// JWTAuth は Authorization: Bearer <token> を検証し、Principalをコンテキストに格納する
func JWTAuth(parser TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				return api.ErrUnauthenticated
			}
			p, err := parser.Parse(strings.TrimSpace(token))
			if err != nil {
				return api.ErrUnauthenticated
			}
			c.Set(principalKey, p)
			return next(c)
		}
	}
}

// AdminOnly は管理者以外を拒否する。JWTAuth の後に使う
func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return api.ErrUnauthenticated
			}
			if !p.IsAdmin() {
				return api.ErrForbidden
			}
			return next(c)
		}
	}
}

// PrincipalFrom は認証済みのPrincipalを取り出す
func PrincipalFrom(c echo.Context) (user.Principal, bool) {
	p, ok := c.Get(principalKey).(user.Principal)
	return p, ok
}

// SetPrincipal はPrincipalをコンテキストに格納する
func SetPrincipal(c echo.Context, p user.Principal) {
	c.Set(principalKey, p)
}
