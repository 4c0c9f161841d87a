package middleware

import (
	"context"
	"log"
	"net/http"

	"homestock/internal/common"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTConfig selects how tokens are verified. When JWKSURL is set the keys
// come from the identity provider's JWKS endpoint and Secret is ignored;
// otherwise tokens are HS256-signed with Secret.
type JWTConfig struct {
	Secret  string
	JWKSURL string
}

// JWTMiddleware validates the bearer token and copies the household and
// user-name claims into the request context. Every protected handler and
// every audit record downstream reads identity from there, never from the
// request again.
func JWTMiddleware(cfg JWTConfig) (echo.MiddlewareFunc, error) {
	config := echojwt.Config{
		SuccessHandler: bindClaims,
	}

	if cfg.JWKSURL != "" {
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshErrorHandler: func(err error) {
				log.Printf("WARN: JWKS refresh failed: %v", err)
			},
		})
		if err != nil {
			return nil, err
		}
		config.KeyFunc = jwks.Keyfunc
	} else {
		config.SigningKey = []byte(cfg.Secret)
	}

	return echojwt.WithConfig(config), nil
}

func bindClaims(c echo.Context) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return
	}

	ctx := c.Request().Context()
	if raw, ok := claims["household_id"].(string); ok {
		if householdID, err := common.ValidateUUID(raw, "household_id"); err == nil {
			ctx = context.WithValue(ctx, common.HouseholdIDKey, householdID)
		}
	}
	if name, ok := claims["name"].(string); ok && name != "" {
		ctx = context.WithValue(ctx, common.UserNameKey, name)
	} else if sub, ok := claims["sub"].(string); ok {
		ctx = context.WithValue(ctx, common.UserNameKey, sub)
	}
	c.SetRequest(c.Request().WithContext(ctx))
}

// RequireHousehold rejects requests whose token carried no household claim.
// Mounted after JWTMiddleware on every data route.
func RequireHousehold(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := common.GetHouseholdIDFromContext(c.Request().Context()); !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing household in token")
		}
		return next(c)
	}
}
