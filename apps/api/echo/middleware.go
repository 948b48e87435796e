package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
)

// learnerMiddleware rejects valid tokens that do not identify a learner.
func learnerMiddleware(conf middleware.JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx, conf)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.userID() == "" {
				return errUnauthorized
			}
			return next(ctx)
		}
	}
}
