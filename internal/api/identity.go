package api

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dinewatch/dinewatch-go/internal/identity"
)

const (
	sessionCookieName = "dinewatch_session"
	sessionTokenKey   = "token"
	authUserHeader    = "X-Auth-User"
	identityContext   = "follower_identity"
)

// IdentityMiddleware resolves the follower identity for each request.
// Authenticated requests carry a user ID header set by the auth proxy;
// everything else gets a durable session token in a cookie, created on
// first contact.
func (c *Controller) IdentityMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if raw := ctx.Request().Header.Get(authUserHeader); raw != "" {
				userID, err := strconv.ParseUint(raw, 10, 32)
				if err != nil || userID == 0 {
					return c.HandleError(ctx, err, "Invalid user header", 400)
				}
				ctx.Set(identityContext, identity.NewUser(uint(userID)))
				return next(ctx)
			}

			session, _ := c.sessionStore.Get(ctx.Request(), sessionCookieName)
			token, _ := session.Values[sessionTokenKey].(string)
			if token == "" {
				token = identity.NewSessionToken()
				session.Values[sessionTokenKey] = token
				session.Options.HttpOnly = true
				session.Options.MaxAge = 60 * 60 * 24 * 365
				if err := session.Save(ctx.Request(), ctx.Response()); err != nil {
					c.apiLogger.Error("failed to save session cookie", "error", err)
				}
			}
			ctx.Set(identityContext, identity.NewSession(token))
			return next(ctx)
		}
	}
}

// requestIdentity returns the follower identity resolved by the middleware.
func requestIdentity(ctx echo.Context) identity.Identity {
	id, _ := ctx.Get(identityContext).(identity.Identity)
	return id
}
