// internal/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"backcheck-service/internal/guard"
	"backcheck-service/internal/identity"
	"backcheck-service/internal/service"
	"backcheck-service/internal/session"
	"backcheck-service/pkg/models"
)

// Context keys for Fiber Locals
const (
	UserIDContextKey  = "userID"
	SessionContextKey = "session"
)

// TokenVerifier is the slice of identity.Provider the middleware needs.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, idToken string) (string, error)
}

// Authenticate resolves the caller into a session snapshot. The token comes
// from the Authorization header, or from ?token= for EventSource clients
// which cannot set headers. A missing or invalid token yields the signed-out
// snapshot; RequireRole decides whether that is acceptable.
func Authenticate(verifier TokenVerifier, profiles session.ProfileLoader, timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		store := session.NewStore(profiles)
		c.Locals(SessionContextKey, store)

		token := bearerToken(c)
		if token == "" {
			store.Clear()
			return c.Next()
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		uid, err := verifier.VerifyToken(ctx, token)
		if err != nil {
			log.Printf("[Auth] ❌ token rejected (%s) on %s: %v", maskToken(token), c.Path(), err)
			store.Clear()
			return c.Next()
		}

		err = store.HandleStateChange(ctx, identity.StateChange{UID: uid, Authenticated: true})
		if err != nil && !errors.Is(err, session.ErrProfileMissing) {
			return fiber.NewError(fiber.StatusServiceUnavailable, "profile lookup failed: "+err.Error())
		}
		c.Locals(UserIDContextKey, uid)
		return c.Next()
	}
}

// RequireRole lets the request through only for the listed roles. Guests get
// 401 with the sign-in route; other roles get 403 with their home route.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap := SessionFromContext(c).Current()
		state := guard.StateOf(snap)

		if state == guard.Unauthenticated || state == guard.Loading {
			msg := "Authentication required"
			if snap.ProfileMissing {
				msg = service.MsgProfileMissing
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":    msg,
				"redirect": guard.SignInRoute,
			})
		}

		for _, role := range roles {
			if state.Role() == role {
				return c.Next()
			}
		}
		log.Printf("[Auth] ⛔ %s (%s) denied %s", snap.UID, state, c.Path())
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":    "You do not have access to this resource",
			"redirect": guard.HomeRoute(state.Role()),
		})
	}
}

// SessionFromContext returns the request's session store, or a signed-out
// store if Authenticate did not run.
func SessionFromContext(c *fiber.Ctx) *session.Store {
	if store, ok := c.Locals(SessionContextKey).(*session.Store); ok {
		return store
	}
	store := session.NewStore(nil)
	store.Clear()
	return store
}

func GetUserIDFromContext(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals(UserIDContextKey).(string)
	return userID, ok && userID != ""
}

// ProfileFromContext returns the caller's profile, nil for guests.
func ProfileFromContext(c *fiber.Ctx) *models.Profile {
	return SessionFromContext(c).Current().Profile
}

func bearerToken(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(c.Query("token"))
}

func maskToken(token string) string {
	if len(token) <= 6 {
		return "<short>"
	}
	return token[:6] + "..."
}
