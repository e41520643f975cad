package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// SessionCookie carries the browser session that owns an uploaded book.
	SessionCookie = "booktalk_session"
	// SessionLocalKey is where the session ID is stored in Fiber's context locals.
	SessionLocalKey = "session_id"
)

// Session makes sure every request belongs to a session.
// An existing cookie is reused; otherwise a new UUID is issued and set on the response.
func Session() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Cookies(SessionCookie)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
				Expires:  time.Now().Add(30 * 24 * time.Hour),
			})
		}
		c.Locals(SessionLocalKey, id)
		return c.Next()
	}
}

// SessionID returns the session stored by Session, or "" when the middleware did not run.
func SessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(SessionLocalKey).(string)
	return id
}
