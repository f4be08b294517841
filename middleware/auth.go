// middleware/auth.go
package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// ParticipantContextMiddleware extracts the participant identity the quiz
// client sends with each request. Nothing is enforced here: public flows
// may also carry the participant in the request body, and handlers decide
// which source wins.
func ParticipantContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if participantID := c.Get("X-Participant-ID"); participantID != "" {
			c.Locals("participant_id", participantID)
		}
		return c.Next()
	}
}
