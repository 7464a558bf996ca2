package api

import (
	"github.com/gofiber/fiber/v2"
	// jwtware stores the parsed token as a jwt/v4 value.
	jwtv4 "github.com/golang-jwt/jwt/v4"
)

// userIDFromContext resolves the authenticated user id from the JWT the
// middleware parsed. An empty result means an unauthenticated caller, never
// a panic: handlers decide whether that is tolerated or a 401.
func userIDFromContext(c *fiber.Ctx) string {
	token, ok := c.Locals("user").(*jwtv4.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(jwtv4.MapClaims)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}
