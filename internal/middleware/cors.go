package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

// firstPartyOrigins are the Stitch web surfaces allowed when CORS_ORIGINS
// is set to "app". The iOS client talks to the API directly and never
// preflights.
var firstPartyOrigins = []string{
	"https://stitchsocial.app",
	"https://studio.stitchsocial.app",
}

// NewCORS returns the API's CORS middleware. corsOrigins is "*" (the
// development default), "app" for the first-party web origins, or a
// comma-separated explicit list.
func NewCORS(corsOrigins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: resolveOrigins(corsOrigins),
		AllowMethods: []string{
			fiber.MethodGet,
			fiber.MethodPost,
			fiber.MethodDelete,
			fiber.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"X-User-ID",
		},
		ExposeHeaders: []string{
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
			"Retry-After",
		},
		MaxAge: 86400,
	})
}

func resolveOrigins(corsOrigins string) []string {
	switch corsOrigins {
	case "", "*":
		return []string{"*"}
	case "app":
		return firstPartyOrigins
	}
	origins := strings.Split(corsOrigins, ",")
	for i, o := range origins {
		origins[i] = strings.TrimSpace(o)
	}
	return origins
}
