package http

import (
	"github.com/gofiber/fiber/v2"
)

// SessionHandler returns the caller's session.
func SessionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(SessionFrom(c))
	}
}

// LogoutHandler clears the auth cookies.
func LogoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clearAuthCookies(c, deps.Cookies)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// MenuResponse is the dashboard menu visible to the caller.
type MenuResponse struct {
	Role  string      `json:"role"`
	Items interface{} `json:"items"`
}

// MenuHandler returns the menu filtered by the caller's role.
func MenuHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := SessionFrom(c)
		return c.JSON(MenuResponse{
			Role:  string(sess.Role),
			Items: deps.Menu.For(sess.Role),
		})
	}
}
