package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/hyacinth-monitor/internal/auth"
	"github.com/i474232898/hyacinth-monitor/internal/control"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type commandRequest struct {
	Action string `json:"action" validate:"required,oneof=start stop recalibrate"`
}

func registerAuthRoutes(v1 fiber.Router, d Deps) {
	v1.Post("/auth/login", func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid login body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		sess, err := d.Sessions.Login(req.Username, req.Password)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(sess)
	})

	v1.Post("/auth/logout", func(c *fiber.Ctx) error {
		d.Sessions.Logout(bearerToken(c))
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/auth/session", func(c *fiber.Ctx) error {
		sess, err := d.Sessions.Lookup(bearerToken(c))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(sess)
	})
}

// RequireCapability rejects the request unless the caller's session
// carries c. The session is stored in Locals for the handler.
func RequireCapability(sessions *auth.SessionStore, capability auth.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := sessions.Authorize(bearerToken(c), capability)
		if err != nil {
			return toFiberError(err)
		}
		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

func registerControlRoutes(v1 fiber.Router, d Deps) {
	ctl := v1.Group("/control", RequireCapability(d.Sessions, auth.CapControlDrones))

	ctl.Get("/drones", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"drones": d.Drones.List()})
	})

	ctl.Post("/drones/:id/commands", func(c *fiber.Ctx) error {
		var req commandRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid command body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		sess, _ := c.Locals(sessionKey).(auth.Session)
		drone, err := d.Drones.Dispatch(c.Params("id"), control.Action(req.Action), sess.Username)
		if err != nil {
			return toFiberError(err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"message": req.Action + " command sent successfully",
			"drone":   drone,
		})
	})
}
