package controller

import (
	"errors"

	"voice-faq-be/internal/pkg/serverutils"
	"voice-faq-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService service.ISessionService
}

func NewSessionController(sessionService service.ISessionService) ISessionController {
	return &sessionController{sessionService: sessionService}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	r.Get("/session", c.CreateSession)
}

// CreateSession relays the provider's ephemeral session. The long-lived key
// never leaves the backend.
func (c *sessionController) CreateSession(ctx *fiber.Ctx) error {
	res, err := c.sessionService.CreateSession(ctx.UserContext())
	if err != nil {
		status := fiber.StatusInternalServerError
		var perr *service.ProviderError
		if errors.As(err, &perr) {
			status = fiber.StatusBadGateway
		}
		return ctx.Status(status).JSON(serverutils.ErrorResponse("Error interno del servidor"))
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return ctx.Send(res)
}
