package controller

import (
	"errors"

	"voice-faq-be/internal/dto"
	"voice-faq-be/internal/pkg/serverutils"
	"voice-faq-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IFunctionCallController interface {
	RegisterRoutes(r fiber.Router)
	Dispatch(ctx *fiber.Ctx) error
}

type functionCallController struct {
	functionCallService service.IFunctionCallService
}

func NewFunctionCallController(functionCallService service.IFunctionCallService) IFunctionCallController {
	return &functionCallController{functionCallService: functionCallService}
}

func (c *functionCallController) RegisterRoutes(r fiber.Router) {
	r.Post("/function_call", c.Dispatch)
}

func (c *functionCallController) Dispatch(ctx *fiber.Ctx) error {
	var req dto.FunctionCallRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse("Solicitud inválida"))
	}

	// name is the only validated field
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(service.ErrUnknownFunction.Error()))
	}

	res, err := c.functionCallService.Dispatch(ctx.UserContext(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownFunction), errors.Is(err, service.ErrMissingQuestion):
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(err.Error()))
		default:
			return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse("Error en el servidor"))
		}
	}

	return ctx.JSON(res)
}
