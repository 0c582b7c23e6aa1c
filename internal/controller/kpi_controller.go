package controller

import (
	"voice-faq-be/internal/pkg/serverutils"
	"voice-faq-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IKPIController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
}

type kpiController struct {
	kpiService service.IKPIService
}

func NewKPIController(kpiService service.IKPIService) IKPIController {
	return &kpiController{kpiService: kpiService}
}

func (c *kpiController) RegisterRoutes(r fiber.Router) {
	r.Get("/kpis", c.Show)
}

func (c *kpiController) Show(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get KPIs", c.kpiService.Snapshot()))
}
