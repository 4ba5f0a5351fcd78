package controller

import (
	"insightflow-be/internal/pkg/serverutils"
	"insightflow-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	GetSystemLogs(ctx *fiber.Ctx) error
}

type adminController struct {
	adminService service.IAdminService
}

func NewAdminController(adminService service.IAdminService) IAdminController {
	return &adminController{
		adminService: adminService,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/api/admin")
	h.Use(serverutils.JwtMiddleware)
	h.Get("logs", c.GetSystemLogs)
}

func (c *adminController) GetSystemLogs(ctx *fiber.Ctx) error {
	page := ctx.QueryInt("page", 1)
	limit := ctx.QueryInt("limit", 50)
	level := ctx.Query("level")

	res, err := c.adminService.GetSystemLogs(ctx.Context(), page, limit, level)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show system logs", res))
}
