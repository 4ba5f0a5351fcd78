package controller

import (
	"time"

	"insightflow-be/internal/dto"
	"insightflow-be/internal/pkg/serverutils"
	"insightflow-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Info(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Cleanup(ctx *fiber.Ctx) error
}

type sessionController struct {
	chatService service.IChatService
}

func NewSessionController(chatService service.IChatService) ISessionController {
	return &sessionController{
		chatService: chatService,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/api/sessions")
	h.Use(serverutils.JwtMiddleware)
	h.Post("cleanup", c.Cleanup)
	h.Get(":id", c.Info)
	h.Get(":id/history", c.History)
	h.Delete(":id", c.Delete)
}

func (c *sessionController) Info(ctx *fiber.Ctx) error {
	orgID := ctx.Locals("org_id").(string)
	conversationID := ctx.Params("id")

	res, err := c.chatService.SessionInfo(orgID, conversationID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *sessionController) History(ctx *fiber.Ctx) error {
	orgID := ctx.Locals("org_id").(string)
	conversationID := ctx.Params("id")

	res, err := c.chatService.SessionHistory(orgID, conversationID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session history", res))
}

func (c *sessionController) Delete(ctx *fiber.Ctx) error {
	orgID := ctx.Locals("org_id").(string)
	conversationID := ctx.Params("id")

	if err := c.chatService.DeleteSession(orgID, conversationID); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete session", nil))
}

func (c *sessionController) Cleanup(ctx *fiber.Ctx) error {
	var req dto.CleanupSessionsRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
		if err := serverutils.ValidateRequest(req); err != nil {
			return err
		}
	}

	maxAge := 24 * time.Hour
	if req.MaxAgeHours > 0 {
		maxAge = time.Duration(req.MaxAgeHours) * time.Hour
	}

	res := c.chatService.CleanupSessions(maxAge)
	return ctx.JSON(serverutils.SuccessResponse("Success cleanup sessions", res))
}
