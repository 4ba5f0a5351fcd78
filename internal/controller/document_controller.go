package controller

import (
	"insightflow-be/internal/dto"
	"insightflow-be/internal/pkg/serverutils"
	"insightflow-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Ingest(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
}

func NewDocumentController(documentService service.IDocumentService) IDocumentController {
	return &documentController{
		documentService: documentService,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/api/documents")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Ingest)
	h.Get("stats", c.Stats)
	h.Delete(":selector", c.Delete)
}

func (c *documentController) Ingest(ctx *fiber.Ctx) error {
	orgID := ctx.Locals("org_id").(string)

	var req dto.IngestDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.documentService.Ingest(ctx.Context(), orgID, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Document queued for indexing", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	orgID := ctx.Locals("org_id").(string)
	selector := ctx.Params("selector")

	res, err := c.documentService.Delete(ctx.Context(), orgID, selector)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete document", res))
}

func (c *documentController) Stats(ctx *fiber.Ctx) error {
	orgID := ctx.Locals("org_id").(string)

	res, err := c.documentService.Stats(ctx.Context(), orgID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show org stats", res))
}
