package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"insightflow-be/internal/dto"
	"insightflow-be/internal/pkg/serverutils"
	"insightflow-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type IQueryController interface {
	RegisterRoutes(r fiber.Router)
	Query(ctx *fiber.Ctx) error
	QueryStream(ctx *fiber.Ctx) error
}

type queryController struct {
	chatService service.IChatService
}

func NewQueryController(chatService service.IChatService) IQueryController {
	return &queryController{
		chatService: chatService,
	}
}

func (c *queryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/api")
	h.Use(serverutils.JwtMiddleware)
	h.Post("query", c.Query)
	h.Post("query/stream", c.QueryStream)
}

func (c *queryController) Query(ctx *fiber.Ctx) error {
	orgID := ctx.Locals("org_id").(string)

	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.Query(ctx.Context(), orgID, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success process query", res))
}

// QueryStream serves the pipeline's event channel as Server-Sent
// Events. The request context is cancelled as soon as the client stops
// reading, which aborts generation instead of burning tokens into a
// dead connection.
func (c *queryController) QueryStream(ctx *fiber.Ctx) error {
	orgID := ctx.Locals("org_id").(string)

	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	streamCtx, cancel := context.WithCancel(context.Background())
	events := c.chatService.QueryStream(streamCtx, orgID, &req)

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		for ev := range events {
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				// Client went away; stop the pipeline.
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))

	return nil
}
