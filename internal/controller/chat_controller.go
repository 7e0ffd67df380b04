package controller

import (
	"fmt"

	"ai-datachat-be/internal/constant"
	"ai-datachat-be/internal/dto"
	"ai-datachat-be/internal/pkg/serverutils"
	"ai-datachat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	GetMessages(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

// RegisterRoutes mounts the chat surface at the root so the dashboard can
// call it without a path prefix.
func (c *chatController) RegisterRoutes(r fiber.Router) {
	r.Get("/", c.Health)

	h := r.Group("/chat")
	h.Get("sessions", c.ListSessions)
	h.Post(":sessionId/message", c.SendMessage)
	h.Get(":sessionId/messages", c.GetMessages)
	h.Delete(":sessionId", c.DeleteSession)
}

func (c *chatController) Health(ctx *fiber.Ctx) error {
	res := c.chatService.Health(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse("Success health check", res))
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("sessionId")

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.chatService.SendMessage(ctx.Context(), sessionId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *chatController) GetMessages(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("sessionId")

	res, err := c.chatService.GetMessages(ctx.Context(), sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get messages", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("sessionId")

	err := c.chatService.DeleteSession(ctx.Context(), sessionId)
	if err != nil {
		if err.Error() == constant.ErrSessionNotFound {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Session not found"))
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any](fmt.Sprintf(constant.SessionClearedFormat, sessionId), nil))
}

func (c *chatController) ListSessions(ctx *fiber.Ctx) error {
	res, err := c.chatService.ListSessions(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}
