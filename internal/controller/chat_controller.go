package controller

import (
	"errors"
	"os"

	"commerce-assistant/internal/dto"
	"commerce-assistant/internal/pkg/serverutils"
	"commerce-assistant/internal/service"
	"commerce-assistant/pkg/admin/analytics"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	ClearContext(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
	DownloadExport(ctx *fiber.Ctx) error
}

// ExportFiles locates generated report files.
type ExportFiles interface {
	Path(name string) (string, error)
}

type chatController struct {
	chatService service.IChatService
	exports     ExportFiles
}

func NewChatController(chatService service.IChatService, exports ExportFiles) IChatController {
	return &chatController{
		chatService: chatService,
		exports:     exports,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Get("health", c.Health)
	h.Post("", serverutils.OptionalJwtMiddleware, c.Chat)
	h.Get("history", serverutils.JwtMiddleware, c.History)
	h.Delete("context", serverutils.JwtMiddleware, c.ClearContext)

	r.Get("/exports/:filename", serverutils.JwtMiddleware, serverutils.AdminMiddleware, c.DownloadExport)
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	// Identity only ever comes from the token.
	req.UserID = serverutils.UserIDFrom(ctx)
	req.Role = serverutils.RoleFrom(ctx)

	res, err := c.chatService.Chat(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success chat", res))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", service.DefaultHistoryPage)
	if limit > 100 {
		limit = 100
	}

	res, err := c.chatService.GetHistory(ctx.UserContext(), serverutils.UserIDFrom(ctx), limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", res))
}

func (c *chatController) ClearContext(ctx *fiber.Ctx) error {
	if err := c.chatService.ClearContext(ctx.UserContext(), serverutils.UserIDFrom(ctx)); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success clear chat context", nil))
}

func (c *chatController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success health check", c.chatService.Health()))
}

func (c *chatController) DownloadExport(ctx *fiber.Ctx) error {
	path, err := c.exports.Path(ctx.Params("filename"))
	if err != nil {
		if errors.Is(err, analytics.ErrInvalidExportName) {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid file name")
		}
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Export not found")
	}
	return ctx.Download(path)
}
