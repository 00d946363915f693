package controller

import (
	"ai-ghostwriter-be/internal/dto"
	"ai-ghostwriter-be/internal/pkg/serverutils"
	"ai-ghostwriter-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISourceController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type sourceController struct {
	sourceService service.ISourceService
	auth          fiber.Handler
}

func NewSourceController(sourceService service.ISourceService, auth fiber.Handler) ISourceController {
	return &sourceController{
		sourceService: sourceService,
		auth:          auth,
	}
}

func (c *sourceController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/source/v1")
	h.Use(c.auth)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Put(":id", c.Update)
	h.Delete(":id", c.Delete)
}

func (c *sourceController) Create(ctx *fiber.Ctx) error {
	ownerId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateSourceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.sourceService.Create(ctx.UserContext(), ownerId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create source", res))
}

func (c *sourceController) Show(ctx *fiber.Ctx) error {
	ownerId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := sourceID(ctx)
	if err != nil {
		return err
	}

	res, err := c.sourceService.Show(ctx.UserContext(), ownerId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show source", res))
}

func (c *sourceController) List(ctx *fiber.Ctx) error {
	ownerId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.ListSourcesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.sourceService.List(ctx.UserContext(), ownerId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list sources", res))
}

func (c *sourceController) Update(ctx *fiber.Ctx) error {
	ownerId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := sourceID(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateSourceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Id = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.sourceService.Update(ctx.UserContext(), ownerId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update source", res))
}

func (c *sourceController) Delete(ctx *fiber.Ctx) error {
	ownerId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := sourceID(ctx)
	if err != nil {
		return err
	}

	if err := c.sourceService.Delete(ctx.UserContext(), ownerId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete source", nil))
}

func sourceID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid source id")
	}
	return id, nil
}
