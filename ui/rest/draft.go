package rest

import (
	domainDraft "github.com/casapress/casapress/domains/draft"
	"github.com/casapress/casapress/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Draft struct {
	Service domainDraft.IDraftUsecase
}

func InitRestDraft(app fiber.Router, service domainDraft.IDraftUsecase) Draft {
	rest := Draft{Service: service}
	app.Post("/drafts/generate", rest.Generate)
	app.Get("/drafts", rest.List)
	app.Get("/drafts/:id", rest.Get)
	app.Patch("/drafts/:id", rest.Update)
	app.Post("/drafts/mark-ready", rest.MarkReady)
	app.Post("/drafts/:id/retry", rest.Retry)
	return rest
}

func (controller *Draft) Generate(c *fiber.Ctx) error {
	var request domainDraft.GenerateRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	response, err := controller.Service.Generate(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success generate drafts",
		Results: response,
	})
}

func (controller *Draft) List(c *fiber.Ctx) error {
	propertyID := c.Query("property_id")
	language := c.Query("language")

	drafts, err := controller.Service.List(c.UserContext(), propertyID, language)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch drafts",
		Results: fiber.Map{"drafts": drafts},
	})
}

func (controller *Draft) Get(c *fiber.Ctx) error {
	draft, err := controller.Service.Get(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch draft",
		Results: draft,
	})
}

func (controller *Draft) Update(c *fiber.Ctx) error {
	var request domainDraft.UpdateRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	draft, err := controller.Service.Update(c.UserContext(), c.Params("id"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success update draft",
		Results: draft,
	})
}

func (controller *Draft) MarkReady(c *fiber.Ctx) error {
	var request domainDraft.MarkReadyRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	drafts, err := controller.Service.MarkReady(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success mark drafts ready",
		Results: fiber.Map{"drafts": drafts},
	})
}

func (controller *Draft) Retry(c *fiber.Ctx) error {
	draft, err := controller.Service.Retry(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success re-queue draft",
		Results: draft,
	})
}
