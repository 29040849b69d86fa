package rest

import (
	domainPublish "github.com/casapress/casapress/domains/publish"
	"github.com/casapress/casapress/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Publish struct {
	Service domainPublish.IPublishUsecase
}

func InitRestPublish(app fiber.Router, service domainPublish.IPublishUsecase) Publish {
	rest := Publish{Service: service}
	app.Post("/drafts/publish", rest.PublishDrafts)
	app.Post("/properties/:id/publish", rest.PublishProperty)
	app.Get("/properties/:id/publishing-status", rest.Status)
	app.Post("/properties/:id/archive", rest.Archive)
	app.Get("/jobs/:id", rest.GetJob)
	return rest
}

func (controller *Publish) PublishDrafts(c *fiber.Ctx) error {
	var request domainPublish.PublishDraftsRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	job, err := controller.Service.PublishDrafts(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Publish job accepted",
		Results: fiber.Map{"job_id": job.ID, "status": job.Status},
	})
}

func (controller *Publish) PublishProperty(c *fiber.Ctx) error {
	var request domainPublish.PublishPropertyRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	job, err := controller.Service.PublishProperty(c.UserContext(), c.Params("id"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Publish job accepted",
		Results: fiber.Map{"job_id": job.ID, "status": job.Status},
	})
}

func (controller *Publish) Status(c *fiber.Ctx) error {
	status, err := controller.Service.Status(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch publishing status",
		Results: status,
	})
}

func (controller *Publish) Archive(c *fiber.Ctx) error {
	var request struct {
		Archived bool `json:"archived"`
	}
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = controller.Service.Archive(c.UserContext(), c.Params("id"), request.Archived)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success update archive flag",
	})
}

func (controller *Publish) GetJob(c *fiber.Ctx) error {
	job, err := controller.Service.GetJob(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch job",
		Results: job,
	})
}
