package rest

import (
	domainCRM "github.com/casapress/casapress/domains/crm"
	"github.com/casapress/casapress/pkg/utils"
	"github.com/casapress/casapress/publishing/domain/property"
	"github.com/gofiber/fiber/v2"
)

// CRM exposes the seeding endpoints for the records the engine reads:
// properties, agent contacts and channel bindings.
type CRM struct {
	Service domainCRM.ICRMUsecase
}

func InitRestCRM(app fiber.Router, service domainCRM.ICRMUsecase) CRM {
	rest := CRM{Service: service}
	app.Post("/crm/properties", rest.SaveProperty)
	app.Post("/crm/agents", rest.SaveAgentContact)
	app.Post("/crm/bindings", rest.SaveBinding)
	return rest
}

func (controller *CRM) SaveProperty(c *fiber.Ctx) error {
	var request property.Property
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = controller.Service.SaveProperty(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success save property",
	})
}

func (controller *CRM) SaveAgentContact(c *fiber.Ctx) error {
	var request property.AgentContact
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = controller.Service.SaveAgentContact(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success save agent contact",
	})
}

func (controller *CRM) SaveBinding(c *fiber.Ctx) error {
	var request domainCRM.BindingRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = controller.Service.SaveBinding(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success save channel binding",
	})
}
