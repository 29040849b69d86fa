package rest

import (
	"github.com/casapress/casapress/core/config"
	"github.com/casapress/casapress/pkg/jobworker"
	"github.com/casapress/casapress/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Health struct {
	Pool *jobworker.Pool
}

func InitRestHealth(app fiber.Router, pool *jobworker.Pool) Health {
	handler := Health{Pool: pool}
	app.Get("/health", handler.GetStatus)
	return handler
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	results := fiber.Map{
		"version": config.Global.App.Version,
	}
	if h.Pool != nil {
		results["worker_pool"] = h.Pool.GetStats()
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Service healthy",
		Results: results,
	})
}
