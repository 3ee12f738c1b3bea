package httphandler

import (
	"github.com/gofiber/fiber/v2"
)

func (h *HttpHandler) Mount(router fiber.Router) error {
	r := router.Group("/v1/orbit")

	r.Post("/register", h.RegisterUser)
	r.Post("/distribute", h.Distribute)
	r.Get("/users/:ref", h.GetUser)
	r.Get("/orbits/:id", h.GetOrbits)
	r.Get("/team/:id/:level", h.GetTeamAtLevel)
	r.Get("/income/:id/levels", h.GetLevelIncomeSummary)
	r.Get("/income/:id", h.GetIncomeHistory)
	r.Get("/state", h.GetContractState)
	return nil
}
