package router

import (
	"fieldsync/core/middleware"
	"fieldsync/modules/availability/controller"

	"github.com/labstack/echo/v4"
)

type AvailabilityRouter struct {
	AvailabilityController *controller.AvailabilityController
}

func NewAvailabilityRouter(availabilityController *controller.AvailabilityController) *AvailabilityRouter {
	return &AvailabilityRouter{
		AvailabilityController: availabilityController,
	}
}

// Setup registers availability routes
func (r *AvailabilityRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	privateRoutes := v1.Group("/private")

	availabilityRoutes := privateRoutes.Group("/availability", mw.AuthMiddleware())

	availabilityRoutes.POST("/check", r.AvailabilityController.CheckAvailability)
	availabilityRoutes.POST("/teams/:teamId/check", r.AvailabilityController.CheckTeamAvailability)
	availabilityRoutes.POST("/open-slots", r.AvailabilityController.FindOpenSlots)
}
