package availability

import (
	"fieldsync/core/cache"
	"fieldsync/core/database"
	"fieldsync/core/middleware"
	"fieldsync/modules/availability/controller"
	"fieldsync/modules/availability/router"
	"fieldsync/modules/availability/service"
	platformService "fieldsync/modules/platform/service"
	tenantRepository "fieldsync/modules/tenant/repository"
	tenantService "fieldsync/modules/tenant/service"

	"github.com/labstack/echo/v4"
)

// Init initializes the availability module and registers routes
func Init(e *echo.Echo, db database.IDatabase, c cache.Cache, mw *middleware.Middleware) {
	settingsRepo := tenantRepository.NewSettingsRepository(db)
	settingsSvc := tenantService.NewSettingsService(settingsRepo, c)
	sourceClient := platformService.NewSourceClient(settingsSvc)

	svc := service.NewAvailabilityService(sourceClient, settingsSvc)
	ctrl := controller.NewAvailabilityController(svc)
	rtr := router.NewAvailabilityRouter(ctrl)

	rtr.Setup(e, mw)
}
