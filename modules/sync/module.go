package sync

import (
	"fieldsync/core/cache"
	"fieldsync/core/database"
	"fieldsync/core/middleware"
	"fieldsync/core/tasks"
	availabilityService "fieldsync/modules/availability/service"
	platformService "fieldsync/modules/platform/service"
	"fieldsync/modules/sync/controller"
	"fieldsync/modules/sync/jobs"
	"fieldsync/modules/sync/repository"
	"fieldsync/modules/sync/router"
	"fieldsync/modules/sync/service"
	tenantRepository "fieldsync/modules/tenant/repository"
	tenantService "fieldsync/modules/tenant/service"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
)

// Init initializes the sync module, registers routes and the background
// reconciliation handler.
func Init(e *echo.Echo, db database.IDatabase, c cache.Cache, mw *middleware.Middleware, taskClient *tasks.Client, mux *asynq.ServeMux) {
	recordRepo := repository.NewSyncRecordRepository(db)
	mappingRepo := repository.NewTeamMappingRepository(db)

	settingsRepo := tenantRepository.NewSettingsRepository(db)
	settingsSvc := tenantService.NewSettingsService(settingsRepo, c)

	sourceClient := platformService.NewSourceClient(settingsSvc)
	targetClient := platformService.NewTargetClient(settingsSvc)
	availabilitySvc := availabilityService.NewAvailabilityService(sourceClient, settingsSvc)

	syncSvc := service.NewSyncService(recordRepo, mappingRepo, settingsSvc, sourceClient, targetClient, availabilitySvc, c)
	resolver := service.NewConflictResolver(recordRepo, settingsSvc, sourceClient, targetClient)

	ctrl := controller.NewSyncController(syncSvc, resolver, taskClient)
	rtr := router.NewSyncRouter(ctrl)
	rtr.Setup(e, mw)

	jobs.NewReconcileHandler(syncSvc).Register(mux)
}
