package router

import (
	"fieldsync/core/middleware"
	"fieldsync/modules/sync/controller"

	"github.com/labstack/echo/v4"
)

type SyncRouter struct {
	SyncController *controller.SyncController
}

func NewSyncRouter(syncController *controller.SyncController) *SyncRouter {
	return &SyncRouter{
		SyncController: syncController,
	}
}

// Setup registers sync routes
func (r *SyncRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	privateRoutes := v1.Group("/private")

	syncRoutes := privateRoutes.Group("/sync", mw.AuthMiddleware())

	syncRoutes.POST("/source-to-target", r.SyncController.SyncSourceToTarget)
	syncRoutes.POST("/target-to-source", r.SyncController.SyncTargetToSource)
	syncRoutes.POST("/all", r.SyncController.SyncAll)
	syncRoutes.POST("/all/enqueue", r.SyncController.EnqueueSyncAll)
	syncRoutes.POST("/conflicts/resolve", r.SyncController.ResolveConflict)
	syncRoutes.GET("/records", r.SyncController.GetSyncRecords)
}
