package controller

import (
	"fieldsync/core/controller"
	"fieldsync/core/errors"
	"fieldsync/core/params"
	"fieldsync/core/tasks"
	"fieldsync/core/utils"
	"fieldsync/modules/sync/dto"
	"fieldsync/modules/sync/service"

	"github.com/labstack/echo/v4"
)

type SyncController struct {
	controller.BaseController
	SyncService      service.SyncService
	ConflictResolver service.ConflictResolver
	TaskClient       *tasks.Client
}

func NewSyncController(syncService service.SyncService, resolver service.ConflictResolver, taskClient *tasks.Client) *SyncController {
	return &SyncController{
		BaseController:   controller.NewBaseController(),
		SyncService:      syncService,
		ConflictResolver: resolver,
		TaskClient:       taskClient,
	}
}

// SyncSourceToTarget pushes one field-service appointment to the CRM
// @Summary Đồng bộ lịch hẹn sang CRM
// @Description Đẩy một lịch hẹn từ hệ thống điều phối sang lịch CRM
// @Tags Sync
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.SyncSourceToTargetRequest true "Lịch hẹn cần đồng bộ"
// @Success 200 {object} dto.SyncResult
// @Failure 401 {object} errors.AppError
// @Router /private/sync/source-to-target [post]
func (ctrl *SyncController) SyncSourceToTarget(c echo.Context) error {
	tenantID, appErr := utils.TenantFromContext(c)
	if appErr != nil {
		return ctrl.Unauthorized(appErr.Code, appErr.Message)
	}

	req := new(dto.SyncSourceToTargetRequest)
	if err := c.Bind(req); err != nil {
		return ctrl.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if len(req.Appointment) == 0 {
		return ctrl.BadRequest(errors.ErrInvalidInput, "appointment payload is required", nil)
	}

	result := ctrl.SyncService.SyncSourceToTarget(c.Request().Context(), tenantID, req.Appointment)
	return ctrl.SuccessResponse(c, result, "Sync finished")
}

// SyncTargetToSource pushes one CRM calendar appointment to the field service
// @Summary Đồng bộ lịch hẹn từ CRM
// @Description Đẩy một lịch hẹn từ lịch CRM sang hệ thống điều phối
// @Tags Sync
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.SyncTargetToSourceRequest true "Lịch hẹn cần đồng bộ"
// @Success 200 {object} dto.SyncResult
// @Failure 401 {object} errors.AppError
// @Router /private/sync/target-to-source [post]
func (ctrl *SyncController) SyncTargetToSource(c echo.Context) error {
	tenantID, appErr := utils.TenantFromContext(c)
	if appErr != nil {
		return ctrl.Unauthorized(appErr.Code, appErr.Message)
	}

	req := new(dto.SyncTargetToSourceRequest)
	if err := c.Bind(req); err != nil {
		return ctrl.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if len(req.Appointment) == 0 {
		return ctrl.BadRequest(errors.ErrInvalidInput, "appointment payload is required", nil)
	}

	result := ctrl.SyncService.SyncTargetToSource(c.Request().Context(), tenantID, req.Appointment, req.CalendarID)
	return ctrl.SuccessResponse(c, result, "Sync finished")
}

// SyncAll runs a full reconciliation pass inline
// @Summary Đồng bộ toàn bộ lịch hẹn
// @Description Đối soát hai chiều toàn bộ lịch hẹn trong khoảng thời gian
// @Tags Sync
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.SyncAllRequest false "Giới hạn theo đội (tuỳ chọn)"
// @Success 200 {object} dto.SyncSummary
// @Failure 401 {object} errors.AppError
// @Failure 409 {object} errors.AppError
// @Router /private/sync/all [post]
func (ctrl *SyncController) SyncAll(c echo.Context) error {
	tenantID, appErr := utils.TenantFromContext(c)
	if appErr != nil {
		return ctrl.Unauthorized(appErr.Code, appErr.Message)
	}

	req := new(dto.SyncAllRequest)
	if err := c.Bind(req); err != nil {
		return ctrl.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}

	summary, svcErr := ctrl.SyncService.SyncAllAppointments(c.Request().Context(), tenantID, req.TeamID)
	if svcErr != nil {
		return ctrl.ErrorResponse(c, svcErr)
	}
	return ctrl.SuccessResponse(c, summary, "Reconciliation finished")
}

// EnqueueSyncAll queues a reconciliation pass for the background worker
// @Summary Đưa đồng bộ vào hàng đợi
// @Description Xếp một lượt đối soát vào hàng đợi nền thay vì chạy ngay
// @Tags Sync
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401 {object} errors.AppError
// @Router /private/sync/all/enqueue [post]
func (ctrl *SyncController) EnqueueSyncAll(c echo.Context) error {
	tenantID, appErr := utils.TenantFromContext(c)
	if appErr != nil {
		return ctrl.Unauthorized(appErr.Code, appErr.Message)
	}

	if err := ctrl.TaskClient.EnqueueReconcile(c.Request().Context(), tenantID); err != nil {
		return ctrl.InternalServerError(errors.ErrInternalServer, "Failed to enqueue reconciliation", err)
	}
	return ctrl.SuccessResponse(c, map[string]string{"status": "enqueued"}, "Reconciliation enqueued")
}

// ResolveConflict forces a resolution on one linked appointment pair
// @Summary Xử lý xung đột
// @Description Ép một bên thắng cho cặp lịch hẹn đã liên kết
// @Tags Sync
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ResolveConflictRequest true "Cặp lịch hẹn và chiến lược"
// @Success 200 {object} dto.ConflictResolution
// @Failure 400 {object} errors.AppError
// @Failure 404 {object} errors.AppError
// @Router /private/sync/conflicts/resolve [post]
func (ctrl *SyncController) ResolveConflict(c echo.Context) error {
	tenantID, appErr := utils.TenantFromContext(c)
	if appErr != nil {
		return ctrl.Unauthorized(appErr.Code, appErr.Message)
	}

	req := new(dto.ResolveConflictRequest)
	if err := c.Bind(req); err != nil {
		return ctrl.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}
	if req.SourceAppointmentID == "" {
		return ctrl.BadRequest(errors.ErrInvalidInput, "source_appointment_id is required", nil)
	}
	if req.Strategy != "" && !req.Strategy.IsValid() {
		return ctrl.BadRequest(errors.ErrInvalidInput, "unknown conflict strategy", nil)
	}

	resolution, svcErr := ctrl.ConflictResolver.ResolveConflict(c.Request().Context(), tenantID, req.SourceAppointmentID, req.Strategy)
	if svcErr != nil {
		return ctrl.ErrorResponse(c, svcErr)
	}
	return ctrl.SuccessResponse(c, resolution, "Conflict resolved")
}

// GetSyncRecords lists the tenant's sync records
// @Summary Danh sách bản ghi đồng bộ
// @Description Liệt kê các liên kết lịch hẹn giữa hai nền tảng
// @Tags Sync
// @Security BearerAuth
// @Produce json
// @Param page query int false "Số trang"
// @Param limit query int false "Số lượng mỗi trang"
// @Success 200 {object} dto.SyncRecordList
// @Failure 401 {object} errors.AppError
// @Router /private/sync/records [get]
func (ctrl *SyncController) GetSyncRecords(c echo.Context) error {
	tenantID, appErr := utils.TenantFromContext(c)
	if appErr != nil {
		return ctrl.Unauthorized(appErr.Code, appErr.Message)
	}

	queryParams := params.FromContext(c)
	list, svcErr := ctrl.SyncService.ListRecords(c.Request().Context(), tenantID, queryParams)
	if svcErr != nil {
		return ctrl.ErrorResponse(c, svcErr)
	}
	return ctrl.SuccessResponse(c, list, "Sync records retrieved")
}
