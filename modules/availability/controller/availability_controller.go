package controller

import (
	"fieldsync/core/controller"
	"fieldsync/core/errors"
	"fieldsync/core/utils"
	"fieldsync/modules/availability/dto"
	"fieldsync/modules/availability/service"

	"github.com/labstack/echo/v4"
)

type AvailabilityController struct {
	controller.BaseController
	service service.AvailabilityService
}

func NewAvailabilityController(svc service.AvailabilityService) *AvailabilityController {
	return &AvailabilityController{
		BaseController: controller.NewBaseController(),
		service:        svc,
	}
}

// CheckAvailability checks a candidate interval against all teams
// @Summary Kiểm tra lịch trống
// @Description Kiểm tra khoảng thời gian có đội nào còn trống không
// @Tags Availability
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CheckAvailabilityRequest true "Khoảng thời gian cần kiểm tra"
// @Success 200 {object} dto.AvailabilityResult
// @Failure 401 {object} errors.AppError
// @Router /private/availability/check [post]
func (ctrl *AvailabilityController) CheckAvailability(c echo.Context) error {
	tenantID, appErr := utils.TenantFromContext(c)
	if appErr != nil {
		return ctrl.Unauthorized(appErr.Code, appErr.Message)
	}

	req := new(dto.CheckAvailabilityRequest)
	if err := c.Bind(req); err != nil {
		return ctrl.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}

	result := ctrl.service.CheckAvailability(c.Request().Context(), tenantID, *req)
	return ctrl.SuccessResponse(c, result, "Availability checked")
}

// CheckTeamAvailability checks a candidate interval for one team
// @Summary Kiểm tra lịch trống theo đội
// @Description Kiểm tra khoảng thời gian cho một đội cụ thể
// @Tags Availability
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param teamId path string true "ID của đội"
// @Param request body dto.TeamAvailabilityRequest true "Khoảng thời gian cần kiểm tra"
// @Success 200 {object} dto.TeamAvailability
// @Failure 401 {object} errors.AppError
// @Router /private/availability/teams/{teamId}/check [post]
func (ctrl *AvailabilityController) CheckTeamAvailability(c echo.Context) error {
	tenantID, appErr := utils.TenantFromContext(c)
	if appErr != nil {
		return ctrl.Unauthorized(appErr.Code, appErr.Message)
	}

	teamID := c.Param("teamId")
	if teamID == "" {
		return ctrl.BadRequest(errors.ErrInvalidInput, "teamId is required", nil)
	}

	req := new(dto.TeamAvailabilityRequest)
	if err := c.Bind(req); err != nil {
		return ctrl.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}

	result := ctrl.service.CheckTeamAvailability(c.Request().Context(), tenantID, teamID, *req)
	return ctrl.SuccessResponse(c, result, "Team availability checked")
}

// FindOpenSlots suggests bookable gaps in a date range
// @Summary Tìm khung giờ trống
// @Description Gợi ý các khung giờ có thể đặt trong khoảng thời gian
// @Tags Availability
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.FindOpenSlotsRequest true "Khoảng thời gian và độ dài khung giờ"
// @Success 200 {object} dto.FindOpenSlotsResponse
// @Failure 400 {object} errors.AppError
// @Failure 401 {object} errors.AppError
// @Router /private/availability/open-slots [post]
func (ctrl *AvailabilityController) FindOpenSlots(c echo.Context) error {
	tenantID, appErr := utils.TenantFromContext(c)
	if appErr != nil {
		return ctrl.Unauthorized(appErr.Code, appErr.Message)
	}

	req := new(dto.FindOpenSlotsRequest)
	if err := c.Bind(req); err != nil {
		return ctrl.BadRequest(errors.ErrInvalidRequestData, "Invalid request body", nil)
	}

	result, svcErr := ctrl.service.FindOpenSlots(c.Request().Context(), tenantID, *req)
	if svcErr != nil {
		return ctrl.ErrorResponse(c, svcErr)
	}

	return ctrl.SuccessResponse(c, result, "Open slots found")
}
