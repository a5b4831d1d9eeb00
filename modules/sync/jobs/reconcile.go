package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"fieldsync/core/errors"
	"fieldsync/core/logger"
	"fieldsync/core/tasks"
	"fieldsync/modules/sync/service"

	"github.com/hibiken/asynq"
)

// ReconcileHandler runs queued reconciliation passes.
type ReconcileHandler struct {
	syncService service.SyncService
}

func NewReconcileHandler(syncService service.SyncService) *ReconcileHandler {
	return &ReconcileHandler{syncService: syncService}
}

// Register attaches the handler to the worker mux.
func (h *ReconcileHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(tasks.TypeReconcileAll, h.HandleReconcile)
}

func (h *ReconcileHandler) HandleReconcile(ctx context.Context, task *asynq.Task) error {
	var payload tasks.ReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		// Malformed payloads never become valid; do not retry.
		return fmt.Errorf("unmarshal reconcile payload: %v: %w", err, asynq.SkipRetry)
	}

	summary, appErr := h.syncService.SyncAllAppointments(ctx, payload.TenantID, "")
	if appErr != nil {
		if appErr.Code == errors.ErrSyncInProgress {
			// Another pass holds the tenant lock; let asynq retry later.
			return appErr
		}
		return fmt.Errorf("%s: %w", appErr.Error(), asynq.SkipRetry)
	}

	logger.Info("ReconcileHandler:HandleReconcile:Done",
		"tenant_id", payload.TenantID,
		"synced", summary.Synced,
		"errors", summary.Errors,
	)
	return nil
}
