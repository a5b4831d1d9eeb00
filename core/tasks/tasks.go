package tasks

import (
	"context"
	"encoding/json"
	"time"

	"fieldsync/core/logger"

	"github.com/hibiken/asynq"
)

const (
	// TypeReconcileAll runs a full reconciliation pass for one tenant.
	TypeReconcileAll = "sync:reconcile"
)

type ReconcilePayload struct {
	TenantID string `json:"tenant_id"`
}

// Client enqueues background sync jobs.
type Client struct {
	inner *asynq.Client
}

func NewClient(opt asynq.RedisClientOpt) *Client {
	return &Client{inner: asynq.NewClient(opt)}
}

func (c *Client) Close() error {
	return c.inner.Close()
}

// EnqueueReconcile schedules a full reconciliation pass. Uniqueness keeps a
// burst of webhook triggers from piling up duplicate jobs for one tenant.
func (c *Client) EnqueueReconcile(ctx context.Context, tenantID string) error {
	payload, err := json.Marshal(ReconcilePayload{TenantID: tenantID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TypeReconcileAll, payload)
	info, err := c.inner.EnqueueContext(ctx, task,
		asynq.MaxRetry(3),
		asynq.Timeout(15*time.Minute),
		asynq.Unique(time.Minute),
	)
	if err != nil {
		return err
	}

	logger.Info("Tasks:EnqueueReconcile", "tenant_id", tenantID, "task_id", info.ID, "queue", info.Queue)
	return nil
}
