package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockroom/internal/model"
	"stockroom/internal/repository"
)

// AuditWorker persists audit entries pushed by the audit recorder.
type AuditWorker struct {
	repo    repository.AuditRepository
	backoff time.Duration
}

func NewAuditWorker(repo repository.AuditRepository) *AuditWorker {
	return &AuditWorker{repo: repo, backoff: time.Second}
}

// Process stores one entry, retrying up to three times before giving up.
func (w *AuditWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var entry model.AuditLog
	if err := json.Unmarshal(raw, &entry); err != nil {
		return fmt.Errorf("audit_worker: invalid payload: %w", err)
	}
	entry.ID = 0
	return withRetry(ctx, 3, w.backoff, func(int) error {
		return w.repo.Create(ctx, &entry)
	})
}
