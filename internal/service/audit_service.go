package service

import (
	"context"
	"encoding/json"
	"time"

	"stockroom/internal/apierror"
	"stockroom/internal/dto"
	"stockroom/internal/model"
	"stockroom/internal/repository"
	"stockroom/internal/worker"

	"github.com/rs/zerolog/log"
)

// AuditEntry describes one business action. Old and New are serialized to JSON.
type AuditEntry struct {
	Actor    Actor
	Action   string
	Table    string
	RecordID uint
	Old      interface{}
	New      interface{}
}

// AuditRecorder appends audit entries. Record never fails the caller: every
// error is logged and the entry is dropped.
type AuditRecorder interface {
	Record(ctx context.Context, e AuditEntry)
}

type auditRecorder struct {
	repo       repository.AuditRepository
	dispatcher *worker.Dispatcher
}

// NewAuditRecorder queues entries through dispatcher and falls back to a
// direct insert when the queue is unavailable. dispatcher may be nil.
func NewAuditRecorder(repo repository.AuditRepository, dispatcher *worker.Dispatcher) AuditRecorder {
	return &auditRecorder{repo: repo, dispatcher: dispatcher}
}

func (r *auditRecorder) Record(ctx context.Context, e AuditEntry) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("action", e.Action).Str("table", e.Table).Msg("audit: panic recovered")
		}
	}()

	// The entry outlives the request that produced it.
	ctx = context.WithoutCancel(ctx)

	entry := model.AuditLog{
		UserID:    e.Actor.userRef(),
		Action:    e.Action,
		TableName: e.Table,
		IPAddress: e.Actor.IP,
		RequestID: e.Actor.RequestID,
		OldValues: snapshot(e.Old),
		NewValues: snapshot(e.New),
		CreatedAt: time.Now().UTC(),
	}
	if e.RecordID != 0 {
		id := e.RecordID
		entry.RecordID = &id
	}

	if r.dispatcher != nil {
		err := r.dispatcher.EnqueueAudit(ctx, entry)
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("action", e.Action).Msg("audit: enqueue failed, writing directly")
	}
	if r.repo == nil {
		return
	}
	if err := r.repo.Create(ctx, &entry); err != nil {
		log.Error().Err(err).
			Str("action", e.Action).
			Str("table", e.Table).
			Uint("record_id", e.RecordID).
			Msg("audit: failed to record entry")
	}
}

func snapshot(v interface{}) *string {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Msg("audit: snapshot not serializable")
		return nil
	}
	s := string(b)
	return &s
}

// AuditService exposes the admin read and purge paths over the audit trail.
type AuditService interface {
	List(ctx context.Context, filter dto.AuditLogFilter) (*dto.AuditLogListResponse, error)
	Purge(ctx context.Context, actor Actor, before time.Time) (*dto.PurgeAuditLogsResponse, error)
}

type auditService struct {
	repo     repository.AuditRepository
	recorder AuditRecorder
}

func NewAuditService(repo repository.AuditRepository, recorder AuditRecorder) AuditService {
	return &auditService{repo: repo, recorder: recorder}
}

func (s *auditService) List(ctx context.Context, filter dto.AuditLogFilter) (*dto.AuditLogListResponse, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit, 50, 200)
	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "audit logs")
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return &dto.AuditLogListResponse{
		Data:       logs,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

func (s *auditService) Purge(ctx context.Context, actor Actor, before time.Time) (*dto.PurgeAuditLogsResponse, error) {
	if err := requireRole(actor, model.RoleAdmin); err != nil {
		return nil, err
	}
	if before.IsZero() || before.After(time.Now()) {
		return nil, apierror.Validation("before must be a date in the past")
	}
	n, err := s.repo.DeleteBefore(ctx, before)
	if err != nil {
		return nil, storeErr(err, "audit logs")
	}
	s.recorder.Record(ctx, AuditEntry{
		Actor:  actor,
		Action: model.AuditPurge,
		Table:  "audit_logs",
		New:    map[string]interface{}{"before": before.Format(time.RFC3339), "deleted": n},
	})
	return &dto.PurgeAuditLogsResponse{Deleted: n}, nil
}
