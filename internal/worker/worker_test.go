package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"stockroom/internal/dto"
	"stockroom/internal/infra"
	"stockroom/internal/model"
	"stockroom/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memAuditRepo struct {
	mu       sync.Mutex
	logs     []model.AuditLog
	failures int
}

func (r *memAuditRepo) Create(_ context.Context, entry *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return errors.New("deadlock detected")
	}
	entry.ID = uint(len(r.logs) + 1)
	r.logs = append(r.logs, *entry)
	return nil
}

func (r *memAuditRepo) List(context.Context, dto.AuditLogFilter) ([]model.AuditLog, int64, error) {
	return r.logs, int64(len(r.logs)), nil
}

func (r *memAuditRepo) DeleteBefore(context.Context, time.Time) (int64, error) { return 0, nil }

func TestWithRetry(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func(int) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = withRetry(context.Background(), 2, time.Millisecond, func(int) error {
		calls++
		return errors.New("permanent")
	})
	assert.EqualError(t, err, "permanent")
	assert.Equal(t, 2, calls)
}

func TestWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := withRetry(ctx, 3, time.Hour, func(int) error { return errors.New("down") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAuditWorker_PersistsWithRetry(t *testing.T) {
	repo := &memAuditRepo{failures: 2}
	w := NewAuditWorker(repo)
	w.backoff = time.Millisecond

	uid := uint(4)
	raw, err := json.Marshal(model.AuditLog{ID: 99, UserID: &uid, Action: model.AuditCreate, TableName: "orders"})
	require.NoError(t, err)

	require.NoError(t, w.Process(context.Background(), raw))
	require.Len(t, repo.logs, 1)
	assert.Equal(t, uint(1), repo.logs[0].ID, "queued ids are discarded")
	assert.Equal(t, "orders", repo.logs[0].TableName)
}

func TestAuditWorker_BadPayload(t *testing.T) {
	w := NewAuditWorker(&memAuditRepo{})

	assert.Error(t, w.Process(context.Background(), json.RawMessage(`{"user_id":"x"`)))
}

type fakeMailer struct {
	sent       []string
	attachment string
	err        error
}

func (m *fakeMailer) Send(to, _, _, attachmentPath string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	m.attachment = attachmentPath
	return nil
}

type fakePORepo struct {
	repository.PurchaseOrderRepository
	po *model.PurchaseOrder
}

func (r *fakePORepo) FindByID(_ context.Context, id uint) (*model.PurchaseOrder, error) {
	if r.po == nil || r.po.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return r.po, nil
}

func emailPayload(t *testing.T, id uint, to string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(PurchaseOrderEmailPayload{PurchaseOrderID: id, ToEmail: to})
	require.NoError(t, err)
	return raw
}

func TestEmailWorker_SendsPDF(t *testing.T) {
	mailer := &fakeMailer{}
	po := &model.PurchaseOrder{ID: 8, ReferenceNumber: "PO-1", Status: model.POStatusSubmitted, Total: decimal.NewFromInt(40)}
	w := NewEmailWorker(mailer, infra.NewCircuitBreaker(infra.DefaultCBConfig()), &fakePORepo{po: po}, t.TempDir(), "Corner Shop")
	w.backoff = time.Millisecond

	require.NoError(t, w.Process(context.Background(), emailPayload(t, 8, "orders@acme.test")))
	assert.Equal(t, []string{"orders@acme.test"}, mailer.sent)
	_, err := os.Stat(mailer.attachment)
	assert.NoError(t, err)
}

func TestEmailWorker_Skips(t *testing.T) {
	mailer := &fakeMailer{}
	po := &model.PurchaseOrder{ID: 8, ReferenceNumber: "PO-1", Status: model.POStatusCanceled}
	w := NewEmailWorker(mailer, infra.NewCircuitBreaker(infra.DefaultCBConfig()), &fakePORepo{po: po}, t.TempDir(), "Corner Shop")

	require.NoError(t, w.Process(context.Background(), emailPayload(t, 8, "")))
	require.NoError(t, w.Process(context.Background(), emailPayload(t, 8, "orders@acme.test")))
	assert.Empty(t, mailer.sent)

	assert.Error(t, w.Process(context.Background(), emailPayload(t, 9, "orders@acme.test")))
}

func TestEmailWorker_FailureOpensBreaker(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("421 service not available")}
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{FailureThreshold: 3, OpenTimeout: time.Hour})
	po := &model.PurchaseOrder{ID: 8, ReferenceNumber: "PO-1", Status: model.POStatusSubmitted}
	w := NewEmailWorker(mailer, cb, &fakePORepo{po: po}, t.TempDir(), "Corner Shop")
	w.backoff = time.Millisecond

	err := w.Process(context.Background(), emailPayload(t, 8, "orders@acme.test"))
	require.Error(t, err)
	assert.Equal(t, infra.CBOpen, cb.State())

	err = w.Process(context.Background(), emailPayload(t, 8, "orders@acme.test"))
	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
}

type countingHandler struct {
	calls int
	err   error
}

func (h *countingHandler) Process(context.Context, json.RawMessage) error {
	h.calls++
	return h.err
}

func TestProcessJob_RoutesByType(t *testing.T) {
	audit := &countingHandler{}
	failing := &countingHandler{err: errors.New("nope")}
	handlers := Handlers{JobAudit: audit, JobPurchaseOrderMail: failing}

	raw, err := json.Marshal(Job{Type: JobAudit, Payload: json.RawMessage(`{}`)})
	require.NoError(t, err)
	processJob(context.Background(), nil, handlers, QueueAudit, string(raw))
	assert.Equal(t, 1, audit.calls)

	// Failures and unknown types go to the DLQ, which only logs without Redis.
	raw, _ = json.Marshal(Job{Type: JobPurchaseOrderMail, Payload: json.RawMessage(`{}`)})
	processJob(context.Background(), nil, handlers, QueueEmail, string(raw))
	processJob(context.Background(), nil, handlers, QueueEmail, `{"type":"unknown"}`)
	processJob(context.Background(), nil, handlers, QueueEmail, `not json`)
	assert.Equal(t, 1, failing.calls)
}
