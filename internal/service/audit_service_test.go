package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"stockroom/internal/apierror"
	"stockroom/internal/dto"
	"stockroom/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRecorder_WritesSnapshots(t *testing.T) {
	repo := &stubAuditRepo{}
	rec := NewAuditRecorder(repo, nil)

	rec.Record(context.Background(), AuditEntry{
		Actor:    staff,
		Action:   model.AuditUpdate,
		Table:    "vendors",
		RecordID: 7,
		Old:      map[string]string{"name": "Acme"},
		New:      map[string]string{"name": "Acme Ltd"},
	})

	require.Len(t, repo.logs, 1)
	got := repo.logs[0]
	require.NotNil(t, got.UserID)
	assert.Equal(t, staff.UserID, *got.UserID)
	require.NotNil(t, got.RecordID)
	assert.Equal(t, uint(7), *got.RecordID)
	assert.Equal(t, "10.0.0.2", got.IPAddress)
	assert.Equal(t, "req-staff", got.RequestID)

	require.NotNil(t, got.NewValues)
	var snap map[string]string
	require.NoError(t, json.Unmarshal([]byte(*got.NewValues), &snap))
	assert.Equal(t, "Acme Ltd", snap["name"])
}

func TestAuditRecorder_AnonymousAndEmpty(t *testing.T) {
	repo := &stubAuditRepo{}
	rec := NewAuditRecorder(repo, nil)

	rec.Record(context.Background(), AuditEntry{Action: model.AuditLogin, Table: "users"})

	require.Len(t, repo.logs, 1)
	assert.Nil(t, repo.logs[0].UserID)
	assert.Nil(t, repo.logs[0].RecordID)
	assert.Nil(t, repo.logs[0].OldValues)
	assert.Nil(t, repo.logs[0].NewValues)
}

func TestAuditRecorder_StoreFailureIsSwallowed(t *testing.T) {
	repo := &stubAuditRepo{failWith: errStoreDown}
	rec := NewAuditRecorder(repo, nil)

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), AuditEntry{Actor: admin, Action: model.AuditDelete, Table: "categories", RecordID: 1})
	})
	assert.Empty(t, repo.logs)
}

func TestAuditRecorder_UnserializableSnapshot(t *testing.T) {
	repo := &stubAuditRepo{}
	rec := NewAuditRecorder(repo, nil)

	rec.Record(context.Background(), AuditEntry{Action: model.AuditCreate, Table: "orders", New: make(chan int)})

	require.Len(t, repo.logs, 1)
	assert.Nil(t, repo.logs[0].NewValues)
}

func TestAuditService_Purge(t *testing.T) {
	repo := &stubAuditRepo{}
	spy := &spyRecorder{}
	svc := NewAuditService(repo, spy)
	now := time.Now().UTC()
	repo.logs = []model.AuditLog{
		{ID: 1, Action: model.AuditCreate, CreatedAt: now.AddDate(0, 0, -40)},
		{ID: 2, Action: model.AuditCreate, CreatedAt: now.AddDate(0, 0, -1)},
	}
	cutoff := now.AddDate(0, 0, -30)

	_, err := svc.Purge(context.Background(), staff, cutoff)
	assert.True(t, apierror.Is(err, apierror.KindForbidden))

	_, err = svc.Purge(context.Background(), admin, now.Add(time.Hour))
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	resp, err := svc.Purge(context.Background(), admin, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Deleted)
	assert.Len(t, repo.logs, 1)
	assert.Len(t, spy.byAction(model.AuditPurge), 1)
}

func TestAuditService_ListDefaults(t *testing.T) {
	svc := NewAuditService(&stubAuditRepo{}, &spyRecorder{})

	resp, err := svc.List(context.Background(), dto.AuditLogFilter{})
	require.NoError(t, err)
	assert.NotNil(t, resp.Data)
	assert.Equal(t, 50, resp.Limit)
	assert.Equal(t, 1, resp.Page)
}
