package infra

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stockroom/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSMTP = errors.New("smtp: connection refused")

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "test", FailureThreshold: 3, SuccessThreshold: 2, OpenTimeout: time.Minute})
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return errSMTP }), errSMTP)
	}
	assert.Equal(t, CBOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(time.Minute)
	assert.Equal(t, CBHalfOpen, cb.State())

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBHalfOpen, cb.State())
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBClosed, cb.State())
	assert.Equal(t, 0, cb.Snapshot().Failures)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second})
	now := time.Now()
	cb.now = func() time.Time { return now }

	_ = cb.Execute(func() error { return errSMTP })
	now = now.Add(2 * time.Second)
	require.Equal(t, CBHalfOpen, cb.State())

	_ = cb.Execute(func() error { return errSMTP })
	snap := cb.Snapshot()
	assert.Equal(t, "open", snap.State)
	assert.Equal(t, "smtp", snap.Name)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2})

	_ = cb.Execute(func() error { return errSMTP })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errSMTP })

	assert.Equal(t, CBClosed, cb.State())
}

func TestReferenceGenerator(t *testing.T) {
	g, err := NewReferenceGenerator(1)
	require.NoError(t, err)
	g.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }

	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		ref := g.NewReference()
		require.True(t, strings.HasPrefix(ref, "PO-20240309140507-"), ref)
		require.False(t, seen[ref], "duplicate %s", ref)
		seen[ref] = true
	}

	_, err = NewReferenceGenerator(5000)
	assert.Error(t, err)
}

func samplePurchaseOrder() *model.PurchaseOrder {
	email := "orders@acme.test"
	notes := "Deliver to the back door"
	return &model.PurchaseOrder{
		ID:              3,
		ReferenceNumber: "PO-20240309140507-ABC",
		Status:          model.POStatusApproved,
		Total:           decimal.RequireFromString("110"),
		Notes:           &notes,
		CreatedAt:       time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC),
		Vendor:          &model.Vendor{Name: "Acme", Email: &email},
		Items: []model.PurchaseOrderItem{
			{InventoryID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("25"), TotalPrice: decimal.RequireFromString("50"),
				Inventory: &model.InventoryItem{Name: "Widget"}},
			{InventoryID: 2, Quantity: 3, UnitPrice: decimal.RequireFromString("20"), TotalPrice: decimal.RequireFromString("60")},
		},
	}
}

func TestWritePurchaseOrderPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePurchaseOrderPDF(&buf, samplePurchaseOrder(), "Corner Shop"))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestGeneratePurchaseOrderPDF_WritesFile(t *testing.T) {
	dir := t.TempDir()
	po := samplePurchaseOrder()
	po.ReferenceNumber = "PO/../evil"

	path, err := GeneratePurchaseOrderPDF(po, "Corner Shop", dir)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, "po_PO____evil.pdf", filepath.Base(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
