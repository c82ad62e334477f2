package service

import (
	"context"
	"testing"

	"stockroom/internal/apierror"
	"stockroom/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendor_MutationsNeedStaff(t *testing.T) {
	repo := newStubVendorRepo()
	id := repo.seed("Acme", "")
	svc := NewVendorService(repo, &spyRecorder{})
	ctx := context.Background()

	_, err := svc.Create(ctx, clerk, dto.CreateVendorRequest{Name: "Globex"})
	assert.True(t, apierror.Is(err, apierror.KindForbidden))

	_, err = svc.Update(ctx, clerk, id, dto.UpdateVendorRequest{Name: strPtr("Acme Ltd")})
	assert.True(t, apierror.Is(err, apierror.KindForbidden))

	_, err = svc.Delete(ctx, clerk, id)
	assert.True(t, apierror.Is(err, apierror.KindForbidden))
	assert.Contains(t, repo.vendors, id)
}

func TestVendor_DeleteWithHistoryDeactivates(t *testing.T) {
	repo := newStubVendorRepo()
	id := repo.seed("Acme", "orders@acme.test")
	repo.poCounts[id] = 2
	svc := NewVendorService(repo, &spyRecorder{})

	resp, err := svc.Delete(context.Background(), staff, id)
	require.NoError(t, err)
	assert.True(t, resp.Deactivated)

	require.Contains(t, repo.vendors, id)
	assert.False(t, repo.vendors[id].IsActive)

	active, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestVendor_DeleteWithoutHistoryRemoves(t *testing.T) {
	repo := newStubVendorRepo()
	id := repo.seed("Initech", "")
	svc := NewVendorService(repo, &spyRecorder{})

	resp, err := svc.Delete(context.Background(), admin, id)
	require.NoError(t, err)
	assert.False(t, resp.Deactivated)
	assert.NotContains(t, repo.vendors, id)

	_, err = svc.Get(context.Background(), id)
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
}

func TestVendor_CreateTrimsName(t *testing.T) {
	svc := NewVendorService(newStubVendorRepo(), &spyRecorder{})

	resp, err := svc.Create(context.Background(), staff, dto.CreateVendorRequest{Name: "  Umbrella  "})
	require.NoError(t, err)
	assert.Equal(t, "Umbrella", resp.Name)
	assert.True(t, resp.IsActive)

	_, err = svc.Create(context.Background(), staff, dto.CreateVendorRequest{Name: "   "})
	assert.True(t, apierror.Is(err, apierror.KindValidation))
}
