package scope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasteops/wasteops/internal/directory"
)

func TestManagerReusesStorePerUser(t *testing.T) {
	ctx := context.Background()
	manager := NewManager(twoCompanyDirectory(), NewMemoryKV(), nil)

	first := manager.ForUser(ctx, 7)
	second := manager.ForUser(ctx, 7)
	require.Same(t, first, second)

	other := manager.ForUser(ctx, 8)
	require.NotSame(t, first, other)
}

func TestManagerRestoresPersistedSelectionOnFirstUse(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	seedKV(t, kv, "scope:user:7:company", directory.Company{ID: 1, Code: "NORTH", Name: "Northside Sanitation"})
	manager := NewManager(twoCompanyDirectory(), kv, nil)

	store := manager.ForUser(ctx, 7)
	sel := store.Selected()
	require.NotNil(t, sel.Company)
	require.EqualValues(t, 1, sel.Company.ID)
}

func TestManagerForgetDropsInMemoryStateOnly(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	seedKV(t, kv, "scope:user:7:company", directory.Company{ID: 2, Code: "SOUTH", Name: "Southside Sanitation"})
	manager := NewManager(twoCompanyDirectory(), kv, nil)

	first := manager.ForUser(ctx, 7)
	manager.Forget(7)

	second := manager.ForUser(ctx, 7)
	require.NotSame(t, first, second)
	sel := second.Selected()
	require.NotNil(t, sel.Company)
	require.EqualValues(t, 2, sel.Company.ID, "persisted selection survives Forget")
}
