package inmem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaegashi/clusterops/domain/model"
)

func TestProviderRepository_CopiesSettings(t *testing.T) {
	ctx := context.Background()
	r := NewProviderRepository()
	p := &model.Provider{Name: "hz", Driver: "hcloud", Settings: map[string]string{"token": "a"}}
	require.NoError(t, r.Create(ctx, p))
	p.Settings["token"] = "mutated"

	got, err := r.GetByName(ctx, "hz")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Settings["token"])
	assert.ErrorIs(t, r.Create(ctx, &model.Provider{Name: "hz"}), model.ErrAlreadyExists)
}

func TestInstanceRepository_OrderAndOwner(t *testing.T) {
	ctx := context.Background()
	r := NewInstanceRepository()
	for _, pid := range []string{"3", "1", "2"} {
		require.NoError(t, r.Create(ctx, &model.Instance{ProviderID: "p", ProviderInstanceID: pid, WorkerGroupID: "g"}))
	}
	require.ErrorIs(t, r.Create(ctx, &model.Instance{ProviderID: "p", ProviderInstanceID: "9"}), model.ErrInstanceOwner)

	list, err := r.ListByWorkerGroup(ctx, "g")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"3", "1", "2"}, []string{list[0].ProviderInstanceID, list[1].ProviderInstanceID, list[2].ProviderInstanceID})

	require.NoError(t, r.Delete(ctx, list[1].ID))
	list, err = r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2", list[1].ProviderInstanceID)
	assert.ErrorIs(t, r.Delete(ctx, "missing"), model.ErrInstanceNotFound)
}

func TestStore_Repositories(t *testing.T) {
	repos := NewStore().Repositories()
	assert.NotNil(t, repos.Provider)
	assert.NotNil(t, repos.Controller)
	assert.NotNil(t, repos.WorkerGroup)
	assert.NotNil(t, repos.Instance)
}
