package instance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaegashi/clusterops/adapters/store/inmem"
	"github.com/yaegashi/clusterops/domain"
	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/usecase/lifecycle"
	"github.com/yaegashi/clusterops/usecase/lifecycle/lifecycletest"
)

type fixture struct {
	ctx   context.Context
	repos *domain.Repositories
	port  *lifecycletest.Port
	uc    *UseCase
	ctrl  *model.Controller
	group *model.WorkerGroup
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repos := inmem.NewStore().Repositories()
	port := lifecycletest.NewPort()
	p := &model.Provider{Name: "p1", Driver: "fake"}
	require.NoError(t, repos.Provider.Create(ctx, p))
	c := &model.Controller{Name: "head", ProviderID: p.ID}
	require.NoError(t, repos.Controller.Create(ctx, c))
	g := &model.WorkerGroup{Name: "w1", ProviderID: p.ID, ControllerID: c.ID, DesiredCount: 2}
	require.NoError(t, repos.WorkerGroup.Create(ctx, g))
	uc := &UseCase{
		Repos:  &Repos{Instance: repos.Instance},
		Engine: lifecycle.NewEngine(repos, port, nil),
	}
	return &fixture{ctx: ctx, repos: repos, port: port, uc: uc, ctrl: c, group: g}
}

func (f *fixture) seed(t *testing.T, owner model.InstanceOwner, statuses ...model.InstanceStatus) []*model.Instance {
	t.Helper()
	var out []*model.Instance
	for _, st := range statuses {
		inst := f.port.Seed(owner, st)
		require.NoError(t, f.repos.Instance.Create(f.ctx, inst))
		out = append(out, inst)
	}
	return out
}

func TestList(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.ctrl.Owner(), model.StatusRunning)
	f.seed(t, f.group.Owner(), model.StatusStopped)

	out, err := f.uc.List(f.ctx, &ListInput{})
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "head", out.Rows[0].Name)
	assert.Equal(t, model.OwnerController, out.Rows[0].Kind)
	assert.Equal(t, "w1", out.Rows[1].Name)
	assert.Empty(t, out.Rows[1].Status)

	out, err = f.uc.List(f.ctx, &ListInput{Live: true})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRunning, out.Rows[0].Status)
	assert.Equal(t, model.StatusStopped, out.Rows[1].Status)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	insts := f.seed(t, f.group.Owner(), model.StatusTerminated)

	_, err := f.uc.Delete(f.ctx, &DeleteInput{ID: insts[0].ID})
	require.NoError(t, err)
	_, err = f.uc.Delete(f.ctx, &DeleteInput{ID: insts[0].ID})
	assert.ErrorIs(t, err, model.ErrInstanceNotFound)
	_, err = f.uc.Delete(f.ctx, &DeleteInput{})
	assert.ErrorIs(t, err, model.ErrInstanceInvalid)
	assert.Empty(t, f.port.Calls())
}

func TestClear_Terminated(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.ctrl.Owner(), model.StatusRunning)
	gone := f.seed(t, f.group.Owner(), model.StatusTerminated, model.StatusStopped, model.StatusTerminated)

	out, err := f.uc.Clear(f.ctx, &ClearInput{Terminated: true})
	require.NoError(t, err)
	require.Len(t, out.Deleted, 2)
	assert.Equal(t, gone[0].ID, out.Deleted[0].ID)
	assert.Equal(t, gone[2].ID, out.Deleted[1].ID)

	left, err := f.repos.Instance.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, left, 2)
}

func TestClear_StatusFailureKeepsRecords(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.group.Owner(), model.StatusTerminated)
	f.port.StatusErr = errors.New("api down")

	out, err := f.uc.Clear(f.ctx, &ClearInput{Terminated: true})
	require.NoError(t, err)
	assert.Empty(t, out.Deleted)
	assert.Equal(t, 1, out.Skipped)
}

func TestClear_All(t *testing.T) {
	f := newFixture(t)
	f.seed(t, f.ctrl.Owner(), model.StatusRunning)
	f.seed(t, f.group.Owner(), model.StatusStopped)
	f.port.StatusErr = errors.New("not consulted")

	out, err := f.uc.Clear(f.ctx, nil)
	require.NoError(t, err)
	assert.Len(t, out.Deleted, 2)
	left, err := f.repos.Instance.List(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, left)
	assert.Empty(t, f.port.Calls())
}
