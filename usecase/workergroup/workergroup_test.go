package workergroup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaegashi/clusterops/adapters/store/inmem"
	"github.com/yaegashi/clusterops/domain"
	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/usecase/lifecycle"
	"github.com/yaegashi/clusterops/usecase/lifecycle/lifecycletest"
)

type env struct {
	ctx      context.Context
	repos    *domain.Repositories
	port     *lifecycletest.Port
	deployer *lifecycletest.Deployer
	uc       *UseCase
	provider *model.Provider
	ctrl     *model.Controller
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	repos := inmem.NewStore().Repositories()
	port := lifecycletest.NewPort()
	deployer := lifecycletest.NewDeployer()
	prov := &model.Provider{Name: "p1", Driver: "fake"}
	require.NoError(t, repos.Provider.Create(ctx, prov))
	ctrl := &model.Controller{Name: "head", ProviderID: prov.ID}
	require.NoError(t, repos.Controller.Create(ctx, ctrl))
	uc := &UseCase{
		Repos: &Repos{
			Provider:    repos.Provider,
			Controller:  repos.Controller,
			WorkerGroup: repos.WorkerGroup,
			Instance:    repos.Instance,
		},
		Engine:      lifecycle.NewEngine(repos, port, nil),
		Coordinator: lifecycle.NewCoordinator(0, nil),
		DeployPort:  deployer,
	}
	return &env{ctx: ctx, repos: repos, port: port, deployer: deployer, uc: uc, provider: prov, ctrl: ctrl}
}

func (e *env) group(t *testing.T, name string, desired int) *model.WorkerGroup {
	t.Helper()
	out, err := e.uc.Setup(e.ctx, &SetupInput{Name: name, Provider: "p1", Controller: "head", DesiredCount: &desired})
	require.NoError(t, err)
	return out.WorkerGroup
}

func (e *env) seed(t *testing.T, owner model.InstanceOwner, statuses ...model.InstanceStatus) []*model.Instance {
	t.Helper()
	var out []*model.Instance
	for _, st := range statuses {
		inst := e.port.Seed(owner, st)
		require.NoError(t, e.repos.Instance.Create(e.ctx, inst))
		out = append(out, inst)
	}
	return out
}

// runController seeds a running controller instance and returns its address.
func (e *env) runController(t *testing.T) string {
	t.Helper()
	return e.seed(t, e.ctrl.Owner(), model.StatusRunning)[0].IPAddress
}

func hosts(insts []*model.Instance) []string {
	out := make([]string, 0, len(insts))
	for _, inst := range insts {
		out = append(out, inst.IPAddress)
	}
	return out
}

func intp(n int) *int { return &n }

func TestSetup(t *testing.T) {
	e := newEnv(t)

	out, err := e.uc.Setup(e.ctx, &SetupInput{Name: "w1", Provider: "p1", Controller: "head"})
	require.NoError(t, err)
	assert.True(t, out.Created)
	assert.Equal(t, DefaultDesiredCount, out.WorkerGroup.DesiredCount)
	assert.Equal(t, e.ctrl.ID, out.WorkerGroup.ControllerID)

	out, err = e.uc.Setup(e.ctx, &SetupInput{Name: "w1", DesiredCount: intp(0)})
	require.NoError(t, err)
	assert.False(t, out.Created)
	assert.Zero(t, out.WorkerGroup.DesiredCount)
	assert.Equal(t, e.provider.ID, out.WorkerGroup.ProviderID)

	tests := []struct {
		name string
		in   *SetupInput
		want error
	}{
		{"nil", nil, model.ErrWorkerGroupInvalid},
		{"bad name", &SetupInput{Name: "W1", Provider: "p1", Controller: "head"}, model.ErrWorkerGroupInvalid},
		{"negative", &SetupInput{Name: "w2", Provider: "p1", Controller: "head", DesiredCount: intp(-1)}, model.ErrWorkerGroupInvalid},
		{"missing controller", &SetupInput{Name: "w2", Provider: "p1"}, model.ErrWorkerGroupInvalid},
		{"unknown controller", &SetupInput{Name: "w2", Provider: "p1", Controller: "nope"}, model.ErrControllerNotFound},
		{"unknown provider", &SetupInput{Name: "w2", Provider: "nope", Controller: "head"}, model.ErrProviderNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.uc.Setup(e.ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetListDelete(t *testing.T) {
	e := newEnv(t)
	g := e.group(t, "w1", 2)

	got, err := e.uc.Get(e.ctx, &GetInput{Name: "w1"})
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.WorkerGroup.ID)

	list, err := e.uc.List(e.ctx, &ListInput{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "p1", list.Items[0].ProviderName)
	assert.Equal(t, "head", list.Items[0].ControllerName)

	e.seed(t, g.Owner(), model.StatusTerminated)
	_, err = e.uc.Delete(e.ctx, &DeleteInput{Name: "w1"})
	assert.ErrorIs(t, err, model.ErrInUse)

	g2 := e.group(t, "w2", 1)
	_, err = e.uc.Delete(e.ctx, &DeleteInput{Name: g2.Name})
	require.NoError(t, err)
	_, err = e.uc.Get(e.ctx, &GetInput{Name: "w2"})
	assert.ErrorIs(t, err, model.ErrWorkerGroupNotFound)
}

func TestStartRequiresRunningController(t *testing.T) {
	e := newEnv(t)
	e.group(t, "w1", 2)
	e.seed(t, e.ctrl.Owner(), model.StatusStopped)

	_, err := e.uc.Start(e.ctx, &StartInput{Name: "w1"})
	assert.ErrorIs(t, err, model.ErrControllerNotRunning)
	_, err = e.uc.Add(e.ctx, &AddInput{Name: "w1", Count: 1})
	assert.ErrorIs(t, err, model.ErrControllerNotRunning)
	assert.Empty(t, e.port.Calls())
}

func TestStartSatisfiedWithoutController(t *testing.T) {
	e := newEnv(t)
	g := e.group(t, "w1", 1)
	running := e.seed(t, g.Owner(), model.StatusRunning)

	out, err := e.uc.Start(e.ctx, &StartInput{Name: "w1"})
	require.NoError(t, err)
	assert.Equal(t, hosts(running), hosts(out.AlreadyRunning))
	assert.Empty(t, out.Resumed)
	assert.Empty(t, out.Started)

	out, err = e.uc.Start(e.ctx, &StartInput{Name: "w1", Count: intp(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Desired)
	assert.Empty(t, e.port.Calls())
	assert.Empty(t, e.deployer.WorkerHosts())
}

func TestStartDeploysPartiallyResumed(t *testing.T) {
	e := newEnv(t)
	e.runController(t)
	g := e.group(t, "w1", 2)
	seeded := e.seed(t, g.Owner(), model.StatusStopped, model.StatusStopped)
	e.port.Fail(seeded[1].ProviderInstanceID, errors.New("quota"))

	out, err := e.uc.Start(e.ctx, &StartInput{Name: "w1"})
	require.Error(t, err)
	var batch *model.BatchError
	require.ErrorAs(t, err, &batch)

	require.Len(t, out.Resumed, 1)
	assert.Equal(t, seeded[0].ProviderInstanceID, out.Resumed[0].ProviderInstanceID)
	assert.Empty(t, out.Started)
	assert.Equal(t, hosts(out.Resumed), e.deployer.WorkerHosts())
	require.Len(t, out.Deployed, 1)
	assert.NoError(t, out.Deployed[0].Err)
}

func TestStartRunningAndStopped(t *testing.T) {
	e := newEnv(t)
	controllerIP := e.runController(t)
	g := e.group(t, "w1", 3)
	seeded := e.seed(t, g.Owner(), model.StatusRunning, model.StatusStopped)

	out, err := e.uc.Start(e.ctx, &StartInput{Name: "w1"})
	require.NoError(t, err)

	assert.Equal(t, []string{seeded[1].ProviderInstanceID}, e.port.Targeted("resume"))
	assert.Equal(t, 1, e.port.Requested())
	require.Len(t, out.Resumed, 1)
	require.Len(t, out.Started, 1)
	require.Len(t, out.AlreadyRunning, 1)
	assert.Equal(t, seeded[0].ID, out.AlreadyRunning[0].ID)

	// Exactly the resumed and the new instance are deployed.
	want := []string{out.Resumed[0].IPAddress, out.Started[0].IPAddress}
	assert.ElementsMatch(t, want, e.deployer.WorkerHosts())
	assert.NotContains(t, e.deployer.WorkerHosts(), seeded[0].IPAddress)
	assert.Len(t, out.Deployed, 2)
	for _, w := range e.deployer.Workers() {
		assert.Equal(t, controllerIP, w.ControllerIP)
		assert.Equal(t, e.deployer.Engine, w.EngineConfig)
		assert.Equal(t, e.provider.ID, w.ControllerProvider.ID)
	}
}

func TestStopThenStart(t *testing.T) {
	e := newEnv(t)
	e.runController(t)
	g := e.group(t, "w1", 0)
	e.seed(t, g.Owner(), model.StatusRunning, model.StatusRunning)

	stop, err := e.uc.Stop(e.ctx, &StopInput{Name: "w1"})
	require.NoError(t, err)
	assert.Len(t, stop.Stopped, 2)
	assert.Equal(t, 2, e.port.CountStatus(model.StatusStopped))

	// Desired 0 is satisfied: nothing to do.
	out, err := e.uc.Start(e.ctx, &StartInput{Name: "w1"})
	require.NoError(t, err)
	assert.Empty(t, out.Resumed)
	assert.Empty(t, e.port.CallsOf("resume"))

	_, err = e.uc.Setup(e.ctx, &SetupInput{Name: "w1", DesiredCount: intp(2)})
	require.NoError(t, err)
	out, err = e.uc.Start(e.ctx, &StartInput{Name: "w1"})
	require.NoError(t, err)
	assert.Len(t, out.Resumed, 2)
	assert.Zero(t, e.port.Requested())
	assert.Equal(t, 3, e.port.CountStatus(model.StatusRunning))
	assert.ElementsMatch(t, hosts(out.Resumed), e.deployer.WorkerHosts())
}

func TestStartCountOverride(t *testing.T) {
	e := newEnv(t)
	e.runController(t)
	e.group(t, "w1", 1)

	out, err := e.uc.Start(e.ctx, &StartInput{Name: "w1", Count: intp(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Desired)
	assert.Len(t, out.Started, 3)

	_, err = e.uc.Start(e.ctx, &StartInput{Name: "w1", Count: intp(-1)})
	assert.ErrorIs(t, err, model.ErrWorkerGroupInvalid)
}

func TestStartReportsDeployFailures(t *testing.T) {
	e := newEnv(t)
	e.runController(t)
	e.group(t, "w1", 3)
	// The controller is fake-1; new workers are fake-2..fake-4.
	e.deployer.Fail("10.0.0.3", errors.New("engine refused"))

	out, err := e.uc.Start(e.ctx, &StartInput{Name: "w1"})
	require.Error(t, err)
	var be *model.DeployBatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 3, be.Total)
	require.Len(t, be.Failures, 1)
	assert.Equal(t, "10.0.0.3", be.Failures[0].Host)
	assert.Len(t, out.Deployed.Succeeded(), 2)
	assert.Len(t, e.deployer.Workers(), 3)
}

func TestStartDeploysPartialStart(t *testing.T) {
	e := newEnv(t)
	e.runController(t)
	g := e.group(t, "w1", 3)
	e.port.StartErr = errors.New("quota exceeded")
	e.port.StartPartial = 2

	out, err := e.uc.Start(e.ctx, &StartInput{Name: "w1"})
	require.Error(t, err)
	var ae *model.AdapterError
	require.ErrorAs(t, err, &ae)
	assert.Len(t, out.Started, 2)
	assert.Len(t, e.deployer.Workers(), 2)

	insts, err := e.repos.Instance.ListByWorkerGroup(e.ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, insts, 2)
}

func TestStartBarrierWaitsForSlowWorker(t *testing.T) {
	e := newEnv(t)
	e.runController(t)
	e.group(t, "w1", 3)
	var finished atomic.Int32
	e.deployer.Hook = func(_ context.Context, d model.WorkerDeployment) {
		if d.Host == "10.0.0.2" {
			time.Sleep(150 * time.Millisecond)
		}
		finished.Add(1)
	}

	_, err := e.uc.Start(e.ctx, &StartInput{Name: "w1"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), finished.Load())
}

func TestAdd(t *testing.T) {
	e := newEnv(t)
	e.runController(t)
	g := e.group(t, "w1", 1)
	e.seed(t, g.Owner(), model.StatusRunning, model.StatusStopped)

	out, err := e.uc.Add(e.ctx, &AddInput{Name: "w1", Count: 2})
	require.NoError(t, err)
	assert.Len(t, out.Started, 2)
	assert.Empty(t, e.port.CallsOf("resume"))
	assert.ElementsMatch(t, hosts(out.Started), e.deployer.WorkerHosts())

	for _, n := range []int{0, -2} {
		_, err = e.uc.Add(e.ctx, &AddInput{Name: "w1", Count: n})
		assert.ErrorIs(t, err, model.ErrWorkerGroupInvalid)
	}
}

func TestTerminateOnlyOwnGroup(t *testing.T) {
	e := newEnv(t)
	ctrl := e.seed(t, e.ctrl.Owner(), model.StatusRunning)
	g1 := e.group(t, "w1", 2)
	g2 := e.group(t, "w2", 2)
	own := e.seed(t, g1.Owner(), model.StatusRunning, model.StatusStopped, model.StatusTerminated)
	other := e.seed(t, g2.Owner(), model.StatusRunning)

	out, err := e.uc.Terminate(e.ctx, &TerminateInput{Name: "w1"})
	require.NoError(t, err)
	assert.Len(t, out.Result.Targets, 2)
	assert.ElementsMatch(t, []string{own[0].ProviderInstanceID, own[1].ProviderInstanceID}, e.port.Targeted("terminate"))
	assert.Equal(t, model.StatusRunning, e.port.StatusOf(other[0].ProviderInstanceID))
	assert.Equal(t, model.StatusRunning, e.port.StatusOf(ctrl[0].ProviderInstanceID))
}

func TestStatus(t *testing.T) {
	e := newEnv(t)
	g := e.group(t, "w1", 2)
	e.seed(t, g.Owner(), model.StatusRunning, model.StatusStopped)

	out, err := e.uc.Status(e.ctx, &StatusInput{Name: "w1"})
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, model.StatusRunning, out.Rows[0].Status)
	assert.Equal(t, model.StatusStopped, out.Rows[1].Status)
	for _, r := range out.Rows {
		assert.Equal(t, "w1", r.Name)
		assert.Equal(t, model.OwnerWorker, r.Kind)
		assert.Equal(t, "p1", r.Provider)
	}
}
