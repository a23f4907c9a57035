package ec2

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	providerdrv "github.com/yaegashi/clusterops/adapters/drivers/provider"
	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/internal/logging"
)

// fakeEC2 keeps instance state in memory and answers the subset of calls the driver makes.
type fakeEC2 struct {
	instances map[string]*types.Instance
	nextID    int
	ipSeq     int
	run       []*ec2.RunInstancesInput
	failStart map[string]bool
	keyPairs  map[string]bool
	groups    map[string]string
	ingress   []*ec2.AuthorizeSecurityGroupIngressInput
}

func newFakeEC2() *fakeEC2 {
	return &fakeEC2{instances: map[string]*types.Instance{}, failStart: map[string]bool{}, keyPairs: map[string]bool{}, groups: map[string]string{}}
}

func notFoundErr(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: "not found"}
}

func (f *fakeEC2) add(state types.InstanceStateName) string {
	f.nextID++
	id := fmt.Sprintf("i-%04d", f.nextID)
	f.instances[id] = &types.Instance{InstanceId: aws.String(id), State: &types.InstanceState{Name: state}}
	return id
}

func (f *fakeEC2) newIP() *string {
	f.ipSeq++
	return aws.String(fmt.Sprintf("198.51.100.%d", f.ipSeq))
}

func (f *fakeEC2) DescribeInstances(_ context.Context, in *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	var insts []types.Instance
	for _, id := range in.InstanceIds {
		i, ok := f.instances[id]
		if !ok {
			return nil, notFoundErr("InvalidInstanceID.NotFound")
		}
		insts = append(insts, *i)
	}
	return &ec2.DescribeInstancesOutput{Reservations: []types.Reservation{{Instances: insts}}}, nil
}

func (f *fakeEC2) RunInstances(_ context.Context, in *ec2.RunInstancesInput, _ ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error) {
	f.run = append(f.run, in)
	var out []types.Instance
	for n := int32(0); n < aws.ToInt32(in.MaxCount); n++ {
		id := f.add(types.InstanceStateNameRunning)
		f.instances[id].PublicIpAddress = f.newIP()
		out = append(out, types.Instance{InstanceId: aws.String(id)})
	}
	return &ec2.RunInstancesOutput{Instances: out}, nil
}

func (f *fakeEC2) StartInstances(_ context.Context, in *ec2.StartInstancesInput, _ ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error) {
	id := in.InstanceIds[0]
	if f.failStart[id] {
		return nil, fmt.Errorf("insufficient capacity")
	}
	f.instances[id].State.Name = types.InstanceStateNameRunning
	f.instances[id].PublicIpAddress = f.newIP()
	return &ec2.StartInstancesOutput{}, nil
}

func (f *fakeEC2) StopInstances(_ context.Context, in *ec2.StopInstancesInput, _ ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error) {
	f.instances[in.InstanceIds[0]].State.Name = types.InstanceStateNameStopped
	return &ec2.StopInstancesOutput{}, nil
}

func (f *fakeEC2) TerminateInstances(_ context.Context, in *ec2.TerminateInstancesInput, _ ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	i, ok := f.instances[in.InstanceIds[0]]
	if !ok {
		return nil, notFoundErr("InvalidInstanceID.NotFound")
	}
	i.State.Name = types.InstanceStateNameTerminated
	return &ec2.TerminateInstancesOutput{}, nil
}

func (f *fakeEC2) DescribeKeyPairs(_ context.Context, in *ec2.DescribeKeyPairsInput, _ ...func(*ec2.Options)) (*ec2.DescribeKeyPairsOutput, error) {
	if !f.keyPairs[in.KeyNames[0]] {
		return nil, notFoundErr("InvalidKeyPair.NotFound")
	}
	return &ec2.DescribeKeyPairsOutput{}, nil
}

func (f *fakeEC2) ImportKeyPair(_ context.Context, in *ec2.ImportKeyPairInput, _ ...func(*ec2.Options)) (*ec2.ImportKeyPairOutput, error) {
	f.keyPairs[aws.ToString(in.KeyName)] = true
	return &ec2.ImportKeyPairOutput{}, nil
}

func (f *fakeEC2) DescribeSecurityGroups(_ context.Context, in *ec2.DescribeSecurityGroupsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	name := in.Filters[0].Values[0]
	id, ok := f.groups[name]
	if !ok {
		return &ec2.DescribeSecurityGroupsOutput{}, nil
	}
	return &ec2.DescribeSecurityGroupsOutput{SecurityGroups: []types.SecurityGroup{{GroupId: aws.String(id), GroupName: aws.String(name)}}}, nil
}

func (f *fakeEC2) CreateSecurityGroup(_ context.Context, in *ec2.CreateSecurityGroupInput, _ ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error) {
	id := "sg-" + aws.ToString(in.GroupName)
	f.groups[aws.ToString(in.GroupName)] = id
	return &ec2.CreateSecurityGroupOutput{GroupId: aws.String(id)}, nil
}

func (f *fakeEC2) AuthorizeSecurityGroupIngress(_ context.Context, in *ec2.AuthorizeSecurityGroupIngressInput, _ ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error) {
	f.ingress = append(f.ingress, in)
	return &ec2.AuthorizeSecurityGroupIngressOutput{}, nil
}

func newTestDriver(t *testing.T, f *fakeEC2, settings map[string]string) *driver {
	t.Helper()
	if settings == nil {
		settings = map[string]string{}
	}
	settings["image_id"] = "ami-123"
	d, err := newDriver(f, &model.Provider{Name: "aws", Driver: "ec2", Settings: settings}, providerdrv.Env{Logger: logging.Discard()})
	require.NoError(t, err)
	return d
}

func TestInstanceStatusMapping(t *testing.T) {
	cases := map[types.InstanceStateName]model.InstanceStatus{
		types.InstanceStateNameRunning:      model.StatusRunning,
		types.InstanceStateNameStopped:      model.StatusStopped,
		types.InstanceStateNameTerminated:   model.StatusTerminated,
		types.InstanceStateNamePending:      model.StatusPending,
		types.InstanceStateNameStopping:     model.StatusPending,
		types.InstanceStateNameShuttingDown: model.StatusPending,
		types.InstanceStateName("other"):    model.StatusUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, instanceStatus(in), "state %s", in)
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(notFoundErr("InvalidInstanceID.NotFound")))
	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", notFoundErr("InvalidKeyPair.NotFound"))))
	assert.False(t, isNotFound(&smithy.GenericAPIError{Code: "UnauthorizedOperation"}))
	assert.False(t, isNotFound(fmt.Errorf("plain")))
}

func TestInstanceStatus(t *testing.T) {
	f := newFakeEC2()
	stopped := f.add(types.InstanceStateNameStopped)
	d := newTestDriver(t, f, nil)
	ctx := context.Background()

	st, err := d.InstanceStatus(ctx, &model.Instance{ProviderInstanceID: stopped})
	require.NoError(t, err)
	assert.Equal(t, model.StatusStopped, st)

	st, err = d.InstanceStatus(ctx, &model.Instance{ProviderInstanceID: "i-gone"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusTerminated, st)
}

func TestInstanceStart(t *testing.T) {
	f := newFakeEC2()
	f.groups["ops"] = "sg-1"
	d := newTestDriver(t, f, map[string]string{"security_group": "ops", "key_name": "ops-key"})

	owner := model.InstanceOwner{Kind: model.OwnerController, ID: "ctrl-1", Name: "head", ProviderID: "p"}
	insts, err := d.InstanceStart(context.Background(), owner, 2)
	require.NoError(t, err)
	require.Len(t, insts, 2)
	assert.NotEmpty(t, insts[0].IPAddress)
	assert.NotEqual(t, insts[0].ProviderInstanceID, insts[1].ProviderInstanceID)

	require.Len(t, f.run, 1)
	assert.Equal(t, int32(2), aws.ToInt32(f.run[0].MinCount))
	assert.Equal(t, []string{"sg-1"}, f.run[0].SecurityGroupIds)
	assert.Equal(t, types.InstanceType("t3.medium"), f.run[0].InstanceType)
}

func TestInstanceStart_MissingSecurityGroup(t *testing.T) {
	d := newTestDriver(t, newFakeEC2(), map[string]string{"security_group": "nope"})
	_, err := d.InstanceStart(context.Background(), model.InstanceOwner{Kind: model.OwnerWorker, ID: "w", Name: "w"}, 1)
	assert.Error(t, err)
}

func TestInstanceResume_BestEffortAndNewIP(t *testing.T) {
	f := newFakeEC2()
	a := f.add(types.InstanceStateNameStopped)
	b := f.add(types.InstanceStateNameStopped)
	f.failStart[a] = true
	d := newTestDriver(t, f, nil)

	ia := &model.Instance{ProviderInstanceID: a, IPAddress: "old"}
	ib := &model.Instance{ProviderInstanceID: b, IPAddress: "old"}
	err := d.InstanceResume(context.Background(), []*model.Instance{ia, ib})
	var be *model.BatchError
	require.ErrorAs(t, err, &be)
	require.Len(t, be.Failures, 1)
	assert.Same(t, ia, be.Failures[0].Instance)
	assert.Equal(t, "old", ia.IPAddress)
	assert.NotEqual(t, "old", ib.IPAddress)
	assert.Equal(t, types.InstanceStateNameRunning, f.instances[b].State.Name)
}

func TestInstanceStopAndTerminate(t *testing.T) {
	f := newFakeEC2()
	a := f.add(types.InstanceStateNameRunning)
	d := newTestDriver(t, f, nil)
	ctx := context.Background()

	require.NoError(t, d.InstanceStop(ctx, []*model.Instance{{ProviderInstanceID: a}}))
	assert.Equal(t, types.InstanceStateNameStopped, f.instances[a].State.Name)

	require.NoError(t, d.InstanceTerminate(ctx, []*model.Instance{{ProviderInstanceID: a}, {ProviderInstanceID: "i-gone"}}))
	assert.Equal(t, types.InstanceStateNameTerminated, f.instances[a].State.Name)
}

func TestPrepare(t *testing.T) {
	f := newFakeEC2()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "id.pub"), []byte("ssh-ed25519 AAAA"), 0o600))
	d := newTestDriver(t, f, map[string]string{
		"key_name":            "ops-key",
		"ssh_public_key_file": filepath.Join(dir, "id.pub"),
		"security_group":      "ops",
		"open_ports":          "22,443",
	})

	notes, err := d.Prepare(context.Background())
	require.NoError(t, err)
	assert.Len(t, notes, 2)
	assert.True(t, f.keyPairs["ops-key"])
	assert.Equal(t, "sg-ops", f.groups["ops"])
	require.Len(t, f.ingress, 1)
	assert.Len(t, f.ingress[0].IpPermissions, 2)

	// second run finds everything in place
	notes, err = d.Prepare(context.Background())
	require.NoError(t, err)
	assert.Contains(t, notes[0], "is valid")
	assert.Len(t, f.ingress, 1)
}

func TestNewDriver_InvalidPorts(t *testing.T) {
	_, err := newDriver(newFakeEC2(), &model.Provider{Settings: map[string]string{"open_ports": "22,http"}}, providerdrv.Env{})
	assert.Error(t, err)
}

func TestFactory_RequiredSettings(t *testing.T) {
	factory, ok := providerdrv.GetDriverFactory("ec2")
	require.True(t, ok)
	_, err := factory(&model.Provider{Name: "aws", Driver: "ec2", Settings: map[string]string{"region": "us-east-1"}}, providerdrv.Env{})
	assert.ErrorContains(t, err, "image_id")
	_, err = factory(&model.Provider{Name: "aws", Driver: "ec2", Settings: map[string]string{"region": "us-east-1", "image_id": "ami-1", "access_key_id": "AK"}}, providerdrv.Env{})
	assert.ErrorContains(t, err, "together")
}
