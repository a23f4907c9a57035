package ec2

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	providerdrv "github.com/yaegashi/clusterops/adapters/drivers/provider"
	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/internal/logging"
	"github.com/yaegashi/clusterops/internal/naming"
)

const (
	defaultInstanceType = "t3.medium"
	defaultOpenPorts    = "22"
	runningWaitTimeout  = 10 * time.Minute

	tagKind  = "clusterops-kind"
	tagOwner = "clusterops-owner"
)

// ec2API is the subset of the EC2 client used by the driver.
type ec2API interface {
	ec2.DescribeInstancesAPIClient
	RunInstances(ctx context.Context, in *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error)
	StartInstances(ctx context.Context, in *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error)
	StopInstances(ctx context.Context, in *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error)
	TerminateInstances(ctx context.Context, in *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
	DescribeKeyPairs(ctx context.Context, in *ec2.DescribeKeyPairsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeKeyPairsOutput, error)
	ImportKeyPair(ctx context.Context, in *ec2.ImportKeyPairInput, optFns ...func(*ec2.Options)) (*ec2.ImportKeyPairOutput, error)
	DescribeSecurityGroups(ctx context.Context, in *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error)
	CreateSecurityGroup(ctx context.Context, in *ec2.CreateSecurityGroupInput, optFns ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error)
	AuthorizeSecurityGroupIngress(ctx context.Context, in *ec2.AuthorizeSecurityGroupIngressInput, optFns ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error)
}

// driver implements the Amazon EC2 provider driver.
type driver struct {
	client        ec2API
	logger        logging.Logger
	providerName  string
	imageID       string
	instanceType  string
	keyName       string
	securityGroup string
	subnetID      string
	publicKeyFile string
	openPorts     []int32
	waitTimeout   time.Duration
}

// ID returns the provider identifier.
func (d *driver) ID() string { return "ec2" }

// init registers the ec2 driver.
func init() {
	providerdrv.Register("ec2", func(provider *model.Provider, env providerdrv.Env) (providerdrv.Driver, error) {
		region := strings.TrimSpace(provider.Setting("region", ""))
		imageID := strings.TrimSpace(provider.Setting("image_id", ""))
		missing := make([]string, 0, 2)
		if region == "" {
			missing = append(missing, "region")
		}
		if imageID == "" {
			missing = append(missing, "image_id")
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("missing required ec2 settings: %s", strings.Join(missing, ", "))
		}

		opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
		accessKey := provider.Setting("access_key_id", "")
		secretKey := provider.Setting("secret_access_key", "")
		if accessKey != "" || secretKey != "" {
			if accessKey == "" || secretKey == "" {
				return nil, fmt.Errorf("access_key_id and secret_access_key must be set together")
			}
			opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
		}
		cfg, err := config.LoadDefaultConfig(context.Background(), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := ec2.NewFromConfig(cfg, func(o *ec2.Options) {
			if ep := provider.Setting("endpoint", ""); ep != "" {
				o.BaseEndpoint = aws.String(ep)
			}
			if env.Version != "" {
				o.AppID = "clusterops-" + env.Version
			}
		})
		return newDriver(client, provider, env)
	})
}

func newDriver(client ec2API, provider *model.Provider, env providerdrv.Env) (*driver, error) {
	var ports []int32
	for _, p := range strings.Split(provider.Setting("open_ports", defaultOpenPorts), ",") {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		n, err := strconv.ParseInt(p, 10, 32)
		if err != nil || n <= 0 || n > 65535 {
			return nil, fmt.Errorf("invalid port %q in open_ports", p)
		}
		ports = append(ports, int32(n))
	}
	return &driver{
		client:        client,
		logger:        env.Logger,
		providerName:  provider.Name,
		imageID:       provider.Setting("image_id", ""),
		instanceType:  provider.Setting("instance_type", defaultInstanceType),
		keyName:       provider.Setting("key_name", ""),
		securityGroup: provider.Setting("security_group", ""),
		subnetID:      provider.Setting("subnet_id", ""),
		publicKeyFile: providerdrv.ResolvePath(env.BaseDir, provider.Setting("ssh_public_key_file", "")),
		openPorts:     ports,
		waitTimeout:   runningWaitTimeout,
	}, nil
}

// instanceStatus maps an EC2 instance state onto the instance status set.
func instanceStatus(s types.InstanceStateName) model.InstanceStatus {
	switch s {
	case types.InstanceStateNameRunning:
		return model.StatusRunning
	case types.InstanceStateNameStopped:
		return model.StatusStopped
	case types.InstanceStateNameTerminated:
		return model.StatusTerminated
	case types.InstanceStateNamePending, types.InstanceStateNameStopping, types.InstanceStateNameShuttingDown:
		return model.StatusPending
	default:
		return model.StatusUnknown
	}
}

// isNotFound reports whether err is an EC2 "does not exist" API error.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return strings.HasSuffix(apiErr.ErrorCode(), ".NotFound")
	}
	return false
}

// describe returns the instances with the given IDs keyed by instance ID.
func (d *driver) describe(ctx context.Context, ids ...string) (map[string]types.Instance, error) {
	out, err := d.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: ids})
	if err != nil {
		return nil, err
	}
	m := map[string]types.Instance{}
	for _, r := range out.Reservations {
		for _, i := range r.Instances {
			m[aws.ToString(i.InstanceId)] = i
		}
	}
	return m, nil
}

func (d *driver) waitRunning(ctx context.Context, ids ...string) error {
	w := ec2.NewInstanceRunningWaiter(d.client, func(o *ec2.InstanceRunningWaiterOptions) {
		o.MinDelay = 2 * time.Second
	})
	return w.Wait(ctx, &ec2.DescribeInstancesInput{InstanceIds: ids}, d.waitTimeout)
}

// InstanceStatus returns the live status of the EC2 instance backing inst.
func (d *driver) InstanceStatus(ctx context.Context, inst *model.Instance) (model.InstanceStatus, error) {
	m, err := d.describe(ctx, inst.ProviderInstanceID)
	if err != nil {
		if isNotFound(err) {
			return model.StatusTerminated, nil
		}
		return model.StatusUnknown, fmt.Errorf("describe instance %s: %w", inst.ProviderInstanceID, err)
	}
	i, ok := m[inst.ProviderInstanceID]
	if !ok || i.State == nil {
		return model.StatusTerminated, nil
	}
	return instanceStatus(i.State.Name), nil
}

// securityGroupID resolves the configured security group name.
func (d *driver) securityGroupID(ctx context.Context) (string, error) {
	out, err := d.client.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		Filters: []types.Filter{{Name: aws.String("group-name"), Values: []string{d.securityGroup}}},
	})
	if err != nil {
		return "", fmt.Errorf("describe security group %q: %w", d.securityGroup, err)
	}
	if len(out.SecurityGroups) == 0 {
		return "", nil
	}
	return aws.ToString(out.SecurityGroups[0].GroupId), nil
}

// InstanceStart launches count instances in one request and waits until they run.
func (d *driver) InstanceStart(ctx context.Context, owner model.InstanceOwner, count int) (out []*model.Instance, err error) {
	ctx, cleanup := providerdrv.MethodLogger(ctx, d.logger, d.ID(), "InstanceStart")
	defer func() { cleanup(err) }()

	name, err := naming.ServerName(string(owner.Kind), owner.Name)
	if err != nil {
		return nil, err
	}
	in := &ec2.RunInstancesInput{
		ImageId:      aws.String(d.imageID),
		InstanceType: types.InstanceType(d.instanceType),
		MinCount:     aws.Int32(int32(count)),
		MaxCount:     aws.Int32(int32(count)),
		TagSpecifications: []types.TagSpecification{{
			ResourceType: types.ResourceTypeInstance,
			Tags: []types.Tag{
				{Key: aws.String("Name"), Value: aws.String(name)},
				{Key: aws.String(tagKind), Value: aws.String(string(owner.Kind))},
				{Key: aws.String(tagOwner), Value: aws.String(naming.OwnerHash(owner.ID))},
			},
		}},
	}
	if d.keyName != "" {
		in.KeyName = aws.String(d.keyName)
	}
	if d.subnetID != "" {
		in.SubnetId = aws.String(d.subnetID)
	}
	if d.securityGroup != "" {
		sg, err := d.securityGroupID(ctx)
		if err != nil {
			return nil, err
		}
		if sg == "" {
			return nil, fmt.Errorf("security group %q not found, run provider setup %s", d.securityGroup, d.providerName)
		}
		in.SecurityGroupIds = []string{sg}
	}

	res, err := d.client.RunInstances(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("run instances: %w", err)
	}
	ids := make([]string, 0, len(res.Instances))
	for _, i := range res.Instances {
		id := aws.ToString(i.InstanceId)
		ids = append(ids, id)
		out = append(out, &model.Instance{ProviderInstanceID: id, IPAddress: aws.ToString(i.PublicIpAddress)})
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("run instances returned no instance")
	}
	if err := d.waitRunning(ctx, ids...); err != nil {
		return out, fmt.Errorf("wait for instances running: %w", err)
	}
	m, err := d.describe(ctx, ids...)
	if err != nil {
		return out, fmt.Errorf("describe instances: %w", err)
	}
	for _, inst := range out {
		if ip := aws.ToString(m[inst.ProviderInstanceID].PublicIpAddress); ip != "" {
			inst.IPAddress = ip
		}
	}
	return out, nil
}

// each applies fn to every instance and aggregates the failures.
func (d *driver) each(ctx context.Context, method, op string, insts []*model.Instance, fn func(context.Context, *model.Instance) error) (err error) {
	ctx, cleanup := providerdrv.MethodLogger(ctx, d.logger, d.ID(), method)
	defer func() { cleanup(err) }()

	var failures []model.InstanceError
	for _, inst := range insts {
		if err := fn(ctx, inst); err != nil {
			failures = append(failures, model.InstanceError{Instance: inst, Err: err})
		}
	}
	if len(failures) > 0 {
		return &model.BatchError{Op: op, Failures: failures}
	}
	return nil
}

// InstanceResume starts stopped instances, waits for them and refreshes their
// public address, which EC2 reassigns on every start.
func (d *driver) InstanceResume(ctx context.Context, insts []*model.Instance) error {
	return d.each(ctx, "InstanceResume", "resume", insts, func(ctx context.Context, inst *model.Instance) error {
		id := inst.ProviderInstanceID
		if _, err := d.client.StartInstances(ctx, &ec2.StartInstancesInput{InstanceIds: []string{id}}); err != nil {
			return fmt.Errorf("start instance %s: %w", id, err)
		}
		if err := d.waitRunning(ctx, id); err != nil {
			return fmt.Errorf("wait for instance %s: %w", id, err)
		}
		m, err := d.describe(ctx, id)
		if err != nil {
			return fmt.Errorf("describe instance %s: %w", id, err)
		}
		if ip := aws.ToString(m[id].PublicIpAddress); ip != "" {
			inst.IPAddress = ip
		}
		return nil
	})
}

// InstanceStop stops running instances. EBS volumes are kept.
func (d *driver) InstanceStop(ctx context.Context, insts []*model.Instance) error {
	return d.each(ctx, "InstanceStop", "stop", insts, func(ctx context.Context, inst *model.Instance) error {
		if _, err := d.client.StopInstances(ctx, &ec2.StopInstancesInput{InstanceIds: []string{inst.ProviderInstanceID}}); err != nil {
			return fmt.Errorf("stop instance %s: %w", inst.ProviderInstanceID, err)
		}
		return nil
	})
}

// InstanceTerminate terminates instances. Unknown instance IDs count as terminated.
func (d *driver) InstanceTerminate(ctx context.Context, insts []*model.Instance) error {
	return d.each(ctx, "InstanceTerminate", "terminate", insts, func(ctx context.Context, inst *model.Instance) error {
		_, err := d.client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: []string{inst.ProviderInstanceID}})
		if err != nil && !isNotFound(err) {
			return fmt.Errorf("terminate instance %s: %w", inst.ProviderInstanceID, err)
		}
		return nil
	})
}
