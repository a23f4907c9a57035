package hcloud

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	providerdrv "github.com/yaegashi/clusterops/adapters/drivers/provider"
	"github.com/yaegashi/clusterops/domain/model"
	"github.com/yaegashi/clusterops/internal/logging"
	"github.com/yaegashi/clusterops/internal/naming"
)

const (
	defaultServerType = "cx22"
	defaultImage      = "ubuntu-24.04"
	defaultLocation   = "nbg1"
	defaultOpenPorts  = "22"

	labelKind  = "clusterops-kind"
	labelOwner = "clusterops-owner"
)

// driver implements the Hetzner Cloud provider driver.
type driver struct {
	client        *hcloud.Client
	logger        logging.Logger
	providerName  string
	serverType    string
	image         string
	location      string
	sshKeyName    string
	publicKeyFile string
	firewallName  string
	openPorts     []string
}

// ID returns the provider identifier.
func (d *driver) ID() string { return "hcloud" }

// init registers the hcloud driver.
func init() {
	providerdrv.Register("hcloud", func(provider *model.Provider, env providerdrv.Env) (providerdrv.Driver, error) {
		token := strings.TrimSpace(provider.Setting("token", ""))
		if token == "" {
			return nil, fmt.Errorf("missing required hcloud settings: token")
		}
		opts := []hcloud.ClientOption{
			hcloud.WithToken(token),
			hcloud.WithApplication("clusterops", env.Version),
		}
		if ep := provider.Setting("endpoint", ""); ep != "" {
			opts = append(opts, hcloud.WithEndpoint(ep))
		}
		return newDriver(hcloud.NewClient(opts...), provider, env), nil
	})
}

func newDriver(client *hcloud.Client, provider *model.Provider, env providerdrv.Env) *driver {
	var ports []string
	for _, p := range strings.Split(provider.Setting("open_ports", defaultOpenPorts), ",") {
		if p = strings.TrimSpace(p); p != "" {
			ports = append(ports, p)
		}
	}
	return &driver{
		client:        client,
		logger:        env.Logger,
		providerName:  provider.Name,
		serverType:    provider.Setting("server_type", defaultServerType),
		image:         provider.Setting("image", defaultImage),
		location:      provider.Setting("location", defaultLocation),
		sshKeyName:    provider.Setting("ssh_key_name", ""),
		publicKeyFile: providerdrv.ResolvePath(env.BaseDir, provider.Setting("ssh_public_key_file", "")),
		firewallName:  provider.Setting("firewall_name", ""),
		openPorts:     ports,
	}
}

// serverStatus maps an hcloud server status onto the instance status set.
func serverStatus(s hcloud.ServerStatus) model.InstanceStatus {
	switch s {
	case hcloud.ServerStatusRunning:
		return model.StatusRunning
	case hcloud.ServerStatusOff:
		return model.StatusStopped
	case hcloud.ServerStatusInitializing, hcloud.ServerStatusStarting, hcloud.ServerStatusStopping,
		hcloud.ServerStatusDeleting, hcloud.ServerStatusMigrating, hcloud.ServerStatusRebuilding:
		return model.StatusPending
	default:
		return model.StatusUnknown
	}
}

func serverID(inst *model.Instance) (int64, error) {
	id, err := strconv.ParseInt(inst.ProviderInstanceID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hcloud server id %q", inst.ProviderInstanceID)
	}
	return id, nil
}

func publicIP(s *hcloud.Server) string {
	if s == nil || s.PublicNet.IPv4.IP == nil || s.PublicNet.IPv4.IP.IsUnspecified() {
		return ""
	}
	return s.PublicNet.IPv4.IP.String()
}

// waitForActions waits for all non-nil actions to complete.
func (d *driver) waitForActions(ctx context.Context, actions ...*hcloud.Action) error {
	pending := make([]*hcloud.Action, 0, len(actions))
	for _, a := range actions {
		if a != nil {
			pending = append(pending, a)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	return d.client.Action.WaitFor(ctx, pending...)
}

// InstanceStatus returns the live status of the server backing inst.
func (d *driver) InstanceStatus(ctx context.Context, inst *model.Instance) (st model.InstanceStatus, err error) {
	id, err := serverID(inst)
	if err != nil {
		return model.StatusUnknown, err
	}
	server, _, err := d.client.Server.GetByID(ctx, id)
	if err != nil {
		return model.StatusUnknown, fmt.Errorf("get server %d: %w", id, err)
	}
	if server == nil {
		return model.StatusTerminated, nil
	}
	return serverStatus(server.Status), nil
}

// InstanceStart creates count servers for owner and waits until they are running.
func (d *driver) InstanceStart(ctx context.Context, owner model.InstanceOwner, count int) (out []*model.Instance, err error) {
	ctx, cleanup := providerdrv.MethodLogger(ctx, d.logger, d.ID(), "InstanceStart")
	defer func() { cleanup(err) }()

	opts := hcloud.ServerCreateOpts{
		ServerType: &hcloud.ServerType{Name: d.serverType},
		Image:      &hcloud.Image{Name: d.image},
		Location:   &hcloud.Location{Name: d.location},
		Labels: map[string]string{
			labelKind:  string(owner.Kind),
			labelOwner: naming.OwnerHash(owner.ID),
		},
	}
	if d.sshKeyName != "" {
		key, _, err := d.client.SSHKey.GetByName(ctx, d.sshKeyName)
		if err != nil {
			return nil, fmt.Errorf("get ssh key %q: %w", d.sshKeyName, err)
		}
		if key == nil {
			return nil, fmt.Errorf("ssh key %q not found, run provider setup %s", d.sshKeyName, d.providerName)
		}
		opts.SSHKeys = []*hcloud.SSHKey{key}
	}
	if d.firewallName != "" {
		fw, _, err := d.client.Firewall.GetByName(ctx, d.firewallName)
		if err != nil {
			return nil, fmt.Errorf("get firewall %q: %w", d.firewallName, err)
		}
		if fw == nil {
			return nil, fmt.Errorf("firewall %q not found, run provider setup %s", d.firewallName, d.providerName)
		}
		opts.Firewalls = []*hcloud.ServerCreateFirewall{{Firewall: *fw}}
	}

	for i := 0; i < count; i++ {
		name, err := naming.ServerName(string(owner.Kind), owner.Name)
		if err != nil {
			return out, err
		}
		opts.Name = name
		res, _, err := d.client.Server.Create(ctx, opts)
		if err != nil {
			return out, fmt.Errorf("create server %s: %w", name, err)
		}
		// The server exists from here on and must be recorded even if it
		// never finishes booting.
		out = append(out, &model.Instance{
			ProviderInstanceID: strconv.FormatInt(res.Server.ID, 10),
			IPAddress:          publicIP(res.Server),
		})
		if err := d.waitForActions(ctx, append([]*hcloud.Action{res.Action}, res.NextActions...)...); err != nil {
			return out, fmt.Errorf("wait for server %s: %w", name, err)
		}
	}
	return out, nil
}

// each applies fn to every instance and aggregates the failures.
func (d *driver) each(ctx context.Context, op string, insts []*model.Instance, fn func(context.Context, *hcloud.Server, *model.Instance) error) (err error) {
	ctx, cleanup := providerdrv.MethodLogger(ctx, d.logger, d.ID(), "Instance"+strings.ToUpper(op[:1])+op[1:])
	defer func() { cleanup(err) }()

	var failures []model.InstanceError
	for _, inst := range insts {
		id, err := serverID(inst)
		if err == nil {
			err = fn(ctx, &hcloud.Server{ID: id}, inst)
		}
		if err != nil {
			failures = append(failures, model.InstanceError{Instance: inst, Err: err})
		}
	}
	if len(failures) > 0 {
		return &model.BatchError{Op: op, Failures: failures}
	}
	return nil
}

// InstanceResume powers servers on and refreshes their public address.
func (d *driver) InstanceResume(ctx context.Context, insts []*model.Instance) error {
	return d.each(ctx, "resume", insts, func(ctx context.Context, server *hcloud.Server, inst *model.Instance) error {
		action, _, err := d.client.Server.Poweron(ctx, server)
		if err != nil {
			return fmt.Errorf("power on server %d: %w", server.ID, err)
		}
		if err := d.waitForActions(ctx, action); err != nil {
			return fmt.Errorf("wait for power on %d: %w", server.ID, err)
		}
		current, _, err := d.client.Server.GetByID(ctx, server.ID)
		if err != nil {
			return fmt.Errorf("get server %d: %w", server.ID, err)
		}
		if ip := publicIP(current); ip != "" {
			inst.IPAddress = ip
		}
		return nil
	})
}

// InstanceStop powers servers off. The servers keep their disks and addresses.
func (d *driver) InstanceStop(ctx context.Context, insts []*model.Instance) error {
	return d.each(ctx, "stop", insts, func(ctx context.Context, server *hcloud.Server, _ *model.Instance) error {
		action, _, err := d.client.Server.Poweroff(ctx, server)
		if err != nil {
			return fmt.Errorf("power off server %d: %w", server.ID, err)
		}
		return d.waitForActions(ctx, action)
	})
}

// InstanceTerminate deletes servers. Servers that are already gone count as deleted.
func (d *driver) InstanceTerminate(ctx context.Context, insts []*model.Instance) error {
	return d.each(ctx, "terminate", insts, func(ctx context.Context, server *hcloud.Server, _ *model.Instance) error {
		res, _, err := d.client.Server.DeleteWithResult(ctx, server)
		if err != nil {
			if hcloud.IsError(err, hcloud.ErrorCodeNotFound) {
				return nil
			}
			return fmt.Errorf("delete server %d: %w", server.ID, err)
		}
		return d.waitForActions(ctx, res.Action)
	})
}
