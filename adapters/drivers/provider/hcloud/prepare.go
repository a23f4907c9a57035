package hcloud

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	providerdrv "github.com/yaegashi/clusterops/adapters/drivers/provider"
)

var _ providerdrv.Preparer = (*driver)(nil)

// Prepare ensures the SSH key and firewall named in the provider settings exist.
func (d *driver) Prepare(ctx context.Context) (notes []string, err error) {
	ctx, cleanup := providerdrv.MethodLogger(ctx, d.logger, d.ID(), "Prepare")
	defer func() { cleanup(err) }()

	note, err := d.ensureSSHKey(ctx)
	if err != nil {
		return notes, err
	}
	notes = append(notes, note)

	note, err = d.ensureFirewall(ctx)
	if err != nil {
		return notes, err
	}
	notes = append(notes, note)
	return notes, nil
}

func (d *driver) ensureSSHKey(ctx context.Context) (string, error) {
	if d.sshKeyName == "" {
		return "no ssh_key_name set, servers are created without an SSH key", nil
	}
	key, _, err := d.client.SSHKey.GetByName(ctx, d.sshKeyName)
	if err != nil {
		return "", fmt.Errorf("get ssh key %q: %w", d.sshKeyName, err)
	}
	if key != nil {
		return fmt.Sprintf("ssh key %s is valid", d.sshKeyName), nil
	}
	if d.publicKeyFile == "" {
		return "", fmt.Errorf("ssh key %q not found and ssh_public_key_file is not set", d.sshKeyName)
	}
	pub, err := os.ReadFile(d.publicKeyFile)
	if err != nil {
		return "", fmt.Errorf("read public key: %w", err)
	}
	_, _, err = d.client.SSHKey.Create(ctx, hcloud.SSHKeyCreateOpts{
		Name:      d.sshKeyName,
		PublicKey: strings.TrimSpace(string(pub)),
		Labels:    map[string]string{labelKind: "provider"},
	})
	if err != nil {
		return "", fmt.Errorf("create ssh key %q: %w", d.sshKeyName, err)
	}
	return fmt.Sprintf("created ssh key %s", d.sshKeyName), nil
}

// firewallRules opens every configured TCP port to any IPv4 and IPv6 source.
func (d *driver) firewallRules() []hcloud.FirewallRule {
	_, any4, _ := net.ParseCIDR("0.0.0.0/0")
	_, any6, _ := net.ParseCIDR("::/0")
	rules := make([]hcloud.FirewallRule, 0, len(d.openPorts))
	for _, port := range d.openPorts {
		rules = append(rules, hcloud.FirewallRule{
			Direction: hcloud.FirewallRuleDirectionIn,
			Protocol:  hcloud.FirewallRuleProtocolTCP,
			Port:      hcloud.Ptr(port),
			SourceIPs: []net.IPNet{*any4, *any6},
		})
	}
	return rules
}

func (d *driver) ensureFirewall(ctx context.Context) (string, error) {
	if d.firewallName == "" {
		return "no firewall_name set, servers are created without a firewall", nil
	}
	fw, _, err := d.client.Firewall.GetByName(ctx, d.firewallName)
	if err != nil {
		return "", fmt.Errorf("get firewall %q: %w", d.firewallName, err)
	}
	if fw != nil {
		actions, _, err := d.client.Firewall.SetRules(ctx, fw, hcloud.FirewallSetRulesOpts{Rules: d.firewallRules()})
		if err != nil {
			return "", fmt.Errorf("update firewall %q: %w", d.firewallName, err)
		}
		if err := d.waitForActions(ctx, actions...); err != nil {
			return "", err
		}
		return fmt.Sprintf("firewall %s is valid (ports %s)", d.firewallName, strings.Join(d.openPorts, ",")), nil
	}
	res, _, err := d.client.Firewall.Create(ctx, hcloud.FirewallCreateOpts{
		Name:   d.firewallName,
		Rules:  d.firewallRules(),
		Labels: map[string]string{labelKind: "provider"},
	})
	if err != nil {
		return "", fmt.Errorf("create firewall %q: %w", d.firewallName, err)
	}
	if err := d.waitForActions(ctx, res.Actions...); err != nil {
		return "", err
	}
	return fmt.Sprintf("created firewall %s (ports %s)", d.firewallName, strings.Join(d.openPorts, ",")), nil
}
