package ec2

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	providerdrv "github.com/yaegashi/clusterops/adapters/drivers/provider"
)

var _ providerdrv.Preparer = (*driver)(nil)

// Prepare imports the key pair and creates the security group when missing.
func (d *driver) Prepare(ctx context.Context) (notes []string, err error) {
	ctx, cleanup := providerdrv.MethodLogger(ctx, d.logger, d.ID(), "Prepare")
	defer func() { cleanup(err) }()

	note, err := d.ensureKeyPair(ctx)
	if err != nil {
		return notes, err
	}
	notes = append(notes, note)

	note, err = d.ensureSecurityGroup(ctx)
	if err != nil {
		return notes, err
	}
	notes = append(notes, note)
	return notes, nil
}

func (d *driver) ensureKeyPair(ctx context.Context) (string, error) {
	if d.keyName == "" {
		return "no key_name set, instances are launched without a key pair", nil
	}
	_, err := d.client.DescribeKeyPairs(ctx, &ec2.DescribeKeyPairsInput{KeyNames: []string{d.keyName}})
	if err == nil {
		return fmt.Sprintf("key pair %s is valid", d.keyName), nil
	}
	if !isNotFound(err) {
		return "", fmt.Errorf("describe key pair %q: %w", d.keyName, err)
	}
	if d.publicKeyFile == "" {
		return "", fmt.Errorf("key pair %q not found and ssh_public_key_file is not set", d.keyName)
	}
	pub, err := os.ReadFile(d.publicKeyFile)
	if err != nil {
		return "", fmt.Errorf("read public key: %w", err)
	}
	if _, err := d.client.ImportKeyPair(ctx, &ec2.ImportKeyPairInput{
		KeyName:           aws.String(d.keyName),
		PublicKeyMaterial: pub,
	}); err != nil {
		return "", fmt.Errorf("import key pair %q: %w", d.keyName, err)
	}
	return fmt.Sprintf("imported key pair %s", d.keyName), nil
}

func (d *driver) ensureSecurityGroup(ctx context.Context) (string, error) {
	if d.securityGroup == "" {
		return "no security_group set, instances use the default group", nil
	}
	id, err := d.securityGroupID(ctx)
	if err != nil {
		return "", err
	}
	if id != "" {
		return fmt.Sprintf("security group %s is valid", d.securityGroup), nil
	}
	res, err := d.client.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
		GroupName:   aws.String(d.securityGroup),
		Description: aws.String("clusterops " + d.providerName),
	})
	if err != nil {
		return "", fmt.Errorf("create security group %q: %w", d.securityGroup, err)
	}
	perms := make([]types.IpPermission, 0, len(d.openPorts))
	for _, port := range d.openPorts {
		perms = append(perms, types.IpPermission{
			IpProtocol: aws.String("tcp"),
			FromPort:   aws.Int32(port),
			ToPort:     aws.Int32(port),
			IpRanges:   []types.IpRange{{CidrIp: aws.String("0.0.0.0/0")}},
		})
	}
	if _, err := d.client.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId:       res.GroupId,
		IpPermissions: perms,
	}); err != nil {
		return "", fmt.Errorf("authorize security group %q: %w", d.securityGroup, err)
	}
	return fmt.Sprintf("created security group %s", d.securityGroup), nil
}
