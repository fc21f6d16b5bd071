package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/redshift"
	"github.com/aws/aws-sdk-go-v2/service/redshift/types"
	"github.com/aws/smithy-go"
	"github.com/spf13/afero"

	"github.com/bruin-data/dwh/pkg/config"
	"github.com/bruin-data/dwh/pkg/executor"
	"github.com/bruin-data/dwh/pkg/logger"
	"github.com/bruin-data/dwh/pkg/poll"
)

const (
	StatusAvailable = "available"
	StatusDeleting  = "deleting"
	StatusDeleted   = "deleted"

	DefaultPollInterval = 5 * time.Second
	DefaultTimeout      = 45 * time.Minute

	trustedService         = "redshift.amazonaws.com"
	duplicateIngressCode   = "InvalidPermission.Duplicate"
	defaultSecurityGroup   = "default"
	openCidr               = "0.0.0.0/0"
	maxPollIntervalDoubles = 5
)

var ErrClusterNotFound = errors.New("cluster not found")

type Options struct {
	StatePath    string
	PollInterval time.Duration
	Timeout      time.Duration
}

// Manager drives the lifecycle of the warehouse cluster and the IAM role it reads S3 with.
type Manager struct {
	iam      IAMAPI
	redshift RedshiftAPI
	ec2      EC2API

	config    *config.Config
	fs        afero.Fs
	statePath string
	logger    logger.Logger
	poll      *poll.Timer
	timeout   time.Duration
}

func NewManager(clients *Clients, c *config.Config, fs afero.Fs, logger logger.Logger, opts Options) *Manager {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Manager{
		iam:       clients.IAM,
		redshift:  clients.Redshift,
		ec2:       clients.EC2,
		config:    c,
		fs:        fs,
		statePath: opts.StatePath,
		logger:    logger,
		poll: &poll.Timer{
			BaseDuration: interval,
			MaxRetry:     maxPollIntervalDoubles,
		},
		timeout: opts.Timeout,
	}
}

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Effect    string            `json:"Effect"`
	Principal map[string]string `json:"Principal"`
	Action    string            `json:"Action"`
}

func trustPolicy() (string, error) {
	doc, err := json.Marshal(policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{
			{
				Effect:    "Allow",
				Principal: map[string]string{"Service": trustedService},
				Action:    "sts:AssumeRole",
			},
		},
	})
	if err != nil {
		return "", err
	}

	return string(doc), nil
}

// EnsureRole creates the role the cluster assumes to read S3, attaches the policy and returns the role ARN.
func (m *Manager) EnsureRole(ctx context.Context) (string, error) {
	printer := executor.PrinterFromContext(ctx)
	roleName := m.config.IAM.RoleName

	fmt.Fprintln(printer, "=== Create Redshift IAM Role")

	doc, err := trustPolicy()
	if err != nil {
		return "", fmt.Errorf("error building the trust policy: %w", err)
	}

	_, err = m.iam.CreateRole(ctx, &iam.CreateRoleInput{
		Path:                     aws.String("/"),
		RoleName:                 aws.String(roleName),
		AssumeRolePolicyDocument: aws.String(doc),
		Description:              aws.String("Allows the Redshift cluster to read from S3"),
	})

	var alreadyExists *iamtypes.EntityAlreadyExistsException
	switch {
	case errors.As(err, &alreadyExists):
		fmt.Fprintf(printer, "Role %s already exists\n", roleName)
	case err != nil:
		return "", fmt.Errorf("error creating role %q: %w", roleName, err)
	default:
		m.logger.Debugw("created IAM role", "role", roleName)
	}

	fmt.Fprintln(printer, "Attaching Policy")
	_, err = m.iam.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
		RoleName:  aws.String(roleName),
		PolicyArn: aws.String(m.config.IAM.PolicyARN),
	})
	if err != nil {
		return "", fmt.Errorf("error attaching policy %q to role %q: %w", m.config.IAM.PolicyARN, roleName, err)
	}

	role, err := m.iam.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(roleName)})
	if err != nil {
		return "", fmt.Errorf("error looking up role %q: %w", roleName, err)
	}
	if role.Role == nil || aws.ToString(role.Role.Arn) == "" {
		return "", fmt.Errorf("role %q has no ARN", roleName)
	}

	arn := aws.ToString(role.Role.Arn)
	fmt.Fprintf(printer, "roleArn %s\n", arn)

	return arn, nil
}

// Create starts the cluster unless it already exists, waits until it is available, records the
// endpoint in the state file and opens the database port to the outside world.
func (m *Manager) Create(ctx context.Context, roleARN string) (*Props, error) {
	printer := executor.PrinterFromContext(ctx)
	fmt.Fprintln(printer, "=== Create Cluster")

	existing, err := m.describe(ctx)
	switch {
	case err == nil:
		fmt.Fprintln(printer, "Cluster creation already started.")
	case errors.Is(err, ErrClusterNotFound):
		if err := m.createCluster(ctx, roleARN); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	cluster := existing
	if cluster == nil || aws.ToString(cluster.ClusterStatus) != StatusAvailable {
		fmt.Fprint(printer, "creating...")
		cluster, err = m.waitFor(ctx, func(c *types.Cluster) (bool, error) {
			if c == nil {
				return false, fmt.Errorf("cluster %s disappeared while being created", m.config.Cluster.Identifier)
			}
			return aws.ToString(c.ClusterStatus) == StatusAvailable, nil
		})
		fmt.Fprintln(printer)
		if err != nil {
			return nil, err
		}
	}

	fmt.Fprintln(printer, "Cluster Available!")

	props := propsFromCluster(*cluster)
	if props.RoleARN == "" {
		props.RoleARN = roleARN
	}
	PrintProps(printer, props)
	fmt.Fprintf(printer, "DWH_ENDPOINT :: %s\n", props.Endpoint)
	fmt.Fprintf(printer, "DWH_ROLE_ARN :: %s\n", props.RoleARN)

	_, err = config.UpdateState(m.fs, m.statePath, func(s *config.State) {
		s.ClusterIdentifier = props.ClusterIdentifier
		s.Endpoint = props.Endpoint
		s.Port = props.Port
		s.RoleARN = props.RoleARN
	})
	if err != nil {
		return props, err
	}

	if err := m.openIngress(ctx, props.VpcID); err != nil {
		return props, err
	}

	return props, nil
}

func (m *Manager) createCluster(ctx context.Context, roleARN string) error {
	c := m.config
	input := &redshift.CreateClusterInput{
		ClusterIdentifier:  aws.String(c.Cluster.Identifier),
		NodeType:           aws.String(c.Cluster.NodeType),
		ClusterType:        aws.String(c.Cluster.Type),
		Port:               aws.Int32(int32(c.Redshift.Port)), //nolint:gosec
		DBName:             aws.String(c.Redshift.Database),
		MasterUsername:     aws.String(c.Redshift.Username),
		MasterUserPassword: aws.String(c.Redshift.Password),
		IamRoles:           []string{roleARN},
	}
	if c.Cluster.Type == config.ClusterTypeMultiNode {
		input.NumberOfNodes = aws.Int32(int32(c.Cluster.NumNodes)) //nolint:gosec
	}

	if _, err := m.redshift.CreateCluster(ctx, input); err != nil {
		return fmt.Errorf("error creating cluster %q: %w", c.Cluster.Identifier, err)
	}

	m.logger.Infow("cluster creation requested", "cluster", c.Cluster.Identifier, "node_type", c.Cluster.NodeType)
	return nil
}

func (m *Manager) openIngress(ctx context.Context, vpcID string) error {
	printer := executor.PrinterFromContext(ctx)
	if vpcID == "" {
		m.logger.Warnf("cluster %s is not in a VPC, skipping the ingress rule", m.config.Cluster.Identifier)
		return nil
	}

	groups, err := m.ec2.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("vpc-id"), Values: []string{vpcID}},
			{Name: aws.String("group-name"), Values: []string{defaultSecurityGroup}},
		},
	})
	if err != nil {
		return fmt.Errorf("error looking up the security groups of %s: %w", vpcID, err)
	}
	if len(groups.SecurityGroups) == 0 {
		return fmt.Errorf("no '%s' security group in %s", defaultSecurityGroup, vpcID)
	}

	sg := groups.SecurityGroups[0]
	port := aws.Int32(int32(m.config.Redshift.Port)) //nolint:gosec
	_, err = m.ec2.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId:    sg.GroupId,
		CidrIp:     aws.String(openCidr),
		IpProtocol: aws.String("tcp"),
		FromPort:   port,
		ToPort:     port,
	})

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == duplicateIngressCode {
		fmt.Fprintln(printer, "Security group ingress already set up")
		return nil
	}
	if err != nil {
		return fmt.Errorf("error opening port %d on %s: %w", m.config.Redshift.Port, aws.ToString(sg.GroupId), err)
	}

	m.logger.Debugw("opened ingress", "group", aws.ToString(sg.GroupId), "port", m.config.Redshift.Port)
	return nil
}

// Delete removes the cluster without a final snapshot, waits until it is gone, deletes the role
// and removes the state file.
func (m *Manager) Delete(ctx context.Context) error {
	printer := executor.PrinterFromContext(ctx)
	id := m.config.Cluster.Identifier
	fmt.Fprintln(printer, "=== Delete Cluster")

	cluster, err := m.describe(ctx)
	if err != nil && !errors.Is(err, ErrClusterNotFound) {
		return err
	}

	if cluster != nil {
		switch status := aws.ToString(cluster.ClusterStatus); status {
		case StatusAvailable:
			fmt.Fprintln(printer, "Cluster Available, initiate delete")
			_, err := m.redshift.DeleteCluster(ctx, &redshift.DeleteClusterInput{
				ClusterIdentifier:        aws.String(id),
				SkipFinalClusterSnapshot: aws.Bool(true),
			})
			if err != nil {
				return fmt.Errorf("error deleting cluster %q: %w", id, err)
			}
		case StatusDeleting:
		default:
			return fmt.Errorf("cluster %s is '%s', it can only be deleted once available", id, status)
		}

		fmt.Fprint(printer, "deleting...")
		_, err = m.waitFor(ctx, func(c *types.Cluster) (bool, error) {
			return c == nil || aws.ToString(c.ClusterStatus) == StatusDeleted, nil
		})
		fmt.Fprintln(printer)
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(printer, "Cluster Deleted!")

	if err := m.deleteRole(ctx); err != nil {
		return err
	}

	if err := config.RemoveState(m.fs, m.statePath); err != nil {
		return err
	}

	fmt.Fprintln(printer, "Done!")
	return nil
}

func (m *Manager) deleteRole(ctx context.Context) error {
	printer := executor.PrinterFromContext(ctx)
	roleName := m.config.IAM.RoleName
	var noSuchEntity *iamtypes.NoSuchEntityException

	_, err := m.iam.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{
		RoleName:  aws.String(roleName),
		PolicyArn: aws.String(m.config.IAM.PolicyARN),
	})
	if errors.As(err, &noSuchEntity) {
		fmt.Fprintln(printer, "IAM Role already deleted")
		return nil
	}
	if err != nil {
		return fmt.Errorf("error detaching policy from role %q: %w", roleName, err)
	}
	fmt.Fprintln(printer, "IAM Role Policy Detached")

	_, err = m.iam.DeleteRole(ctx, &iam.DeleteRoleInput{RoleName: aws.String(roleName)})
	if errors.As(err, &noSuchEntity) {
		fmt.Fprintln(printer, "IAM Role already deleted")
		return nil
	}
	if err != nil {
		return fmt.Errorf("error deleting role %q: %w", roleName, err)
	}
	fmt.Fprintln(printer, "IAM Role Deleted")

	return nil
}

func (m *Manager) Status(ctx context.Context) (*Props, error) {
	cluster, err := m.describe(ctx)
	if err != nil {
		return nil, err
	}

	return propsFromCluster(*cluster), nil
}

func (m *Manager) describe(ctx context.Context) (*types.Cluster, error) {
	id := m.config.Cluster.Identifier
	out, err := m.redshift.DescribeClusters(ctx, &redshift.DescribeClustersInput{
		ClusterIdentifier: aws.String(id),
	})

	var notFound *types.ClusterNotFoundFault
	if errors.As(err, &notFound) {
		return nil, fmt.Errorf("%w: %s", ErrClusterNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("error describing cluster %q: %w", id, err)
	}
	if len(out.Clusters) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrClusterNotFound, id)
	}

	return &out.Clusters[0], nil
}

// waitFor polls the cluster until done reports true. A missing cluster is passed to done as nil.
// Throttled calls back off, any other API error stops the wait.
func (m *Manager) waitFor(ctx context.Context, done func(c *types.Cluster) (bool, error)) (*types.Cluster, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	printer := executor.PrinterFromContext(ctx)
	maxAttemptsError := &retry.MaxAttemptsError{}
	for {
		if err := m.poll.Wait(ctx); err != nil {
			return nil, fmt.Errorf("gave up waiting for cluster %s: %w", m.config.Cluster.Identifier, err)
		}

		cluster, err := m.describe(ctx)
		if errors.As(err, &maxAttemptsError) {
			m.logger.Debugw("throttled while polling, backing off", "interval", m.poll.Duration().String())
			m.poll.Increase()
			continue
		}
		m.poll.Reset()

		if err != nil && !errors.Is(err, ErrClusterNotFound) {
			return nil, err
		}
		fmt.Fprint(printer, ".")

		finished, err := done(cluster)
		if err != nil {
			return nil, err
		}
		if finished {
			return cluster, nil
		}
	}
}
