package common

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

const (
	defaultPartition = "aws"
	defaultRegion    = "us-east-1"
	roleSessionName  = "inventory-workbook"
)

// DefaultAWSClientProvider is the production implementation of AWSClientProvider.
// It reads credentials through the standard AWS SDK v2 chain (environment,
// shared config files, instance or task role).
//
// Inject a custom ClientFactory via NewDefaultAWSClientProviderWithFactory to
// replace real SDK clients with mocks in unit tests.
type DefaultAWSClientProvider struct {
	factory   ClientFactory
	roleName  string
	partition string
}

// NewDefaultAWSClientProvider returns a provider backed by the real AWS SDK.
func NewDefaultAWSClientProvider() *DefaultAWSClientProvider {
	return NewDefaultAWSClientProviderWithFactory(NewClientSet)
}

// NewDefaultAWSClientProviderWithFactory returns a provider that uses f to
// create its ClientSet. Pass a mock factory in tests.
func NewDefaultAWSClientProviderWithFactory(f ClientFactory) *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: f, partition: defaultPartition}
}

// WithAssumeRole makes ConfigForAccount assume roleName in every account
// other than the caller's own. An empty partition means "aws".
func (p *DefaultAWSClientProvider) WithAssumeRole(roleName, partition string) *DefaultAWSClientProvider {
	p.roleName = roleName
	if partition != "" {
		p.partition = partition
	}
	return p
}

// ---------------------------------------------------------------------------
// AWSClientProvider implementation
// ---------------------------------------------------------------------------

// LoadProfile loads the AWS SDK config for the named profile and returns a
// ProfileConfig including the caller's resolved account ID.
//
// Pass an empty string to load the default profile.
func (p *DefaultAWSClientProvider) LoadProfile(ctx context.Context, profile string) (*ProfileConfig, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS profile %q: %w", profileDisplayName(profile), err)
	}
	return p.profileFromConfig(ctx, profile, cfg)
}

// profileFromConfig completes a loaded configuration into a ProfileConfig.
// Split from LoadProfile so tests can skip the shared-config files.
func (p *DefaultAWSClientProvider) profileFromConfig(ctx context.Context, profile string, cfg aws.Config) (*ProfileConfig, error) {
	// Fall back to us-east-1 when the profile has no region configured so
	// that all SDK clients can be constructed successfully.
	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}

	clients := p.factory(cfg)

	accountID, err := resolveAccountID(ctx, clients.STS)
	if err != nil {
		return nil, fmt.Errorf("resolve account ID for profile %q: %w", profileDisplayName(profile), err)
	}

	return &ProfileConfig{
		ProfileName: profileDisplayName(profile),
		AccountID:   accountID,
		Region:      cfg.Region,
		Config:      cfg,
		Clients:     clients,
	}, nil
}

// GetActiveRegions returns all AWS regions that are enabled (opted-in) for
// the caller's account. It uses EC2 DescribeRegions, which is a global call
// and works correctly regardless of the client's home region.
func (p *DefaultAWSClientProvider) GetActiveRegions(ctx context.Context, cfg *ProfileConfig) ([]string, error) {
	out, err := cfg.Clients.EC2.DescribeRegions(ctx, &ec2.DescribeRegionsInput{
		// AllRegions false (default) returns only regions the account has
		// opted into; it excludes disabled / not-subscribed regions.
		AllRegions: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("describe regions for profile %q: %w", cfg.ProfileName, err)
	}

	regions := make([]string, 0, len(out.Regions))
	for _, r := range out.Regions {
		if r.RegionName != nil {
			regions = append(regions, *r.RegionName)
		}
	}
	return regions, nil
}

// ConfigForRegion returns a copy of cfg.Config with Region set to region.
func (p *DefaultAWSClientProvider) ConfigForRegion(cfg *ProfileConfig, region string) aws.Config {
	regional := cfg.Config
	regional.Region = region
	return regional
}

// ConfigForAccount returns a region-scoped configuration for accountID. The
// caller's own account, or any account when no role is configured, uses the
// profile's credentials directly. Other accounts get credentials from an
// STS AssumeRole provider wrapped in a credentials cache; no call is made
// until the first request.
func (p *DefaultAWSClientProvider) ConfigForAccount(cfg *ProfileConfig, accountID, region string) aws.Config {
	regional := p.ConfigForRegion(cfg, region)
	if p.roleName == "" || accountID == cfg.AccountID {
		return regional
	}

	stsClient := p.factory(regional).STS
	provider := stscreds.NewAssumeRoleProvider(stsClient, RoleARN(p.partition, accountID, p.roleName),
		func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = roleSessionName
		})
	regional.Credentials = aws.NewCredentialsCache(provider)
	return regional
}

// RoleARN formats the ARN of roleName in accountID.
func RoleARN(partition, accountID, roleName string) string {
	if partition == "" {
		partition = defaultPartition
	}
	return fmt.Sprintf("arn:%s:iam::%s:role/%s", partition, accountID, roleName)
}

// ---------------------------------------------------------------------------
// Package-private helpers
// ---------------------------------------------------------------------------

// profileDisplayName returns a human-readable profile identifier. An empty
// string (the default profile) is shown as "default".
func profileDisplayName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}

// resolveAccountID calls STS GetCallerIdentity to retrieve the numeric AWS
// account ID for the credentials currently loaded in stsClient.
func resolveAccountID(ctx context.Context, stsClient STSClient) (string, error) {
	out, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("STS GetCallerIdentity: %w", err)
	}
	if out.Account == nil {
		return "", fmt.Errorf("STS GetCallerIdentity returned nil account")
	}
	return aws.ToString(out.Account), nil
}
