package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// ProfileConfig is the caller's resolved AWS identity: the profile it was
// loaded from, the account its credentials belong to, and the SDK
// configuration used as the base for every per-account configuration.
type ProfileConfig struct {
	// ProfileName is the shared-config profile, or "default".
	ProfileName string

	// AccountID is the caller's own account, resolved via STS.
	AccountID string

	// Region is the home region of the profile.
	Region string

	// Config is the fully loaded AWS SDK v2 configuration.
	Config aws.Config

	// Clients holds service clients scoped to the home region.
	Clients *ClientSet
}

// AWSClientProvider loads credentials and hands out configurations scoped to
// a target (account, region) pair. It is the sole entry point for AWS
// credential management in the provider layer.
//
// Implementations must use the AWS SDK v2 only. Never call the aws CLI.
type AWSClientProvider interface {
	// LoadProfile returns a ProfileConfig for the named profile.
	// Pass an empty string to load the default credential chain.
	LoadProfile(ctx context.Context, profile string) (*ProfileConfig, error)

	// GetActiveRegions returns the regions enabled for the caller's account.
	GetActiveRegions(ctx context.Context, cfg *ProfileConfig) ([]string, error)

	// ConfigForRegion clones cfg with the target region set.
	ConfigForRegion(cfg *ProfileConfig, region string) aws.Config

	// ConfigForAccount returns a configuration for accountID in region.
	// When a role is configured and accountID is not the caller's own
	// account, the returned configuration assumes that role.
	ConfigForAccount(cfg *ProfileConfig, accountID, region string) aws.Config
}
