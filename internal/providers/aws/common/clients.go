package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ---------------------------------------------------------------------------
// Per-service client interfaces
//
// Each interface covers only the operations used by this project. Using narrow
// interfaces instead of the full SDK clients makes mocking in unit tests
// trivial: create a struct that satisfies the interface and return canned data.
// ---------------------------------------------------------------------------

// STSClient is the subset of STS operations used by the loader. AssumeRole
// makes it usable as a stscreds.AssumeRoleAPIClient.
type STSClient interface {
	GetCallerIdentity(
		ctx context.Context,
		params *sts.GetCallerIdentityInput,
		optFns ...func(*sts.Options),
	) (*sts.GetCallerIdentityOutput, error)

	AssumeRole(
		ctx context.Context,
		params *sts.AssumeRoleInput,
		optFns ...func(*sts.Options),
	) (*sts.AssumeRoleOutput, error)
}

// EC2RegionClient is the subset of EC2 operations used for region discovery.
type EC2RegionClient interface {
	DescribeRegions(
		ctx context.Context,
		params *ec2.DescribeRegionsInput,
		optFns ...func(*ec2.Options),
	) (*ec2.DescribeRegionsOutput, error)
}

// ConfigServiceClient covers the AWS Config query used to read the resource
// inventory.
type ConfigServiceClient interface {
	SelectResourceConfig(
		ctx context.Context,
		params *configservice.SelectResourceConfigInput,
		optFns ...func(*configservice.Options),
	) (*configservice.SelectResourceConfigOutput, error)
}

// S3Client covers the upload used to deliver a finished inventory.
type S3Client interface {
	PutObject(
		ctx context.Context,
		params *s3.PutObjectInput,
		optFns ...func(*s3.Options),
	) (*s3.PutObjectOutput, error)
}

// S3Presigner signs download links for delivered reports.
type S3Presigner interface {
	PresignGetObject(
		ctx context.Context,
		params *s3.GetObjectInput,
		optFns ...func(*s3.PresignOptions),
	) (*v4.PresignedHTTPRequest, error)
}

// ---------------------------------------------------------------------------
// ClientSet and ClientFactory
// ---------------------------------------------------------------------------

// ClientSet holds fully initialised AWS service clients for one
// configuration. All fields are interfaces so they can be replaced with mocks
// in tests without importing the AWS SDK in test files.
type ClientSet struct {
	STS       STSClient
	EC2       EC2RegionClient
	Config    ConfigServiceClient
	S3        S3Client
	Presigner S3Presigner
}

// ClientFactory creates a ClientSet from an aws.Config.
// Swap this in tests to inject mock clients.
type ClientFactory func(cfg aws.Config) *ClientSet

// NewClientSet is the production ClientFactory.
func NewClientSet(cfg aws.Config) *ClientSet {
	s3Client := s3.NewFromConfig(cfg)
	return &ClientSet{
		STS:       sts.NewFromConfig(cfg),
		EC2:       ec2.NewFromConfig(cfg),
		Config:    configservice.NewFromConfig(cfg),
		S3:        s3Client,
		Presigner: s3.NewPresignClient(s3Client),
	}
}
