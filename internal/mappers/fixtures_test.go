package mappers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/models"
)

// decode parses a JSON fixture into a ConfigResource, failing the test on
// malformed input.
func decode(t *testing.T, raw string) models.ConfigResource {
	t.Helper()
	res, err := models.DecodeConfigResource(raw)
	require.NoError(t, err)
	return res
}

// deref returns the value of a record field for assertions, with "<unset>"
// standing in for nil so unset and empty are distinguishable in failures.
func deref(p *string) string {
	if p == nil {
		return "<unset>"
	}
	return *p
}

const ec2Fixture = `{
  "arn": "arn:aws:ec2:us-west-2:123456789012:instance/i-0abc",
  "resourceId": "i-0abc",
  "resourceName": "bastion",
  "resourceType": "AWS::EC2::Instance",
  "awsRegion": "us-west-2",
  "configurationStateId": 1565648587155,
  "tags": [{"key": "Name", "value": "bastion"}, {"key": "OWNER", "value": "platform"}],
  "configuration": {
    "instanceId": "i-0abc",
    "imageId": "ami-123",
    "instanceType": "t3.micro",
    "vpcId": "vpc-1",
    "publicDnsName": "",
    "privateDnsName": "ip-10-0-0-1.us-west-2.compute.internal",
    "networkInterfaces": [
      {
        "macAddress": "0a:00:00:00:00:01",
        "privateIpAddresses": [
          {"privateIpAddress": "10.0.0.1", "association": {"publicIp": "54.0.0.1"}},
          {"privateIpAddress": "10.0.0.2"}
        ]
      },
      {
        "macAddress": "0a:00:00:00:00:02",
        "privateIpAddresses": [
          {"privateIpAddress": "10.0.1.1"},
          {"privateIpAddress": "10.0.1.2"}
        ]
      }
    ]
  }
}`

const albFixture = `{
  "arn": "arn:aws:elasticloadbalancing:us-west-2:123456789012:loadbalancer/app/web/50dc6c495c0c9188",
  "resourceId": "arn:aws:elasticloadbalancing:us-west-2:123456789012:loadbalancer/app/web/50dc6c495c0c9188",
  "resourceName": "web",
  "resourceType": "AWS::ElasticLoadBalancingV2::LoadBalancer",
  "awsRegion": "us-west-2",
  "tags": [],
  "configuration": {
    "type": "application",
    "scheme": "internet-facing",
    "vpcId": "vpc-2",
    "availabilityZones": [
      {"zoneName": "us-west-2a", "loadBalancerAddresses": [{"ipAddress": "52.0.0.1"}, {"ipAddress": "52.0.0.2"}]},
      {"zoneName": "us-west-2b", "loadBalancerAddresses": [{"ipAddress": "52.0.0.3"}, {"ipAddress": "52.0.0.1"}]}
    ]
  }
}`

const classicELBFixture = `{
  "arn": "arn:aws:elasticloadbalancing:us-west-2:123456789012:loadbalancer/legacy",
  "resourceId": "legacy",
  "resourceType": "AWS::ElasticLoadBalancing::LoadBalancer",
  "awsRegion": "us-west-2",
  "tags": [{"key": "owner", "value": "web-team"}],
  "configuration": {
    "scheme": "internal",
    "vpcid": "vpc-3",
    "availabilityZones": ["us-west-2a", "us-west-2b"]
  }
}`

const rdsFixture = `{
  "arn": "arn:aws:rds:us-west-2:123456789012:db:orders",
  "resourceId": "db-ABCDEF",
  "resourceName": "orders",
  "resourceType": "AWS::RDS::DBInstance",
  "awsRegion": "us-west-2",
  "tags": [{"key": "Owner", "value": "data"}],
  "configuration": {
    "dBInstanceClass": "db.r5.large",
    "engine": "aurora-mysql",
    "engineVersion": "5.7.mysql_aurora.2.07.2",
    "publiclyAccessible": false,
    "dBSubnetGroup": {"vpcId": "vpc-4"}
  }
}`

const dynamoFixture = `{
  "arn": "arn:aws:dynamodb:us-west-2:123456789012:table/sessions",
  "resourceId": "sessions",
  "resourceName": "sessions",
  "resourceType": "AWS::DynamoDB::Table",
  "awsRegion": "us-west-2",
  "tags": [],
  "configuration": {"tableName": "sessions"}
}`

const s3Fixture = `{
  "arn": "arn:aws:s3:::reports-bucket",
  "resourceId": "reports-bucket",
  "resourceName": "reports-bucket",
  "resourceType": "AWS::S3::Bucket",
  "awsRegion": "us-west-2",
  "tags": [],
  "configuration": {"name": "reports-bucket"},
  "supplementaryConfiguration": {
    "PublicAccessBlockConfiguration": {
      "blockPublicAcls": true,
      "ignorePublicAcls": true,
      "blockPublicPolicy": true,
      "restrictPublicBuckets": true
    }
  }
}`

const vpcFixture = `{
  "arn": "arn:aws:ec2:us-west-2:123456789:vpc/vpc-12345",
  "resourceId": "vpc-12345",
  "resourceType": "AWS::EC2::VPC",
  "awsRegion": "us-west-2",
  "configurationStateId": 1565648587155,
  "tags": [],
  "configuration": {"vpcId": "vpc-12345", "cidrBlock": "10.0.0.0/16"}
}`

const lambdaFixture = `{
  "arn": "arn:aws:lambda:us-west-2:123456789:function:InventoryCollector",
  "resourceId": "InventoryCollector",
  "resourceName": "InventoryCollector",
  "resourceType": "AWS::Lambda::Function",
  "awsRegion": "us-west-2",
  "tags": [],
  "configuration": {"runtime": "go1.x", "codeSha256": "q5m4bH0sVZ0="}
}`

const elasticsearchFixture = `{
  "arn": "arn:aws:es:us-west-2:123456789:domain/logs",
  "resourceId": "123456789/logs",
  "resourceName": "logs",
  "resourceType": "AWS::Elasticsearch::Domain",
  "awsRegion": "us-west-2",
  "tags": [],
  "configuration": {
    "elasticsearchVersion": "7.10",
    "endpoint": "search-logs-abc.us-west-2.es.amazonaws.com"
  }
}`
