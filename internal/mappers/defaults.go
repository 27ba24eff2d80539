package mappers

import "log/slog"

// Options tunes the default mapper set.
type Options struct {
	// FunctionVendor is reported as the software vendor of Lambda functions.
	// Empty means "AWS".
	FunctionVendor string
}

// NewDefaultRegistry returns a registry holding every built-in family in a
// fixed dispatch order.
func NewDefaultRegistry(logger *slog.Logger, opts Options) *Registry {
	r := NewRegistry(logger)
	// Compute
	r.Register(NewEC2InstanceMapper())
	r.Register(NewLoadBalancerMapper())
	r.Register(NewLambdaFunctionMapper(opts.FunctionVendor))

	// Data
	r.Register(NewDynamoDBTableMapper())
	r.Register(NewRDSInstanceMapper())
	r.Register(NewS3BucketMapper())
	r.Register(NewSearchDomainMapper())

	// Networking
	r.Register(NewVPCMapper())
	return r
}
