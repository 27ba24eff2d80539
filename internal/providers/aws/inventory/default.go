package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/configservice"

	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/providers/aws/common"
)

// MaxPageLimit is the largest page size the advanced-query API accepts.
const MaxPageLimit = 100

// Options configures a DefaultPageSource.
type Options struct {
	// Types scopes the query to these resource types. Required.
	Types []string

	// Limit is the page size. Zero lets the service choose.
	Limit int

	// Logger receives per-page debug output. Nil discards it.
	Logger *slog.Logger
}

type pairKey struct {
	accountID string
	region    string
}

// DefaultPageSource is the production PageSource backed by AWS Config
// SelectResourceConfig. Clients are built on first use for each
// (account, region) pair and reused for later pages.
//
// Inject a custom ClientFactory via NewDefaultPageSourceWithFactory to
// replace real SDK clients with mocks in unit tests.
type DefaultPageSource struct {
	provider   common.AWSClientProvider
	profile    *common.ProfileConfig
	factory    common.ClientFactory
	expression string
	limit      int32
	logger     *slog.Logger

	mu      sync.Mutex
	clients map[pairKey]common.ConfigServiceClient
}

// NewDefaultPageSource returns a page source backed by the real AWS SDK.
func NewDefaultPageSource(profile *common.ProfileConfig, provider common.AWSClientProvider, opts Options) (*DefaultPageSource, error) {
	return NewDefaultPageSourceWithFactory(profile, provider, common.NewClientSet, opts)
}

// NewDefaultPageSourceWithFactory returns a page source that uses f to
// create its service clients. Pass a mock factory in tests.
func NewDefaultPageSourceWithFactory(
	profile *common.ProfileConfig,
	provider common.AWSClientProvider,
	f common.ClientFactory,
	opts Options,
) (*DefaultPageSource, error) {
	expr, err := BuildExpression(opts.Types)
	if err != nil {
		return nil, err
	}
	if opts.Limit < 0 || opts.Limit > MaxPageLimit {
		return nil, fmt.Errorf("page limit %d out of range 0..%d", opts.Limit, MaxPageLimit)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DefaultPageSource{
		provider:   provider,
		profile:    profile,
		factory:    f,
		expression: expr,
		limit:      int32(opts.Limit),
		logger:     logger,
		clients:    make(map[pairKey]common.ConfigServiceClient),
	}, nil
}

// Expression returns the query sent to the service.
func (s *DefaultPageSource) Expression() string { return s.expression }

// FetchPage runs one SelectResourceConfig call for the pair.
func (s *DefaultPageSource) FetchPage(ctx context.Context, accountID, region, token string) (Page, error) {
	in := &configservice.SelectResourceConfigInput{
		Expression: aws.String(s.expression),
		Limit:      s.limit,
	}
	if token != "" {
		in.NextToken = aws.String(token)
	}

	out, err := s.client(accountID, region).SelectResourceConfig(ctx, in)
	if err != nil {
		return Page{}, fmt.Errorf("select resource config in %s/%s: %w", accountID, region, err)
	}

	page := Page{Records: out.Results, NextToken: aws.ToString(out.NextToken)}
	s.logger.Debug("fetched page",
		"account", accountID,
		"region", region,
		"records", len(page.Records),
		"more", page.NextToken != "",
	)
	return page, nil
}

func (s *DefaultPageSource) client(accountID, region string) common.ConfigServiceClient {
	key := pairKey{accountID: accountID, region: region}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[key]; ok {
		return c
	}
	c := s.factory(s.provider.ConfigForAccount(s.profile, accountID, region)).Config
	s.clients[key] = c
	return c
}
