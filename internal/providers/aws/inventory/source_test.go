package inventory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/configservice"

	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/providers/aws/common"
)

// ── fakes ────────────────────────────────────────────────────────────────────

// fakeConfigClient serves pages keyed by the incoming token ("" = first).
type fakeConfigClient struct {
	pages  map[string]*configservice.SelectResourceConfigOutput
	err    error
	inputs []*configservice.SelectResourceConfigInput
}

func (f *fakeConfigClient) SelectResourceConfig(_ context.Context, in *configservice.SelectResourceConfigInput, _ ...func(*configservice.Options)) (*configservice.SelectResourceConfigOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	out, ok := f.pages[aws.ToString(in.NextToken)]
	if !ok {
		return nil, errors.New("unexpected token")
	}
	return out, nil
}

// fakeProvider tags each configuration with the account via AppID so the
// fake factory can route it.
type fakeProvider struct {
	calls int
}

func (p *fakeProvider) LoadProfile(context.Context, string) (*common.ProfileConfig, error) {
	return nil, errors.New("not used")
}

func (p *fakeProvider) GetActiveRegions(context.Context, *common.ProfileConfig) ([]string, error) {
	return nil, errors.New("not used")
}

func (p *fakeProvider) ConfigForRegion(_ *common.ProfileConfig, region string) aws.Config {
	return aws.Config{Region: region}
}

func (p *fakeProvider) ConfigForAccount(_ *common.ProfileConfig, accountID, region string) aws.Config {
	p.calls++
	return aws.Config{Region: region, AppID: accountID}
}

func routingFactory(clients map[string]*fakeConfigClient) common.ClientFactory {
	return func(cfg aws.Config) *common.ClientSet {
		return &common.ClientSet{Config: clients[cfg.AppID+"/"+cfg.Region]}
	}
}

func newTestSource(t *testing.T, provider *fakeProvider, clients map[string]*fakeConfigClient) *DefaultPageSource {
	t.Helper()
	src, err := NewDefaultPageSourceWithFactory(&common.ProfileConfig{AccountID: "111111111111"}, provider,
		routingFactory(clients), Options{Types: []string{"AWS::EC2::VPC"}, Limit: 2})
	if err != nil {
		t.Fatalf("NewDefaultPageSourceWithFactory: %v", err)
	}
	return src
}

// ── BuildExpression ──────────────────────────────────────────────────────────

func TestBuildExpression(t *testing.T) {
	got, err := BuildExpression([]string{"AWS::EC2::Instance", "AWS::S3::Bucket"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SELECT arn, resourceName, resourceId, resourceType, configuration, " +
		"supplementaryConfiguration, configurationStateId, tags, awsRegion " +
		"WHERE resourceType IN ('AWS::EC2::Instance', 'AWS::S3::Bucket')"
	if got != want {
		t.Errorf("expression =\n  %s\nwant\n  %s", got, want)
	}
}

func TestBuildExpression_Rejects(t *testing.T) {
	if _, err := BuildExpression(nil); err == nil {
		t.Error("expected error for empty type list")
	}
	if _, err := BuildExpression([]string{"AWS::S3::Bucket' OR '1'='1"}); err == nil {
		t.Error("expected error for quoted type")
	}
}

// ── DefaultPageSource ────────────────────────────────────────────────────────

func TestFetchPage_PassesTokenAndLimit(t *testing.T) {
	client := &fakeConfigClient{pages: map[string]*configservice.SelectResourceConfigOutput{
		"":   {Results: []string{`{"a":1}`, `{"a":2}`}, NextToken: aws.String("t1")},
		"t1": {Results: []string{`{"a":3}`}},
	}}
	src := newTestSource(t, &fakeProvider{}, map[string]*fakeConfigClient{"222222222222/us-east-1": client})

	first, err := src.FetchPage(context.Background(), "222222222222", "us-east-1", "")
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Records) != 2 || first.NextToken != "t1" {
		t.Errorf("first page = %+v", first)
	}

	second, err := src.FetchPage(context.Background(), "222222222222", "us-east-1", "t1")
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Records) != 1 || second.NextToken != "" {
		t.Errorf("second page = %+v", second)
	}

	if client.inputs[0].NextToken != nil {
		t.Error("first call must not send a token")
	}
	if aws.ToString(client.inputs[1].NextToken) != "t1" {
		t.Errorf("second call token = %q; want t1", aws.ToString(client.inputs[1].NextToken))
	}
	if client.inputs[0].Limit != 2 {
		t.Errorf("Limit = %d; want 2", client.inputs[0].Limit)
	}
	if !strings.Contains(aws.ToString(client.inputs[0].Expression), "'AWS::EC2::VPC'") {
		t.Errorf("expression = %q", aws.ToString(client.inputs[0].Expression))
	}
}

func TestFetchPage_CachesClientPerPair(t *testing.T) {
	provider := &fakeProvider{}
	pages := map[string]*configservice.SelectResourceConfigOutput{"": {}}
	src := newTestSource(t, provider, map[string]*fakeConfigClient{
		"222222222222/us-east-1": {pages: pages},
		"222222222222/us-west-2": {pages: pages},
	})

	ctx := context.Background()
	for range 3 {
		if _, err := src.FetchPage(ctx, "222222222222", "us-east-1", ""); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := src.FetchPage(ctx, "222222222222", "us-west-2", ""); err != nil {
		t.Fatal(err)
	}
	if provider.calls != 2 {
		t.Errorf("ConfigForAccount calls = %d; want 2 (one per pair)", provider.calls)
	}
}

func TestFetchPage_WrapsServiceError(t *testing.T) {
	denied := errors.New("AccessDenied")
	src := newTestSource(t, &fakeProvider{}, map[string]*fakeConfigClient{
		"222222222222/us-east-1": {err: denied},
	})

	_, err := src.FetchPage(context.Background(), "222222222222", "us-east-1", "")
	if !errors.Is(err, denied) {
		t.Fatalf("err = %v; want wrapped AccessDenied", err)
	}
	if !strings.Contains(err.Error(), "222222222222/us-east-1") {
		t.Errorf("error %q should name the pair", err)
	}
}

func TestNewDefaultPageSource_Validation(t *testing.T) {
	f := routingFactory(nil)
	if _, err := NewDefaultPageSourceWithFactory(nil, &fakeProvider{}, f, Options{}); err == nil {
		t.Error("expected error with no types")
	}
	if _, err := NewDefaultPageSourceWithFactory(nil, &fakeProvider{}, f, Options{Types: []string{"A"}, Limit: 101}); err == nil {
		t.Error("expected error for limit above 100")
	}
}

// ── Pages ────────────────────────────────────────────────────────────────────

// scriptedSource returns pages from a fixed list, optionally failing at a
// given call index.
type scriptedSource struct {
	pages  []Page
	failAt int // -1 = never
	calls  int
}

func (s *scriptedSource) FetchPage(_ context.Context, _, _, _ string) (Page, error) {
	i := s.calls
	s.calls++
	if i == s.failAt {
		return Page{}, errors.New("throttled")
	}
	return s.pages[i], nil
}

func TestPages_FollowsTokensToLastPage(t *testing.T) {
	src := &scriptedSource{failAt: -1, pages: []Page{
		{Records: []string{"r1", "r2"}, NextToken: "a"},
		{Records: []string{"r3"}, NextToken: "b"},
		{Records: nil},
	}}

	var got []string
	for page, err := range Pages(context.Background(), src, "acct", "us-east-1") {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, page.Records...)
	}
	if strings.Join(got, ",") != "r1,r2,r3" {
		t.Errorf("records = %v; want [r1 r2 r3]", got)
	}
	if src.calls != 3 {
		t.Errorf("calls = %d; want 3", src.calls)
	}
}

func TestPages_ErrorEndsSequence(t *testing.T) {
	src := &scriptedSource{failAt: 1, pages: []Page{
		{Records: []string{"r1"}, NextToken: "a"},
		{Records: []string{"never"}},
	}}

	var pages, errs int
	for _, err := range Pages(context.Background(), src, "acct", "us-east-1") {
		if err != nil {
			errs++
			continue
		}
		pages++
	}
	if pages != 1 || errs != 1 {
		t.Errorf("pages=%d errs=%d; want 1 and 1", pages, errs)
	}
}

func TestPages_StopsWhenConsumerBreaks(t *testing.T) {
	src := &scriptedSource{failAt: -1, pages: []Page{
		{NextToken: "a"}, {NextToken: "b"}, {},
	}}
	for range Pages(context.Background(), src, "acct", "us-east-1") {
		break
	}
	if src.calls != 1 {
		t.Errorf("calls = %d; want 1 (lazy)", src.calls)
	}
}

func TestPages_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &scriptedSource{failAt: -1, pages: []Page{{}}}
	for _, err := range Pages(ctx, src, "acct", "us-east-1") {
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v; want context.Canceled", err)
		}
	}
	if src.calls != 0 {
		t.Errorf("calls = %d; want 0", src.calls)
	}
}
