package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/config"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/mappers"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/models"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/providers/aws/inventory"
)

// ── fakes ────────────────────────────────────────────────────────────────────

// fakeSource serves scripted pages per "account/region". Pages are chained
// by their index so the token is the next index as a string.
type fakeSource struct {
	pages map[string][]inventory.Page
	fail  map[string]error
	// failAfter makes a pair fail when asked for this page index.
	failAfter map[string]int
	delay     map[string]time.Duration

	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeSource) FetchPage(ctx context.Context, accountID, region, token string) (inventory.Page, error) {
	key := accountID + "/" + region
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[key]++
	f.mu.Unlock()

	if d := f.delay[key]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return inventory.Page{}, ctx.Err()
		}
	}
	if err := f.fail[key]; err != nil {
		return inventory.Page{}, err
	}

	idx := 0
	if token != "" {
		fmt.Sscanf(token, "%d", &idx)
	}
	if n, ok := f.failAfter[key]; ok && idx >= n {
		return inventory.Page{}, errors.New("ThrottlingException")
	}
	pages := f.pages[key]
	if idx >= len(pages) {
		return inventory.Page{}, nil
	}
	page := pages[idx]
	if idx+1 < len(pages) {
		page.NextToken = fmt.Sprint(idx + 1)
	}
	return page, nil
}

func vpc(id, region string) string {
	return fmt.Sprintf(`{"arn":"arn:aws:ec2:%[2]s:111122223333:vpc/%[1]s","resourceId":%[1]q,`+
		`"resourceType":"AWS::EC2::VPC","awsRegion":%[2]q,"configurationStateId":1,`+
		`"configuration":{"vpcId":%[1]q,"cidrBlock":"10.0.0.0/16"}}`, id, region)
}

const unmappedRecord = `{"resourceType":"AWS::IAM::Role","resourceId":"r1"}`

func newTestCollector(src inventory.PageSource, concurrency int) *Collector {
	c := New(src, mappers.NewDefaultRegistry(nil, mappers.Options{}), Options{Concurrency: concurrency})
	c.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	c.newID = func() string { return "run-1" }
	return c
}

func uniqueIDs(recs []models.InventoryRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = models.Value(r.UniqueID)
	}
	return out
}

func arn(id, region string) string {
	return "arn:aws:ec2:" + region + ":111122223333:vpc/" + id
}

// ── tests ────────────────────────────────────────────────────────────────────

func TestCollectAll_PartialFailure(t *testing.T) {
	src := &fakeSource{
		fail: map[string]error{"111111111111/us-east-1": errors.New("AccessDeniedException")},
		pages: map[string][]inventory.Page{
			"222222222222/us-east-1": {
				{Records: []string{vpc("b1", "us-east-1"), vpc("b2", "us-east-1"), vpc("b3", "us-east-1")}},
				{Records: []string{vpc("b4", "us-east-1"), vpc("b5", "us-east-1")}},
			},
		},
	}
	accounts := []config.Account{
		{ID: "111111111111", Regions: []string{"us-east-1"}},
		{ID: "222222222222", Regions: []string{"us-east-1"}},
	}

	inv, err := newTestCollector(src, 1).CollectAll(context.Background(), accounts, nil)
	require.NoError(t, err)

	require.Len(t, inv.Records, 5)
	assert.Equal(t, []string{
		arn("b1", "us-east-1"), arn("b2", "us-east-1"), arn("b3", "us-east-1"),
		arn("b4", "us-east-1"), arn("b5", "us-east-1"),
	}, uniqueIDs(inv.Records))
	assert.Equal(t, 1, inv.Stats.FailedPairs)
	assert.Equal(t, 2, inv.Stats.Pairs)
	assert.Equal(t, 2, inv.Stats.Pages)
	assert.Equal(t, []string{"111111111111", "222222222222"}, inv.Accounts)
}

func TestCollectAll_FailureMidPairKeepsEarlierPages(t *testing.T) {
	src := &fakeSource{
		failAfter: map[string]int{"111111111111/us-east-1": 1},
		pages: map[string][]inventory.Page{
			"111111111111/us-east-1": {
				{Records: []string{vpc("a1", "us-east-1")}},
				{Records: []string{vpc("never", "us-east-1")}},
			},
			"111111111111/us-west-2": {{Records: []string{vpc("a2", "us-west-2")}}},
		},
	}
	accounts := []config.Account{{ID: "111111111111", Regions: []string{"us-east-1", "us-west-2"}}}

	inv, err := newTestCollector(src, 1).CollectAll(context.Background(), accounts, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{arn("a1", "us-east-1"), arn("a2", "us-west-2")}, uniqueIDs(inv.Records))
	assert.Equal(t, 1, inv.Stats.FailedPairs)
}

func TestCollectAll_UnmappedAndMalformedRecordsDropped(t *testing.T) {
	src := &fakeSource{pages: map[string][]inventory.Page{
		"111111111111/us-east-1": {{Records: []string{
			unmappedRecord,
			vpc("v1", "us-east-1"),
			`{"resourceType":"AWS::EC2::Instance","resourceId":"i-1"}`, // no configuration
			`not json`,
			vpc("v2", "us-east-1"),
		}}},
	}}
	accounts := []config.Account{{ID: "111111111111", Regions: []string{"us-east-1"}}}

	inv, err := newTestCollector(src, 1).CollectAll(context.Background(), accounts, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{arn("v1", "us-east-1"), arn("v2", "us-east-1")}, uniqueIDs(inv.Records))
	assert.Equal(t, 5, inv.Stats.RawRecords)
	assert.Equal(t, 1, inv.Stats.Unmapped)
	assert.Equal(t, 2, inv.Stats.MappingFailures)
}

func TestCollectAll_OnlyUnmappedRecordsYieldsEmpty(t *testing.T) {
	src := &fakeSource{pages: map[string][]inventory.Page{
		"111111111111/us-east-1": {{Records: []string{unmappedRecord, unmappedRecord}}},
	}}
	accounts := []config.Account{{ID: "111111111111", Regions: []string{"us-east-1"}}}

	inv, err := newTestCollector(src, 1).CollectAll(context.Background(), accounts, nil)
	require.NoError(t, err)
	assert.Empty(t, inv.Records)
	assert.NotNil(t, inv.Records, "an empty inventory encodes as [] not null")
}

func TestCollectAll_ManualEntriesAppendedLast(t *testing.T) {
	src := &fakeSource{pages: map[string][]inventory.Page{
		"111111111111/us-east-1": {{Records: []string{vpc("v1", "us-east-1"), vpc("v2", "us-east-1")}}},
	}}
	accounts := []config.Account{{ID: "111111111111", Regions: []string{"us-east-1"}}}
	manual := []models.FieldMap{{"asset_type": "Printer", "owner": "Ops"}}

	inv, err := newTestCollector(src, 1).CollectAll(context.Background(), accounts, manual)
	require.NoError(t, err)
	require.Len(t, inv.Records, 3)

	last := inv.Records[2]
	assert.Equal(t, models.InventoryRecord{
		AssetType: models.String("Printer"),
		Owner:     models.String("Ops"),
	}, last, "every other field stays unset")
	assert.Equal(t, 1, inv.Stats.ManualRecords)
}

func TestCollectAll_BadManualEntryIsAnError(t *testing.T) {
	src := &fakeSource{}
	_, err := newTestCollector(src, 1).CollectAll(context.Background(), nil, []models.FieldMap{{"colour": "red"}})

	var unknown *models.UnknownFieldError
	require.True(t, errors.As(err, &unknown))
	assert.Empty(t, src.calls, "no query runs when configuration is invalid")
}

func TestCollectAll_Idempotent(t *testing.T) {
	src := &fakeSource{pages: map[string][]inventory.Page{
		"111111111111/us-east-1": {
			{Records: []string{vpc("v1", "us-east-1")}},
			{Records: []string{vpc("v2", "us-east-1")}},
		},
	}}
	accounts := []config.Account{{ID: "111111111111", Regions: []string{"us-east-1"}}}
	manual := []models.FieldMap{{"asset_type": "Printer"}}
	c := newTestCollector(src, 1)

	first, err := c.CollectAll(context.Background(), accounts, manual)
	require.NoError(t, err)
	second, err := c.CollectAll(context.Background(), accounts, manual)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 4, src.calls["111111111111/us-east-1"], "each run restarts from the first page")
}

func TestCollectAll_ConcurrentOrderMatchesSequential(t *testing.T) {
	// The first pair is the slowest so it finishes last under concurrency.
	src := &fakeSource{
		delay: map[string]time.Duration{"111111111111/us-east-1": 30 * time.Millisecond},
		pages: map[string][]inventory.Page{
			"111111111111/us-east-1": {{Records: []string{vpc("a", "us-east-1")}}},
			"111111111111/eu-west-1": {{Records: []string{vpc("b", "eu-west-1")}}},
			"222222222222/us-east-1": {{Records: []string{vpc("c", "us-east-1")}}, {Records: []string{vpc("d", "us-east-1")}}},
			"222222222222/eu-west-1": {{Records: []string{vpc("e", "eu-west-1")}}},
		},
	}
	accounts := []config.Account{
		{ID: "111111111111", Regions: []string{"us-east-1", "eu-west-1"}},
		{ID: "222222222222", Regions: []string{"us-east-1", "eu-west-1"}},
	}

	sequential, err := newTestCollector(src, 1).CollectAll(context.Background(), accounts, nil)
	require.NoError(t, err)
	concurrent, err := newTestCollector(src, 4).CollectAll(context.Background(), accounts, nil)
	require.NoError(t, err)

	assert.Equal(t, sequential.Records, concurrent.Records)
	assert.Equal(t, []string{
		arn("a", "us-east-1"), arn("b", "eu-west-1"),
		arn("c", "us-east-1"), arn("d", "us-east-1"), arn("e", "eu-west-1"),
	}, uniqueIDs(concurrent.Records))
}

func TestCollectAll_DuplicateIDsAcrossRegionsKept(t *testing.T) {
	src := &fakeSource{pages: map[string][]inventory.Page{
		"111111111111/us-east-1": {{Records: []string{vpc("same", "us-east-1")}}},
		"111111111111/us-west-2": {{Records: []string{vpc("same", "us-east-1")}}},
	}}
	accounts := []config.Account{{ID: "111111111111", Regions: []string{"us-east-1", "us-west-2"}}}

	inv, err := newTestCollector(src, 1).CollectAll(context.Background(), accounts, nil)
	require.NoError(t, err)
	assert.Len(t, inv.Records, 2)
}

func TestCollectAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{pages: map[string][]inventory.Page{
		"111111111111/us-east-1": {{Records: []string{vpc("v1", "us-east-1")}}},
	}}
	accounts := []config.Account{{ID: "111111111111", Regions: []string{"us-east-1"}}}

	_, err := newTestCollector(src, 1).CollectAll(ctx, accounts, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCollectAll_RunMetadata(t *testing.T) {
	inv, err := newTestCollector(&fakeSource{}, 1).CollectAll(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "run-1", inv.RunID)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), inv.GeneratedAt)
}

func TestNew_Defaults(t *testing.T) {
	c := New(&fakeSource{}, mappers.NewDefaultRegistry(nil, mappers.Options{}), Options{Concurrency: -3})
	assert.Equal(t, 1, c.concurrency)
	assert.NotEmpty(t, c.newID())
}
