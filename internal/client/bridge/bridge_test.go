package bridge

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/admindata/internal/client/localstore"
	"github.com/dmitrijs2005/admindata/internal/common"
	"github.com/dmitrijs2005/admindata/internal/logging"
	"github.com/dmitrijs2005/admindata/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fivePayload = `[
	{"cca2":"LV","name":"Latvia"},
	{"cca2":"EE","name":"Estonia"},
	{"name":"Nowhere"},
	{"cca2":"LT","name":"Lithuania"},
	{"cca2":"FI","name":"Finland"}
]`

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	cache *localstore.Store
	clock *clock
	calls *atomic.Int32
	logs  *bytes.Buffer
	b     *Bridge
}

func setup(t *testing.T, payload string) fixture {
	t.Helper()
	clk := &clock{now: time.UnixMilli(1_700_000_000_000)}
	db := localstore.Open(context.Background(), filepath.Join(t.TempDir(), "cache.db"), localstore.WithClock(clk.Now))
	require.NoError(t, db.Err())
	t.Cleanup(func() { _ = db.Close() })

	cache, err := db.Store(context.Background(), Schema)
	require.NoError(t, err)

	calls := &atomic.Int32{}
	logs := &bytes.Buffer{}
	b, err := New(Config{
		RecordType: "countries",
		Cache:      cache,
		Parsers:    map[string]Parser{"countries": AnchorParser{Anchor: "cca2"}},
		Operations: map[string]Operation{
			"all": OperationFunc(func(ctx context.Context, args ...string) (string, error) {
				calls.Add(1)
				return payload, nil
			}),
		},
		TTL:    time.Hour,
		Clock:  clk.Now,
		Logger: logging.New(logs, "debug", "json"),
	})
	require.NoError(t, err)

	return fixture{cache: cache, clock: clk, calls: calls, logs: logs, b: b}
}

func allCountries() FetchParam {
	return FetchParam{Code: "countries:all", Call: Call{Operation: "all"}}
}

func TestNew_MissingCollaborators(t *testing.T) {
	ops := map[string]Operation{"x": OperationFunc(func(context.Context, ...string) (string, error) { return "", nil })}
	parsers := map[string]Parser{"countries": AnchorParser{Anchor: "cca2"}}
	cache := &nopCache{}

	tests := []Config{
		{RecordType: "countries", Parsers: parsers, Operations: ops},
		{RecordType: "countries", Cache: cache, Operations: ops},
		{RecordType: "cities", Cache: cache, Parsers: parsers, Operations: ops},
		{RecordType: "countries", Cache: cache, Parsers: parsers},
	}
	for _, cfg := range tests {
		_, err := New(cfg)
		assert.ErrorIs(t, err, common.ErrMissingCollaborator)
	}
}

func TestFetch_CacheFirstMakesNoExternalCall(t *testing.T) {
	f := setup(t, fivePayload)
	ctx := context.Background()

	w := models.NewPayloadWrapper("countries:all", `[{"cca2":"LV"}]`, f.clock.Now(), time.Hour)
	_, err := f.cache.Upsert(ctx, w.Record())
	require.NoError(t, err)

	got, err := f.b.Fetch(ctx, allCountries())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "LV", got[0].ID())
	assert.Zero(t, f.calls.Load())
}

func TestFetch_MissStoresWrapperThenHits(t *testing.T) {
	f := setup(t, fivePayload)
	ctx := context.Background()

	first, err := f.b.Fetch(ctx, allCountries())
	require.NoError(t, err)
	assert.Len(t, first, 4)
	assert.Equal(t, int32(1), f.calls.Load())

	stored, err := f.cache.GetOneByIndex(ctx, IndexByCode, localstore.Only("countries:all"))
	require.NoError(t, err)
	w := models.WrapperFromRecord(stored)
	assert.Equal(t, fivePayload, w.Response)
	assert.Equal(t, f.clock.Now().Add(time.Hour).UnixMilli(), w.ExpiredAt)

	second, err := f.b.Fetch(ctx, allCountries())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestFetch_ExpiredWrapperIsRefetched(t *testing.T) {
	f := setup(t, fivePayload)
	ctx := context.Background()

	_, err := f.b.Fetch(ctx, allCountries())
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.b.Fetch(ctx, allCountries())
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestFetch_ParserSkipsElementsWithoutAnchor(t *testing.T) {
	f := setup(t, fivePayload)

	got, err := f.b.Fetch(context.Background(), allCountries())
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID())
	}
	assert.Equal(t, []string{"LV", "EE", "LT", "FI"}, ids)
	assert.Equal(t, 1, strings.Count(f.logs.String(), "payload element skipped"))
}

func TestFetch_CustomIndexLookup(t *testing.T) {
	f := setup(t, fivePayload)
	ctx := context.Background()

	w := models.NewPayloadWrapper("countries:lv", `{"cca2":"LV"}`, f.clock.Now(), time.Hour)
	_, err := f.cache.Upsert(ctx, w.Record())
	require.NoError(t, err)

	got, err := f.b.Fetch(ctx, FetchParam{
		Code:       "countries:lv",
		CacheIndex: IndexByCode,
		CacheRange: localstore.Bound("countries:a", "countries:z", false, false),
		Call:       Call{Operation: "all"},
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Zero(t, f.calls.Load())

	_, err = f.b.Fetch(ctx, FetchParam{Code: "x", CacheIndex: "by_nothing", Call: Call{Operation: "all"}})
	assert.ErrorIs(t, err, common.ErrUnknownIndex)
}

func TestFetch_UnknownOperation(t *testing.T) {
	f := setup(t, fivePayload)
	_, err := f.b.Fetch(context.Background(), FetchParam{Code: "c", Call: Call{Operation: "nope"}})
	assert.ErrorIs(t, err, common.ErrMissingCollaborator)
}

func TestFetch_ExternalFailureYieldsEmpty(t *testing.T) {
	b, err := New(Config{
		RecordType: "countries",
		Cache:      &nopCache{},
		Parsers:    map[string]Parser{"countries": AnchorParser{Anchor: "cca2"}},
		Operations: map[string]Operation{"all": OperationFunc(func(context.Context, ...string) (string, error) {
			return "", common.ErrNetworkFailure
		})},
	})
	require.NoError(t, err)

	got, err := b.Fetch(context.Background(), allCountries())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetch_UnparseablePayloadYieldsEmpty(t *testing.T) {
	f := setup(t, `<html>`)
	got, err := f.b.Fetch(context.Background(), allCountries())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Contains(t, f.logs.String(), "payload not parseable")
}

func TestFetch_CancelledCallIsNotCached(t *testing.T) {
	f := setup(t, fivePayload)
	ctx, cancel := context.WithCancel(context.Background())

	b, err := New(Config{
		RecordType: "countries",
		Cache:      f.cache,
		Parsers:    map[string]Parser{"countries": AnchorParser{Anchor: "cca2"}},
		Operations: map[string]Operation{"all": OperationFunc(func(context.Context, ...string) (string, error) {
			cancel()
			return fivePayload, nil
		})},
	})
	require.NoError(t, err)

	_, err = b.Fetch(ctx, allCountries())
	require.ErrorIs(t, err, context.Canceled)

	n, err := f.cache.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGetAll_Unsupported(t *testing.T) {
	f := setup(t, fivePayload)
	_, err := f.b.GetAll(context.Background(), models.NewQuery())
	assert.ErrorIs(t, err, common.ErrUnsupportedBulkRead)
}

func TestInvalidate(t *testing.T) {
	f := setup(t, fivePayload)
	ctx := context.Background()

	_, err := f.b.Fetch(ctx, allCountries())
	require.NoError(t, err)
	require.NoError(t, f.b.Invalidate(ctx))

	_, err = f.b.Fetch(ctx, allCountries())
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
}

type nopCache struct{}

func (nopCache) GetByIndex(context.Context, string, localstore.KeyRange) ([]models.Record, error) {
	return nil, errors.New("unavailable")
}
func (nopCache) Upsert(_ context.Context, r models.Record) (models.Record, error) { return r, nil }
func (nopCache) Clear(context.Context) error                                      { return nil }
