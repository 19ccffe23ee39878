// Package bridge adapts read-only third-party APIs into entity records, using
// the local store as a cache in front of them.
//
// Raw responses are kept as opaque payload wrappers {code, response,
// expiredAt} in a dedicated store (see Schema). Fetch first looks the wrapper
// up through an index; a live wrapper is parsed without any external call.
// On a miss the named Operation is invoked, its result is stored with a fresh
// expiry, and the registered Parser turns it into records. Malformed elements
// are skipped and logged one by one.
//
// Two concurrent misses for the same code may both call the external API;
// both write the same wrapper.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/admindata/internal/client/localstore"
	"github.com/dmitrijs2005/admindata/internal/common"
	"github.com/dmitrijs2005/admindata/internal/logging"
	"github.com/dmitrijs2005/admindata/internal/metrics"
	"github.com/dmitrijs2005/admindata/internal/models"
)

// StoreName is the store holding payload wrappers.
const StoreName = "bridge_payloads"

// IndexByCode looks wrappers up by code.
const IndexByCode = "by_code"

// Schema declares the wrapper store.
var Schema = localstore.Schema{
	Name:    StoreName,
	Indexes: []localstore.IndexDef{{Name: IndexByCode, Field: models.FieldCode}},
}

const defaultTTL = 24 * time.Hour

// Cache is the part of the local store the bridge needs.
type Cache interface {
	GetByIndex(ctx context.Context, index string, kr localstore.KeyRange) ([]models.Record, error)
	Upsert(ctx context.Context, r models.Record) (models.Record, error)
	Clear(ctx context.Context) error
}

// Config wires a Bridge. Parsers and Operations are static registries
// resolved once by New.
type Config struct {
	RecordType string
	Cache      Cache
	Parsers    map[string]Parser
	Operations map[string]Operation
	TTL        time.Duration
	Logger     logging.Logger
	Metrics    *metrics.Metrics
	Clock      func() time.Time
}

// Call names the external operation and its positional arguments.
type Call struct {
	Operation string
	Args      []string
}

// FetchParam describes one bridge read. Code identifies the payload; when
// CacheIndex is empty the wrapper is looked up by code.
type FetchParam struct {
	Code       string
	CacheIndex string
	CacheRange localstore.KeyRange
	Call       Call
}

type Bridge struct {
	recordType string
	cache      Cache
	parser     Parser
	operations map[string]Operation
	ttl        time.Duration
	now        func() time.Time
	logger     logging.Logger
	metrics    *metrics.Metrics
}

func New(cfg Config) (*Bridge, error) {
	if cfg.Cache == nil {
		return nil, fmt.Errorf("%w: bridge cache", common.ErrMissingCollaborator)
	}
	parser, ok := cfg.Parsers[cfg.RecordType]
	if !ok || parser == nil {
		return nil, fmt.Errorf("%w: no parser registered for %q", common.ErrMissingCollaborator, cfg.RecordType)
	}
	if len(cfg.Operations) == 0 {
		return nil, fmt.Errorf("%w: no operations registered for %q", common.ErrMissingCollaborator, cfg.RecordType)
	}

	b := &Bridge{
		recordType: cfg.RecordType,
		cache:      cfg.Cache,
		parser:     parser,
		operations: make(map[string]Operation, len(cfg.Operations)),
		ttl:        cfg.TTL,
		now:        cfg.Clock,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
	for name, op := range cfg.Operations {
		b.operations[name] = op
	}
	if b.ttl <= 0 {
		b.ttl = defaultTTL
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.logger == nil {
		b.logger = logging.Discard()
	}
	b.logger = b.logger.With("module", "bridge", "record_type", cfg.RecordType)
	return b, nil
}

// Fetch returns the records of the payload identified by p, calling the
// external operation only when no live wrapper is cached.
func (b *Bridge) Fetch(ctx context.Context, p FetchParam) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	op, ok := b.operations[p.Call.Operation]
	if !ok {
		return nil, fmt.Errorf("%w: operation %q", common.ErrMissingCollaborator, p.Call.Operation)
	}

	cached, err := b.lookup(ctx, p)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		b.logger.Debug(ctx, "payload served from cache", "code", cached.Code)
		b.metrics.BridgeFetch(b.recordType, metrics.SourceCache)
		return b.parse(ctx, *cached), nil
	}

	raw, err := op.Invoke(ctx, p.Call.Args...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		b.logger.Warn(ctx, "external call failed", "operation", p.Call.Operation, "code", p.Code, "error", err)
		return []models.Record{}, nil
	}
	b.metrics.BridgeFetch(b.recordType, metrics.SourceRemote)

	w := models.NewPayloadWrapper(p.Code, raw, b.now(), b.ttl)
	if _, err := b.cache.Upsert(ctx, w.Record()); err != nil {
		b.logger.Warn(ctx, "payload not cached", "code", p.Code, "error", err)
	}
	return b.parse(ctx, w), nil
}

// GetAll is not supported: the upstream APIs give no listing guarantee.
func (b *Bridge) GetAll(context.Context, models.Query) ([]models.Record, error) {
	return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedBulkRead, b.recordType)
}

// Invalidate drops every cached payload.
func (b *Bridge) Invalidate(ctx context.Context) error {
	return b.cache.Clear(ctx)
}

func (b *Bridge) lookup(ctx context.Context, p FetchParam) (*models.PayloadWrapper, error) {
	index, kr := p.CacheIndex, p.CacheRange
	if index == "" {
		index, kr = IndexByCode, localstore.Only(p.Code)
	}

	records, err := b.cache.GetByIndex(ctx, index, kr)
	switch {
	case errors.Is(err, common.ErrUnknownIndex), errors.Is(err, common.ErrInvalidQuery):
		return nil, err
	case err != nil:
		b.logger.Warn(ctx, "payload cache unavailable", "error", err)
		return nil, nil
	}

	now := b.now()
	for _, r := range records {
		w := models.WrapperFromRecord(r)
		if w.Response != "" && r.IsLive(now) {
			return &w, nil
		}
	}
	return nil, nil
}

func (b *Bridge) parse(ctx context.Context, w models.PayloadWrapper) []models.Record {
	records, err := b.parser.Parse(ctx, w)

	var skip *SkipError
	switch {
	case err == nil:
	case errors.As(err, &skip):
		for _, e := range skip.Skipped {
			b.logger.Warn(ctx, "payload element skipped", "code", w.Code, "error", e)
		}
		b.metrics.ParseSkip(b.recordType, len(skip.Skipped))
	default:
		b.logger.Error(ctx, "payload not parseable", "code", w.Code, "error", err)
		return []models.Record{}
	}

	if records == nil {
		return []models.Record{}
	}
	return records
}
