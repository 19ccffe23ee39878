package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/admindata/internal/common"
	"github.com/dmitrijs2005/admindata/internal/models"
)

// Parser turns a raw payload into typed records. A parser that drops some
// elements returns the kept records together with a *SkipError.
type Parser interface {
	Parse(ctx context.Context, w models.PayloadWrapper) ([]models.Record, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(ctx context.Context, w models.PayloadWrapper) ([]models.Record, error)

func (f ParserFunc) Parse(ctx context.Context, w models.PayloadWrapper) ([]models.Record, error) {
	return f(ctx, w)
}

// SkipError lists payload elements a parser dropped.
type SkipError struct {
	Skipped []error
}

func (e *SkipError) Error() string {
	msgs := make([]string, 0, len(e.Skipped))
	for _, err := range e.Skipped {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d element(s) skipped: %s", len(e.Skipped), strings.Join(msgs, "; "))
}

func (e *SkipError) Unwrap() error { return common.ErrParseFailure }

// AnchorParser decodes a JSON array (or the array under ListKey, or a single
// object) and keeps the elements that carry Anchor. Elements without an id
// get the anchor value as id.
type AnchorParser struct {
	Anchor  string
	ListKey string

	// Transform maps a decoded element to the entity record. An error skips
	// the element.
	Transform func(models.Record) (models.Record, error)
}

func (p AnchorParser) Parse(_ context.Context, w models.PayloadWrapper) ([]models.Record, error) {
	elements, err := p.elements([]byte(w.Response))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrParseFailure, w.Code, err)
	}

	out := make([]models.Record, 0, len(elements))
	var skipped []error
	for i, raw := range elements {
		r, err := p.element(raw)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("%w: element %d: %w", common.ErrParseFailure, i, err))
			continue
		}
		out = append(out, r)
	}

	if len(skipped) > 0 {
		return out, &SkipError{Skipped: skipped}
	}
	return out, nil
}

func (p AnchorParser) elements(payload []byte) ([]json.RawMessage, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty payload")
	}

	if p.ListKey != "" {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(payload, &obj); err != nil {
			return nil, err
		}
		list, ok := obj[p.ListKey]
		if !ok {
			return nil, fmt.Errorf("list key %q not found", p.ListKey)
		}
		payload = list
	}

	if payload[0] == '{' {
		return []json.RawMessage{payload}, nil
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(payload, &elements); err != nil {
		return nil, err
	}
	return elements, nil
}

func (p AnchorParser) element(raw json.RawMessage) (models.Record, error) {
	r, err := models.DecodeRecord(raw)
	if err != nil {
		return nil, err
	}
	anchor, ok := r[p.Anchor]
	if !ok || anchor == nil || anchor == "" {
		return nil, fmt.Errorf("missing anchor field %q", p.Anchor)
	}

	if p.Transform != nil {
		if r, err = p.Transform(r); err != nil {
			return nil, err
		}
	}
	if r.ID() == "" {
		r.SetID(fmt.Sprint(anchor))
	}
	return r, nil
}
