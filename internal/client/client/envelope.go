package client

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/admindata/internal/common"
	"github.com/dmitrijs2005/admindata/internal/models"
)

// Status is the status block of a response envelope.
type Status struct {
	Code    int  `json:"code"`
	Success bool `json:"success"`
}

// Envelope is the optional wrapper some endpoints put around results.
type Envelope struct {
	Status   *Status           `json:"status"`
	Elements []json.RawMessage `json:"elements"`
}

// decodeRecords accepts a bare array, a single object or an envelope.
func decodeRecords(body []byte) ([]models.Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []models.Record{}, nil
	}

	switch trimmed[0] {
	case '[':
		rs, err := models.DecodeRecords(trimmed)
		if err != nil {
			return nil, parseError(err)
		}
		return nonNil(rs), nil
	case '{':
		return decodeObject(trimmed)
	default:
		return nil, parseError(fmt.Errorf("unexpected payload %q", truncate(trimmed)))
	}
}

func decodeObject(body []byte) ([]models.Record, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, parseError(err)
	}
	_, hasStatus := probe["status"]
	_, hasElements := probe["elements"]
	if !hasElements || !hasStatus {
		r, err := models.DecodeRecord(body)
		if err != nil {
			return nil, parseError(err)
		}
		return []models.Record{r}, nil
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, parseError(err)
	}
	if env.Status != nil && !env.Status.Success {
		return nil, fmt.Errorf("%w: %w: envelope status %d", common.ErrNetworkFailure, common.ErrUnavailable, env.Status.Code)
	}

	out := make([]models.Record, 0, len(env.Elements))
	for _, raw := range env.Elements {
		r, err := models.DecodeRecord(raw)
		if err != nil {
			return nil, parseError(err)
		}
		out = append(out, r)
	}
	return out, nil
}

// requireIDs rejects listed records without an id. They cannot be matched
// against the cache, so writing them through would mint a new id per fetch.
func requireIDs(records []models.Record) error {
	for i, r := range records {
		if r.ID() == "" {
			return parseError(fmt.Errorf("element %d has no %s", i, models.FieldID))
		}
	}
	return nil
}

func parseError(err error) error {
	return fmt.Errorf("%w: %w: %w", common.ErrNetworkFailure, common.ErrParseFailure, err)
}

func nonNil(rs []models.Record) []models.Record {
	if rs == nil {
		return []models.Record{}
	}
	return rs
}

func truncate(b []byte) string {
	if len(b) > 40 {
		return string(b[:40]) + "..."
	}
	return string(b)
}
