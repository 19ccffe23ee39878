package models

import "time"

// Payload wrapper fields as stored in the bridge store.
const (
	FieldCode     = "code"
	FieldResponse = "response"
)

// PayloadWrapper holds the raw, opaque response of a third-party call.
// It is persisted like any other record (id = Code) so that the standard
// expiry exclusion applies to it.
type PayloadWrapper struct {
	Code      string
	Response  string
	ExpiredAt int64
}

// NewPayloadWrapper wraps response with an expiry ttl after now.
func NewPayloadWrapper(code, response string, now time.Time, ttl time.Duration) PayloadWrapper {
	return PayloadWrapper{Code: code, Response: response, ExpiredAt: now.Add(ttl).UnixMilli()}
}

// Record converts the wrapper to its stored form.
func (w PayloadWrapper) Record() Record {
	r := Record{
		FieldID:       w.Code,
		FieldCode:     w.Code,
		FieldResponse: w.Response,
	}
	if w.ExpiredAt != 0 {
		r[FieldExpiredAt] = w.ExpiredAt
	}
	return r
}

// WrapperFromRecord reads a stored wrapper back.
func WrapperFromRecord(r Record) PayloadWrapper {
	code := r.String(FieldCode)
	if code == "" {
		code = r.ID()
	}
	exp, _ := r.ExpiredAt()
	return PayloadWrapper{Code: code, Response: r.String(FieldResponse), ExpiredAt: exp}
}
