package models

import (
	"bytes"
	"encoding/json"
)

func unmarshalUseNumber(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// DecodeRecords unmarshals a JSON array of objects keeping numbers exact.
func DecodeRecords(data []byte) ([]Record, error) {
	var rs []Record
	if err := unmarshalUseNumber(data, &rs); err != nil {
		return nil, err
	}
	return rs, nil
}
