package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Marshal encodes doc as a JSON object.
func Marshal(doc Document) ([]byte, error) {
	b, err := json.Marshal(map[string]any(doc))
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return b, nil
}

// Unmarshal decodes a JSON object into a normalized Document.
// Integral numbers decode as int64, the rest as float64.
func Unmarshal(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.New("unmarshal document: not a JSON object")
	}
	v, err := Normalize(obj)
	if err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return v.(map[string]any), nil
}
