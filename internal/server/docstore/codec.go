package docstore

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// encodeDoc turns doc into a JSON object without its identifier. A fresh
// UUID is assigned when doc carries no identifier.
func encodeDoc(doc any) (string, map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", nil, err
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", nil, fmt.Errorf("docstore: document must encode to a JSON object: %w", err)
	}

	id, _ := body[jsonIDKey].(string)
	if id == "" {
		id = uuid.NewString()
	}
	delete(body, jsonIDKey)
	return id, body, nil
}

// decodeDoc rebuilds a T from a stored body, keeping only projection
// fields when a projection is given.
func decodeDoc[T any](id string, body map[string]any, projection []string) (T, error) {
	var out T

	m := body
	if len(projection) > 0 {
		m = make(map[string]any, len(projection)+1)
		for _, f := range projection {
			if v, ok := body[f]; ok {
				m[f] = v
			}
		}
	} else {
		m = make(map[string]any, len(body)+1)
		for k, v := range body {
			m[k] = v
		}
	}
	m[jsonIDKey] = id

	raw, err := json.Marshal(m)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

// normalize maps a Go value onto its JSON representation so it can be
// compared with decoded documents.
func normalize(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}
