package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Page is the backend's paginated envelope.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// DecodePage decodes either a plain JSON array or a paginated envelope. A
// plain array becomes a single page holding every element.
func DecodePage[T any](data []byte) (*Page[T], error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &Page[T]{Results: []T{}}, nil
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return &Page[T]{Count: len(items), Results: items}, nil
	case '{':
		var p Page[T]
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nil, err
		}
		if p.Results == nil {
			p.Results = []T{}
		}
		return &p, nil
	default:
		return nil, fmt.Errorf("unexpected list payload starting with %q", trimmed[0])
	}
}

// DecodeList is DecodePage without the envelope.
func DecodeList[T any](data []byte) ([]T, error) {
	p, err := DecodePage[T](data)
	if err != nil {
		return nil, err
	}
	return p.Results, nil
}
