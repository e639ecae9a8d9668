// Package payload wraps a provider response as a loosely-typed JSON tree.
// Only the top level is validated; every deeper field is optional.
package payload

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

var ErrMalformed = errors.New("malformed response payload")

// Document is a parsed provider response together with the bytes it came from.
type Document struct {
	Raw  []byte
	Root Object
}

// Parse requires body to be a single JSON object.
func Parse(body []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.Wrap(ErrMalformed, "trailing data after json value")
	}
	root, ok := v.(map[string]any)
	if !ok {
		return nil, errors.Wrapf(ErrMalformed, "expected json object, got %s", kind(v))
	}
	return &Document{Raw: body, Root: Object(root)}, nil
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "bool"
	default:
		return "unknown"
	}
}
