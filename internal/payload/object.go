package payload

import (
	"encoding/json"
	"strconv"
)

// Object is one JSON object of the response. A nil Object behaves as empty.
type Object map[string]any

// Object returns the nested object under key, or an empty one.
func (o Object) Object(key string) Object {
	if m, ok := o[key].(map[string]any); ok {
		return Object(m)
	}
	return Object{}
}

// Objects returns the object items of the array under key. Anything that is
// not an object is skipped.
func (o Object) Objects(key string) []Object {
	arr, ok := o[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Object, 0, len(arr))
	for _, it := range arr {
		if m, ok := it.(map[string]any); ok {
			out = append(out, Object(m))
		}
	}
	return out
}

// String returns a present scalar as text. null and "" are absent.
func (o Object) String(key string) (string, bool) {
	var s string
	switch v := o[key].(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(v)
	default:
		return "", false
	}
	if s == "" {
		return "", false
	}
	return s, true
}

// Accessor is one attempt to read a logical field.
type Accessor func(Object) (string, bool)

// Field reads key from the object itself.
func Field(key string) Accessor {
	return func(o Object) (string, bool) { return o.String(key) }
}

// Path reads a field nested under the given object keys, e.g. Path("service", "serviceBarCode").
func Path(keys ...string) Accessor {
	return func(o Object) (string, bool) {
		if len(keys) == 0 {
			return "", false
		}
		cur := o
		for _, k := range keys[:len(keys)-1] {
			cur = cur.Object(k)
		}
		return cur.String(keys[len(keys)-1])
	}
}

// Chain is an ordered list of accessors; the first present value wins.
type Chain []Accessor

func (c Chain) Lookup(o Object) (string, bool) {
	for _, a := range c {
		if v, ok := a(o); ok {
			return v, true
		}
	}
	return "", false
}

// Ptr returns nil when no accessor yields a value.
func (c Chain) Ptr(o Object) *string {
	v, ok := c.Lookup(o)
	if !ok {
		return nil
	}
	return &v
}

// Or returns def when no accessor yields a value.
func (c Chain) Or(o Object, def string) string {
	if v, ok := c.Lookup(o); ok {
		return v
	}
	return def
}
