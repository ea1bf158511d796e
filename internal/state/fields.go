package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
)

// Options tunes strictness of parsing and validation.
type Options struct {
	// AllowEmpty accepts an empty collection.
	AllowEmpty bool
	// RequireImages demands images.urls on every POI.
	RequireImages bool
}

// DecodeJSON turns untrusted text into the generic tree consumed by the codec.
// Numbers stay json.Number so out-of-range values become field violations.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if err := dec.Decode(new(any)); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode json: unexpected data after top-level value")
	}
	return raw, nil
}

func at(prefix string, i int) string {
	return fmt.Sprintf("%s[%d]", prefix, i)
}

func field(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func requiredString(obj map[string]any, key, path string, v *violations) string {
	s, ok := obj[key].(string)
	if !ok || s == "" {
		v.add(field(path, key), "is required")
		return ""
	}
	return s
}

// optionalString drops values of the wrong type.
func optionalString(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// number accepts finite JSON numbers only; booleans are not numbers.
func number(val any) (float64, bool) {
	var f float64
	switch n := val.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
