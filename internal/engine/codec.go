package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

// maxSafeInteger is the largest integer JSON consumers can represent without
// precision loss (2^53 - 1). Anything beyond travels as a decimal string.
const maxSafeInteger = int64(1)<<53 - 1

// EncodeArgs marshals a call argument value to the JSON string the engine
// expects. Numeric values JSON cannot carry faithfully (big.Int, integers
// beyond 2^53) are converted to decimal strings recursively, through nested
// objects and arrays, before encoding.
func EncodeArgs(v any) (*string, error) {
	data, err := json.Marshal(stringifyBigNumbers(v))
	if err != nil {
		return nil, lanterr.Wrap(err, "encoding call arguments")
	}
	s := string(data)
	return &s, nil
}

// ParseResult decodes an engine call result per the channel contract:
// a missing result, a result decoding to null, and an undecodable result are
// each distinct errors. Oversized integers in the payload are preserved as
// decimal strings.
func ParseResult(method string, result *string) (any, error) {
	if result == nil {
		return nil, lanterr.Wrap(lanterr.ErrNoResult, "%s returned no result", method)
	}

	dec := json.NewDecoder(strings.NewReader(*result))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, lanterr.Wrap(lanterr.ErrEngineCallFailed,
			"failed to parse result from %s: %v", method, err)
	}
	if v == nil {
		return nil, lanterr.Wrap(lanterr.ErrEngineCallFailed,
			"parsed result is null or undefined")
	}

	return normalizeNumbers(v), nil
}

// ParseResultInto decodes an engine call result into out, with the same
// error contract as ParseResult.
func ParseResultInto(method string, result *string, out any) error {
	if result == nil {
		return lanterr.Wrap(lanterr.ErrNoResult, "%s returned no result", method)
	}

	// Reject a JSON null before decoding: it would leave out untouched and
	// silently hand the caller a zero value.
	trimmed := strings.TrimSpace(*result)
	if trimmed == "" || trimmed == "null" {
		return lanterr.Wrap(lanterr.ErrEngineCallFailed,
			"parsed result is null or undefined")
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(*result)))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return lanterr.Wrap(lanterr.ErrEngineCallFailed,
			"failed to parse result from %s: %v", method, err)
	}
	return nil
}

// stringifyBigNumbers walks v converting values JSON cannot represent
// faithfully into decimal strings.
func stringifyBigNumbers(v any) any {
	switch t := v.(type) {
	case *big.Int:
		if t == nil {
			return nil
		}
		return t.String()
	case big.Int:
		return t.String()
	case uint64:
		if t > uint64(maxSafeInteger) {
			return fmt.Sprintf("%d", t)
		}
		return t
	case int64:
		if t > maxSafeInteger || t < -maxSafeInteger {
			return fmt.Sprintf("%d", t)
		}
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = stringifyBigNumbers(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = stringifyBigNumbers(val)
		}
		return out
	default:
		return v
	}
}

// normalizeNumbers walks a decoded payload converting each json.Number to
// int64 or float64 when safely representable and to its decimal string
// otherwise.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		return normalizeNumber(t)
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeNumbers(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = normalizeNumbers(val)
		}
		return t
	default:
		return v
	}
}

func normalizeNumber(n json.Number) any {
	if !strings.ContainsAny(n.String(), ".eE") {
		i, err := n.Int64()
		if err != nil || i > maxSafeInteger || i < -maxSafeInteger {
			return n.String()
		}
		return i
	}
	f, err := n.Float64()
	if err != nil {
		return n.String()
	}
	return f
}
