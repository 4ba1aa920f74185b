// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package jsbridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// maxCallArgs is the largest number of positional arguments a call may carry.
// Wider calls should pack their values into a single struct argument.
const maxCallArgs = 5

// int64Bound is 2^63 as a float64. The exact int64 range is [-2^63, 2^63).
const int64Bound = 9.223372036854775808e18

// encodeArgs serializes each argument to JSON and joins them with commas,
// producing the argument list text spliced into an invocation script.
func encodeArgs(args []any) (string, error) {
	if len(args) > maxCallArgs {
		return "", &EncodeError{
			Index: maxCallArgs,
			Err:   fmt.Errorf("at most %d arguments are supported, pack extra values into a struct", maxCallArgs),
		}
	}
	var b strings.Builder
	for i, arg := range args {
		data, err := json.Marshal(arg)
		if err != nil {
			return "", &EncodeError{Index: i, Err: err}
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(data)
	}
	return b.String(), nil
}

// SanitizeNumber rewrites every number in raw that has a zero fractional part
// as a plain integer, so that engine results like 4.0 decode into Go integer
// types. Unsigned values above the int64 range are rejected. The function is
// idempotent: applying it to already sanitized text changes nothing.
func SanitizeNumber(raw json.RawMessage) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("sanitize: %w", err)
	}
	sv, err := sanitizeValue(v)
	if err != nil {
		return nil, fmt.Errorf("sanitize: %w", err)
	}
	out, err := json.Marshal(sv)
	if err != nil {
		return nil, fmt.Errorf("sanitize: %w", err)
	}
	return out, nil
}

func sanitizeValue(v any) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		for k, elem := range x {
			sv, err := sanitizeValue(elem)
			if err != nil {
				return nil, err
			}
			x[k] = sv
		}
		return x, nil
	case []any:
		for i, elem := range x {
			sv, err := sanitizeValue(elem)
			if err != nil {
				return nil, err
			}
			x[i] = sv
		}
		return x, nil
	case json.Number:
		return sanitizeNumber(x)
	default:
		return v, nil
	}
}

func sanitizeNumber(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	// Beyond int64 but a valid unsigned integer: the value cannot be
	// down-cast, reject it rather than silently losing precision.
	if _, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return nil, fmt.Errorf("number %s overflows int64", n.String())
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", n.String())
	}
	if f >= -int64Bound && f < int64Bound && f == float64(int64(f)) {
		return int64(f), nil
	}
	// Fractional, or integral but outside the exact int64 range.
	return f, nil
}

// decodeInto unmarshals sanitized result JSON into dst, reporting type
// mismatches as CallDecode errors that name the expected Go type.
func decodeInto(raw json.RawMessage, dst any, function string) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		want := "value"
		if t := reflect.TypeOf(dst); t != nil && t.Kind() == reflect.Pointer {
			want = t.Elem().String()
		}
		return &CallError{
			Kind:     CallDecode,
			Function: function,
			Message:  fmt.Sprintf("cannot decode result %s into %s", raw, want),
			Err:      err,
		}
	}
	return nil
}
