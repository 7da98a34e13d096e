// Copyright (c) 2025 CertNode
//
// This file is part of certnode-go.
//
// Licensed under the Apache License, Version 2.0.
// See the LICENSE file for details.

// Package canonical produces the deterministic byte encoding of JSON
// value trees that feeds receipt signing inputs and payload digests.
//
// The encoding is JCS-flavored (RFC 8785) with one deliberate
// difference that every CertNode implementation must reproduce: object
// members whose value is null are dropped, at every nesting level.
// Null elements inside arrays are preserved. Interoperability depends
// on matching this behavior exactly, so it must never be "corrected"
// to strict JCS.
package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/certnode/certnode-go/pkg/encoding"
)

// ErrNonFinite is returned when a number in the value tree is NaN or
// infinite. JSON has no representation for these values.
var ErrNonFinite = errors.New("canonical: number is NaN or infinite")

// Canonicalize converts a JSON-compatible value tree into its
// deterministic byte encoding. Two semantically equal trees produce
// identical output regardless of member ordering.
//
// Accepted leaf types are the ones produced by encoding/json: nil,
// bool, string, float64, json.Number, []any, and map[string]any.
// Integers and structs are normalized through a JSON round trip first.
func Canonicalize(v any) ([]byte, error) {
	buf, err := appendValue(nil, v)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Digest returns the unpadded base64url SHA-256 digest of the
// canonical encoding of v. This is the payload_jcs_sha256 primitive.
func Digest(v any) (string, error) {
	data, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	return encoding.DigestBase64URL(data), nil
}

func appendValue(b []byte, v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return append(b, "null"...), nil
	case bool:
		if t {
			return append(b, "true"...), nil
		}
		return append(b, "false"...), nil
	case string:
		return appendString(b, t), nil
	case float64:
		return appendFloat(b, t)
	case float32:
		return appendFloat(b, float64(t))
	case int:
		return strconv.AppendInt(b, int64(t), 10), nil
	case int32:
		return strconv.AppendInt(b, int64(t), 10), nil
	case int64:
		return strconv.AppendInt(b, t, 10), nil
	case uint64:
		return strconv.AppendUint(b, t, 10), nil
	case json.Number:
		return appendNumber(b, t)
	case []any:
		return appendArray(b, t)
	case map[string]any:
		return appendObject(b, t)
	default:
		normalized, err := normalize(v)
		if err != nil {
			return nil, err
		}
		return appendValue(b, normalized)
	}
}

func appendArray(b []byte, values []any) ([]byte, error) {
	var err error
	b = append(b, '[')
	for i, v := range values {
		if i > 0 {
			b = append(b, ',')
		}
		// Array slots keep their null elements.
		b, err = appendValue(b, v)
		if err != nil {
			return nil, err
		}
	}
	return append(b, ']'), nil
}

func appendObject(b []byte, obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		if obj[k] == nil {
			// Null members are dropped at every nesting level.
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var err error
	b = append(b, '{')
	for i, k := range keys {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendString(b, k)
		b = append(b, ':')
		b, err = appendValue(b, obj[k])
		if err != nil {
			return nil, err
		}
	}
	return append(b, '}'), nil
}

// appendNumber emits a json.Number. Integer literals pass through
// verbatim so arbitrary-precision integers survive; everything else is
// normalized through the float formatter.
func appendNumber(b []byte, n json.Number) ([]byte, error) {
	s := n.String()
	if isIntegerLiteral(s) {
		return append(b, s...), nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("canonical: invalid number %q: %w", s, err)
	}
	return appendFloat(b, f)
}

func isIntegerLiteral(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '-' && i == 0 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// appendFloat formats a float the way encoding/json does: the shortest
// decimal form that round-trips, switching to scientific notation
// outside [1e-6, 1e21) and trimming the leading zero from two-digit
// exponents.
func appendFloat(b []byte, f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, ErrNonFinite
	}
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	b = strconv.AppendFloat(b, f, format, -1, 64)
	if format == 'e' {
		if n := len(b); n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}
	return b, nil
}

const hexDigits = "0123456789abcdef"

// appendString emits a JSON string with the minimal standard escapes.
// Non-ASCII characters are written as literal UTF-8, never \uXXXX.
func appendString(b []byte, s string) []byte {
	b = append(b, '"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch {
			case c == '"':
				b = append(b, '\\', '"')
			case c == '\\':
				b = append(b, '\\', '\\')
			case c == '\b':
				b = append(b, '\\', 'b')
			case c == '\f':
				b = append(b, '\\', 'f')
			case c == '\n':
				b = append(b, '\\', 'n')
			case c == '\r':
				b = append(b, '\\', 'r')
			case c == '\t':
				b = append(b, '\\', 't')
			case c < 0x20:
				b = append(b, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
			default:
				b = append(b, c)
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b = utf8.AppendRune(b, utf8.RuneError)
			i++
			continue
		}
		b = append(b, s[i:i+size]...)
		i += size
	}
	return append(b, '"')
}

// normalize round-trips an arbitrary Go value through JSON so structs,
// typed maps, and integer slices collapse into the canonical leaf
// types. HTML escaping is disabled to keep the intermediate form
// byte-transparent.
func normalize(v any) (any, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("canonical: unsupported value: %w", err)
	}
	dec := json.NewDecoder(&buf)
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("canonical: normalize: %w", err)
	}
	return out, nil
}
