/*
Copyright 2024 the restbind authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package wire

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/boynton/data"
	"github.com/restbind/api/model"
)

// CodecError - a value could not be rendered into or parsed from its textual
// wire form, attributed to the member involved when known.
type CodecError struct {
	Member string
	Reason string
}

func (e *CodecError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("codec: %s: %s", e.Member, e.Reason)
	}
	return "codec: " + e.Reason
}

func codecErrf(member, format string, args ...interface{}) error {
	return &CodecError{Member: member, Reason: fmt.Sprintf(format, args...)}
}

const httpDateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// The stdlib url escapers leave RFC 3986 sub-delims like ':' and '$'
// unescaped in path segments. Labels must round-trip byte-exact when the
// rendered path is re-split, so everything outside the unreserved set is
// escaped here.
func isUnreserved(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') || c == '-' || c == '_' || c == '.' || c == '~'
}

func percentEncode(s string, keepSlash bool) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || (keepSlash && c == '/') {
			sb.WriteByte(c)
		} else {
			sb.WriteString(fmt.Sprintf("%%%02X", c))
		}
	}
	return sb.String()
}

// EscapePathSegment percent-encodes a value for use as a single path
// segment. '/' is escaped, so "somebucket/ok" becomes "somebucket%2Fok".
func EscapePathSegment(s string) string {
	return percentEncode(s, false)
}

// EscapeGreedyPath percent-encodes a value for a greedy URI label: each
// segment is escaped but '/' separators are kept.
func EscapeGreedyPath(s string) string {
	return percentEncode(s, true)
}

// EscapeQueryComponent percent-encodes a query parameter name or value.
func EscapeQueryComponent(s string) string {
	return percentEncode(s, false)
}

// FormatTimestamp renders t in one of the selectable wire formats.
func FormatTimestamp(t time.Time, format string) (string, error) {
	switch format {
	case model.FormatEpochSeconds:
		t = t.UTC()
		if t.Nanosecond() == 0 {
			return strconv.FormatInt(t.Unix(), 10), nil
		}
		secs := float64(t.UnixMilli()) / 1000.0
		return strconv.FormatFloat(secs, 'f', -1, 64), nil
	case model.FormatDateTime:
		return t.UTC().Format("2006-01-02T15:04:05Z"), nil
	case model.FormatHttpDate:
		return t.UTC().Format(httpDateFormat), nil
	default:
		return "", codecErrf("", "unknown timestamp format %q", format)
	}
}

// ParseTimestamp is the inverse of FormatTimestamp.
func ParseTimestamp(s, format string) (time.Time, error) {
	switch format {
	case model.FormatEpochSeconds:
		secs, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, codecErrf("", "bad epoch-seconds timestamp %q", s)
		}
		ms := int64(secs * 1000.0)
		return time.UnixMilli(ms).UTC(), nil
	case model.FormatDateTime:
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, codecErrf("", "bad date-time timestamp %q", s)
		}
		return t.UTC(), nil
	case model.FormatHttpDate:
		t, err := time.Parse(httpDateFormat, s)
		if err != nil {
			t, err = time.Parse(time.RFC1123, s)
		}
		if err != nil {
			return time.Time{}, codecErrf("", "bad http-date timestamp %q", s)
		}
		return t.UTC(), nil
	default:
		return time.Time{}, codecErrf("", "unknown timestamp format %q", format)
	}
}

// FormatScalar renders a scalar value into its canonical textual wire form.
// tsFormat must already be resolved to a concrete timestamp format by the
// binding resolver. The text is not yet percent-encoded; escaping is the
// caller's per-location concern.
func FormatScalar(schema *model.Schema, typeRef model.AbsoluteIdentifier, value interface{}, tsFormat string) (string, error) {
	bt := schema.BaseType(typeRef)
	switch bt {
	case model.String, model.Enum:
		if s, ok := value.(string); ok {
			return s, nil
		}
	case model.Bool:
		if b, ok := value.(bool); ok {
			if b {
				return "true", nil
			}
			return "false", nil
		}
	case model.Int8, model.Int16, model.Int32, model.Int64, model.Integer:
		switch n := value.(type) {
		case int64:
			return strconv.FormatInt(n, 10), nil
		case int:
			return strconv.Itoa(n), nil
		case int32:
			return strconv.FormatInt(int64(n), 10), nil
		case float64:
			return strconv.FormatInt(int64(n), 10), nil
		}
	case model.Float32, model.Float64:
		switch n := value.(type) {
		case float64:
			return strconv.FormatFloat(n, 'g', -1, 64), nil
		case float32:
			return strconv.FormatFloat(float64(n), 'g', -1, 32), nil
		case int64:
			return strconv.FormatInt(n, 10), nil
		case int:
			return strconv.Itoa(n), nil
		}
	case model.Decimal:
		if d, ok := value.(*data.Decimal); ok {
			return d.String(), nil
		}
	case model.Timestamp:
		if t, ok := value.(time.Time); ok {
			return FormatTimestamp(t, tsFormat)
		}
	case model.Blob:
		if b, ok := value.([]byte); ok {
			return base64.StdEncoding.EncodeToString(b), nil
		}
	default:
		return "", codecErrf("", "shape %s (%s) has no textual wire form", typeRef, bt)
	}
	return "", codecErrf("", "value %v cannot be rendered as %s", value, typeRef)
}

// ParseScalar is the inverse of FormatScalar.
func ParseScalar(schema *model.Schema, typeRef model.AbsoluteIdentifier, text string, tsFormat string) (interface{}, error) {
	bt := schema.BaseType(typeRef)
	switch bt {
	case model.String, model.Enum:
		return text, nil
	case model.Bool:
		switch text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, codecErrf("", "bad boolean %q", text)
	case model.Int8, model.Int16, model.Int32, model.Int64, model.Integer:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, codecErrf("", "bad integer %q", text)
		}
		return n, nil
	case model.Float32, model.Float64:
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, codecErrf("", "bad float %q", text)
		}
		return n, nil
	case model.Decimal:
		d, err := data.ParseDecimal(text)
		if err != nil {
			return nil, codecErrf("", "bad decimal %q", text)
		}
		return d, nil
	case model.Timestamp:
		return ParseTimestamp(text, tsFormat)
	case model.Blob:
		b, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, codecErrf("", "bad base64 blob")
		}
		return b, nil
	default:
		return nil, codecErrf("", "shape %s (%s) has no textual wire form", typeRef, bt)
	}
}

// CheckHeaderValue rejects values that cannot legally travel in a header.
// Headers carry raw UTF-8 with no percent-encoding, so only control
// characters are refused.
func CheckHeaderValue(name, value string) error {
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c < 0x20 || c == 0x7f {
			return codecErrf(name, "header value contains control character 0x%02x", c)
		}
	}
	return nil
}

// SplitHeaderList splits a comma-joined header value back into its items.
// http-date items themselves contain a comma after the weekday, so those are
// re-paired before returning.
func SplitHeaderList(value string, httpDates bool) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if !httpDates {
		return parts
	}
	var out []string
	for i := 0; i+1 < len(parts); i += 2 {
		out = append(out, parts[i]+", "+parts[i+1])
	}
	if len(parts)%2 != 0 {
		out = append(out, parts[len(parts)-1])
	}
	return out
}
