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
	"testing"
	"time"

	"github.com/boynton/data"
	"github.com/restbind/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapePathSegment(t *testing.T) {
	assert.Equal(t, "somebucket%2Fok", EscapePathSegment("somebucket/ok"))
	assert.Equal(t, "1970-04-28T03%3A58%3A45Z", EscapePathSegment("1970-04-28T03:58:45Z"))
	assert.Equal(t, "plain-segment_1.2~3", EscapePathSegment("plain-segment_1.2~3"))
	assert.Equal(t, "a%20b%24c", EscapePathSegment("a b$c"))
}

func TestEscapeGreedyPathKeepsSlashes(t *testing.T) {
	assert.Equal(t, "deep/path/to%3Afile", EscapeGreedyPath("deep/path/to:file"))
}

func TestEscapeQueryComponent(t *testing.T) {
	assert.Equal(t, "a%3Db%26c", EscapeQueryComponent("a=b&c"))
}

func TestTimestampFormats(t *testing.T) {
	ts := time.Unix(10123125, 0).UTC()

	s, err := FormatTimestamp(ts, model.FormatDateTime)
	require.NoError(t, err)
	assert.Equal(t, "1970-04-28T03:58:45Z", s)

	s, err = FormatTimestamp(ts, model.FormatEpochSeconds)
	require.NoError(t, err)
	assert.Equal(t, "10123125", s)

	s, err = FormatTimestamp(ts, model.FormatHttpDate)
	require.NoError(t, err)
	assert.Equal(t, "Tue, 28 Apr 1970 03:58:45 GMT", s)

	_, err = FormatTimestamp(ts, "stardate")
	assert.Error(t, err)
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := time.Unix(10123125, 0).UTC()
	for _, format := range []string{model.FormatDateTime, model.FormatEpochSeconds, model.FormatHttpDate} {
		s, err := FormatTimestamp(ts, format)
		require.NoError(t, err)
		back, err := ParseTimestamp(s, format)
		require.NoError(t, err)
		assert.True(t, ts.Equal(back), "format %s", format)
	}
}

func TestFractionalEpochSeconds(t *testing.T) {
	ts := time.UnixMilli(10123125125).UTC()
	s, err := FormatTimestamp(ts, model.FormatEpochSeconds)
	require.NoError(t, err)
	assert.Equal(t, "10123125.125", s)
	back, err := ParseTimestamp(s, model.FormatEpochSeconds)
	require.NoError(t, err)
	assert.True(t, ts.Equal(back))
}

func TestParseHttpDateRFC1123Fallback(t *testing.T) {
	back, err := ParseTimestamp("Tue, 28 Apr 1970 03:58:45 UTC", model.FormatHttpDate)
	require.NoError(t, err)
	assert.Equal(t, int64(10123125), back.Unix())
}

func TestFormatScalar(t *testing.T) {
	schema := model.NewSchema()

	s, err := FormatScalar(schema, "base#Bool", true, "")
	require.NoError(t, err)
	assert.Equal(t, "true", s)

	s, err = FormatScalar(schema, "base#Int32", int64(-17), "")
	require.NoError(t, err)
	assert.Equal(t, "-17", s)

	s, err = FormatScalar(schema, "base#Float64", 1.5, "")
	require.NoError(t, err)
	assert.Equal(t, "1.5", s)

	s, err = FormatScalar(schema, "base#Blob", []byte("hi"), "")
	require.NoError(t, err)
	assert.Equal(t, "aGk=", s)

	_, err = FormatScalar(schema, "base#Int32", "not a number", "")
	assert.Error(t, err)
}

func TestParseScalar(t *testing.T) {
	schema := model.NewSchema()

	v, err := ParseScalar(schema, "base#Int64", "42", "")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = ParseScalar(schema, "base#Bool", "false", "")
	require.NoError(t, err)
	assert.Equal(t, false, v)

	_, err = ParseScalar(schema, "base#Bool", "yes", "")
	assert.Error(t, err)

	v, err = ParseScalar(schema, "base#Blob", "aGk=", "")
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), v)

	v, err = ParseScalar(schema, "base#Timestamp", "1970-04-28T03:58:45Z", model.FormatDateTime)
	require.NoError(t, err)
	assert.Equal(t, int64(10123125), v.(time.Time).Unix())
}

func TestDecimalScalarRoundTrip(t *testing.T) {
	schema := model.NewSchema()

	v, err := ParseScalar(schema, "base#Decimal", "3.25", "")
	require.NoError(t, err)
	d, ok := v.(*data.Decimal)
	require.True(t, ok)
	assert.Equal(t, 3.25, d.AsFloat64())

	s, err := FormatScalar(schema, "base#Decimal", d, "")
	require.NoError(t, err)
	assert.Equal(t, "3.25", s)

	_, err = ParseScalar(schema, "base#Decimal", "not-a-number", "")
	assert.Error(t, err)
}

func TestCheckHeaderValue(t *testing.T) {
	assert.NoError(t, CheckHeaderValue("X-Thing", "plain value, with comma"))
	assert.Error(t, CheckHeaderValue("X-Thing", "bad\nvalue"))
	assert.Error(t, CheckHeaderValue("X-Thing", "bad\x7fvalue"))
}

func TestSplitHeaderList(t *testing.T) {
	assert.Equal(t, []string{"0", "1", "2"}, SplitHeaderList("0, 1,2", false))
	assert.Nil(t, SplitHeaderList("", false))

	dates := SplitHeaderList("Tue, 28 Apr 1970 03:58:45 GMT, Mon, 16 Dec 2019 23:48:18 GMT", true)
	assert.Equal(t, []string{"Tue, 28 Apr 1970 03:58:45 GMT", "Mon, 16 Dec 2019 23:48:18 GMT"}, dates)
}

func TestHeadersMultimap(t *testing.T) {
	h := NewHeaders()
	h.Add("X-Ints", "0")
	h.Add("X-Ints", "1")
	h.Add("X-Ints", "2")
	assert.Equal(t, []string{"0", "1", "2"}, h.Values("x-ints"))
	assert.Equal(t, "0", h.Get("X-INTS"))

	assert.True(t, h.SetIfAbsent("Content-Type", "application/json"))
	assert.False(t, h.SetIfAbsent("content-type", "text/plain"))
	assert.Equal(t, "application/json", h.Get("Content-Type"))

	h.Set("X-Ints", "9")
	assert.Equal(t, []string{"9"}, h.Values("X-Ints"))
}

func TestRequestTarget(t *testing.T) {
	req := NewRequest("GET", "/items")
	assert.Equal(t, "/items", req.Target())
	req.Query = append(req.Query, Param{Name: "list", Value: ""}, Param{Name: "limit", Value: "10"})
	assert.Equal(t, "/items?list=&limit=10", req.Target())
	assert.False(t, req.HasBody())
	req.Body = []byte("{}")
	assert.True(t, req.HasBody())
}
