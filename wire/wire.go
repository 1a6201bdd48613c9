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

// Package wire defines the protocol-neutral request and response shapes the
// binding engine produces and consumes, plus the textual codec that renders
// modeled values into their URI, query, and header forms.
package wire

import (
	"io"
	"strings"
)

// Param is one (name, value) pair. Query strings and headers are ordered
// sequences of Params rather than maps, so request construction is
// deterministic and repeated names are representable.
type Param struct {
	Name  string
	Value string
}

// Headers is an ordered multimap. Name lookups are case-insensitive, but the
// original spelling and insertion order are preserved.
type Headers struct {
	entries []Param
}

func NewHeaders() *Headers {
	return &Headers{}
}

func (h *Headers) Add(name, value string) {
	h.entries = append(h.entries, Param{Name: name, Value: value})
}

// Set replaces all existing values for name with a single value.
func (h *Headers) Set(name, value string) {
	var kept []Param
	for _, e := range h.entries {
		if !strings.EqualFold(e.Name, name) {
			kept = append(kept, e)
		}
	}
	h.entries = append(kept, Param{Name: name, Value: value})
}

// SetIfAbsent adds the header only when no value for name exists yet, and
// reports whether it was added. Earlier-stage static headers are therefore
// never clobbered by later per-operation bindings.
func (h *Headers) SetIfAbsent(name, value string) bool {
	if h.Has(name) {
		return false
	}
	h.Add(name, value)
	return true
}

func (h *Headers) Has(name string) bool {
	for _, e := range h.entries {
		if strings.EqualFold(e.Name, name) {
			return true
		}
	}
	return false
}

// Get returns the first value for name, or "".
func (h *Headers) Get(name string) string {
	for _, e := range h.entries {
		if strings.EqualFold(e.Name, name) {
			return e.Value
		}
	}
	return ""
}

// Values returns every value for name in insertion order.
func (h *Headers) Values(name string) []string {
	var vals []string
	for _, e := range h.entries {
		if strings.EqualFold(e.Name, name) {
			vals = append(vals, e.Value)
		}
	}
	return vals
}

func (h *Headers) Entries() []Param {
	if h == nil {
		return nil
	}
	return h.entries
}

func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}

/// Request is a complete wire request: labels substituted and
// percent-encoded into Path, query and headers ordered, and the body either
// materialized bytes or an opaque stream (never both).
type Request struct {
	Method     string
	Path       string
	Query      []Param
	Headers    *Headers
	Body       []byte
	BodyStream io.Reader
}

func NewRequest(method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		Headers: NewHeaders(),
	}
}

// HasBody reports whether any body content is present.
func (r *Request) HasBody() bool {
	return len(r.Body) > 0 || r.BodyStream != nil
}

// EncodedQuery renders the query parameters as a raw query string. Values
// are assumed to be already percent-encoded by the codec.
func (r *Request) EncodedQuery() string {
	var sb strings.Builder
	for i, p := range r.Query {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(p.Name)
		sb.WriteByte('=')
		sb.WriteString(p.Value)
	}
	return sb.String()
}

// Target is the request path plus encoded query, the HTTP request target.
func (r *Request) Target() string {
	q := r.EncodedQuery()
	if q == "" {
		return r.Path
	}
	return r.Path + "?" + q
}

// Response is a complete wire response.
type Response struct {
	Status     int
	Headers    *Headers
	Body       []byte
	BodyStream io.Reader
}

func NewResponse(status int) *Response {
	return &Response{
		Status:  status,
		Headers: NewHeaders(),
	}
}
