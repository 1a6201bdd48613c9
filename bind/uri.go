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
package bind

import (
	"fmt"
	"strings"

	"github.com/restbind/api/model"
	"github.com/restbind/api/wire"
)

// UriSegment is one literal or placeholder segment of an operation's URI
// pattern. A greedy label ({name+}) may span multiple path segments.
type UriSegment struct {
	Literal string
	Label   model.Identifier
	Greedy  bool
}

func (s UriSegment) IsLabel() bool {
	return s.Label != ""
}

// UriPattern is the parsed form of an operation's URI: path segments plus
// any literal query parameters declared directly in the pattern
// (i.e. "/foo/{bar}?list").
type UriPattern struct {
	Segments    []UriSegment
	StaticQuery []wire.Param
	raw         string
}

func (p *UriPattern) String() string {
	return p.raw
}

// Labels returns the placeholder names in pattern order.
func (p *UriPattern) Labels() []model.Identifier {
	var labels []model.Identifier
	for _, seg := range p.Segments {
		if seg.IsLabel() {
			labels = append(labels, seg.Label)
		}
	}
	return labels
}

// ParseUriPattern parses an HTTP URI pattern like "/{bucket}/{key+}?verbose".
// Only the final label may be greedy, and a label must occupy an entire
// segment.
func ParseUriPattern(uri string) (*UriPattern, error) {
	if uri == "" || uri[0] != '/' {
		return nil, fmt.Errorf("URI pattern must begin with '/': %q", uri)
	}
	p := &UriPattern{raw: uri}
	pathPart := uri
	if n := strings.Index(uri, "?"); n >= 0 {
		pathPart = uri[:n]
		for _, kv := range strings.Split(uri[n+1:], "&") {
			if kv == "" {
				continue
			}
			param := wire.Param{Name: kv}
			if eq := strings.Index(kv, "="); eq >= 0 {
				param.Name = kv[:eq]
				param.Value = kv[eq+1:]
			}
			p.StaticQuery = append(p.StaticQuery, param)
		}
	}
	seen := make(map[model.Identifier]bool, 0)
	rawSegments := strings.Split(strings.TrimPrefix(pathPart, "/"), "/")
	for i, raw := range rawSegments {
		if raw == "" {
			if i == 0 && len(rawSegments) == 1 {
				break //the root pattern "/"
			}
			return nil, fmt.Errorf("URI pattern has an empty segment: %q", uri)
		}
		if strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}") {
			name := raw[1 : len(raw)-1]
			greedy := false
			if strings.HasSuffix(name, "+") {
				name = strings.TrimSuffix(name, "+")
				greedy = true
			}
			if name == "" {
				return nil, fmt.Errorf("URI pattern has an empty label: %q", uri)
			}
			if greedy && i != len(rawSegments)-1 {
				return nil, fmt.Errorf("greedy label {%s+} must be the final segment: %q", name, uri)
			}
			label := model.Identifier(name)
			if seen[label] {
				return nil, fmt.Errorf("URI pattern repeats label {%s}: %q", name, uri)
			}
			seen[label] = true
			p.Segments = append(p.Segments, UriSegment{Label: label, Greedy: greedy})
		} else if strings.ContainsAny(raw, "{}") {
			return nil, fmt.Errorf("label must occupy an entire segment: %q in %q", raw, uri)
		} else {
			p.Segments = append(p.Segments, UriSegment{Literal: raw})
		}
	}
	return p, nil
}
