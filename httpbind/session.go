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
package httpbind

import (
	"fmt"
	"sync"

	"github.com/restbind/api/model"
)

// Helper is one emitted routine shared across operations, keyed by a
// structural signature.
type Helper struct {
	Signature string
	Name      string
	Source    string
}

// Session is the generation-session-scoped context passed explicitly to
// every stage. It holds the write-once pools of deduplicated artifacts:
// emitted helper routines and synthetic body shapes. Operations may be
// generated in parallel, so insertion is guarded; the collision rule is
// that an identical signature means an identical routine, which is reused
// rather than regenerated.
type Session struct {
	mu      sync.Mutex
	helpers map[string]*Helper
	order   []string
	shapes  map[string]*model.TypeDef
}

func NewSession() *Session {
	return &Session{
		helpers: make(map[string]*Helper, 0),
		shapes:  make(map[string]*model.TypeDef, 0),
	}
}

// RegisterHelper records an emitted routine under its structural signature.
// A second registration with the same signature returns the existing
// routine; a signature collision with different source is a defect in the
// caller and is reported as an error.
func (s *Session) RegisterHelper(signature, name, source string) (*Helper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.helpers[signature]; ok {
		if existing.Source != source {
			return nil, fmt.Errorf("helper signature collision: %s", signature)
		}
		return existing, nil
	}
	h := &Helper{Signature: signature, Name: name, Source: source}
	s.helpers[signature] = h
	s.order = append(s.order, signature)
	return h, nil
}

// Helpers returns the pool in first-registration order.
func (s *Session) Helpers() []*Helper {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Helper, 0, len(s.order))
	for _, sig := range s.order {
		out = append(out, s.helpers[sig])
	}
	return out
}

// InternShape deduplicates a synthetic body shape by structural equality:
// two operations whose document members are identical share one emitted
// shape. The returned TypeDef must be treated as immutable.
func (s *Session) InternShape(td *model.TypeDef) *model.TypeDef {
	sig := shapeSignature(td)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.shapes[sig]; ok {
		return existing
	}
	s.shapes[sig] = td
	return td
}

// shapeSignature is the structural identity of a shape: its name plus every
// field's name, type, and wire directives, independent of definition order
// elsewhere in the graph.
func shapeSignature(td *model.TypeDef) string {
	sig := string(td.Id) + "|" + td.Base.String()
	for _, f := range td.Fields {
		sig += fmt.Sprintf("|%s:%s:%v:%s:%s:%v:%v", f.Name, f.Type, f.Required, f.JsonName, f.XmlName, f.XmlAttribute, f.XmlFlattened)
	}
	return sig
}
