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
	"github.com/restbind/api/wire"
)

// RequestHook is one wire-level request mutation contributed by a caller,
// e.g. an extra header. Hooks may mutate the request but never the resolved
// bindings.
type RequestHook struct {
	Name   string
	Mutate func(*wire.Request) error
}

// HookList is an ordered sequence of hooks applied in a fixed fold order at
// a declared extension point. The assembler consults two such points:
// before building the base request, and after building it, just before the
// request is returned.
type HookList []RequestHook

func (hl HookList) Apply(req *wire.Request) error {
	for _, h := range hl {
		if h.Mutate == nil {
			continue
		}
		if err := h.Mutate(req); err != nil {
			return err
		}
	}
	return nil
}
