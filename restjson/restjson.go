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

// Package restjson implements the JSON body format: members travel under
// their jsonName, timestamps default to epoch-seconds in the body, unions
// are single-key objects, and unknown keys are skipped on parse.
package restjson

import (
	"strings"

	"github.com/restbind/api/document"
	"github.com/restbind/api/httpbind"
	"github.com/restbind/api/model"
	"github.com/restbind/api/wire"
)

// Profile selects how much of the protocol is implemented. RequestOnly
// serializes requests but deliberately leaves the response direction
// unimplemented, for callers that only generate client request code.
type Profile int

const (
	Full Profile = iota
	RequestOnly
)

const errorTypeHeader = "X-Error-Type"

type Protocol struct {
	Profile Profile
}

func New() *Protocol {
	return &Protocol{Profile: Full}
}

func NewRequestOnly() *Protocol {
	return &Protocol{Profile: RequestOnly}
}

func (p *Protocol) Name() string {
	return "rest-json"
}

func (p *Protocol) ContentType() string {
	return "application/json"
}

func (p *Protocol) SupportsParsing() bool {
	return p.Profile == Full
}

// SerializeBody renders a document body for the given structure shape,
// walking members in declaration order so output is deterministic.
func (p *Protocol) SerializeBody(schema *model.Schema, shape *model.TypeDef, value *document.Document) ([]byte, error) {
	doc, err := encodeStruct(schema, shape, value)
	if err != nil {
		return nil, err
	}
	return doc.MarshalJSON()
}

// ParseBody is the inverse of SerializeBody. An empty body is treated as an
// empty object before required-member validation.
func (p *Protocol) ParseBody(schema *model.Schema, shape *model.TypeDef, body []byte) (*document.Document, error) {
	if p.Profile == RequestOnly {
		return nil, httpbind.ErrRequestOnlyProfile
	}
	raw, err := parseOrderedObject(shape.Id, body)
	if err != nil {
		return nil, err
	}
	return decodeStruct(schema, shape, raw)
}

// ErrorInfo reads the error discriminator from the X-Error-Type header when
// present, falling back to the body's "code" then "__type" keys. The message
// comes from the body's "message" key, case-insensitively.
func (p *Protocol) ErrorInfo(resp *wire.Response) (string, string) {
	code := resp.Headers.Get(errorTypeHeader)
	message := ""
	raw, err := parseOrderedObject("", resp.Body)
	if err == nil {
		for _, k := range raw.Keys() {
			switch {
			case code == "" && (k == "code" || k == "__type"):
				code, _ = raw.Get(k).(string)
			case strings.EqualFold(k, "message"):
				message, _ = raw.Get(k).(string)
			}
		}
	}
	return code, message
}

func encodeStruct(schema *model.Schema, td *model.TypeDef, value *document.Document) (*document.Document, error) {
	out := document.New()
	for _, f := range td.Fields {
		if !value.Has(string(f.Name)) {
			if f.Required {
				return nil, serdeErr(td.Id, f.Name, "required member has no value")
			}
			continue
		}
		ev, err := encodeValue(schema, f.Type, value.Get(string(f.Name)), f.TimestampFormat)
		if err != nil {
			return nil, err
		}
		out.Put(wireName(f), ev)
	}
	return out, nil
}
