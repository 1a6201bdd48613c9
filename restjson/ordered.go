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
package restjson

import (
	"bytes"
	"encoding/json"

	"github.com/restbind/api/document"
	"github.com/restbind/api/model"
)

// parseOrderedObject decodes a JSON object into an order-preserving
// document. A stock map[string]interface{} would lose key order, which maps
// and pass-through document values must keep. Numbers stay json.Number so
// integer fidelity survives. An empty body is an empty object.
func parseOrderedObject(shape model.AbsoluteIdentifier, body []byte) (*document.Document, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return document.New(), nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, serdeErr(shape, "", "body is not valid JSON")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, serdeErr(shape, "", "body is not a JSON object")
	}
	doc, err := parseObjectBody(dec)
	if err != nil {
		return nil, serdeErr(shape, "", "body is not valid JSON")
	}
	return doc, nil
}

func parseObjectBody(dec *json.Decoder) (*document.Document, error) {
	out := document.New()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		v, err := parseJsonValue(dec)
		if err != nil {
			return nil, err
		}
		out.Put(key, v)
	}
	if _, err := dec.Token(); err != nil { //the closing '}'
		return nil, err
	}
	return out, nil
}

func parseJsonValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); ok {
		switch d {
		case '{':
			return parseObjectBody(dec)
		case '[':
			items := make([]interface{}, 0)
			for dec.More() {
				v, err := parseJsonValue(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
			if _, err := dec.Token(); err != nil { //the closing ']'
				return nil, err
			}
			return items, nil
		}
	}
	return tok, nil
}
