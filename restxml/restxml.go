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

// Package restxml implements the XML body format: the root element is named
// for the shape (or its xmlName override), members become child elements or
// attributes, collections nest their items under "member" wrappers unless
// flattened, and timestamps default to date-time text.
package restxml

import (
	"github.com/restbind/api/document"
	"github.com/restbind/api/model"
	"github.com/restbind/api/wire"
)

type Protocol struct {
}

func New() *Protocol {
	return &Protocol{}
}

func (p *Protocol) Name() string {
	return "rest-xml"
}

func (p *Protocol) ContentType() string {
	return "application/xml"
}

func (p *Protocol) SupportsParsing() bool {
	return true
}

func (p *Protocol) SerializeBody(schema *model.Schema, shape *model.TypeDef, value *document.Document) ([]byte, error) {
	return encodeRoot(schema, shape, value)
}

func (p *Protocol) ParseBody(schema *model.Schema, shape *model.TypeDef, body []byte) (*document.Document, error) {
	root, err := parseElement(shape.Id, body)
	if err != nil {
		return nil, err
	}
	if root == nil {
		root = &xmlNode{}
	}
	return decodeStruct(schema, shape, root)
}

// ErrorInfo reads the conventional <Error><Code>/<Message> envelope; the
// envelope may itself be wrapped (e.g. <ErrorResponse><Error>...).
func (p *Protocol) ErrorInfo(resp *wire.Response) (string, string) {
	root, err := parseElement("", resp.Body)
	if err != nil || root == nil {
		return "", ""
	}
	errNode := root
	if root.name != "Error" {
		if child := root.child("Error"); child != nil {
			errNode = child
		}
	}
	return errNode.childText("Code"), errNode.childText("Message")
}
