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
package restxml

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/restbind/api/model"
)

// xmlNode is the parsed generic form of one element: attributes, child
// elements in document order, and accumulated character data. Shape-directed
// decoding walks this rather than the token stream, so unknown elements are
// skipped by simply never being looked up.
type xmlNode struct {
	name     string
	attrs    []xml.Attr
	children []*xmlNode
	text     string
}

func (n *xmlNode) attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *xmlNode) child(name string) *xmlNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (n *xmlNode) childrenNamed(name string) []*xmlNode {
	var out []*xmlNode
	for _, c := range n.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

func (n *xmlNode) childText(name string) string {
	if c := n.child(name); c != nil {
		return c.text
	}
	return ""
}

// parseElement parses a body into its root element, or nil for an empty
// body.
func parseElement(shape model.AbsoluteIdentifier, body []byte) (*xmlNode, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, serdeErr(shape, "", "body is not valid XML")
		}
		if start, ok := tok.(xml.StartElement); ok {
			node, err := buildNode(dec, start)
			if err != nil {
				return nil, serdeErr(shape, "", "body is not valid XML")
			}
			return node, nil
		}
	}
}

func buildNode(dec *xml.Decoder, start xml.StartElement) (*xmlNode, error) {
	node := &xmlNode{
		name:  start.Name.Local,
		attrs: start.Attr,
	}
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := buildNode(dec, t)
			if err != nil {
				return nil, err
			}
			node.children = append(node.children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			node.text = strings.TrimSpace(text.String())
			return node, nil
		}
	}
}
