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

	"github.com/restbind/api/document"
	"github.com/restbind/api/httpbind"
	"github.com/restbind/api/model"
	"github.com/restbind/api/wire"
)

const listItemTag = "member"
const mapEntryTag = "entry"
const mapKeyTag = "key"
const mapValueTag = "value"

func serdeErr(shape model.AbsoluteIdentifier, member model.Identifier, reason string) error {
	return &httpbind.SerdeError{Shape: shape, Member: member, Reason: reason}
}

func xmlWireName(f *model.FieldDef) string {
	if f.XmlName != "" {
		return f.XmlName
	}
	return string(f.Name)
}

// xmlTimestampFormat - XML text carries date-time timestamps unless the
// member says otherwise.
func xmlTimestampFormat(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return model.FormatDateTime
}

func encodeRoot(schema *model.Schema, td *model.TypeDef, value *document.Document) ([]byte, error) {
	name := td.XmlName
	if name == "" {
		name = model.StripNamespace(td.Id)
	}
	start := xml.StartElement{Name: xml.Name{Local: name}}
	if td.XmlNamespace != "" {
		attrName := "xmlns"
		if td.XmlNamespacePrefix != "" {
			attrName = "xmlns:" + td.XmlNamespacePrefix
		}
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: attrName}, Value: td.XmlNamespace})
	}
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	if err := encodeStructInto(enc, schema, td, value, start); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeStructInto writes one structure as an element: attribute-bound
// members become attributes on the start tag, everything else child
// elements in declaration order.
func encodeStructInto(enc *xml.Encoder, schema *model.Schema, td *model.TypeDef, value *document.Document, start xml.StartElement) error {
	for _, f := range td.Fields {
		if !f.XmlAttribute {
			continue
		}
		if !value.Has(string(f.Name)) {
			if f.Required {
				return serdeErr(td.Id, f.Name, "required member has no value")
			}
			continue
		}
		text, err := wire.FormatScalar(schema, f.Type, value.Get(string(f.Name)), xmlTimestampFormat(f.TimestampFormat))
		if err != nil {
			return err
		}
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: xmlWireName(f)}, Value: text})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, f := range td.Fields {
		if f.XmlAttribute {
			continue
		}
		if !value.Has(string(f.Name)) {
			if f.Required {
				return serdeErr(td.Id, f.Name, "required member has no value")
			}
			continue
		}
		if err := encodeMember(enc, schema, td, f, value.Get(string(f.Name))); err != nil {
			return err
		}
	}
	return enc.EncodeToken(xml.EndElement{Name: start.Name})
}

func encodeMember(enc *xml.Encoder, schema *model.Schema, owner *model.TypeDef, f *model.FieldDef, v interface{}) error {
	name := xmlWireName(f)
	switch schema.BaseType(f.Type) {
	case model.List:
		td := schema.GetTypeDef(f.Type)
		if td == nil {
			return serdeErr(f.Type, f.Name, "shape is not defined")
		}
		items, ok := v.([]interface{})
		if !ok {
			return serdeErr(owner.Id, f.Name, "value is not a list")
		}
		if f.XmlFlattened {
			//each item is its own <name> element, no wrapper
			for _, item := range items {
				if err := encodeValueElement(enc, schema, td.Items, item, name, f.TimestampFormat); err != nil {
					return err
				}
			}
			return nil
		}
		if err := enc.EncodeToken(startTag(name)); err != nil {
			return err
		}
		for _, item := range items {
			if err := encodeValueElement(enc, schema, td.Items, item, listItemTag, f.TimestampFormat); err != nil {
				return err
			}
		}
		return enc.EncodeToken(endTag(name))
	case model.Map:
		td := schema.GetTypeDef(f.Type)
		if td == nil {
			return serdeErr(f.Type, f.Name, "shape is not defined")
		}
		m, ok := v.(*document.Document)
		if !ok {
			return serdeErr(owner.Id, f.Name, "value is not a map")
		}
		if f.XmlFlattened {
			for _, k := range m.Keys() {
				if err := encodeMapEntry(enc, schema, td, k, m.Get(k), name, f.TimestampFormat); err != nil {
					return err
				}
			}
			return nil
		}
		if err := enc.EncodeToken(startTag(name)); err != nil {
			return err
		}
		for _, k := range m.Keys() {
			if err := encodeMapEntry(enc, schema, td, k, m.Get(k), mapEntryTag, f.TimestampFormat); err != nil {
				return err
			}
		}
		return enc.EncodeToken(endTag(name))
	default:
		return encodeValueElement(enc, schema, f.Type, v, name, f.TimestampFormat)
	}
}

func encodeMapEntry(enc *xml.Encoder, schema *model.Schema, td *model.TypeDef, key string, v interface{}, tag, tsFormat string) error {
	if err := enc.EncodeToken(startTag(tag)); err != nil {
		return err
	}
	if err := textElement(enc, mapKeyTag, key); err != nil {
		return err
	}
	if err := encodeValueElement(enc, schema, td.Items, v, mapValueTag, tsFormat); err != nil {
		return err
	}
	return enc.EncodeToken(endTag(tag))
}

// encodeValueElement writes one value of any shape as an element with the
// given tag. Nested collections use the default wrappers; flattening is a
// member trait and does not propagate inward.
func encodeValueElement(enc *xml.Encoder, schema *model.Schema, typeRef model.AbsoluteIdentifier, v interface{}, tag, tsFormat string) error {
	switch schema.BaseType(typeRef) {
	case model.Struct:
		td := schema.GetTypeDef(typeRef)
		if td == nil {
			return serdeErr(typeRef, "", "shape is not defined")
		}
		doc, ok := v.(*document.Document)
		if !ok {
			return serdeErr(typeRef, "", "value is not a document")
		}
		return encodeStructInto(enc, schema, td, doc, startTag(tag))
	case model.Union:
		td := schema.GetTypeDef(typeRef)
		if td == nil {
			return serdeErr(typeRef, "", "shape is not defined")
		}
		u, ok := v.(*document.Union)
		if !ok {
			return serdeErr(typeRef, "", "value is not a union")
		}
		if u.Unknown {
			return serdeErr(typeRef, model.Identifier(u.Variant), "cannot serialize unknown union variant")
		}
		for _, vf := range td.Fields {
			if string(vf.Name) != u.Variant {
				continue
			}
			if err := enc.EncodeToken(startTag(tag)); err != nil {
				return err
			}
			if err := encodeValueElement(enc, schema, vf.Type, u.Value, xmlWireName(vf), vf.TimestampFormat); err != nil {
				return err
			}
			return enc.EncodeToken(endTag(tag))
		}
		return serdeErr(typeRef, model.Identifier(u.Variant), "union variant is not declared")
	case model.List:
		td := schema.GetTypeDef(typeRef)
		if td == nil {
			return serdeErr(typeRef, "", "shape is not defined")
		}
		items, ok := v.([]interface{})
		if !ok {
			return serdeErr(typeRef, "", "value is not a list")
		}
		if err := enc.EncodeToken(startTag(tag)); err != nil {
			return err
		}
		for _, item := range items {
			if err := encodeValueElement(enc, schema, td.Items, item, listItemTag, tsFormat); err != nil {
				return err
			}
		}
		return enc.EncodeToken(endTag(tag))
	case model.Map:
		td := schema.GetTypeDef(typeRef)
		if td == nil {
			return serdeErr(typeRef, "", "shape is not defined")
		}
		m, ok := v.(*document.Document)
		if !ok {
			return serdeErr(typeRef, "", "value is not a map")
		}
		if err := enc.EncodeToken(startTag(tag)); err != nil {
			return err
		}
		for _, k := range m.Keys() {
			if err := encodeMapEntry(enc, schema, td, k, m.Get(k), mapEntryTag, tsFormat); err != nil {
				return err
			}
		}
		return enc.EncodeToken(endTag(tag))
	default:
		text, err := wire.FormatScalar(schema, typeRef, v, xmlTimestampFormat(tsFormat))
		if err != nil {
			return err
		}
		return textElement(enc, tag, text)
	}
}

func startTag(name string) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: name}}
}

func endTag(name string) xml.EndElement {
	return xml.EndElement{Name: xml.Name{Local: name}}
}

func textElement(enc *xml.Encoder, name, text string) error {
	if err := enc.EncodeToken(startTag(name)); err != nil {
		return err
	}
	if err := enc.EncodeToken(xml.CharData(text)); err != nil {
		return err
	}
	return enc.EncodeToken(endTag(name))
}

func decodeStruct(schema *model.Schema, td *model.TypeDef, node *xmlNode) (*document.Document, error) {
	out := document.New()
	for _, f := range td.Fields {
		name := xmlWireName(f)
		if f.XmlAttribute {
			text, ok := node.attr(name)
			if !ok {
				if f.Required {
					return nil, serdeErr(td.Id, f.Name, "required attribute is missing")
				}
				continue
			}
			v, err := wire.ParseScalar(schema, f.Type, text, xmlTimestampFormat(f.TimestampFormat))
			if err != nil {
				return nil, err
			}
			out.Put(string(f.Name), v)
			continue
		}
		v, present, err := decodeMember(schema, f, node)
		if err != nil {
			return nil, err
		}
		if !present {
			if f.Required {
				return nil, serdeErr(td.Id, f.Name, "required member is missing")
			}
			continue
		}
		out.Put(string(f.Name), v)
	}
	return out, nil
}

func decodeMember(schema *model.Schema, f *model.FieldDef, node *xmlNode) (interface{}, bool, error) {
	name := xmlWireName(f)
	switch schema.BaseType(f.Type) {
	case model.List:
		td := schema.GetTypeDef(f.Type)
		if td == nil {
			return nil, false, serdeErr(f.Type, f.Name, "shape is not defined")
		}
		var itemNodes []*xmlNode
		if f.XmlFlattened {
			itemNodes = node.childrenNamed(name)
			if itemNodes == nil {
				return nil, false, nil
			}
		} else {
			wrapper := node.child(name)
			if wrapper == nil {
				return nil, false, nil
			}
			itemNodes = wrapper.childrenNamed(listItemTag)
		}
		items := make([]interface{}, 0, len(itemNodes))
		for _, in := range itemNodes {
			v, err := decodeValueNode(schema, td.Items, in, f.TimestampFormat)
			if err != nil {
				return nil, false, err
			}
			items = append(items, v)
		}
		return items, true, nil
	case model.Map:
		td := schema.GetTypeDef(f.Type)
		if td == nil {
			return nil, false, serdeErr(f.Type, f.Name, "shape is not defined")
		}
		var entryNodes []*xmlNode
		if f.XmlFlattened {
			entryNodes = node.childrenNamed(name)
			if entryNodes == nil {
				return nil, false, nil
			}
		} else {
			wrapper := node.child(name)
			if wrapper == nil {
				return nil, false, nil
			}
			entryNodes = wrapper.childrenNamed(mapEntryTag)
		}
		m := document.New()
		for _, en := range entryNodes {
			key := en.childText(mapKeyTag)
			valueNode := en.child(mapValueTag)
			if valueNode == nil {
				return nil, false, serdeErr(f.Type, f.Name, "map entry has no value element")
			}
			v, err := decodeValueNode(schema, td.Items, valueNode, f.TimestampFormat)
			if err != nil {
				return nil, false, err
			}
			m.Put(key, v)
		}
		return m, true, nil
	default:
		child := node.child(name)
		if child == nil {
			return nil, false, nil
		}
		v, err := decodeValueNode(schema, f.Type, child, f.TimestampFormat)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}
}

func decodeValueNode(schema *model.Schema, typeRef model.AbsoluteIdentifier, node *xmlNode, tsFormat string) (interface{}, error) {
	switch schema.BaseType(typeRef) {
	case model.Struct:
		td := schema.GetTypeDef(typeRef)
		if td == nil {
			return nil, serdeErr(typeRef, "", "shape is not defined")
		}
		return decodeStruct(schema, td, node)
	case model.Union:
		td := schema.GetTypeDef(typeRef)
		if td == nil {
			return nil, serdeErr(typeRef, "", "shape is not defined")
		}
		if len(node.children) != 1 {
			return nil, serdeErr(typeRef, "", "union element must have exactly one child")
		}
		child := node.children[0]
		for _, vf := range td.Fields {
			if xmlWireName(vf) != child.name {
				continue
			}
			inner, err := decodeValueNode(schema, vf.Type, child, vf.TimestampFormat)
			if err != nil {
				return nil, err
			}
			return document.NewUnion(string(vf.Name), inner), nil
		}
		return document.UnknownVariant(child.name), nil
	case model.List:
		td := schema.GetTypeDef(typeRef)
		if td == nil {
			return nil, serdeErr(typeRef, "", "shape is not defined")
		}
		itemNodes := node.childrenNamed(listItemTag)
		items := make([]interface{}, 0, len(itemNodes))
		for _, in := range itemNodes {
			v, err := decodeValueNode(schema, td.Items, in, tsFormat)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case model.Map:
		td := schema.GetTypeDef(typeRef)
		if td == nil {
			return nil, serdeErr(typeRef, "", "shape is not defined")
		}
		m := document.New()
		for _, en := range node.childrenNamed(mapEntryTag) {
			key := en.childText(mapKeyTag)
			valueNode := en.child(mapValueTag)
			if valueNode == nil {
				return nil, serdeErr(typeRef, "", "map entry has no value element")
			}
			v, err := decodeValueNode(schema, td.Items, valueNode, tsFormat)
			if err != nil {
				return nil, err
			}
			m.Put(key, v)
		}
		return m, nil
	default:
		return wire.ParseScalar(schema, typeRef, node.text, xmlTimestampFormat(tsFormat))
	}
}
