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
	"encoding/base64"
	"encoding/json"
	"strconv"
	"time"

	"github.com/boynton/data"
	"github.com/restbind/api/document"
	"github.com/restbind/api/httpbind"
	"github.com/restbind/api/model"
	"github.com/restbind/api/wire"
)

func serdeErr(shape model.AbsoluteIdentifier, member model.Identifier, reason string) error {
	return &httpbind.SerdeError{Shape: shape, Member: member, Reason: reason}
}

func wireName(f *model.FieldDef) string {
	if f.JsonName != "" {
		return f.JsonName
	}
	return string(f.Name)
}

// bodyTimestampFormat - in the JSON body the default wire form is
// epoch-seconds; the textual location defaults never apply here.
func bodyTimestampFormat(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return model.FormatEpochSeconds
}

func encodeValue(schema *model.Schema, typeRef model.AbsoluteIdentifier, v interface{}, tsFormat string) (interface{}, error) {
	switch schema.BaseType(typeRef) {
	case model.Timestamp:
		t, ok := v.(time.Time)
		if !ok {
			return nil, serdeErr(typeRef, "", "value is not a timestamp")
		}
		return encodeTimestamp(t, bodyTimestampFormat(tsFormat))
	case model.Blob:
		switch b := v.(type) {
		case []byte:
			return b, nil //encoding/json renders []byte as base64
		case string:
			return b, nil
		}
		return nil, serdeErr(typeRef, "", "value is not a blob")
	case model.Struct:
		td := schema.GetTypeDef(typeRef)
		if td == nil {
			return nil, serdeErr(typeRef, "", "shape is not defined")
		}
		doc, ok := v.(*document.Document)
		if !ok {
			return nil, serdeErr(typeRef, "", "value is not a document")
		}
		return encodeStruct(schema, td, doc)
	case model.Union:
		td := schema.GetTypeDef(typeRef)
		if td == nil {
			return nil, serdeErr(typeRef, "", "shape is not defined")
		}
		return encodeUnion(schema, td, v)
	case model.List:
		td := schema.GetTypeDef(typeRef)
		if td == nil {
			return nil, serdeErr(typeRef, "", "shape is not defined")
		}
		items, ok := v.([]interface{})
		if !ok {
			return nil, serdeErr(typeRef, "", "value is not a list")
		}
		out := make([]interface{}, 0, len(items))
		for _, item := range items {
			ev, err := encodeValue(schema, td.Items, item, tsFormat)
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
		return out, nil
	case model.Map:
		td := schema.GetTypeDef(typeRef)
		if td == nil {
			return nil, serdeErr(typeRef, "", "shape is not defined")
		}
		m, ok := v.(*document.Document)
		if !ok {
			return nil, serdeErr(typeRef, "", "value is not a map")
		}
		out := document.New()
		for _, k := range m.Keys() {
			ev, err := encodeValue(schema, td.Items, m.Get(k), tsFormat)
			if err != nil {
				return nil, err
			}
			out.Put(k, ev)
		}
		return out, nil
	default:
		//scalars already carry their JSON form
		return v, nil
	}
}

func encodeTimestamp(t time.Time, format string) (interface{}, error) {
	if format == model.FormatEpochSeconds {
		t = t.UTC()
		if t.Nanosecond() == 0 {
			return json.Number(strconv.FormatInt(t.Unix(), 10)), nil
		}
		secs := float64(t.UnixMilli()) / 1000.0
		return json.Number(strconv.FormatFloat(secs, 'f', -1, 64)), nil
	}
	text, err := wire.FormatTimestamp(t, format)
	if err != nil {
		return nil, err
	}
	return text, nil
}

// encodeUnion renders the single active variant as a one-key object. An
// unknown variant cannot be put back on the wire.
func encodeUnion(schema *model.Schema, td *model.TypeDef, v interface{}) (interface{}, error) {
	u, ok := v.(*document.Union)
	if !ok {
		return nil, serdeErr(td.Id, "", "value is not a union")
	}
	if u.Unknown {
		return nil, serdeErr(td.Id, model.Identifier(u.Variant), "cannot serialize unknown union variant")
	}
	for _, f := range td.Fields {
		if string(f.Name) != u.Variant {
			continue
		}
		inner, err := encodeValue(schema, f.Type, u.Value, f.TimestampFormat)
		if err != nil {
			return nil, err
		}
		return document.New().Put(wireName(f), inner), nil
	}
	return nil, serdeErr(td.Id, model.Identifier(u.Variant), "union variant is not declared")
}

func decodeStruct(schema *model.Schema, td *model.TypeDef, raw *document.Document) (*document.Document, error) {
	out := document.New()
	for _, f := range td.Fields {
		wn := wireName(f)
		if !raw.Has(wn) {
			if f.Required {
				return nil, serdeErr(td.Id, f.Name, "required member is missing")
			}
			continue
		}
		rv := raw.Get(wn)
		if rv == nil {
			//an explicit null reads the same as an absent member
			if f.Required {
				return nil, serdeErr(td.Id, f.Name, "required member is null")
			}
			continue
		}
		dv, err := decodeValue(schema, f.Type, rv, f.TimestampFormat)
		if err != nil {
			return nil, err
		}
		out.Put(string(f.Name), dv)
	}
	//keys not matching any member are skipped: a newer peer may send more
	return out, nil
}

func decodeValue(schema *model.Schema, typeRef model.AbsoluteIdentifier, raw interface{}, tsFormat string) (interface{}, error) {
	switch schema.BaseType(typeRef) {
	case model.String, model.Enum:
		s, ok := raw.(string)
		if !ok {
			return nil, serdeErr(typeRef, "", "value is not a string")
		}
		return s, nil
	case model.Bool:
		b, ok := raw.(bool)
		if !ok {
			return nil, serdeErr(typeRef, "", "value is not a boolean")
		}
		return b, nil
	case model.Int8, model.Int16, model.Int32, model.Int64, model.Integer:
		n, ok := raw.(json.Number)
		if !ok {
			return nil, serdeErr(typeRef, "", "value is not a number")
		}
		i, err := n.Int64()
		if err != nil {
			return nil, serdeErr(typeRef, "", "value is not an integer")
		}
		return i, nil
	case model.Float32, model.Float64:
		n, ok := raw.(json.Number)
		if !ok {
			return nil, serdeErr(typeRef, "", "value is not a number")
		}
		fl, err := n.Float64()
		if err != nil {
			return nil, serdeErr(typeRef, "", "value is not a float")
		}
		return fl, nil
	case model.Decimal:
		n, ok := raw.(json.Number)
		if !ok {
			return nil, serdeErr(typeRef, "", "value is not a number")
		}
		d, err := data.ParseDecimal(string(n))
		if err != nil {
			return nil, serdeErr(typeRef, "", "value is not a decimal")
		}
		return d, nil
	case model.Timestamp:
		return decodeTimestamp(typeRef, raw, bodyTimestampFormat(tsFormat))
	case model.Blob:
		s, ok := raw.(string)
		if !ok {
			return nil, serdeErr(typeRef, "", "value is not a base64 string")
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, serdeErr(typeRef, "", "value is not valid base64")
		}
		return b, nil
	case model.Struct:
		td := schema.GetTypeDef(typeRef)
		if td == nil {
			return nil, serdeErr(typeRef, "", "shape is not defined")
		}
		doc, ok := raw.(*document.Document)
		if !ok {
			return nil, serdeErr(typeRef, "", "value is not an object")
		}
		return decodeStruct(schema, td, doc)
	case model.Union:
		td := schema.GetTypeDef(typeRef)
		if td == nil {
			return nil, serdeErr(typeRef, "", "shape is not defined")
		}
		return decodeUnion(schema, td, raw)
	case model.List:
		td := schema.GetTypeDef(typeRef)
		if td == nil {
			return nil, serdeErr(typeRef, "", "shape is not defined")
		}
		items, ok := raw.([]interface{})
		if !ok {
			return nil, serdeErr(typeRef, "", "value is not an array")
		}
		out := make([]interface{}, 0, len(items))
		for _, item := range items {
			dv, err := decodeValue(schema, td.Items, item, tsFormat)
			if err != nil {
				return nil, err
			}
			out = append(out, dv)
		}
		return out, nil
	case model.Map:
		td := schema.GetTypeDef(typeRef)
		if td == nil {
			return nil, serdeErr(typeRef, "", "shape is not defined")
		}
		m, ok := raw.(*document.Document)
		if !ok {
			return nil, serdeErr(typeRef, "", "value is not an object")
		}
		out := document.New()
		for _, k := range m.Keys() {
			dv, err := decodeValue(schema, td.Items, m.Get(k), tsFormat)
			if err != nil {
				return nil, err
			}
			out.Put(k, dv)
		}
		return out, nil
	case model.Document:
		return raw, nil
	default:
		return nil, serdeErr(typeRef, "", "shape has no JSON form")
	}
}

func decodeTimestamp(typeRef model.AbsoluteIdentifier, raw interface{}, format string) (interface{}, error) {
	switch v := raw.(type) {
	case json.Number:
		secs, err := v.Float64()
		if err != nil {
			return nil, serdeErr(typeRef, "", "value is not an epoch-seconds timestamp")
		}
		return time.UnixMilli(int64(secs * 1000.0)).UTC(), nil
	case string:
		if format == model.FormatEpochSeconds {
			format = model.FormatDateTime
		}
		t, err := wire.ParseTimestamp(v, format)
		if err != nil {
			return nil, serdeErr(typeRef, "", "value is not a valid timestamp")
		}
		return t, nil
	default:
		return nil, serdeErr(typeRef, "", "value is not a timestamp")
	}
}

// decodeUnion accepts a one-key object. A discriminator the model does not
// declare parses into the reserved unknown variant rather than failing, so
// a newer peer's variants do not break older readers.
func decodeUnion(schema *model.Schema, td *model.TypeDef, raw interface{}) (interface{}, error) {
	doc, ok := raw.(*document.Document)
	if !ok {
		return nil, serdeErr(td.Id, "", "union value is not an object")
	}
	if doc.Length() != 1 {
		return nil, serdeErr(td.Id, "", "union value must have exactly one key")
	}
	key := doc.Keys()[0]
	for _, f := range td.Fields {
		if wireName(f) != key {
			continue
		}
		inner, err := decodeValue(schema, f.Type, doc.Get(key), f.TimestampFormat)
		if err != nil {
			return nil, err
		}
		return document.NewUnion(string(f.Name), inner), nil
	}
	return document.UnknownVariant(key), nil
}
