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

// Package bind computes, per operation, the complete non-overlapping
// assignment of every input and output member to its wire location, along
// with the location-specific encoding directives. Resolution is pure and
// deterministic: the same (operation, shape) pair always yields the same
// bindings, so nothing here is cached across operations.
package bind

import (
	"encoding/json"
	"fmt"

	"github.com/restbind/api/model"
)

//
// Location - the closed set of wire locations a member can bind to.
//
type Location int

const (
	_ Location = iota
	UriLabel
	Query
	Header
	PrefixHeaders
	Payload
	Document
)

var namesLocation = []string{
	UriLabel:      "UriLabel",
	Query:         "Query",
	Header:        "Header",
	PrefixHeaders: "PrefixHeaders",
	Payload:       "Payload",
	Document:      "Document",
}

func (e Location) String() string {
	return namesLocation[e]
}

func (e Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

// ModelError - a modeling error detected while resolving an operation's
/// bindings. Fatal for the offending operation: generation does not proceed.
type ModelError struct {
	Operation model.AbsoluteIdentifier
	Member    model.Identifier
	Reason    string
}

func (e *ModelError) Error() string {
	context := model.StripNamespace(e.Operation)
	if e.Member != "" {
		context = context + "$" + string(e.Member)
	}
	return fmt.Sprintf("modeling error: %s: %s", context, e.Reason)
}

func modelErr(op model.AbsoluteIdentifier, member model.Identifier, format string, args ...interface{}) error {
	return &ModelError{Operation: op, Member: member, Reason: fmt.Sprintf(format, args...)}
}

// Binding assigns one member to one location, with its resolved encoding
// directives. TimestampFormat is concrete for the textual locations (the
// location default already applied); for Document and Payload members it is
// the member's explicit trait or "", in which case the body format's own
// default applies.
type Binding struct {
	Name            model.Identifier           `json:"name"`
	Type            model.AbsoluteIdentifier   `json:"type"`
	Location        Location                   `json:"location"`
	WireName        string                     `json:"wireName,omitempty"`
	Required        bool                       `json:"required,omitempty"`
	Greedy          bool                       `json:"greedy,omitempty"`
	TimestampFormat string                     `json:"timestampFormat,omitempty"`
	MediaType       string                     `json:"mediaType,omitempty"`
	JsonName        string                     `json:"jsonName,omitempty"`
	XmlName         string                     `json:"xmlName,omitempty"`
	XmlAttribute    bool                       `json:"xmlAttribute,omitempty"`
	XmlFlattened    bool                       `json:"xmlFlattened,omitempty"`
}

/// ExceptionBindings is the resolved view of one declared error shape: its
// header members plus a synthetic body shape for the rest.
type ExceptionBindings struct {
	Def     *model.OperationOutput `json:"-"`
	Name    string                 `json:"name"`
	Headers []*Binding             `json:"headers,omitempty"`
	Body    *model.TypeDef         `json:"body,omitempty"`
}

// OperationBindings is the complete resolved binding table for one
// operation. The synthetic body shapes (InputBody, OutputBody) are created
// here, once, and must never be mutated afterwards.
type OperationBindings struct {
	OperationId        model.AbsoluteIdentifier `json:"operation"`
	Method             string                   `json:"method"`
	Uri                *UriPattern              `json:"-"`
	SuccessCode        int32                    `json:"successCode,omitempty"`
	StaticHeaders      model.StaticHeaderList   `json:"staticHeaders,omitempty"`
	Input              []*Binding               `json:"input,omitempty"`
	Output             []*Binding               `json:"output,omitempty"`
	InputPayload       *Binding                 `json:"inputPayload,omitempty"`
	OutputPayload      *Binding                 `json:"outputPayload,omitempty"`
	InputBody          *model.TypeDef           `json:"inputBody,omitempty"`
	OutputBody         *model.TypeDef           `json:"outputBody,omitempty"`
	ResponseCodeMember model.Identifier         `json:"responseCodeMember,omitempty"`
	Exceptions         []*ExceptionBindings     `json:"exceptions,omitempty"`
}

// InputByLocation returns the input bindings for one location, preserving
// member declaration order.
func (ob *OperationBindings) InputByLocation(loc Location) []*Binding {
	var out []*Binding
	for _, b := range ob.Input {
		if b.Location == loc {
			out = append(out, b)
		}
	}
	return out
}

func (ob *OperationBindings) OutputByLocation(loc Location) []*Binding {
	var out []*Binding
	for _, b := range ob.Output {
		if b.Location == loc {
			out = append(out, b)
		}
	}
	return out
}

// InputLabel returns the binding for a URI label by name, or nil.
func (ob *OperationBindings) InputLabel(name model.Identifier) *Binding {
	for _, b := range ob.Input {
		if b.Location == UriLabel && b.Name == name {
			return b
		}
	}
	return nil
}

// Resolve computes the operation's binding table. Errors are modeling
// errors, reported with the offending operation and member.
func Resolve(schema *model.Schema, op *model.OperationDef) (*OperationBindings, error) {
	uri, err := ParseUriPattern(op.HttpUri)
	if err != nil {
		return nil, modelErr(op.Id, "", "%v", err)
	}
	ob := &OperationBindings{
		OperationId:   op.Id,
		Method:        op.HttpMethod,
		Uri:           uri,
		StaticHeaders: op.HttpHeaders,
	}
	if op.Output != nil {
		ob.SuccessCode = op.Output.HttpStatus
	}
	if ob.SuccessCode == 0 {
		ob.SuccessCode = 200
	}
	if err := resolveInput(schema, op, ob); err != nil {
		return nil, err
	}
	if err := resolveOutput(schema, op, ob); err != nil {
		return nil, err
	}
	for _, exc := range op.Exceptions {
		eb, err := resolveException(schema, op, exc)
		if err != nil {
			return nil, err
		}
		ob.Exceptions = append(ob.Exceptions, eb)
	}
	return ob, nil
}

// defaultTimestampFormat applies the per-location default when the member
// declares none: headers travel as http-date, query and label values as
// date-time. Document and payload members keep "" for the body format to
// decide.
func defaultTimestampFormat(loc Location, explicit string) string {
	if explicit != "" {
		return explicit
	}
	switch loc {
	case Header, PrefixHeaders:
		return model.FormatHttpDate
	case Query, UriLabel:
		return model.FormatDateTime
	default:
		return ""
	}
}

func resolveInput(schema *model.Schema, op *model.OperationDef, ob *OperationBindings) error {
	var bodyFields model.FieldDefList
	if op.Input != nil {
		for _, f := range op.Input.Fields {
			b := &Binding{
				Name:         f.Name,
				Type:         f.Type,
				Required:     f.Required,
				MediaType:    f.MediaType,
				JsonName:     f.JsonName,
				XmlName:      f.XmlName,
				XmlAttribute: f.XmlAttribute,
				XmlFlattened: f.XmlFlattened,
			}
			switch {
			case f.HttpPath:
				b.Location = UriLabel
				b.WireName = string(f.Name)
				b.Required = true
			case f.HttpQuery != "":
				b.Location = Query
				b.WireName = string(f.HttpQuery)
			case f.HttpHeader != "":
				b.Location = Header
				b.WireName = f.HttpHeader
			case f.HttpPrefixHeaders != "":
				b.Location = PrefixHeaders
				b.WireName = f.HttpPrefixHeaders
			case f.HttpPayload:
				b.Location = Payload
				if ob.InputPayload != nil {
					return modelErr(op.Id, f.Name, "at most one member may be the payload (already bound to %s)", ob.InputPayload.Name)
				}
				ob.InputPayload = b
			default:
				b.Location = Document
				bodyFields = append(bodyFields, &model.FieldDef{
					Comment:         f.Comment,
					Name:            f.Name,
					Type:            f.Type,
					Required:        f.Required,
					JsonName:        f.JsonName,
					XmlName:         f.XmlName,
					XmlAttribute:    f.XmlAttribute,
					XmlFlattened:    f.XmlFlattened,
					TimestampFormat: f.TimestampFormat,
					MediaType:       f.MediaType,
				})
			}
			b.TimestampFormat = defaultTimestampFormat(b.Location, f.TimestampFormat)
			ob.Input = append(ob.Input, b)
		}
	}
	if ob.InputPayload != nil && len(bodyFields) > 0 {
		return modelErr(op.Id, ob.InputPayload.Name, "payload member excludes document members: %s", bodyFields[0].Name)
	}
	if len(bodyFields) > 0 {
		ob.InputBody = syntheticBody(schema, op, "RequestContent", bodyFields)
	}
	return checkLabels(op, ob)
}

func resolveOutput(schema *model.Schema, op *model.OperationDef, ob *OperationBindings) error {
	if op.Output == nil {
		return nil
	}
	var bodyFields model.FieldDefList
	for _, f := range op.Output.Fields {
		b := &Binding{
			Name:         f.Name,
			Type:         f.Type,
			Required:     f.Required,
			MediaType:    f.MediaType,
			JsonName:     f.JsonName,
			XmlName:      f.XmlName,
			XmlAttribute: f.XmlAttribute,
			XmlFlattened: f.XmlFlattened,
		}
		switch {
		case f.HttpHeader != "":
			b.Location = Header
			b.WireName = f.HttpHeader
		case f.HttpPrefixHeaders != "":
			b.Location = PrefixHeaders
			b.WireName = f.HttpPrefixHeaders
		case f.HttpResponseCode:
			//not a wire location of its own: the member mirrors the status line
			ob.ResponseCodeMember = f.Name
			continue
		case f.HttpPayload:
			b.Location = Payload
			if ob.OutputPayload != nil {
				return modelErr(op.Id, f.Name, "at most one member may be the payload (already bound to %s)", ob.OutputPayload.Name)
			}
			ob.OutputPayload = b
		default:
			b.Location = Document
			bodyFields = append(bodyFields, &model.FieldDef{
				Comment:         f.Comment,
				Name:            f.Name,
				Type:            f.Type,
				Required:        f.Required,
				JsonName:        f.JsonName,
				XmlName:         f.XmlName,
				XmlAttribute:    f.XmlAttribute,
				XmlFlattened:    f.XmlFlattened,
				TimestampFormat: f.TimestampFormat,
				MediaType:       f.MediaType,
			})
		}
		b.TimestampFormat = defaultTimestampFormat(b.Location, f.TimestampFormat)
		ob.Output = append(ob.Output, b)
	}
	if ob.OutputPayload != nil && len(bodyFields) > 0 {
		return modelErr(op.Id, ob.OutputPayload.Name, "payload member excludes document members: %s", bodyFields[0].Name)
	}
	if len(bodyFields) > 0 {
		ob.OutputBody = syntheticBody(schema, op, "ResponseContent", bodyFields)
	}
	return nil
}

func resolveException(schema *model.Schema, op *model.OperationDef, exc *model.OperationOutput) (*ExceptionBindings, error) {
	eb := &ExceptionBindings{
		Def:  exc,
		Name: exc.Name(),
	}
	var bodyFields model.FieldDefList
	for _, f := range exc.Fields {
		if f.HttpHeader != "" {
			b := &Binding{
				Name:            f.Name,
				Type:            f.Type,
				Location:        Header,
				WireName:        f.HttpHeader,
				Required:        f.Required,
				TimestampFormat: defaultTimestampFormat(Header, f.TimestampFormat),
			}
			eb.Headers = append(eb.Headers, b)
		} else {
			bodyFields = append(bodyFields, &model.FieldDef{
				Name:            f.Name,
				Type:            f.Type,
				Required:        f.Required,
				JsonName:        f.JsonName,
				XmlName:         f.XmlName,
				TimestampFormat: f.TimestampFormat,
			})
		}
	}
	if len(bodyFields) > 0 {
		eb.Body = &model.TypeDef{
			Id:     model.AbsoluteIdentifier(string(exc.Id) + "Content"),
			Base:   model.Struct,
			Fields: bodyFields,
		}
	}
	return eb, nil
}

// syntheticBody builds the generator-created structure grouping only the
// document-bound members of the operation's input or output. It is derived
// state: callers must treat it as immutable once returned.
func syntheticBody(schema *model.Schema, op *model.OperationDef, suffix string, fields model.FieldDefList) *model.TypeDef {
	return &model.TypeDef{
		Id:     schema.Namespaced(op.Name() + suffix),
		Base:   model.Struct,
		Fields: fields,
	}
}

// checkLabels enforces the one-to-one correspondence between URI
// placeholders and UriLabel members.
func checkLabels(op *model.OperationDef, ob *OperationBindings) error {
	labels := ob.Uri.Labels()
	byName := make(map[model.Identifier]*UriSegment, 0)
	for i := range ob.Uri.Segments {
		seg := &ob.Uri.Segments[i]
		if seg.IsLabel() {
			byName[seg.Label] = seg
		}
	}
	bound := make(map[model.Identifier]bool, 0)
	for _, b := range ob.Input {
		if b.Location != UriLabel {
			continue
		}
		seg, ok := byName[b.Name]
		if !ok {
			return modelErr(op.Id, b.Name, "URI label member has no placeholder in pattern %q", ob.Uri)
		}
		b.Greedy = seg.Greedy
		bound[b.Name] = true
	}
	for _, name := range labels {
		if !bound[name] {
			return modelErr(op.Id, name, "URI placeholder {%s} has no matching member", name)
		}
	}
	return nil
}
