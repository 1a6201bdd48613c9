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

// Package httpbind composes resolved bindings, the textual codec, and a
// protocol's body format into one request serializer and one response
// parser per operation.
package httpbind

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/restbind/api/bind"
	"github.com/restbind/api/document"
	"github.com/restbind/api/model"
	"github.com/restbind/api/wire"
)

// ErrRequestOnlyProfile is returned by response parsers of a protocol
// profile that deliberately implements only the request direction.
var ErrRequestOnlyProfile = errors.New("response parsing is not implemented for this protocol profile")

// Protocol is a body format plus its error-discriminator convention. The
// assembler is format-agnostic; restjson and restxml provide the two
// implementations.
type Protocol interface {
	Name() string
	ContentType() string
	SerializeBody(schema *model.Schema, shape *model.TypeDef, value *document.Document) ([]byte, error)
	ParseBody(schema *model.Schema, shape *model.TypeDef, body []byte) (*document.Document, error)
	//ErrorInfo extracts the discriminator and a human message from an error
	//response, without requiring the error shape to be known yet.
	ErrorInfo(resp *wire.Response) (code string, message string)
	//SupportsParsing reports whether the profile implements the response
	//direction at all.
	SupportsParsing() bool
}

// RequestSerializer builds a complete wire request from a structured input.
type RequestSerializer func(input *document.Document) (*wire.Request, error)

// ResponseParser builds a structured output from a complete wire response.
// A declared error response is returned as *APIError, anything else
// non-success as *UnhandledError.
type ResponseParser func(resp *wire.Response) (*document.Document, error)

// Assembler builds the per-operation serializer/parser pair for one
// protocol. The two hook lists are the declared extension points: applied
// before the base request is populated, and after, just before returning.
type Assembler struct {
	Schema      *model.Schema
	Protocol    Protocol
	BeforeBuild HookList
	AfterBuild  HookList
	session     *Session
}

func NewAssembler(schema *model.Schema, protocol Protocol) *Assembler {
	return &Assembler{Schema: schema, Protocol: protocol, session: NewSession()}
}

// internBodies routes the synthetic body shapes through the session pool,
// so operations with structurally identical bodies share one TypeDef.
func (a *Assembler) internBodies(ob *bind.OperationBindings) {
	if ob.InputBody != nil {
		ob.InputBody = a.session.InternShape(ob.InputBody)
	}
	if ob.OutputBody != nil {
		ob.OutputBody = a.session.InternShape(ob.OutputBody)
	}
	for _, eb := range ob.Exceptions {
		if eb.Body != nil {
			eb.Body = a.session.InternShape(eb.Body)
		}
	}
}

// RequestSerializer resolves the operation's bindings and returns the
// request-building function. Resolution errors are modeling errors.
func (a *Assembler) RequestSerializer(op *model.OperationDef) (RequestSerializer, error) {
	ob, err := bind.Resolve(a.Schema, op)
	if err != nil {
		return nil, err
	}
	a.internBodies(ob)
	return func(input *document.Document) (*wire.Request, error) {
		return a.buildRequest(ob, input)
	}, nil
}

// ResponseParser resolves the operation's bindings and returns the
// response-parsing function.
func (a *Assembler) ResponseParser(op *model.OperationDef) (ResponseParser, error) {
	ob, err := bind.Resolve(a.Schema, op)
	if err != nil {
		return nil, err
	}
	a.internBodies(ob)
	if !a.Protocol.SupportsParsing() {
		return func(resp *wire.Response) (*document.Document, error) {
			return nil, ErrRequestOnlyProfile
		}, nil
	}
	return func(resp *wire.Response) (*document.Document, error) {
		return a.parseResponse(ob, resp)
	}, nil
}

func (a *Assembler) buildRequest(ob *bind.OperationBindings, input *document.Document) (*wire.Request, error) {
	req := wire.NewRequest(ob.Method, "")
	if err := a.BeforeBuild.Apply(req); err != nil {
		return nil, err
	}
	path, err := a.renderPath(ob, input)
	if err != nil {
		return nil, err
	}
	req.Path = path
	for _, h := range ob.StaticHeaders {
		req.Headers.SetIfAbsent(h.Name, h.Value)
	}
	req.Query = append(req.Query, ob.Uri.StaticQuery...)
	if err := a.renderQuery(ob, input, req); err != nil {
		return nil, err
	}
	if err := a.renderHeaders(ob, input, req); err != nil {
		return nil, err
	}
	if err := a.renderBody(ob, input, req); err != nil {
		return nil, err
	}
	if req.Body != nil {
		req.Headers.SetIfAbsent("Content-Length", strconv.Itoa(len(req.Body)))
	}
	if err := a.AfterBuild.Apply(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (a *Assembler) renderPath(ob *bind.OperationBindings, input *document.Document) (string, error) {
	if len(ob.Uri.Segments) == 0 {
		return "/", nil
	}
	path := ""
	for _, seg := range ob.Uri.Segments {
		if !seg.IsLabel() {
			path += "/" + seg.Literal
			continue
		}
		b := ob.InputLabel(seg.Label)
		if !input.Has(string(b.Name)) {
			return "", bindingErr(ob.OperationId, b.Name, "no value for required URI label")
		}
		text, err := wire.FormatScalar(a.Schema, b.Type, input.Get(string(b.Name)), b.TimestampFormat)
		if err != nil {
			return "", err
		}
		if text == "" {
			return "", bindingErr(ob.OperationId, b.Name, "URI label value must not be empty")
		}
		if seg.Greedy {
			path += "/" + wire.EscapeGreedyPath(text)
		} else {
			path += "/" + wire.EscapePathSegment(text)
		}
	}
	return path, nil
}

func (a *Assembler) renderQuery(ob *bind.OperationBindings, input *document.Document, req *wire.Request) error {
	for _, b := range ob.InputByLocation(bind.Query) {
		//absence and present-but-zero are distinct: an absent optional is
		//skipped, a present zero value is emitted
		if !input.Has(string(b.Name)) {
			if b.Required {
				return bindingErr(ob.OperationId, b.Name, "no value for required query member")
			}
			continue
		}
		value := input.Get(string(b.Name))
		name := wire.EscapeQueryComponent(b.WireName)
		if a.Schema.BaseType(b.Type) == model.List {
			items, ok := value.([]interface{})
			if !ok {
				return bindingErr(ob.OperationId, b.Name, "query list member must be a list value")
			}
			itemType := a.itemType(b.Type)
			for _, item := range items {
				text, err := wire.FormatScalar(a.Schema, itemType, item, b.TimestampFormat)
				if err != nil {
					return err
				}
				req.Query = append(req.Query, wire.Param{Name: name, Value: wire.EscapeQueryComponent(text)})
			}
			continue
		}
		text, err := wire.FormatScalar(a.Schema, b.Type, value, b.TimestampFormat)
		if err != nil {
			return err
		}
		req.Query = append(req.Query, wire.Param{Name: name, Value: wire.EscapeQueryComponent(text)})
	}
	return nil
}

func (a *Assembler) renderHeaders(ob *bind.OperationBindings, input *document.Document, req *wire.Request) error {
	for _, b := range ob.InputByLocation(bind.Header) {
		if !input.Has(string(b.Name)) {
			if b.Required {
				return bindingErr(ob.OperationId, b.Name, "no value for required header member")
			}
			continue
		}
		value := input.Get(string(b.Name))
		if a.Schema.BaseType(b.Type) == model.List {
			items, ok := value.([]interface{})
			if !ok {
				return bindingErr(ob.OperationId, b.Name, "header list member must be a list value")
			}
			if req.Headers.Has(b.WireName) {
				continue
			}
			itemType := a.itemType(b.Type)
			for _, item := range items {
				text, err := wire.FormatScalar(a.Schema, itemType, item, b.TimestampFormat)
				if err != nil {
					return err
				}
				if err := wire.CheckHeaderValue(b.WireName, text); err != nil {
					return err
				}
				req.Headers.Add(b.WireName, text)
			}
			continue
		}
		text, err := wire.FormatScalar(a.Schema, b.Type, value, b.TimestampFormat)
		if err != nil {
			return err
		}
		if err := wire.CheckHeaderValue(b.WireName, text); err != nil {
			return err
		}
		req.Headers.SetIfAbsent(b.WireName, text)
	}
	for _, b := range ob.InputByLocation(bind.PrefixHeaders) {
		m := input.GetDocument(string(b.Name))
		if m == nil {
			continue
		}
		itemType := a.itemType(b.Type)
		for _, k := range m.Keys() {
			text, err := wire.FormatScalar(a.Schema, itemType, m.Get(k), b.TimestampFormat)
			if err != nil {
				return err
			}
			name := b.WireName + k
			if err := wire.CheckHeaderValue(name, text); err != nil {
				return err
			}
			req.Headers.SetIfAbsent(name, text)
		}
	}
	return nil
}

func (a *Assembler) renderBody(ob *bind.OperationBindings, input *document.Document, req *wire.Request) error {
	if pb := ob.InputPayload; pb != nil {
		if !input.Has(string(pb.Name)) {
			if pb.Required {
				return bindingErr(ob.OperationId, pb.Name, "no value for required payload member")
			}
			return nil
		}
		return a.renderPayload(ob, pb, input.Get(string(pb.Name)), req)
	}
	if ob.InputBody != nil {
		body, err := a.Protocol.SerializeBody(a.Schema, ob.InputBody, input)
		if err != nil {
			return err
		}
		req.Body = body
		req.Headers.SetIfAbsent("Content-Type", a.Protocol.ContentType())
	}
	return nil
}

// renderPayload forwards the payload member wholesale as the request body.
// Streams bypass body serialization entirely; Content-Length is left unset
// for them since the length is not determinable up front.
func (a *Assembler) renderPayload(ob *bind.OperationBindings, pb *bind.Binding, value interface{}, req *wire.Request) error {
	contentType := pb.MediaType
	switch v := value.(type) {
	case io.Reader:
		req.BodyStream = v
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	case []byte:
		req.Body = v
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	case string:
		req.Body = []byte(v)
		if contentType == "" {
			contentType = "text/plain"
		}
	default:
		shape := a.Schema.GetTypeDef(pb.Type)
		if shape == nil {
			return &SerdeError{Shape: pb.Type, Member: pb.Name, Reason: "payload shape is not defined"}
		}
		var doc *document.Document
		switch dv := value.(type) {
		case *document.Document:
			doc = dv
		case *document.Union:
			if dv.Unknown {
				return &SerdeError{Shape: pb.Type, Member: pb.Name, Reason: "cannot serialize unknown union variant"}
			}
			doc = document.New()
			doc.Put(dv.Variant, dv.Value)
		default:
			return &SerdeError{Shape: pb.Type, Member: pb.Name, Reason: "payload value must be a document"}
		}
		body, err := a.Protocol.SerializeBody(a.Schema, shape, doc)
		if err != nil {
			return err
		}
		req.Body = body
		if contentType == "" {
			contentType = a.Protocol.ContentType()
		}
	}
	if contentType != "" {
		req.Headers.SetIfAbsent("Content-Type", contentType)
	}
	return nil
}

func (a *Assembler) parseResponse(ob *bind.OperationBindings, resp *wire.Response) (*document.Document, error) {
	if resp.Status >= 300 {
		return nil, a.mapError(ob, resp)
	}
	out := document.New()
	if ob.ResponseCodeMember != "" {
		out.Put(string(ob.ResponseCodeMember), int64(resp.Status))
	}
	for _, b := range ob.OutputByLocation(bind.Header) {
		if err := parseHeaderBinding(a.Schema, b, resp.Headers, out); err != nil {
			return nil, err
		}
	}
	for _, b := range ob.OutputByLocation(bind.PrefixHeaders) {
		m := document.New()
		for _, e := range resp.Headers.Entries() {
			if len(e.Name) > len(b.WireName) && equalFoldPrefix(e.Name, b.WireName) {
				suffix := e.Name[len(b.WireName):]
				v, err := wire.ParseScalar(a.Schema, a.itemType(b.Type), e.Value, b.TimestampFormat)
				if err != nil {
					return nil, err
				}
				m.Put(suffix, v)
			}
		}
		if m.Length() > 0 {
			out.Put(string(b.Name), m)
		}
	}
	if pb := ob.OutputPayload; pb != nil {
		if err := a.parsePayload(pb, resp, out); err != nil {
			return nil, err
		}
	} else if ob.OutputBody != nil {
		doc, err := a.Protocol.ParseBody(a.Schema, ob.OutputBody, resp.Body)
		if err != nil {
			return nil, err
		}
		for _, k := range doc.Keys() {
			out.Put(k, doc.Get(k))
		}
	}
	return out, nil
}

func (a *Assembler) parsePayload(pb *bind.Binding, resp *wire.Response, out *document.Document) error {
	bt := a.Schema.BaseType(pb.Type)
	switch bt {
	case model.Blob:
		if resp.BodyStream != nil {
			out.Put(string(pb.Name), resp.BodyStream)
		} else {
			out.Put(string(pb.Name), resp.Body)
		}
	case model.String, model.Enum:
		out.Put(string(pb.Name), string(resp.Body))
	default:
		shape := a.Schema.GetTypeDef(pb.Type)
		if shape == nil {
			return &SerdeError{Shape: pb.Type, Member: pb.Name, Reason: "payload shape is not defined"}
		}
		doc, err := a.Protocol.ParseBody(a.Schema, shape, resp.Body)
		if err != nil {
			return err
		}
		out.Put(string(pb.Name), doc)
	}
	return nil
}

func parseHeaderBinding(schema *model.Schema, b *bind.Binding, headers *wire.Headers, out *document.Document) error {
	if schema.BaseType(b.Type) == model.List {
		td := schema.GetTypeDef(b.Type)
		if td == nil {
			return &SerdeError{Shape: b.Type, Member: b.Name, Reason: "list shape is not defined"}
		}
		httpDates := schema.BaseType(td.Items) == model.Timestamp && b.TimestampFormat == model.FormatHttpDate
		var items []interface{}
		for _, raw := range headers.Values(b.WireName) {
			for _, text := range wire.SplitHeaderList(raw, httpDates) {
				v, err := wire.ParseScalar(schema, td.Items, text, b.TimestampFormat)
				if err != nil {
					return err
				}
				items = append(items, v)
			}
		}
		if items != nil {
			out.Put(string(b.Name), items)
		}
		return nil
	}
	if !headers.Has(b.WireName) {
		return nil
	}
	v, err := wire.ParseScalar(schema, b.Type, headers.Get(b.WireName), b.TimestampFormat)
	if err != nil {
		return err
	}
	out.Put(string(b.Name), v)
	return nil
}

func (a *Assembler) itemType(listRef model.AbsoluteIdentifier) model.AbsoluteIdentifier {
	if td := a.Schema.GetTypeDef(listRef); td != nil {
		switch td.Base {
		case model.List:
			return td.Items
		case model.Map:
			return td.Items
		}
	}
	return "base#String"
}

func equalFoldPrefix(name, prefix string) bool {
	return len(name) >= len(prefix) && strings.EqualFold(name[:len(prefix)], prefix)
}
