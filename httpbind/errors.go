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
	"strings"

	"github.com/restbind/api/bind"
	"github.com/restbind/api/document"
	"github.com/restbind/api/model"
	"github.com/restbind/api/wire"
)

// BindingError - a required member had no resolvable value at request-build
// time. Surfaced to the caller of the request serializer, never a panic.
type BindingError struct {
	Operation model.AbsoluteIdentifier
	Member    model.Identifier
	Reason    string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("binding error: %s$%s: %s", model.StripNamespace(e.Operation), e.Member, e.Reason)
}

func bindingErr(op model.AbsoluteIdentifier, member model.Identifier, format string, args ...interface{}) error {
	return &BindingError{Operation: op, Member: member, Reason: fmt.Sprintf(format, args...)}
}

// SerdeError - a body failed to serialize or parse. Member is set when the
// failure is attributable to a specific member.
type SerdeError struct {
	Shape  model.AbsoluteIdentifier
	Member model.Identifier
	Reason string
}

func (e *SerdeError) Error() string {
	context := model.StripNamespace(e.Shape)
	if e.Member != "" {
		context = context + "$" + string(e.Member)
	}
	return fmt.Sprintf("serde error: %s: %s", context, e.Reason)
}

// APIError - a wire error response matched one of the operation's declared
// error shapes. Fault and the retry classification come from the model, not
// from the response.
type APIError struct {
	Shape      string
	Fault      string
	Retryable  bool
	Throttling bool
	Status     int
	Message    string
	Fields     *document.Document
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Shape, e.Message)
	}
	return e.Shape
}

// UnhandledError - the generic fallback for an error response that matched
// no declared error shape, e.g. a newer variant added after generation.
type UnhandledError struct {
	Code      string
	Message   string
	RequestID string
	Status    int
}

func (e *UnhandledError) Error() string {
	code := e.Code
	if code == "" {
		code = fmt.Sprintf("http status %d", e.Status)
	}
	if e.Message != "" {
		return fmt.Sprintf("unhandled error %s: %s", code, e.Message)
	}
	return "unhandled error " + code
}

const requestIdHeader = "X-Request-Id"

// sanitizeErrorCode reduces a discriminator to a bare shape name: a
// namespaced id ("ns#Name") keeps the part after '#', and any URI suffix
// after ':' is dropped.
func sanitizeErrorCode(code string) string {
	if n := strings.Index(code, ":"); n >= 0 {
		code = code[:n]
	}
	if n := strings.Index(code, "#"); n >= 0 {
		code = code[n+1:]
	}
	return strings.TrimSpace(code)
}

// mapError selects the declared error shape matching the response's
// discriminator and parses the response into it; anything else becomes an
// UnhandledError carrying the raw code, message, and request id when
// available.
func (a *Assembler) mapError(ob *bind.OperationBindings, resp *wire.Response) error {
	rawCode, message := a.Protocol.ErrorInfo(resp)
	code := sanitizeErrorCode(rawCode)
	for _, eb := range ob.Exceptions {
		if eb.Name != code {
			continue
		}
		apiErr := &APIError{
			Shape:      eb.Name,
			Fault:      eb.Def.Fault,
			Retryable:  eb.Def.Retryable,
			Throttling: eb.Def.Throttling,
			Status:     resp.Status,
			Fields:     document.New(),
		}
		if eb.Body != nil {
			fields, err := a.Protocol.ParseBody(a.Schema, eb.Body, resp.Body)
			if err != nil {
				return err
			}
			apiErr.Fields = fields
		}
		for _, hb := range eb.Headers {
			if err := parseHeaderBinding(a.Schema, hb, resp.Headers, apiErr.Fields); err != nil {
				return err
			}
		}
		for _, k := range apiErr.Fields.Keys() {
			if strings.EqualFold(k, "message") {
				apiErr.Message, _ = apiErr.Fields.Get(k).(string)
			}
		}
		return apiErr
	}
	return &UnhandledError{
		Code:      code,
		Message:   message,
		RequestID: resp.Headers.Get(requestIdHeader),
		Status:    resp.Status,
	}
}
