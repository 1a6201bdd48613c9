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
package model

import (
	"encoding/json"
	"fmt"

	"github.com/boynton/data"
)

//
// BaseType - the closed set of shape kinds. All shapes in the graph are one
// of these; switches over BaseType are expected to be exhaustive.
//
type BaseType int

const (
	_ BaseType = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64
	Integer
	Decimal
	Blob
	String
	Timestamp
	Document
	List
	Map
	Struct
	Enum
	Union
)

var namesBaseType = []string{
	Bool:      "Bool",
	Int8:      "Int8",
	Int16:     "Int16",
	Int32:     "Int32",
	Int64:     "Int64",
	Float32:   "Float32",
	Float64:   "Float64",
	Integer:   "Integer",
	Decimal:   "Decimal",
	Blob:      "Blob",
	String:    "String",
	Timestamp: "Timestamp",
	Document:  "Document",
	List:      "List",
	Map:       "Map",
	Struct:    "Struct",
	Enum:      "Enum",
	Union:     "Union",
}

func (e BaseType) String() string {
	return namesBaseType[e]
}

func (e BaseType) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

func (e *BaseType) UnmarshalJSON(b []byte) error {
	var s string
	err := json.Unmarshal(b, &s)
	if err == nil {
		for v, s2 := range namesBaseType {
			if s == s2 {
				*e = BaseType(v)
				return nil
			}
		}
		err = fmt.Errorf("Bad enum symbol for type BaseType: %s", s)
	}
	return err
}

//
// Identifier - a simple symbolic name that most programming languages can use,
// i.e. "Blah"
//
type Identifier string

//
// Namespace - A sequence of one or more names delimited by a '.', i.e.
// "foo.bar"
//
type Namespace string

//
// AbsoluteIdentifier - an Identifier in a Namespace, i.e. "foo.bar#Blah".
//
type AbsoluteIdentifier string

type StringList []string

// Timestamp wire formats selectable per member via the timestampFormat trait.
// An empty format means "use the default for the binding location".
const (
	FormatEpochSeconds = "epoch-seconds"
	FormatDateTime     = "date-time"
	FormatHttpDate     = "http-date"
)

// Error classification values for exception defs.
const (
	FaultClient = "client"
	FaultServer = "server"
)

//
// TypeDef - a shape definition in the graph. The Id is the shape's stable
// address: aggregate shapes refer to other shapes by Id only, never inline,
// which is what makes self-referential and mutually recursive graphs
// representable. Boxed marks an explicit indirection inserted to break a
// cycle.
//
type TypeDef struct {
	Comment            string             `json:"comment,omitempty"`
	Tags               StringList         `json:"tags,omitempty"`
	Id                 AbsoluteIdentifier `json:"id"`
	Base               BaseType           `json:"base"`
	MinValue           *data.Decimal      `json:"minValue,omitempty"`
	MaxValue           *data.Decimal      `json:"maxValue,omitempty"`
	MinSize            int64              `json:"minSize,omitempty"`
	MaxSize            int64              `json:"maxSize,omitempty"`
	Pattern            string             `json:"pattern,omitempty"`
	Items              AbsoluteIdentifier `json:"items,omitempty"`
	Keys               AbsoluteIdentifier `json:"keys,omitempty"`
	Fields             FieldDefList       `json:"fields,omitempty"`
	Elements           EnumElementList    `json:"elements,omitempty"`
	IsOpen             bool               `json:"isOpen,omitempty"` //open enums admit values beyond the declared symbols
	Boxed              bool               `json:"boxed,omitempty"`
	XmlName            string             `json:"xmlName,omitempty"`
	XmlNamespace       string             `json:"xmlNamespace,omitempty"`
	XmlNamespacePrefix string             `json:"xmlNamespacePrefix,omitempty"`
}

type TypeDefList []*TypeDef

type FieldDefList []*FieldDef

type EnumElementList []*EnumElement

//
// FieldDef - describes each field in a structure or union, along with its
// wire-format directives. A field references exactly one target shape by Id.
//
type FieldDef struct {
	Comment         string             `json:"comment,omitempty"`
	Tags            StringList         `json:"tags,omitempty"`
	Name            Identifier         `json:"name"`
	Type            AbsoluteIdentifier `json:"type"`
	Required        bool               `json:"required,omitempty"`
	JsonName        string             `json:"jsonName,omitempty"`
	XmlName         string             `json:"xmlName,omitempty"`
	XmlAttribute    bool               `json:"xmlAttribute,omitempty"`
	XmlFlattened    bool               `json:"xmlFlattened,omitempty"`
	TimestampFormat string             `json:"timestampFormat,omitempty"`
	MediaType       string             `json:"mediaType,omitempty"`
}

//
// EnumElement - describes each element of an Enum type
//
type EnumElement struct {
	Comment string     `json:"comment,omitempty"`
	Tags    StringList `json:"tags,omitempty"`
	Symbol  Identifier `json:"symbol"`
	Value   string     `json:"value,omitempty"`
}

//
/// OperationDef - describes an operation, including its HTTP request template:
// method, URI pattern with embedded {label} placeholders, and any static
// headers. The template is fixed input from the model, read-only to the
// binding engine.
//
type OperationDef struct {
	Comment     string              `json:"comment,omitempty"`
	Tags        StringList          `json:"tags,omitempty"`
	Id          AbsoluteIdentifier  `json:"id"`
	HttpMethod  string              `json:"httpMethod,omitempty"`
	HttpUri     string              `json:"httpUri,omitempty"`
	HttpHeaders StaticHeaderList    `json:"httpHeaders,omitempty"`
	Input       *OperationInput     `json:"input,omitempty"`
	Output      *OperationOutput    `json:"output,omitempty"`
	Exceptions  OperationOutputList `json:"exceptions,omitempty"`
}

type OperationDefList []*OperationDef

type OperationOutputList []*OperationOutput

//
// StaticHeader - a fixed header on the operation's request template.
//
type StaticHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type StaticHeaderList []*StaticHeader

//
// OperationInput - the description of an operation input. It is similar to a
// Struct definition, but its fields carry HTTP bindings.
//
type OperationInput struct {
	Comment string                  `json:"comment,omitempty"`
	Tags    StringList              `json:"tags,omitempty"`
	Id      AbsoluteIdentifier      `json:"id,omitempty"`
	Fields  OperationInputFieldList `json:"fields,omitempty"`
}

type OperationInputFieldList []*OperationInputField

//
// OperationInputField - an operation input member. At most one of HttpPath,
// HttpQuery, HttpHeader, HttpPrefixHeaders, HttpPayload may be specified;
// a field with none of them travels in the document body.
//
type OperationInputField struct {
	Comment           string             `json:"comment,omitempty"`
	Tags              StringList         `json:"tags,omitempty"`
	Name              Identifier         `json:"name"`
	Type              AbsoluteIdentifier `json:"type"`
	Required          bool               `json:"required,omitempty"`
	HttpHeader        string             `json:"httpHeader,omitempty"`
	HttpPrefixHeaders string             `json:"httpPrefixHeaders,omitempty"`
	HttpQuery         Identifier         `json:"httpQuery,omitempty"`
	HttpPath          bool               `json:"httpPath,omitempty"`
	HttpPayload       bool               `json:"httpPayload,omitempty"`
	JsonName          string             `json:"jsonName,omitempty"`
	XmlName           string             `json:"xmlName,omitempty"`
	XmlAttribute      bool               `json:"xmlAttribute,omitempty"`
	XmlFlattened      bool               `json:"xmlFlattened,omitempty"`
	TimestampFormat   string             `json:"timestampFormat,omitempty"`
	MediaType         string             `json:"mediaType,omitempty"`
}

//
// OperationOutput - the description of an operation output. Similar to a
// Struct definition, but with HTTP bindings. Also used for operation
/// exceptions, in which case the error classification fields apply: Fault is
// "client" or "server", and Retryable/Throttling are static properties
// attached to the parsed error, never computed from a response.
//
type OperationOutput struct {
	Comment    string                   `json:"comment,omitempty"`
	Tags       StringList               `json:"tags,omitempty"`
	Id         AbsoluteIdentifier       `json:"id,omitempty"`
	HttpStatus int32                    `json:"httpStatus,omitempty"`
	Fault      string                   `json:"fault,omitempty"`
	Retryable  bool                     `json:"retryable,omitempty"`
	Throttling bool                     `json:"throttling,omitempty"`
	Fields     OperationOutputFieldList `json:"fields,omitempty"`
}

type OperationOutputFieldList []*OperationOutputField

//
// OperationOutputField
//
type OperationOutputField struct {
	Comment           string             `json:"comment,omitempty"`
	Tags              StringList         `json:"tags,omitempty"`
	Name              Identifier         `json:"name"`
	Type              AbsoluteIdentifier `json:"type"`
	Required          bool               `json:"required,omitempty"`
	HttpHeader        string             `json:"httpHeader,omitempty"`
	HttpPrefixHeaders string             `json:"httpPrefixHeaders,omitempty"`
	HttpPayload       bool               `json:"httpPayload,omitempty"`
	HttpResponseCode  bool               `json:"httpResponseCode,omitempty"`
	JsonName          string             `json:"jsonName,omitempty"`
	XmlName           string             `json:"xmlName,omitempty"`
	XmlAttribute      bool               `json:"xmlAttribute,omitempty"`
	XmlFlattened      bool               `json:"xmlFlattened,omitempty"`
	TimestampFormat   string             `json:"timestampFormat,omitempty"`
	MediaType         string             `json:"mediaType,omitempty"`
}

//
// ServiceDef - the definition of a service, consisting of Types and Operations
//
type ServiceDef struct {
	Comment    string             `json:"comment,omitempty"`
	Tags       StringList         `json:"tags,omitempty"`
	Id         AbsoluteIdentifier `json:"id"`
	Version    string             `json:"version,omitempty"`
	Base       string             `json:"base,omitempty"`
	Types      TypeDefList        `json:"types,omitempty"`
	Operations OperationDefList   `json:"operations,omitempty"`
}
