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
	"os"
	"strings"

	"github.com/ghodss/yaml"
)

// Schema is the arena holding the full shape graph for one service. Shapes
// are addressed by AbsoluteIdentifier; the indexes are built lazily and the
// graph itself is immutable once generation begins.
type Schema struct {
	ServiceDef
	Namespace Namespace `json:"-"`
	typeIndex map[AbsoluteIdentifier]*TypeDef
	opIndex   map[AbsoluteIdentifier]*OperationDef
}

func NewSchema() *Schema {
	return &Schema{
		ServiceDef: ServiceDef{},
	}
}

// Load reads a model file in the native JSON representation, or YAML with the
// same structure for .yaml/.yml files.
func Load(path string) (*Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Cannot read API file: %v", err)
	}
	var schema *Schema
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		err = yaml.Unmarshal(raw, &schema)
	} else {
		err = json.Unmarshal(raw, &schema)
	}
	if err != nil {
		return nil, fmt.Errorf("Cannot parse API file %s: %v", path, err)
	}
	if schema.Id == "" && len(schema.Operations) == 0 && len(schema.Types) == 0 {
		return nil, fmt.Errorf("API file %s defines no service, operations, or types", path)
	}
	schema.Namespace = schema.ServiceNamespace()
	return schema, nil
}

// Parse reads a model from its native JSON representation.
func Parse(raw []byte) (*Schema, error) {
	var schema *Schema
	err := json.Unmarshal(raw, &schema)
	if err != nil {
		return nil, fmt.Errorf("Cannot parse API data: %v", err)
	}
	schema.Namespace = schema.ServiceNamespace()
	return schema, nil
}

func (ident Identifier) Capitalized() string {
	s := string(ident)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[0:1]) + s[1:]
}

func (ident Identifier) Uncapitalized() string {
	s := string(ident)
	if s == "" {
		return s
	}
	return strings.ToLower(s[0:1]) + s[1:]
}

func BaseTypeByName(name string) BaseType {
	var bt BaseType
	for i, n := range namesBaseType {
		if n == name {
			return BaseType(i)
		}
	}
	return bt
}

func (schema *Schema) String() string {
	return Pretty(schema)
}

func (schema *Schema) ServiceName() Identifier {
	if schema.Id == "" {
		return ""
	}
	lst := strings.Split(string(schema.Id), "#")
	return Identifier(lst[1])
}

func (schema *Schema) ServiceNamespace() Namespace {
	if schema.Id == "" {
		return ""
	}
	lst := strings.Split(string(schema.Id), "#")
	return Namespace(lst[0])
}

func (schema *Schema) GetTypeDef(id AbsoluteIdentifier) *TypeDef {
	if schema.typeIndex == nil {
		schema.typeIndex = make(map[AbsoluteIdentifier]*TypeDef, 0)
		for _, td := range schema.Types {
			schema.typeIndex[td.Id] = td
		}
	}
	return schema.typeIndex[id]
}

func (schema *Schema) AddTypeDef(td *TypeDef) error {
	if schema.GetTypeDef(td.Id) != nil {
		return fmt.Errorf("Duplicate type definition: %s", td.Id)
	}
	schema.Types = append(schema.Types, td)
	schema.typeIndex[td.Id] = td
	return nil
}

func (schema *Schema) GetOperationDef(id AbsoluteIdentifier) *OperationDef {
	if schema.opIndex == nil {
		schema.opIndex = make(map[AbsoluteIdentifier]*OperationDef, 0)
		for _, op := range schema.Operations {
			schema.opIndex[op.Id] = op
		}
	}
	return schema.opIndex[id]
}

func (schema *Schema) AddOperationDef(op *OperationDef) error {
	if schema.GetOperationDef(op.Id) != nil {
		return fmt.Errorf("Duplicate operation definition: %s", op.Id)
	}
	schema.Operations = append(schema.Operations, op)
	schema.opIndex[op.Id] = op
	return nil
}

func (schema *Schema) Merge(another *Schema) error {
	if schema.Id == "" {
		*schema = *another
	} else {
		return fmt.Errorf("Merge two non-empty models NYI")
	}
	return nil
}

// BaseType resolves a type reference to its shape kind. References that are
// not base types and not defined in the arena are operation input/output/
// error shapes, all effectively structs.
func (schema *Schema) BaseType(id AbsoluteIdentifier) BaseType {
	switch id {
	case "base#Bool":
		return Bool
	case "base#Int8":
		return Int8
	case "base#Int16":
		return Int16
	case "base#Int32":
		return Int32
	case "base#Int64":
		return Int64
	case "base#Float32":
		return Float32
	case "base#Float64":
		return Float64
	case "base#Integer":
		return Integer
	case "base#Decimal":
		return Decimal
	case "base#Blob", "base#Bytes":
		return Blob
	case "base#String":
		return String
	case "base#Timestamp":
		return Timestamp
	case "base#Document", "base#Any":
		return Document
	}
	td := schema.GetTypeDef(id)
	if td != nil {
		return td.Base
	}
	return Struct
}

func (schema *Schema) IsStringType(id AbsoluteIdentifier) bool {
	return schema.BaseType(id) == String
}

func (schema *Schema) IsNumericType(id AbsoluteIdentifier) bool {
	switch schema.BaseType(id) {
	case Int8, Int16, Int32, Int64, Float32, Float64, Integer:
		return true
	}
	return false
}

func (schema *Schema) IsBaseType(id AbsoluteIdentifier) bool {
	return strings.HasPrefix(string(id), "base#")
}

func (td *TypeDef) Name() string {
	return StripNamespace(td.Id)
}

func (op *OperationDef) Name() string {
	return StripNamespace(op.Id)
}

func (oi *OperationInput) Name() string {
	return StripNamespace(oi.Id)
}

func (oo *OperationOutput) Name() string {
	return StripNamespace(oo.Id)
}

func StripNamespace(target AbsoluteIdentifier) string {
	t := string(target)
	n := strings.Index(t, "#")
	if n < 0 {
		return t
	}
	return t[n+1:]
}

func (schema *Schema) Namespaced(name string) AbsoluteIdentifier {
	for _, s := range namesBaseType {
		if name == s {
			return AbsoluteIdentifier("base#" + name)
		}
	}
	return AbsoluteIdentifier(string(schema.Namespace) + "#" + name)
}

func SliceContainsString(ary []string, val string) bool {
	for _, s := range ary {
		if s == val {
			return true
		}
	}
	return false
}

// Filter keeps only types carrying one of the given tags, plus everything
// those types depend on.
func (schema *Schema) Filter(tags []string) {
	var root []AbsoluteIdentifier
	for _, td := range schema.Types {
		for _, t := range td.Tags {
			if SliceContainsString(tags, t) {
				root = append(root, td.Id)
			}
		}
	}
	included := make(map[AbsoluteIdentifier]bool, 0)
	for _, k := range root {
		schema.noteDependencies(included, k)
	}
	var filtered []*TypeDef
	for _, td := range schema.Types {
		if included[td.Id] {
			filtered = append(filtered, td)
		}
	}
	schema.Types = filtered
	schema.typeIndex = nil
}

// noteDependencies walks the type graph from id, accumulating every reachable
// shape. The visited set doubles as the cycle guard: recursive shape graphs
// are expected, so every recursive walk in this package must check it.
func (schema *Schema) noteDependencies(included map[AbsoluteIdentifier]bool, id AbsoluteIdentifier) {
	if id == "" {
		return
	}
	if _, ok := included[id]; ok {
		return
	}
	included[id] = true
	td := schema.GetTypeDef(id)
	if td == nil {
		return
	}
	switch td.Base {
	case Struct, Union:
		for _, f := range td.Fields {
			schema.noteDependencies(included, f.Type)
		}
	case List:
		schema.noteDependencies(included, td.Items)
	case Map:
		schema.noteDependencies(included, td.Keys)
		schema.noteDependencies(included, td.Items)
	default:
		//scalar shapes have no dependencies
	}
}

// InputHttpPayload returns the input field marked as the payload, if any.
func (od *OperationDef) InputHttpPayload() *OperationInputField {
	if od.Input != nil {
		for _, f := range od.Input.Fields {
			if f.HttpPayload {
				return f
			}
		}
	}
	return nil
}

// OutputHttpPayload returns the output field marked as the payload, if any.
func (od *OperationDef) OutputHttpPayload() *OperationOutputField {
	if od.Output != nil {
		for _, f := range od.Output.Fields {
			if f.HttpPayload {
				return f
			}
		}
	}
	return nil
}

func (od *OperationDef) OutputHttpPayloadName() string {
	if f := od.OutputHttpPayload(); f != nil {
		return string(f.Name)
	}
	return ""
}
