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

// Package smithy imports Smithy models (IDL or AST JSON) into the native
// schema, mapping the smithy.api HTTP binding traits onto the corresponding
// native directives.
package smithy

import (
	"fmt"
	"strings"

	"github.com/boynton/smithy"
	"github.com/restbind/api/model"
)

// Import assembles the given files into one AST and converts it. IDL files
// are parsed, .json files are read as AST documents, and everything merges
// into a single model.
func Import(paths []string, tags []string) (*model.Schema, error) {
	var ast *smithy.AST
	for _, path := range paths {
		var one *smithy.AST
		var err error
		if strings.HasSuffix(path, ".json") {
			one, err = smithy.LoadAST(path)
		} else {
			one, err = smithy.Parse(path)
		}
		if err != nil {
			return nil, err
		}
		if ast == nil {
			ast = one
		} else if err = ast.Merge(one); err != nil {
			return nil, err
		}
	}
	if ast == nil {
		return nil, fmt.Errorf("no input files to import")
	}
	return ImportAST(ast, tags)
}

type importer struct {
	schema *model.Schema
	ast    *smithy.AST
	//error shapes keyed by shape id, resolved into operations afterwards
	errors map[string]*model.OperationOutput
	//operation id -> error shape ids, pending resolution
	opErrors map[model.AbsoluteIdentifier][]string
}

func ImportAST(ast *smithy.AST, tags []string) (*model.Schema, error) {
	if ast.Shapes == nil {
		return nil, fmt.Errorf("smithy model defines no shapes")
	}
	if len(tags) > 0 {
		ast.Filter(tags)
	}
	imp := &importer{
		schema:   model.NewSchema(),
		ast:      ast,
		errors:   make(map[string]*model.OperationOutput, 0),
		opErrors: make(map[model.AbsoluteIdentifier][]string, 0),
	}
	if ns, _, _ := ast.NamespaceAndServiceVersion(); ns != "" {
		imp.schema.Namespace = model.Namespace(ns)
	}
	if base := ast.Metadata.GetString("basePath"); base != "" {
		imp.schema.Base = base
	}
	//shapes first, so error defs exist before operations reference them
	err := forAllShapes(ast, func(shapeId string, shape *smithy.Shape) error {
		switch shape.Type {
		case "service", "operation", "resource":
			return nil
		}
		return imp.importShape(shapeId, shape)
	})
	if err != nil {
		return nil, err
	}
	err = forAllShapes(ast, func(shapeId string, shape *smithy.Shape) error {
		switch shape.Type {
		case "service":
			return imp.addService(shapeId, shape)
		case "operation":
			return imp.addOperation(shapeId, shape)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := imp.resolveErrors(); err != nil {
		return nil, err
	}
	if imp.schema.Namespace == "" {
		imp.schema.Namespace = imp.schema.ServiceNamespace()
	}
	return imp.schema, nil
}

// forAllShapes visits every shape in definition order.
func forAllShapes(ast *smithy.AST, visit func(shapeId string, shape *smithy.Shape) error) error {
	if ast.Shapes == nil {
		return nil
	}
	for _, k := range ast.Shapes.Keys() {
		if err := visit(k, ast.Shapes.Get(k)); err != nil {
			return err
		}
	}
	return nil
}

func toCanonicalAbsoluteId(id string) model.AbsoluteIdentifier {
	if strings.Contains(id, "#") {
		return model.AbsoluteIdentifier(id)
	}
	model.Warning("Non-absolute id: %q\n", id)
	return model.AbsoluteIdentifier("fixme#" + id)
}

func toCanonicalTypeName(name string) model.AbsoluteIdentifier {
	switch name {
	case "boolean", "smithy.api#Boolean":
		return "base#Bool"
	case "byte", "smithy.api#Byte":
		return "base#Int8"
	case "short", "smithy.api#Short":
		return "base#Int16"
	case "integer", "smithy.api#Integer":
		return "base#Int32"
	case "long", "smithy.api#Long":
		return "base#Int64"
	case "float", "smithy.api#Float":
		return "base#Float32"
	case "double", "smithy.api#Double":
		return "base#Float64"
	case "bigInteger", "smithy.api#BigInteger":
		return "base#Integer"
	case "bigDecimal", "smithy.api#BigDecimal":
		return "base#Decimal"
	case "blob", "smithy.api#Blob":
		return "base#Blob"
	case "string", "smithy.api#String":
		return "base#String"
	case "timestamp", "smithy.api#Timestamp":
		return "base#Timestamp"
	case "document", "smithy.api#Document":
		return "base#Document"
	default:
		return toCanonicalAbsoluteId(name)
	}
}

func (imp *importer) addService(shapeId string, shape *smithy.Shape) error {
	if imp.schema.Id != "" {
		return fmt.Errorf("cannot represent more than one service in a model")
	}
	imp.schema.Id = model.AbsoluteIdentifier(shapeId)
	imp.schema.Version = shape.Version
	imp.schema.Comment = shape.Traits.GetString("smithy.api#documentation")
	for _, ref := range shape.Operations {
		if err := imp.addOperationFromRef(ref); err != nil {
			return err
		}
	}
	for _, ref := range shape.Resources {
		if err := imp.addResourceOperationsFromRef(ref); err != nil {
			return err
		}
	}
	return nil
}

func (imp *importer) addOperationFromRef(ref *smithy.ShapeRef) error {
	if ref == nil {
		return nil
	}
	return imp.addOperation(ref.Target, imp.ast.GetShape(ref.Target))
}

func (imp *importer) addResourceOperationsFromRef(ref *smithy.ShapeRef) error {
	shape := imp.ast.GetShape(ref.Target)
	if shape == nil {
		return fmt.Errorf("shape not found: %s", ref.Target)
	}
	for _, opRef := range shape.Operations {
		if err := imp.addOperationFromRef(opRef); err != nil {
			return err
		}
	}
	for _, opRef := range shape.CollectionOperations {
		if err := imp.addOperationFromRef(opRef); err != nil {
			return err
		}
	}
	for _, subRef := range shape.Resources {
		if err := imp.addResourceOperationsFromRef(subRef); err != nil {
			return err
		}
	}
	for _, lifecycle := range []*smithy.ShapeRef{shape.Create, shape.Put, shape.Read, shape.Update, shape.Delete, shape.List} {
		if err := imp.addOperationFromRef(lifecycle); err != nil {
			return err
		}
	}
	return nil
}

func (imp *importer) addOperation(shapeId string, shape *smithy.Shape) error {
	if shape == nil {
		return fmt.Errorf("operation shape not found: %s", shapeId)
	}
	id := model.AbsoluteIdentifier(shapeId)
	if imp.schema.GetOperationDef(id) != nil {
		return nil
	}
	op := &model.OperationDef{
		Id:      id,
		Comment: shape.Traits.GetString("smithy.api#documentation"),
	}
	if shape.Input != nil && shape.Input.Target != "smithy.api#Unit" {
		op.Input = imp.toOpInput(shape.Input.Target)
	}
	if shape.Output != nil && shape.Output.Target != "smithy.api#Unit" {
		op.Output = imp.toOpOutput(shape.Output.Target, false)
	} else {
		op.Output = &model.OperationOutput{}
	}
	if httpTrait := shape.Traits.GetObject("smithy.api#http"); httpTrait != nil {
		op.HttpMethod = httpTrait.GetString("method")
		op.HttpUri = httpTrait.GetString("uri")
		op.Output.HttpStatus = int32(httpTrait.GetInt("code"))
		if op.Output.HttpStatus == 0 {
			op.Output.HttpStatus = 200
		}
	}
	for _, e := range shape.Errors {
		imp.opErrors[id] = append(imp.opErrors[id], e.Target)
	}
	return imp.schema.AddOperationDef(op)
}

// resolveErrors attaches the imported error shapes to the operations that
// declared them, after both sides exist.
func (imp *importer) resolveErrors() error {
	for _, op := range imp.schema.Operations {
		for _, target := range imp.opErrors[op.Id] {
			def, ok := imp.errors[target]
			if !ok {
				return fmt.Errorf("operation %s references undefined error shape %s", op.Id, target)
			}
			op.Exceptions = append(op.Exceptions, def)
		}
	}
	return nil
}

func (imp *importer) toOpInput(shapeId string) *model.OperationInput {
	shape := imp.ast.GetShape(shapeId)
	if shape == nil {
		model.Error("operation input refers to undefined shape: %s\n", shapeId)
		return nil
	}
	ti := &model.OperationInput{
		Id:      model.AbsoluteIdentifier(shapeId),
		Comment: shape.Traits.GetString("smithy.api#documentation"),
	}
	for _, k := range shape.Members.Keys() {
		mem := shape.Members.Get(k)
		if mem == nil || mem.Target == "" {
			continue
		}
		f := &model.OperationInputField{
			Name:              model.Identifier(k),
			Type:              toCanonicalTypeName(mem.Target),
			Comment:           mem.Traits.GetString("smithy.api#documentation"),
			Required:          mem.Traits.GetBool("smithy.api#required"),
			HttpHeader:        mem.Traits.GetString("smithy.api#httpHeader"),
			HttpPrefixHeaders: mem.Traits.GetString("smithy.api#httpPrefixHeaders"),
			HttpQuery:         model.Identifier(mem.Traits.GetString("smithy.api#httpQuery")),
			HttpPath:          mem.Traits.GetBool("smithy.api#httpLabel"),
			HttpPayload:       mem.Traits.GetBool("smithy.api#httpPayload"),
		}
		if f.HttpPath {
			f.Required = true
		}
		applyMemberWireTraits(mem, &f.JsonName, &f.XmlName, &f.XmlAttribute, &f.XmlFlattened, &f.TimestampFormat, &f.MediaType)
		ti.Fields = append(ti.Fields, f)
	}
	return ti
}

func (imp *importer) toOpOutput(shapeId string, isError bool) *model.OperationOutput {
	shape := imp.ast.GetShape(shapeId)
	if shape == nil {
		model.Error("operation output refers to undefined shape: %s\n", shapeId)
		return nil
	}
	to := &model.OperationOutput{
		Id:      model.AbsoluteIdentifier(shapeId),
		Comment: shape.Traits.GetString("smithy.api#documentation"),
	}
	if isError {
		to.Fault = shape.Traits.GetString("smithy.api#error")
		to.Retryable = shape.Traits.Has("smithy.api#retryable")
		if r := shape.Traits.GetObject("smithy.api#retryable"); r != nil {
			to.Throttling = r.GetBool("throttling")
		}
		to.HttpStatus = int32(shape.Traits.GetInt("smithy.api#httpError"))
	}
	for _, k := range shape.Members.Keys() {
		mem := shape.Members.Get(k)
		if mem == nil || mem.Target == "" {
			continue
		}
		f := &model.OperationOutputField{
			Name:              model.Identifier(k),
			Type:              toCanonicalTypeName(mem.Target),
			Comment:           mem.Traits.GetString("smithy.api#documentation"),
			Required:          mem.Traits.GetBool("smithy.api#required"),
			HttpHeader:        mem.Traits.GetString("smithy.api#httpHeader"),
			HttpPrefixHeaders: mem.Traits.GetString("smithy.api#httpPrefixHeaders"),
			HttpPayload:       mem.Traits.GetBool("smithy.api#httpPayload"),
			HttpResponseCode:  mem.Traits.GetBool("smithy.api#httpResponseCode"),
		}
		applyMemberWireTraits(mem, &f.JsonName, &f.XmlName, &f.XmlAttribute, &f.XmlFlattened, &f.TimestampFormat, &f.MediaType)
		to.Fields = append(to.Fields, f)
	}
	return to
}

// applyMemberWireTraits copies the body-format traits shared by every kind
// of member.
func applyMemberWireTraits(mem *smithy.Member, jsonName, xmlName *string, xmlAttribute, xmlFlattened *bool, tsFormat, mediaType *string) {
	*jsonName = mem.Traits.GetString("smithy.api#jsonName")
	*xmlName = mem.Traits.GetString("smithy.api#xmlName")
	*xmlAttribute = mem.Traits.GetBool("smithy.api#xmlAttribute")
	*xmlFlattened = mem.Traits.GetBool("smithy.api#xmlFlattened")
	*tsFormat = mem.Traits.GetString("smithy.api#timestampFormat")
	*mediaType = mem.Traits.GetString("smithy.api#mediaType")
}

func (imp *importer) importShape(shapeId string, shape *smithy.Shape) error {
	if shape == nil {
		return nil
	}
	td := &model.TypeDef{
		Id:      toCanonicalAbsoluteId(shapeId),
		Comment: shape.Traits.GetString("smithy.api#documentation"),
	}
	number := false
	switch shape.Type {
	case "byte":
		td.Base = model.Int8
		number = true
	case "short":
		td.Base = model.Int16
		number = true
	case "integer":
		td.Base = model.Int32
		number = true
	case "long":
		td.Base = model.Int64
		number = true
	case "float":
		td.Base = model.Float32
		number = true
	case "double":
		td.Base = model.Float64
		number = true
	case "bigInteger":
		td.Base = model.Integer
		number = true
	case "bigDecimal":
		td.Base = model.Decimal
		number = true
	case "boolean":
		td.Base = model.Bool
	case "blob":
		td.Base = model.Blob
	case "timestamp":
		td.Base = model.Timestamp
	case "document":
		td.Base = model.Document
	case "string":
		td.Base = model.String
		td.Pattern = shape.Traits.GetString("smithy.api#pattern")
	case "list":
		td.Base = model.List
		td.Items = toCanonicalTypeName(shape.Member.Target)
	case "map":
		td.Base = model.Map
		td.Keys = toCanonicalTypeName(shape.Key.Target)
		td.Items = toCanonicalTypeName(shape.Value.Target)
	case "union":
		td.Base = model.Union
		imp.importFields(td, shape)
	case "structure":
		if shape.Traits.Has("smithy.api#input") || shape.Traits.Has("smithy.api#output") {
			//the operation using it imports it
			return nil
		}
		if shape.Traits.Has("smithy.api#error") {
			imp.errors[shapeId] = imp.toOpOutput(shapeId, true)
			return nil
		}
		td.Base = model.Struct
		imp.importFields(td, shape)
	case "enum":
		td.Base = model.Enum
		for _, sym := range shape.Members.Keys() {
			el := &model.EnumElement{
				Symbol: model.Identifier(sym),
				Value:  sym,
			}
			if mem := shape.Members.Get(sym); mem != nil && mem.Traits != nil {
				if val := mem.Traits.GetString("smithy.api#enumValue"); val != "" {
					el.Value = val
				}
				el.Comment = mem.Traits.GetString("smithy.api#documentation")
			}
			td.Elements = append(td.Elements, el)
		}
	case "apply":
		return fmt.Errorf("unresolved apply shape: %s", shapeId)
	default:
		return fmt.Errorf("cannot import shape type %q: %s", shape.Type, shapeId)
	}
	applyShapeXmlTraits(td, shape)
	if number {
		if rng := shape.Traits.GetObject("smithy.api#range"); rng != nil {
			td.MinValue = rng.GetDecimal("min")
			td.MaxValue = rng.GetDecimal("max")
		}
	}
	if length := shape.Traits.GetObject("smithy.api#length"); length != nil {
		td.MinSize = int64(length.GetInt("min"))
		td.MaxSize = int64(length.GetInt("max"))
	}
	return imp.schema.AddTypeDef(td)
}

func (imp *importer) importFields(td *model.TypeDef, shape *smithy.Shape) {
	for _, name := range shape.Members.Keys() {
		mem := shape.Members.Get(name)
		if mem == nil || mem.Target == "" {
			continue
		}
		fd := &model.FieldDef{
			Name:     model.Identifier(name),
			Type:     toCanonicalTypeName(mem.Target),
			Required: mem.Traits.GetBool("smithy.api#required"),
			Comment:  mem.Traits.GetString("smithy.api#documentation"),
		}
		applyMemberWireTraits(mem, &fd.JsonName, &fd.XmlName, &fd.XmlAttribute, &fd.XmlFlattened, &fd.TimestampFormat, &fd.MediaType)
		td.Fields = append(td.Fields, fd)
	}
}

func applyShapeXmlTraits(td *model.TypeDef, shape *smithy.Shape) {
	if name := shape.Traits.GetString("smithy.api#xmlName"); name != "" {
		td.XmlName = name
	}
	if xmlns := shape.Traits.GetObject("smithy.api#xmlNamespace"); xmlns != nil {
		td.XmlNamespace = xmlns.GetString("uri")
		td.XmlNamespacePrefix = xmlns.GetString("prefix")
	}
}
