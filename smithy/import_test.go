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
package smithy

import (
	"testing"

	"github.com/boynton/data"
	"github.com/boynton/smithy"
	"github.com/restbind/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func traits(pairs ...interface{}) *data.Object {
	o := data.NewObject()
	for i := 0; i+1 < len(pairs); i += 2 {
		o.Put(pairs[i].(string), pairs[i+1])
	}
	return o
}

func member(target string, pairs ...interface{}) *smithy.Member {
	return &smithy.Member{Target: target, Traits: traits(pairs...)}
}

// greeterAST builds a small service model the way the assembler would hand
// it over: trait values keyed by their absolute smithy.api ids, nested trait
// bodies as plain objects.
func greeterAST() *smithy.AST {
	ast := &smithy.AST{Smithy: "2.0"}

	svc := &smithy.Shape{
		Type:       "service",
		Version:    "1",
		Traits:     traits("smithy.api#documentation", "A tiny greeting service"),
		Operations: []*smithy.ShapeRef{{Target: "example#Hello"}},
	}
	ast.PutShape("example#Greeter", svc)

	httpTrait := data.NewObject()
	httpTrait.Put("method", "GET")
	httpTrait.Put("uri", "/hello/{name}")
	httpTrait.Put("code", float64(200))
	op := &smithy.Shape{
		Type:   "operation",
		Traits: traits("smithy.api#http", httpTrait),
		Input:  &smithy.ShapeRef{Target: "example#HelloInput"},
		Output: &smithy.ShapeRef{Target: "example#HelloOutput"},
		Errors: []*smithy.ShapeRef{{Target: "example#InvalidName"}},
	}
	ast.PutShape("example#Hello", op)

	in := &smithy.Shape{Type: "structure", Traits: traits("smithy.api#input", data.NewObject()), Members: smithy.NewMembers()}
	in.Members.Put("name", member("example#Name",
		"smithy.api#httpLabel", true,
		"smithy.api#required", true))
	ast.PutShape("example#HelloInput", in)

	out := &smithy.Shape{Type: "structure", Traits: traits("smithy.api#output", data.NewObject()), Members: smithy.NewMembers()}
	out.Members.Put("greeting", member("smithy.api#String",
		"smithy.api#jsonName", "Greeting"))
	ast.PutShape("example#HelloOutput", out)

	retryable := data.NewObject()
	retryable.Put("throttling", true)
	exc := &smithy.Shape{
		Type: "structure",
		Traits: traits(
			"smithy.api#error", "client",
			"smithy.api#retryable", retryable,
			"smithy.api#httpError", float64(404)),
		Members: smithy.NewMembers(),
	}
	exc.Members.Put("message", member("smithy.api#String"))
	ast.PutShape("example#InvalidName", exc)

	lengthTrait := data.NewObject()
	lengthTrait.Put("min", float64(1))
	lengthTrait.Put("max", float64(10))
	ast.PutShape("example#Name", &smithy.Shape{
		Type: "string",
		Traits: traits(
			"smithy.api#pattern", "^[a-z]+$",
			"smithy.api#length", lengthTrait),
	})

	rangeTrait := data.NewObject()
	rangeTrait.Put("min", float64(1))
	rangeTrait.Put("max", float64(100))
	ast.PutShape("example#Count", &smithy.Shape{
		Type:   "integer",
		Traits: traits("smithy.api#range", rangeTrait),
	})

	return ast
}

func TestImportAST(t *testing.T) {
	schema, err := ImportAST(greeterAST(), nil)
	require.NoError(t, err)

	assert.Equal(t, model.AbsoluteIdentifier("example#Greeter"), schema.Id)
	assert.Equal(t, "1", schema.Version)
	assert.Equal(t, "A tiny greeting service", schema.Comment)
	assert.Equal(t, model.Namespace("example"), schema.Namespace)

	op := schema.GetOperationDef("example#Hello")
	require.NotNil(t, op)
	assert.Equal(t, "GET", op.HttpMethod)
	assert.Equal(t, "/hello/{name}", op.HttpUri)
	require.NotNil(t, op.Output)
	assert.Equal(t, int32(200), op.Output.HttpStatus)

	require.NotNil(t, op.Input)
	require.Len(t, op.Input.Fields, 1)
	name := op.Input.Fields[0]
	assert.Equal(t, model.Identifier("name"), name.Name)
	assert.Equal(t, model.AbsoluteIdentifier("example#Name"), name.Type)
	assert.True(t, name.HttpPath)
	assert.True(t, name.Required)

	require.Len(t, op.Output.Fields, 1)
	assert.Equal(t, "Greeting", op.Output.Fields[0].JsonName)
}

func TestImportASTErrorShape(t *testing.T) {
	schema, err := ImportAST(greeterAST(), nil)
	require.NoError(t, err)

	op := schema.GetOperationDef("example#Hello")
	require.NotNil(t, op)
	require.Len(t, op.Exceptions, 1)
	exc := op.Exceptions[0]
	assert.Equal(t, model.AbsoluteIdentifier("example#InvalidName"), exc.Id)
	assert.Equal(t, "client", exc.Fault)
	assert.True(t, exc.Retryable)
	assert.True(t, exc.Throttling)
	assert.Equal(t, int32(404), exc.HttpStatus)
}

func TestImportASTConstraintTraits(t *testing.T) {
	schema, err := ImportAST(greeterAST(), nil)
	require.NoError(t, err)

	nameType := schema.GetTypeDef("example#Name")
	require.NotNil(t, nameType)
	assert.Equal(t, model.String, nameType.Base)
	assert.Equal(t, "^[a-z]+$", nameType.Pattern)
	assert.Equal(t, int64(1), nameType.MinSize)
	assert.Equal(t, int64(10), nameType.MaxSize)

	count := schema.GetTypeDef("example#Count")
	require.NotNil(t, count)
	assert.Equal(t, model.Int32, count.Base)
	require.NotNil(t, count.MinValue)
	assert.Equal(t, float64(1), count.MinValue.AsFloat64())
	require.NotNil(t, count.MaxValue)
	assert.Equal(t, float64(100), count.MaxValue.AsFloat64())
}

func TestImportASTDefaultStatus(t *testing.T) {
	ast := greeterAST()
	httpTrait := data.NewObject()
	httpTrait.Put("method", "DELETE")
	httpTrait.Put("uri", "/hello/{name}")
	ast.GetShape("example#Hello").Traits.Put("smithy.api#http", httpTrait)

	schema, err := ImportAST(ast, nil)
	require.NoError(t, err)
	op := schema.GetOperationDef("example#Hello")
	require.NotNil(t, op)
	assert.Equal(t, "DELETE", op.HttpMethod)
	assert.Equal(t, int32(200), op.Output.HttpStatus)
}
