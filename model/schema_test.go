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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSchema() *Schema {
	schema := NewSchema()
	schema.Id = "example#Greeter"
	schema.Version = "1.0"
	schema.Namespace = "example"
	schema.Types = []*TypeDef{
		{Id: "example#Tags", Base: List, Items: "base#String", Tags: StringList{"public"}},
		{Id: "example#Internal", Base: Struct, Fields: FieldDefList{
			{Name: "secret", Type: "base#String"},
		}},
		{
			Id: "example#Greeting", Base: Struct, Tags: StringList{"public"},
			Fields: FieldDefList{
				{Name: "text", Type: "base#String", Required: true},
				{Name: "tags", Type: "example#Tags"},
			},
		},
	}
	schema.Operations = []*OperationDef{
		{
			Id:         "example#Hello",
			HttpMethod: "GET",
			HttpUri:    "/hello/{name}",
			Input: &OperationInput{
				Id: "example#HelloInput",
				Fields: OperationInputFieldList{
					{Name: "name", Type: "base#String", HttpPath: true},
				},
			},
			Output: &OperationOutput{
				Id:         "example#HelloOutput",
				HttpStatus: 200,
				Fields: OperationOutputFieldList{
					{Name: "greeting", Type: "example#Greeting"},
				},
			},
		},
	}
	return schema
}

func TestParseRoundTrip(t *testing.T) {
	schema := sampleSchema()
	back, err := Parse([]byte(Pretty(schema)))
	require.NoError(t, err)
	assert.Equal(t, Namespace("example"), back.Namespace)
	assert.Equal(t, Identifier("Greeter"), back.ServiceName())
	require.NotNil(t, back.GetTypeDef("example#Greeting"))
	assert.Equal(t, Struct, back.GetTypeDef("example#Greeting").Base)
	require.NotNil(t, back.GetOperationDef("example#Hello"))

	_, err = Parse([]byte("not json"))
	assert.Error(t, err)
}

func TestBaseTypeResolution(t *testing.T) {
	schema := sampleSchema()
	assert.Equal(t, String, schema.BaseType("base#String"))
	assert.Equal(t, Blob, schema.BaseType("base#Bytes"))
	assert.Equal(t, Document, schema.BaseType("base#Any"))
	assert.Equal(t, List, schema.BaseType("example#Tags"))
	//unresolvable references are operation in/out shapes, all structs
	assert.Equal(t, Struct, schema.BaseType("example#HelloInput"))
	assert.True(t, schema.IsNumericType("base#Int32"))
	assert.False(t, schema.IsNumericType("base#String"))
	assert.True(t, schema.IsBaseType("base#Decimal"))
}

func TestNamespaced(t *testing.T) {
	schema := sampleSchema()
	assert.Equal(t, AbsoluteIdentifier("base#String"), schema.Namespaced("String"))
	assert.Equal(t, AbsoluteIdentifier("example#HelloRequestContent"), schema.Namespaced("HelloRequestContent"))
}

func TestMergeIntoEmpty(t *testing.T) {
	schema := NewSchema()
	require.NoError(t, schema.Merge(sampleSchema()))
	assert.Equal(t, AbsoluteIdentifier("example#Greeter"), schema.Id)

	err := schema.Merge(sampleSchema())
	assert.Error(t, err)
}

func TestFilterKeepsDependencies(t *testing.T) {
	schema := sampleSchema()
	schema.Filter([]string{"public"})
	assert.NotNil(t, schema.GetTypeDef("example#Greeting"))
	//example#Tags is both tagged and a dependency of Greeting
	assert.NotNil(t, schema.GetTypeDef("example#Tags"))
	assert.Nil(t, schema.GetTypeDef("example#Internal"))
}

func TestValidate(t *testing.T) {
	schema := sampleSchema()
	require.NoError(t, schema.Validate())

	schema.Operations[0].HttpMethod = ""
	err := schema.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no HTTP request template")

	schema = sampleSchema()
	schema.Operations[0].Input.Fields[0].HttpQuery = "name"
	err = schema.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than one binding location")

	schema = sampleSchema()
	schema.Operations[0].Exceptions = OperationOutputList{
		{Id: "example#Oops", HttpStatus: 400, Fault: "sideways"},
	}
	err = schema.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fault must be 'client' or 'server'")
}

func TestIdentifierCasing(t *testing.T) {
	assert.Equal(t, "Widget", Identifier("widget").Capitalized())
	assert.Equal(t, "widget", Identifier("Widget").Uncapitalized())
	assert.Equal(t, "", Identifier("").Capitalized())
}
