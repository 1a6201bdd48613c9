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
package golang

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/boynton/data"
	"github.com/restbind/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *model.Schema {
	schema := model.NewSchema()
	schema.Id = "example#Greeter"
	schema.Version = "1.0"
	schema.Namespace = "example"
	schema.Types = []*model.TypeDef{
		{
			Id:   "example#Suit",
			Base: model.Enum,
			Elements: []*model.EnumElement{
				{Symbol: "clubs"}, {Symbol: "hearts", Value: "all hearts"},
			},
		},
		{Id: "example#Tags", Base: model.List, Items: "base#String"},
		{
			Id: "example#Greeting", Base: model.Struct,
			Fields: model.FieldDefList{
				{Name: "text", Type: "base#String", Required: true},
				{Name: "when", Type: "base#Timestamp"},
				{Name: "tags", Type: "example#Tags"},
			},
		},
	}
	schema.Operations = []*model.OperationDef{
		{
			Id:         "example#Hello",
			HttpMethod: "GET",
			HttpUri:    "/hello/{name}",
			Input: &model.OperationInput{
				Id: "example#HelloInput",
				Fields: model.OperationInputFieldList{
					{Name: "name", Type: "base#String", HttpPath: true},
					{Name: "lang", Type: "base#String", HttpQuery: "lang"},
				},
			},
			Output: &model.OperationOutput{
				Id:         "example#HelloOutput",
				HttpStatus: 200,
				Fields: model.OperationOutputFieldList{
					{Name: "greeting", Type: "example#Greeting"},
				},
			},
			Exceptions: model.OperationOutputList{
				{
					Id:         "example#InvalidName",
					HttpStatus: 400,
					Fault:      "client",
					Fields: model.OperationOutputFieldList{
						{Name: "message", Type: "base#String"},
					},
				},
			},
		},
	}
	return schema
}

func generate(t *testing.T, extra map[string]interface{}) map[string]string {
	t.Helper()
	dir := t.TempDir()
	conf := data.NewObject()
	conf.Put("outdir", dir)
	conf.Put("force", true)
	for k, v := range extra {
		conf.Put(k, v)
	}
	gen := &Generator{}
	require.NoError(t, gen.Generate(testSchema(), conf))
	require.NoError(t, gen.Err)

	out := make(map[string]string, 0)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		out[e.Name()] = string(raw)
	}
	return out
}

func TestGenerateFiles(t *testing.T) {
	files := generate(t, nil)
	require.Len(t, files, 4)
	for _, name := range []string{"example_types.go", "example_operations.go", "example_client.go", "example_server.go"} {
		assert.Contains(t, files, name)
		assert.Contains(t, files[name], "package example\n")
	}
}

func TestGeneratedTypes(t *testing.T) {
	files := generate(t, nil)
	types := files["example_types.go"]
	assert.Contains(t, types, "type Greeting struct {")
	assert.Contains(t, types, "Text string `json:\"text\"`")
	assert.Contains(t, types, "When time.Time `json:\"when,omitempty\"`")
	assert.Contains(t, types, "type Tags []string")
	assert.Contains(t, types, "type Suit string")
	assert.Contains(t, types, `SuitHearts Suit = "all hearts"`)
	assert.Contains(t, types, "func (e *Suit) UnmarshalJSON(")
	//a closed enum rejects undeclared symbols
	assert.Contains(t, types, "bad enum symbol for Suit")
}

func TestGeneratedOperations(t *testing.T) {
	files := generate(t, nil)
	ops := files["example_operations.go"]
	assert.Contains(t, ops, "type Greeter interface {")
	assert.Contains(t, ops, "Hello(*HelloInput) (*HelloOutput, error)")
	assert.Contains(t, ops, "type HelloInput struct {")
	assert.Contains(t, ops, "type InvalidName struct {")
	assert.Contains(t, ops, "func (e *InvalidName) Error() string")
}

func TestGeneratedClient(t *testing.T) {
	files := generate(t, nil)
	client := files["example_client.go"]
	assert.Contains(t, client, "func NewClient(endpoint string) (*Client, error)")
	assert.Contains(t, client, "const apiModelJSON = `")
	assert.Contains(t, client, "restjson.New()")
	assert.Contains(t, client, `"github.com/restbind/api/restjson"`)
	assert.Contains(t, client, "func (c *Client) Hello(input *HelloInput) (*HelloOutput, error)")
}

func TestGeneratedClientRestXml(t *testing.T) {
	files := generate(t, map[string]interface{}{"golang.protocol": "rest-xml"})
	client := files["example_client.go"]
	assert.Contains(t, client, "restxml.New()")
	assert.Contains(t, client, `"github.com/restbind/api/restxml"`)
	assert.NotContains(t, client, "restjson.New()")
}

func TestGeneratedServer(t *testing.T) {
	files := generate(t, nil)
	server := files["example_server.go"]
	assert.Contains(t, server, "func InitRouter(impl Greeter) *mux.Router {")
	assert.Contains(t, server, `"/hello/{name}"`)
	assert.Contains(t, server, `.Methods("GET")`)
	assert.Contains(t, server, `"github.com/gorilla/mux"`)
}

func TestGeneratedBoxedTypeRef(t *testing.T) {
	dir := t.TempDir()
	conf := data.NewObject()
	conf.Put("outdir", dir)
	conf.Put("force", true)
	schema := testSchema()
	schema.Types = append(schema.Types,
		&model.TypeDef{Id: "example#Chain", Base: model.List, Items: "example#Chain", Boxed: true},
		&model.TypeDef{
			Id: "example#Wrapper", Base: model.Struct,
			Fields: model.FieldDefList{
				{Name: "chain", Type: "example#Chain"},
			},
		},
	)
	gen := &Generator{}
	require.NoError(t, gen.Generate(schema, conf))
	require.NoError(t, gen.Err)

	raw, err := os.ReadFile(filepath.Join(dir, "example_types.go"))
	require.NoError(t, err)
	types := string(raw)
	//a boxed shape is always referenced through a pointer
	assert.Contains(t, types, "type Chain []*Chain")
	assert.Contains(t, types, "Chain *Chain `json:\"chain,omitempty\"`")
}

func TestPackageName(t *testing.T) {
	assert.Equal(t, "weather", packageName("example.weather"))
	assert.Equal(t, "example", packageName("Example"))
}
