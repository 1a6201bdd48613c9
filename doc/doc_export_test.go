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
package doc

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
			Id: "example#Greeting", Base: model.Struct,
			Fields: model.FieldDefList{
				{Name: "text", Type: "base#String", Required: true},
			},
		},
	}
	schema.Operations = []*model.OperationDef{
		{
			Id:         "example#Hello",
			Comment:    "Greet the named caller.",
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

func TestGenerateMarkdown(t *testing.T) {
	dir := t.TempDir()
	conf := data.NewObject()
	conf.Put("outdir", dir)
	conf.Put("force", true)

	gen := &Generator{}
	require.NoError(t, gen.Generate(testSchema(), conf))

	raw, err := os.ReadFile(filepath.Join(dir, "Greeter.md"))
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, "# Greeter")
	assert.Contains(t, text, "### Hello")
	assert.Contains(t, text, "GET /hello/{name}")
	assert.Contains(t, text, "Greet the named caller.")
	//the binding table reflects resolved locations, not raw traits
	assert.Contains(t, text, "UriLabel")
	assert.Contains(t, text, "| lang | String | Query | lang |")
	assert.Contains(t, text, "InvalidName")
	assert.Contains(t, text, "On success the response status is 200.")
	assert.Contains(t, text, "## Types")
}

func TestGenerateRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Greeter.md"), []byte("old"), 0o644))
	conf := data.NewObject()
	conf.Put("outdir", dir)

	gen := &Generator{}
	require.NoError(t, gen.Generate(testSchema(), conf))
	//the refusal is recorded, and the existing file is left alone
	require.Error(t, gen.Err)
	assert.Contains(t, gen.Err.Error(), "not overwriting")
	raw, err := os.ReadFile(filepath.Join(dir, "Greeter.md"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(raw))
}
