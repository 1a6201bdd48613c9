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
package restxml

import (
	"testing"
	"time"

	"github.com/restbind/api/document"
	"github.com/restbind/api/model"
	"github.com/restbind/api/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *model.Schema {
	schema := model.NewSchema()
	schema.Namespace = "example"
	schema.Types = []*model.TypeDef{
		{
			Id:    "example#Tags",
			Base:  model.List,
			Items: "base#String",
		},
		{
			Id:    "example#Counters",
			Base:  model.Map,
			Keys:  "base#String",
			Items: "base#Int64",
		},
		{
			Id:   "example#Point",
			Base: model.Struct,
			Fields: model.FieldDefList{
				{Name: "x", Type: "base#Int32", Required: true},
				{Name: "y", Type: "base#Int32", Required: true},
			},
		},
		{
			Id:   "example#Place",
			Base: model.Union,
			Fields: model.FieldDefList{
				{Name: "city", Type: "base#String"},
				{Name: "point", Type: "example#Point"},
			},
		},
	}
	return schema
}

func thingShape() *model.TypeDef {
	return &model.TypeDef{
		Id:      "example#Thing",
		Base:    model.Struct,
		XmlName: "Thing",
		Fields: model.FieldDefList{
			{Name: "id", Type: "base#String", Required: true, XmlAttribute: true},
			{Name: "name", Type: "base#String", Required: true, XmlName: "DisplayName"},
			{Name: "when", Type: "base#Timestamp"},
			{Name: "tags", Type: "example#Tags"},
			{Name: "aliases", Type: "example#Tags", XmlFlattened: true, XmlName: "Alias"},
			{Name: "counters", Type: "example#Counters"},
			{Name: "origin", Type: "example#Point"},
			{Name: "place", Type: "example#Place"},
		},
	}
}

func TestSerializeBody(t *testing.T) {
	schema := testSchema()
	ts := time.Unix(10123125, 0).UTC()
	value := document.New().
		Put("id", "t-1").
		Put("name", "first thing").
		Put("when", ts).
		Put("tags", []interface{}{"a", "b"}).
		Put("aliases", []interface{}{"one", "two"})

	b, err := New().SerializeBody(schema, thingShape(), value)
	require.NoError(t, err)
	expected := `<Thing id="t-1">` +
		`<DisplayName>first thing</DisplayName>` +
		`<when>1970-04-28T03:58:45Z</when>` +
		`<tags><member>a</member><member>b</member></tags>` +
		`<Alias>one</Alias><Alias>two</Alias>` +
		`</Thing>`
	assert.Equal(t, expected, string(b))
}

func TestRoundTrip(t *testing.T) {
	schema := testSchema()
	p := New()
	ts := time.Unix(10123125, 0).UTC()
	value := document.New().
		Put("id", "t-1").
		Put("name", "first thing").
		Put("when", ts).
		Put("tags", []interface{}{"a", "b"}).
		Put("aliases", []interface{}{"one"}).
		Put("counters", document.New().Put("reads", int64(7)).Put("writes", int64(2))).
		Put("origin", document.New().Put("x", int64(1)).Put("y", int64(2))).
		Put("place", document.NewUnion("point", document.New().Put("x", int64(3)).Put("y", int64(4))))

	b, err := p.SerializeBody(schema, thingShape(), value)
	require.NoError(t, err)
	back, err := p.ParseBody(schema, thingShape(), b)
	require.NoError(t, err)
	assert.True(t, value.Equal(back), "got %s", back)
}

func TestParseSkipsUnknownElements(t *testing.T) {
	schema := testSchema()
	body := []byte(`<Thing id="t-1"><DisplayName>x</DisplayName><futureField><inner>1</inner></futureField></Thing>`)
	doc, err := New().ParseBody(schema, thingShape(), body)
	require.NoError(t, err)
	assert.Equal(t, "x", doc.GetString("name"))
	assert.False(t, doc.Has("futureField"))
}

func TestRequiredAttributeMissing(t *testing.T) {
	schema := testSchema()
	_, err := New().ParseBody(schema, thingShape(), []byte(`<Thing><DisplayName>x</DisplayName></Thing>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required attribute is missing")
}

func TestUnknownUnionVariant(t *testing.T) {
	schema := testSchema()
	body := []byte(`<Thing id="t-1"><DisplayName>x</DisplayName><place><galaxy>far</galaxy></place></Thing>`)
	doc, err := New().ParseBody(schema, thingShape(), body)
	require.NoError(t, err)
	u := doc.GetUnion("place")
	require.NotNil(t, u)
	assert.True(t, u.Unknown)
	assert.Equal(t, "galaxy", u.Variant)

	_, err = New().SerializeBody(schema, thingShape(), doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown union variant")
}

func TestXmlNamespaceOnRoot(t *testing.T) {
	schema := testSchema()
	shape := &model.TypeDef{
		Id:           "example#Wrapped",
		Base:         model.Struct,
		XmlNamespace: "https://example.com/ns",
		Fields: model.FieldDefList{
			{Name: "value", Type: "base#String"},
		},
	}
	b, err := New().SerializeBody(schema, shape, document.New().Put("value", "v"))
	require.NoError(t, err)
	assert.Equal(t, `<Wrapped xmlns="https://example.com/ns"><value>v</value></Wrapped>`, string(b))
}

func TestErrorInfo(t *testing.T) {
	p := New()

	resp := wire.NewResponse(400)
	resp.Body = []byte(`<Error><Code>InvalidGreeting</Code><Message>bad hello</Message></Error>`)
	code, message := p.ErrorInfo(resp)
	assert.Equal(t, "InvalidGreeting", code)
	assert.Equal(t, "bad hello", message)

	resp.Body = []byte(`<ErrorResponse><Error><Code>Throttled</Code><Message>slow down</Message></Error></ErrorResponse>`)
	code, message = p.ErrorInfo(resp)
	assert.Equal(t, "Throttled", code)
	assert.Equal(t, "slow down", message)

	resp.Body = nil
	code, message = p.ErrorInfo(resp)
	assert.Equal(t, "", code)
	assert.Equal(t, "", message)
}

func TestParseEmptyBody(t *testing.T) {
	schema := testSchema()
	shape := &model.TypeDef{
		Id:   "example#NoRequired",
		Base: model.Struct,
		Fields: model.FieldDefList{
			{Name: "maybe", Type: "base#String"},
		},
	}
	doc, err := New().ParseBody(schema, shape, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Length())
}
