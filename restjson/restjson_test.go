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
package restjson

import (
	"testing"
	"time"

	"github.com/restbind/api/document"
	"github.com/restbind/api/httpbind"
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
			Id:   "example#Suit",
			Base: model.Enum,
			Elements: []*model.EnumElement{
				{Symbol: "clubs"}, {Symbol: "hearts"},
			},
		},
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

func bodyShape() *model.TypeDef {
	return &model.TypeDef{
		Id:   "example#PutThingRequestContent",
		Base: model.Struct,
		Fields: model.FieldDefList{
			{Name: "name", Type: "base#String", Required: true, JsonName: "Name"},
			{Name: "count", Type: "base#Int32"},
			{Name: "ratio", Type: "base#Float64"},
			{Name: "when", Type: "base#Timestamp"},
			{Name: "stamp", Type: "base#Timestamp", TimestampFormat: model.FormatDateTime},
			{Name: "data", Type: "base#Blob"},
			{Name: "tags", Type: "example#Tags"},
			{Name: "counters", Type: "example#Counters"},
			{Name: "origin", Type: "example#Point"},
			{Name: "place", Type: "example#Place"},
			{Name: "suit", Type: "example#Suit"},
		},
	}
}

func TestSerializeBody(t *testing.T) {
	schema := testSchema()
	p := New()
	ts := time.Unix(10123125, 0).UTC()
	value := document.New().
		Put("name", "thing-1").
		Put("count", int64(0)).
		Put("when", ts).
		Put("stamp", ts).
		Put("data", []byte("hi")).
		Put("tags", []interface{}{"a", "b"}).
		Put("origin", document.New().Put("x", int64(1)).Put("y", int64(2)))

	b, err := p.SerializeBody(schema, bodyShape(), value)
	require.NoError(t, err)
	assert.JSONEq(t, `{
        "Name": "thing-1",
        "count": 0,
        "when": 10123125,
        "stamp": "1970-04-28T03:58:45Z",
        "data": "aGk=",
        "tags": ["a", "b"],
        "origin": {"x": 1, "y": 2}
    }`, string(b))
}

func TestSerializeRequiredMissing(t *testing.T) {
	schema := testSchema()
	_, err := New().SerializeBody(schema, bodyShape(), document.New().Put("count", int64(1)))
	require.Error(t, err)
	var serr *httpbind.SerdeError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, model.Identifier("name"), serr.Member)
}

func TestParseBodyRoundTrip(t *testing.T) {
	schema := testSchema()
	p := New()
	ts := time.Unix(10123125, 0).UTC()
	value := document.New().
		Put("name", "thing-1").
		Put("count", int64(3)).
		Put("ratio", 1.5).
		Put("when", ts).
		Put("data", []byte("hi")).
		Put("tags", []interface{}{"a"}).
		Put("counters", document.New().Put("reads", int64(7))).
		Put("origin", document.New().Put("x", int64(1)).Put("y", int64(2))).
		Put("place", document.NewUnion("city", "Seattle")).
		Put("suit", "hearts")

	b, err := p.SerializeBody(schema, bodyShape(), value)
	require.NoError(t, err)
	back, err := p.ParseBody(schema, bodyShape(), b)
	require.NoError(t, err)
	assert.True(t, value.Equal(back), "got %s", back)
}

func TestParseBodySkipsUnknownKeys(t *testing.T) {
	schema := testSchema()
	body := []byte(`{"Name": "x", "brandNewField": {"nested": true}, "count": 2}`)
	doc, err := New().ParseBody(schema, bodyShape(), body)
	require.NoError(t, err)
	assert.Equal(t, "x", doc.GetString("name"))
	assert.Equal(t, int64(2), doc.GetInt64("count"))
	assert.False(t, doc.Has("brandNewField"))
}

func TestParseBodyEmptyIsEmptyObject(t *testing.T) {
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

	_, err = New().ParseBody(schema, bodyShape(), nil)
	assert.Error(t, err, "required member must still be enforced")
}

func TestParseBodyRequiredMissing(t *testing.T) {
	schema := testSchema()
	_, err := New().ParseBody(schema, bodyShape(), []byte(`{"count": 2}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required member is missing")
}

func TestParseBodyNullMembers(t *testing.T) {
	schema := testSchema()
	doc, err := New().ParseBody(schema, bodyShape(), []byte(`{"Name":"x","origin":null,"count":null}`))
	require.NoError(t, err)
	assert.Equal(t, "x", doc.GetString("name"))
	assert.False(t, doc.Has("origin"), "null reads the same as absent")
	assert.False(t, doc.Has("count"))

	_, err = New().ParseBody(schema, bodyShape(), []byte(`{"Name":null,"count":2}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required member is null")
}

func TestParseBodyNotAnObject(t *testing.T) {
	schema := testSchema()
	_, err := New().ParseBody(schema, bodyShape(), []byte(`[1,2,3]`))
	assert.Error(t, err)
}

func TestParseBodyPreservesKeyOrder(t *testing.T) {
	schema := testSchema()
	shape := &model.TypeDef{
		Id:   "example#Loose",
		Base: model.Struct,
		Fields: model.FieldDefList{
			{Name: "z", Type: "base#String"},
			{Name: "a", Type: "base#String"},
		},
	}
	doc, err := New().ParseBody(schema, shape, []byte(`{"z":"1","a":"2"}`))
	require.NoError(t, err)
	//member declaration order wins over wire order
	assert.Equal(t, []string{"z", "a"}, doc.Keys())
}

func TestUnknownUnionVariant(t *testing.T) {
	schema := testSchema()
	shape := &model.TypeDef{
		Id:   "example#Holder",
		Base: model.Struct,
		Fields: model.FieldDefList{
			{Name: "place", Type: "example#Place"},
		},
	}
	doc, err := New().ParseBody(schema, shape, []byte(`{"place":{"galaxy":"far away"}}`))
	require.NoError(t, err)
	u := doc.GetUnion("place")
	require.NotNil(t, u)
	assert.True(t, u.Unknown)
	assert.Equal(t, "galaxy", u.Variant)

	//an unknown variant can never be put back on the wire
	_, err = New().SerializeBody(schema, shape, doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown union variant")
}

func TestUnionExactlyOneKey(t *testing.T) {
	schema := testSchema()
	shape := &model.TypeDef{
		Id:   "example#Holder",
		Base: model.Struct,
		Fields: model.FieldDefList{
			{Name: "place", Type: "example#Place"},
		},
	}
	_, err := New().ParseBody(schema, shape, []byte(`{"place":{"city":"a","point":{"x":1,"y":2}}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one key")
}

func TestRequestOnlyProfile(t *testing.T) {
	schema := testSchema()
	p := NewRequestOnly()
	assert.False(t, p.SupportsParsing())

	_, err := p.SerializeBody(schema, bodyShape(), document.New().Put("name", "x"))
	require.NoError(t, err)

	_, err = p.ParseBody(schema, bodyShape(), []byte(`{}`))
	assert.ErrorIs(t, err, httpbind.ErrRequestOnlyProfile)
}

func TestErrorInfo(t *testing.T) {
	p := New()

	resp := wire.NewResponse(400)
	resp.Body = []byte(`{"__type":"example#InvalidGreeting:http://internal", "Message":"bad hello"}`)
	code, message := p.ErrorInfo(resp)
	assert.Equal(t, "example#InvalidGreeting:http://internal", code)
	assert.Equal(t, "bad hello", message)

	resp = wire.NewResponse(400)
	resp.Headers.Add("X-Error-Type", "InvalidGreeting")
	resp.Body = []byte(`{"code":"Ignored","message":"from header"}`)
	code, message = p.ErrorInfo(resp)
	assert.Equal(t, "InvalidGreeting", code)
	assert.Equal(t, "from header", message)

	resp = wire.NewResponse(500)
	resp.Body = []byte(`not json`)
	code, message = p.ErrorInfo(resp)
	assert.Equal(t, "", code)
	assert.Equal(t, "", message)
}
