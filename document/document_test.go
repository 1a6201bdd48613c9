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
package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocumentPreservesInsertionOrder(t *testing.T) {
	d := New().Put("z", 1).Put("a", 2).Put("m", 3)
	assert.Equal(t, []string{"z", "a", "m"}, d.Keys())

	//re-putting an existing key keeps its original position
	d.Put("a", 9)
	assert.Equal(t, []string{"z", "a", "m"}, d.Keys())
	assert.Equal(t, 9, d.Get("a"))
}

func TestDocumentAbsentVersusZero(t *testing.T) {
	d := New().Put("count", int64(0)).Put("name", "")
	assert.True(t, d.Has("count"))
	assert.True(t, d.Has("name"))
	assert.False(t, d.Has("missing"))
	assert.Nil(t, d.Get("missing"))
	assert.Equal(t, int64(0), d.GetInt64("count"))
}

func TestDocumentDelete(t *testing.T) {
	d := New().Put("a", 1).Put("b", 2).Put("c", 3)
	d.Delete("b")
	assert.Equal(t, []string{"a", "c"}, d.Keys())
	assert.False(t, d.Has("b"))
	assert.Equal(t, 2, d.Length())
}

func TestDocumentMarshalOrdered(t *testing.T) {
	d := New().Put("z", 1).Put("a", "two")
	b, err := d.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":"two"}`, string(b))
}

func TestDocumentEqual(t *testing.T) {
	ts := time.Unix(10123125, 0).UTC()
	a := New().Put("s", "x").Put("t", ts).Put("list", []interface{}{int64(1), int64(2)})
	b := New().Put("s", "x").Put("t", ts).Put("list", []interface{}{int64(1), int64(2)})
	assert.True(t, a.Equal(b))

	//same keys in a different order are not equal
	c := New().Put("t", ts).Put("s", "x").Put("list", []interface{}{int64(1), int64(2)})
	assert.False(t, a.Equal(c))

	b.Put("list", []interface{}{int64(1)})
	assert.False(t, a.Equal(b))
}

func TestNilDocumentAccessors(t *testing.T) {
	var d *Document
	assert.False(t, d.Has("x"))
	assert.Nil(t, d.Get("x"))
	assert.Nil(t, d.Keys())
	assert.Equal(t, 0, d.Length())
}

func TestUnion(t *testing.T) {
	u := NewUnion("city", "Seattle")
	assert.Equal(t, "city", u.Variant)
	assert.False(t, u.Unknown)

	unk := UnknownVariant("galaxy")
	assert.True(t, unk.Unknown)
	assert.Equal(t, "galaxy", unk.Variant)
	assert.Nil(t, unk.Value)

	a := New().Put("u", u)
	b := New().Put("u", NewUnion("city", "Seattle"))
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(New().Put("u", UnknownVariant("city"))))
}
