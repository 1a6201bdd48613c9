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
package httpbind

import (
	"testing"

	"github.com/restbind/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterHelper(t *testing.T) {
	s := NewSession()
	h1, err := s.RegisterHelper("sig-a", "helperA", "func helperA() {}")
	require.NoError(t, err)

	//same signature, same source: reuse
	h2, err := s.RegisterHelper("sig-a", "helperA", "func helperA() {}")
	require.NoError(t, err)
	assert.Same(t, h1, h2)

	//same signature, different source: caller defect
	_, err = s.RegisterHelper("sig-a", "helperA", "func helperA() { panic(1) }")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision")

	_, err = s.RegisterHelper("sig-b", "helperB", "func helperB() {}")
	require.NoError(t, err)
	helpers := s.Helpers()
	require.Len(t, helpers, 2)
	assert.Equal(t, "helperA", helpers[0].Name)
	assert.Equal(t, "helperB", helpers[1].Name)
}

func TestInternShape(t *testing.T) {
	s := NewSession()
	shape := func() *model.TypeDef {
		return &model.TypeDef{
			Id:   "example#PutThingRequestContent",
			Base: model.Struct,
			Fields: model.FieldDefList{
				{Name: "name", Type: "base#String", Required: true},
			},
		}
	}
	a := s.InternShape(shape())
	b := s.InternShape(shape())
	assert.Same(t, a, b)

	other := shape()
	other.Fields[0].Required = false
	c := s.InternShape(other)
	assert.NotSame(t, a, c)
}

func TestSanitizeErrorCode(t *testing.T) {
	assert.Equal(t, "InvalidGreeting", sanitizeErrorCode("example#InvalidGreeting"))
	assert.Equal(t, "InvalidGreeting", sanitizeErrorCode("example#InvalidGreeting:http://internal/"))
	assert.Equal(t, "Throttled", sanitizeErrorCode("Throttled"))
	assert.Equal(t, "", sanitizeErrorCode(""))
}
