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
package bind

import (
	"testing"

	"github.com/restbind/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUriPattern(t *testing.T) {
	p, err := ParseUriPattern("/items/{id}/versions/{version+}")
	require.NoError(t, err)
	require.Len(t, p.Segments, 4)
	assert.Equal(t, "items", p.Segments[0].Literal)
	assert.True(t, p.Segments[1].IsLabel())
	assert.Equal(t, model.Identifier("id"), p.Segments[1].Label)
	assert.False(t, p.Segments[1].Greedy)
	assert.True(t, p.Segments[3].Greedy)
	assert.Equal(t, []model.Identifier{"id", "version"}, p.Labels())
	assert.Equal(t, "/items/{id}/versions/{version+}", p.String())
}

func TestParseUriPatternRoot(t *testing.T) {
	p, err := ParseUriPattern("/")
	require.NoError(t, err)
	assert.Empty(t, p.Segments)
}

func TestParseUriPatternStaticQuery(t *testing.T) {
	p, err := ParseUriPattern("/buckets/{name}?list&type=2")
	require.NoError(t, err)
	require.Len(t, p.StaticQuery, 2)
	assert.Equal(t, "list", p.StaticQuery[0].Name)
	assert.Equal(t, "", p.StaticQuery[0].Value)
	assert.Equal(t, "type", p.StaticQuery[1].Name)
	assert.Equal(t, "2", p.StaticQuery[1].Value)
	require.Len(t, p.Segments, 2)
}

func TestParseUriPatternErrors(t *testing.T) {
	cases := []string{
		"",
		"items/{id}",
		"/items/{key+}/suffix",
		"/items/{id}/{id}",
		"/items/x{id}z",
		"/items//end",
		"/items/{}",
	}
	for _, uri := range cases {
		_, err := ParseUriPattern(uri)
		assert.Error(t, err, "uri %q", uri)
	}
}
