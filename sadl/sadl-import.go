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

// Package sadl imports SADL files by converting them through the Smithy AST.
package sadl

import (
	"github.com/boynton/sadl"
	sadlsmithy "github.com/boynton/sadl/smithy"
	"github.com/boynton/smithy"
)

func Import(path string, ns string) (*smithy.AST, error) {
	model, err := sadl.ParseSadlFile(path, nil)
	if err != nil {
		return nil, err
	}
	if ns == "" {
		ns = "example"
	}
	model.Namespace = ns
	return sadlsmithy.FromSADL(model, model.Namespace)
}
