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

// Package bindings generates the resolved binding tables for every
// operation in a model, as JSON. Useful for inspecting what the engine
// will do before generating any code.
package bindings

import (
	"github.com/boynton/data"
	"github.com/restbind/api/bind"
	"github.com/restbind/api/common"
	"github.com/restbind/api/model"
)

type Generator struct {
	common.BaseGenerator
}

// operationView adds the raw URI pattern back: the parsed pattern itself
// does not marshal.
type operationView struct {
	*bind.OperationBindings
	Uri string `json:"uri"`
}

func (gen *Generator) Generate(schema *model.Schema, config *data.Object) error {
	err := gen.Configure(schema, config)
	if err != nil {
		return err
	}
	var views []*operationView
	for _, op := range gen.Operations() {
		ob, err := bind.Resolve(schema, op)
		if err != nil {
			return err
		}
		views = append(views, &operationView{OperationBindings: ob, Uri: ob.Uri.String()})
	}
	name := string(schema.ServiceName())
	if name == "" {
		name = "bindings"
	}
	return gen.Write(data.Pretty(views), gen.FileName(name, "-bindings.json"), "")
}
