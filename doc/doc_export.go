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

// Package doc generates markdown documentation for a model, including the
// resolved HTTP binding of every operation member.
package doc

import (
	"fmt"
	"strings"

	"github.com/boynton/data"
	"github.com/restbind/api/bind"
	"github.com/restbind/api/common"
	"github.com/restbind/api/model"
)

type Generator struct {
	common.BaseGenerator
	name string
}

func (gen *Generator) Generate(schema *model.Schema, config *data.Object) error {
	err := gen.Configure(schema, config)
	if err != nil {
		return err
	}
	gen.name = string(schema.ServiceName())
	if gen.name == "" {
		gen.name = "model"
	}
	gen.Begin()
	gen.GenerateHeader()
	err = gen.GenerateOperations()
	if err != nil {
		return err
	}
	gen.GenerateTypes()
	s := gen.End()
	fname := gen.FileName(gen.name, ".md")
	return gen.Write(s, fname, "")
}

func (gen *Generator) GenerateHeader() {
	gen.Emitf("# %s\n\n", gen.name)
	if gen.Schema.Comment != "" {
		gen.Emitf("%s\n\n", gen.Schema.Comment)
	}
	if gen.Schema.Namespace != "" {
		gen.Emitf("- **namespace**: `%s`\n", gen.Schema.Namespace)
	}
	if gen.Schema.Version != "" {
		gen.Emitf("- **version**: `%s`\n", gen.Schema.Version)
	}
	if gen.Schema.Base != "" {
		gen.Emitf("- **base path**: `%s`\n", gen.Schema.Base)
	}
	gen.Emit("\n")
}

func (gen *Generator) GenerateOperations() error {
	ops := gen.Operations()
	if len(ops) == 0 {
		return nil
	}
	gen.Emit("## Operations\n\n")
	for _, op := range ops {
		err := gen.GenerateOperation(op)
		if err != nil {
			return err
		}
	}
	return nil
}

func (gen *Generator) GenerateOperation(op *model.OperationDef) error {
	gen.Emitf("### %s\n\n", common.StripNamespace(op.Id))
	if op.Comment != "" {
		gen.Emitf("%s\n\n", op.Comment)
	}
	gen.Emitf("```\n%s %s\n```\n\n", op.HttpMethod, op.HttpUri)
	ob, err := bind.Resolve(gen.Schema, op)
	if err != nil {
		return fmt.Errorf("cannot resolve bindings for %s: %w", op.Id, err)
	}
	for _, h := range ob.StaticHeaders {
		gen.Emitf("- static header `%s: %s`\n", h.Name, h.Value)
	}
	if len(ob.StaticHeaders) > 0 {
		gen.Emit("\n")
	}
	gen.generateBindingTable("Input", ob.Input)
	if ob.InputPayload != nil {
		gen.generateBindingTable("Input", []*bind.Binding{ob.InputPayload})
	}
	if ob.InputBody != nil {
		gen.Emitf("The remaining input members travel in the %s body shape `%s`.\n\n",
			strings.ToUpper(op.HttpMethod), common.StripNamespace(ob.InputBody.Id))
	}
	gen.Emitf("On success the response status is %d.\n\n", ob.SuccessCode)
	gen.generateBindingTable("Output", ob.Output)
	if ob.OutputPayload != nil {
		gen.generateBindingTable("Output", []*bind.Binding{ob.OutputPayload})
	}
	if ob.OutputBody != nil {
		gen.Emitf("The remaining output members travel in the response body shape `%s`.\n\n",
			common.StripNamespace(ob.OutputBody.Id))
	}
	gen.generateExceptions(ob)
	return nil
}

func (gen *Generator) generateBindingTable(title string, bindings []*bind.Binding) {
	if len(bindings) == 0 {
		return
	}
	gen.Emitf("| %s member | Type | Location | Wire name | Required |\n", title)
	gen.Emit("|---|---|---|---|---|\n")
	for _, b := range bindings {
		req := ""
		if b.Required {
			req = "yes"
		}
		gen.Emitf("| %s | %s | %s | %s | %s |\n",
			b.Name, common.StripNamespace(b.Type), b.Location, b.WireName, req)
	}
	gen.Emit("\n")
}

func (gen *Generator) generateExceptions(ob *bind.OperationBindings) {
	if len(ob.Exceptions) == 0 {
		return
	}
	gen.Emit("| Error | Status | Fault | Retryable |\n")
	gen.Emit("|---|---|---|---|\n")
	for _, eb := range ob.Exceptions {
		retry := ""
		if eb.Def.Retryable {
			retry = "yes"
			if eb.Def.Throttling {
				retry = "yes (throttling)"
			}
		}
		gen.Emitf("| %s | %d | %s | %s |\n", eb.Name, eb.Def.HttpStatus, eb.Def.Fault, retry)
	}
	gen.Emit("\n")
}

func (gen *Generator) GenerateTypes() {
	types := gen.Types()
	if len(types) == 0 {
		return
	}
	gen.Emit("## Types\n\n")
	for _, td := range types {
		gen.GenerateType(td)
	}
}

func (gen *Generator) GenerateType(td *model.TypeDef) {
	gen.Emitf("### %s\n\n", common.StripNamespace(td.Id))
	if td.Comment != "" {
		gen.Emitf("%s\n\n", td.Comment)
	}
	switch td.Base {
	case model.Struct, model.Union:
		gen.Emitf("A %s.\n\n", strings.ToLower(td.Base.String()))
		if len(td.Fields) > 0 {
			gen.Emit("| Member | Type | Required |\n")
			gen.Emit("|---|---|---|\n")
			for _, f := range td.Fields {
				req := ""
				if f.Required {
					req = "yes"
				}
				gen.Emitf("| %s | %s | %s |\n", f.Name, common.StripNamespace(f.Type), req)
			}
			gen.Emit("\n")
		}
	case model.Enum:
		kind := "A closed enum"
		if td.IsOpen {
			kind = "An open enum"
		}
		var symbols []string
		for _, el := range td.Elements {
			symbols = append(symbols, "`"+string(el.Symbol)+"`")
		}
		gen.Emitf("%s: %s.\n\n", kind, strings.Join(symbols, ", "))
	case model.List:
		gen.Emitf("A list of `%s`.\n\n", common.StripNamespace(td.Items))
	case model.Map:
		gen.Emitf("A map from `%s` to `%s`.\n\n", common.StripNamespace(td.Keys), common.StripNamespace(td.Items))
	default:
		gen.Emitf("Base type `%s`.\n\n", td.Base)
	}
}
