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
package common

import (
	"fmt"
	"strings"

	"github.com/boynton/data"
	"github.com/restbind/api/model"
)

const IndentAmount = "    "

// the generator for this tool's native format.
type ApiGenerator struct {
	BaseGenerator
	indent string
	ns     string
	name   string
}

func (gen *ApiGenerator) Generate(schema *model.Schema, config *data.Object) error {
	err := gen.Configure(schema, config)
	if err != nil {
		return err
	}
	gen.indent = "    "
	gen.ns = string(schema.ServiceNamespace())
	gen.name = string(schema.ServiceName())
	gen.Begin()
	gen.GenerateSummary()
	gen.GenerateOperations()
	gen.GenerateTypes()
	s := gen.End()
	fname := gen.FileName(gen.name, ".api")
	err = gen.Write(s, fname, "")
	return err
}

func (gen *ApiGenerator) GenerateBlockComment(comment string, indent string) {
	if comment != "" {
		gen.Emit(FormatComment(indent, "// ", comment, 80, true))
	}
}

func (gen *ApiGenerator) GenerateSummary() {
	gen.GenerateBlockComment(gen.Schema.Comment, "")
	if gen.ns != "" {
		gen.Emitf("namespace %s\n", gen.ns)
	}
	if gen.name != "" {
		gen.Emitf("service %s\n", gen.name)
	}
	if gen.Schema.Base != "" {
		gen.Emitf("base %q\n", gen.Schema.Base)
	}
	gen.Emit("\n")
}

func (gen *ApiGenerator) GenerateOperations() {
	for _, op := range gen.Operations() {
		gen.GenerateOperation(op)
		gen.Emit("\n")
	}
}

func (gen *ApiGenerator) GenerateOperation(op *model.OperationDef) error {
	gen.GenerateBlockComment(op.Comment, "")
	gen.Emitf("operation %s (method=%s, url=%q) {\n", StripNamespace(op.Id), op.HttpMethod, op.HttpUri)
	for _, h := range op.HttpHeaders {
		gen.Emitf("    header %q = %q\n", h.Name, h.Value)
	}
	gen.GenerateOperationInput(op)
	gen.GenerateOperationOutput(op)
	gen.GenerateOperationExceptions(op)
	gen.Emit("}\n")
	return nil
}

func (gen *ApiGenerator) GenerateOperationInput(op *model.OperationDef) {
	in := op.Input
	if in != nil {
		inname := ""
		if op.Input.Id != (op.Id+"Input") && op.Input.Id != "" {
			inname = "(name=" + StripNamespace(op.Input.Id) + ") "
		}
		gen.Emitf("    input %s{\n", inname)
		for _, f := range in.Fields {
			var opts []string
			if f.Required {
				opts = append(opts, "required")
			}
			if f.HttpPayload {
				opts = append(opts, "payload")
			} else if f.HttpPath {
				opts = append(opts, "path")
			} else if f.HttpQuery != "" {
				opts = append(opts, fmt.Sprintf("query=%q", f.HttpQuery))
			} else if f.HttpHeader != "" {
				opts = append(opts, fmt.Sprintf("header=%q", f.HttpHeader))
			} else if f.HttpPrefixHeaders != "" {
				opts = append(opts, fmt.Sprintf("prefixHeaders=%q", f.HttpPrefixHeaders))
			}
			if f.TimestampFormat != "" {
				opts = append(opts, fmt.Sprintf("timestampFormat=%q", f.TimestampFormat))
			}
			if f.MediaType != "" {
				opts = append(opts, fmt.Sprintf("mediaType=%q", f.MediaType))
			}
			sopts := ""
			if len(opts) > 0 {
				sopts = " (" + strings.Join(opts, ", ") + ")"
			}
			comm := ""
			if f.Comment != "" {
				comm = " // " + f.Comment
			}
			gen.Emitf("        %s %s%s%s\n", f.Name, StripNamespace(f.Type), sopts, comm)
		}
		gen.Emit("    }\n")
	}
}

func (gen *ApiGenerator) GenerateOperationOutputFields(out *model.OperationOutput, indent string) {
	for _, f := range out.Fields {
		var opts []string
		if f.HttpPayload {
			opts = append(opts, "payload")
		}
		if f.HttpHeader != "" {
			opts = append(opts, fmt.Sprintf("header=%q", f.HttpHeader))
		}
		if f.HttpPrefixHeaders != "" {
			opts = append(opts, fmt.Sprintf("prefixHeaders=%q", f.HttpPrefixHeaders))
		}
		if f.HttpResponseCode {
			opts = append(opts, "responseCode")
		}
		sopts := ""
		if len(opts) > 0 {
			sopts = " (" + strings.Join(opts, ", ") + ")"
		}
		comm := ""
		if f.Comment != "" {
			comm = " // " + f.Comment
		}
		gen.Emitf("    %s%s %s%s%s\n", indent, f.Name, StripNamespace(f.Type), sopts, comm)
	}
}

func (gen *ApiGenerator) GenerateOperationOutput(op *model.OperationDef) {
	if op.Output != nil {
		outname := ""
		if op.Output.Id != "" && op.Output.Id != (op.Id+"Output") {
			outname = "(name=" + StripNamespace(op.Output.Id) + ") "
		}
		gen.Emitf("    output %d %s{\n", op.Output.HttpStatus, outname)
		gen.GenerateOperationOutputFields(op.Output, "    ")
		gen.Emit("    }\n")
	}
}

func (gen *ApiGenerator) GenerateOperationExceptions(op *model.OperationDef) {
	for _, errdef := range op.Exceptions {
		var opts []string
		if errdef.Fault != "" {
			opts = append(opts, "fault="+errdef.Fault)
		}
		if errdef.Retryable {
			opts = append(opts, "retryable")
		}
		if errdef.Throttling {
			opts = append(opts, "throttling")
		}
		errname := ""
		if errdef.Id != "" {
			errname = "(name=" + StripNamespace(errdef.Id) + ") "
		}
		if len(opts) > 0 {
			errname = errname + "(" + strings.Join(opts, ", ") + ") "
		}
		gen.Emitf("    exception %d %s{\n", errdef.HttpStatus, errname)
		gen.GenerateOperationOutputFields(errdef, "    ")
		gen.Emit("    }\n")
	}
}

func (gen *ApiGenerator) GenerateFields(fields []*model.FieldDef, indent string) {
	forceCommentHeaders := false
	for _, f := range fields {
		if f.Comment != "" {
			if len(f.Comment) > 60 || strings.Index(f.Comment, "\n") >= 0 {
				forceCommentHeaders = true
			}
		}
	}
	for _, f := range fields {
		var opts []string
		if f.Required {
			opts = append(opts, "required")
		}
		if f.JsonName != "" {
			opts = append(opts, fmt.Sprintf("jsonName=%q", f.JsonName))
		}
		if f.XmlName != "" {
			opts = append(opts, fmt.Sprintf("xmlName=%q", f.XmlName))
		}
		if f.XmlAttribute {
			opts = append(opts, "xmlAttribute")
		}
		if f.XmlFlattened {
			opts = append(opts, "xmlFlattened")
		}
		sopts := ""
		if len(opts) > 0 {
			sopts = " (" + strings.Join(opts, ", ") + ")"
		}
		comm := ""
		pcomm := ""
		if f.Comment != "" {
			if forceCommentHeaders {
				pcomm = FormatComment(indent, "// ", f.Comment, 72, false)
			} else {
				comm = " // " + f.Comment
			}
		}
		if forceCommentHeaders {
			gen.Emitf("\n%s%s%s %s%s%s\n", pcomm, indent, f.Name, StripNamespace(f.Type), sopts, comm)
		} else {
			gen.Emitf("%s%s %s%s%s\n", indent, f.Name, StripNamespace(f.Type), sopts, comm)
		}
	}
}

func (gen *ApiGenerator) GenerateTypes() {
	for _, td := range gen.Types() {
		gen.GenerateType(td)
		gen.Emit("\n")
	}
}

func (gen *ApiGenerator) GenerateType(td *model.TypeDef) error {
	gen.GenerateBlockComment(td.Comment, "")
	switch td.Base {
	case model.String:
		sopts := ""
		var opts []string
		if td.Pattern != "" {
			opts = append(opts, fmt.Sprintf("pattern=%q", td.Pattern))
		}
		if len(opts) > 0 {
			sopts = " (" + strings.Join(opts, ", ") + ")"
		}
		gen.Emitf("type %s String%s\n", StripNamespace(td.Id), sopts)
	case model.Struct:
		gen.Emitf("type %s Struct {\n", StripNamespace(td.Id))
		gen.GenerateFields(td.Fields, "    ")
		gen.Emitf("}\n")
	case model.Union:
		gen.Emitf("type %s Union {\n", StripNamespace(td.Id))
		gen.GenerateFields(td.Fields, "    ")
		gen.Emitf("}\n")
	case model.List:
		gen.Emitf("type %s List[%s]\n", StripNamespace(td.Id), StripNamespace(td.Items))
	case model.Map:
		gen.Emitf("type %s Map[%s,%s]\n", StripNamespace(td.Id), StripNamespace(td.Keys), StripNamespace(td.Items))
	case model.Enum:
		sopt := ""
		if td.IsOpen {
			sopt = "(open) "
		}
		gen.Emitf("type %s Enum %s{\n", StripNamespace(td.Id), sopt)
		for _, el := range td.Elements {
			sopts := ""
			var opts []string
			if el.Value != "" && el.Value != string(el.Symbol) {
				opts = append(opts, fmt.Sprintf("value=%q", el.Value))
			}
			if len(opts) > 0 {
				sopts = " (" + strings.Join(opts, ", ") + ")"
			}
			gen.Emitf("    %s%s\n", el.Symbol, sopts)
		}
		gen.Emitf("}\n")
	case model.Timestamp:
		gen.Emitf("type %s Timestamp\n", StripNamespace(td.Id))
	case model.Int8, model.Int16, model.Int32, model.Int64, model.Float32, model.Float64, model.Integer, model.Decimal:
		gen.Emitf("type %s %s\n", StripNamespace(td.Id), td.Base.String())
	default:
		gen.Emitf("type %s %s\n", StripNamespace(td.Id), td.Base)
	}
	return nil
}
