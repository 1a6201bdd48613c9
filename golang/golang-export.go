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

// Package golang generates Go client bindings for a model: typed shape
// declarations, the service interface with per-operation input/output
// structs, a client whose methods delegate to the runtime binding engine,
// and a server adaptor skeleton.
package golang

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/boynton/data"
	"github.com/restbind/api/common"
	"github.com/restbind/api/httpbind"
	"github.com/restbind/api/model"
)

const IndentAmount = "    "

// RuntimePackage is the module the generated code delegates to for request
// serialization and response parsing, overridable with
// "-a golang.runtime=...".
const RuntimePackage = "github.com/restbind/api"

type Generator struct {
	common.BaseGenerator
	ns       model.Namespace
	pkg      string
	runtime  string
	protocol string
	session  *httpbind.Session
	visited  map[model.AbsoluteIdentifier]bool
	needTime bool
	needData bool
	needSort bool
}

// packageName reduces a dotted namespace to a legal package identifier.
func packageName(ns string) string {
	if n := strings.LastIndex(ns, "."); n >= 0 {
		ns = ns[n+1:]
	}
	return strings.ToLower(ns)
}

func (gen *Generator) Generate(schema *model.Schema, config *data.Object) error {
	err := gen.Configure(schema, config)
	if err != nil {
		return err
	}
	gen.runtime = config.GetString("golang.runtime")
	if gen.runtime == "" {
		gen.runtime = RuntimePackage
	}
	gen.protocol = config.GetString("golang.protocol")
	if gen.protocol == "" {
		gen.protocol = "rest-json"
	}
	gen.ns = model.Namespace(config.GetString("namespace"))
	if gen.ns == "" {
		gen.ns = schema.ServiceNamespace()
		if gen.ns == "" {
			gen.ns = "main"
		}
	}
	gen.pkg = packageName(string(gen.ns))
	gen.session = httpbind.NewSession()
	gen.visited = make(map[model.AbsoluteIdentifier]bool, 0)
	fbase := gen.pkg

	s := gen.GenerateTypes()
	fname := gen.FileName(fbase+"_types", ".go")
	err = gen.Write(s, fname, "\n\n------------------"+fname+"\n")
	if err != nil {
		return err
	}
	s = gen.GenerateOperations()
	fname = gen.FileName(fbase+"_operations", ".go")
	err = gen.Write(s, fname, "\n\n------------------"+fname+"\n")
	if err != nil {
		return err
	}
	s, err = gen.GenerateClient()
	if err != nil {
		return err
	}
	fname = gen.FileName(fbase+"_client", ".go")
	err = gen.Write(s, fname, "\n\n------------------"+fname+"\n")
	if err != nil {
		return err
	}
	s = gen.GenerateServer()
	fname = gen.FileName(fbase+"_server", ".go")
	return gen.Write(s, fname, "\n\n------------------"+fname+"\n")
}

type GolangWriter struct {
	buf    bytes.Buffer
	writer *bufio.Writer
	gen    *Generator
}

func (w *GolangWriter) Begin() {
	w.buf.Reset()
	w.writer = bufio.NewWriter(&w.buf)
}

func (w *GolangWriter) End() string {
	w.writer.Flush()
	return w.buf.String()
}

func (w *GolangWriter) Emit(s string) {
	w.writer.WriteString(s)
}

func (w *GolangWriter) Emitf(format string, args ...interface{}) {
	w.writer.WriteString(fmt.Sprintf(format, args...))
}

func stripNamespace(id model.AbsoluteIdentifier) string {
	s := string(id)
	n := strings.Index(s, "#")
	if n < 0 {
		return s
	}
	return s[n+1:]
}

func golangTypeName(id model.AbsoluteIdentifier) string {
	return common.Capitalize(stripNamespace(id))
}

// golangTypeRef maps a shape reference to the Go type generated for it.
// Numeric shapes widen to int64/float64 so document values round-trip
// without per-width casts. A boxed shape is referenced through a pointer,
// the indirection that lets recursive graphs spell out in Go.
func (gen *Generator) golangTypeRef(typeRef model.AbsoluteIdentifier) string {
	if td := gen.Schema.GetTypeDef(typeRef); td != nil && td.Boxed {
		return "*" + golangTypeName(td.Id)
	}
	switch gen.Schema.BaseType(typeRef) {
	case model.Bool:
		return "bool"
	case model.Int8, model.Int16, model.Int32, model.Int64, model.Integer:
		return "int64"
	case model.Float32, model.Float64:
		return "float64"
	case model.Decimal:
		return "*data.Decimal"
	case model.Blob:
		return "[]byte"
	case model.String:
		if td := gen.Schema.GetTypeDef(typeRef); td != nil {
			return golangTypeName(td.Id)
		}
		return "string"
	case model.Timestamp:
		return "time.Time"
	case model.Document:
		return "*document.Document"
	case model.Enum:
		if td := gen.Schema.GetTypeDef(typeRef); td != nil {
			return golangTypeName(td.Id)
		}
		return "string"
	case model.List:
		if td := gen.Schema.GetTypeDef(typeRef); td != nil {
			return "[]" + gen.golangTypeRef(td.Items)
		}
		return "[]interface{}"
	case model.Map:
		if td := gen.Schema.GetTypeDef(typeRef); td != nil {
			return "map[string]" + gen.golangTypeRef(td.Items)
		}
		return "map[string]interface{}"
	default:
		return "*" + golangTypeName(typeRef)
	}
}

func (gen *Generator) generateTypeComment(td *model.TypeDef, w *GolangWriter) {
	if td.Comment != "" {
		w.Emit(common.FormatComment("", "// ", td.Comment, 80, false))
	}
}

func (gen *Generator) GenerateTypes() string {
	w := &GolangWriter{gen: gen}
	w.Begin()
	w.Emit("/* Generated */\n")
	w.Emitf("\npackage %s\n", gen.pkg)
	w.Emit(gen.typesFileImports())
	for _, td := range gen.Types() {
		gen.GenerateType(td, w)
	}
	return w.End()
}

func (gen *Generator) typesFileImports() string {
	imports := make(map[string]bool, 0)
	for _, td := range gen.Schema.Types {
		gen.noteTypeImports(td.Id, imports)
		if td.Base == model.Enum {
			imports["encoding/json"] = true
			imports["fmt"] = true
		}
		for _, f := range td.Fields {
			gen.noteTypeImports(f.Type, imports)
		}
	}
	return renderImports(imports)
}

// operationsFileImports covers only types spelled out in the operation
// input/output structs.
func (gen *Generator) operationsFileImports() string {
	imports := make(map[string]bool, 0)
	for _, op := range gen.Schema.Operations {
		if op.Input != nil {
			for _, f := range op.Input.Fields {
				gen.noteTypeImports(f.Type, imports)
			}
		}
		if op.Output != nil {
			for _, f := range op.Output.Fields {
				gen.noteTypeImports(f.Type, imports)
			}
		}
		for _, exc := range op.Exceptions {
			for _, f := range exc.Fields {
				gen.noteTypeImports(f.Type, imports)
			}
		}
	}
	return renderImports(imports)
}

func renderImports(imports map[string]bool) string {
	if len(imports) == 0 {
		return ""
	}
	s := "\nimport (\n"
	for _, i := range sortedKeys(imports) {
		s = s + fmt.Sprintf("    %q\n", i)
	}
	return s + ")\n"
}

func (gen *Generator) noteTypeImports(typeRef model.AbsoluteIdentifier, imports map[string]bool) {
	gen.noteTypeImportsSeen(typeRef, imports, make(map[model.AbsoluteIdentifier]bool, 0))
}

// noteTypeImportsSeen tracks visited shapes so self-referential aggregates
// terminate.
func (gen *Generator) noteTypeImportsSeen(typeRef model.AbsoluteIdentifier, imports map[string]bool, seen map[model.AbsoluteIdentifier]bool) {
	if seen[typeRef] {
		return
	}
	seen[typeRef] = true
	switch gen.Schema.BaseType(typeRef) {
	case model.Timestamp:
		imports["time"] = true
	case model.Decimal:
		imports["github.com/boynton/data"] = true
	case model.Document:
		imports[gen.runtime+"/document"] = true
	case model.List, model.Map:
		if td := gen.Schema.GetTypeDef(typeRef); td != nil {
			gen.noteTypeImportsSeen(td.Items, imports, seen)
		}
	}
}

func sortedKeys(m map[string]bool) []string {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	return keys
}

func (gen *Generator) GenerateType(td *model.TypeDef, w *GolangWriter) {
	w.Emit("\n")
	gname := golangTypeName(td.Id)
	switch td.Base {
	case model.Struct:
		gen.generateTypeComment(td, w)
		w.Emitf("type %s struct {\n", gname)
		for _, f := range td.Fields {
			opt := ""
			if !f.Required {
				opt = ",omitempty"
			}
			w.Emitf("    %s %s `json:\"%s%s\"`\n", f.Name.Capitalized(), gen.golangTypeRef(f.Type), f.Name.Uncapitalized(), opt)
		}
		w.Emitf("}\n")
	case model.Union:
		gen.generateTypeComment(td, w)
		w.Emitf("type %s struct {\n", gname)
		for _, f := range td.Fields {
			w.Emitf("    %s *%s `json:\"%s,omitempty\"`\n", f.Name.Capitalized(), strings.TrimPrefix(gen.golangTypeRef(f.Type), "*"), f.Name.Uncapitalized())
		}
		w.Emitf("}\n")
	case model.Enum:
		gen.GenerateEnum(td, w)
	case model.List:
		gen.generateTypeComment(td, w)
		w.Emitf("type %s []%s\n", gname, gen.golangTypeRef(td.Items))
	case model.Map:
		gen.generateTypeComment(td, w)
		w.Emitf("type %s map[string]%s\n", gname, gen.golangTypeRef(td.Items))
	case model.String:
		gen.generateTypeComment(td, w)
		w.Emitf("type %s string\n", gname)
	case model.Timestamp:
		gen.generateTypeComment(td, w)
		w.Emitf("type %s = time.Time\n", gname)
	case model.Blob:
		gen.generateTypeComment(td, w)
		w.Emitf("type %s []byte\n", gname)
	default:
		gen.generateTypeComment(td, w)
		w.Emitf("type %s %s\n", gname, gen.golangTypeRef(td.Id))
	}
}

// GenerateEnum emits the closed-enum pattern: a string-based type, the
// declared symbols as constants, and JSON marshaling that round-trips the
// wire value. Open enums skip the symbol check on unmarshal.
func (gen *Generator) GenerateEnum(td *model.TypeDef, w *GolangWriter) {
	gname := golangTypeName(td.Id)
	gen.generateTypeComment(td, w)
	w.Emitf("type %s string\n\n", gname)
	w.Emit("const (\n")
	for _, el := range td.Elements {
		value := el.Value
		if value == "" {
			value = string(el.Symbol)
		}
		w.Emitf("    %s%s %s = %q\n", gname, el.Symbol.Capitalized(), gname, value)
	}
	w.Emit(")\n\n")
	w.Emitf("func (e %s) String() string {\n", gname)
	w.Emit("    return string(e)\n")
	w.Emit("}\n\n")
	w.Emitf("func (e %s) MarshalJSON() ([]byte, error) {\n", gname)
	w.Emit("    return json.Marshal(string(e))\n")
	w.Emit("}\n\n")
	w.Emitf("func (e *%s) UnmarshalJSON(b []byte) error {\n", gname)
	w.Emit("    var s string\n")
	w.Emit("    if err := json.Unmarshal(b, &s); err != nil {\n")
	w.Emit("        return err\n")
	w.Emit("    }\n")
	if !td.IsOpen {
		w.Emit("    switch s {\n")
		w.Emit("    case ")
		var vals []string
		for _, el := range td.Elements {
			value := el.Value
			if value == "" {
				value = string(el.Symbol)
			}
			vals = append(vals, fmt.Sprintf("%q", value))
		}
		w.Emit(strings.Join(vals, ", "))
		w.Emit(":\n")
		w.Emit("    default:\n")
		w.Emitf("        return fmt.Errorf(\"bad enum symbol for %s: %%s\", s)\n", gname)
		w.Emit("    }\n")
	}
	w.Emitf("    *e = %s(s)\n", gname)
	w.Emit("    return nil\n")
	w.Emit("}\n")
}

func (gen *Generator) GenerateOperations() string {
	w := &GolangWriter{gen: gen}
	w.Begin()
	w.Emit("/* Generated */\n")
	w.Emitf("\npackage %s\n", gen.pkg)
	w.Emit(gen.operationsFileImports())
	if gen.Schema.ServiceName() != "" {
		w.EmitServiceInterface()
	}
	for _, op := range gen.Operations() {
		gen.GenerateOperationStructs(op, w)
	}
	gen.GenerateExceptionTypes(w)
	return w.End()
}

func (w *GolangWriter) EmitServiceInterface() {
	schema := w.gen.Schema
	w.Emit("\n")
	if schema.Comment != "" {
		w.Emit("//\n")
		w.Emit(common.FormatComment("", "// ", schema.Comment, 80, false))
		w.Emit("//\n")
	}
	w.Emitf("type %s interface {\n", golangTypeName(schema.Id))
	for _, op := range w.gen.Operations() {
		in := ""
		if op.Input != nil {
			in = "*" + golangTypeName(op.Id) + "Input"
		}
		out := "error"
		if op.Output != nil && len(op.Output.Fields) > 0 {
			out = "(*" + golangTypeName(op.Id) + "Output, error)"
		}
		w.Emitf("    %s(%s) %s\n", golangTypeName(op.Id), in, out)
	}
	w.Emit("}\n")
}

func (gen *Generator) GenerateOperationStructs(op *model.OperationDef, w *GolangWriter) {
	opName := golangTypeName(op.Id)
	if op.Input != nil {
		w.Emitf("\ntype %sInput struct {\n", opName)
		for _, f := range op.Input.Fields {
			opt := ""
			if !f.Required {
				opt = ",omitempty"
			}
			w.Emitf("    %s %s `json:\"%s%s\"`\n", f.Name.Capitalized(), gen.golangTypeRef(f.Type), f.Name.Uncapitalized(), opt)
		}
		w.Emitf("}\n")
	}
	if op.Output != nil && len(op.Output.Fields) > 0 {
		w.Emitf("\ntype %sOutput struct {\n", opName)
		for _, f := range op.Output.Fields {
			opt := ""
			if !f.Required {
				opt = ",omitempty"
			}
			w.Emitf("    %s %s `json:\"%s%s\"`\n", f.Name.Capitalized(), gen.golangTypeRef(f.Type), f.Name.Uncapitalized(), opt)
		}
		w.Emitf("}\n")
	}
}

// GenerateExceptionTypes emits one error type per distinct declared error
// shape across all operations.
func (gen *Generator) GenerateExceptionTypes(w *GolangWriter) {
	emitted := make(map[model.AbsoluteIdentifier]bool, 0)
	for _, op := range gen.Operations() {
		for _, exc := range op.Exceptions {
			if emitted[exc.Id] {
				continue
			}
			emitted[exc.Id] = true
			name := golangTypeName(exc.Id)
			w.Emitf("\ntype %s struct {\n", name)
			for _, f := range exc.Fields {
				opt := ""
				if !f.Required {
					opt = ",omitempty"
				}
				w.Emitf("    %s %s `json:\"%s%s\"`\n", f.Name.Capitalized(), gen.golangTypeRef(f.Type), f.Name.Uncapitalized(), opt)
			}
			w.Emitf("}\n\n")
			w.Emitf("func (e *%s) Error() string {\n", name)
			if hasMessageField(exc) {
				w.Emitf("    return %q + \": \" + e.Message\n", name)
			} else {
				w.Emitf("    return %q\n", name)
			}
			w.Emit("}\n")
		}
	}
}

func hasMessageField(exc *model.OperationOutput) bool {
	for _, f := range exc.Fields {
		if strings.EqualFold(string(f.Name), "message") {
			return true
		}
	}
	return false
}

// GenerateServer emits a gorilla/mux adaptor skeleton: one route per
// operation with the URI template translated to mux syntax, handlers that
// decode the document body into the typed input, and the logging/CORS
// wrappers.
func (gen *Generator) GenerateServer() string {
	schema := gen.Schema
	w := &GolangWriter{gen: gen}
	serviceName := golangTypeName(schema.Id)
	w.Begin()
	w.Emit("/* Generated */\n")
	w.Emitf("\npackage %s\n", gen.pkg)
	w.Emit("\nimport (\n")
	w.Emit("    \"encoding/json\"\n")
	w.Emit("    \"fmt\"\n")
	w.Emit("    \"net/http\"\n")
	w.Emit("    \"os\"\n")
	w.Emit("\n")
	w.Emit("    \"github.com/gorilla/handlers\"\n")
	w.Emit("    \"github.com/gorilla/mux\"\n")
	w.Emit(")\n\n")
	adaptorName := common.Uncapitalize(serviceName) + "Adaptor"
	w.Emitf("type %s struct {\n", adaptorName)
	w.Emitf("    impl %s\n", serviceName)
	w.Emit("}\n\n")
	w.Emitf("func InitRouter(impl %s) *mux.Router {\n", serviceName)
	w.Emitf("    adaptor := &%s{impl: impl}\n", adaptorName)
	w.Emit("    r := mux.NewRouter()\n")
	for _, op := range gen.Operations() {
		opName := golangTypeName(op.Id)
		w.Emitf("    r.HandleFunc(%q, adaptor.%sHandler).Methods(%q)\n", muxTemplate(op.HttpUri), opName, op.HttpMethod)
	}
	w.Emit("    return r\n")
	w.Emit("}\n\n")
	for _, op := range gen.Operations() {
		gen.generateServerHandler(op, adaptorName, w)
	}
	w.Emit(serverUtilSource)
	return w.End()
}

// muxTemplate strips the static-query suffix and greedy '+' markers, which
// mux does not understand.
func muxTemplate(uri string) string {
	if n := strings.Index(uri, "?"); n >= 0 {
		uri = uri[:n]
	}
	return strings.ReplaceAll(uri, "+}", "}")
}

func (gen *Generator) generateServerHandler(op *model.OperationDef, adaptorName string, w *GolangWriter) {
	opName := golangTypeName(op.Id)
	opStatus := int32(200)
	if op.Output != nil && op.Output.HttpStatus != 0 {
		opStatus = op.Output.HttpStatus
	}
	w.Emitf("func (handler *%s) %sHandler(w http.ResponseWriter, r *http.Request) {\n", adaptorName, opName)
	arg := ""
	if op.Input != nil {
		w.Emitf("    req := new(%sInput)\n", opName)
		w.Emit("    if r.Body != nil {\n")
		w.Emit("        _ = json.NewDecoder(r.Body).Decode(req)\n")
		w.Emit("    }\n")
		for _, f := range op.Input.Fields {
			var src string
			if f.HttpPath {
				src = fmt.Sprintf("param(r, %q)", f.Name)
			} else if f.HttpQuery != "" {
				src = fmt.Sprintf("r.URL.Query().Get(%q)", f.HttpQuery)
			} else if f.HttpHeader != "" {
				src = fmt.Sprintf("r.Header.Get(%q)", f.HttpHeader)
			} else {
				continue
			}
			conv, ok := gen.paramConversion(f.Type, src)
			if !ok {
				continue
			}
			w.Emitf("    req.%s = %s\n", f.Name.Capitalized(), conv)
		}
		arg = "req"
	}
	result := ""
	resValue := "nil"
	if op.Output != nil && len(op.Output.Fields) > 0 {
		result = "res, "
		resValue = "res"
	}
	w.Emitf("    %serr := handler.impl.%s(%s)\n", result, opName, arg)
	w.Emit("    if err != nil {\n")
	w.Emit("        switch e := err.(type) {\n")
	for _, exc := range op.Exceptions {
		status := exc.HttpStatus
		if status == 0 {
			status = 500
		}
		w.Emitf("        case *%s:\n", golangTypeName(exc.Id))
		w.Emitf("            jsonResponse(w, %d, e)\n", status)
	}
	w.Emit("        default:\n")
	w.Emit("            jsonResponse(w, 500, &serverError{Error: \"Internal Server Error\", Message: fmt.Sprint(err)})\n")
	w.Emit("        }\n")
	w.Emit("    } else {\n")
	w.Emitf("        jsonResponse(w, %d, %s)\n", opStatus, resValue)
	w.Emit("    }\n")
	w.Emit("}\n\n")
}

// paramConversion wraps a textual request value in the conversion the typed
// field needs. Types with no direct string form are left to the body decoder.
func (gen *Generator) paramConversion(typeRef model.AbsoluteIdentifier, expr string) (string, bool) {
	switch gen.Schema.BaseType(typeRef) {
	case model.Int8, model.Int16, model.Int32, model.Int64, model.Integer:
		return "intFromString(" + expr + ")", true
	case model.Float32, model.Float64:
		return "floatFromString(" + expr + ")", true
	case model.Bool:
		return expr + ` == "true"`, true
	case model.Enum:
		if td := gen.Schema.GetTypeDef(typeRef); td != nil {
			return golangTypeName(td.Id) + "(" + expr + ")", true
		}
		return expr, true
	case model.String:
		if td := gen.Schema.GetTypeDef(typeRef); td != nil {
			return golangTypeName(td.Id) + "(" + expr + ")", true
		}
		return expr, true
	default:
		return "", false
	}
}

var serverUtilSource = `func jsonResponse(w http.ResponseWriter, status int, entity interface{}) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    if entity != nil {
        b, _ := json.Marshal(entity)
        w.Write(b)
    }
}

func param(r *http.Request, name string) string {
    return mux.Vars(r)[name]
}

func errorResponse(w http.ResponseWriter, status int, message string) {
    jsonResponse(w, status, &serverError{Error: http.StatusText(status), Message: message})
}

func intFromString(s string) int64 {
    var n int64 = 0
    _, _ = fmt.Sscanf(s, "%d", &n)
    return n
}

func floatFromString(s string) float64 {
    var n float64 = 0
    _, _ = fmt.Sscanf(s, "%g", &n)
    return n
}

type serverError struct {
    Error   string ` + "`json:\"error\"`" + `
    Message string ` + "`json:\"message\"`" + `
}

func WebLog(h http.Handler) http.Handler {
    return handlers.CombinedLoggingHandler(os.Stdout, h)
}

func AllowCors(next http.Handler, host string) http.Handler {
    return handlers.CORS(handlers.AllowedOrigins([]string{"*"}), handlers.AllowedHeaders([]string{"Content-Type", "api_key", "Authorization"}), handlers.AllowedMethods([]string{"GET", "PUT", "DELETE", "POST", "OPTIONS"}))(next)
}
`
