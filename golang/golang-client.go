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
package golang

import (
	"fmt"
	"strings"

	"github.com/restbind/api/common"
	"github.com/restbind/api/model"
)

// GenerateClient emits the typed client. The generated methods build a
// document value from the typed input, hand it to the runtime binding
// engine, and convert the parsed document back into the typed output. The
// model itself is embedded as JSON so the generated package carries its own
// binding tables.
func (gen *Generator) GenerateClient() (string, error) {
	gen.needTime = false
	gen.needData = false
	gen.needSort = false

	methods := &GolangWriter{gen: gen}
	methods.Begin()
	for _, op := range gen.Operations() {
		if err := gen.generateClientMethod(op, methods); err != nil {
			return "", err
		}
	}
	methodSource := methods.End()

	w := &GolangWriter{gen: gen}
	w.Begin()
	w.Emit("/* Generated */\n")
	w.Emitf("\npackage %s\n", gen.pkg)
	w.Emit(gen.clientImports())
	gen.emitEmbeddedModel(w)
	gen.emitClientCore(w)
	w.Emit(methodSource)
	for _, h := range gen.session.Helpers() {
		w.Emit("\n")
		w.Emit(h.Source)
	}
	gen.emitClientUtil(w)
	return w.End(), nil
}

func (gen *Generator) clientImports() string {
	protoPkg := "restjson"
	if gen.protocol == "rest-xml" {
		protoPkg = "restxml"
	}
	s := "\nimport (\n"
	s += "    \"bytes\"\n"
	s += "    \"fmt\"\n"
	s += "    \"io\"\n"
	s += "    \"net/http\"\n"
	if gen.needSort {
		s += "    \"sort\"\n"
	}
	s += "    \"strings\"\n"
	if gen.needTime {
		s += "    \"time\"\n"
	}
	s += "\n"
	if gen.needData {
		s += "    \"github.com/boynton/data\"\n"
	}
	s += fmt.Sprintf("    %q\n", gen.runtime+"/document")
	s += fmt.Sprintf("    %q\n", gen.runtime+"/httpbind")
	s += fmt.Sprintf("    %q\n", gen.runtime+"/model")
	s += fmt.Sprintf("    %q\n", gen.runtime+"/"+protoPkg)
	s += fmt.Sprintf("    %q\n", gen.runtime+"/wire")
	s += ")\n"
	return s
}

func (gen *Generator) emitEmbeddedModel(w *GolangWriter) {
	js := model.Pretty(gen.Schema)
	//a backquote in the model text would end the raw literal early
	js = strings.ReplaceAll(js, "`", "` + \"`\" + `")
	w.Emit("\nconst apiModelJSON = `")
	w.Emit(js)
	w.Emit("`\n")
}

func (gen *Generator) emitClientCore(w *GolangWriter) {
	protoPkg := "restjson"
	if gen.protocol == "rest-xml" {
		protoPkg = "restxml"
	}
	serviceName := golangTypeName(gen.Schema.Id)
	w.Emitf(`
type Client struct {
    Endpoint  string
    HTTP      *http.Client
    schema    *model.Schema
    assembler *httpbind.Assembler
}

// NewClient returns a client for the %s service at the given endpoint, e.g.
// "https://api.example.com".
func NewClient(endpoint string) (*Client, error) {
    schema, err := model.Parse([]byte(apiModelJSON))
    if err != nil {
        return nil, err
    }
    return &Client{
        Endpoint:  strings.TrimSuffix(endpoint, "/"),
        HTTP:      http.DefaultClient,
        schema:    schema,
        assembler: httpbind.NewAssembler(schema, %s.New()),
    }, nil
}

func (c *Client) roundTrip(opId string, input *document.Document) (*document.Document, error) {
    op := c.schema.GetOperationDef(model.AbsoluteIdentifier(opId))
    if op == nil {
        return nil, fmt.Errorf("undefined operation: %%s", opId)
    }
    serialize, err := c.assembler.RequestSerializer(op)
    if err != nil {
        return nil, err
    }
    req, err := serialize(input)
    if err != nil {
        return nil, err
    }
    var body io.Reader
    if req.BodyStream != nil {
        body = req.BodyStream
    } else if req.Body != nil {
        body = bytes.NewReader(req.Body)
    }
    hreq, err := http.NewRequest(req.Method, c.Endpoint+req.Target(), body)
    if err != nil {
        return nil, err
    }
    for _, e := range req.Headers.Entries() {
        hreq.Header.Add(e.Name, e.Value)
    }
    hres, err := c.HTTP.Do(hreq)
    if err != nil {
        return nil, err
    }
    defer hres.Body.Close()
    resp := wire.NewResponse(hres.StatusCode)
    for name, values := range hres.Header {
        for _, value := range values {
            resp.Headers.Add(name, value)
        }
    }
    resp.Body, err = io.ReadAll(hres.Body)
    if err != nil {
        return nil, err
    }
    parse, err := c.assembler.ResponseParser(op)
    if err != nil {
        return nil, err
    }
    return parse(resp)
}
`, serviceName, protoPkg)
}

func (gen *Generator) generateClientMethod(op *model.OperationDef, w *GolangWriter) error {
	opName := golangTypeName(op.Id)
	hasOutput := op.Output != nil && len(op.Output.Fields) > 0
	arg := ""
	if op.Input != nil {
		arg = fmt.Sprintf("input *%sInput", opName)
	}
	ret := "error"
	if hasOutput {
		ret = fmt.Sprintf("(*%sOutput, error)", opName)
	}
	w.Emit("\n")
	if op.Comment != "" {
		w.Emit(formatDocComment(op.Comment))
	}
	w.Emitf("func (c *Client) %s(%s) %s {\n", opName, arg, ret)
	w.Emit("    in := document.New()\n")
	if op.Input != nil {
		w.Emit("    if input != nil {\n")
		for _, f := range op.Input.Fields {
			if err := gen.emitPut(w, "        ", "in", f.Name, f.Type, f.Required, "input."+string(f.Name.Capitalized())); err != nil {
				return err
			}
		}
		w.Emit("    }\n")
	}
	errReturn := "err"
	if hasOutput {
		errReturn = "nil, err"
	}
	w.Emitf("    out, err := c.roundTrip(%q, in)\n", string(op.Id))
	w.Emit("    if err != nil {\n")
	w.Emitf("        return %s\n", errReturn)
	w.Emit("    }\n")
	if hasOutput {
		w.Emitf("    res := &%sOutput{}\n", opName)
		for _, f := range op.Output.Fields {
			if err := gen.emitGet(w, "    ", "out", f.Name, f.Type, "res."+string(f.Name.Capitalized())); err != nil {
				return err
			}
		}
		w.Emit("    return res, nil\n")
	} else {
		w.Emit("    _ = out\n")
		w.Emit("    return nil\n")
	}
	w.Emit("}\n")
	return nil
}

// emitPut writes one document insertion for a typed member. Required members
// are always put, even at their zero value; optional members are skipped
// when unset.
func (gen *Generator) emitPut(w *GolangWriter, indent, docVar string, name model.Identifier, typeRef model.AbsoluteIdentifier, required bool, expr string) error {
	toDoc, err := gen.toDocExpr(typeRef, expr)
	if err != nil {
		return err
	}
	put := fmt.Sprintf("%s.Put(%q, %s)", docVar, string(name), toDoc)
	if required {
		w.Emitf("%s%s\n", indent, put)
		return nil
	}
	guard := gen.presenceGuard(typeRef, expr)
	if guard == "" {
		w.Emitf("%s%s\n", indent, put)
		return nil
	}
	w.Emitf("%sif %s {\n", indent, guard)
	w.Emitf("%s    %s\n", indent, put)
	w.Emitf("%s}\n", indent)
	return nil
}

// presenceGuard returns the condition under which an optional typed member
// counts as set, or "" when its Go type cannot express absence.
func (gen *Generator) presenceGuard(typeRef model.AbsoluteIdentifier, expr string) string {
	switch gen.Schema.BaseType(typeRef) {
	case model.String, model.Enum:
		return expr + ` != ""`
	case model.Timestamp:
		return "!" + expr + ".IsZero()"
	case model.Blob, model.List, model.Map, model.Struct, model.Union, model.Decimal, model.Document:
		return expr + " != nil"
	default:
		return ""
	}
}

func (gen *Generator) emitGet(w *GolangWriter, indent, docVar string, name model.Identifier, typeRef model.AbsoluteIdentifier, target string) error {
	fromDoc, err := gen.fromDocExpr(typeRef, fmt.Sprintf("%s.Get(%q)", docVar, string(name)))
	if err != nil {
		return err
	}
	w.Emitf("%sif %s.Has(%q) {\n", indent, docVar, string(name))
	w.Emitf("%s    %s = %s\n", indent, target, fromDoc)
	w.Emitf("%s}\n", indent)
	return nil
}

// toDocExpr converts a typed Go expression into the value form the binding
// engine works on. Shape types get a dedicated helper routine, interned per
// structural signature so two members of the same shape share one.
func (gen *Generator) toDocExpr(typeRef model.AbsoluteIdentifier, expr string) (string, error) {
	switch gen.Schema.BaseType(typeRef) {
	case model.String:
		if gen.Schema.GetTypeDef(typeRef) != nil {
			return "string(" + expr + ")", nil
		}
		return expr, nil
	case model.Enum:
		return "string(" + expr + ")", nil
	case model.Blob:
		return "[]byte(" + expr + ")", nil
	case model.Struct, model.Union, model.List, model.Map:
		td := gen.Schema.GetTypeDef(typeRef)
		if td == nil {
			return "", fmt.Errorf("shape is not defined: %s", typeRef)
		}
		if err := gen.ensureShapeHelpers(td); err != nil {
			return "", err
		}
		return "documentFrom" + golangTypeName(td.Id) + "(" + expr + ")", nil
	default:
		return expr, nil
	}
}

func (gen *Generator) fromDocExpr(typeRef model.AbsoluteIdentifier, raw string) (string, error) {
	switch gen.Schema.BaseType(typeRef) {
	case model.Bool:
		return "asBool(" + raw + ")", nil
	case model.Int8, model.Int16, model.Int32, model.Int64, model.Integer:
		return "asInt64(" + raw + ")", nil
	case model.Float32, model.Float64:
		return "asFloat64(" + raw + ")", nil
	case model.Decimal:
		gen.needData = true
		return "asDecimal(" + raw + ")", nil
	case model.Timestamp:
		gen.needTime = true
		return "asTime(" + raw + ")", nil
	case model.String:
		if td := gen.Schema.GetTypeDef(typeRef); td != nil {
			return golangTypeName(td.Id) + "(asString(" + raw + "))", nil
		}
		return "asString(" + raw + ")", nil
	case model.Enum:
		td := gen.Schema.GetTypeDef(typeRef)
		if td == nil {
			return "asString(" + raw + ")", nil
		}
		return golangTypeName(td.Id) + "(asString(" + raw + "))", nil
	case model.Blob:
		if td := gen.Schema.GetTypeDef(typeRef); td != nil {
			return golangTypeName(td.Id) + "(asBytes(" + raw + "))", nil
		}
		return "asBytes(" + raw + ")", nil
	case model.Document:
		return "asDocument(" + raw + ")", nil
	case model.Struct:
		td := gen.Schema.GetTypeDef(typeRef)
		if td == nil {
			return "", fmt.Errorf("shape is not defined: %s", typeRef)
		}
		if err := gen.ensureShapeHelpers(td); err != nil {
			return "", err
		}
		return common.Uncapitalize(golangTypeName(td.Id)) + "FromDocument(asDocument(" + raw + "))", nil
	case model.Union:
		td := gen.Schema.GetTypeDef(typeRef)
		if td == nil {
			return "", fmt.Errorf("shape is not defined: %s", typeRef)
		}
		if err := gen.ensureShapeHelpers(td); err != nil {
			return "", err
		}
		return common.Uncapitalize(golangTypeName(td.Id)) + "FromDocument(asUnion(" + raw + "))", nil
	case model.List:
		td := gen.Schema.GetTypeDef(typeRef)
		if td == nil {
			return "", fmt.Errorf("shape is not defined: %s", typeRef)
		}
		if err := gen.ensureShapeHelpers(td); err != nil {
			return "", err
		}
		return common.Uncapitalize(golangTypeName(td.Id)) + "FromDocument(asList(" + raw + "))", nil
	case model.Map:
		td := gen.Schema.GetTypeDef(typeRef)
		if td == nil {
			return "", fmt.Errorf("shape is not defined: %s", typeRef)
		}
		if err := gen.ensureShapeHelpers(td); err != nil {
			return "", err
		}
		return common.Uncapitalize(golangTypeName(td.Id)) + "FromDocument(asDocument(" + raw + "))", nil
	default:
		return raw, nil
	}
}

// ensureShapeHelpers generates and interns the to-document and from-document
// routines for a shape, recursing into its member shapes. The visited set
// breaks cycles in self-referential shapes; the session pool deduplicates
// the emitted source.
func (gen *Generator) ensureShapeHelpers(td *model.TypeDef) error {
	if gen.visited[td.Id] {
		return nil
	}
	gen.visited[td.Id] = true
	var toDoc, fromDoc string
	var err error
	switch td.Base {
	case model.Struct:
		toDoc, fromDoc, err = gen.structHelpers(td)
	case model.Union:
		toDoc, fromDoc, err = gen.unionHelpers(td)
	case model.List:
		toDoc, fromDoc, err = gen.listHelpers(td)
	case model.Map:
		toDoc, fromDoc, err = gen.mapHelpers(td)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	name := golangTypeName(td.Id)
	if _, err := gen.session.RegisterHelper(string(td.Id)+":to", "documentFrom"+name, toDoc); err != nil {
		return err
	}
	if _, err := gen.session.RegisterHelper(string(td.Id)+":from", common.Uncapitalize(name)+"FromDocument", fromDoc); err != nil {
		return err
	}
	return nil
}

func (gen *Generator) structHelpers(td *model.TypeDef) (string, string, error) {
	name := golangTypeName(td.Id)
	to := &GolangWriter{gen: gen}
	to.Begin()
	to.Emitf("func documentFrom%s(v *%s) *document.Document {\n", name, name)
	to.Emit("    if v == nil {\n        return nil\n    }\n")
	to.Emit("    d := document.New()\n")
	for _, f := range td.Fields {
		if err := gen.emitPut(to, "    ", "d", f.Name, f.Type, f.Required, "v."+string(f.Name.Capitalized())); err != nil {
			return "", "", err
		}
	}
	to.Emit("    return d\n")
	to.Emit("}\n")

	from := &GolangWriter{gen: gen}
	from.Begin()
	from.Emitf("func %sFromDocument(d *document.Document) *%s {\n", common.Uncapitalize(name), name)
	from.Emit("    if d == nil {\n        return nil\n    }\n")
	from.Emitf("    v := &%s{}\n", name)
	for _, f := range td.Fields {
		if err := gen.emitGet(from, "    ", "d", f.Name, f.Type, "v."+string(f.Name.Capitalized())); err != nil {
			return "", "", err
		}
	}
	from.Emit("    return v\n")
	from.Emit("}\n")
	return to.End(), from.End(), nil
}

func (gen *Generator) unionHelpers(td *model.TypeDef) (string, string, error) {
	name := golangTypeName(td.Id)
	to := &GolangWriter{gen: gen}
	to.Begin()
	to.Emitf("func documentFrom%s(v *%s) *document.Union {\n", name, name)
	to.Emit("    if v == nil {\n        return nil\n    }\n")
	for _, f := range td.Fields {
		fname := string(f.Name.Capitalized())
		inner := "*v." + fname
		if isPointerVariant(gen.golangTypeRef(f.Type)) {
			inner = "v." + fname
		}
		toDoc, err := gen.toDocExpr(f.Type, inner)
		if err != nil {
			return "", "", err
		}
		to.Emitf("    if v.%s != nil {\n", fname)
		to.Emitf("        return document.NewUnion(%q, %s)\n", string(f.Name), toDoc)
		to.Emit("    }\n")
	}
	to.Emit("    return nil\n")
	to.Emit("}\n")

	from := &GolangWriter{gen: gen}
	from.Begin()
	from.Emitf("func %sFromDocument(u *document.Union) *%s {\n", common.Uncapitalize(name), name)
	from.Emit("    if u == nil || u.Unknown {\n        return nil\n    }\n")
	from.Emitf("    v := &%s{}\n", name)
	from.Emit("    switch u.Variant {\n")
	for _, f := range td.Fields {
		fname := string(f.Name.Capitalized())
		fromDoc, err := gen.fromDocExpr(f.Type, "u.Value")
		if err != nil {
			return "", "", err
		}
		from.Emitf("    case %q:\n", string(f.Name))
		if isPointerVariant(gen.golangTypeRef(f.Type)) {
			from.Emitf("        v.%s = %s\n", fname, fromDoc)
		} else {
			from.Emitf("        value := %s\n", fromDoc)
			from.Emitf("        v.%s = &value\n", fname)
		}
	}
	from.Emit("    }\n")
	from.Emit("    return v\n")
	from.Emit("}\n")
	return to.End(), from.End(), nil
}

// isPointerVariant reports whether the Go type generated for a union member
// is already a pointer, so the variant field holds it directly.
func isPointerVariant(goType string) bool {
	return strings.HasPrefix(goType, "*")
}

func (gen *Generator) listHelpers(td *model.TypeDef) (string, string, error) {
	name := golangTypeName(td.Id)
	itemType := gen.golangTypeRef(td.Items)
	gen.noteHelperTypeUse(itemType)
	toDoc, err := gen.toDocExpr(td.Items, "item")
	if err != nil {
		return "", "", err
	}
	fromDoc, err := gen.fromDocExpr(td.Items, "item")
	if err != nil {
		return "", "", err
	}
	to := &GolangWriter{gen: gen}
	to.Begin()
	to.Emitf("func documentFrom%s(v []%s) []interface{} {\n", name, itemType)
	to.Emit("    if v == nil {\n        return nil\n    }\n")
	to.Emit("    items := make([]interface{}, 0, len(v))\n")
	to.Emit("    for _, item := range v {\n")
	to.Emitf("        items = append(items, %s)\n", toDoc)
	to.Emit("    }\n")
	to.Emit("    return items\n")
	to.Emit("}\n")

	from := &GolangWriter{gen: gen}
	from.Begin()
	from.Emitf("func %sFromDocument(raw []interface{}) []%s {\n", common.Uncapitalize(name), itemType)
	from.Emit("    if raw == nil {\n        return nil\n    }\n")
	from.Emitf("    out := make([]%s, 0, len(raw))\n", itemType)
	from.Emit("    for _, item := range raw {\n")
	from.Emitf("        out = append(out, %s)\n", fromDoc)
	from.Emit("    }\n")
	from.Emit("    return out\n")
	from.Emit("}\n")
	return to.End(), from.End(), nil
}

func (gen *Generator) mapHelpers(td *model.TypeDef) (string, string, error) {
	gen.needSort = true
	name := golangTypeName(td.Id)
	itemType := gen.golangTypeRef(td.Items)
	gen.noteHelperTypeUse(itemType)
	toDoc, err := gen.toDocExpr(td.Items, "v[k]")
	if err != nil {
		return "", "", err
	}
	fromDoc, err := gen.fromDocExpr(td.Items, "d.Get(k)")
	if err != nil {
		return "", "", err
	}
	to := &GolangWriter{gen: gen}
	to.Begin()
	to.Emitf("func documentFrom%s(v map[string]%s) *document.Document {\n", name, itemType)
	to.Emit("    if v == nil {\n        return nil\n    }\n")
	to.Emit("    keys := make([]string, 0, len(v))\n")
	to.Emit("    for k := range v {\n        keys = append(keys, k)\n    }\n")
	to.Emit("    sort.Strings(keys)\n")
	to.Emit("    d := document.New()\n")
	to.Emit("    for _, k := range keys {\n")
	to.Emitf("        d.Put(k, %s)\n", toDoc)
	to.Emit("    }\n")
	to.Emit("    return d\n")
	to.Emit("}\n")

	from := &GolangWriter{gen: gen}
	from.Begin()
	from.Emitf("func %sFromDocument(d *document.Document) map[string]%s {\n", common.Uncapitalize(name), itemType)
	from.Emit("    if d == nil {\n        return nil\n    }\n")
	from.Emitf("    out := make(map[string]%s, d.Length())\n", itemType)
	from.Emit("    for _, k := range d.Keys() {\n")
	from.Emitf("        out[k] = %s\n", fromDoc)
	from.Emit("    }\n")
	from.Emit("    return out\n")
	from.Emit("}\n")
	return to.End(), from.End(), nil
}

// noteHelperTypeUse records imports a helper signature pulls in through the
// Go spelling of its element type.
func (gen *Generator) noteHelperTypeUse(goType string) {
	if strings.Contains(goType, "time.Time") {
		gen.needTime = true
	}
	if strings.Contains(goType, "data.Decimal") {
		gen.needData = true
	}
}

func (gen *Generator) emitClientUtil(w *GolangWriter) {
	w.Emit(`
func asString(v interface{}) string {
    s, _ := v.(string)
    return s
}

func asBool(v interface{}) bool {
    b, _ := v.(bool)
    return b
}

func asInt64(v interface{}) int64 {
    n, _ := v.(int64)
    return n
}

func asFloat64(v interface{}) float64 {
    n, _ := v.(float64)
    return n
}

func asDocument(v interface{}) *document.Document {
    d, _ := v.(*document.Document)
    return d
}

func asUnion(v interface{}) *document.Union {
    u, _ := v.(*document.Union)
    return u
}

func asList(v interface{}) []interface{} {
    l, _ := v.([]interface{})
    return l
}
`)
	if gen.needTime {
		w.Emit(`
func asTime(v interface{}) time.Time {
    t, _ := v.(time.Time)
    return t
}
`)
	}
	if gen.needData {
		w.Emit(`
func asDecimal(v interface{}) *data.Decimal {
    d, _ := v.(*data.Decimal)
    return d
}
`)
	}
	w.Emit(`
func asBytes(v interface{}) []byte {
    b, _ := v.([]byte)
    return b
}
`)
}

func formatDocComment(comment string) string {
	return common.FormatComment("", "// ", comment, 80, false)
}
