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
package model

import (
	"fmt"
)

// Validate checks model-level consistency: operations must carry an HTTP
// request template, members may claim at most one binding location, and the
// error discriminators (exception shape names) of an operation must be
// unique. Binding-level checks (label/placeholder matching, payload
// exclusivity against document members) happen at resolution time, per
// operation.
func (schema *Schema) Validate() error {
	for _, op := range schema.Operations {
		if err := schema.ValidateOperation(op); err != nil {
			return err
		}
	}
	return nil
}

func (schema *Schema) ValidationError(context, msg string) error {
	return fmt.Errorf("validation failure: %s: %s", context, msg)
}

func (schema *Schema) ValidateOperation(op *OperationDef) error {
	context := StripNamespace(op.Id)
	if op.HttpMethod == "" || op.HttpUri == "" {
		return schema.ValidationError(context, "operation has no HTTP request template (method and uri required)")
	}
	if err := schema.ValidateOperationInput(op); err != nil {
		return err
	}
	if op.Output != nil {
		if err := schema.ValidateOperationOutput(op, op.Output); err != nil {
			return err
		}
	}
	seen := make(map[string]bool, 0)
	for _, e := range op.Exceptions {
		name := e.Name()
		if seen[name] {
			return schema.ValidationError(context, "duplicate error discriminator: "+name)
		}
		seen[name] = true
		if e.Fault != "" && e.Fault != FaultClient && e.Fault != FaultServer {
			return schema.ValidationError(context+"$"+name, "error fault must be 'client' or 'server'")
		}
		if err := schema.ValidateOperationOutput(op, e); err != nil {
			return err
		}
	}
	return nil
}

func (schema *Schema) ValidateOperationInput(op *OperationDef) error {
	if op.Input == nil {
		return nil
	}
	for _, in := range op.Input.Fields {
		n := 0
		if in.HttpPath {
			n++
		}
		if in.HttpQuery != "" {
			n++
		}
		if in.HttpHeader != "" {
			n++
		}
		if in.HttpPrefixHeaders != "" {
			n++
		}
		if in.HttpPayload {
			n++
		}
		if n > 1 {
			context := StripNamespace(op.Id) + "$" + string(in.Name)
			return schema.ValidationError(context, "input field claims more than one binding location")
		}
	}
	return nil
}

func (schema *Schema) ValidateOperationOutput(op *OperationDef, out *OperationOutput) error {
	for _, f := range out.Fields {
		n := 0
		if f.HttpHeader != "" {
			n++
		}
		if f.HttpPrefixHeaders != "" {
			n++
		}
		if f.HttpPayload {
			n++
		}
		if f.HttpResponseCode {
			n++
		}
		if n > 1 {
			context := StripNamespace(op.Id) + "$" + string(f.Name)
			return schema.ValidationError(context, "output field claims more than one binding location")
		}
	}
	return nil
}
