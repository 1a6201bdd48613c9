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

// Package document provides the generic runtime representation of modeled
// values flowing through the binding engine: structures and maps are ordered
// Documents, lists are []interface{}, scalars are Go scalars (string, bool,
// int64, float64, []byte, time.Time), and union values are *Union. Absence
// of a member is represented by the key not being present at all, which is
// how the engine keeps "absent optional" distinct from "present but zero".
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Document is a string-keyed map that preserves insertion order, so that
// serialized output is deterministic and member declaration order survives a
// round trip.
type Document struct {
	keys     []string
	bindings map[string]interface{}
}

func New() *Document {
	return &Document{
		bindings: make(map[string]interface{}, 0),
	}
}

func (d *Document) Has(key string) bool {
	if d != nil {
		if _, ok := d.bindings[key]; ok {
			return true
		}
	}
	return false
}

func (d *Document) Get(key string) interface{} {
	if d == nil {
		return nil
	}
	return d.bindings[key]
}

func (d *Document) Put(key string, val interface{}) *Document {
	if _, ok := d.bindings[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.bindings[key] = val
	return d
}

func (d *Document) Delete(key string) {
	if d != nil {
		if _, ok := d.bindings[key]; ok {
			var tmp []string
			for _, k := range d.keys {
				if k != key {
					tmp = append(tmp, k)
				}
			}
			d.keys = tmp
			delete(d.bindings, key)
		}
	}
}

func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}
	return d.keys
}

func (d *Document) Length() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

func (d *Document) GetString(key string) string {
	if s, ok := d.Get(key).(string); ok {
		return s
	}
	return ""
}

func (d *Document) GetBool(key string) bool {
	if b, ok := d.Get(key).(bool); ok {
		return b
	}
	return false
}

func (d *Document) GetInt64(key string) int64 {
	switch n := d.Get(key).(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func (d *Document) GetFloat64(key string) float64 {
	switch n := d.Get(key).(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func (d *Document) GetTimestamp(key string) (time.Time, bool) {
	if t, ok := d.Get(key).(time.Time); ok {
		return t, true
	}
	return time.Time{}, false
}

func (d *Document) GetBlob(key string) []byte {
	if b, ok := d.Get(key).([]byte); ok {
		return b
	}
	return nil
}

func (d *Document) GetDocument(key string) *Document {
	if s, ok := d.Get(key).(*Document); ok {
		return s
	}
	return nil
}

func (d *Document) GetSlice(key string) []interface{} {
	if s, ok := d.Get(key).([]interface{}); ok {
		return s
	}
	return nil
}

func (d *Document) GetUnion(key string) *Union {
	if u, ok := d.Get(key).(*Union); ok {
		return u
	}
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	buffer := bytes.NewBufferString("{")
	for i, key := range d.keys {
		value := d.bindings[key]
		if i > 0 {
			buffer.WriteString(",")
		}
		jsonValue, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		buffer.WriteString(fmt.Sprintf("%q:%s", key, string(jsonValue)))
	}
	buffer.WriteString("}")
	return buffer.Bytes(), nil
}

func (d *Document) String() string {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Sprint(*d)
	}
	return string(b)
}

// Equal compares two documents for structural equality: same keys in the
// same order with equal values.
func (d *Document) Equal(other *Document) bool {
	if d.Length() != other.Length() {
		return false
	}
	for i, k := range d.Keys() {
		if other.Keys()[i] != k {
			return false
		}
		if !valueEqual(d.Get(k), other.Get(k)) {
			return false
		}
	}
	return true
}

func valueEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case *Document:
		bv, ok := b.(*Document)
		return ok && av.Equal(bv)
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case *Union:
		bv, ok := b.(*Union)
		return ok && av.Variant == bv.Variant && av.Unknown == bv.Unknown && valueEqual(av.Value, bv.Value)
	default:
		return a == b
	}
}

// Union is the runtime value of a union shape: exactly one active variant.
// A value parsed from a discriminator the model does not declare has Unknown
// set and Value nil; such a value can never be serialized back out.
type Union struct {
	Variant string
	Value   interface{}
	Unknown bool
}

func NewUnion(variant string, value interface{}) *Union {
	return &Union{Variant: variant, Value: value}
}

// UnknownVariant constructs the reserved forward-compatibility variant,
// retaining the raw discriminator for diagnostics.
func UnknownVariant(raw string) *Union {
	return &Union{Variant: raw, Unknown: true}
}

func (u *Union) String() string {
	if u.Unknown {
		return fmt.Sprintf("Union(unknown: %q)", u.Variant)
	}
	return fmt.Sprintf("Union(%s: %v)", u.Variant, u.Value)
}
