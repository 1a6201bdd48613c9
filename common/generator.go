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
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/restbind/api/model"
	"github.com/boynton/data"
)

type Generator interface {
	Generate(schema *model.Schema, config *data.Object) error
}

type BaseGenerator struct {
	Schema         *model.Schema
	Config         *data.Object
	OutDir         string
	ForceOverwrite bool
	buf            bytes.Buffer
	writer         *bufio.Writer
	Err            error
	Sort           bool
}

func (gen *BaseGenerator) Configure(schema *model.Schema, conf *data.Object) error {
	gen.Schema = schema
	//validate the config
	gen.Config = conf
	gen.OutDir = conf.GetString("outdir")
	gen.Sort = conf.GetBool("sort")
	gen.ForceOverwrite = conf.GetBool("force")
	return nil
}

func (gen *BaseGenerator) Operations() []*model.OperationDef {
	if gen.Sort {
		return gen.SortedOperations()
	}
	return gen.Schema.Operations
}

func (gen *BaseGenerator) SortedOperations() []*model.OperationDef {
	var r []*model.OperationDef
	if len(gen.Schema.Operations) > 0 {
		for _, i := range gen.Schema.Operations {
			r = append(r, i)
		}
		sort.Slice(r, func(i, j int) bool {
			return StripNamespace(r[i].Id) < StripNamespace(r[j].Id)
		})
	}
	return r
}

func (gen *BaseGenerator) Types() []*model.TypeDef {
	if gen.Sort {
		return gen.SortedTypes()
	}
	return gen.Schema.Types
}

func (gen *BaseGenerator) SortedTypes() []*model.TypeDef {
	var r []*model.TypeDef
	if len(gen.Schema.Types) > 0 {
		for _, i := range gen.Schema.Types {
			r = append(r, i)
		}
		sort.Slice(r, func(i, j int) bool {
			return StripNamespace(r[i].Id) < StripNamespace(r[j].Id)
		})
	}
	return r
}

func (gen *BaseGenerator) Begin() {
	gen.buf.Reset()
	gen.writer = bufio.NewWriter(&gen.buf)
}

func (gen *BaseGenerator) End() string {
	gen.writer.Flush()
	return gen.buf.String()
}

func (gen *BaseGenerator) Emit(s string) {
	gen.writer.WriteString(s)
}

func (gen *BaseGenerator) Emitf(format string, args ...interface{}) {
	gen.writer.WriteString(fmt.Sprintf(format, args...))
}

func (gen *BaseGenerator) FileExists(path string) bool {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false
	}
	return true
}

func (gen *BaseGenerator) FileName(ns string, suffix string) string {
	return strings.ReplaceAll(ns, ".", "-") + suffix
}

func (gen *BaseGenerator) WriteFile(path string, content string) error {
	if gen.Err != nil {
		return gen.Err
	}
	if !gen.ForceOverwrite && gen.FileExists(path) {
		return fmt.Errorf("[%s already exists, not overwriting]", path)
	}
	f, err := os.Create(path)
	if err != nil {
		gen.Err = err
		return err
	}
	defer f.Close()
	writer := bufio.NewWriter(f)
	_, gen.Err = writer.WriteString(content)
	writer.Flush()
	return gen.Err
}

func (gen *BaseGenerator) Write(text string, filename string, separator string) error {
	if gen.Err != nil {
		return gen.Err
	}
	if gen.OutDir == "" {
		if separator != "" {
			fmt.Print(separator)
		}
		fmt.Print(text)
		gen.Err = nil
	} else {
		fpath := filepath.Join(gen.OutDir, filename)
		gen.Err = gen.WriteFile(fpath, text)
	}
	return nil
}
