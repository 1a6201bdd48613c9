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
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/restbind/api/model"
	"github.com/restbind/api/sadl"
	"github.com/restbind/api/smithy"
)

var ImportFileExtensions = map[string]bool{
	".smithy": true,
	".json":   true,
	".yaml":   true,
	".yml":    true,
	".sadl":   true,
}

func expandPaths(paths []string) ([]string, error) {
	var result []string
	for _, path := range paths {
		ext := filepath.Ext(path)
		if ImportFileExtensions[ext] {
			result = append(result, path)
		} else {
			fi, err := os.Stat(path)
			if err != nil {
				return nil, err
			}
			if fi.IsDir() {
				err = filepath.Walk(path, func(wpath string, info os.FileInfo, errIncoming error) error {
					if errIncoming != nil {
						return errIncoming
					}
					if ImportFileExtensions[filepath.Ext(wpath)] {
						result = append(result, wpath)
					}
					return nil
				})
				if err != nil {
					return nil, err
				}
			}
		}
	}
	return result, nil
}

// AssembleModel parses every input file, merges the results into one schema,
// applies tag filtering, and validates the assembly. Smithy IDL files are
// assembled together so cross-file references resolve.
func AssembleModel(paths []string, tags []string, ns string) (*model.Schema, error) {
	flatPathList, err := expandPaths(paths)
	if err != nil {
		return nil, err
	}
	assembly := model.NewSchema()
	var smithyPaths []string
	for _, path := range flatPathList {
		var schema *model.Schema
		var err error
		switch filepath.Ext(path) {
		case ".smithy":
			smithyPaths = append(smithyPaths, path)
			continue
		case ".json":
			schema, err = model.Load(path)
			if err != nil {
				schema, err = smithy.Import([]string{path}, nil)
			}
		case ".yaml", ".yml":
			schema, err = model.Load(path)
		case ".sadl":
			ast, serr := sadl.Import(path, ns)
			if serr != nil {
				return nil, serr
			}
			schema, err = smithy.ImportAST(ast, nil)
		default:
			return nil, fmt.Errorf("parse for file type %q not implemented", filepath.Ext(path))
		}
		if err != nil {
			return nil, err
		}
		err = assembly.Merge(schema)
		if err != nil {
			return nil, err
		}
	}
	if len(smithyPaths) > 0 {
		schema, err := smithy.Import(smithyPaths, nil)
		if err != nil {
			return nil, err
		}
		err = assembly.Merge(schema)
		if err != nil {
			return nil, err
		}
	}
	if len(tags) > 0 {
		assembly.Filter(tags)
	}
	err = assembly.Validate()
	if err != nil {
		return nil, err
	}
	return assembly, nil
}
