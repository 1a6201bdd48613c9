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
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/boynton/data"
	"github.com/restbind/api/bindings"
	"github.com/restbind/api/common"
	"github.com/restbind/api/doc"
	"github.com/restbind/api/golang"
	"github.com/restbind/api/model"
)

var Version string = "development version"

func main() {
	conf := data.NewObject()
	pVersion := flag.Bool("v", false, "Show restbind version and exit")
	pHelp := flag.Bool("h", false, "Show more help information")
	pList := flag.Bool("l", false, "List the entities in the model")
	pEntity := flag.String("e", "", "Show the specified entity.")
	pForce := flag.Bool("f", false, "Force overwrite if output file exists")
	pGen := flag.String("g", "api", "The generator for output")
	pNs := flag.String("ns", "example", "The namespace to force if none is present")
	pOutdir := flag.String("o", "", "The directory to generate output into (defaults to stdout)")
	var params Params
	flag.Var(&params, "a", "Additional named arguments for a generator")
	var tags Tags
	flag.Var(&tags, "t", "Tag of entities to include. Prefix tag with '-' to exclude that tag")
	flag.Parse()
	if *pVersion {
		fmt.Printf("restbind %s [%s]\n", Version, "https://github.com/restbind/api")
		os.Exit(0)
	} else if *pHelp {
		help()
		os.Exit(0)
	}
	gen := *pGen
	outdir := *pOutdir
	files := flag.Args()
	if len(files) == 0 {
		fmt.Println("usage: restbind [-v] [-l] [-o outdir] [-g generator] [-a key=val]* [-t tag]* file ...")
		flag.PrintDefaults()
		os.Exit(1)
	}
	schema, err := AssembleModel(files, tags, *pNs)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	if *pList {
		if schema.Id != "" {
			fmt.Println(schema.Id, "(service)")
		}
		for _, op := range schema.Operations {
			fmt.Println(op.Id, "(operation)")
		}
		for _, td := range schema.Types {
			fmt.Println(td.Id)
		}
		os.Exit(0)
	} else if *pEntity != "" {
		eid := model.AbsoluteIdentifier(*pEntity)
		if td := schema.GetTypeDef(eid); td != nil {
			fmt.Println(model.Pretty(td))
		} else if op := schema.GetOperationDef(eid); op != nil {
			fmt.Println(model.Pretty(op))
		} else {
			fmt.Println("No such entity:", eid)
			os.Exit(1)
		}
		os.Exit(0)
	}
	if gen == "json" {
		fmt.Println(data.Pretty(schema))
		os.Exit(0)
	}
	conf.Put("outdir", outdir)
	if *pForce {
		conf.Put("force", true)
	}
	conf.Put("namespace", *pNs)
	for _, a := range params {
		kv := strings.Split(a, "=")
		if len(kv) > 1 {
			conf.Put(kv[0], kv[1])
		} else {
			conf.Put(a, true)
		}
	}
	generator, err := Generator(gen)
	if err == nil {
		err = generator.Generate(schema, conf)
	}
	if err != nil {
		fmt.Printf("*** %v\n", err)
		os.Exit(4)
	}
}

type Params []string

func (p *Params) String() string {
	return strings.Join([]string(*p), " ")
}
func (p *Params) Set(value string) error {
	*p = append(*p, strings.TrimSpace(value))
	return nil
}

type Tags []string

func (p *Tags) String() string {
	return strings.Join([]string(*p), " ")
}
func (p *Tags) Set(value string) error {
	*p = append(*p, strings.TrimSpace(value))
	return nil
}

func Generator(genName string) (common.Generator, error) {
	switch genName {
	case "summary":
		return new(common.SummaryGenerator), nil
	case "api":
		return new(common.ApiGenerator), nil
	case "bindings":
		return new(bindings.Generator), nil
	case "doc", "markdown":
		return new(doc.Generator), nil
	case "go", "golang":
		return new(golang.Generator), nil
	default:
		return nil, fmt.Errorf("Unknown generator: %q", genName)
	}
}

func help() {
	msg := `
Supported API description formats for each input file extension:
   .json     the native model representation (or a Smithy AST, inferred from the contents)
   .yaml     the native model representation
   .smithy   smithy IDL
   .sadl     SADL

The 'ns' option forces a namespace for input formats that do not require
one. Otherwise a default is used based on the model being parsed.

Supported generators and options used from config if present
- api: Prints the native API representation to stdout. This is the default.
- json: Prints the parsed API data representation in JSON to stdout
- bindings: Prints the resolved HTTP binding tables for every operation as JSON
- doc: Generates markdown documentation, including per-operation binding tables
- go: Generates Go client bindings that delegate to the runtime binding engine
   "-a golang.runtime=..." - the module path of the runtime to delegate to
   "-a golang.protocol=rest-xml" - bind bodies with REST-XML instead of REST-JSON

For any generator the following additional parameters are accepted:
- "-a sort" - causes the operations and types to be alphabetically sorted, by default the original order is preserved
`
	fmt.Println(msg)
}
