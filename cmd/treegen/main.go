// Command treegen reads a schema file and writes the generated Go source
// for its node model. Usage:
//
//	treegen [-lite] [-bazel] <schema-file> <out-main> <out-impl> [<out-secondary>]
//
// The schema front end is chosen from <schema-file>'s extension: ".tg"
// for the native grammar (with %starlark macro expansion), ".thrift"
// for Thrift IDL, ".proto" for Protobuf IDL. -lite selects emit.Lite
// (no serialize/deserialize, no support/cbor import); -bazel additionally
// writes a BUILD.bazel fragment to <out-secondary>.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"treegen/emit"
	"treegen/schema"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "treegen: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var lite, bazel bool
	var positional []string
	for _, a := range args {
		switch a {
		case "-lite":
			lite = true
		case "-bazel":
			bazel = true
		default:
			positional = append(positional, a)
		}
	}

	if len(positional) < 3 {
		return fmt.Errorf("usage: treegen [-lite] [-bazel] <schema-file> <out-main> <out-impl> [<out-secondary>]")
	}
	schemaFile, outMain, outImpl := positional[0], positional[1], positional[2]
	var outSecondary string
	if len(positional) > 3 {
		outSecondary = positional[3]
	}
	if bazel && outSecondary == "" {
		return fmt.Errorf("-bazel requires an <out-secondary> path")
	}

	spec, err := parseSchemaFile(schemaFile)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", schemaFile, err)
	}

	opts := emit.Options{Full: !lite}
	result, err := emit.Generate(spec, opts)
	if err != nil {
		return fmt.Errorf("generating code for %s: %w", schemaFile, err)
	}

	if err := os.WriteFile(outMain, result.Main, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outMain, err)
	}
	if err := os.WriteFile(outImpl, result.Impl, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outImpl, err)
	}

	if bazel {
		build, err := emit.BazelFile(packageNameFor(spec, opts), filepath.Base(outMain), filepath.Base(outImpl), opts)
		if err != nil {
			return fmt.Errorf("generating %s: %w", outSecondary, err)
		}
		if err := os.WriteFile(outSecondary, build, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outSecondary, err)
		}
	}

	return nil
}

func packageNameFor(spec *schema.Specification, opts emit.Options) string {
	if opts.PackageName != "" {
		return opts.PackageName
	}
	if spec.Config.Namespace != "" {
		return spec.Config.Namespace
	}
	return "generated"
}

func parseSchemaFile(path string) (*schema.Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch filepath.Ext(path) {
	case ".thrift":
		return schema.ParseThrift(path, data)
	case ".proto":
		return schema.ParseProto(path, string(data))
	default:
		return schema.ParseWithMacros(path, string(data))
	}
}
