package emit

import (
	"fmt"
	"strings"

	"github.com/bazelbuild/buildtools/build"

	"treegen/errs"
)

// BazelFile generates the CLI's optional <out-secondary> output: a
// BUILD.bazel fragment describing a go_library for the package Generate
// just produced. mainPath and implPath are the bazel-relative paths of
// the two generated Go files; deps always covers the support packages
// the generated code imports, plus support/cbor when opts.Full.
//
// Grounded on analyzer/bazel/ast_util.go's astBuild, which calls
// build.Parse on raw bytes; the fragment here is built the same way the
// Go emitters build their output (a buffer of text), then round-tripped
// through build.Parse/build.Format for canonical Bazel formatting,
// mirroring go/format.Source's role for the Go emitters.
func BazelFile(pkgName, mainPath, implPath string, opts Options) ([]byte, error) {
	support := opts.SupportImportPath
	if support == "" {
		support = "treegen/support"
	}

	srcs := []string{mainPath}
	deps := []string{
		support + "/edge",
		support + "/visitor",
		support + "/wellform",
		support + "/annotation",
		"go.uber.org/multierr",
	}
	if opts.Full {
		srcs = append(srcs, implPath)
		deps = append(deps, support+"/cbor")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "go_library(\n")
	fmt.Fprintf(&b, "    name = %q,\n", pkgName)
	fmt.Fprintf(&b, "    srcs = [\n")
	for _, s := range srcs {
		fmt.Fprintf(&b, "        %q,\n", s)
	}
	fmt.Fprintf(&b, "    ],\n")
	fmt.Fprintf(&b, "    importpath = %q,\n", "treegen/"+pkgName)
	fmt.Fprintf(&b, "    visibility = [\"//visibility:public\"],\n")
	fmt.Fprintf(&b, "    deps = [\n")
	for _, d := range deps {
		fmt.Fprintf(&b, "        %q,\n", bazelDepLabel(d))
	}
	fmt.Fprintf(&b, "    ],\n")
	fmt.Fprintf(&b, ")\n")

	f, err := build.Parse("BUILD.bazel", []byte(b.String()))
	if err != nil {
		return nil, errs.NewCodecError("parsing generated BUILD fragment: %v", err)
	}
	return build.Format(f), nil
}

// bazelDepLabel turns a Go import path into the bazel-gazelle convention
// for a go_library target built from it.
func bazelDepLabel(importPath string) string {
	return "//" + importPath + ":go_default_library"
}
