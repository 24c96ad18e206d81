package schema

import (
	"fmt"
	"strings"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"

	"treegen/errs"
)

// macroMaxSteps bounds a single %starlark block's execution so a
// malformed or runaway macro cannot hang the single-threaded generator.
const macroMaxSteps = 1 << 20

// ExpandMacros scans src for `%starlark { ... }` blocks, executes each
// block's body as Starlark with a step-bounded Thread, and splices the
// text collected by the block's emit(text) calls back into the source in
// place of the block. The result is schema text ready for parseSchema
// (C7) — macro expansion is a textual preprocessing pass, not a grammar
// extension.
//
// Grounded on analyzer/starlark/ast_util.go's use of go.starlark.net for
// parsing starlark source; this bridge goes one step further and
// actually executes the block (go.starlark.net/starlark, rather than
// just go.starlark.net/syntax) since a macro needs to run, not just be
// read.
func ExpandMacros(file, src string) (string, error) {
	var out strings.Builder
	i := 0
	for {
		start := strings.Index(src[i:], "%starlark")
		if start < 0 {
			out.WriteString(src[i:])
			break
		}
		start += i
		out.WriteString(src[i:start])

		rest := src[start+len("%starlark"):]
		skip := leadingBlankRun(rest)
		if skip >= len(rest) || rest[skip] != '{' {
			return "", errs.NewSchemaError(file, 0, "%%starlark must be followed by '{'")
		}
		body, consumed, err := extractBracedBlock(rest[skip:])
		if err != nil {
			return "", errs.NewSchemaError(file, 0, "%%starlark block: %v", err)
		}

		emitted, err := runStarlarkMacro(file, body)
		if err != nil {
			return "", err
		}
		out.WriteString(emitted)

		i = start + len("%starlark") + skip + consumed
	}
	return out.String(), nil
}

func leadingBlankRun(s string) int {
	n := 0
	for n < len(s) && (s[n] == ' ' || s[n] == '\t' || s[n] == '\n' || s[n] == '\r') {
		n++
	}
	return n
}

// extractBracedBlock returns the text strictly between s[0] (which must
// be '{') and its matching '}', plus the total length consumed including
// both braces. Brace depth is tracked so Starlark code containing dict
// or set literals doesn't terminate the block early.
func extractBracedBlock(s string) (string, int, error) {
	if len(s) == 0 || s[0] != '{' {
		return "", 0, fmt.Errorf("expected '{'")
	}
	depth := 0
	for idx, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[1:idx], idx + 1, nil
			}
		}
	}
	return "", 0, fmt.Errorf("unterminated block")
}

// runStarlarkMacro executes body and returns the concatenation of every
// emit(text) call, one schema fragment per line.
func runStarlarkMacro(file, body string) (string, error) {
	thread := &starlark.Thread{Name: "treegen-macro:" + file}
	thread.SetMaxExecutionSteps(macroMaxSteps)
	// A macro body is a top-level script, so for/if/while must be allowed
	// outside a function definition.
	resolve.AllowGlobalReassign = true

	var emitted strings.Builder
	emit := starlark.NewBuiltin("emit", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var text string
		if err := starlark.UnpackArgs("emit", args, kwargs, "text", &text); err != nil {
			return nil, err
		}
		emitted.WriteString(text)
		emitted.WriteString("\n")
		return starlark.None, nil
	})
	predeclared := starlark.StringDict{"emit": emit}

	if _, err := starlark.ExecFile(thread, file+":macro", body, predeclared); err != nil {
		return "", errs.NewSchemaError(file, 0, "starlark macro evaluation failed: %v", err)
	}
	return emitted.String(), nil
}

// ParseWithMacros expands any %starlark blocks in src before handing the
// result to Parse. Callers that know a schema has no macros can call
// Parse directly and skip the Starlark thread setup entirely.
func ParseWithMacros(file, src string) (*Specification, error) {
	expanded, err := ExpandMacros(file, src)
	if err != nil {
		return nil, err
	}
	return Parse(file, expanded)
}
