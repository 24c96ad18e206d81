package visitor

import (
	"fmt"
	"strings"
)

// Markers used by the generated Dumper specialization, matching the
// specification's debug-dump format exactly.
const (
	MarkerMissing = "!MISSING"
	MarkerEmpty   = "-"
)

// MaxLinkDumpDepth bounds how far a dumped "--> name" link annotation will
// recurse when the link target's own dump is inlined; beyond this depth the
// guard below prevents runaway output on cyclic-looking link graphs.
const MaxLinkDumpDepth = 64

// DumpWriter accumulates indented text output for the generated Dumper. It
// is a thin, schema-independent helper: the generated code decides what to
// write for each field, this type only tracks indentation and produces
// byte-identical output across runs (a required testable property).
type DumpWriter struct {
	b      strings.Builder
	indent int
}

// NewDumpWriter returns an empty DumpWriter at indent level 0.
func NewDumpWriter() *DumpWriter { return &DumpWriter{} }

// Push increases the indentation level used by subsequent Line calls.
func (d *DumpWriter) Push() { d.indent++ }

// Pop decreases the indentation level.
func (d *DumpWriter) Pop() {
	if d.indent > 0 {
		d.indent--
	}
}

// Line writes one indented, newline-terminated line.
func (d *DumpWriter) Line(format string, args ...any) {
	d.b.WriteString(strings.Repeat("  ", d.indent))
	fmt.Fprintf(&d.b, format, args...)
	d.b.WriteByte('\n')
}

// String returns the accumulated output.
func (d *DumpWriter) String() string { return d.b.String() }

// FormatList renders a sequence field as "[a, b, c]".
func FormatList(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}

// FormatSingle renders a single owning child field as "<inner>".
func FormatSingle(inner string) string {
	return "<" + inner + ">"
}

// FormatLink renders a link field as "--> name", or a truncation marker if
// depth exceeds MaxLinkDumpDepth (guards against dumping through a cycle
// that the well-formedness algorithm has not yet rejected).
func FormatLink(name string, depth int) string {
	if depth > MaxLinkDumpDepth {
		return "--> ... (max link depth reached)"
	}
	return "--> " + name
}
