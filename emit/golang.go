// Package emit implements the code generators (C9): emit.Full generates a
// complete Go package for a schema.Specification, including CBOR
// serialize/deserialize; emit.Lite generates the same node model and
// visitor scaffolding but omits the codec, for callers who only need an
// in-memory tree. Both split their output across a "main" file (types,
// construction, copy/clone/equals, visitor scaffolding, dump) and an
// "impl" file (serialize/deserialize bodies, or an empty package-clause
// file for Lite) — the nearest Go analogue to a header/implementation
// split, matching how the CLI's <out-main>/<out-impl> arguments are used.
package emit

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"

	"treegen/errs"
	"treegen/schema"
)

// Options controls a single Generate call.
type Options struct {
	// Full selects emit.Full (includes serialize/deserialize) vs.
	// emit.Lite (node model and visitor scaffolding only).
	Full bool
	// PackageName overrides the generated package's name; defaults to
	// spec.Config.Namespace.
	PackageName string
	// SupportImportPath is the fully-qualified import path of the
	// support library the generated code imports. Defaults to
	// "treegen/support/...".
	SupportImportPath string
}

// Result holds the two generated source files.
type Result struct {
	Main []byte
	Impl []byte
}

// Full runs the full emitter (everything, including CBOR serialize and
// deserialize).
func Full(spec *schema.Specification, opts Options) (Result, error) {
	opts.Full = true
	return Generate(spec, opts)
}

// Lite runs the lite emitter: the node model and visitor scaffolding,
// with an empty impl file and no support/cbor import.
func Lite(spec *schema.Specification, opts Options) (Result, error) {
	opts.Full = false
	return Generate(spec, opts)
}

type generator struct {
	spec    *schema.Specification
	opts    Options
	pkgName string
	support string // import path prefix for support/*, e.g. "treegen/support"
}

// Generate builds the generated package source for spec according to
// opts. The returned Main/Impl bytes are gofmt'd (via go/format, the same
// post-processing step the cmd-gen-visitor teacher example in the pack
// applies to its own generated output).
func Generate(spec *schema.Specification, opts Options) (Result, error) {
	if spec == nil || len(spec.Nodes) == 0 {
		return Result{}, errs.NewMissing("cannot generate code from an empty specification")
	}
	pkgName := opts.PackageName
	if pkgName == "" {
		pkgName = spec.Config.Namespace
	}
	if pkgName == "" {
		pkgName = "generated"
	}
	support := opts.SupportImportPath
	if support == "" {
		support = "treegen/support"
	}
	g := &generator{spec: spec, opts: opts, pkgName: pkgName, support: support}

	mainSrc, err := g.genMain()
	if err != nil {
		return Result{}, err
	}
	implSrc, err := g.genImpl()
	if err != nil {
		return Result{}, err
	}

	mainFmt, err := format.Source(mainSrc)
	if err != nil {
		return Result{}, errs.NewCodecError("formatting generated main file: %v", err)
	}
	implFmt, err := format.Source(implSrc)
	if err != nil {
		return Result{}, errs.NewCodecError("formatting generated impl file: %v", err)
	}
	return Result{Main: mainFmt, Impl: implFmt}, nil
}

func (g *generator) genMain() ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "// Code generated by treegen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", g.pkgName)

	imports := []string{
		g.support + "/edge",
		g.support + "/visitor",
		g.support + "/wellform",
		g.support + "/annotation",
		"go.uber.org/multierr",
	}
	if g.opts.Full {
		imports = append(imports, g.support+"/cbor")
	}
	fmt.Fprintf(&b, "import (\n\t\"fmt\"\n\n")
	for _, imp := range imports {
		fmt.Fprintf(&b, "\t%q\n", imp)
	}
	fmt.Fprintf(&b, ")\n\n")

	g.genMarkerInterfaces(&b)
	g.genStructs(&b)
	g.genConstructors(&b)
	g.genAsHelpers(&b)
	g.genWellformed(&b)
	g.genCloneEqual(&b)
	g.genVisitor(&b)
	g.genDump(&b)

	return b.Bytes(), nil
}

func (g *generator) genImpl() ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "// Code generated by treegen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", g.pkgName)
	if !g.opts.Full {
		return b.Bytes(), nil
	}
	fmt.Fprintf(&b, "import (\n\t%q\n\n\t%q\n\t%q\n\t%q\n\t%q\n)\n\n", "fmt", g.support+"/annotation", g.support+"/cbor", g.support+"/visitor", g.support+"/wellform")
	g.genSerialize(&b)
	g.genDeserialize(&b)
	return b.Bytes(), nil
}

// ---- marker interfaces (C5: abstract NodeTypes) ----

func (g *generator) genMarkerInterfaces(b *bytes.Buffer) {
	for _, nt := range g.spec.Nodes {
		if nt.Leaf() {
			continue
		}
		fmt.Fprintf(b, "// %s is the abstract node type for %s.\n", nt.TitleName, nt.Name)
		if nt.Doc != "" {
			fmt.Fprintf(b, "// %s\n", nt.Doc)
		}
		fmt.Fprintf(b, "type %s interface {\n\tvisitor.Node\n", nt.TitleName)
		for _, anc := range ancestorTitles(g.spec, nt) {
			fmt.Fprintf(b, "\t%s\n", anc)
		}
		// FindReachable and CheckComplete are declared directly on the
		// interface: every leaf's implementation shares the identical
		// (pm *wellform.PointerMap) error signature, so ordinary
		// interface satisfaction is enough. Clone/Equal cannot join
		// them the same way (each leaf's Clone returns its own pointer
		// type, which Go's invariant method sets don't let satisfy an
		// interface method returning %s), so a field referencing this
		// abstract type dispatches through the clone%s/equal%s
		// functions below instead.
		fmt.Fprintf(b, "\tFindReachable(pm *wellform.PointerMap) error\n")
		fmt.Fprintf(b, "\tCheckComplete(pm *wellform.PointerMap) error\n")
		fmt.Fprintf(b, "\tis%s()\n}\n\n", nt.TitleName)

		g.genAbstractDispatch(b, nt)
	}
}

// genAbstractDispatch emits clone<Name>/equal<Name> free functions that
// dispatch a Clone/Equal call across nt's transitive leaves via an
// explicit type switch, the same workaround DispatchVisit uses for
// visitor methods: Go's invariant method sets mean *File's
// "func (*File) Clone() *File" cannot satisfy an interface method
// declared "Clone() Entry", so a field typed as the abstract interface
// cannot call v.Clone()/a.Equal(b) directly.
func (g *generator) genAbstractDispatch(b *bytes.Buffer, nt *schema.NodeType) {
	leaves := g.spec.Leaves(nt.Name)

	fmt.Fprintf(b, "func clone%s(n %s) %s {\n\tif n == nil {\n\t\treturn nil\n\t}\n\tswitch t := n.(type) {\n", nt.TitleName, nt.TitleName, nt.TitleName)
	for _, leaf := range leaves {
		fmt.Fprintf(b, "\tcase *%s:\n\t\treturn t.Clone()\n", leaf.TitleName)
	}
	fmt.Fprintf(b, "\t}\n\treturn nil\n}\n\n")

	fmt.Fprintf(b, "func equal%s(a, b %s) bool {\n\tif a == nil || b == nil {\n\t\treturn a == nil && b == nil\n\t}\n\tswitch ta := a.(type) {\n", nt.TitleName, nt.TitleName)
	for _, leaf := range leaves {
		fmt.Fprintf(b, "\tcase *%s:\n\t\ttb, ok := b.(*%s)\n\t\treturn ok && ta.Equal(tb)\n", leaf.TitleName, leaf.TitleName)
	}
	fmt.Fprintf(b, "\t}\n\treturn false\n}\n\n")
}

func ancestorTitles(spec *schema.Specification, nt *schema.NodeType) []string {
	var out []string
	for _, a := range spec.Ancestors(nt.Name) {
		out = append(out, a.TitleName)
	}
	return out
}

// ---- concrete structs (leaf NodeTypes) ----

func (g *generator) genStructs(b *bytes.Buffer) {
	for _, nt := range g.spec.Nodes {
		if !nt.Leaf() {
			continue
		}
		fmt.Fprintf(b, "// %s is a leaf node type.\n", nt.TitleName)
		if nt.Doc != "" {
			fmt.Fprintf(b, "// %s\n", nt.Doc)
		}
		fmt.Fprintf(b, "type %s struct {\n", nt.TitleName)
		for _, f := range nt.Fields {
			fmt.Fprintf(b, "\t%s %s\n", fieldGoName(f), g.fieldGoType(f))
		}
		fmt.Fprintf(b, "\tannotations annotation.Map\n")
		fmt.Fprintf(b, "}\n\n")

		fmt.Fprintf(b, "func (*%s) Kind() string { return %q }\n\n", nt.TitleName, nt.TitleName)

		chain := []string{nt.TitleName}
		chain = append(chain, ancestorTitles(g.spec, nt)...)
		for _, name := range chain {
			if name == nt.TitleName {
				fmt.Fprintf(b, "func (*%s) is%s() {}\n", nt.TitleName, name)
			} else {
				fmt.Fprintf(b, "func (*%s) is%s() {}\n", nt.TitleName, name)
			}
		}
		fmt.Fprintln(b)

		g.genChildren(b, nt)
	}
}

func (g *generator) genChildren(b *bytes.Buffer, nt *schema.NodeType) {
	fmt.Fprintf(b, "func (n *%s) Children() []visitor.Node {\n\tvar out []visitor.Node\n", nt.TitleName)
	for _, f := range nt.Fields {
		if !f.IsNodeRef() || !f.Kind.Owning() {
			continue
		}
		name := fieldGoName(f)
		switch f.Kind {
		case schema.Exactly:
			fmt.Fprintf(b, "\tif v := n.%s.Get(); v != nil {\n\t\tout = append(out, v)\n\t}\n", name)
		case schema.Maybe:
			fmt.Fprintf(b, "\tif v, ok := n.%s.Get(); ok {\n\t\tout = append(out, v)\n\t}\n", name)
		case schema.List, schema.NonEmptyList:
			fmt.Fprintf(b, "\tfor _, v := range n.%s.Items() {\n\t\tout = append(out, v)\n\t}\n", name)
		}
	}
	fmt.Fprintf(b, "\treturn out\n}\n\n")
}

func fieldGoName(f schema.Field) string {
	return titleCaseExported(f.Name)
}

func titleCaseExported(snake string) string {
	parts := strings.Split(snake, "_")
	var bld strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		bld.WriteString(strings.ToUpper(p[:1]))
		bld.WriteString(p[1:])
	}
	return bld.String()
}

// elementGoType is the Go type backing a field's element. A reference to
// a leaf NodeType becomes a pointer to its generated struct; a reference
// to an abstract NodeType becomes its generated marker interface, used
// bare (those are never instantiated directly, so a pointer to one would
// be meaningless). Opaque primitives are represented uniformly as string
// (their CBOR wire encoding is always text, and any richer structure is
// the schema author's to parse — see DESIGN.md on why the generator does
// not attempt per-primitive native Go types).
func (g *generator) elementGoType(f schema.Field) string {
	if !f.IsNodeRef() {
		return "string"
	}
	if nt, ok := g.spec.Lookup(f.RefNode); ok && !nt.Leaf() {
		return titleCaseExported(f.RefNode)
	}
	return "*" + titleCaseExported(f.RefNode)
}

// cloneCallback and equalCallback build the per-element callback genCloneEqual
// passes to edge.Exactly/Maybe/List/NonEmptyList.Clone/Equal for a
// node-ref field. A leaf-typed field calls Clone()/Equal() directly; an
// abstract-typed field routes through the clone<Name>/equal<Name>
// dispatch functions genAbstractDispatch emits, since the interface
// itself can't expose Clone/Equal (see genMarkerInterfaces).
func (g *generator) cloneCallback(f schema.Field) string {
	elem := g.elementGoType(f)
	if nt, ok := g.spec.Lookup(f.RefNode); ok && !nt.Leaf() {
		return fmt.Sprintf("func(v %s) %s { return clone%s(v) }", elem, elem, nt.TitleName)
	}
	return fmt.Sprintf("func(v %s) %s { return v.Clone() }", elem, elem)
}

func (g *generator) equalCallback(f schema.Field) string {
	elem := g.elementGoType(f)
	if nt, ok := g.spec.Lookup(f.RefNode); ok && !nt.Leaf() {
		return fmt.Sprintf("func(a, b %s) bool { return equal%s(a, b) }", elem, nt.TitleName)
	}
	return fmt.Sprintf("func(a, b %s) bool { return a.Equal(b) }", elem)
}

func (g *generator) fieldGoType(f schema.Field) string {
	elem := g.elementGoType(f)
	switch f.Kind {
	case schema.Exactly:
		return "edge.Exactly[" + elem + "]"
	case schema.Maybe:
		return "edge.Maybe[" + elem + "]"
	case schema.List:
		return "edge.List[" + elem + "]"
	case schema.NonEmptyList:
		return "edge.NonEmptyList[" + elem + "]"
	case schema.Link:
		return "edge.Link[" + elem + "]"
	case schema.OptLink:
		return "edge.OptLink[" + elem + "]"
	default:
		return elem
	}
}

// ---- constructors ----

func (g *generator) genConstructors(b *bytes.Buffer) {
	for _, nt := range g.spec.Nodes {
		if !nt.Leaf() {
			continue
		}
		fmt.Fprintf(b, "// New%s returns a zero-valued %s; required fields (Exactly, NonEmptyList) must\n", nt.TitleName, nt.TitleName)
		fmt.Fprintf(b, "// be populated before the tree is well-formed.\n")
		fmt.Fprintf(b, "func New%s() *%s {\n\treturn &%s{}\n}\n\n", nt.TitleName, nt.TitleName, nt.TitleName)
	}
}

// ---- as_<kind> helpers ----

func (g *generator) genAsHelpers(b *bytes.Buffer) {
	for _, nt := range g.spec.Nodes {
		if nt.Leaf() {
			continue
		}
		for _, leaf := range g.spec.Leaves(nt.Name) {
			fmt.Fprintf(b, "// As%s narrows n to *%s if that is its concrete kind.\n", leaf.TitleName, leaf.TitleName)
			fmt.Fprintf(b, "func As%s(n %s) (*%s, bool) {\n\tv, ok := n.(*%s)\n\treturn v, ok\n}\n\n",
				leaf.TitleName, nt.TitleName, leaf.TitleName, leaf.TitleName)
		}
	}
}

// ---- well-formedness (FindReachable / CheckComplete) ----

func (g *generator) genWellformed(b *bytes.Buffer) {
	for _, nt := range g.spec.Nodes {
		if !nt.Leaf() {
			continue
		}
		fmt.Fprintf(b, "func (n *%s) FindReachable(pm *wellform.PointerMap) error {\n", nt.TitleName)
		fmt.Fprintf(b, "\tif _, dup := pm.Visit(n); dup {\n\t\treturn wellform.DuplicateNode(%q)\n\t}\n", nt.TitleName)
		for _, f := range nt.Fields {
			if !f.IsNodeRef() {
				continue
			}
			name := fieldGoName(f)
			switch f.Kind {
			case schema.Exactly:
				fmt.Fprintf(b, "\tif err := n.%s.FindReachable(func(v %s) error { return v.FindReachable(pm) }); err != nil {\n\t\treturn err\n\t}\n", name, g.elementGoType(f))
			case schema.Maybe:
				fmt.Fprintf(b, "\tif err := n.%s.FindReachable(func(v %s) error { return v.FindReachable(pm) }); err != nil {\n\t\treturn err\n\t}\n", name, g.elementGoType(f))
			case schema.List, schema.NonEmptyList:
				fmt.Fprintf(b, "\tif err := n.%s.FindReachable(func(v %s) error { return v.FindReachable(pm) }); err != nil {\n\t\treturn err\n\t}\n", name, g.elementGoType(f))
			}
		}
		fmt.Fprintf(b, "\treturn nil\n}\n\n")

		fmt.Fprintf(b, "func (n *%s) CheckComplete(pm *wellform.PointerMap) error {\n\tvar err error\n", nt.TitleName)
		for _, f := range nt.Fields {
			name := fieldGoName(f)
			switch f.Kind {
			case schema.Exactly:
				fmt.Fprintf(b, "\terr = multierr.Append(err, n.%s.CheckComplete(%q))\n", name, f.Name)
				if f.IsNodeRef() {
					fmt.Fprintf(b, "\tif v := n.%s.Get(); v != nil {\n\t\terr = multierr.Append(err, v.CheckComplete(pm))\n\t}\n", name)
				}
			case schema.Maybe:
				if f.IsNodeRef() {
					fmt.Fprintf(b, "\tif v, ok := n.%s.Get(); ok {\n\t\terr = multierr.Append(err, v.CheckComplete(pm))\n\t}\n", name)
				}
			case schema.List, schema.NonEmptyList:
				if f.Kind == schema.NonEmptyList {
					fmt.Fprintf(b, "\terr = multierr.Append(err, n.%s.CheckComplete(%q))\n", name, f.Name)
				}
				if f.IsNodeRef() {
					fmt.Fprintf(b, "\tfor _, c := range n.%s.Items() {\n\t\terr = multierr.Append(err, c.CheckComplete(pm))\n\t}\n", name)
				}
			case schema.Link, schema.OptLink:
				fmt.Fprintf(b, "\terr = multierr.Append(err, n.%s.CheckComplete(%q, pm))\n", name, f.Name)
			}
		}
		if nt.IsError {
			fmt.Fprintf(b, "\terr = multierr.Append(err, wellform.ErrorMarkerPresent(%q))\n", nt.TitleName)
		}
		fmt.Fprintf(b, "\treturn err\n}\n\n")
	}
}

// ---- clone / equal ----

func (g *generator) genCloneEqual(b *bytes.Buffer) {
	for _, nt := range g.spec.Nodes {
		if !nt.Leaf() {
			continue
		}
		fmt.Fprintf(b, "func (n *%s) Clone() *%s {\n\tif n == nil {\n\t\treturn nil\n\t}\n\tcp := &%s{}\n", nt.TitleName, nt.TitleName, nt.TitleName)
		for _, f := range nt.Fields {
			name := fieldGoName(f)
			cloneElem := primitiveCloneExpr(f)
			if f.IsNodeRef() {
				cloneElem = g.cloneCallback(f)
			}
			switch f.Kind {
			case schema.Exactly, schema.Maybe, schema.List, schema.NonEmptyList:
				fmt.Fprintf(b, "\tcp.%s = n.%s.Clone(%s)\n", name, name, cloneElem)
			case schema.Link, schema.OptLink:
				fmt.Fprintf(b, "\tcp.%s = n.%s.Clone()\n", name, name)
			default:
				fmt.Fprintf(b, "\tcp.%s = n.%s\n", name, name)
			}
		}
		fmt.Fprintf(b, "\tcp.annotations = n.annotations.CloneRaw()\n")
		fmt.Fprintf(b, "\treturn cp\n}\n\n")

		fmt.Fprintf(b, "func (n *%s) Equal(other *%s) bool {\n\tif n == nil || other == nil {\n\t\treturn n == other\n\t}\n", nt.TitleName, nt.TitleName)
		for _, f := range nt.Fields {
			name := fieldGoName(f)
			eqExpr := primitiveEqExpr(f)
			if f.IsNodeRef() {
				eqExpr = g.equalCallback(f)
			}
			switch f.Kind {
			case schema.Exactly, schema.Maybe, schema.List, schema.NonEmptyList:
				fmt.Fprintf(b, "\tif !n.%s.Equal(other.%s, %s) {\n\t\treturn false\n\t}\n", name, name, eqExpr)
			case schema.Link, schema.OptLink:
				fmt.Fprintf(b, "\tif !n.%s.Equal(other.%s) {\n\t\treturn false\n\t}\n", name, name)
			default:
				fmt.Fprintf(b, "\tif n.%s != other.%s {\n\t\treturn false\n\t}\n", name, name)
			}
		}
		fmt.Fprintf(b, "\tif !n.annotations.Equal(&other.annotations) {\n\t\treturn false\n\t}\n")
		fmt.Fprintf(b, "\treturn true\n}\n\n")
	}
}

// primitiveCloneExpr and primitiveEqExpr back the non-node-ref branches of
// Clone/Equal. Their result is discarded when f turns out to be a node
// reference (the caller substitutes a Clone()/Equal()-based expression
// instead), so they can assume the uniform string representation of an
// opaque primitive without consulting the specification.
func primitiveCloneExpr(f schema.Field) string {
	return "func(v string) string { return v }"
}

func primitiveEqExpr(f schema.Field) string {
	return "func(a, b string) bool { return a == b }"
}

// ---- visitor scaffolding (generated half of C6) ----

func (g *generator) genVisitor(b *bytes.Buffer) {
	fmt.Fprintf(b, "// Visitor produces a result of type R for every NodeType in this schema,\n")
	fmt.Fprintf(b, "// one method per kind; unoverridden methods default to the parent's,\n")
	fmt.Fprintf(b, "// terminating in support/visitor.BaseVisitor.VisitNode (which panics).\n")
	fmt.Fprintf(b, "type Visitor[R any] interface {\n\tvisitor.Visitor[R]\n")
	for _, nt := range g.spec.Nodes {
		fmt.Fprintf(b, "\tVisit%s(n %s) R\n", nt.TitleName, nodeParamType(nt))
	}
	fmt.Fprintf(b, "}\n\n")

	fmt.Fprintf(b, "// BaseVisitor implements Visitor[R] with every method delegating to its\n")
	fmt.Fprintf(b, "// parent NodeType's method by default.\n")
	fmt.Fprintf(b, "type BaseVisitor[R any] struct {\n\tvisitor.BaseVisitor[R]\n}\n\n")
	for _, nt := range g.spec.Nodes {
		if nt.Parent == "" {
			fmt.Fprintf(b, "func (b BaseVisitor[R]) Visit%s(n %s) R { return b.VisitNode(n) }\n", nt.TitleName, nodeParamType(nt))
		} else {
			parent, _ := g.spec.Lookup(nt.Parent)
			fmt.Fprintf(b, "func (b BaseVisitor[R]) Visit%s(n %s) R { return b.Visit%s(n) }\n", nt.TitleName, nodeParamType(nt), parent.TitleName)
		}
	}
	fmt.Fprintln(b)

	fmt.Fprintf(b, "// DispatchVisit performs the double dispatch a generated Accept method\n")
	fmt.Fprintf(b, "// would otherwise provide; Go methods cannot introduce their own type\n")
	fmt.Fprintf(b, "// parameters, so dispatch is a free function with an explicit switch.\n")
	fmt.Fprintf(b, "func DispatchVisit[R any](v Visitor[R], n visitor.Node) R {\n\tswitch t := n.(type) {\n")
	for _, nt := range g.spec.Nodes {
		if !nt.Leaf() {
			continue
		}
		fmt.Fprintf(b, "\tcase *%s:\n\t\treturn v.Visit%s(t)\n", nt.TitleName, nt.TitleName)
	}
	fmt.Fprintf(b, "\tdefault:\n\t\treturn v.VisitNode(n)\n\t}\n}\n\n")

	fmt.Fprintf(b, "// RecursiveVisitor walks a tree pre-order, calling OnVisit (if set) for\n")
	fmt.Fprintf(b, "// every node reached through an owning edge.\n")
	fmt.Fprintf(b, "type RecursiveVisitor struct {\n\tBaseVisitor[error]\n\tOnVisit func(visitor.Node) error\n}\n\n")
	fmt.Fprintf(b, "func (r *RecursiveVisitor) Walk(n visitor.Node) error {\n\treturn visitor.Walk(n, func(cur visitor.Node) error {\n\t\tif r.OnVisit == nil {\n\t\t\treturn nil\n\t\t}\n\t\treturn r.OnVisit(cur)\n\t})\n}\n\n")
}

func nodeParamType(nt *schema.NodeType) string {
	if nt.Leaf() {
		return "*" + nt.TitleName
	}
	return nt.TitleName
}

// ---- debug dump ----

func (g *generator) genDump(b *bytes.Buffer) {
	fmt.Fprintf(b, "// Dump renders n as an indented, deterministic debug string.\n")
	fmt.Fprintf(b, "func Dump(n visitor.Node) string {\n\td := visitor.NewDumpWriter()\n\tdumpNode(d, n)\n\treturn d.String()\n}\n\n")
	fmt.Fprintf(b, "func dumpNode(d *visitor.DumpWriter, n visitor.Node) {\n\tswitch t := n.(type) {\n")
	for _, nt := range g.spec.Nodes {
		if !nt.Leaf() {
			continue
		}
		fmt.Fprintf(b, "\tcase *%s:\n", nt.TitleName)
		fmt.Fprintf(b, "\t\td.Line(\"%s(\")\n\t\td.Push()\n", nt.TitleName)
		for _, f := range nt.Fields {
			name := fieldGoName(f)
			switch f.Kind {
			case schema.Exactly:
				if f.IsNodeRef() {
					fmt.Fprintf(b, "\t\tif v := t.%s.Get(); v != nil {\n\t\t\td.Line(\"%s: %%s\", visitor.FormatSingle(t.%s.Get().Kind()))\n\t\t\tdumpNode(d, v)\n\t\t} else {\n\t\t\td.Line(\"%s: %%s\", visitor.MarkerMissing)\n\t\t}\n", name, f.Name, name, f.Name)
				} else {
					fmt.Fprintf(b, "\t\td.Line(\"%s: %%v\", t.%s.Get())\n", f.Name, name)
				}
			case schema.Maybe:
				fmt.Fprintf(b, "\t\tif v, ok := t.%s.Get(); ok {\n\t\t\td.Line(\"%s: %%v\", v)\n\t\t} else {\n\t\t\td.Line(\"%s: %%s\", visitor.MarkerEmpty)\n\t\t}\n", name, f.Name, f.Name)
			case schema.List, schema.NonEmptyList:
				if f.IsNodeRef() {
					fmt.Fprintf(b, "\t\td.Line(%q)\n\t\td.Push()\n\t\tfor _, v := range t.%s.Items() {\n\t\t\tdumpNode(d, v)\n\t\t}\n\t\td.Pop()\n\t\td.Line(\"]\")\n", f.Name+": [", name)
				} else {
					fmt.Fprintf(b, "\t\td.Line(\"%s: %%s\", visitor.FormatList(dumpItems(t.%s.Items())))\n", f.Name, name)
				}
			case schema.Link, schema.OptLink:
				marker := "visitor.MarkerMissing"
				if f.Kind == schema.OptLink {
					marker = "visitor.MarkerEmpty"
				}
				fmt.Fprintf(b, "\t\tif target, ok := t.%s.Get(); ok {\n\t\t\td.Line(\"%s: %%s\", visitor.FormatLink(target.Kind(), 0))\n\t\t} else {\n\t\t\td.Line(\"%s: %%s\", %s)\n\t\t}\n", name, f.Name, f.Name, marker)
			default:
				fmt.Fprintf(b, "\t\td.Line(\"%s: %%v\", t.%s)\n", f.Name, name)
			}
		}
		fmt.Fprintf(b, "\t\td.Pop()\n\t\td.Line(\")\")\n")
	}
	fmt.Fprintf(b, "\t}\n}\n\n")
	fmt.Fprintf(b, "func dumpItems[T interface{ Kind() string }](items []T) []string {\n\tout := make([]string, len(items))\n\tfor i, it := range items {\n\t\tout[i] = fmt.Sprintf(\"%%v\", it)\n\t}\n\treturn out\n}\n\n")
}
