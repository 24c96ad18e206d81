package emit

import (
	"bytes"
	"fmt"

	"treegen/schema"
)

// genSerialize and genDeserialize emit the CBOR encode/decode pair for
// emit.Full. Both sides number nodes in the same pre-order (the order
// support/wellform.PointerMap already assigns during the reachability
// pass), so Link/OptLink fields serialize as a {"@l": <int>}
// back-reference into that numbering rather than duplicating subtrees
// or requiring a separate identity wire format. Every node map also
// carries its own "@t" kind name and "@i" sequence number, per the
// wire format's external contract.
func (g *generator) genSerialize(b *bytes.Buffer) {
	root := g.spec.Nodes[0]

	fmt.Fprintf(b, "// Serialize encodes root (and everything it owns) as CBOR. Every node\n")
	fmt.Fprintf(b, "// map carries \"@t\" (its leaf kind name) and \"@i\" (its reachability\n")
	fmt.Fprintf(b, "// sequence number); Link and OptLink fields are written as a nested\n")
	fmt.Fprintf(b, "// {\"@l\": <int>} map holding the referenced node's sequence number.\n")
	fmt.Fprintf(b, "func Serialize(root *%s) ([]byte, error) {\n", root.TitleName)
	fmt.Fprintf(b, "\tpm := wellform.NewPointerMap()\n\tif err := root.FindReachable(pm); err != nil {\n\t\treturn nil, err\n\t}\n")
	fmt.Fprintf(b, "\tw := cbor.NewWriter()\n\th := w.Root()\n\tif err := serializeNode(h, root, pm); err != nil {\n\t\treturn nil, err\n\t}\n")
	fmt.Fprintf(b, "\tif err := h.Close(); err != nil {\n\t\treturn nil, err\n\t}\n\treturn w.Bytes(), nil\n}\n\n")

	fmt.Fprintf(b, "func serializeNode(h *cbor.MapHandle, n visitor.Node, pm *wellform.PointerMap) error {\n")
	fmt.Fprintf(b, "\tif err := h.PutText(\"@t\", n.Kind()); err != nil {\n\t\treturn err\n\t}\n")
	fmt.Fprintf(b, "\tif seq, ok := pm.SequenceOf(n); ok {\n\t\tif err := h.PutInt(\"@i\", int64(seq)); err != nil {\n\t\t\treturn err\n\t\t}\n\t}\n")
	fmt.Fprintf(b, "\tswitch t := n.(type) {\n")
	for _, nt := range g.spec.Nodes {
		if !nt.Leaf() {
			continue
		}
		fmt.Fprintf(b, "\tcase *%s:\n", nt.TitleName)
		for _, f := range nt.Fields {
			g.genSerializeField(b, f)
		}
		fmt.Fprintf(b, "\t\treturn t.annotations.Serialize(h)\n")
	}
	fmt.Fprintf(b, "\t}\n\treturn fmt.Errorf(\"serialize: unhandled node kind %%s\", n.Kind())\n}\n\n")
}

func (g *generator) genSerializeField(b *bytes.Buffer, f schema.Field) {
	name := fieldGoName(f)
	switch {
	case f.Kind == schema.EdgeNone:
		fmt.Fprintf(b, "\t\tif err := h.PutText(%q, t.%s); err != nil {\n\t\t\treturn err\n\t\t}\n", f.Name, name)
	case f.Kind == schema.Exactly && !f.IsNodeRef():
		fmt.Fprintf(b, "\t\tif err := h.PutText(%q, t.%s.Get()); err != nil {\n\t\t\treturn err\n\t\t}\n", f.Name, name)
	case f.Kind == schema.Exactly && f.IsNodeRef():
		fmt.Fprintf(b, "\t\t{\n\t\t\tc, err := h.BeginMap(%q)\n\t\t\tif err != nil {\n\t\t\t\treturn err\n\t\t\t}\n\t\t\tif err := serializeNode(c, t.%s.Get(), pm); err != nil {\n\t\t\t\treturn err\n\t\t\t}\n\t\t\tif err := c.Close(); err != nil {\n\t\t\t\treturn err\n\t\t\t}\n\t\t}\n", f.Name, name)
	case f.Kind == schema.Maybe && !f.IsNodeRef():
		fmt.Fprintf(b, "\t\tif v, ok := t.%s.Get(); ok {\n\t\t\tif err := h.PutText(%q, v); err != nil {\n\t\t\t\treturn err\n\t\t\t}\n\t\t}\n", name, f.Name)
	case f.Kind == schema.Maybe && f.IsNodeRef():
		fmt.Fprintf(b, "\t\tif v, ok := t.%s.Get(); ok {\n\t\t\tc, err := h.BeginMap(%q)\n\t\t\tif err != nil {\n\t\t\t\treturn err\n\t\t\t}\n\t\t\tif err := serializeNode(c, v, pm); err != nil {\n\t\t\t\treturn err\n\t\t\t}\n\t\t\tif err := c.Close(); err != nil {\n\t\t\t\treturn err\n\t\t\t}\n\t\t}\n", name, f.Name)
	case (f.Kind == schema.List || f.Kind == schema.NonEmptyList) && !f.IsNodeRef():
		fmt.Fprintf(b, "\t\t{\n\t\t\ta, err := h.BeginArray(%q)\n\t\t\tif err != nil {\n\t\t\t\treturn err\n\t\t\t}\n\t\t\tfor _, v := range t.%s.Items() {\n\t\t\t\tif err := a.PutText(v); err != nil {\n\t\t\t\t\treturn err\n\t\t\t\t}\n\t\t\t}\n\t\t\tif err := a.Close(); err != nil {\n\t\t\t\treturn err\n\t\t\t}\n\t\t}\n", f.Name, name)
	case (f.Kind == schema.List || f.Kind == schema.NonEmptyList) && f.IsNodeRef():
		fmt.Fprintf(b, "\t\t{\n\t\t\ta, err := h.BeginArray(%q)\n\t\t\tif err != nil {\n\t\t\t\treturn err\n\t\t\t}\n\t\t\tfor _, v := range t.%s.Items() {\n\t\t\t\tc, err := a.BeginMap()\n\t\t\t\tif err != nil {\n\t\t\t\t\treturn err\n\t\t\t\t}\n\t\t\t\tif err := serializeNode(c, v, pm); err != nil {\n\t\t\t\t\treturn err\n\t\t\t\t}\n\t\t\t\tif err := c.Close(); err != nil {\n\t\t\t\t\treturn err\n\t\t\t\t}\n\t\t\t}\n\t\t\tif err := a.Close(); err != nil {\n\t\t\t\treturn err\n\t\t\t}\n\t\t}\n", f.Name, name)
	case f.Kind == schema.Link:
		fmt.Fprintf(b, "\t\t{\n\t\t\ttarget, _ := t.%s.Get()\n\t\t\tseq, _ := pm.SequenceOf(target)\n\t\t\tc, err := h.BeginMap(%q)\n\t\t\tif err != nil {\n\t\t\t\treturn err\n\t\t\t}\n\t\t\tif err := c.PutInt(\"@l\", int64(seq)); err != nil {\n\t\t\t\treturn err\n\t\t\t}\n\t\t\tif err := c.Close(); err != nil {\n\t\t\t\treturn err\n\t\t\t}\n\t\t}\n", name, f.Name)
	case f.Kind == schema.OptLink:
		fmt.Fprintf(b, "\t\tif target, ok := t.%s.Get(); ok {\n\t\t\tseq, _ := pm.SequenceOf(target)\n\t\t\tc, err := h.BeginMap(%q)\n\t\t\tif err != nil {\n\t\t\t\treturn err\n\t\t\t}\n\t\t\tif err := c.PutInt(\"@l\", int64(seq)); err != nil {\n\t\t\t\treturn err\n\t\t\t}\n\t\t\tif err := c.Close(); err != nil {\n\t\t\t\treturn err\n\t\t\t}\n\t\t}\n", name, f.Name)
	}
}

// genDeserialize rebuilds the tree from CBOR. Each node is appended to
// byID as soon as it is constructed, before its owning fields are
// decoded (which may recurse into children) — the same pre-order
// serializeNode assigns sequence numbers in via wellform.PointerMap.
// Link targets (decoded from their {"@l": <int>} maps) are resolved in a
// second pass once every node has been constructed.
func (g *generator) genDeserialize(b *bytes.Buffer) {
	root := g.spec.Nodes[0]

	fmt.Fprintf(b, "type pendingLink struct {\n\tset func(visitor.Node)\n\tseq int\n}\n\n")
	fmt.Fprintf(b, "// Deserialize decodes a tree previously written by Serialize.\n")
	fmt.Fprintf(b, "func Deserialize(data []byte) (*%s, error) {\n", root.TitleName)
	fmt.Fprintf(b, "\tr, err := cbor.NewReader(data)\n\tif err != nil {\n\t\treturn nil, err\n\t}\n")
	fmt.Fprintf(b, "\tvar byID []visitor.Node\n\tvar pending []pendingLink\n")
	fmt.Fprintf(b, "\troot, err := deserializeNode(r.Root(), &byID, &pending)\n\tif err != nil {\n\t\treturn nil, err\n\t}\n")
	fmt.Fprintf(b, "\tfor _, p := range pending {\n\t\tif p.seq < 0 || p.seq >= len(byID) {\n\t\t\treturn nil, fmt.Errorf(\"deserialize: link target id %%d out of range\", p.seq)\n\t\t}\n\t\tp.set(byID[p.seq])\n\t}\n")
	fmt.Fprintf(b, "\ttyped, ok := root.(*%s)\n\tif !ok {\n\t\treturn nil, fmt.Errorf(\"deserialize: root kind %%s is not %s\", root.Kind())\n\t}\n\treturn typed, nil\n}\n\n", root.TitleName, root.TitleName)

	fmt.Fprintf(b, "func deserializeNode(v cbor.Value, byID *[]visitor.Node, pending *[]pendingLink) (visitor.Node, error) {\n")
	fmt.Fprintf(b, "\tm, err := v.AsMap()\n\tif err != nil {\n\t\treturn nil, err\n\t}\n")
	fmt.Fprintf(b, "\tkindVal, ok := m[\"@t\"]\n\tif !ok {\n\t\treturn nil, fmt.Errorf(\"deserialize: node map missing '@t'\")\n\t}\n\tkind, err := kindVal.AsText()\n\tif err != nil {\n\t\treturn nil, err\n\t}\n")
	fmt.Fprintf(b, "\tvar n visitor.Node\n\tvar ann *annotation.Map\n\tswitch kind {\n")
	for _, nt := range g.spec.Nodes {
		if !nt.Leaf() {
			continue
		}
		fmt.Fprintf(b, "\tcase %q:\n\t\tt := New%s()\n\t\t*byID = append(*byID, t)\n", nt.TitleName, nt.TitleName)
		for _, f := range nt.Fields {
			g.genDeserializeField(b, f)
		}
		fmt.Fprintf(b, "\t\tn, ann = t, &t.annotations\n")
	}
	fmt.Fprintf(b, "\tdefault:\n\t\treturn nil, fmt.Errorf(\"deserialize: unknown node kind %%q\", kind)\n\t}\n")
	fmt.Fprintf(b, "\tif err := ann.Deserialize(m); err != nil {\n\t\treturn nil, err\n\t}\n\treturn n, nil\n}\n\n")
}

func (g *generator) genDeserializeField(b *bytes.Buffer, f schema.Field) {
	name := fieldGoName(f)
	switch {
	case f.Kind == schema.EdgeNone:
		fmt.Fprintf(b, "\t\tif fv, ok := m[%q]; ok {\n\t\t\ts, err := fv.AsText()\n\t\t\tif err != nil {\n\t\t\t\treturn nil, err\n\t\t\t}\n\t\t\tt.%s = s\n\t\t}\n", f.Name, name)
	case f.Kind == schema.Exactly && !f.IsNodeRef():
		fmt.Fprintf(b, "\t\tif fv, ok := m[%q]; ok {\n\t\t\ts, err := fv.AsText()\n\t\t\tif err != nil {\n\t\t\t\treturn nil, err\n\t\t\t}\n\t\t\tt.%s.Replace(s)\n\t\t}\n", f.Name, name)
	case f.Kind == schema.Exactly && f.IsNodeRef():
		elem := g.elementGoType(f)
		fmt.Fprintf(b, "\t\tif fv, ok := m[%q]; ok {\n\t\t\tchild, err := deserializeNode(fv, byID, pending)\n\t\t\tif err != nil {\n\t\t\t\treturn nil, err\n\t\t\t}\n\t\t\tt.%s.Replace(child.(%s))\n\t\t}\n", f.Name, name, elem)
	case f.Kind == schema.Maybe && !f.IsNodeRef():
		fmt.Fprintf(b, "\t\tif fv, ok := m[%q]; ok {\n\t\t\ts, err := fv.AsText()\n\t\t\tif err != nil {\n\t\t\t\treturn nil, err\n\t\t\t}\n\t\t\tt.%s.Set(s)\n\t\t}\n", f.Name, name)
	case f.Kind == schema.Maybe && f.IsNodeRef():
		elem := g.elementGoType(f)
		fmt.Fprintf(b, "\t\tif fv, ok := m[%q]; ok {\n\t\t\tchild, err := deserializeNode(fv, byID, pending)\n\t\t\tif err != nil {\n\t\t\t\treturn nil, err\n\t\t\t}\n\t\t\tt.%s.Set(child.(%s))\n\t\t}\n", f.Name, name, elem)
	case (f.Kind == schema.List || f.Kind == schema.NonEmptyList) && !f.IsNodeRef():
		fmt.Fprintf(b, "\t\tif fv, ok := m[%q]; ok {\n\t\t\titems, err := fv.AsArray()\n\t\t\tif err != nil {\n\t\t\t\treturn nil, err\n\t\t\t}\n\t\t\tfor _, it := range items {\n\t\t\t\ts, err := it.AsText()\n\t\t\t\tif err != nil {\n\t\t\t\t\treturn nil, err\n\t\t\t\t}\n\t\t\t\tt.%s.Push(s)\n\t\t\t}\n\t\t}\n", f.Name, name)
	case (f.Kind == schema.List || f.Kind == schema.NonEmptyList) && f.IsNodeRef():
		elem := g.elementGoType(f)
		fmt.Fprintf(b, "\t\tif fv, ok := m[%q]; ok {\n\t\t\titems, err := fv.AsArray()\n\t\t\tif err != nil {\n\t\t\t\treturn nil, err\n\t\t\t}\n\t\t\tfor _, it := range items {\n\t\t\t\tchild, err := deserializeNode(it, byID, pending)\n\t\t\t\tif err != nil {\n\t\t\t\t\treturn nil, err\n\t\t\t\t}\n\t\t\t\tt.%s.Push(child.(%s))\n\t\t\t}\n\t\t}\n", f.Name, name, elem)
	case f.Kind == schema.Link:
		elem := g.elementGoType(f)
		fmt.Fprintf(b, "\t\tif fv, ok := m[%q]; ok {\n\t\t\tlm, err := fv.AsMap()\n\t\t\tif err != nil {\n\t\t\t\treturn nil, err\n\t\t\t}\n\t\t\tseq, err := lm[\"@l\"].AsInt()\n\t\t\tif err != nil {\n\t\t\t\treturn nil, err\n\t\t\t}\n\t\t\tfield := &t.%s\n\t\t\t*pending = append(*pending, pendingLink{seq: int(seq), set: func(v visitor.Node) { field.Set(v.(%s)) }})\n\t\t}\n", f.Name, name, elem)
	case f.Kind == schema.OptLink:
		elem := g.elementGoType(f)
		fmt.Fprintf(b, "\t\tif fv, ok := m[%q]; ok {\n\t\t\tlm, err := fv.AsMap()\n\t\t\tif err != nil {\n\t\t\t\treturn nil, err\n\t\t\t}\n\t\t\tseq, err := lm[\"@l\"].AsInt()\n\t\t\tif err != nil {\n\t\t\t\treturn nil, err\n\t\t\t}\n\t\t\tfield := &t.%s\n\t\t\t*pending = append(*pending, pendingLink{seq: int(seq), set: func(v visitor.Node) { field.Set(v.(%s)) }})\n\t\t}\n", f.Name, name, elem)
	}
}
