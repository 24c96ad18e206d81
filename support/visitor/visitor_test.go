package visitor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testNode struct {
	kind     string
	children []Node
}

func (n *testNode) Kind() string    { return n.kind }
func (n *testNode) Children() []Node { return n.children }

func TestWalkPreOrder(t *testing.T) {
	leaf1 := &testNode{kind: "Leaf"}
	leaf2 := &testNode{kind: "Leaf"}
	root := &testNode{kind: "Root", children: []Node{leaf1, leaf2}}

	var order []string
	err := Walk(root, func(n Node) error {
		order = append(order, n.Kind())
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Root", "Leaf", "Leaf"}, order)
}

func TestBaseVisitorIsAbstract(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
	}()
	var base BaseVisitor[string]
	base.VisitNode(&testNode{kind: "X"})
}

func TestDumpWriterIndentation(t *testing.T) {
	d := NewDumpWriter()
	d.Line("Root(")
	d.Push()
	d.Line("child: %s", FormatSingle("Leaf()"))
	d.Pop()
	d.Line(")")
	require.Equal(t, "Root(\n  child: <Leaf()>\n)\n", d.String())
}
