package edge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"treegen/support/wellform"
)

func identityClone[T any](v T) T { return v }

func TestExactly(t *testing.T) {
	var e Exactly[int]
	require.False(t, e.Populated())
	require.Error(t, e.CheckComplete("field"))

	e.Replace(42)
	require.True(t, e.Populated())
	require.Equal(t, 42, e.Get())
	require.NoError(t, e.CheckComplete("field"))

	clone := e.Clone(identityClone[int])
	require.True(t, e.Equal(clone, func(a, b int) bool { return a == b }))
}

func TestMaybe(t *testing.T) {
	var m Maybe[string]
	_, ok := m.Get()
	require.False(t, ok)

	m.Set("x")
	v, ok := m.Get()
	require.True(t, ok)
	require.Equal(t, "x", v)

	m.Clear()
	_, ok = m.Get()
	require.False(t, ok)
}

func TestListNegativeIndexing(t *testing.T) {
	l := NewList(1, 2, 3)
	v, err := l.At(-1)
	require.NoError(t, err)
	require.Equal(t, 3, v)

	require.NoError(t, l.SetAt(-1, 30))
	v, _ = l.At(2)
	require.Equal(t, 30, v)

	require.NoError(t, l.Insert(-1, 99))
	require.Equal(t, []int{1, 2, 30, 99}, l.Items())

	require.NoError(t, l.RemoveAt(0))
	require.Equal(t, []int{2, 30, 99}, l.Items())

	_, err = l.At(100)
	require.Error(t, err)
}

func TestListChaining(t *testing.T) {
	var l List[int]
	l.Push(1).Push(2).Push(3)
	require.Equal(t, 3, l.Len())
}

func TestNonEmptyListCompleteness(t *testing.T) {
	var l NonEmptyList[int]
	require.Error(t, l.CheckComplete("items"))
	l.Push(1)
	require.NoError(t, l.CheckComplete("items"))
}

type fakeNode struct{ id int }

func TestLinkIdentityAndReachability(t *testing.T) {
	target := &fakeNode{id: 1}
	other := &fakeNode{id: 2}

	var l Link[*fakeNode]
	require.Error(t, l.CheckComplete("target", wellform.NewPointerMap()))

	l.Set(target)
	pm := wellform.NewPointerMap()
	require.Error(t, l.CheckComplete("target", pm)) // target not reachable yet

	pm.Visit(target)
	require.NoError(t, l.CheckComplete("target", pm))

	var l2 Link[*fakeNode]
	l2.Set(other)
	require.False(t, l.Equal(l2))
}

func TestOptLinkEmptyIsWellFormed(t *testing.T) {
	var ol OptLink[*fakeNode]
	require.NoError(t, ol.CheckComplete("target", wellform.NewPointerMap()))

	ol.Set(&fakeNode{id: 1})
	pm := wellform.NewPointerMap()
	require.Error(t, ol.CheckComplete("target", pm))
	ol.Clear()
	require.NoError(t, ol.CheckComplete("target", pm))
}

func TestCloneOfListOfNodesIsDeep(t *testing.T) {
	type node struct{ v int }
	cloneNode := func(n *node) *node {
		if n == nil {
			return nil
		}
		cp := *n
		return &cp
	}
	l := NewList(&node{v: 1}, &node{v: 2})
	clone := l.Clone(cloneNode)
	require.NotSame(t, l.Items()[0], clone.Items()[0])
	require.Equal(t, *l.Items()[0], *clone.Items()[0])
}
