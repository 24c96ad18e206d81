// Package edge implements the six edge value types that connect a node to
// its children: Exactly, Maybe, List, NonEmptyList (owning), and Link,
// OptLink (non-owning, referring to a node reachable elsewhere in the same
// tree). Recursive operations (Clone, Equal, FindReachable) take the
// element-level operation as a callback rather than a type constraint: this
// lets a single edge type serve both node-typed and opaque-primitive
// fields, which is exactly the split the specification draws between
// owning edges over NodeTypes and owning edges over external primitives.
package edge

import (
	"fmt"

	"treegen/support/wellform"
)

// resolveIndex turns a possibly-negative index (−1 meaning "last") into a
// 0-based index, or an error if it is out of range for a sequence of
// length n.
func resolveIndex(n, i int) (int, error) {
	orig := i
	if i < 0 {
		i = n + i
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("index %d out of range for length %d", orig, n)
	}
	return i, nil
}

// --- Exactly ---------------------------------------------------------------

// Exactly owns exactly one child once populated. The zero value is
// unpopulated ("empty pre-construction"), per the specification's
// requirement that default construction yield a well-defined but not
// necessarily well-formed node.
type Exactly[T any] struct {
	v   T
	set bool
}

// NewExactly constructs a populated Exactly from an owned value.
func NewExactly[T any](v T) Exactly[T] {
	return Exactly[T]{v: v, set: true}
}

// Get returns the held value (the zero value of T if unpopulated).
func (e Exactly[T]) Get() T { return e.v }

// GetChecked returns the held value and whether it is populated.
func (e Exactly[T]) GetChecked() (T, bool) { return e.v, e.set }

// Populated reports whether the edge has been populated.
func (e Exactly[T]) Populated() bool { return e.set }

// Replace sets the held value, overwriting whatever was there.
func (e *Exactly[T]) Replace(v T) { e.v, e.set = v, true }

// Clone deep-clones the held value with cloneElem (a no-op/identity
// function for primitive T, or the node's own Clone for node-typed T).
func (e Exactly[T]) Clone(cloneElem func(T) T) Exactly[T] {
	if !e.set {
		return Exactly[T]{}
	}
	return Exactly[T]{v: cloneElem(e.v), set: true}
}

// Equal compares two Exactly edges structurally via eq.
func (e Exactly[T]) Equal(other Exactly[T], eq func(a, b T) bool) bool {
	if e.set != other.set {
		return false
	}
	if !e.set {
		return true
	}
	return eq(e.v, other.v)
}

// CheckComplete reports a NotWellFormed violation if the edge is empty.
func (e Exactly[T]) CheckComplete(field string) error {
	if !e.set {
		return wellform.EmptyRequiredEdge(field)
	}
	return nil
}

// FindReachable visits the held value, if any, with visit (which, for
// node-typed T, both registers identity in the PointerMap and recurses).
func (e Exactly[T]) FindReachable(visit func(T) error) error {
	if !e.set {
		return nil
	}
	return visit(e.v)
}

// --- Maybe -------------------------------------------------------------

// Maybe owns zero or one child. It is always well-formed at this edge.
type Maybe[T any] struct {
	v   T
	set bool
}

// NewMaybe constructs a populated Maybe from an owned value.
func NewMaybe[T any](v T) Maybe[T] { return Maybe[T]{v: v, set: true} }

// Get returns the held value and whether it is populated.
func (m Maybe[T]) Get() (T, bool) { return m.v, m.set }

// Set populates the edge.
func (m *Maybe[T]) Set(v T) { m.v, m.set = v, true }

// Clear empties the edge.
func (m *Maybe[T]) Clear() { var zero T; m.v, m.set = zero, false }

func (m Maybe[T]) Clone(cloneElem func(T) T) Maybe[T] {
	if !m.set {
		return Maybe[T]{}
	}
	return Maybe[T]{v: cloneElem(m.v), set: true}
}

func (m Maybe[T]) Equal(other Maybe[T], eq func(a, b T) bool) bool {
	if m.set != other.set {
		return false
	}
	if !m.set {
		return true
	}
	return eq(m.v, other.v)
}

// FindReachable visits the held value, if any.
func (m Maybe[T]) FindReachable(visit func(T) error) error {
	if !m.set {
		return nil
	}
	return visit(m.v)
}

// --- List ----------------------------------------------------------------

// List owns an ordered sequence of children. It is always well-formed at
// this edge.
type List[T any] struct {
	items []T
}

// NewList constructs a List from the given items, in order.
func NewList[T any](items ...T) List[T] {
	l := List[T]{}
	l.items = append(l.items, items...)
	return l
}

// Len reports the number of items.
func (l List[T]) Len() int { return len(l.items) }

// Items returns the items in order. Callers must not retain and mutate the
// returned slice as if it were independent storage.
func (l List[T]) Items() []T { return l.items }

// At returns the item at index i (negative counts from the end, −1 =
// last).
func (l List[T]) At(i int) (T, error) {
	var zero T
	idx, err := resolveIndex(len(l.items), i)
	if err != nil {
		return zero, err
	}
	return l.items[idx], nil
}

// SetAt overwrites the item at index i.
func (l *List[T]) SetAt(i int, v T) error {
	idx, err := resolveIndex(len(l.items), i)
	if err != nil {
		return err
	}
	l.items[idx] = v
	return nil
}

// Push appends v and returns l, so pushes can be chained.
func (l *List[T]) Push(v T) *List[T] {
	l.items = append(l.items, v)
	return l
}

// Insert places v at index i (negative counts from the end), shifting
// subsequent items right. Inserting at i == Len() appends.
func (l *List[T]) Insert(i int, v T) error {
	n := len(l.items)
	idx := i
	if idx < 0 {
		idx = n + idx + 1
	}
	if idx < 0 || idx > n {
		return fmt.Errorf("index %d out of range for insert into length %d", i, n)
	}
	l.items = append(l.items, v)
	copy(l.items[idx+1:], l.items[idx:n])
	l.items[idx] = v
	return nil
}

// RemoveAt removes the item at index i (negative counts from the end).
func (l *List[T]) RemoveAt(i int) error {
	idx, err := resolveIndex(len(l.items), i)
	if err != nil {
		return err
	}
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	return nil
}

func (l List[T]) Clone(cloneElem func(T) T) List[T] {
	out := make([]T, len(l.items))
	for i, v := range l.items {
		out[i] = cloneElem(v)
	}
	return List[T]{items: out}
}

func (l List[T]) Equal(other List[T], eq func(a, b T) bool) bool {
	if len(l.items) != len(other.items) {
		return false
	}
	for i := range l.items {
		if !eq(l.items[i], other.items[i]) {
			return false
		}
	}
	return true
}

// FindReachable visits every item in order.
func (l List[T]) FindReachable(visit func(T) error) error {
	for _, v := range l.items {
		if err := visit(v); err != nil {
			return err
		}
	}
	return nil
}

// --- NonEmptyList ----------------------------------------------------------

// NonEmptyList is identical to List but well-formed iff non-empty.
type NonEmptyList[T any] struct {
	List[T]
}

// NewNonEmptyList constructs a NonEmptyList from the given items.
func NewNonEmptyList[T any](items ...T) NonEmptyList[T] {
	return NonEmptyList[T]{List: NewList(items...)}
}

// CheckComplete reports a NotWellFormed violation if the list is empty.
func (l NonEmptyList[T]) CheckComplete(field string) error {
	if l.Len() == 0 {
		return wellform.EmptyList(field)
	}
	return nil
}

func (l NonEmptyList[T]) Clone(cloneElem func(T) T) NonEmptyList[T] {
	return NonEmptyList[T]{List: l.List.Clone(cloneElem)}
}

func (l NonEmptyList[T]) Equal(other NonEmptyList[T], eq func(a, b T) bool) bool {
	return l.List.Equal(other.List, eq)
}

// --- Link ------------------------------------------------------------------

// Link is a required, non-owning reference to a node that must be
// reachable through owning edges from the root. T is normally a pointer
// type to a generated node struct.
type Link[T comparable] struct {
	target T
	set    bool
}

// NewLink constructs a populated Link.
func NewLink[T comparable](target T) Link[T] { return Link[T]{target: target, set: true} }

// Get returns the target and whether the link is populated.
func (l Link[T]) Get() (T, bool) { return l.target, l.set }

// Set populates the link.
func (l *Link[T]) Set(target T) { l.target, l.set = target, true }

// Identity returns the target boxed as any, for PointerMap lookups, or nil
// if unpopulated.
func (l Link[T]) Identity() any {
	if !l.set {
		return nil
	}
	return l.target
}

// Clone is shallow for links by design: the clone still refers to the
// original tree. Callers cloning a subtree in isolation must fix up links
// themselves.
func (l Link[T]) Clone() Link[T] { return l }

// Equal compares links by target identity, ignoring annotations (links
// carry none) — this is simply pointer/value equality on T.
func (l Link[T]) Equal(other Link[T]) bool {
	if l.set != other.set {
		return false
	}
	return !l.set || l.target == other.target
}

// CheckComplete reports a violation if the link is unpopulated or its
// target was not reached during the reachability pass.
func (l Link[T]) CheckComplete(field string, pm *wellform.PointerMap) error {
	if !l.set {
		return wellform.EmptyRequiredEdge(field)
	}
	if !pm.Contains(l.Identity()) {
		return wellform.DanglingLink(field)
	}
	return nil
}

// --- OptLink -----------------------------------------------------------

// OptLink is an optional non-owning reference with the same reachability
// requirement as Link when populated.
type OptLink[T comparable] struct {
	Link[T]
}

// NewOptLink constructs a populated OptLink.
func NewOptLink[T comparable](target T) OptLink[T] {
	return OptLink[T]{Link: NewLink(target)}
}

// Clear empties the link.
func (l *OptLink[T]) Clear() {
	var zero T
	l.target, l.set = zero, false
}

// CheckComplete only validates reachability when the link is populated;
// an empty OptLink is well-formed.
func (l OptLink[T]) CheckComplete(field string, pm *wellform.PointerMap) error {
	if !l.set {
		return nil
	}
	if !pm.Contains(l.Identity()) {
		return wellform.DanglingLink(field)
	}
	return nil
}

func (l OptLink[T]) Clone() OptLink[T] { return OptLink[T]{Link: l.Link.Clone()} }

func (l OptLink[T]) Equal(other OptLink[T]) bool { return l.Link.Equal(other.Link) }
