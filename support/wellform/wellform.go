// Package wellform implements the two-pass well-formedness algorithm: a
// reachability pass that walks owning edges and assigns each visited node a
// sequence number (detecting ownership-uniqueness violations along the
// way), followed by a completeness pass that verifies every required edge
// is populated and every link target was reached in the first pass.
package wellform

import (
	"go.uber.org/multierr"

	"treegen/errs"
)

// PointerMap records, for the reachability pass, the sequence number
// assigned to each visited node identity (keyed by the node's own pointer
// value, boxed as any). Sequence numbers are assigned in visitation order
// and are therefore deterministic for a given tree.
type PointerMap struct {
	seq map[any]int
}

// NewPointerMap returns an empty PointerMap ready for a reachability pass.
func NewPointerMap() *PointerMap {
	return &PointerMap{seq: make(map[any]int)}
}

// Visit registers identity as reached, assigning it the next sequence
// number. It reports whether identity had already been visited (a
// duplicate-ownership violation) and, if not, the sequence number it was
// just assigned (undefined when already==true).
func (m *PointerMap) Visit(identity any) (seqNum int, already bool) {
	if n, ok := m.seq[identity]; ok {
		return n, true
	}
	n := len(m.seq)
	m.seq[identity] = n
	return n, false
}

// Contains reports whether identity was reached during the reachability
// pass.
func (m *PointerMap) Contains(identity any) bool {
	_, ok := m.seq[identity]
	return ok
}

// SequenceOf returns the sequence number assigned to identity, if reached.
func (m *PointerMap) SequenceOf(identity any) (int, bool) {
	n, ok := m.seq[identity]
	return n, ok
}

// Len reports how many distinct identities were reached.
func (m *PointerMap) Len() int { return len(m.seq) }

// Node is the contract every generated concrete NodeType implements so the
// generic driver below can run the two-pass algorithm over it.
type Node interface {
	// FindReachable is this node's contribution to the reachability pass:
	// register its own identity (if it has one distinct from a value
	// type) and recurse into every owning-edge child in schema order.
	// Implementations report a duplicate-ownership violation by
	// returning errs.NotWellFormed.
	FindReachable(pm *PointerMap) error

	// CheckComplete is this node's contribution to the completeness
	// pass: verify its own required edges/links against pm and recurse
	// into owning-edge children, accumulating (not short-circuiting on)
	// every violation found via multierr.
	CheckComplete(pm *PointerMap) error
}

// CheckWellFormed runs both passes rooted at root. A reachability-pass
// failure (a duplicate node) is returned as is and stops the check;
// otherwise it returns root's completeness-pass result, in which the
// generated CheckComplete bodies accumulate every violation with
// multierr.Append (nil if none). This is the "check_*" entry point from
// the specification: it propagates errors rather than converting them to
// a boolean.
func CheckWellFormed(root Node) error {
	pm := NewPointerMap()
	if err := root.FindReachable(pm); err != nil {
		return err
	}
	return root.CheckComplete(pm)
}

// IsWellFormed is the boolean convenience wrapper: it is the sole place
// that converts a NotWellFormed failure into a bool.
func IsWellFormed(root Node) bool {
	return CheckWellFormed(root) == nil
}

// Violations returns every individual violation found, rather than a
// single combined error. It is a strict superset of the information
// CheckWellFormed exposes (see SPEC_FULL.md §10).
func Violations(root Node) []error {
	err := CheckWellFormed(root)
	if err == nil {
		return nil
	}
	return multierr.Errors(err)
}

// DuplicateNode builds the NotWellFormed error for a reachability-pass
// uniqueness violation.
func DuplicateNode(kind string) error {
	return errs.NewNotWellFormed("duplicate node: a %s is owned by more than one edge", kind)
}

// EmptyRequiredEdge builds the NotWellFormed error for an unpopulated
// Exactly/Link edge.
func EmptyRequiredEdge(field string) error {
	return errs.NewNotWellFormed("required edge %q is empty", field)
}

// EmptyList builds the NotWellFormed error for an empty NonEmptyList edge.
func EmptyList(field string) error {
	return errs.NewNotWellFormed("list %q must be non-empty", field)
}

// DanglingLink builds the NotWellFormed error for a link whose target was
// not reached by the ownership pass.
func DanglingLink(field string) error {
	return errs.NewNotWellFormed("link %q refers to a node that is not reachable from the root", field)
}

// ErrorMarkerPresent builds the NotWellFormed error for the presence of an
// error-marker NodeType anywhere in the tree.
func ErrorMarkerPresent(kind string) error {
	return errs.NewNotWellFormed("tree contains an error-marker node %q", kind)
}
