// Package annotation implements the process-wide annotation registry and
// the per-node annotation map described by the generator's specification:
// typed side data attached to a node, keyed by type identity, with a
// pluggable (serialize, deserialize) pair per registered type so
// annotations round-trip through the CBOR codec.
package annotation

import (
	"reflect"
	"strings"
	"sync"

	"treegen/errs"
	"treegen/support/cbor"
)

// Codec is the (serialize, deserialize) pair registered for an annotation
// type. Serialize writes v under key into the enclosing node's map handle;
// Deserialize decodes a CBOR value back into a typed payload.
type Codec struct {
	Serialize   func(v any, h *cbor.MapHandle, key string) error
	Deserialize func(v cbor.Value) (any, error)
}

type entry struct {
	typ   reflect.Type
	name  string
	codec Codec
}

var (
	registryMu     sync.RWMutex
	registryByType = map[reflect.Type]entry{}
	registryByName = map[string]entry{}
)

// Register associates T with codec under name. The registered key on the
// wire is name wrapped in braces ("{name}"); if name is empty, a stable
// string derived from T's reflect.Type is used instead. Registration is
// meant to happen at process start-of-day: the registry is append-only and
// safe for concurrent reads once populated, but concurrent Register calls
// racing with reads are not supported.
func Register[T any](codec Codec, name string) {
	var zero T
	typ := reflect.TypeOf(&zero).Elem()
	if name == "" {
		name = typ.String()
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	e := entry{typ: typ, name: name, codec: codec}
	registryByType[typ] = e
	registryByName[name] = e
}

func lookupByType(typ reflect.Type) (entry, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registryByType[typ]
	return e, ok
}

func lookupByName(name string) (entry, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registryByName[name]
	return e, ok
}

// Map is the per-node annotation map: a small collection of typed payloads
// keyed by type identity. The zero Map is ready to use.
type Map struct {
	m map[reflect.Type]any
}

func (a *Map) ensure() {
	if a.m == nil {
		a.m = make(map[reflect.Type]any)
	}
}

// Set attaches v to the node, overwriting any existing annotation of type T.
func Set[T any](a *Map, v T) {
	a.ensure()
	a.m[reflect.TypeOf(&v).Elem()] = v
}

// Get retrieves the annotation of type T, failing with errs.Missing if
// absent.
func Get[T any](a *Map) (T, error) {
	var zero T
	typ := reflect.TypeOf(&zero).Elem()
	if a.m == nil {
		return zero, errs.NewMissing("no annotation of type %s", typ)
	}
	v, ok := a.m[typ]
	if !ok {
		return zero, errs.NewMissing("no annotation of type %s", typ)
	}
	return v.(T), nil
}

// Has reports whether an annotation of type T is present.
func Has[T any](a *Map) bool {
	var zero T
	typ := reflect.TypeOf(&zero).Elem()
	if a.m == nil {
		return false
	}
	_, ok := a.m[typ]
	return ok
}

// Erase removes the annotation of type T, if present.
func Erase[T any](a *Map) {
	if a.m == nil {
		return
	}
	var zero T
	delete(a.m, reflect.TypeOf(&zero).Elem())
}

// CloneRaw returns a shallow copy of a: the annotation map (registered
// types or not) is duplicated, but each payload value is carried over as-is rather than
// deep-copied, since the generator has no type parameter to clone through
// for a registry entry it has never seen.
func (a *Map) CloneRaw() Map {
	if a.m == nil {
		return Map{}
	}
	m := make(map[reflect.Type]any, len(a.m))
	for k, v := range a.m {
		m[k] = v
	}
	return Map{m: m}
}

// Equal reports whether a and b carry the same set of annotation values,
// compared with reflect.DeepEqual since neither side knows the concrete
// annotation types at this call site.
func (a *Map) Equal(b *Map) bool {
	return reflect.DeepEqual(a.m, b.m)
}

// CopyFrom copies the annotation of type T from src to dst, if present on
// src.
func CopyFrom[T any](dst *Map, src *Map) {
	v, err := Get[T](src)
	if err != nil {
		return
	}
	Set(dst, v)
}

// Serialize writes every annotation whose type has a registered codec into
// h under its braced key. Annotations whose type was never registered are
// silently skipped: they still exist at runtime but cannot round-trip.
func (a *Map) Serialize(h *cbor.MapHandle) error {
	for typ, v := range a.m {
		e, ok := lookupByType(typ)
		if !ok {
			continue
		}
		if err := e.codec.Serialize(v, h, "{"+e.name+"}"); err != nil {
			return err
		}
	}
	return nil
}

// Deserialize loads annotations from the decoded node map m. Keys not
// shaped like "{name}" are ignored (they are ordinary fields); braced keys
// whose name has no registered codec are silently dropped.
func (a *Map) Deserialize(m map[string]cbor.Value) error {
	for k, v := range m {
		if len(k) < 2 || k[0] != '{' || k[len(k)-1] != '}' {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(k, "{"), "}")
		e, ok := lookupByName(name)
		if !ok {
			continue
		}
		val, err := e.codec.Deserialize(v)
		if err != nil {
			return err
		}
		a.ensure()
		a.m[e.typ] = val
	}
	return nil
}
