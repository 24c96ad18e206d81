package annotation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"treegen/support/cbor"
)

// sourceLoc is a stand-in for the "source-location" style annotation type
// mentioned in the generator's specification as the debug-dump hook.
type sourceLoc struct {
	Line int
	Col  int
}

func sourceLocCodec() Codec {
	return Codec{
		Serialize: func(v any, h *cbor.MapHandle, key string) error {
			loc := v.(sourceLoc)
			nested, err := h.BeginMap(key)
			if err != nil {
				return err
			}
			if err := nested.PutInt("line", int64(loc.Line)); err != nil {
				return err
			}
			if err := nested.PutInt("col", int64(loc.Col)); err != nil {
				return err
			}
			return nested.Close()
		},
		Deserialize: func(v cbor.Value) (any, error) {
			m, err := v.AsMap()
			if err != nil {
				return nil, err
			}
			line, err := m["line"].AsInt()
			if err != nil {
				return nil, err
			}
			col, err := m["col"].AsInt()
			if err != nil {
				return nil, err
			}
			return sourceLoc{Line: int(line), Col: int(col)}, nil
		},
	}
}

func TestAnnotationRoundTripWithRegistration(t *testing.T) {
	Register[sourceLoc](sourceLocCodec(), "loc")

	var a Map
	Set(&a, sourceLoc{Line: 3, Col: 7})
	require.True(t, Has[sourceLoc](&a))

	w := cbor.NewWriter()
	root := w.Root()
	require.NoError(t, a.Serialize(root))
	require.NoError(t, root.Close())

	r, err := cbor.NewReader(w.Bytes())
	require.NoError(t, err)
	m, err := r.Root().AsMap()
	require.NoError(t, err)

	var b Map
	require.NoError(t, b.Deserialize(m))
	got, err := Get[sourceLoc](&b)
	require.NoError(t, err)
	require.Equal(t, sourceLoc{Line: 3, Col: 7}, got)
}

type unregisteredPayload struct{ X int }

func TestAnnotationWithoutRegistrationIsSilentlyAbsent(t *testing.T) {
	var a Map
	Set(&a, unregisteredPayload{X: 9})

	w := cbor.NewWriter()
	root := w.Root()
	require.NoError(t, a.Serialize(root))
	require.NoError(t, root.Close())

	r, err := cbor.NewReader(w.Bytes())
	require.NoError(t, err)
	m, err := r.Root().AsMap()
	require.NoError(t, err)
	require.Empty(t, m)

	var b Map
	require.NoError(t, b.Deserialize(m))
	require.False(t, Has[unregisteredPayload](&b))
}

func TestMissingAnnotationError(t *testing.T) {
	var a Map
	_, err := Get[sourceLoc](&a)
	require.Error(t, err)
}

func TestEraseAndCopyFrom(t *testing.T) {
	var a, b Map
	Set(&a, sourceLoc{Line: 1, Col: 2})
	CopyFrom[sourceLoc](&b, &a)
	got, err := Get[sourceLoc](&b)
	require.NoError(t, err)
	require.Equal(t, sourceLoc{Line: 1, Col: 2}, got)

	Erase[sourceLoc](&a)
	require.False(t, Has[sourceLoc](&a))
}
