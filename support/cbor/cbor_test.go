package cbor

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestScalarRoundTrip(t *testing.T) {
	testcases := []struct {
		name  string
		write func(h *MapHandle) error
		check func(t *testing.T, v Value)
	}{
		{
			name:  "bool true",
			write: func(h *MapHandle) error { return h.PutBool("k", true) },
			check: func(t *testing.T, v Value) {
				b, err := v.AsBool()
				require.NoError(t, err)
				require.True(t, b)
			},
		},
		{
			name:  "negative int",
			write: func(h *MapHandle) error { return h.PutInt("k", -1234567) },
			check: func(t *testing.T, v Value) {
				n, err := v.AsInt()
				require.NoError(t, err)
				require.Equal(t, int64(-1234567), n)
			},
		},
		{
			name:  "max int64",
			write: func(h *MapHandle) error { return h.PutInt("k", math.MaxInt64) },
			check: func(t *testing.T, v Value) {
				n, err := v.AsInt()
				require.NoError(t, err)
				require.Equal(t, int64(math.MaxInt64), n)
			},
		},
		{
			name:  "float",
			write: func(h *MapHandle) error { return h.PutFloat("k", 3.5) },
			check: func(t *testing.T, v Value) {
				f, err := v.AsFloat()
				require.NoError(t, err)
				require.Equal(t, 3.5, f)
			},
		},
		{
			name:  "empty text",
			write: func(h *MapHandle) error { return h.PutText("k", "") },
			check: func(t *testing.T, v Value) {
				s, err := v.AsText()
				require.NoError(t, err)
				require.Equal(t, "", s)
			},
		},
		{
			name:  "bytes",
			write: func(h *MapHandle) error { return h.PutBytes("k", []byte{1, 2, 3}) },
			check: func(t *testing.T, v Value) {
				b, err := v.AsBytes()
				require.NoError(t, err)
				require.Equal(t, []byte{1, 2, 3}, b)
			},
		},
		{
			name:  "null",
			write: func(h *MapHandle) error { return h.PutNull("k") },
			check: func(t *testing.T, v Value) {
				require.True(t, v.IsNull())
			},
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			w := NewWriter()
			root := w.Root()
			require.NoError(t, tc.write(root))
			require.NoError(t, root.Close())

			r, err := NewReader(w.Bytes())
			require.NoError(t, err)
			m, err := r.Root().AsMap()
			require.NoError(t, err)
			tc.check(t, m["k"])
		})
	}
}

func TestNestedArrayAndMap(t *testing.T) {
	w := NewWriter()
	root := w.Root()
	arr, err := root.BeginArray("items")
	require.NoError(t, err)
	require.NoError(t, arr.PutInt(1))
	require.NoError(t, arr.PutInt(2))
	nested, err := arr.BeginMap()
	require.NoError(t, err)
	require.NoError(t, nested.PutText("name", "leaf"))
	require.NoError(t, nested.Close())
	require.NoError(t, arr.Close())
	require.NoError(t, root.Close())

	r, err := NewReader(w.Bytes())
	require.NoError(t, err)
	m, err := r.Root().AsMap()
	require.NoError(t, err)
	items, err := m["items"].AsArray()
	require.NoError(t, err)
	require.Len(t, items, 3)

	n1, err := items[0].AsInt()
	require.NoError(t, err)
	require.Equal(t, int64(1), n1)

	leafMap, err := items[2].AsMap()
	require.NoError(t, err)
	name, err := leafMap["name"].AsText()
	require.NoError(t, err)
	if diff := cmp.Diff("leaf", name); diff != "" {
		require.FailNow(t, "mismatch (-expected +actual)", diff)
	}
}

func TestShadowedHandleRejected(t *testing.T) {
	w := NewWriter()
	root := w.Root()
	child, err := root.BeginMap("nested")
	require.NoError(t, err)

	err = root.PutInt("oops", 1)
	require.Error(t, err)

	require.NoError(t, child.Close())
	require.NoError(t, root.PutInt("ok", 1))
	require.NoError(t, root.Close())
}

func TestDuplicateKeyLastWins(t *testing.T) {
	w := NewWriter()
	root := w.Root()
	require.NoError(t, root.PutInt("k", 1))
	require.NoError(t, root.PutInt("k", 2))
	require.NoError(t, root.Close())

	r, err := NewReader(w.Bytes())
	require.NoError(t, err)
	m, err := r.Root().AsMap()
	require.NoError(t, err)
	n, err := m["k"].AsInt()
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestMalformedInputsRejected(t *testing.T) {
	testcases := []struct {
		name string
		data []byte
	}{
		{"undefined", []byte{0xF7}},
		{"half float", []byte{0xF9, 0x00, 0x00}},
		{"single float", []byte{0xFA, 0x00, 0x00, 0x00, 0x00}},
		{"bare break", []byte{0xFF}},
		{"truncated uint", []byte{0x19, 0x01}},
		{"unexpected eof", []byte{}},
		{"mismatched indefinite string major", []byte{0x7F, 0x41, 0x01, 0xFF}},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewReader(tc.data)
			require.Error(t, err)
		})
	}
}

func TestTrailingBytesRejected(t *testing.T) {
	w := NewWriter()
	root := w.Root()
	require.NoError(t, root.Close())
	data := append(w.Bytes(), 0x00)
	_, err := NewReader(data)
	require.Error(t, err)
}
