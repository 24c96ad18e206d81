// Package cbor implements a streaming writer and a validating reader over
// the subset of RFC 7049 this module relies on: integers, floats,
// byte/UTF-8 strings, arrays, maps, and their indefinite-length variants.
// Semantic tags are skipped transparently. It is not a general-purpose CBOR
// library; it exists to give the generated (de)serialize methods (and the
// annotation registry) a single, self-describing binary format.
package cbor

import (
	"fmt"
	"math"

	"treegen/errs"
)

// Kind identifies the major type of a decoded Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindBytes
	KindText
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBytes:
		return "bytes"
	case KindText:
		return "text"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "invalid"
	}
}

// mapEntry preserves map keys in the order the writer emitted them, so
// "last wins" duplicate resolution (required by the format) is applied
// deterministically against the original encoding order.
type mapEntry struct {
	key string
	val Value
}

// Value is a decoded CBOR value. The zero Value is KindInvalid.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	bs   []byte
	s    string
	arr  []Value
	mp   []mapEntry
}

// Kind reports the major type of v.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool  { return v.kind == KindNull }
func (v Value) IsBool() bool  { return v.kind == KindBool }
func (v Value) IsInt() bool   { return v.kind == KindInt }
func (v Value) IsFloat() bool { return v.kind == KindFloat }
func (v Value) IsBytes() bool { return v.kind == KindBytes }
func (v Value) IsText() bool  { return v.kind == KindText }
func (v Value) IsArray() bool { return v.kind == KindArray }
func (v Value) IsMap() bool   { return v.kind == KindMap }

func kindMismatch(want Kind, got Kind) error {
	return errs.NewCodecError("expected %s, got %s", want, got)
}

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, kindMismatch(KindBool, v.kind)
	}
	return v.b, nil
}

func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, kindMismatch(KindInt, v.kind)
	}
	return v.i, nil
}

func (v Value) AsFloat() (float64, error) {
	if v.kind != KindFloat {
		return 0, kindMismatch(KindFloat, v.kind)
	}
	return v.f, nil
}

func (v Value) AsBytes() ([]byte, error) {
	if v.kind != KindBytes {
		return nil, kindMismatch(KindBytes, v.kind)
	}
	return v.bs, nil
}

func (v Value) AsText() (string, error) {
	if v.kind != KindText {
		return "", kindMismatch(KindText, v.kind)
	}
	return v.s, nil
}

// AsArray returns an indexable sequence of the array's elements.
func (v Value) AsArray() ([]Value, error) {
	if v.kind != KindArray {
		return nil, kindMismatch(KindArray, v.kind)
	}
	return v.arr, nil
}

// AsMap returns a mapping from UTF-8 string keys to values. Duplicate keys
// resolve last-wins; callers should not rely on which occurrence is kept
// when writing payloads with duplicate keys (the writer never produces
// them itself).
func (v Value) AsMap() (map[string]Value, error) {
	if v.kind != KindMap {
		return nil, kindMismatch(KindMap, v.kind)
	}
	m := make(map[string]Value, len(v.mp))
	for _, e := range v.mp {
		m[e.key] = e.val
	}
	return m, nil
}

// Reader decodes a single top-level CBOR value from a borrowed byte slice.
// Construction performs a full structural walk so that later access never
// fails due to truncation; it only fails for genuinely unsupported or
// malformed encodings.
type Reader struct {
	root Value
}

// NewReader decodes data as a single top-level CBOR value.
func NewReader(data []byte) (*Reader, error) {
	v, rest, err := decodeValue(data, 0)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errs.NewCodecErrorAt(len(data)-len(rest), "trailing %d byte(s) after top-level value", len(rest))
	}
	return &Reader{root: v}, nil
}

// Root returns the decoded top-level value.
func (r *Reader) Root() Value { return r.root }

const (
	majorUnsigned = 0
	majorNegative = 1
	majorBytes    = 2
	majorText     = 3
	majorArray    = 4
	majorMap      = 5
	majorTag      = 6
	majorSimple   = 7
)

// decodeValue decodes one CBOR value (skipping any number of leading
// semantic tags) starting at data[0], returning the value and the
// remaining, undecoded bytes. offset is the absolute position of data[0]
// in the original buffer, used only for error messages.
func decodeValue(data []byte, offset int) (Value, []byte, error) {
	for {
		if len(data) == 0 {
			return Value{}, nil, errs.NewCodecErrorAt(offset, "unexpected end of input")
		}
		major := data[0] >> 5
		if major != majorTag {
			break
		}
		_, rest, err := readUint(data, offset)
		if err != nil {
			return Value{}, nil, err
		}
		consumed := len(data) - len(rest)
		offset += consumed
		data = rest
	}

	major := data[0] >> 5
	switch major {
	case majorUnsigned:
		n, rest, err := readUint(data, offset)
		if err != nil {
			return Value{}, nil, err
		}
		if n > math.MaxInt64 {
			return Value{}, nil, errs.NewCodecErrorAt(offset, "unsigned integer %d out of signed-64 range", n)
		}
		return Value{kind: KindInt, i: int64(n)}, rest, nil

	case majorNegative:
		n, rest, err := readUint(data, offset)
		if err != nil {
			return Value{}, nil, err
		}
		// CBOR negative integers encode -1-n; n itself can be up to
		// 2^64-1, so -1-n can underflow signed 64-bit range.
		if n > math.MaxInt64 {
			return Value{}, nil, errs.NewCodecErrorAt(offset, "negative integer -1-%d out of signed-64 range", n)
		}
		return Value{kind: KindInt, i: -1 - int64(n)}, rest, nil

	case majorBytes:
		bs, rest, err := readByteOrTextChunks(data, offset, false)
		if err != nil {
			return Value{}, nil, err
		}
		return Value{kind: KindBytes, bs: bs.([]byte)}, rest, nil

	case majorText:
		s, rest, err := readByteOrTextChunks(data, offset, true)
		if err != nil {
			return Value{}, nil, err
		}
		return Value{kind: KindText, s: s.(string)}, rest, nil

	case majorArray:
		return decodeArray(data, offset)

	case majorMap:
		return decodeMap(data, offset)

	case majorSimple:
		return decodeSimple(data, offset)
	}

	return Value{}, nil, errs.NewCodecErrorAt(offset, "unknown major type %d", major)
}

// readUint reads the (major-type-agnostic) argument of the initial byte:
// either the 5 low bits directly (values 0-23), or a following 1/2/4/8-byte
// big-endian unsigned integer (additional info 24/25/26/27). It rejects
// additional info values reserved or unassigned by RFC 7049 (28-30) and
// indefinite length (31) is handled by callers that allow it.
func readUint(data []byte, offset int) (uint64, []byte, error) {
	if len(data) == 0 {
		return 0, nil, errs.NewCodecErrorAt(offset, "unexpected end of input reading argument")
	}
	info := data[0] & 0x1f
	data = data[1:]
	switch {
	case info < 24:
		return uint64(info), data, nil
	case info == 24:
		if len(data) < 1 {
			return 0, nil, errs.NewCodecErrorAt(offset, "truncated 1-byte argument")
		}
		return uint64(data[0]), data[1:], nil
	case info == 25:
		if len(data) < 2 {
			return 0, nil, errs.NewCodecErrorAt(offset, "truncated 2-byte argument")
		}
		return uint64(data[0])<<8 | uint64(data[1]), data[2:], nil
	case info == 26:
		if len(data) < 4 {
			return 0, nil, errs.NewCodecErrorAt(offset, "truncated 4-byte argument")
		}
		n := uint64(0)
		for i := 0; i < 4; i++ {
			n = n<<8 | uint64(data[i])
		}
		return n, data[4:], nil
	case info == 27:
		if len(data) < 8 {
			return 0, nil, errs.NewCodecErrorAt(offset, "truncated 8-byte argument")
		}
		n := uint64(0)
		for i := 0; i < 8; i++ {
			n = n<<8 | uint64(data[i])
		}
		return n, data[8:], nil
	default:
		return 0, nil, errs.NewCodecErrorAt(offset, "unsupported additional info %d", info)
	}
}

// readByteOrTextChunks reads a byte or UTF-8 string, definite or
// indefinite-length. wantText selects the returned concrete type: []byte
// when false, string when true. For indefinite-length strings every chunk
// must itself be a definite-length string of the same major type;
// mismatched inner major types are rejected.
func readByteOrTextChunks(data []byte, offset int, wantText bool) (any, []byte, error) {
	major := data[0] >> 5
	info := data[0] & 0x1f

	if info == 31 {
		// indefinite length: a stream of definite-length chunks
		// terminated by a break (0xFF).
		rest := data[1:]
		chunkOffset := offset + 1
		var buf []byte
		for {
			if len(rest) == 0 {
				return nil, nil, errs.NewCodecErrorAt(chunkOffset, "unexpected end of input in indefinite-length string")
			}
			if rest[0] == 0xFF {
				rest = rest[1:]
				break
			}
			chunkMajor := rest[0] >> 5
			if chunkMajor != major {
				return nil, nil, errs.NewCodecErrorAt(chunkOffset, "malformed indefinite-length string: chunk major type %d does not match %d", chunkMajor, major)
			}
			chunkInfo := rest[0] & 0x1f
			if chunkInfo == 31 {
				return nil, nil, errs.NewCodecErrorAt(chunkOffset, "nested indefinite-length chunk is not allowed")
			}
			n, after, err := readUint(rest, chunkOffset)
			if err != nil {
				return nil, nil, err
			}
			if uint64(len(after)) < n {
				return nil, nil, errs.NewCodecErrorAt(chunkOffset, "truncated string chunk")
			}
			buf = append(buf, after[:n]...)
			consumed := len(rest) - len(after) + int(n)
			chunkOffset += consumed
			rest = after[n:]
		}
		if wantText {
			return string(buf), rest, nil
		}
		return buf, rest, nil
	}

	n, rest, err := readUint(data, offset)
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(rest)) < n {
		return nil, nil, errs.NewCodecErrorAt(offset, "truncated string of declared length %d", n)
	}
	raw := rest[:n]
	rest = rest[n:]
	if wantText {
		return string(raw), rest, nil
	}
	out := make([]byte, n)
	copy(out, raw)
	return out, rest, nil
}

func decodeArray(data []byte, offset int) (Value, []byte, error) {
	info := data[0] & 0x1f
	if info == 31 {
		rest := data[1:]
		pos := offset + 1
		var elems []Value
		for {
			if len(rest) == 0 {
				return Value{}, nil, errs.NewCodecErrorAt(pos, "unexpected end of input in indefinite-length array")
			}
			if rest[0] == 0xFF {
				rest = rest[1:]
				break
			}
			v, after, err := decodeValue(rest, pos)
			if err != nil {
				return Value{}, nil, err
			}
			pos += len(rest) - len(after)
			elems = append(elems, v)
			rest = after
		}
		return Value{kind: KindArray, arr: elems}, rest, nil
	}

	n, rest, err := readUint(data, offset)
	if err != nil {
		return Value{}, nil, err
	}
	pos := offset + (len(data) - len(rest))
	elems := make([]Value, 0, n)
	for i := uint64(0); i < n; i++ {
		v, after, err := decodeValue(rest, pos)
		if err != nil {
			return Value{}, nil, err
		}
		pos += len(rest) - len(after)
		elems = append(elems, v)
		rest = after
	}
	return Value{kind: KindArray, arr: elems}, rest, nil
}

func decodeMap(data []byte, offset int) (Value, []byte, error) {
	info := data[0] & 0x1f
	readPair := func(rest []byte, pos int) (mapEntry, []byte, int, error) {
		kv, after, err := decodeValue(rest, pos)
		if err != nil {
			return mapEntry{}, nil, 0, err
		}
		if kv.kind != KindText {
			return mapEntry{}, nil, 0, errs.NewCodecErrorAt(pos, "map key must be a UTF-8 string, got %s", kv.kind)
		}
		pos += len(rest) - len(after)
		vv, after2, err := decodeValue(after, pos)
		if err != nil {
			return mapEntry{}, nil, 0, err
		}
		pos += len(after) - len(after2)
		return mapEntry{key: kv.s, val: vv}, after2, pos, nil
	}

	if info == 31 {
		rest := data[1:]
		pos := offset + 1
		var entries []mapEntry
		for {
			if len(rest) == 0 {
				return Value{}, nil, errs.NewCodecErrorAt(pos, "unexpected end of input in indefinite-length map")
			}
			if rest[0] == 0xFF {
				rest = rest[1:]
				break
			}
			e, after, newPos, err := readPair(rest, pos)
			if err != nil {
				return Value{}, nil, err
			}
			entries = append(entries, e)
			rest, pos = after, newPos
		}
		return Value{kind: KindMap, mp: dedupLastWins(entries)}, rest, nil
	}

	n, rest, err := readUint(data, offset)
	if err != nil {
		return Value{}, nil, err
	}
	pos := offset + (len(data) - len(rest))
	entries := make([]mapEntry, 0, n)
	for i := uint64(0); i < n; i++ {
		e, after, newPos, err := readPair(rest, pos)
		if err != nil {
			return Value{}, nil, err
		}
		entries = append(entries, e)
		rest, pos = after, newPos
	}
	return Value{kind: KindMap, mp: dedupLastWins(entries)}, rest, nil
}

// dedupLastWins keeps only the last occurrence of each key, preserving the
// position of that last occurrence.
func dedupLastWins(entries []mapEntry) []mapEntry {
	lastIdx := make(map[string]int, len(entries))
	for i, e := range entries {
		lastIdx[e.key] = i
	}
	out := make([]mapEntry, 0, len(lastIdx))
	seen := make(map[string]bool, len(lastIdx))
	for i, e := range entries {
		if lastIdx[e.key] != i {
			continue
		}
		if seen[e.key] {
			continue
		}
		seen[e.key] = true
		out = append(out, e)
	}
	return out
}

func decodeSimple(data []byte, offset int) (Value, []byte, error) {
	info := data[0] & 0x1f
	switch info {
	case 20:
		return Value{kind: KindBool, b: false}, data[1:], nil
	case 21:
		return Value{kind: KindBool, b: true}, data[1:], nil
	case 22:
		return Value{kind: KindNull}, data[1:], nil
	case 23:
		return Value{}, nil, errs.NewCodecErrorAt(offset, "undefined value is not supported")
	case 25:
		return Value{}, nil, errs.NewCodecErrorAt(offset, "half-precision float is not supported")
	case 26:
		if len(data) < 5 {
			return Value{}, nil, errs.NewCodecErrorAt(offset, "truncated single-precision float")
		}
		return Value{}, nil, errs.NewCodecErrorAt(offset, "single-precision float is not supported")
	case 27:
		if len(data) < 9 {
			return Value{}, nil, errs.NewCodecErrorAt(offset, "truncated double-precision float")
		}
		bits := uint64(0)
		for i := 1; i <= 8; i++ {
			bits = bits<<8 | uint64(data[i])
		}
		return Value{kind: KindFloat, f: math.Float64frombits(bits)}, data[9:], nil
	case 31:
		return Value{}, nil, errs.NewCodecErrorAt(offset, "unexpected break code")
	default:
		return Value{}, nil, fmt.Errorf("%w", errs.NewCodecErrorAt(offset, "unsupported simple value %d", info))
	}
}
