package cbor

import (
	"bytes"
	"math"

	"treegen/errs"
)

// Writer produces a single self-describing CBOR document: a root map whose
// nested arrays and maps are written through stacked handles. Only the
// innermost open handle may be written to; closing it pops the stack and
// reactivates its parent. It is tailored to the schema-driven encoding
// C5 generates, not for general-purpose CBOR production.
type Writer struct {
	buf    bytes.Buffer
	active any // identity of the currently writable handle (*MapHandle or *ArrayHandle), or the *Writer itself before Root is called
}

// NewWriter creates a Writer. Call Root to obtain the top-level map handle.
func NewWriter() *Writer {
	w := &Writer{}
	w.active = w
	return w
}

// Bytes returns the bytes written so far. It should only be called after
// the root handle returned by Root has been closed.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Root opens the single top-level map and returns a handle to it.
func (w *Writer) Root() *MapHandle {
	w.buf.WriteByte(0xBF) // map, indefinite length
	h := &MapHandle{w: w, parent: w.active}
	w.active = h
	return h
}

func (w *Writer) checkActive(h any) error {
	if w.active != h {
		return errs.NewCodecError("write to a shadowed writer handle")
	}
	return nil
}

func writeUint(buf *bytes.Buffer, major byte, n uint64) {
	hdr := major << 5
	switch {
	case n < 24:
		buf.WriteByte(hdr | byte(n))
	case n <= 0xFF:
		buf.WriteByte(hdr | 24)
		buf.WriteByte(byte(n))
	case n <= 0xFFFF:
		buf.WriteByte(hdr | 25)
		buf.WriteByte(byte(n >> 8))
		buf.WriteByte(byte(n))
	case n <= 0xFFFFFFFF:
		buf.WriteByte(hdr | 26)
		for shift := 24; shift >= 0; shift -= 8 {
			buf.WriteByte(byte(n >> uint(shift)))
		}
	default:
		buf.WriteByte(hdr | 27)
		for shift := 56; shift >= 0; shift -= 8 {
			buf.WriteByte(byte(n >> uint(shift)))
		}
	}
}

func writeInt(buf *bytes.Buffer, n int64) {
	if n >= 0 {
		writeUint(buf, majorUnsigned, uint64(n))
		return
	}
	writeUint(buf, majorNegative, uint64(-1-n))
}

func writeFloat(buf *bytes.Buffer, f float64) {
	buf.WriteByte(majorSimple<<5 | 27)
	bits := math.Float64bits(f)
	for shift := 56; shift >= 0; shift -= 8 {
		buf.WriteByte(byte(bits >> uint(shift)))
	}
}

func writeText(buf *bytes.Buffer, s string) {
	writeUint(buf, majorText, uint64(len(s)))
	buf.WriteString(s)
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeUint(buf, majorBytes, uint64(len(b)))
	buf.Write(b)
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(majorSimple<<5 | 21)
	} else {
		buf.WriteByte(majorSimple<<5 | 20)
	}
}

func writeNull(buf *bytes.Buffer) {
	buf.WriteByte(majorSimple<<5 | 22)
}

// MapHandle is the active handle for a map being written. Exactly one key
// is expected per value write; callers are responsible for key uniqueness,
// the writer does not re-sort or deduplicate.
type MapHandle struct {
	w      *Writer
	parent any
	closed bool
}

func (h *MapHandle) key(k string) error {
	if err := h.w.checkActive(h); err != nil {
		return err
	}
	writeText(&h.w.buf, k)
	return nil
}

func (h *MapHandle) PutNull(k string) error {
	if err := h.key(k); err != nil {
		return err
	}
	writeNull(&h.w.buf)
	return nil
}

func (h *MapHandle) PutBool(k string, v bool) error {
	if err := h.key(k); err != nil {
		return err
	}
	writeBool(&h.w.buf, v)
	return nil
}

func (h *MapHandle) PutInt(k string, v int64) error {
	if err := h.key(k); err != nil {
		return err
	}
	writeInt(&h.w.buf, v)
	return nil
}

func (h *MapHandle) PutFloat(k string, v float64) error {
	if err := h.key(k); err != nil {
		return err
	}
	writeFloat(&h.w.buf, v)
	return nil
}

func (h *MapHandle) PutBytes(k string, v []byte) error {
	if err := h.key(k); err != nil {
		return err
	}
	writeBytes(&h.w.buf, v)
	return nil
}

func (h *MapHandle) PutText(k string, v string) error {
	if err := h.key(k); err != nil {
		return err
	}
	writeText(&h.w.buf, v)
	return nil
}

// BeginMap writes k and opens a nested map as the new active handle.
func (h *MapHandle) BeginMap(k string) (*MapHandle, error) {
	if err := h.key(k); err != nil {
		return nil, err
	}
	h.w.buf.WriteByte(0xBF)
	child := &MapHandle{w: h.w, parent: h}
	h.w.active = child
	return child, nil
}

// BeginArray writes k and opens a nested array as the new active handle.
func (h *MapHandle) BeginArray(k string) (*ArrayHandle, error) {
	if err := h.key(k); err != nil {
		return nil, err
	}
	h.w.buf.WriteByte(0x9F)
	child := &ArrayHandle{w: h.w, parent: h}
	h.w.active = child
	return child, nil
}

// Close terminates the map and reactivates its parent handle.
func (h *MapHandle) Close() error {
	if err := h.w.checkActive(h); err != nil {
		return err
	}
	h.w.buf.WriteByte(0xFF)
	h.w.active = h.parent
	h.closed = true
	return nil
}

// ArrayHandle is the active handle for an array being written.
type ArrayHandle struct {
	w      *Writer
	parent any
	closed bool
}

func (h *ArrayHandle) PutNull() error {
	if err := h.w.checkActive(h); err != nil {
		return err
	}
	writeNull(&h.w.buf)
	return nil
}

func (h *ArrayHandle) PutBool(v bool) error {
	if err := h.w.checkActive(h); err != nil {
		return err
	}
	writeBool(&h.w.buf, v)
	return nil
}

func (h *ArrayHandle) PutInt(v int64) error {
	if err := h.w.checkActive(h); err != nil {
		return err
	}
	writeInt(&h.w.buf, v)
	return nil
}

func (h *ArrayHandle) PutFloat(v float64) error {
	if err := h.w.checkActive(h); err != nil {
		return err
	}
	writeFloat(&h.w.buf, v)
	return nil
}

func (h *ArrayHandle) PutBytes(v []byte) error {
	if err := h.w.checkActive(h); err != nil {
		return err
	}
	writeBytes(&h.w.buf, v)
	return nil
}

func (h *ArrayHandle) PutText(v string) error {
	if err := h.w.checkActive(h); err != nil {
		return err
	}
	writeText(&h.w.buf, v)
	return nil
}

func (h *ArrayHandle) BeginMap() (*MapHandle, error) {
	if err := h.w.checkActive(h); err != nil {
		return nil, err
	}
	h.w.buf.WriteByte(0xBF)
	child := &MapHandle{w: h.w, parent: h}
	h.w.active = child
	return child, nil
}

func (h *ArrayHandle) BeginArray() (*ArrayHandle, error) {
	if err := h.w.checkActive(h); err != nil {
		return nil, err
	}
	h.w.buf.WriteByte(0x9F)
	child := &ArrayHandle{w: h.w, parent: h}
	h.w.active = child
	return child, nil
}

func (h *ArrayHandle) Close() error {
	if err := h.w.checkActive(h); err != nil {
		return err
	}
	h.w.buf.WriteByte(0xFF)
	h.w.active = h.parent
	h.closed = true
	return nil
}
