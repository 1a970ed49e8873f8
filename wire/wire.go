// Package wire implements the canonical, length-prefixed byte encoding
// used for every value carried on the replicated log, per spec.md §6.
//
// Encoding rules: fixed-width integers are little-endian; 32-byte group
// payloads are preceded by a uleb128 length tag of value 32; vectors are
// preceded by a uleb128 element count; optionals are preceded by a
// one-byte tag (0 absent, 1 present). Decoder methods reject truncated
// input, oversized lengths, and non-canonical scalars/points; trailing
// bytes after a top-level value are reported by RequireDone.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/pokermesh/mentalpoker/group"
)

// ErrorCode is a stable numeric tag identifying the class of decode
// failure, per spec.md §7's Decode error kind ("malformed bytes / wrong
// tag / trailing data").
type ErrorCode uint8

const (
	// ErrCodeTruncated indicates the input ended before a required field.
	ErrCodeTruncated ErrorCode = iota + 1
	// ErrCodeTrailingBytes indicates unconsumed bytes remained after decoding.
	ErrCodeTrailingBytes
	// ErrCodeBadEncoding indicates a non-canonical scalar/element or an
	// out-of-range bool/optional tag.
	ErrCodeBadEncoding
	// ErrCodeTooLarge indicates a length/uleb128 value exceeds a sane bound.
	ErrCodeTooLarge
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTruncated:
		return "truncated"
	case ErrCodeTrailingBytes:
		return "trailing-bytes"
	case ErrCodeBadEncoding:
		return "bad-encoding"
	case ErrCodeTooLarge:
		return "too-large"
	default:
		return "unknown"
	}
}

// DecodeError is returned by every Decode function in this package on
// malformed input.
type DecodeError struct {
	Code ErrorCode
	Msg  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wire: %s: %s", e.Code, e.Msg)
}

func decodeErr(code ErrorCode, format string, args ...any) error {
	return &DecodeError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// maxVectorLen bounds uleb128-decoded vector/byte lengths to guard against
// allocation-bomb inputs from an adversarial log entry.
const maxVectorLen = 1 << 20

// Encoder accumulates a byte buffer using the canonical wire format.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 128)}
}

// Bytes returns the accumulated buffer.
func (e *Encoder) Bytes() []byte { return e.buf }

// Uleb128 appends x as a uleb128 varint.
func (e *Encoder) Uleb128(x uint64) {
	for x >= 0x80 {
		e.buf = append(e.buf, byte(x)|0x80)
		x >>= 7
	}
	e.buf = append(e.buf, byte(x))
}

// Uint64 appends x as a fixed-width little-endian integer.
func (e *Encoder) Uint64(x uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], x)
	e.buf = append(e.buf, b[:]...)
}

// Uint32 appends x as a fixed-width little-endian integer.
func (e *Encoder) Uint32(x uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], x)
	e.buf = append(e.buf, b[:]...)
}

// Uint16 appends x as a fixed-width little-endian integer.
func (e *Encoder) Uint16(x uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], x)
	e.buf = append(e.buf, b[:]...)
}

// Bool appends a one-byte boolean.
func (e *Encoder) Bool(b bool) {
	if b {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

// RawBytes appends a 32-byte group payload preceded by its uleb128 length
// tag (always 32), per spec.md §6.
func (e *Encoder) RawBytes(b []byte) {
	e.Uleb128(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

// Scalar appends the canonical encoding of a scalar.
func (e *Encoder) Scalar(s group.Scalar) {
	e.RawBytes(s.Bytes())
}

// Element appends the canonical encoding of an element.
func (e *Encoder) Element(el group.Element) {
	e.RawBytes(el.Bytes())
}

// VectorLen appends a vector's uleb128 element count; callers then encode
// each element in turn.
func (e *Encoder) VectorLen(n int) {
	e.Uleb128(uint64(n))
}

// OptionTag appends the one-byte optional presence tag.
func (e *Encoder) OptionTag(present bool) {
	if present {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

// Decoder consumes a byte buffer using the canonical wire format.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder returns a Decoder positioned at the start of buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Done reports whether every byte of the buffer has been consumed. Callers
// MUST check Done after decoding a top-level value, per spec.md §6's
// round-trip law ("no trailing bytes").
func (d *Decoder) Done() bool {
	return d.pos == len(d.buf)
}

// RequireDone returns a typed trailing-bytes error if Done is false.
func (d *Decoder) RequireDone() error {
	if !d.Done() {
		return decodeErr(ErrCodeTrailingBytes, "%d unconsumed byte(s)", len(d.buf)-d.pos)
	}
	return nil
}

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.buf) {
		return nil, decodeErr(ErrCodeTruncated, "need %d byte(s), have %d", n, len(d.buf)-d.pos)
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// Uleb128 decodes a uleb128 varint.
func (d *Decoder) Uleb128() (uint64, error) {
	var x uint64
	var shift uint
	for {
		b, err := d.take(1)
		if err != nil {
			return 0, decodeErr(ErrCodeTruncated, "uleb128: %v", err)
		}
		if shift >= 64 {
			return 0, decodeErr(ErrCodeTooLarge, "uleb128 overflow")
		}
		x |= uint64(b[0]&0x7f) << shift
		if b[0]&0x80 == 0 {
			return x, nil
		}
		shift += 7
	}
}

// Uint64 decodes a fixed-width little-endian integer.
func (d *Decoder) Uint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Uint32 decodes a fixed-width little-endian integer.
func (d *Decoder) Uint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Uint16 decodes a fixed-width little-endian integer.
func (d *Decoder) Uint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Bool decodes a one-byte boolean, rejecting any value other than 0 or 1.
func (d *Decoder) Bool() (bool, error) {
	b, err := d.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, decodeErr(ErrCodeBadEncoding, "bool tag %d", b[0])
	}
}

// RawBytes decodes a uleb128-length-prefixed byte string.
func (d *Decoder) RawBytes() ([]byte, error) {
	n, err := d.Uleb128()
	if err != nil {
		return nil, err
	}
	if n > maxVectorLen {
		return nil, decodeErr(ErrCodeTooLarge, "length %d exceeds bound", n)
	}
	return d.take(int(n))
}

// Scalar decodes a canonical scalar.
func (d *Decoder) Scalar() (group.Scalar, error) {
	b, err := d.RawBytes()
	if err != nil {
		return group.Scalar{}, err
	}
	s, err := group.DecodeScalar(b)
	if err != nil {
		return group.Scalar{}, decodeErr(ErrCodeBadEncoding, "scalar: %v", err)
	}
	return s, nil
}

// Element decodes a canonical element.
func (d *Decoder) Element() (group.Element, error) {
	b, err := d.RawBytes()
	if err != nil {
		return group.Element{}, err
	}
	e, err := group.DecodeElement(b)
	if err != nil {
		return group.Element{}, decodeErr(ErrCodeBadEncoding, "element: %v", err)
	}
	return e, nil
}

// VectorLen decodes a vector's uleb128 element count.
func (d *Decoder) VectorLen() (int, error) {
	n, err := d.Uleb128()
	if err != nil {
		return 0, err
	}
	if n > maxVectorLen {
		return 0, decodeErr(ErrCodeTooLarge, "vector length %d exceeds bound", n)
	}
	return int(n), nil
}

// OptionTag decodes the one-byte optional presence tag.
func (d *Decoder) OptionTag() (bool, error) {
	b, err := d.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, decodeErr(ErrCodeBadEncoding, "option tag %d", b[0])
	}
}
