package decoder

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/framepeek/internal/core"
)

// Reader is a bounds-checked cursor over a byte buffer. Reads never index
// past the end of the buffer; a failed read leaves the cursor untouched.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// NewReaderAt returns a Reader positioned at off. An offset outside
// [0, len(buf)] is rejected with ErrTruncatedInput.
func NewReaderAt(buf []byte, off int) (*Reader, error) {
	if off < 0 || off > len(buf) {
		return nil, fmt.Errorf("%w: offset %d outside buffer of %d bytes",
			core.ErrTruncatedInput, off, len(buf))
	}
	return &Reader{buf: buf, off: off}, nil
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// Offset returns the cursor position.
func (r *Reader) Offset() int {
	return r.off
}

// Rest returns a view of the unread bytes without advancing.
func (r *Reader) Rest() []byte {
	return r.buf[r.off:]
}

func (r *Reader) need(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative length %d at offset %d", core.ErrTruncatedInput, n, r.off)
	}
	if r.Remaining() < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			core.ErrTruncatedInput, n, r.off, r.Remaining())
	}
	return nil
}

// Uint8 reads one byte.
func (r *Reader) Uint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

// Uint16 reads two bytes in the given byte order.
func (r *Reader) Uint16(order binary.ByteOrder) (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := order.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

// Uint32 reads four bytes in the given byte order.
func (r *Reader) Uint32(order binary.ByteOrder) (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := order.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

// Uint64 reads eight bytes in the given byte order.
func (r *Reader) Uint64(order binary.ByteOrder) (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := order.Uint64(r.buf[r.off:])
	r.off += 8
	return v, nil
}

// Slice returns a view of the next n bytes. The view aliases the buffer.
func (r *Reader) Slice(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	v := r.buf[r.off : r.off+n : r.off+n]
	r.off += n
	return v, nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.off += n
	return nil
}
