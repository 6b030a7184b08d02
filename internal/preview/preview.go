// Package preview renders byte buffers as bounded hex strings for display.
package preview

import "strings"

const (
	// DefaultMaxBytes is the number of bytes rendered before truncation.
	DefaultMaxBytes = 64

	// TruncationMarker is appended when the input exceeds the limit.
	TruncationMarker = " ..."
)

const hexDigits = "0123456789ABCDEF"

// Formatter renders at most MaxBytes bytes. The zero Formatter uses
// DefaultMaxBytes.
type Formatter struct {
	MaxBytes int
}

// Hex renders data with the default limit.
func Hex(data []byte) string {
	return Formatter{}.Hex(data)
}

// MaxLen returns the longest string Hex can produce.
func (f Formatter) MaxLen() int {
	return 3*f.limit() - 1 + len(TruncationMarker)
}

// Hex renders each byte as two uppercase hex digits separated by single
// spaces. Input past the limit is dropped and TruncationMarker appended.
func (f Formatter) Hex(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	n := len(data)
	truncated := n > f.limit()
	if truncated {
		n = f.limit()
	}

	var b strings.Builder
	b.Grow(3*n + len(TruncationMarker))
	for i, c := range data[:n] {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0F])
	}
	if truncated {
		b.WriteString(TruncationMarker)
	}
	return b.String()
}

func (f Formatter) limit() int {
	if f.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return f.MaxBytes
}
