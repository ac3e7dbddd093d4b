package csvio

// streaming.go provides io.Reader wrappers applied to every CSV input before
// parsing:
//
//   - bomSkippingReader: removes the UTF-8 BOM (0xEF 0xBB 0xBF) that Windows
//     exports routinely prepend
//   - utf8SanitizingReader: replaces invalid UTF-8 bytes with '?' on the fly,
//     since scanned-report exports occasionally carry stray Latin-1 bytes
//
// Use Wrap to apply both in the correct order.

import (
	"io"
	"unicode/utf8"
)

// Wrap prepares a raw CSV stream for parsing: BOM stripped first, then
// UTF-8 sanitization.
func Wrap(r io.Reader) io.Reader {
	return newUTF8SanitizingReader(newBOMSkippingReader(r))
}

// bomSkippingReader skips a leading UTF-8 BOM if present.
type bomSkippingReader struct {
	reader  io.Reader
	checked bool
	buf     []byte // bytes read during BOM detection, replayed if not a BOM
}

func newBOMSkippingReader(r io.Reader) *bomSkippingReader {
	return &bomSkippingReader{reader: r}
}

func (r *bomSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true

		var head [3]byte
		n, err := io.ReadFull(r.reader, head[:])
		if n >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
			// BOM found, drop it.
		} else {
			r.buf = append(r.buf, head[:n]...)
		}
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
	}

	if len(r.buf) > 0 {
		n := copy(p, r.buf)
		r.buf = r.buf[n:]
		return n, nil
	}

	return r.reader.Read(p)
}

// utf8SanitizingReader replaces invalid UTF-8 bytes with '?'. A multi-byte
// sequence split across two reads is held back in pending until the rest
// arrives, so sanitization never misfires on chunk boundaries.
type utf8SanitizingReader struct {
	reader  io.Reader
	pending []byte
	eof     bool
}

func newUTF8SanitizingReader(r io.Reader) *utf8SanitizingReader {
	return &utf8SanitizingReader{
		reader:  r,
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

func (s *utf8SanitizingReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.reader.Read(p[offset:])
	n += offset
	if err == io.EOF {
		s.eof = true
	}

	if n == 0 {
		return 0, err
	}

	if allASCII(p[:n]) {
		return n, err
	}

	return s.sanitize(p[:n]), err
}

// allASCII is the fast path: most CSV data never leaves ASCII.
func allASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// sanitize rewrites data in place, replacing each invalid byte with '?' and
// parking an incomplete trailing sequence in pending. Returns the number of
// bytes to surface to the caller.
func (s *utf8SanitizingReader) sanitize(data []byte) int {
	write := 0
	for read := 0; read < len(data); {
		r, size := utf8.DecodeRune(data[read:])

		if r == utf8.RuneError && size == 1 {
			if !s.eof && incompleteSequence(data[read:]) {
				s.pending = append(s.pending, data[read:]...)
				return write
			}
			// Replace with '?' rather than U+FFFD so the output never
			// grows past the caller's buffer.
			data[write] = '?'
			write++
			read++
			continue
		}

		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// incompleteSequence reports whether data is a prefix of a valid multi-byte
// sequence that could complete on the next read.
func incompleteSequence(data []byte) bool {
	if len(data) == 0 || len(data) >= utf8.UTFMax {
		return false
	}

	want := 0
	switch b := data[0]; {
	case b < 0xC0:
		return false
	case b < 0xE0:
		want = 2
	case b < 0xF0:
		want = 3
	default:
		want = 4
	}
	if len(data) >= want {
		return false
	}

	for _, b := range data[1:] {
		if b&0xC0 != 0x80 {
			return false
		}
	}
	return true
}
