package core

// streaming.go provides io.Reader wrappers applied to an upload before CSV decoding:
//
//   - BOMSkippingReader: drops a leading UTF-8 BOM written by spreadsheet exports
//   - UTF8ValidatingReader: fails with ErrInvalidEncoding on the first malformed sequence
//   - CountingReader: tracks bytes read for ingestion logs
//
// Use wrapUpload to apply them in the right order.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ErrInvalidEncoding is returned when an upload is not valid UTF-8.
var ErrInvalidEncoding = errors.New("encoding error: file is not valid UTF-8")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	br      *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{br: bufio.NewReader(r)}
}

// Read implements io.Reader. The first call peeks at three bytes and
// discards them if they are the BOM.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		head, err := r.br.Peek(len(utf8BOM))
		if err != nil && err != io.EOF {
			return 0, err
		}
		if bytes.Equal(head, utf8BOM) {
			_, _ = r.br.Discard(len(utf8BOM))
		}
	}
	return r.br.Read(p)
}

// UTF8ValidatingReader passes bytes through unchanged and returns
// ErrInvalidEncoding as soon as it sees a malformed sequence.
// A multi-byte rune split across underlying reads is held back until it completes.
type UTF8ValidatingReader struct {
	reader  io.Reader
	chunk   []byte
	ready   []byte // validated, not yet returned
	pending []byte // incomplete rune carried to the next chunk
	offset  int64
	err     error
}

const validateChunkSize = 32 * 1024

// NewUTF8ValidatingReader creates a new validating reader.
func NewUTF8ValidatingReader(r io.Reader) *UTF8ValidatingReader {
	return &UTF8ValidatingReader{
		reader:  r,
		chunk:   make([]byte, validateChunkSize+utf8.UTFMax),
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (v *UTF8ValidatingReader) Read(p []byte) (int, error) {
	if len(v.ready) == 0 {
		if v.err != nil {
			return 0, v.err
		}
		v.fill()
		if len(v.ready) == 0 {
			return 0, v.err
		}
	}
	n := copy(p, v.ready)
	v.ready = v.ready[n:]
	return n, nil
}

// fill reads the next chunk and validates everything but a trailing partial rune.
func (v *UTF8ValidatingReader) fill() {
	n := copy(v.chunk, v.pending)
	m, err := v.reader.Read(v.chunk[n:])
	n += m
	data := v.chunk[:n]

	keep := n
	if err == nil {
		keep -= incompleteTrailingBytes(data)
	}
	if !utf8.Valid(data[:keep]) {
		v.ready = nil
		v.err = fmt.Errorf("%w (near byte %d)", ErrInvalidEncoding, v.offset+int64(firstInvalid(data[:keep])))
		return
	}

	v.pending = append(v.pending[:0], data[keep:]...)
	v.ready = data[:keep]
	v.offset += int64(keep)
	v.err = err
}

// firstInvalid returns the index of the first byte that does not start a valid rune.
func firstInvalid(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(data)
}

// incompleteTrailingBytes returns the number of bytes at the end of data
// that could be the start of an incomplete multi-byte UTF-8 sequence.
func incompleteTrailingBytes(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xC0 {
			if i < runeLen(b) {
				return i
			}
			return 0
		}
		// Anything but a continuation byte ends the search.
		if b&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

// runeLen returns the expected length of a UTF-8 sequence starting with byte b.
func runeLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader io.Reader
	n      int64
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	c.n += int64(n)
	return n, err
}

// BytesRead returns the number of bytes read so far.
func (c *CountingReader) BytesRead() int64 {
	return c.n
}

// wrapUpload applies the upload reader chain: count raw bytes, skip the BOM, validate UTF-8.
func wrapUpload(r io.Reader) (io.Reader, *CountingReader) {
	counter := &CountingReader{reader: r}
	return NewUTF8ValidatingReader(NewBOMSkippingReader(counter)), counter
}
