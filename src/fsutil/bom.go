package fsutil

import (
	"bufio"
	"bytes"
)

// UTF8BOM is the byte order mark some editors write at the start of UTF-8 files
var UTF8BOM = []byte{0xEF, 0xBB, 0xBF}

// HasBOM reports if b starts with a UTF-8 BOM
func HasBOM(b []byte) bool {
	return bytes.HasPrefix(b, UTF8BOM)
}

// StripBOM removes a leading UTF-8 BOM
func StripBOM(b []byte) []byte {
	if HasBOM(b) {
		return b[len(UTF8BOM):]
	}
	return b
}

// SkipBOM discards a UTF-8 BOM from the front of the reader, returning true if one was found
func SkipBOM(r *bufio.Reader) bool {
	head, err := r.Peek(len(UTF8BOM))
	if err != nil || !HasBOM(head) {
		return false
	}
	r.Discard(len(UTF8BOM))
	return true
}
