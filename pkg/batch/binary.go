// File: pkg/batch/binary.go
package batch

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// sniffSize is how much of a file is inspected when checking for binary content.
const sniffSize = 512

// isBinaryFile reports whether a file looks binary: a null byte in its first
// bytes, or more than 30% non-printable characters.
func isBinaryFile(filePath string) (bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer file.Close()

	buffer := make([]byte, sniffSize)
	n, err := io.ReadFull(file, buffer)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, err
	}
	return isBinary(buffer[:n]), nil
}

func isBinary(buffer []byte) bool {
	if len(buffer) == 0 {
		return false
	}
	if bytes.IndexByte(buffer, 0) >= 0 {
		return true
	}

	nonPrintable := 0
	for _, b := range buffer {
		if !isPrintable(b) {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(buffer)) > 0.3
}

// isPrintable accepts printable ASCII, common whitespace and any byte of a
// multi-byte UTF-8 sequence.
func isPrintable(b byte) bool {
	return (b >= 32 && b <= 126) || b == '\n' || b == '\r' || b == '\t' || b >= 0x80
}

// isSourceMap reports whether path is a generated map file.
func isSourceMap(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".map")
}
