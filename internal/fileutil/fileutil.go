// Package fileutil provides encoding-tolerant text decoding and verified
// output writes.
package fileutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/zeebo/blake3"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// utf8BOM is the UTF-8 byte order mark. Spreadsheet tools on Windows emit
// and expect it, so text outputs carry it and text inputs may.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText decodes file bytes to a string. Tried in order: UTF-8 with
// BOM, plain UTF-8, Shift_JIS. As a last resort the bytes are decoded as
// UTF-8 with replacement runes so the caller always gets a string.
func DecodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	if decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data); err == nil && utf8.Valid(decoded) {
		return string(decoded)
	}
	return string(bytes.ToValidUTF8(data, []byte("�")))
}

// EncodeTextBOM encodes s as UTF-8 prefixed with a BOM.
func EncodeTextBOM(s string) []byte {
	out := make([]byte, 0, len(utf8BOM)+len(s))
	out = append(out, utf8BOM...)
	return append(out, s...)
}

// WriteVerified writes data to path atomically: the bytes go to a temporary
// file in the same directory, are read back and checked against their
// BLAKE3 digest, and only then renamed into place. Either the full file
// appears at path or nothing does.
func WriteVerified(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	written, err := os.ReadFile(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to read back %s: %w", tmpPath, err)
	}
	want := blake3.Sum256(data)
	got := blake3.Sum256(written)
	if want != got {
		return fmt.Errorf("hash mismatch writing %s: output may be corrupted", path)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
