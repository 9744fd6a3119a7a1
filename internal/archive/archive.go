// Package archive lists the contents of ROM archives. ZIP is what the
// emulator loads; 7z and RAR sets are listed so they can be reported and
// checked before being repacked.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	magicZIP    = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEnd = []byte{0x50, 0x4B, 0x05, 0x06} // empty zip
	magic7z     = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicRAR    = []byte{0x52, 0x61, 0x72, 0x21} // "Rar!"
)

// ErrUnsupportedFormat is returned for files that are not a known archive.
var ErrUnsupportedFormat = errors.New("unsupported archive format")

// Format is a detected archive container.
type Format int

const (
	FormatUnknown Format = iota
	FormatZIP
	Format7z
	FormatRAR
)

func (f Format) String() string {
	switch f {
	case FormatZIP:
		return "zip"
	case Format7z:
		return "7z"
	case FormatRAR:
		return "rar"
	}
	return "unknown"
}

// Entry is a file stored in an archive.
type Entry struct {
	Name string
	Size int64
	CRC  uint32
	// HasCRC is false when the container does not expose checksums.
	HasCRC bool
}

// CRCHex renders the checksum the way datafiles store it.
func (e Entry) CRCHex() string {
	return fmt.Sprintf("%08x", e.CRC)
}

// Detect sniffs the container format from magic bytes, falling back to the
// file extension.
func Detect(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, 8)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return FormatUnknown, fmt.Errorf("read archive header %s: %w", path, err)
	}
	return detectFormat(header[:n], path), nil
}

func detectFormat(header []byte, path string) Format {
	switch {
	case bytes.HasPrefix(header, magicZIP), bytes.HasPrefix(header, magicZIPEnd):
		return FormatZIP
	case bytes.HasPrefix(header, magic7z):
		return Format7z
	case bytes.HasPrefix(header, magicRAR):
		return FormatRAR
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return FormatZIP
	case ".7z":
		return Format7z
	case ".rar":
		return FormatRAR
	}
	return FormatUnknown
}

// List returns the file entries of the archive at path, directories
// excluded.
func List(path string) ([]Entry, Format, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, FormatUnknown, err
	}
	var entries []Entry
	switch format {
	case FormatZIP:
		entries, err = listZIP(path)
	case Format7z:
		entries, err = list7z(path)
	case FormatRAR:
		entries, err = listRAR(path)
	default:
		return nil, format, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, format, err
	}
	return entries, format, nil
}
