package archive

import (
	"archive/zip"
	"fmt"
)

func listZIP(path string) ([]Entry, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", path, err)
	}
	defer r.Close()

	entries := make([]Entry, 0, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, Entry{
			Name:   f.Name,
			Size:   int64(f.UncompressedSize64),
			CRC:    f.CRC32,
			HasCRC: true,
		})
	}
	return entries, nil
}
