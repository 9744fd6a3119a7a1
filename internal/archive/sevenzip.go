package archive

import (
	"fmt"

	"github.com/bodgit/sevenzip"
)

func list7z(path string) ([]Entry, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open 7z %s: %w", path, err)
	}
	defer r.Close()

	entries := make([]Entry, 0, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, Entry{
			Name:   f.Name,
			Size:   int64(f.UncompressedSize),
			CRC:    f.CRC32,
			HasCRC: true,
		})
	}
	return entries, nil
}
