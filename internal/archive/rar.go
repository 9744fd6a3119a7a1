package archive

import (
	"errors"
	"fmt"
	"io"

	"github.com/nwaples/rardecode/v2"
)

func listRAR(path string) ([]Entry, error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open rar %s: %w", path, err)
	}
	defer r.Close()

	var entries []Entry
	for {
		header, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rar entry %s: %w", path, err)
		}
		if header.IsDir {
			continue
		}
		entries = append(entries, Entry{Name: header.Name, Size: header.UnPackedSize})
	}
	return entries, nil
}
