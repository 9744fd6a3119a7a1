// Package library scans the games folder and pairs its archives with the
// catalog.
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExt is the archive extension Supermodel loads.
const DefaultExt = ".zip"

// Archive is one archive found in the games folder.
type Archive struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"mod_time"`
}

// Index maps archive base names (extension stripped) to archives.
type Index map[string]Archive

// Has implements catalog.Availability.
func (idx Index) Has(name string) bool {
	_, ok := idx[name]
	return ok
}

// Names returns the archive names sorted.
func (idx Index) Names() []string {
	out := make([]string, 0, len(idx))
	for name := range idx {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Merge returns a new index holding idx and, for names idx lacks, other.
func (idx Index) Merge(other Index) Index {
	out := make(Index, len(idx)+len(other))
	for k, v := range other {
		out[k] = v
	}
	for k, v := range idx {
		out[k] = v
	}
	return out
}

// NormalizeExt returns ext lowercased with a leading dot, DefaultExt when
// empty.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return DefaultExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Scan lists the regular files directly inside dir whose name ends with ext
// (case-insensitive). Sub-directories are not descended into.
func Scan(dir, ext string) (Index, error) {
	ext = NormalizeExt(ext)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read games dir %s: %w", dir, err)
	}
	idx := make(Index, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if len(name) <= len(ext) || !strings.EqualFold(name[len(name)-len(ext):], ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat archive %s: %w", name, err)
		}
		base := name[:len(name)-len(ext)]
		idx[base] = Archive{
			Name:    base,
			Path:    filepath.Join(dir, name),
			Size:    info.Size(),
			ModTime: info.ModTime().Unix(),
		}
	}
	return idx, nil
}
