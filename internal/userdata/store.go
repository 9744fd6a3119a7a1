// Package userdata manages the data folder: the Supermodel.ini document in
// its Config directory and the copy of the folder kept in the internal root.
package userdata

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// ConfigDir is the data folder sub-directory holding the ini file.
	ConfigDir = "Config"
	// IniName is the canonical ini file name.
	IniName = "Supermodel.ini"
)

//go:embed assets/Supermodel.ini
var defaultIni []byte

// ErrNoDocument is returned when no ini document can be found or created.
var ErrNoDocument = errors.New("ini document unavailable")

// DefaultIni returns the bundled Supermodel.ini.
func DefaultIni() []byte {
	out := make([]byte, len(defaultIni))
	copy(out, defaultIni)
	return out
}

// Store resolves documents inside a data folder. InternalRoot, when set, is
// consulted for a seed ini before the bundled default.
type Store struct {
	Root         string
	InternalRoot string
}

// NewStore builds a store for the data folder root.
func NewStore(root, internalRoot string) *Store {
	return &Store{Root: root, InternalRoot: internalRoot}
}

// EnsureIniDocument returns the path of the data folder's Supermodel.ini,
// creating Config/ and seeding the file when neither it nor a look-alike
// (Supermodel.ini.txt, "Supermodel.ini(1)", ...) exists.
func (s *Store) EnsureIniDocument() (string, error) {
	if strings.TrimSpace(s.Root) == "" {
		return "", fmt.Errorf("%w: data folder not set", ErrNoDocument)
	}
	configDir := filepath.Join(s.Root, ConfigDir)
	info, err := os.Stat(configDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return "", fmt.Errorf("create config dir %s: %w", configDir, err)
		}
	case err != nil:
		return "", fmt.Errorf("stat config dir %s: %w", configDir, err)
	case !info.IsDir():
		return "", fmt.Errorf("%w: %s is not a directory", ErrNoDocument, configDir)
	}

	existing, err := findBestIni(configDir)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return existing, nil
	}

	target := filepath.Join(configDir, IniName)
	if err := os.WriteFile(target, s.seed(), 0o644); err != nil {
		return "", fmt.Errorf("seed %s: %w", target, err)
	}
	return target, nil
}

func (s *Store) seed() []byte {
	if s.InternalRoot != "" {
		if data, err := os.ReadFile(filepath.Join(s.InternalRoot, ConfigDir, IniName)); err == nil {
			return data
		}
	}
	return DefaultIni()
}

// ReadText reads a whole document as UTF-8 text.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// WriteText replaces a document with text. The content goes to a temporary
// file first so a failed write leaves the old document in place.
func WriteText(path, text string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

type iniCandidate struct {
	name    string
	modTime int64
}

// nameScore ranks look-alike names, lower is better.
func nameScore(name string) int {
	lower := strings.ToLower(name)
	switch {
	case lower == "supermodel.ini":
		return 0
	case lower == "supermodel.ini.txt":
		return 1
	case strings.HasPrefix(lower, "supermodel.ini("):
		return 2
	}
	return 3
}

func findBestIni(configDir string) (string, error) {
	exact := filepath.Join(configDir, IniName)
	if info, err := os.Stat(exact); err == nil && info.Mode().IsRegular() {
		return exact, nil
	}

	entries, err := os.ReadDir(configDir)
	if err != nil {
		return "", fmt.Errorf("read config dir %s: %w", configDir, err)
	}
	var candidates []iniCandidate
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(strings.ToLower(name), strings.ToLower(IniName)) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, iniCandidate{name: name, modTime: info.ModTime().Unix()})
	}
	if len(candidates) == 0 {
		return "", nil
	}

	best := pickBest(candidates)
	if best.name != IniName {
		if err := os.Rename(filepath.Join(configDir, best.name), exact); err == nil {
			return exact, nil
		}
	}
	return filepath.Join(configDir, best.name), nil
}

// pickBest prefers the most recently modified file; ties go to the better
// name score, then the shorter name. Without modification times only the
// score and length count.
func pickBest(candidates []iniCandidate) iniCandidate {
	hasTimes := false
	for _, c := range candidates {
		if c.modTime > 0 {
			hasTimes = true
			break
		}
	}
	sorted := make([]iniCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if hasTimes && a.modTime != b.modTime {
			return a.modTime > b.modTime
		}
		if sa, sb := nameScore(a.name), nameScore(b.name); sa != sb {
			return sa < sb
		}
		return len(a.name) < len(b.name)
	})
	return sorted[0]
}
