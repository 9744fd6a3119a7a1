// Package ini edits Supermodel style INI text line by line.
//
// A Document is the file split on newlines. Every operation returns a new
// Document and leaves unrelated lines byte-for-byte intact, so comments,
// blank lines and section order survive a rewrite.
package ini

import (
	"sort"
	"strings"
)

// GlobalHeader is the header written when a missing section is bootstrapped.
const GlobalHeader = "[ Global ]"

// Document is an ordered sequence of lines.
type Document []string

// KV is a single key and the literal text placed after "=".
type KV struct {
	Key   string
	Value string
}

// Range is the half-open line range [Start, End) of a section, Start being
// the header line.
type Range struct {
	Start int
	End   int
}

// Parse splits text on "\n". An empty text yields an empty document.
func Parse(text string) Document {
	if text == "" {
		return Document{}
	}
	return Document(strings.Split(text, "\n"))
}

// String joins the lines back with "\n".
func (d Document) String() string {
	return strings.Join(d, "\n")
}

// Updates builds an ordered update batch from a map, keys sorted.
func Updates(m map[string]string) []KV {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]KV, 0, len(keys))
	for _, k := range keys {
		out = append(out, KV{Key: k, Value: m[k]})
	}
	return out
}

// SectionName returns the lowercased name of a header line.
func SectionName(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 2 || !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(trimmed[1 : len(trimmed)-1])), true
}

// FindSection locates the first header named section (case-insensitive).
func FindSection(doc Document, section string) (Range, bool) {
	target := strings.ToLower(strings.TrimSpace(section))
	start := -1
	for i, line := range doc {
		if name, ok := SectionName(line); ok && name == target {
			start = i
			break
		}
	}
	if start < 0 {
		return Range{}, false
	}
	end := len(doc)
	for i := start + 1; i < len(doc); i++ {
		if _, ok := SectionName(doc[i]); ok {
			end = i
			break
		}
	}
	return Range{Start: start, End: end}, true
}

// isSkippable reports comment and blank lines.
func isSkippable(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, ";")
}

// splitEntry splits a key line at the first "=".
func splitEntry(line string) (key, value string, ok bool) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

// MatchKey reports whether line assigns key. The key portion is the text
// before the first "=", trimmed, compared case-insensitively.
func MatchKey(line, key string) bool {
	k, _, ok := splitEntry(line)
	if !ok || k == "" {
		return false
	}
	return strings.EqualFold(k, strings.TrimSpace(key))
}

func formatEntry(kv KV) string {
	return kv.Key + " = " + kv.Value
}
