package ini

import (
	"strconv"
	"strings"
)

// UpdateSection applies updates to the named section and returns the new
// document. The input is not modified.
//
// Existing keys are rewritten in place as "key = value" (first occurrence
// only), keys not found are appended just before the section's end boundary.
// When the section does not exist a "[ Global ]" section holding all updates
// is appended, separated by a blank line when the document ends with text.
func UpdateSection(doc Document, section string, updates []KV) Document {
	updates = dedupe(updates)

	r, ok := FindSection(doc, section)
	if !ok {
		out := make(Document, 0, len(doc)+len(updates)+2)
		out = append(out, doc...)
		if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
			out = append(out, "")
		}
		out = append(out, GlobalHeader)
		for _, kv := range updates {
			out = append(out, formatEntry(kv))
		}
		return out
	}

	out := make(Document, 0, len(doc)+len(updates))
	out = append(out, doc[:r.Start+1]...)

	written := make(map[string]struct{}, len(updates))
	for _, line := range doc[r.Start+1 : r.End] {
		if isSkippable(line) {
			out = append(out, line)
			continue
		}
		replaced := false
		for _, kv := range updates {
			if !MatchKey(line, kv.Key) {
				continue
			}
			if _, done := written[strings.ToLower(kv.Key)]; done {
				break
			}
			out = append(out, formatEntry(kv))
			written[strings.ToLower(kv.Key)] = struct{}{}
			replaced = true
			break
		}
		if !replaced {
			out = append(out, line)
		}
	}

	for _, kv := range updates {
		if _, done := written[strings.ToLower(kv.Key)]; done {
			continue
		}
		out = append(out, formatEntry(kv))
	}

	out = append(out, doc[r.End:]...)
	return out
}

func dedupe(updates []KV) []KV {
	seen := make(map[string]struct{}, len(updates))
	out := make([]KV, 0, len(updates))
	for _, kv := range updates {
		lk := strings.ToLower(kv.Key)
		if _, ok := seen[lk]; ok {
			continue
		}
		seen[lk] = struct{}{}
		out = append(out, kv)
	}
	return out
}

// bodyRange is the range searched by the readers: the section body, or the
// whole document when the section is missing.
func bodyRange(doc Document, section string) (int, int) {
	if r, ok := FindSection(doc, section); ok {
		return r.Start + 1, r.End
	}
	return 0, len(doc)
}

// ReadKey returns the trimmed value of the first line assigning key.
func ReadKey(doc Document, section, key string) (string, bool) {
	start, end := bodyRange(doc, section)
	for _, line := range doc[start:end] {
		if isSkippable(line) {
			continue
		}
		if MatchKey(line, key) {
			_, value, _ := splitEntry(line)
			return value, true
		}
	}
	return "", false
}

// ReadInt parses the value of key as a base 10 integer.
func ReadInt(doc Document, section, key string) (int, bool) {
	raw, ok := ReadKey(doc, section, key)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return v, true
}

// ReadBool accepts 1/true/yes/on and 0/false/no/off, case-insensitive.
func ReadBool(doc Document, section, key string) (bool, bool) {
	raw, ok := ReadKey(doc, section, key)
	if !ok {
		return false, false
	}
	return ParseBool(raw)
}

// ParseBool is the token table used by ReadBool.
func ParseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

// ReadUnquoted returns the value with surrounding double quotes stripped.
func ReadUnquoted(doc Document, section, key string) (string, bool) {
	raw, ok := ReadKey(doc, section, key)
	if !ok {
		return "", false
	}
	return Unquote(raw), true
}

// Unquote strips one leading and one trailing '"'.
func Unquote(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}

// Sections lists header names in document order, as written.
func Sections(doc Document) []string {
	var out []string
	for _, line := range doc {
		if _, ok := SectionName(line); ok {
			trimmed := strings.TrimSpace(line)
			out = append(out, strings.TrimSpace(trimmed[1:len(trimmed)-1]))
		}
	}
	return out
}

// Entries lists the key lines of a section in order. Duplicates are kept.
func Entries(doc Document, section string) []KV {
	r, ok := FindSection(doc, section)
	if !ok {
		return nil
	}
	var out []KV
	for _, line := range doc[r.Start+1 : r.End] {
		if isSkippable(line) {
			continue
		}
		k, v, ok := splitEntry(line)
		if !ok || k == "" {
			continue
		}
		out = append(out, KV{Key: k, Value: v})
	}
	return out
}
