package ini

import (
	"fmt"
	"strings"

	goini "gopkg.in/ini.v1"
)

// Problem is a finding reported by Lint or CrossCheck.
type Problem struct {
	Line    int    `json:"line"`
	Text    string `json:"text"`
	Message string `json:"message"`
}

// Inspect parses text with go-ini for a structured view. Section and key
// names are case-insensitive, as Supermodel treats them. Headers are
// rewritten without the inner padding Supermodel writes ("[ Global ]").
func Inspect(text string) (*goini.File, error) {
	f, err := goini.LoadSources(goini.LoadOptions{
		Insensitive:             true,
		SkipUnrecognizableLines: true,
		AllowShadows:            true,
		IgnoreInlineComment:     true,
		IgnoreContinuation:      true,
		PreserveSurroundedQuote: true,
		KeyValueDelimiters:      "=",
	}, []byte(compactHeaders(Parse(text)).String()))
	if err != nil {
		return nil, fmt.Errorf("inspect ini: %w", err)
	}
	return f, nil
}

func compactHeaders(doc Document) Document {
	out := make(Document, len(doc))
	for i, line := range doc {
		if name, ok := SectionName(line); ok {
			out[i] = "[" + name + "]"
			continue
		}
		out[i] = line
	}
	return out
}

// CrossCheck compares doc with the go-ini view of the same text. It reports
// keys go-ini sees that the editor cannot reach, which happens when a
// section header is repeated, and keys the two parsers read differently.
func CrossCheck(doc Document) ([]Problem, error) {
	f, err := Inspect(doc.String())
	if err != nil {
		return nil, err
	}
	var problems []Problem
	for _, sec := range f.Sections() {
		// keys before the first header are reported by Lint
		if strings.EqualFold(sec.Name(), goini.DefaultSection) {
			continue
		}
		for _, key := range sec.Keys() {
			if key.Name() == "" {
				continue
			}
			got, ok := ReadKey(doc, sec.Name(), key.Name())
			if !ok {
				line := strayLine(doc, sec.Name(), key.Name())
				problems = append(problems, Problem{
					Line:    line + 1,
					Text:    lineText(doc, line),
					Message: fmt.Sprintf("key %q is under a repeated [%s] header and is never read", key.Name(), sec.Name()),
				})
				continue
			}
			if want := key.Value(); got != want {
				line := strayLine(doc, sec.Name(), key.Name())
				problems = append(problems, Problem{
					Line:    line + 1,
					Text:    lineText(doc, line),
					Message: fmt.Sprintf("key %q in [%s] reads as %q here and %q in other ini readers", key.Name(), sec.Name(), got, want),
				})
			}
		}
	}
	return problems, nil
}

// strayLine returns the index of the first line assigning key in a section
// named section, preferring lines outside the section's first range.
func strayLine(doc Document, section, key string) int {
	first, _ := FindSection(doc, section)
	target := strings.ToLower(section)
	current := ""
	fallback := -1
	for i, line := range doc {
		if name, ok := SectionName(line); ok {
			current = name
			continue
		}
		if current != target || isSkippable(line) || !MatchKey(line, key) {
			continue
		}
		if i < first.Start || i >= first.End {
			return i
		}
		if fallback < 0 {
			fallback = i
		}
	}
	return fallback
}

func lineText(doc Document, i int) string {
	if i < 0 || i >= len(doc) {
		return ""
	}
	return doc[i]
}

// Lint reports lines the editor cannot address: key lines outside any
// section, lines without "=" and keys assigned more than once in a section
// (only the first one is ever rewritten).
func Lint(doc Document) []Problem {
	var problems []Problem
	section := ""
	inSection := false
	seen := map[string]int{}
	for i, line := range doc {
		if name, ok := SectionName(line); ok {
			section = name
			inSection = true
			seen = map[string]int{}
			continue
		}
		if isSkippable(line) {
			continue
		}
		k, _, ok := splitEntry(line)
		if !ok || k == "" {
			problems = append(problems, Problem{Line: i + 1, Text: line, Message: "not a key = value line"})
			continue
		}
		if !inSection {
			problems = append(problems, Problem{Line: i + 1, Text: line, Message: "key outside of any section"})
		}
		lk := strings.ToLower(k)
		if first, dup := seen[lk]; dup {
			problems = append(problems, Problem{
				Line:    i + 1,
				Text:    line,
				Message: fmt.Sprintf("duplicate key %q in section %q, first set on line %d", k, section, first),
			})
			continue
		}
		seen[lk] = i + 1
	}
	return problems
}
