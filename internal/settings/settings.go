// Package settings exposes the typed "easy settings" of Supermodel.ini.
package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xxxsen/super3/internal/ini"
)

// Section is the INI section all easy settings live in.
const Section = "global"

// Kind is the value type of a setting.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	}
	return "unknown"
}

var (
	ErrUnknownSetting = errors.New("unknown setting")
	ErrInvalidValue   = errors.New("invalid value")
)

// Setting describes one entry of the easy settings schema.
type Setting struct {
	Key         string
	Title       string
	Kind        Kind
	DefaultInt  int
	DefaultBool bool
	DefaultStr  string
	Min         int
	Max         int
	// ClampOnRead forces stored ints into [Min, Max] when displayed.
	ClampOnRead bool
}

// Value is the effective value of a setting in a document.
type Value struct {
	Setting Setting
	Int     int
	Bool    bool
	Str     string
	// Present is false when the document does not hold a usable value and
	// the default is shown.
	Present bool
	// Clamped is set by Apply when the requested int was out of range.
	Clamped bool
}

// Display renders the value the way it is shown to the user.
func (v Value) Display() string {
	switch v.Setting.Kind {
	case KindInt:
		return strconv.Itoa(v.Int)
	case KindBool:
		if v.Bool {
			return "on"
		}
		return "off"
	default:
		return v.Str
	}
}

// Raw renders the value as written after "=".
func (v Value) Raw() string {
	switch v.Setting.Kind {
	case KindInt:
		return strconv.Itoa(v.Int)
	case KindBool:
		if v.Bool {
			return "1"
		}
		return "0"
	default:
		return `"` + v.Str + `"`
	}
}

var schema = []Setting{
	{Key: "PowerPCFrequency", Title: "PowerPC frequency", Kind: KindInt, DefaultInt: 50, Min: 10, Max: 200},
	{Key: "MultiThreaded", Title: "Multi-threaded", Kind: KindBool, DefaultBool: true},
	{Key: "GPUMultiThreaded", Title: "GPU multi-threaded", Kind: KindBool, DefaultBool: false},
	{Key: "VSync", Title: "VSync", Kind: KindBool, DefaultBool: true},
	{Key: "EmulateSound", Title: "Emulate sound", Kind: KindBool, DefaultBool: true},
	{Key: "SoundVolume", Title: "Sound volume", Kind: KindInt, DefaultInt: 100, Min: 0, Max: 200},
	{Key: "MusicVolume", Title: "Music volume", Kind: KindInt, DefaultInt: 150, Min: 0, Max: 200},
	{Key: "Network", Title: "Network", Kind: KindBool, DefaultBool: false},
	{Key: "SimulateNet", Title: "Simulate network", Kind: KindBool, DefaultBool: true},
	{Key: "AddressOut", Title: "Target address (AddressOut)", Kind: KindString, DefaultStr: "127.0.0.1"},
	{Key: "PortIn", Title: "Listen port (PortIn)", Kind: KindInt, DefaultInt: 1970, Min: 1, Max: 65535, ClampOnRead: true},
	{Key: "PortOut", Title: "Send port (PortOut)", Kind: KindInt, DefaultInt: 1971, Min: 1, Max: 65535, ClampOnRead: true},
}

// Schema returns the settings in display order.
func Schema() []Setting {
	out := make([]Setting, len(schema))
	copy(out, schema)
	return out
}

// Lookup finds a setting by key, case-insensitive.
func Lookup(key string) (Setting, bool) {
	for _, s := range schema {
		if strings.EqualFold(s.Key, strings.TrimSpace(key)) {
			return s, true
		}
	}
	return Setting{}, false
}

// Load reads every setting from doc, falling back to defaults.
func Load(doc ini.Document) []Value {
	out := make([]Value, 0, len(schema))
	for _, s := range schema {
		out = append(out, Read(doc, s))
	}
	return out
}

// Read reads a single setting from doc.
func Read(doc ini.Document, s Setting) Value {
	v := Value{Setting: s}
	switch s.Kind {
	case KindInt:
		n, ok := ini.ReadInt(doc, Section, s.Key)
		if !ok {
			v.Int = s.DefaultInt
			return v
		}
		if s.ClampOnRead {
			n = clamp(n, s.Min, s.Max)
		}
		v.Int, v.Present = n, true
	case KindBool:
		b, ok := ini.ReadBool(doc, Section, s.Key)
		if !ok {
			v.Bool = s.DefaultBool
			return v
		}
		v.Bool, v.Present = b, true
	case KindString:
		str, ok := ini.ReadUnquoted(doc, Section, s.Key)
		if !ok || strings.TrimSpace(str) == "" {
			v.Str = s.DefaultStr
			return v
		}
		v.Str, v.Present = str, true
	}
	return v
}

// Apply parses raw for the setting named key and writes it into the global
// section. Ints are clamped into range, strings are trimmed of quotes and
// written quoted, empty strings and non-numbers are rejected.
func Apply(doc ini.Document, key, raw string) (ini.Document, Value, error) {
	s, ok := Lookup(key)
	if !ok {
		return doc, Value{}, fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	v, err := parse(s, raw)
	if err != nil {
		return doc, Value{}, err
	}
	out := ini.UpdateSection(doc, Section, []ini.KV{{Key: s.Key, Value: v.Raw()}})
	return out, v, nil
}

func parse(s Setting, raw string) (Value, error) {
	v := Value{Setting: s, Present: true}
	trimmed := strings.TrimSpace(raw)
	switch s.Kind {
	case KindInt:
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return Value{}, fmt.Errorf("%w: enter a number between %d and %d", ErrInvalidValue, s.Min, s.Max)
		}
		c := clamp(n, s.Min, s.Max)
		v.Int, v.Clamped = c, c != n
	case KindBool:
		b, ok := ini.ParseBool(trimmed)
		if !ok {
			return Value{}, fmt.Errorf("%w: %s expects on/off, got %q", ErrInvalidValue, s.Key, raw)
		}
		v.Bool = b
	case KindString:
		str := strings.TrimSpace(strings.Trim(trimmed, `"`))
		if str == "" {
			return Value{}, fmt.Errorf("%w: %s cannot be empty", ErrInvalidValue, s.Key)
		}
		v.Str = str
	}
	return v, nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
