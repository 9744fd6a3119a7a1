package ini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleIni = `; Supermodel configuration
[ Global ]
VSync = 0
; comment
Network = 0
PortIn=1970

[ scud ]
VSync = 1`

func TestUpdateSectionReplacesInPlace(t *testing.T) {
	doc := Document{"[ Global ]", "VSync = 0", "; comment", "Network = 0"}
	out := UpdateSection(doc, "Global", []KV{{Key: "VSync", Value: "1"}})
	assert.Equal(t, Document{"[ Global ]", "VSync = 1", "; comment", "Network = 0"}, out)
	assert.Equal(t, "VSync = 0", doc[1], "input must not be mutated")
}

func TestUpdateSectionCaseInsensitive(t *testing.T) {
	doc := Parse(sampleIni)
	out := UpdateSection(doc, "GLOBAL", []KV{{Key: "portin", Value: "2000"}})
	assert.Equal(t, "portin = 2000", out[5])
	v, ok := ReadKey(out, "global", "PortIn")
	require.True(t, ok)
	assert.Equal(t, "2000", v)

	// the scud section keeps its own VSync
	v, ok = ReadKey(out, "scud", "vsync")
	require.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestUpdateSectionAppendsBeforeBoundary(t *testing.T) {
	doc := Parse(sampleIni)
	out := UpdateSection(doc, "global", []KV{{Key: "SoundVolume", Value: "80"}})
	require.Len(t, out, len(doc)+1)
	assert.Equal(t, "", out[6])
	assert.Equal(t, "SoundVolume = 80", out[7])
	assert.Equal(t, "[ scud ]", out[8])
}

func TestUpdateSectionBootstrapEmpty(t *testing.T) {
	out := UpdateSection(Parse(""), "global", []KV{{Key: "VSync", Value: "1"}, {Key: "Network", Value: "0"}})
	assert.Equal(t, Document{"[ Global ]", "VSync = 1", "Network = 0"}, out)
}

func TestUpdateSectionBootstrapSeparator(t *testing.T) {
	out := UpdateSection(Document{"[ scud ]", "VSync = 1"}, "global", []KV{{Key: "A", Value: "1"}})
	assert.Equal(t, Document{"[ scud ]", "VSync = 1", "", "[ Global ]", "A = 1"}, out)

	out = UpdateSection(Document{"; only a comment", ""}, "global", []KV{{Key: "A", Value: "1"}})
	assert.Equal(t, Document{"; only a comment", "", "[ Global ]", "A = 1"}, out)
}

func TestUpdateSectionZeroUpdates(t *testing.T) {
	doc := Parse(sampleIni)
	assert.Equal(t, doc, UpdateSection(doc, "global", nil))
}

func TestUpdateSectionIdempotent(t *testing.T) {
	doc := Parse(sampleIni)
	updates := Updates(map[string]string{"VSync": "1", "AddressOut": `"10.0.0.2"`, "Network": "1"})
	once := UpdateSection(doc, "global", updates)
	twice := UpdateSection(once, "global", updates)
	assert.Equal(t, once, twice)
}

func TestUpdateSectionStaleDuplicatesUntouched(t *testing.T) {
	doc := Document{"[ Global ]", "VSync = 0", "VSync = 0"}
	out := UpdateSection(doc, "global", []KV{{Key: "VSync", Value: "1"}})
	assert.Equal(t, Document{"[ Global ]", "VSync = 1", "VSync = 0"}, out)
}

func TestUpdateSectionDuplicateBatchKeys(t *testing.T) {
	doc := Document{"[ Global ]"}
	out := UpdateSection(doc, "global", []KV{{Key: "VSync", Value: "1"}, {Key: "vsync", Value: "0"}})
	assert.Equal(t, Document{"[ Global ]", "VSync = 1"}, out)
}

func TestUpdateSectionPrefixKeys(t *testing.T) {
	doc := Document{"[ Global ]", "PortIn = 1970", "PortOut = 1971"}
	out := UpdateSection(doc, "global", []KV{{Key: "Port", Value: "1"}})
	assert.Equal(t, Document{"[ Global ]", "PortIn = 1970", "PortOut = 1971", "Port = 1"}, out)
}

func TestUpdateSectionPreservesOrder(t *testing.T) {
	doc := Parse(sampleIni)
	out := UpdateSection(doc, "global", []KV{{Key: "Network", Value: "1"}})
	require.Len(t, out, len(doc))
	for i := range doc {
		if i == 4 {
			assert.Equal(t, "Network = 1", out[i])
			continue
		}
		assert.Equal(t, doc[i], out[i])
	}
}

func TestReadKeyFallsBackToDocument(t *testing.T) {
	doc := Document{"VSync = 1", "[ scud ]", "Network=1"}
	v, ok := ReadKey(doc, "global", "network")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = ReadKey(doc, "scud", "VSync")
	assert.False(t, ok)
}

func TestReadKeySkipsComments(t *testing.T) {
	doc := Document{"[ Global ]", "; VSync = 1", "  ", "VSync = 0"}
	v, ok := ReadKey(doc, "global", "VSync")
	require.True(t, ok)
	assert.Equal(t, "0", v)
}

func TestTypedReaders(t *testing.T) {
	doc := Document{
		"[ Global ]",
		"PortIn = 1970",
		"PortOut = abc",
		"VSync = On",
		"Network = maybe",
		`AddressOut = ""127.0.0.1""`,
		"Value = a=b",
	}

	n, ok := ReadInt(doc, "global", "PortIn")
	assert.True(t, ok)
	assert.Equal(t, 1970, n)

	_, ok = ReadInt(doc, "global", "PortOut")
	assert.False(t, ok)

	b, ok := ReadBool(doc, "global", "VSync")
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = ReadBool(doc, "global", "Network")
	assert.False(t, ok)

	s, ok := ReadUnquoted(doc, "global", "AddressOut")
	assert.True(t, ok)
	assert.Equal(t, `"127.0.0.1"`, s)

	s, ok = ReadKey(doc, "global", "Value")
	assert.True(t, ok)
	assert.Equal(t, "a=b", s)
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in    string
		value bool
		ok    bool
	}{
		{"1", true, true},
		{"TRUE", true, true},
		{"yes", true, true},
		{" on ", true, true},
		{"0", false, true},
		{"False", false, true},
		{"no", false, true},
		{"OFF", false, true},
		{"2", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		v, ok := ParseBool(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.value, v, tt.in)
	}
}

func TestParseRoundTrip(t *testing.T) {
	text := "[ Global ]\r\nVSync = 1\n\n"
	doc := Parse(text)
	assert.Len(t, doc, 4)
	assert.Equal(t, text, doc.String())
	assert.Empty(t, Parse(""))
}

func TestSectionsAndEntries(t *testing.T) {
	doc := Parse(sampleIni)
	assert.Equal(t, []string{"Global", "scud"}, Sections(doc))
	assert.Equal(t, []KV{
		{Key: "VSync", Value: "0"},
		{Key: "Network", Value: "0"},
		{Key: "PortIn", Value: "1970"},
	}, Entries(doc, "global"))
	assert.Nil(t, Entries(doc, "missing"))
}
