package dat

import (
	"encoding/xml"
	"io"
)

// Parser reads FinalBurn Neo DAT files.
type Parser struct{}

// NewParser builds a FinalBurn Neo parser.
func NewParser() Parser {
	return Parser{}
}

// ParseFile parses the DAT at path.
func (Parser) ParseFile(path string) (*DataFile, error) {
	return decodeFile[DataFile](path, "fbneo")
}

// Parse reads DAT XML from r.
func (Parser) Parse(r io.Reader) (*DataFile, error) {
	return decode[DataFile](r, "fbneo")
}

// DataFile is a FinalBurn Neo <datafile>.
type DataFile struct {
	XMLName xml.Name `xml:"datafile"`
	Header  Header   `xml:"header"`
	Games   []Game   `xml:"game"`
}

// Game is one <game> entry.
type Game struct {
	Set
}

// Lookup finds a game by its set name.
func (df *DataFile) Lookup(name string) (Game, bool) {
	if df == nil {
		return Game{}, false
	}
	for _, g := range df.Games {
		if g.Name == name {
			return g, true
		}
	}
	return Game{}, false
}

// RomSets implements RomSetSource. ROMs merged from the parent are kept: a
// split set still lists them, the archive holding them is the parent's.
func (df *DataFile) RomSets() []RomSet {
	if df == nil {
		return nil
	}
	out := make([]RomSet, 0, len(df.Games))
	for _, g := range df.Games {
		out = append(out, g.romSet())
	}
	return out
}
