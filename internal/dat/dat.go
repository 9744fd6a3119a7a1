// Package dat decodes Logiqx style ROM management datafiles as shipped by
// FinalBurn Neo and MAME.
package dat

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// Rom describes a single ROM file entry.
type Rom struct {
	Name   string `xml:"name,attr"`
	Size   int64  `xml:"size,attr,omitempty"`
	CRC    string `xml:"crc,attr,omitempty"`
	SHA1   string `xml:"sha1,attr,omitempty"`
	Merge  string `xml:"merge,attr,omitempty"`
	Status string `xml:"status,attr,omitempty"`
}

// NoDump reports roms that are known to be missing from every dump.
func (r Rom) NoDump() bool {
	return strings.EqualFold(r.Status, "nodump")
}

// Header is the datafile banner. Only the identifying fields are kept.
type Header struct {
	Name    string `xml:"name"`
	Version string `xml:"version"`
	Date    string `xml:"date"`
}

// Set holds the attributes FinalBurn Neo games and MAME machines share.
type Set struct {
	Name         string `xml:"name,attr"`
	CloneOf      string `xml:"cloneof,attr,omitempty"`
	RomOf        string `xml:"romof,attr,omitempty"`
	IsBios       string `xml:"isbios,attr,omitempty"`
	Description  string `xml:"description"`
	Year         string `xml:"year"`
	Manufacturer string `xml:"manufacturer"`
	Driver       struct {
		Status string `xml:"status,attr"`
	} `xml:"driver"`
	Roms []Rom `xml:"rom"`
}

// Parent is the archive the set borrows ROMs from. romof wins over cloneof.
func (s Set) Parent() string {
	if p := strings.TrimSpace(s.RomOf); p != "" {
		return p
	}
	return strings.TrimSpace(s.CloneOf)
}

// Bios reports sets flagged isbios="yes".
func (s Set) Bios() bool {
	return yes(s.IsBios)
}

func (s Set) romSet() RomSet {
	return RomSet{Name: s.Name, Parent: s.Parent(), Roms: s.Roms}
}

// RomSet is the format independent view of one set: its name, the set it
// takes ROMs from and the ROMs expected inside its own archive.
type RomSet struct {
	Name   string
	Parent string
	Roms   []Rom
}

// RomSetSource is implemented by both datafile flavours.
type RomSetSource interface {
	RomSets() []RomSet
}

// ParseAnyFile decodes path as a MAME datafile when it lists <machine>
// entries and as a FinalBurn Neo datafile otherwise.
func ParseAnyFile(path string) (RomSetSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dat %s: %w", path, err)
	}
	return ParseAny(bytes.NewReader(data))
}

// ParseAny is ParseAnyFile for an in-memory reader.
func ParseAny(r io.Reader) (RomSetSource, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dat: %w", err)
	}
	if bytes.Contains(data, []byte("<machine")) {
		df, err := NewMameParser().Parse(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return df, nil
	}
	df, err := NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return df, nil
}

func decode[T any](r io.Reader, flavour string) (*T, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false // datafiles reference a DTD
	out := new(T)
	if err := decoder.Decode(out); err != nil {
		return nil, fmt.Errorf("decode %s dat: %w", flavour, err)
	}
	return out, nil
}

func decodeFile[T any](path, flavour string) (*T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s dat %s: %w", flavour, path, err)
	}
	defer f.Close()
	return decode[T](f, flavour)
}

func yes(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "yes")
}
