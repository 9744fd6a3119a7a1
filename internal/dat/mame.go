package dat

import (
	"encoding/xml"
	"io"
)

// MameParser reads MAME DAT files.
type MameParser struct{}

// NewMameParser builds a MAME parser.
func NewMameParser() MameParser {
	return MameParser{}
}

// ParseFile parses the DAT at path.
func (MameParser) ParseFile(path string) (*MameDataFile, error) {
	return decodeFile[MameDataFile](path, "mame")
}

// Parse reads DAT XML from r.
func (MameParser) Parse(r io.Reader) (*MameDataFile, error) {
	return decode[MameDataFile](r, "mame")
}

// MameDataFile is a MAME <datafile>.
type MameDataFile struct {
	XMLName  xml.Name      `xml:"datafile"`
	Header   Header        `xml:"header"`
	Machines []MameMachine `xml:"machine"`
}

// MameMachine is one <machine> entry. Devices and non runnable machines
// share the list with real sets.
type MameMachine struct {
	Set
	IsDevice string `xml:"isdevice,attr,omitempty"`
	Runnable string `xml:"runnable,attr,omitempty"`
}

// Device reports machines that only exist as components of other drivers.
func (m MameMachine) Device() bool {
	return yes(m.IsDevice)
}

// Playable is false for devices and for machines marked runnable="no".
// BIOS sets are not runnable either but still own an archive.
func (m MameMachine) Playable() bool {
	if m.Device() {
		return false
	}
	return m.Runnable == "" || yes(m.Runnable) || m.Bios()
}

// Lookup finds a machine by its set name.
func (df *MameDataFile) Lookup(name string) (MameMachine, bool) {
	if df == nil {
		return MameMachine{}, false
	}
	for _, m := range df.Machines {
		if m.Name == name {
			return m, true
		}
	}
	return MameMachine{}, false
}

// RomSets implements RomSetSource. Machines without an archive of their
// own are left out.
func (df *MameDataFile) RomSets() []RomSet {
	if df == nil {
		return nil
	}
	out := make([]RomSet, 0, len(df.Machines))
	for _, m := range df.Machines {
		if !m.Playable() {
			continue
		}
		out = append(out, m.romSet())
	}
	return out
}
