package catalog

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/beevik/etree"

	"github.com/xxxsen/super3/internal/dat"
)

// FromFBNeo converts a FinalBurn Neo DAT. romof names the archive a set
// borrows ROMs from; cloneof is used when romof is absent.
func FromFBNeo(df *dat.DataFile) *Catalog {
	if df == nil {
		return NewCatalog(nil)
	}
	defs := make([]GameDefinition, 0, len(df.Games))
	for _, g := range df.Games {
		defs = append(defs, GameDefinition{
			Name:         g.Name,
			DisplayName:  strings.TrimSpace(g.Description),
			Parent:       g.Parent(),
			Manufacturer: strings.TrimSpace(g.Manufacturer),
			Year:         strings.TrimSpace(g.Year),
		})
	}
	return NewCatalog(defs)
}

// FromMame converts a MAME DAT, skipping devices and non runnable machines.
func FromMame(df *dat.MameDataFile) *Catalog {
	if df == nil {
		return NewCatalog(nil)
	}
	defs := make([]GameDefinition, 0, len(df.Machines))
	for _, m := range df.Machines {
		if !m.Playable() {
			continue
		}
		defs = append(defs, GameDefinition{
			Name:         m.Name,
			DisplayName:  strings.TrimSpace(m.Description),
			Parent:       m.Parent(),
			Manufacturer: strings.TrimSpace(m.Manufacturer),
			Year:         strings.TrimSpace(m.Year),
		})
	}
	return NewCatalog(defs)
}

// Load reads a catalog file, detecting Games.xml, FinalBurn Neo and MAME
// DAT layouts by their root element.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	kind, err := sniff(data)
	if err != nil {
		return nil, fmt.Errorf("detect catalog %s: %w", path, err)
	}
	switch kind {
	case kindGamesXML:
		return LoadGamesXML(bytes.NewReader(data))
	case kindMame:
		df, err := dat.NewMameParser().Parse(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return FromMame(df), nil
	default:
		df, err := dat.NewParser().Parse(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return FromFBNeo(df), nil
	}
}

type fileKind int

const (
	kindGamesXML fileKind = iota
	kindFBNeo
	kindMame
)

func sniff(data []byte) (fileKind, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	if err := doc.ReadFromBytes(data); err != nil {
		return 0, err
	}
	root := doc.Root()
	if root == nil {
		return 0, fmt.Errorf("empty document")
	}
	switch root.Tag {
	case gamesElement:
		return kindGamesXML, nil
	case "datafile":
		if root.SelectElement("machine") != nil {
			return kindMame, nil
		}
		return kindFBNeo, nil
	}
	return 0, fmt.Errorf("unsupported root element <%s>", root.Tag)
}
