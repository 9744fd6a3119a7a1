package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

const (
	gamesElement    = "games"
	gameElement     = "game"
	nameAttr        = "name"
	parentAttr      = "parent"
	titlePath       = "identity/title"
	versionPath     = "identity/version"
	manufacturerPth = "identity/manufacturer"
	yearPath        = "identity/year"
)

// LoadGamesXML parses Supermodel's Games.xml:
//
//	<games>
//	  <game name="scudp" parent="scud">
//	    <identity><title>Scud Race Plus</title><version>...</version></identity>
//	  </game>
//	</games>
func LoadGamesXML(r io.Reader) (*Catalog, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("decode games xml: %w", err)
	}
	root := doc.SelectElement(gamesElement)
	if root == nil {
		return nil, fmt.Errorf("decode games xml: missing <%s> root", gamesElement)
	}
	return NewCatalog(gamesFromElement(root)), nil
}

func gamesFromElement(root *etree.Element) []GameDefinition {
	elems := root.SelectElements(gameElement)
	defs := make([]GameDefinition, 0, len(elems))
	for _, el := range elems {
		name := strings.TrimSpace(el.SelectAttrValue(nameAttr, ""))
		if name == "" {
			continue
		}
		defs = append(defs, GameDefinition{
			Name:         name,
			DisplayName:  displayName(name, childText(el, titlePath), childText(el, versionPath)),
			Parent:       strings.TrimSpace(el.SelectAttrValue(parentAttr, "")),
			Manufacturer: childText(el, manufacturerPth),
			Year:         childText(el, yearPath),
		})
	}
	return defs
}

func childText(el *etree.Element, path string) string {
	child := el.FindElement(path)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}

func displayName(name, title, version string) string {
	switch {
	case title != "" && version != "":
		return fmt.Sprintf("%s (%s)", title, version)
	case title != "":
		return title
	default:
		return name
	}
}
