package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGamesXML = `<?xml version="1.0" encoding="UTF-8"?>
<games>
  <game name="scud">
    <identity>
      <title>Scud Race</title>
      <version>Twin/DX</version>
      <manufacturer>Sega</manufacturer>
      <year>1996</year>
    </identity>
  </game>
  <game name="scudplus" parent="scud">
    <identity>
      <title>Scud Race Plus</title>
    </identity>
  </game>
  <game name="bare"/>
  <game>
    <identity><title>no name</title></identity>
  </game>
</games>`

func TestLoadGamesXML(t *testing.T) {
	c, err := LoadGamesXML(strings.NewReader(sampleGamesXML))
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())

	scud, ok := c.Lookup("scud")
	require.True(t, ok)
	assert.Equal(t, "Scud Race (Twin/DX)", scud.DisplayName)
	assert.Equal(t, "Sega", scud.Manufacturer)
	assert.Equal(t, "1996", scud.Year)
	assert.Empty(t, scud.Parent)

	plus, _ := c.Lookup("scudplus")
	assert.Equal(t, "Scud Race Plus", plus.DisplayName)
	assert.Equal(t, "scud", plus.Parent)
	assert.Equal(t, []string{"scudplus", "scud"}, RequiredArchives(c, plus))

	bare, _ := c.Lookup("bare")
	assert.Equal(t, "bare", bare.DisplayName)
}

func TestLoadGamesXMLBadRoot(t *testing.T) {
	_, err := LoadGamesXML(strings.NewReader(`<gamelist/>`))
	assert.Error(t, err)
}

func TestLoadDetectsFormat(t *testing.T) {
	dir := t.TempDir()

	gamesPath := filepath.Join(dir, "Games.xml")
	require.NoError(t, os.WriteFile(gamesPath, []byte(sampleGamesXML), 0o644))
	c, err := Load(gamesPath)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	fbneo := `<?xml version="1.0"?>
<!DOCTYPE datafile PUBLIC "-//FinalBurn Neo//DTD ROM Management Datafile//EN" "http://www.logiqx.com/Dats/datafile.dtd">
<datafile>
	<header><name>fbneo</name></header>
	<game name="mslug2" romof="neogeo"><description>Metal Slug 2</description></game>
	<game name="mslug2t" cloneof="mslug2"><description>Metal Slug 2 Turbo</description></game>
	<game name="neogeo" isbios="yes"><description>Neo Geo</description></game>
</datafile>`
	fbneoPath := filepath.Join(dir, "fbneo.dat")
	require.NoError(t, os.WriteFile(fbneoPath, []byte(fbneo), 0o644))
	c, err = Load(fbneoPath)
	require.NoError(t, err)
	g, ok := c.Lookup("mslug2t")
	require.True(t, ok)
	assert.Equal(t, "Metal Slug 2 Turbo", g.DisplayName)
	assert.Equal(t, []string{"mslug2t", "mslug2", "neogeo"}, RequiredArchives(c, g))

	mame := `<?xml version="1.0"?>
<datafile>
	<header><name>MAME</name></header>
	<machine name="vf3" romof="model3"><description>Virtua Fighter 3</description><year>1996</year></machine>
	<machine name="z80" isdevice="yes"><description>Z80</description></machine>
	<machine name="model3"><description>Model 3 BIOS</description></machine>
</datafile>`
	mamePath := filepath.Join(dir, "mame.dat")
	require.NoError(t, os.WriteFile(mamePath, []byte(mame), 0o644))
	c, err = Load(mamePath)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	g, _ = c.Lookup("vf3")
	assert.Equal(t, "model3", g.Parent)
	assert.Equal(t, "1996", g.Year)

	other := filepath.Join(dir, "other.xml")
	require.NoError(t, os.WriteFile(other, []byte(`<rss/>`), 0o644))
	_, err = Load(other)
	assert.Error(t, err)
}
