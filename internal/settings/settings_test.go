package settings

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/super3/internal/ini"
)

func valueOf(t *testing.T, values []Value, key string) Value {
	t.Helper()
	for _, v := range values {
		if v.Setting.Key == key {
			return v
		}
	}
	t.Fatalf("setting %s not loaded", key)
	return Value{}
}

func TestLoadDefaults(t *testing.T) {
	values := Load(ini.Parse(""))
	require.Len(t, values, len(Schema()))

	assert.Equal(t, 50, valueOf(t, values, "PowerPCFrequency").Int)
	assert.True(t, valueOf(t, values, "MultiThreaded").Bool)
	assert.False(t, valueOf(t, values, "GPUMultiThreaded").Bool)
	assert.Equal(t, 150, valueOf(t, values, "MusicVolume").Int)
	assert.Equal(t, "127.0.0.1", valueOf(t, values, "AddressOut").Str)
	assert.Equal(t, 1971, valueOf(t, values, "PortOut").Int)
	assert.False(t, valueOf(t, values, "PortOut").Present)
}

func TestLoadFromDocument(t *testing.T) {
	doc := ini.Document{
		"[ Global ]",
		"VSync = off",
		"PortIn = 70000",
		"SoundVolume = 300",
		`AddressOut = "192.168.1.4"`,
		"Network = bogus",
	}
	values := Load(doc)

	vsync := valueOf(t, values, "VSync")
	assert.True(t, vsync.Present)
	assert.False(t, vsync.Bool)

	assert.Equal(t, 65535, valueOf(t, values, "PortIn").Int, "ports are clamped on read")
	assert.Equal(t, 300, valueOf(t, values, "SoundVolume").Int, "volumes are shown as stored")
	assert.Equal(t, "192.168.1.4", valueOf(t, values, "AddressOut").Str)

	network := valueOf(t, values, "Network")
	assert.False(t, network.Present)
	assert.False(t, network.Bool)
}

func TestApplyInt(t *testing.T) {
	doc := ini.Document{"[ Global ]", "SoundVolume = 100"}
	out, v, err := Apply(doc, "soundvolume", " 250 ")
	require.NoError(t, err)
	assert.True(t, v.Clamped)
	assert.Equal(t, 200, v.Int)
	assert.Equal(t, ini.Document{"[ Global ]", "SoundVolume = 200"}, out)

	_, _, err = Apply(doc, "SoundVolume", "loud")
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestApplyBool(t *testing.T) {
	out, v, err := Apply(ini.Parse(""), "VSync", "on")
	require.NoError(t, err)
	assert.True(t, v.Bool)
	assert.Equal(t, ini.Document{"[ Global ]", "VSync = 1"}, out)

	out, _, err = Apply(out, "VSync", "false")
	require.NoError(t, err)
	assert.Equal(t, ini.Document{"[ Global ]", "VSync = 0"}, out)
}

func TestApplyString(t *testing.T) {
	doc := ini.Document{"[ Global ]", `AddressOut = "127.0.0.1"`}
	out, v, err := Apply(doc, "AddressOut", ` "10.0.0.9" `)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.9", v.Str)
	assert.Equal(t, `AddressOut = "10.0.0.9"`, out[1])

	_, _, err = Apply(doc, "AddressOut", `""`)
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestApplyUnknown(t *testing.T) {
	doc := ini.Document{"[ Global ]"}
	out, _, err := Apply(doc, "Fullscreen", "1")
	assert.True(t, errors.Is(err, ErrUnknownSetting))
	assert.Equal(t, doc, out)
}

func TestValueRender(t *testing.T) {
	s, ok := Lookup("addressout")
	require.True(t, ok)
	v := Value{Setting: s, Str: "1.2.3.4"}
	assert.Equal(t, `"1.2.3.4"`, v.Raw())
	assert.Equal(t, "1.2.3.4", v.Display())

	s, _ = Lookup("VSync")
	assert.Equal(t, "off", Value{Setting: s}.Display())
	assert.Equal(t, "0", Value{Setting: s}.Raw())
}
