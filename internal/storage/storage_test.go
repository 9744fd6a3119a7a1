package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArchives(t *testing.T) {
	objects := []Object{
		{Key: "roms/scud.zip", Size: 10},
		{Key: "roms/VF3.ZIP", Size: 20},
		{Key: "roms/readme.txt", Size: 1},
		{Key: "roms/old/scud.zip", Size: 5},
		{Key: "roms/.zip", Size: 1},
	}
	got := Archives(objects, "roms", ".zip")
	assert.Len(t, got, 2)
	assert.Equal(t, int64(10), got["scud"].Size)
	assert.Equal(t, "roms/VF3.ZIP", got["VF3"].Key)
	assert.Equal(t, "VF3", got["VF3"].Name)
}

func TestArchivesPrefixIsDirectory(t *testing.T) {
	objects := []Object{
		{Key: "roms/scud.zip", Size: 10},
		{Key: "romsx.zip", Size: 3},
		{Key: "romset/vf3.zip", Size: 4},
		{Key: "lemans.zip", Size: 5},
	}
	for _, prefix := range []string{"roms", "roms/", "/roms/"} {
		got := Archives(objects, prefix, ".zip")
		assert.Len(t, got, 1, prefix)
		assert.Contains(t, got, "scud", prefix)
	}

	root := Archives(objects, "", ".zip")
	assert.Len(t, root, 2)
	assert.Contains(t, root, "romsx")
	assert.Contains(t, root, "lemans")
}

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "scud.zip", JoinKey("", "scud.zip"))
	assert.Equal(t, "roms/scud.zip", JoinKey("/roms/", "scud.zip"))
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := map[string]string{
		"":                      "",
		"  ":                    "",
		"s3.local:9000":         "https://s3.local:9000",
		"http://minio:9000":     "http://minio:9000",
		"https://s3.amazon.com": "https://s3.amazon.com",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeEndpoint(in), in)
	}
}
