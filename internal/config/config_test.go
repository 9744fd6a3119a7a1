package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"internal_root":"/srv/super3","games_dir":"/roms","archive_ext":"7z"}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ".7z", cfg.ArchiveExt)
	assert.Equal(t, filepath.Join("/srv/super3", "cache.db"), cfg.DBPath)
	assert.Equal(t, "en", cfg.Lang)
	assert.Equal(t, "supermodel", cfg.Emulator.Binary)
	assert.False(t, cfg.S3.Enabled())
	assert.False(t, cfg.SetupComplete())
	assert.Equal(t, filepath.Join("/srv/super3", "Config", "Games.xml"), cfg.CatalogFile())
	assert.Equal(t, filepath.Join("/srv/super3", "romcache"), cfg.RomCacheDir())
}

func TestApplyDefaultsArchiveExt(t *testing.T) {
	tests := map[string]string{
		"":      ".zip",
		".ZIP":  ".zip",
		" Zip ": ".zip",
		"7Z":    ".7z",
		".rar":  ".rar",
	}
	for in, want := range tests {
		cfg := Config{InternalRoot: "/srv/super3", ArchiveExt: in}
		cfg.ApplyDefaults()
		assert.Equal(t, want, cfg.ArchiveExt, in)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"missing internal root", Config{}, true},
		{"minimal", Config{InternalRoot: "/x"}, false},
		{"s3 without bucket", Config{InternalRoot: "/x", S3: S3Config{Host: "s3.local"}}, true},
		{"s3 without host", Config{InternalRoot: "/x", S3: S3Config{Bucket: "roms"}}, true},
		{"s3 complete", Config{InternalRoot: "/x", S3: S3Config{Host: "s3.local", Bucket: "roms"}}, false},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		if tt.wantErr {
			assert.Error(t, err, tt.name)
		} else {
			assert.NoError(t, err, tt.name)
		}
	}
}

func TestLoadFirst(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"internal_root":"/x"}`), 0o644))

	cfg, err := LoadFirst("", filepath.Join(dir, "missing.json"), good)
	require.NoError(t, err)
	assert.Equal(t, "/x", cfg.InternalRoot)

	_, err = LoadFirst(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o644))
	_, err = LoadFirst(bad, good)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	in := &Config{InternalRoot: "/x", GamesDir: "/roms", DataDir: "/data"}
	in.ApplyDefaults()
	require.NoError(t, Save(path, in))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.True(t, out.SetupComplete())
}
