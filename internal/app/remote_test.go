package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/super3/internal/config"
	"github.com/xxxsen/super3/internal/library"
	"github.com/xxxsen/super3/internal/model"
	"github.com/xxxsen/super3/internal/storage"
)

type memStore struct {
	objects  []storage.Object
	uploaded map[string]string
}

func (m *memStore) List(context.Context, string) ([]storage.Object, error) {
	return m.objects, nil
}

func (m *memStore) UploadFile(_ context.Context, key, filePath string, _ string) error {
	if m.uploaded == nil {
		m.uploaded = map[string]string{}
	}
	m.uploaded[key] = filePath
	return nil
}

func (m *memStore) DownloadToFile(context.Context, string, string) error {
	return nil
}

func TestPushArchives(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{"scud.zip": "1234", "vf3.zip": "12", "lemans.zip": "1"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	idx, err := library.Scan(dir, ".zip")
	require.NoError(t, err)

	cfg := &config.Config{InternalRoot: dir, S3: config.S3Config{Host: "h", Bucket: "b", Prefix: "roms"}}
	cfg.ApplyDefaults()
	store := &memStore{objects: []storage.Object{
		{Key: "roms/scud.zip", Size: 4},
		{Key: "roms/vf3.zip", Size: 99},
	}}
	objects := storage.Archives(store.objects, "roms", ".zip")

	res, err := pushArchives(context.Background(), store, cfg, idx, objects, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"lemans", "vf3"}, res.Pushed)
	assert.Equal(t, int64(3), res.Bytes)
	assert.True(t, res.DryRun)
	assert.Empty(t, store.uploaded)

	res, err = pushArchives(context.Background(), store, cfg, idx, objects, false)
	require.NoError(t, err)
	assert.Len(t, res.Pushed, 2)
	assert.Equal(t, filepath.Join(dir, "vf3.zip"), store.uploaded["roms/vf3.zip"])
	assert.Contains(t, store.uploaded, "roms/lemans.zip")
}

func TestGamesCommandRemote(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.S3 = config.S3Config{Host: "s3.local", Bucket: "roms"}
	require.NoError(t, config.Save(ConfigPath(), env.cfg))
	storage.SetDefaultClient(&memStore{objects: []storage.Object{{Key: "scudplus.zip", Size: 3}}})
	t.Cleanup(func() { storage.SetDefaultClient(nil) })

	require.NoError(t, runRunner(t, NewGamesCommand(), "--remote", "--launchable"))
	assert.Contains(t, env.out.String(), "scudplus")
}

func TestRemotePushCommandPrintsResult(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.S3 = config.S3Config{Host: "s3.local", Bucket: "roms"}
	require.NoError(t, config.Save(ConfigPath(), env.cfg))
	store := &memStore{objects: []storage.Object{{Key: "vf3.zip", Size: 9}}}
	storage.SetDefaultClient(store)
	t.Cleanup(func() { storage.SetDefaultClient(nil) })

	require.NoError(t, runRunner(t, NewRemotePushCommand(), "--dryrun"))
	var res model.RemotePushResult
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &res))
	assert.Equal(t, []string{"scud"}, res.Pushed)
	assert.True(t, res.DryRun)
	assert.Empty(t, store.uploaded)
}
