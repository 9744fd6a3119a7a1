package launch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/super3/internal/catalog"
	"github.com/xxxsen/super3/internal/config"
	"github.com/xxxsen/super3/internal/db"
	"github.com/xxxsen/super3/internal/library"
	"github.com/xxxsen/super3/internal/storage"
)

type memLedger struct {
	entries []db.RomCacheEntry
}

func (m *memLedger) Lookup(_ context.Context, location string) (db.RomCacheEntry, bool, error) {
	for _, e := range m.entries {
		if e.Location == location {
			return e, true, nil
		}
	}
	return db.RomCacheEntry{}, false, nil
}

func (m *memLedger) Upsert(_ context.Context, e db.RomCacheEntry) error {
	for i := range m.entries {
		if m.entries[i].Location == e.Location {
			m.entries[i] = e
			return nil
		}
	}
	m.entries = append(m.entries, e)
	return nil
}

type fakeRemote struct {
	data      map[string]string
	downloads []string

	// started and release pause a download until the test lets it go
	started chan struct{}
	release chan struct{}
}

func (f *fakeRemote) List(context.Context, string) ([]storage.Object, error) {
	return nil, nil
}

func (f *fakeRemote) UploadFile(context.Context, string, string, string) error {
	return nil
}

func (f *fakeRemote) DownloadToFile(_ context.Context, key, dest string) error {
	f.downloads = append(f.downloads, key)
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(f.data[key]), 0o644)
}

type fixture struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	index   library.Index
}

func newFixture(t *testing.T, archives map[string]string) fixture {
	t.Helper()
	games := t.TempDir()
	for name, body := range archives {
		require.NoError(t, os.WriteFile(filepath.Join(games, name+".zip"), []byte(body), 0o644))
	}
	data := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(data, "Config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "Config", "Supermodel.ini"), []byte("[ Global ]\n"), 0o644))

	cfg := &config.Config{GamesDir: games, DataDir: data, InternalRoot: t.TempDir()}
	cfg.ApplyDefaults()
	idx, err := library.Scan(games, cfg.ArchiveExt)
	require.NoError(t, err)
	c := catalog.NewCatalog([]catalog.GameDefinition{
		{Name: "scudplus", DisplayName: "Scud Race Plus", Parent: "scud"},
		{Name: "scud", DisplayName: "Scud Race"},
	})
	return fixture{cfg: cfg, catalog: c, index: idx}
}

func TestPrepareCopiesRequiredArchives(t *testing.T) {
	fx := newFixture(t, map[string]string{"scud": "parent", "scudplus": "clone"})
	ledger := &memLedger{}
	p := NewPreparer(fx.cfg, fx.catalog, fx.index, WithLedger(ledger))

	game, _ := fx.catalog.Lookup("scudplus")
	req, err := p.Prepare(context.Background(), game)
	require.NoError(t, err)

	cache := filepath.Join(fx.cfg.InternalRoot, "romcache")
	assert.Equal(t, filepath.Join(cache, "scudplus.zip"), req.RomPath)
	assert.Equal(t, "scudplus", req.GameName)
	assert.Equal(t, filepath.Join(fx.cfg.InternalRoot, "Config", "Games.xml"), req.GamesXMLPath)
	assert.Equal(t, fx.cfg.InternalRoot, req.UserDataRoot)

	data, err := os.ReadFile(filepath.Join(cache, "scud.zip"))
	require.NoError(t, err)
	assert.Equal(t, "parent", string(data))
	assert.FileExists(t, filepath.Join(fx.cfg.InternalRoot, "Config", "Supermodel.ini"))

	assert.Len(t, ledger.entries, 2)
	assert.Equal(t, int64(2), p.Progress().Done.Load())
	assert.Equal(t, 1.0, p.Progress().Fraction.Load())
	assert.Equal(t, int64(len("parent")+len("clone")), p.Progress().Bytes.Load())

	// a second run finds same-size copies and skips them
	before := p.Progress().Bytes.Load()
	_, err = p.Prepare(context.Background(), game)
	require.NoError(t, err)
	assert.Len(t, ledger.entries, 2)
	assert.Equal(t, before, p.Progress().Bytes.Load())
}

func TestPrepareAdoptsUnrecordedCache(t *testing.T) {
	fx := newFixture(t, map[string]string{"scud": "parent"})
	cache := filepath.Join(fx.cfg.InternalRoot, "romcache")
	require.NoError(t, os.MkdirAll(cache, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cache, "scud.zip"), []byte("PARENT"), 0o644))

	ledger := &memLedger{}
	p := NewPreparer(fx.cfg, fx.catalog, fx.index, WithLedger(ledger))
	game, _ := fx.catalog.Lookup("scud")
	_, err := p.Prepare(context.Background(), game)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(cache, "scud.zip"))
	require.NoError(t, err)
	assert.Equal(t, "PARENT", string(data), "same size copy is reused")
	require.Len(t, ledger.entries, 1)
	assert.Equal(t, filepath.Join(cache, "scud.zip"), ledger.entries[0].Location)
	assert.Zero(t, p.Progress().Bytes.Load())
}

func TestProgressReadableDuringCopy(t *testing.T) {
	fx := newFixture(t, map[string]string{"scudplus": "clone"})
	remote := &fakeRemote{
		data:    map[string]string{"scud.zip": "remote-parent"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	objects := storage.Archives([]storage.Object{{Key: "scud.zip", Size: int64(len("remote-parent"))}}, "", ".zip")
	progress := NewProgress()
	p := NewPreparer(fx.cfg, fx.catalog, fx.index, WithRemote(remote, objects), WithProgress(progress))

	game, _ := fx.catalog.Lookup("scudplus")
	errc := make(chan error, 1)
	go func() {
		_, err := p.Prepare(context.Background(), game)
		errc <- err
	}()

	<-remote.started
	snap := progress.Snapshot()
	assert.Equal(t, int64(2), snap.Total)
	assert.Equal(t, int64(1), snap.Done)
	assert.Equal(t, int64(len("clone")), snap.Bytes)
	assert.Equal(t, 0.5, snap.Fraction)
	close(remote.release)

	require.NoError(t, <-errc)
	snap = progress.Snapshot()
	assert.Equal(t, int64(2), snap.Done)
	assert.Equal(t, 1.0, snap.Fraction)
}

func TestProgressWatch(t *testing.T) {
	progress := NewProgress()
	progress.Total.Store(3)
	progress.Done.Store(1)

	seen := make(chan Snapshot, 64)
	stop := progress.Watch(time.Millisecond, func(s Snapshot) {
		select {
		case seen <- s:
		default:
		}
	})
	first := <-seen
	assert.Equal(t, int64(3), first.Total)

	progress.Done.Store(3)
	stop()
	stop()

	var last Snapshot
	for len(seen) > 0 {
		last = <-seen
	}
	assert.Equal(t, int64(3), last.Done)
}

func TestPrepareRecopiesOnSizeChange(t *testing.T) {
	fx := newFixture(t, map[string]string{"scud": "parent"})
	cache := filepath.Join(fx.cfg.InternalRoot, "romcache")
	require.NoError(t, os.MkdirAll(cache, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cache, "scud.zip"), []byte("stale-longer"), 0o644))

	game, _ := fx.catalog.Lookup("scud")
	_, err := NewPreparer(fx.cfg, fx.catalog, fx.index).Prepare(context.Background(), game)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(cache, "scud.zip"))
	require.NoError(t, err)
	assert.Equal(t, "parent", string(data))
}

func TestPrepareMissingArchives(t *testing.T) {
	fx := newFixture(t, map[string]string{"scudplus": "clone"})
	game, _ := fx.catalog.Lookup("scudplus")
	_, err := NewPreparer(fx.cfg, fx.catalog, fx.index).Prepare(context.Background(), game)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingArchives))

	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"scud"}, missing.Archives)
	assert.Contains(t, err.Error(), "scud.zip")
	assert.NoFileExists(t, filepath.Join(fx.cfg.InternalRoot, "romcache", "scudplus.zip"))
}

func TestPrepareFetchesRemote(t *testing.T) {
	fx := newFixture(t, map[string]string{"scudplus": "clone"})
	remote := &fakeRemote{data: map[string]string{"roms/scud.zip": "remote-parent"}}
	objects := storage.Archives([]storage.Object{{Key: "roms/scud.zip", Size: int64(len("remote-parent"))}}, "roms", ".zip")
	p := NewPreparer(fx.cfg, fx.catalog, fx.index, WithRemote(remote, objects))

	game, _ := fx.catalog.Lookup("scudplus")
	_, err := p.Prepare(context.Background(), game)
	require.NoError(t, err)
	assert.Equal(t, []string{"roms/scud.zip"}, remote.downloads)

	data, err := os.ReadFile(filepath.Join(fx.cfg.InternalRoot, "romcache", "scud.zip"))
	require.NoError(t, err)
	assert.Equal(t, "remote-parent", string(data))

	_, err = p.Prepare(context.Background(), game)
	require.NoError(t, err)
	assert.Len(t, remote.downloads, 1)
}

func TestPrepareCancelled(t *testing.T) {
	fx := newFixture(t, map[string]string{"scud": "parent"})
	fx.cfg.DataDir = ""
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	game, _ := fx.catalog.Lookup("scud")
	_, err := NewPreparer(fx.cfg, fx.catalog, fx.index).Prepare(ctx, game)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestArgs(t *testing.T) {
	req := &Request{RomPath: "/i/romcache/scud.zip", GamesXMLPath: "/i/Config/Games.xml", UserDataRoot: "/i"}
	emu := config.EmulatorConfig{Binary: "supermodel", Args: []string{"-fullscreen"}}
	assert.Equal(t, []string{"-fullscreen", "-game-xml-file=/i/Config/Games.xml", "/i/romcache/scud.zip"}, Args(emu, req))

	cmd := Command(context.Background(), emu, req)
	assert.Equal(t, "/i", cmd.Dir)
	assert.Equal(t, "supermodel", cmd.Args[0])
}
