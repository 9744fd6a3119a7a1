// Package launch prepares a game for the emulator: user data is mirrored
// into the internal root, the required archives are copied into the rom
// cache and the emulator is started against them.
package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/xxxsen/super3/internal/catalog"
	"github.com/xxxsen/super3/internal/config"
	"github.com/xxxsen/super3/internal/db"
	"github.com/xxxsen/super3/internal/i18n"
	"github.com/xxxsen/super3/internal/library"
	"github.com/xxxsen/super3/internal/storage"
	"github.com/xxxsen/super3/internal/userdata"
)

// ErrMissingArchives is matched by errors.Is on a *MissingError.
var ErrMissingArchives = errors.New("missing required archives")

// MissingError lists the archives a game needs but no source has.
type MissingError struct {
	Game     string
	Archives []string
	Ext      string
}

func (e *MissingError) Error() string {
	names := make([]string, 0, len(e.Archives))
	for _, a := range e.Archives {
		names = append(names, a+e.Ext)
	}
	return i18n.T("MissingRequired", map[string]interface{}{"Archives": strings.Join(names, ", ")})
}

func (e *MissingError) Unwrap() error {
	return ErrMissingArchives
}

// Ledger records archives copied into the rom cache.
type Ledger interface {
	Lookup(ctx context.Context, location string) (db.RomCacheEntry, bool, error)
	Upsert(ctx context.Context, entry db.RomCacheEntry) error
}

// Request is what the emulator is started with.
type Request struct {
	RomPath      string `json:"rom_path"`
	GameName     string `json:"game_name"`
	GamesXMLPath string `json:"games_xml_path"`
	UserDataRoot string `json:"user_data_root"`
}

// Progress tracks the archive copies of one Prepare call. It is safe to
// read from another goroutine.
type Progress struct {
	Total    *atomic.Int64
	Done     *atomic.Int64
	Bytes    *atomic.Int64
	Fraction *atomic.Float64
}

// NewProgress returns zeroed counters.
func NewProgress() *Progress {
	return &Progress{
		Total:    atomic.NewInt64(0),
		Done:     atomic.NewInt64(0),
		Bytes:    atomic.NewInt64(0),
		Fraction: atomic.NewFloat64(0),
	}
}

// Snapshot is a point-in-time copy of Progress.
type Snapshot struct {
	Total    int64
	Done     int64
	Bytes    int64
	Fraction float64
}

// Snapshot reads every counter once.
func (p *Progress) Snapshot() Snapshot {
	return Snapshot{
		Total:    p.Total.Load(),
		Done:     p.Done.Load(),
		Bytes:    p.Bytes.Load(),
		Fraction: p.Fraction.Load(),
	}
}

// Watch calls report with a snapshot every interval from its own goroutine
// until the returned stop func is called. stop reports once more and waits
// for the goroutine to exit.
func (p *Progress) Watch(interval time.Duration, report func(Snapshot)) (stop func()) {
	if interval <= 0 {
		interval = time.Second
	}
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				report(p.Snapshot())
			case <-done:
				report(p.Snapshot())
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-exited
		})
	}
}

func (p *Progress) step() {
	done := p.Done.Inc()
	if total := p.Total.Load(); total > 0 {
		p.Fraction.Store(float64(done) / float64(total))
	}
}

// Preparer resolves and stages games from a catalog.
type Preparer struct {
	cfg      *config.Config
	catalog  *catalog.Catalog
	index    library.Index
	remote   storage.Client
	objects  map[string]storage.Object
	ledger   Ledger
	progress *Progress
}

// Option customises a Preparer.
type Option func(*Preparer)

// WithRemote adds a remote source for archives absent from the games folder.
func WithRemote(client storage.Client, objects map[string]storage.Object) Option {
	return func(p *Preparer) {
		p.remote = client
		p.objects = objects
	}
}

// WithLedger records every copy in l.
func WithLedger(l Ledger) Option {
	return func(p *Preparer) {
		p.ledger = l
	}
}

// WithProgress publishes copy progress into pr. A nil pr is ignored.
func WithProgress(pr *Progress) Option {
	return func(p *Preparer) {
		if pr != nil {
			p.progress = pr
		}
	}
}

// NewPreparer builds a preparer over the scanned games folder index.
func NewPreparer(cfg *config.Config, c *catalog.Catalog, idx library.Index, opts ...Option) *Preparer {
	p := &Preparer{
		cfg:      cfg,
		catalog:  c,
		index:    idx,
		progress: NewProgress(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Progress returns the counters of the preparer.
func (p *Preparer) Progress() *Progress {
	return p.progress
}

// Has implements catalog.Availability over the local index and the remote source.
func (p *Preparer) Has(name string) bool {
	if p.index.Has(name) {
		return true
	}
	_, ok := p.objects[name]
	return ok && p.remote != nil
}

// Prepare stages game and returns the request to launch it with.
func (p *Preparer) Prepare(ctx context.Context, game catalog.GameDefinition) (*Request, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("game", game.Name))
	logger.Info(i18n.T("Preparing", map[string]interface{}{"Title": game.Title()}))

	if p.cfg.DataDir != "" {
		res, err := userdata.Sync(ctx, p.cfg.DataDir, p.cfg.InternalRoot)
		if err != nil {
			return nil, fmt.Errorf("sync user data: %w", err)
		}
		logger.Debug("user data synced",
			zap.Int("copied", res.Copied),
			zap.Int("skipped", res.Skipped),
			zap.String("bytes", humanize.Bytes(uint64(res.Bytes))),
		)
	}

	required := catalog.RequiredArchives(p.catalog, game)
	if missing := catalog.Missing(required, p); len(missing) > 0 {
		return nil, &MissingError{Game: game.Name, Archives: missing, Ext: p.cfg.ArchiveExt}
	}

	cacheDir := p.cfg.RomCacheDir()
	p.progress.Total.Store(int64(len(required)))
	p.progress.Done.Store(0)
	p.progress.Fraction.Store(0)
	for _, name := range required {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dest := filepath.Join(cacheDir, name+p.cfg.ArchiveExt)
		if err := p.stage(ctx, name, dest); err != nil {
			return nil, fmt.Errorf("%s: %w", i18n.T("CopyFailed", map[string]interface{}{"Archive": name + p.cfg.ArchiveExt}), err)
		}
		p.progress.step()
	}

	return &Request{
		RomPath:      filepath.Join(cacheDir, game.Name+p.cfg.ArchiveExt),
		GameName:     game.Name,
		GamesXMLPath: p.cfg.GamesXMLPath(),
		UserDataRoot: p.cfg.InternalRoot,
	}, nil
}

func (p *Preparer) stage(ctx context.Context, name, dest string) error {
	logger := logutil.GetLogger(ctx).With(zap.String("archive", name))
	if archive, ok := p.index[name]; ok {
		if sameSize(dest, archive.Size) {
			logger.Debug("archive already cached", zap.String("dest", dest))
			return p.adopt(ctx, name, archive.Path, dest)
		}
		if err := copyFile(archive.Path, dest); err != nil {
			return err
		}
		p.progress.Bytes.Add(archive.Size)
		logger.Info("archive cached",
			zap.String("dest", dest),
			zap.String("size", humanize.Bytes(uint64(archive.Size))),
		)
		return p.record(ctx, name, archive.Path, dest)
	}

	obj := p.objects[name]
	if sameSize(dest, obj.Size) {
		logger.Debug("remote archive already cached", zap.String("dest", dest))
		return p.adopt(ctx, name, "s3://"+obj.Key, dest)
	}
	tmp := dest + ".part"
	if err := p.remote.DownloadToFile(ctx, obj.Key, tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("move download %s: %w", dest, err)
	}
	p.progress.Bytes.Add(obj.Size)
	logger.Info("remote archive cached",
		zap.String("key", obj.Key),
		zap.String("size", humanize.Bytes(uint64(obj.Size))),
	)
	return p.record(ctx, name, "s3://"+obj.Key, dest)
}

// adopt records a reused cache file the ledger does not know yet, such as
// one left by an older run without a database.
func (p *Preparer) adopt(ctx context.Context, name, source, dest string) error {
	if p.ledger == nil {
		return nil
	}
	if _, ok, err := p.ledger.Lookup(ctx, dest); err != nil || ok {
		return err
	}
	logutil.GetLogger(ctx).Debug("cached archive missing from ledger", zap.String("dest", dest))
	return p.record(ctx, name, source, dest)
}

func (p *Preparer) record(ctx context.Context, name, source, dest string) error {
	if p.ledger == nil {
		return nil
	}
	info, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("stat cached %s: %w", dest, err)
	}
	return p.ledger.Upsert(ctx, db.RomCacheEntry{
		Location: dest,
		Name:     name,
		Source:   source,
		Size:     info.Size(),
		ModTime:  info.ModTime().Unix(),
	})
}

// sameSize reports whether path exists with the expected, non-zero size.
func sameSize(path string, size int64) bool {
	if size <= 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() == size
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("ensure cache dir %s: %w", dst, err)
	}
	tmp := dst + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	return os.Rename(tmp, dst)
}
