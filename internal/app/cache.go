package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appdb "github.com/xxxsen/super3/internal/db"
	"github.com/xxxsen/super3/internal/model"
)

// CacheListCommand prints the rom cache ledger.
type CacheListCommand struct {
	asJSON bool
}

func NewCacheListCommand() *CacheListCommand { return &CacheListCommand{} }

func (c *CacheListCommand) Name() string { return "cache-list" }

func (c *CacheListCommand) Desc() string {
	return "列出已复制到内部 romcache 的压缩包"
}

func (c *CacheListCommand) Init(f *pflag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "以 JSON 输出")
}

func (c *CacheListCommand) PreRun(ctx context.Context) error { return nil }

func (c *CacheListCommand) Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	closeDB, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	entries, err := appdb.RomCacheDao.ListAll(ctx)
	if err != nil {
		return err
	}
	if c.asJSON {
		return printJSON(entries)
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	var total int64
	for _, e := range entries {
		total += e.Size
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, humanize.Bytes(uint64(e.Size)),
			humanize.Time(time.Unix(e.UpdateTime, 0)), e.Location)
	}
	fmt.Fprintf(w, "total\t%s\t\t%d archive(s)\n", humanize.Bytes(uint64(total)), len(entries))
	return w.Flush()
}

func (c *CacheListCommand) PostRun(ctx context.Context) error { return nil }

// CacheCleanCommand drops ledger rows whose cached file is gone and, with
// --orphans, removes cached files the ledger does not know. The summary is
// printed as JSON.
type CacheCleanCommand struct {
	dryRun  bool
	orphans bool
}

func NewCacheCleanCommand() *CacheCleanCommand {
	return &CacheCleanCommand{
		dryRun: true,
	}
}

func (c *CacheCleanCommand) Name() string { return "cache-clean" }

func (c *CacheCleanCommand) Desc() string {
	return "清理 romcache 账本中已不存在的文件记录"
}

func (c *CacheCleanCommand) Init(f *pflag.FlagSet) {
	f.BoolVar(&c.dryRun, "dryrun", true, "是否只是演练（默认 true）")
	f.BoolVar(&c.orphans, "orphans", false, "同时删除账本中没有记录的缓存文件")
}

func (c *CacheCleanCommand) PreRun(ctx context.Context) error {
	logutil.GetLogger(ctx).Info("starting cache-clean",
		zap.Bool("dry_run", c.dryRun),
		zap.Bool("orphans", c.orphans),
	)
	return nil
}

func (c *CacheCleanCommand) Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	closeDB, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	res, err := cleanRomCache(ctx, cfg.RomCacheDir(), c.dryRun, c.orphans)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("cache-clean completed",
		zap.Int("entries", res.Entries),
		zap.Int("missing", len(res.Missing)),
		zap.Int("orphans", len(res.Orphans)),
		zap.Int("deleted", res.Deleted),
		zap.Bool("dry_run", res.DryRun),
	)
	return printJSON(res)
}

func (c *CacheCleanCommand) PostRun(ctx context.Context) error { return nil }

func cleanRomCache(ctx context.Context, cacheDir string, dryRun, orphans bool) (model.CacheCleanResult, error) {
	logger := logutil.GetLogger(ctx)
	res := model.CacheCleanResult{DryRun: dryRun, Missing: []string{}, Orphans: []string{}}

	entries, err := appdb.RomCacheDao.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list rom cache: %w", err)
	}
	res.Entries = len(entries)

	known := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		location := strings.TrimSpace(entry.Location)
		if location == "" {
			continue
		}
		known[filepath.Clean(location)] = struct{}{}
		if _, err := os.Stat(location); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logger.Warn("rom cache target missing", zap.String("location", location))
				res.Missing = append(res.Missing, location)
			} else {
				logger.Warn("rom cache stat failed", zap.String("location", location), zap.Error(err))
			}
		}
	}

	if orphans {
		found, err := findOrphans(cacheDir, known)
		if err != nil {
			return res, err
		}
		res.Orphans = found
	}

	if dryRun {
		return res, nil
	}

	const chunkSize = 200
	for start := 0; start < len(res.Missing); start += chunkSize {
		end := start + chunkSize
		if end > len(res.Missing) {
			end = len(res.Missing)
		}
		if err := appdb.RomCacheDao.DeleteByLocations(ctx, res.Missing[start:end]); err != nil {
			return res, err
		}
		res.Deleted += end - start
	}
	for _, path := range res.Orphans {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return res, fmt.Errorf("remove orphan %s: %w", path, err)
		}
		res.Deleted++
	}
	return res, nil
}

func findOrphans(cacheDir string, known map[string]struct{}) ([]string, error) {
	entries, err := os.ReadDir(cacheDir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rom cache %s: %w", cacheDir, err)
	}
	out := []string{}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(cacheDir, entry.Name())
		if _, ok := known[filepath.Clean(path)]; !ok {
			out = append(out, path)
		}
	}
	return out, nil
}

func init() {
	RegisterRunner("cache-list", func() IRunner { return NewCacheListCommand() })
	RegisterRunner("cache-clean", func() IRunner { return NewCacheCleanCommand() })
}
