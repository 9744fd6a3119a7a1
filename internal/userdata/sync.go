package userdata

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// SyncResult counts what Sync did.
type SyncResult struct {
	Copied  int
	Skipped int
	Bytes   int64
}

// Sync mirrors the regular files of src into dst. Files whose size and
// modification time already match are skipped; nothing is deleted from dst.
func Sync(ctx context.Context, src, dst string) (SyncResult, error) {
	var res SyncResult
	logger := logutil.GetLogger(ctx)

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		target := filepath.Join(dst, rel)
		if same(info, target) {
			res.Skipped++
			return nil
		}
		if err := copyFile(path, target, info); err != nil {
			return err
		}
		res.Copied++
		res.Bytes += info.Size()
		logger.Debug("user data file synced",
			zap.String("file", filepath.ToSlash(rel)),
			zap.Int64("size", info.Size()),
		)
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("sync %s -> %s: %w", src, dst, err)
	}
	return res, nil
}

func same(src fs.FileInfo, target string) bool {
	info, err := os.Stat(target)
	if err != nil {
		return false
	}
	return info.Size() == src.Size() && info.ModTime().Equal(src.ModTime())
}

func copyFile(src, dst string, info fs.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("ensure dir for %s: %w", dst, err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("set times %s: %w", dst, err)
	}
	return nil
}
