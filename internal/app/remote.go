package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/super3/internal/config"
	"github.com/xxxsen/super3/internal/library"
	"github.com/xxxsen/super3/internal/model"
	"github.com/xxxsen/super3/internal/storage"
)

// RemotePushCommand uploads games folder archives to the S3 remote source.
type RemotePushCommand struct {
	dryRun bool
}

func NewRemotePushCommand() *RemotePushCommand {
	return &RemotePushCommand{}
}

func (c *RemotePushCommand) Name() string { return "remote-push" }

func (c *RemotePushCommand) Desc() string {
	return "把游戏目录中远端缺失或大小不同的压缩包上传到 S3"
}

func (c *RemotePushCommand) Init(f *pflag.FlagSet) {
	f.BoolVar(&c.dryRun, "dryrun", false, "只列出需要上传的文件")
}

func (c *RemotePushCommand) PreRun(ctx context.Context) error {
	logutil.GetLogger(ctx).Info("starting remote-push", zap.Bool("dry_run", c.dryRun))
	return nil
}

func (c *RemotePushCommand) Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if !cfg.S3.Enabled() {
		return errors.New("remote-push requires an s3 block in config")
	}
	idx, err := scanGames(ctx, cfg)
	if err != nil {
		return err
	}
	client, objects, err := remoteArchives(ctx, cfg)
	if err != nil {
		return err
	}
	res, err := pushArchives(ctx, client, cfg, idx, objects, c.dryRun)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func (c *RemotePushCommand) PostRun(ctx context.Context) error { return nil }

// pushArchives uploads every archive whose remote copy is absent or has a
// different size.
func pushArchives(ctx context.Context, client storage.Client, cfg *config.Config, idx library.Index, objects map[string]storage.Object, dryRun bool) (model.RemotePushResult, error) {
	logger := logutil.GetLogger(ctx)
	res := model.RemotePushResult{Pushed: []string{}, DryRun: dryRun}
	for _, name := range idx.Names() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		a := idx[name]
		if obj, ok := objects[name]; ok && obj.Size == a.Size {
			continue
		}
		key := storage.JoinKey(cfg.S3.Prefix, name+cfg.ArchiveExt)
		if !dryRun {
			if err := client.UploadFile(ctx, key, a.Path, ""); err != nil {
				return res, fmt.Errorf("upload %s: %w", name, err)
			}
		}
		logger.Info("archive pushed",
			zap.String("key", key),
			zap.String("size", humanize.Bytes(uint64(a.Size))),
			zap.Bool("dry_run", dryRun),
		)
		res.Pushed = append(res.Pushed, name)
		res.Bytes += a.Size
	}
	logger.Info("remote-push completed",
		zap.Int("count", len(res.Pushed)),
		zap.String("bytes", humanize.Bytes(uint64(res.Bytes))),
	)
	return res, nil
}

func init() {
	RegisterRunner("remote-push", func() IRunner { return NewRemotePushCommand() })
}
