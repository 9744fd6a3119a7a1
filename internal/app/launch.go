package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appdb "github.com/xxxsen/super3/internal/db"
	"github.com/xxxsen/super3/internal/launch"
)

// LaunchCommand stages a game's archives and starts the emulator.
type LaunchCommand struct {
	game   string
	dryRun bool
	remote bool
}

func NewLaunchCommand() *LaunchCommand {
	return &LaunchCommand{}
}

func (c *LaunchCommand) Name() string { return "launch" }

func (c *LaunchCommand) Desc() string {
	return "同步用户数据、复制所需压缩包到内部目录并启动模拟器"
}

func (c *LaunchCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.game, "game", "", "游戏名（压缩包名，不含扩展名）")
	f.BoolVar(&c.dryRun, "dryrun", false, "只准备文件并输出启动参数，不启动模拟器")
	f.BoolVar(&c.remote, "remote", true, "本地缺失时从 S3 远端下载（需配置 s3）")
}

func (c *LaunchCommand) PreRun(ctx context.Context) error {
	if strings.TrimSpace(c.game) == "" {
		return errors.New("launch requires --game")
	}
	logutil.GetLogger(ctx).Info("starting launch",
		zap.String("game", c.game),
		zap.Bool("dry_run", c.dryRun),
	)
	return nil
}

func (c *LaunchCommand) Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	game, ok := cat.Lookup(strings.TrimSpace(c.game))
	if !ok {
		return fmt.Errorf("game %s not found in catalog", c.game)
	}
	idx, err := scanGames(ctx, cfg)
	if err != nil {
		return err
	}
	closeDB, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	opts := []launch.Option{launch.WithLedger(appdb.RomCacheDao)}
	if c.remote {
		client, objects, err := remoteArchives(ctx, cfg)
		if err != nil {
			return err
		}
		if client != nil {
			opts = append(opts, launch.WithRemote(client, objects))
		}
	}

	progress := launch.NewProgress()
	opts = append(opts, launch.WithProgress(progress))
	stop := progress.Watch(progressInterval, func(s launch.Snapshot) {
		logProgress(ctx, s)
	})
	req, err := launch.NewPreparer(cfg, cat, idx, opts...).Prepare(ctx, game)
	stop()
	if err != nil {
		return err
	}
	if c.dryRun {
		return printJSON(struct {
			*launch.Request
			Binary string   `json:"binary"`
			Args   []string `json:"args"`
		}{req, cfg.Emulator.Binary, launch.Args(cfg.Emulator, req)})
	}
	return launch.Run(ctx, cfg.Emulator, req)
}

func (c *LaunchCommand) PostRun(ctx context.Context) error { return nil }

const progressInterval = 2 * time.Second

func logProgress(ctx context.Context, s launch.Snapshot) {
	if s.Total == 0 {
		return
	}
	logutil.GetLogger(ctx).Info("staging archives",
		zap.String("done", fmt.Sprintf("%d/%d", s.Done, s.Total)),
		zap.String("copied", humanize.Bytes(uint64(s.Bytes))),
		zap.Float64("fraction", s.Fraction),
	)
}

func init() {
	RegisterRunner("launch", func() IRunner { return NewLaunchCommand() })
}
