package app

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/super3/internal/library"
)

// GamesCommand lists the catalog with the launch status of every game.
type GamesCommand struct {
	filter     string
	launchable bool
	asJSON     bool
	remote     bool
}

func NewGamesCommand() *GamesCommand {
	return &GamesCommand{}
}

func (c *GamesCommand) Name() string { return "games" }

func (c *GamesCommand) Desc() string {
	return "扫描游戏目录并列出目录中每个游戏的可启动状态"
}

func (c *GamesCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.filter, "filter", "", "按名称或标题过滤（不区分大小写）")
	f.BoolVar(&c.launchable, "launchable", false, "只显示可以启动的游戏")
	f.BoolVar(&c.asJSON, "json", false, "以 JSON 输出")
	f.BoolVar(&c.remote, "remote", false, "把 S3 远端的压缩包也计入可用列表")
}

func (c *GamesCommand) PreRun(ctx context.Context) error {
	logutil.GetLogger(ctx).Info("starting games",
		zap.String("filter", c.filter),
		zap.Bool("launchable", c.launchable),
	)
	return nil
}

func (c *GamesCommand) Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	idx, err := scanGames(ctx, cfg)
	if err != nil {
		return err
	}
	if c.remote {
		_, objects, err := remoteArchives(ctx, cfg)
		if err != nil {
			return err
		}
		remote := make(library.Index, len(objects))
		for name, obj := range objects {
			remote[name] = library.Archive{Name: name, Path: obj.Key, Size: obj.Size}
		}
		idx = idx.Merge(remote)
	}

	items := library.Filter(library.BuildItems(cat, idx, cfg.ArchiveExt), c.filter)
	if c.launchable {
		items = launchableOnly(items)
	}
	if c.asJSON {
		return printJSON(items)
	}
	return printItems(items)
}

func (c *GamesCommand) PostRun(ctx context.Context) error { return nil }

func launchableOnly(items []library.Item) []library.Item {
	out := make([]library.Item, 0, len(items))
	for _, it := range items {
		if it.Launchable {
			out = append(out, it)
		}
	}
	return out
}

func printItems(items []library.Item) error {
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, it := range items {
		mark := " "
		if it.Launchable {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", mark, it.Game.Name, it.Game.Title(), it.Status)
	}
	return w.Flush()
}

func init() {
	RegisterRunner("games", func() IRunner { return NewGamesCommand() })
}
