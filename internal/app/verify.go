package app

import (
	"context"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/super3/internal/archive"
	"github.com/xxxsen/super3/internal/catalog"
	"github.com/xxxsen/super3/internal/library"
	"github.com/xxxsen/super3/internal/model"
)

type VerifyCommand struct {
	all    bool
	output string
}

func NewVerifyCommand() *VerifyCommand {
	return &VerifyCommand{}
}

func (c *VerifyCommand) Name() string { return "verify" }

func (c *VerifyCommand) Desc() string {
	return "验证游戏目录中的压缩包能否打开，以及父级压缩包是否齐全"
}

func (c *VerifyCommand) Init(f *pflag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "同时报告压缩包不存在的游戏")
	f.StringVar(&c.output, "output", "", "输出 JSON 文件路径，默认标准输出")
}

func (c *VerifyCommand) PreRun(ctx context.Context) error {
	logutil.GetLogger(ctx).Info("starting verify",
		zap.Bool("all", c.all),
		zap.String("output", c.output),
	)
	return nil
}

func (c *VerifyCommand) Run(ctx context.Context) error {
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

	output := verifyCatalog(ctx, cat, idx, cfg.ArchiveExt, c.all)
	if err := writeJSON(c.output, output); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("verify completed",
		zap.Int("checked", output.Checked),
		zap.Int("cases", len(output.CaseList)),
	)
	return nil
}

func (c *VerifyCommand) PostRun(ctx context.Context) error { return nil }

// verifyCatalog opens every archive a game needs. Each archive is listed
// once even when shared by several clones.
func verifyCatalog(ctx context.Context, cat *catalog.Catalog, idx library.Index, ext string, all bool) model.VerifyOutput {
	logger := logutil.GetLogger(ctx)
	output := model.VerifyOutput{CaseList: []model.VerifyCase{}}
	opened := make(map[string]string)

	for _, game := range cat.Games() {
		if !all && !idx.Has(game.Name) {
			continue
		}
		output.Checked++
		item := model.VerifyCase{Game: game.Name, Title: game.Title(), Reason: []string{}}
		for _, name := range catalog.RequiredArchives(cat, game) {
			a, ok := idx[name]
			if !ok {
				item.Reason = append(item.Reason, "archive missing:"+name+ext)
				continue
			}
			reason, seen := opened[name]
			if !seen {
				reason = inspectArchive(a.Path)
				opened[name] = reason
				if reason != "" {
					logger.Warn("archive check failed", zap.String("path", a.Path), zap.String("reason", reason))
				}
			}
			if reason != "" {
				item.Reason = append(item.Reason, reason+":"+name+ext)
			}
		}
		if len(item.Reason) > 0 {
			output.CaseList = append(output.CaseList, item)
		}
	}
	return output
}

func inspectArchive(path string) string {
	entries, _, err := archive.List(path)
	if err != nil {
		return "archive read failed"
	}
	if len(entries) == 0 {
		return "archive empty"
	}
	return ""
}

func init() {
	RegisterRunner("verify", func() IRunner { return NewVerifyCommand() })
}
