package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/super3/internal/config"
	"github.com/xxxsen/super3/internal/userdata"
)

// SetupCommand chooses the games and data folders and writes the config.
type SetupCommand struct {
	gamesDir     string
	dataDir      string
	internalRoot string
	output       string

	defaultRoot string
}

func NewSetupCommand() *SetupCommand { return &SetupCommand{} }

func (c *SetupCommand) Name() string { return "setup" }

func (c *SetupCommand) Desc() string {
	return "设置游戏目录与用户数据目录并写入配置文件"
}

func (c *SetupCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.gamesDir, "games", "", "ROM 压缩包所在目录")
	f.StringVar(&c.dataDir, "data", "", "用户数据目录（包含 Config/Supermodel.ini）")
	f.StringVar(&c.internalRoot, "internal-root", "", "内部目录（romcache、Games.xml），默认 $HOME/.local/share/super3")
	f.StringVar(&c.output, "output", "", "配置文件写入路径，默认 --config 或 $HOME/.config/super3/config.json")
}

func (c *SetupCommand) PreRun(ctx context.Context) error {
	if strings.TrimSpace(c.gamesDir) == "" && strings.TrimSpace(c.dataDir) == "" {
		return errors.New("setup requires --games or --data")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home dir: %w", err)
	}
	if c.output == "" {
		c.output = ConfigPath()
	}
	if c.output == "" {
		c.output = filepath.Join(home, ".config", "super3", "config.json")
	}
	c.defaultRoot = filepath.Join(home, ".local", "share", "super3")
	logutil.GetLogger(ctx).Info("starting setup",
		zap.String("games", c.gamesDir),
		zap.String("data", c.dataDir),
		zap.String("output", c.output),
	)
	return nil
}

func (c *SetupCommand) Run(ctx context.Context) error {
	cfg, err := config.Load(c.output)
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg = &config.Config{InternalRoot: c.defaultRoot}
	case err != nil:
		return err
	}
	if c.internalRoot != "" {
		root, err := filepath.Abs(c.internalRoot)
		if err != nil {
			return err
		}
		moveInternalRoot(cfg, root)
	}
	if c.gamesDir != "" {
		dir, err := existingDir(c.gamesDir)
		if err != nil {
			return err
		}
		cfg.GamesDir = dir
	}
	if c.dataDir != "" {
		dir, err := existingDir(c.dataDir)
		if err != nil {
			return err
		}
		cfg.DataDir = dir
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.InternalRoot, 0o755); err != nil {
		return fmt.Errorf("create internal root %s: %w", cfg.InternalRoot, err)
	}
	if err := config.Save(c.output, cfg); err != nil {
		return err
	}

	logger := logutil.GetLogger(ctx)
	if cfg.DataDir != "" {
		path, err := userdata.NewStore(cfg.DataDir, cfg.InternalRoot).EnsureIniDocument()
		if err != nil {
			return err
		}
		logger.Info("ini document ready", zap.String("path", path))
	}
	logger.Info("setup saved",
		zap.String("config", c.output),
		zap.Bool("complete", cfg.SetupComplete()),
	)
	return nil
}

func (c *SetupCommand) PostRun(ctx context.Context) error { return nil }

// moveInternalRoot points cfg at root. A database path derived from the old
// root follows it.
func moveInternalRoot(cfg *config.Config, root string) {
	if cfg.InternalRoot != "" && cfg.DBPath == filepath.Join(cfg.InternalRoot, config.DefaultDBName) {
		cfg.DBPath = ""
	}
	cfg.InternalRoot = root
}

func existingDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}

func init() {
	RegisterRunner("setup", func() IRunner { return NewSetupCommand() })
}
