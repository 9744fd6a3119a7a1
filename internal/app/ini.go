package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/super3/internal/i18n"
	"github.com/xxxsen/super3/internal/ini"
	"github.com/xxxsen/super3/internal/userdata"
)

// IniShowCommand prints the sections and entries of Supermodel.ini.
type IniShowCommand struct {
	section string
	raw     bool
}

func NewIniShowCommand() *IniShowCommand { return &IniShowCommand{} }

func (c *IniShowCommand) Name() string { return "ini-show" }

func (c *IniShowCommand) Desc() string {
	return "显示 Supermodel.ini 的分区与键值"
}

func (c *IniShowCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.section, "section", "", "只显示指定分区")
	f.BoolVar(&c.raw, "raw", false, "原样输出文件内容")
}

func (c *IniShowCommand) PreRun(ctx context.Context) error { return nil }

func (c *IniShowCommand) Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	_, doc, err := loadIni(cfg)
	if err != nil {
		return err
	}
	if c.raw {
		_, err := fmt.Fprintln(stdout, doc.String())
		return err
	}
	for _, name := range ini.Sections(doc) {
		if c.section != "" && !strings.EqualFold(strings.TrimSpace(c.section), name) {
			continue
		}
		fmt.Fprintf(stdout, "[ %s ]\n", name)
		for _, kv := range ini.Entries(doc, name) {
			fmt.Fprintf(stdout, "  %s = %s\n", kv.Key, kv.Value)
		}
	}
	return nil
}

func (c *IniShowCommand) PostRun(ctx context.Context) error { return nil }

// IniGetCommand prints one key.
type IniGetCommand struct {
	section string
	key     string
	unquote bool
}

func NewIniGetCommand() *IniGetCommand { return &IniGetCommand{} }

func (c *IniGetCommand) Name() string { return "ini-get" }

func (c *IniGetCommand) Desc() string {
	return "读取 Supermodel.ini 中的一个键"
}

func (c *IniGetCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.section, "section", "global", "分区名（不区分大小写，不存在时搜索整个文件）")
	f.StringVar(&c.key, "key", "", "键名")
	f.BoolVar(&c.unquote, "unquote", false, "去掉值两端的一层引号")
}

func (c *IniGetCommand) PreRun(ctx context.Context) error {
	if strings.TrimSpace(c.key) == "" {
		return errors.New("ini-get requires --key")
	}
	return nil
}

func (c *IniGetCommand) Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	_, doc, err := loadIni(cfg)
	if err != nil {
		return err
	}
	read := ini.ReadKey
	if c.unquote {
		read = ini.ReadUnquoted
	}
	value, ok := read(doc, c.section, c.key)
	if !ok {
		return fmt.Errorf("key %s not found in section %s", c.key, c.section)
	}
	_, err = fmt.Fprintln(stdout, value)
	return err
}

func (c *IniGetCommand) PostRun(ctx context.Context) error { return nil }

// IniSetCommand writes key=value pairs into a section.
type IniSetCommand struct {
	section string
	pairs   []string

	updates []ini.KV
}

func NewIniSetCommand() *IniSetCommand { return &IniSetCommand{} }

func (c *IniSetCommand) Name() string { return "ini-set" }

func (c *IniSetCommand) Desc() string {
	return "修改 Supermodel.ini 中的键值，分区不存在时自动创建"
}

func (c *IniSetCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.section, "section", "global", "分区名")
	f.StringArrayVar(&c.pairs, "set", nil, "KEY=VALUE，可重复")
}

func (c *IniSetCommand) PreRun(ctx context.Context) error {
	updates, err := parsePairs(c.pairs)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return errors.New("ini-set requires --set KEY=VALUE")
	}
	c.updates = updates
	logutil.GetLogger(ctx).Info("starting ini-set",
		zap.String("section", c.section),
		zap.Int("updates", len(updates)),
	)
	return nil
}

func parsePairs(pairs []string) ([]ini.KV, error) {
	out := make([]ini.KV, 0, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --set %q, want KEY=VALUE", p)
		}
		out = append(out, ini.KV{Key: k, Value: strings.TrimSpace(v)})
	}
	return out, nil
}

func (c *IniSetCommand) Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	path, doc, err := loadIni(cfg)
	if err != nil {
		return err
	}
	out := ini.UpdateSection(doc, c.section, c.updates)
	if err := userdata.WriteText(path, out.String()); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info(i18n.T("Saved", nil), zap.String("path", path))
	return nil
}

func (c *IniSetCommand) PostRun(ctx context.Context) error { return nil }

// IniEditCommand opens Supermodel.ini in $EDITOR.
type IniEditCommand struct {
	editor string
	argv   []string
}

const defaultEditor = "vi"

func NewIniEditCommand() *IniEditCommand { return &IniEditCommand{} }

func (c *IniEditCommand) Name() string { return "ini-edit" }

func (c *IniEditCommand) Desc() string {
	return "用编辑器打开 Supermodel.ini，保存后检查内容"
}

func (c *IniEditCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.editor, "editor", "", "编辑器命令，默认读取 $VISUAL / $EDITOR")
}

func (c *IniEditCommand) PreRun(ctx context.Context) error {
	c.argv = editorArgv(c.editor, os.Getenv("VISUAL"), os.Getenv("EDITOR"))
	logutil.GetLogger(ctx).Info("starting ini-edit", zap.Strings("editor", c.argv))
	return nil
}

// editorArgv splits the first non-blank candidate into argv, vi otherwise.
func editorArgv(candidates ...string) []string {
	for _, cand := range candidates {
		if fields := strings.Fields(cand); len(fields) > 0 {
			return fields
		}
	}
	return []string{defaultEditor}
}

func (c *IniEditCommand) Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	path, err := iniPath(cfg)
	if err != nil {
		return err
	}
	if len(c.argv) == 0 {
		c.argv = editorArgv(c.editor)
	}
	cmd := exec.CommandContext(ctx, c.argv[0], append(c.argv[1:], path)...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run editor %s: %w", c.argv[0], err)
	}

	text, err := userdata.ReadText(path)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	problems, err := lintDocument(ini.Parse(text))
	if err != nil {
		return err
	}
	for _, p := range problems {
		logger.Warn("ini problem", zap.Int("line", p.Line), zap.String("message", p.Message))
	}
	logger.Info(i18n.T("Saved", nil), zap.String("path", path))
	return nil
}

func (c *IniEditCommand) PostRun(ctx context.Context) error { return nil }

// IniLintCommand reports content the editor cannot address.
type IniLintCommand struct {
	asJSON bool
}

func NewIniLintCommand() *IniLintCommand { return &IniLintCommand{} }

func (c *IniLintCommand) Name() string { return "ini-lint" }

func (c *IniLintCommand) Desc() string {
	return "检查 Supermodel.ini 中无法识别的行与重复键"
}

func (c *IniLintCommand) Init(f *pflag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "以 JSON 输出")
}

func (c *IniLintCommand) PreRun(ctx context.Context) error { return nil }

func (c *IniLintCommand) Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	path, doc, err := loadIni(cfg)
	if err != nil {
		return err
	}
	problems, err := lintDocument(doc)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Debug("ini linted",
		zap.String("path", path),
		zap.Int("problems", len(problems)),
	)

	if c.asJSON {
		return printJSON(problems)
	}
	for _, p := range problems {
		fmt.Fprintf(stdout, "%s:%d: %s: %s\n", path, p.Line, p.Message, strings.TrimSpace(p.Text))
	}
	if len(problems) > 0 {
		return fmt.Errorf("ini lint found %d problem(s)", len(problems))
	}
	return nil
}

func (c *IniLintCommand) PostRun(ctx context.Context) error { return nil }

// lintDocument runs the line checks and the go-ini cross-check, ordered by line.
func lintDocument(doc ini.Document) ([]ini.Problem, error) {
	problems := ini.Lint(doc)
	extra, err := ini.CrossCheck(doc)
	if err != nil {
		return nil, err
	}
	problems = append(problems, extra...)
	sort.SliceStable(problems, func(i, j int) bool { return problems[i].Line < problems[j].Line })
	return problems, nil
}

func init() {
	RegisterRunner("ini-show", func() IRunner { return NewIniShowCommand() })
	RegisterRunner("ini-get", func() IRunner { return NewIniGetCommand() })
	RegisterRunner("ini-set", func() IRunner { return NewIniSetCommand() })
	RegisterRunner("ini-edit", func() IRunner { return NewIniEditCommand() })
	RegisterRunner("ini-lint", func() IRunner { return NewIniLintCommand() })
}
