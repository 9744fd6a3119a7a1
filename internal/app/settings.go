package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/super3/internal/i18n"
	"github.com/xxxsen/super3/internal/ini"
	"github.com/xxxsen/super3/internal/settings"
	"github.com/xxxsen/super3/internal/userdata"
)

// SettingsCommand shows the easy settings of Supermodel.ini.
type SettingsCommand struct {
	asJSON bool
}

func NewSettingsCommand() *SettingsCommand { return &SettingsCommand{} }

func (c *SettingsCommand) Name() string { return "settings" }

func (c *SettingsCommand) Desc() string {
	return "显示常用设置（频率、线程、声音、网络）的当前值"
}

func (c *SettingsCommand) Init(f *pflag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "以 JSON 输出")
}

func (c *SettingsCommand) PreRun(ctx context.Context) error { return nil }

type settingView struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Kind    string `json:"kind"`
	Value   string `json:"value"`
	Default bool   `json:"default"`
	Range   string `json:"range,omitempty"`
}

func viewOf(v settings.Value) settingView {
	out := settingView{
		Key:     v.Setting.Key,
		Title:   v.Setting.Title,
		Kind:    v.Setting.Kind.String(),
		Value:   v.Display(),
		Default: !v.Present,
	}
	if v.Setting.Kind == settings.KindInt {
		out.Range = fmt.Sprintf("%d-%d", v.Setting.Min, v.Setting.Max)
	}
	return out
}

func (c *SettingsCommand) Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	_, doc, err := loadIni(cfg)
	if err != nil {
		return err
	}
	values := settings.Load(doc)
	views := make([]settingView, 0, len(values))
	for _, v := range values {
		views = append(views, viewOf(v))
	}
	if c.asJSON {
		return printJSON(views)
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, v := range views {
		suffix := ""
		if v.Default {
			suffix = "(default)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.Key, v.Value, v.Range, suffix)
	}
	return w.Flush()
}

func (c *SettingsCommand) PostRun(ctx context.Context) error { return nil }

// SettingsSetCommand changes easy settings with validation and clamping.
type SettingsSetCommand struct {
	pairs   []string
	updates []ini.KV
}

func NewSettingsSetCommand() *SettingsSetCommand { return &SettingsSetCommand{} }

func (c *SettingsSetCommand) Name() string { return "settings-set" }

func (c *SettingsSetCommand) Desc() string {
	return "修改常用设置，整数会被限制在允许范围内"
}

func (c *SettingsSetCommand) Init(f *pflag.FlagSet) {
	f.StringArrayVar(&c.pairs, "set", nil, "KEY=VALUE，可重复，例如 --set VSync=off")
}

func (c *SettingsSetCommand) PreRun(ctx context.Context) error {
	updates, err := parsePairs(c.pairs)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return errors.New("settings-set requires --set KEY=VALUE")
	}
	for _, u := range updates {
		if _, ok := settings.Lookup(u.Key); !ok {
			return fmt.Errorf("%w: %s", settings.ErrUnknownSetting, u.Key)
		}
	}
	c.updates = updates
	return nil
}

func (c *SettingsSetCommand) Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	path, doc, err := loadIni(cfg)
	if err != nil {
		return err
	}
	doc, err = applySettings(ctx, doc, c.updates)
	if err != nil {
		return err
	}
	if err := userdata.WriteText(path, doc.String()); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info(i18n.T("Saved", nil), zap.String("path", path))
	return nil
}

func applySettings(ctx context.Context, doc ini.Document, updates []ini.KV) (ini.Document, error) {
	logger := logutil.GetLogger(ctx)
	for _, u := range updates {
		out, v, err := settings.Apply(doc, u.Key, u.Value)
		if err != nil {
			return nil, err
		}
		doc = out
		if v.Clamped {
			logger.Warn(i18n.T("Clamped", map[string]interface{}{"Value": v.Int}),
				zap.String("key", v.Setting.Key),
				zap.String("requested", strings.TrimSpace(u.Value)),
			)
		}
	}
	return doc, nil
}

func (c *SettingsSetCommand) PostRun(ctx context.Context) error { return nil }

func init() {
	RegisterRunner("settings", func() IRunner { return NewSettingsCommand() })
	RegisterRunner("settings-set", func() IRunner { return NewSettingsSetCommand() })
}
