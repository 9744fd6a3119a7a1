package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/super3/internal/catalog"
	"github.com/xxxsen/super3/internal/config"
	appdb "github.com/xxxsen/super3/internal/db"
	"github.com/xxxsen/super3/internal/i18n"
	"github.com/xxxsen/super3/internal/ini"
	"github.com/xxxsen/super3/internal/library"
	"github.com/xxxsen/super3/internal/storage"
	"github.com/xxxsen/super3/internal/userdata"
)

var (
	configPath string
	stdout     io.Writer = os.Stdout
)

// SetConfigPath records the --config flag value.
func SetConfigPath(path string) {
	configPath = path
}

// ConfigPath returns the explicit config path, if any.
func ConfigPath() string {
	return configPath
}

// LoadConfig reads the first config found along the search paths and
// selects the configured language.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.LoadFirst(config.DefaultPaths(configPath)...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := i18n.SetLanguage(cfg.Lang); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, error) {
	path := cfg.CatalogFile()
	c, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Debug("catalog loaded",
		zap.String("path", path),
		zap.Int("games", c.Len()),
	)
	return c, nil
}

func scanGames(ctx context.Context, cfg *config.Config) (library.Index, error) {
	if strings.TrimSpace(cfg.GamesDir) == "" {
		return nil, errors.New(i18n.T("GamesFolderNotSet", nil))
	}
	idx, err := library.Scan(cfg.GamesDir, cfg.ArchiveExt)
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info(i18n.N("ScanSummary", len(idx), nil),
		zap.String("dir", cfg.GamesDir),
	)
	return idx, nil
}

// remoteArchives lists the remote source when one is configured. The
// returned client is nil otherwise.
func remoteArchives(ctx context.Context, cfg *config.Config) (storage.Client, map[string]storage.Object, error) {
	if !cfg.S3.Enabled() {
		return nil, nil, nil
	}
	client := storage.DefaultClient()
	if client == nil {
		c, err := storage.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		storage.SetDefaultClient(c)
		client = c
	}
	objects, err := client.List(ctx, cfg.S3.Prefix)
	if err != nil {
		return nil, nil, err
	}
	archives := storage.Archives(objects, cfg.S3.Prefix, cfg.ArchiveExt)
	logutil.GetLogger(ctx).Info("remote archives listed",
		zap.String("bucket", cfg.S3.Bucket),
		zap.Int("count", len(archives)),
	)
	return client, archives, nil
}

// openLedger opens the rom cache database and installs it as the default.
func openLedger(ctx context.Context, cfg *config.Config) (func(), error) {
	if appdb.Default() != nil {
		return func() {}, nil
	}
	db, err := appdb.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	appdb.SetDefault(db)
	return func() {
		appdb.SetDefault(nil)
		if err := db.Close(); err != nil {
			logutil.GetLogger(ctx).Warn("close rom cache db failed", zap.Error(err))
		}
	}, nil
}

// iniPath resolves the data folder's Supermodel.ini, creating it when needed.
func iniPath(cfg *config.Config) (string, error) {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return "", fmt.Errorf("%w: data folder not set", userdata.ErrNoDocument)
	}
	return userdata.NewStore(cfg.DataDir, cfg.InternalRoot).EnsureIniDocument()
}

func loadIni(cfg *config.Config) (string, ini.Document, error) {
	path, err := iniPath(cfg)
	if err != nil {
		return "", nil, err
	}
	text, err := userdata.ReadText(path)
	if err != nil {
		return "", nil, err
	}
	return path, ini.Parse(text), nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(stdout, string(data))
	return err
}

func writeJSON(path string, v interface{}) error {
	if path == "" || path == "-" {
		return printJSON(v)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}
