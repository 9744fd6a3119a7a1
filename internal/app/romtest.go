package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/super3/internal/archive"
	"github.com/xxxsen/super3/internal/dat"
	"github.com/xxxsen/super3/internal/library"
	"github.com/xxxsen/super3/internal/model"
)

// RomTestCommand validates ROM archives against a FinalBurn Neo or MAME DAT.
type RomTestCommand struct {
	datPath  string
	filePath string
	dirPath  string
	ext      string
	output   string

	report model.RomTestReport
}

func NewRomTestCommand() *RomTestCommand {
	return &RomTestCommand{}
}

func (c *RomTestCommand) Name() string { return "rom-test" }

func (c *RomTestCommand) Desc() string {
	return "检查压缩包中的 ROM 是否符合 fbneo/mame dat（大小与 CRC，考虑父级压缩包）"
}

func (c *RomTestCommand) Init(f *pflag.FlagSet) {
	f.StringVar(&c.datPath, "dat", "", "dat 文件路径（fbneo 或 mame）")
	f.StringVar(&c.filePath, "file", "", "待验证的压缩包文件路径")
	f.StringVar(&c.dirPath, "dir", "", "待验证的压缩包目录，默认使用配置中的 games_dir")
	f.StringVar(&c.ext, "ext", "", "压缩包扩展名，默认使用配置中的 archive_ext")
	f.StringVar(&c.output, "output", "", "输出 JSON 文件路径，- 表示标准输出")
}

func (c *RomTestCommand) PreRun(ctx context.Context) error {
	if strings.TrimSpace(c.datPath) == "" {
		return errors.New("rom-test requires --dat")
	}
	if strings.TrimSpace(c.filePath) == "" && strings.TrimSpace(c.dirPath) == "" {
		cfg, err := LoadConfig()
		if err != nil || cfg.GamesDir == "" {
			return errors.New("rom-test requires --file or --dir")
		}
		c.dirPath = cfg.GamesDir
		if c.ext == "" {
			c.ext = cfg.ArchiveExt
		}
	}
	c.ext = library.NormalizeExt(c.ext)
	logutil.GetLogger(ctx).Info("starting rom-test",
		zap.String("dat", c.datPath),
		zap.String("file", c.filePath),
		zap.String("dir", c.dirPath),
	)
	return nil
}

func (c *RomTestCommand) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)

	sets, err := c.loadRomSets()
	if err != nil {
		return err
	}

	var idx library.Index
	var targets []string
	if c.filePath != "" {
		idx, err = library.Scan(filepath.Dir(c.filePath), c.ext)
		if err != nil {
			return err
		}
		targets = []string{c.filePath}
	} else {
		idx, err = library.Scan(c.dirPath, c.ext)
		if err != nil {
			return err
		}
		for _, name := range idx.Names() {
			targets = append(targets, idx[name].Path)
		}
	}

	c.report = model.RomTestReport{}
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := c.validateFile(sets, idx, target)
		c.report.Add(res)
		switch {
		case res.Skipped:
			logger.Debug("rom check skipped", zap.String("file", target), zap.Strings("issues", res.Issues))
		case res.Passed():
			logger.Info("rom check passed",
				zap.String("game", res.Game),
				zap.String("file", target),
				zap.Bool("parent_missing", res.ParentMissing),
			)
		default:
			for _, issue := range res.Issues {
				logger.Error("rom check failed", zap.String("game", res.Game), zap.String("issue", issue))
			}
		}
	}

	if c.output != "" {
		if err := writeJSON(c.output, c.report); err != nil {
			return err
		}
	}
	logger.Info("rom-test completed",
		zap.Int("total", c.report.Total),
		zap.Int("passed", c.report.Passed),
		zap.Int("failed", c.report.Failed),
		zap.Int("skipped", c.report.Skipped),
	)
	if c.report.Failed > 0 {
		return fmt.Errorf("rom check found %d failing archive(s)", c.report.Failed)
	}
	return nil
}

func (c *RomTestCommand) PostRun(ctx context.Context) error { return nil }

func init() {
	RegisterRunner("rom-test", func() IRunner { return NewRomTestCommand() })
}

func (c *RomTestCommand) loadRomSets() (map[string]dat.RomSet, error) {
	src, err := dat.ParseAnyFile(c.datPath)
	if err != nil {
		return nil, err
	}
	sets := src.RomSets()
	out := make(map[string]dat.RomSet, len(sets))
	for _, s := range sets {
		out[s.Name] = s
	}
	return out, nil
}

// validateFile checks one archive. Roms carrying a merge name live in the
// parent archive; when that archive is absent they are left unchecked and
// the result is tagged ParentMissing.
func (c *RomTestCommand) validateFile(sets map[string]dat.RomSet, idx library.Index, path string) model.RomTestResult {
	game := deriveGameName(path)
	res := model.RomTestResult{File: path, Game: game}
	set, ok := sets[game]
	if !ok {
		res.Skipped = true
		res.Issues = []string{fmt.Sprintf("game %s not found in dat", game)}
		return res
	}
	res.Parent = set.Parent

	entries, _, err := archive.List(path)
	if err != nil {
		res.Issues = []string{err.Error()}
		return res
	}

	roms := make([]dat.Rom, 0, len(set.Roms))
	var merged []dat.Rom
	for _, rom := range set.Roms {
		if rom.NoDump() {
			continue
		}
		if rom.Merge != "" && set.Parent != "" {
			merged = append(merged, rom)
			continue
		}
		roms = append(roms, rom)
	}

	if len(merged) > 0 {
		parent, ok := idx[set.Parent]
		if !ok {
			res.ParentMissing = true
		} else {
			parentEntries, _, err := archive.List(parent.Path)
			if err != nil {
				res.Issues = append(res.Issues, fmt.Sprintf("open parent %s: %v", set.Parent, err))
			} else {
				entries = append(entries, renameMerged(merged, parentEntries)...)
				roms = append(roms, merged...)
			}
		}
	}

	res.Issues = append(res.Issues, validateRomArchive(roms, entries)...)
	return res
}

// renameMerged exposes parent entries under the child's rom names so they
// can be matched by validateRomArchive.
func renameMerged(merged []dat.Rom, parent []archive.Entry) []archive.Entry {
	byName := make(map[string]archive.Entry, len(parent))
	for _, e := range parent {
		byName[strings.ToLower(e.Name)] = e
		byName[strings.ToLower(filepath.Base(e.Name))] = e
	}
	out := make([]archive.Entry, 0, len(merged))
	for _, rom := range merged {
		if e, ok := byName[strings.ToLower(rom.Merge)]; ok {
			e.Name = rom.Name
			out = append(out, e)
		}
	}
	return out
}

// deriveGameName extracts the game name from the archive filename.
func deriveGameName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}

// validateRomArchive compares archive contents against rom definitions.
func validateRomArchive(roms []dat.Rom, files []archive.Entry) []string {
	fullIndex := make(map[string]archive.Entry, len(files))
	baseIndex := make(map[string][]archive.Entry, len(files))
	for _, f := range files {
		lowerFull := strings.ToLower(filepath.ToSlash(f.Name))
		fullIndex[lowerFull] = f
		base := strings.ToLower(filepath.Base(filepath.ToSlash(f.Name)))
		baseIndex[base] = append(baseIndex[base], f)
	}

	var issues []string
	for _, rom := range roms {
		keyFull := strings.ToLower(filepath.ToSlash(rom.Name))
		if f, ok := fullIndex[keyFull]; ok {
			issues = append(issues, checkRomFile(rom, f)...)
			continue
		}

		candidates := baseIndex[strings.ToLower(filepath.Base(keyFull))]
		if len(candidates) == 0 {
			issues = append(issues, fmt.Sprintf("missing rom: %s", rom.Name))
			continue
		}

		matched := false
		for _, f := range candidates {
			if len(checkRomFile(rom, f)) == 0 {
				matched = true
				break
			}
		}
		if !matched {
			issues = append(issues, fmt.Sprintf("no candidate matched rom %s (candidates: %d)", rom.Name, len(candidates)))
		}
	}
	return issues
}

func checkRomFile(rom dat.Rom, f archive.Entry) []string {
	var issues []string
	if rom.Size > 0 && f.Size != rom.Size {
		issues = append(issues, fmt.Sprintf("size mismatch for %s: expected %d, got %d", rom.Name, rom.Size, f.Size))
	}
	if rom.CRC != "" && f.HasCRC {
		crc := f.CRCHex()
		if !strings.EqualFold(crc, normalizeCRC(rom.CRC)) {
			issues = append(issues, fmt.Sprintf("crc mismatch for %s: expected %s, got %s", rom.Name, rom.CRC, crc))
		}
	}
	return issues
}

// normalizeCRC left pads datafile checksums that drop leading zeros.
func normalizeCRC(crc string) string {
	crc = strings.TrimSpace(crc)
	if len(crc) < 8 {
		crc = strings.Repeat("0", 8-len(crc)) + crc
	}
	return crc
}
