package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/vizbuck/pkg/importer"
	"github.com/yurifrl/vizbuck/pkg/models"
)

var statementExts = map[string]bool{
	".csv":  true,
	".txt":  true,
	".xls":  true,
	".xlsx": true,
	".xlsm": true,
}

// Processor analyzes loose statement files outside of a plan.
type Processor struct {
	logger   *log.Logger
	importer *importer.Importer
}

func NewProcessor(logger *log.Logger, im *importer.Importer) *Processor {
	return &Processor{
		logger:   logger,
		importer: im,
	}
}

// Analysis is the outcome of one file.
type Analysis struct {
	Path    string
	Session importer.Session
}

// Collect expands a file, a directory or a glob pattern into statement
// files, sorted by path. Directories are not walked recursively.
func Collect(input string) ([]string, error) {
	matches, err := filepath.Glob(input)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", input, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files found matching pattern %s", input)
	}

	var out []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", match, err)
		}
		if !info.IsDir() {
			out = append(out, match)
			continue
		}
		entries, err := os.ReadDir(match)
		if err != nil {
			return nil, fmt.Errorf("error reading directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !statementExts[strings.ToLower(filepath.Ext(entry.Name()))] {
				continue
			}
			out = append(out, filepath.Join(match, entry.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// Process analyzes every path. A file that cannot be read or analyzed is
// logged and left out; the error is only returned when nothing succeeded.
func (p *Processor) Process(ctx context.Context, paths []string, method models.PaymentMethod) ([]Analysis, error) {
	var out []Analysis
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		a, err := p.processFile(ctx, path, method)
		if err != nil {
			p.logger.Error("failed to process file", "file", path, "error", err)
			continue
		}
		p.logger.Info("analyzed file", "file", path, "transactions", len(a.Session.Transactions), "skipped", a.Session.SkippedRows)
		out = append(out, a)
	}
	if len(out) == 0 && len(paths) > 0 {
		return nil, fmt.Errorf("none of %d file(s) could be analyzed", len(paths))
	}
	return out, nil
}

func (p *Processor) processFile(ctx context.Context, path string, method models.PaymentMethod) (Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to read file: %w", err)
	}
	s := p.importer.AnalyzeFile(ctx, data, filepath.Base(path), method)
	if s.State == importer.Error {
		return Analysis{}, fmt.Errorf("failed to analyze file: %s", s.Err)
	}
	return Analysis{Path: path, Session: s}, nil
}

// CommitAll commits each analysis in order. When target creates a new
// account, the first commit creates it and the rest land in it.
func (p *Processor) CommitAll(ctx context.Context, analyses []Analysis, target importer.Target) ([]importer.Result, error) {
	results := make([]importer.Result, 0, len(analyses))
	for _, a := range analyses {
		done, err := p.importer.Commit(ctx, a.Session, target)
		if err != nil {
			return results, fmt.Errorf("failed to commit %s: %w", a.Path, err)
		}
		results = append(results, *done.Result)
		p.logger.Info("committed file", "file", a.Path, "asset_id", done.Result.AssetID, "imported", done.Result.Imported)
		if target.New {
			target = importer.Target{AssetID: done.Result.AssetID}
		}
	}
	return results, nil
}
