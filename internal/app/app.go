// Package app wires the analysis pipeline to the filesystem: directory
// scanning, per-file reports, history recording and watch-mode updates.
package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pymend/internal/analysis"
	"pymend/internal/config"
	"pymend/internal/history"
	"pymend/internal/imports"
	"pymend/internal/observability"
	"pymend/internal/syntax"
)

type App struct {
	Config *config.Config
	Store  *history.Store

	extraBuiltins analysis.Set
}

func New(cfg *config.Config) (*App, error) {
	a := &App{
		Config:        cfg,
		extraBuiltins: analysis.NewSet(cfg.Builtins.Extra...),
	}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.Store = store
	}

	return a, nil
}

func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// FileReport is the analysis outcome for one source file.
type FileReport struct {
	Path         string
	Missing      []string
	Unused       []string
	DefinedCount int
	UsedCount    int
	LocalImports []imports.Record
	SyntaxError  bool
	Err          error
}

// ScanResult aggregates one pass over a file set.
type ScanResult struct {
	Reports []FileReport
	Run     history.Run
}

// MissingTotal counts missing names across all reports.
func (r ScanResult) MissingTotal() int {
	total := 0
	for _, rep := range r.Reports {
		total += len(rep.Missing)
	}
	return total
}

// ScanDirectories collects Python files under the given roots, honoring the
// exclusion globs.
func (a *App) ScanDirectories(paths []string) ([]string, error) {
	dirGlobs, err := compileGlobs(a.Config.Exclude.Dirs)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude dir pattern: %w", err)
	}
	fileGlobs, err := compileGlobs(a.Config.Exclude.Files)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude file pattern: %w", err)
	}

	var files []string
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			base := filepath.Base(path)
			if d.IsDir() {
				for _, g := range dirGlobs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
				return nil
			}

			if filepath.Ext(path) != ".py" {
				return nil
			}
			for _, g := range fileGlobs {
				if g.Match(base) {
					return nil
				}
			}

			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// AnalyzeFile parses one file and reports missing names, unused top-level
// bindings and local imports. Parse failures land in the report, not an
// error; scans keep going past broken files.
func (a *App) AnalyzeFile(ctx context.Context, path string) FileReport {
	_, span := observability.Tracer.Start(ctx, "app.AnalyzeFile",
		trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	report := FileReport{Path: path}

	content, err := os.ReadFile(path)
	if err != nil {
		report.Err = err
		observability.AnalysesTotal.WithLabelValues("read_error").Inc()
		return report
	}

	parseStart := time.Now()
	mod, err := syntax.Parse(content)
	observability.ParsingDuration.Observe(time.Since(parseStart).Seconds())
	if err != nil {
		report.SyntaxError = syntax.IsSyntaxError(err)
		report.Err = err
		observability.AnalysesTotal.WithLabelValues("syntax_error").Inc()
		return report
	}

	timer := time.Now()
	flow := analysis.Walk(mod)
	report.DefinedCount = len(flow.Defined)
	report.UsedCount = len(flow.Used)
	report.Missing = flow.Used.Diff(flow.Defined, analysis.Builtins(), a.extraBuiltins).Sorted()
	report.Unused = analysis.Unused(mod).Sorted()
	report.LocalImports = imports.Locals(mod)
	observability.AnalysisDuration.WithLabelValues("variable_flow").Observe(time.Since(timer).Seconds())
	observability.AnalysesTotal.WithLabelValues("ok").Inc()

	return report
}

// Scan analyzes every file and records the pass in history when a store is
// configured.
func (a *App) Scan(ctx context.Context, files []string) (ScanResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Scan",
		trace.WithAttributes(attribute.Int("files", len(files))))
	defer span.End()

	start := time.Now()
	result := ScanResult{Reports: make([]FileReport, 0, len(files))}
	run := history.Run{StartedAt: start.UTC()}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		report := a.AnalyzeFile(ctx, path)
		result.Reports = append(result.Reports, report)

		run.FileCount++
		run.MissingCount += len(report.Missing)
		run.DefinedCount += report.DefinedCount
		run.UsedCount += report.UsedCount
		run.LocalImportCount += len(report.LocalImports)
		if report.SyntaxError {
			run.SyntaxErrorCount++
		}
	}

	run.DurationMillis = time.Since(start).Milliseconds()
	observability.FilesScanned.Set(float64(run.FileCount))
	observability.MissingNames.Set(float64(run.MissingCount))

	if a.Store != nil {
		if len(a.Config.ScanPaths) > 0 {
			run.CommitHash, _ = history.ResolveGitMetadata(a.Config.ScanPaths[0])
		}
		saved, err := a.Store.SaveRun(run, fileResults(run.ID, result.Reports))
		if err != nil {
			slog.Warn("failed to record run history", "error", err)
		} else {
			run = saved
		}
	}

	result.Run = run
	return result, nil
}

func fileResults(runID string, reports []FileReport) []history.FileResult {
	results := make([]history.FileResult, 0, len(reports))
	for _, rep := range reports {
		results = append(results, history.FileResult{
			RunID:        runID,
			Path:         rep.Path,
			Missing:      rep.Missing,
			DefinedCount: rep.DefinedCount,
			UsedCount:    rep.UsedCount,
			LocalImports: len(rep.LocalImports),
			SyntaxError:  rep.SyntaxError,
		})
	}
	return results
}

// HandleChanges is the watch-mode callback: re-analyze the changed files
// and log a summary.
func (a *App) HandleChanges(paths []string) {
	slog.Info("detected changes", "count", len(paths))

	existing := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		}
	}

	result, err := a.Scan(context.Background(), existing)
	if err != nil {
		slog.Error("re-analysis failed", "error", err)
		return
	}
	a.PrintSummary(result)
}

// PrintSummary writes a human-readable scan digest to stdout.
func (a *App) PrintSummary(result ScanResult) {
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Scan: %d files in %dms\n", result.Run.FileCount, result.Run.DurationMillis)

	problems := 0
	for _, rep := range result.Reports {
		if rep.Err != nil {
			fmt.Printf("✗ %s: %v\n", rep.Path, rep.Err)
			problems++
			continue
		}
		if len(rep.Missing) > 0 {
			fmt.Printf("❓ %s: missing %s\n", rep.Path, strings.Join(rep.Missing, ", "))
			problems++
		}
		for _, rec := range rep.LocalImports {
			fmt.Printf("🧹 %s: local import %s\n", rep.Path, strings.Repeat(".", rec.Level)+rec.Module)
			problems++
		}
	}
	if problems == 0 {
		fmt.Println("✅ No missing names or local imports found.")
	}
	fmt.Println(strings.Repeat("-", 40))
}
