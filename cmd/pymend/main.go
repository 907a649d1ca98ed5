package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"pymend/internal/app"
	"pymend/internal/config"
	"pymend/internal/observability"
	"pymend/internal/watcher"
)

var (
	configPath   = flag.String("config", "./pymend.toml", "Path to config file")
	missing      = flag.Bool("missing", false, "Print only missing names, one per line")
	fix          = flag.Bool("fix", false, "Rewrite files: strip dead blocks and local imports, bind missing names")
	addCall      = flag.String("add-call", "", "With -fix, insert a call after the named function definition")
	removeImport = flag.String("remove-import", "", "Remove every import of the named module from the given files")
	once         = flag.Bool("once", false, "Run single scan and exit")
	watch        = flag.Bool("watch", false, "Re-analyze on file changes")
	ui           = flag.Bool("ui", false, "Enable terminal UI mode (implies -watch)")
	serve        = flag.Bool("serve", false, "Expose /metrics and /health")
	verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	version      = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("pymend v%s\n", VERSION)
		os.Exit(0)
	}

	setupLogging()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath != "./pymend.toml" {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}
	if flag.NArg() > 0 {
		cfg.ScanPaths = flag.Args()
	}

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx := context.Background()

	if *serve {
		shutdown, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint)
		if err != nil {
			slog.Error("failed to initialize tracing", "error", err)
			os.Exit(1)
		}
		defer shutdown(ctx)

		srv := observability.NewServer(cfg.Observability.Listen, nil)
		if err := srv.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			os.Exit(1)
		}
		defer srv.Stop(ctx)
	}

	if *removeImport != "" {
		runRemoveImport(ctx, a, *removeImport)
		return
	}

	files, err := a.ScanDirectories(cfg.ScanPaths)
	if err != nil {
		slog.Error("scan failed", "error", err)
		os.Exit(1)
	}

	if *fix {
		runFix(ctx, a, files)
		if !*watch {
			return
		}
	}

	result, err := a.Scan(ctx, files)
	if err != nil {
		slog.Error("analysis failed", "error", err)
		os.Exit(1)
	}

	if *missing {
		printMissing(result)
		return
	}
	if !*ui {
		a.PrintSummary(result)
	}

	if *once || (!*watch && !*ui) {
		return
	}

	r := &runner{app: a}
	w, err := watcher.New(cfg.Watch.Debounce, cfg.Watch.MaxPerSecond,
		cfg.Exclude.Dirs, cfg.Exclude.Files, r.handleChanges)
	if err != nil {
		slog.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}
	defer w.Close()
	if err := w.Watch(cfg.ScanPaths); err != nil {
		slog.Error("failed to watch paths", "error", err)
		os.Exit(1)
	}

	if *ui {
		if err := r.runUI(result); err != nil {
			slog.Error("failed to run UI", "error", err)
			os.Exit(1)
		}
		return
	}
	select {}
}

func setupLogging() {
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stdout
	if *ui {
		// In UI mode, avoid stdout logs corrupting the TUI.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600); err == nil {
			output = f
		} else {
			fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	})))
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "pymend", "pymend.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "pymend", "pymend.log")
	}

	return "pymend.log"
}

func runRemoveImport(ctx context.Context, a *app.App, module string) {
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "-remove-import requires file arguments: pymend -remove-import <module> <file.py>...")
		os.Exit(1)
	}
	for _, path := range flag.Args() {
		if err := a.RemoveImport(ctx, path, module); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			os.Exit(1)
		}
	}
}

func runFix(ctx context.Context, a *app.App, files []string) {
	for _, path := range files {
		result, err := a.FixFile(ctx, path, *addCall)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			continue
		}
		if result.CallTargetMissing {
			fmt.Fprintf(os.Stderr, "%s: function %q not found, call not inserted\n", path, *addCall)
		}
		if result.Changed {
			fmt.Printf("fixed %s%s\n", path, fixDetail(result))
		}
	}
}

func fixDetail(r app.FixResult) string {
	var parts []string
	if r.StrippedBlocks {
		parts = append(parts, "dead blocks")
	}
	if r.StrippedImports {
		parts = append(parts, "local imports")
	}
	if r.SynthesizedNames {
		parts = append(parts, "missing names")
	}
	if r.InsertedCall != "" {
		parts = append(parts, "call to "+r.InsertedCall)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func printMissing(result app.ScanResult) {
	for _, rep := range result.Reports {
		for _, name := range rep.Missing {
			fmt.Printf("%s: %s\n", rep.Path, name)
		}
	}
}
