// Package main is the partnermap CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/partnermap/internal/builder"
	"github.com/hyperjump/partnermap/internal/cli"
	"github.com/hyperjump/partnermap/internal/config"
	"github.com/hyperjump/partnermap/internal/lint"
	"github.com/hyperjump/partnermap/internal/models"
	"github.com/hyperjump/partnermap/internal/server"
	"github.com/hyperjump/partnermap/internal/storage"
	"github.com/hyperjump/partnermap/internal/watcher"
	"github.com/hyperjump/partnermap/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "partnermap.yaml"

// loadConfig loads config from path. When path is the default and no such file exists,
// the built-in defaults (data/partners.xlsx -> data/routes.json, data/locations.json) are used.
// Returns the config and the path that was actually loaded ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// splitCommand returns the subcommand and its arguments. Without a subcommand, build runs.
func splitCommand(args []string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "build", args
	}
	return args[0], args[1:]
}

func main() {
	command, args := splitCommand(os.Args[1:])
	switch command {
	case "build":
		runBuild(args)
	case "serve", "server":
		runServe(args)
	case "watch":
		runWatch(args)
	case "status":
		runStatus(args)
	case "lint":
		runLint(args)
	case "init":
		runInit(args)
	case "version", "--version", "-v":
		fmt.Printf("partnermap version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// env is what every subcommand needs after flag parsing.
type env struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
	debug      bool
}

// setup parses fs, loads the config and creates the logger. Fatal on error.
func setup(fs *flag.FlagSet, args []string) *env {
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (skipped rows, heuristic splits, duplicates)")
	_ = fs.Parse(args)

	cfg, resolved, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	if resolved == "" {
		logger.Debug("no config file, using defaults", zap.String("workbook", cfg.Input.WorkbookPath))
	} else {
		logger.Debug("config loaded", zap.String("config_path", resolved))
	}
	return &env{cfg: cfg, configPath: resolved, logger: logger, debug: debugMode}
}

// Components holds the long-lived pieces of a command.
type Components struct {
	Builder *builder.Builder
	Catalog *storage.Catalog
}

// Close releases the catalog, if any.
func (c *Components) Close() {
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{}
	opts := []builder.BuilderOption{builder.WithLogger(logger)}
	if cfg.Output.CatalogPath != "" {
		cat, err := storage.NewCatalog(cfg.Output.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		c.Catalog = cat
		opts = append(opts, builder.WithCatalog(cat))
	}
	b, err := builder.NewBuilder(cfg, opts...)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create builder: %w", err)
	}
	c.Builder = b
	return c, nil
}

func runBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("output", "text", "summary format: text or json")
	e := setup(fs, args)
	defer e.logger.Sync()

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fatalf("Failed to build: %v", err)
	}
	components, err := initializeComponents(e.cfg, e.logger)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer components.Close()

	res, err := components.Builder.Build(context.Background())
	if err != nil {
		fatalf("Failed to build: %v", err)
	}
	if err := cli.WriteSummary(os.Stdout, res.Summarize(), format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// rebuild runs a build for a watcher callback. Failures are logged and the previous outputs stay.
func rebuild(b *builder.Builder, logger *zap.Logger, onResult func(*models.Result)) func(string) {
	return func(path string) {
		res, err := b.Build(context.Background())
		if err != nil {
			logger.Warn("rebuild failed, keeping previous outputs", zap.String("workbook", path), zap.Error(err))
			return
		}
		if onResult != nil {
			onResult(res)
		}
	}
}

func watchOptions(e *env) []watcher.WatcherOption {
	opts := []watcher.WatcherOption{
		watcher.WithDebounce(time.Duration(e.cfg.Watch.DebounceMS) * time.Millisecond),
	}
	if e.debug {
		opts = append(opts, watcher.WithLogger(e.logger))
	}
	return opts
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	watch := fs.Bool("watch", false, "rebuild and reload when the workbook changes")
	e := setup(fs, args)
	defer e.logger.Sync()

	components, err := initializeComponents(e.cfg, e.logger)
	if err != nil {
		e.logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	res, err := components.Builder.Build(context.Background())
	if err != nil {
		e.logger.Fatal("Failed to build", zap.Error(err))
	}
	// A nil *storage.Catalog must not become a non-nil RouteFinder.
	var finder server.RouteFinder
	if components.Catalog != nil {
		finder = components.Catalog
	}
	srv := server.NewServer(&e.cfg.Server, finder, e.logger, e.cfg.Output.RoutesPath, e.cfg.Output.LocationsPath)
	if err := srv.Update(res); err != nil {
		e.logger.Fatal("Failed to load build", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *watch {
		w := watcher.NewWatcher(e.cfg.Input.WorkbookPath,
			rebuild(components.Builder, e.logger, func(res *models.Result) {
				if err := srv.Update(res); err != nil {
					e.logger.Warn("failed to reload build", zap.Error(err))
				}
			}),
			watchOptions(e)...)
		if err := w.Start(ctx); err != nil {
			e.logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
		e.logger.Info("watching workbook", zap.String("path", w.Path()))
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	e.logger.Info("Shutting down...")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	_ = srv.Stop(stopCtx)
}

func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	e := setup(fs, args)
	defer e.logger.Sync()

	components, err := initializeComponents(e.cfg, e.logger)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer components.Close()

	printSummary := func(res *models.Result) {
		_ = cli.WriteSummary(os.Stdout, res.Summarize(), cli.OutputText)
	}
	// A missing workbook is not fatal here: the watcher picks it up once it appears.
	rebuild(components.Builder, e.logger, printSummary)(e.cfg.Input.WorkbookPath)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	w := watcher.NewWatcher(e.cfg.Input.WorkbookPath,
		rebuild(components.Builder, e.logger, printSummary),
		watchOptions(e)...)
	if err := w.Start(ctx); err != nil {
		fatalf("Failed to start watcher: %v", err)
	}
	defer w.Stop()
	e.logger.Info("watching workbook", zap.String("path", w.Path()))
	<-ctx.Done()
}

// collectStatus reads the documents on disk and, when configured and present, the catalog.
func collectStatus(ctx context.Context, cfg *config.Config) (*cli.Status, error) {
	res, err := storage.ReadDocuments(cfg.Output.RoutesPath, cfg.Output.LocationsPath)
	if err != nil {
		return nil, err
	}
	files, total, err := storage.StatOutputs(cfg.Output.RoutesPath, cfg.Output.LocationsPath, cfg.Output.CatalogPath)
	if err != nil {
		return nil, err
	}
	st := &cli.Status{
		Summary:        res.Summarize(),
		Carriers:       res.Carriers(),
		Outputs:        files,
		DiskUsageBytes: total,
	}
	if cfg.Output.CatalogPath == "" {
		return st, nil
	}
	// Do not create an empty catalog just to report on it.
	if _, err := os.Stat(cfg.Output.CatalogPath); err != nil {
		return st, nil
	}
	cat, err := storage.NewCatalog(cfg.Output.CatalogPath)
	if err != nil {
		return nil, err
	}
	defer cat.Close()
	if st.LastRun, err = cat.LastRun(ctx); err != nil {
		return nil, fmt.Errorf("failed to read last run: %w", err)
	}
	if st.CatalogRuns, err = cat.CountRuns(ctx); err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}
	inSync, err := cat.Matches(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("failed to compare catalog: %w", err)
	}
	st.CatalogInSync = &inSync
	return st, nil
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	output := fs.String("output", "text", "output format: text or json")
	e := setup(fs, args)
	defer e.logger.Sync()

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fatalf("Unknown output format %q; use text or json", *output)
	}
	st, err := collectStatus(context.Background(), e.cfg)
	if err != nil {
		fatalf("Status failed: %v", err)
	}
	if err := cli.WriteStatus(os.Stdout, st, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// countryMarkers returns the configured country qualifiers.
func countryMarkers(cfg *config.Config) []string {
	markers := make([]string, 0, len(cfg.Pipeline.Countries))
	for _, c := range cfg.Pipeline.Countries {
		markers = append(markers, c.Marker)
	}
	return markers
}

func runLint(args []string) {
	fs := flag.NewFlagSet("lint", flag.ExitOnError)
	output := fs.String("output", "text", "output format: text or json")
	maxDistance := fs.Int("max-distance", -1, "report names at most this many edits apart (default from config)")
	e := setup(fs, args)
	defer e.logger.Sync()

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fatalf("Unknown output format %q; use text or json", *output)
	}
	distance := e.cfg.Lint.Distance()
	if *maxDistance >= 0 {
		distance = *maxDistance
	}
	b, err := builder.NewBuilder(e.cfg, builder.WithLogger(e.logger))
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	res, err := b.Compute(context.Background())
	if err != nil {
		fatalf("Failed to read workbook: %v", err)
	}
	linter := lint.NewLinter(distance, countryMarkers(e.cfg), lint.WithLogger(e.logger))
	if err := cli.WriteLint(os.Stdout, linter.Check(res.Locations), format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// writeDefaultConfig saves the built-in configuration to path. An existing file
// is only replaced when force is set.
func writeDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use -force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return config.Save(path, config.Default())
}

func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file to write")
	force := fs.Bool("force", false, "overwrite an existing config file")
	_ = fs.Parse(args)

	if err := writeDefaultConfig(*configPath, *force); err != nil {
		fatalf("Init failed: %v", err)
	}
	fmt.Printf("Wrote %s\n", *configPath)
}

func printUsage() {
	fmt.Println(`partnermap - Build carrier route and location documents from the partner workbook

Usage:
  partnermap [build] [flags]      Read the workbook and write routes.json and locations.json
  partnermap serve [flags]        Build, then serve the result over HTTP
  partnermap watch [flags]        Rebuild whenever the workbook changes
  partnermap status [flags]       Show what the current documents contain
  partnermap lint [flags]         List location names that look like misspellings of each other
  partnermap init [flags]         Write the built-in configuration to a config file
  partnermap version              Show version
  partnermap help                 Show this help

Common Flags:
  --config string    Config file path (default: partnermap.yaml; built-in defaults when absent)
  --debug            Enable debug logging (skipped rows, heuristic splits, duplicates)

Build Flags:
  --output string    Summary format: text or json (default: text)

Serve Flags:
  --watch            Rebuild and reload when the workbook changes

Status Flags:
  --output string    Output format: text or json (default: text)

Lint Flags:
  --output string    Output format: text or json (default: text)
  --max-distance int Maximum edit distance (default from config, 2)

Init Flags:
  --config string    Config file to write (default: partnermap.yaml)
  --force            Overwrite an existing config file

Examples:
  partnermap
  partnermap build --config partnermap.yaml
  partnermap serve --watch
  partnermap status --output json
  partnermap lint --max-distance 1
  partnermap init --config partnermap.yaml`)
}
