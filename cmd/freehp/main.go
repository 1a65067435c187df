package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"freehp/internal/shared/config"
	"freehp/internal/shared/logger"
	"freehp/internal/shared/types"
	manager "freehp/proxypool"
	"freehp/proxypool/storage"
)

const version = "0.3.0"

// overrideFlags collects repeated -s NAME=VALUE settings.
type overrideFlags []config.Override

func (o *overrideFlags) String() string {
	parts := make([]string, len(*o))
	for i, v := range *o {
		parts[i] = v.Section + "." + v.Key + "=" + v.Value
	}
	return strings.Join(parts, ",")
}

func (o *overrideFlags) Set(s string) error {
	ov, err := config.ParseOverride(s)
	if err != nil {
		return err
	}
	*o = append(*o, ov)
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  run      Run spider to scrap free HTTP proxies")
	fmt.Fprintln(os.Stderr, "  version  Print the version")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(run(os.Args[2:]))
	case "version":
		fmt.Printf("freehp version %s\n", version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func run(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("c", "", "configuration file")
	pagesPath := fs.String("pages", "", "pages file (overrides [spider] pages_file)")
	logLevel := fs.String("l", "", "log level")
	var overrides overrideFlags
	fs.Var(&overrides, "s", "set/override setting NAME=VALUE (may be repeated)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// 1. 加载 .ini 行为配置
	cfg := types.Defaults()
	if *configPath != "" {
		if _, err := os.Stat(*configPath); err != nil {
			abs, _ := filepath.Abs(*configPath)
			fmt.Fprintf(os.Stderr, "Error: Cannot find '%s'\n", abs)
			return 1
		}
	}
	if err := config.LoadIni(cfg, *configPath, overrides...); err != nil {
		// Use standard fmt before logger is initialized.
		fmt.Fprintf(os.Stderr, "Fatal: Failed to load config file '%s': %v\n", *configPath, err)
		return 1
	}
	if *logLevel != "" {
		cfg.LogConf.Level = *logLevel
	}

	// 1.1 初始化日志系统
	if err := logger.Init(cfg.LogConf); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		return 1
	}

	// 2. 加载 pages.json 数据配置
	pages := cfg.PagesFile
	if *pagesPath != "" {
		pages = *pagesPath
	} else if *configPath != "" && !filepath.IsAbs(pages) {
		pages = filepath.Join(filepath.Dir(*configPath), pages)
	}
	harvest, err := config.LoadHarvest(pages)
	if err != nil {
		logger.Error().Err(err).Str("path", pages).Msg("Failed to load pages file.")
		return 1
	}
	if len(harvest.InitialPages)+len(harvest.UpdatePages) == 0 {
		logger.Warn().Str("path", pages).Msg("No pages configured, nothing to harvest.")
	}

	sink, err := storage.NewFileSink(cfg.OutputConf.File)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open output.")
		return 1
	}
	defer sink.Close()

	// 3. 创建并运行
	m, err := manager.NewManager(cfg, harvest, sink)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid harvest configuration.")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m.Start(ctx)
	select {
	case <-ctx.Done():
		logger.Info().Msg("Signal received, shutting down.")
		m.Stop()
	case <-m.Done():
	}

	logger.Info().Int("written", sink.Written()).Msg("Harvest finished.")
	if err := m.Err(); err != nil {
		return 1
	}
	return 0
}
