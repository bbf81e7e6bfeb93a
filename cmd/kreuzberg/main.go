// Command kreuzberg extracts text from documents.
//
// Usage:
//
//	kreuzberg file.pdf                       # extract one file, JSON on stdout
//	kreuzberg -batch a.pdf b.docx c.html     # extract many files concurrently
//	kreuzberg -serve                         # serve the MCP tools on stdio
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/kreuzberg"
	"github.com/hazyhaar/kreuzberg/extractors"
	"github.com/hazyhaar/kreuzberg/ocr"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "path to kreuzberg.yaml config file")
	serve := flag.Bool("serve", false, "serve the MCP tools on stdio")
	batch := flag.Bool("batch", false, "extract all arguments concurrently")
	mimeType := flag.String("mime", "", "MIME type override (single-file mode)")
	forceOCR := flag.Bool("force-ocr", false, "run OCR even when the native text layer looks good")
	ocrLang := flag.String("ocr-lang", "", "OCR language code (default eng)")
	noCache := flag.Bool("no-cache", false, "disable the OCR result cache")
	clearCache := flag.Bool("clear-cache", false, "delete all cached OCR results and exit")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("kreuzberg: config", "error", err)
		os.Exit(1)
	}
	cfg.Logger = logger
	if *forceOCR {
		cfg.ForceOCR = true
	}
	if *ocrLang != "" {
		cfg.OCR.Language = *ocrLang
	}
	if *noCache {
		cfg.UseCache = false
	}

	if *clearCache {
		cache := ocr.NewCache(cfg.CacheDir)
		if st, err := cache.DirStats(); err == nil {
			logger.Info("clearing ocr cache", "dir", cache.Dir(), "entries", st.Entries, "bytes", st.TotalBytes)
		}
		if err := cache.Clear(); err != nil {
			logger.Error("kreuzberg: clear cache", "error", err)
			os.Exit(1)
		}
		return
	}

	regs := kreuzberg.NewRegistries()
	defer regs.Shutdown()
	if err := extractors.RegisterDefaults(regs); err != nil {
		logger.Error("kreuzberg: register extractors", "error", err)
		os.Exit(1)
	}
	if err := kreuzberg.RegisterBuiltinProcessors(regs); err != nil {
		logger.Error("kreuzberg: register processors", "error", err)
		os.Exit(1)
	}
	if err := regs.OcrBackends.Register(ocr.NewTesseractBackend()); err != nil {
		logger.Warn("kreuzberg: tesseract unavailable, OCR disabled", "error", err)
	}

	if err := run(ctx, logger, regs, cfg, *serve, *batch, *mimeType, flag.Args()); err != nil {
		logger.Error("kreuzberg: fatal", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*kreuzberg.ExtractionConfig, error) {
	if path == "" {
		return kreuzberg.DefaultConfig(), nil
	}
	return kreuzberg.LoadConfig(path)
}

func run(ctx context.Context, logger *slog.Logger, regs *kreuzberg.Registries, cfg *kreuzberg.ExtractionConfig, serve, batch bool, mimeType string, args []string) error {
	if serve {
		return runServe(ctx, logger, regs, cfg)
	}
	if batch {
		if len(args) == 0 {
			return fmt.Errorf("batch mode needs at least one file")
		}
		return runBatch(ctx, regs, cfg, args)
	}
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: kreuzberg [-mime type] <file> | -batch <files...> | -serve")
		os.Exit(1)
	}
	return runExtract(ctx, regs, cfg, args[0], mimeType)
}

func runExtract(ctx context.Context, regs *kreuzberg.Registries, cfg *kreuzberg.ExtractionConfig, path, mimeType string) error {
	res, err := regs.ExtractFile(ctx, path, mimeType, cfg)
	if err != nil {
		return err
	}
	return emitJSON(res)
}

func runBatch(ctx context.Context, regs *kreuzberg.Registries, cfg *kreuzberg.ExtractionConfig, paths []string) error {
	results, err := regs.BatchExtractFiles(ctx, paths, cfg)
	if err != nil {
		return err
	}
	return emitJSON(results)
}

func runServe(ctx context.Context, logger *slog.Logger, regs *kreuzberg.Registries, cfg *kreuzberg.ExtractionConfig) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "kreuzberg", Version: version}, nil)
	regs.RegisterMCP(srv, cfg)
	logger.Info("kreuzberg: serving MCP on stdio")
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func emitJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
