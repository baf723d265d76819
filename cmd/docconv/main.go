// Command docconv runs the document conversion HTTP service.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	docconv "github.com/alnah/go-docconv"
	"github.com/alnah/go-docconv/internal/config"
	"github.com/alnah/go-docconv/internal/logger"
	"github.com/alnah/go-docconv/internal/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	flags, err := parseFlags(os.Args)
	if err != nil {
		return err
	}
	if flags.version {
		fmt.Println(Version)
		return nil
	}

	// .env is optional; real environment always wins.
	_ = godotenv.Load()

	cfg, err := config.Load(flags.config)
	if err != nil {
		return err
	}
	applyFlags(cfg, flags)

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		log.Sugar().Debugf(format, args...)
	}))

	conv, err := docconv.New(
		docconv.WithInputFormats(cfg.Converter.InputFormats),
		docconv.WithOutputFormat(cfg.Converter.OutputFormat),
		docconv.WithWorkers(cfg.Converter.Workers),
		docconv.WithMaxFileSize(cfg.Converter.MaxFileSizeBytes()),
		docconv.WithTimeout(cfg.Converter.Timeout()),
		docconv.WithTempDir(cfg.Converter.TempDir),
		docconv.WithEngineBinary(cfg.Engine.Binary),
		docconv.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("starting converter: %w", err)
	}
	defer func() { _ = conv.Close() }()

	log.Info("docconv starting",
		zap.String("version", Version),
		zap.String("addr", cfg.Server.Addr()),
		zap.Int("workers", conv.Workers()),
		zap.String("engine", cfg.Engine.Binary),
		zap.String("output_format", cfg.Converter.OutputFormat),
	)

	ctx, stop := notifyContext(context.Background())
	defer stop()

	return server.New(cfg.Server, conv, log).Run(ctx)
}

// applyFlags layers command-line overrides over the loaded config.
func applyFlags(cfg *config.Config, flags *cliFlags) {
	if flags.host != "" {
		cfg.Server.Host = flags.host
	}
	if flags.port != 0 {
		cfg.Server.Port = flags.port
	}
	if flags.workers != 0 {
		cfg.Converter.Workers = flags.workers
	}
	if flags.verbose {
		cfg.Log.Level = "debug"
		cfg.Log.Format = "console"
	}
}
