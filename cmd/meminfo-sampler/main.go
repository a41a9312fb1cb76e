// Package main is the entry point for the standalone meminfo sampler.
// It plays the host's role: discovers and registers metrics, samples until
// the configured duration elapses or a signal arrives, then writes a report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Guliveer/vitalis/meminfo/internal/config"
	"github.com/Guliveer/vitalis/meminfo/internal/export"
	"github.com/Guliveer/vitalis/meminfo/internal/models"
	"github.com/Guliveer/vitalis/meminfo/internal/plugin"
)

var (
	// version is set at build time via -ldflags.
	version = "dev"

	configPath  = flag.String("config", "", "Path to configuration file (default: search standard locations)")
	showVersion = flag.Bool("version", false, "Show version and exit")
	listOnly    = flag.Bool("list", false, "List the matching metrics and exit")
	writeConfig = flag.String("write-config", "", "Write the effective configuration to this path and exit")

	intervalFlag = flag.String("interval", "", "Sampling interval: <integer><s|ms|us|ns>")
	sourceFlag   = flag.String("source", "", "Path of the meminfo source")
	metricsFlag  = flag.String("metrics", "", "Comma-separated metric name patterns")
	outputFlag   = flag.String("output", "", "Report output directory")
	durationFlag = flag.Duration("duration", 0, "Stop sampling after this long (default: until interrupted)")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("meminfo-sampler %s\n", version)
		os.Exit(0)
	}

	cli := config.CLIOverrides{
		Interval: *intervalFlag,
		Source:   *sourceFlag,
		Metrics:  *metricsFlag,
		Output:   *outputFlag,
		Duration: *durationFlag,
	}

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadLayered(cli, embeddedConfig, *configPath)
	} else {
		cfg, err = config.LoadLayered(cli, embeddedConfig)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *writeConfig != "" {
		if err := config.WriteConfig(cfg, *writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger := initLogger(cfg)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	logger.Info("Starting meminfo sampler",
		zap.String("version", version),
		zap.String("source", cfg.Sampling.Source),
		zap.Duration("interval", cfg.Sampling.Interval.Duration))

	p := plugin.New(cfg.Sampling.Source, cfg.Sampling.Interval.Duration, logger)
	props, err := register(p, cfg.Sampling.Metrics)
	if err != nil {
		logger.Fatal("Failed to register metrics", zap.Error(err))
	}

	if *listOnly {
		for _, prop := range props {
			fmt.Printf("%-20s %-3s %s %s\n", prop.Name, prop.Unit, prop.Mode, prop.ValueType)
		}
		return
	}

	if len(props) == 0 {
		logger.Warn("No metrics matched, only timestamps will be recorded")
	}

	writer, err := export.New(cfg.Output.Dir, cfg.Output.MaxReports, logger)
	if err != nil {
		logger.Fatal("Failed to initialize report writer", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if d := cfg.Sampling.Duration.Duration; d > 0 {
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	// Handle OS signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("Received signal, shutting down",
				zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	run(ctx, p, writer, logger)
}

// register discovers and registers the metrics matching patterns, the way
// the host asks for one pattern at a time.
func register(p *plugin.Plugin, patterns []string) ([]models.MetricProperty, error) {
	if len(patterns) == 0 {
		patterns = []string{"*"}
	}

	var props []models.MetricProperty
	for _, pattern := range patterns {
		result, err := p.MetricProperties(pattern)
		if err != nil {
			return nil, err
		}
		props = append(props, result...)
	}
	return props, nil
}

// run samples until ctx is done, then writes the report.
func run(ctx context.Context, p *plugin.Plugin, writer *export.Writer, logger *zap.Logger) {
	started := time.Now()
	p.Start()
	<-ctx.Done()
	p.Stop()

	reportCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report := p.Report(reportCtx)
	path, err := writer.Write(report)
	if err != nil {
		logger.Error("Failed to write report", zap.Error(err))
		return
	}

	logger.Info("Sampler stopped",
		zap.Int("ticks", report.Ticks),
		zap.Int("metrics", len(report.Series)),
		zap.Duration("elapsed", time.Since(started)),
		zap.String("report", path))

	for _, s := range report.Series {
		if n := len(s.Points); n > 0 {
			logger.Debug("Last value",
				zap.String("metric", s.Name),
				zap.Int64("value", s.Points[n-1].Value),
				zap.String("unit", s.Unit))
		}
	}
}

// initLogger creates a zap logger based on the configuration.
// It outputs to both console (human-readable) and optionally a JSON log file.
func initLogger(cfg *config.Config) *zap.Logger {
	var level zapcore.Level
	switch cfg.Logging.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		level,
	)

	cores := []zapcore.Core{consoleCore}

	// File output (structured JSON, if configured)
	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err == nil {
			fileCore := zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(file),
				level,
			)
			cores = append(cores, fileCore)
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}
