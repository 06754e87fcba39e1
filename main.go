package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"quotedump/config"
	"quotedump/logger"
	"quotedump/models"
	"quotedump/processor"
	"quotedump/reader"
	"quotedump/writer"
)

type options struct {
	capturePath string
	sort        bool
	csv         bool
	parquetPath string
	acceptBase  string
}

func main() {
	start := time.Now()
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", config.DefaultConfigPath, "Path to configuration file")
	sortFlag := flag.Bool("sort", false, "Sort quotes by accept time")
	csvFlag := flag.Bool("csv", false, "Write comma separated output with a header row")
	parquetPath := flag.String("parquet", "", "Also export quotes to this Parquet file")
	acceptBase := flag.String("accept-base", "", "Accept time display day: fixed or capture")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <capture.pcap>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(config.ResolvePath(*configPath))
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := options{
		capturePath: flag.Arg(0),
		sort:        *sortFlag,
		csv:         *csvFlag,
		parquetPath: *parquetPath,
		acceptBase:  *acceptBase,
	}
	if err := run(ctx, cfg, opts, os.Stdout, start); err != nil {
		log.WithError(err).Error("quotedump failed")
		os.Exit(1)
	}
}

// applyFlags folds command line switches over the loaded configuration.
func applyFlags(cfg *config.Config, opts options) {
	if opts.sort {
		cfg.Decoder.SortByAcceptTime = true
	}
	if opts.csv {
		cfg.Output.Format = config.FormatCSV
	}
	if opts.parquetPath != "" {
		cfg.Output.Parquet.Enabled = true
		cfg.Output.Parquet.Path = opts.parquetPath
	}
	if opts.acceptBase != "" {
		cfg.Decoder.AcceptBase = opts.acceptBase
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, stdout io.Writer, start time.Time) error {
	applyFlags(cfg, opts)
	base, err := processor.ParseAcceptBase(cfg.Decoder.AcceptBase)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	log := logger.GetLogger()
	log.WithFields(logger.Fields{
		"service": cfg.QuoteDump.Name,
		"version": cfg.QuoteDump.Version,
		"run_id":  runID,
		"capture": opts.capturePath,
	}).Info("starting quotedump")

	if cfg.Metrics.CloudWatch {
		logger.InitCloudWatch(ctx, cfg.Metrics.Region, cfg.Metrics.Namespace)
	}

	src, err := reader.OpenPcap(opts.capturePath)
	if err != nil {
		return err
	}
	defer src.Close()

	quotes, stats, err := processor.NewDecoder().Run(src)
	if err != nil {
		return err
	}
	if cfg.Decoder.SortByAcceptTime {
		quotes.SortByAcceptTime()
	}

	if err := writeText(cfg, quotes, base, stdout, start); err != nil {
		return err
	}
	if err := export(ctx, cfg, quotes.Quotes(), base, runID); err != nil {
		return err
	}

	logger.LogReport(ctx, log, logger.RunReport{
		RunID:         runID,
		Source:        src.Format(),
		FramesRead:    stats.FramesRead,
		FramesMatched: stats.FramesMatched,
		QuotesDecoded: stats.QuotesDecoded,
		Skipped:       stats.Skipped,
		Elapsed:       time.Since(start),
	})
	return nil
}

func writeText(cfg *config.Config, quotes *models.QuoteCollection, base processor.AcceptBase, stdout io.Writer, start time.Time) error {
	out := stdout
	if cfg.Output.Path != "" {
		f, err := os.Create(cfg.Output.Path)
		if err != nil {
			return fmt.Errorf("create output %s: %w", cfg.Output.Path, err)
		}
		defer f.Close()
		out = f
	}

	tw := writer.NewTextWriter(out, cfg.Output.Format == config.FormatCSV, base)
	if err := tw.WriteAll(quotes.Quotes()); err != nil {
		return fmt.Errorf("write quotes: %w", err)
	}
	return tw.Finish(time.Since(start))
}

// export runs the optional sinks in order: Parquet file, S3 upload, Kafka.
func export(ctx context.Context, cfg *config.Config, quotes []models.Quote, base processor.AcceptBase, runID string) error {
	log := logger.GetLogger().WithComponent("main").WithFields(logger.Fields{"run_id": runID})

	if cfg.Output.Parquet.Enabled {
		pw := writer.NewParquetWriter(runID, cfg.Output.Parquet.Compression)
		if cfg.Output.Parquet.Path != "" {
			rows, err := pw.WriteFile(cfg.Output.Parquet.Path, quotes)
			if err != nil {
				return err
			}
			log.WithFields(logger.Fields{"path": cfg.Output.Parquet.Path, "rows": rows}).Info("parquet export written")
		}

		if cfg.Storage.S3.Enabled {
			uploader, err := writer.NewS3Uploader(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to create S3 uploader: %w", err)
			}
			data, err := pw.Encode(quotes)
			if err != nil {
				return err
			}
			day := time.Now()
			if len(quotes) > 0 {
				day = quotes[0].CaptureTime
			}
			if err := uploader.Upload(ctx, uploader.Key(runID, day), data); err != nil {
				return err
			}
		}
	}

	if cfg.Storage.Kafka.Enabled {
		kw, err := writer.NewKafkaWriter(cfg.Storage.Kafka, base, runID)
		if err != nil {
			return err
		}
		defer kw.Close()
		if _, err := kw.Publish(ctx, quotes); err != nil {
			return err
		}
	}
	return nil
}
