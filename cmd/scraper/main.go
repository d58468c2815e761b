package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/user/product-image-scraper/internal/adapter/chromedp_crawler"
	"github.com/user/product-image-scraper/internal/adapter/httpclient"
	"github.com/user/product-image-scraper/internal/csvinput"
	"github.com/user/product-image-scraper/internal/downloader"
	"github.com/user/product-image-scraper/internal/report"
	"github.com/user/product-image-scraper/internal/repository"
	"github.com/user/product-image-scraper/internal/usecase"
	"github.com/user/product-image-scraper/pkg/config"
	"github.com/user/product-image-scraper/pkg/logger"
	"go.uber.org/zap"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitInvalidArgs  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: could not load config: %v\n", err)
		return ExitGeneralError
	}

	fs := flag.NewFlagSet("scraper", flag.ContinueOnError)
	fs.SetOutput(stderr)

	inputCSV := fs.String("input-csv", "", "CSV file with ref,url columns (required)")
	outDir := fs.String("out-dir", cfg.OutDir, "Output directory for images")
	maxPerProduct := fs.Int("max-per-product", cfg.MaxPerProduct, "Maximum images per product")
	sleep := fs.Float64("sleep", cfg.RequestSleep, "Seconds to wait after each product")
	render := fs.String("render", cfg.RenderMode, "Page fetcher: http or chromedp")
	reportFile := fs.String("report-file", "", "Write the full run report as YAML to this file")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: scraper -input-csv <file> [options]

Download product images for every ref,url row of a CSV file.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitInvalidArgs
	}
	if *inputCSV == "" {
		fmt.Fprintln(stderr, "Error: -input-csv is required")
		fs.Usage()
		return ExitInvalidArgs
	}
	if *maxPerProduct < 0 || *sleep < 0 {
		fmt.Fprintln(stderr, "Error: -max-per-product and -sleep cannot be negative")
		return ExitInvalidArgs
	}
	if *render != "http" && *render != "chromedp" {
		fmt.Fprintf(stderr, "Error: unknown -render mode %q\n", *render)
		return ExitInvalidArgs
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Error: could not create logger: %v\n", err)
		return ExitGeneralError
	}
	defer log.Sync()

	rows, err := csvinput.ReadFile(*inputCSV)
	if err != nil && !errors.Is(err, csvinput.ErrMissingColumns) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	if len(rows) == 0 {
		fmt.Fprintln(stdout, "No valid rows found in the CSV (expected columns ref,url)")
		return ExitSuccess
	}

	opts := httpclient.DefaultOptions()
	opts.UserAgent = cfg.UserAgent
	opts.Timeout = cfg.Timeout()
	opts.Attempts = cfg.RequestRetry
	opts.BaseSleep = cfg.Sleep()
	opts.Proxies = cfg.Proxies()

	client, err := httpclient.New(opts, nil, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	var fetcher repository.PageFetcher = httpclient.NewPageFetcher(client)
	if *render == "chromedp" {
		browser := chromedp_crawler.NewPageFetcher(chromedp_crawler.Options{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout(),
			Attempts:  cfg.RequestRetry,
			BaseSleep: cfg.Sleep(),
			Proxy:     firstOrEmpty(opts.Proxies),
		}, nil, log)
		defer browser.Close()
		fetcher = browser
	}

	batch := usecase.NewBatchRunner(fetcher, downloader.New(client, nil, log), nil, log)

	log.Info("starting batch", zap.Int("rows", len(rows)), zap.String("out_dir", *outDir), zap.String("render", *render))
	result := batch.Run(ctx, rows, usecase.BatchOptions{
		OutDir:        *outDir,
		MaxPerProduct: *maxPerProduct,
		Pacing:        time.Duration(*sleep * float64(time.Second)),
	})

	if err := report.Print(stdout, result); err != nil {
		log.Error("failed to print report", zap.Error(err))
	}
	if *reportFile != "" {
		if err := report.WriteYAML(*reportFile, result); err != nil {
			log.Error("failed to write report file", zap.String("path", *reportFile), zap.Error(err))
		}
	}
	return ExitSuccess
}

func firstOrEmpty(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
