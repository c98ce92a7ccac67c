// Command isd-etl builds the local station catalog and temperature archive
// the API serves from. It has four steps:
//
//	stations  import the isd-history.txt catalog dump
//	download  fetch missing ISD-Lite yearly files into the spool
//	compact   parse the spool into the readings table
//	refresh   download + compact the current year only
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lwalden/isd-weather-api/internal/config"
	"github.com/lwalden/isd-weather-api/internal/etl"
	"github.com/lwalden/isd-weather-api/internal/logging"
	"github.com/lwalden/isd-weather-api/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	slogger := logging.New(cfg.Env)

	historyPath := flag.String("history", "data/isd-history.txt", "path to the isd-history.txt catalog dump")
	fromYear := flag.Int("from", 1980, "first year of archive files to download")
	toYear := flag.Int("to", time.Now().UTC().Year(), "last year of archive files to download")
	minBegin := flag.String("min-begin", "2005-01-01", "keep stations whose records begin on or before this date")
	maxEnd := flag.String("max-end", "2024-01-01", "keep stations whose records end on or after this date")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	step := flag.Arg(0)

	sqlStore, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer sqlStore.Close()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	downloader := etl.NewDownloader(httpClient, cfg.ISDBaseURL, cfg.SpoolDir,
		cfg.DownloadBatchSize, cfg.DownloadBatchDelay, slogger)
	pipeline := etl.NewPipeline(sqlStore, downloader, cfg.SpoolDir, slogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch step {
	case "stations":
		filter, err := parseFilter(*minBegin, *maxEnd)
		if err != nil {
			log.Fatalf("invalid filter: %v", err)
		}
		err = pipeline.ImportStations(ctx, *historyPath, filter)
		fatalOnErr(err)
	case "download":
		fatalOnErr(pipeline.Download(ctx, *fromYear, *toYear))
	case "compact":
		fatalOnErr(pipeline.Compact(ctx))
	case "refresh":
		fatalOnErr(pipeline.Refresh(ctx))
	default:
		usage()
		os.Exit(2)
	}
}

func parseFilter(minBegin, maxEnd string) (etl.HistoryFilter, error) {
	begin, err := time.Parse("2006-01-02", minBegin)
	if err != nil {
		return etl.HistoryFilter{}, fmt.Errorf("min-begin: %w", err)
	}
	end, err := time.Parse("2006-01-02", maxEnd)
	if err != nil {
		return etl.HistoryFilter{}, fmt.Errorf("max-end: %w", err)
	}
	return etl.HistoryFilter{Country: "US", MinBegin: begin, MaxEnd: end}, nil
}

func fatalOnErr(err error) {
	if err != nil {
		log.Fatalf("etl step failed: %v", err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: isd-etl [flags] stations|download|compact|refresh\n\n")
	flag.PrintDefaults()
}
