package etl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lwalden/isd-weather-api/internal/store"
)

// Pipeline runs the ETL steps that build the catalog and archive the query
// engine reads: import the station history, download the yearly ISD-Lite
// files, and compact the spool into the readings table.
type Pipeline struct {
	store      *store.SQLiteStore
	downloader *Downloader
	spoolDir   string
	log        *slog.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(st *store.SQLiteStore, dl *Downloader, spoolDir string, log *slog.Logger) *Pipeline {
	return &Pipeline{
		store:      st,
		downloader: dl,
		spoolDir:   spoolDir,
		log:        log,
	}
}

// ImportStations parses an isd-history.txt dump and upserts the rows
// passing the filter into the catalog.
func (p *Pipeline) ImportStations(ctx context.Context, historyPath string, filter HistoryFilter) error {
	f, err := os.Open(historyPath)
	if err != nil {
		return fmt.Errorf("open station history: %w", err)
	}
	defer f.Close()

	rows, err := ParseHistory(f, filter, p.log)
	if err != nil {
		return err
	}
	if err := p.store.UpsertStations(ctx, rows); err != nil {
		return err
	}
	p.log.Info("station catalog imported", "stations", len(rows))
	return nil
}

// Download fetches the missing archive files for every catalog station
// over the given year range.
func (p *Pipeline) Download(ctx context.Context, fromYear, toYear int) error {
	stations, err := p.store.Stations(ctx)
	if err != nil {
		return err
	}
	if len(stations) == 0 {
		return fmt.Errorf("station catalog is empty; run the stations step first")
	}
	return p.downloader.DownloadYears(ctx, stations, fromYear, toYear)
}

// Compact parses every spooled ISD-Lite file into the readings table. The
// insert ignores duplicate rows, so re-running over an already-compacted
// spool is a no-op.
func (p *Pipeline) Compact(ctx context.Context) error {
	entries, err := os.ReadDir(p.spoolDir)
	if err != nil {
		return fmt.Errorf("read spool directory: %w", err)
	}

	compacted := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".txt") {
			continue
		}

		usaf, wban, err := parseSpoolName(name)
		if err != nil {
			p.log.Warn("skipping unrecognized spool file", "file", name, "err", err)
			continue
		}

		f, err := os.Open(filepath.Join(p.spoolDir, name))
		if err != nil {
			return fmt.Errorf("open spool file %s: %w", name, err)
		}
		records, err := ParseISDLite(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("parse spool file %s: %w", name, err)
		}

		if err := p.store.InsertReadings(ctx, usaf, wban, records); err != nil {
			return err
		}
		compacted++
	}
	p.log.Info("spool compacted", "files", compacted)
	return nil
}

// Refresh downloads and compacts the current year only; the scheduler runs
// this periodically to keep the archive's trailing edge current.
func (p *Pipeline) Refresh(ctx context.Context) error {
	year := time.Now().UTC().Year()
	if err := p.Download(ctx, year, year); err != nil {
		return err
	}
	return p.Compact(ctx)
}

// parseSpoolName extracts the station ids from a {usaf}-{wban}-{year}.txt
// spool file name.
func parseSpoolName(name string) (usaf, wban int, err error) {
	stem := strings.TrimSuffix(name, ".txt")
	parts := strings.SplitN(stem, "-", 3)
	if len(parts) != 3 {
		return 0, 0, fmt.Errorf("want usaf-wban-year, got %q", stem)
	}
	usaf, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("usaf id: %w", err)
	}
	wban, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("wban id: %w", err)
	}
	return usaf, wban, nil
}
