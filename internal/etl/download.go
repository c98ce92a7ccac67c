package etl

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/lwalden/isd-weather-api/internal/weather"
)

// gzHrefPattern matches ISD-Lite archive links in a year index page, e.g.
// href="725300-94846-2019.gz".
var gzHrefPattern = regexp.MustCompile(`href="(\d{6}-\d{5}-\d{4})\.gz"`)

// Downloader fetches ISD-Lite yearly archive files into the spool
// directory. Files are fetched in fixed-size concurrent batches with a
// pause between batches; when more than half of a batch comes back empty
// the archive host is rate limiting us, so the pause grows.
type Downloader struct {
	client     *http.Client
	baseURL    string
	spoolDir   string
	batchSize  int
	batchDelay time.Duration
	log        *slog.Logger
}

// NewDownloader creates a Downloader. batchSize below 1 becomes 1.
func NewDownloader(client *http.Client, baseURL, spoolDir string, batchSize int, batchDelay time.Duration, log *slog.Logger) *Downloader {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Downloader{
		client:     client,
		baseURL:    strings.TrimRight(baseURL, "/"),
		spoolDir:   spoolDir,
		batchSize:  batchSize,
		batchDelay: batchDelay,
		log:        log,
	}
}

// DownloadYears downloads every missing archive file for the catalog
// stations over the year range [fromYear, toYear] inclusive.
func (d *Downloader) DownloadYears(ctx context.Context, stations []weather.Station, fromYear, toYear int) error {
	if err := os.MkdirAll(d.spoolDir, 0o755); err != nil {
		return fmt.Errorf("create spool directory: %w", err)
	}

	wanted := make(map[string]bool, len(stations))
	for _, st := range stations {
		wanted[fmt.Sprintf("%06d-%05d", st.USAF, st.WBAN)] = true
	}

	for year := fromYear; year <= toYear; year++ {
		stems, err := d.listYearFiles(ctx, year)
		if err != nil {
			return fmt.Errorf("list files for %d: %w", year, err)
		}

		var toFetch []string
		for _, stem := range stems {
			parts := strings.SplitN(stem, "-", 3)
			if len(parts) != 3 || !wanted[parts[0]+"-"+parts[1]] {
				continue
			}
			if _, err := os.Stat(d.spoolPath(stem)); err == nil {
				continue // already spooled
			}
			toFetch = append(toFetch, stem)
		}

		d.log.Info("downloading archive files", "year", year, "files", len(toFetch))
		if err := d.downloadBatches(ctx, year, toFetch); err != nil {
			return err
		}
	}
	return nil
}

// listYearFiles fetches the year's index page and extracts the archive
// file stems.
func (d *Downloader) listYearFiles(ctx context.Context, year int) ([]string, error) {
	url := fmt.Sprintf("%s/%d/", d.baseURL, year)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("index page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var stems []string
	for _, m := range gzHrefPattern.FindAllStringSubmatch(string(body), -1) {
		stems = append(stems, m[1])
	}
	return stems, nil
}

// downloadBatches fetches the given stems in concurrent batches, gunzips
// each body into the spool, and backs off when the host starts returning
// empty responses.
func (d *Downloader) downloadBatches(ctx context.Context, year int, stems []string) error {
	delay := d.batchDelay

	for start := 0; start < len(stems); start += d.batchSize {
		end := start + d.batchSize
		if end > len(stems) {
			end = len(stems)
		}
		batch := stems[start:end]

		bodies := make([][]byte, len(batch))
		var wg sync.WaitGroup
		for i, stem := range batch {
			wg.Add(1)
			go func(i int, stem string) {
				defer wg.Done()
				bodies[i] = d.fetchFile(ctx, year, stem)
			}(i, stem)
		}
		wg.Wait()

		empty := 0
		for i, body := range bodies {
			if len(body) == 0 {
				empty++
				continue
			}
			if err := d.writeSpoolFile(batch[i], body); err != nil {
				return err
			}
		}
		d.log.Info("batch complete", "year", year, "fetched", len(batch)-empty, "empty", empty)

		if end == len(stems) {
			break
		}
		if float64(empty)/float64(len(batch)) > 0.5 {
			delay += 15 * time.Second
			d.log.Warn("over half the batch came back empty, slowing down", "delay", delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// fetchFile downloads one .gz archive file, returning nil on any failure;
// empty results are counted by the caller for backoff.
func (d *Downloader) fetchFile(ctx context.Context, year int, stem string) []byte {
	url := fmt.Sprintf("%s/%d/%s.gz", d.baseURL, year, stem)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	return body
}

// writeSpoolFile gunzips an archive body into {spool}/{stem}.txt.
func (d *Downloader) writeSpoolFile(stem string, gz []byte) error {
	zr, err := gzip.NewReader(bytes.NewReader(gz))
	if err != nil {
		return fmt.Errorf("gunzip %s: %w", stem, err)
	}
	text, err := io.ReadAll(zr)
	if closeErr := zr.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("gunzip %s: %w", stem, err)
	}
	if err := os.WriteFile(d.spoolPath(stem), text, 0o644); err != nil {
		return fmt.Errorf("write spool file %s: %w", stem, err)
	}
	return nil
}

func (d *Downloader) spoolPath(stem string) string {
	return filepath.Join(d.spoolDir, stem+".txt")
}
