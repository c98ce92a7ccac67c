package etl

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lwalden/isd-weather-api/internal/store"
	"github.com/lwalden/isd-weather-api/internal/weather"
)

// isd-history.txt is a fixed-width dump: USAF, WBAN, STATION NAME, CTRY,
// ST, CALL, LAT, LON, ELEV(M), BEGIN, END.
var historyWidths = []int{6, 6, 30, 5, 3, 6, 8, 9, 8, 9, 9}

// The file opens with a free-text preamble before the header row.
const historyPreambleLines = 22

const historyDateLayout = "20060102"

// HistoryFilter selects which catalog rows to keep: stations in the given
// country whose observation period spans [MinBegin, MaxEnd].
type HistoryFilter struct {
	Country  string
	MinBegin time.Time
	MaxEnd   time.Time
}

// ParseHistory reads an isd-history.txt dump and returns the catalog rows
// passing the filter. Rows missing a numeric id, coordinate, elevation, or
// date are skipped with a warning; a blank call sign stays empty.
func ParseHistory(r io.Reader, filter HistoryFilter, log *slog.Logger) ([]store.StationRow, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024), 1024*1024)

	var rows []store.StationRow
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		if lineNo <= historyPreambleLines {
			continue
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := sliceFixedWidth(line, historyWidths)
		usafStr, wbanStr, name, ctry, state, call := fields[0], fields[1], fields[2], fields[3], fields[4], fields[5]
		latStr, lonStr, elevStr, beginStr, endStr := fields[6], fields[7], fields[8], fields[9], fields[10]

		if ctry != filter.Country {
			continue
		}

		usaf, err1 := strconv.Atoi(usafStr)
		wban, err2 := strconv.Atoi(wbanStr)
		if err1 != nil || err2 != nil {
			log.Warn("skipping station with non-numeric id", "line", lineNo, "usaf", usafStr, "wban", wbanStr)
			continue
		}

		lat, err1 := strconv.ParseFloat(latStr, 64)
		lon, err2 := strconv.ParseFloat(lonStr, 64)
		elev, err3 := strconv.ParseFloat(elevStr, 64)
		if err1 != nil || err2 != nil || err3 != nil {
			log.Warn("skipping station without location", "line", lineNo, "usaf", usaf, "wban", wban)
			continue
		}

		begin, err1 := time.Parse(historyDateLayout, beginStr)
		end, err2 := time.Parse(historyDateLayout, endStr)
		if err1 != nil || err2 != nil {
			log.Warn("skipping station without observation period", "line", lineNo, "usaf", usaf, "wban", wban)
			continue
		}

		if begin.After(filter.MinBegin) || end.Before(filter.MaxEnd) {
			continue
		}

		rows = append(rows, store.StationRow{
			Station: weather.Station{
				USAF:            usaf,
				WBAN:            wban,
				Name:            name,
				State:           state,
				CallSign:        call,
				Latitude:        lat,
				Longitude:       lon,
				ElevationMeters: elev,
			},
			Begin: begin,
			End:   end,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read station history: %w", err)
	}
	return rows, nil
}

// sliceFixedWidth cuts line into trimmed fields at the given widths. Short
// lines yield empty trailing fields.
func sliceFixedWidth(line string, widths []int) []string {
	fields := make([]string, len(widths))
	offset := 0
	for i, w := range widths {
		if offset >= len(line) {
			break
		}
		end := offset + w
		if end > len(line) {
			end = len(line)
		}
		fields[i] = strings.TrimSpace(line[offset:end])
		offset = end
	}
	return fields
}
