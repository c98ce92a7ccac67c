package etl

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/lwalden/isd-weather-api/internal/weather"
)

// ISD-Lite rows are fixed-width: year, month, day, hour, then the air
// temperature in tenths of a degree Celsius. The remaining columns of the
// format are not read.
var isdLiteWidths = []int{4, 3, 3, 3, 6}

// ParseISDLite reads one spooled ISD-Lite file into temperature records.
// Timestamps are UTC on the hour. Missing-value sentinels are kept as-is,
// matching the archive's own encoding.
func ParseISDLite(r io.Reader) ([]weather.TemperatureRecord, error) {
	scanner := bufio.NewScanner(r)

	var records []weather.TemperatureRecord
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}

		fields := sliceFixedWidth(line, isdLiteWidths)

		year, err1 := strconv.Atoi(fields[0])
		month, err2 := strconv.Atoi(fields[1])
		day, err3 := strconv.Atoi(fields[2])
		hour, err4 := strconv.Atoi(fields[3])
		tenths, err5 := strconv.Atoi(fields[4])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			return nil, fmt.Errorf("line %d: malformed ISD-Lite row %q", lineNo, line)
		}

		records = append(records, weather.TemperatureRecord{
			Timestamp:         time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC),
			TemperatureTenths: tenths,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ISD-Lite file: %w", err)
	}
	return records, nil
}
