package weather

import (
	"errors"
	"time"
)

var (
	// ErrEmptySeries is returned when the archived series has no records.
	ErrEmptySeries = errors.New("temperature series is empty")
	// ErrUnsortedSeries is returned when the series timestamps are not
	// ascending. The archive writes series sorted per station; an unsorted
	// input means the caller handed over the wrong rows.
	ErrUnsortedSeries = errors.New("temperature series is not sorted by timestamp")
)

// SameDayWindow extracts from a single station's archived series every
// record whose calendar (month, day) matches the target, across all years
// on file, plus the single record immediately before the first match and
// immediately after the last match of each matched date. The brackets let a
// consumer interpolate values exactly at local midnight of the target day.
// Matches at either end of the series simply lack that bracket; there is no
// wrap-around. Records are returned in ascending timestamp order; a series
// with no matching dates yields an empty result.
func SameDayWindow(series []TemperatureRecord, month time.Month, day int) ([]TemperatureRecord, error) {
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}
	for i := 1; i < len(series); i++ {
		if series[i].Timestamp.Before(series[i-1].Timestamp) {
			return nil, ErrUnsortedSeries
		}
	}

	keep := make([]bool, len(series))

	// Sorted input makes all records of one matched calendar date
	// contiguous, so each matched date is one run of indices.
	for i := 0; i < len(series); {
		ts := series[i].Timestamp
		if ts.Month() != month || ts.Day() != day {
			i++
			continue
		}

		y, m, d := ts.Date()
		end := i
		for end+1 < len(series) {
			ny, nm, nd := series[end+1].Timestamp.Date()
			if ny != y || nm != m || nd != d {
				break
			}
			end++
		}

		for j := i; j <= end; j++ {
			keep[j] = true
		}
		if i > 0 {
			keep[i-1] = true
		}
		if end < len(series)-1 {
			keep[end+1] = true
		}

		i = end + 1
	}

	window := make([]TemperatureRecord, 0)
	for i, k := range keep {
		if k {
			window = append(window, series[i])
		}
	}
	return window, nil
}
