package weather

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

type stubCatalog struct {
	stations []Station
	err      error
}

func (c stubCatalog) Stations(context.Context) ([]Station, error) {
	return c.stations, c.err
}

type stubArchive struct {
	series []TemperatureRecord
	err    error
}

func (a stubArchive) StationSeries(context.Context, int, int) ([]TemperatureRecord, error) {
	return a.series, a.err
}

type stubCurrent struct {
	result CurrentWeather
	coords Coordinates
	called bool
}

func (p *stubCurrent) Current(_ context.Context, coords Coordinates) CurrentWeather {
	p.called = true
	p.coords = coords
	return p.result
}

func champaignStation() Station {
	return Station{
		USAF:            999999,
		WBAN:            54808,
		Name:            "CHAMPAIGN 9 SW",
		State:           "IL",
		CallSign:        "XXX",
		Latitude:        40.053001,
		Longitude:       -88.373001,
		ElevationMeters: 213.399994,
	}
}

// fourRecordSeries returns one record on March 5 of each of four years.
func fourRecordSeries() []TemperatureRecord {
	tenths := []int{-15, 0, 25, 100}
	series := make([]TemperatureRecord, len(tenths))
	for i, raw := range tenths {
		series[i] = TemperatureRecord{
			Timestamp:         time.Date(2021+i, time.March, 5, 12, 0, 0, 0, time.UTC),
			TemperatureTenths: raw,
		}
	}
	return series
}

func fixedClock() time.Time {
	return time.Date(2025, time.March, 5, 9, 30, 0, 0, time.UTC)
}

func TestAnnualWeatherEndToEnd(t *testing.T) {
	station := champaignStation()
	current := &stubCurrent{result: CurrentWeather{
		ValidResponse:      true,
		TemperatureCelsius: -5,
		RadarStation:       "KILX",
		CoordinatesCity:    "Champaign",
		CoordinatesState:   "IL",
	}}

	svc := NewService(
		stubCatalog{stations: []Station{station}},
		stubArchive{series: fourRecordSeries()},
		current,
	)
	svc.now = fixedClock

	query := Coordinates{Latitude: 40, Longitude: -88}
	annual, err := svc.AnnualWeather(context.Background(), query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantDistance := GeodesicKilometers(query, Coordinates{Latitude: station.Latitude, Longitude: station.Longitude})
	if math.Abs(annual.DistanceToStationKilometers-wantDistance) > 1e-9 {
		t.Errorf("distance = %v; want %v", annual.DistanceToStationKilometers, wantDistance)
	}

	wantTemps := []float64{-1.5, 0, 2.5, 10}
	if len(annual.AnnualTemperatureCelsius) != len(wantTemps) {
		t.Fatalf("got %d temperatures; want %d", len(annual.AnnualTemperatureCelsius), len(wantTemps))
	}
	for i, want := range wantTemps {
		if annual.AnnualTemperatureCelsius[i] != want {
			t.Errorf("temperature %d = %v; want %v", i, annual.AnnualTemperatureCelsius[i], want)
		}
	}
	if len(annual.AnnualTimestamp) != 4 {
		t.Errorf("got %d timestamps; want 4", len(annual.AnnualTimestamp))
	}

	// The live fetch must target the station's own coordinates, not the
	// original query.
	if !current.called {
		t.Fatal("current provider was never called")
	}
	if current.coords.Latitude != station.Latitude || current.coords.Longitude != station.Longitude {
		t.Errorf("live fetch coords = %v; want station coords", current.coords)
	}

	if annual.CurrentTemperatureCelsius != -5 {
		t.Errorf("current temperature = %v; want -5", annual.CurrentTemperatureCelsius)
	}
	if annual.CurrentStation != "KILX" || annual.CurrentCity != "Champaign" || annual.CurrentState != "IL" {
		t.Errorf("live fields not passed through: %+v", annual)
	}
	if annual.CurrentErrorMessage != "" {
		t.Errorf("current error message = %q; want empty", annual.CurrentErrorMessage)
	}

	if annual.AnnualUSAFStationID != 999999 || annual.AnnualWBANStationID != 54808 {
		t.Errorf("station ids = %d, %d; want 999999, 54808", annual.AnnualUSAFStationID, annual.AnnualWBANStationID)
	}
	if annual.AnnualStationCall != "XXX" || annual.AnnualStationName != "CHAMPAIGN 9 SW" {
		t.Errorf("station identity not passed through: %+v", annual)
	}
}

func TestAnnualWeatherDegradedLiveFetch(t *testing.T) {
	degraded := NewCurrentWeather(false)
	degraded.ErrorMessage = "Invalid response from current weather API."

	svc := NewService(
		stubCatalog{stations: []Station{champaignStation()}},
		stubArchive{series: fourRecordSeries()},
		&stubCurrent{result: degraded},
	)
	svc.now = fixedClock

	annual, err := svc.AnnualWeather(context.Background(), Coordinates{Latitude: 40, Longitude: -88})
	if err != nil {
		t.Fatalf("a degraded live fetch must not fail the request: %v", err)
	}

	if annual.CurrentErrorMessage != degraded.ErrorMessage {
		t.Errorf("error message = %q; want %q", annual.CurrentErrorMessage, degraded.ErrorMessage)
	}
	if annual.CurrentTemperatureCelsius != SentinelTemperature {
		t.Errorf("current temperature = %v; want sentinel", annual.CurrentTemperatureCelsius)
	}
	if len(annual.AnnualTemperatureCelsius) != 4 {
		t.Errorf("historical data should survive a degraded live fetch; got %d records", len(annual.AnnualTemperatureCelsius))
	}
}

func TestAnnualWeatherEmptyCallSign(t *testing.T) {
	station := champaignStation()
	station.CallSign = "" // NULL in the catalog maps to empty

	svc := NewService(
		stubCatalog{stations: []Station{station}},
		stubArchive{series: fourRecordSeries()},
		&stubCurrent{result: NewCurrentWeather(true)},
	)
	svc.now = fixedClock

	annual, err := svc.AnnualWeather(context.Background(), Coordinates{Latitude: 40, Longitude: -88})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if annual.AnnualStationCall != "" {
		t.Errorf("station call = %q; want empty", annual.AnnualStationCall)
	}
}

func TestAnnualWeatherArchiveFailure(t *testing.T) {
	archiveErr := errors.New("no archived data for station")
	svc := NewService(
		stubCatalog{stations: []Station{champaignStation()}},
		stubArchive{err: archiveErr},
		&stubCurrent{},
	)
	svc.now = fixedClock

	_, err := svc.AnnualWeather(context.Background(), Coordinates{Latitude: 40, Longitude: -88})
	if !errors.Is(err, archiveErr) {
		t.Errorf("err = %v; want wrapped archive error", err)
	}
}

func TestAnnualWeatherValidationFailure(t *testing.T) {
	station := champaignStation()
	station.ElevationMeters = 9000 // above any surface elevation

	svc := NewService(
		stubCatalog{stations: []Station{station}},
		stubArchive{series: fourRecordSeries()},
		&stubCurrent{result: NewCurrentWeather(true)},
	)
	svc.now = fixedClock

	_, err := svc.AnnualWeather(context.Background(), Coordinates{Latitude: 40, Longitude: -88})
	if err == nil {
		t.Fatal("expected a validation error for out-of-range elevation")
	}
	if !strings.Contains(err.Error(), "invalid annual weather aggregate") {
		t.Errorf("err = %v; want aggregate validation failure", err)
	}
}

func TestAnnualWeatherEmptyCatalog(t *testing.T) {
	svc := NewService(stubCatalog{}, stubArchive{}, &stubCurrent{})
	svc.now = fixedClock

	_, err := svc.AnnualWeather(context.Background(), Coordinates{Latitude: 40, Longitude: -88})
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("err = %v; want ErrEmptyCatalog", err)
	}
}
