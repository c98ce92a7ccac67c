package weather

import (
	"context"
	"fmt"
	"time"
)

// Service answers "what is the weather, right now and historically, at
// (lat, lon)?" by combining the station catalog, the archived series of the
// nearest station, and a live fetch.
type Service struct {
	catalog Catalog
	archive Archive
	current CurrentProvider

	// now supplies the target date for the same-day window; injected so
	// the extraction stays deterministic under test.
	now func() time.Time
}

// NewService creates a new Service.
func NewService(catalog Catalog, archive Archive, current CurrentProvider) *Service {
	return &Service{
		catalog: catalog,
		archive: archive,
		current: current,
		now:     time.Now,
	}
}

// Current fetches only the live current weather for the given coordinates.
func (s *Service) Current(ctx context.Context, coords Coordinates) CurrentWeather {
	return s.current.Current(ctx, coords)
}

// AnnualWeather resolves the station nearest to coords, extracts that
// station's same-calendar-day history for today across all years on file,
// fetches the current weather at the station's own coordinates, and merges
// everything into one validated aggregate. Each step consumes the previous
// step's output, so the whole request runs as one sequential unit of work.
func (s *Service) AnnualWeather(ctx context.Context, coords Coordinates) (AnnualWeather, error) {
	stations, err := s.catalog.Stations(ctx)
	if err != nil {
		return AnnualWeather{}, fmt.Errorf("load station catalog: %w", err)
	}

	idx, distanceKm, err := NearestStation(coords, stations)
	if err != nil {
		return AnnualWeather{}, fmt.Errorf("resolve nearest station: %w", err)
	}
	station := stations[idx]

	series, err := s.archive.StationSeries(ctx, station.USAF, station.WBAN)
	if err != nil {
		return AnnualWeather{}, fmt.Errorf("load series for station %06d-%05d: %w", station.USAF, station.WBAN, err)
	}

	today := s.now()
	window, err := SameDayWindow(series, today.Month(), today.Day())
	if err != nil {
		return AnnualWeather{}, fmt.Errorf("extract same-day window: %w", err)
	}

	// The live fetch targets the resolved station's coordinates, not the
	// original query, so the current and historical readings describe the
	// same place.
	stationCoords, err := NewCoordinates(station.Latitude, station.Longitude)
	if err != nil {
		return AnnualWeather{}, fmt.Errorf("station %06d-%05d: %w", station.USAF, station.WBAN, err)
	}
	current := s.current.Current(ctx, stationCoords)

	timestamps := make([]time.Time, len(window))
	temperatures := make([]float64, len(window))
	for i, rec := range window {
		timestamps[i] = rec.Timestamp
		temperatures[i] = TenthsToCelsius(rec.TemperatureTenths)
	}

	annual := AnnualWeather{
		CurrentTemperatureCelsius: current.TemperatureCelsius,
		CurrentStation:            current.RadarStation,
		CurrentCity:               current.CoordinatesCity,
		CurrentState:              current.CoordinatesState,
		CurrentErrorMessage:       current.ErrorMessage,

		DistanceToStationKilometers:  distanceKm,
		AnnualTimestamp:              timestamps,
		AnnualTemperatureCelsius:     temperatures,
		AnnualUSAFStationID:          station.USAF,
		AnnualWBANStationID:          station.WBAN,
		AnnualStationName:            station.Name,
		AnnualStationState:           station.State,
		AnnualStationCall:            station.CallSign,
		AnnualStationLatitude:        station.Latitude,
		AnnualStationLongitude:       station.Longitude,
		AnnualStationElevationMeters: station.ElevationMeters,
	}

	if err := annual.Validate(); err != nil {
		return AnnualWeather{}, err
	}
	return annual, nil
}
