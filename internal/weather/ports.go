package weather

import "context"

// Catalog provides the immutable station catalog.
type Catalog interface {
	Stations(ctx context.Context) ([]Station, error)
}

// Archive provides one station's archived temperature series, sorted
// ascending by timestamp.
type Archive interface {
	StationSeries(ctx context.Context, usaf, wban int) ([]TemperatureRecord, error)
}

// CurrentProvider fetches the live current weather for a coordinate pair.
// Expected live-service failures are encoded in the returned value, never
// as an error.
type CurrentProvider interface {
	Current(ctx context.Context, coords Coordinates) CurrentWeather
}
