package weather

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Coordinates is a validated latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// NewCoordinates constructs a Coordinates value, failing when either
// component is out of range.
func NewCoordinates(latitude, longitude float64) (Coordinates, error) {
	c := Coordinates{Latitude: latitude, Longitude: longitude}
	if err := validate.Struct(c); err != nil {
		return Coordinates{}, fmt.Errorf("invalid coordinates: %w", err)
	}
	return c, nil
}

// Station is one row of the ISD station catalog.
type Station struct {
	USAF            int     `json:"usaf"`
	WBAN            int     `json:"wban"`
	Name            string  `json:"name"`
	State           string  `json:"state"`
	CallSign        string  `json:"call_sign"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	ElevationMeters float64 `json:"elevation_meters"`
}

// TemperatureRecord is one archived observation. The temperature is stored
// the way ISD-Lite encodes it: integer tenths of a degree Celsius.
type TemperatureRecord struct {
	Timestamp         time.Time
	TemperatureTenths int
}

// SentinelTemperature marks a CurrentWeather whose temperature could not be
// obtained from the live service.
const SentinelTemperature = -9999

// CurrentWeather is the result of a live fetch against the National Weather
// Service. It is a value object: a degraded fetch is encoded in ErrorMessage
// and ValidResponse, never as an error. It carries no validation tags so
// that the sentinel temperature is always representable.
type CurrentWeather struct {
	ValidResponse      bool    `json:"valid_response"`
	TemperatureCelsius float64 `json:"temperature_celsius"`
	RadarStation       string  `json:"radar_station"`
	CoordinatesCity    string  `json:"coordinates_city"`
	CoordinatesState   string  `json:"coordinates_state"`
	ErrorMessage       string  `json:"error_message"`
}

// NewCurrentWeather returns a CurrentWeather with the sentinel temperature
// and empty location fields.
func NewCurrentWeather(valid bool) CurrentWeather {
	return CurrentWeather{
		ValidResponse:      valid,
		TemperatureCelsius: SentinelTemperature,
	}
}

// AnnualWeather combines a live fetch with the same-calendar-day history of
// the nearest catalog station. The current_* fields are copied verbatim from
// CurrentWeather and deliberately carry no validation tags, so sentinel and
// empty values pass through; everything else is range-checked by Validate,
// the one consistency checkpoint in the system.
type AnnualWeather struct {
	CurrentTemperatureCelsius float64 `json:"current_temperature_celsius"`
	CurrentStation            string  `json:"current_station"`
	CurrentCity               string  `json:"current_city"`
	CurrentState              string  `json:"current_state"`
	CurrentErrorMessage       string  `json:"current_error_message"`

	DistanceToStationKilometers  float64     `json:"distance_to_station_kilometers" validate:"gte=0,lte=21000"`
	AnnualTimestamp              []time.Time `json:"annual_timestamp"`
	AnnualTemperatureCelsius     []float64   `json:"annual_temperature_celsius"`
	AnnualUSAFStationID          int         `json:"annual_usaf_station_id" validate:"gte=0,lt=1000000"`
	AnnualWBANStationID          int         `json:"annual_wban_station_id" validate:"gte=0,lt=100000"`
	AnnualStationName            string      `json:"annual_station_name" validate:"max=100"`
	AnnualStationState           string      `json:"annual_station_state" validate:"len=2"`
	AnnualStationCall            string      `json:"annual_station_call" validate:"max=4"`
	AnnualStationLatitude        float64     `json:"annual_station_latitude" validate:"gte=-90,lte=90"`
	AnnualStationLongitude       float64     `json:"annual_station_longitude" validate:"gte=-180,lte=180"`
	AnnualStationElevationMeters float64     `json:"annual_station_elevation_meters" validate:"gte=-440,lte=8850"`
}

// Validate range-checks the aggregate. A failure here means an upstream
// computation produced an out-of-bound value and the request must fail
// closed.
func (a AnnualWeather) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("invalid annual weather aggregate: %w", err)
	}
	return nil
}
