// Package nws talks to the National Weather Service API
// (https://www.weather.gov/documentation/services-web-api). Obtaining the
// current weather for a coordinate pair is a two-stage exchange: the points
// endpoint resolves the coordinates to station metadata including a forecast
// URL, and the forecast URL yields the forecast periods, the first of which
// carries the current Fahrenheit temperature.
package nws

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lwalden/isd-weather-api/internal/common"
	"github.com/lwalden/isd-weather-api/internal/weather"
)

const (
	defaultBaseURL     = "https://api.weather.gov"
	defaultMaxAttempts = 3
	defaultRetryDelay  = 4 * time.Second
)

// ClientConfig bundles endpoint and retry settings for the NWS client.
type ClientConfig struct {
	BaseURL string
	// UserAgent is sent on every request; api.weather.gov rejects
	// anonymous clients.
	UserAgent   string
	MaxAttempts int
	RetryDelay  time.Duration
}

// Client implements weather.CurrentProvider against the NWS API.
type Client struct {
	client      *http.Client
	baseURL     string
	userAgent   string
	maxAttempts int
	retryDelay  time.Duration
}

// NewClient creates a Client. Zero-valued config fields fall back to the
// NWS defaults (3 attempts, 4s delay, public base URL).
func NewClient(client *http.Client, cfg ClientConfig) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	return &Client{
		client:      client,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:   cfg.UserAgent,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
	}
}

// pointsPayload holds the parts of the points response the client reads.
// The location fields decode as pointers so an absent field is
// distinguishable from an empty one.
type pointsPayload struct {
	Properties struct {
		Forecast         string  `json:"forecast"`
		RadarStation     *string `json:"radarStation"`
		RelativeLocation struct {
			Properties struct {
				City  *string `json:"city"`
				State *string `json:"state"`
			} `json:"properties"`
		} `json:"relativeLocation"`
	} `json:"properties"`
}

type forecastPayload struct {
	Properties struct {
		Periods []struct {
			Temperature *float64 `json:"temperature"`
		} `json:"periods"`
	} `json:"properties"`
}

// Current performs the two-stage exchange for the given coordinates. It
// never returns an error: every expected failure is encoded in the returned
// value's ErrorMessage and ValidResponse fields.
func (c *Client) Current(ctx context.Context, coords weather.Coordinates) weather.CurrentWeather {
	// Stage 1: resolve the coordinates to station metadata.
	pointsURL := c.baseURL + "/points/" +
		strconv.FormatFloat(coords.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(coords.Longitude, 'f', -1, 64)

	stationResp, _, err := doWithRetry(ctx, c.client, c.newRequest(pointsURL), c.maxAttempts, c.retryDelay)
	if err != nil || stationResp == nil {
		return c.failed(FailureInvalidWeatherAPIResponse)
	}
	defer stationResp.Body.Close()

	if stationResp.StatusCode >= 400 {
		return c.failed(classifyPointsError(stationResp.Body))
	}

	var points pointsPayload
	if decodeErr := json.NewDecoder(stationResp.Body).Decode(&points); decodeErr != nil ||
		points.Properties.Forecast == "" {
		return c.failed(FailureForecastURLMissing)
	}

	// Stage 2: fetch the forecast the points response linked to.
	forecastResp, _, err := doWithRetry(ctx, c.client, c.newRequest(points.Properties.Forecast), c.maxAttempts, c.retryDelay)
	if err != nil || forecastResp == nil || forecastResp.StatusCode >= 400 {
		if forecastResp != nil {
			forecastResp.Body.Close()
		}
		// A failed forecast call carries no error message; only the
		// empty message and valid=false distinguish it from the five
		// named categories. Kept as-is from the source behavior.
		return weather.NewCurrentWeather(false)
	}
	defer forecastResp.Body.Close()

	current := weather.NewCurrentWeather(true)

	var forecast forecastPayload
	if decodeErr := json.NewDecoder(forecastResp.Body).Decode(&forecast); decodeErr != nil ||
		len(forecast.Properties.Periods) == 0 ||
		forecast.Properties.Periods[0].Temperature == nil {
		current.ErrorMessage = FailureTemperatureMissing.Message()
		return current
	}
	fahrenheit := *forecast.Properties.Periods[0].Temperature

	city := points.Properties.RelativeLocation.Properties.City
	state := points.Properties.RelativeLocation.Properties.State
	radar := points.Properties.RadarStation
	if city == nil || state == nil || radar == nil {
		current.TemperatureCelsius = weather.FahrenheitToCelsius(fahrenheit)
		current.ErrorMessage = FailureLocationMissing.Message()
		return current
	}

	current.TemperatureCelsius = weather.FahrenheitToCelsius(fahrenheit)
	current.RadarStation = *radar
	current.CoordinatesCity = *city
	current.CoordinatesState = *state
	return current
}

func (c *Client) newRequest(url string) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		req.Header.Set("Accept", "application/geo+json")
		return req, nil
	}
}

func (c *Client) failed(category FailureCategory) weather.CurrentWeather {
	cw := weather.NewCurrentWeather(false)
	cw.ErrorMessage = category.Message()
	return cw
}

// classifyPointsError inspects the error payload of a failed points call.
// An "invalidPoint" problem type means the coordinates themselves were
// rejected; anything else, including an undecodable payload, counts as an
// invalid API response.
func classifyPointsError(body io.Reader) FailureCategory {
	var problem struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(body).Decode(&problem); err != nil {
		return FailureInvalidWeatherAPIResponse
	}
	if common.HasAny(strings.ToLower(problem.Type), "invalidpoint") {
		return FailureInvalidInputCoordinates
	}
	return FailureInvalidWeatherAPIResponse
}
