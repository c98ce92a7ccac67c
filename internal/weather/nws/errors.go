package nws

// FailureCategory enumerates the expected ways a live fetch can degrade.
// The set is closed: callers compare the user-facing messages only for
// equality and must not infer any structure beyond these five.
type FailureCategory int

const (
	failureNone FailureCategory = iota
	FailureForecastURLMissing
	FailureInvalidInputCoordinates
	FailureInvalidWeatherAPIResponse
	FailureTemperatureMissing
	FailureLocationMissing
)

// Message returns the fixed, user-displayable text for the category.
func (c FailureCategory) Message() string {
	switch c {
	case FailureForecastURLMissing:
		return "Valid response from current weather API, but forecast URL not in expected place in response."
	case FailureInvalidInputCoordinates:
		return "Invalid input coordinates.  " +
			"The first coordinate should be latitude; " +
			"the second should be longitude.  " +
			"Ensure that the coordinates are within the United States."
	case FailureInvalidWeatherAPIResponse:
		return "Invalid response from current weather API."
	case FailureTemperatureMissing:
		return "Valid response from current weather API, but temperature not in expected place in response."
	case FailureLocationMissing:
		return "Valid response from current weather API, but location information is incomplete."
	default:
		return ""
	}
}
