package weather

// FahrenheitToCelsius converts a temperature in degrees Fahrenheit to
// degrees Celsius.
func FahrenheitToCelsius(fahrenheit float64) float64 {
	return 5.0 / 9.0 * (fahrenheit - 32)
}

// TenthsToCelsius converts an archived tenths-of-a-degree value to degrees
// Celsius. Because the input is an integer number of tenths, the result is
// already exact to one decimal place.
func TenthsToCelsius(tenths int) float64 {
	return float64(tenths) / 10
}
