package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/lwalden/isd-weather-api/internal/store"
	"github.com/lwalden/isd-weather-api/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	app.Post("/current_temperature", func(c *fiber.Ctx) error {
		coords, err := parseCoordinatesBody(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		current := service.Current(c.Context(), coords)
		return c.JSON(current)
	})

	app.Post("/annual_temperature", func(c *fiber.Ctx) error {
		coords, err := parseCoordinatesBody(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		annual, err := service.AnnualWeather(c.Context(), coords)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no archived data for the nearest station")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to compile annual weather")
		}

		return c.JSON(annual)
	})
}

// coordinatesBody binds the request body for both endpoints. The fields are
// pointers so a missing field fails `required` instead of defaulting to the
// valid coordinate 0.
type coordinatesBody struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

func parseCoordinatesBody(c *fiber.Ctx) (weather.Coordinates, error) {
	var body coordinatesBody
	if err := c.BodyParser(&body); err != nil {
		return weather.Coordinates{}, err
	}
	if err := validate.Struct(body); err != nil {
		return weather.Coordinates{}, err
	}
	return weather.NewCoordinates(*body.Latitude, *body.Longitude)
}
