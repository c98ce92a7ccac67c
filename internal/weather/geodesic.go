package weather

import (
	"errors"
	"math"
)

// WGS-84 ellipsoid parameters.
const (
	wgs84A = 6378137.0
	wgs84B = 6356752.314245
	wgs84F = 1 / 298.257223563
)

var (
	// ErrEmptyCatalog is returned when the station slice is empty.
	ErrEmptyCatalog = errors.New("station catalog is empty")
	// ErrBadStationCoordinates is returned when a station carries a
	// non-numeric coordinate.
	ErrBadStationCoordinates = errors.New("station has non-numeric coordinates")
)

// NearestStation scans the catalog for the station closest to query on the
// WGS-84 ellipsoid and returns its index and distance in kilometers. The
// comparison is strict less-than, so on exact ties the lowest index wins.
func NearestStation(query Coordinates, stations []Station) (int, float64, error) {
	if len(stations) == 0 {
		return -1, 0, ErrEmptyCatalog
	}

	minIdx := -1
	minDistance := math.Inf(1)

	for i, s := range stations {
		if math.IsNaN(s.Latitude) || math.IsNaN(s.Longitude) {
			return -1, 0, ErrBadStationCoordinates
		}
		d := GeodesicKilometers(query, Coordinates{Latitude: s.Latitude, Longitude: s.Longitude})
		if d < minDistance {
			minIdx, minDistance = i, d
		}
	}

	return minIdx, minDistance, nil
}

// GeodesicKilometers computes the geodesic surface distance between two
// points on the WGS-84 ellipsoid using Vincenty's inverse formula. The
// iteration can fail to converge for near-antipodal points; those fall back
// to the spherical great-circle distance, which for a catalog confined to
// one country is unreachable in practice.
func GeodesicKilometers(p1, p2 Coordinates) float64 {
	lat1 := radians(p1.Latitude)
	lat2 := radians(p2.Latitude)
	l := radians(p2.Longitude - p1.Longitude)

	u1 := math.Atan((1 - wgs84F) * math.Tan(lat1))
	u2 := math.Atan((1 - wgs84F) * math.Tan(lat2))
	sinU1, cosU1 := math.Sincos(u1)
	sinU2, cosU2 := math.Sincos(u2)

	lambda := l
	var sinSigma, cosSigma, sigma, cos2Alpha, cos2SigmaM float64

	for i := 0; i < 200; i++ {
		sinLambda, cosLambda := math.Sincos(lambda)
		sinSigma = math.Hypot(cosU2*sinLambda, cosU1*sinU2-sinU1*cosU2*cosLambda)
		if sinSigma == 0 {
			return 0 // coincident points
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)

		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cos2Alpha = 1 - sinAlpha*sinAlpha
		if cos2Alpha == 0 {
			cos2SigmaM = 0 // equatorial geodesic
		} else {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cos2Alpha
		}

		c := wgs84F / 16 * cos2Alpha * (4 + wgs84F*(4-3*cos2Alpha))
		prev := lambda
		lambda = l + (1-c)*wgs84F*sinAlpha*
			(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

		if math.Abs(lambda-prev) < 1e-12 {
			uSq := cos2Alpha * (wgs84A*wgs84A - wgs84B*wgs84B) / (wgs84B * wgs84B)
			a := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
			b := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
			deltaSigma := b * sinSigma * (cos2SigmaM + b/4*
				(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
					b/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))
			return wgs84B * a * (sigma - deltaSigma) / 1000
		}
	}

	return haversineKilometers(p1, p2)
}

// haversineKilometers is the spherical fallback for the non-convergent
// near-antipodal case.
func haversineKilometers(p1, p2 Coordinates) float64 {
	const earthRadiusKm = 6371.0088

	lat1 := radians(p1.Latitude)
	lat2 := radians(p2.Latitude)
	dLat := radians(p2.Latitude - p1.Latitude)
	dLon := radians(p2.Longitude - p1.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
