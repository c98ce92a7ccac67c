package weather

import (
	"errors"
	"math"
	"testing"
)

func station(lat, lon float64) Station {
	return Station{Latitude: lat, Longitude: lon}
}

func TestNearestStationExactMatch(t *testing.T) {
	query := Coordinates{Latitude: 70, Longitude: -160}
	stations := []Station{
		station(34, -116),
		station(71, -156),
		station(70, -160),
		station(72, -148),
		station(69, -143),
	}

	idx, km, err := NearestStation(query, stations)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx != 2 {
		t.Errorf("index = %d; want 2", idx)
	}
	if km != 0 {
		t.Errorf("distance = %v; want 0", km)
	}
}

func TestNearestStationKnownDistance(t *testing.T) {
	query := Coordinates{Latitude: 70, Longitude: -160}
	stations := []Station{
		station(34, -116),
		station(71, -156),
		station(70.1, -160),
		station(72, -148),
		station(69, -143),
	}

	idx, km, err := NearestStation(query, stations)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx != 2 {
		t.Errorf("index = %d; want 2", idx)
	}
	// 0.1 degrees of latitude along the -160 meridian on the WGS-84
	// ellipsoid.
	const want = 11.156265636145449
	if math.Abs(km-want) > 1e-6 {
		t.Errorf("distance = %.12f km; want %.12f km", km, want)
	}
}

func TestNearestStationReturnedDistanceIsMinimal(t *testing.T) {
	query := Coordinates{Latitude: 40.5, Longitude: -88.2}
	stations := []Station{
		station(34.294, -116.147),
		station(71.287, -156.739),
		station(40.053001, -88.373001),
		station(70.191, -148.48),
		station(41.2, -87.9),
	}

	idx, km, err := NearestStation(query, stations)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, s := range stations {
		d := GeodesicKilometers(query, Coordinates{Latitude: s.Latitude, Longitude: s.Longitude})
		if d < km {
			t.Errorf("station %d at %.3f km is closer than chosen station %d at %.3f km", i, d, idx, km)
		}
	}
}

func TestNearestStationTieReturnsLowestIndex(t *testing.T) {
	query := Coordinates{Latitude: 45, Longitude: -100}
	stations := []Station{
		station(45, -101),
		station(46, -100),
		station(46, -100), // exact duplicate of index 1
	}

	idx, _, err := NearestStation(query, stations)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// indices 1 and 2 are equidistant and closer than index 0; the first
	// one scanned must win
	if idx != 1 {
		t.Errorf("index = %d; want 1", idx)
	}
}

func TestNearestStationEmptyCatalog(t *testing.T) {
	_, _, err := NearestStation(Coordinates{}, nil)
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("err = %v; want ErrEmptyCatalog", err)
	}
}

func TestNearestStationNaNCoordinates(t *testing.T) {
	stations := []Station{station(math.NaN(), -100)}
	_, _, err := NearestStation(Coordinates{}, stations)
	if !errors.Is(err, ErrBadStationCoordinates) {
		t.Errorf("err = %v; want ErrBadStationCoordinates", err)
	}
}

func TestGeodesicKilometersCoincidentPoints(t *testing.T) {
	p := Coordinates{Latitude: 40.053001, Longitude: -88.373001}
	if got := GeodesicKilometers(p, p); got != 0 {
		t.Errorf("distance = %v; want 0", got)
	}
}

func TestGeodesicKilometersSymmetric(t *testing.T) {
	p1 := Coordinates{Latitude: 40.053001, Longitude: -88.373001}
	p2 := Coordinates{Latitude: 34.294, Longitude: -116.147}

	d12 := GeodesicKilometers(p1, p2)
	d21 := GeodesicKilometers(p2, p1)
	if math.Abs(d12-d21) > 1e-9 {
		t.Errorf("asymmetric distance: %v vs %v", d12, d21)
	}
	if d12 < 2000 || d12 > 3000 {
		t.Errorf("distance = %v km; want a plausible cross-country value", d12)
	}
}
