package geo

import (
	"errors"
	"math"
	"testing"

	"tripplanner/internal/model"
)

func TestDistanceKmParisLyon(t *testing.T) {
	d, err := DistanceKm(48.8566, 2.3522, 45.7640, 4.8357)
	if err != nil {
		t.Fatalf("DistanceKm returned error: %v", err)
	}
	if math.Abs(d-392) > 5 {
		t.Errorf("expected ~392 km, got %.2f", d)
	}
}

func TestDistanceKmIdentity(t *testing.T) {
	points := [][2]float64{{0, 0}, {48.8566, 2.3522}, {-33.8688, 151.2093}, {90, 0}, {-90, 180}}
	for _, p := range points {
		d, err := DistanceKm(p[0], p[1], p[0], p[1])
		if err != nil {
			t.Fatalf("DistanceKm(%v, %v) returned error: %v", p, p, err)
		}
		if d != 0 {
			t.Errorf("expected 0 for identical points %v, got %v", p, d)
		}
	}
}

func TestDistanceKmSymmetry(t *testing.T) {
	pairs := [][4]float64{
		{48.8566, 2.3522, 45.7640, 4.8357},
		{55.7558, 37.6173, 59.9343, 30.3351},
		{-33.8688, 151.2093, 40.7128, -74.0060},
		{0, -179.9, 0, 179.9},
	}
	for _, p := range pairs {
		ab, err := DistanceKm(p[0], p[1], p[2], p[3])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ba, err := DistanceKm(p[2], p[3], p[0], p[1])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("asymmetric distance for %v: %v vs %v", p, ab, ba)
		}
	}
}

func TestDistanceKmMonotonicAlongMeridian(t *testing.T) {
	prev := -1.0
	for lat := 0.0; lat <= 90; lat += 7.5 {
		d, err := DistanceKm(0, 10, lat, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d < prev {
			t.Errorf("distance decreased at lat %.1f: %v < %v", lat, d, prev)
		}
		prev = d
	}
}

func TestDistanceKmInvalid(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
	}{
		{"nan", math.NaN(), 0, 0, 0},
		{"inf", 0, math.Inf(1), 0, 0},
		{"lat out of range", 91, 0, 0, 0},
		{"lon out of range", 0, 0, 0, -181},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DistanceKm(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			if !errors.Is(err, ErrInvalidCoordinate) {
				t.Errorf("expected ErrInvalidCoordinate, got %v", err)
			}
		})
	}
}

func TestBetween(t *testing.T) {
	paris := &model.Coordinates{Latitude: 48.8566, Longitude: 2.3522}
	lyon := &model.Coordinates{Latitude: 45.7640, Longitude: 4.8357}

	if d := Between(paris, nil); d != nil {
		t.Errorf("expected nil for missing coordinates, got %v", *d)
	}
	if d := Between(paris, &model.Coordinates{Latitude: math.NaN()}); d != nil {
		t.Errorf("expected nil for invalid coordinates, got %v", *d)
	}
	d := Between(paris, lyon)
	if d == nil {
		t.Fatal("expected a distance for known coordinates")
	}
	if math.Abs(*d-392) > 5 {
		t.Errorf("expected ~392 km, got %.2f", *d)
	}
}
