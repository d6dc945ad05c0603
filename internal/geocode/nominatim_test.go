package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.Header.Get("User-Agent") != "tripplanner-test" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search":
			if r.URL.Query().Get("q") == "broken" {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			if r.URL.Query().Get("limit") != "2" {
				t.Errorf("limit = %q, want 2", r.URL.Query().Get("limit"))
			}
			w.Write([]byte(`[
				{"lat":"48.8566","lon":"2.3522","name":"Paris","display_name":"Paris, Île-de-France, France","address":{"city":"Paris","country":"France"}},
				{"lat":"33.6609","lon":"-95.5555","name":"","display_name":"Paris, Lamar County, Texas, United States","address":{"town":"Paris","country":"United States"}},
				{"lat":"bad","lon":"0","name":"Broken"}
			]`))
		case "/reverse":
			if r.URL.Query().Get("lat") == "0.000000" {
				w.Write([]byte(`{"error":"Unable to geocode"}`))
				return
			}
			w.Write([]byte(`{"lat":"45.7578","lon":"4.8320","display_name":"Lyon, Métropole de Lyon, France","address":{"city":"Lyon","country":"France"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestSearch(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	defer srv.Close()
	c := NewClient(srv.URL, "tripplanner-test")

	places, err := c.Search(context.Background(), "Paris", 2)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(places) != 2 {
		t.Fatalf("expected 2 places, got %d", len(places))
	}
	if places[0].Name != "Paris" || places[0].Country != "France" || places[0].Latitude != 48.8566 {
		t.Errorf("unexpected first place %+v", places[0])
	}
	if places[1].Name != "Paris" || places[1].Country != "United States" {
		t.Errorf("town must be used as a city name, got %+v", places[1])
	}

	if _, err := c.Search(context.Background(), "paris", 2); err != nil {
		t.Fatalf("cached Search returned error: %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("expected the second search to be served from cache, hits = %d", hits)
	}
}

func TestSearchErrors(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	defer srv.Close()
	c := NewClient(srv.URL, "tripplanner-test")

	if _, err := c.Search(context.Background(), "broken", 2); err == nil {
		t.Error("expected error on non-200 status")
	}
	places, err := c.Search(context.Background(), "   ", 2)
	if err != nil || places != nil {
		t.Errorf("blank query must return nothing, got %v %v", places, err)
	}
}

func TestReverse(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	defer srv.Close()
	c := NewClient(srv.URL, "tripplanner-test")

	p, err := c.Reverse(context.Background(), 45.76, 4.83)
	if err != nil {
		t.Fatalf("Reverse returned error: %v", err)
	}
	if p.Name != "Lyon" || p.Country != "France" {
		t.Errorf("unexpected place %+v", p)
	}
	if _, err := c.Reverse(context.Background(), 45.7601, 4.8299); err != nil {
		t.Fatalf("cached Reverse returned error: %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("nearby point must hit the cache, hits = %d", hits)
	}

	if _, err := c.Reverse(context.Background(), 0, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCityNameFallsBackToDisplayName(t *testing.T) {
	p := nominatimPlace{DisplayName: "Zermatt, Visp, Valais, Switzerland"}
	if got := p.cityName(); got != "Zermatt" {
		t.Errorf("cityName() = %q, want Zermatt", got)
	}
}
