package route

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"tripplanner/internal/model"
)

func city(name string, lat, lon float64) model.City {
	return model.City{Name: name, Coords: &model.Coordinates{Latitude: lat, Longitude: lon}}
}

func names(cities []model.City) []string {
	out := make([]string, len(cities))
	for i, c := range cities {
		out[i] = c.Name
	}
	return out
}

func assertContiguous(t *testing.T, m *Model) {
	t.Helper()
	ordered := m.Ordered()
	seen := make(map[int]bool, len(ordered))
	for _, c := range ordered {
		if c.OrderIndex < 0 || c.OrderIndex >= len(ordered) || seen[c.OrderIndex] {
			t.Fatalf("order indexes are not {0..%d}: %v", len(ordered)-1, ordered)
		}
		seen[c.OrderIndex] = true
	}
}

func TestAddCityAssignsOrderAndID(t *testing.T) {
	m := New(nil)
	a, err := m.AddCity(city("Paris", 48.8566, 2.3522))
	if err != nil {
		t.Fatalf("AddCity returned error: %v", err)
	}
	b, err := m.AddCity(city("Lyon", 45.7640, 4.8357))
	if err != nil {
		t.Fatalf("AddCity returned error: %v", err)
	}
	if a.OrderIndex != 0 || b.OrderIndex != 1 {
		t.Errorf("expected order 0 and 1, got %d and %d", a.OrderIndex, b.OrderIndex)
	}
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected unique generated ids, got %q and %q", a.ID, b.ID)
	}

	dup := city("Paris again", 0, 0)
	dup.ID = a.ID
	if _, err := m.AddCity(dup); !errors.Is(err, ErrDuplicateCity) {
		t.Errorf("expected ErrDuplicateCity, got %v", err)
	}
}

func TestRemoveCityReindexes(t *testing.T) {
	m := New(nil)
	for _, n := range []string{"X", "Y", "Z"} {
		if _, err := m.AddCity(model.City{Name: n}); err != nil {
			t.Fatalf("AddCity returned error: %v", err)
		}
	}
	if !m.RemoveCity(1) {
		t.Fatal("RemoveCity(1) reported no-op")
	}
	got := m.Ordered()
	if len(got) != 2 || got[0].Name != "X" || got[0].OrderIndex != 0 || got[1].Name != "Z" || got[1].OrderIndex != 1 {
		t.Errorf("expected [X(0) Z(1)], got %+v", got)
	}
}

func TestRemoveCityOutOfRangeIsNoop(t *testing.T) {
	m := New(nil)
	m.AddCity(model.City{Name: "A"})
	for _, idx := range []int{-1, 1, 42} {
		if m.RemoveCity(idx) {
			t.Errorf("RemoveCity(%d) must be a no-op", idx)
		}
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 city, got %d", m.Len())
	}
}

func TestOrderIndexStaysDenseUnderRandomEdits(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m := New(nil)
	for step := 0; step < 500; step++ {
		switch rng.Intn(3) {
		case 0, 1:
			if _, err := m.AddCity(model.City{Name: "c"}); err != nil {
				t.Fatalf("AddCity returned error: %v", err)
			}
		case 2:
			m.RemoveCity(rng.Intn(m.Len() + 2))
		}
		assertContiguous(t, m)
	}
}

func TestMoveCity(t *testing.T) {
	m := New(nil)
	for _, n := range []string{"A", "B", "C", "D"} {
		m.AddCity(model.City{Name: n})
	}
	if err := m.MoveCity(3, 1); err != nil {
		t.Fatalf("MoveCity returned error: %v", err)
	}
	if got := names(m.Ordered()); got[0] != "A" || got[1] != "D" || got[2] != "B" || got[3] != "C" {
		t.Errorf("unexpected order after move: %v", got)
	}
	assertContiguous(t, m)
	if err := m.MoveCity(0, 9); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestSetCityDates(t *testing.T) {
	m := New(nil)
	m.AddCity(model.City{Name: "A"})
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)

	if err := m.SetCityDates(0, &end, &start); !errors.Is(err, ErrInvalidDates) {
		t.Errorf("expected ErrInvalidDates, got %v", err)
	}
	if err := m.SetCityDates(0, &start, &end); err != nil {
		t.Fatalf("SetCityDates returned error: %v", err)
	}
	start = start.AddDate(1, 0, 0)
	c, _ := m.City(0)
	if c.StartDate.Year() != 2025 {
		t.Errorf("stored date must not alias the caller's value, got %v", c.StartDate)
	}
	if err := m.SetCityDates(5, nil, nil); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestFromCitiesSortsAndReindexes(t *testing.T) {
	m, err := FromCities(nil, []model.City{
		{ID: "c", Name: "C", OrderIndex: 7},
		{ID: "a", Name: "A", OrderIndex: 1},
		{ID: "b", Name: "B", OrderIndex: 3},
	})
	if err != nil {
		t.Fatalf("FromCities returned error: %v", err)
	}
	if got := names(m.Ordered()); got[0] != "A" || got[1] != "B" || got[2] != "C" {
		t.Errorf("unexpected order: %v", got)
	}
	assertContiguous(t, m)
}

func TestOptimizeOrderNearestNeighbour(t *testing.T) {
	m := New(nil)
	m.AddCity(city("Paris", 48.8566, 2.3522))
	m.AddCity(city("Marseille", 43.2965, 5.3698))
	m.AddCity(model.City{Name: "Nowhere"})
	m.AddCity(city("Lyon", 45.7640, 4.8357))
	m.AddCity(city("Lille", 50.6292, 3.0573))

	m.OptimizeOrder(nil)
	got := names(m.Ordered())
	want := []string{"Paris", "Lille", "Lyon", "Marseille", "Nowhere"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	assertContiguous(t, m)

	home := &model.Coordinates{Latitude: 43.3, Longitude: 5.4}
	m.OptimizeOrder(home)
	if first := m.Ordered()[0].Name; first != "Marseille" {
		t.Errorf("expected the city nearest to home first, got %s", first)
	}
}
