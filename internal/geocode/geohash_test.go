package geocode

import "testing"

func TestHash(t *testing.T) {
	h := Hash(57.64911, 10.40744)
	if len(h) != HashPrecision {
		t.Fatalf("len = %d, want %d", len(h), HashPrecision)
	}
	if h[:6] != "u4pruy" {
		t.Errorf("hash = %q, want u4pruy prefix", h)
	}
}

func TestCluster(t *testing.T) {
	points := []Point{
		{ID: 1, Geohash: Hash(30.2672, -97.7431)},
		{ID: 2, Geohash: Hash(30.2680, -97.7440)},
		{ID: 3, Geohash: Hash(40.7128, -74.0060)},
		{ID: 4, Geohash: ""},
	}

	markers := Cluster(points, 4)
	if len(markers) != 2 {
		t.Fatalf("got %d markers, want 2: %+v", len(markers), markers)
	}
	if markers[0].Count != 2 {
		t.Errorf("first marker count = %d, want 2", markers[0].Count)
	}
	if markers[0].IDs[0] != 1 || markers[0].IDs[1] != 2 {
		t.Errorf("first marker ids = %v", markers[0].IDs)
	}
	if markers[0].Lat < 29 || markers[0].Lat > 31 {
		t.Errorf("marker lat = %f, want near 30", markers[0].Lat)
	}
}

func TestClusterClampsPrecision(t *testing.T) {
	points := []Point{{ID: 1, Geohash: Hash(1, 1)}}
	if m := Cluster(points, 0); len(m) != 1 || len(m[0].Geohash) != 1 {
		t.Errorf("precision 0 = %+v", m)
	}
	if m := Cluster(points, 20); len(m) != 1 || len(m[0].Geohash) != 8 {
		t.Errorf("precision 20 = %+v", m)
	}
}
