package geocode

import (
	"sort"

	"github.com/mmcloughlin/geohash"
)

// HashPrecision is the geohash length stored with each property (~5m cells).
const HashPrecision = 9

// Hash returns the stored geohash for a coordinate pair.
func Hash(lat, lng float64) string {
	return geohash.EncodeWithPrecision(lat, lng, HashPrecision)
}

// Point is a located item to be clustered.
type Point struct {
	ID      int64
	Geohash string
}

// Marker is a map cluster of points sharing a geohash prefix.
type Marker struct {
	Geohash string  `json:"geohash"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Count   int     `json:"count"`
	IDs     []int64 `json:"ids"`
}

// Cluster groups points by geohash prefix of the given precision (1-8).
// Points without a geohash are skipped. Markers are ordered by descending
// count, then by geohash.
func Cluster(points []Point, precision int) []Marker {
	if precision < 1 {
		precision = 1
	}
	if precision > 8 {
		precision = 8
	}

	byCell := make(map[string]*Marker)
	for _, p := range points {
		if len(p.Geohash) < precision {
			continue
		}
		cell := p.Geohash[:precision]
		m, ok := byCell[cell]
		if !ok {
			lat, lng := geohash.DecodeCenter(cell)
			m = &Marker{Geohash: cell, Lat: lat, Lng: lng}
			byCell[cell] = m
		}
		m.Count++
		m.IDs = append(m.IDs, p.ID)
	}

	out := make([]Marker, 0, len(byCell))
	for _, m := range byCell {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Geohash < out[j].Geohash
	})
	return out
}
