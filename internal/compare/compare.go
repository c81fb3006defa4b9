// Package compare keeps the per-session set of properties a user is
// comparing side by side. Sets live in memory only.
package compare

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/evcraddock/house-market/internal/property"
)

// MaxItems is the most properties a comparison can hold.
const MaxItems = 4

var (
	// ErrFull is returned when adding to a set that already holds MaxItems.
	ErrFull = errors.New("comparison is full")
	// ErrDuplicate is returned when the property is already being compared.
	ErrDuplicate = errors.New("property already in comparison")
	// ErrNotFound is returned when removing an id that is not in the set.
	ErrNotFound = errors.New("property not in comparison")
)

// Set is an ordered list of at most MaxItems property ids.
type Set struct {
	ids []int64
}

// Add appends id to the set.
func (s *Set) Add(id int64) error {
	for _, existing := range s.ids {
		if existing == id {
			return fmt.Errorf("property %d: %w", id, ErrDuplicate)
		}
	}
	if len(s.ids) >= MaxItems {
		return fmt.Errorf("at most %d properties: %w", MaxItems, ErrFull)
	}
	s.ids = append(s.ids, id)
	return nil
}

// Remove drops id from the set, keeping the order of the rest.
func (s *Set) Remove(id int64) error {
	for i, existing := range s.ids {
		if existing == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("property %d: %w", id, ErrNotFound)
}

// Clear empties the set.
func (s *Set) Clear() { s.ids = nil }

// IDs returns a copy of the ids in insertion order.
func (s *Set) IDs() []int64 {
	out := make([]int64, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of ids in the set.
func (s *Set) Len() int { return len(s.ids) }

// Store holds one Set per session key. It is safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	sets map[string]*Set
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sets: make(map[string]*Set)}
}

// Add appends a property to the session's comparison.
func (s *Store) Add(key string, id int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.sets[key]
	if set == nil {
		set = &Set{}
		s.sets[key] = set
	}
	if err := set.Add(id); err != nil {
		return set.IDs(), err
	}
	return set.IDs(), nil
}

// Remove drops a property from the session's comparison.
func (s *Store) Remove(key string, id int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.sets[key]
	if set == nil {
		return nil, fmt.Errorf("property %d: %w", id, ErrNotFound)
	}
	if err := set.Remove(id); err != nil {
		return set.IDs(), err
	}
	if set.Len() == 0 {
		delete(s.sets, key)
	}
	return set.IDs(), nil
}

// Clear discards the session's comparison.
func (s *Store) Clear(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, key)
}

// IDs returns the session's compared ids in insertion order.
func (s *Store) IDs(key string) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if set := s.sets[key]; set != nil {
		return set.IDs()
	}
	return []int64{}
}

// Row is one labelled line of a comparison table. Values line up with the
// properties passed to BuildTable.
type Row struct {
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

// Table is a side-by-side comparison.
type Table struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

var printer = message.NewPrinter(language.English)

// BuildTable lays properties out column by column. Unknown values render
// as "-".
func BuildTable(props []*property.Property) Table {
	t := Table{Headers: make([]string, len(props))}
	for i, p := range props {
		t.Headers[i] = p.FullAddress()
		if t.Headers[i] == "" {
			t.Headers[i] = p.Title
		}
	}

	row := func(label string, value func(*property.Property) string) {
		r := Row{Label: label, Values: make([]string, len(props))}
		for i, p := range props {
			r.Values[i] = value(p)
		}
		t.Rows = append(t.Rows, r)
	}

	row("Price", func(p *property.Property) string {
		s := printer.Sprintf("$%d", p.Price)
		if p.ListingType == property.ListingRent {
			s += "/mo"
		}
		return s
	})
	row("Bedrooms", func(p *property.Property) string { return formatFloat(p.Bedrooms) })
	row("Bathrooms", func(p *property.Property) string { return formatFloat(p.Bathrooms) })
	row("Sqft", func(p *property.Property) string {
		if p.Sqft == nil {
			return "-"
		}
		return printer.Sprintf("%d", *p.Sqft)
	})
	row("Year built", func(p *property.Property) string {
		if p.YearBuilt == nil {
			return "-"
		}
		return fmt.Sprintf("%d", *p.YearBuilt)
	})
	row("Type", func(p *property.Property) string { return orDash(p.PropertyType) })
	row("Listing", func(p *property.Property) string { return orDash(string(p.ListingType)) })
	row("Features", func(p *property.Property) string { return orDash(strings.Join(p.Features, ", ")) })

	return t
}

func formatFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
