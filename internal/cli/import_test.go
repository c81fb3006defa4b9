package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/evcraddock/house-market/internal/property"
	"github.com/evcraddock/house-market/internal/schema"
)

const importList = `
- title: Bungalow near Zilker
  address: 123 Main St
  city: Austin
  price: 450000
  property_type: house
  bedrooms: 3
  bathrooms: 2
  sqft: 1800
  features: [garage, yard]
- address: 9 Lake Rd
  city: Austin
  price: 2400
  listing_type: rent
`

const importMapping = `
properties:
  - address: 1 Elm St
    price: 300000
`

func testValidator(t *testing.T) *schema.Validator {
	t.Helper()
	v, err := schema.New()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return v
}

func TestParseImport(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"list", importList, 2},
		{"mapping", importMapping, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := parseImport(strings.NewReader(tt.input), testValidator(t))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if len(docs) != tt.want {
				t.Fatalf("docs = %d, want %d", len(docs), tt.want)
			}

			var p property.Property
			if err := json.Unmarshal(docs[0], &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if p.Price == 0 || p.Address == "" {
				t.Errorf("property = %+v", p)
			}
		})
	}
}

func TestParseImportErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"empty list", "[]"},
		{"scalar", "just a string"},
		{"bad yaml", "- title: [unclosed"},
		{"missing price", "- address: 1 Elm St\n"},
		{"unknown field", "- address: 1 Elm St\n  price: 1\n  pool: true\n"},
		{"negative price", "- address: 1 Elm St\n  price: -5\n"},
		{"bad listing type", "- address: 1 Elm St\n  price: 5\n  listing_type: lease\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseImport(strings.NewReader(tt.input), testValidator(t)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestImportCommand(t *testing.T) {
	var mu sync.Mutex
	var created []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/properties" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer eyJ.test.token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var p property.Property
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		mu.Lock()
		created = append(created, p.Address)
		p.ID = int64(len(created))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(p); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
	defer srv.Close()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("HM_SERVER_URL", srv.URL)
	t.Setenv("HM_TOKEN", "eyJ.test.token")

	path := filepath.Join(t.TempDir(), "listings.yaml")
	if err := os.WriteFile(path, []byte(importList), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := executeCommand("import", path, "--dry-run"); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("dry run created %d listings", len(created))
	}

	if _, err := executeCommand("import", path); err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(created) != 2 || created[0] != "123 Main St" || created[1] != "9 Lake Rd" {
		t.Errorf("created = %v", created)
	}
}

func TestImportMissingFile(t *testing.T) {
	_, err := executeCommand("import", filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
