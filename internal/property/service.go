package property

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/evcraddock/house-market/internal/geocode"
	"github.com/evcraddock/house-market/internal/upload"
)

// Geocoder resolves an address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (geocode.Location, error)
}

// Uploader stores an image and returns its hosted URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Service provides property business logic.
type Service struct {
	repo     *Repository
	geocoder Geocoder
	uploader Uploader
}

// NewService creates a property service. Either integration may be nil
// when it is not configured.
func NewService(repo *Repository, geocoder Geocoder, uploader Uploader) *Service {
	return &Service{repo: repo, geocoder: geocoder, uploader: uploader}
}

// Repo returns the underlying repository.
func (s *Service) Repo() *Repository {
	return s.repo
}

// Create validates, geocodes and stores a new listing owned by ownerID.
// Geocoding failures never block the listing; it is stored without
// coordinates instead.
func (s *Service) Create(ctx context.Context, ownerID int64, p *Property) (*Property, error) {
	p.ID = 0
	p.OwnerID = ownerID
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s.locate(ctx, p)

	saved, err := s.repo.Insert(p)
	if err != nil {
		return nil, fmt.Errorf("saving property: %w", err)
	}
	slog.Info("property listed", "id", saved.ID, "owner", ownerID, "geohash", saved.Geohash)
	return saved, nil
}

// Update replaces the editable fields of a listing owned by ownerID.
func (s *Service) Update(ctx context.Context, ownerID, id int64, p *Property) (*Property, error) {
	existing, err := s.owned(ownerID, id)
	if err != nil {
		return nil, err
	}

	p.ID = id
	p.OwnerID = existing.OwnerID
	if p.Images == nil {
		p.Images = existing.Images
	}
	if !p.HasLocation() && p.FullAddress() == existing.FullAddress() {
		p.Latitude, p.Longitude = existing.Latitude, existing.Longitude
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s.locate(ctx, p)

	return s.repo.Update(p)
}

// Delete removes a listing owned by ownerID.
func (s *Service) Delete(ownerID, id int64) error {
	if _, err := s.owned(ownerID, id); err != nil {
		return err
	}
	return s.repo.Delete(id)
}

// AddImage uploads an image and appends its URL to the listing.
func (s *Service) AddImage(ctx context.Context, ownerID, id int64, filename string, r io.Reader) (*Property, error) {
	if s.uploader == nil {
		return nil, upload.ErrUnavailable
	}
	if _, err := s.owned(ownerID, id); err != nil {
		return nil, err
	}

	url, err := s.uploader.Upload(ctx, filename, r)
	if err != nil {
		return nil, fmt.Errorf("uploading image: %w", err)
	}
	return s.repo.AddImage(id, url)
}

// Markers clusters located listings by geohash prefix.
func Markers(props []*Property, precision int) []geocode.Marker {
	points := make([]geocode.Point, 0, len(props))
	for _, p := range props {
		points = append(points, geocode.Point{ID: p.ID, Geohash: p.Geohash})
	}
	return geocode.Cluster(points, precision)
}

func (s *Service) owned(ownerID, id int64) (*Property, error) {
	p, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != ownerID {
		return nil, fmt.Errorf("property %d: %w", id, ErrForbidden)
	}
	return p, nil
}

// locate fills coordinates from the address when they are missing and
// derives the geohash.
func (s *Service) locate(ctx context.Context, p *Property) {
	if !p.HasLocation() && s.geocoder != nil && p.FullAddress() != "" {
		loc, err := s.geocoder.Geocode(ctx, p.FullAddress())
		if err != nil {
			slog.Warn("geocoding failed, storing without coordinates", "address", p.FullAddress(), "error", err)
		} else {
			p.Latitude, p.Longitude = &loc.Lat, &loc.Lng
		}
	}

	p.Geohash = ""
	if p.HasLocation() {
		p.Geohash = geocode.Hash(*p.Latitude, *p.Longitude)
	}
}
