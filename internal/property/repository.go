package property

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Repository provides CRUD operations for properties.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a property repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const insertSQL = `INSERT INTO properties
	(title, address, city, price, property_type, listing_type, bedrooms, bathrooms, sqft,
	 year_built, features, description, images, latitude, longitude, geohash, owner_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const updateSQL = `UPDATE properties SET
	title = ?, address = ?, city = ?, price = ?, property_type = ?, listing_type = ?,
	bedrooms = ?, bathrooms = ?, sqft = ?, year_built = ?, features = ?, description = ?,
	images = ?, latitude = ?, longitude = ?, geohash = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`

const selectColumns = `id, title, address, city, price, property_type, listing_type, bedrooms, bathrooms, sqft,
	year_built, features, description, images, latitude, longitude, geohash, owner_id, created_at, updated_at`

// Insert adds a new property and returns it with its generated ID.
func (r *Repository) Insert(p *Property) (*Property, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	features, images, err := encodeLists(p)
	if err != nil {
		return nil, err
	}

	result, err := r.db.Exec(insertSQL,
		p.Title, p.Address, p.City, p.Price, p.PropertyType, string(p.ListingType),
		p.Bedrooms, p.Bathrooms, p.Sqft, p.YearBuilt, features, p.Description, images,
		p.Latitude, p.Longitude, p.Geohash, p.OwnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting property: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(id)
}

// Update overwrites the editable fields of an existing property.
func (r *Repository) Update(p *Property) (*Property, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	features, images, err := encodeLists(p)
	if err != nil {
		return nil, err
	}

	result, err := r.db.Exec(updateSQL,
		p.Title, p.Address, p.City, p.Price, p.PropertyType, string(p.ListingType),
		p.Bedrooms, p.Bathrooms, p.Sqft, p.YearBuilt, features, p.Description, images,
		p.Latitude, p.Longitude, p.Geohash, p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating property: %w", err)
	}
	if err := requireRow(result, p.ID); err != nil {
		return nil, err
	}

	return r.GetByID(p.ID)
}

// GetByID returns a property by its ID.
func (r *Repository) GetByID(id int64) (*Property, error) {
	query := fmt.Sprintf("SELECT %s FROM properties WHERE id = ?", selectColumns)
	row := r.db.QueryRow(query, id)

	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("property %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying property %d: %w", id, err)
	}

	return p, nil
}

// List returns every property, newest first.
func (r *Repository) List() ([]*Property, error) {
	return r.query(fmt.Sprintf("SELECT %s FROM properties ORDER BY created_at DESC, id DESC", selectColumns))
}

// ListByIDs returns the given properties in the order of ids.
// Ids that no longer exist are skipped.
func (r *Repository) ListByIDs(ids []int64) ([]*Property, error) {
	out := make([]*Property, 0, len(ids))
	for _, id := range ids {
		p, err := r.GetByID(id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ListByOwner returns the properties listed by one user, newest first.
func (r *Repository) ListByOwner(ownerID int64) ([]*Property, error) {
	return r.query(fmt.Sprintf("SELECT %s FROM properties WHERE owner_id = ? ORDER BY created_at DESC, id DESC", selectColumns), ownerID)
}

func (r *Repository) query(query string, args ...interface{}) ([]*Property, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("closing rows", "error", closeErr)
		}
	}()

	var properties []*Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		properties = append(properties, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating properties: %w", err)
	}

	return properties, nil
}

// AddImage appends a hosted image URL to a property.
func (r *Repository) AddImage(id int64, url string) (*Property, error) {
	p, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	p.Images = append(p.Images, url)
	return r.Update(p)
}

// Delete removes a property by ID. Bookmarks cascade.
func (r *Repository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM properties WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting property: %w", err)
	}
	return requireRow(result, id)
}

func requireRow(result sql.Result, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("property %d: %w", id, ErrNotFound)
	}
	return nil
}

func encodeLists(p *Property) (string, string, error) {
	features, err := json.Marshal(nonNil(p.Features))
	if err != nil {
		return "", "", fmt.Errorf("encoding features: %w", err)
	}
	images, err := json.Marshal(nonNil(p.Images))
	if err != nil {
		return "", "", fmt.Errorf("encoding images: %w", err)
	}
	return string(features), string(images), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
