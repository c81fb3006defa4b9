package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/evcraddock/house-market/internal/auth"
	"github.com/evcraddock/house-market/internal/geocode"
	"github.com/evcraddock/house-market/internal/property"
	"github.com/evcraddock/house-market/internal/schema"
	"github.com/evcraddock/house-market/internal/search"
	"github.com/evcraddock/house-market/internal/upload"
)

// defaultMarkerPrecision groups listings into cells of roughly 5km.
const defaultMarkerPrecision = 5

type listingsResponse struct {
	search.Result
	Sort       search.SortKey `json:"sort"`
	Bookmarked []int64        `json:"bookmarked,omitempty"`
}

type markersResponse struct {
	Precision int              `json:"precision"`
	Markers   []geocode.Marker `json:"markers"`
}

// handleListProperties runs the listings pipeline: filter, sort, then
// reconcile ?selected against what is still visible.
func (s *Server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria, err := search.FromQuery(q)
	if err != nil {
		apiError(w, err.Error(), codeInvalidArgument, http.StatusBadRequest)
		return
	}

	var selected int64
	if v := q.Get("selected"); v != "" {
		selected, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			apiError(w, "invalid selected", codeInvalidArgument, http.StatusBadRequest)
			return
		}
	}

	all, err := s.deps.Properties.Repo().List()
	if err != nil {
		writeError(w, r, err)
		return
	}

	key := search.ParseSortKey(q.Get("sort"))
	resp := listingsResponse{Result: search.Listings(all, criteria, key, selected), Sort: key}

	if uid := auth.UserIDFrom(r.Context()); uid != 0 && s.deps.Bookmarks != nil {
		saved, err := s.deps.Bookmarks.PropertyIDs(uid)
		if err != nil {
			writeError(w, r, err)
			return
		}
		for _, p := range resp.Properties {
			if saved[p.ID] {
				resp.Bookmarked = append(resp.Bookmarked, p.ID)
			}
		}
	}

	apiJSON(w, resp, http.StatusOK)
}

func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := s.deps.Properties.Repo().GetByID(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, p, http.StatusOK)
}

func (s *Server) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	p, ok := s.decodeProperty(w, r)
	if !ok {
		return
	}

	saved, err := s.deps.Properties.Create(r.Context(), auth.UserIDFrom(r.Context()), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, saved, http.StatusCreated)
}

func (s *Server) handleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, ok := s.decodeProperty(w, r)
	if !ok {
		return
	}

	saved, err := s.deps.Properties.Update(r.Context(), auth.UserIDFrom(r.Context()), id, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, saved, http.StatusOK)
}

func (s *Server) handleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Properties.Delete(auth.UserIDFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{"id": id, "deleted": true}, http.StatusOK)
}

// handleUploadImage accepts a multipart form with the file in "image".
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxImageSize+maxBodyBytes)
	if err := r.ParseMultipartForm(upload.MaxImageSize); err != nil {
		apiError(w, "invalid multipart form", codeInvalidArgument, http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		apiError(w, `missing "image" file`, codeInvalidArgument, http.StatusBadRequest)
		return
	}
	defer file.Close()

	p, err := s.deps.Properties.AddImage(r.Context(), auth.UserIDFrom(r.Context()), id, header.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, p, http.StatusCreated)
}

// handleMarkers clusters the filtered listings for the map view.
func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria, err := search.FromQuery(q)
	if err != nil {
		apiError(w, err.Error(), codeInvalidArgument, http.StatusBadRequest)
		return
	}

	precision := defaultMarkerPrecision
	if v := q.Get("precision"); v != "" {
		precision, err = strconv.Atoi(v)
		if err != nil || precision < 1 || precision > 8 {
			apiError(w, "precision must be between 1 and 8", codeInvalidArgument, http.StatusBadRequest)
			return
		}
	}

	all, err := s.deps.Properties.Repo().List()
	if err != nil {
		writeError(w, r, err)
		return
	}

	markers := property.Markers(search.Filter(all, criteria, search.StrictAll), precision)
	apiJSON(w, markersResponse{Precision: precision, Markers: markers}, http.StatusOK)
}

// decodeProperty validates the body against the property schema before
// decoding it.
func (s *Server) decodeProperty(w http.ResponseWriter, r *http.Request) (*property.Property, bool) {
	body, err := readBody(w, r)
	if err != nil {
		apiError(w, "request body too large", codeInvalidArgument, http.StatusRequestEntityTooLarge)
		return nil, false
	}
	if err := s.deps.Schemas.Validate(schema.Property, body); err != nil {
		writeError(w, r, err)
		return nil, false
	}

	var p property.Property
	if err := json.Unmarshal(body, &p); err != nil {
		writeError(w, r, errors.Join(schema.ErrInvalid, err))
		return nil, false
	}
	return &p, true
}
