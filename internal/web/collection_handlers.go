package web

import (
	"net/http"

	"github.com/evcraddock/house-market/internal/auth"
	"github.com/evcraddock/house-market/internal/bookmark"
	"github.com/evcraddock/house-market/internal/compare"
	"github.com/evcraddock/house-market/internal/property"
)

type comparisonResponse struct {
	IDs        []int64              `json:"ids"`
	Properties []*property.Property `json:"properties"`
	Table      compare.Table        `json:"table"`
}

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Bookmarks.List(auth.UserIDFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*bookmark.Bookmark{}
	}
	apiJSON(w, list, http.StatusOK)
}

func (s *Server) handleAddBookmark(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "propertyID")
	if !ok {
		return
	}
	b, err := s.deps.Bookmarks.Add(auth.UserIDFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, b, http.StatusCreated)
}

func (s *Server) handleRemoveBookmark(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "propertyID")
	if !ok {
		return
	}
	if err := s.deps.Bookmarks.Remove(auth.UserIDFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{"property_id": id, "removed": true}, http.StatusOK)
}

// compareKey is the comparison set for the caller's session. Bearer
// clients get one set per token.
func compareKey(r *http.Request) string {
	id, _ := auth.IdentityFrom(r.Context())
	return id.SessionKey
}

func (s *Server) handleGetComparison(w http.ResponseWriter, r *http.Request) {
	s.writeComparison(w, r, s.deps.Compare.IDs(compareKey(r)))
}

func (s *Server) handleAddToComparison(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "propertyID")
	if !ok {
		return
	}
	if _, err := s.deps.Properties.Repo().GetByID(id); err != nil {
		writeError(w, r, err)
		return
	}
	ids, err := s.deps.Compare.Add(compareKey(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeComparison(w, r, ids)
}

func (s *Server) handleRemoveFromComparison(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "propertyID")
	if !ok {
		return
	}
	ids, err := s.deps.Compare.Remove(compareKey(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeComparison(w, r, ids)
}

func (s *Server) handleClearComparison(w http.ResponseWriter, r *http.Request) {
	s.deps.Compare.Clear(compareKey(r))
	s.writeComparison(w, r, []int64{})
}

// writeComparison loads the compared listings in selection order. Listings
// deleted since they were added are left out of the table.
func (s *Server) writeComparison(w http.ResponseWriter, r *http.Request, ids []int64) {
	if ids == nil {
		ids = []int64{}
	}
	props, err := s.deps.Properties.Repo().ListByIDs(ids)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, comparisonResponse{IDs: ids, Properties: props, Table: compare.BuildTable(props)}, http.StatusOK)
}
