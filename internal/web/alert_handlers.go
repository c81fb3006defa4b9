package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/evcraddock/house-market/internal/alert"
	"github.com/evcraddock/house-market/internal/auth"
	"github.com/evcraddock/house-market/internal/notify"
	"github.com/evcraddock/house-market/internal/property"
	"github.com/evcraddock/house-market/internal/schema"
	"github.com/evcraddock/house-market/internal/search"
)

type createAlertRequest struct {
	Name      string          `json:"name"`
	Frequency alert.Frequency `json:"frequency"`
	Criteria  search.Criteria `json:"criteria"`
}

type matchesResponse struct {
	AlertID    int64                `json:"alert_id"`
	Total      int                  `json:"total"`
	Properties []*property.Property `json:"properties"`
}

type notificationsResponse struct {
	Notifications []*notify.Notification `json:"notifications"`
	Unread        int                    `json:"unread"`
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Alerts.List(auth.UserIDFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*alert.Alert{}
	}
	apiJSON(w, list, http.StatusOK)
}

// handleCreateAlert stores the saved search and checks it once before
// responding, so match_count is already populated.
func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		apiError(w, "request body too large", codeInvalidArgument, http.StatusRequestEntityTooLarge)
		return
	}
	if err := s.deps.Schemas.Validate(schema.Alert, body); err != nil {
		writeError(w, r, err)
		return
	}
	var req createAlertRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, r, errors.Join(schema.ErrInvalid, err))
		return
	}

	a, err := s.deps.Alerts.Create(r.Context(), auth.UserIDFrom(r.Context()), req.Name, req.Criteria, req.Frequency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, a, http.StatusCreated)
}

func (s *Server) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	a, err := s.deps.Alerts.Get(auth.UserIDFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, a, http.StatusOK)
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Alerts.Delete(auth.UserIDFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{"id": id, "deleted": true}, http.StatusOK)
}

func (s *Server) handleToggleAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	a, err := s.deps.Alerts.Toggle(auth.UserIDFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, a, http.StatusOK)
}

func (s *Server) handleCheckAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res, err := s.deps.Alerts.CheckNow(r.Context(), auth.UserIDFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, res, http.StatusOK)
}

func (s *Server) handleAlertMatches(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	props, err := s.deps.Alerts.Matches(auth.UserIDFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if props == nil {
		props = []*property.Property{}
	}
	apiJSON(w, matchesResponse{AlertID: id, Total: len(props), Properties: props}, http.StatusOK)
}

// handleListNotifications returns the inbox; ?unread=true limits it to
// unread entries.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserIDFrom(r.Context())
	list, err := s.deps.Inbox.List(uid, r.URL.Query().Get("unread") == "true")
	if err != nil {
		writeError(w, r, err)
		return
	}
	unread, err := s.deps.Inbox.UnreadCount(uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*notify.Notification{}
	}
	apiJSON(w, notificationsResponse{Notifications: list, Unread: unread}, http.StatusOK)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Inbox.MarkRead(auth.UserIDFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, map[string]interface{}{"id": id, "read": true}, http.StatusOK)
}
