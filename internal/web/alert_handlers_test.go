package web

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/evcraddock/house-market/internal/alert"
)

func austinAlert(freq string) map[string]interface{} {
	return map[string]interface{}{
		"name":      "Austin under 500k",
		"frequency": freq,
		"criteria": map[string]interface{}{
			"location":  "austin",
			"min_price": 100000,
			"max_price": 500000,
		},
	}
}

func (e *testEnv) createAlert(t *testing.T, token string, body map[string]interface{}) *alert.Alert {
	t.Helper()
	w := e.do(t, "POST", "/api/alerts", token, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create alert status = %d, body = %s", w.Code, w.Body.String())
	}
	var a alert.Alert
	decode(t, w, &a)
	return &a
}

func TestCreateAlertChecksImmediately(t *testing.T) {
	env := testServer(t)
	token := env.signUp(t, "buyer@example.com")
	env.listProperty(t, token, austinListing("A", 300000))
	env.listProperty(t, token, austinListing("B", 450000))

	a := env.createAlert(t, token, austinAlert("immediate"))
	if a.MatchCount != 2 || !a.Active || a.LastCheckedAt == nil {
		t.Errorf("alert = %+v", a)
	}
	if a.Criteria.Location != "austin" || a.Criteria.MaxPrice != 500000 {
		t.Errorf("criteria = %+v", a.Criteria)
	}

	var inbox notificationsResponse
	decode(t, env.do(t, "GET", "/api/notifications", token, nil), &inbox)
	if len(inbox.Notifications) != 1 || inbox.Unread != 1 {
		t.Fatalf("inbox = %+v", inbox)
	}
	n := inbox.Notifications[0]
	if n.AlertID == nil || *n.AlertID != a.ID {
		t.Errorf("notification alert id = %v, want %d", n.AlertID, a.ID)
	}

	if w := env.do(t, "POST", fmt.Sprintf("/api/notifications/%d/read", n.ID), token, nil); w.Code != http.StatusOK {
		t.Fatalf("mark read status = %d", w.Code)
	}
	inbox = notificationsResponse{}
	decode(t, env.do(t, "GET", "/api/notifications?unread=true", token, nil), &inbox)
	if len(inbox.Notifications) != 0 || inbox.Unread != 0 {
		t.Errorf("after read = %+v", inbox)
	}
}

func TestCreateDailyAlertDoesNotNotify(t *testing.T) {
	env := testServer(t)
	token := env.signUp(t, "buyer@example.com")
	env.listProperty(t, token, austinListing("A", 300000))

	a := env.createAlert(t, token, austinAlert("daily"))
	if a.MatchCount != 1 {
		t.Errorf("match count = %d, want 1", a.MatchCount)
	}

	var inbox notificationsResponse
	decode(t, env.do(t, "GET", "/api/notifications", token, nil), &inbox)
	if len(inbox.Notifications) != 0 {
		t.Errorf("notifications = %d, want 0", len(inbox.Notifications))
	}
}

func TestCreateAlertSchemaErrors(t *testing.T) {
	env := testServer(t)
	token := env.signUp(t, "buyer@example.com")

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"criteria": map[string]interface{}{}}},
		{"empty name", map[string]interface{}{"name": "", "criteria": map[string]interface{}{}}},
		{"missing criteria", map[string]interface{}{"name": "x"}},
		{"bad frequency", map[string]interface{}{"name": "x", "frequency": "hourly", "criteria": map[string]interface{}{}}},
		{"unknown criterion", map[string]interface{}{"name": "x", "criteria": map[string]interface{}{"pets": true}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, "POST", "/api/alerts", token, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestAlertLifecycle(t *testing.T) {
	env := testServer(t)
	token := env.signUp(t, "buyer@example.com")
	env.listProperty(t, token, austinListing("A", 300000))
	a := env.createAlert(t, token, austinAlert("immediate"))
	path := fmt.Sprintf("/api/alerts/%d", a.ID)

	var list []alert.Alert
	decode(t, env.do(t, "GET", "/api/alerts", token, nil), &list)
	if len(list) != 1 || list[0].ID != a.ID {
		t.Fatalf("alerts = %+v", list)
	}

	var paused alert.Alert
	decode(t, env.do(t, "POST", path+"/toggle", token, nil), &paused)
	if paused.Active || paused.MatchCount != 1 {
		t.Errorf("paused = %+v", paused)
	}

	// A paused alert still counts on demand but never notifies.
	env.listProperty(t, token, austinListing("B", 350000))
	var res alert.CheckResult
	decode(t, env.do(t, "POST", path+"/check", token, nil), &res)
	if res.Previous != 1 || res.Matches != 2 || res.Notified {
		t.Errorf("paused check = %+v", res)
	}

	var resumed alert.Alert
	decode(t, env.do(t, "POST", path+"/toggle", token, nil), &resumed)
	if !resumed.Active {
		t.Error("expected alert active after second toggle")
	}

	env.listProperty(t, token, austinListing("C", 400000))
	res = alert.CheckResult{}
	decode(t, env.do(t, "POST", path+"/check", token, nil), &res)
	if res.Matches != 3 || !res.Notified {
		t.Errorf("active check = %+v", res)
	}

	var matches matchesResponse
	decode(t, env.do(t, "GET", path+"/matches", token, nil), &matches)
	if matches.AlertID != a.ID || matches.Total != 3 || len(matches.Properties) != 3 {
		t.Errorf("matches = %+v", matches)
	}

	if w := env.do(t, "DELETE", path, token, nil); w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	if w := env.do(t, "GET", path, token, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", w.Code)
	}
}

func TestAlertsAreScopedToOwner(t *testing.T) {
	env := testServer(t)
	owner := env.signUp(t, "buyer@example.com")
	other := env.signUp(t, "other@example.com")
	a := env.createAlert(t, owner, austinAlert("weekly"))
	path := fmt.Sprintf("/api/alerts/%d", a.ID)

	requests := []struct {
		method string
		path   string
	}{
		{"GET", path},
		{"DELETE", path},
		{"POST", path + "/toggle"},
		{"POST", path + "/check"},
		{"GET", path + "/matches"},
	}
	for _, rq := range requests {
		t.Run(rq.method+" "+rq.path, func(t *testing.T) {
			if w := env.do(t, rq.method, rq.path, other, nil); w.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404", w.Code)
			}
		})
	}

	var list []alert.Alert
	decode(t, env.do(t, "GET", "/api/alerts", other, nil), &list)
	if len(list) != 0 {
		t.Errorf("other user's alerts = %d, want 0", len(list))
	}
}

func TestMarkNotificationReadNotFound(t *testing.T) {
	env := testServer(t)
	token := env.signUp(t, "buyer@example.com")

	if w := env.do(t, "POST", "/api/notifications/42/read", token, nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
