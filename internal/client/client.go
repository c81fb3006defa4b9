// Package client provides an HTTP client for the house-market REST API.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evcraddock/house-market/internal/alert"
	"github.com/evcraddock/house-market/internal/auth"
	"github.com/evcraddock/house-market/internal/bookmark"
	"github.com/evcraddock/house-market/internal/compare"
	"github.com/evcraddock/house-market/internal/notify"
	"github.com/evcraddock/house-market/internal/property"
	"github.com/evcraddock/house-market/internal/search"
)

// Client is an HTTP client for the house-market API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new API client. token may be empty for anonymous calls.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Error is a failed API call.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// StatusOf returns the HTTP status of an API error, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// SignInResult is the response from POST /api/auth/signin.
type SignInResult struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

// Listings is the response from GET /api/properties.
type Listings struct {
	Properties []*property.Property `json:"properties"`
	Total      int                  `json:"total"`
	Selected   int64                `json:"selected,omitempty"`
	Sort       search.SortKey       `json:"sort"`
	Bookmarked []int64              `json:"bookmarked,omitempty"`
}

// Comparison is the caller's side-by-side selection.
type Comparison struct {
	IDs        []int64              `json:"ids"`
	Properties []*property.Property `json:"properties"`
	Table      compare.Table        `json:"table"`
}

// Matches is the response from GET /api/alerts/{id}/matches.
type Matches struct {
	AlertID    int64                `json:"alert_id"`
	Total      int                  `json:"total"`
	Properties []*property.Property `json:"properties"`
}

// Inbox is the response from GET /api/notifications.
type Inbox struct {
	Notifications []*notify.Notification `json:"notifications"`
	Unread        int                    `json:"unread"`
}

// SignIn exchanges credentials for a bearer token.
func (c *Client) SignIn(email, password string) (*SignInResult, error) {
	body := map[string]string{"email": email, "password": password}
	var res SignInResult
	if err := c.send("POST", "/api/auth/signin", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Profile returns the signed-in user.
func (c *Client) Profile() (*auth.User, error) {
	var u auth.User
	if err := c.get("/api/auth/profile", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Search returns listings matching criteria in the given order.
func (c *Client) Search(criteria search.Criteria, sort search.SortKey) (*Listings, error) {
	q := criteria.Query()
	if sort != "" {
		q.Set("sort", string(sort))
	}
	path := "/api/properties"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var res Listings
	if err := c.get(path, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetProperty returns one listing.
func (c *Client) GetProperty(id int64) (*property.Property, error) {
	var p property.Property
	if err := c.get(fmt.Sprintf("/api/properties/%d", id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProperty lists a property from a JSON document.
func (c *Client) CreateProperty(doc json.RawMessage) (*property.Property, error) {
	var p property.Property
	if err := c.send("POST", "/api/properties", doc, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProperty removes one of the caller's listings.
func (c *Client) DeleteProperty(id int64) error {
	return c.send("DELETE", fmt.Sprintf("/api/properties/%d", id), nil, nil)
}

// Bookmarks returns the caller's saved properties.
func (c *Client) Bookmarks() ([]*bookmark.Bookmark, error) {
	var list []*bookmark.Bookmark
	if err := c.get("/api/bookmarks", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// AddBookmark saves a property.
func (c *Client) AddBookmark(propertyID int64) (*bookmark.Bookmark, error) {
	var b bookmark.Bookmark
	if err := c.send("PUT", fmt.Sprintf("/api/bookmarks/%d", propertyID), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// RemoveBookmark unsaves a property.
func (c *Client) RemoveBookmark(propertyID int64) error {
	return c.send("DELETE", fmt.Sprintf("/api/bookmarks/%d", propertyID), nil, nil)
}

// Comparison returns the current comparison.
func (c *Client) Comparison() (*Comparison, error) {
	var res Comparison
	if err := c.get("/api/compare", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AddToComparison appends a property to the comparison.
func (c *Client) AddToComparison(propertyID int64) (*Comparison, error) {
	var res Comparison
	if err := c.send("POST", fmt.Sprintf("/api/compare/%d", propertyID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RemoveFromComparison drops a property from the comparison.
func (c *Client) RemoveFromComparison(propertyID int64) (*Comparison, error) {
	var res Comparison
	if err := c.send("DELETE", fmt.Sprintf("/api/compare/%d", propertyID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ClearComparison empties the comparison.
func (c *Client) ClearComparison() error {
	return c.send("DELETE", "/api/compare", nil, nil)
}

// Alerts returns the caller's saved searches.
func (c *Client) Alerts() ([]*alert.Alert, error) {
	var list []*alert.Alert
	if err := c.get("/api/alerts", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateAlert saves a search. The server checks it once before replying.
func (c *Client) CreateAlert(name string, freq alert.Frequency, criteria search.Criteria) (*alert.Alert, error) {
	body := map[string]interface{}{"name": name, "criteria": criteria}
	if freq != "" {
		body["frequency"] = freq
	}
	var a alert.Alert
	if err := c.send("POST", "/api/alerts", body, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ToggleAlert pauses or resumes an alert.
func (c *Client) ToggleAlert(id int64) (*alert.Alert, error) {
	var a alert.Alert
	if err := c.send("POST", fmt.Sprintf("/api/alerts/%d/toggle", id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// CheckAlert re-evaluates an alert now.
func (c *Client) CheckAlert(id int64) (*alert.CheckResult, error) {
	var res alert.CheckResult
	if err := c.send("POST", fmt.Sprintf("/api/alerts/%d/check", id), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AlertMatches returns the listings an alert currently matches.
func (c *Client) AlertMatches(id int64) (*Matches, error) {
	var res Matches
	if err := c.get(fmt.Sprintf("/api/alerts/%d/matches", id), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DeleteAlert removes an alert.
func (c *Client) DeleteAlert(id int64) error {
	return c.send("DELETE", fmt.Sprintf("/api/alerts/%d", id), nil, nil)
}

// Notifications returns the caller's inbox.
func (c *Client) Notifications(unreadOnly bool) (*Inbox, error) {
	path := "/api/notifications"
	if unreadOnly {
		path += "?" + url.Values{"unread": {"true"}}.Encode()
	}
	var res Inbox
	if err := c.get(path, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// get performs a GET request and decodes the response.
func (c *Client) get(path string, result interface{}) error {
	return c.send("GET", path, nil, result)
}

// send performs a request with an optional JSON body and decodes the
// response.
func (c *Client) send(method, path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, result)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &Error{Status: resp.StatusCode, Message: "server error: " + http.StatusText(resp.StatusCode)}
		var errResp struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			apiErr.Message, apiErr.Code = errResp.Error, errResp.Code
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
