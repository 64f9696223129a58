package webserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Markcrest-dev/EcoSwap-sub000/internal/domain"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/matching"
)

// Client talks to the process that owns the API port. A second ecoswap
// process uses it instead of opening its own store.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) CreateRequest(in domain.CreateRequestInput) (domain.Request, error) {
	var out domain.Request
	err := c.do(http.MethodPost, "/api/requests", in, &out)
	return out, err
}

func (c *Client) OfferItem(requestID, itemID, offererID, message string) (domain.Offer, error) {
	var out domain.Offer
	body := domain.OfferInput{ItemID: itemID, OffererID: offererID, Message: message}
	err := c.do(http.MethodPost, "/api/requests/"+url.PathEscape(requestID)+"/offers", body, &out)
	return out, err
}

func (c *Client) AcceptOffer(requestID, offerID string) (domain.Request, error) {
	var out domain.Request
	err := c.do(http.MethodPost, offerPath(requestID, offerID, "accept"), nil, &out)
	return out, err
}

func (c *Client) DeclineOffer(requestID, offerID string) (domain.Request, error) {
	var out domain.Request
	err := c.do(http.MethodPost, offerPath(requestID, offerID, "decline"), nil, &out)
	return out, err
}

func (c *Client) FindItemsForRequest(requestID string) ([]matching.ItemMatch, error) {
	var out []matching.ItemMatch
	err := c.do(http.MethodGet, "/api/requests/"+url.PathEscape(requestID)+"/matches", nil, &out)
	return out, err
}

func (c *Client) FindMatchesForUser(userID string, order matching.SortOrder) ([]matching.RequestMatch, error) {
	var out []matching.RequestMatch
	path := "/api/users/" + url.PathEscape(userID) + "/matches?sort=" + url.QueryEscape(string(order))
	err := c.do(http.MethodGet, path, nil, &out)
	return out, err
}

func offerPath(requestID, offerID, action string) string {
	return fmt.Sprintf("/api/requests/%s/offers/%s/%s", url.PathEscape(requestID), url.PathEscape(offerID), action)
}

func (c *Client) do(method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach primary server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		return &RemoteError{Status: resp.StatusCode, Kind: eb.Kind, Field: eb.Field, Message: eb.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
