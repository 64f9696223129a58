package webserver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Markcrest-dev/EcoSwap-sub000/internal/domain"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/matching"
)

func setupClient(t *testing.T) (*Client, *testEnv) {
	t.Helper()
	env := setupTestServer(t)
	ts := httptest.NewServer(env.handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL), env
}

func TestClientOfferAndAccept(t *testing.T) {
	c, env := setupClient(t)
	seedItems(t, env.catalog)

	req, err := c.CreateRequest(domain.CreateRequestInput{
		Title:       "Desk Lamp",
		Description: "need LED desk lamp",
		Category:    domain.CategoryHousehold,
		Location:    "Springfield",
		Tags:        []string{"lamp", "led"},
		RequesterID: "alice",
	})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	items, err := c.FindItemsForRequest(req.ID)
	if err != nil {
		t.Fatalf("FindItemsForRequest failed: %v", err)
	}
	if len(items) == 0 || items[0].Item.ID != "lamp" {
		t.Fatalf("expected lamp first, got %+v", items)
	}

	matches, err := c.FindMatchesForUser("bob", matching.SortNewest)
	if err != nil {
		t.Fatalf("FindMatchesForUser failed: %v", err)
	}
	if len(matches) == 0 || matches[0].Request.ID != req.ID {
		t.Fatalf("expected bob to match alice's request, got %+v", matches)
	}

	offer, err := c.OfferItem(req.ID, "lamp", "bob", "still works")
	if err != nil {
		t.Fatalf("OfferItem failed: %v", err)
	}
	got, err := c.AcceptOffer(req.ID, offer.ID)
	if err != nil {
		t.Fatalf("AcceptOffer failed: %v", err)
	}
	if got.Status != domain.RequestFulfilled {
		t.Errorf("expected fulfilled, got %q", got.Status)
	}

	_, err = c.DeclineOffer(req.ID, offer.ID)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("expected invalid state, got %v", err)
	}
}

func TestClientErrorKinds(t *testing.T) {
	c, _ := setupClient(t)

	_, err := c.AcceptOffer("missing", "o1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	var re *RemoteError
	if !errors.As(err, &re) || re.Status != http.StatusNotFound {
		t.Errorf("expected RemoteError with 404, got %#v", err)
	}

	_, err = c.CreateRequest(domain.CreateRequestInput{Title: "x"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if errors.As(err, &re) && re.Field == "" {
		t.Errorf("expected field to be reported")
	}
}

func TestClientUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	_, err := c.FindMatchesForUser("bob", matching.SortRelevance)
	if err == nil {
		t.Fatal("expected error for unreachable server")
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
		t.Errorf("transport error must not look like a domain error: %v", err)
	}
}
