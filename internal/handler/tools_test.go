package handler

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Markcrest-dev/EcoSwap-sub000/internal/domain"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/matching"
	"github.com/mark3labs/mcp-go/mcp"
)

type fakeBackend struct {
	created   domain.CreateRequestInput
	offerArgs []string
	order     matching.SortOrder
	err       error
}

func (f *fakeBackend) CreateRequest(in domain.CreateRequestInput) (domain.Request, error) {
	f.created = in
	if f.err != nil {
		return domain.Request{}, f.err
	}
	return domain.Request{ID: "r1", Title: in.Title, Status: domain.RequestActive}, nil
}

func (f *fakeBackend) OfferItem(requestID, itemID, offererID, message string) (domain.Offer, error) {
	f.offerArgs = []string{requestID, itemID, offererID, message}
	if f.err != nil {
		return domain.Offer{}, f.err
	}
	return domain.Offer{ID: "o1", ItemID: itemID, OffererID: offererID, Status: domain.OfferPending}, nil
}

func (f *fakeBackend) AcceptOffer(requestID, offerID string) (domain.Request, error) {
	if f.err != nil {
		return domain.Request{}, f.err
	}
	return domain.Request{ID: requestID, Status: domain.RequestFulfilled}, nil
}

func (f *fakeBackend) DeclineOffer(requestID, offerID string) (domain.Request, error) {
	if f.err != nil {
		return domain.Request{}, f.err
	}
	return domain.Request{ID: requestID, Status: domain.RequestActive}, nil
}

func (f *fakeBackend) FindItemsForRequest(requestID string) ([]matching.ItemMatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []matching.ItemMatch{{Item: domain.Item{ID: "i1"}, Score: 125}}, nil
}

func (f *fakeBackend) FindMatchesForUser(userID string, order matching.SortOrder) ([]matching.RequestMatch, error) {
	f.order = order
	return []matching.RequestMatch{}, f.err
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("expected content in result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestCreateRequestTool(t *testing.T) {
	fb := &fakeBackend{}
	tools := NewTools(fb)

	res, err := tools.CreateRequest(context.Background(), callRequest(map[string]any{
		"title":        "Desk Lamp",
		"description":  "need LED desk lamp",
		"category":     "household",
		"location":     "Springfield",
		"requester_id": "alice",
		"urgency":      "high",
		"tags":         "lamp, led",
		"expires_at":   "2026-12-01T00:00:00Z",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	var got domain.Request
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if got.ID != "r1" {
		t.Errorf("expected id r1, got %q", got.ID)
	}

	in := fb.created
	if in.Category != domain.CategoryHousehold || in.Urgency != domain.UrgencyHigh {
		t.Errorf("unexpected input: %+v", in)
	}
	if len(in.Tags) != 2 || in.Tags[1] != " led" {
		t.Errorf("expected raw tags to be passed through, got %q", in.Tags)
	}
	want := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	if in.ExpiresAt == nil || !in.ExpiresAt.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, in.ExpiresAt)
	}
}

func TestCreateRequestToolMissingArgument(t *testing.T) {
	tools := NewTools(&fakeBackend{})

	res, err := tools.CreateRequest(context.Background(), callRequest(map[string]any{
		"title": "Desk Lamp",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "description") {
		t.Errorf("expected description to be reported missing, got %+v", res)
	}
}

func TestCreateRequestToolBadExpiry(t *testing.T) {
	tools := NewTools(&fakeBackend{})
	res, _ := tools.CreateRequest(context.Background(), callRequest(map[string]any{
		"title":        "t",
		"description":  "d",
		"category":     "other",
		"location":     "l",
		"requester_id": "alice",
		"expires_at":   "next week",
	}))
	if !res.IsError {
		t.Error("expected tool error for bad expiry")
	}
}

func TestOfferItemTool(t *testing.T) {
	fb := &fakeBackend{}
	tools := NewTools(fb)

	res, err := tools.OfferItem(context.Background(), callRequest(map[string]any{
		"request_id": "r1",
		"item_id":    "i1",
		"offerer_id": "bob",
		"message":    "have one",
	}))
	if err != nil || res.IsError {
		t.Fatalf("unexpected failure: %v %+v", err, res)
	}
	want := []string{"r1", "i1", "bob", "have one"}
	for i := range want {
		if fb.offerArgs[i] != want[i] {
			t.Errorf("arg %d: expected %q, got %q", i, want[i], fb.offerArgs[i])
		}
	}
}

func TestDomainErrorsBecomeToolErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"not found", domain.NewNotFoundError("request", "r1")},
		{"invalid state", domain.NewInvalidStateError("accept", "r1", string(domain.RequestFulfilled))},
		{"validation", domain.NewValidationError("message", "is required")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tools := NewTools(&fakeBackend{err: tc.err})
			res, err := tools.AcceptOffer(context.Background(), callRequest(map[string]any{
				"request_id": "r1",
				"offer_id":   "o1",
			}))
			if err != nil {
				t.Fatalf("expected tool error, got call error %v", err)
			}
			if !res.IsError || resultText(t, res) != tc.err.Error() {
				t.Errorf("expected %q, got %+v", tc.err.Error(), res)
			}
		})
	}
}

func TestInfrastructureErrorFailsCall(t *testing.T) {
	boom := errors.New("connection refused")
	tools := NewTools(&fakeBackend{err: boom})

	_, err := tools.DeclineOffer(context.Background(), callRequest(map[string]any{
		"request_id": "r1",
		"offer_id":   "o1",
	}))
	if !errors.Is(err, boom) {
		t.Errorf("expected call error %v, got %v", boom, err)
	}
}

func TestFindMatchesForUserTool(t *testing.T) {
	fb := &fakeBackend{}
	tools := NewTools(fb)

	res, err := tools.FindMatchesForUser(context.Background(), callRequest(map[string]any{
		"user_id": "bob",
		"sort":    "urgency",
	}))
	if err != nil || res.IsError {
		t.Fatalf("unexpected failure: %v %+v", err, res)
	}
	if fb.order != matching.SortUrgency {
		t.Errorf("expected urgency order, got %q", fb.order)
	}
	if strings.TrimSpace(resultText(t, res)) != "[]" {
		t.Errorf("expected empty JSON list, got %q", resultText(t, res))
	}

	res, _ = tools.FindMatchesForUser(context.Background(), callRequest(map[string]any{
		"user_id": "bob",
		"sort":    "alphabetical",
	}))
	if !res.IsError {
		t.Error("expected tool error for unknown sort")
	}
}

func TestFindItemsForRequestTool(t *testing.T) {
	tools := NewTools(&fakeBackend{})
	res, err := tools.FindItemsForRequest(context.Background(), callRequest(map[string]any{
		"request_id": "r1",
	}))
	if err != nil || res.IsError {
		t.Fatalf("unexpected failure: %v %+v", err, res)
	}
	var matches []matching.ItemMatch
	if err := json.Unmarshal([]byte(resultText(t, res)), &matches); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if len(matches) != 1 || matches[0].Score != 125 {
		t.Errorf("unexpected matches: %+v", matches)
	}
}
