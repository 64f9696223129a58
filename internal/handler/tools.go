package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Markcrest-dev/EcoSwap-sub000/internal/domain"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/matching"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Backend runs the exchange operations. The primary process uses the
// webserver itself; other processes use the HTTP client.
type Backend interface {
	CreateRequest(in domain.CreateRequestInput) (domain.Request, error)
	OfferItem(requestID, itemID, offererID, message string) (domain.Offer, error)
	AcceptOffer(requestID, offerID string) (domain.Request, error)
	DeclineOffer(requestID, offerID string) (domain.Request, error)
	FindItemsForRequest(requestID string) ([]matching.ItemMatch, error)
	FindMatchesForUser(userID string, order matching.SortOrder) ([]matching.RequestMatch, error)
}

type Tools struct {
	backend Backend
}

func NewTools(backend Backend) *Tools {
	return &Tools{backend: backend}
}

// Register adds every exchange tool to s.
func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("create_request",
		mcp.WithDescription("Post a request for an item you need. It stays open for 30 days unless expires_at is given."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Short name of the wanted item")),
		mcp.WithString("description", mcp.Required(), mcp.Description("What the item is needed for and any details")),
		mcp.WithString("category", mcp.Required(),
			mcp.Enum("clothing", "electronics", "furniture", "household", "other"),
			mcp.Description("Item category"),
		),
		mcp.WithString("location", mcp.Required(), mcp.Description("Where the item should be handed over")),
		mcp.WithString("requester_id", mcp.Required(), mcp.Description("User id of the person asking")),
		mcp.WithString("urgency", mcp.Enum("low", "medium", "high"), mcp.Description("Defaults to medium")),
		mcp.WithString("condition", mcp.Enum("any", "excellent", "good", "fair"), mcp.Description("Minimum acceptable condition, defaults to any")),
		mcp.WithString("tags", mcp.Description("Comma separated keywords")),
		mcp.WithString("expires_at", mcp.Description("RFC 3339 expiry time")),
	), t.CreateRequest)

	s.AddTool(mcp.NewTool("offer_item",
		mcp.WithDescription("Offer one of your items to an open request."),
		mcp.WithString("request_id", mcp.Required(), mcp.Description("Request to offer against")),
		mcp.WithString("item_id", mcp.Required(), mcp.Description("Item being offered")),
		mcp.WithString("offerer_id", mcp.Required(), mcp.Description("User id of the person offering")),
		mcp.WithString("message", mcp.Required(), mcp.Description("Note for the requester")),
	), t.OfferItem)

	s.AddTool(mcp.NewTool("accept_offer",
		mcp.WithDescription("Accept an offer. The request becomes fulfilled and every other pending offer is declined."),
		mcp.WithString("request_id", mcp.Required(), mcp.Description("Request the offer belongs to")),
		mcp.WithString("offer_id", mcp.Required(), mcp.Description("Offer to accept")),
	), t.AcceptOffer)

	s.AddTool(mcp.NewTool("decline_offer",
		mcp.WithDescription("Decline a pending offer. The request stays open."),
		mcp.WithString("request_id", mcp.Required(), mcp.Description("Request the offer belongs to")),
		mcp.WithString("offer_id", mcp.Required(), mcp.Description("Offer to decline")),
	), t.DeclineOffer)

	s.AddTool(mcp.NewTool("find_items_for_request",
		mcp.WithDescription("Rank catalog items that could satisfy a request, best first."),
		mcp.WithString("request_id", mcp.Required(), mcp.Description("Request to match")),
	), t.FindItemsForRequest)

	s.AddTool(mcp.NewTool("find_matches_for_user",
		mcp.WithDescription("Rank the open requests a user's items could satisfy, best first."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Owner of the items")),
		mcp.WithString("sort", mcp.Enum("relevance", "urgency", "newest"), mcp.Description("Tie-break for equal scores, defaults to relevance")),
	), t.FindMatchesForUser)
}

func (t *Tools) CreateRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := domain.CreateRequestInput{
		Urgency:   domain.Urgency(request.GetString("urgency", "")),
		Condition: domain.Condition(request.GetString("condition", "")),
		Tags:      splitTags(request.GetString("tags", "")),
	}
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"title", &in.Title},
		{"description", &in.Description},
		{"location", &in.Location},
		{"requester_id", &in.RequesterID},
	} {
		v, err := request.RequireString(f.key)
		if err != nil {
			return mcp.NewToolResultError(f.key + " is required"), nil
		}
		*f.dst = v
	}
	category, err := request.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError("category is required"), nil
	}
	in.Category = domain.Category(category)

	if raw := request.GetString("expires_at", ""); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return mcp.NewToolResultError("expires_at must be an RFC 3339 time"), nil
		}
		in.ExpiresAt = &at
	}

	req, err := t.backend.CreateRequest(in)
	return result(req, err)
}

func (t *Tools) OfferItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := requireAll(request, "request_id", "item_id", "offerer_id", "message")
	if errResult != nil {
		return errResult, nil
	}
	offer, err := t.backend.OfferItem(args[0], args[1], args[2], args[3])
	return result(offer, err)
}

func (t *Tools) AcceptOffer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := requireAll(request, "request_id", "offer_id")
	if errResult != nil {
		return errResult, nil
	}
	req, err := t.backend.AcceptOffer(args[0], args[1])
	return result(req, err)
}

func (t *Tools) DeclineOffer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, errResult := requireAll(request, "request_id", "offer_id")
	if errResult != nil {
		return errResult, nil
	}
	req, err := t.backend.DeclineOffer(args[0], args[1])
	return result(req, err)
}

func (t *Tools) FindItemsForRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestID, err := request.RequireString("request_id")
	if err != nil {
		return mcp.NewToolResultError("request_id is required"), nil
	}
	matches, err := t.backend.FindItemsForRequest(requestID)
	return result(matches, err)
}

func (t *Tools) FindMatchesForUser(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	order, err := matching.ParseSortOrder(request.GetString("sort", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	matches, err := t.backend.FindMatchesForUser(userID, order)
	return result(matches, err)
}

func requireAll(request mcp.CallToolRequest, keys ...string) ([]string, *mcp.CallToolResult) {
	out := make([]string, len(keys))
	for i, key := range keys {
		v, err := request.RequireString(key)
		if err != nil {
			return nil, mcp.NewToolResultError(key + " is required")
		}
		out[i] = v
	}
	return out, nil
}

// result renders v as JSON. Errors the caller can act on become tool
// errors; anything else fails the call.
func result(v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidState) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
