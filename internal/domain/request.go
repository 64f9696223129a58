package domain

import (
	"strings"
	"time"
)

// DefaultRequestTTL is how long a request stays open when no explicit
// expiry is given.
const DefaultRequestTTL = 30 * 24 * time.Hour

type Request struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    Category      `json:"category"`
	Urgency     Urgency       `json:"urgency"`
	Condition   Condition     `json:"condition"`
	Location    string        `json:"location"`
	Tags        []string      `json:"tags"`
	RequesterID string        `json:"requester_id"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	ExpiresAt   time.Time     `json:"expires_at"`
	Offers      []Offer       `json:"offers"`
}

type Offer struct {
	ID         string      `json:"id"`
	ItemID     string      `json:"item_id"`
	OffererID  string      `json:"offerer_id"`
	Message    string      `json:"message"`
	Status     OfferStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	AcceptedAt *time.Time  `json:"accepted_at,omitempty"`
	DeclinedAt *time.Time  `json:"declined_at,omitempty"`
}

// Item is the catalog read model used for scoring. It is never written
// back by the engine.
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	OwnerID     string    `json:"owner_id"`
	Condition   Condition `json:"condition,omitempty"`
}

// Clone returns a deep copy so callers never share offers or tags with
// the store.
func (r Request) Clone() Request {
	out := r
	if r.Tags != nil {
		out.Tags = append([]string(nil), r.Tags...)
	}
	if r.Offers != nil {
		out.Offers = make([]Offer, len(r.Offers))
		for i, o := range r.Offers {
			out.Offers[i] = o.Clone()
		}
	}
	return out
}

func (o Offer) Clone() Offer {
	out := o
	if o.AcceptedAt != nil {
		t := *o.AcceptedAt
		out.AcceptedAt = &t
	}
	if o.DeclinedAt != nil {
		t := *o.DeclinedAt
		out.DeclinedAt = &t
	}
	return out
}

// FindOffer returns the index of the offer with the given id, or -1.
func (r Request) FindOffer(offerID string) int {
	for i := range r.Offers {
		if r.Offers[i].ID == offerID {
			return i
		}
	}
	return -1
}

// AcceptedOffer returns the accepted offer, if any.
func (r Request) AcceptedOffer() (Offer, bool) {
	for _, o := range r.Offers {
		if o.Status == OfferAccepted {
			return o, true
		}
	}
	return Offer{}, false
}

// IsOverdue reports whether an active request has reached its expiry.
func (r Request) IsOverdue(now time.Time) bool {
	return r.Status == RequestActive && !r.ExpiresAt.After(now)
}

// Validate checks the fields every stored request must carry.
func (r Request) Validate() error {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return NewValidationError("title", "is required")
	case strings.TrimSpace(r.Description) == "":
		return NewValidationError("description", "is required")
	case r.Category == "":
		return NewValidationError("category", "is required")
	case !r.Category.IsValid():
		return NewValidationError("category", "is not one of clothing, electronics, furniture, household, other")
	case strings.TrimSpace(r.Location) == "":
		return NewValidationError("location", "is required")
	case strings.TrimSpace(r.RequesterID) == "":
		return NewValidationError("requester_id", "is required")
	case !r.Urgency.IsValid():
		return NewValidationError("urgency", "is not one of low, medium, high")
	case !r.Condition.IsValid():
		return NewValidationError("condition", "is not one of any, excellent, good, fair")
	case !r.CreatedAt.IsZero() && !r.ExpiresAt.After(r.CreatedAt):
		return NewValidationError("expires_at", "must be after created_at")
	}
	return nil
}

// NormalizeTags lowercases and trims tags, dropping empties and
// duplicates while keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// CreateRequestInput is the caller-supplied data for a new request.
type CreateRequestInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	Urgency     Urgency    `json:"urgency"`
	Condition   Condition  `json:"condition"`
	Location    string     `json:"location"`
	Tags        []string   `json:"tags"`
	RequesterID string     `json:"requester_id"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// RequestPatch carries the editable fields of an active request. Nil
// fields are left untouched.
type RequestPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Category    *Category  `json:"category,omitempty"`
	Urgency     *Urgency   `json:"urgency,omitempty"`
	Condition   *Condition `json:"condition,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Apply writes the non-nil patch fields onto r.
func (p RequestPatch) Apply(r *Request) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Urgency != nil {
		r.Urgency = *p.Urgency
	}
	if p.Condition != nil {
		r.Condition = *p.Condition
	}
	if p.Location != nil {
		r.Location = *p.Location
	}
	if p.Tags != nil {
		r.Tags = NormalizeTags(p.Tags)
	}
	if p.ExpiresAt != nil {
		r.ExpiresAt = *p.ExpiresAt
	}
}

// OfferInput is the data needed to attach an offer to a request.
type OfferInput struct {
	ItemID    string `json:"item_id"`
	OffererID string `json:"offerer_id"`
	Message   string `json:"message"`
}
