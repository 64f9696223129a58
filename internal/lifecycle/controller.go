package lifecycle

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Markcrest-dev/EcoSwap-sub000/internal/domain"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/store"
)

// Controller orchestrates request creation, offers, acceptance and
// expiry on top of the store. Store errors are returned as-is so callers
// can branch on their kind.
type Controller struct {
	store *store.Store
	log   *slog.Logger
	now   func() time.Time
}

func NewController(s *store.Store, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{store: s, log: log.With("component", "lifecycle"), now: time.Now}
}

// WithClock replaces the clock used for lazy expiry on reads.
func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.now = now
	return c
}

func (c *Controller) CreateRequest(in domain.CreateRequestInput) (domain.Request, error) {
	req, err := c.store.Create(in)
	if err != nil {
		return domain.Request{}, err
	}
	c.log.Info("request created",
		"request_id", req.ID,
		"requester_id", req.RequesterID,
		"category", req.Category,
		"expires_at", req.ExpiresAt,
	)
	return req, nil
}

func (c *Controller) UpdateRequest(id string, patch domain.RequestPatch) (domain.Request, error) {
	req, err := c.store.Update(id, patch)
	if err != nil {
		return domain.Request{}, err
	}
	c.log.Info("request updated", "request_id", id)
	return req, nil
}

// DeleteRequest removes a request. Ownership must be checked by the caller.
func (c *Controller) DeleteRequest(id string) error {
	if err := c.store.Delete(id); err != nil {
		return err
	}
	c.log.Info("request deleted", "request_id", id)
	return nil
}

// OfferItem proposes itemID for the request on behalf of offererID.
func (c *Controller) OfferItem(requestID, itemID, offererID, message string) (domain.Offer, error) {
	itemID = strings.TrimSpace(itemID)
	offererID = strings.TrimSpace(offererID)
	message = strings.TrimSpace(message)
	switch {
	case itemID == "":
		return domain.Offer{}, domain.NewValidationError("item_id", "is required")
	case offererID == "":
		return domain.Offer{}, domain.NewValidationError("offerer_id", "is required")
	case message == "":
		return domain.Offer{}, domain.NewValidationError("message", "is required")
	}

	offer, err := c.store.SubmitOffer(requestID, domain.OfferInput{
		ItemID:    itemID,
		OffererID: offererID,
		Message:   message,
	})
	if err != nil {
		return domain.Offer{}, err
	}
	c.log.Info("offer submitted",
		"request_id", requestID,
		"offer_id", offer.ID,
		"item_id", itemID,
		"offerer_id", offererID,
	)
	return offer, nil
}

// AcceptOffer fulfills the request with the given offer. Notifying the
// offerer and requester is left to the caller.
func (c *Controller) AcceptOffer(requestID, offerID string) (domain.Request, error) {
	req, err := c.store.AcceptOffer(requestID, offerID)
	if err != nil {
		return domain.Request{}, err
	}
	declined := 0
	for _, o := range req.Offers {
		if o.Status == domain.OfferDeclined {
			declined++
		}
	}
	c.log.Info("offer accepted",
		"request_id", requestID,
		"offer_id", offerID,
		"declined_offers", declined,
	)
	return req, nil
}

func (c *Controller) DeclineOffer(requestID, offerID string) (domain.Request, error) {
	req, err := c.store.DeclineOffer(requestID, offerID)
	if err != nil {
		return domain.Request{}, err
	}
	c.log.Info("offer declined", "request_id", requestID, "offer_id", offerID)
	return req, nil
}

// ExpireOverdue sweeps every active request that is due at now.
func (c *Controller) ExpireOverdue(now time.Time) ([]string, error) {
	swept, err := c.store.SweepExpired(now)
	if len(swept) > 0 {
		c.log.Info("requests expired", "count", len(swept), "request_ids", swept)
	}
	if err != nil {
		c.log.Error("expiry sweep incomplete", "error", err)
		return swept, err
	}
	return swept, nil
}

func (c *Controller) GetRequest(id string) (domain.Request, error) {
	c.expireOnRead()
	return c.store.Get(id)
}

func (c *Controller) ListRequests(f store.Filter) []domain.Request {
	c.expireOnRead()
	return c.store.List(f)
}

func (c *Controller) ActiveRequests() []domain.Request {
	c.expireOnRead()
	return c.store.Active()
}

// expireOnRead keeps read paths from returning overdue requests as
// active. Failures are logged; the read still proceeds.
func (c *Controller) expireOnRead() {
	_, _ = c.ExpireOverdue(c.now())
}
