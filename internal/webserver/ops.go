package webserver

import (
	"time"

	"github.com/Markcrest-dev/EcoSwap-sub000/internal/domain"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/events"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/matching"
)

// The methods below are the operations the API serves. They run the
// lifecycle controller and then tell subscribers what happened.

func (s *Server) CreateRequest(in domain.CreateRequestInput) (domain.Request, error) {
	req, err := s.lifecycle.CreateRequest(in)
	if err != nil {
		return domain.Request{}, err
	}
	s.broker.Publish(events.Event{Type: events.RequestCreated, RequestID: req.ID, RequesterID: req.RequesterID})
	return req, nil
}

func (s *Server) UpdateRequest(id string, patch domain.RequestPatch) (domain.Request, error) {
	req, err := s.lifecycle.UpdateRequest(id, patch)
	if err != nil {
		return domain.Request{}, err
	}
	s.broker.Publish(events.Event{Type: events.RequestUpdated, RequestID: req.ID, RequesterID: req.RequesterID})
	return req, nil
}

func (s *Server) DeleteRequest(id string) error {
	if err := s.lifecycle.DeleteRequest(id); err != nil {
		return err
	}
	s.broker.Publish(events.Event{Type: events.RequestDeleted, RequestID: id})
	return nil
}

func (s *Server) OfferItem(requestID, itemID, offererID, message string) (domain.Offer, error) {
	offer, err := s.lifecycle.OfferItem(requestID, itemID, offererID, message)
	if err != nil {
		return domain.Offer{}, err
	}
	s.broker.Publish(events.Event{Type: events.OfferSubmitted, RequestID: requestID, OfferID: offer.ID, OffererID: offer.OffererID})
	return offer, nil
}

func (s *Server) AcceptOffer(requestID, offerID string) (domain.Request, error) {
	req, err := s.lifecycle.AcceptOffer(requestID, offerID)
	if err != nil {
		return domain.Request{}, err
	}

	// both parties learn that the exchange can go ahead
	ev := events.Event{Type: events.OfferAccepted, RequestID: requestID, OfferID: offerID, RequesterID: req.RequesterID}
	if o, ok := req.AcceptedOffer(); ok {
		ev.OffererID = o.OffererID
	}
	s.broker.Publish(ev)
	return req, nil
}

func (s *Server) DeclineOffer(requestID, offerID string) (domain.Request, error) {
	req, err := s.lifecycle.DeclineOffer(requestID, offerID)
	if err != nil {
		return domain.Request{}, err
	}

	ev := events.Event{Type: events.OfferDeclined, RequestID: requestID, OfferID: offerID, RequesterID: req.RequesterID}
	if i := req.FindOffer(offerID); i >= 0 {
		ev.OffererID = req.Offers[i].OffererID
	}
	s.broker.Publish(ev)
	return req, nil
}

// FindItemsForRequest ranks the whole catalog against one request.
func (s *Server) FindItemsForRequest(requestID string) ([]matching.ItemMatch, error) {
	req, err := s.lifecycle.GetRequest(requestID)
	if err != nil {
		return nil, err
	}
	items, err := s.catalog.List()
	if err != nil {
		return nil, err
	}
	return s.matcher.FindItemsForRequest(req, items), nil
}

// FindMatchesForUser ranks the active requests a user's items could fill.
func (s *Server) FindMatchesForUser(userID string, order matching.SortOrder) ([]matching.RequestMatch, error) {
	items, err := s.catalog.ByOwner(userID)
	if err != nil {
		return nil, err
	}
	return s.matcher.FindMatchesForUserItems(items, s.lifecycle.ActiveRequests(), order), nil
}

// Sweep expires overdue requests. The store's expiry hook announces them.
func (s *Server) Sweep(now time.Time) ([]string, error) {
	swept, err := s.lifecycle.ExpireOverdue(now)
	if swept == nil {
		swept = []string{}
	}
	return swept, err
}
