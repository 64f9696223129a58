package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Markcrest-dev/EcoSwap-sub000/internal/domain"
	"github.com/google/uuid"
)

// entry holds one request. cur always points at an immutable published
// version; writers build the next version on a copy under mu, persist it,
// then swap the pointer. Readers never take mu.
type entry struct {
	mu      sync.Mutex
	cur     atomic.Pointer[domain.Request]
	deleted bool
}

// Store owns the request collection and enforces the request and offer
// state machines.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry

	persist Persister
	now     func() time.Time
	newID   func() string
	ttl     time.Duration

	// onExpire runs with the request's lock held and must not block.
	onExpire func(domain.Request)
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithExpiryHook registers fn to receive every request the store moves to
// expired, whether by a sweep or by a mutation that found it overdue.
func WithExpiryHook(fn func(domain.Request)) Option {
	return func(s *Store) { s.onExpire = fn }
}

// New loads every request from p and returns a ready store. Records that
// break the state machine invariants are rejected.
func New(p Persister, opts ...Option) (*Store, error) {
	s := &Store{
		entries: make(map[string]*entry),
		persist: p,
		now:     time.Now,
		newID:   uuid.NewString,
		ttl:     domain.DefaultRequestTTL,
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, err := p.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load requests: %w", err)
	}
	for _, r := range loaded {
		if err := checkLoaded(r); err != nil {
			return nil, fmt.Errorf("stored request %s is invalid: %w", r.ID, err)
		}
		if _, dup := s.entries[r.ID]; dup {
			return nil, fmt.Errorf("stored request %s appears twice", r.ID)
		}
		e := &entry{}
		r = r.Clone()
		e.cur.Store(&r)
		s.entries[r.ID] = e
	}
	return s, nil
}

func checkLoaded(r domain.Request) error {
	if r.ID == "" {
		return errors.New("missing id")
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if !r.Status.IsValid() {
		return fmt.Errorf("unknown status %q", r.Status)
	}
	accepted := 0
	for _, o := range r.Offers {
		if !o.Status.IsValid() {
			return fmt.Errorf("offer %s has unknown status %q", o.ID, o.Status)
		}
		if o.Status == domain.OfferAccepted {
			accepted++
		}
	}
	if accepted > 1 {
		return fmt.Errorf("%d accepted offers", accepted)
	}
	if accepted == 1 && r.Status != domain.RequestFulfilled {
		return fmt.Errorf("accepted offer on %s request", r.Status)
	}
	return nil
}

// Create validates input and stores a new active request.
func (s *Store) Create(in domain.CreateRequestInput) (domain.Request, error) {
	now := s.now()
	req := domain.Request{
		ID:          s.newID(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Urgency:     in.Urgency,
		Condition:   in.Condition,
		Location:    strings.TrimSpace(in.Location),
		Tags:        domain.NormalizeTags(in.Tags),
		RequesterID: strings.TrimSpace(in.RequesterID),
		Status:      domain.RequestActive,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
		Offers:      []domain.Offer{},
	}
	if req.Urgency == "" {
		req.Urgency = domain.UrgencyMedium
	}
	if req.Condition == "" {
		req.Condition = domain.ConditionAny
	}
	if in.ExpiresAt != nil {
		req.ExpiresAt = *in.ExpiresAt
	}
	if err := req.Validate(); err != nil {
		return domain.Request{}, err
	}

	if err := s.persist.Save(req); err != nil {
		return domain.Request{}, fmt.Errorf("failed to save request: %w", err)
	}

	e := &entry{}
	e.cur.Store(&req)
	s.mu.Lock()
	s.entries[req.ID] = e
	s.mu.Unlock()

	return req.Clone(), nil
}

// Update applies patch to an active request. Status and offers cannot be
// changed this way.
func (s *Store) Update(id string, patch domain.RequestPatch) (domain.Request, error) {
	return s.mutate(id, func(r *domain.Request, _ time.Time) error {
		if r.Status != domain.RequestActive {
			return domain.NewInvalidStateError("update request", id, string(r.Status))
		}
		patch.Apply(r)
		return r.Validate()
	})
}

// Delete removes a request whatever its state. The map lock is taken
// only after the record is gone from persistence.
func (s *Store) Delete(id string) error {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return domain.NewNotFoundError("request", id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return domain.NewNotFoundError("request", id)
	}
	if err := s.persist.Delete(id); err != nil {
		return fmt.Errorf("failed to delete request %s: %w", id, err)
	}
	e.deleted = true

	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

// SubmitOffer appends a pending offer to an active request.
func (s *Store) SubmitOffer(requestID string, in domain.OfferInput) (domain.Offer, error) {
	var offer domain.Offer
	_, err := s.mutate(requestID, func(r *domain.Request, now time.Time) error {
		if r.Status != domain.RequestActive {
			return domain.NewInvalidStateError("submit offer to", requestID, string(r.Status))
		}
		offer = domain.Offer{
			ID:        s.newID(),
			ItemID:    in.ItemID,
			OffererID: in.OffererID,
			Message:   in.Message,
			Status:    domain.OfferPending,
			CreatedAt: now,
		}
		r.Offers = append(r.Offers, offer)
		return nil
	})
	if err != nil {
		return domain.Offer{}, err
	}
	return offer, nil
}

// AcceptOffer accepts one pending offer, declines every other pending
// offer and fulfills the request, all in one published version.
func (s *Store) AcceptOffer(requestID, offerID string) (domain.Request, error) {
	return s.mutate(requestID, func(r *domain.Request, now time.Time) error {
		if r.Status != domain.RequestActive {
			return domain.NewInvalidStateError("accept offer on", requestID, string(r.Status))
		}
		idx := r.FindOffer(offerID)
		if idx < 0 {
			return domain.NewNotFoundError("offer", offerID)
		}
		if r.Offers[idx].Status != domain.OfferPending {
			return domain.NewInvalidStateError("accept offer", offerID, string(r.Offers[idx].Status))
		}
		if _, ok := r.AcceptedOffer(); ok {
			return domain.NewInvalidStateError("accept offer on", requestID, "already accepted")
		}

		for i := range r.Offers {
			o := &r.Offers[i]
			switch {
			case i == idx:
				at := now
				o.Status = domain.OfferAccepted
				o.AcceptedAt = &at
			case o.Status == domain.OfferPending:
				at := now
				o.Status = domain.OfferDeclined
				o.DeclinedAt = &at
			}
		}
		r.Status = domain.RequestFulfilled
		return nil
	})
}

// DeclineOffer declines a single pending offer. The request stays active.
func (s *Store) DeclineOffer(requestID, offerID string) (domain.Request, error) {
	return s.mutate(requestID, func(r *domain.Request, now time.Time) error {
		idx := r.FindOffer(offerID)
		if idx < 0 {
			return domain.NewNotFoundError("offer", offerID)
		}
		if r.Status != domain.RequestActive {
			return domain.NewInvalidStateError("decline offer on", requestID, string(r.Status))
		}
		o := &r.Offers[idx]
		if o.Status != domain.OfferPending {
			return domain.NewInvalidStateError("decline offer", offerID, string(o.Status))
		}
		at := now
		o.Status = domain.OfferDeclined
		o.DeclinedAt = &at
		return nil
	})
}

// SweepExpired expires every active request whose expiry is at or before
// now and returns their ids. Calling it again with the same now is a no-op.
// Only overdue requests are locked, so a sweep never waits on a mutation
// of a request that is not due.
func (s *Store) SweepExpired(now time.Time) ([]string, error) {
	var swept []string
	var errs []error
	for _, e := range s.snapshotEntries() {
		if !e.cur.Load().IsOverdue(now) {
			continue
		}
		e.mu.Lock()
		cur := e.cur.Load()
		if !e.deleted && cur.IsOverdue(now) {
			if _, err := s.expireLocked(e, *cur); err != nil {
				errs = append(errs, err)
			} else {
				swept = append(swept, cur.ID)
			}
		}
		e.mu.Unlock()
	}
	sort.Strings(swept)
	return swept, errors.Join(errs...)
}

// Get returns a copy of the request.
func (s *Store) Get(id string) (domain.Request, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return domain.Request{}, domain.NewNotFoundError("request", id)
	}
	return e.cur.Load().Clone(), nil
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Status      domain.RequestStatus
	Category    domain.Category
	RequesterID string
}

func (f Filter) match(r *domain.Request) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.RequesterID != "" && r.RequesterID != f.RequesterID {
		return false
	}
	return true
}

// List returns copies of the matching requests, newest first.
func (s *Store) List(f Filter) []domain.Request {
	var out []domain.Request
	for _, e := range s.snapshotEntries() {
		cur := e.cur.Load()
		if f.match(cur) {
			out = append(out, cur.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Active returns every active request, newest first.
func (s *Store) Active() []domain.Request {
	return s.List(Filter{Status: domain.RequestActive})
}

func (s *Store) snapshotEntries() []*entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}

// mutate runs fn against a copy of the request under its lock and
// publishes the copy only once it is persisted. An overdue request is
// expired first so fn always sees the current state.
func (s *Store) mutate(id string, fn func(r *domain.Request, now time.Time) error) (domain.Request, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return domain.Request{}, domain.NewNotFoundError("request", id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return domain.Request{}, domain.NewNotFoundError("request", id)
	}

	now := s.now()
	cur := *e.cur.Load()
	if cur.IsOverdue(now) {
		expired, err := s.expireLocked(e, cur)
		if err != nil {
			return domain.Request{}, err
		}
		cur = expired
	}

	next := cur.Clone()
	if err := fn(&next, now); err != nil {
		return domain.Request{}, err
	}
	if err := s.persist.Save(next); err != nil {
		return domain.Request{}, fmt.Errorf("failed to save request %s: %w", id, err)
	}
	e.cur.Store(&next)
	return next.Clone(), nil
}

func (s *Store) expireLocked(e *entry, cur domain.Request) (domain.Request, error) {
	next := cur.Clone()
	next.Status = domain.RequestExpired
	if err := s.persist.Save(next); err != nil {
		return domain.Request{}, fmt.Errorf("failed to expire request %s: %w", cur.ID, err)
	}
	e.cur.Store(&next)
	if s.onExpire != nil {
		s.onExpire(next.Clone())
	}
	return next, nil
}
