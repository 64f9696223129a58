package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Markcrest-dev/EcoSwap-sub000/internal/domain"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/events"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/lifecycle"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/matching"
	"github.com/Markcrest-dev/EcoSwap-sub000/internal/store"
)

const healthMagic = "ecoswap-ok"

// ItemCatalog supplies the items matched against requests.
type ItemCatalog interface {
	Put(item domain.Item) error
	Get(id string) (domain.Item, error)
	List() ([]domain.Item, error)
	ByOwner(ownerID string) ([]domain.Item, error)
}

type Server struct {
	port       int
	sourceName string

	lifecycle *lifecycle.Controller
	matcher   *matching.Service
	catalog   ItemCatalog
	broker    *events.Broker
	log       *slog.Logger

	bindOnce sync.Once
	bindErr  error
	// primary is true when this process owns the port.
	primary bool
	ln      net.Listener
	httpSrv *http.Server
}

type Options struct {
	Port       int
	SourceName string
	Lifecycle  *lifecycle.Controller
	Matcher    *matching.Service
	Catalog    ItemCatalog
	Broker     *events.Broker
	Log        *slog.Logger
}

func New(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	broker := opts.Broker
	if broker == nil {
		broker = events.NewBroker()
	}
	return &Server{
		port:       opts.Port,
		sourceName: opts.SourceName,
		lifecycle:  opts.Lifecycle,
		matcher:    opts.Matcher,
		catalog:    opts.Catalog,
		broker:     broker,
		log:        log.With("component", "webserver"),
	}
}

func (s *Server) BaseURL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// Bind tries to take the port. If the port is already held by another
// ecoswap process it leaves the server non-primary and returns nil so the
// caller can fall back to the remote client.
func (s *Server) Bind() error {
	s.bindOnce.Do(func() {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
		if err != nil {
			if isEcoswapServer(s.BaseURL()) {
				s.log.Info("api already served by another process", "base_url", s.BaseURL())
				return
			}
			s.bindErr = fmt.Errorf("port %d in use by unknown process: %w", s.port, err)
			return
		}
		s.primary = true
		s.ln = ln
	})
	return s.bindErr
}

// Attach supplies the engine once Bind has made this process primary.
func (s *Server) Attach(lc *lifecycle.Controller, m *matching.Service, c ItemCatalog) {
	s.lifecycle = lc
	s.matcher = m
	s.catalog = c
}

// Serve starts answering on the bound port. It is a no-op when another
// process owns the port.
func (s *Server) Serve() {
	if !s.primary || s.httpSrv != nil {
		return
	}
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("serving api", "port", s.port)

	go func() {
		if err := s.httpSrv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped", "error", err)
		}
	}()
}

func (s *Server) IsPrimary() bool {
	return s.primary
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/requests", s.handleListRequests)
	mux.HandleFunc("POST /api/requests", s.handleCreateRequest)
	mux.HandleFunc("GET /api/requests/{id}", s.handleGetRequest)
	mux.HandleFunc("PATCH /api/requests/{id}", s.handleUpdateRequest)
	mux.HandleFunc("DELETE /api/requests/{id}", s.handleDeleteRequest)
	mux.HandleFunc("POST /api/requests/{id}/offers", s.handleSubmitOffer)
	mux.HandleFunc("POST /api/requests/{id}/offers/{offerID}/accept", s.handleAcceptOffer)
	mux.HandleFunc("POST /api/requests/{id}/offers/{offerID}/decline", s.handleDeclineOffer)
	mux.HandleFunc("GET /api/requests/{id}/matches", s.handleRequestMatches)
	mux.HandleFunc("GET /api/users/{id}/matches", s.handleUserMatches)
	mux.HandleFunc("GET /api/items", s.handleListItems)
	mux.HandleFunc("POST /api/items", s.handlePutItem)
	mux.HandleFunc("POST /api/sweep", s.handleSweep)
	mux.HandleFunc("GET /api/events", s.handleSSE)
	mux.HandleFunc("OPTIONS /api/", handleCORS)

	return corsMiddleware(mux)
}

// isEcoswapServer checks whether the process on baseURL is an ecoswap server.
func isEcoswapServer(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false
	}
	return body.Status == healthMagic
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

func handleCORS(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": healthMagic, "source_name": s.sourceName})
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.Filter{
		Status:      domain.RequestStatus(q.Get("status")),
		Category:    domain.Category(q.Get("category")),
		RequesterID: q.Get("requester_id"),
	}
	if f.Status != "" && !f.Status.IsValid() {
		s.writeError(w, domain.NewValidationError("status", "is not one of active, fulfilled, expired"))
		return
	}
	if f.Category != "" && !f.Category.IsValid() {
		s.writeError(w, domain.NewValidationError("category", "is unknown"))
		return
	}

	requests := s.lifecycle.ListRequests(f)
	if requests == nil {
		requests = []domain.Request{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.lifecycle.GetRequest(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var body domain.CreateRequestInput
	if !decodeBody(w, r, &body) {
		return
	}

	req, err := s.CreateRequest(body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) handleUpdateRequest(w http.ResponseWriter, r *http.Request) {
	var body domain.RequestPatch
	if !decodeBody(w, r, &body) {
		return
	}

	req, err := s.UpdateRequest(r.PathValue("id"), body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	if err := s.DeleteRequest(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmitOffer(w http.ResponseWriter, r *http.Request) {
	var body domain.OfferInput
	if !decodeBody(w, r, &body) {
		return
	}

	offer, err := s.OfferItem(r.PathValue("id"), body.ItemID, body.OffererID, body.Message)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, offer)
}

func (s *Server) handleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	req, err := s.AcceptOffer(r.PathValue("id"), r.PathValue("offerID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleDeclineOffer(w http.ResponseWriter, r *http.Request) {
	req, err := s.DeclineOffer(r.PathValue("id"), r.PathValue("offerID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleRequestMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.FindItemsForRequest(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) handleUserMatches(w http.ResponseWriter, r *http.Request) {
	order, err := matching.ParseSortOrder(r.URL.Query().Get("sort"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	matches, err := s.FindMatchesForUser(r.PathValue("id"), order)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	var (
		items []domain.Item
		err   error
	)
	if owner := r.URL.Query().Get("owner_id"); owner != "" {
		items, err = s.catalog.ByOwner(owner)
	} else {
		items, err = s.catalog.List()
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handlePutItem(w http.ResponseWriter, r *http.Request) {
	var body domain.Item
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.catalog.Put(body); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, body)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	swept, err := s.Sweep(time.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"expired": swept})
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.broker.Subscribe()
	defer s.broker.Unsubscribe(ch)

	// Send initial keepalive
	fmt.Fprintf(w, ": keepalive\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: request-event\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
