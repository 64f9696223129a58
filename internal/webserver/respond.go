package webserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Markcrest-dev/EcoSwap-sub000/internal/domain"
)

const (
	kindValidation   = "validation"
	kindNotFound     = "not_found"
	kindInvalidState = "invalid_state"
	kindInternal     = "internal"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the engine's error kinds onto HTTP statuses so clients
// know whether to fix input, refresh, or re-read state.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error()}
	status := http.StatusInternalServerError

	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		status, body.Kind, body.Field = http.StatusBadRequest, kindValidation, vErr.Field
	case domain.IsNotFound(err):
		status, body.Kind = http.StatusNotFound, kindNotFound
	case domain.IsInvalidState(err):
		status, body.Kind = http.StatusConflict, kindInvalidState
	default:
		body.Kind = kindInternal
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, body)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error(), Kind: kindValidation})
		return false
	}
	return true
}

// RemoteError is an API error response seen by Client. It matches the
// domain sentinels through errors.Is, so callers branch the same way for
// local and remote calls.
type RemoteError struct {
	Status  int
	Kind    string
	Field   string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

func (e *RemoteError) Is(target error) bool {
	switch e.Kind {
	case kindValidation:
		return target == domain.ErrValidation
	case kindNotFound:
		return target == domain.ErrNotFound
	case kindInvalidState:
		return target == domain.ErrInvalidState
	}
	return false
}
