package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dogmatiq/psikit/dispatch"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodySize is the largest request body that is read.
const maxBodySize = 64 << 20

// Handler exposes a [dispatch.Dispatcher] over HTTP.
type Handler struct {
	Dispatcher *dispatch.Dispatcher
}

// NewRouter returns an [http.Handler] that serves the API and a health check.
//
// Requests that take longer than timeout are canceled. A zero timeout disables
// the limit.
func NewRouter(d *dispatch.Dispatcher, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	h := &Handler{d}
	h.RegisterRoutes(r)

	return r
}

// RegisterRoutes registers the API routes with r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/v1/join", h.join)
	r.Post("/v1/get-result", h.getResult)
}

// JoinRequest is the body of a request to /v1/join.
type JoinRequest struct {
	SetID    string    `json:"set_id"`
	Elements *[]string `json:"elements"`
}

// JoinResponse is the body of a successful response from /v1/join.
type JoinResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// GetResultRequest is the body of a request to /v1/get-result.
type GetResultRequest struct {
	SetID string `json:"set_id"`
}

// GetResultResponse is the body of a successful response from
// /v1/get-result.
type GetResultResponse struct {
	Intersection []string `json:"intersection"`
}

// ErrorResponse is the body of an unsuccessful response.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if !decode(w, r, &req) {
		return
	}

	if req.Elements == nil {
		writeError(w, r, dispatch.MalformedRequestError{Reason: "elements must be present"})
		return
	}

	res, err := h.Dispatcher.Dispatch(
		r.Context(),
		dispatch.Request{
			SetID:     req.SetID,
			Operation: dispatch.Join{Elements: *req.Elements},
		},
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jr := res.(dispatch.JoinResponse)
	writeJSON(w, http.StatusOK, JoinResponse{jr.Accepted, jr.Reason})
}

func (h *Handler) getResult(w http.ResponseWriter, r *http.Request) {
	var req GetResultRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.Dispatcher.Dispatch(
		r.Context(),
		dispatch.Request{
			SetID:     req.SetID,
			Operation: dispatch.GetResult{},
		},
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	gr := res.(dispatch.GetResultResponse)
	writeJSON(w, http.StatusOK, GetResultResponse{gr.Intersection})
}

// decode reads a JSON request body into v. It writes an error response and
// returns false if the body is malformed.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, dispatch.MalformedRequestError{Reason: err.Error()})
		return false
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		writeError(w, r, dispatch.MalformedRequestError{Reason: "body must contain a single JSON value"})
		return false
	}

	return true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := http.StatusText(status)

	switch {
	case dispatch.IsMalformed(err):
		status = http.StatusBadRequest
		message = err.Error()
	case dispatch.IsNotFound(err):
		status = http.StatusNotFound
		message = err.Error()
	}

	writeJSON(w, status, ErrorResponse{
		Error:     message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
