package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fpbviz/fpbviz/pkg/errors"
	"github.com/fpbviz/fpbviz/pkg/export"
	"github.com/fpbviz/fpbviz/pkg/fpb"
	"github.com/fpbviz/fpbviz/pkg/layout"
	"github.com/fpbviz/fpbviz/pkg/pipeline"
	"github.com/fpbviz/fpbviz/pkg/session"
	"github.com/fpbviz/fpbviz/pkg/store"
)

// layoutRequest is the body of POST /api/layout and the session
// endpoints: a model plus optional spacing overrides.
type layoutRequest struct {
	Model  *fpb.ProcessModel `json:"model"`
	Config *layout.Config    `json:"config,omitempty"`
}

func (req *layoutRequest) pipelineOptions() pipeline.Options {
	opts := pipeline.Options{Model: req.Model}
	if req.Config != nil {
		opts.Config = *req.Config
	}
	return opts
}

// handleHealth answers liveness probes.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLayout computes a diagram for the posted model.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}
	if req.Model == nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "request body needs a model"))
		return
	}

	result, err := s.runner.Execute(r.Context(), req.pipelineOptions())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result.Diagram)
}

// exportContentTypes maps formats to response content types.
var exportContentTypes = map[string]string{
	export.FormatJSON: "application/json",
	export.FormatDOT:  "text/vnd.graphviz",
	export.FormatSVG:  "image/svg+xml",
}

// handleExport computes a diagram and streams it in the requested
// format.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")

	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}
	if req.Model == nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "request body needs a model"))
		return
	}

	opts := req.pipelineOptions()
	opts.Formats = []string{format}
	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", exportContentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// handleSessionCreate opens a new editing session around the posted
// model and returns the session ID plus the initial diagram.
func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "session store not configured"))
		return
	}

	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}
	if req.Model == nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "request body needs a model"))
		return
	}

	opts := req.pipelineOptions()
	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sess := session.New(req.Model, opts.Config, session.DefaultTTL)
	if sess.Config == (layout.Config{}) {
		sess.Config = layout.DefaultConfig()
	}
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"id":      sess.ID,
		"diagram": result.Diagram,
	})
}

// handleSessionGet recomputes and returns the session's diagram.
func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	result, err := s.runner.Execute(r.Context(), pipeline.Options{Model: sess.Model, Config: sess.Config})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result.Diagram)
}

// handleSessionUpdate replaces the session's model and returns the
// recomputed diagram.
func (s *Server) handleSessionUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}
	if req.Model == nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "request body needs a model"))
		return
	}

	sess.Model = req.Model
	if req.Config != nil {
		sess.Config = *req.Config
	}
	sess.Touch(session.DefaultTTL)
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), pipeline.Options{Model: sess.Model, Config: sess.Config})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result.Diagram)
}

// handleSessionDelete abandons a session.
func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "session store not configured"))
		return
	}
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	if s.sessions == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "session store not configured"))
		return nil, false
	}

	id := chi.URLParam(r, "id")
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	if sess == nil {
		s.writeError(w, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id))
		return nil, false
	}
	return sess, true
}

// handleDocumentList lists saved documents.
func (s *Server) handleDocumentList(w http.ResponseWriter, r *http.Request) {
	if s.docs == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "document store not configured"))
		return
	}
	list, err := s.docs.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

// handleDocumentGet returns one saved document.
func (s *Server) handleDocumentGet(w http.ResponseWriter, r *http.Request) {
	if s.docs == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "document store not configured"))
		return
	}
	doc, err := s.docs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

// handleDocumentPut creates or replaces a saved document.
func (s *Server) handleDocumentPut(w http.ResponseWriter, r *http.Request) {
	if s.docs == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "document store not configured"))
		return
	}

	var doc store.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}
	doc.ID = chi.URLParam(r, "id")
	if doc.Model == nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "document needs a model"))
		return
	}

	if err := s.docs.Put(r.Context(), &doc); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

// handleDocumentDelete removes a saved document.
func (s *Server) handleDocumentDelete(w http.ResponseWriter, r *http.Request) {
	if s.docs == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "document store not configured"))
		return
	}
	if err := s.docs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)

	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidModel,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidConfig,
		errors.ErrCodeInvalidPath:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeModelNotFound,
		errors.ErrCodeFileNotFound, errors.ErrCodeSessionNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeUnsupported:
		status = http.StatusServiceUnavailable
	case errors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}

	var resp errorResponse
	if code == "" {
		code = errors.ErrCodeInternal
	}
	resp.Error.Code = string(code)
	resp.Error.Message = errors.UserMessage(err)
	s.writeJSON(w, status, resp)
}
