// ABOUTME: HTTP handler methods for all editor endpoints
// ABOUTME: Covers session CRUD, text updates, patch operations, undo/redo, export, render and journal

package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/2389-research/pipeflow/flow/patch"
	"github.com/2389-research/pipeflow/render"
)

type textRequest struct {
	Text    string `json:"text"`
	Adapter string `json:"adapter,omitempty"`
}

type adapterRequest struct {
	Adapter string `json:"adapter"`
}

// handleCreateSession creates a new session from posted markup.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusUnprocessableEntity, "empty_text", "text is required")
		return
	}

	sess := s.store.Create(req.Text)
	if req.Adapter != "" {
		if err := sess.SelectAdapter(req.Adapter); err != nil {
			s.store.Delete(sess.ID)
			s.writeEngineError(w, err)
			return
		}
	}
	s.record(r.Context(), sess.ID, "create", "", nil)
	writeJSON(w, http.StatusCreated, sess.State())
}

// handleGetSession returns the session's current state.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

// handleDeleteSession drops a session.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.store.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "session_not_found", "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdateText replaces the session's markup.
func (s *Server) handleUpdateText(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req textRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	sess.UpdateText(req.Text)
	s.record(r.Context(), sess.ID, "text", "", nil)
	writeJSON(w, http.StatusOK, sess.State())
}

// handleApplyOperation decodes one operation envelope and applies it through
// the patch engine. Rejected operations leave the text untouched.
func (s *Server) handleApplyOperation(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	op, err := patch.DecodeOperation(body)
	if err != nil {
		operationsTotal.WithLabelValues("unknown", "invalid_operation").Inc()
		writeError(w, http.StatusBadRequest, "invalid_operation", err.Error())
		return
	}

	err = sess.Apply(op)
	s.record(r.Context(), sess.ID, op.Kind(), string(body), err)
	if err != nil {
		kind, _ := classify(err)
		operationsTotal.WithLabelValues(op.Kind(), kind).Inc()
		s.logger.Warn("operation rejected", "session", sess.ID, "op", op.Kind(), "error", err)
		s.writeEngineError(w, err)
		return
	}
	operationsTotal.WithLabelValues(op.Kind(), OutcomeApplied).Inc()
	writeJSON(w, http.StatusOK, sess.State())
}

// handleSelectAdapter switches the adapter a session edits.
func (s *Server) handleSelectAdapter(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req adapterRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := sess.SelectAdapter(req.Adapter); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

// handleUndo reverts the most recent change.
func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	err := sess.Undo()
	s.record(r.Context(), sess.ID, "undo", "", err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

// handleRedo reapplies the most recently undone change.
func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	err := sess.Redo()
	s.record(r.Context(), sess.ID, "redo", "", err)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

// handleExport returns the raw markup as a downloadable file, or the parsed
// structure as YAML with ?format=yaml.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	st := sess.State()

	if r.URL.Query().Get("format") == "yaml" {
		if st.Result == nil {
			s.writeStateError(w, st)
			return
		}
		out, err := render.ExportYAML(st.Result)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, sanitizeFilename(exportName(st), ".yaml")))
		w.WriteHeader(http.StatusOK)
		w.Write(out)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, sanitizeFilename(exportName(st), ".xml")))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(st.Text))
}

// handleRenderDOT returns the parsed flow as graphviz source.
func (s *Server) handleRenderDOT(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	st := sess.State()
	if st.Result == nil {
		s.writeStateError(w, st)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, render.ToDOT(st.Result))
}

// handleJournal lists journal entries for a session.
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if s.journal == nil {
		writeError(w, http.StatusNotFound, "journal_disabled", "journal is not enabled")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries, err := s.journal.List(r.Context(), sess.ID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	if entries == nil {
		entries = []JournalEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// session resolves the {id} URL parameter or writes a 404.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, ok := s.store.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session_not_found", "session not found")
		return nil, false
	}
	return sess, true
}

// record appends a journal entry when a journal is configured. Journal
// failures are logged and never fail the request.
func (s *Server) record(ctx context.Context, sessionID, kind, payload string, opErr error) {
	if s.journal == nil {
		return
	}
	outcome := OutcomeApplied
	if opErr != nil {
		outcome, _ = classify(opErr)
	}
	_, err := s.journal.Append(ctx, JournalEntry{
		SessionID: sessionID,
		Kind:      kind,
		Payload:   payload,
		Outcome:   outcome,
	})
	if err != nil {
		s.logger.Error("journal append failed", "session", sessionID, "kind", kind, "error", err)
	}
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", fmt.Sprintf("request body too large (max %d bytes)", s.maxBody))
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "bad_request", "failed to read body")
		return nil, false
	}
	return body, true
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body, ok := s.readBody(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid JSON: %v", err))
		return false
	}
	return true
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	kind, status := classify(err)
	writeError(w, status, kind, err.Error())
}

// writeStateError reports why a session has no parsed result.
func (s *Server) writeStateError(w http.ResponseWriter, st State) {
	if st.Error == nil {
		writeError(w, http.StatusConflict, "no_result", "session has no parsed result")
		return
	}
	writeJSON(w, http.StatusConflict, struct {
		Error *ErrorBody `json:"error"`
	}{st.Error})
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, struct {
		Error ErrorBody `json:"error"`
	}{ErrorBody{Kind: kind, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func exportName(st State) string {
	if st.Result != nil && st.Result.Adapter != "" {
		return st.Result.Adapter
	}
	return st.Adapter
}

// sanitizeFilename strips path separators, control characters and quotes and
// appends ext. An empty result falls back to "flow".
func sanitizeFilename(name, ext string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '/' || r == '\\' || r == '"' || r == '\'' || r < 32 || r == 127 {
			continue
		}
		b.WriteRune(r)
	}

	sanitized := strings.TrimSpace(b.String())
	if sanitized == "" {
		sanitized = "flow"
	}
	return sanitized + ext
}
