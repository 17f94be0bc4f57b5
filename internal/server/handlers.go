package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/koustreak/dbchat/internal/assistant"
	"github.com/koustreak/dbchat/internal/chat"
	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/errs"
	"github.com/koustreak/dbchat/internal/history"
)

const maxBodyBytes = 1 << 20

type queryRequest struct {
	Query string `json:"query"`
}

type askRequest struct {
	Prompt   string `json:"prompt"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
	// Execute runs the generated query; defaults to true.
	Execute *bool `json:"execute"`
}

type chatRequest struct {
	Messages []chat.Message `json:"messages"`
	Model    string         `json:"model"`
	Provider string         `json:"provider"`
}

type rowsResponse struct {
	Rows database.Grid `json:"rows"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleReady fails while the history backend is unreachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.History().Ping(r.Context()); err != nil {
		s.log.Warnf("readiness check failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) handleListConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := s.svc.Connections().List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	// Connection strings carry credentials; list names and engines only.
	out := make([]map[string]string, len(conns))
	for i, c := range conns {
		out[i] = map[string]string{"name": c.Name, "engine": string(c.Engine)}
	}
	writeJSON(w, http.StatusOK, map[string]any{"connections": out})
}

func (s *Server) handleAddConnection(w http.ResponseWriter, r *http.Request) {
	var conn database.Connection
	if !decode(w, r, &conn) {
		return
	}
	if err := s.svc.Connections().Add(r.Context(), conn); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"name": conn.Name})
}

func (s *Server) handleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Connections().Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) connection(w http.ResponseWriter, r *http.Request) (database.Connection, bool) {
	conn, err := s.svc.Connection(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return database.Connection{}, false
	}
	return conn, true
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.connection(w, r)
	if !ok {
		return
	}
	sch, err := s.svc.GenerateSchema(r.Context(), conn)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sch)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.connection(w, r)
	if !ok {
		return
	}
	var req queryRequest
	if !decode(w, r, &req) {
		return
	}
	grid, err := s.svc.GetDataTable(r.Context(), conn, req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: grid})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.connection(w, r)
	if !ok {
		return
	}
	var req askRequest
	if !decode(w, r, &req) {
		return
	}

	if req.Execute != nil && !*req.Execute {
		sch, err := s.svc.GenerateSchema(r.Context(), conn)
		if err != nil {
			writeError(w, err)
			return
		}
		q, err := s.svc.GetAISQLQuery(r.Context(), req.Model, req.Provider, req.Prompt, sch, s.svc.Dialect(conn.Engine))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
		return
	}

	res, err := s.svc.Run(r.Context(), conn, req.Model, req.Provider, req.Prompt)
	if err != nil {
		body := errorBody(err)
		if res != nil {
			// The model answered but the query failed; show what ran.
			body["summary"] = res.Summary
			body["query"] = res.Query
		}
		writeJSON(w, statusFor(err), body)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.connection(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, errs.Newf(errs.ErrKindInvalidInput, "invalid limit %q", raw))
			return
		}
		limit = n
	}
	grid, err := s.svc.PreviewTable(r.Context(), conn, chi.URLParam(r, "table"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: grid})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	msg, err := s.svc.ChatPrompt(r.Context(), req.Messages, req.Model, req.Provider)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg})
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	t := history.TypeHistory
	if raw := r.URL.Query().Get("type"); raw != "" {
		parsed, err := history.ParseType(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		t = parsed
	}
	items, err := s.svc.History().List(r.Context(), r.URL.Query().Get("connection"), t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleSaveHistory(w http.ResponseWriter, r *http.Request) {
	var item history.Item
	if !decode(w, r, &item) {
		return
	}
	saved, err := s.svc.History().Save(r.Context(), item)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.History().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, errs.Wrap(errs.ErrKindInvalidInput, "invalid request body", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindInvalidInput, errs.ErrKindUnsupported:
		return http.StatusBadRequest
	case errs.ErrKindPermissionDenied:
		return http.StatusForbidden
	case errs.ErrKindQueryFailed:
		return http.StatusUnprocessableEntity
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrKindConnectionFailed, errs.ErrKindProviderFailed, errs.ErrKindContractViolation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody(err))
}

func errorBody(err error) map[string]any {
	body := map[string]any{
		"error":   errs.KindOf(err).String(),
		"message": err.Error(),
	}
	var e *errs.Error
	if errors.As(err, &e) {
		body["message"] = e.Message
		if e.Cause != nil {
			body["detail"] = e.Cause.Error()
		}
	}
	if raw, ok := assistant.RawResponse(err); ok {
		body["raw"] = raw
	}
	return body
}
