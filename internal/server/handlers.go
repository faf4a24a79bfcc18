package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fleet-import/internal/ingest"
	"github.com/sells-group/fleet-import/internal/parser"
	"github.com/sells-group/fleet-import/internal/report"
)

var (
	errNoFile          = eris.New("server: missing file field")
	errBadClient       = eris.New("server: invalid client_id")
	errSessionNotFound = eris.New("server: session not found")
	errBadUpload       = eris.New("server: unreadable upload")
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) previewTrips(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(r, s.maxUploadBytes())
	if err != nil {
		writeError(w, r, err)
		return
	}
	clientID, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("client_id")), 10, 64)
	if err != nil {
		writeError(w, r, eris.Wrapf(errBadClient, "%q", r.FormValue("client_id")))
		return
	}
	sess, err := s.orch.PreviewTrips(r.Context(), data, r.FormValue("format"), clientID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.sessions.Set(sess.ID, sess, cache.DefaultExpiration)
	writeJSON(w, http.StatusCreated, sess.View())
}

func (s *Server) previewExpenses(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(r, s.maxUploadBytes())
	if err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := s.orch.PreviewExpenses(r.Context(), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.sessions.Set(sess.ID, sess, cache.DefaultExpiration)
	writeJSON(w, http.StatusCreated, sess.View())
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, errSessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) confirm(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, errSessionNotFound)
		return
	}
	summary, err := sess.Confirm(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) discard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.session(id)
	if !ok {
		writeError(w, r, errSessionNotFound)
		return
	}
	if err := sess.Discard(); err != nil {
		writeError(w, r, err)
		return
	}
	s.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, errSessionNotFound)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, sess.View()); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "import-"+sess.ID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// readUpload returns the bytes of the multipart "file" field.
func readUpload(r *http.Request, limit int64) ([]byte, error) {
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, err
		}
		return nil, eris.Wrapf(errBadUpload, "%v", err)
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, errNoFile
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, eris.Wrap(err, "server: read upload")
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	body.RequestID = chimw.GetReqID(r.Context())
	if status >= http.StatusInternalServerError {
		zap.L().Error("server: request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSON(w, status, map[string]errorBody{"error": body})
}

// classify maps an error to an HTTP status and a response body.
func classify(err error) (int, errorBody) {
	var (
		commit *ingest.CommitError
		tooBig *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge, errorBody{Code: "upload_too_large", Message: fmt.Sprintf("upload exceeds %d bytes", tooBig.Limit)}
	case errors.As(err, &commit):
		return http.StatusBadGateway, errorBody{
			Code:    "commit_failed",
			Message: commit.Error(),
			Details: map[string]int{"committed": commit.Committed, "remaining": commit.Remaining},
		}
	case eris.Is(err, errSessionNotFound):
		return http.StatusNotFound, errorBody{Code: "not_found", Message: "session not found"}
	case eris.Is(err, errNoFile), eris.Is(err, errBadClient), eris.Is(err, errBadUpload):
		return http.StatusBadRequest, errorBody{Code: "bad_request", Message: err.Error()}
	case parser.IsInputError(err):
		return http.StatusUnprocessableEntity, errorBody{Code: "invalid_file", Message: err.Error()}
	case eris.Is(err, ingest.ErrUnknownClient):
		return http.StatusUnprocessableEntity, errorBody{Code: "unknown_client", Message: err.Error()}
	case eris.Is(err, ingest.ErrAlreadyImported):
		return http.StatusConflict, errorBody{Code: "already_imported", Message: err.Error()}
	case eris.Is(err, ingest.ErrSessionBusy):
		return http.StatusConflict, errorBody{Code: "session_busy", Message: err.Error()}
	case eris.Is(err, ingest.ErrInvalidState):
		return http.StatusConflict, errorBody{Code: "invalid_state", Message: err.Error()}
	}
	return http.StatusInternalServerError, errorBody{Code: "internal", Message: "internal error"}
}
