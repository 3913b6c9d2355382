package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/seenimoa/financeflow/internal/feed"
	"github.com/seenimoa/financeflow/internal/logging"
)

// User-facing error messages.
const (
	msgNoDatabase        = "Database connection not available."
	msgNoDatabaseContext = "Database connection not available for context."
	msgBriefNotFound     = "No daily brief is available yet."
	msgBriefFailed       = "Could not load the daily brief."
	msgFeedFailed        = "Could not load feed from database."
	msgBadPagination     = "Invalid pagination parameters."
	msgNoQuestion        = "No question provided."
	msgAskFailed         = "Could not process question."
)

// AskRequest is the body for POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Database: "unavailable", AI: "offline"}
	if s.feed != nil && s.feed.Available() {
		ctx, cancel := context.WithTimeout(r.Context(), s.opts.HealthTimeout)
		err := s.feed.Ping(ctx)
		cancel()
		if err == nil {
			resp.Database = "connected"
		} else {
			logging.From(r.Context()).Warn("store ping failed", "error", err)
		}
	}
	if s.answerer != nil && s.answerer.Online() {
		resp.AI = "online"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDailyBrief(w http.ResponseWriter, r *http.Request) {
	if s.feed == nil || !s.feed.Available() {
		writeError(w, http.StatusInternalServerError, msgNoDatabase)
		return
	}

	brief, err := s.feed.LatestBrief(r.Context())
	switch {
	case errors.Is(err, feed.ErrNoBrief):
		writeError(w, http.StatusNotFound, msgBriefNotFound)
		return
	case err != nil:
		logging.From(r.Context()).Error("load daily brief", "error", err)
		writeError(w, http.StatusInternalServerError, msgBriefFailed)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Status: StatusSuccess, Data: brief})
}

func (s *Server) handleMainFeed(w http.ResponseWriter, r *http.Request) {
	if s.feed == nil || !s.feed.Available() {
		writeError(w, http.StatusInternalServerError, msgNoDatabase)
		return
	}

	page, ok := positiveParam(r, "page", 1)
	if !ok {
		writeError(w, http.StatusBadRequest, msgBadPagination)
		return
	}
	limit, ok := positiveParam(r, "limit", s.opts.DefaultPageSize)
	if !ok {
		writeError(w, http.StatusBadRequest, msgBadPagination)
		return
	}

	resp, err := s.feed.GetFeed(r.Context(), page, limit)
	if err != nil {
		logging.From(r.Context()).Error("load main feed", "page", page, "limit", limit, "error", err)
		writeError(w, http.StatusInternalServerError, msgFeedFailed)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Status: StatusSuccess, Data: resp})
}

// positiveParam reads an integer query parameter. A missing value yields def;
// a non-integer or a value below 1 is rejected.
func positiveParam(r *http.Request, name string, def int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgNoQuestion)
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, msgNoQuestion)
		return
	}

	if s.feed == nil || !s.feed.Available() {
		writeError(w, http.StatusInternalServerError, msgNoDatabaseContext)
		return
	}

	docs, err := s.feed.RecentNews(r.Context())
	if err != nil {
		logging.From(r.Context()).Error("load question context", "error", err)
		writeError(w, http.StatusInternalServerError, msgAskFailed)
		return
	}

	answer := s.answerer.Answer(r.Context(), question, docs)
	writeJSON(w, http.StatusOK, AskResponse{Status: StatusSuccess, Answer: answer})
}
