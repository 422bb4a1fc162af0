package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/w-h-a/recall"
	"github.com/w-h-a/recall/renderer"
)

const maxUploadBytes = 1 << 20

type queryRequest struct {
	Query       string `json:"query"`
	SessionId   string `json:"session_id,omitempty"`
	Personality string `json:"personality_id,omitempty"`
	MaxResults  int    `json:"max_results,omitempty"`
}

// historyMessage is the caller-visible message shape. Storage ids and
// the embedding watermark stay internal.
type historyMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type historyResponse struct {
	SessionId string           `json:"session_id"`
	Messages  []historyMessage `json:"messages"`
}

type uploadResponse struct {
	Message       string `json:"message"`
	PersonalityId string `json:"personality_id"`
}

type healthResponse struct {
	Status              string `json:"status"`
	Timestamp           string `json:"timestamp"`
	ChainsInitialized   bool   `json:"chains_initialized"`
	PersonalitiesLoaded int    `json:"personalities_loaded"`
}

func (a *Api) handleQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decodeQuery(w, r)
	if !ok {
		return
	}

	result, err := a.orchestrator.Ask(r.Context(), recall.Request{
		Mode:          recall.ModeStateless,
		Query:         req.Query,
		PersonalityId: req.Personality,
		MaxResults:    req.MaxResults,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (a *Api) handleConversation(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decodeQuery(w, r)
	if !ok {
		return
	}

	result, err := a.orchestrator.Ask(r.Context(), recall.Request{
		Mode:            recall.ModeConversation,
		Query:           req.Query,
		SessionId:       req.SessionId,
		SessionSupplied: len(req.SessionId) > 0,
		PersonalityId:   req.Personality,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (a *Api) handleLongTermQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decodeQuery(w, r)
	if !ok {
		return
	}

	result, err := a.orchestrator.Ask(r.Context(), recall.Request{
		Mode:            recall.ModeLongTerm,
		Query:           req.Query,
		SessionId:       req.SessionId,
		SessionSupplied: len(req.SessionId) > 0,
		PersonalityId:   req.Personality,
		MaxResults:      req.MaxResults,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	body, contentType, err := renderer.Render(result, r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (a *Api) handleHybridMemory(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decodeQuery(w, r)
	if !ok {
		return
	}

	result, err := a.orchestrator.Ask(r.Context(), recall.Request{
		Mode:            recall.ModeHybrid,
		Query:           req.Query,
		SessionId:       req.SessionId,
		SessionSupplied: len(req.SessionId) > 0,
		PersonalityId:   req.Personality,
		MaxResults:      req.MaxResults,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (a *Api) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionId := mux.Vars(r)["session_id"]

	limit := 50
	if raw := r.URL.Query().Get("limit"); len(raw) > 0 {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeDetail(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	messages, err := a.orchestrator.History(r.Context(), sessionId, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]historyMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, historyMessage{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}

	writeJSON(w, http.StatusOK, historyResponse{
		SessionId: sessionId,
		Messages:  out,
	})
}

func (a *Api) handleListPersonalities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.registry.List())
}

func (a *Api) handleUploadPersonality(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeDetail(w, http.StatusBadRequest, "expected a multipart form upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "a file field is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	id, err := a.registry.Register(header.Filename, content, r.FormValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		Message:       fmt.Sprintf("personality %q registered", id),
		PersonalityId: id,
	})
}

func (a *Api) handlePersonalityPrompt(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	prompt, err := a.registry.ResolvePrompt(id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(prompt))
}

func (a *Api) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:              "healthy",
		Timestamp:           time.Now().UTC().Format(time.RFC3339),
		ChainsInitialized:   true,
		PersonalitiesLoaded: a.registry.Count(),
	})
}

func (a *Api) decodeQuery(w http.ResponseWriter, r *http.Request) (queryRequest, bool) {
	var req queryRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return queryRequest{}, false
	}

	// Query parameter wins over the body so callers can thread a
	// session through a URL.
	if sessionId := r.URL.Query().Get("session_id"); len(sessionId) > 0 {
		req.SessionId = sessionId
	}

	return req, true
}
