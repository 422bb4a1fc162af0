// Package api exposes the memory orchestrator over REST.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/w-h-a/recall"
	"github.com/w-h-a/recall/personality"
)

type Api struct {
	orchestrator *recall.Orchestrator
	registry     *personality.Registry
}

// Handler builds the router. Paths and payload shapes are stable; add
// new surface under new paths rather than changing these.
func (a *Api) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/query", a.handleQuery).Methods(http.MethodPost)
	router.HandleFunc("/conversation", a.handleConversation).Methods(http.MethodPost)
	router.HandleFunc("/long_term_query", a.handleLongTermQuery).Methods(http.MethodPost)
	router.HandleFunc("/hybrid_memory", a.handleHybridMemory).Methods(http.MethodPost)

	router.HandleFunc("/sessions/{session_id}/history", a.handleHistory).Methods(http.MethodGet)

	router.HandleFunc("/personalities", a.handleListPersonalities).Methods(http.MethodGet)
	router.HandleFunc("/personalities/upload", a.handleUploadPersonality).Methods(http.MethodPost)
	router.HandleFunc("/personalities/{id}/prompt", a.handlePersonalityPrompt).Methods(http.MethodGet)

	router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)

	return router
}

func New(orchestrator *recall.Orchestrator, registry *personality.Registry) *Api {
	if orchestrator == nil {
		panic("an orchestrator is required")
	}

	if registry == nil {
		panic("a personality registry is required")
	}

	return &Api{
		orchestrator: orchestrator,
		registry:     registry,
	}
}
