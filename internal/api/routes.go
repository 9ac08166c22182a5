package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(s.profileMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/profiles", s.handleListProfiles)
		r.Post("/profiles", s.handleCreateProfile)
		r.Post("/profiles/{id}/select", s.handleSelectProfile)
		r.Delete("/profiles/{id}", s.handleDeleteProfile)

		r.Get("/decks", s.handleListDecks)
		r.Post("/decks", s.handleCreateDeck)
		r.Get("/decks/{id}", s.handleGetDeck)
		r.Delete("/decks/{id}", s.handleDeleteDeck)

		r.Get("/decks/{id}/cards", s.handleListCards)
		r.Post("/decks/{id}/cards", s.handleCreateCards)
		r.Get("/cards/{id}", s.handleGetCard)
		r.Post("/cards", s.handleCreateCard)

		r.Get("/decks/{id}/study/stats", s.handleStudyStats)
		r.Get("/decks/{id}/study/batch", s.handleStudyBatch)
		r.Post("/cards/{id}/review", s.handleReviewCard)
		r.Post("/cards/{id}/suspend", s.handleSuspendCard)

		r.Get("/decks/{id}/exams", s.handleListExams)
		r.Post("/decks/{id}/exams", s.handleCreateExam)
		r.Post("/exams/{id}/sessions", s.handleStartSession)
		r.Get("/sessions/{sessionID}", s.handleGetSession)
		r.Post("/sessions/{sessionID}/answers", s.handleSubmitAnswer)
		r.Post("/sessions/{sessionID}/complete", s.handleCompleteSession)
		r.Post("/sessions/{sessionID}/tab-switch", s.handleTabSwitch)
		r.Post("/sessions/{sessionID}/heartbeat", s.handleHeartbeat)

		r.Post("/decks/{id}/scan", s.handleStartScan)
		r.Post("/decks/{id}/scan/pause", s.handlePauseScan)
		r.Post("/decks/{id}/scan/resume", s.handleResumeScan)
		r.Post("/decks/{id}/scan/stop", s.handleStopScan)
		r.Post("/decks/{id}/scan/reset", s.handleResetScan)
		r.Get("/decks/{id}/scan/status", s.handleScanStatus)
		r.Get("/decks/{id}/scan/report", s.handleScanReport)
	})

	return r
}
