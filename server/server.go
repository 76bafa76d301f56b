// Package server exposes the retrieval pipeline over HTTP.
package server

import (
	"net/http"

	"github.com/hubenschmidt/ragserve/rag"
)

// Server is the HTTP front end for a rag.Service.
type Server struct {
	svc *rag.Service
}

func New(svc *rag.Service) *Server {
	return &Server{svc: svc}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /formats", s.handleFormats)

	mux.HandleFunc("POST /documents", s.handleDocumentUpload)
	mux.HandleFunc("GET /documents", s.handleDocumentList)
	mux.HandleFunc("DELETE /documents/{id}", s.handleDocumentDelete)

	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /chats", s.handleChatHistory)

	mux.HandleFunc("GET /usage", s.handleUsage)
	mux.HandleFunc("GET /vectors/stats", s.handleVectorStats)

	mux.HandleFunc("DELETE /users/{id}", s.handleUserDelete)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
