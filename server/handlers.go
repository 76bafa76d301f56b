package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/hubenschmidt/ragserve/core"
)

const maxMultipartMemory = 32 << 20

// multipartOverhead allows for boundaries, part headers, and form fields
// beyond the file itself when capping the request body.
const multipartOverhead = 1 << 10

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	formats := s.svc.SupportedFormats()
	sort.Strings(formats)
	writeJSON(w, http.StatusOK, FormatsResponse{Formats: formats})
}

func (s *Server) handleDocumentUpload(w http.ResponseWriter, r *http.Request) {
	// Cap the body before buffering so oversized uploads are rejected
	// while streaming, not after a full read.
	r.Body = http.MaxBytesReader(w, r.Body, s.svc.MaxUploadBytes()+multipartOverhead)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, core.ErrFileTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	userID := r.FormValue("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, errors.New("user_id is required"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.svc.IngestDocument(r.Context(), userID, header.Filename, data)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleDocumentList(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, errors.New("user_id is required"))
		return
	}

	docs, err := s.svc.Documents(r.Context(), userID)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: docs})
}

func (s *Server) handleDocumentDelete(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, errors.New("user_id is required"))
		return
	}

	if err := s.svc.DeleteDocument(r.Context(), userID, r.PathValue("id")); err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.UserID == "" || req.Query == "" {
		writeError(w, http.StatusBadRequest, errors.New("user_id and query are required"))
		return
	}

	result, err := s.svc.Query(r.Context(), req.UserID, req.Query, req.DocumentIDs)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, errors.New("user_id is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	chats, err := s.svc.ChatHistory(r.Context(), userID, limit)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ChatListResponse{Chats: chats})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.UsageSummary())
}

func (s *Server) handleVectorStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.VectorStats(r.Context())
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteUserData(r.Context(), r.PathValue("id")); err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// writePipelineError maps pipeline sentinels to HTTP status codes.
func writePipelineError(w http.ResponseWriter, err error) {
	var pe *core.ProviderError
	switch {
	case errors.Is(err, core.ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, err)
	case errors.Is(err, core.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err)
	case errors.Is(err, core.ErrEmptyDocument), errors.Is(err, core.ErrExtraction), errors.Is(err, core.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, core.ErrAccessDenied):
		writeError(w, http.StatusForbidden, err)
	case errors.As(err, &pe):
		writeError(w, http.StatusBadGateway, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
