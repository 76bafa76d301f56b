package server

import (
	"github.com/hubenschmidt/ragserve/store"
)

// QueryRequest asks a question against the user's documents. DocumentIDs
// optionally narrows the search.
type QueryRequest struct {
	UserID      string   `json:"user_id"`
	Query       string   `json:"query"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}

// DocumentListResponse lists a user's documents.
type DocumentListResponse struct {
	Documents []store.DocumentRecord `json:"documents"`
}

// ChatListResponse lists a user's recent chats.
type ChatListResponse struct {
	Chats []store.ChatRecord `json:"chats"`
}

// FormatsResponse lists ingestable file types.
type FormatsResponse struct {
	Formats []string `json:"formats"`
}

// ErrorResponse carries a machine-readable error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
