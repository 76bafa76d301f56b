package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/hubenschmidt/ragserve/core"
)

// metadataTextLimit caps how much chunk text is carried in Pinecone
// metadata; the service enforces a 40KB metadata ceiling per vector.
const metadataTextLimit = 8000

// PineconeStore is a REST client for a Pinecone serverless index.
type PineconeStore struct {
	apiKey     string
	controlURL string
	indexHost  string
	indexName  string
	dimension  int
	cloud      string
	region     string
	client     *http.Client
}

// PineconeConfig configures the Pinecone store. IndexHost may be left empty
// to resolve (and create, if missing) the index through the control plane.
type PineconeConfig struct {
	APIKey     string
	IndexName  string
	IndexHost  string
	Dimension  int
	Cloud      string // default aws
	Region     string // default us-east-1
	ControlURL string // default https://api.pinecone.io
	Timeout    time.Duration
}

// NewPineconeStore connects to the configured index, creating it with
// cosine metric if it does not exist.
func NewPineconeStore(cfg PineconeConfig) (*PineconeStore, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone api key required: %w", core.ErrInvalidConfig)
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("pinecone dimension %d: %w", cfg.Dimension, core.ErrInvalidConfig)
	}
	if cfg.ControlURL == "" {
		cfg.ControlURL = "https://api.pinecone.io"
	}
	if cfg.Cloud == "" {
		cfg.Cloud = "aws"
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	s := &PineconeStore{
		apiKey:     cfg.APIKey,
		controlURL: cfg.ControlURL,
		indexHost:  cfg.IndexHost,
		indexName:  cfg.IndexName,
		dimension:  cfg.Dimension,
		cloud:      cfg.Cloud,
		region:     cfg.Region,
		client:     &http.Client{Timeout: timeout},
	}

	if s.indexHost == "" {
		if err := s.ensureIndex(); err != nil {
			return nil, fmt.Errorf("ensure index: %w", err)
		}
	}
	return s, nil
}

func (s *PineconeStore) ensureIndex() error {
	var described struct {
		Host      string `json:"host"`
		Dimension int    `json:"dimension"`
	}
	err := s.do(context.Background(), http.MethodGet,
		fmt.Sprintf("%s/indexes/%s", s.controlURL, s.indexName), nil, &described)
	if err == nil {
		if described.Dimension != s.dimension {
			return fmt.Errorf("index %s has dimension %d, configured %d: %w",
				s.indexName, described.Dimension, s.dimension, core.ErrDimensionMismatch)
		}
		s.indexHost = "https://" + described.Host
		return nil
	}

	createBody := map[string]any{
		"name":      s.indexName,
		"dimension": s.dimension,
		"metric":    "cosine",
		"spec": map[string]any{
			"serverless": map[string]any{"cloud": s.cloud, "region": s.region},
		},
	}
	var created struct {
		Host string `json:"host"`
	}
	if err := s.do(context.Background(), http.MethodPost, s.controlURL+"/indexes", createBody, &created); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.indexHost = "https://" + created.Host
	return nil
}

// Upsert writes entries in batches of UpsertBatchSize. A failure partway
// leaves prior batches committed and is reported via *BatchError.
func (s *PineconeStore) Upsert(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if len(e.Values) != s.dimension {
			return fmt.Errorf("entry %s has dimension %d, index expects %d: %w",
				e.ID, len(e.Values), s.dimension, core.ErrDimensionMismatch)
		}
	}

	for i := 0; i < len(entries); i += UpsertBatchSize {
		end := i + UpsertBatchSize
		if end > len(entries) {
			end = len(entries)
		}

		vectors := make([]map[string]any, 0, end-i)
		for _, e := range entries[i:end] {
			vectors = append(vectors, map[string]any{
				"id":       e.ID,
				"values":   e.Values,
				"metadata": pineconeMetadata(e.Metadata),
			})
		}

		body := map[string]any{"vectors": vectors}
		if err := s.do(ctx, http.MethodPost, s.indexHost+"/vectors/upsert", body, nil); err != nil {
			batch := i / UpsertBatchSize
			return &BatchError{Batch: batch, Committed: batch, Err: err}
		}
	}
	return nil
}

// Query runs a similarity search, optionally restricted by metadata filter.
func (s *PineconeStore) Query(ctx context.Context, embedding []float64, topK int, filter *Filter) ([]SearchResult, error) {
	body := map[string]any{
		"vector":          embedding,
		"topK":            topK,
		"includeMetadata": true,
	}
	if f := pineconeFilter(filter); f != nil {
		body["filter"] = f
	}

	var resp struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if err := s.do(ctx, http.MethodPost, s.indexHost+"/query", body, &resp); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	results := make([]SearchResult, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		results = append(results, SearchResult{
			ID:       m.ID,
			Score:    m.Score,
			Metadata: metadataFromPayload(m.Metadata),
		})
	}
	return results, nil
}

// Delete removes entries matching the filter.
func (s *PineconeStore) Delete(ctx context.Context, filter Filter) error {
	body := map[string]any{}
	if f := pineconeFilter(&filter); f != nil {
		body["filter"] = f
	} else {
		body["deleteAll"] = true
	}
	if err := s.do(ctx, http.MethodPost, s.indexHost+"/vectors/delete", body, nil); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Stats returns the index vector count and dimension.
func (s *PineconeStore) Stats(ctx context.Context) (Stats, error) {
	var resp struct {
		TotalVectorCount int `json:"totalVectorCount"`
		Dimension        int `json:"dimension"`
	}
	if err := s.do(ctx, http.MethodPost, s.indexHost+"/describe_index_stats", map[string]any{}, &resp); err != nil {
		return Stats{}, fmt.Errorf("describe index stats: %w", err)
	}
	return Stats{VectorCount: resp.TotalVectorCount, Dimension: resp.Dimension}, nil
}

// Close is a no-op; the store holds no persistent connection.
func (s *PineconeStore) Close() error {
	return nil
}

func (s *PineconeStore) do(ctx context.Context, method, url string, reqBody, out any) error {
	var reader io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Pinecone API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func pineconeMetadata(m Metadata) map[string]any {
	text := m.Text
	if len(text) > metadataTextLimit {
		cut := metadataTextLimit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return map[string]any{
		"document_id": m.DocumentID,
		"user_id":     m.UserID,
		"chunk_id":    m.ChunkID,
		"text":        text,
		"token_count": m.TokenCount,
		"start_token": m.StartToken,
		"end_token":   m.EndToken,
		"filename":    m.Filename,
	}
}

func metadataFromPayload(payload map[string]any) Metadata {
	var m Metadata
	if v, ok := payload["document_id"].(string); ok {
		m.DocumentID = v
	}
	if v, ok := payload["user_id"].(string); ok {
		m.UserID = v
	}
	if v, ok := payload["chunk_id"].(float64); ok {
		m.ChunkID = int(v)
	}
	if v, ok := payload["text"].(string); ok {
		m.Text = v
	}
	if v, ok := payload["token_count"].(float64); ok {
		m.TokenCount = int(v)
	}
	if v, ok := payload["start_token"].(float64); ok {
		m.StartToken = int(v)
	}
	if v, ok := payload["end_token"].(float64); ok {
		m.EndToken = int(v)
	}
	if v, ok := payload["filename"].(string); ok {
		m.Filename = v
	}
	return m
}

func pineconeFilter(filter *Filter) map[string]any {
	if filter == nil {
		return nil
	}

	conds := map[string]any{}
	if filter.UserID != "" {
		conds["user_id"] = map[string]any{"$eq": filter.UserID}
	}
	if filter.DocumentID != "" {
		conds["document_id"] = map[string]any{"$eq": filter.DocumentID}
	} else if len(filter.DocumentIDs) > 0 {
		conds["document_id"] = map[string]any{"$in": filter.DocumentIDs}
	}

	if len(conds) == 0 {
		return nil
	}
	return conds
}
