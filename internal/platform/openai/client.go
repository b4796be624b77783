package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/studybridge-backend/internal/platform/envutil"
	"github.com/yungbote/studybridge-backend/internal/platform/httpx"
	"github.com/yungbote/studybridge-backend/internal/platform/logger"
)

// Message is one turn of model input.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SearchResult is a single scored chunk from a vector store query.
type SearchResult struct {
	FileID   string  `json:"file_id"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

// VectorSearchResults is one search response: the scored chunks plus the
// query string the provider reports it actually ran, when it echoes one.
type VectorSearchResults struct {
	SearchQuery string
	Results     []SearchResult
}

// VectorStoreFile describes a file attached to a vector store.
type VectorStoreFile struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// AccountFile describes a file uploaded to the account file space.
type AccountFile struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Purpose  string `json:"purpose"`
	Status   string `json:"status"`
}

// ErrRefusal is returned when the model declines to produce output.
var ErrRefusal = errors.New("model refused to answer")

// Client is the typed surface the services depend on. Everything takes a
// context and returns an explicit error; no raw HTTP leaks upward.
type Client interface {
	GenerateText(ctx context.Context, messages []Message) (string, error)
	GenerateJSON(ctx context.Context, messages []Message, schemaName string, schema map[string]interface{}, out interface{}) error
	SearchVectorStore(ctx context.Context, vectorStoreID, query string, maxResults int) (*VectorSearchResults, error)
	ListVectorStoreFiles(ctx context.Context, vectorStoreID string) ([]VectorStoreFile, error)
	ListAccountFiles(ctx context.Context, purpose string) ([]AccountFile, error)
	RetrieveFile(ctx context.Context, fileID string) (*AccountFile, error)
	AttachVectorStoreFiles(ctx context.Context, vectorStoreID string, fileIDs []string) error
}

type httpClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature *float64
	maxRetries  int
	client      *http.Client
	log         *logger.Logger
}

// NewClient builds a client from the environment. OPENAI_API_KEY is required;
// the rest have working defaults.
func NewClient(log *logger.Logger) (Client, error) {
	apiKey := envutil.String("OPENAI_API_KEY", "")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	timeout := time.Duration(envutil.Int("OPENAI_TIMEOUT_SECONDS", 60)) * time.Second
	c := &httpClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(envutil.String("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		model:      envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		maxRetries: envutil.Int("OPENAI_MAX_RETRIES", 3),
		client:     &http.Client{Timeout: timeout},
		log:        log.With("component", "openai_client"),
	}
	if t := envutil.Float("OPENAI_TEMPERATURE", -1); t >= 0 {
		c.temperature = &t
	}
	return c, nil
}

type responsesRequest struct {
	Model       string                 `json:"model"`
	Input       []Message              `json:"input"`
	Text        map[string]interface{} `json:"text,omitempty"`
	Temperature *float64               `json:"temperature,omitempty"`
	Stream      bool                   `json:"stream"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role"`
		Content []struct {
			Type    string `json:"type"`
			Text    string `json:"text"`
			Refusal string `json:"refusal"`
		} `json:"content"`
	} `json:"output"`
}

func (c *httpClient) GenerateText(ctx context.Context, messages []Message) (string, error) {
	req := responsesRequest{Model: c.model, Input: messages, Temperature: c.temperature}
	var resp responsesResponse
	if err := c.do(ctx, http.MethodPost, "/responses", req, &resp); err != nil {
		return "", err
	}
	return extractOutputText(&resp)
}

func (c *httpClient) GenerateJSON(ctx context.Context, messages []Message, schemaName string, schema map[string]interface{}, out interface{}) error {
	req := responsesRequest{
		Model:       c.model,
		Input:       messages,
		Temperature: c.temperature,
		Text: map[string]interface{}{
			"format": map[string]interface{}{
				"type":   "json_schema",
				"name":   schemaName,
				"schema": schema,
				"strict": true,
			},
		},
	}
	var resp responsesResponse
	if err := c.do(ctx, http.MethodPost, "/responses", req, &resp); err != nil {
		return err
	}
	text, err := extractOutputText(&resp)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("decode structured output: %w", err)
	}
	return nil
}

func extractOutputText(resp *responsesResponse) (string, error) {
	var sb strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			switch part.Type {
			case "output_text":
				sb.WriteString(part.Text)
			case "refusal":
				return "", fmt.Errorf("%w: %s", ErrRefusal, part.Refusal)
			}
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("empty model output")
	}
	return text, nil
}

type vectorSearchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_num_results,omitempty"`
}

type vectorSearchResponse struct {
	SearchQuery json.RawMessage `json:"search_query"`
	Data        []struct {
		FileID   string  `json:"file_id"`
		Filename string  `json:"filename"`
		Score    float64 `json:"score"`
		Content  []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"data"`
}

// echoedQuery decodes the search_query the API echoes back. The field has
// shipped both as a string and as a list of rewritten queries.
func echoedQuery(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

func (c *httpClient) SearchVectorStore(ctx context.Context, vectorStoreID, query string, maxResults int) (*VectorSearchResults, error) {
	req := vectorSearchRequest{Query: query, MaxResults: maxResults}
	var resp vectorSearchResponse
	path := "/vector_stores/" + vectorStoreID + "/search"
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	out := &VectorSearchResults{
		SearchQuery: echoedQuery(resp.SearchQuery),
		Results:     make([]SearchResult, 0, len(resp.Data)),
	}
	for _, d := range resp.Data {
		var text strings.Builder
		for _, part := range d.Content {
			if part.Type == "text" {
				text.WriteString(part.Text)
			}
		}
		out.Results = append(out.Results, SearchResult{
			FileID:   d.FileID,
			Filename: d.Filename,
			Score:    d.Score,
			Content:  text.String(),
		})
	}
	return out, nil
}

type listResponse[T any] struct {
	Data    []T    `json:"data"`
	HasMore bool   `json:"has_more"`
	LastID  string `json:"last_id"`
}

func (c *httpClient) ListVectorStoreFiles(ctx context.Context, vectorStoreID string) ([]VectorStoreFile, error) {
	var all []VectorStoreFile
	after := ""
	for {
		path := "/vector_stores/" + vectorStoreID + "/files?limit=100"
		if after != "" {
			path += "&after=" + after
		}
		var resp listResponse[VectorStoreFile]
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Data...)
		if !resp.HasMore || resp.LastID == "" {
			return all, nil
		}
		after = resp.LastID
	}
}

func (c *httpClient) ListAccountFiles(ctx context.Context, purpose string) ([]AccountFile, error) {
	var all []AccountFile
	after := ""
	for {
		path := "/files?limit=100"
		if purpose != "" {
			path += "&purpose=" + purpose
		}
		if after != "" {
			path += "&after=" + after
		}
		var resp listResponse[AccountFile]
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Data...)
		if !resp.HasMore || resp.LastID == "" {
			return all, nil
		}
		after = resp.LastID
	}
}

// RetrieveFile fetches a single file's metadata. Used to resolve filenames
// for attached files the filtered account listing misses.
func (c *httpClient) RetrieveFile(ctx context.Context, fileID string) (*AccountFile, error) {
	var file AccountFile
	if err := c.do(ctx, http.MethodGet, "/files/"+fileID, nil, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

type attachFilesRequest struct {
	FileIDs []string `json:"file_ids"`
}

func (c *httpClient) AttachVectorStoreFiles(ctx context.Context, vectorStoreID string, fileIDs []string) error {
	if len(fileIDs) == 0 {
		return nil
	}
	path := "/vector_stores/" + vectorStoreID + "/file_batches"
	var resp json.RawMessage
	return c.do(ctx, http.MethodPost, path, attachFilesRequest{FileIDs: fileIDs}, &resp)
}

// do runs one API call with exponential backoff on transient failures.
func (c *httpClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := httpx.RetryAfterDuration(lastErr)
			if delay == 0 {
				delay = httpx.Backoff(attempt-1, 250*time.Millisecond, 8*time.Second)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			c.log.Debug("retrying upstream call", "path", path, "attempt", attempt)
		}
		lastErr = c.doOnce(ctx, method, path, body, out)
		if lastErr == nil {
			return nil
		}
		if !httpx.IsRetryableError(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (c *httpClient) doOnce(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &httpx.StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			RetryAfter: resp.Header.Get("Retry-After"),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
