package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/deskbridge/zoom-relay/internal/config"
)

// MissMessage is returned when the index has neither an answer nor a
// matching document for the query.
const MissMessage = "Couldn't find the results for the given query, kindly try changing your phrase a bit"

// Answer is the collaborator's reply: a display message and an optional
// link to the source document.
type Answer struct {
	Message string
	Link    string
}

// Client queries the FAQ/search index.
type Client struct {
	httpClient *http.Client
	baseURL    string
	indexID    string
	apiKey     string
	logger     *slog.Logger
}

// NewClient creates a search client from configuration.
func NewClient(log *slog.Logger, cfg config.SearchConfig) *Client {
	if log == nil {
		log = slog.Default()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		indexID:    cfg.IndexID,
		apiKey:     cfg.APIKey,
		logger:     log.With(slog.String("client", "search")),
	}
}

type queryRequest struct {
	QueryText string `json:"query_text"`
	IndexID   string `json:"index_id"`
}

type queryResponse struct {
	ResultItems []resultItem `json:"result_items"`
}

type resultItem struct {
	Type            string  `json:"type"`
	DocumentExcerpt excerpt `json:"document_excerpt"`
	DocumentURI     string  `json:"document_uri"`
}

type excerpt struct {
	Text string `json:"text"`
}

// Search queries the index. A direct answer excerpt wins; otherwise the
// first matching document supplies both the message and the link. Excerpt
// whitespace is collapsed to single spaces for chat display.
func (c *Client) Search(ctx context.Context, query string) (Answer, error) {
	reqBody, err := json.Marshal(queryRequest{QueryText: query, IndexID: c.indexID})
	if err != nil {
		return Answer{}, fmt.Errorf("marshal search query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(reqBody))
	if err != nil {
		return Answer{}, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Answer{}, fmt.Errorf("search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Answer{}, fmt.Errorf("search: unexpected status %d", resp.StatusCode)
	}

	var body queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Answer{}, fmt.Errorf("search: parse response: %w", err)
	}

	c.logger.Debug("search results", slog.String("query", query), slog.Int("items", len(body.ResultItems)))
	return selectAnswer(body.ResultItems), nil
}

// selectAnswer implements the result ranking: answer excerpts beat document
// excerpts, and only the first document contributes a link.
func selectAnswer(items []resultItem) Answer {
	var answer, documentText, link string
	for _, item := range items {
		switch item.Type {
		case "ANSWER":
			answer = item.DocumentExcerpt.Text
		case "DOCUMENT":
			documentText = item.DocumentExcerpt.Text
			link = item.DocumentURI
		}
		if link != "" {
			break
		}
	}

	switch {
	case answer != "":
		return Answer{Message: collapseWhitespace(answer), Link: link}
	case link != "":
		return Answer{Message: collapseWhitespace(documentText), Link: link}
	default:
		return Answer{Message: MissMessage}
	}
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
