// Package dify queries the remote knowledge base for documents.
package dify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.KnowledgeSearcher = (*Client)(nil)

// Client lists documents from the remote document store.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      driven.CredentialsProvider
	log        *slog.Logger
}

// NewClient creates a knowledge-base search client.
func NewClient(baseURL string, creds driven.CredentialsProvider, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = domain.DefaultRequestTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		creds:      creds,
		log:        log,
	}
}

// documentList is the document listing envelope.
type documentList struct {
	Data []struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Content string `json:"content"`
	} `json:"data"`
}

// SearchDocuments lists documents in the collection whose name or
// content matches the keyword.
func (c *Client) SearchDocuments(ctx context.Context, collectionID, keyword string, limit int) ([]driven.KBDocument, error) {
	if limit <= 0 {
		limit = 10
	}

	query := url.Values{}
	query.Set("keyword", keyword)
	query.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/v1/datasets/%s/documents?%s", c.baseURL, collectionID, query.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var list documentList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode document list: %w", err)
	}

	docs := make([]driven.KBDocument, 0, len(list.Data))
	for _, d := range list.Data {
		docs = append(docs, driven.KBDocument{ID: d.ID, Name: d.Name, Content: d.Content})
	}
	return docs, nil
}

// Ping lists one dataset to verify the endpoint and token.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, c.baseURL+"/v1/datasets?limit=1")
	return err
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	token, err := c.creds.DatasetToken()
	if err != nil {
		return nil, fmt.Errorf("dataset token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: document store returned %d", domain.ErrUnauthorised, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("document store returned %d", resp.StatusCode)
	}
	return body, nil
}
