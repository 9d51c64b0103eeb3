package dify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// Ensure TwoStepBackend implements the interface.
var _ driven.UploadBackend = (*TwoStepBackend)(nil)

// TwoStepBackend uploads raw bytes first, then creates the document
// record from the returned file handle. After creation it checks the
// indexing status once; the check is informational only.
type TwoStepBackend struct {
	httpClient *http.Client
	baseURL    string
	creds      driven.CredentialsProvider
	log        *slog.Logger
}

// NewTwoStepBackend creates the backend.
func NewTwoStepBackend(baseURL string, creds driven.CredentialsProvider, timeout time.Duration, log *slog.Logger) *TwoStepBackend {
	if timeout <= 0 {
		timeout = domain.DefaultRequestTimeout
	}
	return &TwoStepBackend{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		creds:      creds,
		log:        log,
	}
}

// Name returns the backend's configuration name.
func (b *TwoStepBackend) Name() string {
	return domain.BackendTwoStep
}

// Upload performs the file upload, document creation and one status
// check.
func (b *TwoStepBackend) Upload(ctx context.Context, req *driven.UploadRequest) error {
	token, err := b.creds.DatasetToken()
	if err != nil {
		return fmt.Errorf("dataset token: %w", err)
	}

	fileID, err := b.uploadFile(ctx, token, req)
	if err != nil {
		return err
	}

	batch, err := b.createDocument(ctx, token, req, fileID)
	if err != nil {
		return err
	}

	b.checkIndexing(ctx, token, req.CollectionID, batch)
	return nil
}

// uploadFile pushes the raw bytes and returns the remote file ID.
func (b *TwoStepBackend) uploadFile(ctx context.Context, token string, req *driven.UploadRequest) (string, error) {
	body, contentType, err := buildMultipart(req, map[string]string{"user": "kbsync"})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/files/upload", body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send upload request: %w", err)
	}
	defer resp.Body.Close()

	raw := readBody(resp)
	if err := classifyResponse(resp.StatusCode, raw); err != nil {
		return "", fmt.Errorf("file upload: %w", err)
	}

	var uploaded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(raw), &uploaded); err != nil || uploaded.ID == "" {
		return "", fmt.Errorf("%w: upload response carries no file id", domain.ErrUploadRejected)
	}
	return uploaded.ID, nil
}

// documentRequest is the JSON body of the document-creation call.
type documentRequest struct {
	Name              string `json:"name"`
	FileID            string `json:"file_id"`
	IndexingTechnique string `json:"indexing_technique"`
	DocForm           string `json:"doc_form,omitempty"`
	ProcessRule       struct {
		Mode string `json:"mode"`
	} `json:"process_rule"`
}

// createDocument registers the uploaded file as a collection document
// and returns the indexing batch handle.
func (b *TwoStepBackend) createDocument(ctx context.Context, token string, req *driven.UploadRequest, fileID string) (string, error) {
	docReq := documentRequest{
		Name:              req.FileName,
		FileID:            fileID,
		IndexingTechnique: indexingTechnique,
	}
	docReq.ProcessRule.Mode = "automatic"
	if req.ParentChild {
		docReq.DocForm = docFormHierarchical
	}

	payload, err := json.Marshal(docReq)
	if err != nil {
		return "", fmt.Errorf("encode document request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/datasets/%s/documents", b.baseURL, req.CollectionID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build document request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send document request: %w", err)
	}
	defer resp.Body.Close()

	raw := readBody(resp)
	if err := classifyResponse(resp.StatusCode, raw); err != nil {
		return "", fmt.Errorf("document creation: %w", err)
	}

	var created struct {
		Batch string `json:"batch"`
	}
	_ = json.Unmarshal([]byte(raw), &created)
	return created.Batch, nil
}

// checkIndexing looks at the indexing status once and logs it. The
// remote side indexes asynchronously; a pending status is normal.
func (b *TwoStepBackend) checkIndexing(ctx context.Context, token, collectionID, batch string) {
	if batch == "" {
		return
	}

	url := fmt.Sprintf("%s/v1/datasets/%s/documents/%s/indexing-status", b.baseURL, collectionID, batch)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		b.log.Debug("indexing status unavailable", "batch", batch, "error", err)
		return
	}
	defer resp.Body.Close()

	var status struct {
		Data []struct {
			IndexingStatus string `json:"indexing_status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil || len(status.Data) == 0 {
		return
	}
	b.log.Debug("indexing status", "batch", batch, "status", status.Data[0].IndexingStatus)
}
