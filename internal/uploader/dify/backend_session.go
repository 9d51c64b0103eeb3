package dify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// Ensure SessionBackend implements the interface.
var _ driven.UploadBackend = (*SessionBackend)(nil)

// SessionBackend uploads through the console API using cookie and
// CSRF authentication, for deployments where no dataset API key is
// available.
type SessionBackend struct {
	httpClient *http.Client
	baseURL    string
	creds      driven.CredentialsProvider
}

// NewSessionBackend creates the backend.
func NewSessionBackend(baseURL string, creds driven.CredentialsProvider, timeout time.Duration) *SessionBackend {
	if timeout <= 0 {
		timeout = domain.DefaultRequestTimeout
	}
	return &SessionBackend{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		creds:      creds,
	}
}

// Name returns the backend's configuration name.
func (b *SessionBackend) Name() string {
	return domain.BackendSession
}

// Upload performs the console file upload and document registration.
func (b *SessionBackend) Upload(ctx context.Context, req *driven.UploadRequest) error {
	session, err := b.creds.Session()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSessionInvalid, err)
	}

	fileID, err := b.uploadFile(ctx, session, req)
	if err != nil {
		return err
	}
	return b.createDocument(ctx, session, req, fileID)
}

// uploadFile pushes the raw bytes through the console upload endpoint.
func (b *SessionBackend) uploadFile(ctx context.Context, session *driven.SessionCredentials, req *driven.UploadRequest) (string, error) {
	body, contentType, err := buildMultipart(req, nil)
	if err != nil {
		return "", err
	}

	url := b.baseURL + "/console/api/files/upload?source=datasets"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	b.authorise(httpReq, session)
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send upload request: %w", err)
	}
	defer resp.Body.Close()

	raw := readBody(resp)
	if err := classifyResponse(resp.StatusCode, raw); err != nil {
		return "", fmt.Errorf("console upload: %w", err)
	}

	var uploaded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(raw), &uploaded); err != nil || uploaded.ID == "" {
		return "", fmt.Errorf("%w: console upload carries no file id", domain.ErrUploadRejected)
	}
	return uploaded.ID, nil
}

// consoleDocumentRequest is the console document-registration body.
type consoleDocumentRequest struct {
	DataSource struct {
		Type     string `json:"type"`
		InfoList struct {
			DataSourceType string `json:"data_source_type"`
			FileInfoList   struct {
				FileIDs []string `json:"file_ids"`
			} `json:"file_info_list"`
		} `json:"info_list"`
	} `json:"data_source"`
	IndexingTechnique string `json:"indexing_technique"`
	DocForm           string `json:"doc_form"`
	ProcessRule       struct {
		Mode  string         `json:"mode"`
		Rules map[string]any `json:"rules"`
	} `json:"process_rule"`
}

// createDocument registers the uploaded file with the collection.
func (b *SessionBackend) createDocument(ctx context.Context, session *driven.SessionCredentials, req *driven.UploadRequest, fileID string) error {
	var docReq consoleDocumentRequest
	docReq.DataSource.Type = "upload_file"
	docReq.DataSource.InfoList.DataSourceType = "upload_file"
	docReq.DataSource.InfoList.FileInfoList.FileIDs = []string{fileID}
	docReq.IndexingTechnique = indexingTechnique
	docReq.DocForm = docFormFor(req)
	docReq.ProcessRule.Mode = "automatic"
	docReq.ProcessRule.Rules = map[string]any{}

	payload, err := json.Marshal(docReq)
	if err != nil {
		return fmt.Errorf("encode document request: %w", err)
	}

	url := fmt.Sprintf("%s/console/api/datasets/%s/documents", b.baseURL, req.CollectionID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build document request: %w", err)
	}
	b.authorise(httpReq, session)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send document request: %w", err)
	}
	defer resp.Body.Close()

	if err := classifyResponse(resp.StatusCode, readBody(resp)); err != nil {
		return fmt.Errorf("console document creation: %w", err)
	}
	return nil
}

// authorise attaches the session cookie and CSRF token.
func (b *SessionBackend) authorise(req *http.Request, session *driven.SessionCredentials) {
	req.Header.Set("Cookie", session.Cookies)
	if session.CSRFToken != "" {
		req.Header.Set("X-CSRF-Token", session.CSRFToken)
	}
}
