package dify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// Ensure CreateByFileBackend implements the interface.
var _ driven.UploadBackend = (*CreateByFileBackend)(nil)

// CreateByFileBackend uploads through the single-call create-by-file
// contract: one multipart POST carrying both the processing rules and
// the file.
type CreateByFileBackend struct {
	httpClient *http.Client
	baseURL    string
	creds      driven.CredentialsProvider
}

// NewCreateByFileBackend creates the backend.
func NewCreateByFileBackend(baseURL string, creds driven.CredentialsProvider, timeout time.Duration) *CreateByFileBackend {
	if timeout <= 0 {
		timeout = domain.DefaultRequestTimeout
	}
	return &CreateByFileBackend{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		creds:      creds,
	}
}

// Name returns the backend's configuration name.
func (b *CreateByFileBackend) Name() string {
	return domain.BackendCreateByFile
}

// createByFileRules is the JSON carried in the "data" form field.
type createByFileRules struct {
	IndexingTechnique string `json:"indexing_technique"`
	DocForm           string `json:"doc_form,omitempty"`
	ProcessRule       struct {
		Mode string `json:"mode"`
	} `json:"process_rule"`
}

// Upload performs the single multipart call.
func (b *CreateByFileBackend) Upload(ctx context.Context, req *driven.UploadRequest) error {
	token, err := b.creds.DatasetToken()
	if err != nil {
		return fmt.Errorf("dataset token: %w", err)
	}

	rules := createByFileRules{IndexingTechnique: indexingTechnique}
	rules.ProcessRule.Mode = "automatic"
	if req.ParentChild {
		rules.DocForm = docFormHierarchical
	}
	rulesJSON, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}

	body, contentType, err := buildMultipart(req, map[string]string{"data": string(rulesJSON)})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v1/datasets/%s/document/create-by-file", b.baseURL, req.CollectionID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	return classifyResponse(resp.StatusCode, readBody(resp))
}
