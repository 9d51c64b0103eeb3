// Package dify summarises files through a remote chat endpoint.
//
// The client sends one blocking chat message per file and expects a
// labelled answer (文件类型 and 内容总结 lines). Real model output is
// messy, so the answer passes through a repair step before use, and
// every failure mode falls back to the local heuristic summariser.
package dify

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
	"github.com/veyrane-labs/kbsync/internal/summariser/fallback"
)

// Ensure Client implements the interface.
var _ driven.Summariser = (*Client)(nil)

const (
	chatEndpoint = "/v1/chat-messages"

	documentPrompt = "请分析以下文件内容，并严格按照下面的格式回答，不要输出其他内容：\n" +
		"文件类型: <从[学生作业 实验报告 学术论文 项目报告 设计文档 学习笔记 技术文档 通用文档]中选择一个>\n" +
		"内容总结: <用一两句话概括文件的核心内容>\n\n" +
		"文件名：%s\n文件内容：\n%s"

	// imagePrompt carries the file name only. The extracted image JSON
	// includes a base64 payload meant for a multimodal channel that this
	// text-only endpoint does not have, so it must stay out of the query.
	imagePrompt = "下面是一个图片文件的文件名，请根据文件名推断图片的场景、主体、视觉风格和氛围，并严格按照格式回答：\n" +
		"内容总结: <一句话描述图片可能的内容>\n\n" +
		"文件名：%s"

	// imageFailureSummary is used when the remote call for an image
	// fails; there is no local heuristic that can look at pixels.
	imageFailureSummary = "无法分析图片内容"
)

// Client talks to the remote chat endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      driven.CredentialsProvider
	fallback   driven.Summariser
	log        *slog.Logger
}

// NewClient creates a chat summariser. Failures fall back to the local
// heuristic summariser.
func NewClient(baseURL string, creds driven.CredentialsProvider, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = domain.DefaultRequestTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		creds:      creds,
		fallback:   fallback.New(),
		log:        log,
	}
}

// chatRequest is the blocking chat-message payload.
type chatRequest struct {
	Inputs       map[string]any `json:"inputs"`
	Query        string         `json:"query"`
	ResponseMode string         `json:"response_mode"`
	User         string         `json:"user"`
}

// chatResponse carries the fields we read from the answer envelope.
type chatResponse struct {
	Answer string `json:"answer"`
}

// Summarise sends the file to the chat endpoint and repairs the
// answer. Any failure falls back to the local heuristics.
func (c *Client) Summarise(ctx context.Context, fileName, content string) *domain.SummaryRecord {
	isImage := domain.IsImageExtension(filepath.Ext(fileName))

	query := fmt.Sprintf(documentPrompt, fileName, content)
	if isImage {
		query = fmt.Sprintf(imagePrompt, fileName)
	}

	answer, err := c.ask(ctx, fileName, query)
	if err != nil {
		c.log.Warn("remote summarisation failed, using local heuristics",
			"file", fileName, "error", err)
		return c.localFallback(ctx, fileName, content, isImage)
	}

	record := c.repair(fileName, answer, isImage)
	if record == nil {
		c.log.Warn("remote answer unusable, using local heuristics", "file", fileName)
		return c.localFallback(ctx, fileName, content, isImage)
	}
	return record
}

// ask performs one blocking chat call and returns the raw answer.
func (c *Client) ask(ctx context.Context, fileName, query string) (string, error) {
	token, err := c.creds.ChatflowToken()
	if err != nil {
		return "", fmt.Errorf("chatflow token: %w", err)
	}

	payload, err := json.Marshal(chatRequest{
		Inputs:       map[string]any{},
		Query:        query,
		ResponseMode: "blocking",
		User:         chatUser(fileName),
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, truncateBody(body))
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if chat.Answer == "" {
		return "", fmt.Errorf("empty answer")
	}
	return chat.Answer, nil
}

// repair cleans and validates the raw answer. Returns nil when nothing
// usable survives.
func (c *Client) repair(fileName, answer string, isImage bool) *domain.SummaryRecord {
	cleaned := StripThinkTags(answer)
	docType, summary := ParseAnswer(cleaned)
	summary = TrimDiscourse(summary)

	if summary == "" {
		// Some models answer in free prose without the labels. Keep a
		// single repaired line rather than discarding the call.
		summary = TrimDiscourse(firstLine(cleaned))
	}
	if summary == "" {
		return nil
	}

	if isImage {
		return &domain.SummaryRecord{
			DocType: domain.ImageDocType,
			Summary: summary,
			Source:  domain.SummaryRemoteAI,
		}
	}

	if docType == "" {
		docType = fallback.ClassifyName(fileName)
	}
	return &domain.SummaryRecord{
		DocType: docType,
		Summary: summary,
		Source:  domain.SummaryRemoteAI,
	}
}

// localFallback produces the heuristic record, with the image-specific
// failure summary where heuristics cannot help.
func (c *Client) localFallback(ctx context.Context, fileName, content string, isImage bool) *domain.SummaryRecord {
	if isImage {
		return &domain.SummaryRecord{
			DocType: domain.ImageDocType,
			Summary: imageFailureSummary,
			Source:  domain.SummaryLocalHeuristic,
		}
	}
	return c.fallback.Summarise(ctx, fileName, content)
}

// chatUser derives a stable per-file user ID for the chat endpoint.
func chatUser(fileName string) string {
	sum := md5.Sum([]byte(fileName))
	return fmt.Sprintf("file_monitor_%x", sum[:4])
}

func firstLine(s string) string {
	for _, line := range bytes.Split([]byte(s), []byte("\n")) {
		if trimmed := string(bytes.TrimSpace(line)); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
