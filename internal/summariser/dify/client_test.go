package dify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

type staticCreds struct{}

func (staticCreds) DatasetToken() (string, error)  { return "dataset-token", nil }
func (staticCreds) ChatflowToken() (string, error) { return "chatflow-token", nil }
func (staticCreds) Session() (*driven.SessionCredentials, error) {
	return nil, domain.ErrSessionInvalid
}

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func chatServer(t *testing.T, answer string, status int, capture *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat-messages", r.URL.Path)
		require.Equal(t, "Bearer chatflow-token", r.Header.Get("Authorization"))

		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"answer": answer})
	}))
}

func TestSummarise(t *testing.T) {
	t.Run("labelled answer becomes a remote record", func(t *testing.T) {
		var captured chatRequest
		server := chatServer(t, "文件类型: 实验报告\n内容总结: 本实验验证了排序算法。", http.StatusOK, &captured)
		defer server.Close()

		c := NewClient(server.URL, staticCreds{}, time.Second, discardLog())
		record := c.Summarise(context.Background(), "实验报告.docx", "实验目的...")

		assert.Equal(t, "实验报告", record.DocType)
		assert.Equal(t, "本实验验证了排序算法。", record.Summary)
		assert.Equal(t, domain.SummaryRemoteAI, record.Source)

		assert.Equal(t, "blocking", captured.ResponseMode)
		assert.Contains(t, captured.User, "file_monitor_")
		assert.Contains(t, captured.Query, "实验报告.docx")
	})

	t.Run("think tags are stripped before parsing", func(t *testing.T) {
		server := chatServer(t, "<think>推理过程</think>文件类型: 学习笔记\n内容总结: 课堂记录。", http.StatusOK, nil)
		defer server.Close()

		c := NewClient(server.URL, staticCreds{}, time.Second, discardLog())
		record := c.Summarise(context.Background(), "notes.txt", "content")

		assert.Equal(t, "学习笔记", record.DocType)
		assert.Equal(t, "课堂记录。", record.Summary)
	})

	t.Run("discourse prose is repaired", func(t *testing.T) {
		server := chatServer(t, "内容总结: 首先我需要分析文件，这是一份说明。其余推理。", http.StatusOK, nil)
		defer server.Close()

		c := NewClient(server.URL, staticCreds{}, time.Second, discardLog())
		record := c.Summarise(context.Background(), "说明.txt", "content")

		assert.Equal(t, "首先我需要分析文件，这是一份说明。", record.Summary)
	})

	t.Run("missing doc type classified from name", func(t *testing.T) {
		server := chatServer(t, "内容总结: 一份作业。", http.StatusOK, nil)
		defer server.Close()

		c := NewClient(server.URL, staticCreds{}, time.Second, discardLog())
		record := c.Summarise(context.Background(), "数据结构作业.docx", "content")

		assert.Equal(t, "学生作业", record.DocType)
	})

	t.Run("server error falls back to heuristics", func(t *testing.T) {
		server := chatServer(t, "", http.StatusInternalServerError, nil)
		defer server.Close()

		c := NewClient(server.URL, staticCreds{}, time.Second, discardLog())
		record := c.Summarise(context.Background(), "实验数据.txt", "实验目的：验证")

		assert.Equal(t, domain.SummaryLocalHeuristic, record.Source)
		assert.Equal(t, "实验报告", record.DocType)
	})

	t.Run("unreachable endpoint falls back", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:1", staticCreds{}, 200*time.Millisecond, discardLog())
		record := c.Summarise(context.Background(), "notes.txt", "一些内容")

		assert.Equal(t, domain.SummaryLocalHeuristic, record.Source)
	})

	t.Run("image summary keeps fixed category", func(t *testing.T) {
		server := chatServer(t, "内容总结: 可能是一张聚会照片。", http.StatusOK, nil)
		defer server.Close()

		c := NewClient(server.URL, staticCreds{}, time.Second, discardLog())
		record := c.Summarise(context.Background(), "party.jpg", `{"fileName":"party.jpg"}`)

		assert.Equal(t, domain.ImageDocType, record.DocType)
		assert.Equal(t, "可能是一张聚会照片。", record.Summary)
		assert.Equal(t, domain.SummaryRemoteAI, record.Source)
	})

	t.Run("image failure uses fixed failure summary", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:1", staticCreds{}, 200*time.Millisecond, discardLog())
		record := c.Summarise(context.Background(), "party.jpg", `{}`)

		assert.Equal(t, domain.ImageDocType, record.DocType)
		assert.Equal(t, "无法分析图片内容", record.Summary)
	})
}
