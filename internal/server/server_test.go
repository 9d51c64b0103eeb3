package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
)

type recordingRunner struct {
	commands [][]string
	err      error
}

func (r *recordingRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	r.commands = append(r.commands, append([]string{name}, args...))
	return nil, r.err
}

type serverFixture struct {
	settings domain.Settings
	runner   *recordingRunner
	ts       *httptest.Server
}

func newServerFixture(t *testing.T, kb *fakeKB) *serverFixture {
	t.Helper()
	settings := testSettings(t.TempDir())
	runner := &recordingRunner{}

	srv := New(settings,
		NewSearcher(settings, kb, discard()),
		NewOpener(runner),
		discard())

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &serverFixture{settings: settings, runner: runner, ts: ts}
}

func (f *serverFixture) get(t *testing.T, path string, params url.Values) (int, apiResponse) {
	t.Helper()
	resp, err := http.Get(f.ts.URL + path + "?" + params.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()

	var body apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestOpenFileEndpoint(t *testing.T) {
	t.Run("opens file inside monitor dir", func(t *testing.T) {
		f := newServerFixture(t, &fakeKB{})
		writeFile(t, f.settings.MonitorDir, "报告.docx")

		status, body := f.get(t, "/open-file", url.Values{"file_name": {"报告.docx"}})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, http.StatusOK, body.Code)
		assert.Contains(t, body.Message, "文件已成功打开")

		require.Len(t, f.runner.commands, 1)
		assert.Contains(t, f.runner.commands[0], "报告.docx")
	})

	t.Run("missing parameters rejected", func(t *testing.T) {
		f := newServerFixture(t, &fakeKB{})
		status, body := f.get(t, "/open-file", url.Values{})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "请提供文件名或文件路径", body.Message)
	})

	t.Run("path traversal rejected", func(t *testing.T) {
		f := newServerFixture(t, &fakeKB{})
		status, _ := f.get(t, "/open-file", url.Values{"file_name": {"../../etc/passwd.txt"}})
		assert.Equal(t, http.StatusForbidden, status)
		assert.Empty(t, f.runner.commands)
	})

	t.Run("absolute path outside monitor dir rejected", func(t *testing.T) {
		f := newServerFixture(t, &fakeKB{})
		status, _ := f.get(t, "/open-file", url.Values{"file_path": {"/etc/hosts.txt"}})
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("disallowed extension rejected", func(t *testing.T) {
		f := newServerFixture(t, &fakeKB{})
		writeFile(t, f.settings.MonitorDir, "tool.exe")

		status, body := f.get(t, "/open-file", url.Values{"file_name": {"tool.exe"}})
		assert.Equal(t, http.StatusForbidden, status)
		assert.Contains(t, body.Message, "不支持的文件类型")
	})

	t.Run("missing file is 404", func(t *testing.T) {
		f := newServerFixture(t, &fakeKB{})
		status, body := f.get(t, "/open-file", url.Values{"file_name": {"nope.txt"}})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Contains(t, body.Message, "文件不存在")
	})

	t.Run("opener failure is 500", func(t *testing.T) {
		f := newServerFixture(t, &fakeKB{})
		f.runner.err = assert.AnError
		writeFile(t, f.settings.MonitorDir, "报告.docx")

		status, body := f.get(t, "/open-file", url.Values{"file_name": {"报告.docx"}})
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Contains(t, body.Message, "打开文件失败")
	})
}

func TestSearchFilesEndpoint(t *testing.T) {
	t.Run("returns ranked matches", func(t *testing.T) {
		f := newServerFixture(t, &fakeKB{})
		writeFile(t, f.settings.MonitorDir, "数学作业.docx")

		status, body := f.get(t, "/search-files", url.Values{"query": {"数学作业"}})
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body.Message, "1 个匹配文件")
		require.NotNil(t, body.Data)
	})

	t.Run("empty query rejected", func(t *testing.T) {
		f := newServerFixture(t, &fakeKB{})
		status, _ := f.get(t, "/search-files", url.Values{"query": {"  "}})
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestSmartOpenEndpoint(t *testing.T) {
	t.Run("opens best match", func(t *testing.T) {
		f := newServerFixture(t, &fakeKB{})
		writeFile(t, f.settings.MonitorDir, "数学作业.docx")

		status, body := f.get(t, "/smart-open", url.Values{"query": {"数学作业"}})
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body.Message, "数学作业.docx")
		require.Len(t, f.runner.commands, 1)
	})

	t.Run("no matches is 404", func(t *testing.T) {
		f := newServerFixture(t, &fakeKB{})
		status, body := f.get(t, "/smart-open", url.Values{"query": {"zzzzzz"}})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "没有找到匹配的文件", body.Message)
		assert.Empty(t, f.runner.commands)
	})
}

func TestHealthEndpoint(t *testing.T) {
	f := newServerFixture(t, &fakeKB{})
	status, body := f.get(t, "/health", url.Values{})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "文件打开服务运行正常", body.Message)
}
