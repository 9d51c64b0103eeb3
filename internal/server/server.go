// Package server exposes the local open-file and search HTTP API.
//
// The API is a thin bridge for desktop integrations: it resolves a file
// name under the monitored directory, refuses anything outside it or
// off the extension allow-list, and opens the file with the operating
// system's default application. Responses carry a {code, message} JSON
// body.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
)

// Server is the local HTTP API.
type Server struct {
	settings domain.Settings
	searcher *Searcher
	opener   *Opener
	log      *slog.Logger
	http     *http.Server
}

// New creates the server on settings.ServerAddr.
func New(settings domain.Settings, searcher *Searcher, opener *Opener, log *slog.Logger) *Server {
	s := &Server{
		settings: settings,
		searcher: searcher,
		opener:   opener,
		log:      log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/open-file", s.handleOpenFile)
	mux.HandleFunc("/search-files", s.handleSearchFiles)
	mux.HandleFunc("/smart-open", s.handleSmartOpen)
	mux.HandleFunc("/health", s.handleHealth)

	s.http = &http.Server{
		Addr:              settings.ServerAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		errc <- s.http.ListenAndServe()
	}()

	s.log.Info("local API listening", "addr", s.settings.ServerAddr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}
}

// apiResponse is the fixed response envelope.
type apiResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (s *Server) reply(w http.ResponseWriter, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(resp.Code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Warn("encode response failed", "error", err)
	}
}

// handleOpenFile opens a file under the monitored directory with the
// OS default application.
func (s *Server) handleOpenFile(w http.ResponseWriter, r *http.Request) {
	fileName := r.URL.Query().Get("file_name")
	filePath := r.URL.Query().Get("file_path")

	if fileName == "" && filePath == "" {
		s.reply(w, apiResponse{Code: http.StatusBadRequest, Message: "请提供文件名或文件路径"})
		return
	}
	if filePath == "" {
		filePath = filepath.Join(s.settings.MonitorDir, fileName)
	}

	resolved, err := s.authorisePath(filePath)
	if err != nil {
		s.reply(w, apiResponse{Code: http.StatusForbidden, Message: err.Error()})
		return
	}
	if _, err := os.Stat(resolved); err != nil {
		s.reply(w, apiResponse{Code: http.StatusNotFound, Message: fmt.Sprintf("文件不存在: %s", resolved)})
		return
	}

	if err := s.opener.Open(r.Context(), resolved); err != nil {
		s.log.Error("open file failed", "path", resolved, "error", err)
		s.reply(w, apiResponse{Code: http.StatusInternalServerError, Message: fmt.Sprintf("打开文件失败: %v", err)})
		return
	}

	s.log.Info("file opened", "path", resolved)
	s.reply(w, apiResponse{Code: http.StatusOK, Message: fmt.Sprintf("文件已成功打开: %s", resolved)})
}

// handleSearchFiles returns ranked matches for a query.
func (s *Server) handleSearchFiles(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		s.reply(w, apiResponse{Code: http.StatusBadRequest, Message: "请提供搜索关键词"})
		return
	}

	matches := s.searcher.Search(r.Context(), query)
	s.reply(w, apiResponse{
		Code:    http.StatusOK,
		Message: fmt.Sprintf("找到 %d 个匹配文件", len(matches)),
		Data:    matches,
	})
}

// handleSmartOpen searches for the query's best match and opens it.
func (s *Server) handleSmartOpen(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		s.reply(w, apiResponse{Code: http.StatusBadRequest, Message: "请提供搜索关键词"})
		return
	}

	matches := s.searcher.Search(r.Context(), query)
	if len(matches) == 0 {
		s.reply(w, apiResponse{Code: http.StatusNotFound, Message: "没有找到匹配的文件"})
		return
	}

	best := matches[0]
	resolved, err := s.authorisePath(best.Path)
	if err != nil {
		s.reply(w, apiResponse{Code: http.StatusForbidden, Message: err.Error()})
		return
	}
	if err := s.opener.Open(r.Context(), resolved); err != nil {
		s.log.Error("open file failed", "path", resolved, "error", err)
		s.reply(w, apiResponse{Code: http.StatusInternalServerError, Message: fmt.Sprintf("打开文件失败: %v", err)})
		return
	}

	s.log.Info("smart open", "query", query, "path", resolved, "score", best.Score, "source", best.Source)
	s.reply(w, apiResponse{
		Code:    http.StatusOK,
		Message: fmt.Sprintf("文件已成功打开: %s", best.Name),
		Data:    best,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.reply(w, apiResponse{Code: http.StatusOK, Message: "文件打开服务运行正常"})
}

// authorisePath confines requests to allowed files inside the
// monitored directory.
func (s *Server) authorisePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("无效的文件路径: %s", path)
	}
	root, err := filepath.Abs(s.settings.MonitorDir)
	if err != nil {
		return "", fmt.Errorf("无效的监控目录: %s", s.settings.MonitorDir)
	}

	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("不允许访问监控目录之外的路径: %s", path)
	}
	if !s.settings.ExtensionAllowed(filepath.Ext(abs)) {
		return "", fmt.Errorf("不支持的文件类型: %s", filepath.Ext(abs))
	}
	return abs, nil
}
