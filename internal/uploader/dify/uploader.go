// Package dify pushes local files into remote knowledge-base
// collections.
//
// The uploader prepares each file (size cap, MIME lookup, legacy .doc
// conversion) and hands the payload to the configured backend: the
// single-call create-by-file contract, the two-step file-then-document
// contract, or the cookie-authenticated console contract.
package dify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/veyrane-labs/kbsync/internal/converter"
	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// Ensure Uploader implements the interface.
var _ driven.Uploader = (*Uploader)(nil)

// mimeTypes maps extensions to the content type sent with the upload.
var mimeTypes = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// Uploader prepares payloads and drives the active backend.
type Uploader struct {
	backend   driven.UploadBackend
	converter driven.LegacyConverter
	limiter   *rate.Limiter
	maxBytes  int64
	log       *slog.Logger

	// mu guards failedConversions: legacy files whose conversion
	// already failed are not retried for the same file state.
	mu                sync.Mutex
	failedConversions map[string]bool
}

// NewUploader creates an uploader over the given backend. The legacy
// converter may be nil, in which case .doc files upload as-is.
func NewUploader(backend driven.UploadBackend, legacy driven.LegacyConverter, maxBytes int64, log *slog.Logger) *Uploader {
	if maxBytes <= 0 {
		maxBytes = domain.DefaultMaxUploadBytes
	}
	return &Uploader{
		backend:           backend,
		converter:         legacy,
		limiter:           rate.NewLimiter(rate.Every(time.Second), 2),
		maxBytes:          maxBytes,
		log:               log,
		failedConversions: make(map[string]bool),
	}
}

// Upload pushes one file into the target collection.
func (u *Uploader) Upload(ctx context.Context, localPath string, target domain.UploadTarget) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("stat upload source: %w", err)
	}
	if info.Size() > u.maxBytes {
		return fmt.Errorf("%w: %s is %d bytes", domain.ErrFileTooLarge, localPath, info.Size())
	}

	uploadPath := localPath
	ext := strings.ToLower(filepath.Ext(localPath))
	if ext == ".doc" && u.converter != nil {
		converted, err := u.convertLegacy(ctx, localPath, info.Size())
		if err != nil {
			return err
		}
		uploadPath = converted
		ext = ".docx"
		defer converter.SafeDelete(converted, u.log)
	}

	content, err := os.ReadFile(uploadPath)
	if err != nil {
		return fmt.Errorf("read upload source: %w", err)
	}

	if err := u.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req := &driven.UploadRequest{
		CollectionID: target.CollectionID,
		FileName:     filepath.Base(uploadPath),
		MIMEType:     mimeType(ext),
		Content:      content,
		ParentChild:  target.Mode == domain.UploadModeParentChild,
	}

	if err := u.backend.Upload(ctx, req); err != nil {
		return fmt.Errorf("upload %s via %s: %w", req.FileName, u.backend.Name(), err)
	}

	u.log.Info("document uploaded",
		"file", req.FileName,
		"collection", target.CollectionID,
		"backend", u.backend.Name())
	return nil
}

// convertLegacy converts a .doc file, remembering failures per file
// state so they are not retried endlessly.
func (u *Uploader) convertLegacy(ctx context.Context, path string, size int64) (string, error) {
	key := fmt.Sprintf("%s_%d", path, size)

	u.mu.Lock()
	failed := u.failedConversions[key]
	u.mu.Unlock()
	if failed {
		return "", fmt.Errorf("%w: conversion already failed for %s", domain.ErrConversionFailed, path)
	}

	converted, err := u.converter.Convert(ctx, path)
	if err != nil {
		u.mu.Lock()
		u.failedConversions[key] = true
		u.mu.Unlock()
		return "", fmt.Errorf("convert legacy document: %w", err)
	}
	return converted, nil
}

// mimeType looks up the content type for an extension.
func mimeType(ext string) string {
	if mt, ok := mimeTypes[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}
