package dify

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// indexingTechnique is fixed for every collection this daemon writes.
const indexingTechnique = "high_quality"

// docForm values select the remote chunking model.
const (
	docFormText         = "text_model"
	docFormHierarchical = "hierarchical_model"
)

// docFormFor returns the chunking model for a request.
func docFormFor(req *driven.UploadRequest) string {
	if req.ParentChild {
		return docFormHierarchical
	}
	return docFormText
}

// buildMultipart assembles a multipart body with optional plain fields
// and the file part.
func buildMultipart(req *driven.UploadRequest, fields map[string]string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", name, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(req.FileName)))
	header.Set("Content-Type", req.MIMEType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(req.Content); err != nil {
		return nil, "", fmt.Errorf("write file content: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("finalise multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// readBody drains and returns the response body as a string.
func readBody(resp *http.Response) string {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return string(data)
}
