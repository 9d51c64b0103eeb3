// Package fallback classifies and summarises files with local
// heuristics.
//
// It is the safety net behind the remote summariser: keyword tables
// over the file name and content decide the document category, and the
// summary is clipped straight from the content. The result is always
// usable, never empty.
package fallback

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// Ensure Summariser implements the interface.
var _ driven.Summariser = (*Summariser)(nil)

// nameRule maps file-name keywords to a document category. Rules are
// ordered; the first hit wins.
type nameRule struct {
	keywords []string
	docType  string
}

var nameRules = []nameRule{
	{[]string{"作业", "assignment", "homework"}, "学生作业"},
	{[]string{"实验", "experiment", "lab"}, "实验报告"},
	{[]string{"论文", "thesis", "paper"}, "学术论文"},
	{[]string{"报告", "report"}, "项目报告"},
	{[]string{"设计", "design"}, "设计文档"},
	{[]string{"笔记", "note"}, "学习笔记"},
	{[]string{"技术", "开发", "代码"}, "技术文档"},
}

// contentRules classify by characteristic phrases in the content.
var contentRules = []nameRule{
	{[]string{"实验目的", "实验步骤", "实验结果"}, "实验报告"},
	{[]string{"摘要", "关键词", "参考文献"}, "学术论文"},
	{[]string{"需求分析", "设计思路", "实现方案"}, "项目报告"},
}

// maxSummaryRunes bounds the clipped content summary.
const maxSummaryRunes = 100

// Summariser infers a document category and summary without any
// remote calls.
type Summariser struct{}

// New creates the heuristic summariser.
func New() *Summariser {
	return &Summariser{}
}

// Summarise classifies the file by keyword tables and clips a summary
// from the content.
func (s *Summariser) Summarise(_ context.Context, fileName, content string) *domain.SummaryRecord {
	if domain.IsImageExtension(filepath.Ext(fileName)) {
		return &domain.SummaryRecord{
			DocType: domain.ImageDocType,
			Summary: "图片文件：" + fileName,
			Source:  domain.SummaryLocalHeuristic,
		}
	}

	record := &domain.SummaryRecord{
		DocType: ClassifyName(fileName),
		Source:  domain.SummaryLocalHeuristic,
	}
	if record.DocType == domain.GenericDocType {
		record.DocType = classifyContent(content)
	}

	record.Summary = clipSummary(content)
	if record.Summary == "" {
		record.Summary = "无法读取文件内容"
		record.Source = domain.SummaryError
	}
	return record
}

// ClassifyName returns the document category implied by the file name.
func ClassifyName(fileName string) string {
	lower := strings.ToLower(fileName)
	for _, rule := range nameRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.docType
			}
		}
	}
	return domain.GenericDocType
}

// classifyContent returns the category implied by content phrases.
func classifyContent(content string) string {
	for _, rule := range contentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(content, kw) {
				return rule.docType
			}
		}
	}
	return domain.GenericDocType
}

// clipSummary takes the first meaningful lines of the content, bounded
// in runes.
func clipSummary(content string) string {
	var parts []string
	total := 0
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts = append(parts, line)
		total += len([]rune(line))
		if total >= maxSummaryRunes {
			break
		}
	}

	joined := strings.Join(parts, " ")
	runes := []rune(joined)
	if len(runes) > maxSummaryRunes {
		return string(runes[:maxSummaryRunes]) + "..."
	}
	return joined
}
