// Package spreadsheet extracts cell text from XLSX workbooks.
package spreadsheet

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// maxSampleRows bounds how many rows of each sheet reach the summary
// pipeline. Spreadsheets are sampled, not transcribed.
const maxSampleRows = 5

// Extractor reads XLSX files as OOXML archives: the shared-string pool
// plus each worksheet's cell values.
type Extractor struct{}

// New creates a spreadsheet extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".xlsx"}
}

// Extract opens the workbook and renders rows as tab-separated lines.
// Failures become descriptive text.
func (e *Extractor) Extract(_ context.Context, path string) (*domain.ExtractedContent, error) {
	content := &domain.ExtractedContent{
		SourcePath: path,
		Category:   domain.CategorySpreadsheet,
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		content.Text = fmt.Sprintf("无法打开Excel文件: %v", err)
		return content, nil
	}
	defer reader.Close()

	pool, err := sharedStrings(&reader.Reader)
	if err != nil {
		content.Text = fmt.Sprintf("无法解析Excel文件: %v", err)
		return content, nil
	}

	names := sheetNames(&reader.Reader)

	var sheets []string
	for i, file := range sheetFiles(&reader.Reader) {
		text, err := sheetText(file, pool)
		if err != nil {
			continue
		}
		if text != "" {
			sheets = append(sheets, fmt.Sprintf("工作表: %s\n%s", sheetName(names, i, file), text))
		}
	}

	if len(sheets) == 0 {
		content.Text = "Excel文件无文本内容"
		return content, nil
	}
	content.Text = strings.Join(sheets, "\n\n")
	return content, nil
}

// sstXML mirrors xl/sharedStrings.xml. A string item holds either a
// direct t element or a sequence of formatted runs.
type sstXML struct {
	Items []struct {
		T    string `xml:"t"`
		Runs []struct {
			T string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

// sharedStrings loads the workbook's shared-string pool. A workbook
// without one is valid and yields an empty pool.
func sharedStrings(reader *zip.Reader) ([]string, error) {
	for _, file := range reader.File {
		if file.Name != "xl/sharedStrings.xml" {
			continue
		}

		raw, err := readZipFile(file)
		if err != nil {
			return nil, err
		}
		var sst sstXML
		if err := xml.Unmarshal(raw, &sst); err != nil {
			return nil, fmt.Errorf("parse sharedStrings.xml: %w", err)
		}

		pool := make([]string, 0, len(sst.Items))
		for _, item := range sst.Items {
			if len(item.Runs) > 0 {
				var b strings.Builder
				for _, r := range item.Runs {
					b.WriteString(r.T)
				}
				pool = append(pool, b.String())
				continue
			}
			pool = append(pool, item.T)
		}
		return pool, nil
	}
	return nil, nil
}

// sheetFiles returns worksheet entries in numeric order, so sheet10
// sorts after sheet2.
func sheetFiles(reader *zip.Reader) []*zip.File {
	var sheets []*zip.File
	for _, file := range reader.File {
		if strings.HasPrefix(file.Name, "xl/worksheets/sheet") && strings.HasSuffix(file.Name, ".xml") {
			sheets = append(sheets, file)
		}
	}
	sort.Slice(sheets, func(i, j int) bool {
		if len(sheets[i].Name) != len(sheets[j].Name) {
			return len(sheets[i].Name) < len(sheets[j].Name)
		}
		return sheets[i].Name < sheets[j].Name
	})
	return sheets
}

// workbookXML mirrors the sheet list of xl/workbook.xml.
type workbookXML struct {
	Sheets struct {
		Sheets []struct {
			Name string `xml:"name,attr"`
		} `xml:"sheet"`
	} `xml:"sheets"`
}

// sheetNames reads the declared sheet names, in declaration order.
func sheetNames(reader *zip.Reader) []string {
	for _, file := range reader.File {
		if file.Name != "xl/workbook.xml" {
			continue
		}
		raw, err := readZipFile(file)
		if err != nil {
			return nil
		}
		var wb workbookXML
		if err := xml.Unmarshal(raw, &wb); err != nil {
			return nil
		}
		names := make([]string, 0, len(wb.Sheets.Sheets))
		for _, s := range wb.Sheets.Sheets {
			names = append(names, s.Name)
		}
		return names
	}
	return nil
}

// sheetName pairs the i-th worksheet with its declared name, falling
// back to the archive entry name.
func sheetName(names []string, i int, file *zip.File) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	base := file.Name[strings.LastIndex(file.Name, "/")+1:]
	return strings.TrimSuffix(base, ".xml")
}

// worksheetXML mirrors the cell structure of one worksheet.
type worksheetXML struct {
	SheetData struct {
		Rows []struct {
			Cells []struct {
				Type   string `xml:"t,attr"`
				Value  string `xml:"v"`
				Inline struct {
					T string `xml:"t"`
				} `xml:"is"`
			} `xml:"c"`
		} `xml:"row"`
	} `xml:"sheetData"`
}

// sheetText renders one worksheet as tab-separated rows.
func sheetText(file *zip.File, pool []string) (string, error) {
	raw, err := readZipFile(file)
	if err != nil {
		return "", err
	}

	var sheet worksheetXML
	if err := xml.Unmarshal(raw, &sheet); err != nil {
		return "", fmt.Errorf("parse %s: %w", file.Name, err)
	}

	var lines []string
	for _, row := range sheet.SheetData.Rows {
		if len(lines) >= maxSampleRows {
			break
		}
		var cells []string
		for _, cell := range row.Cells {
			switch cell.Type {
			case "s":
				idx, err := strconv.Atoi(cell.Value)
				if err == nil && idx >= 0 && idx < len(pool) {
					cells = append(cells, pool[idx])
				}
			case "inlineStr":
				cells = append(cells, cell.Inline.T)
			default:
				cells = append(cells, cell.Value)
			}
		}
		line := strings.TrimSpace(strings.Join(cells, "\t"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
