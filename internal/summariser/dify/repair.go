package dify

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// thinkTagPattern matches reasoning blocks some chat models leak into
// their answers.
var thinkTagPattern = regexp.MustCompile(`(?is)<think>.*?</think>`)

// discourseMarkers flag reasoning prose leaking into a summary.
var discourseMarkers = []string{
	"首先我需要",
	"我需要",
	"首先",
	"接下来",
	"然后",
	"嗯",
}

// sentenceTerminators end a Chinese sentence.
const sentenceTerminators = "。！？"

// StripThinkTags removes leaked reasoning blocks. If nothing remains
// the original text is returned unchanged, which at least gives the
// repair below something to work with.
func StripThinkTags(answer string) string {
	stripped := strings.TrimSpace(thinkTagPattern.ReplaceAllString(answer, ""))
	if stripped == "" {
		return answer
	}
	return stripped
}

// ParseAnswer pulls the labelled fields out of a model answer. The
// summary collects every line after its label so multi-line summaries
// survive.
func ParseAnswer(answer string) (docType, summary string) {
	var summaryLines []string
	inSummary := false

	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(line)

		if value, ok := labelled(line, "文件类型"); ok {
			docType = value
			inSummary = false
			continue
		}
		if value, ok := labelled(line, "内容总结"); ok {
			inSummary = true
			if value != "" {
				summaryLines = append(summaryLines, value)
			}
			continue
		}
		if inSummary && line != "" {
			summaryLines = append(summaryLines, line)
		}
	}
	return docType, strings.Join(summaryLines, " ")
}

// labelled matches "label: value" with either ASCII or fullwidth colon.
func labelled(line, label string) (string, bool) {
	if !strings.HasPrefix(line, label) {
		return "", false
	}
	rest := strings.TrimPrefix(line, label)
	if !strings.HasPrefix(rest, ":") && !strings.HasPrefix(rest, "：") {
		return "", false
	}
	rest = strings.TrimPrefix(rest, ":")
	rest = strings.TrimPrefix(rest, "：")
	return strings.TrimSpace(rest), true
}

// TrimDiscourse repairs summaries carrying reasoning prose by keeping
// only the first complete sentence. A marker anywhere in the text
// triggers the truncation.
func TrimDiscourse(summary string) string {
	summary = strings.TrimSpace(summary)
	reasons := false
	for _, marker := range discourseMarkers {
		if strings.Contains(summary, marker) {
			reasons = true
			break
		}
	}
	if !reasons {
		return summary
	}

	if idx := strings.IndexAny(summary, sentenceTerminators); idx >= 0 {
		// The terminator is a multibyte rune; include it whole.
		_, size := utf8.DecodeRuneInString(summary[idx:])
		return summary[:idx+size]
	}
	return summary
}
