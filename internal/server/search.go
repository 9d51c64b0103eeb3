package server

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/veyrane-labs/kbsync/internal/core/domain"
	"github.com/veyrane-labs/kbsync/internal/core/ports/driven"
)

// localMatchThreshold is the minimum file-name similarity for a local
// directory hit.
const localMatchThreshold = 0.3

// recentWindow is how far back "recent" queries reach.
const recentWindow = 3 * 24 * time.Hour

// Score weights for ranking matches.
const (
	nameWeight    = 0.4
	pathWeight    = 0.3
	contentWeight = 0.3
)

// FileMatch is one ranked search result.
type FileMatch struct {
	Name    string  `json:"name"`
	Path    string  `json:"path"`
	Score   float64 `json:"score"`
	Source  string  `json:"source"`
	Summary string  `json:"summary,omitempty"`
}

// Match sources.
const (
	sourceKnowledgeBase = "knowledge_base"
	sourceInferredPath  = "inferred_path"
	sourceFilenameMatch = "filename_match"
)

// Searcher blends knowledge-base keyword hits with local file-name
// similarity over the monitored directory.
type Searcher struct {
	settings domain.Settings
	kb       driven.KnowledgeSearcher
	log      *slog.Logger
	now      func() time.Time
}

// NewSearcher creates a searcher. kb may be nil, in which case only the
// local directory is searched.
func NewSearcher(settings domain.Settings, kb driven.KnowledgeSearcher, log *slog.Logger) *Searcher {
	return &Searcher{settings: settings, kb: kb, log: log, now: time.Now}
}

// Search returns matches for the query, best first. Knowledge-base
// failures degrade to local-only search rather than erroring.
func (s *Searcher) Search(ctx context.Context, query string) []FileMatch {
	var matches []FileMatch
	matches = append(matches, s.searchKnowledgeBase(ctx, query)...)
	matches = append(matches, s.searchLocal(query)...)

	matches = dedupeByPath(matches)
	if ref, ok := timeReference(query, s.now()); ok {
		matches = filterByTime(matches, ref)
	}
	return s.rank(matches, query)
}

// searchKnowledgeBase resolves index records from the remote collection
// back to local paths.
func (s *Searcher) searchKnowledgeBase(ctx context.Context, query string) []FileMatch {
	if s.kb == nil {
		return nil
	}

	docs, err := s.kb.SearchDocuments(ctx, s.settings.IndexCollectionID, query, 10)
	if err != nil {
		s.log.Warn("knowledge-base search failed, using local search only", "error", err)
		return nil
	}

	var matches []FileMatch
	for _, doc := range docs {
		record, err := domain.ParseIndexRecord(doc.Content)
		if err != nil {
			continue
		}

		// Prefer the recorded path; fall back to the file name under the
		// monitored directory when the record has moved.
		if record.FilePath != "" {
			if _, err := os.Stat(record.FilePath); err == nil {
				matches = append(matches, FileMatch{
					Name:    filepath.Base(record.FilePath),
					Path:    record.FilePath,
					Source:  sourceKnowledgeBase,
					Summary: record.Summary,
				})
				continue
			}
		}
		if record.FileName != "" {
			inferred := filepath.Join(s.settings.MonitorDir, record.FileName)
			if _, err := os.Stat(inferred); err == nil {
				matches = append(matches, FileMatch{
					Name:    record.FileName,
					Path:    inferred,
					Source:  sourceInferredPath,
					Summary: record.Summary,
				})
			}
		}
	}
	return matches
}

// searchLocal scans the monitored directory for file names similar to
// the query.
func (s *Searcher) searchLocal(query string) []FileMatch {
	entries, err := os.ReadDir(s.settings.MonitorDir)
	if err != nil {
		s.log.Warn("local search failed", "dir", s.settings.MonitorDir, "error", err)
		return nil
	}

	var matches []FileMatch
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if domain.IsGeneratedName(name) {
			continue
		}
		if !s.settings.ExtensionAllowed(filepath.Ext(name)) {
			continue
		}
		if similarity(query, name) > localMatchThreshold {
			matches = append(matches, FileMatch{
				Name:   name,
				Path:   filepath.Join(s.settings.MonitorDir, name),
				Source: sourceFilenameMatch,
			})
		}
	}
	return matches
}

// rank scores every match by a weighted blend of name, path and
// summary similarity, best first.
func (s *Searcher) rank(matches []FileMatch, query string) []FileMatch {
	for i := range matches {
		matches[i].Score = nameWeight*similarity(query, matches[i].Name) +
			pathWeight*similarity(query, matches[i].Path) +
			contentWeight*similarity(query, matches[i].Summary)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

func dedupeByPath(matches []FileMatch) []FileMatch {
	seen := make(map[string]bool, len(matches))
	unique := matches[:0]
	for _, m := range matches {
		if seen[m.Path] {
			continue
		}
		seen[m.Path] = true
		unique = append(unique, m)
	}
	return unique
}

// timeRef is a resolved temporal constraint from the query.
type timeRef struct {
	recent bool
	day    time.Time
}

// timeReference recognises relative time words in the query.
func timeReference(query string, now time.Time) (timeRef, bool) {
	lower := strings.ToLower(query)
	switch {
	case strings.Contains(query, "昨天") || strings.Contains(lower, "yesterday"):
		return timeRef{day: now.AddDate(0, 0, -1)}, true
	case strings.Contains(query, "今天") || strings.Contains(lower, "today"):
		return timeRef{day: now}, true
	case strings.Contains(query, "明天") || strings.Contains(lower, "tomorrow"):
		return timeRef{day: now.AddDate(0, 0, 1)}, true
	case strings.Contains(query, "上周") || strings.Contains(lower, "last week"):
		return timeRef{day: now.AddDate(0, 0, -7)}, true
	case strings.Contains(query, "最近") || strings.Contains(lower, "recent"):
		return timeRef{recent: true}, true
	}
	return timeRef{}, false
}

// filterByTime keeps matches whose modification time satisfies the
// reference. Files that cannot be stat'd are dropped.
func filterByTime(matches []FileMatch, ref timeRef) []FileMatch {
	var kept []FileMatch
	for _, m := range matches {
		info, err := os.Stat(m.Path)
		if err != nil {
			continue
		}
		if ref.recent {
			if time.Since(info.ModTime()) <= recentWindow {
				kept = append(kept, m)
			}
			continue
		}
		if sameDay(info.ModTime(), ref.day) {
			kept = append(kept, m)
		}
	}
	return kept
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
