package service

import (
	"strings"

	"github.com/jjenkins/lawwatch/internal/model"
)

type section int

const (
	sectionNone section = iota
	sectionSummary
	sectionImpact
	sectionTasks
)

// SectionKeywords maps heading keywords to the section they open.
// Headings are checked in the order summary, impact, tasks.
type SectionKeywords struct {
	Summary []string
	Impact  []string
	Tasks   []string
}

// TaskRule assigns Type to a task whose text contains any of Keywords
type TaskRule struct {
	Type     model.TaskType
	Keywords []string
}

// DefaultSectionKeywords matches the headings requested in the analysis prompt
var DefaultSectionKeywords = SectionKeywords{
	Summary: []string{"주요 변경사항", "요약"},
	Impact:  []string{"영향"},
	Tasks:   []string{"후속 조치", "조치"},
}

// DefaultTaskRules in priority order; the first match wins
var DefaultTaskRules = []TaskRule{
	{Type: model.TaskManualUpdate, Keywords: []string{"매뉴얼", "절차서"}},
	{Type: model.TaskTraining, Keywords: []string{"교육", "훈련"}},
	{Type: model.TaskDocumentRevision, Keywords: []string{"ISO", "문서"}},
	{Type: model.TaskInspection, Keywords: []string{"점검", "확인"}},
}

// TaskCandidate is one bullet from the follow-up section
type TaskCandidate struct {
	Title string
	Type  model.TaskType
}

// Analysis is the structured form of a summarization response
type Analysis struct {
	Summary string
	Impact  string
	Tasks   []TaskCandidate
}

// SummaryExtractor splits free-form analysis prose into summary, impact and tasks.
// It never fails; text without recognizable headings yields an empty Analysis.
type SummaryExtractor struct {
	keywords SectionKeywords
	rules    []TaskRule
}

// NewSummaryExtractor creates an extractor with the default keyword tables
func NewSummaryExtractor() *SummaryExtractor {
	return NewSummaryExtractorWith(DefaultSectionKeywords, DefaultTaskRules)
}

// NewSummaryExtractorWith creates an extractor with custom keyword tables
func NewSummaryExtractorWith(keywords SectionKeywords, rules []TaskRule) *SummaryExtractor {
	return &SummaryExtractor{keywords: keywords, rules: rules}
}

// Extract scans text line by line. Lines before the first heading are dropped.
func (e *SummaryExtractor) Extract(text string) Analysis {
	var (
		summary []string
		impact  []string
		tasks   []TaskCandidate
		current = sectionNone
	)

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		bullet := isBullet(line)
		if !bullet {
			if next, ok := e.heading(line); ok {
				current = next
				continue
			}
		}

		switch current {
		case sectionSummary:
			summary = append(summary, line)
		case sectionImpact:
			impact = append(impact, line)
		case sectionTasks:
			if !bullet {
				continue
			}
			title := strings.TrimSpace(strings.TrimLeft(line, "-•"))
			if title == "" {
				continue
			}
			tasks = append(tasks, TaskCandidate{Title: title, Type: e.Classify(title)})
		}
	}

	return Analysis{
		Summary: strings.Join(summary, "\n"),
		Impact:  strings.Join(impact, "\n"),
		Tasks:   tasks,
	}
}

// Classify returns the type of the first rule with a matching keyword, or TaskOther
func (e *SummaryExtractor) Classify(task string) model.TaskType {
	for _, rule := range e.rules {
		if containsAny(task, rule.Keywords) {
			return rule.Type
		}
	}
	return model.TaskOther
}

func (e *SummaryExtractor) heading(line string) (section, bool) {
	switch {
	case containsAny(line, e.keywords.Summary):
		return sectionSummary, true
	case containsAny(line, e.keywords.Impact):
		return sectionImpact, true
	case containsAny(line, e.keywords.Tasks):
		return sectionTasks, true
	}
	return sectionNone, false
}

func isBullet(line string) bool {
	return strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•")
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}
