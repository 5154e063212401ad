package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

const (
	// MaxAnalysisChars bounds the article text sent for summarization
	MaxAnalysisChars = 5000
	// MinAnalysisChars is the length text must exceed to be worth summarizing
	MinAnalysisChars = 100

	PlaceholderNoContent   = "개정 내용 요약 없음"
	PlaceholderDisabled    = "(AI 분석 비활성화) 개정 내용을 확인하세요."
	PlaceholderUnavailable = "(AI 분석 실패) 개정 내용을 확인하세요."

	defaultSummaryMaxTokens = 2000
)

// SummaryRequest is one call to the summarization service
type SummaryRequest struct {
	LawName     string
	Content     string
	DomainLabel string
}

// Summarizer turns amendment text into free-form analysis prose
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (string, error)
}

// LLMSummarizer implements Summarizer over a langchaingo model
type LLMSummarizer struct {
	llm       llms.Model
	maxTokens int
}

// NewLLMSummarizer wraps an existing model
func NewLLMSummarizer(llm llms.Model) *LLMSummarizer {
	return &LLMSummarizer{llm: llm, maxTokens: defaultSummaryMaxTokens}
}

// NewAnthropicSummarizer creates a summarizer backed by the Anthropic API
func NewAnthropicSummarizer(apiKey, model string) (*LLMSummarizer, error) {
	llm, err := anthropic.New(anthropic.WithToken(apiKey), anthropic.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create anthropic client: %w", err)
	}
	return NewLLMSummarizer(llm), nil
}

// Summarize sends the analysis prompt and returns the model's text
func (s *LLMSummarizer) Summarize(ctx context.Context, req SummaryRequest) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, buildPrompt(req)),
	}

	resp, err := s.llm.GenerateContent(ctx, messages, llms.WithMaxTokens(s.maxTokens))
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", errors.New("summary response was empty")
	}
	return resp.Choices[0].Content, nil
}

func buildPrompt(req SummaryRequest) string {
	return fmt.Sprintf(`당신은 %s 전문가입니다. 안전감사팀을 위해 법령 개정 내용을 분석해주세요.

**법령명**: %s

**개정 내용**:
%s

다음 형식으로 분석해주세요:

1. **주요 변경사항 요약** (3-5줄로 핵심만)
2. **공사 업무에 미치는 영향** (구체적으로)
3. **필요한 후속 조치** (우선순위별로, 각 항목은 "- "로 시작)
   - 매뉴얼/절차서 수정 필요 사항
   - 직원 교육 필요 사항
   - ISO 문서 개정 필요 사항
   - 시설물 점검 항목 변경 사항

간결하고 실무적으로 작성해주세요.
`, req.DomainLabel, req.LawName, req.Content)
}

// Analyzer applies the summarization policy: length threshold, truncation,
// placeholder on absence or failure, and section extraction.
type Analyzer struct {
	summarizer  Summarizer
	extractor   *SummaryExtractor
	domainLabel string
	timeout     time.Duration
	logger      *log.Logger
}

// NewAnalyzer creates an Analyzer. A nil summarizer disables AI analysis.
func NewAnalyzer(summarizer Summarizer, extractor *SummaryExtractor, domainLabel string, timeout time.Duration, logger *log.Logger) *Analyzer {
	return &Analyzer{
		summarizer:  summarizer,
		extractor:   extractor,
		domainLabel: domainLabel,
		timeout:     timeout,
		logger:      logger,
	}
}

// Analyze never fails; every degraded path returns a placeholder summary with no tasks
func (a *Analyzer) Analyze(ctx context.Context, lawName, content string) Analysis {
	if utf8.RuneCountInString(content) <= MinAnalysisChars {
		return Analysis{Summary: PlaceholderNoContent}
	}
	if a.summarizer == nil {
		return Analysis{Summary: PlaceholderDisabled}
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	text, err := a.summarizer.Summarize(ctx, SummaryRequest{
		LawName:     lawName,
		Content:     truncateRunes(content, MaxAnalysisChars),
		DomainLabel: a.domainLabel,
	})
	if err != nil {
		a.logger.Warn("summarization failed", "law", lawName, "err", err)
		return Analysis{Summary: PlaceholderUnavailable}
	}

	return a.extractor.Extract(text)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
