package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"
	"github.com/jjenkins/lawwatch/internal/model"
)

const (
	searchPath   = "/lawSearch.do"
	detailPath   = "/lawService.do"
	revisionPath = "/lawRevisionService.do"

	defaultLawAPITimeout = 30 * time.Second
)

// LawClientConfig configures the law API client
type LawClientConfig struct {
	BaseURL string
	OC      string // organization credential issued by the API operator
	Timeout time.Duration
}

// LawClient handles communication with the legal-text API.
// Failures are logged here and returned as ErrFetch or ErrParse; there are no retries.
type LawClient struct {
	client *resty.Client
	parser *Parser
	oc     string
	logger *log.Logger
}

// NewLawClient creates a new law API client
func NewLawClient(cfg LawClientConfig, parser *Parser, logger *log.Logger) *LawClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultLawAPITimeout
	}

	return &LawClient{
		client: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/xml"),
		parser: parser,
		oc:     cfg.OC,
		logger: logger.WithPrefix("law-api"),
	}
}

// Search looks statutes up by name. The first result is conventionally the canonical one.
func (c *LawClient) Search(ctx context.Context, name string) ([]model.LawRecord, error) {
	body, err := c.fetch(ctx, searchPath, map[string]string{"query": name})
	if err != nil {
		return nil, err
	}

	records, err := c.parser.ExtractRecords(body, SearchRecordTag)
	if err != nil {
		c.logger.Warn("failed to parse search response", "query", name, "err", err)
		return nil, fmt.Errorf("failed to parse search response for %q: %w", name, err)
	}
	return records, nil
}

// FetchDetail retrieves one statute with its article text, or nil when the API has none
func (c *LawClient) FetchDetail(ctx context.Context, lawID string) (model.LawRecord, error) {
	body, err := c.fetch(ctx, detailPath, map[string]string{"ID": lawID})
	if err != nil {
		return nil, err
	}

	record, err := c.parser.ExtractRecord(body, DetailRecordTag)
	if err != nil {
		c.logger.Warn("failed to parse detail response", "id", lawID, "err", err)
		return nil, fmt.Errorf("failed to parse detail for law %s: %w", lawID, err)
	}
	return record, nil
}

// FetchRevisionHistory retrieves every revision of a statute
func (c *LawClient) FetchRevisionHistory(ctx context.Context, lawID string) ([]model.LawRecord, error) {
	body, err := c.fetch(ctx, revisionPath, map[string]string{"ID": lawID})
	if err != nil {
		return nil, err
	}

	records, err := c.parser.ExtractRecords(body, RevisionRecordTag)
	if err != nil {
		c.logger.Warn("failed to parse revision history", "id", lawID, "err", err)
		return nil, fmt.Errorf("failed to parse revision history for law %s: %w", lawID, err)
	}
	return records, nil
}

// fetch performs a single GET with the credential and XML type parameters
func (c *LawClient) fetch(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"OC":     c.oc,
			"target": "law",
			"type":   "XML",
		}).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		c.logger.Warn("request failed", "path", path, "err", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, path, err)
	}

	if resp.StatusCode() != http.StatusOK {
		c.logger.Warn("unexpected status code", "path", path, "status", resp.StatusCode())
		return nil, fmt.Errorf("%w: %s: unexpected status code: %d", ErrFetch, path, resp.StatusCode())
	}

	return resp.Body(), nil
}
