// Package extract talks to the document extraction service, which serves the
// per-page text of uploaded source documents.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ederson/cardforge/internal/logger"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.Default().WithPrefix("extract"),
	}
}

type pageResp struct {
	SourceID   string `json:"sourceId"`
	PageNumber int    `json:"pageNumber"`
	Text       string `json:"text"`
}

type documentResp struct {
	SourceID   string `json:"sourceId"`
	TotalPages int    `json:"totalPages"`
}

// ExtractPageText fetches the text of one page of a source document.
func (c *Client) ExtractPageText(ctx context.Context, sourceID string, pageNumber int) (string, error) {
	log := logger.FromContext(ctx).WithPrefix("extract").WithField("source_id", sourceID)
	reqURL := fmt.Sprintf("%s/documents/%s/pages/%d", c.baseURL, url.PathEscape(sourceID), pageNumber)

	log.Debug("extracting page %d from: %s", pageNumber, reqURL)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		log.Error("failed to create request: %v", err)
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("failed to extract page: %v", err)
		return "", err
	}
	defer resp.Body.Close()

	log.Debug("extract response received in %v, status=%d", time.Since(start), resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Error("extract request failed: status=%d, body=%s", resp.StatusCode, string(body))
		return "", fmt.Errorf("extract page %d status %d: %s", pageNumber, resp.StatusCode, string(body))
	}

	var out pageResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Error("failed to decode extract response: %v", err)
		return "", err
	}
	return out.Text, nil
}

// TotalPages reports how many pages a source document has.
func (c *Client) TotalPages(ctx context.Context, sourceID string) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("extract").WithField("source_id", sourceID)
	reqURL := fmt.Sprintf("%s/documents/%s", c.baseURL, url.PathEscape(sourceID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		log.Error("failed to create request: %v", err)
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("failed to fetch document info: %v", err)
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Error("document info request failed: status=%d, body=%s", resp.StatusCode, string(body))
		return 0, fmt.Errorf("document %s status %d: %s", sourceID, resp.StatusCode, string(body))
	}

	var out documentResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Error("failed to decode document info: %v", err)
		return 0, err
	}

	log.Info("document %s has %d pages", sourceID, out.TotalPages)
	return out.TotalPages, nil
}
