// Package drafting talks to the card drafting service, which turns raw page
// text into front/back card candidates.
package drafting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ederson/cardforge/internal/logger"
	"github.com/ederson/cardforge/internal/models"
)

// Mode selects how the drafter treats the input text.
type Mode string

const (
	// ModeExtract pulls out question/answer pairs already present in the text.
	ModeExtract Mode = "extract"
	// ModeGenerate writes new questions covering the text's content.
	ModeGenerate Mode = "generate"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        logger.Default().WithPrefix("drafting"),
	}
}

type draftReq struct {
	Text        string   `json:"text"`
	Mode        Mode     `json:"mode"`
	DefaultTags []string `json:"defaultTags,omitempty"`
}

type draftResp struct {
	Drafts []models.CardDraft `json:"drafts"`
}

// Draft asks the drafter for card candidates from the given text. Default
// tags are a hint for the drafter to apply to every candidate. An empty
// slice with a nil error means the text genuinely yields no cards; callers
// treat that as success.
func (c *Client) Draft(ctx context.Context, text string, mode Mode, defaultTags []string) ([]models.CardDraft, error) {
	log := logger.FromContext(ctx).WithPrefix("drafting")
	reqURL := c.baseURL + "/drafts"

	payload, err := json.Marshal(draftReq{Text: text, Mode: mode, DefaultTags: defaultTags})
	if err != nil {
		return nil, err
	}

	log.Debug("requesting drafts: mode=%s, text_len=%d", mode, len(text))
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		log.Error("failed to create request: %v", err)
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("failed to request drafts: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	log.Debug("draft response received in %v, status=%d", time.Since(start), resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Error("draft request failed: status=%d, body=%s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("draft status %d: %s", resp.StatusCode, string(body))
	}

	var out draftResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Error("failed to decode draft response: %v", err)
		return nil, err
	}

	log.Info("drafter returned %d candidates", len(out.Drafts))
	return out.Drafts, nil
}
