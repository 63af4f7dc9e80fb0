// Package api is the HTTP client for the Insightify analysis service.
// The service exposes three endpoints: job initiate, per-file analyse,
// and job finalise. This package only shapes requests and classifies
// responses; retry and throttling live with the callers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insightify/insightify-cli/internal/config"
)

// subscriptionKeyHeader authenticates every request at the API gateway.
const subscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

// maxErrorBody caps how much of an error response body is captured into
// error messages.
const maxErrorBody = 2048

// FilePayload is the analyse-file request body.
type FilePayload struct {
	FilePath     string `json:"filePath"`
	FileType     string `json:"fileType"`
	FileContents string `json:"fileContents"`
}

// ReportLinks is the finalise response: the locations of the generated
// reports.
type ReportLinks struct {
	ReportURL    string `json:"reportUrl"`
	PDFURL       string `json:"pdfUrl"`
	LLMPromptURL string `json:"llmPromptUrl"`
}

// Client talks to the analysis service. It is safe for concurrent use.
type Client struct {
	http *http.Client
	cfg  *config.Config
	log  zerolog.Logger
}

// NewClient builds a client from the process configuration. Timeouts are
// applied per request through contexts, not on the http.Client.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	return &Client{
		http: &http.Client{},
		cfg:  cfg,
		log:  log,
	}
}

// InitiateJob opens a new analysis job and returns its id.
func (c *Client) InitiateJob(ctx context.Context) (string, error) {
	var resp struct {
		JobID string `json:"jobId"`
	}
	if err := c.do(ctx, http.MethodGet, "jobs-initiate", nil, &resp); err != nil {
		return "", fmt.Errorf("initiating job: %w", err)
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("initiating job: service returned no jobId")
	}
	return resp.JobID, nil
}

// AnalyseFile submits one file to an open job. The response body is not
// required and is discarded.
func (c *Client) AnalyseFile(ctx context.Context, jobID string, payload FilePayload) error {
	p := fmt.Sprintf("jobs/%s/analyse-file", url.PathEscape(jobID))
	if err := c.do(ctx, http.MethodPost, p, payload, nil); err != nil {
		return fmt.Errorf("analysing %s: %w", payload.FilePath, err)
	}
	return nil
}

// FinaliseJob closes the job and returns the report locations. Callers
// should pass a context with a generous deadline: report generation is a
// long-running server operation.
func (c *Client) FinaliseJob(ctx context.Context, jobID string) (*ReportLinks, error) {
	var links ReportLinks
	p := fmt.Sprintf("jobs/%s/finalise", url.PathEscape(jobID))
	if err := c.do(ctx, http.MethodPost, p, nil, &links); err != nil {
		return nil, fmt.Errorf("finalising job %s: %w", jobID, err)
	}
	return &links, nil
}

// endpoint builds the full URL for a service path. The local debug host
// serves functions under an /api/ prefix and needs no code parameter;
// production drops the prefix and carries the key as a query parameter
// in addition to the header.
func (c *Client) endpoint(path string) string {
	if c.cfg.Debug {
		return fmt.Sprintf("%s/api/%s", c.cfg.Host, path)
	}
	return fmt.Sprintf("%s/%s?code=%s", c.cfg.Host, path, url.QueryEscape(c.cfg.SubscriptionKey))
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set(subscriptionKeyHeader, c.cfg.SubscriptionKey)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request complete")

	if resp.StatusCode >= 400 {
		return newStatusError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
