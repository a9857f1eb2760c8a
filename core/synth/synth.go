// Package synth talks to the music-synthesis API: start an asynchronous
// generation job, then poll its status endpoint until the job succeeds,
// fails, or the attempt ceiling is reached.
package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mantrafm/logger"

	"github.com/google/uuid"
)

var (
	// ErrJobFailed means the provider explicitly rejected or failed the job.
	ErrJobFailed = errors.New("synthesis job failed")
	// ErrTimeout means the poll ceiling was reached. The job may still
	// finish on the provider's side later; that late result is not
	// reconciled here.
	ErrTimeout = errors.New("synthesis polling timed out")
)

// PollPolicy controls how job status is polled. Sleep is injectable so
// tests can run on virtual time.
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
	Sleep       func(ctx context.Context, d time.Duration) error
}

// DefaultPollPolicy matches the provider guidance: every 3 seconds, up to
// 120 attempts (about six minutes).
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Interval:    3 * time.Second,
		MaxAttempts: 120,
	}
}

func (p PollPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Config configures the synthesis client.
type Config struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Poll    PollPolicy
}

// Client is the synthesis API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	poll       PollPolicy
}

// NewClient creates a synthesis client.
func NewClient(cfg *Config) *Client {
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	// Zero fields fall back one by one; a caller-supplied Interval or
	// Sleep survives an unset MaxAttempts.
	def := DefaultPollPolicy()
	poll := cfg.Poll
	if poll.Interval <= 0 {
		poll.Interval = def.Interval
	}
	if poll.MaxAttempts <= 0 {
		poll.MaxAttempts = def.MaxAttempts
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		poll:       poll,
	}
}

// Request is one synthesis job request.
type Request struct {
	Lyrics     string
	StyleTags  string // composed genre + descriptors, see BuildStyleTags
	GenderCode string // single-character vocal gender code, see GenderCode
	Title      string
}

// Result is a finished synthesis job.
type Result struct {
	AudioURL string
	Duration float64
}

// BuildStyleTags composes the style string sent to the provider:
// "<genre>, <rhythm>, <style> <gender> voice", omitting unset pieces.
// The base form is "<genre>, <style descriptor>".
func BuildStyleTags(genre, rhythm, vocalGender, vocalStyle string) string {
	parts := []string{genre}
	if rhythm != "" {
		parts = append(parts, rhythm)
	}

	var vocal string
	switch {
	case vocalGender != "" && vocalStyle != "":
		vocal = fmt.Sprintf("%s %s voice", vocalStyle, vocalGender)
	case vocalGender != "":
		vocal = fmt.Sprintf("%s voice", vocalGender)
	case vocalStyle != "":
		vocal = fmt.Sprintf("%s vocals", vocalStyle)
	}
	if vocal != "" {
		parts = append(parts, vocal)
	}

	return strings.Join(parts, ", ")
}

// GenderCode maps a vocal gender to the provider's single-character code.
func GenderCode(vocalGender string) string {
	switch vocalGender {
	case "male":
		return "m"
	case "female":
		return "f"
	}
	return ""
}

type generateRequest struct {
	Lyrics           string `json:"lyrics"`
	Tags             string `json:"tags"`
	VocalGender      string `json:"vocal_gender,omitempty"`
	Title            string `json:"title"`
	MakeInstrumental bool   `json:"make_instrumental"`
	RequestID        string `json:"request_id"`
}

type generateResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
}

type statusResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		ID       string  `json:"id"`
		AudioURL string  `json:"audio_url"`
		Status   string  `json:"status"`
		Duration float64 `json:"duration"`
	} `json:"data"`
}

// Generate starts a synthesis job and polls until it resolves. The call
// blocks for the full poll loop; callers own their own timeout affordance.
// Failures are ErrJobFailed or ErrTimeout (via errors.Is), both terminal
// for the attempt.
func (c *Client) Generate(ctx context.Context, req *Request) (*Result, error) {
	taskID, err := c.start(ctx, req)
	if err != nil {
		return nil, err
	}

	logger.Info("[Synth] Job started",
		logger.String("taskId", taskID),
		logger.String("tags", req.StyleTags))

	for attempt := 1; attempt <= c.poll.MaxAttempts; attempt++ {
		if err := c.poll.sleep(ctx, c.poll.Interval); err != nil {
			return nil, fmt.Errorf("synthesis wait interrupted: %w", err)
		}

		result, done, err := c.check(ctx, taskID)
		if err != nil {
			// Transient status-check failures count as an attempt and
			// the loop keeps going, matching the provider contract that
			// anything short of explicit success/failure means "still
			// processing".
			if errors.Is(err, ErrJobFailed) {
				return nil, err
			}
			logger.Warn("[Synth] Status check failed",
				logger.String("taskId", taskID),
				logger.Int("attempt", attempt),
				logger.ErrorField(err))
			continue
		}
		if done {
			logger.Info("[Synth] Job completed",
				logger.String("taskId", taskID),
				logger.Int("attempts", attempt))
			return result, nil
		}

		logger.Debug("[Synth] Still processing",
			logger.String("taskId", taskID),
			logger.Int("attempt", attempt))
	}

	return nil, fmt.Errorf("job %s did not resolve within %d attempts: %w", taskID, c.poll.MaxAttempts, ErrTimeout)
}

// start submits the generation job and returns the provider task ID.
func (c *Client) start(ctx context.Context, req *Request) (string, error) {
	body := generateRequest{
		Lyrics:      req.Lyrics,
		Tags:        req.StyleTags,
		VocalGender: req.GenderCode,
		Title:       req.Title,
		RequestID:   uuid.NewString(),
	}
	if body.Title == "" {
		body.Title = "Mantra Song"
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/custom_generate", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call synthesis service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("synthesis service returned status %d: %s", resp.StatusCode, string(data))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("failed to decode generate response: %w", err)
	}
	if genResp.Code != 200 {
		return "", fmt.Errorf("synthesis service rejected the job: %s", genResp.Msg)
	}
	if genResp.Data.TaskID == "" {
		return "", fmt.Errorf("synthesis service returned no task ID")
	}
	return genResp.Data.TaskID, nil
}

// check polls the job once. done is true only on explicit success;
// an explicit failure code returns ErrJobFailed; every other status keeps
// the loop polling.
func (c *Client) check(ctx context.Context, taskID string) (*Result, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get?ids="+taskID, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create status request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, false, fmt.Errorf("status check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("status check returned %d", resp.StatusCode)
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, false, fmt.Errorf("failed to decode status response: %w", err)
	}
	if status.Code != 200 || len(status.Data) == 0 {
		return nil, false, nil
	}

	job := status.Data[0]
	switch job.Status {
	case "complete":
		if job.AudioURL == "" {
			// Complete without audio is not a success yet.
			return nil, false, nil
		}
		return &Result{AudioURL: job.AudioURL, Duration: job.Duration}, true, nil
	case "error":
		return nil, false, fmt.Errorf("job %s: %w", taskID, ErrJobFailed)
	}
	return nil, false, nil
}
