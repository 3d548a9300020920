package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/strideapp/stride/internal/core/logging"
	"github.com/strideapp/stride/internal/core/program"
)

const defaultTimeout = 15 * time.Second

// Client is the HTTP implementation of Service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

var _ Service = (*Client)(nil)

// NewClient creates a client for the progress API at baseURL. The token is
// sent as a bearer credential on every request.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     logging.Component("remote"),
	}
}

// GetActiveProgram returns the active program snapshot, or ErrNotFound.
func (c *Client) GetActiveProgram(ctx context.Context) (program.Snapshot, error) {
	var snap program.Snapshot
	if err := c.get(ctx, "/v1/programs/active", &snap); err != nil {
		return program.Snapshot{}, err
	}
	return snap, nil
}

// GetTodayTracker returns today's checklist and symptom definitions.
func (c *Client) GetTodayTracker(ctx context.Context, programType program.Type) (TrackerView, error) {
	var view TrackerView
	path := fmt.Sprintf("/v1/programs/%s/tracker/today", url.PathEscape(string(programType)))
	if err := c.get(ctx, path, &view); err != nil {
		return TrackerView{}, err
	}
	return view, nil
}

// UpdateChecklist persists today's checklist state.
func (c *Client) UpdateChecklist(ctx context.Context, programType program.Type, update ChecklistUpdate) error {
	path := fmt.Sprintf("/v1/programs/%s/tracker/today", url.PathEscape(string(programType)))
	return c.send(ctx, http.MethodPut, path, update, nil)
}

// CompleteDay marks the current day done via the dedicated transition
// endpoint.
func (c *Client) CompleteDay(ctx context.Context, programType program.Type) (DayResult, error) {
	var result DayResult
	path := fmt.Sprintf("/v1/programs/%s/days/complete", url.PathEscape(string(programType)))
	if err := c.send(ctx, http.MethodPost, path, nil, &result); err != nil {
		return DayResult{}, err
	}
	return result, nil
}

// MarkCelebrationShown records the celebration flag.
func (c *Client) MarkCelebrationShown(ctx context.Context, programType program.Type) error {
	path := fmt.Sprintf("/v1/programs/%s/celebration", url.PathEscape(string(programType)))
	return c.send(ctx, http.MethodPost, path, nil, nil)
}

// PauseProgram pauses the active program.
func (c *Client) PauseProgram(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/v1/programs/active/pause", nil, nil)
}

// ResumeProgram resumes a paused program.
func (c *Client) ResumeProgram(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/v1/programs/active/resume", nil, nil)
}

// StopProgram ends the program identified by programID.
func (c *Client) StopProgram(ctx context.Context, programID string) error {
	path := fmt.Sprintf("/v1/programs/%s/stop", url.PathEscape(programID))
	return c.send(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	return c.send(ctx, http.MethodGet, path, nil, dest)
}

func (c *Client) send(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: marshal body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(method, path, resp)
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) apiError(method, path string, resp *http.Response) error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, &payload)
	}

	msg := payload.Message
	if msg == "" {
		msg = payload.Error
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("api error")

	return fmt.Errorf("%s %s: %w", method, path, &APIError{
		StatusCode: resp.StatusCode,
		Message:    msg,
	})
}
