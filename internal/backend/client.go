// ABOUTME: HTTP client for a remote swim coaching backend.
// ABOUTME: Fetches workouts and commits lap times with retry on transient failures.
package backend

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

	"github.com/google/uuid"
	"github.com/harperreed/swim/internal/models"
	"go.uber.org/zap"
)

const maxAttempts = 3

// ErrRejected marks a 4xx response. Rejected requests are not retried.
var ErrRejected = errors.New("rejected by server")

// Client talks to the swim REST API over HTTP.
type Client struct {
	serverURL  string
	httpClient *http.Client
	log        *zap.Logger
	backoff    func(attempt int) time.Duration
}

// NewClient creates a new HTTP client for the swim server at serverURL.
func NewClient(serverURL string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log:     log,
		backoff: exponentialBackoff,
	}
}

// exponentialBackoff waits 1s, then 2s, between attempts.
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt-1)) * time.Second
}

// CreateSessionRequest is the body of POST /api/v1/sessions.
type CreateSessionRequest struct {
	WorkoutID uuid.UUID `json:"workout_id"`
	Notes     string    `json:"notes,omitempty"`
}

// ListWorkouts fetches the workout library.
func (c *Client) ListWorkouts(ctx context.Context) ([]*models.Workout, error) {
	var workouts []*models.Workout
	if err := c.do(ctx, http.MethodGet, "/api/v1/workouts", nil, &workouts); err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	return workouts, nil
}

// FetchWorkout fetches one workout by ID or unique ID prefix.
func (c *Client) FetchWorkout(ctx context.Context, id string) (*models.Workout, error) {
	var w models.Workout
	if err := c.do(ctx, http.MethodGet, "/api/v1/workouts/"+id, nil, &w); err != nil {
		return nil, fmt.Errorf("fetch workout: %w", err)
	}
	return &w, nil
}

// CreateSession starts a session for a workout on the server.
func (c *Client) CreateSession(ctx context.Context, workoutID uuid.UUID, notes string) (*models.Session, error) {
	var s models.Session
	req := CreateSessionRequest{WorkoutID: workoutID, Notes: notes}
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions", req, &s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &s, nil
}

// CommitTime sends one committed time. It satisfies session.Committer.
func (c *Client) CommitTime(ctx context.Context, rec *models.TimeRecord) error {
	path := "/api/v1/sessions/" + rec.SessionID.String() + "/times"
	if err := c.do(ctx, http.MethodPost, path, rec, nil); err != nil {
		return fmt.Errorf("commit time: %w", err)
	}
	return nil
}

// ListTimes fetches the committed times of a session.
func (c *Client) ListTimes(ctx context.Context, sessionID uuid.UUID) ([]*models.TimeRecord, error) {
	var records []*models.TimeRecord
	path := "/api/v1/sessions/" + sessionID.String() + "/times"
	if err := c.do(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, fmt.Errorf("list times: %w", err)
	}
	return records, nil
}

// do sends a JSON request, retrying up to maxAttempts times with exponential
// backoff on transport errors and 5xx responses. A 4xx response is returned
// immediately wrapped in ErrRejected.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var data []byte
	if in != nil {
		var err error
		data, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
	}

	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			c.log.Debug("retrying request",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		var body io.Reader
		if data != nil {
			body = bytes.NewReader(data)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		if data != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if out == nil || len(respBody) == 0 {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
			return nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return fmt.Errorf("%w (status %d): %s", ErrRejected, resp.StatusCode, errorMessage(respBody))
		default:
			lastErr = fmt.Errorf("request failed (status %d): %s", resp.StatusCode, errorMessage(respBody))
		}
	}

	c.log.Warn("request failed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Error(lastErr),
	)
	return fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

// errorMessage extracts {"error": "..."} from a response body, falling back
// to the raw body.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
