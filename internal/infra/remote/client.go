package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"risk-assessment-service/internal/domain"
	"risk-assessment-service/internal/profile"
)

// Connectivity is the subset of app.ConnectivityService the client needs.
type Connectivity interface {
	Available() bool
	MarkUnavailable()
}

// Client talks to the classification backend. Every failure it returns
// matches domain.ErrTransient.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	conn    Connectivity
	logger  *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithConnectivity gates requests on backend availability and reports network failures.
func WithConnectivity(conn Connectivity) Option {
	return func(c *Client) { c.conn = conn }
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type startRequest struct {
	PatientID string `json:"patientId"`
}

type startResponse struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message,omitempty"`
}

type submitRequest struct {
	SessionID  string `json:"sessionId"`
	PatientID  string `json:"patientId"`
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

type completeRequest struct {
	SessionID      string                 `json:"sessionId"`
	PatientID      string                 `json:"patientId"`
	Classification *domain.Classification `json:"classification,omitempty"`
}

type completeResponse struct {
	SessionID      string                 `json:"sessionId,omitempty"`
	Classification *domain.Classification `json:"classification"`
	Message        string                 `json:"message,omitempty"`
}

type profileStatusResponse struct {
	ProfileCompleted bool `json:"profileCompleted"`
}

// LoadQuestions fetches the questions carrying tag, in backend order.
func (c *Client) LoadQuestions(ctx context.Context, tag string) ([]domain.Question, error) {
	var questions []domain.Question
	if err := c.do(ctx, "load questions", http.MethodGet, "/api/questions/question_tag/"+url.PathEscape(tag), nil, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// QuestionByNumber fetches one question. A null body maps to ErrQuestionNotFound.
func (c *Client) QuestionByNumber(ctx context.Context, number int) (domain.Question, error) {
	var q *domain.Question
	if err := c.do(ctx, "question by number", http.MethodGet, "/api/questions/question_number/"+strconv.Itoa(number), nil, &q); err != nil {
		return domain.Question{}, err
	}
	if q == nil || q.ID == "" {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return *q, nil
}

// StartSession asks the backend for a new classification session ID.
func (c *Client) StartSession(ctx context.Context, patientID string) (string, error) {
	var resp startResponse
	if err := c.do(ctx, "start session", http.MethodPost, "/api/classification/start", startRequest{PatientID: patientID}, &resp); err != nil {
		return "", err
	}
	if resp.SessionID == "" {
		return "", domain.Transientf("start session", "backend returned no session id")
	}
	return resp.SessionID, nil
}

// SubmitResponse forwards one answer.
func (c *Client) SubmitResponse(ctx context.Context, sessionID, patientID, questionID, answer string) error {
	return c.do(ctx, "submit response", http.MethodPost, "/api/classification/submit-response", submitRequest{
		SessionID:  sessionID,
		PatientID:  patientID,
		QuestionID: questionID,
		Answer:     answer,
	}, nil)
}

// CompleteSession closes the session. The classification is nil when the
// backend did not produce one.
func (c *Client) CompleteSession(ctx context.Context, sessionID, patientID string) (*domain.Classification, error) {
	var resp completeResponse
	if err := c.do(ctx, "complete session", http.MethodPost, "/api/classification/complete", completeRequest{
		SessionID: sessionID,
		PatientID: patientID,
	}, &resp); err != nil {
		return nil, err
	}
	return resp.Classification, nil
}

// Persist implements app.ProfileSync through the complete-and-update endpoint.
func (c *Client) Persist(ctx context.Context, sessionID, patientID string, classification domain.Classification) error {
	return c.do(ctx, "update profile", http.MethodPost, "/api/classification/complete-and-update", completeRequest{
		SessionID:      sessionID,
		PatientID:      patientID,
		Classification: &classification,
	}, nil)
}

// ProfileCompleted reports whether the patient already has a classification on file.
func (c *Client) ProfileCompleted(ctx context.Context, patientID string) (bool, error) {
	var resp profileStatusResponse
	if err := c.do(ctx, "profile status", http.MethodGet, "/api/classification/profile-status/"+url.PathEscape(patientID), nil, &resp); err != nil {
		return false, err
	}
	return resp.ProfileCompleted, nil
}

// Profile fetches the backend side of the user profile.
func (c *Client) Profile(ctx context.Context) (profile.Profile, error) {
	var p profile.Profile
	if err := c.do(ctx, "load profile", http.MethodGet, "/api/user/profile", nil, &p); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

// Probe checks reachability. Any answer except 404 counts as reachable,
// including 401 from the dummy credentials. It bypasses the connectivity gate.
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/verify", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test")
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Transient("probe", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return domain.Transientf("probe", "verify endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	if c.conn != nil && !c.conn.Available() {
		return domain.ErrBackendUnavailable
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if c.conn != nil && isUnreachable(err) {
			c.conn.MarkUnavailable()
		}
		return domain.Transient(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("backend request failed", "op", op, "status", resp.StatusCode, "body", string(snippet))
		return domain.Transientf(op, "backend returned %d", resp.StatusCode)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return domain.Transient(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// isUnreachable separates network failures and timeouts from caller cancellation.
func isUnreachable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
