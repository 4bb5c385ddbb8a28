package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/models"
)

// LMSClient talks to the external LMS REST API. Every authenticated call goes
// through the same token check and the same error mapping.
type LMSClient interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Register(ctx context.Context, form *Form) error
	GetUser(ctx context.Context, token, id string) (*models.User, error)
	EditUser(ctx context.Context, token string, form *Form) (*EditUserResponse, error)
	ChangeAvatar(ctx context.Context, token string, form *Form) error

	ListAssignments(ctx context.Context, token string, sel models.Selection) ([]models.Assignment, error)
	CreateAssignment(ctx context.Context, token string, form *Form) error
	UpdateAssignment(ctx context.Context, token, id string, form *Form) error
	DeleteAssignment(ctx context.Context, token, id string) error
	SetAssignmentLock(ctx context.Context, token, id string, locked bool) error

	ListSubmissions(ctx context.Context, token string, filter SubmissionFilter) ([]models.Submission, error)
	GradeSubmission(ctx context.Context, token, id string, req GradeRequest) error
	SubmitAssignment(ctx context.Context, token string, form *Form) error
	Unsubmit(ctx context.Context, token, id string) error

	ListNotes(ctx context.Context, token string, sel models.Selection) ([]models.Note, error)
	CreateNote(ctx context.Context, token string, form *Form) error
	UpdateNote(ctx context.Context, token, id string, form *Form) error
	DeleteNote(ctx context.Context, token, id string) error

	CountStudents(ctx context.Context, token string, sel models.Selection) (int, error)
	CountAssignments(ctx context.Context, token string, sel models.Selection) (int, error)
	CountLectures(ctx context.Context, token string, sel models.Selection) (int, error)
}

type LoginResponse struct {
	Token  string      `json:"token"`
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Role   models.Role `json:"role"`
	Avatar string      `json:"avatar"`
	Course string      `json:"course"`
	Batch  string      `json:"batch"`
}

type EditUserResponse struct {
	AvatarURL string `json:"avatarUrl"`
}

type SubmissionFilter struct {
	AssignmentID string
	StudentID    string
}

type GradeRequest struct {
	Marks    float64 `json:"marks"`
	Comments string  `json:"comments"`
}

type lmsClient struct {
	baseURL    string
	retryCount int
	retryDelay time.Duration
	client     *http.Client
	logger     zerolog.Logger
	now        func() time.Time
}

func NewLMSClient(baseURL string, timeout time.Duration, retryCount int, retryDelay time.Duration, logger zerolog.Logger) LMSClient {
	return &lmsClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		retryCount: retryCount,
		retryDelay: retryDelay,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With().Str("component", "lms_client").Logger(),
		now:    time.Now,
	}
}

// call describes one request to the LMS API.
type call struct {
	method      string
	path        string
	query       url.Values
	token       string
	auth        bool
	body        []byte
	contentType string
	out         interface{}
}

func (c *lmsClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("failed to encode credentials: %w", err)
	}

	var resp LoginResponse
	err = c.send(ctx, call{
		method:      http.MethodPost,
		path:        "/users/login",
		body:        body,
		contentType: "application/json",
		out:         &resp,
	})
	if err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.ID == "" {
		return nil, errors.New("login response is missing token or id")
	}
	return &resp, nil
}

func (c *lmsClient) Register(ctx context.Context, form *Form) error {
	return c.sendForm(ctx, http.MethodPost, "/users/register", "", false, form, nil)
}

func (c *lmsClient) GetUser(ctx context.Context, token, id string) (*models.User, error) {
	var user wireUser
	err := c.send(ctx, call{
		method: http.MethodGet,
		path:   "/users/" + url.PathEscape(id),
		token:  token,
		auth:   true,
		out:    &user,
	})
	if err != nil {
		return nil, err
	}
	out := models.User(user)
	return &out, nil
}

func (c *lmsClient) EditUser(ctx context.Context, token string, form *Form) (*EditUserResponse, error) {
	var resp EditUserResponse
	if err := c.sendForm(ctx, http.MethodPatch, "/users/edit-user", token, true, form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *lmsClient) ChangeAvatar(ctx context.Context, token string, form *Form) error {
	return c.sendForm(ctx, http.MethodPost, "/users/change-avatar", token, true, form, nil)
}

func (c *lmsClient) ListAssignments(ctx context.Context, token string, sel models.Selection) ([]models.Assignment, error) {
	var items []wireAssignment
	err := c.send(ctx, call{
		method: http.MethodGet,
		path:   "/assignments/filter",
		query:  selectionQuery(sel),
		token:  token,
		auth:   true,
		out:    &items,
	})
	if err != nil {
		return nil, err
	}
	return fromWire(items, func(w wireAssignment) models.Assignment { return models.Assignment(w) }), nil
}

func (c *lmsClient) CreateAssignment(ctx context.Context, token string, form *Form) error {
	return c.sendForm(ctx, http.MethodPost, "/assignments", token, true, form, nil)
}

func (c *lmsClient) UpdateAssignment(ctx context.Context, token, id string, form *Form) error {
	return c.sendForm(ctx, http.MethodPatch, "/assignments/"+url.PathEscape(id), token, true, form, nil)
}

func (c *lmsClient) DeleteAssignment(ctx context.Context, token, id string) error {
	return c.send(ctx, call{
		method: http.MethodDelete,
		path:   "/assignments/" + url.PathEscape(id),
		token:  token,
		auth:   true,
	})
}

func (c *lmsClient) SetAssignmentLock(ctx context.Context, token, id string, locked bool) error {
	body, err := json.Marshal(map[string]bool{"locked": locked})
	if err != nil {
		return err
	}
	return c.send(ctx, call{
		method:      http.MethodPatch,
		path:        "/assignments/" + url.PathEscape(id) + "/lock",
		token:       token,
		auth:        true,
		body:        body,
		contentType: "application/json",
	})
}

func (c *lmsClient) ListSubmissions(ctx context.Context, token string, filter SubmissionFilter) ([]models.Submission, error) {
	q := url.Values{}
	if filter.AssignmentID != "" {
		q.Set("assignmentId", filter.AssignmentID)
	}
	if filter.StudentID != "" {
		q.Set("studentId", filter.StudentID)
	}

	var items []wireSubmission
	err := c.send(ctx, call{
		method: http.MethodGet,
		path:   "/assignments/submissions",
		query:  q,
		token:  token,
		auth:   true,
		out:    &items,
	})
	if err != nil {
		return nil, err
	}
	return fromWire(items, func(w wireSubmission) models.Submission { return models.Submission(w) }), nil
}

func (c *lmsClient) GradeSubmission(ctx context.Context, token, id string, req GradeRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return c.send(ctx, call{
		method:      http.MethodPut,
		path:        "/assignments/submissions/" + url.PathEscape(id),
		token:       token,
		auth:        true,
		body:        body,
		contentType: "application/json",
	})
}

func (c *lmsClient) SubmitAssignment(ctx context.Context, token string, form *Form) error {
	return c.sendForm(ctx, http.MethodPost, "/assignments/submit", token, true, form, nil)
}

func (c *lmsClient) Unsubmit(ctx context.Context, token, id string) error {
	return c.send(ctx, call{
		method: http.MethodDelete,
		path:   "/assignments/unsubmit/" + url.PathEscape(id),
		token:  token,
		auth:   true,
	})
}

func (c *lmsClient) ListNotes(ctx context.Context, token string, sel models.Selection) ([]models.Note, error) {
	var items []wireNote
	err := c.send(ctx, call{
		method: http.MethodGet,
		path:   "/notes/filter",
		query:  selectionQuery(sel),
		token:  token,
		auth:   true,
		out:    &items,
	})
	if err != nil {
		return nil, err
	}
	return fromWire(items, func(w wireNote) models.Note { return models.Note(w) }), nil
}

func (c *lmsClient) CreateNote(ctx context.Context, token string, form *Form) error {
	return c.sendForm(ctx, http.MethodPost, "/notes", token, true, form, nil)
}

func (c *lmsClient) UpdateNote(ctx context.Context, token, id string, form *Form) error {
	return c.sendForm(ctx, http.MethodPatch, "/notes/"+url.PathEscape(id), token, true, form, nil)
}

func (c *lmsClient) DeleteNote(ctx context.Context, token, id string) error {
	return c.send(ctx, call{
		method: http.MethodDelete,
		path:   "/notes/" + url.PathEscape(id),
		token:  token,
		auth:   true,
	})
}

func (c *lmsClient) CountStudents(ctx context.Context, token string, sel models.Selection) (int, error) {
	var resp struct {
		StudentCount int `json:"studentCount"`
	}
	if err := c.count(ctx, "/students/count", token, sel, &resp); err != nil {
		return 0, err
	}
	return resp.StudentCount, nil
}

func (c *lmsClient) CountAssignments(ctx context.Context, token string, sel models.Selection) (int, error) {
	var resp struct {
		TotalAssignments int `json:"totalAssignments"`
	}
	if err := c.count(ctx, "/assignments/count", token, sel, &resp); err != nil {
		return 0, err
	}
	return resp.TotalAssignments, nil
}

func (c *lmsClient) CountLectures(ctx context.Context, token string, sel models.Selection) (int, error) {
	var resp struct {
		TotalLectures int `json:"totalLectures"`
	}
	if err := c.count(ctx, "/lectures/count", token, sel, &resp); err != nil {
		return 0, err
	}
	return resp.TotalLectures, nil
}

func (c *lmsClient) count(ctx context.Context, path, token string, sel models.Selection, out interface{}) error {
	return c.send(ctx, call{
		method: http.MethodGet,
		path:   path,
		query:  selectionQuery(sel),
		token:  token,
		auth:   true,
		out:    out,
	})
}

func (c *lmsClient) sendForm(ctx context.Context, method, path, token string, auth bool, form *Form, out interface{}) error {
	body, contentType, err := form.encode()
	if err != nil {
		return err
	}
	return c.send(ctx, call{
		method:      method,
		path:        path,
		token:       token,
		auth:        auth,
		body:        body,
		contentType: contentType,
		out:         out,
	})
}

// send performs the call. Only idempotent methods are retried, and only on
// transport errors and 5xx answers.
func (c *lmsClient) send(ctx context.Context, cl call) error {
	if cl.auth {
		if err := checkToken(cl.token, c.now()); err != nil {
			c.logger.Debug().Err(err).Str("path", cl.path).Msg("Request skipped")
			return err
		}
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	attempts := 1
	if idempotent(cl.method) && c.retryCount > 0 {
		attempts += c.retryCount
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			c.logger.Warn().Int("attempt", i).Str("path", cl.path).Msg("Retrying LMS request")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(i)):
			}
		}

		retry, err := c.attempt(ctx, target, cl)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
	}

	return lastErr
}

func (c *lmsClient) attempt(ctx context.Context, target string, cl call) (bool, error) {
	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return true, fmt.Errorf("lms request %s %s failed: %w", cl.method, cl.path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", cl.method).
		Str("path", cl.path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("LMS response")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if cl.out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return false, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("failed to decode response: %w", err)
		}
		return false, nil
	}

	apiErr := &APIError{Status: resp.StatusCode, Message: readMessage(resp.Body)}
	if cl.auth && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		return false, fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
	}

	return resp.StatusCode >= 500, apiErr
}

func readMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		return payload.Error
	}
	return ""
}

func selectionQuery(sel models.Selection) url.Values {
	q := url.Values{}
	q.Set("course", sel.Course)
	q.Set("batch", sel.Batch)
	return q
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}
