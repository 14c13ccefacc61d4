// client/client.go

// Package client is the typed REST client for the /api notes and folders
// surface. Each call issues exactly one request; there is no retry.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/vinizap/lumi-notes/auth"
	"github.com/vinizap/lumi-notes/domain"
)

// Failure messages shown to the user, one per operation.
const (
	MsgFetchNotes   = "Failed to fetch notes"
	MsgAddNote      = "Failed to add note"
	MsgUpdateNote   = "Failed to update note"
	MsgDeleteNote   = "Failed to delete note"
	MsgFetchFolders = "Failed to fetch folders"
	MsgCreateFolder = "Failed to create folder"
	MsgUpdateFolder = "Failed to update folder"
	MsgDeleteFolder = "Failed to delete folder"
)

const defaultTimeout = 30 * time.Second

// Error is returned for any non-2xx response or transport failure.
type Error struct {
	Message string
	Status  int    // 0 when no response arrived
	Detail  string // server-provided detail, if any
	cause   error
}

func (e *Error) Error() string {
	switch {
	case e.cause != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	case e.Detail != "":
		return fmt.Sprintf("%s: %d %s", e.Message, e.Status, e.Detail)
	default:
		return fmt.Sprintf("%s: status %d", e.Message, e.Status)
	}
}

func (e *Error) Unwrap() error {
	return e.cause
}

type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	log     zerolog.Logger
}

type Option func(*Client)

// WithToken sends token in the auth header on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for the API rooted at baseURL, e.g.
// "http://localhost:8080/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListNotes(ctx context.Context) ([]domain.Note, error) {
	var notes []domain.Note
	if err := c.do(ctx, fiber.MethodGet, "/notes", nil, &notes, MsgFetchNotes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *Client) CreateNote(ctx context.Context, in domain.NoteInput) (domain.Note, error) {
	var note domain.Note
	err := c.do(ctx, fiber.MethodPost, "/notes", in, &note, MsgAddNote)
	return note, err
}

// UpdateNote sends the full record; fields left empty are cleared.
func (c *Client) UpdateNote(ctx context.Context, id int64, in domain.NoteInput) (domain.Note, error) {
	var note domain.Note
	err := c.do(ctx, fiber.MethodPut, fmt.Sprintf("/notes/%d", id), in, &note, MsgUpdateNote)
	return note, err
}

func (c *Client) DeleteNote(ctx context.Context, id int64) error {
	return c.do(ctx, fiber.MethodDelete, fmt.Sprintf("/notes/%d", id), nil, nil, MsgDeleteNote)
}

func (c *Client) ListFolders(ctx context.Context) ([]domain.Folder, error) {
	var folders []domain.Folder
	if err := c.do(ctx, fiber.MethodGet, "/folders", nil, &folders, MsgFetchFolders); err != nil {
		return nil, err
	}
	return folders, nil
}

func (c *Client) CreateFolder(ctx context.Context, in domain.FolderInput) (domain.Folder, error) {
	var folder domain.Folder
	err := c.do(ctx, fiber.MethodPost, "/folders", in, &folder, MsgCreateFolder)
	return folder, err
}

func (c *Client) UpdateFolder(ctx context.Context, id int64, in domain.FolderInput) (domain.Folder, error) {
	var folder domain.Folder
	err := c.do(ctx, fiber.MethodPut, fmt.Sprintf("/folders/%d", id), in, &folder, MsgUpdateFolder)
	return folder, err
}

func (c *Client) DeleteFolder(ctx context.Context, id int64) error {
	return c.do(ctx, fiber.MethodDelete, fmt.Sprintf("/folders/%d", id), nil, nil, MsgDeleteFolder)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, failMsg string) error {
	if err := ctx.Err(); err != nil {
		return &Error{Message: failMsg, cause: err}
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if c.token != "" {
		req.Header.Set(auth.HeaderToken, c.token)
	}
	if body != nil {
		agent.JSON(body)
	}
	if timeout := c.requestTimeout(ctx); timeout > 0 {
		agent.Timeout(timeout)
	}

	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return &Error{Message: failMsg, cause: err}
	}

	status, data, errs := agent.Bytes()
	if len(errs) > 0 {
		c.log.Warn().Errs("errors", errs).Str("method", method).Str("path", path).Msg("request failed")
		return &Error{Message: failMsg, cause: errors.Join(errs...)}
	}
	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		detail := errorDetail(data)
		c.log.Warn().Int("status", status).Str("detail", detail).Str("method", method).Str("path", path).Msg("request rejected")
		return &Error{Message: failMsg, Status: status, Detail: detail}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return &Error{Message: failMsg, Status: status, cause: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

// requestTimeout is the configured timeout, shortened to the context deadline.
func (c *Client) requestTimeout(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); timeout <= 0 || until < timeout {
			timeout = until
		}
	}
	return timeout
}

// errorDetail extracts "detail" from an error body, falling back to the raw text.
func errorDetail(data []byte) string {
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != nil {
		if s, ok := body.Detail.(string); ok {
			return s
		}
		raw, _ := json.Marshal(body.Detail)
		return string(raw)
	}
	return strings.TrimSpace(string(data))
}
