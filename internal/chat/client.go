// Package chat talks to the conversational form-filling backend and keeps the
// state of one chat session.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	derrors "github.com/Shashank-Shivakumar/Docfly/internal/errors"
	"github.com/Shashank-Shivakumar/Docfly/internal/logger"
)

const (
	DefaultBaseURL = "http://localhost:8000/api"
	DefaultTimeout = 30 * time.Second
)

// Response types sent by the backend
const (
	TypeQuestion        = "question"
	TypeCompleteMessage = "complete_message"
	TypeCheckList       = "check_list"
	TypeInputText       = "input_text"
)

// Client connects to the chat backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *logger.Logger) ClientOption {
	return func(c *Client) { c.log = logger.OrDiscard(l) }
}

// NewClient creates a new chat backend client.
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Progress is the position of the current question in the form
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// FieldDescriptor is one question as sent by the backend. FormField holds a
// field name for input_text questions and an object keyed by option label
// for check_list questions.
type FieldDescriptor struct {
	ID               string          `json:"_id"`
	DisplayText      string          `json:"display_text"`
	Question         string          `json:"question,omitempty"`
	Type             string          `json:"type"`
	FormField        json.RawMessage `json:"form_feild,omitempty"`
	NextQuestion     string          `json:"next_question,omitempty"`
	PreviousQuestion string          `json:"previous_question,omitempty"`
	Answer           string          `json:"answer,omitempty"`
}

// Prompt is the text shown to the user
func (f *FieldDescriptor) Prompt() string {
	if f.Question != "" {
		return f.Question
	}
	return f.DisplayText
}

// IsCheckList reports whether the question offers fixed options
func (f *FieldDescriptor) IsCheckList() bool {
	return f.Type == TypeCheckList
}

// Options returns the check_list option labels in the order the server sent
// them. Other question types have no options.
func (f *FieldDescriptor) Options() []string {
	if !f.IsCheckList() || len(f.FormField) == 0 {
		return nil
	}
	om := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(f.FormField, om); err != nil {
		return nil
	}
	opts := make([]string, 0, om.Len())
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		opts = append(opts, pair.Key)
	}
	return opts
}

// FieldName returns form_feild when it is a plain field name
func (f *FieldDescriptor) FieldName() string {
	var name string
	if len(f.FormField) > 0 && json.Unmarshal(f.FormField, &name) == nil {
		return name
	}
	return ""
}

// CurrentID is the id to answer this question with: _id, else the field name
func (f *FieldDescriptor) CurrentID() string {
	if f.ID != "" {
		return f.ID
	}
	return f.FieldName()
}

// WelcomeResponse is returned by the API root
type WelcomeResponse struct {
	Message string `json:"message"`
}

// FormsResponse lists the forms that can be filled
type FormsResponse struct {
	Forms    []string `json:"forms"`
	PDFFiles []string `json:"pdf_files,omitempty"`
	Count    int      `json:"count"`
}

// Names prefers the PDF file list when the server sends one
func (r *FormsResponse) Names() []string {
	if len(r.PDFFiles) > 0 {
		return r.PDFFiles
	}
	return r.Forms
}

// StartFormResponse is the first step of a form
type StartFormResponse struct {
	Type      string           `json:"type"`
	Body      *FieldDescriptor `json:"body,omitempty"`
	Message   string           `json:"message,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
	Progress  *Progress        `json:"progress,omitempty"`
	Success   bool             `json:"success,omitempty"`
}

// ChatResponse is the reply to an answer
type ChatResponse struct {
	Type           string            `json:"type"`
	Body           *FieldDescriptor  `json:"body,omitempty"`
	Message        string            `json:"message,omitempty"`
	Progress       *Progress         `json:"progress,omitempty"`
	AnswersSummary map[string]string `json:"answers_summary,omitempty"`
	Success        bool              `json:"success,omitempty"`
	PresignedURL   string            `json:"s3_presigned_url,omitempty"`
}

// MappingResponse acknowledges a form upload or mapping
type MappingResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Welcome fetches the greeting from the API root
func (c *Client) Welcome(ctx context.Context) (*WelcomeResponse, error) {
	var out WelcomeResponse
	if err := c.do(ctx, "welcome", http.MethodGet, "/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health reports whether the backend answers its health check
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, "/health", nil, nil)
}

// ListForms returns the forms available for filling
func (c *Client) ListForms(ctx context.Context) (*FormsResponse, error) {
	var out FormsResponse
	if err := c.do(ctx, "list_forms", http.MethodGet, "/list_fillable_pdf_s3", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartForm begins filling the named form and returns its first question
func (c *Client) StartForm(ctx context.Context, name string) (*StartFormResponse, error) {
	var out StartFormResponse
	path := "/start_fill_form/" + url.PathEscape(name)
	if err := c.do(ctx, "start_form", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendAnswer answers the question with currentID
func (c *Client) SendAnswer(ctx context.Context, currentID, answer string) (*ChatResponse, error) {
	req := map[string]string{"current_id": currentID, "answer": answer}
	var out ChatResponse
	if err := c.do(ctx, "send_answer", http.MethodPost, "/chat_response", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadForm registers a Form JSON export with the backend
func (c *Client) UploadForm(ctx context.Context, formName string, fields json.RawMessage) error {
	req := map[string]any{"form_name": formName, "fields": fields}
	return c.do(ctx, "upload_form", http.MethodPost, "/upload_form", req, nil)
}

// CreateFormMapping stores the field mapping of a form
func (c *Client) CreateFormMapping(ctx context.Context, formID string, mapping json.RawMessage) (*MappingResponse, error) {
	req := map[string]any{"form_id": formID, "mapping_data": mapping}
	var out MappingResponse
	if err := c.do(ctx, "create_form_mapping", http.MethodPost, "/create_form_mapping", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Download fetches a presigned artifact URL
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, derrors.NewNetworkError("download", 0, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, derrors.NewNetworkError("download", 0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, derrors.NewNetworkError("download", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, derrors.NewNetworkError("download", resp.StatusCode,
			fmt.Errorf("download failed: %s", resp.Status))
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return derrors.NewNetworkError(op, 0, fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return derrors.NewNetworkError(op, 0, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug("%s %s", method, req.URL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return derrors.NewNetworkError(op, 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return derrors.NewNetworkError(op, resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return derrors.NewNetworkError(op, resp.StatusCode,
			fmt.Errorf("%s failed: %s", op, strings.TrimSpace(string(respBody))))
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return derrors.NewNetworkError(op, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
