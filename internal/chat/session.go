package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	derrors "github.com/Shashank-Shivakumar/Docfly/internal/errors"
	"github.com/Shashank-Shivakumar/Docfly/internal/export"
	"github.com/Shashank-Shivakumar/Docfly/internal/logger"
)

// SurveyForm is the sample form started by the survey shortcut
const SurveyForm = "Profile"

// Bot messages
const (
	MsgWelcome      = "Welcome! I'll help you fill out forms by asking questions. Please select a form to get started or click 'Start Survey' to begin with a sample form."
	MsgWelcomeBack  = "Welcome back! Please select a form to get started."
	MsgFormsFailed  = "Sorry, I couldn't load the available forms. Please try again later."
	MsgStartFailed  = "Sorry, I couldn't start the form. Please try again."
	MsgAnswerFailed = "Sorry, there was an error processing your answer. Please try again."
	MsgUnexpected   = "Sorry, there was an unexpected response from the server."
	MsgCompleted    = "Form completed!"
	MsgSaved        = "🎉 Form completed successfully! All your answers have been saved."
	MsgReady        = "📄 Your filled form is ready for download!"
	MsgDownloadFail = "Sorry, there was an error downloading the file. Please try again."
)

var (
	ErrBusy       = errors.New("a request is already in progress")
	ErrNoQuestion = errors.New("no question is waiting for an answer")
	ErrNoDownload = errors.New("no filled form is available for download")
	ErrUnexpected = errors.New("unexpected response from the server")
)

// State is the position of a session in the conversation
type State int

const (
	StateNoForm State = iota
	StateAwaitingAnswer
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateCompleted:
		return "completed"
	default:
		return "no_form"
	}
}

// Role identifies the author of a transcript message
type Role string

const (
	RoleBot  Role = "bot"
	RoleUser Role = "user"
)

// Message is one entry of the transcript
type Message struct {
	ID         string    `json:"id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	Time       time.Time `json:"time"`
	IsQuestion bool      `json:"is_question,omitempty"`
	Options    []string  `json:"options,omitempty"`
}

// Backend is the part of the chat API a session drives
type Backend interface {
	ListForms(ctx context.Context) (*FormsResponse, error)
	StartForm(ctx context.Context, name string) (*StartFormResponse, error)
	SendAnswer(ctx context.Context, currentID, answer string) (*ChatResponse, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

var _ Backend = (*Client)(nil)

// Session is one conversational form-filling run. Requests are sequential:
// while one is in flight every other call fails with ErrBusy.
type Session struct {
	api Backend
	log *logger.Logger
	now func() time.Time

	mu          sync.Mutex
	inFlight    bool
	state       State
	form        string
	question    *FieldDescriptor
	progress    Progress
	completion  string
	downloadURL string
	forms       []string
	messages    []Message
}

// SessionOption configures a Session
type SessionOption func(*Session)

func WithSessionLogger(l *logger.Logger) SessionOption {
	return func(s *Session) { s.log = logger.OrDiscard(l) }
}

func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// NewSession starts a conversation with the welcome message
func NewSession(api Backend, opts ...SessionOption) *Session {
	s := &Session{api: api, log: logger.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.addBot(MsgWelcome, nil)
	return s
}

func (s *Session) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return false
	}
	s.inFlight = true
	return true
}

func (s *Session) release() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

func (s *Session) append(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

func (s *Session) addBot(content string, options []string) {
	s.append(Message{
		ID:         "bot_" + uuid.NewString(),
		Role:       RoleBot,
		Content:    content,
		Time:       s.now(),
		IsQuestion: options != nil,
		Options:    options,
	})
}

func (s *Session) addQuestion(q *FieldDescriptor) {
	opts := q.Options()
	s.append(Message{
		ID:         "bot_" + uuid.NewString(),
		Role:       RoleBot,
		Content:    q.Prompt(),
		Time:       s.now(),
		IsQuestion: true,
		Options:    opts,
	})
}

func (s *Session) addUser(content string) {
	s.append(Message{ID: "user_" + uuid.NewString(), Role: RoleUser, Content: content, Time: s.now()})
}

// LoadForms fetches the list of fillable forms
func (s *Session) LoadForms(ctx context.Context) ([]string, error) {
	if !s.acquire() {
		return nil, ErrBusy
	}
	defer s.release()

	resp, err := s.api.ListForms(ctx)
	if err != nil {
		s.log.Warn("Error loading forms: %v", err)
		s.addBot(MsgFormsFailed, nil)
		return nil, err
	}
	names := append([]string(nil), resp.Names()...)

	s.mu.Lock()
	s.forms = names
	s.mu.Unlock()
	return names, nil
}

// StartForm begins the named form
func (s *Session) StartForm(ctx context.Context, name string) error {
	return s.start(ctx, name, name)
}

// StartSurvey begins the sample form
func (s *Session) StartSurvey(ctx context.Context) error {
	return s.start(ctx, SurveyForm, "Starting survey: "+SurveyForm)
}

func (s *Session) start(ctx context.Context, name, userText string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return derrors.NewValidationError("start_form", "form name is required")
	}
	if !s.acquire() {
		return ErrBusy
	}
	defer s.release()

	s.addUser(userText)
	resp, err := s.api.StartForm(ctx, name)
	if err != nil {
		s.log.Warn("Error starting form %s: %v", name, err)
		s.addBot(MsgStartFailed, nil)
		return err
	}

	switch {
	case (resp.Type == TypeQuestion || resp.Success) && resp.Body != nil:
		progress := Progress{Current: 1, Total: 1}
		if resp.Progress != nil {
			progress = *resp.Progress
		}
		s.mu.Lock()
		s.state = StateAwaitingAnswer
		s.form = name
		s.question = resp.Body
		s.progress = progress
		s.completion, s.downloadURL = "", ""
		s.mu.Unlock()
		s.addQuestion(resp.Body)
		return nil

	case resp.Type == TypeCompleteMessage:
		s.complete(name, resp.Message, "")
		return nil
	}

	s.log.Warn("Unexpected start response type %q", resp.Type)
	s.addBot(MsgStartFailed, nil)
	return ErrUnexpected
}

// Submit answers the current question
func (s *Session) Submit(ctx context.Context, answer string) error {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return derrors.NewValidationError("submit_answer", "answer is empty")
	}
	if !s.acquire() {
		return ErrBusy
	}
	defer s.release()

	s.mu.Lock()
	q := s.question
	awaiting := s.state == StateAwaitingAnswer && q != nil
	form := s.form
	s.mu.Unlock()
	if !awaiting {
		return ErrNoQuestion
	}

	s.addUser(answer)
	resp, err := s.api.SendAnswer(ctx, q.CurrentID(), answer)
	if err != nil {
		s.log.Warn("Error submitting answer: %v", err)
		s.addBot(MsgAnswerFailed, nil)
		return err
	}

	switch {
	case resp.Type == TypeCompleteMessage:
		s.complete(form, resp.Message, resp.PresignedURL)
		return nil

	case resp.Body != nil:
		progress := Progress{}
		if resp.Progress != nil {
			progress = *resp.Progress
		}
		s.mu.Lock()
		s.question = resp.Body
		s.progress = progress
		s.mu.Unlock()
		s.addQuestion(resp.Body)
		return nil
	}

	s.log.Warn("Unexpected answer response type %q", resp.Type)
	s.addBot(MsgUnexpected, nil)
	return ErrUnexpected
}

// Choose answers a check_list question with option n (1-based)
func (s *Session) Choose(ctx context.Context, n int) error {
	q := s.Question()
	if q == nil {
		return ErrNoQuestion
	}
	opts := q.Options()
	if n < 1 || n > len(opts) {
		return derrors.NewValidationError("choose_option", fmt.Sprintf("option %d out of range (1-%d)", n, len(opts)))
	}
	return s.Submit(ctx, opts[n-1])
}

func (s *Session) complete(form, message, downloadURL string) {
	if message == "" {
		message = MsgCompleted
	}
	s.mu.Lock()
	s.state = StateCompleted
	s.form = form
	s.question = nil
	s.completion = message
	s.downloadURL = downloadURL
	s.mu.Unlock()

	s.addBot(message, nil)
	s.addBot(MsgSaved, nil)
	if downloadURL != "" {
		s.addBot(MsgReady, nil)
	}
}

// Reset returns to the form picker with a fresh transcript
func (s *Session) Reset() {
	s.mu.Lock()
	s.state = StateNoForm
	s.form = ""
	s.question = nil
	s.progress = Progress{}
	s.completion = ""
	s.downloadURL = ""
	s.messages = nil
	s.mu.Unlock()
	s.addBot(MsgWelcomeBack, nil)
}

// DownloadResult saves the filled form to dir as {form}-filled.pdf
func (s *Session) DownloadResult(ctx context.Context, dir string) (string, error) {
	s.mu.Lock()
	url, form := s.downloadURL, s.form
	s.mu.Unlock()
	if url == "" {
		return "", ErrNoDownload
	}
	if !s.acquire() {
		return "", ErrBusy
	}
	defer s.release()

	data, err := s.api.Download(ctx, url)
	if err != nil {
		s.log.Warn("Error downloading file: %v", err)
		s.addBot(MsgDownloadFail, nil)
		return "", err
	}
	if form == "" {
		form = "form"
	}
	path, err := export.WriteArtifact(dir, &export.Artifact{
		Name: form + "-filled.pdf",
		MIME: "application/pdf",
		Data: data,
	})
	if err != nil {
		s.addBot(MsgDownloadFail, nil)
		return "", err
	}
	s.log.Info("Saved filled form to %s", path)
	return path, nil
}

// State returns the conversation state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Question returns the question waiting for an answer, if any
func (s *Session) Question() *FieldDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.question == nil {
		return nil
	}
	q := *s.question
	return &q
}

// Progress returns the progress reported with the last question
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Form returns the name of the selected form
func (s *Session) Form() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Forms returns the form names from the last LoadForms
func (s *Session) Forms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.forms...)
}

// Completion returns the completion message once the form is done
func (s *Session) Completion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completion
}

// DownloadURL returns the presigned URL of the filled form, if any
func (s *Session) DownloadURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloadURL
}

// Messages returns a copy of the transcript
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Busy reports whether a request is in flight
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}
