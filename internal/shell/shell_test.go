package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shashank-Shivakumar/Docfly/internal/chat"
	"github.com/Shashank-Shivakumar/Docfly/internal/pdf/security"
)

type fakeBackend struct {
	forms   []string
	started []string
	answers []string
	fail    bool
}

func (f *fakeBackend) ListForms(ctx context.Context) (*chat.FormsResponse, error) {
	if f.fail {
		return nil, errors.New("connection refused")
	}
	return &chat.FormsResponse{Forms: f.forms, Count: len(f.forms)}, nil
}

func (f *fakeBackend) StartForm(ctx context.Context, name string) (*chat.StartFormResponse, error) {
	f.started = append(f.started, name)
	return &chat.StartFormResponse{
		Type:     chat.TypeQuestion,
		Body:     &chat.FieldDescriptor{ID: "q1", DisplayText: "Pick a plan", Type: chat.TypeCheckList, FormField: json.RawMessage(`{"Basic":"p1","Pro":"p2"}`)},
		Progress: &chat.Progress{Current: 1, Total: 2},
	}, nil
}

func (f *fakeBackend) SendAnswer(ctx context.Context, currentID, answer string) (*chat.ChatResponse, error) {
	f.answers = append(f.answers, answer)
	if currentID == "q1" {
		return &chat.ChatResponse{
			Type:     chat.TypeQuestion,
			Body:     &chat.FieldDescriptor{ID: "q2", DisplayText: "Your email?", Type: chat.TypeInputText, FormField: json.RawMessage(`"email"`)},
			Progress: &chat.Progress{Current: 2, Total: 2},
		}, nil
	}
	return &chat.ChatResponse{Type: chat.TypeCompleteMessage, Message: "Thanks!", PresignedURL: "http://files/out.pdf"}, nil
}

func (f *fakeBackend) Download(ctx context.Context, url string) ([]byte, error) {
	return []byte("%PDF-1.4"), nil
}

func newTestShell(t *testing.T, backend *fakeBackend) (*Shell, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	paths, err := security.NewPathValidator(dir)
	require.NoError(t, err)

	var out bytes.Buffer
	s := newShell(chat.NewSession(backend), Config{Stdout: &out, Paths: paths})
	return s, &out, dir
}

func TestNew_RequiresSession(t *testing.T) {
	_, err := New(nil, Config{})
	assert.Error(t, err)
}

func TestShell_PlainOutputWhenNotTerminal(t *testing.T) {
	s, _, _ := newTestShell(t, &fakeBackend{})
	assert.False(t, s.color)
	assert.Equal(t, "text", s.paint(colorBot, "text"))
}

func TestShell_FormsAndStartByNumber(t *testing.T) {
	backend := &fakeBackend{forms: []string{"W-9", "Lease Agreement"}}
	s, out, _ := newTestShell(t, backend)
	ctx := context.Background()

	require.NoError(t, s.Execute(ctx, "/forms"))
	assert.Contains(t, out.String(), "1. W-9")
	assert.Contains(t, out.String(), "2. Lease Agreement")

	require.NoError(t, s.Execute(ctx, "/start 2"))
	assert.Equal(t, []string{"Lease Agreement"}, backend.started)
	assert.Contains(t, out.String(), "bot: Pick a plan")
	assert.Contains(t, out.String(), "  2. Pro")
	assert.Contains(t, out.String(), "(question 1 of 2)")
}

func TestShell_FillAndDownload(t *testing.T) {
	backend := &fakeBackend{forms: []string{"W-9"}}
	s, out, dir := newTestShell(t, backend)
	ctx := context.Background()

	assert.Error(t, s.Execute(ctx, "hello"), "answers need a form in progress")

	require.NoError(t, s.Execute(ctx, "/start W-9"))
	require.NoError(t, s.Execute(ctx, "2"))
	require.NoError(t, s.Execute(ctx, "ada@example.com"))
	assert.Equal(t, []string{"Pro", "ada@example.com"}, backend.answers)
	assert.Contains(t, out.String(), "bot: Thanks!")
	assert.Contains(t, out.String(), chat.MsgReady)

	assert.Error(t, s.Execute(ctx, "more"), "the form is complete")

	require.NoError(t, s.Execute(ctx, "/progress"))
	assert.Contains(t, out.String(), "W-9: completed")

	require.NoError(t, s.Execute(ctx, "/download"))
	data, err := os.ReadFile(filepath.Join(dir, "W-9-filled.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	assert.Error(t, s.Execute(ctx, "/download ../outside"))
}

func TestShell_ResetReprintsWelcome(t *testing.T) {
	s, out, _ := newTestShell(t, &fakeBackend{})
	ctx := context.Background()

	require.NoError(t, s.Execute(ctx, "/survey"))
	out.Reset()
	require.NoError(t, s.Execute(ctx, "/reset"))
	assert.Contains(t, out.String(), chat.MsgWelcomeBack)
	assert.Equal(t, chat.StateNoForm, s.session.State())
}

func TestShell_Commands(t *testing.T) {
	s, out, _ := newTestShell(t, &fakeBackend{fail: true})
	ctx := context.Background()

	assert.NoError(t, s.Execute(ctx, "   "))
	assert.NoError(t, s.Execute(ctx, "/help"))
	assert.Contains(t, out.String(), "/download [dir]")

	assert.ErrorIs(t, s.Execute(ctx, "/quit"), errQuit)
	assert.ErrorIs(t, s.Execute(ctx, "/exit"), errQuit)
	assert.Error(t, s.Execute(ctx, "/bogus"))
	assert.Error(t, s.Execute(ctx, "/start"))

	assert.Error(t, s.Execute(ctx, "/forms"))
	assert.Contains(t, out.String(), chat.MsgFormsFailed)
}

func TestCompleter(t *testing.T) {
	session := chat.NewSession(&fakeBackend{forms: []string{"W-9", "Lease"}})
	_, err := session.LoadForms(context.Background())
	require.NoError(t, err)
	c := NewCompleter(session)

	matches, length := c.Do([]rune("/su"), 3)
	assert.Equal(t, [][]rune{[]rune("rvey ")}, matches)
	assert.Equal(t, 3, length)

	matches, _ = c.Do([]rune("/"), 1)
	assert.Len(t, matches, len(commands))

	matches, length = c.Do([]rune("/start le"), 9)
	assert.Equal(t, [][]rune{[]rune("ase")}, matches)
	assert.Equal(t, 2, length)

	matches, _ = c.Do([]rune("hello"), 5)
	assert.Nil(t, matches)

	matches, _ = c.Do(nil, 0)
	assert.Nil(t, matches)
}
