// Package shell is the interactive chat client: a readline REPL over a
// chat.Session.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/Shashank-Shivakumar/Docfly/internal/chat"
	"github.com/Shashank-Shivakumar/Docfly/internal/logger"
	"github.com/Shashank-Shivakumar/Docfly/internal/pdf/security"
)

const prompt = "docfly> "

var errQuit = errors.New("quit")

// ANSI colors
const (
	colorReset = "\033[0m"
	colorBot   = "\033[36m"
	colorUser  = "\033[32m"
	colorDim   = "\033[90m"
	colorWarn  = "\033[33m"
)

// Config holds shell configuration
type Config struct {
	HistoryFile string
	// Paths bounds where /download may write; nil writes anywhere
	Paths  *security.PathValidator
	Stdin  io.ReadCloser
	Stdout io.Writer
	Logger *logger.Logger
}

// Shell is the interactive command-line chat
type Shell struct {
	session *chat.Session
	rl      *readline.Instance
	out     io.Writer
	paths   *security.PathValidator
	log     *logger.Logger
	color   bool

	// number of transcript messages already printed
	printed int
}

// New creates a shell reading from a readline instance
func New(session *chat.Session, cfg Config) (*Shell, error) {
	if session == nil {
		return nil, fmt.Errorf("chat session cannot be nil")
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}

	s := newShell(session, cfg)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.paint(colorUser, prompt),
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    NewCompleter(session),
		Stdin:           cfg.Stdin,
		Stdout:          cfg.Stdout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start line editor: %w", err)
	}
	s.rl = rl
	s.out = rl.Stdout()
	return s, nil
}

func newShell(session *chat.Session, cfg Config) *Shell {
	out := cfg.Stdout
	if out == nil {
		out = io.Discard
	}
	return &Shell{
		session: session,
		out:     out,
		paths:   cfg.Paths,
		log:     logger.OrDiscard(cfg.Logger),
		color:   isTerminalWriter(out),
	}
}

// isTerminalWriter reports whether w is a terminal
func isTerminalWriter(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func (s *Shell) paint(color, text string) string {
	if !s.color {
		return text
	}
	return color + text + colorReset
}

// Run starts the interactive loop. It returns nil on /quit or end of input.
func (s *Shell) Run(ctx context.Context) error {
	defer s.rl.Close()

	s.flush()
	fmt.Fprintln(s.out, s.paint(colorDim, "Type /forms to list forms, /survey for the sample form, /help for commands."))

	if _, err := s.session.LoadForms(ctx); err == nil {
		s.printForms()
	} else {
		s.log.Debug("Initial form list failed: %v", err)
		s.flush()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if err := s.Execute(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintln(s.out, s.paint(colorWarn, "Error: "+err.Error()))
		}
	}
}

// Execute runs one line of input: a slash command or an answer
func (s *Shell) Execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	defer s.flush()

	if strings.HasPrefix(line, "/") {
		return s.handleCommand(ctx, line)
	}
	return s.answer(ctx, line)
}

func (s *Shell) handleCommand(ctx context.Context, line string) error {
	parts := strings.Fields(line)
	cmd := parts[0]
	arg := strings.TrimSpace(strings.TrimPrefix(line, cmd))

	switch cmd {
	case "/quit", "/exit", "/q":
		return errQuit

	case "/help", "/h":
		s.printHelp()

	case "/forms":
		if _, err := s.session.LoadForms(ctx); err != nil {
			return err
		}
		s.printForms()

	case "/start":
		if arg == "" {
			return fmt.Errorf("usage: /start <form name or number>")
		}
		return s.session.StartForm(ctx, s.formName(arg))

	case "/survey":
		return s.session.StartSurvey(ctx)

	case "/progress":
		s.printProgress()

	case "/reset":
		s.session.Reset()
		s.printed = 0

	case "/download":
		return s.download(ctx, arg)

	default:
		return fmt.Errorf("unknown command: %s (try /help)", cmd)
	}
	return nil
}

// formName maps a number from the last /forms listing to its name
func (s *Shell) formName(arg string) string {
	if n, err := strconv.Atoi(arg); err == nil {
		forms := s.session.Forms()
		if n >= 1 && n <= len(forms) {
			return forms[n-1]
		}
	}
	return arg
}

// answer replies to the current question. A number picks a check_list option.
func (s *Shell) answer(ctx context.Context, line string) error {
	switch s.session.State() {
	case chat.StateNoForm:
		return fmt.Errorf("no form in progress; use /start <form> or /survey")
	case chat.StateCompleted:
		return fmt.Errorf("the form is complete; use /download or /reset")
	}

	if q := s.session.Question(); q != nil && q.IsCheckList() {
		if n, err := strconv.Atoi(line); err == nil {
			return s.session.Choose(ctx, n)
		}
	}
	return s.session.Submit(ctx, line)
}

func (s *Shell) download(ctx context.Context, dir string) error {
	if dir == "" {
		dir = "."
		if s.paths != nil {
			dir = s.paths.Dir()
		}
	}
	if s.paths != nil {
		resolved, err := s.paths.Resolve(dir)
		if err != nil {
			return err
		}
		dir = resolved
	}
	path, err := s.session.DownloadResult(ctx, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Saved %s\n", path)
	return nil
}

// flush prints transcript messages that have not been shown yet
func (s *Shell) flush() {
	msgs := s.session.Messages()
	if s.printed > len(msgs) {
		s.printed = 0
	}
	for _, m := range msgs[s.printed:] {
		s.printMessage(m)
	}
	s.printed = len(msgs)
}

func (s *Shell) printMessage(m chat.Message) {
	if m.Role == chat.RoleUser {
		// the user already sees what they typed
		return
	}
	fmt.Fprintln(s.out, s.paint(colorBot, "bot: ")+m.Content)
	for i, opt := range m.Options {
		fmt.Fprintf(s.out, "  %d. %s\n", i+1, opt)
	}
	if m.IsQuestion {
		p := s.session.Progress()
		if p.Total > 0 {
			fmt.Fprintln(s.out, s.paint(colorDim, fmt.Sprintf("  (question %d of %d)", p.Current, p.Total)))
		}
	}
}

func (s *Shell) printForms() {
	forms := s.session.Forms()
	if len(forms) == 0 {
		fmt.Fprintln(s.out, "No forms available.")
		return
	}
	fmt.Fprintln(s.out, "Available forms:")
	for i, name := range forms {
		fmt.Fprintf(s.out, "  %d. %s\n", i+1, name)
	}
}

func (s *Shell) printProgress() {
	switch s.session.State() {
	case chat.StateAwaitingAnswer:
		p := s.session.Progress()
		fmt.Fprintf(s.out, "%s: question %d of %d\n", s.session.Form(), p.Current, p.Total)
	case chat.StateCompleted:
		fmt.Fprintf(s.out, "%s: completed\n", s.session.Form())
	default:
		fmt.Fprintln(s.out, "No form in progress.")
	}
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintln(s.out, "  /forms            - List available forms")
	fmt.Fprintln(s.out, "  /start <form>     - Start filling a form (name or number)")
	fmt.Fprintln(s.out, "  /survey           - Start the sample survey")
	fmt.Fprintln(s.out, "  /progress         - Show the current question number")
	fmt.Fprintln(s.out, "  /download [dir]   - Save the filled form")
	fmt.Fprintln(s.out, "  /reset            - Abandon the form and start over")
	fmt.Fprintln(s.out, "  /quit             - Exit")
	fmt.Fprintln(s.out, "Anything else answers the current question; a number picks an option.")
}
