package shell

import (
	"strings"

	"github.com/chzyer/readline"

	"github.com/Shashank-Shivakumar/Docfly/internal/chat"
)

// commands is the list of shell commands without the / prefix
var commands = []string{
	"forms",
	"start",
	"survey",
	"progress",
	"download",
	"reset",
	"help",
	"quit",
	"exit",
}

// Completer completes commands and, after /start, form names
type Completer struct {
	session *chat.Session
}

var _ readline.AutoCompleter = (*Completer)(nil)

// NewCompleter creates a completer that reads form names from session
func NewCompleter(session *chat.Session) *Completer {
	return &Completer{session: session}
}

// Do implements readline.AutoCompleter
func (c *Completer) Do(line []rune, pos int) (newLine [][]rune, length int) {
	if len(line) == 0 || pos <= 0 {
		return nil, 0
	}
	if pos > len(line) {
		pos = len(line)
	}
	text := string(line[:pos])

	if strings.HasPrefix(text, "/start ") {
		return c.completeForm(strings.TrimLeft(strings.TrimPrefix(text, "/start "), " "))
	}
	if strings.HasPrefix(text, "/") && !strings.ContainsAny(text, " \t") {
		return completeCommand(text)
	}
	return nil, 0
}

func completeCommand(prefix string) ([][]rune, int) {
	cmdPrefix := strings.TrimPrefix(prefix, "/")
	var matches [][]rune
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, cmdPrefix) {
			matches = append(matches, []rune(cmd[len(cmdPrefix):]+" "))
		}
	}
	return matches, len([]rune(prefix))
}

// completeForm matches form names case-insensitively; names may contain spaces
func (c *Completer) completeForm(prefix string) ([][]rune, int) {
	if c.session == nil {
		return nil, 0
	}
	lower := strings.ToLower(prefix)
	var matches [][]rune
	for _, name := range c.session.Forms() {
		if strings.HasPrefix(strings.ToLower(name), lower) {
			matches = append(matches, []rune(name[len(prefix):]))
		}
	}
	return matches, len([]rune(prefix))
}
