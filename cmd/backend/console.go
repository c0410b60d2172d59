package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/foxseedlab/kissandost/internal/conversation"
	"github.com/foxseedlab/kissandost/internal/language"
	"github.com/foxseedlab/kissandost/internal/notify"
	"github.com/foxseedlab/kissandost/internal/playback"
	"github.com/foxseedlab/kissandost/internal/preferences"
	"github.com/foxseedlab/kissandost/internal/session"
	"github.com/foxseedlab/kissandost/internal/voice"
	"github.com/google/uuid"
)

const helpText = `commands:
  <text>               send text (joined with any dictated text)
  <empty line>         send dictated text
  /image <path> [text] send a photo with optional text
  /voice               start or stop dictation
  /speak               read the last answer aloud (again to stop)
  /stop                stop dictation and playback
  /new                 start a new chat
  /sessions            list chats
  /open <id>           switch to a chat
  /delete <id>         delete a chat
  /search <query>      search the current chat
  /lang <name>         change language (English, Urdu, Punjabi, Sindhi, Pashto)
  /theme               toggle light and dark mode
  /login <name> [email]
  /logout
  /quit`

type consoleDeps struct {
	orchestrator    *session.Orchestrator
	voice           *voice.Controller
	input           *voice.InputBuffer
	playback        *playback.Controller
	board           *notify.Board
	theme           *preferences.ThemeStore
	users           *preferences.Users
	user            *preferences.User
	defaultLanguage string
	in              io.Reader
	out             io.Writer
}

// console is a line-oriented driver over the turn pipeline.
type console struct {
	consoleDeps

	outMu sync.Mutex
	mu    sync.Mutex
	lang  language.Language

	speaking sync.WaitGroup
}

func newConsole(deps consoleDeps) *console {
	lang, ok := language.Parse(deps.defaultLanguage)
	if !ok {
		lang = language.English
	}
	c := &console{consoleDeps: deps, lang: lang}
	deps.board.Subscribe(func(n notify.Notification) {
		c.printf("[%s] %s\n", n.Kind, n.Message)
	})
	return c
}

func (c *console) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *console) currentLanguage() language.Language {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lang
}

// Run reads commands until ctx is done, stdin closes or /quit.
func (c *console) Run(ctx context.Context) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	if c.user != nil {
		c.printf("Welcome back, %s.\n", c.user.Name)
	}
	c.printf("Kissan Dost (%s, %s theme). Type /help for commands.\n", c.currentLanguage(), c.theme.Current())
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := c.handle(ctx, line); quit {
				return
			}
		}
	}
}

func (c *console) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		if line != "" {
			c.input.Append(line)
		}
		c.send(ctx, c.input.Take(), "")
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/help":
		c.printf("%s\n", helpText)
	case "/image":
		c.sendImage(ctx, arg)
	case "/voice":
		c.toggleVoice(ctx)
	case "/speak":
		c.speakLast(ctx)
	case "/stop":
		c.voice.Stop()
		c.playback.Stop()
	case "/new":
		c.orchestrator.NewChat()
		c.printf("Started a new chat.\n")
	case "/sessions":
		c.listSessions()
	case "/open":
		c.openSession(arg)
	case "/delete":
		if err := c.orchestrator.DeleteSession(ctx, arg); err != nil {
			c.printf("Could not delete chat: %v\n", err)
			return false
		}
		c.printf("Deleted chat %s.\n", arg)
	case "/search":
		for _, m := range c.orchestrator.SearchCurrent(arg) {
			c.printf("%s\n", renderMessage(m))
		}
	case "/lang":
		c.setLanguage(arg)
	case "/theme":
		theme, err := c.theme.Toggle(ctx)
		if err != nil {
			slog.Error("failed to save theme", "error", err)
		}
		c.printf("Theme: %s\n", theme)
	case "/login":
		c.login(ctx, arg)
	case "/logout":
		c.logout(ctx)
	case "/quit", "/exit":
		return true
	default:
		c.printf("Unknown command %s. Type /help for commands.\n", cmd)
	}
	return false
}

func (c *console) send(ctx context.Context, text, image string) {
	turn, err := c.orchestrator.Send(ctx, text, image, c.currentLanguage())
	if err != nil {
		if errors.Is(err, session.ErrEmptyTurn) {
			return
		}
		c.printf("Could not send: %v\n", err)
		return
	}
	c.printf("...\n")
	go c.awaitTurn(ctx, turn)
}

func (c *console) awaitTurn(ctx context.Context, turn *session.Turn) {
	if err := turn.Wait(ctx); err != nil {
		return
	}
	for _, m := range c.orchestrator.Sessions() {
		if m.ID != turn.SessionID {
			continue
		}
		for _, msg := range m.Messages {
			if msg.ID == turn.BotMessageID {
				c.printf("%s\n", renderMessage(msg))
			}
		}
	}
}

func (c *console) sendImage(ctx context.Context, arg string) {
	path, text, _ := strings.Cut(arg, " ")
	if path == "" {
		c.printf("Usage: /image <path> [text]\n")
		return
	}
	dataURL, err := imageDataURL(path)
	if err != nil {
		c.printf("Could not read image: %v\n", err)
		return
	}
	c.send(ctx, strings.TrimSpace(text), dataURL)
}

func (c *console) toggleVoice(ctx context.Context) {
	if err := c.voice.Start(ctx, c.currentLanguage()); err != nil {
		slog.Debug("voice capture did not start", "error", err)
		return
	}
	if c.voice.Snapshot().Active {
		c.printf("Listening. Type /voice again to stop, then press Enter to send.\n")
	}
}

// speakLast reads the latest answer of the current chat. A second /speak
// while it plays stops it.
func (c *console) speakLast(ctx context.Context) {
	if c.playback.State().Active {
		c.playback.Stop()
		return
	}
	text, hint, ok := lastAnswer(c.orchestrator.CurrentMessages(), c.currentLanguage())
	if !ok {
		c.printf("Nothing to read yet.\n")
		return
	}
	c.speaking.Add(1)
	go func() {
		defer c.speaking.Done()
		if err := c.playback.Speak(context.WithoutCancel(ctx), text, hint); err != nil {
			slog.Debug("playback ended with error", "error", err)
		}
	}()
}

func (c *console) listSessions() {
	active := c.orchestrator.ActiveSessionID()
	for _, s := range c.orchestrator.Sessions() {
		marker := " "
		if s.ID == active {
			marker = "*"
		}
		title := s.Title
		if title == "" {
			title = "(photo)"
		}
		c.printf("%s %s  %s  %s\n", marker, s.ID, s.LastUpdated.Format("2006-01-02 15:04"), title)
	}
}

func (c *console) openSession(id string) {
	if err := c.orchestrator.SelectSession(id); err != nil {
		c.printf("Could not open chat: %v\n", err)
		return
	}
	for _, m := range c.orchestrator.CurrentMessages() {
		c.printf("%s\n", renderMessage(m))
	}
}

func (c *console) setLanguage(name string) {
	lang, ok := language.Parse(name)
	if !ok {
		c.printf("Unknown language %q.\n", name)
		return
	}
	c.mu.Lock()
	c.lang = lang
	c.mu.Unlock()
	c.printf("Language: %s (%s)\n", lang, language.Direction(lang))
}

func (c *console) login(ctx context.Context, arg string) {
	name, email, _ := strings.Cut(arg, " ")
	user := preferences.User{ID: uuid.NewString(), Name: name, Email: strings.TrimSpace(email)}
	if err := c.users.Save(ctx, user); err != nil {
		c.printf("Could not sign in: %v\n", err)
		return
	}
	c.user = &user
	c.printf("Signed in as %s.\n", name)
}

func (c *console) logout(ctx context.Context) {
	if err := c.users.Clear(ctx); err != nil {
		slog.Error("failed to clear user", "error", err)
	}
	c.user = nil
	c.orchestrator.NewChat()
	c.printf("Signed out.\n")
}

// Shutdown stops audio, then waits for in-flight turns to settle.
func (c *console) Shutdown(ctx context.Context) {
	c.voice.Stop()
	c.playback.Stop()
	c.speaking.Wait()
	if err := c.orchestrator.Wait(ctx); err != nil {
		slog.Warn("in-flight turns did not settle before shutdown", "error", err)
	}
	c.board.Close()
}

func lastAnswer(msgs []conversation.Message, lang language.Language) (text, hint string, ok bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Role != conversation.RoleModel || m.Pending {
			continue
		}
		if m.Body.Kind == conversation.BodyAdvice && m.Body.Advice != nil {
			return m.Body.Advice.SpeechText(), m.Body.Advice.Language, true
		}
		if m.Body.Text != "" {
			return m.Body.Text, string(lang), true
		}
	}
	return "", "", false
}

func renderMessage(m conversation.Message) string {
	var b strings.Builder
	if m.Role == conversation.RoleUser {
		b.WriteString("you> ")
		if m.Image != "" {
			b.WriteString("[photo] ")
		}
		b.WriteString(m.Body.Text)
		return b.String()
	}

	b.WriteString("kissan dost> ")
	switch {
	case m.Pending:
		b.WriteString("...")
	case m.Body.Kind == conversation.BodyAdvice && m.Body.Advice != nil:
		a := m.Body.Advice
		fmt.Fprintf(&b, "%s\n  %s\n", a.Heading, a.Finding)
		for i, step := range a.Steps {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
		}
		fmt.Fprintf(&b, "  %s", a.Strategy)
	default:
		b.WriteString(m.Body.Text)
	}
	for _, cite := range m.Citations {
		fmt.Fprintf(&b, "\n  source: %s <%s>", cite.Title, cite.URL)
	}
	return b.String()
}

func imageDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%s is empty", path)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%s is not an image (%s)", path, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
