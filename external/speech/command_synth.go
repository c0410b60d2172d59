package speech

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/foxseedlab/kissandost/internal/speech"
)

// CommandSynthesizer speaks through an espeak-compatible command reading
// text from stdin. One utterance runs at a time.
type CommandSynthesizer struct {
	command string

	mu      sync.Mutex
	current *utterance
}

type utterance struct {
	cmd       *exec.Cmd
	cancelled bool
}

func NewCommandSynthesizer(command string) *CommandSynthesizer {
	return &CommandSynthesizer{command: command}
}

func (s *CommandSynthesizer) Speak(ctx context.Context, text, languageTag string) error {
	if _, err := exec.LookPath(s.command); err != nil {
		return fmt.Errorf("%w: %s not found: %v", speech.ErrUnsupported, s.command, err)
	}
	s.Cancel()

	cmd := exec.CommandContext(ctx, s.command, "-v", voiceFor(languageTag), "--stdin")
	cmd.Stdin = strings.NewReader(text)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	u := &utterance{cmd: cmd}

	s.mu.Lock()
	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("start %s: %w", s.command, err)
	}
	s.current = u
	s.mu.Unlock()
	slog.Debug("local speech started", "command", s.command, "language_tag", languageTag)

	err := cmd.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == u {
		s.current = nil
	}
	if u.cancelled || ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s exited: %w", s.command, err)
	}
	return nil
}

func (s *CommandSynthesizer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	s.current.cancelled = true
	if s.current.cmd.Process != nil {
		_ = s.current.cmd.Process.Kill()
	}
	s.current = nil
}

// voiceFor maps a BCP-47 tag to an espeak voice name.
func voiceFor(languageTag string) string {
	tag := strings.ToLower(languageTag)
	primary, _, _ := strings.Cut(tag, "-")
	switch primary {
	case "", "en":
		return "en-us"
	default:
		return primary
	}
}
