package voice

import (
	"strings"
	"sync"
)

// InputBuffer is the pending composer text that recognized speech is
// appended to.
type InputBuffer struct {
	mu   sync.Mutex
	text string
}

func NewInputBuffer() *InputBuffer {
	return &InputBuffer{}
}

// Append joins fragment onto the trimmed existing content with one space.
func (b *InputBuffer) Append(fragment string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = joinFragment(b.text, fragment)
}

func (b *InputBuffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

func (b *InputBuffer) Set(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
}

// Take returns the content and clears the buffer.
func (b *InputBuffer) Take() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.text
	b.text = ""
	return t
}

func joinFragment(existing, fragment string) string {
	trimmed := strings.TrimSpace(existing)
	if trimmed == "" {
		return fragment
	}
	return trimmed + " " + fragment
}
