package advisor

import (
	"context"
	"errors"

	"github.com/foxseedlab/kissandost/internal/conversation"
	"github.com/foxseedlab/kissandost/internal/language"
)

var (
	// ErrMissingCredentials is returned before any network call when no API
	// key is configured.
	ErrMissingCredentials = errors.New("advisor: api key is missing")
	// ErrAdvisoryFailed covers transport and response parsing failures.
	ErrAdvisoryFailed = errors.New("advisor: advisory request failed")
)

type Image struct {
	Data     []byte
	MIMEType string
}

type Request struct {
	Text     string
	Image    *Image
	Language language.Language
}

// Reply is either structured advice or plain text, never both.
type Reply struct {
	Advice *conversation.Advice
	Text   string
}

func AdviceReply(a conversation.Advice) Reply {
	return Reply{Advice: &a}
}

func TextReply(text string) Reply {
	return Reply{Text: text}
}

// Body converts the reply to a message body, filling advice defaults.
func (r Reply) Body() conversation.Body {
	if r.Advice != nil {
		return conversation.AdviceBody(r.Advice.WithDefaults())
	}
	return conversation.TextBody(r.Text)
}

type Response struct {
	Reply     Reply
	Citations []conversation.Citation
}

type Advisor interface {
	Advise(ctx context.Context, req Request) (*Response, error)
}
