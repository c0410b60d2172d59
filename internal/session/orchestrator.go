package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/foxseedlab/kissandost/internal/advisor"
	"github.com/foxseedlab/kissandost/internal/conversation"
	"github.com/foxseedlab/kissandost/internal/language"
)

var (
	ErrEmptyTurn       = errors.New("turn has neither text nor image")
	ErrInvalidImage    = errors.New("turn image is not valid base64")
	ErrSessionNotFound = errors.New("session not found")
)

type TurnRequest struct {
	// SessionID is empty to start a new session.
	SessionID string
	Text      string
	// Image is a data URL or bare base64 payload.
	Image    string
	Language language.Language
}

type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeResolved Outcome = "resolved"
	OutcomeFailed   Outcome = "failed"
)

// Turn tracks one submitted exchange until its bot message settles.
type Turn struct {
	SessionID     string
	UserMessageID string
	BotMessageID  string

	done    chan struct{}
	mu      sync.Mutex
	outcome Outcome
}

func newTurn(sessionID, userID, botID string) *Turn {
	return &Turn{
		SessionID:     sessionID,
		UserMessageID: userID,
		BotMessageID:  botID,
		done:          make(chan struct{}),
		outcome:       OutcomePending,
	}
}

func (t *Turn) Done() <-chan struct{} {
	return t.done
}

func (t *Turn) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Turn) Outcome() Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}

func (t *Turn) finish(o Outcome) {
	t.mu.Lock()
	t.outcome = o
	t.mu.Unlock()
	close(t.done)
}

// Orchestrator runs request/response cycles against the session store and
// tracks which session is active. Turns in different sessions never block
// each other; two turns in the same session resolve last-write-wins.
type Orchestrator struct {
	store   *Store
	advisor advisor.Advisor
	ids     *conversation.IDGenerator

	mu       sync.Mutex
	activeID string
	inflight sync.WaitGroup
}

func NewOrchestrator(store *Store, adv advisor.Advisor, ids *conversation.IDGenerator) *Orchestrator {
	return &Orchestrator{store: store, advisor: adv, ids: ids}
}

// SubmitTurn records the user message and a pending bot message, then
// resolves the bot message in the background. The advisory call is detached
// from ctx cancellation.
func (o *Orchestrator) SubmitTurn(ctx context.Context, req TurnRequest) (*Turn, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" && strings.TrimSpace(req.Image) == "" {
		return nil, ErrEmptyTurn
	}

	var img *advisor.Image
	userMsg := conversation.Message{
		ID:   o.ids.NewID(),
		Role: conversation.RoleUser,
		Body: conversation.TextBody(req.Text),
	}
	if strings.TrimSpace(req.Image) != "" {
		parsed, err := advisor.ParseImage(req.Image)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		img = parsed
		userMsg.Image = parsed.DataURL()
	}
	botMsg := conversation.Message{
		ID:      o.ids.NewID(),
		Role:    conversation.RoleModel,
		Body:    conversation.TextBody(""),
		Pending: true,
	}

	sessionID := req.SessionID
	if sessionID == "" {
		id, err := o.store.Create(ctx, []conversation.Message{userMsg, botMsg})
		if err != nil {
			slog.Error("failed to persist new session", "session_id", id, "error", err)
		}
		sessionID = id
		o.mu.Lock()
		o.activeID = id
		o.mu.Unlock()
	} else {
		found, err := o.store.Update(ctx, sessionID, func(msgs []conversation.Message) []conversation.Message {
			return append(msgs, userMsg, botMsg)
		})
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		if err != nil {
			slog.Error("failed to persist turn", "session_id", sessionID, "error", err)
		}
	}

	turn := newTurn(sessionID, userMsg.ID, botMsg.ID)
	slog.Info("turn submitted", "session_id", sessionID, "message_id", botMsg.ID, "has_image", img != nil, "language", string(req.Language))

	o.inflight.Add(1)
	go func() {
		defer o.inflight.Done()
		o.resolve(context.WithoutCancel(ctx), turn, advisor.Request{
			Text:     req.Text,
			Image:    img,
			Language: req.Language,
		})
	}()
	return turn, nil
}

// Send submits a turn against the active session, starting a new one when
// none is active.
func (o *Orchestrator) Send(ctx context.Context, text, image string, lang language.Language) (*Turn, error) {
	return o.SubmitTurn(ctx, TurnRequest{
		SessionID: o.ActiveSessionID(),
		Text:      text,
		Image:     image,
		Language:  lang,
	})
}

func (o *Orchestrator) resolve(ctx context.Context, turn *Turn, req advisor.Request) {
	outcome := OutcomeResolved
	var (
		body      conversation.Body
		citations []conversation.Citation
	)
	res, err := o.advisor.Advise(ctx, req)
	switch {
	case err != nil:
		outcome = OutcomeFailed
		body = conversation.ErrorBody(failureMessage(err))
		slog.Error("advisory request failed", "session_id", turn.SessionID, "message_id", turn.BotMessageID, "error", err)
	case res == nil:
		outcome = OutcomeFailed
		body = conversation.ErrorBody(messageAdvisoryFailed)
		slog.Error("advisory request returned no response", "session_id", turn.SessionID, "message_id", turn.BotMessageID)
	default:
		body = res.Reply.Body()
		citations = res.Citations
	}

	found, err := o.store.Update(ctx, turn.SessionID, func(msgs []conversation.Message) []conversation.Message {
		for i := range msgs {
			if msgs[i].ID != turn.BotMessageID || !msgs[i].Pending {
				continue
			}
			msgs[i].Body = body
			msgs[i].Citations = citations
			msgs[i].Pending = false
		}
		return msgs
	})
	if !found {
		slog.Warn("session deleted before turn resolved; dropping result", "session_id", turn.SessionID, "message_id", turn.BotMessageID)
	} else if err != nil {
		slog.Error("failed to persist turn resolution", "session_id", turn.SessionID, "message_id", turn.BotMessageID, "error", err)
	}
	turn.finish(outcome)
}

func failureMessage(err error) string {
	if errors.Is(err, advisor.ErrMissingCredentials) {
		return messageMissingCredentials
	}
	return messageAdvisoryFailed
}

func (o *Orchestrator) ActiveSessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeID
}

func (o *Orchestrator) SelectSession(id string) error {
	if _, ok := o.store.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	o.mu.Lock()
	o.activeID = id
	o.mu.Unlock()
	return nil
}

// NewChat clears the active pointer; the next Send starts a new session.
func (o *Orchestrator) NewChat() {
	o.mu.Lock()
	o.activeID = ""
	o.mu.Unlock()
}

// DeleteSession removes a session and clears the active pointer when it
// referenced it.
func (o *Orchestrator) DeleteSession(ctx context.Context, id string) error {
	found, err := o.store.Delete(ctx, id)
	if !found {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	o.mu.Lock()
	if o.activeID == id {
		o.activeID = ""
	}
	o.mu.Unlock()
	return err
}

// CurrentMessages is the active session's message view; it is empty when no
// session is active or the active one no longer exists.
func (o *Orchestrator) CurrentMessages() []conversation.Message {
	id := o.ActiveSessionID()
	if id == "" {
		return nil
	}
	sess, ok := o.store.Get(id)
	if !ok {
		return nil
	}
	return sess.Messages
}

func (o *Orchestrator) SearchCurrent(query string) []conversation.Message {
	return conversation.FilterMessages(o.CurrentMessages(), query)
}

func (o *Orchestrator) Sessions() []conversation.Session {
	return o.store.Sessions()
}

// Wait blocks until every in-flight turn has settled or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
