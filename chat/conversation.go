// Package chat holds a conversation with the backend's FPL assistant.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/fpl-companion/fpl"
	"github.com/jrsteele09/fpl-companion/internal/errors"
	"github.com/rs/zerolog"
)

var NowTimeFunc = time.Now

// API is the chat endpoint.
type API interface {
	Chat(ctx context.Context, req fpl.ChatRequest) (*fpl.ChatReply, error)
}

var _ API = (*fpl.Client)(nil)

// Exchange is one question and its answer.
type Exchange struct {
	Message string    `json:"message"`
	Reply   string    `json:"reply"`
	Failed  bool      `json:"failed,omitempty"`
	At      time.Time `json:"at"`
}

// Conversation keeps the session id the backend uses to thread messages.
// It is safe for concurrent use; sends are serialised so replies stay in
// order.
type Conversation struct {
	api    API
	logger zerolog.Logger

	lock      sync.Mutex
	sessionID string
	history   []Exchange
}

type Option func(*Conversation)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Conversation) {
		c.logger = l
	}
}

func New(api API, opts ...Option) *Conversation {
	c := &Conversation{api: api, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send posts message and returns the assistant's reply. The first reply's
// session id is reused for later messages; when the backend returns none a
// local id is generated so the conversation still has one.
func (c *Conversation) Send(ctx context.Context, message string) (Exchange, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Exchange{}, errors.Wrapf(errors.ErrInvalidRequest, "[chat Send] message is empty")
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	reply, err := c.api.Chat(ctx, fpl.ChatRequest{Message: message, SessionID: c.sessionID})
	if err != nil {
		c.logger.Error().Err(err).Str("session_id", c.sessionID).Msg("[chat Send] failed")
		c.history = append(c.history, Exchange{Message: message, Reply: "Error: Failed to get response", Failed: true, At: NowTimeFunc()})
		return Exchange{}, errors.Wrapf(err, "[chat Send] sending message")
	}

	switch {
	case reply.SessionID != "":
		c.sessionID = reply.SessionID
	case c.sessionID == "":
		c.sessionID = uuid.NewString()
	}
	ex := Exchange{Message: message, Reply: reply.Text(), At: NowTimeFunc()}
	c.history = append(c.history, ex)
	return ex, nil
}

// SessionID is empty until the first successful reply.
func (c *Conversation) SessionID() string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.sessionID
}

func (c *Conversation) History() []Exchange {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]Exchange(nil), c.history...)
}

// Reset starts a new conversation.
func (c *Conversation) Reset() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.sessionID = ""
	c.history = nil
}
