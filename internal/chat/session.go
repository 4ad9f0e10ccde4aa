// Package chat threads a multi-turn dialogue with the remote assistant and
// renders the tool calls it reports back.
package chat

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"

	"taskdeck/internal/api"
	"taskdeck/internal/model"
)

var (
	// ErrEmptyMessage is returned for blank sends; the transcript is untouched.
	ErrEmptyMessage = errors.New("empty message")

	// ErrBusy is returned while another send is in flight. Sends are
	// rejected, never queued.
	ErrBusy = errors.New("a message is already in flight")
)

// fallbackError is shown when a failure carries no usable message.
const fallbackError = "Network error. Please check your connection and try again."

// Agent is the slice of the API client the session drives. *api.Client
// satisfies it.
type Agent interface {
	Chat(ctx context.Context, userID string, conversationID *int64, message string) (api.ChatResponse, error)
}

// Session holds one conversation: the ordered transcript and the opaque
// conversation id the server assigns on the first successful turn.
type Session struct {
	mu       sync.Mutex
	agent    Agent
	userID   string
	convID   int64
	convSet  bool
	turns    []model.Turn
	inflight bool
	log      *log.Logger
}

// NewSession starts an empty conversation for the given user. logger may
// be nil to discard diagnostics.
func NewSession(agent Agent, userID string, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Session{agent: agent, userID: userID, log: logger}
}

// Send submits one user message and appends the resulting turns.
//
// The user turn is appended before the call and is never rolled back, so
// the transcript always records what was asked. On success the assistant
// turn (with any tool calls) is appended and the conversation id adopted
// if this was the first turn. On failure a synthetic assistant turn
// carries the error message; the conversation id is left untouched.
//
// One send at a time: a call while another is pending returns ErrBusy.
func (s *Session) Send(ctx context.Context, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.inflight {
		s.mu.Unlock()
		return ErrBusy
	}
	s.inflight = true
	s.turns = append(s.turns, model.Turn{Role: model.RoleUser, Content: message})
	var convID *int64
	if s.convSet {
		v := s.convID
		convID = &v
	}
	s.mu.Unlock()

	resp, err := s.agent.Chat(ctx, s.userID, convID, message)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight = false

	if err != nil {
		s.turns = append(s.turns, model.Turn{
			Role:    model.RoleAssistant,
			Content: errorContent(err),
			Err:     true,
		})
		var he *api.HTTPError
		if errors.As(err, &he) {
			s.log.Printf("chat: send failed: code=%q request_id=%q: %v", he.Code, he.RequestID, err)
		} else {
			s.log.Printf("chat: send failed: %v", err)
		}
		return err
	}

	if !s.convSet {
		s.convID = resp.ConversationID
		s.convSet = true
	}
	s.turns = append(s.turns, model.Turn{
		Role:      model.RoleAssistant,
		Content:   resp.Response,
		ToolCalls: resp.ToolCalls,
	})
	return nil
}

// Turns returns a copy of the transcript in append order.
func (s *Session) Turns() []model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// ConversationID returns the server-assigned id once one exists.
func (s *Session) ConversationID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.convID, s.convSet
}

// Busy reports whether a send is pending; input should be disabled then.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight
}

// errorContent derives the synthetic turn text for a failed send. Server
// messages are shown as-is; everything else gets the generic line.
func errorContent(err error) string {
	var he *api.HTTPError
	if errors.As(err, &he) && he.Detail != "" {
		return "Error: " + he.Detail
	}
	return "Error: " + fallbackError
}
