// Package assistant runs the EduSmart chat: it keeps the transcript for the
// session and asks the gateway for a reply grounded in the student's live
// profile.
package assistant

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/gateway"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/models"
)

const (
	EmptyReply = "I'm having trouble connecting to the campus server right now."
	ErrorReply = "Sorry, I encountered an error. Please try again later."

	maxMessageLen = 2000
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// ProfileSource yields the student as currently seen by the session,
// balance included.
type ProfileSource interface {
	Profile(ctx context.Context) (models.Student, error)
}

type Transcript struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
}

// Answer is the outcome of one Ask.
type Answer struct {
	Reply    Message `json:"reply"`
	Degraded bool    `json:"degraded"`
}

type Assistant struct {
	responder gateway.ChatResponder
	profiles  ProfileSource
	now       func() time.Time
	log       *zap.Logger

	mu       sync.Mutex
	convID   uuid.UUID
	messages []Message
}

func New(responder gateway.ChatResponder, profiles ProfileSource, now func() time.Time, log *zap.Logger) *Assistant {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &Assistant{
		responder: responder,
		profiles:  profiles,
		now:       now,
		log:       log.Named("assistant"),
		convID:    id,
	}
}

// Greeting is the first assistant message of a conversation.
func Greeting(s models.Student) string {
	return fmt.Sprintf("Hi %s! I'm EduSmart. Need help with fee schedules, library books, or finding a room?", s.FirstName())
}

// StudentContext renders the profile line handed to the chat model.
func StudentContext(s models.Student) string {
	return fmt.Sprintf("Student: %s, Course: %s, Roll: %s, Balance: %s", s.Name, s.Course, s.RollNo, s.Balance.String())
}

// Start resets the conversation and posts the greeting.
func (a *Assistant) Start(ctx context.Context) error {
	s, err := a.profiles.Profile(ctx)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("conversation id: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.convID = id
	a.messages = []Message{{Role: RoleAssistant, Text: Greeting(s), At: a.now()}}
	return nil
}

// Ask posts message, waits for the gateway and appends the reply. Gateway
// failures become fallback replies and are never returned.
func (a *Assistant) Ask(ctx context.Context, message string) (Answer, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Answer{}, models.Invalid("message", "is required")
	}
	if utf8.RuneCountInString(message) > maxMessageLen {
		return Answer{}, models.Invalid("message", "longer than %d characters", maxMessageLen)
	}

	s, err := a.profiles.Profile(ctx)
	if err != nil {
		return Answer{}, fmt.Errorf("load profile: %w", err)
	}

	a.append(Message{Role: RoleUser, Text: message, At: a.now()})

	ans := Answer{}
	text, err := a.responder.Reply(ctx, message, StudentContext(s))
	switch {
	case err != nil:
		a.log.Warn("chat reply failed", zap.Error(err))
		text = ErrorReply
		ans.Degraded = true
	case strings.TrimSpace(text) == "":
		text = EmptyReply
		ans.Degraded = true
	}

	ans.Reply = Message{Role: RoleAssistant, Text: text, At: a.now()}
	a.append(ans.Reply)
	return ans, nil
}

func (a *Assistant) append(m Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, m)
}

// Transcript returns the conversation oldest first.
func (a *Assistant) Transcript() Transcript {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Transcript{
		ConversationID: a.convID.String(),
		Messages:       slices.Clone(a.messages),
	}
}
