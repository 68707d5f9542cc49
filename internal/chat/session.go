package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mkoudsi/opstower/internal/upstream"
)

// failureNotice is shown in place of an assistant reply when the analytics
// service cannot be reached or returns an error.
const failureNotice = "Sorry, I couldn't reach the insights service. Please try again."

var (
	// ErrEmptyMessage is returned when a send carries no visible text.
	ErrEmptyMessage = errors.New("chat: empty message")
	// ErrSendInFlight is returned when a send is attempted while a
	// previous question is still awaiting its reply.
	ErrSendInFlight = errors.New("chat: a question is already awaiting its reply")
)

// Querier answers natural language questions. *upstream.Client satisfies it.
type Querier interface {
	Query(ctx context.Context, question string) (*upstream.QueryReply, error)
}

// ExchangeRecord describes one completed question/reply exchange for the
// audit trail.
type ExchangeRecord struct {
	Question     string
	SQL          string
	Outcome      string // "ok" or "error"
	RowsReturned int
	RowsAffected int64
	Duration     time.Duration
}

// Auditor records completed exchanges. Implementations must not block.
type Auditor interface {
	Record(rec ExchangeRecord)
}

// Session is the single conversation shared by every chat surface.
// All methods are safe for concurrent use.
type Session struct {
	querier  Querier
	auditor  Auditor
	onChange func()

	mu       sync.Mutex
	messages []Message
	draft    string
	pending  bool
	nextID   int64
}

// Snapshot is a point-in-time copy of the conversation state.
type Snapshot struct {
	Messages []Message `json:"messages"`
	Draft    string    `json:"draft"`
	Pending  bool      `json:"pending"`
}

// NewSession creates an empty session. auditor may be nil.
func NewSession(querier Querier, auditor Auditor) *Session {
	return &Session{querier: querier, auditor: auditor, nextID: 1}
}

// SetOnChange installs the change callback, invoked after every observable
// state change. Must be called before the session is shared across
// goroutines.
func (s *Session) SetOnChange(fn func()) {
	s.onChange = fn
}

// Send submits one question. The user message is appended and the draft
// cleared before this returns; the assistant reply arrives asynchronously.
// Returns ErrEmptyMessage if text is blank after trimming, ErrSendInFlight
// if a previous question is still unresolved.
func (s *Session) Send(ctx context.Context, text string) error {
	question := strings.TrimSpace(text)
	if question == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return ErrSendInFlight
	}
	s.pending = true
	s.draft = ""
	s.append(Message{Role: RoleUser, Content: question})
	s.mu.Unlock()
	s.notify()

	// The reply must land even if the submitting request is cancelled,
	// so resolution runs on a detached context bounded only by the
	// querier's own timeout.
	go s.resolve(context.WithoutCancel(ctx), question)

	return nil
}

func (s *Session) resolve(ctx context.Context, question string) {
	started := time.Now()
	reply, err := s.querier.Query(ctx, question)

	var msg Message
	rec := ExchangeRecord{Question: question, Duration: time.Since(started)}
	if err != nil {
		slog.Warn("Query failed", "error", err)
		msg = Message{Role: RoleAssistant, Content: failureNotice}
		rec.Outcome = "error"
	} else {
		msg = fromReply(reply)
		rec.Outcome = "ok"
		rec.SQL = reply.SQL
		rec.RowsReturned = len(reply.Data)
		if reply.RowsAffected != nil {
			rec.RowsAffected = *reply.RowsAffected
		}
	}

	if s.auditor != nil {
		s.auditor.Record(rec)
	}

	s.mu.Lock()
	s.append(msg)
	s.pending = false
	s.mu.Unlock()
	s.notify()
}

// append adds a message with the next monotonic ID. Caller holds s.mu.
func (s *Session) append(msg Message) {
	msg.ID = s.nextID
	s.nextID++
	msg.CreatedAt = time.Now()
	s.messages = append(s.messages, msg)
}

// SetDraft stores the in-progress input text.
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()
	s.notify()
}

// Clear empties the conversation history and draft. It is permitted at any
// time; a reply still in flight is not cancelled and will be appended to
// the cleared conversation when it resolves.
func (s *Session) Clear() {
	s.mu.Lock()
	s.messages = nil
	s.draft = ""
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns a copy of the conversation state. The returned message
// slice is independent of the session's internal storage.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := make([]Message, len(s.messages))
	copy(messages, s.messages)
	return Snapshot{Messages: messages, Draft: s.draft, Pending: s.pending}
}

func (s *Session) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
