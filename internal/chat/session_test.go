package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mkoudsi/opstower/internal/upstream"
)

// fakeQuerier answers questions from a channel-gated stub.
type fakeQuerier struct {
	release chan struct{} // if non-nil, Query blocks until closed
	reply   *upstream.QueryReply
	err     error
}

func (f *fakeQuerier) Query(ctx context.Context, question string) (*upstream.QueryReply, error) {
	if f.release != nil {
		<-f.release
	}
	return f.reply, f.err
}

// recordingAuditor captures exchange records.
type recordingAuditor struct {
	mu   sync.Mutex
	recs []ExchangeRecord
}

func (a *recordingAuditor) Record(rec ExchangeRecord) {
	a.mu.Lock()
	a.recs = append(a.recs, rec)
	a.mu.Unlock()
}

func (a *recordingAuditor) records() []ExchangeRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ExchangeRecord, len(a.recs))
	copy(out, a.recs)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached within deadline")
}

func TestSendRejectsEmptyAndWhitespace(t *testing.T) {
	t.Parallel()

	s := NewSession(&fakeQuerier{}, nil)

	for _, text := range []string{"", "   ", "\n\t "} {
		if err := s.Send(context.Background(), text); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("Send(%q) = %v, want ErrEmptyMessage", text, err)
		}
	}
	if got := len(s.Snapshot().Messages); got != 0 {
		t.Fatalf("rejected sends must not append messages, got %d", got)
	}
}

func TestSendSuccessAppendsQuestionAndReply(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	q := &fakeQuerier{release: release, reply: &upstream.QueryReply{
		SQL:     "SELECT * FROM stores",
		Summary: "Found 12 stores",
		Data:    []map[string]any{{"store_id": "ST_DUBAI_HYPER_01"}},
	}}
	auditor := &recordingAuditor{}
	s := NewSession(q, auditor)

	if err := s.Send(context.Background(), "Show me all stores"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	snap := s.Snapshot()
	if !snap.Pending {
		t.Fatal("expected pending immediately after send")
	}
	if len(snap.Messages) != 1 || snap.Messages[0].Role != RoleUser {
		t.Fatalf("expected one user message, got %+v", snap.Messages)
	}

	close(release)
	waitFor(t, func() bool { return !s.Snapshot().Pending })

	snap = s.Snapshot()
	if len(snap.Messages) != 2 {
		t.Fatalf("expected 2 messages after resolution, got %d", len(snap.Messages))
	}
	reply := snap.Messages[1]
	if reply.Role != RoleAssistant {
		t.Fatalf("expected assistant reply, got role %q", reply.Role)
	}
	if reply.Content != "Found 12 stores" {
		t.Fatalf("expected summary as content, got %q", reply.Content)
	}
	if reply.SQL != "SELECT * FROM stores" {
		t.Fatalf("expected SQL carried over, got %q", reply.SQL)
	}
	if len(reply.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(reply.Rows))
	}

	recs := auditor.records()
	if len(recs) != 1 || recs[0].Outcome != "ok" || recs[0].RowsReturned != 1 {
		t.Fatalf("unexpected audit records: %+v", recs)
	}
}

func TestSendFailureAppendsGenericNotice(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{err: errors.New("connection refused to 10.0.0.1:5000")}
	auditor := &recordingAuditor{}
	s := NewSession(q, auditor)

	if err := s.Send(context.Background(), "anything"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	waitFor(t, func() bool { return !s.Snapshot().Pending })

	snap := s.Snapshot()
	if len(snap.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(snap.Messages))
	}
	reply := snap.Messages[1]
	if reply.Content != failureNotice {
		t.Fatalf("expected generic failure notice, got %q", reply.Content)
	}
	// Raw error detail must not leak into the conversation.
	if reply.SQL != "" || len(reply.Rows) != 0 || reply.Viz != nil {
		t.Fatalf("failure reply must carry no reply parts: %+v", reply)
	}

	recs := auditor.records()
	if len(recs) != 1 || recs[0].Outcome != "error" {
		t.Fatalf("unexpected audit records: %+v", recs)
	}
}

func TestSendWhilePendingIsRejected(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	q := &fakeQuerier{release: release, reply: &upstream.QueryReply{Summary: "done"}}
	s := NewSession(q, nil)

	if err := s.Send(context.Background(), "first"); err != nil {
		t.Fatalf("first send failed: %v", err)
	}
	if err := s.Send(context.Background(), "second"); !errors.Is(err, ErrSendInFlight) {
		t.Fatalf("second send = %v, want ErrSendInFlight", err)
	}

	close(release)
	waitFor(t, func() bool { return !s.Snapshot().Pending })

	// Only the first question and its reply exist.
	if got := len(s.Snapshot().Messages); got != 2 {
		t.Fatalf("expected 2 messages, got %d", got)
	}

	if err := s.Send(context.Background(), "third"); err != nil {
		t.Fatalf("send after resolution failed: %v", err)
	}
}

func TestSendClearsDraft(t *testing.T) {
	t.Parallel()

	s := NewSession(&fakeQuerier{reply: &upstream.QueryReply{Summary: "ok"}}, nil)
	s.SetDraft("Show me all stores")

	if err := s.Send(context.Background(), "Show me all stores"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if draft := s.Snapshot().Draft; draft != "" {
		t.Fatalf("expected draft cleared on send, got %q", draft)
	}
}

func TestClearDuringPendingKeepsReply(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	q := &fakeQuerier{release: release, reply: &upstream.QueryReply{Summary: "late reply"}}
	s := NewSession(q, nil)

	if err := s.Send(context.Background(), "question"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	s.Clear()

	if got := len(s.Snapshot().Messages); got != 0 {
		t.Fatalf("expected empty history after clear, got %d messages", got)
	}
	if !s.Snapshot().Pending {
		t.Fatal("clear must not cancel the in-flight question")
	}

	close(release)
	waitFor(t, func() bool { return !s.Snapshot().Pending })

	snap := s.Snapshot()
	if len(snap.Messages) != 1 || snap.Messages[0].Content != "late reply" {
		t.Fatalf("expected late reply appended to cleared history, got %+v", snap.Messages)
	}
}

func TestMessageIDsAreMonotonic(t *testing.T) {
	t.Parallel()

	s := NewSession(&fakeQuerier{reply: &upstream.QueryReply{Summary: "ok"}}, nil)

	for i := 0; i < 3; i++ {
		if err := s.Send(context.Background(), "q"); err != nil {
			t.Fatalf("send %d failed: %v", i, err)
		}
		waitFor(t, func() bool { return !s.Snapshot().Pending })
	}

	msgs := s.Snapshot().Messages
	if len(msgs) != 6 {
		t.Fatalf("expected 6 messages, got %d", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].ID <= msgs[i-1].ID {
			t.Fatalf("IDs not strictly increasing: %d then %d", msgs[i-1].ID, msgs[i].ID)
		}
	}
}

func TestSendSurvivesCancelledRequestContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	q := &fakeQuerier{release: release, reply: &upstream.QueryReply{Summary: "still here"}}
	s := NewSession(q, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Send(ctx, "question"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	cancel() // the submitting HTTP request goes away
	close(release)

	waitFor(t, func() bool { return !s.Snapshot().Pending })

	msgs := s.Snapshot().Messages
	if len(msgs) != 2 || msgs[1].Content != "still here" {
		t.Fatalf("expected reply despite cancelled request, got %+v", msgs)
	}
}

func TestRowsCappedAtStorageLimit(t *testing.T) {
	t.Parallel()

	data := make([]map[string]any, maxStoredRows+100)
	for i := range data {
		data[i] = map[string]any{"n": i}
	}
	s := NewSession(&fakeQuerier{reply: &upstream.QueryReply{Summary: "big", Data: data}}, nil)

	if err := s.Send(context.Background(), "big result"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	waitFor(t, func() bool { return !s.Snapshot().Pending })

	reply := s.Snapshot().Messages[1]
	if len(reply.Rows) != maxStoredRows {
		t.Fatalf("expected rows capped at %d, got %d", maxStoredRows, len(reply.Rows))
	}
}
