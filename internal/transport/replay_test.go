package transport

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// collector gathers delivered messages for assertions.
type collector struct {
	mu       sync.Mutex
	messages []string
	connects int
}

func (c *collector) handlers() Handlers {
	return Handlers{
		OnConnect: func() {
			c.mu.Lock()
			c.connects++
			c.mu.Unlock()
		},
		OnMessage: func(topic string, payload []byte) {
			c.mu.Lock()
			c.messages = append(c.messages, topic+" "+string(payload))
			c.mu.Unlock()
		},
	}
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// waitFor polls until cond is true or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestReplayDeliversSubscribedTopics(t *testing.T) {
	entries := []ReplayEntry{
		{Topic: "438/SERIAL/status/current", Payload: json.RawMessage(`{"msg":"HELLO"}`), DelayMs: 1},
		{Topic: "438/SERIAL/status/other", Payload: json.RawMessage(`{"msg":"IGNORED"}`), DelayMs: 1},
	}

	tr := NewReplayFromEntries(entries, nil)
	col := &collector{}
	tr.SetHandlers(col.handlers())

	ctx := context.Background()
	if err := tr.Subscribe(ctx, "438/SERIAL/status/current"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer tr.Close(ctx)

	waitFor(t, time.Second, func() bool { return col.count() >= 1 })

	col.mu.Lock()
	defer col.mu.Unlock()
	if col.connects != 1 {
		t.Errorf("connects = %d, want 1", col.connects)
	}
	if len(col.messages) != 1 {
		t.Fatalf("messages = %d, want 1 (unsubscribed topic must be skipped)", len(col.messages))
	}
	if col.messages[0] != `438/SERIAL/status/current {"msg":"HELLO"}` {
		t.Errorf("message = %q", col.messages[0])
	}
}

func TestReplayWildcardSubscription(t *testing.T) {
	entries := []ReplayEntry{
		{Topic: "438/SERIAL/status/current", Payload: json.RawMessage(`{}`), DelayMs: 1},
		{Topic: "438/SERIAL/status/faults", Payload: json.RawMessage(`{}`), DelayMs: 1},
	}

	tr := NewReplayFromEntries(entries, nil)
	col := &collector{}
	tr.SetHandlers(col.handlers())

	ctx := context.Background()
	if err := tr.Subscribe(ctx, "438/SERIAL/status/+"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer tr.Close(ctx)

	waitFor(t, time.Second, func() bool { return col.count() >= 2 })
}

func TestReplayPublishRecorded(t *testing.T) {
	tr := NewReplayFromEntries(nil, nil)
	ctx := context.Background()

	if err := tr.Publish(ctx, "438/SERIAL/command", []byte(`{"msg":"START"}`)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	published := tr.Published()
	if len(published) != 1 {
		t.Fatalf("Published() len = %d, want 1", len(published))
	}
	if published[0].Topic != "438/SERIAL/command" {
		t.Errorf("published topic = %q", published[0].Topic)
	}
}

func TestReplayCloseStopsDelivery(t *testing.T) {
	entries := []ReplayEntry{
		{Topic: "t", Payload: json.RawMessage(`{}`), DelayMs: 500},
	}

	tr := NewReplayFromEntries(entries, nil)
	col := &collector{}
	tr.SetHandlers(col.handlers())

	ctx := context.Background()
	if err := tr.Subscribe(ctx, "t"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := tr.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	// Close twice must be safe
	if err := tr.Close(ctx); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	time.Sleep(600 * time.Millisecond)
	if col.count() != 0 {
		t.Errorf("messages delivered after Close = %d, want 0", col.count())
	}
}

func TestNewReplayParsesLog(t *testing.T) {
	log := `# recorded 2026-08-01
{"topic":"438/SERIAL/status/current","payload":{"msg":"CURRENT-STATE"},"delay_ms":5}

{"topic":"438/SERIAL/status/current","payload":{"msg":"STATE-CHANGE"}}
`
	path := filepath.Join(t.TempDir(), "replay.jsonl")
	if err := os.WriteFile(path, []byte(log), 0o600); err != nil {
		t.Fatalf("writing log: %v", err)
	}

	tr, err := NewReplay(path, nil)
	if err != nil {
		t.Fatalf("NewReplay() error = %v", err)
	}
	if len(tr.entries) != 2 {
		t.Errorf("entries = %d, want 2 (comments and blanks skipped)", len(tr.entries))
	}
}

func TestNewReplayBadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.jsonl")
	if err := os.WriteFile(path, []byte("not json\n"), 0o600); err != nil {
		t.Fatalf("writing log: %v", err)
	}

	if _, err := NewReplay(path, nil); err == nil {
		t.Error("NewReplay() expected error for malformed line")
	}
}

func TestTopicMatches(t *testing.T) {
	tests := []struct {
		pattern string
		topic   string
		want    bool
	}{
		{"a/b/c", "a/b/c", true},
		{"a/+/c", "a/b/c", true},
		{"a/+/c", "a/b/d", false},
		{"a/#", "a/b/c/d", true},
		{"a/b", "a/b/c", false},
		{"a/b/c", "a/b", false},
		{"+/+/+", "a/b/c", true},
	}

	for _, tt := range tests {
		if got := topicMatches(tt.pattern, tt.topic); got != tt.want {
			t.Errorf("topicMatches(%q, %q) = %v, want %v", tt.pattern, tt.topic, got, tt.want)
		}
	}
}
