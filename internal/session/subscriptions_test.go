package session

import (
	"context"
	"testing"

	"github.com/nfarrow/appliancelink/internal/transport"
)

func TestSubscriptionsTemplateExpansion(t *testing.T) {
	s := newSubscriptions("438", "XW1-EU-ABC1234A")

	if got, want := s.CommandTopic(), "438/XW1-EU-ABC1234A/command"; got != want {
		t.Errorf("CommandTopic() = %q, want %q", got, want)
	}

	wantSubscribed := []string{
		"438/XW1-EU-ABC1234A/status/current",
		"438/XW1-EU-ABC1234A/status/connection",
		"438/XW1-EU-ABC1234A/status/faults",
	}
	if len(s.subscribed) != len(wantSubscribed) {
		t.Fatalf("subscribed = %v, want %v", s.subscribed, wantSubscribed)
	}
	for i, want := range wantSubscribed {
		if s.subscribed[i] != want {
			t.Errorf("subscribed[%d] = %q, want %q", i, s.subscribed[i], want)
		}
	}
}

func TestSubscribeAllIssuesEveryTopic(t *testing.T) {
	s := newSubscriptions("438", "SER123")
	tr := transport.NewReplayFromEntries(nil, nil)

	if err := s.SubscribeAll(context.Background(), tr); err != nil {
		t.Fatalf("SubscribeAll() error = %v, want nil", err)
	}

	// Every status topic plus the command topic must classify as
	// subscribed or command afterwards.
	for _, topic := range s.subscribed {
		if got := s.CheckTopic(topic); got != TopicSubscribed {
			t.Errorf("CheckTopic(%q) = %v, want subscribed", topic, got)
		}
	}
}

func TestCheckTopic(t *testing.T) {
	s := newSubscriptions("438", "SER123")

	tests := []struct {
		topic string
		want  TopicClass
	}{
		{"438/SER123/status/current", TopicSubscribed},
		{"438/SER123/status/connection", TopicSubscribed},
		{"438/SER123/status/faults", TopicSubscribed},
		{"438/SER123/command", TopicCommand},
		{"438/SER123/status/software", TopicOther},
		{"438/SER123/status/summary", TopicOther},
		{"438/SER123/status/bogus", TopicUnknown},
		{"999/OTHER/status/current", TopicUnknown},
		{"", TopicUnknown},
	}

	for _, tt := range tests {
		if got := s.CheckTopic(tt.topic); got != tt.want {
			t.Errorf("CheckTopic(%q) = %v, want %v", tt.topic, got, tt.want)
		}
	}
}
