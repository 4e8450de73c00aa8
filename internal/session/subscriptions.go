package session

import (
	"context"
	"strings"

	"github.com/nfarrow/appliancelink/internal/transport"
)

// Topic templates, expanded with the device's root topic and serial.
// The command topic is subscribed too: the broker echoes our own
// publishes back on it, which the pipeline passes through verbatim.
var (
	statusTopicTemplates = []string{
		"{rootTopic}/{serial}/status/current",
		"{rootTopic}/{serial}/status/connection",
		"{rootTopic}/{serial}/status/faults",
	}

	commandTopicTemplate = "{rootTopic}/{serial}/command"

	// Topics the appliance publishes on that we deliberately do not
	// subscribe to. Classified as "other" rather than "unknown" so
	// their appearance never warns.
	otherTopicTemplates = []string{
		"{rootTopic}/{serial}/status/software",
		"{rootTopic}/{serial}/status/summary",
	}
)

// TopicClass classifies an inbound topic.
type TopicClass string

const (
	TopicSubscribed TopicClass = "subscribed"
	TopicCommand    TopicClass = "command"
	TopicOther      TopicClass = "other"
	TopicUnknown    TopicClass = "unknown"
)

// subscriptions holds the expanded topic set for one device session and
// re-issues the subscriptions on every connect.
type subscriptions struct {
	subscribed []string
	command    string
	other      []string
}

func newSubscriptions(rootTopic, serial string) *subscriptions {
	expand := func(template string) string {
		return strings.NewReplacer(
			"{rootTopic}", rootTopic,
			"{serial}", serial,
		).Replace(template)
	}

	s := &subscriptions{command: expand(commandTopicTemplate)}
	for _, t := range statusTopicTemplates {
		s.subscribed = append(s.subscribed, expand(t))
	}
	for _, t := range otherTopicTemplates {
		s.other = append(s.other, expand(t))
	}
	return s
}

// CommandTopic returns the session's single command topic.
func (s *subscriptions) CommandTopic() string {
	return s.command
}

// SubscribeAll issues every required subscription on the transport.
// It returns nil only once all of them have acknowledged; callers treat
// that as the signal to emit the session's "subscribed" event.
func (s *subscriptions) SubscribeAll(ctx context.Context, tr transport.Transport) error {
	for _, topic := range s.subscribed {
		if err := tr.Subscribe(ctx, topic); err != nil {
			return err
		}
	}
	return tr.Subscribe(ctx, s.command)
}

// CheckTopic classifies an inbound topic. Unknown topics are worth a
// warning but never an error.
func (s *subscriptions) CheckTopic(topic string) TopicClass {
	if topic == s.command {
		return TopicCommand
	}
	for _, t := range s.subscribed {
		if t == topic {
			return TopicSubscribed
		}
	}
	for _, t := range s.other {
		if t == topic {
			return TopicOther
		}
	}
	return TopicUnknown
}
