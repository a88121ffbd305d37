package dailyscot

import (
	"context"

	"github.com/slack-go/slack/slackevents"
)

const (
	// slackbotUserID is the user id slack uses for its own slackbot messages (reminders,
	// workflows). Those messages don't always carry a bot id
	slackbotUserID = "USLACKBOT"
	slackbotName   = "Slackbot"

	directMessageChannelType = "im"
	directMessageIDPrefix    = "D"
)

// Subtypes that never carry a new daily message or a daily prompt
var ignoredSubTypes = map[string]bool{
	"message_changed": true,
	"message_deleted": true,
	"message_replied": true,
	"channel_join":    true,
	"channel_leave":   true,
	"channel_topic":   true,
	"channel_purpose": true,
	"channel_name":    true,
}

// IncomingEvent is a message event normalized from either ingress transport
type IncomingEvent struct {
	UserID          string
	BotID           string
	BotName         string
	ChannelID       string
	ChannelType     string
	Text            string
	Timestamp       string
	ThreadTimestamp string
	SubType         string
}

// EventHandler receives normalized events. It must not block
type EventHandler func(e IncomingEvent)

// EventSource is implemented by the ingress transports (socket mode and webhook). Run
// delivers events to handler until ctx is cancelled or the source fails
type EventSource interface {
	Run(ctx context.Context, handler EventHandler) (err error)
}

// NewIncomingEvent normalizes a slack message event. Deliberately skipped events (edits, deletions,
// channel membership changes) return an Ignored error
func NewIncomingEvent(me *slackevents.MessageEvent) (e IncomingEvent, err error) {
	if me == nil {
		return e, newErrorf(MalformedEvent, "nil message event")
	}

	if ignoredSubTypes[me.SubType] {
		return e, newErrorf(Ignored, "ignoring message with subtype [%s]", me.SubType)
	}

	e = IncomingEvent{
		UserID:          me.User,
		BotID:           me.BotID,
		BotName:         me.Username,
		ChannelID:       me.Channel,
		ChannelType:     me.ChannelType,
		Text:            me.Text,
		Timestamp:       me.TimeStamp,
		ThreadTimestamp: me.ThreadTimeStamp,
		SubType:         me.SubType,
	}

	if e.UserID == slackbotUserID && e.BotID == "" {
		e.BotID = slackbotUserID
		e.BotName = slackbotName
	}

	return e, nil
}

// IsDirectMessage returns true if the event was posted in a direct message conversation
func (e IncomingEvent) IsDirectMessage() bool {
	return e.ChannelType == directMessageChannelType || (len(e.ChannelID) > 0 && e.ChannelID[:1] == directMessageIDPrefix)
}

// ThreadID returns the timestamp of the thread the event belongs to, or its own
// timestamp when it isn't in a thread
func (e IncomingEvent) ThreadID() string {
	if e.ThreadTimestamp != "" {
		return e.ThreadTimestamp
	}

	return e.Timestamp
}
