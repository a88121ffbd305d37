package dailyscot_test

import (
	"testing"

	"github.com/alexandre-normand/dailyscot"
	"github.com/slack-go/slack/slackevents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIncomingEvent(t *testing.T) {
	me := &slackevents.MessageEvent{
		User:            "U1",
		Channel:         "C1",
		ChannelType:     "channel",
		Text:            "Fixed bug X",
		TimeStamp:       "1.2",
		ThreadTimeStamp: "1.1",
	}

	e, err := dailyscot.NewIncomingEvent(me)

	require.NoError(t, err)
	assert.Equal(t, dailyscot.IncomingEvent{UserID: "U1", ChannelID: "C1", ChannelType: "channel", Text: "Fixed bug X", Timestamp: "1.2", ThreadTimestamp: "1.1"}, e)
}

func TestNewIncomingEventFromBot(t *testing.T) {
	e, err := dailyscot.NewIncomingEvent(&slackevents.MessageEvent{BotID: "B1", Username: "standup", Channel: "C1", SubType: "bot_message", TimeStamp: "1.1"})

	require.NoError(t, err)
	assert.Equal(t, "B1", e.BotID)
	assert.Equal(t, "standup", e.BotName)
	assert.Equal(t, "bot_message", e.SubType)
}

func TestNewIncomingEventFromSlackbot(t *testing.T) {
	e, err := dailyscot.NewIncomingEvent(&slackevents.MessageEvent{User: "USLACKBOT", Channel: "C1", Text: "Reminder: daily", TimeStamp: "1.1"})

	require.NoError(t, err)
	assert.Equal(t, "USLACKBOT", e.BotID)
	assert.Equal(t, "Slackbot", e.BotName)
}

func TestNewIncomingEventIgnoredSubTypes(t *testing.T) {
	for _, st := range []string{"message_changed", "message_deleted", "channel_join", "channel_topic"} {
		t.Run(st, func(t *testing.T) {
			_, err := dailyscot.NewIncomingEvent(&slackevents.MessageEvent{User: "U1", Channel: "C1", SubType: st})

			assert.Equal(t, dailyscot.Ignored, dailyscot.KindOf(err))
		})
	}
}

func TestNewIncomingEventKeepsThreadBroadcast(t *testing.T) {
	e, err := dailyscot.NewIncomingEvent(&slackevents.MessageEvent{User: "U1", Channel: "C1", SubType: "thread_broadcast", Text: "Reviewed PR #42", TimeStamp: "1.2", ThreadTimeStamp: "1.1"})

	require.NoError(t, err)
	assert.Equal(t, "Reviewed PR #42", e.Text)
	assert.Equal(t, "thread_broadcast", e.SubType)
}

func TestNewIncomingEventWithNil(t *testing.T) {
	_, err := dailyscot.NewIncomingEvent(nil)

	assert.Equal(t, dailyscot.MalformedEvent, dailyscot.KindOf(err))
}

func TestIsDirectMessage(t *testing.T) {
	assert.True(t, dailyscot.IncomingEvent{ChannelID: "D123"}.IsDirectMessage())
	assert.True(t, dailyscot.IncomingEvent{ChannelID: "C123", ChannelType: "im"}.IsDirectMessage())
	assert.False(t, dailyscot.IncomingEvent{ChannelID: "C123", ChannelType: "channel"}.IsDirectMessage())
	assert.False(t, dailyscot.IncomingEvent{}.IsDirectMessage())
}

func TestThreadID(t *testing.T) {
	assert.Equal(t, "1.1", dailyscot.IncomingEvent{Timestamp: "1.1"}.ThreadID())
	assert.Equal(t, "0.9", dailyscot.IncomingEvent{Timestamp: "1.1", ThreadTimestamp: "0.9"}.ThreadID())
}
