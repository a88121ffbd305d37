package dailyscot_test

import (
	"fmt"
	"log"
	"net/url"
	"testing"

	"github.com/alexandre-normand/dailyscot"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

// postedMessage holds the channel and the values of a message sent to the fake poster
type postedMessage struct {
	channelID string
	values    url.Values
}

// fakePoster records posted messages by applying their options
type fakePoster struct {
	posted []postedMessage
	err    error
}

func (p *fakePoster) PostMessage(channelID string, options ...slack.MsgOption) (rChannelID string, rTimestamp string, err error) {
	if p.err != nil {
		return "", "", p.err
	}

	_, values, err := slack.UnsafeApplyMsgOptions("", channelID, "", options...)
	if err != nil {
		return "", "", err
	}

	p.posted = append(p.posted, postedMessage{channelID: channelID, values: values})

	return channelID, fmt.Sprintf("%d.0", len(p.posted)), nil
}

func newSilentLogger() dailyscot.SLogger {
	return dailyscot.NewSLogger(log.New(new(syncBuilder), "", 0), false)
}

func TestPostThreadedReply(t *testing.T) {
	p := new(fakePoster)
	n := dailyscot.NewNotifier(p, newSilentLogger())

	err := n.PostThreadedReply("C1", "1.1", "• Fixed bug X")

	require.NoError(t, err)
	if assert.Len(t, p.posted, 1) {
		assert.Equal(t, "C1", p.posted[0].channelID)
		assert.Equal(t, "• Fixed bug X", p.posted[0].values.Get("text"))
		assert.Equal(t, "1.1", p.posted[0].values.Get("thread_ts"))
	}
}

func TestPostDirectMessage(t *testing.T) {
	p := new(fakePoster)
	n := dailyscot.NewNotifier(p, newSilentLogger())

	err := n.PostDirectMessage("U1", "Got it")

	require.NoError(t, err)
	if assert.Len(t, p.posted, 1) {
		assert.Equal(t, "U1", p.posted[0].channelID)
		assert.Equal(t, "Got it", p.posted[0].values.Get("text"))
		assert.Empty(t, p.posted[0].values.Get("thread_ts"))
	}
}

func TestPostChannelMessage(t *testing.T) {
	p := new(fakePoster)
	n := dailyscot.NewNotifier(p, newSilentLogger())

	err := n.PostChannelMessage("C1", "Reminder")

	require.NoError(t, err)
	if assert.Len(t, p.posted, 1) {
		assert.Empty(t, p.posted[0].values.Get("thread_ts"))
	}
}

func TestPostFailureIsTransportError(t *testing.T) {
	p := &fakePoster{err: fmt.Errorf("channel_not_found")}
	n := dailyscot.NewNotifier(p, newSilentLogger())

	err := n.PostChannelMessage("C1", "Reminder")

	if assert.Error(t, err) {
		assert.Equal(t, dailyscot.Transport, dailyscot.KindOf(err))
		assert.Contains(t, err.Error(), "channel_not_found")
	}
}

func TestMessagePosterWithTelemetry(t *testing.T) {
	p := new(fakePoster)
	mp, err := dailyscot.NewMessagePosterWithTelemetry(p, "test", noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	ch, ts, err := mp.PostMessage("C1", slack.MsgOptionText("hi", false))

	require.NoError(t, err)
	assert.Equal(t, "C1", ch)
	assert.Equal(t, "1.0", ts)

	p.err = fmt.Errorf("rate_limited")
	_, _, err = mp.PostMessage("C1", slack.MsgOptionText("hi", false))
	assert.EqualError(t, err, "rate_limited")
}
