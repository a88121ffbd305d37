package dailyscot

import (
	"github.com/slack-go/slack"
)

// MessagePoster is the subset of the slack web api used to post messages. *slack.Client implements it
type MessagePoster interface {
	PostMessage(channelID string, options ...slack.MsgOption) (rChannelID string, rTimestamp string, err error)
}

// Notifier sends the bot's outbound messages
type Notifier interface {
	// PostThreadedReply posts text as a reply in the thread of threadID
	PostThreadedReply(channelID string, threadID string, text string) (err error)

	// PostDirectMessage sends text to the user in a direct message
	PostDirectMessage(userID string, text string) (err error)

	// PostChannelMessage posts text as a top-level message
	PostChannelMessage(channelID string, text string) (err error)
}

// slackNotifier is the default Notifier, posting through the slack web api
type slackNotifier struct {
	poster MessagePoster
	logger SLogger
}

// NewNotifier returns a Notifier posting through poster
func NewNotifier(poster MessagePoster, logger SLogger) Notifier {
	return &slackNotifier{poster: poster, logger: logger}
}

func (n *slackNotifier) post(channelID string, options ...slack.MsgOption) (err error) {
	rChannelID, ts, err := n.poster.PostMessage(channelID, options...)
	if err != nil {
		return newError(Transport, err, "failed to post message to ["+channelID+"]")
	}

	n.logger.Debugf("Posted message [%s] on channel [%s]", ts, rChannelID)

	return nil
}

// PostThreadedReply posts text in the thread of threadID
func (n *slackNotifier) PostThreadedReply(channelID string, threadID string, text string) (err error) {
	return n.post(channelID, slack.MsgOptionText(text, false), slack.MsgOptionTS(threadID))
}

// PostDirectMessage sends text to the user. Posting to a user id opens the bot's DM with that user
func (n *slackNotifier) PostDirectMessage(userID string, text string) (err error) {
	return n.post(userID, slack.MsgOptionText(text, false))
}

// PostChannelMessage posts text as a top-level message on the channel
func (n *slackNotifier) PostChannelMessage(channelID string, text string) (err error) {
	return n.post(channelID, slack.MsgOptionText(text, false))
}
