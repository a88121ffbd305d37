package dailyscot

import (
	"strings"

	"github.com/slack-go/slack"
)

// selfIdentity holds "our" user and bot ids so that the bot never reacts to its own messages
type selfIdentity struct {
	userID string
	botID  string
}

// Router classifies incoming events and dispatches them: daily prompts go to the
// Responder and the tracked user's messages go to the Aggregator. Everything else is ignored
type Router struct {
	trackedUserID string
	channelID     string
	dailyBotName  string
	self          selfIdentity
	botInfoFinder BotInfoFinder
	aggregator    *Aggregator
	responder     *Responder
	logger        SLogger
	*instrumenter
}

// Route classifies e and dispatches it. Errors are never fatal and are meant to be
// logged by the caller
func (r *Router) Route(e IncomingEvent) (err error) {
	var class string
	d := measure(func() {
		class, err = r.route(e)
	})

	r.routed(class, d)

	return err
}

func (r *Router) route(e IncomingEvent) (class string, err error) {
	if e.ChannelID == "" {
		return malformedClass, newErrorf(MalformedEvent, "event [%s] has no channel", e.Timestamp)
	}

	if e.UserID == "" && e.BotID == "" {
		return malformedClass, newErrorf(MalformedEvent, "event [%s] on [%s] has neither user nor bot", e.Timestamp, e.ChannelID)
	}

	if r.isSelf(e) {
		r.logger.Debugf("Ignoring our own message [%s] on [%s]", e.Timestamp, e.ChannelID)
		return ignoredClass, nil
	}

	if e.BotID != "" {
		isPrompt, err := r.isDailyPrompt(e)
		if err != nil {
			return ignoredClass, err
		}

		if !isPrompt {
			r.logger.Debugf("Ignoring message [%s] from bot [%s]", e.Timestamp, e.BotID)
			return ignoredClass, nil
		}

		r.logger.Printf("Daily prompt detected from bot [%s] in thread [%s]", e.BotID, e.ThreadID())
		return dailyPromptClass, r.responder.OnDailyPrompt(e.ThreadID())
	}

	if e.UserID == r.trackedUserID && (e.ChannelID == r.channelID || e.IsDirectMessage()) {
		return userMessageClass, r.aggregator.StoreMessage(e.Text)
	}

	r.logger.Debugf("Ignoring message [%s] from [%s] on [%s]", e.Timestamp, e.UserID, e.ChannelID)

	return ignoredClass, nil
}

func (r *Router) isSelf(e IncomingEvent) bool {
	return (r.self.userID != "" && e.UserID == r.self.userID) || (r.self.botID != "" && e.BotID == r.self.botID)
}

// isDailyPrompt looks up the bot's display name and returns true if it contains the configured
// daily bot name, ignoring case
func (r *Router) isDailyPrompt(e IncomingEvent) (isPrompt bool, err error) {
	name := e.BotName
	if e.BotID != slackbotUserID {
		bot, err := r.botInfoFinder.GetBotInfo(slack.GetBotInfoParameters{Bot: e.BotID})
		if err != nil {
			return false, newError(Transport, err, "failed to look up bot ["+e.BotID+"]")
		}

		name = bot.Name
	}

	return strings.Contains(strings.ToLower(name), strings.ToLower(r.dailyBotName)), nil
}
