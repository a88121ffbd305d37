// Package ingress provides the two ways dailyscot receives slack events: a socket mode
// connection and an http webhook for the events api. Both implement dailyscot.EventSource
package ingress

import (
	"github.com/alexandre-normand/dailyscot"
	"github.com/slack-go/slack/slackevents"
)

// dispatch normalizes the message carried by an events api callback and hands it to handler.
// Other inner event types are ignored
func dispatch(ev slackevents.EventsAPIEvent, handler dailyscot.EventHandler, logger dailyscot.SLogger) {
	if ev.Type != slackevents.CallbackEvent {
		logger.Debugf("Ignoring events api event of type [%s]", ev.Type)
		return
	}

	me, ok := ev.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		logger.Debugf("Ignoring inner event of type [%s]", ev.InnerEvent.Type)
		return
	}

	e, err := dailyscot.NewIncomingEvent(me)
	if err != nil {
		if dailyscot.KindOf(err) == dailyscot.Ignored {
			logger.Debugf("%v", err)
		} else {
			logger.Printf("Dropping message event: %v", err)
		}
		return
	}

	handler(e)
}
