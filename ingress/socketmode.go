package ingress

import (
	"context"

	"github.com/alexandre-normand/dailyscot"
	"github.com/pkg/errors"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

// socketModeClient is the part of *socketmode.Client used by SocketMode
type socketModeClient interface {
	RunContext(ctx context.Context) error
	Ack(req socketmode.Request, payload ...interface{})
}

// SocketMode receives events over a slack socket mode connection
type SocketMode struct {
	client socketModeClient
	events <-chan socketmode.Event
	logger dailyscot.SLogger
}

// NewSocketMode returns a SocketMode source reading events from client
func NewSocketMode(client *socketmode.Client, logger dailyscot.SLogger) (s *SocketMode) {
	return newSocketMode(client, client.Events, logger)
}

func newSocketMode(client socketModeClient, events <-chan socketmode.Event, logger dailyscot.SLogger) (s *SocketMode) {
	return &SocketMode{client: client, events: events, logger: logger}
}

// Run connects and delivers message events to handler until ctx is cancelled. Every events api
// envelope is acknowledged before it is dispatched. An invalid auth event or a connection failure
// ends Run with an error
func (s *SocketMode) Run(ctx context.Context, handler dailyscot.EventHandler) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErrs := make(chan error, 1)
	go func() {
		runErrs <- s.client.RunContext(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err = <-runErrs:
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "socket mode connection ended")
		case evt := <-s.events:
			if err = s.handle(evt, handler); err != nil {
				return err
			}
		}
	}
}

func (s *SocketMode) handle(evt socketmode.Event, handler dailyscot.EventHandler) (err error) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		s.logger.Printf("Connecting to slack with socket mode...")
	case socketmode.EventTypeConnected:
		s.logger.Printf("Connected to slack with socket mode")
	case socketmode.EventTypeConnectionError:
		s.logger.Printf("Socket mode connection error: %v", evt.Data)
	case socketmode.EventTypeInvalidAuth:
		return errors.New("invalid_auth: socket mode authentication failed, check the app token")
	case socketmode.EventTypeEventsAPI:
		ev, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			s.logger.Printf("Ignoring events api envelope with unexpected data [%T]", evt.Data)
			return nil
		}

		if evt.Request != nil {
			s.client.Ack(*evt.Request)
		}

		dispatch(ev, handler, s.logger)
	default:
		s.logger.Debugf("Ignoring socket mode event [%s]", evt.Type)
	}

	return nil
}
