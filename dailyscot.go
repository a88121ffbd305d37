package dailyscot

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/alexandre-normand/dailyscot/config"
	"github.com/alexandre-normand/dailyscot/store"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Dailyscot is a personal daily bot: it keeps the tracked user's messages of the day and answers
// the daily prompt with them
type Dailyscot struct {
	name   string
	config *viper.Viper
	clock  dayClock

	storer        store.Storer
	notifier      Notifier
	botInfoFinder BotInfoFinder
	self          selfIdentity

	aggregator *Aggregator
	responder  *Responder
	router     *Router

	scheduledActions []ScheduledActionDefinition

	// work serializes event routing and scheduled actions on a single goroutine
	work chan func()
	done chan struct{}

	closers []io.Closer

	log *sLogger
	*instrumenter

	// Options-only settings
	logger *log.Logger
	meter  metric.Meter
	now    func() time.Time
}

// Option defines an option for a Dailyscot
type Option func(*Dailyscot)

// OptionLog sets a logger for Dailyscot
func OptionLog(logger *log.Logger) func(*Dailyscot) {
	return func(d *Dailyscot) {
		d.logger = logger
	}
}

// OptionLogfile sets a logfile for Dailyscot while using the other default logging prefix and options
func OptionLogfile(logfile *os.File) func(*Dailyscot) {
	return func(d *Dailyscot) {
		d.logger = log.New(logfile, defaultLogPrefix, defaultLogFlag)
	}
}

// OptionMeter sets the metric.Meter to use for instrumentation. Defaults to the global meter provider's meter
func OptionMeter(meter metric.Meter) func(*Dailyscot) {
	return func(d *Dailyscot) {
		d.meter = meter
	}
}

// OptionClock sets the function used to tell time. Defaults to time.Now
func OptionClock(now func() time.Time) func(*Dailyscot) {
	return func(d *Dailyscot) {
		d.now = now
	}
}

// OptionStorer sets the Storer for the daily messages and response records. Required
func OptionStorer(storer store.Storer) func(*Dailyscot) {
	return func(d *Dailyscot) {
		d.storer = storer
	}
}

// OptionNotifier sets the Notifier used for all outbound messages. Required
func OptionNotifier(notifier Notifier) func(*Dailyscot) {
	return func(d *Dailyscot) {
		d.notifier = notifier
	}
}

// OptionBotInfoFinder sets the finder used to look up bot names. Required
func OptionBotInfoFinder(finder BotInfoFinder) func(*Dailyscot) {
	return func(d *Dailyscot) {
		d.botInfoFinder = finder
	}
}

// OptionSelfIdentity sets "our" user id and bot id so the bot ignores its own messages
func OptionSelfIdentity(userID string, botID string) func(*Dailyscot) {
	return func(d *Dailyscot) {
		d.self = selfIdentity{userID: userID, botID: botID}
	}
}

const (
	defaultLogPrefix = "dailyscot: "
	defaultLogFlag   = log.Lshortfile | log.LstdFlags
)

// New creates a new Dailyscot. v should hold a validated configuration (see config.Validate). The storer,
// notifier and bot info finder must be provided as options
func New(name string, v *viper.Viper, options ...Option) (d *Dailyscot, err error) {
	d = new(Dailyscot)
	d.name = name
	d.config = v
	d.logger = log.New(os.Stdout, defaultLogPrefix, defaultLogFlag)
	d.meter = otel.Meter(name)
	d.now = time.Now

	for _, opt := range options {
		opt(d)
	}

	d.log = NewSLogger(d.logger, v.GetBool(config.DebugKey))

	if d.storer == nil || d.notifier == nil || d.botInfoFinder == nil {
		return nil, newErrorf(Configuration, "a storer, a notifier and a bot info finder are required")
	}

	timeLoc, err := config.GetTimeLocation(v)
	if err != nil {
		return nil, &Error{Kind: Configuration, Err: err}
	}
	d.clock = newDayClock(d.now, timeLoc)

	queueSize := v.GetInt(config.QueueSizeKey)
	if queueSize < 0 {
		return nil, newErrorf(Configuration, "invalid %s [%d]", config.QueueSizeKey, queueSize)
	}
	d.work = make(chan func(), queueSize)
	d.done = make(chan struct{})

	d.instrumenter, err = newInstrumenter(name, d.meter)
	if err != nil {
		return nil, newError(Configuration, err, "failed to create instrumenter")
	}

	d.aggregator = newAggregator(d.storer, d.notifier, v.GetString(config.UserIDKey), d.clock, d.log)
	d.responder = newResponder(d.storer, d.notifier, d.aggregator, v.GetString(config.ChannelIDKey), d.clock, d.log, d.instrumenter)
	d.router = &Router{
		trackedUserID: v.GetString(config.UserIDKey),
		channelID:     v.GetString(config.ChannelIDKey),
		dailyBotName:  v.GetString(config.DailyBotNameKey),
		self:          d.self,
		botInfoFinder: d.botInfoFinder,
		aggregator:    d.aggregator,
		responder:     d.responder,
		logger:        d.log,
		instrumenter:  d.instrumenter,
	}
	d.scheduledActions = d.dailyScheduledActions()

	return d, nil
}

// Aggregator returns the daily aggregator
func (d *Dailyscot) Aggregator() *Aggregator {
	return d.aggregator
}

// Responder returns the response engine
func (d *Dailyscot) Responder() *Responder {
	return d.responder
}

// Router returns the message router
func (d *Dailyscot) Router() *Router {
	return d.router
}

// ScheduledActions returns the actions scheduled when running
func (d *Dailyscot) ScheduledActions() []ScheduledActionDefinition {
	return d.scheduledActions
}

// HandleEvent queues an incoming event for routing. It is the EventHandler given to the
// EventSource and is safe for concurrent use. Events received after shutdown are dropped
func (d *Dailyscot) HandleEvent(e IncomingEvent) {
	d.eventSeen()
	d.log.Debugf("Queueing event [%s] on [%s]", e.Timestamp, e.ChannelID)

	d.enqueue(func() {
		if err := d.router.Route(e); err != nil {
			d.log.Printf("Error routing event [%s] on [%s] (%s error): %v\n", e.Timestamp, e.ChannelID, KindOf(err), err)
		}
	})
}

func (d *Dailyscot) enqueue(f func()) {
	dur := measure(func() {
		select {
		case d.work <- f:
		case <-d.done:
			d.log.Printf("Dropping work received after shutdown\n")
		}
	})

	d.dispatched(dur)
}

// Run starts the scheduler and the event source and processes events until ctx is cancelled, a termination
// signal is received or the event source fails. On return, the scheduler is stopped and the closers
// (including the storer, when registered) are closed. Run must only be called once
func (d *Dailyscot) Run(ctx context.Context, source EventSource) (err error) {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	defer d.Close()

	c, err := d.newActionScheduler()
	if err != nil {
		return &Error{Kind: Configuration, Err: err}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.processWork(ctx)
	}()

	c.Start()
	d.log.Printf("Dailyscot [%s] running, tracking user [%s] on channel [%s]\n", d.name, d.router.trackedUserID, d.router.channelID)

	sourceErrs := make(chan error, 1)
	go func() {
		sourceErrs <- source.Run(ctx, d.HandleEvent)
	}()

	sourceDone := false
	select {
	case <-ctx.Done():
		d.log.Printf("Shutting down: %v\n", context.Cause(ctx))
	case err = <-sourceErrs:
		sourceDone = true
		if err != nil {
			err = newError(Transport, err, "event source failed")
			d.log.Printf("%v\n", err)
		}
		cancel()
	}

	// Unblock pending enqueues before waiting on the source and running jobs
	close(d.done)
	if !sourceDone {
		<-sourceErrs
	}
	<-c.Stop().Done()
	wg.Wait()

	return err
}

// processWork runs queued work until ctx is done
func (d *Dailyscot) processWork(ctx context.Context) {
	for {
		select {
		case f := <-d.work:
			f()
		case <-ctx.Done():
			return
		}
	}
}

// Close closes all closers, logging failures. The first error is returned
func (d *Dailyscot) Close() (err error) {
	for _, c := range d.closers {
		if cerr := c.Close(); cerr != nil {
			d.log.Printf("Error closing [%T]: %v\n", c, cerr)
			if err == nil {
				err = cerr
			}
		}
	}

	return err
}

// Status is a snapshot of today's state
type Status struct {
	Date           string `json:"date"`
	MessagesToday  int    `json:"messagesToday"`
	DailyResponded bool   `json:"dailyResponded"`
	Mode           string `json:"mode"`
	Config         struct {
		ChannelID string `json:"channelId"`
		UserID    string `json:"userId"`
	} `json:"config"`
}

// Status returns today's date, message count and responded state. It is safe for concurrent use
func (d *Dailyscot) Status() (s Status) {
	messages, err := d.aggregator.TodayMessages()
	if err != nil {
		d.log.Printf("Error loading messages for status: %v\n", err)
	}

	s.Date = d.clock.today()
	s.MessagesToday = len(messages)
	s.DailyResponded = d.responder.Responded()
	s.Mode = d.config.GetString(config.IngressModeKey)
	s.Config.ChannelID = d.router.channelID
	s.Config.UserID = d.router.trackedUserID

	return s
}
