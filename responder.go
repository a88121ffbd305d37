package dailyscot

import (
	"sync"

	"github.com/alexandre-normand/dailyscot/store"
)

const missedDailyReminderPrefix = "⚠️ *Reminder:* today's daily has not been answered yet!\n\n"

// Responder decides when the daily report gets posted. A day goes from not responded to
// responded at most once: the first daily prompt with messages stored for the day gets
// a threaded reply and every later prompt that day is a no-op. The persisted record is
// checked before sending, so resetting the in-memory flag never answers a recorded day again
type Responder struct {
	storer     store.Storer
	notifier   Notifier
	aggregator *Aggregator
	channelID  string
	clock      dayClock
	logger     SLogger
	*instrumenter

	mu sync.Mutex
	// The date the in-memory flag was set for. A date other than today means not responded
	respondedOn string
}

func newResponder(storer store.Storer, notifier Notifier, aggregator *Aggregator, channelID string, clock dayClock, logger SLogger, ins *instrumenter) (r *Responder) {
	r = &Responder{storer: storer, notifier: notifier, aggregator: aggregator, channelID: channelID, clock: clock, logger: logger, instrumenter: ins}
	r.restoreDailyFlag()

	return r
}

// OnDailyPrompt posts today's report as a reply in the prompt's thread unless today was already
// answered or there is nothing to report
func (r *Responder) OnDailyPrompt(threadID string) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	today := r.clock.today()
	if r.respondedOn == today {
		r.logger.Debugf("Daily for [%s] already answered, ignoring prompt [%s]", today, threadID)
		return nil
	}

	if r.persistedAsSent(today) {
		r.logger.Printf("Daily for [%s] already recorded as answered, ignoring prompt [%s]", today, threadID)
		r.respondedOn = today
		return nil
	}

	messages, err := r.aggregator.todayMessages(today)
	if err != nil {
		r.logger.Printf("Error loading messages for [%s], treating as empty: %v", today, err)
	}

	if len(messages) == 0 {
		r.logger.Printf("No messages stored for [%s], not answering prompt [%s]", today, threadID)
		return nil
	}

	if err = r.notifier.PostThreadedReply(r.channelID, threadID, RenderReport(messages)); err != nil {
		return err
	}

	r.logger.Printf("Answered daily for [%s] in thread [%s] with %d message(s)", today, threadID, len(messages))
	r.dailyReplySent()

	// The report is out, so the day is answered even if recording it fails
	r.respondedOn = today
	if err = r.storer.UpsertResponse(today, true, r.clock.now()); err != nil {
		return newError(Store, err, "failed to record response for ["+today+"]")
	}

	return nil
}

// ResetDailyFlag clears the in-memory responded flag. Persisted records are untouched
func (r *Responder) ResetDailyFlag() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Printf("Resetting daily flag (was set for [%s])", r.respondedOn)
	r.respondedOn = ""
}

// CheckMissedDaily posts a reminder with today's report on the channel if today wasn't
// answered and there are messages to report. It doesn't mark the day as answered
func (r *Responder) CheckMissedDaily() (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	today := r.clock.today()
	if r.respondedOn == today || r.persistedAsSent(today) {
		r.logger.Debugf("Daily for [%s] was answered, no reminder needed", today)
		return nil
	}

	messages, err := r.aggregator.todayMessages(today)
	if err != nil {
		r.logger.Printf("Error loading messages for [%s], treating as empty: %v", today, err)
	}

	if len(messages) == 0 {
		r.logger.Debugf("No messages stored for [%s], no reminder needed", today)
		return nil
	}

	if err = r.notifier.PostChannelMessage(r.channelID, missedDailyReminderPrefix+RenderReport(messages)); err != nil {
		return err
	}

	r.logger.Printf("Sent missed daily reminder for [%s]", today)
	r.missedDailyReminderSent()

	return nil
}

// Responded returns true if today is answered according to the daily flag
func (r *Responder) Responded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.respondedOn == r.clock.today()
}

// restoreDailyFlag sets the daily flag from today's persisted record so that a restart
// never answers the same day twice
func (r *Responder) restoreDailyFlag() {
	r.mu.Lock()
	defer r.mu.Unlock()

	today := r.clock.today()
	if r.persistedAsSent(today) {
		r.logger.Printf("Daily for [%s] already answered by a previous run", today)
		r.respondedOn = today
	}
}

// persistedAsSent returns true if the record for date says the report was sent. Read errors
// are logged and treated as no record
func (r *Responder) persistedAsSent(date string) bool {
	rec, err := r.storer.GetResponse(date)
	if err != nil {
		if !store.IsNotFound(err) {
			r.logger.Printf("Error reading response record for [%s], treating as absent: %v", date, err)
		}
		return false
	}

	return rec.Sent
}
