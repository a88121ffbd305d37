package dailyscot

import (
	"fmt"
	"strings"
	"sync"

	"github.com/alexandre-normand/dailyscot/store"
)

const (
	reportBullet          = "• "
	confirmationFormatMsg = "Got it <@%s>!\n\nHere's what your daily will look like today:\n%s"
)

// Aggregator stores the tracked user's messages for the day and renders them as a report
type Aggregator struct {
	storer   store.Storer
	notifier Notifier
	userID   string
	clock    dayClock
	logger   SLogger

	// Serializes appends with the confirmation read-back so a confirmation always includes its own message
	mu sync.Mutex
}

func newAggregator(storer store.Storer, notifier Notifier, userID string, clock dayClock, logger SLogger) (a *Aggregator) {
	return &Aggregator{storer: storer, notifier: notifier, userID: userID, clock: clock, logger: logger}
}

// RenderReport renders messages as a bulleted list, one "• <text>" line per message.
// An empty list renders as the empty string
func RenderReport(messages []string) string {
	if len(messages) == 0 {
		return ""
	}

	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = reportBullet + m
	}

	return strings.Join(lines, "\n")
}

// StoreMessage stores text for today and sends the tracked user a preview of today's report.
// Blank messages are ignored
func (a *Aggregator) StoreMessage(text string) (err error) {
	if strings.TrimSpace(text) == "" {
		a.logger.Debugf("Ignoring blank message from [%s]", a.userID)
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	today := a.clock.today()
	if _, err = a.storer.AppendMessage(today, text, a.clock.now()); err != nil {
		return newError(Store, err, "failed to store message")
	}

	a.logger.Printf("Stored message for [%s]: [%s]", today, text)

	messages, err := a.todayMessages(today)
	if err != nil {
		// The message is stored, the preview is best effort
		a.logger.Printf("Error loading messages for confirmation: %v", err)
		messages = []string{text}
	}

	if err = a.notifier.PostDirectMessage(a.userID, fmt.Sprintf(confirmationFormatMsg, a.userID, RenderReport(messages))); err != nil {
		return err
	}

	return nil
}

// TodayMessages returns today's messages, oldest first. On error, it returns an empty
// list along with a Store error
func (a *Aggregator) TodayMessages() (messages []string, err error) {
	return a.todayMessages(a.clock.today())
}

func (a *Aggregator) todayMessages(date string) (messages []string, err error) {
	stored, err := a.storer.ListMessages(date)
	if err != nil {
		return []string{}, newError(Store, err, "failed to list messages for ["+date+"]")
	}

	messages = make([]string, 0, len(stored))
	for _, m := range stored {
		messages = append(messages, m.Text)
	}

	return messages, nil
}
