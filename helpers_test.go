package dailyscot_test

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexandre-normand/dailyscot"
	"github.com/alexandre-normand/dailyscot/config"
	"github.com/alexandre-normand/dailyscot/store"
	"github.com/alexandre-normand/dailyscot/store/inmemorydb"
	"github.com/alexandre-normand/dailyscot/test/capture"
	"github.com/slack-go/slack"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	trackedUserID  = "U0TRACKED"
	otherUserID    = "U0OTHER"
	dailyChannelID = "C0DAILY"
	otherChannelID = "C0RANDOM"
	dmChannelID    = "D0DM"
	dailyBotID     = "B0DAILY"
	otherBotID     = "B0GIPHY"
	selfUserID     = "U0SELF"
	selfBotID      = "B0SELF"
)

// fakeClock is a settable clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t
}

// botInfoFinder returns bot names from a map and counts lookups
type botInfoFinder struct {
	mu    sync.Mutex
	names map[string]string
	calls int
	fail  bool
}

func newBotInfoFinder() *botInfoFinder {
	return &botInfoFinder{names: map[string]string{dailyBotID: "Daily Standup Bot", otherBotID: "giphy"}}
}

func (b *botInfoFinder) GetBotInfo(parameters slack.GetBotInfoParameters) (bot *slack.Bot, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls++
	if b.fail {
		return nil, fmt.Errorf("bot_not_found")
	}

	name, ok := b.names[parameters.Bot]
	if !ok {
		return nil, fmt.Errorf("bot_not_found")
	}

	return &slack.Bot{ID: parameters.Bot, Name: name}, nil
}

func (b *botInfoFinder) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.calls
}

// testBot holds a dailyscot instance and its collaborators
type testBot struct {
	*dailyscot.Dailyscot
	notifier *capture.NotifierCaptor
	storer   store.Storer
	finder   *botInfoFinder
	clock    *fakeClock
	logs     *syncBuilder
}

// syncBuilder is a strings.Builder safe for concurrent writes
type syncBuilder struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuilder) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.b.Write(p)
}

func (s *syncBuilder) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.b.String()
}

var march3 = time.Date(2026, time.March, 3, 9, 15, 0, 0, time.UTC)

func newTestConfig() *viper.Viper {
	v := config.NewViperWithDefaults()
	v.Set(config.TokenKey, "xoxb-test")
	v.Set(config.AppTokenKey, "xapp-test")
	v.Set(config.UserIDKey, trackedUserID)
	v.Set(config.ChannelIDKey, dailyChannelID)
	v.Set(config.DailyBotNameKey, "daily")
	v.Set(config.TimeLocationKey, "UTC")
	v.Set(config.DebugKey, true)

	return v
}

// newTestBotWithStorer creates a bot on storer with a capturing notifier and a fake clock set to march3
func newTestBotWithStorer(t *testing.T, storer store.Storer, options ...dailyscot.Option) (tb *testBot) {
	tb = &testBot{
		notifier: capture.NewNotifier(),
		storer:   storer,
		finder:   newBotInfoFinder(),
		clock:    newFakeClock(march3),
		logs:     new(syncBuilder),
	}

	opts := []dailyscot.Option{
		dailyscot.OptionLog(log.New(tb.logs, "", 0)),
		dailyscot.OptionMeter(noop.NewMeterProvider().Meter("test")),
		dailyscot.OptionClock(tb.clock.Now),
		dailyscot.OptionStorer(storer),
		dailyscot.OptionNotifier(tb.notifier),
		dailyscot.OptionBotInfoFinder(tb.finder),
		dailyscot.OptionSelfIdentity(selfUserID, selfBotID),
	}

	d, err := dailyscot.New("test", newTestConfig(), append(opts, options...)...)
	require.NoError(t, err)
	tb.Dailyscot = d

	return tb
}

func newTestBot(t *testing.T, options ...dailyscot.Option) (tb *testBot) {
	return newTestBotWithStorer(t, inmemorydb.NewVolatile(), options...)
}

func userMessage(userID string, channelID string, text string) dailyscot.IncomingEvent {
	return dailyscot.IncomingEvent{UserID: userID, ChannelID: channelID, Text: text, Timestamp: "1772529300.000100"}
}

func botMessage(botID string, ts string) dailyscot.IncomingEvent {
	return dailyscot.IncomingEvent{BotID: botID, ChannelID: dailyChannelID, Text: "What did you do today?", Timestamp: ts}
}

// closeTester is an io.Closer returning errorMsg as an error, if set
type closeTester struct {
	errorMsg string
	closed   bool
}

func (c *closeTester) Close() error {
	c.closed = true
	if c.errorMsg != "" {
		return fmt.Errorf("%s", c.errorMsg)
	}

	return nil
}

var _ io.Closer = &closeTester{}
