package dailyscot

import (
	"time"

	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel/metric"
)

// messagePosterWithTelemetry implements MessagePoster with all methods wrapped
// with open telemetry metrics
type messagePosterWithTelemetry struct {
	base MessagePoster
	methodTelemetry
}

// NewMessagePosterWithTelemetry returns an instance of the MessagePoster decorated with open telemetry timing and count metrics
func NewMessagePosterWithTelemetry(base MessagePoster, name string, meter metric.Meter) (mp MessagePoster, err error) {
	mt, err := newMethodTelemetry("messagePoster", name, meter)
	if err != nil {
		return nil, err
	}

	return messagePosterWithTelemetry{base: base, methodTelemetry: mt}, nil
}

// PostMessage implements MessagePoster
func (_d messagePosterWithTelemetry) PostMessage(channelID string, options ...slack.MsgOption) (rChannelID string, rTimestamp string, err error) {
	defer func(since time.Time) { _d.record("PostMessage", since, err) }(time.Now())

	return _d.base.PostMessage(channelID, options...)
}
