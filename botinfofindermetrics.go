package dailyscot

import (
	"time"

	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel/metric"
)

// botInfoFinderWithTelemetry implements BotInfoFinder with all methods wrapped
// with open telemetry metrics
type botInfoFinderWithTelemetry struct {
	base BotInfoFinder
	methodTelemetry
}

// NewBotInfoFinderWithTelemetry returns an instance of the BotInfoFinder decorated with open telemetry timing and count metrics
func NewBotInfoFinderWithTelemetry(base BotInfoFinder, name string, meter metric.Meter) (bf BotInfoFinder, err error) {
	mt, err := newMethodTelemetry("botInfoFinder", name, meter)
	if err != nil {
		return nil, err
	}

	return botInfoFinderWithTelemetry{base: base, methodTelemetry: mt}, nil
}

// GetBotInfo implements BotInfoFinder
func (_d botInfoFinderWithTelemetry) GetBotInfo(parameters slack.GetBotInfoParameters) (bot *slack.Bot, err error) {
	defer func(since time.Time) { _d.record("GetBotInfo", since, err) }(time.Now())

	return _d.base.GetBotInfo(parameters)
}
