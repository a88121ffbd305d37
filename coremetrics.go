package dailyscot

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Event classifications recorded by the router
const (
	dailyPromptClass  = "dailyPrompt"
	userMessageClass  = "userMessage"
	ignoredClass      = "ignored"
	malformedClass    = "malformed"
	scheduledJobClass = "scheduledJob"
)

// instrumenter holds data for core instrumentation
type instrumenter struct {
	appName     string
	nameAttr    attribute.KeyValue
	coreMetrics coreMetrics
	meter       metric.Meter
}

// coreMetrics holds core dailyscot metrics
type coreMetrics struct {
	eventsSeen                 metric.Int64Counter
	eventsRouted               metric.Int64Counter
	processingLatencyMillis    metric.Int64Histogram
	eventDispatchLatencyMillis metric.Int64Histogram
	dailyRepliesSent           metric.Int64Counter
	missedDailyRemindersSent   metric.Int64Counter
}

// newInstrumenter creates a new core instrumenter
func newInstrumenter(appName string, meter metric.Meter) (ins *instrumenter, err error) {
	ins = new(instrumenter)
	ins.appName = appName
	ins.nameAttr = attribute.String("name", appName)
	ins.meter = meter

	m := &ins.coreMetrics
	if m.eventsSeen, err = meter.Int64Counter("eventsSeen"); err != nil {
		return nil, err
	}

	if m.eventsRouted, err = meter.Int64Counter("eventsRouted"); err != nil {
		return nil, err
	}

	if m.processingLatencyMillis, err = meter.Int64Histogram("processingLatencyMillis", metric.WithUnit("ms")); err != nil {
		return nil, err
	}

	if m.eventDispatchLatencyMillis, err = meter.Int64Histogram("eventDispatchLatencyMillis", metric.WithUnit("ms")); err != nil {
		return nil, err
	}

	if m.dailyRepliesSent, err = meter.Int64Counter("dailyRepliesSent"); err != nil {
		return nil, err
	}

	if m.missedDailyRemindersSent, err = meter.Int64Counter("missedDailyRemindersSent"); err != nil {
		return nil, err
	}

	return ins, nil
}

func (ins *instrumenter) attrs(kv ...attribute.KeyValue) metric.MeasurementOption {
	return metric.WithAttributes(append([]attribute.KeyValue{ins.nameAttr}, kv...)...)
}

func (ins *instrumenter) eventSeen() {
	ins.coreMetrics.eventsSeen.Add(context.Background(), 1, ins.attrs())
}

func (ins *instrumenter) routed(class string, d time.Duration) {
	ctx := context.Background()
	a := ins.attrs(attribute.String("class", class))

	ins.coreMetrics.eventsRouted.Add(ctx, 1, a)
	ins.coreMetrics.processingLatencyMillis.Record(ctx, d.Milliseconds(), a)
}

func (ins *instrumenter) dispatched(d time.Duration) {
	ins.coreMetrics.eventDispatchLatencyMillis.Record(context.Background(), d.Milliseconds(), ins.attrs())
}

func (ins *instrumenter) dailyReplySent() {
	ins.coreMetrics.dailyRepliesSent.Add(context.Background(), 1, ins.attrs())
}

func (ins *instrumenter) missedDailyReminderSent() {
	ins.coreMetrics.missedDailyRemindersSent.Add(context.Background(), 1, ins.attrs())
}

type timed func()

func measure(operation timed) (d time.Duration) {
	before := time.Now()

	operation()

	return time.Since(before)
}
