package store

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// StorerWithTelemetry implements Storer with all methods wrapped
// with open telemetry metrics
type StorerWithTelemetry struct {
	base        Storer
	nameAttr    attribute.KeyValue
	calls       metric.Int64Counter
	errs        metric.Int64Counter
	timeRecords metric.Int64Histogram
}

// NewStorerWithTelemetry returns an instance of the Storer decorated with open telemetry timing and count metrics
func NewStorerWithTelemetry(base Storer, name string, meter metric.Meter) (s StorerWithTelemetry, err error) {
	s = StorerWithTelemetry{base: base, nameAttr: attribute.String("name", name)}

	if s.calls, err = meter.Int64Counter("storer.calls"); err != nil {
		return s, err
	}

	if s.errs, err = meter.Int64Counter("storer.errors"); err != nil {
		return s, err
	}

	if s.timeRecords, err = meter.Int64Histogram("storer.processingTimeMillis", metric.WithUnit("ms")); err != nil {
		return s, err
	}

	return s, nil
}

func (s StorerWithTelemetry) record(method string, since time.Time, err error) {
	ctx := context.Background()
	attrs := metric.WithAttributes(s.nameAttr, attribute.String("method", method))

	s.calls.Add(ctx, 1, attrs)
	if err != nil {
		s.errs.Add(ctx, 1, attrs)
	}
	s.timeRecords.Record(ctx, time.Since(since).Milliseconds(), attrs)
}

// AppendMessage implements Storer
func (s StorerWithTelemetry) AppendMessage(date string, text string, createdAt time.Time) (m DailyMessage, err error) {
	defer func(since time.Time) { s.record("AppendMessage", since, err) }(time.Now())

	return s.base.AppendMessage(date, text, createdAt)
}

// ListMessages implements Storer
func (s StorerWithTelemetry) ListMessages(date string) (messages []DailyMessage, err error) {
	defer func(since time.Time) { s.record("ListMessages", since, err) }(time.Now())

	return s.base.ListMessages(date)
}

// UpsertResponse implements Storer
func (s StorerWithTelemetry) UpsertResponse(date string, sent bool, updatedAt time.Time) (err error) {
	defer func(since time.Time) { s.record("UpsertResponse", since, err) }(time.Now())

	return s.base.UpsertResponse(date, sent, updatedAt)
}

// GetResponse implements Storer. A missing record isn't counted as an error
func (s StorerWithTelemetry) GetResponse(date string) (r ResponseRecord, err error) {
	defer func(since time.Time) {
		if IsNotFound(err) {
			s.record("GetResponse", since, nil)
			return
		}
		s.record("GetResponse", since, err)
	}(time.Now())

	return s.base.GetResponse(date)
}

// Close implements Storer
func (s StorerWithTelemetry) Close() (err error) {
	defer func(since time.Time) { s.record("Close", since, err) }(time.Now())

	return s.base.Close()
}
