package dailyscot

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// methodTelemetry holds the call, error and latency instruments shared by the
// telemetry decorators. Measurements are tagged with the decorated interface and method
type methodTelemetry struct {
	nameAttr      attribute.KeyValue
	interfaceAttr attribute.KeyValue
	calls         metric.Int64Counter
	errs          metric.Int64Counter
	timeRecorders metric.Int64Histogram
}

func newMethodTelemetry(interfaceName string, appName string, meter metric.Meter) (mt methodTelemetry, err error) {
	mt = methodTelemetry{nameAttr: attribute.String("name", appName), interfaceAttr: attribute.String("interface", interfaceName)}

	if mt.calls, err = meter.Int64Counter(interfaceName + ".calls"); err != nil {
		return mt, err
	}

	if mt.errs, err = meter.Int64Counter(interfaceName + ".errors"); err != nil {
		return mt, err
	}

	if mt.timeRecorders, err = meter.Int64Histogram(interfaceName+".processingTimeMillis", metric.WithUnit("ms")); err != nil {
		return mt, err
	}

	return mt, nil
}

func (mt methodTelemetry) record(method string, since time.Time, err error) {
	ctx := context.Background()
	attrs := metric.WithAttributes(mt.nameAttr, mt.interfaceAttr, attribute.String("method", method))

	mt.calls.Add(ctx, 1, attrs)
	if err != nil {
		mt.errs.Add(ctx, 1, attrs)
	}

	mt.timeRecorders.Record(ctx, time.Since(since).Milliseconds(), attrs)
}
