// pkg/flight/otel.go
package flight

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/opd-ai/go-skymount/pkg/flight"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// instruments holds the flight metrics. The global provider is a no-op
// unless the host installs one.
type instruments struct {
	controllers metric.Int64UpDownCounter
	active      metric.Int64UpDownCounter
	jets        metric.Int64Counter
	steps       metric.Int64Counter
	stops       metric.Int64Counter
}

func newInstruments() (*instruments, error) {
	m := meter()
	inst := &instruments{}

	var err error
	inst.controllers, err = m.Int64UpDownCounter(
		"skymount.flight.controllers",
		metric.WithDescription("Flight controllers held by the registry"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating controllers counter: %w", err)
	}

	inst.active, err = m.Int64UpDownCounter(
		"skymount.flight.active",
		metric.WithDescription("Flight controllers currently running"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating active counter: %w", err)
	}

	inst.jets, err = m.Int64Counter(
		"skymount.flight.jets_started",
		metric.WithDescription("Boosts started or extended"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating jets counter: %w", err)
	}

	inst.steps, err = m.Int64Counter(
		"skymount.flight.steps",
		metric.WithDescription("Controller steps by flight mode"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating steps counter: %w", err)
	}

	inst.stops, err = m.Int64Counter(
		"skymount.flight.stops",
		metric.WithDescription("Flights ended by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stops counter: %w", err)
	}

	return inst, nil
}

func (i *instruments) step(mode Mode) {
	i.steps.Add(context.Background(), 1, metric.WithAttributes(attribute.String("mode", mode.String())))
}

func (i *instruments) stop(reason StopReason) {
	i.stops.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", string(reason))))
	i.active.Add(context.Background(), -1)
}
