// Package telemetry ships errors out of band.
//
// Callers hand errors to a Reporter and move on. Report never blocks and
// never fails; collectors run on a separate goroutine and a panicking
// collector is recovered.
package telemetry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reporter receives (error, context) pairs.
type Reporter interface {
	Report(err error, tags map[string]string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Report(error, map[string]string) {}

// Event is one reported error.
type Event struct {
	ID   ulid.ULID
	Time time.Time
	Err  error
	Tags map[string]string
}

// Collector forwards events to a backend.
type Collector interface {
	Collect(ev Event) error
}

// Dispatcher is a Reporter that queues events for its collectors.
type Dispatcher struct {
	collectors []Collector
	logger     *slog.Logger
	events     chan Event
	dropped    prometheus.Counter

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewDispatcher starts the worker. buffer bounds the queue; when it is full
// new events are dropped and counted. reg may be nil.
func NewDispatcher(buffer int, logger *slog.Logger, reg prometheus.Registerer, collectors ...Collector) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	d := &Dispatcher{
		collectors: collectors,
		logger:     logger,
		events:     make(chan Event, buffer),
		dropped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "telemetry_dropped_total",
			Help:      "Error reports dropped because the telemetry queue was full.",
		}),
		done: make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Report enqueues err. It returns immediately.
func (d *Dispatcher) Report(err error, tags map[string]string) {
	if err == nil {
		return
	}
	select {
	case <-d.done:
		return
	default:
	}

	ev := Event{ID: ulid.Make(), Time: time.Now(), Err: err, Tags: copyTags(tags)}
	select {
	case d.events <- ev:
	default:
		d.dropped.Inc()
		d.logger.Warn("Telemetry queue full, dropping report", "error", err)
	}
}

// Close stops the worker after draining queued events.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.done) })
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case ev := <-d.events:
			d.deliver(ev)
		case <-d.done:
			for {
				select {
				case ev := <-d.events:
					d.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(ev Event) {
	for _, c := range d.collectors {
		d.collect(c, ev)
	}
}

func (d *Dispatcher) collect(c Collector, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Telemetry collector panicked", "event_id", ev.ID.String(), "panic", r)
		}
	}()
	if err := c.Collect(ev); err != nil {
		d.logger.Warn("Telemetry collector failed", "event_id", ev.ID.String(), "error", err)
	}
}

func copyTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}
